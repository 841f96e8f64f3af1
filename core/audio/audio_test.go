package audio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	dspwav "github.com/mjibson/go-dsp/wav"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterleaveFloat32LE(t *testing.T) {
	data := interleaveFloat32LE([]float32{0.5, 2}, []float32{-0.25, -3, 1})

	require.Len(t, data, 16)
	expected := []float32{0.5, -0.25, 1, -1}
	for i, e := range expected {
		assert.Equal(t, e, math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])), "value %d", i)
	}
}

func TestRecorder(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "audio.wav")
	recorder, err := CreateRecorder(filename, 48000)
	require.NoError(t, err)

	require.NoError(t, recorder.Play([]float32{0, 1}, []float32{-1, 0.5}))
	require.NoError(t, recorder.Play([]float32{2}, []float32{-2}))
	require.NoError(t, recorder.Close())
	require.NoError(t, recorder.Close())
	assert.Error(t, recorder.Play([]float32{0}, []float32{0}))

	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	w, err := dspwav.New(f)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), w.NumChannels)
	assert.Equal(t, uint32(48000), w.SampleRate)
	assert.Equal(t, uint16(16), w.BitsPerSample)
	require.Equal(t, 6, w.Samples)

	samples, err := w.ReadSamples(6)
	require.NoError(t, err)
	assert.Equal(t, []int16{0, -32767, 32767, 16384, 32767, -32767}, samples)
}

func TestTee(t *testing.T) {
	first := new(recordingSink)
	failing := &recordingSink{err: errors.New("failed")}
	last := new(recordingSink)
	sink := Tee(first, failing, last)

	err := sink.Play([]float32{1, 2}, []float32{3, 4})

	assert.Error(t, err)
	for _, s := range []*recordingSink{first, failing, last} {
		assert.Equal(t, []float32{1, 2}, s.left)
		assert.Equal(t, []float32{3, 4}, s.right)
	}
}

type recordingSink struct {
	left  []float32
	right []float32
	err   error
}

func (s *recordingSink) Play(left, right []float32) error {
	s.left = append(s.left, left...)
	s.right = append(s.right, right...)
	return s.err
}
