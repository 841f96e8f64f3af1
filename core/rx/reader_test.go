package rx

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/rtlradio/core/dsp"
)

func TestNullReader(t *testing.T) {
	buf := make([]byte, 10)

	n, err := new(NullReader).Read(buf)

	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, bytes.Repeat([]byte{128}, 10), buf)
}

func TestQuantizeUint8(t *testing.T) {
	tt := []struct {
		value    float64
		expected byte
	}{
		{0.005, 128},
		{-0.995, 0},
		{-2, 0},
		{0.5, 191},
		{2, 255},
	}
	for _, tc := range tt {
		assert.Equal(t, tc.expected, QuantizeUint8(tc.value), "%f", tc.value)
	}
}

func TestToneReader_CarrierAmplitude(t *testing.T) {
	reader := NewToneReader(48000, 1000, 100, 500)
	raw := make([]byte, 4800)

	_, err := io.ReadFull(reader, raw[:3])
	require.NoError(t, err)
	_, err = io.ReadFull(reader, raw[3:])
	require.NoError(t, err)
	I, Q := dsp.IQSamplesFromUint8(raw)

	for i := range I {
		magnitude := math.Hypot(float64(I[i]), float64(Q[i]))
		assert.InDelta(t, 0.5, magnitude, 0.02, "sample %d", i)
	}
}

func TestBlockInput_DeliversBlocksUntilEOF(t *testing.T) {
	data := make([]byte, 2*350)
	for i := range data {
		data[i] = byte(i)
	}
	input := NewBlockInput(io.NopCloser(bytes.NewReader(data)), 100, 0)
	defer input.Close()

	var blocks [][]byte
	timeout := time.After(time.Second)
	for done := false; !done; {
		select {
		case block, ok := <-input.Samples():
			if !ok {
				done = true
				break
			}
			blocks = append(blocks, block)
		case <-timeout:
			require.Fail(t, "input did not close")
		}
	}

	require.Len(t, blocks, 3)
	assert.Equal(t, data[:200], blocks[0])
	assert.Equal(t, data[400:600], blocks[2])
}

func TestBlockInput_Close(t *testing.T) {
	input := NewBlockInput(new(NullReader), 100, 10*time.Millisecond)

	select {
	case block := <-input.Samples():
		assert.Len(t, block, 200)
	case <-time.After(time.Second):
		require.Fail(t, "no block received")
	}

	assert.NoError(t, input.Close())
	assert.NoError(t, input.Close())

	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-input.Samples():
			if !ok {
				return
			}
		case <-timeout:
			require.Fail(t, "input did not close")
		}
	}
}

func TestOpenFile_Raw(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.iq")
	require.NoError(t, os.WriteFile(filename, []byte{1, 2, 3, 4}, 0644))

	reader, sampleRate, err := OpenFile(filename)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, 0, sampleRate)
	assert.Equal(t, []byte{1, 2, 3, 4}, content)
}

func TestOpenFile_WAV(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.wav")
	samples := []int{0, 255, 128, 128, 10, 20}
	writeWAV(t, filename, 8, 2, samples)

	reader, sampleRate, err := OpenFile(filename)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, 240000, sampleRate)
	assert.Equal(t, []byte{0, 255, 128, 128, 10, 20}, content)
}

func TestOpenFile_WAV16Bit(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.wav")
	writeWAV(t, filename, 16, 2, []int{0, -32768, 16384, 32767})

	reader, _, err := OpenFile(filename)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte{QuantizeUint8(0), 0, QuantizeUint8(0.5), QuantizeUint8(1)}, content)
}

func TestOpenFile_WAVReadsWholeDataChunk(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.wav")
	samples := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
	writeWAV(t, filename, 8, 2, samples)
	expected := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}

	t.Run("all at once", func(t *testing.T) {
		reader, _, err := OpenFile(filename)
		require.NoError(t, err)
		defer reader.Close()

		content, err := io.ReadAll(reader)

		require.NoError(t, err)
		assert.Equal(t, expected, content)
	})
	t.Run("byte by byte", func(t *testing.T) {
		reader, _, err := OpenFile(filename)
		require.NoError(t, err)
		defer reader.Close()

		content, err := io.ReadAll(iotest.OneByteReader(reader))

		require.NoError(t, err)
		assert.Equal(t, expected, content)
	})
}

func TestOpenFile_WAVFloat(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.wav")
	samples := make([]int, 0, 4)
	for _, v := range []float32{0, -1, 0.5, 1} {
		samples = append(samples, int(int32(math.Float32bits(v))))
	}
	writeWAVFormat(t, filename, 32, 2, 3, samples)

	reader, _, err := OpenFile(filename)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte{QuantizeUint8(0), 0, QuantizeUint8(0.5), QuantizeUint8(1)}, content)
}

func TestOpenFile_WAVNeedsTwoChannels(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "mono.wav")
	writeWAV(t, filename, 8, 1, []int{1, 2, 3})

	_, _, err := OpenFile(filename)

	assert.Error(t, err)
}

func TestOpenFile_Missing(t *testing.T) {
	_, _, err := OpenFile(filepath.Join(t.TempDir(), "missing.iq"))

	assert.Error(t, err)
}

func writeWAV(t *testing.T, filename string, bitDepth, channels int, samples []int) {
	t.Helper()
	writeWAVFormat(t, filename, bitDepth, channels, 1, samples)
}

func writeWAVFormat(t *testing.T, filename string, bitDepth, channels, format int, samples []int) {
	t.Helper()
	f, err := os.Create(filename)
	require.NoError(t, err)
	encoder := wav.NewEncoder(f, 240000, bitDepth, channels, format)
	require.NoError(t, encoder.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: 240000},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, encoder.Close())
	require.NoError(t, f.Close())
}
