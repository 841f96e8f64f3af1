package rx

import (
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/rtlradio/core"
	"github.com/ftl/rtlradio/core/demod"
	"github.com/ftl/rtlradio/core/dsp"
)

func TestPipeline_Silence(t *testing.T) {
	pipeline, err := New(1024000, DefaultOutputRate, 2048, demod.Config{Mode: core.ModeWBFM})
	require.NoError(t, err)
	sink := new(recordingSink)
	pipeline.SetSink(sink)
	var levels []float64
	pipeline.OnSignalLevelChanged(func(level float64, open bool) {
		levels = append(levels, level)
		assert.True(t, open)
	})
	var spectrum []float32
	pipeline.OnSpectrumAvailable(func(bins []float32) {
		spectrum = bins
	})

	// the first block carries the transients of the filters
	require.NoError(t, pipeline.ProcessBlock(silence(51200)))
	sink.left, sink.right = nil, nil
	levels = nil
	require.NoError(t, pipeline.ProcessBlock(silence(51200)))
	require.NoError(t, pipeline.NotifySpectrum())

	assert.InDelta(t, 2400, len(sink.left), 1)
	assert.Equal(t, len(sink.left), len(sink.right))
	for i := range sink.left {
		assert.InDelta(t, 0, sink.left[i], 1e-6)
		assert.InDelta(t, 0, sink.right[i], 1e-6)
	}
	require.Len(t, levels, 1)
	assert.InDelta(t, 1, levels[0], 1e-3)

	require.Len(t, spectrum, 2048)
	assert.InDelta(t, 10*math.Log10(2*0.005*0.005), spectrum[0], 0.01)
	for _, v := range spectrum[1:] {
		assert.Less(t, v, float32(-100))
	}
}

func TestPipeline_RecoversFMTone(t *testing.T) {
	const sampleRate = 1008000
	const blockSize = 50400
	pipeline, err := New(sampleRate, DefaultOutputRate, 2048, demod.Config{Mode: core.ModeWBFM})
	require.NoError(t, err)
	pipeline.SetStereo(false)
	sink := new(recordingSink)
	pipeline.SetSink(sink)
	reader := NewToneReader(sampleRate, 0, 1000, 50000)

	raw := make([]byte, 2*blockSize)
	for block := 0; block < 3; block++ {
		_, err := io.ReadFull(reader, raw)
		require.NoError(t, err)
		require.NoError(t, pipeline.ProcessBlock(raw))
	}

	require.GreaterOrEqual(t, len(sink.left), 2048)
	assert.InDelta(t, 43, peakBin(sink.left[len(sink.left)-2048:]), 1)
	assert.Equal(t, sink.left, sink.right)
}

func TestPipeline_ModeSwitch(t *testing.T) {
	pipeline, err := New(1024000, DefaultOutputRate, 2048, demod.Config{Mode: core.ModeWBFM})
	require.NoError(t, err)
	I, Q := dsp.IQSamplesFromUint8(silence(51200))

	steps := []struct {
		mode     core.Mode
		channels int
	}{
		{core.ModeWBFM, 2},
		{core.ModeAM, 1},
		{core.ModeUSB, 1},
		{core.ModeNBFM, 2},
		{core.ModeLSB, 1},
		{core.ModeWBFM, 2},
	}
	for _, step := range steps {
		require.NoError(t, pipeline.SetMode(demod.Config{Mode: step.mode}))
		assert.Equal(t, step.mode, pipeline.Config().Mode)

		result, err := pipeline.Demodulate(I, Q, true)

		require.NoError(t, err, step.mode)
		assert.Equal(t, step.channels, result.Channels(), step.mode)
		assert.Equal(t, len(result.Left), len(result.Right), step.mode)
		assert.NotEmpty(t, result.Left, step.mode)
	}
}

func TestPipeline_StereoIsEnabledByDefault(t *testing.T) {
	pipeline, err := New(1024000, DefaultOutputRate, 2048, demod.Config{Mode: core.ModeWBFM})
	require.NoError(t, err)
	assert.True(t, pipeline.Stereo())

	pipeline.SetStereo(false)

	assert.False(t, pipeline.Stereo())
}

func TestPipeline_InvalidModeKeepsDemodulator(t *testing.T) {
	pipeline, err := New(1024000, DefaultOutputRate, 2048, demod.Config{Mode: core.ModeAM})
	require.NoError(t, err)

	err = pipeline.SetMode(demod.Config{Mode: "CW"})

	assert.Error(t, err)
	assert.Equal(t, core.ModeAM, pipeline.Config().Mode)
}

func TestPipeline_Volume(t *testing.T) {
	pipeline, err := New(240000, DefaultOutputRate, 256, demod.Config{Mode: core.ModeUSB})
	require.NoError(t, err)
	sink := new(recordingSink)
	pipeline.SetSink(sink)
	reference, err := demod.New(demod.Config{Mode: core.ModeUSB}, 240000, DefaultOutputRate)
	require.NoError(t, err)
	I, Q := dsp.IQSamplesFromUint8(toneBytes(240000, 1000, 24000))

	pipeline.SetVolume(0.5)
	require.NoError(t, pipeline.ReceiveSamples(I, Q))
	expected, err := reference.Demodulate(I, Q, false)
	require.NoError(t, err)

	assert.Equal(t, 0.5, pipeline.Volume())
	require.Equal(t, len(expected.Left), len(sink.left))
	for i := range expected.Left {
		assert.InDelta(t, expected.Left[i]*0.5, sink.left[i], 1e-6)
	}
}

func TestPipeline_SquelchMutes(t *testing.T) {
	pipeline, err := New(240000, DefaultOutputRate, 256, demod.Config{Mode: core.ModeAM})
	require.NoError(t, err)
	sink := new(recordingSink)
	pipeline.SetSink(sink)
	pipeline.SetSquelch(0.5)
	var squelchOpen []bool
	pipeline.OnSignalLevelChanged(func(_ float64, open bool) {
		squelchOpen = append(squelchOpen, open)
	})

	require.NoError(t, pipeline.ProcessBlock(silence(24000)))

	assert.Equal(t, []bool{false}, squelchOpen)
	assert.NotEmpty(t, sink.left)
	for _, v := range sink.left {
		assert.Equal(t, float32(0), v)
	}
}

func TestPipeline_SpectrumCallbacksGetCopies(t *testing.T) {
	pipeline, err := New(240000, DefaultOutputRate, 64, demod.Config{Mode: core.ModeAM})
	require.NoError(t, err)
	var first, second []float32
	pipeline.OnSpectrumAvailable(func(bins []float32) { first = bins })
	pipeline.OnSpectrumAvailable(func(bins []float32) { second = bins })
	require.NoError(t, pipeline.ProcessBlock(toneBytes(240000, 15000, 1000)))

	require.NoError(t, pipeline.NotifySpectrum())
	first[0] = 42

	assert.Equal(t, 64, pipeline.SpectrumSize())
	assert.NotEqual(t, first[0], second[0])
	out := make([]float32, 64)
	require.NoError(t, pipeline.PopulateSpectrum(out))
	assert.Equal(t, second, out)
}

func TestPipeline_ShiftMovesSpectrum(t *testing.T) {
	pipeline, err := New(256000, DefaultOutputRate, 256, demod.Config{Mode: core.ModeAM})
	require.NoError(t, err)
	pipeline.SetShift(-16000)

	require.NoError(t, pipeline.ProcessBlock(toneBytes(256000, 16000, 2560)))
	out := make([]float32, 256)
	require.NoError(t, pipeline.PopulateSpectrum(out))

	peak := 0
	for i, v := range out {
		if v > out[peak] {
			peak = i
		}
	}
	assert.Equal(t, 0, peak)
}

type recordingSink struct {
	left  []float32
	right []float32
}

func (s *recordingSink) Play(left, right []float32) error {
	s.left = append(s.left, left...)
	s.right = append(s.right, right...)
	return nil
}

func silence(samples int) []byte {
	result := make([]byte, 2*samples)
	for i := range result {
		result[i] = 128
	}
	return result
}

func toneBytes(sampleRate, frequency float64, samples int) []byte {
	reader := NewToneReader(sampleRate, frequency, 1, 0)
	result := make([]byte, 2*samples)
	reader.Read(result)
	return result
}

func peakBin(samples []float32) int {
	fft := dsp.NewFFT(len(samples))
	re := make([]float32, fft.Length())
	im := make([]float32, fft.Length())
	copy(re, samples)
	fft.Transform(re, im)

	peak := 1
	for i := 1; i < len(re)/2; i++ {
		if re[i]*re[i]+im[i]*im[i] > re[peak]*re[peak]+im[peak]*im[peak] {
			peak = i
		}
	}
	return peak
}
