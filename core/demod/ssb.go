package demod

import (
	"github.com/pkg/errors"

	"github.com/ftl/rtlradio/core"
	"github.com/ftl/rtlradio/core/dsp"
)

const (
	ssbKernelLength = 151
	ssbCorner       = 10000
)

// SSB demodulates single sideband with a Hilbert transformer.
type SSB struct {
	config      Config
	downsampler *dsp.ComplexDownsampler
	hilbert     *dsp.FIRFilter
	delay       *dsp.FIRFilter
	side        *dsp.FIRFilter
	multiplier  float32
	sampler     *dsp.Downsampler
}

// NewSSB returns a new SSB demodulator for the mode of the configuration (LSB or USB).
func NewSSB(config Config, inRate, outRate float64) *SSB {
	hilbert := dsp.HilbertKernel(ssbKernelLength)
	multiplier := float32(1)
	if config.Mode == core.ModeUSB {
		multiplier = -1
	}
	return &SSB{
		config:      config,
		downsampler: dsp.NewComplexDownsamplerWithKernel(inRate, audioIntermediateRate, dsp.LowPassKernel(inRate, ssbCorner, ssbKernelLength)),
		hilbert:     dsp.NewFIRFilter(hilbert),
		delay:       dsp.NewFIRFilter(hilbert),
		side:        dsp.NewFIRFilter(dsp.LowPassKernel(audioIntermediateRate, float64(config.Bandwidth), ssbKernelLength)),
		multiplier:  multiplier,
		sampler:     dsp.NewDownsamplerWithKernel(audioIntermediateRate, outRate, dsp.LowPassKernel(audioIntermediateRate, audioCorner, audioKernelLength)),
	}
}

// Config of this demodulator.
func (d *SSB) Config() Config {
	return d.config
}

// Demodulate the given block into a mono signal of the configured sideband.
func (d *SSB) Demodulate(I, Q []float32, _ bool) (Result, error) {
	i, q, err := d.downsampler.Downsample(I, Q)
	if err != nil {
		return Result{}, errors.Wrap(err, string(d.config.Mode))
	}

	d.hilbert.LoadSamples(q)
	d.delay.LoadSamples(i)
	mixed := make([]float32, len(i))
	for k := range mixed {
		mixed[k] = d.delay.GetDelayed(k) + d.multiplier*d.hilbert.Get(k)
	}

	d.side.LoadSamples(mixed)
	var inputPower, signalPower float64
	for k := range mixed {
		mixed[k] = d.side.Get(k)
		signalPower += float64(mixed[k]) * float64(mixed[k])
		inputPower += float64(i[k])*float64(i[k]) + float64(q[k])*float64(q[k])
	}

	relativePower := 0.0
	if inputPower > 0 {
		relativePower = signalPower / (2 * inputPower)
	}

	left, right := mono(d.sampler.Downsample(mixed))
	return Result{
		Left:        left,
		Right:       right,
		Mono:        true,
		SignalLevel: levelFromPower(relativePower),
	}, nil
}
