package demod

import (
	"github.com/pkg/errors"

	"github.com/ftl/rtlradio/core/dsp"
)

const (
	wbfmIntermediateRate = 336000
	wbfmKernelLength     = 51
	wbfmPilotFrequency   = 19000
	wbfmDeemphasisTau    = 50
	fmAudioKernelLength  = 41
	nbfmAudioCorner      = 8000
	wbfmAudioCorner      = 10000
	fmChannelFactor      = 0.8
)

// fmFrontEnd filters the channel at fmChannelFactor times the maximum deviation and downsamples it to the intermediate rate.
func fmFrontEnd(inRate, intermediateRate, maxDeviation float64, kernelLength int) *dsp.FMDemodulator {
	kernel := dsp.LowPassKernel(inRate, fmChannelFactor*maxDeviation, kernelLength)
	return dsp.NewFMDemodulatorWithKernel(inRate, intermediateRate, maxDeviation, kernel)
}

// WBFM demodulates wide band FM broadcast with optional stereo decoding.
type WBFM struct {
	config          Config
	demodulator     *dsp.FMDemodulator
	monoSampler     *dsp.Downsampler
	stereoSampler   *dsp.Downsampler
	separator       *dsp.StereoSeparator
	leftDeemphasis  *dsp.Deemphasizer
	rightDeemphasis *dsp.Deemphasizer
	diff            *dsp.BufferPool
}

// NewWBFM returns a new WBFM demodulator.
func NewWBFM(config Config, inRate, outRate float64) *WBFM {
	audioKernel := dsp.LowPassKernel(wbfmIntermediateRate, wbfmAudioCorner, fmAudioKernelLength)
	return &WBFM{
		config:          config,
		demodulator:     fmFrontEnd(inRate, wbfmIntermediateRate, float64(config.MaxDeviation), wbfmKernelLength),
		monoSampler:     dsp.NewDownsamplerWithKernel(wbfmIntermediateRate, outRate, audioKernel),
		stereoSampler:   dsp.NewDownsamplerWithKernel(wbfmIntermediateRate, outRate, audioKernel),
		separator:       dsp.NewStereoSeparator(wbfmIntermediateRate, wbfmPilotFrequency),
		leftDeemphasis:  dsp.NewDeemphasizer(outRate, wbfmDeemphasisTau),
		rightDeemphasis: dsp.NewDeemphasizer(outRate, wbfmDeemphasisTau),
		diff:            dsp.NewBufferPool(2),
	}
}

// Config of this demodulator.
func (d *WBFM) Config() Config {
	return d.config
}

// Demodulate the given block. The stereo channels are only separated if wantStereo is set and the
// stereo pilot is found, otherwise both channels carry the mono signal.
func (d *WBFM) Demodulate(I, Q []float32, wantStereo bool) (Result, error) {
	demodulated, err := d.demodulator.Demodulate(I, Q)
	if err != nil {
		return Result{}, errors.Wrap(err, "WBFM")
	}

	left, right := mono(d.monoSampler.Downsample(demodulated))
	stereo := false
	if wantStereo {
		diff := d.diff.Get(len(demodulated))
		stereo = d.separator.SeparateInto(diff, demodulated)
		diffAudio := d.stereoSampler.Downsample(diff)
		if stereo {
			for i := range left {
				left[i] += diffAudio[i]
				right[i] -= diffAudio[i]
			}
		}
	}
	d.leftDeemphasis.InPlace(left)
	d.rightDeemphasis.InPlace(right)

	return Result{
		Left:        left,
		Right:       right,
		Stereo:      stereo,
		SignalLevel: d.demodulator.RelativeSignalPower(),
	}, nil
}

// NBFM demodulates narrow band FM.
type NBFM struct {
	config      Config
	demodulator *dsp.FMDemodulator
	sampler     *dsp.Downsampler
}

// NewNBFM returns a new NBFM demodulator. The intermediate rate is a multiple of 48kHz that grows with the maximum deviation.
func NewNBFM(config Config, inRate, outRate float64) *NBFM {
	maxDeviation := float64(config.MaxDeviation)
	multiple := 1 + int((maxDeviation-1)*7/75000)
	if multiple < 1 {
		multiple = 1
	}
	intermediateRate := float64(audioIntermediateRate * multiple)
	return &NBFM{
		config:      config,
		demodulator: fmFrontEnd(inRate, intermediateRate, maxDeviation, 350/multiple),
		sampler:     dsp.NewDownsamplerWithKernel(intermediateRate, outRate, dsp.LowPassKernel(intermediateRate, nbfmAudioCorner, fmAudioKernelLength)),
	}
}

// Config of this demodulator.
func (d *NBFM) Config() Config {
	return d.config
}

// Demodulate the given block. NBFM is always mono, both channels carry the same signal.
func (d *NBFM) Demodulate(I, Q []float32, _ bool) (Result, error) {
	demodulated, err := d.demodulator.Demodulate(I, Q)
	if err != nil {
		return Result{}, errors.Wrap(err, "NBFM")
	}

	left, right := mono(d.sampler.Downsample(demodulated))
	return Result{
		Left:        left,
		Right:       right,
		SignalLevel: levelFromPower(d.demodulator.RelativeSignalPower()),
	}, nil
}
