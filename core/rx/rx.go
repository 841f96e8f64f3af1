// Package rx contains the receive pipeline: conversion of the raw samples, the spectrum tap,
// the active demodulator, squelch and volume, and the delivery of the audio to a sink.
package rx

import (
	"github.com/pkg/errors"

	"github.com/ftl/rtlradio/core/demod"
	"github.com/ftl/rtlradio/core/dsp"
)

// DefaultOutputRate is the sample rate of the audio output.
const DefaultOutputRate = 48000

// AudioSink receives the demodulated audio.
type AudioSink interface {
	Play(left, right []float32) error
}

// SpectrumAvailable is called when new spectrum data is available. The bins are in dB, bin 0 is DC.
// The slice is owned by the callee.
type SpectrumAvailable func([]float32)

// SignalLevelChanged is called with the relative signal level of each block and the state of the squelch.
type SignalLevelChanged func(level float64, squelchOpen bool)

// Pipeline processes blocks of raw samples. It must be used from one goroutine, all setters
// take effect with the next block.
type Pipeline struct {
	inRate  float64
	outRate float64

	iBuffers *dsp.BufferPool
	qBuffers *dsp.BufferPool
	shifter  *dsp.FrequencyShifter
	spectrum *dsp.Spectrum
	bins     []float32

	demodulator demod.Demodulator
	stereo      bool
	volume      float64
	squelch     *Squelch
	sink        AudioSink

	spectrumAvailableCallbacks  []SpectrumAvailable
	signalLevelChangedCallbacks []SignalLevelChanged
}

// New returns a new pipeline for the given rates and spectrum size, demodulating with the given configuration.
func New(inRate, outRate int, spectrumSize int, config demod.Config) (*Pipeline, error) {
	demodulator, err := demod.New(config, float64(inRate), float64(outRate))
	if err != nil {
		return nil, errors.Wrap(err, "cannot create demodulator")
	}

	result := &Pipeline{
		inRate:      float64(inRate),
		outRate:     float64(outRate),
		iBuffers:    dsp.NewBufferPool(2),
		qBuffers:    dsp.NewBufferPool(2),
		shifter:     dsp.NewFrequencyShifter(float64(inRate)),
		demodulator: demodulator,
		stereo:      true,
		volume:      1,
		squelch:     NewSquelch(0, squelchWindow),
	}
	result.spectrum = dsp.NewSpectrum(spectrumSize, result)
	result.bins = make([]float32, result.spectrum.Size())
	return result, nil
}

// ProcessBlock converts the given block of interleaved unsigned 8-bit I/Q samples and runs it through
// the whole pipeline.
func (p *Pipeline) ProcessBlock(raw []byte) error {
	n := len(raw) / 2
	I := p.iBuffers.Get(n)
	Q := p.qBuffers.Get(n)
	dsp.IQSamplesFromUint8Into(raw, I, Q)
	p.shifter.InPlace(I, Q)
	return p.spectrum.ReceiveSamples(I, Q)
}

// ReceiveSamples demodulates the given block and delivers the audio to the sink.
func (p *Pipeline) ReceiveSamples(I, Q []float32) error {
	result, err := p.Demodulate(I, Q, p.stereo)
	if err != nil {
		return err
	}

	open := p.squelch.Put(result.SignalLevel)
	for _, signalLevelChanged := range p.signalLevelChangedCallbacks {
		signalLevelChanged(result.SignalLevel, open)
	}

	gain := float32(p.volume)
	if !open {
		gain = 0
	}
	scale(result.Left, gain)
	scale(result.Right, gain)

	if p.sink == nil {
		return nil
	}
	return errors.Wrap(p.sink.Play(result.Left, result.Right), "cannot play audio")
}

func scale(samples []float32, gain float32) {
	if gain == 1 {
		return
	}
	for i := range samples {
		samples[i] *= gain
	}
}

// Demodulate the given block with the current demodulator.
func (p *Pipeline) Demodulate(I, Q []float32, wantStereo bool) (demod.Result, error) {
	return p.demodulator.Demodulate(I, Q, wantStereo)
}

// SetMode replaces the demodulator with a new one for the given configuration. The current demodulator
// is kept if the configuration is invalid.
func (p *Pipeline) SetMode(config demod.Config) error {
	demodulator, err := demod.New(config, p.inRate, p.outRate)
	if err != nil {
		return errors.Wrap(err, "cannot change mode")
	}
	p.demodulator = demodulator
	return nil
}

// Config of the current demodulator.
func (p *Pipeline) Config() demod.Config {
	return p.demodulator.Config()
}

// SetStereo enables or disables the stereo decoding.
func (p *Pipeline) SetStereo(stereo bool) {
	p.stereo = stereo
}

// Stereo indicates if stereo decoding is enabled.
func (p *Pipeline) Stereo() bool {
	return p.stereo
}

// SetVolume sets the linear gain of the audio output.
func (p *Pipeline) SetVolume(volume float64) {
	p.volume = volume
}

// Volume of the audio output.
func (p *Pipeline) Volume() float64 {
	return p.volume
}

// SetSquelch sets the squelch threshold for the relative signal level, 0 means always open.
func (p *Pipeline) SetSquelch(threshold float64) {
	p.squelch.SetThreshold(threshold)
}

// SetShift moves the received signal by the given frequency before the spectrum and the demodulation.
func (p *Pipeline) SetShift(shift float64) {
	p.shifter.SetShift(shift)
}

// SetWindow sets the window function of the spectrum.
func (p *Pipeline) SetWindow(windowFunction dsp.WindowFunction) {
	p.spectrum.SetWindow(windowFunction)
}

// SetSink sets the audio sink. A nil sink discards the audio.
func (p *Pipeline) SetSink(sink AudioSink) {
	p.sink = sink
}

// SpectrumSize is the number of bins of the spectrum.
func (p *Pipeline) SpectrumSize() int {
	return p.spectrum.Size()
}

// PopulateSpectrum writes the current spectrum into out, see dsp.Spectrum.
func (p *Pipeline) PopulateSpectrum(out []float32) error {
	return p.spectrum.PopulateSpectrum(out)
}

// NotifySpectrum calculates the current spectrum and hands a copy to every registered callback.
func (p *Pipeline) NotifySpectrum() error {
	if len(p.spectrumAvailableCallbacks) == 0 {
		return nil
	}
	if err := p.spectrum.PopulateSpectrum(p.bins); err != nil {
		return err
	}
	for _, spectrumAvailable := range p.spectrumAvailableCallbacks {
		bins := make([]float32, len(p.bins))
		copy(bins, p.bins)
		spectrumAvailable(bins)
	}
	return nil
}

// OnSpectrumAvailable registers the given callback to be notified when new spectrum data is available.
func (p *Pipeline) OnSpectrumAvailable(f SpectrumAvailable) {
	p.spectrumAvailableCallbacks = append(p.spectrumAvailableCallbacks, f)
}

// OnSignalLevelChanged registers the given callback to be notified about the signal level of each block.
func (p *Pipeline) OnSignalLevelChanged(f SignalLevelChanged) {
	p.signalLevelChangedCallbacks = append(p.signalLevelChangedCallbacks, f)
}
