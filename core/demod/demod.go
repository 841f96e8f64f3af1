// Package demod contains the demodulators for all supported modes. Each mode is one type that owns
// all of its filter state, a change of the mode replaces the whole demodulator.
package demod

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ftl/rtlradio/core"
)

// The intermediate sample rate of the AM and SSB demodulators and the base of the NBFM intermediate rate.
const audioIntermediateRate = 48000

// Defaults for the mode parameters.
const (
	DefaultWBFMDeviation core.Frequency = 75000
	DefaultNBFMDeviation core.Frequency = 5000
	DefaultAMBandwidth   core.Frequency = 10000
	DefaultSSBBandwidth  core.Frequency = 2800
)

// Config of a demodulator.
type Config struct {
	Mode         core.Mode
	Bandwidth    core.Frequency // AM, LSB, USB
	MaxDeviation core.Frequency // WBFM, NBFM
}

// WithDefaults returns a copy of the configuration with the zero parameters replaced by the mode's defaults.
func (c Config) WithDefaults() Config {
	switch c.Mode {
	case core.ModeWBFM:
		if c.MaxDeviation <= 0 {
			c.MaxDeviation = DefaultWBFMDeviation
		}
	case core.ModeNBFM:
		if c.MaxDeviation <= 0 {
			c.MaxDeviation = DefaultNBFMDeviation
		}
	case core.ModeAM:
		if c.Bandwidth <= 0 {
			c.Bandwidth = DefaultAMBandwidth
		}
	case core.ModeLSB, core.ModeUSB:
		if c.Bandwidth <= 0 {
			c.Bandwidth = DefaultSSBBandwidth
		}
	}
	return c
}

// Result of the demodulation of one block.
type Result struct {
	Left        []float32
	Right       []float32
	Stereo      bool    // the stereo pilot was found and Left/Right carry separate channels
	Mono        bool    // the mode is mono only, Right is a copy of Left
	SignalLevel float64 // relative signal level, roughly in [0,1]
}

// Channels returns 1 for mono only modes and 2 for stereo capable modes.
func (r Result) Channels() int {
	if r.Mono {
		return 1
	}
	return 2
}

// Demodulator converts blocks of I/Q samples into audio.
type Demodulator interface {
	Demodulate(I, Q []float32, wantStereo bool) (Result, error)
	Config() Config
}

// New returns a new demodulator for the given configuration, converting from inRate to outRate.
func New(config Config, inRate, outRate float64) (Demodulator, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, errors.Errorf("invalid sample rates %f -> %f", inRate, outRate)
	}
	config = config.WithDefaults()
	switch config.Mode {
	case core.ModeWBFM:
		return NewWBFM(config, inRate, outRate), nil
	case core.ModeNBFM:
		return NewNBFM(config, inRate, outRate), nil
	case core.ModeAM:
		return NewAM(config, inRate, outRate), nil
	case core.ModeLSB, core.ModeUSB:
		return NewSSB(config, inRate, outRate), nil
	default:
		return nil, errors.Errorf("unknown mode %q", config.Mode)
	}
}

func mono(samples []float32) ([]float32, []float32) {
	right := make([]float32, len(samples))
	copy(right, samples)
	return samples, right
}

func mean(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	return float32(sum / float64(len(samples)))
}

// levelFromPower maps a relative power to a signal level, stretching the lower end.
func levelFromPower(power float64) float64 {
	return math.Pow(math.Max(0, math.Min(1, power)), 0.17)
}
