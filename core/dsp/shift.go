package dsp

import "math"

// FrequencyShifter moves a complex signal in frequency by multiplying it with a rotating phasor.
// The phase is carried across blocks.
type FrequencyShifter struct {
	sampleRate float64
	shift      float64
	stepRe     float64
	stepIm     float64
	re, im     float64
}

// NewFrequencyShifter returns a new shifter for the given sample rate without any shift.
func NewFrequencyShifter(sampleRate float64) *FrequencyShifter {
	result := &FrequencyShifter{
		sampleRate: sampleRate,
		re:         1,
	}
	result.SetShift(0)
	return result
}

// SetShift sets the frequency shift in Hz. A positive shift moves the signal up.
func (s *FrequencyShifter) SetShift(shift float64) {
	ω := 2 * math.Pi * shift / s.sampleRate
	s.shift = shift
	s.stepRe = math.Cos(ω)
	s.stepIm = math.Sin(ω)
}

// Shift in Hz.
func (s *FrequencyShifter) Shift() float64 {
	return s.shift
}

// InPlace shifts the given samples in place. I and Q must have the same length.
func (s *FrequencyShifter) InPlace(I, Q []float32) {
	if s.shift == 0 {
		return
	}
	for n := range I {
		i := float64(I[n])
		q := float64(Q[n])
		I[n] = float32(i*s.re - q*s.im)
		Q[n] = float32(i*s.im + q*s.re)
		re := s.re*s.stepRe - s.im*s.stepIm
		s.im = s.re*s.stepIm + s.im*s.stepRe
		s.re = re
	}
	norm := math.Hypot(s.re, s.im)
	s.re /= norm
	s.im /= norm
}
