package dsp

// Deemphasizer is a single-pole IIR low-pass filter that compensates the pre-emphasis of FM broadcast.
type Deemphasizer struct {
	alpha float64
	last  float64
}

// NewDeemphasizer returns a new de-emphasis filter with the given time constant in microseconds (50µs in Europe, 75µs in the US).
func NewDeemphasizer(sampleRate, tauMicroseconds float64) *Deemphasizer {
	return &Deemphasizer{
		alpha: 1 / (1 + sampleRate*tauMicroseconds/1e6),
	}
}

// InPlace filters the given samples in place.
func (d *Deemphasizer) InPlace(samples []float32) {
	for i, v := range samples {
		d.last += d.alpha * (float64(v) - d.last)
		samples[i] = float32(d.last)
	}
}

// Alpha is the smoothing factor of the filter.
func (d *Deemphasizer) Alpha() float64 {
	return d.alpha
}
