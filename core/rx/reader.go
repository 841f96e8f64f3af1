package rx

import (
	"math"
	"math/rand"
)

// NullReader returns silence, every byte is the center value 128.
type NullReader struct{}

func (r *NullReader) Read(p []byte) (n int, err error) {
	for i := range p {
		p[i] = 128
	}
	return len(p), nil
}

// Close the reader.
func (r *NullReader) Close() error {
	return nil
}

// RandomReader returns random values.
type RandomReader struct{}

func (r *RandomReader) Read(p []byte) (n int, err error) {
	return rand.Read(p)
}

// Close the reader.
func (r *RandomReader) Close() error {
	return nil
}

// NewToneReader returns a reader of interleaved unsigned 8-bit I/Q samples of a carrier at the given offset
// from the center frequency, frequency modulated with a tone.
func NewToneReader(sampleRate, carrierOffset, tone, deviation float64) *ToneReader {
	return &ToneReader{
		sampleRate:    sampleRate,
		carrierOffset: carrierOffset,
		tone:          tone,
		deviation:     deviation,
		amplitude:     0.5,
	}
}

// ToneReader produces a synthetic FM signal.
type ToneReader struct {
	sampleRate    float64
	carrierOffset float64
	tone          float64
	deviation     float64
	amplitude     float64
	n             int64
	odd           bool
	pendingQ      byte
}

func (r *ToneReader) Read(p []byte) (n int, err error) {
	for i := range p {
		if r.odd {
			p[i] = r.pendingQ
			r.odd = false
			continue
		}
		t := float64(r.n) / r.sampleRate
		φ := 2*math.Pi*r.carrierOffset*t + (r.deviation/r.tone)*math.Sin(2*math.Pi*r.tone*t)
		p[i] = QuantizeUint8(r.amplitude * math.Cos(φ))
		r.pendingQ = QuantizeUint8(r.amplitude * math.Sin(φ))
		r.odd = true
		r.n++
	}
	return len(p), nil
}

// Close the reader.
func (r *ToneReader) Close() error {
	return nil
}

// QuantizeUint8 converts a sample value into the unsigned 8-bit representation of the dongle.
func QuantizeUint8(v float64) byte {
	q := math.Round((v + 0.995) * 128)
	return byte(math.Max(0, math.Min(255, q)))
}
