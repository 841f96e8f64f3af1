package dsp

import (
	"math"
	"strings"

	"github.com/mjibson/go-dsp/window"
	"github.com/pkg/errors"
)

// DefaultSpectrumSize is the default number of bins of the spectrum.
const DefaultSpectrumSize = 2048

// SampleReceiver receives blocks of I/Q samples.
type SampleReceiver interface {
	ReceiveSamples(I, Q []float32) error
}

// WindowFunction returns the coefficients of a window of the given length.
type WindowFunction func(int) []float64

// WindowByName returns the window function of go-dsp with the given name. The rectangular window is nil.
func WindowByName(name string) (WindowFunction, error) {
	switch strings.ToLower(name) {
	case "", "none", "rectangular":
		return nil, nil
	case "hamming":
		return window.Hamming, nil
	case "hann":
		return window.Hann, nil
	case "bartlett":
		return window.Bartlett, nil
	case "flattop":
		return window.FlatTop, nil
	case "blackman":
		return window.Blackman, nil
	default:
		return nil, errors.Errorf("unknown window function %q", name)
	}
}

// Spectrum keeps the most recent samples of the I/Q stream in a circular window and calculates
// the power spectrum of this window on demand. All received samples are passed on to the downstream receiver.
type Spectrum struct {
	fft        *FFT
	i          []float32
	q          []float32
	offset     int
	window     WindowFunction
	re         []float64
	im         []float64
	downstream SampleReceiver
}

// NewSpectrum returns a new spectrum analyzer with the given size, rounded up to the next power of two.
// The downstream receiver may be nil.
func NewSpectrum(size int, downstream SampleReceiver) *Spectrum {
	if size <= 0 {
		size = DefaultSpectrumSize
	}
	fft := NewFFT(size)
	size = fft.Length()
	return &Spectrum{
		fft:        fft,
		i:          make([]float32, size),
		q:          make([]float32, size),
		re:         make([]float64, size),
		im:         make([]float64, size),
		downstream: downstream,
	}
}

// Size of the spectrum in bins.
func (s *Spectrum) Size() int {
	return s.fft.Length()
}

// SetWindow sets the window function that is applied before the transform. nil means rectangular.
func (s *Spectrum) SetWindow(windowFunction WindowFunction) {
	s.window = windowFunction
}

// ReceiveSamples stores the given block into the circular window and passes it on to the downstream receiver.
func (s *Spectrum) ReceiveSamples(I, Q []float32) error {
	if len(I) != len(Q) {
		return errors.Wrapf(ErrLengthMismatch, "I has %d samples, Q has %d samples", len(I), len(Q))
	}
	s.store(I, Q)
	if s.downstream == nil {
		return nil
	}
	return s.downstream.ReceiveSamples(I, Q)
}

func (s *Spectrum) store(I, Q []float32) {
	size := len(s.i)
	if len(I) > size {
		I = I[len(I)-size:]
		Q = Q[len(Q)-size:]
	}
	for len(I) > 0 {
		n := copy(s.i[s.offset:], I)
		copy(s.q[s.offset:], Q[:n])
		I = I[n:]
		Q = Q[n:]
		s.offset = (s.offset + n) % size
	}
}

// PopulateSpectrum writes the power of each bin in dB into out, bin 0 is DC. The length of out must be the size of the spectrum.
func (s *Spectrum) PopulateSpectrum(out []float32) error {
	size := len(s.i)
	if len(out) != size {
		return errors.Wrapf(ErrLengthMismatch, "spectrum of size %d, got %d bins", size, len(out))
	}

	for j := 0; j < size; j++ {
		k := (s.offset + j) % size
		s.re[j] = float64(s.i[k])
		s.im[j] = float64(s.q[k])
	}
	if s.window != nil {
		window.Apply(s.re, s.window)
		window.Apply(s.im, s.window)
	}
	if err := s.fft.TransformFloat64(s.re, s.im); err != nil {
		return err
	}
	for j := range out {
		out[j] = float32(powerToDB(s.re[j], s.im[j]))
	}
	return nil
}

func powerToDB(re, im float64) float64 {
	return 10.0 * math.Log10(re*re+im*im+1.0e-20)
}
