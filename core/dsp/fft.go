package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/dsputils"
	"github.com/pkg/errors"
)

// Float is the constraint for the sample types the FFT can work on.
type Float interface {
	~float32 | ~float64
}

// FFT is a plan for an iterative radix-2 Cooley-Tukey transform of a fixed power-of-two length.
// The plan is immutable and can be reused for any number of transforms.
type FFT struct {
	length   int
	reversed []int
	forward  []twiddles
	inverse  []twiddles
}

type twiddles struct {
	cos []float64
	sin []float64
}

// NewFFT returns a plan for the given length, rounded up to the next power of two. The minimum length is 2.
func NewFFT(length int) *FFT {
	if length < 2 {
		length = 2
	}
	length = dsputils.NextPowerOf2(length)

	result := &FFT{
		length:   length,
		reversed: bitReversal(length),
	}
	for halfSize := 1; halfSize < length; halfSize *= 2 {
		result.forward = append(result.forward, newTwiddles(halfSize, -math.Pi))
		result.inverse = append(result.inverse, newTwiddles(halfSize, math.Pi))
	}
	return result
}

func bitReversal(length int) []int {
	bits := 0
	for 1<<bits < length {
		bits++
	}
	result := make([]int, length)
	for i := range result {
		r := 0
		for b := 0; b < bits; b++ {
			if i&(1<<b) != 0 {
				r |= 1 << (bits - 1 - b)
			}
		}
		result[i] = r
	}
	return result
}

func newTwiddles(halfSize int, angle float64) twiddles {
	result := twiddles{
		cos: make([]float64, halfSize),
		sin: make([]float64, halfSize),
	}
	for i := 0; i < halfSize; i++ {
		a := angle * float64(i) / float64(halfSize)
		result.cos[i] = math.Cos(a)
		result.sin[i] = math.Sin(a)
	}
	return result
}

// Length of the transform.
func (f *FFT) Length() int {
	return f.length
}

// Transform performs the normalized forward transform in place, the result is scaled by 1/length.
func (f *FFT) Transform(re, im []float32) error {
	return transform(f, re, im, f.forward, 1/float64(f.length))
}

// Reverse performs the inverse transform in place, without any scaling.
func (f *FFT) Reverse(re, im []float32) error {
	return transform(f, re, im, f.inverse, 1)
}

// TransformFloat64 is the same as Transform for float64 samples.
func (f *FFT) TransformFloat64(re, im []float64) error {
	return transform(f, re, im, f.forward, 1/float64(f.length))
}

// ReverseFloat64 is the same as Reverse for float64 samples.
func (f *FFT) ReverseFloat64(re, im []float64) error {
	return transform(f, re, im, f.inverse, 1)
}

func transform[T Float](f *FFT, re, im []T, levels []twiddles, scale float64) error {
	if len(re) != f.length || len(im) != f.length {
		return errors.Wrapf(ErrLengthMismatch, "FFT of length %d, got %d real and %d imaginary samples", f.length, len(re), len(im))
	}

	for i, r := range f.reversed {
		if i < r {
			re[i], re[r] = re[r], re[i]
			im[i], im[r] = im[r], im[i]
		}
	}
	if scale != 1 {
		s := T(scale)
		for i := range re {
			re[i] *= s
			im[i] *= s
		}
	}

	halfSize := 1
	for _, level := range levels {
		size := 2 * halfSize
		for start := 0; start < f.length; start += size {
			for i := 0; i < halfSize; i++ {
				even := start + i
				odd := even + halfSize
				c := level.cos[i]
				s := level.sin[i]
				oRe := float64(re[odd])
				oIm := float64(im[odd])
				tRe := oRe*c - oIm*s
				tIm := oRe*s + oIm*c
				eRe := float64(re[even])
				eIm := float64(im[even])
				re[odd] = T(eRe - tRe)
				im[odd] = T(eIm - tIm)
				re[even] = T(eRe + tRe)
				im[even] = T(eIm + tIm)
			}
		}
		halfSize = size
	}
	return nil
}
