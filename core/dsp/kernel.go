package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/window"
)

// LowPassKernel returns the coefficients of a windowed-sinc low-pass filter with the given corner frequency.
// The length is rounded up to the next odd number, the coefficients sum up to 1.
func LowPassKernel(sampleRate, cornerFrequency float64, length int) []float32 {
	length = oddLength(length)
	freq := cornerFrequency / sampleRate
	center := length / 2
	hamming := window.Hamming(length)

	coeffs := make([]float64, length)
	sum := 0.0
	for i := range coeffs {
		var v float64
		if i == center {
			v = 2 * math.Pi * freq
		} else {
			k := float64(i - center)
			v = math.Sin(2*math.Pi*freq*k) / k
		}
		coeffs[i] = v * hamming[i]
		sum += coeffs[i]
	}

	result := make([]float32, length)
	for i, c := range coeffs {
		result[i] = float32(c / sum)
	}
	return result
}

// HilbertKernel returns the coefficients of a Hilbert transformer. The length is rounded up to the next odd
// number. The coefficients are not normalized.
func HilbertKernel(length int) []float32 {
	length = oddLength(length)
	center := length / 2
	result := make([]float32, length)
	for i := range result {
		offset := center - i
		if offset%2 == 0 {
			continue
		}
		result[i] = float32(2 / (math.Pi * float64(offset)))
	}
	return result
}

func oddLength(length int) int {
	if length < 1 {
		return 1
	}
	if length%2 == 0 {
		return length + 1
	}
	return length
}
