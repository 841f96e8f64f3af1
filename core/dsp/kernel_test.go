package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLowPassKernel_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sampleRate := rapid.Float64Range(8000, 3200000).Draw(t, "sampleRate")
		corner := rapid.Float64Range(0.01, 0.45).Draw(t, "cornerRatio") * sampleRate
		length := rapid.IntRange(1, 401).Draw(t, "length")

		kernel := LowPassKernel(sampleRate, corner, length)

		if len(kernel)%2 != 1 || len(kernel) < length || len(kernel) > length+1 {
			t.Fatalf("wrong kernel length %d for requested length %d", len(kernel), length)
		}
		sum := 0.0
		for _, c := range kernel {
			sum += float64(c)
		}
		if math.Abs(sum-1) > 1e-4 {
			t.Fatalf("kernel sum %f != 1", sum)
		}
		for i := range kernel {
			j := len(kernel) - 1 - i
			if math.Abs(float64(kernel[i]-kernel[j])) > 1e-6 {
				t.Fatalf("kernel not symmetric at %d: %f != %f", i, kernel[i], kernel[j])
			}
		}
	})
}

func TestLowPassKernel_Values(t *testing.T) {
	kernel := LowPassKernel(4, 1, 2)

	// corner at a quarter of the sample rate: center tap π/2, outer taps sin(π/2)·hamming(3)[0]
	sum := math.Pi/2 + 2*0.08
	expected := []float32{float32(0.08 / sum), float32(math.Pi / 2 / sum), float32(0.08 / sum)}
	assert.InDeltaSlice(t, expected, kernel, 1e-6)
}

func TestHilbertKernel(t *testing.T) {
	kernel := HilbertKernel(6)

	assert.Len(t, kernel, 7)
	center := len(kernel) / 2
	for i, c := range kernel {
		offset := center - i
		if offset%2 == 0 {
			assert.Equal(t, float32(0), c, "tap %d", i)
			continue
		}
		assert.InDelta(t, 2/(math.Pi*float64(offset)), c, 1e-6, "tap %d", i)
		assert.InDelta(t, -kernel[len(kernel)-1-i], c, 1e-6, "antisymmetric tap %d", i)
	}
}
