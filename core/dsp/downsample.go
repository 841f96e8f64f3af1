package dsp

import (
	"github.com/pkg/errors"
)

// ErrLengthMismatch indicates that two buffers that need to have the same length differ.
var ErrLengthMismatch = errors.New("length mismatch")

// Downsampler reduces the sample rate of a real signal. The signal is filtered with a low-pass
// kernel and then decimated by picking the filtered sample at the floored read position.
type Downsampler struct {
	filter *FIRFilter
	ratio  float64
}

// NewDownsampler returns a new downsampler from inRate to outRate, using a low-pass kernel with the
// given length and the Nyquist frequency of the output rate as corner frequency.
func NewDownsampler(inRate, outRate float64, kernelLength int) *Downsampler {
	return NewDownsamplerWithKernel(inRate, outRate, LowPassKernel(inRate, outRate/2, kernelLength))
}

// NewDownsamplerWithKernel returns a new downsampler from inRate to outRate that uses the given kernel.
func NewDownsamplerWithKernel(inRate, outRate float64, kernel []float32) *Downsampler {
	return &Downsampler{
		filter: NewFIRFilter(kernel),
		ratio:  inRate / outRate,
	}
}

// OutputLength returns the number of samples produced from an input block of the given length.
func (d *Downsampler) OutputLength(inputLength int) int {
	return int(float64(inputLength) / d.ratio)
}

// Downsample the given block. The result is newly allocated.
func (d *Downsampler) Downsample(samples []float32) []float32 {
	result := make([]float32, d.OutputLength(len(samples)))
	d.DownsampleInto(result, samples)
	return result
}

// DownsampleInto writes the downsampled block into out and returns the number of written samples.
func (d *Downsampler) DownsampleInto(out, samples []float32) int {
	d.filter.LoadSamples(samples)
	n := d.OutputLength(len(samples))
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = d.filter.Get(int(float64(i) * d.ratio))
	}
	return n
}

// ComplexDownsampler reduces the sample rate of a complex signal using two real downsamplers with the same kernel.
type ComplexDownsampler struct {
	i *Downsampler
	q *Downsampler
}

// NewComplexDownsampler returns a new complex downsampler, see NewDownsampler.
func NewComplexDownsampler(inRate, outRate float64, kernelLength int) *ComplexDownsampler {
	return NewComplexDownsamplerWithKernel(inRate, outRate, LowPassKernel(inRate, outRate/2, kernelLength))
}

// NewComplexDownsamplerWithKernel returns a new complex downsampler that uses the given kernel.
func NewComplexDownsamplerWithKernel(inRate, outRate float64, kernel []float32) *ComplexDownsampler {
	return &ComplexDownsampler{
		i: NewDownsamplerWithKernel(inRate, outRate, kernel),
		q: NewDownsamplerWithKernel(inRate, outRate, kernel),
	}
}

// OutputLength returns the number of samples produced from an input block of the given length.
func (d *ComplexDownsampler) OutputLength(inputLength int) int {
	return d.i.OutputLength(inputLength)
}

// Downsample the given I and Q blocks.
func (d *ComplexDownsampler) Downsample(I, Q []float32) ([]float32, []float32, error) {
	if len(I) != len(Q) {
		return nil, nil, errors.Wrapf(ErrLengthMismatch, "I has %d samples, Q has %d samples", len(I), len(Q))
	}
	return d.i.Downsample(I), d.q.Downsample(Q), nil
}
