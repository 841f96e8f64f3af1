package dsp

import (
	"math"

	"github.com/pkg/errors"
)

// coefficients of the rational approximation of atan(x) for x in [0,1]
const (
	atanC0 = 0.98419158358617365
	atanC1 = 0.093485702629671305
	atanC2 = 0.19556307900617517
)

// FMDemodulator detects the frequency deviation of a complex signal as the phase difference between
// consecutive samples.
type FMDemodulator struct {
	downsampler   *ComplexDownsampler
	amplification float64
	lastI, lastQ  float32
	lastOut       float32
	relativePower float64
	outputBuffers *BufferPool
}

// NewFMDemodulator returns a new FM demodulator. The signal is downsampled from inRate to outRate first,
// a deviation of maxDeviation is mapped to an amplitude of 1.
func NewFMDemodulator(inRate, outRate, maxDeviation float64, kernelLength int) *FMDemodulator {
	return NewFMDemodulatorWithKernel(inRate, outRate, maxDeviation, LowPassKernel(inRate, outRate/2, kernelLength))
}

// NewFMDemodulatorWithKernel returns a new FM demodulator that filters the channel with the given kernel
// before downsampling.
func NewFMDemodulatorWithKernel(inRate, outRate, maxDeviation float64, kernel []float32) *FMDemodulator {
	return &FMDemodulator{
		downsampler:   NewComplexDownsamplerWithKernel(inRate, outRate, kernel),
		amplification: outRate / (2 * math.Pi * maxDeviation),
		outputBuffers: NewBufferPool(2),
	}
}

// Demodulate the given I/Q block. The returned buffer is valid until the next but one call.
func (d *FMDemodulator) Demodulate(I, Q []float32) ([]float32, error) {
	I, Q, err := d.downsampler.Downsample(I, Q)
	if err != nil {
		return nil, errors.Wrap(err, "cannot downsample FM signal")
	}

	out := d.outputBuffers.Get(len(I))
	sqrSum := 0.0
	for i := range out {
		real := float64(d.lastI)*float64(I[i]) + float64(d.lastQ)*float64(Q[i])
		imag := float64(d.lastI)*float64(Q[i]) - float64(I[i])*float64(d.lastQ)
		out[i] = float32(fastAtan2(imag, real) * d.amplification)

		diff := float64(out[i] - d.lastOut)
		sqrSum += diff * diff
		d.lastI = I[i]
		d.lastQ = Q[i]
		d.lastOut = out[i]
	}
	if len(out) > 0 {
		d.relativePower = 1 - math.Sqrt(sqrSum/float64(len(out)))
	}
	return out, nil
}

// RelativeSignalPower of the last demodulated block. This is a rough estimate of the signal quality,
// close to 1 for a clean signal and decreasing with noise.
func (d *FMDemodulator) RelativeSignalPower() float64 {
	return d.relativePower
}

// fastAtan2 approximates atan2(y, x) without calling any trigonometric function.
func fastAtan2(y, x float64) float64 {
	if x == 0 && y == 0 {
		return 0
	}

	sign := 1.0
	circle := 0.0
	offset := 0.0
	if x < 0 {
		sign = -sign
		x = -x
		circle = math.Pi
	}
	if y < 0 {
		sign = -sign
		y = -y
		circle = -circle
	}

	var div float64
	switch {
	case x > y:
		div = y / x
	case x == y:
		div = 1
	default:
		offset = -math.Pi / 2
		div = x / y
		sign = -sign
	}
	return circle + sign*(offset+div/(atanC0+div*(atanC1+div*atanC2)))
}
