package demod

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ftl/rtlradio/core/dsp"
)

const (
	amKernelLength    = 351
	audioKernelLength = 41
	audioCorner       = 10000
)

// AM demodulates amplitude modulation with an envelope detector.
type AM struct {
	config      Config
	downsampler *dsp.ComplexDownsampler
	ratio       float64
	sampler     *dsp.Downsampler
}

// NewAM returns a new AM demodulator.
func NewAM(config Config, inRate, outRate float64) *AM {
	return &AM{
		config:      config,
		downsampler: dsp.NewComplexDownsamplerWithKernel(inRate, audioIntermediateRate, dsp.LowPassKernel(inRate, float64(config.Bandwidth)/2, amKernelLength)),
		ratio:       inRate / audioIntermediateRate,
		sampler:     dsp.NewDownsamplerWithKernel(audioIntermediateRate, outRate, dsp.LowPassKernel(audioIntermediateRate, audioCorner, audioKernelLength)),
	}
}

// Config of this demodulator.
func (d *AM) Config() Config {
	return d.config
}

// Demodulate the given block into a mono signal.
func (d *AM) Demodulate(I, Q []float32, _ bool) (Result, error) {
	i, q, err := d.downsampler.Downsample(I, Q)
	if err != nil {
		return Result{}, errors.Wrap(err, "AM")
	}

	iMean := mean(i)
	qMean := mean(q)
	envelope := make([]float32, len(i))
	var inputPower, signalPower, envelopeSum float64
	for k := range envelope {
		vi := float64(i[k] - iMean)
		vq := float64(q[k] - qMean)
		power := vi*vi + vq*vq
		amplitude := math.Sqrt(power)
		envelope[k] = float32(amplitude)

		origIndex := int(float64(k) * d.ratio)
		origI := float64(I[origIndex])
		origQ := float64(Q[origIndex])
		inputPower += origI*origI + origQ*origQ
		signalPower += power
		envelopeSum += amplitude
	}

	halfPoint := float32(0)
	if len(envelope) > 0 {
		halfPoint = float32(envelopeSum / float64(len(envelope)))
	}
	for k, e := range envelope {
		if halfPoint == 0 {
			envelope[k] = 0
			continue
		}
		envelope[k] = (e - halfPoint) / halfPoint
	}

	relativePower := 0.0
	if inputPower > 0 {
		relativePower = signalPower / inputPower
	}

	left, right := mono(d.sampler.Downsample(envelope))
	return Result{
		Left:        left,
		Right:       right,
		Mono:        true,
		SignalLevel: levelFromPower(relativePower),
	}, nil
}
