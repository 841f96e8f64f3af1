package dsp

import "math"

const (
	stereoAverageWeight     = 9999
	stereoCorrelationWeight = 49999
	stereoTableSize         = 8001
	stereoMaxCorrection     = 4
	stereoLockThreshold     = 400
)

// StereoSeparator recovers the L-R signal of a multiplexed FM stereo signal. It locks onto the
// pilot tone with a phase-locked loop that rotates its reference phase through a lookup table
// of 8001 frequency corrections in steps of 0.01Hz around the pilot frequency.
type StereoSeparator struct {
	sin, cos    float64
	iAverage    expAverage
	qAverage    expAverage
	correlation expAverage
	sinTable    []float64
	cosTable    []float64
}

// NewStereoSeparator returns a new separator for the given sample rate and pilot frequency.
func NewStereoSeparator(sampleRate, pilotFrequency float64) *StereoSeparator {
	result := &StereoSeparator{
		sin:         0,
		cos:         1,
		iAverage:    expAverage{weight: stereoAverageWeight},
		qAverage:    expAverage{weight: stereoAverageWeight},
		correlation: expAverage{weight: stereoCorrelationWeight},
		sinTable:    make([]float64, stereoTableSize),
		cosTable:    make([]float64, stereoTableSize),
	}
	for i := range result.sinTable {
		freq := (pilotFrequency + float64(i)/100 - 40) * 2 * math.Pi / sampleRate
		result.sinTable[i] = math.Sin(freq)
		result.cosTable[i] = math.Cos(freq)
	}
	return result
}

// Separate replaces the samples in place with the L-R signal. It returns true if the loop is locked
// onto a pilot tone.
func (s *StereoSeparator) Separate(samples []float32) bool {
	return s.SeparateInto(samples, samples)
}

// SeparateInto writes the L-R signal of src into dst and returns true if the loop is locked onto a pilot tone.
// dst must be at least as long as src, it may be the same buffer as src.
func (s *StereoSeparator) SeparateInto(dst, src []float32) bool {
	for i, v := range src {
		sample := float64(v)
		hdev := s.iAverage.add(sample * s.sin)
		vdev := s.qAverage.add(sample * s.cos)
		dst[i] = float32(sample * s.sin * s.cos * 2)

		var corr float64
		switch {
		case hdev > 0:
			corr = math.Max(-stereoMaxCorrection, math.Min(stereoMaxCorrection, vdev/hdev))
		case vdev == 0:
			corr = 0
		case vdev > 0:
			corr = stereoMaxCorrection
		default:
			corr = -stereoMaxCorrection
		}
		index := int(math.Round((corr + stereoMaxCorrection) * 1000))

		newSin := s.sin*s.cosTable[index] + s.cos*s.sinTable[index]
		s.cos = s.cos*s.cosTable[index] - s.sin*s.sinTable[index]
		s.sin = newSin

		s.correlation.add(corr * 10)
	}
	return s.Locked()
}

// Locked indicates if the loop is currently locked onto a pilot tone.
func (s *StereoSeparator) Locked() bool {
	return s.correlation.variance < stereoLockThreshold
}

type expAverage struct {
	weight   float64
	average  float64
	variance float64
}

func (a *expAverage) add(value float64) float64 {
	a.average = (a.weight*a.average + value) / (a.weight + 1)
	diff := value - a.average
	a.variance = (a.weight*a.variance + diff*diff) / (a.weight + 1)
	return a.average
}
