package dsp

import (
	"math"

	"github.com/pkg/errors"
)

// NewAverager returns a new Averager over the given number of rows with the given row size.
func NewAverager(length, rowSize int) *Averager {
	result := &Averager{
		length:  length,
		buffer:  make([][]float64, length),
		index:   0,
		current: make([]float64, rowSize),
	}
	for i := range result.buffer {
		result.buffer[i] = make([]float64, rowSize)
	}
	return result
}

// Averager calculates the moving average per column over the last rows.
type Averager struct {
	length  int
	buffer  [][]float64
	index   int
	current []float64
}

// Put the given row and return the current average. The result is owned by the averager.
func (a *Averager) Put(row []float64) []float64 {
	oldest := a.buffer[a.index]
	for i := range row {
		if i >= len(a.current) {
			break
		}
		a.current[i] += (row[i] - oldest[i]) / float64(a.length)
		oldest[i] = row[i]
	}
	a.index = (a.index + 1) % a.length
	return a.current
}

// NewMaxer returns a new Maxer over the given number of rows with the given row size.
func NewMaxer(length, rowSize int) *Maxer {
	result := &Maxer{
		length:  length,
		buffer:  make([][]float64, length),
		index:   0,
		current: make([]float64, rowSize),
	}
	for i := range result.buffer {
		result.buffer[i] = make([]float64, rowSize)
		for j := range result.buffer[i] {
			result.buffer[i][j] = math.Inf(-1)
		}
	}
	return result
}

// Maxer calculates the maximum per column over the last rows.
type Maxer struct {
	length  int
	buffer  [][]float64
	index   int
	current []float64
}

// Put the given row and return the current maximum. The result is owned by the maxer.
func (m *Maxer) Put(row []float64) []float64 {
	copy(m.buffer[m.index], row)
	m.index = (m.index + 1) % m.length
	for i := range m.current {
		m.current[i] = math.Inf(-1)
		for _, r := range m.buffer {
			m.current[i] = math.Max(m.current[i], r[i])
		}
	}
	return m.current
}

// NewSlidingWindow returns a new SlidingWindow over the given number of values.
func NewSlidingWindow(length int) *SlidingWindow {
	if length < 1 {
		length = 1
	}
	result := &SlidingWindow{
		length:  length,
		buffer:  make([]float64, length),
		index:   0,
		current: 0,
	}
	return result
}

// SlidingWindow calculates the moving average over the last values.
type SlidingWindow struct {
	length  int
	buffer  []float64
	index   int
	current float64
}

// Put the given value and return the current average.
func (w *SlidingWindow) Put(v float64) float64 {
	w.current += ((v - w.buffer[w.index]) / float64(w.length))
	w.buffer[w.index] = v
	w.index = (w.index + 1) % w.length
	return w.current
}

// Fill the whole window with the given value.
func (w *SlidingWindow) Fill(v float64) {
	for i := range w.buffer {
		w.buffer[i] = v
	}
	w.current = v
}

// Current average of the window.
func (w *SlidingWindow) Current() float64 {
	return w.current
}

// CenteredSlidingWindowAverageAndSigmaEnvelope calculates for each value the average and the average plus the standard deviation
// over a window that is centered around the value. The window size must be odd.
func CenteredSlidingWindowAverageAndSigmaEnvelope(values []float64, windowSize int) ([]float64, []float64, error) {
	if windowSize%2 == 0 {
		return nil, nil, errors.Errorf("window size must be odd, got %d", windowSize)
	}
	loadingCount := windowSize / 2
	var buffer float64
	average := make([]float64, len(values))
	sigmaEnvelope := make([]float64, len(values))
	for i := 0; i < len(values)+loadingCount; i++ {
		if i < len(values) {
			buffer += values[i]
		}
		if i >= windowSize {
			buffer -= values[i-windowSize]
		}
		if i < loadingCount {
			continue
		}

		mean := buffer / float64(windowSize)
		sigmaSum := 0.0
		for j := i - windowSize + 1; j <= i; j++ {
			if 0 <= j && j < len(values) {
				sigmaSum += math.Pow(values[j]-mean, 2)
			}
		}
		average[i-loadingCount] = mean
		sigmaEnvelope[i-loadingCount] = mean + math.Sqrt(sigmaSum/float64(windowSize))
	}
	return average, sigmaEnvelope, nil
}
