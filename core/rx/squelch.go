package rx

import "github.com/ftl/rtlradio/core/dsp"

// number of blocks the signal level is averaged over
const squelchWindow = 5

// Squelch mutes the audio when the averaged relative signal level is below a threshold.
type Squelch struct {
	threshold float64
	window    *dsp.SlidingWindow
	primed    bool
}

// NewSquelch returns a new squelch with the given threshold that averages over the given number of levels.
func NewSquelch(threshold float64, length int) *Squelch {
	return &Squelch{
		threshold: threshold,
		window:    dsp.NewSlidingWindow(length),
	}
}

// Put the next signal level and return true if the squelch is open.
func (s *Squelch) Put(level float64) bool {
	if !s.primed {
		s.window.Fill(level)
		s.primed = true
	} else {
		s.window.Put(level)
	}
	return s.Open()
}

// Open indicates if the audio should pass.
func (s *Squelch) Open() bool {
	return s.threshold <= 0 || s.window.Current() >= s.threshold
}

// Level is the averaged signal level.
func (s *Squelch) Level() float64 {
	return s.window.Current()
}

// SetThreshold sets the threshold, 0 means always open.
func (s *Squelch) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// Threshold of the squelch.
func (s *Squelch) Threshold() float64 {
	return s.threshold
}
