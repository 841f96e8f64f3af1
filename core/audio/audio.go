// Package audio contains the outputs for the demodulated audio: playback through the sound card,
// WAV recording and fan-out to several outputs.
package audio

import (
	"github.com/pkg/errors"
)

// Sink consumes stereo audio. Mono audio is delivered with identical channels.
type Sink interface {
	Play(left, right []float32) error
}

// Tee delivers the audio to all given sinks.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

// Play delivers the audio to every sink, even if one of them fails. The first error is returned.
func (t tee) Play(left, right []float32) error {
	var result error
	for _, sink := range t {
		err := sink.Play(left, right)
		if err != nil && result == nil {
			result = errors.Wrap(err, "cannot deliver audio")
		}
	}
	return result
}

func clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
