package audio

import (
	"io"
	"math"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

const recorderBitDepth = 16

// CreateRecorder creates the given file and records into it.
func CreateRecorder(filename string, sampleRate int) (*Recorder, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create %s", filename)
	}
	result := NewRecorder(f, sampleRate)
	result.closer = f
	return result, nil
}

// NewRecorder returns a recorder that writes 16-bit stereo WAV data into the given output.
func NewRecorder(out io.WriteSeeker, sampleRate int) *Recorder {
	return &Recorder{
		encoder: wav.NewEncoder(out, sampleRate, recorderBitDepth, channelCount, 1),
		format:  &audio.Format{NumChannels: channelCount, SampleRate: sampleRate},
	}
}

// Recorder records the audio into a WAV file.
type Recorder struct {
	lock    sync.Mutex
	encoder *wav.Encoder
	format  *audio.Format
	closer  io.Closer
	closed  bool
}

// Play records the given audio.
func (r *Recorder) Play(left, right []float32) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return errors.New("recorder closed")
	}

	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	data := make([]int, 2*n)
	for i := 0; i < n; i++ {
		data[2*i] = toInt16(left[i])
		data[2*i+1] = toInt16(right[i])
	}

	err := r.encoder.Write(&audio.IntBuffer{
		Format:         r.format,
		Data:           data,
		SourceBitDepth: recorderBitDepth,
	})
	return errors.Wrap(err, "cannot record audio")
}

// Close finishes the WAV file.
func (r *Recorder) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.encoder.Close()
	if err != nil {
		return errors.Wrap(err, "cannot finish WAV file")
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func toInt16(v float32) int {
	return int(math.Round(float64(clamp(v)) * math.MaxInt16))
}
