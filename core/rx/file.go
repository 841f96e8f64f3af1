package rx

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// OpenFile opens a recorded capture of I/Q samples. WAV files need to have two channels, I and Q. All other
// files are read as raw interleaved unsigned 8-bit samples. The returned sample rate is 0 if the file does
// not contain it.
func OpenFile(filename string) (io.ReadCloser, int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "cannot open %s", filename)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".wav") {
		return f, 0, nil
	}

	reader, err := NewWAVReader(f)
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrapf(err, "cannot read %s", filename)
	}
	return reader, reader.SampleRate(), nil
}

// NewWAVReader returns a reader that converts the I/Q samples of a WAV container into interleaved unsigned
// 8-bit samples.
func NewWAVReader(in io.ReadSeekCloser) (*WAVReader, error) {
	decoder := wav.NewDecoder(in)
	decoder.ReadInfo()
	if err := decoder.Err(); err != nil {
		return nil, errors.Wrap(err, "invalid WAV header")
	}
	if decoder.NumChans != 2 {
		return nil, errors.Errorf("WAV file needs two channels (I/Q), got %d", decoder.NumChans)
	}
	fullScale := 1.0
	switch {
	case decoder.WavAudioFormat == wavFormatFloat && decoder.BitDepth == 32:
	case decoder.BitDepth == 8:
	case decoder.BitDepth == 16 || decoder.BitDepth == 24 || decoder.BitDepth == 32:
		fullScale = math.Exp2(float64(decoder.BitDepth - 1))
	default:
		return nil, errors.Errorf("unsupported WAV sample format %d with %d bits", decoder.WavAudioFormat, decoder.BitDepth)
	}

	return &WAVReader{
		in:        in,
		decoder:   decoder,
		buffer:    &audio.IntBuffer{},
		fullScale: fullScale,
	}, nil
}

const wavFormatFloat = 3

// WAVReader reads I/Q samples from a WAV container until the end of its data chunk.
type WAVReader struct {
	in        io.Closer
	decoder   *wav.Decoder
	buffer    *audio.IntBuffer
	fullScale float64
}

// SampleRate of the I/Q samples.
func (r *WAVReader) SampleRate() int {
	return int(r.decoder.SampleRate)
}

func (r *WAVReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if cap(r.buffer.Data) < len(p) {
		r.buffer.Data = make([]int, len(p))
	}
	r.buffer.Data = r.buffer.Data[:len(p)]

	n, err := r.decoder.PCMBuffer(r.buffer)
	if err == io.EOF {
		err = nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "cannot read WAV samples")
	}
	if n == 0 {
		return 0, io.EOF
	}

	samples := r.buffer.Data[:n]
	switch {
	case r.decoder.BitDepth == 8:
		for i, v := range samples {
			p[i] = byte(v)
		}
	case r.decoder.WavAudioFormat == wavFormatFloat:
		for i, v := range samples {
			p[i] = QuantizeUint8(float64(math.Float32frombits(uint32(v))))
		}
	default:
		for i, v := range samples {
			p[i] = QuantizeUint8(float64(v) / r.fullScale)
		}
	}
	return n, nil
}

// Close the underlying file.
func (r *WAVReader) Close() error {
	return r.in.Close()
}
