package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Frequency represents a frequency in Hz.
type Frequency float64

func (f Frequency) String() string {
	return fmt.Sprintf("%.2fHz", f)
}

// FrequencyRange represents a range of frequencies.
type FrequencyRange struct {
	From, To Frequency
}

func (r FrequencyRange) String() string {
	return fmt.Sprintf("[%v,%v]", r.From, r.To)
}

// Center frequency of this range.
func (r FrequencyRange) Center() Frequency {
	return r.From + (r.To-r.From)/2
}

// Width of the frequency range.
func (r FrequencyRange) Width() Frequency {
	return r.To - r.From
}

// Contains the given frequency.
func (r FrequencyRange) Contains(f Frequency) bool {
	return f >= r.From && f <= r.To
}

// Shift the frequency by the given Δ.
func (r *FrequencyRange) Shift(Δ Frequency) {
	r.From += Δ
	r.To += Δ
}

// Expanded returns a new expanded range.
func (r FrequencyRange) Expanded(Δ Frequency) FrequencyRange {
	return FrequencyRange{From: r.From - Δ, To: r.To + Δ}
}

// DB represents decibel (dB).
type DB float64

func (f DB) String() string {
	return fmt.Sprintf("%.2fdB", f)
}

// DBRange represents a range of dB.
type DBRange struct {
	From, To DB
}

func (r DBRange) String() string {
	return fmt.Sprintf("[%v,%v]", r.From, r.To)
}

// Width of the dB range.
func (r DBRange) Width() DB {
	if r.To < r.From {
		return r.From - r.To
	}
	return r.To - r.From
}

// Contains the given value in dB.
func (r DBRange) Contains(value DB) bool {
	return value >= r.From && value <= r.To
}

// Mode of demodulation.
type Mode string

// All demodulation modes.
const (
	ModeWBFM Mode = "WBFM"
	ModeNBFM Mode = "NBFM"
	ModeAM   Mode = "AM"
	ModeLSB  Mode = "LSB"
	ModeUSB  Mode = "USB"
)

// Modes lists all supported demodulation modes.
var Modes = []Mode{ModeWBFM, ModeNBFM, ModeAM, ModeLSB, ModeUSB}

// ParseMode parses the given string case-insensitively.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", errors.Errorf("unknown mode %q", s)
}

// FMFamily indicates if the mode is frequency modulated.
func (m Mode) FMFamily() bool {
	return m == ModeWBFM || m == ModeNBFM
}

// Configuration parameters of the application.
type Configuration struct {
	Testmode            bool
	FrequencyCorrection int
	VFOHost             string
	InputFile           string
	RecordFile          string

	CenterFrequency Frequency
	TuningOffset    Frequency
	SampleRate      int
	OutputRate      int
	Gain            float64 // in dB, 0 means automatic gain control

	Mode         Mode // empty selects the mode from the bandplan
	Bandwidth    Frequency
	MaxDeviation Frequency
	Stereo       bool
	Volume       float64
	Squelch      float64

	FFTSize         int
	FFTWindow       string
	FFTPerSecond    int
	BlocksPerSecond int
}

// BlockSize is the number of I/Q samples per processed block.
func (c Configuration) BlockSize() int {
	return c.BlockSizeFor(c.SampleRate)
}

// BlockSizeFor returns the number of I/Q samples per processed block at the given sample rate.
func (c Configuration) BlockSizeFor(sampleRate int) int {
	if c.BlocksPerSecond <= 0 {
		return sampleRate
	}
	return sampleRate / c.BlocksPerSecond
}

// SamplesInput provides blocks of raw interleaved unsigned 8-bit I/Q samples.
type SamplesInput interface {
	Samples() <-chan []byte
	Close() error
}

// FFT data and the corresponding frequency range, centered around the tuned frequency.
type FFT struct {
	Data          []float64
	Range         FrequencyRange
	Mean          float64
	PeakThreshold float64
	SigmaEnvelope []float64
	Peaks         []PeakIndexRange
}

// PeakIndexRange describes a peak in the FFT data by its bin indices.
type PeakIndexRange struct {
	From  int
	To    int
	Max   int
	Value float64
}

// Resolution of the FFT data in Hz per bin.
func (f FFT) Resolution() float64 {
	if len(f.Data) == 0 {
		return 0
	}
	return float64(f.Range.Width()) / float64(len(f.Data))
}

// Frequency of the bin with the given index.
func (f FFT) Frequency(index int) Frequency {
	return f.Range.From + Frequency(float64(index)*f.Resolution())
}

// ToIndex returns the index of the bin that contains the given frequency.
func (f FFT) ToIndex(frequency Frequency) int {
	resolution := f.Resolution()
	if resolution == 0 {
		return -1
	}
	return int(float64(frequency-f.Range.From) / resolution)
}
