package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBRange_Width(t *testing.T) {
	tt := []struct {
		from     DB
		to       DB
		expected DB
	}{
		{10, -180, 190},
		{-180, 10, 190},
		{-180, 0, 180},
		{0, 30, 30},
	}

	for i, tc := range tt {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			actual := DBRange{tc.from, tc.to}.Width()
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestFrequencyRange(t *testing.T) {
	r := FrequencyRange{From: 1000, To: 3000}

	assert.Equal(t, Frequency(2000), r.Center())
	assert.Equal(t, Frequency(2000), r.Width())
	assert.True(t, r.Contains(1000))
	assert.False(t, r.Contains(3001))
	assert.Equal(t, FrequencyRange{From: 900, To: 3100}, r.Expanded(100))

	r.Shift(-500)
	assert.Equal(t, FrequencyRange{From: 500, To: 2500}, r)
}

func TestParseMode(t *testing.T) {
	tt := []struct {
		value    string
		expected Mode
		invalid  bool
	}{
		{"wbfm", ModeWBFM, false},
		{"NBFM", ModeNBFM, false},
		{"Am", ModeAM, false},
		{"lsb", ModeLSB, false},
		{"usb", ModeUSB, false},
		{"cw", "", true},
		{"", "", true},
	}
	for _, tc := range tt {
		t.Run(tc.value, func(t *testing.T) {
			actual, err := ParseMode(tc.value)
			if tc.invalid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestMode_FMFamily(t *testing.T) {
	assert.True(t, ModeWBFM.FMFamily())
	assert.True(t, ModeNBFM.FMFamily())
	assert.False(t, ModeAM.FMFamily())
	assert.False(t, ModeUSB.FMFamily())
	assert.False(t, Mode("").FMFamily())
}

func TestBlockSize(t *testing.T) {
	c := Configuration{SampleRate: 1024000, BlocksPerSecond: 20}
	assert.Equal(t, 51200, c.BlockSize())

	assert.Equal(t, 12000, c.BlockSizeFor(240000))

	c.BlocksPerSecond = 0
	assert.Equal(t, 1024000, c.BlockSize())
}

func TestFFTIndex(t *testing.T) {
	fft := FFT{
		Data:  make([]float64, 100),
		Range: FrequencyRange{From: 1000, To: 2000},
	}

	assert.Equal(t, 10.0, fft.Resolution())
	assert.Equal(t, Frequency(1500), fft.Frequency(50))
	assert.Equal(t, 50, fft.ToIndex(1505))
	assert.Equal(t, -1, FFT{}.ToIndex(1000))
}
