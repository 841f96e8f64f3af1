package panorama

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/rtlradio/core"
	"github.com/ftl/rtlradio/core/bandplan"
)

func TestPut_CentersTheSpectrum(t *testing.T) {
	p := New(100, 1)

	fft := p.Put([]float32{0, 1, 2, 3}, 1000000, 4000)

	assert.Equal(t, []float64{2, 3, 0, 1}, fft.Data)
	assert.Equal(t, core.FrequencyRange{From: 998000, To: 1002000}, fft.Range)
	assert.Equal(t, core.Frequency(1000000), fft.Frequency(2))
	assert.Equal(t, 1.5, fft.Mean)
	assert.Equal(t, fft, p.FFT())
}

func TestPut_Averages(t *testing.T) {
	p := New(100, 2)

	first := p.Put([]float32{-10, -20}, 1000000, 2000)
	second := p.Put([]float32{-30, -40}, 1000000, 2000)

	assert.Equal(t, []float64{-20, -10}, first.Data)
	assert.Equal(t, []float64{-30, -20}, second.Data)
}

func TestPut_Empty(t *testing.T) {
	p := New(100, 1)

	fft := p.Put(nil, 1000000, 2000)

	assert.Empty(t, fft.Data)
	assert.Equal(t, View{}, p.Data())
}

func TestPut_DetectsPeaks(t *testing.T) {
	p := New(256, 1)

	fft := p.Put(spike(256, 10), 1000000, 256000)

	require.Len(t, fft.Peaks, 1)
	peak := fft.Peaks[0]
	assert.Equal(t, 138, peak.Max)
	assert.Equal(t, 138, peak.From)
	assert.Equal(t, 138, peak.To)
	assert.Equal(t, -20.0, peak.Value)
	assert.Equal(t, core.Frequency(1010000), fft.Frequency(peak.Max))
}

func TestPut_NoPeaksInFlatSpectrum(t *testing.T) {
	p := New(256, 1)
	bins := make([]float32, 256)
	for i := range bins {
		bins[i] = -100
	}

	fft := p.Put(bins, 1000000, 256000)

	assert.Empty(t, fft.Peaks)
}

func TestData_FullRange(t *testing.T) {
	p := New(64, 1)
	p.SetTuned(1010000, 10000)
	p.Put(spike(256, 10), 1000000, 256000)

	view := p.Data()

	assert.Equal(t, core.FrequencyRange{From: 872000, To: 1128000}, view.FrequencyRange)
	assert.Len(t, view.Spectrum, 64)
	assert.Len(t, view.SigmaEnvelope, 64)
	assert.Equal(t, core.DB(-20), view.SignalLevel)
	assert.InDelta(t, 0.5390625, float64(view.TunedLine), 1e-9)
	require.Len(t, view.Peaks, 1)
	assert.Equal(t, core.Frequency(1010000), view.Peaks[0].MaxFrequency)
	assert.Equal(t, bandplan.BandMW, view.Band.Name)
	for _, mark := range view.FrequencyScale {
		assert.True(t, view.FrequencyRange.Contains(mark.Frequency))
	}
}

func TestData_Span(t *testing.T) {
	p := New(1000, 1)
	p.SetTuned(1010000, 10000)
	p.SetSpan(20000)
	p.Put(spike(256, 10), 1000000, 256000)

	view := p.Data()

	assert.Equal(t, core.FrequencyRange{From: 1000000, To: 1020000}, view.FrequencyRange)
	assert.Len(t, view.Spectrum, 21)
	assert.Equal(t, Frct(0.5), view.TunedLine)
	assert.Equal(t, Frct(0.25), view.TunedFilterFrom)
	assert.Equal(t, Frct(0.75), view.TunedFilterTo)
}

func TestZoom(t *testing.T) {
	p := New(100, 1)
	p.Put(spike(256, 10), 1000000, 256000)

	p.ZoomIn()
	assert.Equal(t, core.Frequency(204800), p.Span())

	p.ZoomOut()
	assert.Equal(t, core.Frequency(0), p.Span())
}

func TestPeaks_Timeout(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := New(256, 1)
	p.now = func() time.Time { return now }
	flat := make([]float32, 256)
	for i := range flat {
		flat[i] = -100
	}

	p.Put(spike(256, 10), 1000000, 256000)
	assert.Len(t, p.Data().Peaks, 1)

	now = now.Add(5 * time.Second)
	p.Put(flat, 1000000, 256000)
	assert.Len(t, p.Data().Peaks, 1, "the peak remains visible for a while")

	now = now.Add(6 * time.Second)
	assert.Empty(t, p.Data().Peaks)
}

func TestSetTuned_Band(t *testing.T) {
	p := New(100, 1)

	p.SetTuned(7050000, 2800)

	assert.Equal(t, bandplan.Band40m, p.band.Name)
}

func TestFrequencyScale(t *testing.T) {
	tt := []struct {
		name     string
		value    core.FrequencyRange
		expected []core.Frequency
	}{
		{"1kHz", core.FrequencyRange{From: 1000, To: 2000}, []core.Frequency{1000, 1100, 1200, 1300, 1400, 1500, 1600, 1700, 1800, 1900, 2000}},
		{"odd", core.FrequencyRange{From: 1050, To: 1950}, []core.Frequency{1100, 1200, 1300, 1400, 1500, 1600, 1700, 1800, 1900}},
		{"wide", core.FrequencyRange{From: 99396000, To: 100404000}, []core.Frequency{99400000, 99600000, 99800000, 100000000, 100200000, 100400000}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			marks := frequencyScale(tc.value)
			actual := make([]core.Frequency, len(marks))
			for i, mark := range marks {
				actual[i] = mark.Frequency
			}
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestDBScale(t *testing.T) {
	marks := dbScale(core.DBRange{From: -105, To: 10})

	require.Len(t, marks, 12)
	assert.Equal(t, core.DB(-100), marks[0].DB)
	assert.Equal(t, core.DB(10), marks[11].DB)
	assert.Equal(t, Frct(1), marks[11].Y)
}

func spike(size, bin int) []float32 {
	result := make([]float32, size)
	for i := range result {
		result[i] = -100
	}
	result[bin] = -20
	return result
}
