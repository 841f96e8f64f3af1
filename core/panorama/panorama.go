package panorama

import (
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ftl/rtlradio/core"
	"github.com/ftl/rtlradio/core/bandplan"
	"github.com/ftl/rtlradio/core/dsp"
)

const (
	envelopeWindow = 31
	peakMargin     = 10.0
	defaultWidth   = 512
)

// Frct is a fraction of the visible range, 0 is the lower end, 1 the upper end.
type Frct float64

// Point in the panorama, both coordinates are fractions of the visible ranges.
type Point struct {
	X Frct
	Y Frct
}

// FrequencyMark is a mark on the frequency scale.
type FrequencyMark struct {
	X         Frct
	Frequency core.Frequency
}

// DBMark is a mark on the dB scale.
type DBMark struct {
	Y  Frct
	DB core.DB
}

// PeakMark describes a detected signal.
type PeakMark struct {
	FromX        Frct
	ToX          Frct
	MaxX         Frct
	MaxFrequency core.Frequency
	ValueY       Frct
	ValueDB      core.DB
}

// View contains everything to show the current panorama.
type View struct {
	FrequencyRange core.FrequencyRange
	DBRange        core.DBRange
	Tuned          core.Frequency
	Band           bandplan.Band
	SignalLevel    core.DB

	TunedLine       Frct
	TunedFilterFrom Frct
	TunedFilterTo   Frct

	FrequencyScale     []FrequencyMark
	DBScale            []DBMark
	Spectrum           []Point
	SigmaEnvelope      []Point
	PeakThresholdLevel Frct
	Peaks              []PeakMark
}

type peak struct {
	frequencyRange core.FrequencyRange
	maxFrequency   core.Frequency
	valueDB        core.DB
	lastSeen       time.Time
}

type peakKey uint

func toPeakKey(f core.Frequency) peakKey {
	return peakKey(f / 100.0)
}

// Panorama turns the spectrum of the receiver into a centered FFT and provides a view of it.
type Panorama struct {
	width       int
	span        core.Frequency
	dbRange     core.DBRange
	tuned       core.Frequency
	filterWidth core.Frequency
	band        bandplan.Band

	averaging int
	averager  *dsp.Averager
	fft       core.FFT

	peakBuffer  map[peakKey]peak
	peakTimeout time.Duration
	now         func() time.Time
}

// New returns a new panorama with the given width in points that averages the given number of spectrums.
// A span of 0 shows the full range of the FFT.
func New(width int, averaging int) *Panorama {
	if width <= 0 {
		width = defaultWidth
	}
	if averaging < 1 {
		averaging = 1
	}
	return &Panorama{
		width:       width,
		dbRange:     core.DBRange{From: -105, To: 10},
		band:        bandplan.UnknownBand,
		averaging:   averaging,
		peakBuffer:  make(map[peakKey]peak),
		peakTimeout: 10 * time.Second,
		now:         time.Now,
	}
}

// SetWidth in points.
func (p *Panorama) SetWidth(width int) {
	if width > 0 {
		p.width = width
	}
}

// SetSpan of the visible frequency range around the tuned frequency, 0 shows the full range.
func (p *Panorama) SetSpan(span core.Frequency) {
	if span < 0 {
		span = 0
	}
	p.span = span
}

// Span of the visible frequency range.
func (p *Panorama) Span() core.Frequency {
	return p.span
}

// ZoomIn one step.
func (p *Panorama) ZoomIn() {
	if p.span == 0 {
		p.span = p.fft.Range.Width()
	}
	p.span /= 1.25
}

// ZoomOut one step, up to the full range.
func (p *Panorama) ZoomOut() {
	p.span *= 1.25
	if p.span >= p.fft.Range.Width() {
		p.span = 0
	}
}

// SetDynamicRange of the view.
func (p *Panorama) SetDynamicRange(dbRange core.DBRange) {
	if dbRange.To < dbRange.From {
		dbRange.From, dbRange.To = dbRange.To, dbRange.From
	}
	p.dbRange = dbRange
}

// SetTuned sets the tuned frequency and the width of the demodulation filter.
func (p *Panorama) SetTuned(frequency, filterWidth core.Frequency) {
	p.tuned = frequency
	p.filterWidth = filterWidth
	if !p.band.Contains(frequency) {
		p.band = bandplan.IARURegion1.ByFrequency(frequency)
		log.Debug("band changed", "frequency", frequency, "band", p.band.Name)
	}
}

// Put the spectrum of the receiver, with DC in the first bin, and return the centered FFT.
func (p *Panorama) Put(bins []float32, center core.Frequency, sampleRate int) core.FFT {
	n := len(bins)
	if n == 0 || sampleRate <= 0 {
		p.fft = core.FFT{}
		return p.fft
	}

	row := make([]float64, n)
	half := n / 2
	for i := range row {
		row[i] = float64(bins[(i+half)%n])
	}

	if p.averager == nil || len(p.fft.Data) != n || p.fft.Range.Center() != center {
		p.averager = dsp.NewAverager(p.averaging, n)
		for i := 1; i < p.averaging; i++ {
			p.averager.Put(row)
		}
	}
	data := make([]float64, n)
	copy(data, p.averager.Put(row))

	rate := core.Frequency(sampleRate)
	fft := core.FFT{
		Data:  data,
		Range: core.FrequencyRange{From: center - rate/2, To: center + rate/2},
	}
	for _, d := range data {
		fft.Mean += d
	}
	fft.Mean /= float64(n)
	fft.PeakThreshold = fft.Mean + peakMargin

	_, sigmaEnvelope, err := dsp.CenteredSlidingWindowAverageAndSigmaEnvelope(data, envelopeWindow)
	if err != nil {
		log.Error("cannot calculate the sigma envelope", "err", err)
		sigmaEnvelope = make([]float64, n)
	}
	fft.SigmaEnvelope = sigmaEnvelope
	fft.Peaks = detectPeaks(data, sigmaEnvelope, fft.PeakThreshold)

	p.fft = fft
	return fft
}

func detectPeaks(data, sigmaEnvelope []float64, threshold float64) []core.PeakIndexRange {
	result := make([]core.PeakIndexRange, 0)
	inPeak := false
	var current core.PeakIndexRange
	for i, d := range data {
		above := d > threshold && d > sigmaEnvelope[i]
		switch {
		case above && !inPeak:
			current = core.PeakIndexRange{From: i, To: i, Max: i, Value: d}
			inPeak = true
		case above:
			current.To = i
			if d > current.Value {
				current.Max = i
				current.Value = d
			}
		case inPeak:
			result = append(result, current)
			inPeak = false
		}
	}
	if inPeak {
		result = append(result, current)
	}
	return result
}

// FFT returns the latest centered FFT.
func (p *Panorama) FFT() core.FFT {
	return p.fft
}

// FrequencyRange that is currently visible.
func (p *Panorama) FrequencyRange() core.FrequencyRange {
	if p.span == 0 {
		return p.fft.Range
	}
	center := p.tuned
	if center == 0 {
		center = p.fft.Range.Center()
	}
	return core.FrequencyRange{From: center - p.span/2, To: center + p.span/2}
}

// Data of the current view.
func (p *Panorama) Data() View {
	frequencyRange := p.FrequencyRange()
	if len(p.fft.Data) == 0 || frequencyRange.Width() <= 0 || p.fft.Range.To < frequencyRange.From || p.fft.Range.From > frequencyRange.To {
		return View{}
	}

	spectrum, sigmaEnvelope := p.spectrum(frequencyRange)
	return View{
		FrequencyRange: frequencyRange,
		DBRange:        p.dbRange,
		Tuned:          p.tuned,
		Band:           p.band,
		SignalLevel:    p.signalLevel(),

		TunedLine:       toFrequencyFrct(p.tuned, frequencyRange),
		TunedFilterFrom: toFrequencyFrct(p.tuned-p.filterWidth/2, frequencyRange),
		TunedFilterTo:   toFrequencyFrct(p.tuned+p.filterWidth/2, frequencyRange),

		FrequencyScale:     frequencyScale(frequencyRange),
		DBScale:            dbScale(p.dbRange),
		Spectrum:           spectrum,
		SigmaEnvelope:      sigmaEnvelope,
		PeakThresholdLevel: toDBFrct(core.DB(p.fft.PeakThreshold), p.dbRange),
		Peaks:              p.peaks(frequencyRange),
	}
}

func (p *Panorama) signalLevel() core.DB {
	index := p.fft.ToIndex(p.tuned)
	if index >= 0 && index < len(p.fft.Data) {
		return core.DB(p.fft.Data[index])
	}
	return 0
}

func (p *Panorama) spectrum(frequencyRange core.FrequencyRange) ([]Point, []Point) {
	resolution := p.fft.Resolution()
	start := int(math.Max(0, math.Floor(float64(frequencyRange.From-p.fft.Range.From)/resolution)))
	end := int(math.Min(float64(len(p.fft.Data)-1), math.Ceil(float64(frequencyRange.To-p.fft.Range.From)/resolution)))
	if end < start {
		return nil, nil
	}
	step := int(math.Max(1, math.Floor(float64(end-start+1)/float64(p.width))))

	resultLength := (end - start + step) / step
	spectrum := make([]Point, 0, resultLength)
	sigmaEnvelope := make([]Point, 0, resultLength)
	for i := start; i <= end; i += step {
		d := math.Inf(-1)
		s := math.Inf(-1)
		for j := i; j < i+step && j <= end; j++ {
			d = math.Max(d, p.fft.Data[j])
			s = math.Max(s, p.fft.SigmaEnvelope[j])
		}
		x := toFrequencyFrct(p.fft.Frequency(i), frequencyRange)
		spectrum = append(spectrum, Point{X: x, Y: toDBFrct(core.DB(d), p.dbRange)})
		sigmaEnvelope = append(sigmaEnvelope, Point{X: x, Y: toDBFrct(core.DB(s), p.dbRange)})
	}
	return spectrum, sigmaEnvelope
}

// peaks keeps detected peaks for a while, so short signals remain visible.
func (p *Panorama) peaks(frequencyRange core.FrequencyRange) []PeakMark {
	resolution := core.Frequency(p.fft.Resolution())
	correction := func(i int) core.Frequency {
		if i <= 0 || i >= len(p.fft.Data)-1 {
			return 0
		}
		denominator := 4*p.fft.Data[i] - 2*p.fft.Data[i-1] - 2*p.fft.Data[i+1]
		if denominator == 0 {
			return 0
		}
		return core.Frequency((p.fft.Data[i+1]-p.fft.Data[i-1])/denominator) * resolution
	}

	now := p.now()
	for _, indexRange := range p.fft.Peaks {
		peak := peak{
			frequencyRange: core.FrequencyRange{From: p.fft.Frequency(indexRange.From), To: p.fft.Frequency(indexRange.To) + resolution},
			maxFrequency:   p.fft.Frequency(indexRange.Max) + correction(indexRange.Max),
			valueDB:        core.DB(indexRange.Value),
			lastSeen:       now,
		}
		p.peakBuffer[toPeakKey(peak.maxFrequency)] = peak
	}

	result := make([]PeakMark, 0, len(p.peakBuffer))
	for key, peak := range p.peakBuffer {
		if now.Sub(peak.lastSeen) >= p.peakTimeout {
			delete(p.peakBuffer, key)
			continue
		}
		if !frequencyRange.Contains(peak.maxFrequency) {
			continue
		}
		result = append(result, PeakMark{
			FromX:        toFrequencyFrct(peak.frequencyRange.From, frequencyRange),
			ToX:          toFrequencyFrct(peak.frequencyRange.To, frequencyRange),
			MaxX:         toFrequencyFrct(peak.maxFrequency, frequencyRange),
			MaxFrequency: peak.maxFrequency,
			ValueY:       toDBFrct(peak.valueDB, p.dbRange),
			ValueDB:      peak.valueDB,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MaxFrequency < result[j].MaxFrequency
	})
	return result
}

var scaleSteps = []float64{1, 2, 5}

// frequencyScale uses the smallest step of 1, 2 or 5 times a power of ten that results in at most 10 marks.
func frequencyScale(frequencyRange core.FrequencyRange) []FrequencyMark {
	width := float64(frequencyRange.Width())
	if width <= 0 {
		return []FrequencyMark{}
	}

	magnitude := math.Pow(10, math.Floor(math.Log10(width/10)))
	step := 10 * magnitude
	for _, s := range scaleSteps {
		if width/(s*magnitude) <= 10 {
			step = s * magnitude
			break
		}
	}

	result := make([]FrequencyMark, 0, int(width/step)+1)
	for f := math.Ceil(float64(frequencyRange.From)/step) * step; f <= float64(frequencyRange.To); f += step {
		result = append(result, FrequencyMark{
			X:         toFrequencyFrct(core.Frequency(f), frequencyRange),
			Frequency: core.Frequency(f),
		})
	}
	return result
}

func dbScale(dbRange core.DBRange) []DBMark {
	result := make([]DBMark, 0, int(dbRange.Width()/10)+1)
	for db := math.Ceil(float64(dbRange.From)/10) * 10; db <= float64(dbRange.To); db += 10 {
		result = append(result, DBMark{
			Y:  toDBFrct(core.DB(db), dbRange),
			DB: core.DB(db),
		})
	}
	return result
}

func toFrequencyFrct(f core.Frequency, frequencyRange core.FrequencyRange) Frct {
	return Frct((f - frequencyRange.From) / frequencyRange.Width())
}

func toDBFrct(db core.DB, dbRange core.DBRange) Frct {
	return Frct((db - dbRange.From) / dbRange.Width())
}
