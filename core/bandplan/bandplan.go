package bandplan

import (
	"sort"

	"github.com/ftl/rtlradio/core"
)

// Band represents a frequency band.
type Band struct {
	core.FrequencyRange
	Name BandName
	Mode core.Mode
}

// Contains indicates if the band contains the given frequency.
func (b *Band) Contains(f core.Frequency) bool {
	return f >= b.From && f <= b.To
}

// UnknownBand is the unknown band that contains no frequency.
var UnknownBand = Band{Name: BandUnknown}

// BandName is the name of a frequency band.
type BandName string

// All known bands.
const (
	BandUnknown BandName = "Unknown"

	BandLW        BandName = "LW"
	BandMW        BandName = "MW"
	Band160m      BandName = "160m"
	Band80m       BandName = "80m"
	Band60m       BandName = "60m"
	Band40m       BandName = "40m"
	Band30m       BandName = "30m"
	Band20m       BandName = "20m"
	Band17m       BandName = "17m"
	Band15m       BandName = "15m"
	Band12m       BandName = "12m"
	Band10m       BandName = "10m"
	Band6m        BandName = "6m"
	BandBroadcast BandName = "FM Broadcast"
	BandAir       BandName = "Air"
	Band2m        BandName = "2m"
	Band70cm      BandName = "70cm"
	BandPMR       BandName = "PMR446"
)

// Bandplan type.
type Bandplan map[BandName]Band

// ByFrequency returns the band for the matching frequency. If more than one band matches, the narrowest one wins.
func (p Bandplan) ByFrequency(f core.Frequency) Band {
	result := UnknownBand
	for _, b := range p {
		if !b.Contains(f) {
			continue
		}
		if result.Name == BandUnknown || b.Width() < result.Width() {
			result = b
		}
	}
	return result
}

// Bands returns all bands sorted by frequency.
func (p Bandplan) Bands() []Band {
	result := make([]Band, 0, len(p))
	for _, b := range p {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].From < result[j].From
	})
	return result
}

// SuggestMode returns the usual demodulation mode for the given frequency. Outside of known bands,
// frequencies from 30MHz upwards are usually NBFM, below AM.
func (p Bandplan) SuggestMode(f core.Frequency) core.Mode {
	band := p.ByFrequency(f)
	if band.Mode != "" {
		return band.Mode
	}
	if f >= 30000000 {
		return core.ModeNBFM
	}
	return core.ModeAM
}

func band(name BandName, from, to core.Frequency, mode core.Mode) Band {
	return Band{
		Name:           name,
		FrequencyRange: core.FrequencyRange{From: from, To: to},
		Mode:           mode,
	}
}

// IARURegion1 is the bandplan for IARU Region 1, including the broadcast and air bands.
var IARURegion1 = Bandplan{
	BandLW:        band(BandLW, 148500, 283500, core.ModeAM),
	BandMW:        band(BandMW, 526500, 1606500, core.ModeAM),
	Band160m:      band(Band160m, 1810000, 2000000, core.ModeLSB),
	Band80m:       band(Band80m, 3500000, 3800000, core.ModeLSB),
	Band60m:       band(Band60m, 5351500, 5366500, core.ModeUSB),
	Band40m:       band(Band40m, 7000000, 7200000, core.ModeLSB),
	Band30m:       band(Band30m, 10100000, 10150000, core.ModeUSB),
	Band20m:       band(Band20m, 14000000, 14350000, core.ModeUSB),
	Band17m:       band(Band17m, 18068000, 18168000, core.ModeUSB),
	Band15m:       band(Band15m, 21000000, 21450000, core.ModeUSB),
	Band12m:       band(Band12m, 24890000, 24990000, core.ModeUSB),
	Band10m:       band(Band10m, 28000000, 29700000, core.ModeUSB),
	Band6m:        band(Band6m, 50000000, 52000000, core.ModeUSB),
	BandBroadcast: band(BandBroadcast, 87500000, 108000000, core.ModeWBFM),
	BandAir:       band(BandAir, 118000000, 137000000, core.ModeAM),
	Band2m:        band(Band2m, 144000000, 146000000, core.ModeNBFM),
	Band70cm:      band(Band70cm, 430000000, 440000000, core.ModeNBFM),
	BandPMR:       band(BandPMR, 446000000, 446200000, core.ModeNBFM),
}
