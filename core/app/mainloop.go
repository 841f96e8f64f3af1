package app

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ftl/rtlradio/core"
	"github.com/ftl/rtlradio/core/bandplan"
	"github.com/ftl/rtlradio/core/demod"
	"github.com/ftl/rtlradio/core/panorama"
)

func newMainLoop(samplesInput core.SamplesInput, receiver receiverType, tuner tunerType, panoramaController panoramaType, tuning tuning, fftPerSecond int) *mainLoop {
	if fftPerSecond <= 0 {
		fftPerSecond = 25
	}
	redrawInterval := (1 * time.Second) / time.Duration(fftPerSecond)
	result := &mainLoop{
		samplesInput: samplesInput,
		receiver:     receiver,
		tuner:        tuner,
		panorama:     panoramaController,
		tuning:       tuning,

		redrawInterval: redrawInterval,
		command:        make(chan command, 10),
		vfoFrequency:   make(chan core.Frequency, 1),
		panoramaData:   make(chan panorama.View, 1),
		done:           make(chan struct{}),
	}

	return result
}

type command func()

type mainLoop struct {
	samplesInput core.SamplesInput
	receiver     receiverType
	tuner        tunerType
	panorama     panoramaType
	tuning       tuning
	vfo          vfoType

	redrawInterval time.Duration
	command        chan command
	vfoFrequency   chan core.Frequency
	panoramaData   chan panorama.View
	done           chan struct{}

	autoMode    bool
	squelchOpen bool
}

type receiverType interface {
	ProcessBlock(raw []byte) error
	NotifySpectrum() error
	SetMode(config demod.Config) error
	Config() demod.Config
	SetStereo(stereo bool)
	SetVolume(volume float64)
	SetSquelch(threshold float64)
	SetShift(shift float64)
}

type tunerType interface {
	SetCenterFrequency(frequency int) error
	SetGain(db float64) error
}

type vfoType interface {
	SetFrequency(f core.Frequency)
}

type panoramaType interface {
	Put(bins []float32, center core.Frequency, sampleRate int) core.FFT
	SetTuned(frequency, filterWidth core.Frequency)
	Data() panorama.View
}

// Run the main loop until stop is closed or the input is exhausted.
func (m *mainLoop) Run(stop chan struct{}) {
	defer close(m.done)
	defer log.Debug("main loop shutdown")

	redrawTick := time.NewTicker(m.redrawInterval)
	defer redrawTick.Stop()

	for {
		select {
		case block, ok := <-m.samplesInput.Samples():
			if !ok {
				log.Info("no more samples")
				return
			}
			err := m.receiver.ProcessBlock(block)
			if err != nil {
				log.Error("cannot process block", "err", err)
			}
		case <-redrawTick.C:
			err := m.receiver.NotifySpectrum()
			if err != nil {
				log.Error("cannot calculate spectrum", "err", err)
				continue
			}
			select {
			case m.panoramaData <- m.panorama.Data():
			default:
				log.Debug("trigger redraw hangs")
			}
		case f := <-m.vfoFrequency:
			m.tuneTo(f)
		case command := <-m.command:
			command()
		case <-stop:
			return
		}
	}
}

// Done is closed when the main loop has ended.
func (m *mainLoop) Done() <-chan struct{} {
	return m.done
}

// Panorama data for display.
func (m *mainLoop) Panorama() <-chan panorama.View {
	return m.panoramaData
}

func (m *mainLoop) q(cmd command) {
	select {
	case m.command <- cmd:
	default:
		log.Warn("Mainloop.q hangs")
	}
}

// spectrumAvailable is called by the receiver from within the main loop.
func (m *mainLoop) spectrumAvailable(bins []float32) {
	m.panorama.Put(bins, m.tuning.frequency, m.tuning.sampleRate)
}

// signalLevelChanged is called by the receiver from within the main loop.
func (m *mainLoop) signalLevelChanged(level float64, squelchOpen bool) {
	if squelchOpen == m.squelchOpen {
		return
	}
	m.squelchOpen = squelchOpen
	if squelchOpen {
		log.Info("squelch open", "level", level)
	} else {
		log.Info("squelch closed", "level", level)
	}
}

// vfoFrequencyChanged is called by the VFO from its own goroutine.
func (m *mainLoop) vfoFrequencyChanged(f core.Frequency) {
	select {
	case m.vfoFrequency <- f:
	default:
		log.Warn("Mainloop.vfoFrequencyChanged hangs")
	}
}

// TuneTo the given frequency. The VFO follows if one is connected.
func (m *mainLoop) TuneTo(f core.Frequency) {
	m.q(func() {
		if m.tuneTo(f) && m.vfo != nil {
			m.vfo.SetFrequency(f)
		}
	})
}

func (m *mainLoop) tuneTo(f core.Frequency) bool {
	center, shift, ok := m.tuning.retune(f, m.tuner != nil)
	if !ok {
		log.Warn("frequency out of range", "frequency", f, "range", m.tuning.inputRange())
		return false
	}
	if m.tuner != nil && center != m.tuning.center {
		err := m.tuner.SetCenterFrequency(int(center))
		if err != nil {
			log.Error("cannot tune", "frequency", f, "err", err)
			return false
		}
	}
	m.tuning.center = center
	m.tuning.frequency = f
	m.receiver.SetShift(shift)

	if m.autoMode {
		mode := bandplan.IARURegion1.SuggestMode(f)
		if mode != m.receiver.Config().Mode {
			m.setMode(mode)
		}
	}
	m.updatePanorama()
	log.Info("tuned", "frequency", f, "mode", m.receiver.Config().Mode)
	return true
}

// SetMode of demodulation. The automatic selection of the mode ends with the first explicitly set mode.
func (m *mainLoop) SetMode(mode core.Mode) {
	m.q(func() {
		m.autoMode = false
		m.setMode(mode)
	})
}

// SetAutoMode selects the mode that fits the tuned frequency.
func (m *mainLoop) SetAutoMode() {
	m.q(func() {
		m.autoMode = true
		m.setMode(bandplan.IARURegion1.SuggestMode(m.tuning.frequency))
	})
}

func (m *mainLoop) setMode(mode core.Mode) {
	config := m.receiver.Config()
	if config.Mode != mode {
		config = demod.Config{Mode: mode}
	}
	err := m.receiver.SetMode(config)
	if err != nil {
		log.Error("cannot set mode", "mode", mode, "err", err)
		return
	}
	m.updatePanorama()
	log.Info("mode", "mode", mode)
}

func (m *mainLoop) updatePanorama() {
	m.panorama.SetTuned(m.tuning.frequency, filterWidth(m.receiver.Config()))
}

// SetGain of the tuner in dB, 0 means automatic gain control.
func (m *mainLoop) SetGain(db float64) {
	m.q(func() {
		if m.tuner == nil {
			log.Warn("the input has no tuner")
			return
		}
		err := m.tuner.SetGain(db)
		if err != nil {
			log.Error("cannot set gain", "gain", db, "err", err)
		}
	})
}

// SetStereo enables or disables the stereo decoding of WBFM.
func (m *mainLoop) SetStereo(stereo bool) {
	m.q(func() {
		m.receiver.SetStereo(stereo)
	})
}

// SetVolume of the audio output.
func (m *mainLoop) SetVolume(volume float64) {
	m.q(func() {
		m.receiver.SetVolume(volume)
	})
}

// SetSquelch threshold, 0 means always open.
func (m *mainLoop) SetSquelch(threshold float64) {
	m.q(func() {
		m.receiver.SetSquelch(threshold)
	})
}

func filterWidth(config demod.Config) core.Frequency {
	config = config.WithDefaults()
	if config.Mode.FMFamily() {
		return 2 * config.MaxDeviation
	}
	switch config.Mode {
	case core.ModeAM, core.ModeLSB, core.ModeUSB:
		return config.Bandwidth
	default:
		return 0
	}
}

// tuning keeps track of the frequencies. The dongle is tuned to center, the received frequency
// is moved to the baseband by shifting the samples.
type tuning struct {
	center     core.Frequency
	offset     core.Frequency
	frequency  core.Frequency
	sampleRate int
}

// retune returns the center frequency and the shift to receive the given frequency. Without a tuner,
// only frequencies within the captured range can be received.
func (t tuning) retune(f core.Frequency, hasTuner bool) (core.Frequency, float64, bool) {
	if hasTuner {
		return f - t.offset, -float64(t.offset), true
	}
	Δf := f - t.center
	if math.Abs(float64(Δf)) > float64(t.sampleRate)/2 {
		return t.center, 0, false
	}
	return t.center, -float64(Δf), true
}

func (t tuning) inputRange() core.FrequencyRange {
	halfRate := core.Frequency(t.sampleRate) / 2
	return core.FrequencyRange{From: t.center - halfRate, To: t.center + halfRate}
}
