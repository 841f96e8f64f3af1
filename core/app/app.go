package app

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/ftl/rtlradio/core"
	"github.com/ftl/rtlradio/core/audio"
	"github.com/ftl/rtlradio/core/bandplan"
	"github.com/ftl/rtlradio/core/demod"
	"github.com/ftl/rtlradio/core/dsp"
	"github.com/ftl/rtlradio/core/panorama"
	"github.com/ftl/rtlradio/core/rtlsdr"
	"github.com/ftl/rtlradio/core/rx"
	"github.com/ftl/rtlradio/core/vfo"
)

// deviation of the synthetic signal in testmode
const testmodeDeviation = 5000

// New returns a new controller for the given configuration.
func New(configuration core.Configuration) *Controller {
	return &Controller{
		configuration: configuration,
	}
}

// Controller for the application.
type Controller struct {
	configuration core.Configuration
	done          chan struct{}
	subProcesses  *sync.WaitGroup

	input    core.SamplesInput
	closers  []io.Closer
	mainLoop *mainLoop
}

// Startup the application: open the input and the outputs and start processing.
func (c *Controller) Startup() error {
	c.done = make(chan struct{})
	c.subProcesses = new(sync.WaitGroup)

	input, tuner, sampleRate, err := c.openInput()
	if err != nil {
		return err
	}
	c.input = input

	config := demod.Config{
		Mode:         c.configuration.Mode,
		Bandwidth:    c.configuration.Bandwidth,
		MaxDeviation: c.configuration.MaxDeviation,
	}
	frequency := c.configuration.CenterFrequency + c.configuration.TuningOffset
	autoMode := config.Mode == ""
	if autoMode {
		config.Mode = bandplan.IARURegion1.SuggestMode(frequency)
	}

	outputRate := c.configuration.OutputRate
	if outputRate <= 0 {
		outputRate = rx.DefaultOutputRate
	}
	receiver, err := rx.New(sampleRate, outputRate, c.configuration.FFTSize, config)
	if err != nil {
		c.closeAll()
		return err
	}
	window, err := dsp.WindowByName(c.configuration.FFTWindow)
	if err != nil {
		log.Warn("unknown FFT window, using none", "window", c.configuration.FFTWindow)
	}
	receiver.SetWindow(window)
	receiver.SetStereo(c.configuration.Stereo)
	receiver.SetVolume(c.configuration.Volume)
	receiver.SetSquelch(c.configuration.Squelch)
	receiver.SetShift(-float64(c.configuration.TuningOffset))
	receiver.SetSink(c.openOutputs(outputRate))

	view := panorama.New(0, 3)
	c.mainLoop = newMainLoop(input, receiver, tuner, view, tuning{
		center:     c.configuration.CenterFrequency,
		offset:     c.configuration.TuningOffset,
		frequency:  frequency,
		sampleRate: sampleRate,
	}, c.configuration.FFTPerSecond)
	c.mainLoop.autoMode = autoMode
	c.mainLoop.squelchOpen = true
	c.mainLoop.updatePanorama()
	receiver.OnSpectrumAvailable(c.mainLoop.spectrumAvailable)
	receiver.OnSignalLevelChanged(c.mainLoop.signalLevelChanged)

	if c.configuration.VFOHost != "" {
		rig, err := vfo.Open(c.configuration.VFOHost)
		if err != nil {
			log.Warn("cannot follow the VFO", "host", c.configuration.VFOHost, "err", err)
		} else {
			rig.OnFrequencyChange(c.mainLoop.vfoFrequencyChanged)
			c.mainLoop.vfo = rig
			rig.Run(c.done, c.subProcesses)
		}
	}

	c.subProcesses.Add(1)
	go func() {
		defer c.subProcesses.Done()
		c.mainLoop.Run(c.done)
	}()

	log.Info("receiving", "frequency", frequency, "mode", config.Mode, "sampleRate", sampleRate, "outputRate", outputRate, "stereo", receiver.Stereo())
	return nil
}

// openInput returns the input of raw samples, the tuner if the input has one, and the sample rate.
func (c *Controller) openInput() (core.SamplesInput, tunerType, int, error) {
	sampleRate := c.configuration.SampleRate
	blockSize := c.configuration.BlockSize()
	var interval time.Duration
	if c.configuration.BlocksPerSecond > 0 {
		interval = time.Second / time.Duration(c.configuration.BlocksPerSecond)
	}

	switch {
	case c.configuration.InputFile != "":
		reader, fileSampleRate, err := rx.OpenFile(c.configuration.InputFile)
		if err != nil {
			return nil, nil, 0, err
		}
		if fileSampleRate > 0 {
			sampleRate = fileSampleRate
			blockSize = c.configuration.BlockSizeFor(sampleRate)
		}
		log.Info("reading from file", "file", c.configuration.InputFile, "sampleRate", sampleRate)
		return rx.NewBlockInput(reader, blockSize, interval), nil, sampleRate, nil
	case c.configuration.Testmode:
		reader := rx.NewToneReader(float64(sampleRate), float64(c.configuration.TuningOffset), 1000, testmodeDeviation)
		log.Info("testmode, receiving a synthetic signal")
		return rx.NewBlockInput(reader, blockSize, interval), nil, sampleRate, nil
	default:
		center := int(c.configuration.CenterFrequency)
		dongle, err := rtlsdr.Open(0, center, sampleRate, c.configuration.FrequencyCorrection)
		if err != nil {
			return nil, nil, 0, errors.Wrap(err, "cannot open the dongle")
		}
		err = dongle.SetGain(c.configuration.Gain)
		if err != nil {
			log.Warn("cannot set gain", "err", err)
		}
		return rx.NewBlockInput(dongle, blockSize, 0), dongle, sampleRate, nil
	}
}

func (c *Controller) openOutputs(outputRate int) rx.AudioSink {
	sinks := make([]audio.Sink, 0, 2)

	player, err := audio.NewPlayer(outputRate)
	if err != nil {
		log.Warn("no audio output", "err", err)
	} else {
		sinks = append(sinks, player)
		c.closers = append(c.closers, player)
	}

	if c.configuration.RecordFile != "" {
		recorder, err := audio.CreateRecorder(c.configuration.RecordFile, outputRate)
		if err != nil {
			log.Error("cannot record", "err", err)
		} else {
			sinks = append(sinks, recorder)
			c.closers = append(c.closers, recorder)
			log.Info("recording", "file", c.configuration.RecordFile)
		}
	}

	if len(sinks) == 0 {
		return nil
	}
	return audio.Tee(sinks...)
}

// Shutdown the application.
func (c *Controller) Shutdown() {
	close(c.done)
	c.subProcesses.Wait()
	c.closeAll()
}

func (c *Controller) closeAll() {
	if c.input != nil {
		if err := c.input.Close(); err != nil {
			log.Warn("cannot close input", "err", err)
		}
	}
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			log.Warn("cannot close output", "err", err)
		}
	}
}

// Done is closed when the processing ended, e.g. because the input file is exhausted.
func (c *Controller) Done() <-chan struct{} {
	return c.mainLoop.Done()
}

// Panorama data for display.
func (c *Controller) Panorama() <-chan panorama.View {
	return c.mainLoop.Panorama()
}

// TuneTo the given frequency.
func (c *Controller) TuneTo(f core.Frequency) {
	c.mainLoop.TuneTo(f)
}

// SetMode of demodulation.
func (c *Controller) SetMode(mode core.Mode) {
	c.mainLoop.SetMode(mode)
}

// SetAutoMode selects the mode that fits the tuned frequency.
func (c *Controller) SetAutoMode() {
	c.mainLoop.SetAutoMode()
}

// SetGain of the tuner in dB, 0 means automatic gain control.
func (c *Controller) SetGain(db float64) {
	c.mainLoop.SetGain(db)
}

// SetStereo enables or disables the stereo decoding of WBFM.
func (c *Controller) SetStereo(stereo bool) {
	c.mainLoop.SetStereo(stereo)
}

// SetVolume of the audio output.
func (c *Controller) SetVolume(volume float64) {
	c.mainLoop.SetVolume(volume)
}

// SetSquelch threshold, 0 means always open.
func (c *Controller) SetSquelch(threshold float64) {
	c.mainLoop.SetSquelch(threshold)
}
