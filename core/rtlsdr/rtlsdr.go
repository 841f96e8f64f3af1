package rtlsdr

import (
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	rtl "github.com/jpoirier/gortlsdr"
	"github.com/pkg/errors"
)

// number of buffers from the device that may be pending before samples are dropped
const incomingBuffers = 16

// Open the RTL-SDR dongle with the given index for reading.
func Open(deviceIndex int, centerFrequency int, sampleRate int, frequencyCorrection int) (*Dongle, error) {
	device, err := rtl.Open(deviceIndex)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open RTL-SDR device %d", deviceIndex)
	}

	result := &Dongle{
		device:   device,
		incoming: make(chan []byte, incomingBuffers),
	}

	err = result.SetSampleRate(sampleRate)
	if err != nil {
		device.Close()
		return nil, err
	}

	err = result.SetCenterFrequency(centerFrequency)
	if err != nil {
		device.Close()
		return nil, err
	}

	if frequencyCorrection != 0 {
		err = device.SetFreqCorrection(frequencyCorrection)
		if err != nil {
			device.Close()
			return nil, errors.Wrapf(err, "cannot set frequency correction to %d ppm", frequencyCorrection)
		}
	}

	err = device.ResetBuffer()
	if err != nil {
		device.Close()
		return nil, errors.Wrap(err, "cannot reset buffer")
	}

	result.gains, err = device.GetTunerGains()
	if err != nil {
		log.Warn("cannot read the supported tuner gains", "err", err)
	}

	result.asyncRead.Add(1)
	go func() {
		defer result.asyncRead.Done()
		defer close(result.incoming)
		err := result.device.ReadAsync(result.incomingData, nil, 0, 0)
		if err != nil {
			log.Error("reading from the dongle failed", "err", err)
		}
	}()

	return result, nil
}

// Dongle represents the RTL-SDR dongle. It provides the raw interleaved unsigned 8-bit I/Q samples
// as io.Reader.
type Dongle struct {
	device    *rtl.Context
	incoming  chan []byte
	pending   []byte
	asyncRead sync.WaitGroup
	closeOnce sync.Once
	gains     []int
}

// SetSampleRate of the dongle in Hz.
func (d *Dongle) SetSampleRate(sampleRate int) error {
	err := d.device.SetSampleRate(sampleRate)
	if err != nil {
		return errors.Wrapf(err, "cannot set sample rate to %d", sampleRate)
	}
	log.Info("sample rate", "requested", sampleRate, "actual", d.device.GetSampleRate())
	return nil
}

// SetCenterFrequency of the dongle in Hz.
func (d *Dongle) SetCenterFrequency(frequency int) error {
	err := d.device.SetCenterFreq(frequency)
	if err != nil {
		return errors.Wrapf(err, "cannot set center frequency to %d", frequency)
	}
	log.Debug("center frequency", "frequency", frequency)
	return nil
}

// SetGain of the tuner in dB. The nearest supported gain is used, 0 enables the automatic gain control.
func (d *Dongle) SetGain(db float64) error {
	if db <= 0 || len(d.gains) == 0 {
		err := d.device.SetTunerGainMode(false)
		return errors.Wrap(err, "cannot enable automatic gain control")
	}

	err := d.device.SetTunerGainMode(true)
	if err != nil {
		return errors.Wrap(err, "cannot enable manual gain")
	}
	gain := nearestGain(d.gains, db)
	err = d.device.SetTunerGain(gain)
	if err != nil {
		return errors.Wrapf(err, "cannot set gain to %.1fdB", float64(gain)/10)
	}
	log.Info("tuner gain", "requested", db, "actual", float64(gain)/10)
	return nil
}

// nearestGain returns the supported gain in tenths of dB that is nearest to the given gain in dB.
func nearestGain(gains []int, db float64) int {
	tenths := db * 10
	result := gains[0]
	for _, g := range gains[1:] {
		if math.Abs(float64(g)-tenths) < math.Abs(float64(result)-tenths) {
			result = g
		}
	}
	return result
}

// Read samples from the dongle. Read blocks until samples are available.
func (d *Dongle) Read(p []byte) (n int, err error) {
	if len(d.pending) == 0 {
		data, ok := <-d.incoming
		if !ok {
			return 0, io.EOF
		}
		d.pending = data
	}

	n = copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

// Close the dongle.
func (d *Dongle) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.device.CancelAsync()
		if err != nil {
			log.Warn("cannot cancel reading", "err", err)
		}
		go func() {
			for range d.incoming {
			}
		}()
		d.asyncRead.Wait()
		err = errors.Wrap(d.device.Close(), "cannot close device")
	})
	return err
}

// incomingData is called by the device with a buffer that is reused afterwards.
func (d *Dongle) incomingData(data []byte) {
	buffer := make([]byte, len(data))
	copy(buffer, data)
	select {
	case d.incoming <- buffer:
	default:
		log.Warn("dongle overrun, dropping samples", "bytes", len(data))
	}
}
