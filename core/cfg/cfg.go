package cfg

import (
	"github.com/charmbracelet/log"
	"github.com/ftl/hamradio/cfg"

	"github.com/ftl/rtlradio/core"
)

const (
	testmode            cfg.Key = "rtlradio.testmode"
	frequencyCorrection cfg.Key = "rtlradio.frequencyCorrection"
	vfoHost             cfg.Key = "rtlradio.vfoHost"
	inputFile           cfg.Key = "rtlradio.inputFile"
	recordFile          cfg.Key = "rtlradio.recordFile"
	centerFrequency     cfg.Key = "rtlradio.centerFrequency"
	tuningOffset        cfg.Key = "rtlradio.tuningOffset"
	sampleRate          cfg.Key = "rtlradio.sampleRate"
	outputRate          cfg.Key = "rtlradio.outputRate"
	gain                cfg.Key = "rtlradio.gain"
	mode                cfg.Key = "rtlradio.mode"
	bandwidth           cfg.Key = "rtlradio.bandwidth"
	maxDeviation        cfg.Key = "rtlradio.maxDeviation"
	stereo              cfg.Key = "rtlradio.stereo"
	volume              cfg.Key = "rtlradio.volume"
	squelch             cfg.Key = "rtlradio.squelch"
	fftSize             cfg.Key = "rtlradio.fftSize"
	fftWindow           cfg.Key = "rtlradio.fftWindow"
	fftPerSecond        cfg.Key = "rtlradio.fftPerSecond"
	blocksPerSecond     cfg.Key = "rtlradio.blocksPerSecond"
)

// getter provides values from a configuration source. Numbers are float64, as they come from JSON.
type getter interface {
	Get(key cfg.Key, defaultValue interface{}) interface{}
}

// Load the configuration from the default configuration file.
func Load() (core.Configuration, error) {
	configuration, err := cfg.LoadDefault()
	if err != nil {
		return core.Configuration{}, err
	}

	return fromGetter(configuration), nil
}

// Static returns the default configuration.
func Static() core.Configuration {
	return fromGetter(staticGetter{})
}

type staticGetter struct{}

func (staticGetter) Get(_ cfg.Key, defaultValue interface{}) interface{} {
	return defaultValue
}

func fromGetter(configuration getter) core.Configuration {
	getFloat := func(key cfg.Key, defaultValue float64) float64 {
		value, ok := configuration.Get(key, defaultValue).(float64)
		if !ok {
			return defaultValue
		}
		return value
	}
	getInt := func(key cfg.Key, defaultValue int) int {
		return int(getFloat(key, float64(defaultValue)))
	}
	getString := func(key cfg.Key, defaultValue string) string {
		value, ok := configuration.Get(key, defaultValue).(string)
		if !ok {
			return defaultValue
		}
		return value
	}
	getBool := func(key cfg.Key, defaultValue bool) bool {
		value, ok := configuration.Get(key, defaultValue).(bool)
		if !ok {
			return defaultValue
		}
		return value
	}

	var m core.Mode
	if value := getString(mode, ""); value != "" {
		var err error
		m, err = core.ParseMode(value)
		if err != nil {
			log.Warn("invalid mode, selecting the mode from the bandplan", "err", err)
		}
	}

	return core.Configuration{
		Testmode:            getBool(testmode, false),
		FrequencyCorrection: getInt(frequencyCorrection, 0),
		VFOHost:             getString(vfoHost, ""),
		InputFile:           getString(inputFile, ""),
		RecordFile:          getString(recordFile, ""),

		CenterFrequency: core.Frequency(getFloat(centerFrequency, 99900000)),
		TuningOffset:    core.Frequency(getFloat(tuningOffset, 0)),
		SampleRate:      getInt(sampleRate, 1008000),
		OutputRate:      getInt(outputRate, 48000),
		Gain:            getFloat(gain, 0),

		Mode:         m,
		Bandwidth:    core.Frequency(getFloat(bandwidth, 0)),
		MaxDeviation: core.Frequency(getFloat(maxDeviation, 0)),
		Stereo:       getBool(stereo, true),
		Volume:       getFloat(volume, 1),
		Squelch:      getFloat(squelch, 0),

		FFTSize:         getInt(fftSize, 2048),
		FFTWindow:       getString(fftWindow, "hann"),
		FFTPerSecond:    getInt(fftPerSecond, 25),
		BlocksPerSecond: getInt(blocksPerSecond, 20),
	}
}
