package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ftl/rtlradio/core"
	"github.com/ftl/rtlradio/core/app"
	"github.com/ftl/rtlradio/core/cfg"
	"github.com/ftl/rtlradio/core/panorama"
)

var rootFlags = struct {
	frequency  float64
	offset     float64
	sampleRate int
	gain       float64
	mode       string
	bandwidth  float64
	deviation  float64
	mono       bool
	volume     float64
	squelch    float64
	input      string
	record     string
	vfoHost    string
	testmode   bool
	debug      bool
}{}

var rootCmd = &cobra.Command{
	Use:   "rtlradio",
	Short: "Receive WBFM, NBFM, AM and SSB with an RTL-SDR dongle",
	RunE:  run,
}

func init() {
	rootCmd.Flags().Float64VarP(&rootFlags.frequency, "frequency", "f", 0, "the frequency to receive in Hz")
	rootCmd.Flags().Float64Var(&rootFlags.offset, "offset", 0, "tune the dongle this far below the frequency to avoid the DC spike, in Hz")
	rootCmd.Flags().IntVarP(&rootFlags.sampleRate, "rate", "r", 0, "the sample rate of the dongle in Hz")
	rootCmd.Flags().Float64VarP(&rootFlags.gain, "gain", "g", 0, "the tuner gain in dB, 0 means automatic gain control")
	rootCmd.Flags().StringVarP(&rootFlags.mode, "mode", "m", "", "the mode of demodulation: "+modeNames()+" or auto")
	rootCmd.Flags().Float64VarP(&rootFlags.bandwidth, "bandwidth", "b", 0, "the bandwidth for AM, LSB and USB in Hz")
	rootCmd.Flags().Float64Var(&rootFlags.deviation, "deviation", 0, "the maximum deviation for WBFM and NBFM in Hz")
	rootCmd.Flags().BoolVar(&rootFlags.mono, "mono", false, "do not decode WBFM stereo")
	rootCmd.Flags().Float64VarP(&rootFlags.volume, "volume", "v", 0, "the volume of the audio output")
	rootCmd.Flags().Float64VarP(&rootFlags.squelch, "squelch", "s", 0, "the squelch threshold of the relative signal level, 0 means always open")
	rootCmd.Flags().StringVarP(&rootFlags.input, "input", "i", "", "read the samples from a raw .iq or a .wav capture instead of the dongle")
	rootCmd.Flags().StringVarP(&rootFlags.record, "record", "o", "", "record the audio into the given WAV file")
	rootCmd.Flags().StringVar(&rootFlags.vfoHost, "vfo", "", "follow the frequency of the hamlib rig at the given address")
	rootCmd.Flags().BoolVar(&rootFlags.testmode, "testmode", false, "receive a synthetic signal instead of the dongle")
	rootCmd.Flags().BoolVar(&rootFlags.debug, "debug", false, "enable debug output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if rootFlags.debug {
		log.SetLevel(log.DebugLevel)
	}

	configuration, err := cfg.Load()
	if err != nil {
		log.Debug("no configuration file, using the defaults", "err", err)
		configuration = cfg.Static()
	}
	configuration, err = applyFlags(cmd, configuration)
	if err != nil {
		return err
	}

	controller := app.New(configuration)
	err = controller.Startup()
	if err != nil {
		return err
	}
	go logPanorama(controller.Panorama())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-signals:
	case <-controller.Done():
	}
	controller.Shutdown()
	return nil
}

func applyFlags(cmd *cobra.Command, configuration core.Configuration) (core.Configuration, error) {
	flags := cmd.Flags()
	if flags.Changed("frequency") {
		configuration.CenterFrequency = core.Frequency(rootFlags.frequency) - configuration.TuningOffset
	}
	if flags.Changed("offset") {
		frequency := configuration.CenterFrequency + configuration.TuningOffset
		configuration.TuningOffset = core.Frequency(rootFlags.offset)
		configuration.CenterFrequency = frequency - configuration.TuningOffset
	}
	if flags.Changed("rate") {
		configuration.SampleRate = rootFlags.sampleRate
	}
	if flags.Changed("gain") {
		configuration.Gain = rootFlags.gain
	}
	if flags.Changed("mode") {
		if strings.EqualFold(rootFlags.mode, "auto") {
			configuration.Mode = ""
		} else {
			mode, err := core.ParseMode(rootFlags.mode)
			if err != nil {
				return configuration, err
			}
			configuration.Mode = mode
		}
	}
	if flags.Changed("bandwidth") {
		configuration.Bandwidth = core.Frequency(rootFlags.bandwidth)
	}
	if flags.Changed("deviation") {
		configuration.MaxDeviation = core.Frequency(rootFlags.deviation)
	}
	if flags.Changed("mono") {
		configuration.Stereo = !rootFlags.mono
	}
	if flags.Changed("volume") {
		configuration.Volume = rootFlags.volume
	}
	if flags.Changed("squelch") {
		configuration.Squelch = rootFlags.squelch
	}
	if flags.Changed("input") {
		configuration.InputFile = rootFlags.input
	}
	if flags.Changed("record") {
		configuration.RecordFile = rootFlags.record
	}
	if flags.Changed("vfo") {
		configuration.VFOHost = rootFlags.vfoHost
	}
	if flags.Changed("testmode") {
		configuration.Testmode = rootFlags.testmode
	}
	return configuration, nil
}

func modeNames() string {
	names := make([]string, len(core.Modes))
	for i, mode := range core.Modes {
		names[i] = strings.ToLower(string(mode))
	}
	return strings.Join(names, ", ")
}

func logPanorama(views <-chan panorama.View) {
	var lastLog time.Time
	for view := range views {
		if time.Since(lastLog) < time.Second {
			continue
		}
		lastLog = time.Now()
		log.Debug("spectrum", "tuned", view.Tuned, "band", view.Band.Name, "level", view.SignalLevel, "peaks", len(view.Peaks))
	}
}
