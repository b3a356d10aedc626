package config

import (
	"flag"
	"strings"
)

// Flags are command-line overrides. Zero values leave the loaded
// configuration untouched.
type Flags struct {
	Config     string
	Debug      bool
	LogFile    string
	SampleRate float64
	FrameSize  int
	HRTF       string
	Manifest   string
	Simulate   string
	Wet        float64
}

// RegisterFlags defines the shared host flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{Wet: -1}

	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write a rotating JSON log to this file")
	fs.Float64Var(&f.SampleRate, "rate", 0, "Processing sample rate in Hz")
	fs.IntVar(&f.FrameSize, "frame", 0, "Processing frame size in samples")
	fs.StringVar(&f.HRTF, "hrtf", "", "HRTF source: none, sphere or manifest")
	fs.StringVar(&f.Manifest, "manifest", "", "HRTF manifest (implies -hrtf manifest)")
	fs.StringVar(&f.Simulate, "simulate", "", "Comma-separated simulation flags, e.g. distance,air,occlusion")
	fs.Float64Var(&f.Wet, "wet", -1, "Reverb send gain")

	return f
}

// Load loads the configuration named by -config and applies the flag
// overrides.
func (f *Flags) Load() (*Config, error) {
	cfg, err := Load(f.Config)
	if err != nil {
		return nil, err
	}

	f.Apply(cfg)

	return cfg, nil
}

// Apply applies the flag overrides to cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.SampleRate > 0 {
		cfg.Audio.SampleRate = f.SampleRate
	}
	if f.FrameSize > 0 {
		cfg.Audio.FrameSize = f.FrameSize
	}
	if f.HRTF != "" {
		cfg.HRTF.Source = f.HRTF
	}
	if f.Manifest != "" {
		cfg.HRTF.Source = HRTFManifest
		cfg.HRTF.Manifest = f.Manifest
	}
	if f.Simulate != "" {
		cfg.Simulation.Flags = strings.Split(f.Simulate, ",")
	}
	if f.Wet >= 0 {
		cfg.Audio.Wet = f.Wet
	}
}
