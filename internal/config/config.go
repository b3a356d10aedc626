// Package config holds the settings of the command-line hosts.
package config

import (
	"fmt"
	"os"

	"github.com/cwbudde/algo-spatial/dsp/core"
	"github.com/cwbudde/algo-spatial/dsp/effects"
	"github.com/cwbudde/algo-spatial/dsp/effects/reverb"
	"github.com/cwbudde/algo-spatial/dsp/effects/spatial"
	"github.com/cwbudde/algo-spatial/dsp/hrtf"
	"github.com/cwbudde/algo-spatial/internal/logging"
	"github.com/cwbudde/algo-spatial/simulate"
)

// Config holds all host settings.
type Config struct {
	Audio      AudioConfig      `yaml:"audio"`
	Simulation SimulationConfig `yaml:"simulation"`
	Reverb     ReverbConfig     `yaml:"reverb"`
	HRTF       HRTFConfig       `yaml:"hrtf"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AudioConfig holds processing settings.
type AudioConfig struct {
	SampleRate   float64 `yaml:"sample_rate"`
	FrameSize    int     `yaml:"frame_size"`
	MaxHostBlock int     `yaml:"max_host_block"`
	MaxDelay     float64 `yaml:"max_delay"` // seconds
	Dry          float64 `yaml:"dry"`
	Wet          float64 `yaml:"wet"`
}

// SimulationConfig holds direct-path simulation settings.
type SimulationConfig struct {
	Flags               []string `yaml:"flags"` // names as printed by simulate.DirectSimulationFlags
	Occlusion           string   `yaml:"occlusion"`
	OcclusionRadius     float64  `yaml:"occlusion_radius"`
	OcclusionSamples    int      `yaml:"occlusion_samples"`
	MaxOcclusionSamples int      `yaml:"max_occlusion_samples"`
	TransmissionRays    int      `yaml:"transmission_rays"`
	Transmission        string   `yaml:"transmission"`
	MinDistance         float64  `yaml:"min_distance"`
	DipoleWeight        float64  `yaml:"dipole_weight"`
	DipolePower         float64  `yaml:"dipole_power"`
	Interpolation       string   `yaml:"interpolation"`
}

// ReverbConfig holds per-band reverb times in seconds.
type ReverbConfig struct {
	Low  float64 `yaml:"low"`
	Mid  float64 `yaml:"mid"`
	High float64 `yaml:"high"`
}

// HRTF sources.
const (
	HRTFNone     = "none"
	HRTFSphere   = "sphere"
	HRTFManifest = "manifest"
)

// HRTFConfig selects the HRIR set.
type HRTFConfig struct {
	Source     string  `yaml:"source"`
	Manifest   string  `yaml:"manifest"`
	HeadRadius float64 `yaml:"head_radius"`
	GridStep   float64 `yaml:"grid_step"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:   48000,
			FrameSize:    256,
			MaxHostBlock: 4096,
			MaxDelay:     effects.DefaultMaxDelay,
			Dry:          1,
			Wet:          0.2,
		},
		Simulation: SimulationConfig{
			Flags:               []string{"all"},
			Occlusion:           "raycast",
			OcclusionRadius:     0.5,
			OcclusionSamples:    16,
			MaxOcclusionSamples: 64,
			TransmissionRays:    8,
			Transmission:        "frequency-dependent",
			MinDistance:         simulate.DefaultMinDistance,
			DipolePower:         1,
			Interpolation:       "bilinear",
		},
		Reverb: ReverbConfig{Low: 1.2, Mid: 1.0, High: 0.6},
		HRTF: HRTFConfig{
			Source:     HRTFSphere,
			HeadRadius: hrtf.DefaultHeadRadius,
			GridStep:   hrtf.DefaultGridStep,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks every setting that has no safe fallback.
func (c *Config) Validate() error {
	if err := c.Processor().Validate(); err != nil {
		return fmt.Errorf("config: audio: %w", err)
	}

	if c.Audio.MaxHostBlock < 1 {
		return fmt.Errorf("config: audio: max_host_block must be >= 1: %d", c.Audio.MaxHostBlock)
	}

	if _, err := c.Simulation.SimulationFlags(); err != nil {
		return err
	}

	if _, err := c.Simulation.occlusionType(); err != nil {
		return err
	}

	if _, err := c.Simulation.TransmissionType(); err != nil {
		return err
	}

	if _, err := c.Simulation.InterpolationMode(); err != nil {
		return err
	}

	switch c.HRTF.Source {
	case HRTFNone, HRTFSphere:
	case HRTFManifest:
		if c.HRTF.Manifest == "" {
			return fmt.Errorf("config: hrtf: manifest source needs a manifest path")
		}
	default:
		return fmt.Errorf("config: hrtf: unknown source %q", c.HRTF.Source)
	}

	return nil
}

// Processor returns the DSP processing configuration.
func (c *Config) Processor() core.ProcessorConfig {
	return core.ProcessorConfig{SampleRate: c.Audio.SampleRate, FrameSize: c.Audio.FrameSize}
}

// Reverb returns the configured reverb times.
func (r ReverbConfig) Reverb() reverb.Reverb {
	return reverb.Reverb{ReverbTimes: [effects.NumBands]float64{r.Low, r.Mid, r.High}}.Clamped()
}

// SimulationFlags combines the configured flag names.
func (s SimulationConfig) SimulationFlags() (simulate.DirectSimulationFlags, error) {
	var f simulate.DirectSimulationFlags

	for _, name := range s.Flags {
		bit, ok := simulate.ParseSimulationFlag(name)
		if !ok {
			return 0, fmt.Errorf("config: simulation: unknown flag %q", name)
		}
		f |= bit
	}

	return f, nil
}

func (s SimulationConfig) occlusionType() (simulate.OcclusionType, error) {
	switch s.Occlusion {
	case "", "raycast":
		return simulate.OcclusionRaycast, nil
	case "volumetric":
		return simulate.OcclusionVolumetric, nil
	default:
		return 0, fmt.Errorf("config: simulation: unknown occlusion %q", s.Occlusion)
	}
}

// TransmissionType parses the transmission setting.
func (s SimulationConfig) TransmissionType() (effects.TransmissionType, error) {
	switch s.Transmission {
	case "", effects.TransmissionFrequencyDependent.String():
		return effects.TransmissionFrequencyDependent, nil
	case effects.TransmissionFrequencyIndependent.String():
		return effects.TransmissionFrequencyIndependent, nil
	default:
		return 0, fmt.Errorf("config: simulation: unknown transmission %q", s.Transmission)
	}
}

// InterpolationMode parses the HRIR interpolation setting.
func (s SimulationConfig) InterpolationMode() (spatial.Interpolation, error) {
	switch s.Interpolation {
	case "", spatial.InterpolationBilinear.String():
		return spatial.InterpolationBilinear, nil
	case spatial.InterpolationNearest.String():
		return spatial.InterpolationNearest, nil
	default:
		return 0, fmt.Errorf("config: simulation: unknown interpolation %q", s.Interpolation)
	}
}

// DirectInputs returns the per-source simulation models.
func (s SimulationConfig) DirectInputs() (simulate.DirectInputs, error) {
	occ, err := s.occlusionType()
	if err != nil {
		return simulate.DirectInputs{}, err
	}

	return simulate.DirectInputs{
		DistanceModel: simulate.InverseDistanceModel{MinDistance: s.MinDistance},
		Directivity: simulate.Directivity{
			DipoleWeight: s.DipoleWeight,
			DipolePower:  s.DipolePower,
		}.Clamped(),
		OcclusionType:       occ,
		OcclusionRadius:     s.OcclusionRadius,
		NumOcclusionSamples: s.OcclusionSamples,
		NumTransmissionRays: s.TransmissionRays,
	}, nil
}

// Provider builds the configured HRIR set. It returns nil for HRTFNone.
func (h HRTFConfig) Provider(sampleRate float64) (hrtf.Provider, error) {
	switch h.Source {
	case HRTFNone:
		return nil, nil
	case HRTFManifest:
		d, err := hrtf.LoadManifest(h.Manifest)
		if err != nil {
			return nil, fmt.Errorf("config: hrtf: %w", err)
		}
		if d.SampleRate() != sampleRate {
			if d, err = hrtf.Resample(d, sampleRate); err != nil {
				return nil, fmt.Errorf("config: hrtf: %w", err)
			}
		}
		return d, nil
	default:
		var opts []hrtf.SphericalHeadOption
		if h.HeadRadius > 0 {
			opts = append(opts, hrtf.WithHeadRadius(h.HeadRadius))
		}
		if h.GridStep > 0 {
			opts = append(opts, hrtf.WithGridStep(h.GridStep))
		}

		d, err := hrtf.NewSphericalHead(sampleRate, opts...)
		if err != nil {
			return nil, fmt.Errorf("config: hrtf: %w", err)
		}
		return d, nil
	}
}

// LoggingOptions returns the logger options, writing console output to
// stderr.
func (l LoggingConfig) LoggingOptions() logging.Options {
	opts := logging.Options{Level: l.Level, Console: os.Stderr}
	if l.LogFile != "" {
		opts.File = logging.DefaultFileConfig(l.LogFile)
	}

	return opts
}
