package core

import (
	"errors"
	"fmt"
)

// Configuration errors returned by ProcessorConfig.Validate.
var (
	ErrInvalidSampleRate = errors.New("core: sample rate must be positive and finite")
	ErrInvalidFrameSize  = errors.New("core: frame size must be positive")
)

// ProcessorConfig holds the audio settings every effect is built for. The
// engine always processes exactly FrameSize samples per call; hosts with
// other block sizes go through dsp/framing.
type ProcessorConfig struct {
	SampleRate float64
	FrameSize  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns 48 kHz with 256-sample frames.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		FrameSize:  256,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithFrameSize sets the fixed processing frame size.
func WithFrameSize(frameSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if frameSize > 0 {
			cfg.FrameSize = frameSize
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate reports whether the configuration can drive an effect.
func (c ProcessorConfig) Validate() error {
	if !(c.SampleRate > 0) || c.SampleRate > 1e7 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, c.SampleRate)
	}

	if c.FrameSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrameSize, c.FrameSize)
	}

	return nil
}

// FrameDuration returns the length of one frame in seconds.
func (c ProcessorConfig) FrameDuration() float64 {
	return float64(c.FrameSize) / c.SampleRate
}
