package simulate

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/scene"
)

// SpeedOfSound is the default propagation speed in m/s.
const SpeedOfSound = 343.0

// DirectInputs are the per-source model parameters of a simulation.
type DirectInputs struct {
	// DistanceModel defaults to InverseDistanceModel when nil.
	DistanceModel DistanceAttenuationModel
	// AirAbsorption defaults to DefaultAirAbsorption when nil.
	AirAbsorption AirAbsorptionModel
	Directivity   Directivity

	OcclusionType   OcclusionType
	OcclusionRadius float64
	// NumOcclusionSamples is clamped to [1, MaxOcclusionSamples].
	NumOcclusionSamples int
	NumTransmissionRays int
}

// Option configures a DirectSimulator.
type Option func(*DirectSimulator) error

// WithSpeedOfSound overrides the propagation speed used for delays.
func WithSpeedOfSound(c float64) Option {
	return func(s *DirectSimulator) error {
		if c <= 0 {
			return fmt.Errorf("simulate: speed of sound must be > 0: %f", c)
		}
		s.speedOfSound = c
		return nil
	}
}

// DirectSimulator computes DirectSoundPath values. The Halton point set for
// volumetric occlusion is built once at construction. A simulator is safe
// for concurrent use.
type DirectSimulator struct {
	samples      []geom.Vector3
	speedOfSound float64
}

// NewDirectSimulator creates a simulator supporting up to
// maxOcclusionSamples volumetric samples per call.
func NewDirectSimulator(maxOcclusionSamples int, opts ...Option) (*DirectSimulator, error) {
	if maxOcclusionSamples < 1 {
		return nil, fmt.Errorf("simulate: max occlusion samples must be >= 1: %d", maxOcclusionSamples)
	}

	s := &DirectSimulator{
		samples:      haltonBall(maxOcclusionSamples),
		speedOfSound: SpeedOfSound,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// MaxOcclusionSamples returns the size of the precomputed sample set.
func (s *DirectSimulator) MaxOcclusionSamples() int { return len(s.samples) }

// Simulate computes the direct path from source to listener. Terms whose
// flag is unset keep their identity value; occlusion and transmission also
// stay at identity when g is nil.
func (s *DirectSimulator) Simulate(g scene.Geometry, flags DirectSimulationFlags, source, listener geom.CoordinateSpace, in DirectInputs) DirectSoundPath {
	path := IdentityPath()
	distance := geom.Distance(source.Origin, listener.Origin)

	if flags.Has(SimulateDistanceAttenuation) {
		model := in.DistanceModel
		if model == nil {
			model = InverseDistanceModel{MinDistance: DefaultMinDistance}
		}
		path.DistanceAttenuation = model.Evaluate(distance)
	}

	if flags.Has(SimulateAirAbsorption) {
		model := in.AirAbsorption
		if model == nil {
			model = DefaultAirAbsorption()
		}
		for b := range NumBands {
			path.AirAbsorption[b] = model.Evaluate(distance, b)
		}
	}

	if flags.Has(SimulateDelay) {
		path.Delay = distance / s.speedOfSound
	}

	if flags.Has(SimulateDirectivity) {
		path.Directivity = in.Directivity.Evaluate(source, listener.Origin)
	}

	if g == nil {
		return path
	}

	if flags.Has(SimulateOcclusion) {
		switch in.OcclusionType {
		case OcclusionVolumetric:
			n := min(max(in.NumOcclusionSamples, 1), len(s.samples))
			path.Occlusion = volumetricOcclusion(g, source.Origin, listener.Origin, in.OcclusionRadius, s.samples[:n])
		default:
			path.Occlusion = raycastOcclusion(g, source.Origin, listener.Origin)
		}
	}

	if flags.Has(SimulateTransmission) && in.NumTransmissionRays > 0 {
		path.Transmission = transmission(g, source.Origin, listener.Origin, in.NumTransmissionRays)
	}

	return path
}
