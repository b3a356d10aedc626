package engine

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-spatial/dsp/effects"
	"github.com/cwbudde/algo-spatial/dsp/effects/reverb"
	"github.com/cwbudde/algo-spatial/dsp/effects/spatial"
	"github.com/cwbudde/algo-spatial/geom"
	"github.com/cwbudde/algo-spatial/scene"
	"github.com/cwbudde/algo-spatial/simulate"
)

// DefaultOcclusionSamples is the size of the volumetric sample set a
// Controller builds when no simulator is supplied.
const DefaultOcclusionSamples = 64

// ControllerOption configures NewController.
type ControllerOption func(*Controller) error

// WithLogger sets the logger for update tracing and deferred parameters.
func WithLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) error {
		if l != nil {
			c.log = l
		}
		return nil
	}
}

// WithGeometry sets the scene queried for occlusion and transmission.
func WithGeometry(g scene.Geometry) ControllerOption {
	return func(c *Controller) error {
		c.geometry = g
		return nil
	}
}

// WithSimulationFlags selects the direct-path terms to simulate and apply.
func WithSimulationFlags(f simulate.DirectSimulationFlags) ControllerOption {
	return func(c *Controller) error {
		c.flags = f
		return nil
	}
}

// WithDirectInputs sets the source models used by the simulator.
func WithDirectInputs(in simulate.DirectInputs) ControllerOption {
	return func(c *Controller) error {
		c.inputs = in
		return nil
	}
}

// WithTransmissionType selects how transmission is rendered.
func WithTransmissionType(t effects.TransmissionType) ControllerOption {
	return func(c *Controller) error {
		c.transmission = t
		return nil
	}
}

// WithInterpolation selects the HRIR interpolation.
func WithInterpolation(i spatial.Interpolation) ControllerOption {
	return func(c *Controller) error {
		c.interpolation = i
		return nil
	}
}

// WithSimulator shares an existing simulator between controllers.
func WithSimulator(s *simulate.DirectSimulator) ControllerOption {
	return func(c *Controller) error {
		if s == nil {
			return fmt.Errorf("engine: simulator must not be nil")
		}
		c.sim = s
		return nil
	}
}

// Controller turns source and listener poses into voice parameters. It is
// not safe for concurrent use; run one per control goroutine.
type Controller struct {
	voice *Voice
	sim   *simulate.DirectSimulator
	log   *zap.Logger

	geometry      scene.Geometry
	flags         simulate.DirectSimulationFlags
	inputs        simulate.DirectInputs
	transmission  effects.TransmissionType
	interpolation spatial.Interpolation

	last     simulate.DirectSoundPath
	deferred atomic.Uint64
}

// NewController attaches a controller to v. By default every term is
// simulated without geometry, and nothing is logged.
func NewController(v *Voice, opts ...ControllerOption) (*Controller, error) {
	if v == nil {
		return nil, fmt.Errorf("engine: voice must not be nil")
	}

	c := &Controller{
		voice:         v,
		log:           zap.NewNop(),
		flags:         simulate.SimulateAll,
		interpolation: spatial.InterpolationBilinear,
		last:          simulate.IdentityPath(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.sim == nil {
		sim, err := simulate.NewDirectSimulator(DefaultOcclusionSamples)
		if err != nil {
			return nil, err
		}
		c.sim = sim
	}

	return c, nil
}

// SetGeometry replaces the scene used by later updates. nil disables
// occlusion and transmission.
func (c *Controller) SetGeometry(g scene.Geometry) { c.geometry = g }

// Path returns the direct path computed by the last Update.
func (c *Controller) Path() simulate.DirectSoundPath { return c.last }

// Deferred returns how many parameter updates found their queue full. A
// deferred update is held back and delivered by a later Update or Flush
// unless a newer value of the same kind replaces it first.
func (c *Controller) Deferred() uint64 { return c.deferred.Load() }

// Flush retries held-back parameter updates. It reports whether every
// queue is clear. Update flushes on its own; hosts without pose changes
// call Flush from their control tick.
func (c *Controller) Flush() bool {
	return c.voice.flush()
}

// Update simulates the direct path for the given poses and publishes the
// result, together with the listener-local source direction, to the voice.
func (c *Controller) Update(source, listener geom.CoordinateSpace) simulate.DirectSoundPath {
	path := c.sim.Simulate(c.geometry, c.flags, source, listener, c.inputs)
	c.last = path

	c.publish("direct", c.voice.SetDirect(effects.DirectEffectParams{
		Path:             path,
		Flags:            effects.ApplyFlagsFor(c.flags),
		TransmissionType: c.transmission,
	}))

	if c.voice.Binaural() {
		dir := listener.PointToLocal(source.Origin)
		c.publish("binaural", c.voice.SetBinaural(spatial.BinauralEffectParams{
			Direction:     dir,
			Interpolation: c.interpolation,
		}))
	}

	c.voice.flush()

	if ce := c.log.Check(zap.DebugLevel, "direct path"); ce != nil {
		ce.Write(
			zap.Float64("distance", geom.Distance(source.Origin, listener.Origin)),
			zap.Float64("attenuation", path.DistanceAttenuation),
			zap.Float64("occlusion", path.Occlusion),
			zap.Float64("delay", path.Delay),
			zap.Float64s("transmission", path.Transmission[:]),
		)
	}

	return path
}

// SetReverb publishes new reverb times.
func (c *Controller) SetReverb(r reverb.Reverb) {
	r = r.Clamped()
	c.publish("reverb", c.voice.SetReverb(reverb.ReverbEffectParams{Reverb: r}))
	c.log.Debug("reverb", zap.Float64s("times", r.ReverbTimes[:]))
}

// SetMix publishes new dry and wet gains.
func (c *Controller) SetMix(m MixParameters) {
	c.publish("mix", c.voice.SetMix(m))
}

func (c *Controller) publish(kind string, ok bool) {
	if ok {
		return
	}

	n := c.deferred.Add(1)
	c.log.Warn("parameter update deferred", zap.String("kind", kind), zap.Uint64("deferred", n))
}
