package hrtf

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-spatial/dsp/filter/biquad"
	"github.com/cwbudde/algo-spatial/dsp/filter/design"
	"github.com/cwbudde/algo-spatial/geom"
)

// Spherical head model defaults.
const (
	DefaultHeadRadius     = 0.0875
	DefaultSpeedOfSound   = 343.0
	DefaultResponseLength = 128
	DefaultGridStep       = 15.0
)

// Head shadow shape: alpha at the shadowed extreme and the angle where it
// is reached.
const (
	shadowAlphaMin = 0.1
	shadowThetaMin = 150.0 * math.Pi / 180
)

var (
	leftEar  = geom.Vec(-1, 0, 0)
	rightEar = geom.Vec(1, 0, 0)
)

// SphericalHeadOption configures NewSphericalHead.
type SphericalHeadOption func(*sphericalHead) error

type sphericalHead struct {
	radius float64
	speed  float64
	length int
	step   float64
}

// WithHeadRadius sets the head radius in meters.
func WithHeadRadius(r float64) SphericalHeadOption {
	return func(h *sphericalHead) error {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("hrtf: head radius must be > 0 and finite: %v", r)
		}
		h.radius = r
		return nil
	}
}

// WithResponseLength sets the HRIR length in samples.
func WithResponseLength(n int) SphericalHeadOption {
	return func(h *sphericalHead) error {
		if n < 8 {
			return fmt.Errorf("hrtf: response length must be >= 8: %d", n)
		}
		h.length = n
		return nil
	}
}

// WithGridStep sets the azimuth and elevation spacing of the generated
// directions in degrees.
func WithGridStep(deg float64) SphericalHeadOption {
	return func(h *sphericalHead) error {
		if deg <= 0 || deg > 90 || math.IsNaN(deg) {
			return fmt.Errorf("hrtf: grid step must be in (0, 90]: %v", deg)
		}
		h.step = deg
		return nil
	}
}

// NewSphericalHead renders an HRIR set from the Brown-Duda spherical head
// model: a first-order head shadow filter per ear plus the Woodworth
// interaural delay. Directions lie on an azimuth/elevation grid with both
// poles included.
func NewSphericalHead(sampleRate float64, opts ...SphericalHeadOption) (*Dataset, error) {
	h := sphericalHead{
		radius: DefaultHeadRadius,
		speed:  DefaultSpeedOfSound,
		length: DefaultResponseLength,
		step:   DefaultGridStep,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&h); err != nil {
			return nil, err
		}
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate %v", ErrMalformedHRTF, sampleRate)
	}

	maxDelay := h.radius / h.speed * (1 + math.Pi/2) * sampleRate
	if float64(h.length) < maxDelay+2 {
		return nil, fmt.Errorf("hrtf: response length %d too short for %.1f samples of interaural delay", h.length, maxDelay)
	}

	dirs := h.grid()
	hrirs := make([]HRIR, len(dirs))

	for i, d := range dirs {
		hrirs[i] = HRIR{
			Left:  h.earResponse(d, leftEar, sampleRate),
			Right: h.earResponse(d, rightEar, sampleRate),
		}
	}

	return NewDataset(sampleRate, dirs, hrirs)
}

func (h sphericalHead) grid() []geom.Vector3 {
	dirs := []geom.Vector3{DirectionFromAngles(0, 90), DirectionFromAngles(0, -90)}

	for el := -90 + h.step; el < 90-1e-9; el += h.step {
		for az := 0.0; az < 360-1e-9; az += h.step {
			dirs = append(dirs, DirectionFromAngles(az, el))
		}
	}

	return dirs
}

// earResponse renders one ear's impulse response for a source in direction
// dir.
func (h sphericalHead) earResponse(dir, ear geom.Vector3, sampleRate float64) []float64 {
	theta := angle(geom.Normalize(dir), ear)

	ir := make([]float64, h.length)

	d := h.delay(theta) * sampleRate
	n := int(d)
	frac := d - float64(n)
	ir[n] = 1 - frac
	ir[n+1] = frac

	beta := 2 * h.speed / h.radius
	alpha := (1 + shadowAlphaMin/2) + (1-shadowAlphaMin/2)*math.Cos(theta/shadowThetaMin*math.Pi)
	biquad.NewSection(design.FirstOrder([2]float64{alpha, beta}, [2]float64{1, beta}, sampleRate)).ProcessBlock(ir)

	return ir
}

// delay is the Woodworth arrival time for an ear at angle theta from the
// source, offset so the nearest possible arrival is zero.
func (h sphericalHead) delay(theta float64) float64 {
	a := h.radius / h.speed
	if theta < math.Pi/2 {
		return a - a*math.Cos(theta)
	}

	return a + a*(theta-math.Pi/2)
}
