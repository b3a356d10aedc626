package resample

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRate indicates a non-positive or non-finite sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
	// ErrInvalidRatio indicates a rate ratio that cannot be expressed with
	// the configured maximum denominator.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
)

// Quality controls the anti-aliasing filter.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityBest
)

func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityBest:
		return "best"
	default:
		return "balanced"
	}
}

type profile struct {
	tapsPerPhase int
	cutoffScale  float64
	kaiserBeta   float64
}

func (q Quality) profile() profile {
	switch q {
	case QualityFast:
		return profile{tapsPerPhase: 16, cutoffScale: 0.88, kaiserBeta: 5.0}
	case QualityBest:
		return profile{tapsPerPhase: 64, cutoffScale: 0.96, kaiserBeta: 9.0}
	default:
		return profile{tapsPerPhase: 32, cutoffScale: 0.92, kaiserBeta: 7.5}
	}
}

const defaultMaxDenominator = 1024

type config struct {
	quality Quality
	maxDen  int
}

// Option configures a Converter.
type Option func(*config)

// WithQuality selects the anti-aliasing quality.
func WithQuality(q Quality) Option {
	return func(c *config) { c.quality = q }
}

// WithMaxDenominator caps the denominator used to approximate the rate
// ratio. Standard audio rates reduce to small ratios well below the
// default.
func WithMaxDenominator(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDen = n
		}
	}
}

// Converter resamples by the rational factor up/down. It keeps no state
// between calls and is safe for concurrent use.
type Converter struct {
	up, down int
	quality  Quality
	// taps is the odd-length prototype at the upsampled rate; its centre
	// tap sits at index center.
	taps   []float64
	center int
}

// New returns a converter from inRate to outRate.
func New(inRate, outRate float64, opts ...Option) (*Converter, error) {
	for _, r := range []float64{inRate, outRate} {
		if !(r > 0) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRate, r)
		}
	}

	cfg := config{quality: QualityBalanced, maxDen: defaultMaxDenominator}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	up, down := approximateRatio(outRate/inRate, cfg.maxDen)
	if math.Abs(float64(up)/float64(down)*inRate-outRate) > 1e-6*outRate {
		return nil, fmt.Errorf("%w: %v Hz to %v Hz", ErrInvalidRatio, inRate, outRate)
	}

	c := &Converter{up: up, down: down, quality: cfg.quality}
	c.design(cfg.quality.profile())

	return c, nil
}

// Ratio returns the reduced conversion factors.
func (c *Converter) Ratio() (up, down int) { return c.up, c.down }

// Quality returns the configured quality.
func (c *Converter) Quality() Quality { return c.quality }

// OutputLen returns the number of samples Convert produces for n inputs.
func (c *Converter) OutputLen(n int) int {
	return (n*c.up + c.down - 1) / c.down
}

// Convert returns x at the output rate. The output covers the same
// duration as the input; ringing past the end is cut.
func (c *Converter) Convert(x []float64) []float64 {
	out := make([]float64, c.OutputLen(len(x)))

	if c.up == c.down {
		copy(out, x)
		return out
	}

	nTaps := len(c.taps)

	for m := range out {
		// Position of output sample m on the upsampled grid, shifted by
		// the filter centre to cancel its delay.
		n := m*c.down + c.center

		lo := max(0, ceilDiv(n-nTaps+1, c.up))
		hi := min(len(x)-1, n/c.up)

		var y float64
		for i := lo; i <= hi; i++ {
			y += x[i] * c.taps[n-i*c.up]
		}

		out[m] = y
	}

	return out
}

// design builds a Kaiser-windowed sinc low-pass at the upsampled rate,
// scaled so that every polyphase branch has unity DC gain.
func (c *Converter) design(p profile) {
	nTaps := p.tapsPerPhase*c.up + 1
	c.center = nTaps / 2
	c.taps = make([]float64, nTaps)

	fc := 0.5 / float64(max(c.up, c.down)) * p.cutoffScale

	var sum float64
	for n := range c.taps {
		t := float64(n - c.center)
		h := 2 * fc * sinc(2*fc*t) * kaiser(n, nTaps, p.kaiserBeta)
		c.taps[n] = h
		sum += h
	}

	scale := float64(c.up) / sum
	for i := range c.taps {
		c.taps[i] *= scale
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return -((-a) / b)
	}

	return (a + b - 1) / b
}

// approximateRatio returns num/den ≈ v by continued fractions with den
// at most maxDen.
func approximateRatio(v float64, maxDen int) (num, den int) {
	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0
	x := v

	for {
		frac := x - math.Floor(x)
		if frac < 1e-12 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)

		p2, q2 := a*p1+p0, a*q1+q0
		if q2 > float64(maxDen) {
			break
		}

		p0, q0, p1, q1 = p1, q1, p2, q2
	}

	num, den = int(math.Round(p1)), int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	return math.Sin(math.Pi*x) / (math.Pi * x)
}

func kaiser(i, n int, beta float64) float64 {
	t := 2*float64(i)/float64(n-1) - 1
	return besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / besselI0(beta)
}

// besselI0 is the zeroth-order modified Bessel function of the first kind.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	x2 := x * x / 4

	for k := 1; k < 64; k++ {
		term *= x2 / float64(k*k)
		sum += term

		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
