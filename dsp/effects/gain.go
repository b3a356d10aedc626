package effects

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
)

// gainInterpolationFrames is the number of frames a gain change is spread
// over.
const gainInterpolationFrames = 4

// GainEffect applies an overall gain that moves smoothly between frames.
//
// The first frame after construction or Reset uses the target directly.
// When the target changes, the remaining distance is covered over the next
// gainInterpolationFrames frames, ramping linearly inside each frame, so the
// applied gain reaches the target exactly and never overshoots it.
type GainEffect struct {
	started    bool
	prev       float64
	target     float64
	framesLeft int
}

// NewGainEffect returns a gain effect in its initial state.
func NewGainEffect() *GainEffect {
	return &GainEffect{}
}

// Gain returns the gain applied at the end of the last frame.
func (g *GainEffect) Gain() float64 { return g.prev }

// Apply scales every channel of in into out. in and out may be the same
// buffer.
func (g *GainEffect) Apply(gain float64, in, out *buffer.Buffer) State {
	if !g.started {
		g.started = true
		g.prev, g.target, g.framesLeft = gain, gain, 0
		scaleChannels(in, out, gain)

		return StateTailComplete
	}

	if gain != g.target {
		g.target = gain
		g.framesLeft = gainInterpolationFrames
	}

	next := g.target
	if g.framesLeft > 1 {
		next = g.prev + (g.target-g.prev)/float64(g.framesLeft)
	}

	if g.framesLeft > 0 {
		g.framesLeft--
	}

	if next == g.prev {
		scaleChannels(in, out, next)
	} else {
		rampChannels(in, out, g.prev, next)
	}

	g.prev = next

	return StateTailComplete
}

// Tail clears out; a gain has no memory.
func (g *GainEffect) Tail(out *buffer.Buffer) State {
	out.Zero()
	return StateTailComplete
}

// TailSize returns 0.
func (g *GainEffect) TailSize() int { return 0 }

// Reset returns the effect to its initial state.
func (g *GainEffect) Reset() {
	*g = GainEffect{}
}

func scaleChannels(in, out *buffer.Buffer, gain float64) {
	for ch := range min(in.NumChannels(), out.NumChannels()) {
		vecmath.ScaleBlock(out.Channel(ch), in.Channel(ch), gain)
	}
}

func rampChannels(in, out *buffer.Buffer, from, to float64) {
	n := min(in.Len(), out.Len())
	step := (to - from) / float64(n)

	for ch := range min(in.NumChannels(), out.NumChannels()) {
		src := in.Channel(ch)[:n]
		dst := out.Channel(ch)[:n]

		for i, x := range src {
			dst[i] = x * (from + step*float64(i+1))
		}
	}
}
