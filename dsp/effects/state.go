package effects

import "github.com/cwbudde/algo-spatial/dsp/buffer"

// State reports whether an effect still has output to produce after its
// input stops.
type State int

const (
	// StateTailRemaining means further calls to Tail produce audible output.
	StateTailRemaining State = iota
	// StateTailComplete means the effect is idle and may be bypassed.
	StateTailComplete
)

func (s State) String() string {
	switch s {
	case StateTailRemaining:
		return "tail-remaining"
	case StateTailComplete:
		return "tail-complete"
	default:
		return "unknown"
	}
}

// Effect is the part of an effect's contract that does not depend on its
// parameter type. Apply methods are defined per effect.
type Effect interface {
	// Tail writes the next frame of output produced with no new input.
	Tail(out *buffer.Buffer) State
	// TailSize returns the number of frames the tail may last.
	TailSize() int
	// Reset clears all history.
	Reset()
}

// Applier is an Effect driven by parameters of type P.
type Applier[P any] interface {
	Effect
	Apply(params P, in, out *buffer.Buffer) State
}

// CanBypass reports whether a voice may clear its output instead of
// running an effect: the previous output and the current input are both
// silent and the effect has no tail left.
func CanBypass(prevOutputSilent bool, in *buffer.Buffer, state State) bool {
	return prevOutputSilent && state == StateTailComplete && in.IsSilent()
}
