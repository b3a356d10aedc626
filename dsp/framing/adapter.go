// Package framing runs fixed-size frame processors from host callbacks of
// any block size.
package framing

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-spatial/dsp/buffer"
	"github.com/cwbudde/algo-spatial/dsp/core"
)

var (
	ErrHostBlockTooLarge = errors.New("framing: host block exceeds configured maximum")
	ErrChannelMismatch   = errors.New("framing: channel count mismatch")
	ErrBlockLength       = errors.New("framing: channel lengths differ")
	ErrInvalidConfig     = errors.New("framing: invalid adapter configuration")
)

// FrameFunc processes exactly one frame. in and out are owned by the
// adapter and valid only for the call.
type FrameFunc func(in, out *buffer.Buffer)

// Adapter accumulates host input into frames, runs a FrameFunc on each full
// frame and queues its output for later host blocks. Output lags input by
// exactly one frame; the first frame of output is silence. After New it
// does not allocate.
type Adapter struct {
	frame    int
	maxBlock int
	fn       FrameFunc

	inFrame  *buffer.Buffer
	outFrame *buffer.Buffer
	inFill   int

	// fifo holds processed output not yet handed to the host; its first
	// fifoLen samples per channel are valid.
	fifo    [][]float64
	fifoLen int

	// Interleaved hosts are staged through stageIn and stageOut; planarIn
	// and planarOut view their first n frames.
	stageIn   *buffer.Buffer
	stageOut  *buffer.Buffer
	planarIn  [][]float64
	planarOut [][]float64
}

// New returns an adapter for frames of cfg.FrameSize samples with the given
// channel counts. Host blocks may be up to maxHostBlock samples long.
func New(cfg core.ProcessorConfig, inChannels, outChannels, maxHostBlock int, fn FrameFunc) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if inChannels < 1 || outChannels < 1 {
		return nil, fmt.Errorf("%w: %d in, %d out channels", ErrInvalidConfig, inChannels, outChannels)
	}

	if maxHostBlock < 1 {
		return nil, fmt.Errorf("%w: max host block %d", ErrInvalidConfig, maxHostBlock)
	}

	if fn == nil {
		return nil, fmt.Errorf("%w: nil frame func", ErrInvalidConfig)
	}

	a := &Adapter{
		frame:     cfg.FrameSize,
		maxBlock:  maxHostBlock,
		fn:        fn,
		inFrame:   buffer.New(inChannels, cfg.FrameSize),
		outFrame:  buffer.New(outChannels, cfg.FrameSize),
		fifo:      make([][]float64, outChannels),
		stageIn:   buffer.New(inChannels, maxHostBlock),
		stageOut:  buffer.New(outChannels, maxHostBlock),
		planarIn:  make([][]float64, inChannels),
		planarOut: make([][]float64, outChannels),
	}

	for c := range a.fifo {
		a.fifo[c] = make([]float64, cfg.FrameSize+maxHostBlock)
	}

	a.Reset()

	return a, nil
}

// Latency returns the delay from input to output in samples.
func (a *Adapter) Latency() int { return a.frame }

// MaxHostBlock returns the longest block Process accepts.
func (a *Adapter) MaxHostBlock() int { return a.maxBlock }

// Reset drops staged input and queued output and re-primes the output
// with one frame of silence.
func (a *Adapter) Reset() {
	a.inFrame.Zero()
	a.inFill = 0

	for _, ch := range a.fifo {
		clear(ch)
	}

	a.fifoLen = a.frame
}

// Process consumes one host block from in and fills out with the same
// number of samples. All channels must have the same length.
func (a *Adapter) Process(in, out [][]float64) error {
	if len(in) != a.inFrame.NumChannels() || len(out) != len(a.fifo) {
		return fmt.Errorf("%w: got %d in, %d out, want %d, %d",
			ErrChannelMismatch, len(in), len(out), a.inFrame.NumChannels(), len(a.fifo))
	}

	n := len(in[0])
	if n > a.maxBlock {
		return fmt.Errorf("%w: %d > %d", ErrHostBlockTooLarge, n, a.maxBlock)
	}

	for _, ch := range in {
		if len(ch) != n {
			return ErrBlockLength
		}
	}

	for _, ch := range out {
		if len(ch) != n {
			return ErrBlockLength
		}
	}

	for pos := 0; pos < n; {
		take := min(a.frame-a.inFill, n-pos)

		for c, ch := range in {
			copy(a.inFrame.Channel(c)[a.inFill:], ch[pos:pos+take])
		}

		a.inFill += take
		pos += take

		if a.inFill == a.frame {
			a.fn(a.inFrame, a.outFrame)

			for c, ch := range a.fifo {
				copy(ch[a.fifoLen:], a.outFrame.Channel(c))
			}

			a.fifoLen += a.frame
			a.inFill = 0
		}
	}

	for c, ch := range a.fifo {
		copy(out[c], ch[:n])
		copy(ch, ch[n:a.fifoLen])
	}

	a.fifoLen -= n

	return nil
}

// ProcessInterleaved is Process for interleaved float32 hosts. in holds
// frames of the adapter's input channel count and out of its output
// channel count. A nil in feeds silence.
func (a *Adapter) ProcessInterleaved(in, out []float32) error {
	outCh := len(a.fifo)
	inCh := a.inFrame.NumChannels()

	if len(out)%outCh != 0 {
		return fmt.Errorf("%w: %d samples for %d channels", ErrBlockLength, len(out), outCh)
	}

	n := len(out) / outCh
	if n > a.maxBlock {
		return fmt.Errorf("%w: %d > %d", ErrHostBlockTooLarge, n, a.maxBlock)
	}

	if in != nil && len(in) != n*inCh {
		return fmt.Errorf("%w: %d input samples for %d frames", ErrBlockLength, len(in), n)
	}

	if in == nil {
		a.stageIn.Zero()
	} else {
		a.stageIn.Deinterleave(in)
	}

	for c := range a.planarIn {
		a.planarIn[c] = a.stageIn.Channel(c)[:n]
	}

	for c := range a.planarOut {
		a.planarOut[c] = a.stageOut.Channel(c)[:n]
	}

	if err := a.Process(a.planarIn, a.planarOut); err != nil {
		return err
	}

	a.stageOut.Interleave(out)

	return nil
}
