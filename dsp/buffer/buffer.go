package buffer

import "github.com/cwbudde/algo-spatial/dsp/core"

// Buffer holds NumChannels planar channels of Len samples each.
type Buffer struct {
	channels [][]float64
	frames   int
}

// New returns a zero-filled buffer. Negative sizes are treated as zero.
func New(numChannels, frames int) *Buffer {
	numChannels = max(numChannels, 0)
	frames = max(frames, 0)

	backing := make([]float64, numChannels*frames)
	channels := make([][]float64, numChannels)
	for i := range channels {
		channels[i] = backing[i*frames : (i+1)*frames : (i+1)*frames]
	}

	return &Buffer{channels: channels, frames: frames}
}

// FromChannels wraps existing channel slices without copying. All channels
// are truncated to the shortest one.
func FromChannels(channels ...[]float64) *Buffer {
	frames := 0
	if len(channels) > 0 {
		frames = len(channels[0])
		for _, ch := range channels[1:] {
			frames = min(frames, len(ch))
		}
	}

	views := make([][]float64, len(channels))
	for i, ch := range channels {
		views[i] = ch[:frames]
	}

	return &Buffer{channels: views, frames: frames}
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int { return len(b.channels) }

// Len returns the number of samples per channel.
func (b *Buffer) Len() int { return b.frames }

// Channel returns channel i.
func (b *Buffer) Channel(i int) []float64 { return b.channels[i] }

// Channels returns all channel slices.
func (b *Buffer) Channels() [][]float64 { return b.channels }

// Zero clears every channel.
func (b *Buffer) Zero() {
	for _, ch := range b.channels {
		clear(ch)
	}
}

// IsSilent reports whether every channel is below core.SilenceThreshold.
func (b *Buffer) IsSilent() bool {
	for _, ch := range b.channels {
		if !core.IsSilent(ch) {
			return false
		}
	}

	return true
}

// CopyFrom copies src into b channel by channel. Extra channels on either
// side are left untouched.
func (b *Buffer) CopyFrom(src *Buffer) {
	for i := range min(len(b.channels), len(src.channels)) {
		copy(b.channels[i], src.channels[i])
	}
}

// Interleave writes b into dst as frame-interleaved float32 samples and
// returns the number of frames written.
func (b *Buffer) Interleave(dst []float32) int {
	nch := len(b.channels)
	if nch == 0 {
		return 0
	}

	n := min(b.frames, len(dst)/nch)
	for c, ch := range b.channels {
		for i := range n {
			dst[i*nch+c] = float32(ch[i])
		}
	}

	return n
}

// Deinterleave reads frame-interleaved float32 samples from src into b and
// returns the number of frames read. Frames beyond the input are zeroed.
func (b *Buffer) Deinterleave(src []float32) int {
	nch := len(b.channels)
	if nch == 0 {
		return 0
	}

	n := min(b.frames, len(src)/nch)
	for c, ch := range b.channels {
		for i := range n {
			ch[i] = float64(src[i*nch+c])
		}
		clear(ch[n:])
	}

	return n
}

// DownmixTo writes the channel average of b into dst.
func (b *Buffer) DownmixTo(dst []float64) {
	n := min(len(dst), b.frames)
	clear(dst[:n])

	if len(b.channels) == 0 {
		return
	}

	scale := 1 / float64(len(b.channels))
	for _, ch := range b.channels {
		for i := range n {
			dst[i] += ch[i] * scale
		}
	}
}
