// Package effects holds the frame-based effects of the direct-sound chain
// and the capability shared by every effect a voice runs.
//
// Effects process one fixed-size frame per call on planar buffers from
// package buffer. They never allocate, lock or log while processing; all
// state is sized at construction from a [core.ProcessorConfig].
//
//   - GainEffect: smoothed overall gain with a four-frame ramp.
//   - EqEffect: low-shelf, peak and high-shelf cascade that crossfades
//     between filter banks when its gains change.
//   - DirectEffect: turns a simulated direct sound path into gain and EQ.
//
// The reverb and binaural stages live in the reverb and spatial
// subpackages and share the [State] machine defined here.
package effects
