// Package engine wires the simulator and the effect chain into a playable
// source.
//
// A [Voice] lives in the audio context: each host callback drains the
// latest parameters from lock-free channels and renders through a
// fixed-frame adapter. A [Controller] lives in the control context: it
// runs the direct-path simulation for new poses and publishes the results
// to its voice.
package engine
