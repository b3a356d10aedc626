// Package spatial renders mono sources to binaural stereo.
//
// [BinauralEffect] convolves each frame with the head-related impulse
// response pair for the source direction and crossfades between responses
// within a frame when the direction moves.
package spatial
