// Package hrtf holds head-related impulse response sets and the direction
// lookup used by binaural rendering.
//
// Directions are unit vectors in listener-local coordinates: x points
// right, y up and -z ahead. A set comes either from the analytic
// [SphericalHead] model or from a YAML manifest of stereo WAV files read by
// [LoadManifest].
package hrtf
