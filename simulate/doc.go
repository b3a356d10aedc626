// Package simulate computes the direct acoustic path between a source and a
// listener: distance attenuation, per-band air absorption, source
// directivity, occlusion, per-band transmission through occluders and
// propagation delay.
//
// The simulator is a pure function of the committed scene and the poses
// passed in; it runs in the control context and publishes its result as a
// [DirectSoundPath] for the audio effects.
package simulate
