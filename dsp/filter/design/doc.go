// Package design provides biquad coefficient designers.
//
// The RBJ cookbook shelving and peaking designers feed the three-band EQ
// used by the direct-path and reverb effects; [ThreeBandEQ] lays out the
// low shelf, peak and high shelf from linear band gains. [FirstOrder]
// discretizes analog one-pole shelves such as the spherical-head HRTF model.
package design
