// Package reverb provides the late-reverberation stage of a voice.
//
// ReverbEffect is a 16-line feedback delay network. Line lengths are fixed
// at construction from powers of distinct primes so no two lines share a
// period. Each line's output runs through a three-band absorption filter
// whose per-band gain follows the target reverb time, and the summed output
// runs through a tone-correction filter that evens out the band energies.
// Lines are mixed through an orthonormal 16x16 Hadamard matrix.
package reverb
