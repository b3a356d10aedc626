// Package conv provides block convolution for real-time rendering.
//
// [UniformConvolver] implements uniformly partitioned overlap-save
// convolution: the impulse response is split into partitions of one block
// each, transformed once into a [Filter], and multiplied against a
// frequency-domain delay line of past input spectra. Several filters can be
// applied to the same pushed input, which is how a stereo HRIR pair shares
// one forward FFT per block:
//
//	c, _ := conv.NewUniformConvolver(256, 512)
//	left, _ := c.NewFilter(hrirLeft)
//	right, _ := c.NewFilter(hrirRight)
//
//	c.Push(mono)
//	c.Convolve(outL, left)
//	c.Convolve(outR, right)
//
// When the filter changes between blocks, [UniformConvolver.ConvolveCrossfade]
// fades from the old filter's output to the new one inside the block so the
// switch is inaudible. [Filter.SetWeighted] blends filters spectrally for
// interpolated HRTF lookup without allocating.
//
// [Direct] is the plain time-domain reference.
package conv
