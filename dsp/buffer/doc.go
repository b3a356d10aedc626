// Package buffer provides a planar multi-channel audio buffer. Each channel
// is a []float64 view into one contiguous allocation, so effects can hand
// channel slices straight to block kernels.
package buffer
