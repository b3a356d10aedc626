package biquad

import "github.com/cwbudde/algo-vecmath/cpu"

type processBlockFn func(c Coefficients, d0, d1 float64, buf []float64) (newD0, newD1 float64)

// blockKernel is one ProcessBlock implementation and the SIMD level it
// targets. The feedback recursion is serial, so wider machines get deeper
// unrolling rather than vector instructions.
type blockKernel struct {
	name    string
	level   cpu.SIMDLevel
	process processBlockFn
}

// kernels is ordered by preference.
var kernels = []blockKernel{
	{name: "unroll4", level: cpu.SIMDAVX2, process: processBlockUnroll4},
	{name: "unroll4", level: cpu.SIMDNEON, process: processBlockUnroll4},
	{name: "unroll2", level: cpu.SIMDSSE2, process: processBlockUnroll2},
	{name: "generic", level: cpu.SIMDNone, process: processBlockGeneric},
}

func initActiveKernel() {
	activeKernel = selectKernel(cpu.DetectFeatures())
}

func selectKernel(f cpu.Features) blockKernel {
	for _, k := range kernels {
		if supportsLevel(f, k.level) {
			return k
		}
	}

	return kernels[len(kernels)-1]
}

func supportsLevel(f cpu.Features, level cpu.SIMDLevel) bool {
	if f.ForceGeneric {
		return level == cpu.SIMDNone
	}

	switch level {
	case cpu.SIMDNone:
		return true
	case cpu.SIMDSSE2:
		return f.HasSSE2
	case cpu.SIMDAVX2:
		return f.HasAVX2
	case cpu.SIMDNEON:
		return f.HasNEON
	default:
		return false
	}
}

func processBlockGeneric(c Coefficients, d0, d1 float64, buf []float64) (newD0, newD1 float64) {
	for i, x := range buf {
		y := c.B0*x + d0
		d0 = c.B1*x - c.A1*y + d1
		d1 = c.B2*x - c.A2*y
		buf[i] = y
	}

	return d0, d1
}

func processBlockUnroll2(c Coefficients, d0, d1 float64, buf []float64) (newD0, newD1 float64) {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	i := 0
	n := len(buf)
	for ; i+1 < n; i += 2 {
		x0 := buf[i]
		y0 := b0*x0 + d0
		d0n := b1*x0 - a1*y0 + d1
		d1n := b2*x0 - a2*y0

		x1 := buf[i+1]
		y1 := b0*x1 + d0n
		d0 = b1*x1 - a1*y1 + d1n
		d1 = b2*x1 - a2*y1

		buf[i] = y0
		buf[i+1] = y1
	}

	if i < n {
		x := buf[i]
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	return d0, d1
}

func processBlockUnroll4(c Coefficients, d0, d1 float64, buf []float64) (newD0, newD1 float64) {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	i := 0
	n := len(buf)
	for ; i+3 < n; i += 4 {
		x0 := buf[i]
		y0 := b0*x0 + d0
		d00 := b1*x0 - a1*y0 + d1
		d10 := b2*x0 - a2*y0

		x1 := buf[i+1]
		y1 := b0*x1 + d00
		d01 := b1*x1 - a1*y1 + d10
		d11 := b2*x1 - a2*y1

		x2 := buf[i+2]
		y2 := b0*x2 + d01
		d02 := b1*x2 - a1*y2 + d11
		d12 := b2*x2 - a2*y2

		x3 := buf[i+3]
		y3 := b0*x3 + d02
		d0 = b1*x3 - a1*y3 + d12
		d1 = b2*x3 - a2*y3

		buf[i] = y0
		buf[i+1] = y1
		buf[i+2] = y2
		buf[i+3] = y3
	}

	for ; i < n; i++ {
		x := buf[i]
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	return d0, d1
}
