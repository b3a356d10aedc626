// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Sections keep two samples
// of history across blocks, and swapping coefficients keeps that history so
// gain changes do not click. [Chain] cascades sections; the EQ and reverb
// filter banks are three-section chains.
//
// Block processing dispatches to an unrolled kernel chosen once from the
// CPU features reported by algo-vecmath/cpu.
//
// Coefficient design lives in dsp/filter/design.
package biquad
