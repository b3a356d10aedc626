// Package resample converts whole signals between sample rates with a
// windowed-sinc FIR.
//
// The conversion is offline and zero-phase: the filter's group delay is
// removed, so an impulse at time t in the input stays at time t in the
// output. That keeps HRIR onsets, and with them interaural time
// differences, intact.
//
// Quality modes:
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
package resample
