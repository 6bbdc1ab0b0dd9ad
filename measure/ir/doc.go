// Package ir measures reverb impulse responses.
//
// Decay metrics are derived from the Schroeder backward integration of the
// squared response. Stereo responses are analysed on their summed energy, so
// a decorrelated left/right tail yields one decay curve:
//
//   - EDT: Early decay time (0 to -10 dB, extrapolated to -60 dB)
//   - T20, T30: Decay from -5 to -25 dB and -5 to -35 dB
//   - RT60: T30 when the response reaches -35 dB, T20 otherwise
//   - C80, D50: Clarity and definition around the early/late boundary
//   - Tail length: time until the response stays below a relative level
//
// # Usage
//
//	analyzer := ir.NewAnalyzer(48000)
//	metrics, err := analyzer.AnalyzeStereo(left, right)
//	fmt.Printf("RT60 = %.2f s, tail = %.2f s\n", metrics.RT60, metrics.TailLength)
package ir
