// Package spectrum computes one-sided power spectra of real signals and the
// summary measures used to judge reverb impulse responses: fractional-octave
// smoothing and spectral flatness.
//
// Transforms run on github.com/MeKo-Christian/algo-fft; the bin reductions
// run on github.com/cwbudde/algo-vecmath.
package spectrum
