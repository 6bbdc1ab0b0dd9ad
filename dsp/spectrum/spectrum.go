package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// ErrFFTSize is returned for a transform size that is not a power of two >= 2.
var ErrFFTSize = errors.New("spectrum: fft size must be a power of two >= 2")

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)

	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}

	return buf.data[:n], buf.data[n:need], buf
}

// Power returns |X[k]|^2 for each bin of in.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Power(out, re, im)
	scratchPool.Put(buf)

	return out
}

// PowerSpectrum returns the one-sided power spectrum of x, bins 0 through
// fftSize/2. x is zero-padded or truncated to fftSize samples and is not
// windowed, which suits impulse responses that decay to silence.
func PowerSpectrum(x []float64, fftSize int) ([]float64, error) {
	if fftSize < 2 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrFFTSize, fftSize)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	in := make([]complex128, fftSize)
	for i, v := range x[:min(len(x), fftSize)] {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("spectrum: forward FFT: %w", err)
	}

	return Power(out[:fftSize/2+1]), nil
}

// BinFrequencies returns the centre frequency in Hz of each one-sided bin
// produced by PowerSpectrum for fftSize.
func BinFrequencies(fftSize int, sampleRate float64) []float64 {
	if fftSize < 2 || sampleRate <= 0 {
		return nil
	}

	out := make([]float64, fftSize/2+1)
	step := sampleRate / float64(fftSize)

	for k := range out {
		out[k] = float64(k) * step
	}

	return out
}

// Flatness returns the spectral flatness of power: the ratio of its geometric
// to its arithmetic mean, in [0, 1]. A white spectrum scores 1, a pure tone
// scores near 0. Any zero bin makes the result 0; an empty slice also
// returns 0.
func Flatness(power []float64) float64 {
	if len(power) == 0 {
		return 0
	}

	var logSum, sum float64

	for _, p := range power {
		if !(p > 0) {
			return 0
		}

		logSum += math.Log(p)
		sum += p
	}

	n := float64(len(power))
	arith := sum / n

	return math.Exp(logSum/n) / arith
}

// SmoothFractionalOctave replaces every value with the arithmetic mean of the
// values inside the 1/fraction-octave band centred on its frequency.
//
// freqHz and values must have equal length and freqHz must be strictly
// increasing with positive values. A DC bin has to be dropped first.
func SmoothFractionalOctave(freqHz, values []float64, fraction int) ([]float64, error) {
	if len(freqHz) == 0 || len(values) == 0 {
		return nil, fmt.Errorf("fractional-octave smoothing requires non-empty inputs")
	}

	if len(freqHz) != len(values) {
		return nil, fmt.Errorf("fractional-octave input length mismatch: %d != %d", len(freqHz), len(values))
	}

	if fraction <= 0 {
		return nil, fmt.Errorf("fractional-octave fraction must be > 0: %d", fraction)
	}

	for i := range freqHz {
		if freqHz[i] <= 0 {
			return nil, fmt.Errorf("fractional-octave frequencies must be > 0 at index %d", i)
		}

		if i > 0 && !(freqHz[i] > freqHz[i-1]) {
			return nil, fmt.Errorf("fractional-octave frequencies must be strictly increasing at index %d", i)
		}
	}

	out := make([]float64, len(values))
	halfBand := math.Pow(2, 1/(2*float64(fraction)))

	for i, f := range freqHz {
		lo := sort.SearchFloat64s(freqHz, f/halfBand)
		hi := sort.Search(len(freqHz), func(k int) bool { return freqHz[k] > f*halfBand })

		if lo >= hi {
			out[i] = values[i]
			continue
		}

		sum := 0.0
		for _, v := range values[lo:hi] {
			sum += v
		}

		out[i] = sum / float64(hi-lo)
	}

	return out, nil
}
