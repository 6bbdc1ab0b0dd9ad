package core

import "math"

// Clamp returns value limited to [lo, hi]. Reversed bounds are swapped.
// NaN maps to lo so it can never leak into a filter coefficient.
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}

	switch {
	case math.IsNaN(value), value < lo:
		return lo
	case value > hi:
		return hi
	default:
		return value
	}
}

// ClampInt returns value limited to [lo, hi]. Reversed bounds are swapped.
func ClampInt(value, lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}

	return min(max(value, lo), hi)
}

// MillisecondsToSamples truncates a duration to whole samples. The rate is
// scaled first so every caller rounds the same way.
func MillisecondsToSamples(ms, sampleRate float64) int {
	return int(ms * (sampleRate / 1000))
}
