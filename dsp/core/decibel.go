package core

import "math"

// DBToLinear converts a level in dB to an amplitude factor.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts an amplitude to dB: -Inf for 0, NaN below 0.
func LinearToDB(amplitude float64) float64 {
	switch {
	case amplitude < 0:
		return math.NaN()
	case amplitude == 0:
		return math.Inf(-1)
	default:
		return 20 * math.Log10(amplitude)
	}
}
