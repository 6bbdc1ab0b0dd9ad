package level

import "math"

// Level holds the amplitude statistics of one channel.
type Level struct {
	Samples int
	Peak    float64
	PeakPos int
	RMS     float64
	DC      float64
}

// PeakDB returns the peak in dBFS, -Inf for silence.
func (l Level) PeakDB() float64 { return ampToDB(l.Peak) }

// RMSDB returns the RMS level in dBFS, -Inf for silence.
func (l Level) RMSDB() float64 { return ampToDB(l.RMS) }

// CrestDB returns peak over RMS in dB, 0 for silence.
func (l Level) CrestDB() float64 {
	if l.RMS == 0 {
		return 0
	}

	return ampToDB(l.Peak / l.RMS)
}

// Stereo holds per-channel levels plus the correlation between channels.
type Stereo struct {
	Left, Right Level

	// Correlation is the zero-lag normalised cross-correlation in [-1, 1]:
	// 1 for identical channels, 0 for uncorrelated ones. It is 0 when either
	// channel is silent.
	Correlation float64
}

func ampToDB(a float64) float64 {
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}

// Measure computes the stereo statistics of a whole pair. Channels of
// different length are measured over the shorter one.
func Measure(left, right []float64) Stereo {
	var acc Accumulator
	acc.Update(left, right)

	return acc.Result()
}

// Accumulator collects stereo statistics over consecutive blocks. The zero
// value is ready to use.
type Accumulator struct {
	n          int
	sumL, sumR float64
	sqL, sqR   float64
	cross      float64
	peakL      float64
	peakR      float64
	posL, posR int
}

// Update adds the next block. Only min(len(left), len(right)) frames are
// consumed.
func (a *Accumulator) Update(left, right []float64) {
	n := min(len(left), len(right))

	for i := range n {
		l, r := left[i], right[i]

		a.sumL += l
		a.sumR += r
		a.sqL += l * l
		a.sqR += r * r
		a.cross += l * r

		if v := math.Abs(l); v > a.peakL {
			a.peakL, a.posL = v, a.n+i
		}

		if v := math.Abs(r); v > a.peakR {
			a.peakR, a.posR = v, a.n+i
		}
	}

	a.n += n
}

// Result returns the statistics of everything seen since the last Reset.
func (a *Accumulator) Result() Stereo {
	if a.n == 0 {
		return Stereo{}
	}

	nf := float64(a.n)
	s := Stereo{
		Left: Level{
			Samples: a.n,
			Peak:    a.peakL,
			PeakPos: a.posL,
			RMS:     math.Sqrt(a.sqL / nf),
			DC:      a.sumL / nf,
		},
		Right: Level{
			Samples: a.n,
			Peak:    a.peakR,
			PeakPos: a.posR,
			RMS:     math.Sqrt(a.sqR / nf),
			DC:      a.sumR / nf,
		},
	}

	if den := math.Sqrt(a.sqL * a.sqR); den > 0 {
		s.Correlation = math.Max(-1, math.Min(1, a.cross/den))
	}

	return s
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
