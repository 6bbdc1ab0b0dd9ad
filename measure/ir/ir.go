package ir

import (
	"errors"
	"math"
)

// Errors returned by IR analysis functions.
var (
	ErrEmptyIR           = errors.New("ir: impulse response is empty")
	ErrInvalidSampleRate = errors.New("ir: sample rate must be positive")
	ErrLengthMismatch    = errors.New("ir: channel lengths differ")
	ErrNoDecay           = errors.New("ir: insufficient decay for RT calculation")
)

// DefaultTailThresholdDB is the level, relative to the peak, used for
// Metrics.TailLength.
const DefaultTailThresholdDB = -60.0

// schroederFloorDB is reported where the remaining energy is exactly zero.
const schroederFloorDB = -200.0

// Metrics holds impulse response analysis results.
type Metrics struct {
	RT60       float64 // reverberation time in seconds (T30, else T20)
	EDT        float64 // early decay time in seconds (0 to -10 dB)
	T20        float64 // RT from -5 to -25 dB slope
	T30        float64 // RT from -5 to -35 dB slope
	C80        float64 // clarity at 80ms in dB
	D50        float64 // definition at 50ms (ratio 0-1)
	TailLength float64 // seconds from the peak until the envelope stays below DefaultTailThresholdDB
	PeakIndex  int     // sample index of the energy peak
	Peak       float64 // peak absolute amplitude over all channels
}

// Analyzer computes IR metrics from impulse response data.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates an IR analyzer with the given sample rate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// Analyze computes all metrics for a mono impulse response.
func (a *Analyzer) Analyze(ir []float64) (Metrics, error) {
	if len(ir) == 0 {
		return Metrics{}, ErrEmptyIR
	}

	return a.analyzeEnergy(energyOf(ir))
}

// AnalyzeStereo computes all metrics on the summed energy of a stereo pair.
func (a *Analyzer) AnalyzeStereo(left, right []float64) (Metrics, error) {
	if len(left) == 0 || len(right) == 0 {
		return Metrics{}, ErrEmptyIR
	}

	if len(left) != len(right) {
		return Metrics{}, ErrLengthMismatch
	}

	return a.analyzeEnergy(energyOf(left, right))
}

// RT60 returns T30 when the response decays past -35 dB, T20 otherwise.
func (a *Analyzer) RT60(ir []float64) (float64, error) {
	if len(ir) == 0 {
		return 0, ErrEmptyIR
	}

	if a.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	energy := energyOf(ir)
	curve := schroeder(energy[peakIndex(energy):])

	if rt := a.decayTime(curve, -5, -35); rt > 0 {
		return rt, nil
	}

	if rt := a.decayTime(curve, -5, -25); rt > 0 {
		return rt, nil
	}

	return 0, ErrNoDecay
}

// SchroederIntegral returns the backward-integrated energy decay of ir in dB,
// normalised to 0 dB at the first sample.
func (a *Analyzer) SchroederIntegral(ir []float64) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}

	return schroeder(energyOf(ir)), nil
}

// TailLength returns the time in seconds from the peak of ir to the last
// sample whose level is above thresholdDB relative to the peak.
func (a *Analyzer) TailLength(ir []float64, thresholdDB float64) (float64, error) {
	if len(ir) == 0 {
		return 0, ErrEmptyIR
	}

	if a.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	energy := energyOf(ir)

	return a.tailLength(energy, peakIndex(energy), thresholdDB), nil
}

func (a *Analyzer) analyzeEnergy(energy []float64) (Metrics, error) {
	if a.SampleRate <= 0 {
		return Metrics{}, ErrInvalidSampleRate
	}

	peak := peakIndex(energy)
	late := energy[peak:]
	curve := schroeder(late)

	m := Metrics{
		PeakIndex:  peak,
		Peak:       math.Sqrt(energy[peak]),
		EDT:        a.decayTime(curve, 0, -10),
		T20:        a.decayTime(curve, -5, -25),
		T30:        a.decayTime(curve, -5, -35),
		C80:        a.clarity(late, 80),
		D50:        a.definition(late, 50),
		TailLength: a.tailLength(energy, peak, DefaultTailThresholdDB),
	}

	if m.T30 > 0 {
		m.RT60 = m.T30
	} else {
		m.RT60 = m.T20
	}

	return m, nil
}

// energyOf returns the per-sample energy summed over channels. All channels
// must have the length of the first one.
func energyOf(channels ...[]float64) []float64 {
	energy := make([]float64, len(channels[0]))
	for _, ch := range channels {
		for i, v := range ch {
			energy[i] += v * v
		}
	}

	return energy
}

func peakIndex(energy []float64) int {
	idx := 0
	for i, e := range energy {
		if e > energy[idx] {
			idx = i
		}
	}

	return idx
}

// schroeder integrates energy backwards and converts the result to dB.
func schroeder(energy []float64) []float64 {
	curve := make([]float64, len(energy))

	var sum float64
	for i := len(energy) - 1; i >= 0; i-- {
		sum += energy[i]
		curve[i] = sum
	}

	total := curve[0]
	if total <= 0 {
		return curve
	}

	for i, v := range curve {
		if v <= 0 {
			curve[i] = schroederFloorDB
			continue
		}

		curve[i] = 10 * math.Log10(v/total)
	}

	return curve
}

// decayTime fits a line to curve between startDB and endDB and extrapolates
// the slope to a 60 dB decay. It returns 0 when the range is not reached.
func (a *Analyzer) decayTime(curve []float64, startDB, endDB float64) float64 {
	start, end := -1, -1

	for i, v := range curve {
		if start < 0 && v <= startDB {
			start = i
		}

		if start >= 0 && v <= endDB {
			end = i
			break
		}
	}

	if start < 0 || end <= start {
		return 0
	}

	var sumX, sumY, sumXX, sumXY float64

	for i := start; i <= end; i++ {
		x := float64(i - start)
		y := curve[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	n := float64(end - start + 1)

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	slope := (n*sumXY - sumX*sumY) / denom // dB per sample
	if slope >= 0 {
		return 0
	}

	return -60 / (slope * a.SampleRate)
}

func (a *Analyzer) boundary(timeMs float64) int {
	return int(math.Round(timeMs * 0.001 * a.SampleRate))
}

// clarity is 10*log10(early/late) around timeMs.
func (a *Analyzer) clarity(energy []float64, timeMs float64) float64 {
	b := a.boundary(timeMs)
	if b <= 0 {
		return math.Inf(-1)
	}

	if b >= len(energy) {
		return math.Inf(1)
	}

	early, late := sum(energy[:b]), sum(energy[b:])

	switch {
	case late <= 0:
		return math.Inf(1)
	case early <= 0:
		return math.Inf(-1)
	}

	return 10 * math.Log10(early/late)
}

// definition is the early share of the total energy at timeMs.
func (a *Analyzer) definition(energy []float64, timeMs float64) float64 {
	b := a.boundary(timeMs)
	if b <= 0 {
		return 0
	}

	if b >= len(energy) {
		return 1
	}

	total := sum(energy)
	if total <= 0 {
		return 0
	}

	return sum(energy[:b]) / total
}

func (a *Analyzer) tailLength(energy []float64, peak int, thresholdDB float64) float64 {
	threshold := energy[peak] * math.Pow(10, thresholdDB/10)

	last := peak
	for i := len(energy) - 1; i > peak; i-- {
		if energy[i] > threshold {
			last = i
			break
		}
	}

	return float64(last-peak) / a.SampleRate
}

func sum(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}

	return s
}
