package reverb

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-plate/dsp/delay"
	"github.com/cwbudde/algo-plate/internal/assert"
)

// ErrInvalidSampleRate is returned by Prepare for a non-positive or
// non-finite sample rate.
var ErrInvalidSampleRate = errors.New("plate reverb: sample rate must be > 0")

// PlateReverb is a stereo Dattorro plate reverb.
//
// The network is a predelay, a one-pole bandwidth filter, four input
// allpass diffusers and a cross-coupled two-half tank whose delay and
// allpass lines are tapped fourteen times to build the stereo output.
//
// Parameter setters may be called from a control goroutine while another
// goroutine processes audio; every parameter is an atomic scalar read once
// per sample. Prepare, Reset and the Process methods must not run
// concurrently with each other.
type PlateReverb struct {
	params plateParams

	sampleRate float64
	prepared   bool

	samples     [NumPlateLengths]int
	predelayTap int
	tapsLeft    [plateTapsPerSide]plateTap
	tapsRight   [plateTapsPerSide]plateTap

	lines [numPlateLines]delay.Line
}

// NewPlateReverb returns an unprepared plate reverb with default parameters.
// Call Prepare before processing.
func NewPlateReverb() *PlateReverb {
	r := &PlateReverb{
		tapsLeft:  plateTapsLeft,
		tapsRight: plateTapsRight,
	}
	r.params.setDefaults()

	return r
}

// Prepare sizes every line for sampleRate and rebuilds the sample table and
// tap offsets from the millisecond constants. It allocates and clears all
// reverb state, so it belongs outside the audio callback. An invalid rate
// returns ErrInvalidSampleRate and leaves the reverb unchanged.
func (r *PlateReverb) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}

	for l := range NumPlateLengths {
		r.samples[l] = l.Samples(sampleRate)
	}

	r.predelayTap = r.samples[LengthPredelayTap]

	// Output taps read one sample further back than the table value.
	for i := range r.tapsLeft {
		r.tapsLeft[i].offset = r.samples[r.tapsLeft[i].length] + 1
	}

	for i := range r.tapsRight {
		r.tapsRight[i].offset = r.samples[r.tapsRight[i].length] + 1
	}

	for line := range numPlateLines {
		length := plateLineLengths[line]
		if length < 0 {
			r.lines[line].Prepare(onePoleCapacity)
			continue
		}

		r.lines[line].Prepare(r.samples[length])
	}

	r.sampleRate = sampleRate
	r.prepared = true

	return nil
}

// Reset clears all delay and filter state without reallocating.
func (r *PlateReverb) Reset() {
	for i := range r.lines {
		r.lines[i].Reset()
	}
}

// SampleRate returns the rate passed to the last successful Prepare, or 0.
func (r *PlateReverb) SampleRate() float64 { return r.sampleRate }

// Prepared reports whether Prepare has succeeded at least once.
func (r *PlateReverb) Prepared() bool { return r.prepared }

// LengthSamples returns the table entry resolved at the prepared rate.
func (r *PlateReverb) LengthSamples(l PlateLength) int {
	if l < 0 || l >= NumPlateLengths {
		return 0
	}

	return r.samples[l]
}

// ProcessSample advances the network by one stereo sample.
func (r *PlateReverb) ProcessSample(inL, inR float64) (float64, float64) {
	if !r.prepared {
		assert.Fail("plate reverb: ProcessSample before Prepare")
		return 0, 0
	}

	return r.tick(inL, inR)
}

// Process renders min(len) samples from the input pair into the output pair.
// Inputs and outputs may alias. All four slices are expected to share one
// length; before Prepare the outputs are silenced.
func (r *PlateReverb) Process(inL, inR, outL, outR []float64) {
	n := min(len(inL), len(inR), len(outL), len(outR))
	if n != len(inL) || n != len(inR) || n != len(outL) || n != len(outR) {
		assert.Fail("plate reverb: buffer lengths differ: %d %d %d %d", len(inL), len(inR), len(outL), len(outR))
	}

	if !r.prepared {
		assert.Fail("plate reverb: Process before Prepare")
		clear(outL[:n])
		clear(outR[:n])

		return
	}

	for i := range n {
		outL[i], outR[i] = r.tick(inL[i], inR[i])
	}
}

// ProcessInPlace applies the reverb to a stereo pair in place.
func (r *PlateReverb) ProcessInPlace(left, right []float64) {
	r.Process(left, right, left, right)
}

func (r *PlateReverb) tick(inL, inR float64) (float64, float64) {
	p := &r.params
	decay := p.decay.Load()
	decayDiffusion1 := p.decayDiffusion1.Load()
	decayDiffusion2 := p.decayDiffusion2.Load()
	inputDiffusion1 := p.inputDiffusion1.Load()
	inputDiffusion2 := p.inputDiffusion2.Load()
	bandwidth := p.bandwidth.Load()
	damping := p.damping.Load()
	mix := p.mix.Load()

	x := (inL + inR) * 0.5

	x = r.predelay(x, p.predelayTime.Load() != 0)

	x *= bandwidth
	x = onePole(x, 1-bandwidth, &r.lines[lineBandwidth])

	x = lattice(x, inputDiffusion1, &r.lines[lineInputDiffusion1A])
	x = lattice(x, inputDiffusion1, &r.lines[lineInputDiffusion1B])
	x = lattice(x, inputDiffusion2, &r.lines[lineInputDiffusion2A])
	x = lattice(x, inputDiffusion2, &r.lines[lineInputDiffusion2B])

	tankInput := x

	// Left half, fed back from the end of the right half.
	x += r.lines[lineDelayRight2].Read(0) * decay
	x = reverseLattice(x, decayDiffusion1, &r.lines[lineDecayDiffusion1L])
	x = pureDelay(x, &r.lines[lineDelayLeft1])
	x *= 1 - damping
	x = onePole(x, damping, &r.lines[lineDampingLeft])
	x *= decay
	x = lattice(x, decayDiffusion2, &r.lines[lineDecayDiffusion2L])
	x = pureDelay(x, &r.lines[lineDelayLeft2])
	x *= decay

	// Right half, fed by the left half. Its output gets no trailing decay
	// here; the left entrance applies it when reading delayRight2.
	x += tankInput
	x = reverseLattice(x, decayDiffusion1, &r.lines[lineDecayDiffusion1R])
	x = pureDelay(x, &r.lines[lineDelayRight1])
	x *= 1 - damping
	x = onePole(x, damping, &r.lines[lineDampingRight])
	x *= decay
	x = lattice(x, decayDiffusion2, &r.lines[lineDecayDiffusion2R])
	pureDelay(x, &r.lines[lineDelayRight2])

	var wetL, wetR float64
	for i := range r.tapsLeft {
		tap := &r.tapsLeft[i]
		wetL += tap.weight * r.lines[tap.line].Read(tap.offset)
	}

	for i := range r.tapsRight {
		tap := &r.tapsRight[i]
		wetR += tap.weight * r.lines[tap.line].Read(tap.offset)
	}

	return inL*(1-mix) + wetL*mix, inR*(1-mix) + wetR*mix
}

// predelay always feeds the line so its history stays current; the tap is
// only read when the stage is active.
func (r *PlateReverb) predelay(x float64, active bool) float64 {
	line := &r.lines[linePredelay]
	if !active {
		line.Push(x)
		return x
	}

	delayed := line.Read(r.predelayTap)
	line.Push(x)

	return delayed
}

// lattice is the forward allpass: the line holds v = x - y*k and the output
// is v*k + y.
func lattice(x, k float64, line *delay.Line) float64 {
	y := line.Read(0)
	v := x - y*k
	line.Push(v)

	return v*k + y
}

// reverseLattice is the sign-flipped allpass used at the tank entrances.
func reverseLattice(x, k float64, line *delay.Line) float64 {
	y := line.Read(0)
	v := x + y*k
	line.Push(v)

	return y - v*k
}

func onePole(x, k float64, line *delay.Line) float64 {
	y := line.Read(0)*k + x
	line.Push(y)

	return y
}

func pureDelay(x float64, line *delay.Line) float64 {
	y := line.Read(0)
	line.Push(x)

	return y
}
