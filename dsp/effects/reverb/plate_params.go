package reverb

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-plate/dsp/core"
)

const (
	defaultPlatePredelayMs       = 0
	defaultPlateDecay            = 0.5
	defaultPlateDecayDiffusion1  = 0.7
	defaultPlateDecayDiffusion2  = 0.5
	defaultPlateInputDiffusion1  = 0.75
	defaultPlateInputDiffusion2  = 0.625
	defaultPlateBandwidth        = 0.9995
	defaultPlateDamping          = 0.0005
	defaultPlateMix              = 0.5
	maxPlatePredelayMs           = 1000
	minPlateCoefficient          = 0.01
	maxPlateCoefficient          = 0.99
	minPlateBandwidth            = 0.0000001
	maxPlateFilterCoefficient    = 0.9999999
	minPlateDecayDiffusion2      = 0.25
	maxPlateDecayDiffusion2      = 0.5
	plateDecayDiffusion2Offset   = 0.15
	platePredelayParamID         = "predelay"
	plateDecayParamID            = "decay"
	plateDecayDiffusion1ParamID  = "decayDif1"
	plateInputDiffusion1ParamID  = "inputDif1"
	plateInputDiffusion2ParamID  = "inputDif2"
	plateBandwidthParamID        = "bandwidth"
	plateDampingParamID          = "damping"
	plateMixParamID              = "mix"
)

// atomicFloat is a float64 stored as its IEEE-754 bits so the audio thread
// can read a whole value without locking.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// plateParams is written by the control thread and read once per sample by
// the audio thread. decay and decayDiffusion2 are stored separately, so a
// reader racing SetDecay may pair a new decay with the previous diffusion.
type plateParams struct {
	predelayTime    atomic.Int64
	decay           atomicFloat
	decayDiffusion1 atomicFloat
	decayDiffusion2 atomicFloat
	inputDiffusion1 atomicFloat
	inputDiffusion2 atomicFloat
	bandwidth       atomicFloat
	damping         atomicFloat
	mix             atomicFloat
}

func (p *plateParams) setDefaults() {
	p.predelayTime.Store(defaultPlatePredelayMs)
	p.decay.Store(defaultPlateDecay)
	p.decayDiffusion1.Store(defaultPlateDecayDiffusion1)
	p.decayDiffusion2.Store(defaultPlateDecayDiffusion2)
	p.inputDiffusion1.Store(defaultPlateInputDiffusion1)
	p.inputDiffusion2.Store(defaultPlateInputDiffusion2)
	p.bandwidth.Store(defaultPlateBandwidth)
	p.damping.Store(defaultPlateDamping)
	p.mix.Store(defaultPlateMix)
}

// ParamInfo describes one host-facing plate parameter.
type ParamInfo struct {
	ID      string
	Name    string
	Min     float64
	Max     float64
	Default float64
	Integer bool
}

// PlateParams returns the host-facing parameter layout in display order.
//
// Ranges are the host control ranges; the engine clamps each value further
// to its own working range when it is applied.
func PlateParams() []ParamInfo {
	return []ParamInfo{
		{ID: platePredelayParamID, Name: "Predelay", Min: 0, Max: maxPlatePredelayMs, Default: defaultPlatePredelayMs, Integer: true},
		{ID: plateDecayParamID, Name: "Decay", Min: 0, Max: 1, Default: defaultPlateDecay},
		{ID: plateDecayDiffusion1ParamID, Name: "Decay Diffusion", Min: 0, Max: 1, Default: defaultPlateDecayDiffusion1},
		{ID: plateInputDiffusion1ParamID, Name: "Input Diffusion 1", Min: 0, Max: 1, Default: defaultPlateInputDiffusion1},
		{ID: plateInputDiffusion2ParamID, Name: "Input Diffusion 2", Min: 0, Max: 1, Default: defaultPlateInputDiffusion2},
		{ID: plateBandwidthParamID, Name: "Bandwidth", Min: 0, Max: 1, Default: defaultPlateBandwidth},
		{ID: plateDampingParamID, Name: "Damping", Min: 0, Max: 1, Default: defaultPlateDamping},
		{ID: plateMixParamID, Name: "Mix", Min: 0, Max: 1, Default: defaultPlateMix},
	}
}

// SetParam applies a plain parameter value by id. It reports false for an
// unknown id.
func (r *PlateReverb) SetParam(id string, value float64) bool {
	switch id {
	case platePredelayParamID:
		if math.IsNaN(value) {
			value = 0
		}
		r.SetPredelayTime(int(core.Clamp(value, math.MinInt32, math.MaxInt32)))
	case plateDecayParamID:
		r.SetDecay(value)
	case plateDecayDiffusion1ParamID:
		r.SetDecayDiffusion1(value)
	case plateInputDiffusion1ParamID:
		r.SetInputDiffusion1(value)
	case plateInputDiffusion2ParamID:
		r.SetInputDiffusion2(value)
	case plateBandwidthParamID:
		r.SetBandwidth(value)
	case plateDampingParamID:
		r.SetDamping(value)
	case plateMixParamID:
		r.SetMix(value)
	default:
		return false
	}

	return true
}

// SetPredelayTime sets the predelay time in milliseconds, clamped to
// [0, 1000]. Zero bypasses the predelay stage. The read offset itself is
// fixed by Prepare and does not follow this value.
func (r *PlateReverb) SetPredelayTime(ms int) {
	r.params.predelayTime.Store(int64(core.ClampInt(ms, 0, maxPlatePredelayMs)))
}

// SetDecay sets the tank feedback gain, clamped to [0.01, 0.99]. It also
// derives the second decay diffusion as clamp(decay+0.15, 0.25, 0.5).
func (r *PlateReverb) SetDecay(v float64) {
	decay := core.Clamp(v, minPlateCoefficient, maxPlateCoefficient)
	r.params.decay.Store(decay)
	r.params.decayDiffusion2.Store(core.Clamp(decay+plateDecayDiffusion2Offset, minPlateDecayDiffusion2, maxPlateDecayDiffusion2))
}

// SetDecayDiffusion1 sets the tank entrance allpass coefficient, clamped to
// [0.01, 0.99].
func (r *PlateReverb) SetDecayDiffusion1(v float64) {
	r.params.decayDiffusion1.Store(core.Clamp(v, minPlateCoefficient, maxPlateCoefficient))
}

// SetInputDiffusion1 sets the first input diffuser coefficient, clamped to
// [0.01, 0.99].
func (r *PlateReverb) SetInputDiffusion1(v float64) {
	r.params.inputDiffusion1.Store(core.Clamp(v, minPlateCoefficient, maxPlateCoefficient))
}

// SetInputDiffusion2 sets the second input diffuser coefficient, clamped to
// [0.01, 0.99].
func (r *PlateReverb) SetInputDiffusion2(v float64) {
	r.params.inputDiffusion2.Store(core.Clamp(v, minPlateCoefficient, maxPlateCoefficient))
}

// SetBandwidth sets the input low-pass coefficient, clamped to
// [1e-7, 0.9999999].
func (r *PlateReverb) SetBandwidth(v float64) {
	r.params.bandwidth.Store(core.Clamp(v, minPlateBandwidth, maxPlateFilterCoefficient))
}

// SetDamping sets the tank low-pass coefficient, clamped to [0, 0.9999999].
func (r *PlateReverb) SetDamping(v float64) {
	r.params.damping.Store(core.Clamp(v, 0, maxPlateFilterCoefficient))
}

// SetMix sets the dry/wet blend, clamped to [0, 1].
func (r *PlateReverb) SetMix(v float64) {
	r.params.mix.Store(core.Clamp(v, 0, 1))
}

// PredelayTime returns the predelay time in milliseconds.
func (r *PlateReverb) PredelayTime() int { return int(r.params.predelayTime.Load()) }

// Decay returns the tank feedback gain.
func (r *PlateReverb) Decay() float64 { return r.params.decay.Load() }

// DecayDiffusion1 returns the tank entrance allpass coefficient.
func (r *PlateReverb) DecayDiffusion1() float64 { return r.params.decayDiffusion1.Load() }

// DecayDiffusion2 returns the tank allpass coefficient derived from decay.
func (r *PlateReverb) DecayDiffusion2() float64 { return r.params.decayDiffusion2.Load() }

// InputDiffusion1 returns the first input diffuser coefficient.
func (r *PlateReverb) InputDiffusion1() float64 { return r.params.inputDiffusion1.Load() }

// InputDiffusion2 returns the second input diffuser coefficient.
func (r *PlateReverb) InputDiffusion2() float64 { return r.params.inputDiffusion2.Load() }

// Bandwidth returns the input low-pass coefficient.
func (r *PlateReverb) Bandwidth() float64 { return r.params.bandwidth.Load() }

// Damping returns the tank low-pass coefficient.
func (r *PlateReverb) Damping() float64 { return r.params.damping.Load() }

// Mix returns the dry/wet blend.
func (r *PlateReverb) Mix() float64 { return r.params.mix.Load() }
