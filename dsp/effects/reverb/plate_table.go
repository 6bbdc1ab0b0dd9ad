package reverb

import "github.com/cwbudde/algo-plate/dsp/core"

// PlateLength names one entry of the plate's delay length table.
type PlateLength int

// Line capacities, tank taps and the predelay tap, in table order.
const (
	LengthPredelay PlateLength = iota
	LengthPredelayTap

	LengthDelayLeft1
	LengthDelayLeft2
	LengthDelayRight1
	LengthDelayRight2

	LengthInputDiffusion1A
	LengthInputDiffusion1B
	LengthInputDiffusion2A
	LengthInputDiffusion2B

	LengthDecayDiffusion1L
	LengthDecayDiffusion2L
	LengthDecayDiffusion1R
	LengthDecayDiffusion2R

	LengthDelayRight1TapLeft1
	LengthDelayRight1TapLeft2
	LengthDecayDiffusion2RTapLeft
	LengthDelayRight2TapLeft
	LengthDelayLeft1TapLeft
	LengthDecayDiffusion2LTapLeft
	LengthDelayLeft2TapLeft

	LengthDelayLeft1TapRight1
	LengthDelayLeft1TapRight2
	LengthDecayDiffusion2LTapRight
	LengthDelayLeft2TapRight
	LengthDelayRight1TapRight
	LengthDecayDiffusion2RTapRight
	LengthDelayRight2TapRight

	NumPlateLengths
)

// Dattorro plate constants in milliseconds. The predelay tap stays at 0 ms;
// SetPredelayTime only switches the predelay stage on and off.
var plateLengthsMs = [NumPlateLengths]float64{
	LengthPredelay:    1000,
	LengthPredelayTap: 0,

	LengthDelayLeft1:  149.62534,
	LengthDelayLeft2:  124.99579,
	LengthDelayRight1: 141.69550,
	LengthDelayRight2: 106.28003,

	LengthInputDiffusion1A: 4.77134,
	LengthInputDiffusion1B: 3.59530,
	LengthInputDiffusion2A: 12.7348,
	LengthInputDiffusion2B: 9.30748,

	LengthDecayDiffusion1L: 22.57988,
	LengthDecayDiffusion2L: 60.48183,
	LengthDecayDiffusion1R: 30.50972,
	LengthDecayDiffusion2R: 89.24431,

	LengthDelayRight1TapLeft1:     8.93787,
	LengthDelayRight1TapLeft2:     99.92943,
	LengthDecayDiffusion2RTapLeft: 64.27875,
	LengthDelayRight2TapLeft:      67.06763,
	LengthDelayLeft1TapLeft:       66.86603,
	LengthDecayDiffusion2LTapLeft: 6.28339,
	LengthDelayLeft2TapLeft:       35.81868,

	LengthDelayLeft1TapRight1:      11.86116,
	LengthDelayLeft1TapRight2:      121.87090,
	LengthDecayDiffusion2LTapRight: 41.26205,
	LengthDelayLeft2TapRight:       89.81553,
	LengthDelayRight1TapRight:      70.93175,
	LengthDecayDiffusion2RTapRight: 11.25634,
	LengthDelayRight2TapRight:      4.06572,
}

var plateLengthNames = [NumPlateLengths]string{
	LengthPredelay:    "predelay",
	LengthPredelayTap: "predelayTap",

	LengthDelayLeft1:  "delayLeft1",
	LengthDelayLeft2:  "delayLeft2",
	LengthDelayRight1: "delayRight1",
	LengthDelayRight2: "delayRight2",

	LengthInputDiffusion1A: "inputDiffusion1A",
	LengthInputDiffusion1B: "inputDiffusion1B",
	LengthInputDiffusion2A: "inputDiffusion2A",
	LengthInputDiffusion2B: "inputDiffusion2B",

	LengthDecayDiffusion1L: "decayDiffusion1L",
	LengthDecayDiffusion2L: "decayDiffusion2L",
	LengthDecayDiffusion1R: "decayDiffusion1R",
	LengthDecayDiffusion2R: "decayDiffusion2R",

	LengthDelayRight1TapLeft1:     "delayRight1_TapLeft1",
	LengthDelayRight1TapLeft2:     "delayRight1_TapLeft2",
	LengthDecayDiffusion2RTapLeft: "decayDiffusion2R_TapLeft",
	LengthDelayRight2TapLeft:      "delayRight2_TapLeft",
	LengthDelayLeft1TapLeft:       "delayLeft1_TapLeft",
	LengthDecayDiffusion2LTapLeft: "decayDiffusion2L_TapLeft",
	LengthDelayLeft2TapLeft:       "delayLeft2_TapLeft",

	LengthDelayLeft1TapRight1:      "delayLeft1_TapRight1",
	LengthDelayLeft1TapRight2:      "delayLeft1_TapRight2",
	LengthDecayDiffusion2LTapRight: "decayDiffusion2L_TapRight",
	LengthDelayLeft2TapRight:       "delayLeft2_TapRight",
	LengthDelayRight1TapRight:      "delayRight1_TapRight",
	LengthDecayDiffusion2RTapRight: "decayDiffusion2R_TapRight",
	LengthDelayRight2TapRight:      "delayRight2_TapRight",
}

// String returns the symbolic table name.
func (l PlateLength) String() string {
	if l < 0 || l >= NumPlateLengths {
		return "unknown"
	}

	return plateLengthNames[l]
}

// Milliseconds returns the constant table duration.
func (l PlateLength) Milliseconds() float64 {
	if l < 0 || l >= NumPlateLengths {
		return 0
	}

	return plateLengthsMs[l]
}

// Samples converts the table duration to a truncated sample count.
func (l PlateLength) Samples(sampleRate float64) int {
	return core.MillisecondsToSamples(l.Milliseconds(), sampleRate)
}

// plateLine indexes the fifteen delay lines owned by PlateReverb.
type plateLine int

const (
	linePredelay plateLine = iota

	lineInputDiffusion1A
	lineInputDiffusion1B
	lineInputDiffusion2A
	lineInputDiffusion2B

	lineDelayLeft1
	lineDelayLeft2
	lineDelayRight1
	lineDelayRight2

	lineDecayDiffusion1L
	lineDecayDiffusion2L
	lineDecayDiffusion1R
	lineDecayDiffusion2R

	lineBandwidth
	lineDampingLeft
	lineDampingRight

	numPlateLines
)

// onePoleCapacity sizes the filter-state lines. Only Read(0) is used on them.
const onePoleCapacity = 2

// plateLineLengths maps each sized line to its table entry. The one-pole
// lines have no entry and use onePoleCapacity.
var plateLineLengths = [numPlateLines]PlateLength{
	linePredelay: LengthPredelay,

	lineInputDiffusion1A: LengthInputDiffusion1A,
	lineInputDiffusion1B: LengthInputDiffusion1B,
	lineInputDiffusion2A: LengthInputDiffusion2A,
	lineInputDiffusion2B: LengthInputDiffusion2B,

	lineDelayLeft1:  LengthDelayLeft1,
	lineDelayLeft2:  LengthDelayLeft2,
	lineDelayRight1: LengthDelayRight1,
	lineDelayRight2: LengthDelayRight2,

	lineDecayDiffusion1L: LengthDecayDiffusion1L,
	lineDecayDiffusion2L: LengthDecayDiffusion2L,
	lineDecayDiffusion1R: LengthDecayDiffusion1R,
	lineDecayDiffusion2R: LengthDecayDiffusion2R,

	lineBandwidth:    -1,
	lineDampingLeft:  -1,
	lineDampingRight: -1,
}

const (
	plateTapsPerSide = 7
	plateTapWeight   = 0.6
)

// plateTap is one output read. offset is resolved at Prepare time.
type plateTap struct {
	line   plateLine
	length PlateLength
	weight float64
	offset int
}

var plateTapsLeft = [plateTapsPerSide]plateTap{
	{line: lineDelayRight1, length: LengthDelayRight1TapLeft1, weight: plateTapWeight},
	{line: lineDelayRight1, length: LengthDelayRight1TapLeft2, weight: plateTapWeight},
	{line: lineDecayDiffusion2R, length: LengthDecayDiffusion2RTapLeft, weight: -plateTapWeight},
	{line: lineDelayRight2, length: LengthDelayRight2TapLeft, weight: plateTapWeight},
	{line: lineDelayLeft1, length: LengthDelayLeft1TapLeft, weight: -plateTapWeight},
	{line: lineDecayDiffusion2L, length: LengthDecayDiffusion2LTapLeft, weight: -plateTapWeight},
	{line: lineDelayLeft2, length: LengthDelayLeft2TapLeft, weight: -plateTapWeight},
}

var plateTapsRight = [plateTapsPerSide]plateTap{
	{line: lineDelayLeft1, length: LengthDelayLeft1TapRight1, weight: plateTapWeight},
	{line: lineDelayLeft1, length: LengthDelayLeft1TapRight2, weight: plateTapWeight},
	{line: lineDecayDiffusion2L, length: LengthDecayDiffusion2LTapRight, weight: -plateTapWeight},
	{line: lineDelayLeft2, length: LengthDelayLeft2TapRight, weight: plateTapWeight},
	{line: lineDelayRight1, length: LengthDelayRight1TapRight, weight: -plateTapWeight},
	{line: lineDecayDiffusion2R, length: LengthDecayDiffusion2RTapRight, weight: -plateTapWeight},
	{line: lineDelayRight2, length: LengthDelayRight2TapRight, weight: -plateTapWeight},
}
