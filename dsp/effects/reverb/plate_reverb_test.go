package reverb

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-plate/dsp/delay"
	"github.com/cwbudde/algo-plate/internal/testutil"
	"github.com/cwbudde/algo-plate/measure/ir"
)

func newPreparedPlate(t testing.TB, sampleRate float64) *PlateReverb {
	t.Helper()

	r := NewPlateReverb()
	if err := r.Prepare(sampleRate); err != nil {
		t.Fatalf("Prepare(%v): %v", sampleRate, err)
	}

	return r
}

// renderImpulse feeds a stereo unit impulse followed by silence.
func renderImpulse(r *PlateReverb, length int) (left, right []float64) {
	left, right = testutil.StereoImpulse(length, 0)
	r.ProcessInPlace(left, right)

	return left, right
}

func TestNewPlateReverbDefaults(t *testing.T) {
	r := NewPlateReverb()

	if r.Prepared() {
		t.Fatal("new reverb reports prepared")
	}

	if r.SampleRate() != 0 {
		t.Fatalf("SampleRate = %v, want 0", r.SampleRate())
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"PredelayTime", float64(r.PredelayTime()), 0},
		{"Decay", r.Decay(), 0.5},
		{"DecayDiffusion1", r.DecayDiffusion1(), 0.7},
		{"DecayDiffusion2", r.DecayDiffusion2(), 0.5},
		{"InputDiffusion1", r.InputDiffusion1(), 0.75},
		{"InputDiffusion2", r.InputDiffusion2(), 0.625},
		{"Bandwidth", r.Bandwidth(), 0.9995},
		{"Damping", r.Damping(), 0.0005},
		{"Mix", r.Mix(), 0.5},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestPrepareRejectsInvalidSampleRate(t *testing.T) {
	r := NewPlateReverb()

	for _, rate := range []float64{0, -44100, math.NaN(), math.Inf(1)} {
		if err := r.Prepare(rate); !errors.Is(err, ErrInvalidSampleRate) {
			t.Fatalf("Prepare(%v) err = %v, want ErrInvalidSampleRate", rate, err)
		}
	}

	if r.Prepared() {
		t.Fatal("failed Prepare marked the reverb prepared")
	}

	if err := r.Prepare(48000); err != nil {
		t.Fatal(err)
	}

	capacity := r.lines[lineDelayLeft1].Len()

	if err := r.Prepare(-1); err == nil {
		t.Fatal("expected error")
	}

	if r.SampleRate() != 48000 || r.lines[lineDelayLeft1].Len() != capacity {
		t.Fatal("failed Prepare changed the prepared state")
	}
}

func TestPrepareSizesEveryLine(t *testing.T) {
	for _, rate := range []float64{22050, 44100, 48000, 96000} {
		r := newPreparedPlate(t, rate)

		for line := range numPlateLines {
			want := onePoleCapacity
			if length := plateLineLengths[line]; length >= 0 {
				want = int(plateLengthsMs[length] * (rate / 1000))
			}

			if got := r.lines[line].Len(); got != want {
				t.Errorf("rate %v line %d: capacity %d, want %d", rate, line, got, want)
			}
		}
	}
}

func TestPrepareKnownCapacities(t *testing.T) {
	tests := []struct {
		rate  float64
		line  plateLine
		want  int
		label string
	}{
		{48000, linePredelay, 48000, "predelay"},
		{48000, lineDelayLeft1, 7182, "delayLeft1"},
		{48000, lineInputDiffusion1A, 229, "inputDiffusion1A"},
		{44100, lineDelayLeft1, 6598, "delayLeft1"},
		{44100, lineInputDiffusion1A, 210, "inputDiffusion1A"},
		{96000, lineDecayDiffusion2R, 8567, "decayDiffusion2R"},
		{96000, lineBandwidth, 2, "bandwidth"},
	}

	for _, tt := range tests {
		r := newPreparedPlate(t, tt.rate)
		if got := r.lines[tt.line].Len(); got != tt.want {
			t.Errorf("%s @ %v: capacity %d, want %d", tt.label, tt.rate, got, tt.want)
		}
	}
}

func TestPrepareCachesTapOffsets(t *testing.T) {
	r := newPreparedPlate(t, 48000)

	if r.predelayTap != 0 {
		t.Fatalf("predelayTap = %d, want 0", r.predelayTap)
	}

	for _, taps := range [][plateTapsPerSide]plateTap{r.tapsLeft, r.tapsRight} {
		for _, tap := range taps {
			want := int(plateLengthsMs[tap.length]*48) + 1
			if tap.offset != want {
				t.Errorf("%v: offset %d, want %d", tap.length, tap.offset, want)
			}

			if tap.offset >= r.lines[tap.line].Len() {
				t.Errorf("%v: offset %d outside line capacity %d", tap.length, tap.offset, r.lines[tap.line].Len())
			}

			if math.Abs(tap.weight) != 0.6 {
				t.Errorf("%v: weight %v, want magnitude 0.6", tap.length, tap.weight)
			}
		}
	}
}

func TestPrepareTwiceRebuildsEverything(t *testing.T) {
	r := newPreparedPlate(t, 96000)
	renderImpulse(r, 1024)

	if err := r.Prepare(44100); err != nil {
		t.Fatal(err)
	}

	fresh := newPreparedPlate(t, 44100)

	if r.samples != fresh.samples {
		t.Fatal("sample table not rebuilt")
	}

	if r.tapsLeft != fresh.tapsLeft || r.tapsRight != fresh.tapsRight {
		t.Fatal("tap offsets not rebuilt")
	}

	for line := range numPlateLines {
		if r.lines[line].Len() != fresh.lines[line].Len() {
			t.Fatalf("line %d: capacity %d, want %d", line, r.lines[line].Len(), fresh.lines[line].Len())
		}
	}

	for l := range NumPlateLengths {
		if got, want := r.LengthSamples(l), int(l.Milliseconds()*44.1); got != want {
			t.Fatalf("%v: %d samples, want %d", l, got, want)
		}
	}

	// Prepare clears state too: both reverbs must now render identically.
	gotL, gotR := renderImpulse(r, 4096)
	wantL, wantR := renderImpulse(fresh, 4096)
	testutil.RequireSliceEqual(t, gotL, wantL)
	testutil.RequireSliceEqual(t, gotR, wantR)
}

func TestMixZeroIsDryBypass(t *testing.T) {
	r := newPreparedPlate(t, 48000)
	r.SetMix(1)

	warmL := testutil.DeterministicNoise(1, 0.8, 24000)
	warmR := testutil.DeterministicNoise(2, 0.8, 24000)
	r.ProcessInPlace(warmL, warmR)

	r.SetMix(0)

	inL := testutil.DeterministicNoise(3, 0.8, 4800)
	inR := testutil.DeterministicNoise(4, 0.8, 4800)
	outL := make([]float64, len(inL))
	outR := make([]float64, len(inR))
	r.Process(inL, inR, outL, outR)

	testutil.RequireSliceEqual(t, outL, inL)
	testutil.RequireSliceEqual(t, outR, inR)
}

func TestPredelayZeroPassesThrough(t *testing.T) {
	r := newPreparedPlate(t, 8000)
	in := testutil.DeterministicNoise(5, 1, 10000)

	for i, x := range in {
		if got := r.predelay(x, false); got != x {
			t.Fatalf("sample %d: predelay stage changed %v to %v", i, x, got)
		}
	}
}

func TestPredelayActiveUsesFrozenTap(t *testing.T) {
	const rate = 1000

	r := newPreparedPlate(t, rate)
	capacity := r.lines[linePredelay].Len()

	if capacity != rate {
		t.Fatalf("predelay capacity = %d, want %d", capacity, rate)
	}

	in := testutil.DeterministicNoise(6, 1, 3*capacity)
	for i, x := range in {
		want := 0.0
		if i >= capacity {
			want = in[i-capacity]
		}

		if got := r.predelay(x, true); got != want {
			t.Fatalf("sample %d: got %v want %v", i, got, want)
		}
	}
}

func TestPredelayTimeOnlyTogglesStage(t *testing.T) {
	render := func(ms int) []float64 {
		r := newPreparedPlate(t, 8000)
		r.SetMix(1)
		r.SetPredelayTime(ms)
		left, _ := renderImpulse(r, 20000)

		return left
	}

	short := render(10)
	long := render(900)
	testutil.RequireSliceEqual(t, short, long)

	// The inactive stage lets the impulse through a second earlier.
	off := render(0)

	d, err := testutil.MaxAbsDiff(off, short)
	if err != nil {
		t.Fatal(err)
	}

	if d == 0 {
		t.Fatal("predelay on/off produced identical output")
	}
}

func TestSilenceDecays(t *testing.T) {
	const rate = 48000

	const seconds = 10

	for _, decay := range []float64{0.1, 0.5, 0.7} {
		r := newPreparedPlate(t, rate)
		r.SetDecay(decay)
		r.SetMix(1)

		left, right := renderImpulse(r, seconds*rate)
		testutil.RequireFinite(t, left)
		testutil.RequireFinite(t, right)

		if testutil.MaxAbs(left) == 0 {
			t.Fatalf("decay %v: no reverb output at all", decay)
		}

		tailStart := len(left) - rate/4
		peak := math.Max(testutil.MaxAbs(left[tailStart:]), testutil.MaxAbs(right[tailStart:]))

		if peak > 1e-6 {
			t.Errorf("decay %v: tail peak %g after %ds, want < 1e-6", decay, peak, seconds)
		}
	}
}

func TestStabilityAtExtremes(t *testing.T) {
	seconds := 10.0
	if testing.Short() {
		seconds = 1
	}

	for _, rate := range []float64{44100, 48000, 96000} {
		for _, decay := range []float64{0.01, 0.99} {
			for _, diffusion := range []float64{0.01, 0.99} {
				r := newPreparedPlate(t, rate)
				r.SetDecay(decay)
				r.SetDecayDiffusion1(diffusion)
				r.SetInputDiffusion1(diffusion)
				r.SetInputDiffusion2(diffusion)
				r.SetDamping(0)
				r.SetMix(1)

				left, right := renderImpulse(r, int(seconds*rate))

				for _, ch := range [][]float64{left, right} {
					testutil.RequireFinite(t, ch)

					peak := testutil.MaxAbs(ch)
					if math.IsNaN(peak) || peak > 100 {
						t.Fatalf("rate %v decay %v diffusion %v: peak %v", rate, decay, diffusion, peak)
					}
				}
			}
		}
	}
}

func TestDecayLengthensTail(t *testing.T) {
	const rate = 16000

	rt60 := func(decay float64) float64 {
		r := newPreparedPlate(t, rate)
		r.SetDecay(decay)
		r.SetMix(1)

		left, right := renderImpulse(r, 12*rate)

		m, err := ir.NewAnalyzer(rate).AnalyzeStereo(left, right)
		if err != nil {
			t.Fatal(err)
		}

		return m.RT60
	}

	short := rt60(0.5)
	long := rt60(0.8)

	if short <= 0 {
		t.Fatalf("RT60(decay=0.5) = %v, want > 0", short)
	}

	if long <= short {
		t.Fatalf("RT60(decay=0.8) = %v, not longer than RT60(decay=0.5) = %v", long, short)
	}
}

func TestOutputIsStereo(t *testing.T) {
	r := newPreparedPlate(t, 48000)
	r.SetMix(1)

	left, right := renderImpulse(r, 48000)

	d, err := testutil.MaxAbsDiff(left, right)
	if err != nil {
		t.Fatal(err)
	}

	if d == 0 {
		t.Fatal("left and right wet outputs are identical")
	}
}

func TestProcessMatchesProcessSample(t *testing.T) {
	inL := testutil.DeterministicNoise(7, 0.5, 9000)
	inR := testutil.DeterministicSine(440, 48000, 0.5, 9000)

	block := newPreparedPlate(t, 48000)
	outL := make([]float64, len(inL))
	outR := make([]float64, len(inR))

	for start := 0; start < len(inL); start += 512 {
		end := min(start+512, len(inL))
		block.Process(inL[start:end], inR[start:end], outL[start:end], outR[start:end])
	}

	single := newPreparedPlate(t, 48000)
	for i := range inL {
		l, r := single.ProcessSample(inL[i], inR[i])
		if l != outL[i] || r != outR[i] {
			t.Fatalf("sample %d: ProcessSample (%v, %v) != Process (%v, %v)", i, l, r, outL[i], outR[i])
		}
	}

	inPlace := newPreparedPlate(t, 48000)
	left, right := testutil.Clone(inL), testutil.Clone(inR)
	inPlace.ProcessInPlace(left, right)
	testutil.RequireSliceEqual(t, left, outL)
	testutil.RequireSliceEqual(t, right, outR)
}

func TestResetClearsTail(t *testing.T) {
	r := newPreparedPlate(t, 48000)
	r.SetMix(1)
	renderImpulse(r, 4800)

	r.Reset()

	left := make([]float64, 48000)
	right := make([]float64, 48000)
	r.ProcessInPlace(left, right)

	if testutil.MaxAbs(left) != 0 || testutil.MaxAbs(right) != 0 {
		t.Fatal("Reset left energy in the tank")
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	r := newPreparedPlate(t, 48000)
	inL := testutil.DeterministicNoise(8, 0.5, 256)
	inR := testutil.DeterministicNoise(9, 0.5, 256)
	outL := make([]float64, 256)
	outR := make([]float64, 256)

	allocs := testing.AllocsPerRun(50, func() {
		r.Process(inL, inR, outL, outR)
	})
	if allocs != 0 {
		t.Fatalf("allocs per Process = %v, want 0", allocs)
	}
}

func TestConcurrentParameterUpdates(t *testing.T) {
	r := newPreparedPlate(t, 48000)
	inL := testutil.DeterministicNoise(10, 0.5, 256)
	inR := testutil.DeterministicNoise(11, 0.5, 256)
	left := make([]float64, len(inL))
	right := make([]float64, len(inR))

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := range 2000 {
			v := float64(i%100) / 100
			r.SetDecay(v)
			r.SetDamping(v)
			r.SetMix(v)
			r.SetPredelayTime(i % 2)
		}
	}()

	for range 200 {
		r.Process(inL, inR, left, right)
		testutil.RequireFinite(t, left)
		testutil.RequireFinite(t, right)
	}

	wg.Wait()
}

func TestAllpassHelpersAreUnityGainAtDC(t *testing.T) {
	// With a single-sample line both lattices settle to the input level.
	for _, k := range []float64{0.01, 0.5, 0.99} {
		var fwd, rev, pole delay.Line
		fwd.Prepare(1)
		rev.Prepare(1)
		pole.Prepare(2)

		var yf, yr, yp float64
		for range 5000 {
			yf = lattice(1, k, &fwd)
			yr = reverseLattice(1, k, &rev)
			yp = onePole(1-k, k, &pole)
		}

		if math.Abs(yf-1) > 1e-9 || math.Abs(yr-1) > 1e-9 || math.Abs(yp-1) > 1e-9 {
			t.Fatalf("k=%v: DC gains lattice=%v reverse=%v onepole=%v", k, yf, yr, yp)
		}
	}
}

func TestPureDelay(t *testing.T) {
	var line delay.Line
	line.Prepare(3)

	in := []float64{1, 2, 3, 4, 5, 6}
	want := []float64{0, 0, 0, 1, 2, 3}

	for i, x := range in {
		if got := pureDelay(x, &line); got != want[i] {
			t.Fatalf("step %d: got %v want %v", i, got, want[i])
		}
	}
}

func BenchmarkPlateReverbProcess(b *testing.B) {
	r := newPreparedPlate(b, 48000)
	inL := testutil.DeterministicNoise(12, 0.5, 512)
	inR := testutil.DeterministicNoise(13, 0.5, 512)
	outL := make([]float64, len(inL))
	outR := make([]float64, len(inR))

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		r.Process(inL, inR, outL, outR)
	}
}
