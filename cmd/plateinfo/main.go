// Command plateinfo renders the impulse response of the plate reverb and
// prints its delay table and decay measurements.
//
// Usage:
//
//	plateinfo [flags]
//
// Every reverb parameter is a flag named after its parameter id. The
// response is rendered block by block through PlateReverb.Process.
//
// Examples:
//
//	plateinfo
//	plateinfo -table -rate 44100
//	plateinfo -decay 0.8 -damping 0.2 -seconds 12
//	plateinfo -mix 1 -wav plate.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-plate/dsp/core"
	"github.com/cwbudde/algo-plate/dsp/effects/reverb"
	"github.com/cwbudde/algo-plate/dsp/spectrum"
	"github.com/cwbudde/algo-plate/measure/ir"
	"github.com/cwbudde/algo-plate/measure/level"
	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 24
	wavPeak     = 0.99
)

type options struct {
	cfg     core.ProcessorConfig
	seconds float64
	fftSize int
	table   bool
	wavPath string
	params  map[string]*float64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	if opts.table {
		printTable(stdout, opts.cfg.SampleRate)
		return 0
	}

	r := reverb.NewPlateReverb()
	if err := r.Prepare(opts.cfg.SampleRate); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	for _, p := range reverb.PlateParams() {
		r.SetParam(p.ID, *opts.params[p.ID])
	}

	left, right := renderImpulse(r, opts.cfg, opts.cfg.SamplesFor(opts.seconds))

	if err := printAnalysis(stdout, left, right, opts); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if opts.wavPath != "" {
		if err := writeWAV(opts.wavPath, left, right, int(opts.cfg.SampleRate)); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}

		fmt.Fprintf(stdout, "wrote %s\n", opts.wavPath)
	}

	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("plateinfo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	rate := fs.Float64("rate", core.DefaultProcessorConfig().SampleRate, "sample rate in Hz")
	block := fs.Int("block", core.DefaultProcessorConfig().BlockSize, "processing block size in samples")
	seconds := fs.Float64("seconds", 8, "impulse response length in seconds")
	fftSize := fs.Int("fft", 65536, "FFT size for the spectral flatness measurement (power of two)")
	table := fs.Bool("table", false, "print the delay table resolved at -rate and exit")
	wavPath := fs.String("wav", "", "write the stereo impulse response to this 24-bit WAV file")

	params := make(map[string]*float64)
	for _, p := range reverb.PlateParams() {
		params[p.ID] = fs.Float64(p.ID, p.Default, fmt.Sprintf("%s [%g, %g]", p.Name, p.Min, p.Max))
	}

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: plateinfo [flags]\n\n")
		fmt.Fprintf(stderr, "Renders the plate reverb impulse response and prints decay measurements.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  plateinfo -table -rate 44100\n")
		fmt.Fprintf(stderr, "  plateinfo -decay 0.8 -seconds 12\n")
		fmt.Fprintf(stderr, "  plateinfo -mix 1 -wav plate.wav\n")
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if *seconds <= 0 || math.IsNaN(*seconds) || math.IsInf(*seconds, 0) {
		return options{}, fmt.Errorf("-seconds must be > 0: %v", *seconds)
	}

	if *block <= 0 {
		return options{}, fmt.Errorf("-block must be > 0: %d", *block)
	}

	if *rate <= 0 || math.IsNaN(*rate) || math.IsInf(*rate, 0) {
		return options{}, fmt.Errorf("-rate must be > 0: %v", *rate)
	}

	return options{
		cfg:     core.ApplyProcessorOptions(core.WithSampleRate(*rate), core.WithBlockSize(*block)),
		seconds: *seconds,
		fftSize: *fftSize,
		table:   *table,
		wavPath: *wavPath,
		params:  params,
	}, nil
}

func printTable(w io.Writer, sampleRate float64) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Entry\tms\tsamples @ %g\t\n", sampleRate)
	fmt.Fprintf(tw, "-----\t--\t-------\t\n")

	for l := range reverb.NumPlateLengths {
		fmt.Fprintf(tw, "%s\t%.5f\t%d\t\n", l, l.Milliseconds(), l.Samples(sampleRate))
	}

	tw.Flush()
}

// renderImpulse feeds a stereo unit impulse through r in cfg.BlockSize
// blocks and returns the two response channels.
func renderImpulse(r *reverb.PlateReverb, cfg core.ProcessorConfig, length int) (left, right []float64) {
	inL := make([]float64, length)
	inR := make([]float64, length)
	left = make([]float64, length)
	right = make([]float64, length)

	if length > 0 {
		inL[0], inR[0] = 1, 1
	}

	cfg.Blocks(length, func(start, end int) {
		r.Process(inL[start:end], inR[start:end], left[start:end], right[start:end])
	})

	return left, right
}

func printAnalysis(w io.Writer, left, right []float64, opts options) error {
	m, err := ir.NewAnalyzer(opts.cfg.SampleRate).AnalyzeStereo(left, right)
	if err != nil {
		return fmt.Errorf("analyze impulse response: %w", err)
	}

	mono := make([]float64, len(left))
	copy(mono, left)
	vecmath.AddBlockInPlace(mono, right)
	vecmath.ScaleBlock(mono, mono, 0.5)

	power, err := spectrum.PowerSpectrum(mono, opts.fftSize)
	if err != nil {
		return err
	}

	flatness := spectrum.Flatness(power[1:])
	lv := level.Measure(left, right)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Sample rate\t%g Hz\n", opts.cfg.SampleRate)
	fmt.Fprintf(tw, "Length\t%.2f s\n", opts.cfg.Seconds(len(left)))
	fmt.Fprintf(tw, "Peak\t%.2f dB @ %d\n", core.LinearToDB(stereoPeak(lv)), m.PeakIndex)
	fmt.Fprintf(tw, "RMS L/R\t%.2f / %.2f dB\n", lv.Left.RMSDB(), lv.Right.RMSDB())
	fmt.Fprintf(tw, "Crest L/R\t%.2f / %.2f dB\n", lv.Left.CrestDB(), lv.Right.CrestDB())
	fmt.Fprintf(tw, "L/R correlation\t%.3f\n", lv.Correlation)
	fmt.Fprintf(tw, "RT60\t%.3f s\n", m.RT60)
	fmt.Fprintf(tw, "EDT\t%.3f s\n", m.EDT)
	fmt.Fprintf(tw, "T20\t%.3f s\n", m.T20)
	fmt.Fprintf(tw, "T30\t%.3f s\n", m.T30)
	fmt.Fprintf(tw, "C80\t%.2f dB\n", m.C80)
	fmt.Fprintf(tw, "D50\t%.3f\n", m.D50)
	fmt.Fprintf(tw, "Tail (%g dB)\t%.3f s\n", ir.DefaultTailThresholdDB, m.TailLength)
	fmt.Fprintf(tw, "Spectral flatness\t%.3f\n", flatness)

	return tw.Flush()
}

func stereoPeak(s level.Stereo) float64 {
	return math.Max(s.Left.Peak, s.Right.Peak)
}

// writeWAV stores the stereo pair as interleaved 24-bit PCM normalised to
// wavPeak full scale.
func writeWAV(path string, left, right []float64, sampleRate int) error {
	if len(left) != len(right) {
		return fmt.Errorf("wav: channel length mismatch: %d != %d", len(left), len(right))
	}

	scale := 0.0
	if peak := stereoPeak(level.Measure(left, right)); peak > 0 {
		scale = wavPeak / peak
	}

	normL := make([]float64, len(left))
	normR := make([]float64, len(right))
	vecmath.ScaleBlock(normL, left, scale)
	vecmath.ScaleBlock(normR, right, scale)

	fullScale := float64(int(1)<<(wavBitDepth-1) - 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, 2*len(left)),
		SourceBitDepth: wavBitDepth,
	}

	for i := range normL {
		buf.Data[2*i] = int(math.Round(normL[i] * fullScale))
		buf.Data[2*i+1] = int(math.Round(normR[i] * fullScale))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, 2, 1)
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("wav: write %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("wav: finalize %s: %w", path, err)
	}

	return f.Close()
}
