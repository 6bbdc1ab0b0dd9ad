package core

// ProcessorConfig is the rate and block size a processor is driven with.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
}

// ProcessorOption mutates a ProcessorConfig. Options given invalid values
// leave the field untouched.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns 48 kHz with 512-sample blocks.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{SampleRate: 48000, BlockSize: 512}
}

// WithSampleRate sets a positive sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets a positive block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// ApplyProcessorOptions starts from DefaultProcessorConfig and applies opts
// in order. Nil options are skipped.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// SamplesFor returns the whole number of samples in seconds at the
// configured rate.
func (c ProcessorConfig) SamplesFor(seconds float64) int {
	return MillisecondsToSamples(seconds*1000, c.SampleRate)
}

// Seconds returns the duration of n samples at the configured rate.
func (c ProcessorConfig) Seconds(n int) float64 {
	if c.SampleRate <= 0 {
		return 0
	}

	return float64(n) / c.SampleRate
}

// Blocks calls fn for consecutive [start, end) ranges of at most BlockSize
// samples covering total samples. A non-positive BlockSize means one block.
func (c ProcessorConfig) Blocks(total int, fn func(start, end int)) {
	size := c.BlockSize
	if size <= 0 {
		size = total
	}

	for start := 0; start < total; start += size {
		fn(start, min(start+size, total))
	}
}
