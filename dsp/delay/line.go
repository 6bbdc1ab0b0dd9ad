package delay

import (
	"fmt"

	"github.com/cwbudde/algo-plate/internal/assert"
)

// Line is a fixed-capacity circular delay line.
//
// The zero value is an empty line: every Read returns 0 and Push is a no-op
// until Prepare gives it a capacity. Push and Read never allocate.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a prepared delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}

	d := &Line{}
	d.Prepare(size)

	return d, nil
}

// Prepare reallocates a zero-filled buffer of exactly capacity samples and
// rewinds the write position. A capacity <= 0 leaves the line empty.
func (d *Line) Prepare(capacity int) {
	if capacity < 0 {
		capacity = 0
	}

	d.buffer = make([]float64, capacity)
	d.writePos = 0
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Push writes one sample and advances the write position.
func (d *Line) Push(sample float64) {
	if len(d.buffer) == 0 {
		return
	}

	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the slot at (writePos - delay) mod Len.
//
// For 1 <= delay < Len that is the sample pushed delay steps ago, so Read(1)
// is the most recent push. Read(0) addresses the slot about to be
// overwritten, i.e. the oldest sample, a full Len pushes behind. Offsets
// outside [0, Len) are a programming error and read as 0.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if delay < 0 || delay >= size {
		assert.Fail("delay: read offset %d outside capacity %d", delay, size)
		return 0
	}

	readPos := d.writePos - delay
	if readPos < 0 {
		readPos += size
	}

	return d.buffer[readPos]
}

// Reset clears line state without changing capacity.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.writePos = 0
}
