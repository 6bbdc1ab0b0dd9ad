// Package delay provides the circular sample buffer used as the memory
// element of pure delays, allpass lattices and one-pole filters.
//
// Offsets are counted back from the write position: Read(1) is the newest
// sample and Read(0) is the oldest one still held, Len pushes behind.
// Reverb networks built on Line rely on that convention, so a line of
// capacity N used with Read(0) behaves as an N-sample delay.
package delay
