// Package reverb implements a stereo Dattorro plate reverb.
//
// The delay network is described by a table of millisecond constants
// (see PlateLength). Prepare resolves the table to sample counts for one
// sample rate, sizes the fifteen owned delay lines and caches the fourteen
// output tap offsets. Nothing on the processing path allocates.
//
// Signal flow per sample:
//
//	(L+R)/2 -> predelay -> bandwidth one-pole -> 4 input allpasses
//	        -> tank left half -> tank right half -> back to left half
//	7 signed taps per side -> wet L/R -> dry/wet mix
//
// Parameter setters are safe to call from a control goroutine while
// another goroutine runs Process. Prepare and Reset are not.
package reverb
