// Package core holds the small numeric and configuration helpers shared by
// the DSP and measurement packages.
package core
