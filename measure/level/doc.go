// Package level measures the level and channel correlation of stereo
// signals, either over a whole buffer or accumulated block by block.
package level
