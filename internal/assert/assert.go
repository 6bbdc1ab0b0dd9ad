// Package assert provides build-tag controlled precondition checks for the
// audio path.
//
// Builds without the dspdebug tag compile every check down to a constant
// false branch, so callers fall through to their silent release behaviour.
// Builds with -tags dspdebug panic on the first violated precondition.
package assert

import "fmt"

// Fail reports a violated precondition. It panics in dspdebug builds and
// does nothing otherwise.
func Fail(format string, args ...any) {
	if Enabled {
		panic(fmt.Sprintf(format, args...))
	}
}
