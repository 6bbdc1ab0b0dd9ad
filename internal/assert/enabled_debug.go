//go:build dspdebug

package assert

// Enabled reports whether precondition violations panic.
const Enabled = true
