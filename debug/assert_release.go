//go:build !debug

// Package debug provides assertions for the firmware. They are checked when
// built with the debug tag and compile to nothing otherwise, so they may be
// used on paths that run before the runtime is up.
package debug

// Enabled guards assertions that are expensive to evaluate.
const Enabled = false

// Assert panics if b is false.
func Assert(b bool, message string) {}

// AssertErrNil panics if err is not nil.
func AssertErrNil(err error) {}
