// Package utils holds small cross-package test helpers. Everything
// else lguibr-pongo's utils package carried (vector/matrix math,
// color generation, file-based JSON logging) was physics-engine
// specific with no equivalent in a turn-based grid game and has been
// dropped; see DESIGN.md for the per-symbol justification.
package utils

import (
	"fmt"
	"testing"
)

// AssertPanics runs testingFunction and reports whether it panicked,
// along with a string form of the recovered value. Used by tests that
// exercise a fatal-invariant code path (e.g. gamestate.Coalesce
// finding a player on a wall) without wiring a whole table of
// panic/recover boilerplate into every such test.
func AssertPanics(t *testing.T, testingFunction func()) (panicked bool, message string) {
	t.Helper()

	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				switch v := r.(type) {
				case string:
					message = v
				case error:
					message = v.Error()
				default:
					message = fmt.Sprintf("%v", v)
				}
			}
		}()
		testingFunction()
	}()

	return panicked, message
}
