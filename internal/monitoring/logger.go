// Package monitoring holds the process-wide diagnostic logger.
//
// Benchmark results are written to stdout by the commands themselves; Logf
// carries progress and warnings so that tests can capture or mute them.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf logs through Logf with a "warning: " prefix.
func Warnf(format string, v ...interface{}) {
	Logf("warning: "+format, v...)
}

// Capture redirects Logf into a slice until the returned restore func is
// called. Intended for tests.
func Capture(lines *[]string) (restore func()) {
	prev := Logf
	Logf = func(format string, v ...interface{}) {
		*lines = append(*lines, fmt.Sprintf(format, v...))
	}
	return func() { Logf = prev }
}
