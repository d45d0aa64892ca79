// Package monitoring carries the process-wide diagnostic logger.
package monitoring

import (
	"log"
	"os"
)

// std is the default destination: stderr with a process prefix so viewer
// log lines are attributable when the server runs under a supervisor.
var std = log.New(os.Stderr, "lascloud ", log.LstdFlags)

// Logf is the package-level diagnostic logger. It defaults to the prefixed
// standard logger but may be replaced by SetLogger; tests redirect or mute
// it.
var Logf func(format string, v ...interface{}) = std.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
