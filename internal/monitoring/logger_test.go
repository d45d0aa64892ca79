package monitoring

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("test message")
	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op logger that must not panic or call back.
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("no-op logger should not have triggered callback")
	}
}

func TestDefaultLoggerPrefix(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}

	var buf bytes.Buffer
	std.SetOutput(&buf)
	defer std.SetOutput(os.Stderr)

	Logf("loaded %d points", 7)
	line := buf.String()
	if !strings.HasPrefix(line, "lascloud ") {
		t.Errorf("default log line %q lacks the process prefix", line)
	}
	if !strings.Contains(line, "loaded 7 points") {
		t.Errorf("default log line %q lacks the message", line)
	}
}
