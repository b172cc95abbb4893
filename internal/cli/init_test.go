package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		warned    bool
	}{
		{"debug", true, false},
		{"info", false, false},
		{"chatty", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := SetupLogger(tt.level, &buf)
			logger.Debug("debug line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.debugSeen {
				t.Errorf("debug output = %v, want %v: %s", got, tt.debugSeen, out)
			}
			if got := strings.Contains(out, "Unknown log level"); got != tt.warned {
				t.Errorf("warning = %v, want %v: %s", got, tt.warned, out)
			}
		})
	}
}

func TestLogOutput(t *testing.T) {
	if w, closeFn := LogOutput(""); w != os.Stdout || closeFn() != nil {
		t.Error("empty path should log to stdout")
	}

	path := filepath.Join(t.TempDir(), "logs", "budgetcast.log")
	w, closeFn := LogOutput(path)
	logger := SetupLogger("info", w)
	logger.Info("written to file")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file = %q", data)
	}
}
