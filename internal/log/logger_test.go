package log

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentForecast, Output: &buf})

	logger.Warn("overdraft", FieldAccount, "Checking")
	out := buf.String()
	if !strings.Contains(out, "component=forecast") || !strings.Contains(out, "account=Checking") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentRecords).Debug("loaded")
	if !strings.Contains(buf.String(), "component=records") {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if strings.Count(buf.String(), "component=") != 1 {
		t.Fatalf("component should be tagged once: %q", buf.String())
	}
}

func TestLogFieldsToSlice(t *testing.T) {
	got := NewFields().
		WithOperation(OpSimulate).
		WithAccount("Visa", -200).
		WithError(errors.New("boom")).
		WithComponent(ComponentForecast).
		ToSlice()
	want := []any{
		FieldAccount, "Visa",
		FieldBalance, int64(-200),
		FieldComponent, ComponentForecast,
		FieldError, "boom",
		FieldOperation, OpSimulate,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAccessLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})
	h := Middleware(logger)(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/forecast", nil))
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status_code=400") {
		t.Fatalf("unexpected access log %q", out)
	}
}
