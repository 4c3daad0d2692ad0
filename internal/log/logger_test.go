// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"Error", LevelError, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestComponentLoggerPrefixAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	prev := GetLevel()
	defer SetLevel(prev)

	SetLevel(LevelWarn)
	l := For("capture")
	l.Infof("hidden %d", 1)
	l.Warnf("overflowed %d times", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] capture: overflowed 3 times") {
		t.Errorf("missing prefixed warning, got %q", out)
	}
}

func TestLimiterOnePerWindow(t *testing.T) {
	l := NewLimiter(time.Second)
	start := time.Unix(1000, 0)

	allowed := 0
	for _, offset := range []time.Duration{0, 100 * time.Millisecond, 900 * time.Millisecond} {
		if l.Allow(start.Add(offset)) {
			allowed++
		}
	}
	if allowed != 1 {
		t.Fatalf("allowed %d events in one window, want 1", allowed)
	}
	if !l.Allow(start.Add(1100 * time.Millisecond)) {
		t.Error("event after the window should be allowed")
	}
}
