package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tc := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "shorter than limit", in: "Room 101", n: 20, want: "Room 101"},
		{name: "exact length", in: "abc", n: 3, want: "abc"},
		{name: "cut with ellipsis", in: "Main Campus Block", n: 5, want: "Main…"},
		{name: "single rune limit", in: "abc", n: 1, want: "…"},
		{name: "non-positive limit", in: "abc", n: 0, want: "abc"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tc := []struct {
		name      string
		v, lo, hi int
		want      int
	}{
		{name: "below", v: -5, lo: 0, hi: 100, want: 0},
		{name: "inside", v: 42, lo: 0, hi: 100, want: 42},
		{name: "above", v: 180, lo: 0, hi: 100, want: 100},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Clamp() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSafeFilename(t *testing.T) {
	got := SafeFilename(" RA2211003010123 12/05/2025 ")
	if got != "RA2211003010123_12-05-2025" {
		t.Errorf("expected RA2211003010123_12-05-2025, got %s", got)
	}
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger Writes To Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("poll", "session", "abc")

		if !strings.Contains(buf.String(), "session=abc") {
			t.Errorf("expected log output to contain session=abc, got %s", buf.String())
		}
	})

	t.Run("NewFileLogger Creates File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "seatx.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Info("hello")

		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected log file to exist: %v", err)
		}
	})

	t.Run("GenerateID Is Unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct IDs")
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		data, err := MarshalJSON(map[string]int{"progress": 40}, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(data), "\n  \"progress\": 40") {
			t.Errorf("expected indented JSON, got %s", string(data))
		}

		if _, err := MarshalJSON(make(chan int), false); err == nil {
			t.Error("expected error for unsupported type")
		}
	})
}
