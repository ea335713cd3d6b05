package shared

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestCosineSimilarity(t *testing.T) {
	tc := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 1}, b: []float32{-1, -1}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
	})
}

func TestVectorEncoding(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75, 0}
	out, err := DecodeVector(EncodeVector(in))
	if err != nil {
		t.Fatalf("DecodeVector failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d values, got %d", len(in), len(out))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: expected %v, got %v", i, in[i], out[i])
		}
	}

	if _, err := DecodeVector([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for truncated blob, got %v", err)
	}
}

func TestHelpers(t *testing.T) {
	t.Run("SongLabel", func(t *testing.T) {
		if got := SongLabel("Hey Jude", "The Beatles"); got != "Hey Jude by The Beatles" {
			t.Errorf("SongLabel() = %q", got)
		}
	})

	t.Run("NormalizeArtist", func(t *testing.T) {
		if got := NormalizeArtist("  The   BEATLES "); got != "the beatles" {
			t.Errorf("NormalizeArtist() = %q", got)
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		if ParseLogLevel("debug") != log.DebugLevel {
			t.Error("expected debug level")
		}
		if ParseLogLevel("nonsense") != log.InfoLevel {
			t.Error("expected info fallback")
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		var buf bytes.Buffer
		l := WithLogger(NewLogger(&buf), "component", "test")
		l.Info("hello")
		if !strings.Contains(buf.String(), "component=test") {
			t.Errorf("expected key/value in output, got %q", buf.String())
		}

		if WithLogger(nil) == nil {
			t.Error("expected a logger for nil parent")
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		data, err := MarshalJSON(map[string]int{"a": 1}, true)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "\n  \"a\": 1") {
			t.Errorf("expected indented output, got %s", data)
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCommand
	t.Cleanup(func() { getRuntime, startCommand = origRuntime, origStart })

	var gotName string
	var gotArgs []string
	startCommand = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	tc := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "rundll32"},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			getRuntime = func() string { return tt.goos }
			if err := OpenBrowser("https://example.com"); err != nil {
				t.Fatalf("OpenBrowser failed: %v", err)
			}
			if gotName != tt.want {
				t.Errorf("expected %s, got %s", tt.want, gotName)
			}
			if gotArgs[len(gotArgs)-1] != "https://example.com" {
				t.Errorf("expected url as last arg, got %v", gotArgs)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})

	t.Run("start failure", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		startCommand = func(string, ...string) error { return errors.New("boom") }
		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error when launcher fails")
		}
	})
}
