package memory

import (
	"math"
	"runtime/debug"
	"testing"
)

func restoreMemoryLimit(t *testing.T) {
	t.Helper()
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
}

func TestConfigureFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		limit      string
		ratio      string
		configured bool
		wantLimit  int64
		wantRatio  float64
	}{
		{name: "unset", configured: false},
		{name: "invalid limit", limit: "lots", configured: false},
		{name: "negative limit", limit: "-5", configured: false},
		{name: "default ratio", limit: "1000000", configured: true, wantLimit: 850000, wantRatio: DefaultMemoryRatio},
		{name: "custom ratio", limit: "1000000", ratio: "0.5", configured: true, wantLimit: 500000, wantRatio: 0.5},
		{name: "out of range ratio", limit: "1000000", ratio: "1.5", configured: true, wantLimit: 850000, wantRatio: DefaultMemoryRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreMemoryLimit(t)
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.limit)
			t.Setenv("MEMORY_RATIO", tt.ratio)

			result := ConfigureFromEnv()
			if result.Configured != tt.configured {
				t.Fatalf("Configured = %v, want %v", result.Configured, tt.configured)
			}
			if !tt.configured {
				if result.Source != "none" {
					t.Errorf("Source = %q, want none", result.Source)
				}
				return
			}
			if result.Source != "MEMORY_LIMIT" {
				t.Errorf("Source = %q, want MEMORY_LIMIT", result.Source)
			}
			if result.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", result.GoMemLimit, tt.wantLimit)
			}
			if result.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", result.Ratio, tt.wantRatio)
			}
			if got := debug.SetMemoryLimit(-1); got != tt.wantLimit {
				t.Errorf("runtime memory limit = %d, want %d", got, tt.wantLimit)
			}
		})
	}
}

func TestConfigureFromEnvRespectsGOMEMLIMIT(t *testing.T) {
	restoreMemoryLimit(t)
	debug.SetMemoryLimit(64 << 20)
	t.Setenv("GOMEMLIMIT", "64MiB")
	t.Setenv("MEMORY_LIMIT", "1000000")

	result := ConfigureFromEnv()
	if result.Source != "GOMEMLIMIT" {
		t.Errorf("Source = %q, want GOMEMLIMIT", result.Source)
	}
	if result.GoMemLimit != 64<<20 {
		t.Errorf("GoMemLimit = %d, want %d", result.GoMemLimit, 64<<20)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{3 << 20, "3.0 MiB"},
		{math.MaxInt64, "8.0 EiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
