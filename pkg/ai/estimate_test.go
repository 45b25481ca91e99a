package ai

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 4000), 1000},
		{"héllo", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestEstimateTokens_Monotonic(t *testing.T) {
	prev := 0
	for n := 0; n <= 64; n++ {
		got := EstimateTokens(strings.Repeat("w", n))
		if got < prev {
			t.Fatalf("estimate decreased at %d chars: %d < %d", n, got, prev)
		}
		prev = got
	}
}

func TestEstimateCost(t *testing.T) {
	if got := EstimateCost(1000, 1000, "gpt-4o"); !almostEqual(got, 0.02) {
		t.Errorf("gpt-4o = %v, want 0.02", got)
	}
	if got := EstimateCost(1000, 1000, "gpt-4-turbo-preview"); !almostEqual(got, 0.04) {
		t.Errorf("gpt-4-turbo-preview = %v, want 0.04", got)
	}
	if got := EstimateCost(2000, 500, "gpt-3.5-turbo"); !almostEqual(got, 0.004) {
		t.Errorf("gpt-3.5-turbo = %v, want 0.004", got)
	}
	if got := EstimateCost(0, 0, "gpt-4o"); got != 0 {
		t.Errorf("zero tokens = %v", got)
	}
	if got := EstimateCost(-10, -10, "gpt-4o"); got != 0 {
		t.Errorf("negative tokens = %v", got)
	}
}

func TestEstimateCost_UnknownModelUsesDefault(t *testing.T) {
	unknown := EstimateCost(1234, 567, "some-new-model")
	def := EstimateCost(1234, 567, DefaultModel)
	if !almostEqual(unknown, def) {
		t.Errorf("unknown = %v, default = %v", unknown, def)
	}
}

func TestEstimateCost_Linear(t *testing.T) {
	one := EstimateCost(1000, 300, "gpt-4-turbo")
	two := EstimateCost(2000, 600, "gpt-4-turbo")
	if !almostEqual(two, 2*one) {
		t.Errorf("cost not linear: %v vs 2*%v", two, one)
	}
}

func TestParsePricing_RequiresDefaultRow(t *testing.T) {
	_, err := ParsePricing([]byte("default: missing\nmodels:\n  gpt-4o:\n    input: 1\n    output: 1\n"))
	if err == nil {
		t.Fatal("expected error for missing default row")
	}
}

func TestLoadPricing_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	data := "default: local\nmodels:\n  local:\n    input: 0.1\n    output: 0.2\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadPricing(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := table.Estimate(1000, 1000, "anything"); !almostEqual(got, 0.3) {
		t.Errorf("estimate = %v, want 0.3", got)
	}
}
