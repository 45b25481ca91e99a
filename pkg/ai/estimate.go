package ai

import (
	_ "embed"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed pricing.yaml
var embeddedPricing []byte

var defaultPricing = mustParsePricing(embeddedPricing)

// ModelRate is the USD price per 1K tokens
type ModelRate struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// PricingTable maps model ids to rates. Unknown models use the Default row.
type PricingTable struct {
	Default string               `yaml:"default"`
	Models  map[string]ModelRate `yaml:"models"`
}

// DefaultPricing returns the built-in rate table
func DefaultPricing() *PricingTable {
	return defaultPricing
}

// ParsePricing decodes and validates a YAML rate table
func ParsePricing(data []byte) (*PricingTable, error) {
	var table PricingTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("invalid pricing table: %w", err)
	}
	if _, ok := table.Models[table.Default]; !ok {
		return nil, fmt.Errorf("invalid pricing table: default model %q has no rate", table.Default)
	}
	for model, rate := range table.Models {
		if rate.Input < 0 || rate.Output < 0 {
			return nil, fmt.Errorf("invalid pricing table: negative rate for %q", model)
		}
	}
	return &table, nil
}

// LoadPricing reads a YAML rate table from path
func LoadPricing(path string) (*PricingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}
	return ParsePricing(data)
}

func mustParsePricing(data []byte) *PricingTable {
	table, err := ParsePricing(data)
	if err != nil {
		panic(err)
	}
	return table
}

// Rate returns the rate for model, falling back to the default row
func (t *PricingTable) Rate(model string) ModelRate {
	if rate, ok := t.Models[model]; ok {
		return rate
	}
	return t.Models[t.Default]
}

// Estimate returns the USD cost of a call. Negative counts are treated as 0.
func (t *PricingTable) Estimate(inputTokens, outputTokens int, model string) float64 {
	rate := t.Rate(model)
	in := float64(max(inputTokens, 0))
	out := float64(max(outputTokens, 0))
	return in/1000*rate.Input + out/1000*rate.Output
}

// EstimateTokens approximates the token count as one token per four characters
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// EstimateCost prices a call with the built-in rate table
func EstimateCost(inputTokens, outputTokens int, model string) float64 {
	return defaultPricing.Estimate(inputTokens, outputTokens, model)
}
