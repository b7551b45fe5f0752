package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model string
		want  *ModelCost
	}{
		{"gpt-4o-mini", &ModelCost{0.15, 0.6}},
		{"openai/gpt-4o-mini", &ModelCost{0.15, 0.6}},
		{"claude-haiku-4-5-20251001", &ModelCost{1, 5}},
		{"claude-sonnet-4-5-20250929", &ModelCost{3, 15}},
		{"claude-3-5-haiku-latest", &ModelCost{0.8, 4}},
		{"gemini-2.5-flash", &ModelCost{0.3, 2.5}},
		{"mistral-large", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := LookupCost(tt.model)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("LookupCost(%q) = %+v, want nil", tt.model, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("LookupCost(%q) = %v, want %+v", tt.model, got, *tt.want)
		}
	}
}

func TestModelCost_Cost(t *testing.T) {
	// A typical scored turn: ~1.2k prompt tokens, ~150 reply tokens.
	c := ModelCost{InputPerMTok: 1, OutputPerMTok: 5}
	got := c.Cost(1200, 150)
	if math.Abs(got-0.00195) > 1e-12 {
		t.Errorf("Cost = %v, want 0.00195", got)
	}
}
