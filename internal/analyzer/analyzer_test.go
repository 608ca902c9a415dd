package analyzer

import (
	"errors"
	"testing"
)

func TestParseAnalysis(t *testing.T) {
	t.Run("PlainJSON", func(t *testing.T) {
		raw := `{"items":[{"name":"apple","portion":"1 medium","calories":95,"protein_g":0.5,"carbs_g":25,"fat_g":0.3}],"totals":{"calories":0},"overall_confidence":0.9}`
		a, err := parseAnalysis(raw)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(a.Items) != 1 || a.Items[0].Name != "apple" {
			t.Errorf("Expected one apple item, got %+v", a.Items)
		}
		// Totals must be recomputed from items, not trusted from the model
		if a.Totals.Calories != 95 {
			t.Errorf("Expected recomputed total 95, got %d", a.Totals.Calories)
		}
	})

	t.Run("MarkdownFence", func(t *testing.T) {
		raw := "```json\n{\"items\":[{\"name\":\"rice\",\"calories\":200}],\"overall_confidence\":0.8}\n```"
		a, err := parseAnalysis(raw)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if a.Totals.Calories != 200 {
			t.Errorf("Expected total 200, got %d", a.Totals.Calories)
		}
	})

	t.Run("BareFence", func(t *testing.T) {
		raw := "```\n{\"items\":[{\"name\":\"toast\",\"calories\":80}]}\n```"
		if _, err := parseAnalysis(raw); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("NoFood", func(t *testing.T) {
		_, err := parseAnalysis(`{"items":[]}`)
		if !errors.Is(err, ErrNoFood) {
			t.Errorf("Expected ErrNoFood, got %v", err)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		if _, err := parseAnalysis("not json at all"); err == nil {
			t.Error("Expected a parse error")
		}
	})

	t.Run("ConfidenceClamped", func(t *testing.T) {
		a, err := parseAnalysis(`{"items":[{"name":"x","calories":1}],"overall_confidence":1.7}`)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if a.OverallConfidence != 1 {
			t.Errorf("Expected confidence clamped to 1, got %v", a.OverallConfidence)
		}
	})
}
