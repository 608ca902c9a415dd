package telegram

import (
	"testing"
	"time"
)

func TestParseDateExpr(t *testing.T) {
	// A Friday
	now := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		expr      string
		wantStart string
		wantEnd   string
	}{
		{"", "2026-08-28", "2026-08-28"},
		{"today", "2026-08-28", "2026-08-28"},
		{"yesterday", "2026-08-27", "2026-08-27"},
		{"this week", "2026-08-24", "2026-08-28"},
		{"last week", "2026-08-17", "2026-08-23"},
		{"this month", "2026-08-01", "2026-08-28"},
		{"last month", "2026-07-01", "2026-07-31"},
		{"2026-08-15", "2026-08-15", "2026-08-15"},
		{"2026-08-01 to 2026-08-10", "2026-08-01", "2026-08-10"},
		{"This Week", "2026-08-24", "2026-08-28"},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			start, end, err := ParseDateExpr(tc.expr, now)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got := start.Format("2006-01-02"); got != tc.wantStart {
				t.Errorf("Expected start %s, got %s", tc.wantStart, got)
			}
			if got := end.Format("2006-01-02"); got != tc.wantEnd {
				t.Errorf("Expected end %s, got %s", tc.wantEnd, got)
			}
		})
	}

	t.Run("WeekStartsOnMondayEvenOnSunday", func(t *testing.T) {
		sunday := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
		start, _, err := ParseDateExpr("this week", sunday)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got := start.Format("2006-01-02"); got != "2026-08-24" {
			t.Errorf("Expected week start 2026-08-24, got %s", got)
		}
	})

	t.Run("ReversedRange", func(t *testing.T) {
		if _, _, err := ParseDateExpr("2026-08-10 to 2026-08-01", now); err == nil {
			t.Error("Expected an error for a reversed range")
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, _, err := ParseDateExpr("next tuesday-ish", now); err == nil {
			t.Error("Expected an error for an unknown expression")
		}
	})
}
