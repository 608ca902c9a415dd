package pet

import (
	"errors"
	"testing"
	"time"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		meals int
		want  Level
	}{
		{0, LevelEgg},
		{1, LevelEgg},
		{2, LevelBaby},
		{50, LevelBaby},
		{51, LevelTeen},
		{150, LevelTeen},
		{151, LevelAdult},
		{500, LevelAdult},
		{501, LevelElder},
		{10000, LevelElder},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.meals); got != tc.want {
			t.Errorf("Expected level %s for %d meals, got %s", tc.want, tc.meals, got)
		}
	}
}

func TestMoodFor(t *testing.T) {
	cases := []struct {
		pct  float64
		want Mood
	}{
		{0, MoodStarving},
		{0.9, MoodStarving},
		{1, MoodHungry},
		{49, MoodHungry},
		{49.9, MoodHungry},
		{50, MoodHappy},
		{99, MoodHappy},
		{100, MoodEcstatic},
		{120, MoodEcstatic},
		{120.9, MoodEcstatic},
		{121, MoodStuffed},
		{300, MoodStuffed},
	}
	for _, tc := range cases {
		if got := MoodFor(tc.pct); got != tc.want {
			t.Errorf("Expected mood %s at %.1f%%, got %s", tc.want, tc.pct, got)
		}
	}
}

func TestAssetKey(t *testing.T) {
	if got := AssetKey(LevelEgg, MoodHappy); got != "egg" {
		t.Errorf("Expected bare egg key, got %q", got)
	}
	if got := AssetKey(LevelBaby, MoodHungry); got != "baby-hungry" {
		t.Errorf("Expected baby-hungry, got %q", got)
	}
	if got := AssetKey(LevelElder, MoodStuffed); got != "elder-stuffed" {
		t.Errorf("Expected elder-stuffed, got %q", got)
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Nibbles"); err != nil {
		t.Errorf("Expected valid name, got %v", err)
	}
	if err := ValidateName("x"); err != nil {
		t.Errorf("Expected one-character name to be valid, got %v", err)
	}
	if err := ValidateName(""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for empty name, got %v", err)
	}
	if err := ValidateName("this name is far too long"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for long name, got %v", err)
	}

	// 20 runes, more than 20 bytes
	if err := ValidateName("ёёёёёёёёёёёёёёёёёёёё"); err != nil {
		t.Errorf("Expected 20-rune name to be valid, got %v", err)
	}
}

func TestStreaks(t *testing.T) {
	mk := func(days ...string) []time.Time {
		dates := make([]time.Time, len(days))
		for i, d := range days {
			parsed, err := time.Parse("2006-01-02", d)
			if err != nil {
				t.Fatalf("bad date %q: %v", d, err)
			}
			dates[i] = parsed
		}
		return dates
	}
	today := mk("2026-08-05")[0]

	t.Run("GapBreaksStreak", func(t *testing.T) {
		// Days 1,2,3 then 5: best is 3, current is 1
		info := Streaks(mk("2026-08-01", "2026-08-02", "2026-08-03", "2026-08-05"), today)
		if info.Best != 3 {
			t.Errorf("Expected best streak 3, got %d", info.Best)
		}
		if info.Current != 1 {
			t.Errorf("Expected current streak 1, got %d", info.Current)
		}
	})

	t.Run("YesterdayKeepsCurrentAlive", func(t *testing.T) {
		info := Streaks(mk("2026-08-03", "2026-08-04"), today)
		if info.Current != 2 {
			t.Errorf("Expected current streak 2, got %d", info.Current)
		}
	})

	t.Run("OlderLastLogDropsCurrent", func(t *testing.T) {
		info := Streaks(mk("2026-08-01", "2026-08-02"), today)
		if info.Current != 0 {
			t.Errorf("Expected current streak 0, got %d", info.Current)
		}
		if info.Best != 2 {
			t.Errorf("Expected best streak 2, got %d", info.Best)
		}
	})

	t.Run("NoDates", func(t *testing.T) {
		info := Streaks(nil, today)
		if info.Current != 0 || info.Best != 0 {
			t.Errorf("Expected zero streaks, got %+v", info)
		}
	})
}

func TestEvaluate(t *testing.T) {
	t.Run("OrderMatchesCatalog", func(t *testing.T) {
		got := Evaluate(0, StreakInfo{}, nil)
		if len(got) != len(Catalog) {
			t.Fatalf("Expected %d achievements, got %d", len(Catalog), len(got))
		}
		for i, a := range got {
			if a.ID != Catalog[i].ID {
				t.Errorf("Expected %s at index %d, got %s", Catalog[i].ID, i, a.ID)
			}
		}
	})

	t.Run("MealThresholds", func(t *testing.T) {
		got := Evaluate(100, StreakInfo{}, nil)
		unlocked := map[string]bool{}
		for _, a := range got {
			unlocked[a.ID] = a.Unlocked
		}
		if !unlocked["first_bite"] || !unlocked["getting_started"] || !unlocked["century_club"] {
			t.Errorf("Expected meal achievements through century_club, got %v", unlocked)
		}
		if unlocked["dedicated"] {
			t.Error("Expected dedicated to stay locked at 100 meals")
		}
		// 100 meals puts the pet at teen, so two evolutions earned
		if !unlocked["hatched"] || !unlocked["growing_up"] {
			t.Error("Expected hatched and growing_up at teen level")
		}
		if unlocked["all_grown"] {
			t.Error("Expected all_grown to stay locked at teen level")
		}
	})

	t.Run("StreakUsesBest", func(t *testing.T) {
		got := Evaluate(5, StreakInfo{Current: 0, Best: 14}, nil)
		var week, fortnight, month bool
		for _, a := range got {
			switch a.ID {
			case "week_warrior":
				week = a.Unlocked
			case "fortnight_fighter":
				fortnight = a.Unlocked
			case "month_master":
				month = a.Unlocked
			}
		}
		if !week || !fortnight {
			t.Error("Expected 14-day best streak to unlock week and fortnight")
		}
		if month {
			t.Error("Expected month_master to stay locked")
		}
	})

	t.Run("PersistedUnlockTimeSurvives", func(t *testing.T) {
		when := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		got := Evaluate(1, StreakInfo{}, map[string]time.Time{"first_bite": when})
		for _, a := range got {
			if a.ID != "first_bite" {
				continue
			}
			if !a.Unlocked || a.UnlockedAt == nil || !a.UnlockedAt.Equal(when) {
				t.Errorf("Expected persisted unlock time, got %+v", a)
			}
		}
	})
}
