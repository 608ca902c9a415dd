package targets

import (
	"errors"
	"testing"

	"foodgpt-bot/internal/user"
)

func validProfile() *user.Profile {
	weight := 80.0
	height := 182.0
	age := 30
	return &user.Profile{
		TelegramID:    1,
		WeightKg:      &weight,
		HeightCm:      &height,
		Age:           &age,
		Sex:           user.SexMale,
		ActivityLevel: user.ActivitySedentary,
		Goal:          user.GoalMaintain,
	}
}

func TestBMR(t *testing.T) {
	got := BMR(80, 182, 30, user.SexMale)
	if got != 1792.5 {
		t.Errorf("Expected male BMR 1792.5, got %v", got)
	}

	got = BMR(80, 182, 30, user.SexFemale)
	if got != 1626.5 {
		t.Errorf("Expected female BMR 1626.5, got %v", got)
	}
}

func TestDailyTarget(t *testing.T) {
	t.Run("MaintainSedentary", func(t *testing.T) {
		// BMR 1792.5 * 1.2 = 2151, maintain adds nothing
		target, err := DailyTarget(validProfile())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if target != 2151 {
			t.Errorf("Expected target 2151, got %d", target)
		}
	})

	t.Run("GoalAdjustments", func(t *testing.T) {
		cases := []struct {
			goal user.Goal
			want int
		}{
			{user.GoalLose, 1651},
			{user.GoalMaintain, 2151},
			{user.GoalGain, 2451},
			{user.GoalGainMuscles, 2451},
		}
		for _, tc := range cases {
			p := validProfile()
			p.Goal = tc.goal
			target, err := DailyTarget(p)
			if err != nil {
				t.Fatalf("DailyTarget(%s) failed: %v", tc.goal, err)
			}
			if target != tc.want {
				t.Errorf("Expected %s target %d, got %d", tc.goal, tc.want, target)
			}
		}
	})

	t.Run("MinimumIntakeFloor", func(t *testing.T) {
		p := validProfile()
		weight := 40.0
		height := 150.0
		p.WeightKg = &weight
		p.HeightCm = &height
		p.Sex = user.SexFemale
		p.Goal = user.GoalLose

		// BMR = 400 + 937.5 - 150 - 161 = 1026.5; TDEE 1231.8; lose -500 = 731.8
		target, err := DailyTarget(p)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if target != MinCaloriesFemale {
			t.Errorf("Expected clamp to %d, got %d", MinCaloriesFemale, target)
		}
	})

	t.Run("OverrideSkipsFormula", func(t *testing.T) {
		p := &user.Profile{CalorieOverride: true}
		override := 1800
		p.DailyCalorieTarget = &override

		// Profile has no weight/height/age; override must win anyway
		target, err := DailyTarget(p)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if target != 1800 {
			t.Errorf("Expected override 1800, got %d", target)
		}
	})

	t.Run("InvalidProfile", func(t *testing.T) {
		cases := map[string]func(*user.Profile){
			"MissingWeight":   func(p *user.Profile) { p.WeightKg = nil },
			"ZeroHeight":      func(p *user.Profile) { h := 0.0; p.HeightCm = &h },
			"NegativeAge":     func(p *user.Profile) { a := -1; p.Age = &a },
			"UnknownSex":      func(p *user.Profile) { p.Sex = "other" },
			"UnknownActivity": func(p *user.Profile) { p.ActivityLevel = "athlete" },
			"UnknownGoal":     func(p *user.Profile) { p.Goal = "bulk" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				p := validProfile()
				mutate(p)
				_, err := DailyTarget(p)
				if !errors.Is(err, ErrInvalidProfile) {
					t.Errorf("Expected ErrInvalidProfile, got %v", err)
				}
			})
		}
	})
}

func TestMacroTargetsFor(t *testing.T) {
	t.Run("Maintain2000", func(t *testing.T) {
		macros, err := MacroTargetsFor(2000, user.GoalMaintain)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if macros.ProteinG != 125 {
			t.Errorf("Expected protein 125g, got %d", macros.ProteinG)
		}
		if macros.CarbsG != 225 {
			t.Errorf("Expected carbs 225g, got %d", macros.CarbsG)
		}
		if macros.FatG != 67 {
			t.Errorf("Expected fat 67g, got %d", macros.FatG)
		}
	})

	t.Run("AllGoalsHaveSplits", func(t *testing.T) {
		for _, goal := range []user.Goal{user.GoalLose, user.GoalMaintain, user.GoalGain, user.GoalGainMuscles} {
			if _, err := MacroTargetsFor(2000, goal); err != nil {
				t.Errorf("MacroTargetsFor(%s) failed: %v", goal, err)
			}
		}
	})

	t.Run("UnknownGoal", func(t *testing.T) {
		_, err := MacroTargetsFor(2000, "bulk")
		if !errors.Is(err, ErrInvalidProfile) {
			t.Errorf("Expected ErrInvalidProfile, got %v", err)
		}
	})
}

func TestCompute(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		first, err := Compute(validProfile())
		if err != nil {
			t.Fatalf("Compute failed: %v", err)
		}
		second, err := Compute(validProfile())
		if err != nil {
			t.Fatalf("Compute failed: %v", err)
		}
		if first != second {
			t.Errorf("Expected identical results, got %+v and %+v", first, second)
		}
	})

	t.Run("MacroOverrideWinsVerbatim", func(t *testing.T) {
		p := validProfile()
		p.MacroOverride = true
		protein := 200
		p.ProteinTarget = &protein

		targets, err := Compute(p)
		if err != nil {
			t.Fatalf("Compute failed: %v", err)
		}
		if targets.ProteinTarget != 200 {
			t.Errorf("Expected protein override 200, got %d", targets.ProteinTarget)
		}
		// Carbs/fat had no override value, so they stay goal-derived
		want, _ := MacroTargetsFor(targets.CalorieTarget, user.GoalMaintain)
		if targets.CarbsTarget != want.CarbsG {
			t.Errorf("Expected carbs %d, got %d", want.CarbsG, targets.CarbsTarget)
		}
	})
}
