// Package targets computes daily calorie and macro targets from a user
// profile using the Mifflin-St Jeor equation.
package targets

import (
	"errors"
	"fmt"
	"math"

	"foodgpt-bot/internal/user"
)

// ErrInvalidProfile is returned when the profile is missing physical
// attributes or carries an unrecognized enum value. Callers should prompt the
// user to complete their profile rather than guess.
var ErrInvalidProfile = errors.New("profile is incomplete or invalid")

// Calories per gram of each macro.
const (
	CaloriesPerGramProtein = 4
	CaloriesPerGramCarbs   = 4
	CaloriesPerGramFat     = 9
)

// Minimum safe daily intake, applied after goal adjustment.
const (
	MinCaloriesFemale = 1200
	MinCaloriesMale   = 1500
)

// DefaultCalorieTarget is used when a user has no target set at all.
const DefaultCalorieTarget = 2000

// activityMultipliers maps activity level to its TDEE multiplier.
var activityMultipliers = map[user.ActivityLevel]float64{
	user.ActivitySedentary:        1.2,
	user.ActivityLightlyActive:    1.375,
	user.ActivityModeratelyActive: 1.55,
	user.ActivityVeryActive:       1.725,
}

// goalAdjustments maps goal to its daily calorie adjustment. New goals are
// additive here, not new branches.
var goalAdjustments = map[user.Goal]int{
	user.GoalLose:        -500,
	user.GoalMaintain:    0,
	user.GoalGain:        300,
	user.GoalGainMuscles: 300,
}

// macroSplit is a percentage triple over the calorie target.
type macroSplit struct {
	Protein float64
	Carbs   float64
	Fat     float64
}

var goalMacroSplits = map[user.Goal]macroSplit{
	user.GoalLose:        {Protein: 0.30, Carbs: 0.40, Fat: 0.30},
	user.GoalMaintain:    {Protein: 0.25, Carbs: 0.45, Fat: 0.30},
	user.GoalGain:        {Protein: 0.25, Carbs: 0.50, Fat: 0.25},
	user.GoalGainMuscles: {Protein: 0.35, Carbs: 0.40, Fat: 0.25},
}

// Targets is the computed set of daily targets.
type Targets struct {
	CalorieTarget int
	ProteinTarget int
	CarbsTarget   int
	FatTarget     int
}

// MacroTargets is a gram triple derived from a calorie target.
type MacroTargets struct {
	ProteinG int
	CarbsG   int
	FatG     int
}

// BMR calculates Basal Metabolic Rate using the Mifflin-St Jeor equation.
//
//	Male:   BMR = 10*weight + 6.25*height - 5*age + 5
//	Female: BMR = 10*weight + 6.25*height - 5*age - 161
func BMR(weightKg, heightCm float64, age int, sex user.Sex) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if sex == user.SexMale {
		return base + 5
	}
	return base - 161
}

// TDEE calculates Total Daily Energy Expenditure.
func TDEE(bmr float64, activity user.ActivityLevel) float64 {
	multiplier, ok := activityMultipliers[activity]
	if !ok {
		multiplier = 1.2
	}
	return bmr * multiplier
}

// DailyTarget calculates the daily calorie target for a profile. A manual
// override is returned unchanged; otherwise BMR -> TDEE -> goal adjustment,
// clamped to the sex-dependent minimum safe intake.
func DailyTarget(p *user.Profile) (int, error) {
	if p != nil && p.CalorieOverride && p.DailyCalorieTarget != nil {
		return *p.DailyCalorieTarget, nil
	}
	if err := validate(p); err != nil {
		return 0, err
	}

	bmr := BMR(*p.WeightKg, *p.HeightCm, *p.Age, p.Sex)
	tdee := TDEE(bmr, p.ActivityLevel)
	adjusted := tdee + float64(goalAdjustments[p.Goal])

	target := int(math.Round(adjusted))
	minCalories := MinCaloriesMale
	if p.Sex == user.SexFemale {
		minCalories = MinCaloriesFemale
	}
	if target < minCalories {
		target = minCalories
	}
	return target, nil
}

// MacroTargetsFor derives gram targets from a calorie target using the
// goal-based percentage split. Each gram value is rounded independently;
// the rounded grams need not sum back to the exact calorie target.
func MacroTargetsFor(dailyCalories int, goal user.Goal) (MacroTargets, error) {
	split, ok := goalMacroSplits[goal]
	if !ok {
		return MacroTargets{}, fmt.Errorf("%w: unrecognized goal %q", ErrInvalidProfile, goal)
	}
	cal := float64(dailyCalories)
	return MacroTargets{
		ProteinG: int(math.Round(cal * split.Protein / CaloriesPerGramProtein)),
		CarbsG:   int(math.Round(cal * split.Carbs / CaloriesPerGramCarbs)),
		FatG:     int(math.Round(cal * split.Fat / CaloriesPerGramFat)),
	}, nil
}

// Compute returns the full set of daily targets for a profile. Manual
// overrides (calorie or per-macro) are honored verbatim; everything else is
// derived from the Mifflin-St Jeor formula and the goal split.
func Compute(p *user.Profile) (Targets, error) {
	calories, err := DailyTarget(p)
	if err != nil {
		return Targets{}, err
	}

	goal := user.GoalMaintain
	if p.Goal.Valid() {
		goal = p.Goal
	}
	macros, err := MacroTargetsFor(calories, goal)
	if err != nil {
		return Targets{}, err
	}

	t := Targets{
		CalorieTarget: calories,
		ProteinTarget: macros.ProteinG,
		CarbsTarget:   macros.CarbsG,
		FatTarget:     macros.FatG,
	}
	if p.MacroOverride {
		if p.ProteinTarget != nil {
			t.ProteinTarget = *p.ProteinTarget
		}
		if p.CarbsTarget != nil {
			t.CarbsTarget = *p.CarbsTarget
		}
		if p.FatTarget != nil {
			t.FatTarget = *p.FatTarget
		}
	}
	return t, nil
}

func validate(p *user.Profile) error {
	if p == nil {
		return fmt.Errorf("%w: no profile", ErrInvalidProfile)
	}
	if p.WeightKg == nil || *p.WeightKg <= 0 {
		return fmt.Errorf("%w: weight is missing or non-positive", ErrInvalidProfile)
	}
	if p.HeightCm == nil || *p.HeightCm <= 0 {
		return fmt.Errorf("%w: height is missing or non-positive", ErrInvalidProfile)
	}
	if p.Age == nil || *p.Age <= 0 {
		return fmt.Errorf("%w: age is missing or non-positive", ErrInvalidProfile)
	}
	if !p.Sex.Valid() {
		return fmt.Errorf("%w: unrecognized sex %q", ErrInvalidProfile, p.Sex)
	}
	if !p.ActivityLevel.Valid() {
		return fmt.Errorf("%w: unrecognized activity level %q", ErrInvalidProfile, p.ActivityLevel)
	}
	if !p.Goal.Valid() {
		return fmt.Errorf("%w: unrecognized goal %q", ErrInvalidProfile, p.Goal)
	}
	return nil
}
