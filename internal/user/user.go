package user

import "time"

// Sex is the biological sex used for calorie calculations.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ActivityLevel is the physical activity level used for TDEE calculations.
type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightly_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivityVeryActive       ActivityLevel = "very_active"
)

// Goal is the weight management goal.
type Goal string

const (
	GoalLose        Goal = "lose"
	GoalMaintain    Goal = "maintain"
	GoalGain        Goal = "gain"
	GoalGainMuscles Goal = "gain_muscles"
)

// DefaultReminderHour is the reminder hour assigned to new users (24h clock).
const DefaultReminderHour = 20

// Valid reports whether s is a known sex value.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// Valid reports whether a is a known activity level.
func (a ActivityLevel) Valid() bool {
	switch a {
	case ActivitySedentary, ActivityLightlyActive, ActivityModeratelyActive, ActivityVeryActive:
		return true
	}
	return false
}

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	switch g {
	case GoalLose, GoalMaintain, GoalGain, GoalGainMuscles:
		return true
	}
	return false
}

// Profile is a user profile. Optional attributes are pointers so an unset
// value is distinguishable from zero.
type Profile struct {
	TelegramID int64
	Username   string
	FirstName  string

	WeightKg      *float64
	HeightCm      *float64
	Age           *int
	Sex           Sex
	ActivityLevel ActivityLevel
	Goal          Goal

	DailyCalorieTarget *int
	CalorieOverride    bool
	ProteinTarget      *int
	CarbsTarget        *int
	FatTarget          *int
	MacroOverride      bool

	OnboardingComplete    bool
	NotificationsEnabled  bool
	ReminderHour          int
	LastReminderSent      *time.Time
	WeeklySummaryEnabled  bool
	LastWeeklySummarySent *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalorieTargetOrDefault returns the user's daily calorie target, or def when
// none has been set yet.
func (p *Profile) CalorieTargetOrDefault(def int) int {
	if p != nil && p.DailyCalorieTarget != nil && *p.DailyCalorieTarget > 0 {
		return *p.DailyCalorieTarget
	}
	return def
}
