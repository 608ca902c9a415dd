// Package pet implements the virtual pet that grows with logged meals, plus
// the streaks and achievements that reward consistent logging.
package pet

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// DefaultName is the name a pet starts with before the user renames it.
const DefaultName = "Nibbles"

// Pet name length limits in runes.
const (
	MinNameLen = 1
	MaxNameLen = 20
)

// ErrInvalidName is returned for a pet name outside the allowed length.
var ErrInvalidName = errors.New("pet name must be 1-20 characters")

// Level is a pet life stage, derived from the total number of logged meals.
type Level string

const (
	LevelEgg   Level = "egg"
	LevelBaby  Level = "baby"
	LevelTeen  Level = "teen"
	LevelAdult Level = "adult"
	LevelElder Level = "elder"
)

// Mood reflects how close today's calories are to the target, in percent.
type Mood string

const (
	MoodStarving Mood = "starving"
	MoodHungry   Mood = "hungry"
	MoodHappy    Mood = "happy"
	MoodEcstatic Mood = "ecstatic"
	MoodStuffed  Mood = "stuffed"
)

// LevelFor maps a lifetime meal count to a life stage.
func LevelFor(mealCount int) Level {
	switch {
	case mealCount <= 1:
		return LevelEgg
	case mealCount <= 50:
		return LevelBaby
	case mealCount <= 150:
		return LevelTeen
	case mealCount <= 500:
		return LevelAdult
	default:
		return LevelElder
	}
}

// MoodFor maps the percentage of today's calorie target consumed to a mood.
// The percentage is truncated to a whole number before comparison.
func MoodFor(percentOfTarget float64) Mood {
	pct := int(percentOfTarget)
	switch {
	case pct <= 0:
		return MoodStarving
	case pct < 50:
		return MoodHungry
	case pct < 100:
		return MoodHappy
	case pct <= 120:
		return MoodEcstatic
	default:
		return MoodStuffed
	}
}

// AssetKey names the sprite for a level and mood combination. An egg has no
// moods, so its key is the bare level name.
func AssetKey(level Level, mood Mood) string {
	if level == LevelEgg {
		return string(LevelEgg)
	}
	return fmt.Sprintf("%s-%s", level, mood)
}

// ValidateName checks a pet name against the length limits.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinNameLen || n > MaxNameLen {
		return ErrInvalidName
	}
	return nil
}

// StreakInfo holds the current and best consecutive-day logging streaks.
type StreakInfo struct {
	Current int
	Best    int
}

// Streaks computes logging streaks from the sorted distinct dates a user has
// logged on. The current streak counts back from today, or from yesterday
// when today has no log yet; any older gap breaks it.
func Streaks(dates []time.Time, today time.Time) StreakInfo {
	if len(dates) == 0 {
		return StreakInfo{}
	}

	var info StreakInfo
	run := 1
	for i := 1; i < len(dates); i++ {
		if sameDay(dates[i], dates[i-1].AddDate(0, 0, 1)) {
			run++
			continue
		}
		if run > info.Best {
			info.Best = run
		}
		run = 1
	}
	if run > info.Best {
		info.Best = run
	}

	last := dates[len(dates)-1]
	if sameDay(last, today) || sameDay(last, today.AddDate(0, 0, -1)) {
		info.Current = run
	}
	return info
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
