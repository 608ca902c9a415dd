package pet

import "time"

// AchievementKind selects which progress counter an achievement tracks.
type AchievementKind string

const (
	KindMeals     AchievementKind = "meals"
	KindStreak    AchievementKind = "streak"
	KindEvolution AchievementKind = "evolution"
)

// AchievementDef is one entry of the fixed achievement catalog.
type AchievementDef struct {
	ID          string
	Title       string
	Description string
	Kind        AchievementKind
	Threshold   int
	Level       Level
}

// Catalog is the full achievement list in display order.
var Catalog = []AchievementDef{
	{ID: "first_bite", Title: "First Bite", Description: "Log your first meal", Kind: KindMeals, Threshold: 1},
	{ID: "getting_started", Title: "Getting Started", Description: "Log 10 meals", Kind: KindMeals, Threshold: 10},
	{ID: "century_club", Title: "Century Club", Description: "Log 100 meals", Kind: KindMeals, Threshold: 100},
	{ID: "dedicated", Title: "Dedicated", Description: "Log 500 meals", Kind: KindMeals, Threshold: 500},
	{ID: "week_warrior", Title: "Week Warrior", Description: "Log every day for 7 days", Kind: KindStreak, Threshold: 7},
	{ID: "fortnight_fighter", Title: "Fortnight Fighter", Description: "Log every day for 14 days", Kind: KindStreak, Threshold: 14},
	{ID: "month_master", Title: "Month Master", Description: "Log every day for 30 days", Kind: KindStreak, Threshold: 30},
	{ID: "hatched", Title: "Hatched", Description: "Your pet hatched from its egg", Kind: KindEvolution, Level: LevelBaby},
	{ID: "growing_up", Title: "Growing Up", Description: "Your pet became a teen", Kind: KindEvolution, Level: LevelTeen},
	{ID: "all_grown", Title: "All Grown", Description: "Your pet became an adult", Kind: KindEvolution, Level: LevelAdult},
	{ID: "wise_one", Title: "Wise One", Description: "Your pet became an elder", Kind: KindEvolution, Level: LevelElder},
}

// levelRank orders life stages for evolution achievement checks.
var levelRank = map[Level]int{
	LevelEgg:   0,
	LevelBaby:  1,
	LevelTeen:  2,
	LevelAdult: 3,
	LevelElder: 4,
}

// Earned reports whether the achievement is satisfied by the given progress.
func (d AchievementDef) Earned(mealCount int, streaks StreakInfo, level Level) bool {
	switch d.Kind {
	case KindMeals:
		return mealCount >= d.Threshold
	case KindStreak:
		return streaks.Best >= d.Threshold
	case KindEvolution:
		return levelRank[level] >= levelRank[d.Level]
	}
	return false
}

// Achievement is a catalog entry with its unlock state for one user.
type Achievement struct {
	AchievementDef
	Unlocked   bool
	UnlockedAt *time.Time
}

// Evaluate walks the catalog in order and marks each entry earned or not.
// unlockedAt carries previously persisted unlock times by achievement id.
func Evaluate(mealCount int, streaks StreakInfo, unlockedAt map[string]time.Time) []Achievement {
	level := LevelFor(mealCount)
	out := make([]Achievement, 0, len(Catalog))
	for _, def := range Catalog {
		a := Achievement{AchievementDef: def}
		if def.Earned(mealCount, streaks, level) {
			a.Unlocked = true
			if ts, ok := unlockedAt[def.ID]; ok {
				a.UnlockedAt = &ts
			}
		}
		out = append(out, a)
	}
	return out
}
