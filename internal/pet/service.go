package pet

import (
	"context"
	"fmt"
	"time"

	"foodgpt-bot/internal/foodlog"
	"foodgpt-bot/internal/targets"
	"foodgpt-bot/internal/user"
)

// LogStats is the slice of the food log repository the pet needs.
type LogStats interface {
	CountByUser(ctx context.Context, telegramID int64) (int, error)
	DistinctDates(ctx context.Context, telegramID int64) ([]time.Time, error)
	ListByDate(ctx context.Context, telegramID int64, date time.Time) ([]*foodlog.Entry, error)
}

// ProfileSource resolves the profile carrying the calorie target.
type ProfileSource interface {
	Get(ctx context.Context, telegramID int64) (*user.Profile, error)
}

// Store is the persistence surface of the pet service.
type Store interface {
	GetName(ctx context.Context, telegramID int64) (string, error)
	Rename(ctx context.Context, telegramID int64, name string) error
	UnlockTimes(ctx context.Context, telegramID int64) (map[string]time.Time, error)
	RecordUnlock(ctx context.Context, telegramID int64, achievementID string, at time.Time) error
}

// Service derives the pet's state from logging history and records
// achievement unlocks as they happen.
type Service struct {
	store Store
	logs  LogStats
	users ProfileSource
	now   func() time.Time
}

// NewService creates a pet Service.
func NewService(store Store, logs LogStats, users ProfileSource) *Service {
	return &Service{store: store, logs: logs, users: users, now: time.Now}
}

// State is the pet's full presentation state.
type State struct {
	Name            string
	Level           Level
	Mood            Mood
	AssetKey        string
	MealCount       int
	Streaks         StreakInfo
	TodayCalories   int
	PercentOfTarget float64
	Achievements    []Achievement
}

// State computes the pet's current state. The mood follows today's calories
// against the target; achievements are re-evaluated from history on every
// call so they survive meal deletions consistently.
func (s *Service) State(ctx context.Context, telegramID int64) (*State, error) {
	name, err := s.store.GetName(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	count, err := s.logs.CountByUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	dates, err := s.logs.DistinctDates(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	streaks := Streaks(dates, s.now())

	today, err := s.logs.ListByDate(ctx, telegramID, s.now())
	if err != nil {
		return nil, err
	}
	var todayCalories int
	for _, e := range today {
		todayCalories += e.TotalCalories
	}

	p, err := s.users.Get(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	target := p.CalorieTargetOrDefault(targets.DefaultCalorieTarget)
	pct := float64(todayCalories) / float64(target) * 100

	unlockTimes, err := s.store.UnlockTimes(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	level := LevelFor(count)
	mood := MoodFor(pct)
	return &State{
		Name:            name,
		Level:           level,
		Mood:            mood,
		AssetKey:        AssetKey(level, mood),
		MealCount:       count,
		Streaks:         streaks,
		TodayCalories:   todayCalories,
		PercentOfTarget: pct,
		Achievements:    Evaluate(count, streaks, unlockTimes),
	}, nil
}

// FeedResult describes what changed after a meal was logged.
type FeedResult struct {
	State           *State
	Evolved         bool
	PreviousLevel   Level
	NewAchievements []Achievement
}

// Feed refreshes the pet after a meal was logged: it detects a level change
// and persists any newly earned achievements, returning them so callers can
// announce the unlocks.
func (s *Service) Feed(ctx context.Context, telegramID int64) (*FeedResult, error) {
	state, err := s.State(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	res := &FeedResult{
		State:         state,
		PreviousLevel: LevelFor(state.MealCount - 1),
	}
	res.Evolved = res.PreviousLevel != state.Level

	now := s.now()
	for i, a := range state.Achievements {
		if !a.Unlocked || a.UnlockedAt != nil {
			continue
		}
		if err := s.store.RecordUnlock(ctx, telegramID, a.ID, now); err != nil {
			return nil, err
		}
		at := now
		state.Achievements[i].UnlockedAt = &at
		res.NewAchievements = append(res.NewAchievements, state.Achievements[i])
	}
	return res, nil
}

// Rename changes the pet's name.
func (s *Service) Rename(ctx context.Context, telegramID int64, name string) error {
	return s.store.Rename(ctx, telegramID, name)
}
