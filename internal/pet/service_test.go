package pet

import (
	"context"
	"testing"
	"time"

	"foodgpt-bot/internal/foodlog"
	"foodgpt-bot/internal/user"
)

type fakeStore struct {
	name     string
	unlocked map[string]time.Time
	records  []string
}

func (f *fakeStore) GetName(ctx context.Context, telegramID int64) (string, error) {
	if f.name == "" {
		return DefaultName, nil
	}
	return f.name, nil
}

func (f *fakeStore) Rename(ctx context.Context, telegramID int64, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	f.name = name
	return nil
}

func (f *fakeStore) UnlockTimes(ctx context.Context, telegramID int64) (map[string]time.Time, error) {
	return f.unlocked, nil
}

func (f *fakeStore) RecordUnlock(ctx context.Context, telegramID int64, achievementID string, at time.Time) error {
	if f.unlocked == nil {
		f.unlocked = make(map[string]time.Time)
	}
	if _, ok := f.unlocked[achievementID]; !ok {
		f.unlocked[achievementID] = at
		f.records = append(f.records, achievementID)
	}
	return nil
}

type fakeLogs struct {
	count int
	dates []time.Time
	today []*foodlog.Entry
}

func (f *fakeLogs) CountByUser(ctx context.Context, telegramID int64) (int, error) {
	return f.count, nil
}

func (f *fakeLogs) DistinctDates(ctx context.Context, telegramID int64) ([]time.Time, error) {
	return f.dates, nil
}

func (f *fakeLogs) ListByDate(ctx context.Context, telegramID int64, date time.Time) ([]*foodlog.Entry, error) {
	return f.today, nil
}

type fakeUsers struct {
	profile *user.Profile
}

func (f *fakeUsers) Get(ctx context.Context, telegramID int64) (*user.Profile, error) {
	return f.profile, nil
}

func newTestService(store *fakeStore, logs *fakeLogs) *Service {
	target := 2000
	s := NewService(store, logs, &fakeUsers{profile: &user.Profile{
		TelegramID:         1,
		DailyCalorieTarget: &target,
	}})
	s.now = func() time.Time { return time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC) }
	return s
}

func TestServiceState(t *testing.T) {
	logs := &fakeLogs{
		count: 60,
		today: []*foodlog.Entry{{TotalCalories: 1500}, {TotalCalories: 700}},
	}
	svc := newTestService(&fakeStore{}, logs)

	state, err := svc.State(context.Background(), 1)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state.Name != DefaultName {
		t.Errorf("Expected default name %q, got %q", DefaultName, state.Name)
	}
	if state.Level != LevelTeen {
		t.Errorf("Expected teen at 60 meals, got %s", state.Level)
	}
	// 2200/2000 = 110%, ecstatic
	if state.Mood != MoodEcstatic {
		t.Errorf("Expected ecstatic mood, got %s", state.Mood)
	}
	if state.AssetKey != "teen-ecstatic" {
		t.Errorf("Expected asset teen-ecstatic, got %q", state.AssetKey)
	}
}

func TestServiceFeed(t *testing.T) {
	t.Run("EvolutionOnSecondMeal", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(store, &fakeLogs{count: 2})

		res, err := svc.Feed(context.Background(), 1)
		if err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
		if !res.Evolved {
			t.Error("Expected evolution from egg to baby")
		}
		if res.PreviousLevel != LevelEgg || res.State.Level != LevelBaby {
			t.Errorf("Expected egg -> baby, got %s -> %s", res.PreviousLevel, res.State.Level)
		}
	})

	t.Run("UnlocksArePersistedOnce", func(t *testing.T) {
		store := &fakeStore{}
		svc := newTestService(store, &fakeLogs{count: 1})

		res, err := svc.Feed(context.Background(), 1)
		if err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
		if len(res.NewAchievements) != 1 || res.NewAchievements[0].ID != "first_bite" {
			t.Fatalf("Expected first_bite unlock, got %+v", res.NewAchievements)
		}

		res, err = svc.Feed(context.Background(), 1)
		if err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
		if len(res.NewAchievements) != 0 {
			t.Errorf("Expected no new achievements on repeat feed, got %+v", res.NewAchievements)
		}
		if len(store.records) != 1 {
			t.Errorf("Expected a single persisted unlock, got %v", store.records)
		}
	})
}
