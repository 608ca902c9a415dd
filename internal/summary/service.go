package summary

import (
	"context"
	"fmt"
	"time"

	"foodgpt-bot/internal/foodlog"
	"foodgpt-bot/internal/targets"
	"foodgpt-bot/internal/user"
)

// EntrySource is the slice of the food log repository the service needs.
type EntrySource interface {
	ListByDate(ctx context.Context, telegramID int64, date time.Time) ([]*foodlog.Entry, error)
	ListByRange(ctx context.Context, telegramID int64, start, end time.Time) ([]*foodlog.Entry, error)
}

// ProfileSource resolves the user profile that carries the calorie target.
type ProfileSource interface {
	Get(ctx context.Context, telegramID int64) (*user.Profile, error)
}

// Service wires the pure aggregation functions to storage.
type Service struct {
	users   ProfileSource
	entries EntrySource
}

// NewService creates a summary Service.
func NewService(users ProfileSource, entries EntrySource) *Service {
	return &Service{users: users, entries: entries}
}

// targetFor resolves the user's daily calorie target, falling back to the
// default when no profile or target exists.
func (s *Service) targetFor(ctx context.Context, telegramID int64) (int, *user.Profile, error) {
	p, err := s.users.Get(ctx, telegramID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return targets.DefaultCalorieTarget, nil, nil
	}
	return p.CalorieTargetOrDefault(targets.DefaultCalorieTarget), p, nil
}

// Day returns the aggregate for a single calendar date.
func (s *Service) Day(ctx context.Context, telegramID int64, date time.Time) (DaySummary, error) {
	target, _, err := s.targetFor(ctx, telegramID)
	if err != nil {
		return DaySummary{}, err
	}
	entries, err := s.entries.ListByDate(ctx, telegramID, date)
	if err != nil {
		return DaySummary{}, fmt.Errorf("failed to load day entries: %w", err)
	}
	return Day(entries, date, target), nil
}

// CalendarMonth returns the dated cells of the month containing ref.
func (s *Service) CalendarMonth(ctx context.Context, telegramID int64, ref time.Time) ([]CalendarDay, error) {
	target, _, err := s.targetFor(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, -1)
	entries, err := s.entries.ListByRange(ctx, telegramID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load month entries: %w", err)
	}
	return CalendarMonth(entries, target), nil
}

// RangeSeries returns per-day totals between start and end.
func (s *Service) RangeSeries(ctx context.Context, telegramID int64, start, end time.Time, zeroFill bool) ([]DayPoint, error) {
	entries, err := s.entries.ListByRange(ctx, telegramID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load range entries: %w", err)
	}
	return RangeSeries(entries, start, end, zeroFill)
}

// TrendSeries returns the zero-filled trend chart series for the window.
func (s *Service) TrendSeries(ctx context.Context, telegramID int64, start, end time.Time) ([]TrendPoint, error) {
	entries, err := s.entries.ListByRange(ctx, telegramID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load trend entries: %w", err)
	}
	return TrendSeries(entries, start, end)
}

// Range returns the full nutrition summary with insights for the window.
func (s *Service) Range(ctx context.Context, telegramID int64, start, end time.Time) (*RangeSummary, error) {
	target, p, err := s.targetFor(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByRange(ctx, telegramID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary entries: %w", err)
	}
	var weight *float64
	if p != nil {
		weight = p.WeightKg
	}
	return Summarize(entries, start, end, target, weight)
}
