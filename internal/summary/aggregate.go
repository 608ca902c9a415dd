// Package summary derives daily totals, calendar views, chart series and
// range summaries from logged meals. All computations here are pure
// functions over already-fetched entries; Service wires them to storage.
package summary

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"foodgpt-bot/internal/foodlog"
)

// ErrInvalidRange is returned for a non-positive day window or a start date
// after the end date.
var ErrInvalidRange = errors.New("invalid date range")

// Status classifies a day's calories against the daily target.
type Status string

const (
	StatusUnder Status = "under"
	StatusNear  Status = "near"
	StatusOver  Status = "over"
)

// StatusFor classifies calories against a target. The ratio is compared
// exactly, without intermediate rounding: <= 90% is under, <= 110% is near,
// above that is over. ok is false when no target exists.
func StatusFor(calories, target int) (Status, bool) {
	if target <= 0 {
		return "", false
	}
	ratio := float64(calories) / float64(target)
	switch {
	case ratio <= 0.9:
		return StatusUnder, true
	case ratio <= 1.1:
		return StatusNear, true
	default:
		return StatusOver, true
	}
}

// DayPoint is the per-day aggregate used by series and calendar views.
type DayPoint struct {
	Date      string
	Calories  int
	ProteinG  float64
	CarbsG    float64
	FatG      float64
	MealCount int
}

// DaySummary is the full aggregate for a single calendar date.
type DaySummary struct {
	Date            string
	Calories        int
	ProteinG        float64
	CarbsG          float64
	FatG            float64
	MealCount       int
	Meals           []*foodlog.Entry
	Target          int
	PercentOfTarget float64
}

// CalendarDay is one dated cell of the month view.
type CalendarDay struct {
	Date      string
	Calories  int
	MealCount int
	Status    Status
	HasStatus bool
}

// TrendPoint is one day of the trend chart.
type TrendPoint struct {
	Date      string
	Calories  int
	MovingAvg float64
}

const dateLayout = "2006-01-02"

// Day aggregates the entries of a single calendar date. Entries from other
// dates are ignored; meals are returned in ascending log order.
func Day(entries []*foodlog.Entry, date time.Time, target int) DaySummary {
	day := date.Format(dateLayout)
	s := DaySummary{Date: day, Target: target}

	for _, e := range entries {
		if e.Date() != day {
			continue
		}
		s.Calories += e.TotalCalories
		s.ProteinG += e.TotalProtein
		s.CarbsG += e.TotalCarbs
		s.FatG += e.TotalFat
		s.MealCount++
		s.Meals = append(s.Meals, e)
	}
	sort.SliceStable(s.Meals, func(i, j int) bool {
		return s.Meals[i].LoggedAt.Before(s.Meals[j].LoggedAt)
	})

	if target > 0 {
		s.PercentOfTarget = float64(s.Calories) / float64(target) * 100
	}
	return s
}

// CalendarMonth buckets entries by date and classifies each day with at
// least one meal. Days without meals are omitted, not zero-filled. The
// status is present only when a target exists.
func CalendarMonth(entries []*foodlog.Entry, target int) []CalendarDay {
	buckets := bucketByDate(entries)

	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	days := make([]CalendarDay, 0, len(dates))
	for _, d := range dates {
		p := buckets[d]
		cd := CalendarDay{
			Date:      d,
			Calories:  p.Calories,
			MealCount: p.MealCount,
		}
		cd.Status, cd.HasStatus = StatusFor(p.Calories, target)
		days = append(days, cd)
	}
	return days
}

// RangeSeries produces per-day totals between start and end (inclusive).
// With zeroFill, every day in the range appears, so the series always spans
// exactly the requested window; otherwise days without meals are omitted.
func RangeSeries(entries []*foodlog.Entry, start, end time.Time, zeroFill bool) ([]DayPoint, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s after end %s",
			ErrInvalidRange, start.Format(dateLayout), end.Format(dateLayout))
	}

	buckets := bucketByDate(entries)

	var series []DayPoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		p, ok := buckets[key]
		if !ok {
			if !zeroFill {
				continue
			}
			p = DayPoint{Date: key}
		}
		series = append(series, p)
	}
	return series, nil
}

// Averages are the per-day means over a series. The divisor is the series
// length, not the count of non-zero days.
type Averages struct {
	Calories int
	ProteinG float64
	CarbsG   float64
	FatG     float64
}

// Average computes per-day means over a (normally zero-filled) series.
func Average(series []DayPoint) Averages {
	n := len(series)
	if n == 0 {
		return Averages{}
	}
	var totalCal int
	var protein, carbs, fat float64
	for _, p := range series {
		totalCal += p.Calories
		protein += p.ProteinG
		carbs += p.CarbsG
		fat += p.FatG
	}
	return Averages{
		Calories: totalCal / n,
		ProteinG: protein / float64(n),
		CarbsG:   carbs / float64(n),
		FatG:     fat / float64(n),
	}
}

// TrendSeries produces the zero-filled calories series for the window plus a
// trailing moving average per day, computed over the current day and up to
// six preceding days of the series. Days at the start of the window average
// over however many days exist; zero-meal days count as zeros.
func TrendSeries(entries []*foodlog.Entry, start, end time.Time) ([]TrendPoint, error) {
	daily, err := RangeSeries(entries, start, end, true)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, len(daily))
	windowSum := 0
	for i, p := range daily {
		windowSum += p.Calories
		if i >= 7 {
			windowSum -= daily[i-7].Calories
		}
		window := i + 1
		if window > 7 {
			window = 7
		}
		points[i] = TrendPoint{
			Date:      p.Date,
			Calories:  p.Calories,
			MovingAvg: float64(windowSum) / float64(window),
		}
	}
	return points, nil
}

func bucketByDate(entries []*foodlog.Entry) map[string]DayPoint {
	buckets := make(map[string]DayPoint)
	for _, e := range entries {
		key := e.Date()
		p := buckets[key]
		p.Date = key
		p.Calories += e.TotalCalories
		p.ProteinG += e.TotalProtein
		p.CarbsG += e.TotalCarbs
		p.FatG += e.TotalFat
		p.MealCount++
		buckets[key] = p
	}
	return buckets
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
