package telegram

import (
	"fmt"
	"strings"
	"time"
)

// ParseDateExpr resolves a human date expression to an inclusive date range.
// Supported forms: "", "today", "yesterday", "this week", "last week",
// "this month", "last month", "YYYY-MM-DD", and "YYYY-MM-DD to YYYY-MM-DD".
// Weeks run Monday through Sunday. An empty expression means today.
func ParseDateExpr(expr string, now time.Time) (start, end time.Time, err error) {
	expr = strings.TrimSpace(strings.ToLower(expr))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch expr {
	case "", "today":
		return today, today, nil
	case "yesterday":
		y := today.AddDate(0, 0, -1)
		return y, y, nil
	case "this week":
		start = weekStart(today)
		return start, today, nil
	case "last week":
		start = weekStart(today).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 6), nil
	case "this month":
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return start, today, nil
	case "last month":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		start = first.AddDate(0, -1, 0)
		return start, first.AddDate(0, 0, -1), nil
	}

	if before, after, found := strings.Cut(expr, " to "); found {
		start, err = parseDay(before, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err = parseDay(after, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if start.After(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s",
				start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		return start, end, nil
	}

	d, err := parseDay(expr, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return d, d, nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q, use YYYY-MM-DD", strings.TrimSpace(s))
	}
	return d, nil
}

// weekStart returns the Monday of the week containing d.
func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
