// Package reminder sends the daily logging nudge and the Monday weekly
// summary to users who opted in.
package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"foodgpt-bot/internal/summary"
	"foodgpt-bot/internal/user"
)

// tickInterval is how often due reminders are checked.
const tickInterval = time.Hour

// Sender delivers a message to a user, normally over Telegram.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// UserSource is the slice of the user repository the job needs.
type UserSource interface {
	UsersForReminder(ctx context.Context, hour int) ([]*user.Profile, error)
	UsersForWeeklySummary(ctx context.Context) ([]*user.Profile, error)
	UpdateLastReminder(ctx context.Context, telegramID int64) error
	UpdateLastWeeklySummary(ctx context.Context, telegramID int64) error
}

// LogChecker reports whether a user already logged food today.
type LogChecker interface {
	HasLoggedToday(ctx context.Context, telegramID int64) (bool, error)
}

// Summaries builds the weekly nutrition summary.
type Summaries interface {
	Range(ctx context.Context, telegramID int64, start, end time.Time) (*summary.RangeSummary, error)
}

// Job periodically delivers reminders and weekly summaries.
type Job struct {
	sender    Sender
	users     UserSource
	logs      LogChecker
	summaries Summaries
	now       func() time.Time
}

// NewJob creates a reminder Job.
func NewJob(sender Sender, users UserSource, logs LogChecker, summaries Summaries) *Job {
	return &Job{
		sender:    sender,
		users:     users,
		logs:      logs,
		summaries: summaries,
		now:       time.Now,
	}
}

// Run ticks hourly until the context is cancelled.
func (j *Job) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Tick(ctx)
		}
	}
}

// Tick runs one round of due reminders and weekly summaries.
func (j *Job) Tick(ctx context.Context) {
	now := j.now()
	j.sendDailyReminders(ctx, now)
	if now.Weekday() == time.Monday {
		j.sendWeeklySummaries(ctx, now)
	}
}

func (j *Job) sendDailyReminders(ctx context.Context, now time.Time) {
	due, err := j.users.UsersForReminder(ctx, now.Hour())
	if err != nil {
		log.Printf("Error listing reminder users: %v", err)
		return
	}

	for _, p := range due {
		logged, err := j.logs.HasLoggedToday(ctx, p.TelegramID)
		if err != nil {
			log.Printf("Error checking today's logs for %d: %v", p.TelegramID, err)
			continue
		}
		if logged {
			continue
		}

		text := fmt.Sprintf("Hey %s! You haven't logged any meals today. Your pet is getting hungry - send me what you ate!", firstNameOr(p, "there"))
		if err := j.sender.SendMessage(p.TelegramID, text); err != nil {
			log.Printf("Error sending reminder to %d: %v", p.TelegramID, err)
			continue
		}
		if err := j.users.UpdateLastReminder(ctx, p.TelegramID); err != nil {
			log.Printf("Error marking reminder sent for %d: %v", p.TelegramID, err)
		}
	}
}

// sendWeeklySummaries covers the week that just ended, Monday through Sunday.
func (j *Job) sendWeeklySummaries(ctx context.Context, now time.Time) {
	due, err := j.users.UsersForWeeklySummary(ctx)
	if err != nil {
		log.Printf("Error listing weekly summary users: %v", err)
		return
	}

	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -6)

	for _, p := range due {
		s, err := j.summaries.Range(ctx, p.TelegramID, start, end)
		if err != nil {
			log.Printf("Error building weekly summary for %d: %v", p.TelegramID, err)
			continue
		}
		if s.MealsLogged == 0 {
			// Nothing logged last week, skip the summary but mark it
			// handled so it isn't retried every hour
			if err := j.users.UpdateLastWeeklySummary(ctx, p.TelegramID); err != nil {
				log.Printf("Error marking weekly summary for %d: %v", p.TelegramID, err)
			}
			continue
		}

		text := "Your week in food:\n\n" + s.Format()
		if err := j.sender.SendMessage(p.TelegramID, text); err != nil {
			log.Printf("Error sending weekly summary to %d: %v", p.TelegramID, err)
			continue
		}
		if err := j.users.UpdateLastWeeklySummary(ctx, p.TelegramID); err != nil {
			log.Printf("Error marking weekly summary for %d: %v", p.TelegramID, err)
		}
	}
}

func firstNameOr(p *user.Profile, fallback string) string {
	if p.FirstName != "" {
		return p.FirstName
	}
	return fallback
}
