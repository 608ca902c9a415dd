package reminder

import (
	"context"
	"strings"
	"testing"
	"time"

	"foodgpt-bot/internal/summary"
	"foodgpt-bot/internal/user"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID, text})
	return nil
}

type fakeUsers struct {
	reminderDue []*user.Profile
	weeklyDue   []*user.Profile

	remindersMarked []int64
	weekliesMarked  []int64
}

func (f *fakeUsers) UsersForReminder(ctx context.Context, hour int) ([]*user.Profile, error) {
	return f.reminderDue, nil
}

func (f *fakeUsers) UsersForWeeklySummary(ctx context.Context) ([]*user.Profile, error) {
	return f.weeklyDue, nil
}

func (f *fakeUsers) UpdateLastReminder(ctx context.Context, telegramID int64) error {
	f.remindersMarked = append(f.remindersMarked, telegramID)
	return nil
}

func (f *fakeUsers) UpdateLastWeeklySummary(ctx context.Context, telegramID int64) error {
	f.weekliesMarked = append(f.weekliesMarked, telegramID)
	return nil
}

type fakeLogs struct {
	logged map[int64]bool
}

func (f *fakeLogs) HasLoggedToday(ctx context.Context, telegramID int64) (bool, error) {
	return f.logged[telegramID], nil
}

type fakeSummaries struct {
	meals int
}

func (f *fakeSummaries) Range(ctx context.Context, telegramID int64, start, end time.Time) (*summary.RangeSummary, error) {
	return &summary.RangeSummary{
		Start:       start.Format("2006-01-02"),
		End:         end.Format("2006-01-02"),
		Days:        7,
		MealsLogged: f.meals,
		AvgCalories: 1900,
	}, nil
}

func profile(id int64, name string) *user.Profile {
	return &user.Profile{TelegramID: id, FirstName: name}
}

func newTestJob(sender *fakeSender, users *fakeUsers, logs *fakeLogs, sums *fakeSummaries, now time.Time) *Job {
	j := NewJob(sender, users, logs, sums)
	j.now = func() time.Time { return now }
	return j
}

func TestDailyReminders(t *testing.T) {
	// A Friday at 20:00
	now := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)

	t.Run("RemindsOnlyUsersWithoutLogs", func(t *testing.T) {
		sender := &fakeSender{}
		users := &fakeUsers{reminderDue: []*user.Profile{profile(1, "Ana"), profile(2, "Bo")}}
		logs := &fakeLogs{logged: map[int64]bool{2: true}}

		newTestJob(sender, users, logs, &fakeSummaries{}, now).Tick(context.Background())

		if len(sender.sent) != 1 || sender.sent[0].chatID != 1 {
			t.Fatalf("Expected one reminder to user 1, got %+v", sender.sent)
		}
		if !strings.Contains(sender.sent[0].text, "Ana") {
			t.Errorf("Expected reminder to address Ana, got %q", sender.sent[0].text)
		}
		if len(users.remindersMarked) != 1 || users.remindersMarked[0] != 1 {
			t.Errorf("Expected reminder marked for user 1, got %v", users.remindersMarked)
		}
	})

	t.Run("NoWeeklySummaryOffMonday", func(t *testing.T) {
		sender := &fakeSender{}
		users := &fakeUsers{weeklyDue: []*user.Profile{profile(1, "Ana")}}

		newTestJob(sender, users, &fakeLogs{}, &fakeSummaries{meals: 5}, now).Tick(context.Background())

		if len(sender.sent) != 0 {
			t.Errorf("Expected no weekly summary on a Friday, got %+v", sender.sent)
		}
	})
}

func TestWeeklySummaries(t *testing.T) {
	// A Monday at 09:00
	monday := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	t.Run("CoversPreviousMondayToSunday", func(t *testing.T) {
		sender := &fakeSender{}
		users := &fakeUsers{weeklyDue: []*user.Profile{profile(1, "Ana")}}

		newTestJob(sender, users, &fakeLogs{}, &fakeSummaries{meals: 12}, monday).Tick(context.Background())

		if len(sender.sent) != 1 {
			t.Fatalf("Expected one weekly summary, got %+v", sender.sent)
		}
		if !strings.Contains(sender.sent[0].text, "2026-08-24") || !strings.Contains(sender.sent[0].text, "2026-08-30") {
			t.Errorf("Expected summary for 2026-08-24 to 2026-08-30, got %q", sender.sent[0].text)
		}
		if len(users.weekliesMarked) != 1 {
			t.Errorf("Expected weekly summary marked, got %v", users.weekliesMarked)
		}
	})

	t.Run("EmptyWeekSkipsMessageButMarks", func(t *testing.T) {
		sender := &fakeSender{}
		users := &fakeUsers{weeklyDue: []*user.Profile{profile(1, "Ana")}}

		newTestJob(sender, users, &fakeLogs{}, &fakeSummaries{meals: 0}, monday).Tick(context.Background())

		if len(sender.sent) != 0 {
			t.Errorf("Expected no message for an empty week, got %+v", sender.sent)
		}
		if len(users.weekliesMarked) != 1 {
			t.Errorf("Expected weekly summary still marked, got %v", users.weekliesMarked)
		}
	})
}
