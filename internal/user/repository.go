package user

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Repository provides access to user profiles.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// allowed columns for partial updates; anything else is rejected.
var updatableColumns = map[string]bool{
	"username":                 true,
	"first_name":               true,
	"weight":                   true,
	"height":                   true,
	"age":                      true,
	"sex":                      true,
	"activity_level":           true,
	"goal":                     true,
	"daily_calorie_target":     true,
	"calorie_override":         true,
	"protein_target":           true,
	"carbs_target":             true,
	"fat_target":               true,
	"macro_override":           true,
	"onboarding_complete":      true,
	"notifications_enabled":    true,
	"reminder_hour":            true,
	"last_reminder_sent":       true,
	"weekly_summary_enabled":   true,
	"last_weekly_summary_sent": true,
}

// Create inserts a user or refreshes identity fields for an existing one.
func (r *Repository) Create(ctx context.Context, telegramID int64, username, firstName string) (*Profile, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name)
		VALUES (?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			updated_at = CURRENT_TIMESTAMP`,
		telegramID, username, firstName)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %d: %w", telegramID, err)
	}
	return r.Get(ctx, telegramID)
}

// Get returns the profile for a telegram ID, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, telegramID int64) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT telegram_id, username, first_name, weight, height, age, sex,
		       activity_level, goal, daily_calorie_target, calorie_override,
		       protein_target, carbs_target, fat_target, macro_override,
		       onboarding_complete, notifications_enabled, reminder_hour,
		       last_reminder_sent, weekly_summary_enabled, last_weekly_summary_sent,
		       created_at, updated_at
		FROM users WHERE telegram_id = ?`,
		telegramID)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", telegramID, err)
	}
	return p, nil
}

// UpdateFields applies a partial update. Column names outside the users
// schema are rejected.
func (r *Repository) UpdateFields(ctx context.Context, telegramID int64, fields map[string]any) (*Profile, error) {
	if len(fields) == 0 {
		return r.Get(ctx, telegramID)
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableColumns[col] {
			return nil, fmt.Errorf("unknown user column %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	setClauses := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		setClauses = append(setClauses, col+" = ?")
		args = append(args, fields[col])
	}
	args = append(args, telegramID)

	query := fmt.Sprintf(
		"UPDATE users SET %s, updated_at = CURRENT_TIMESTAMP WHERE telegram_id = ?",
		strings.Join(setClauses, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", telegramID, err)
	}
	return r.Get(ctx, telegramID)
}

// Delete removes a user. Meals, pet state and achievements cascade.
func (r *Repository) Delete(ctx context.Context, telegramID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE telegram_id = ?", telegramID); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", telegramID, err)
	}
	return nil
}

// SetDailyTarget stores a computed calorie target without marking an override.
func (r *Repository) SetDailyTarget(ctx context.Context, telegramID int64, calories int) (*Profile, error) {
	return r.UpdateFields(ctx, telegramID, map[string]any{
		"daily_calorie_target": calories,
		"calorie_override":     0,
	})
}

// SetCalorieOverride stores a manual calorie target.
func (r *Repository) SetCalorieOverride(ctx context.Context, telegramID int64, calories int) (*Profile, error) {
	return r.UpdateFields(ctx, telegramID, map[string]any{
		"daily_calorie_target": calories,
		"calorie_override":     1,
	})
}

// ClearCalorieOverride reverts to auto-calculated targets.
func (r *Repository) ClearCalorieOverride(ctx context.Context, telegramID int64, computed int) (*Profile, error) {
	return r.UpdateFields(ctx, telegramID, map[string]any{
		"daily_calorie_target": computed,
		"calorie_override":     0,
	})
}

// SetMacroOverrides stores manual macro targets (grams).
func (r *Repository) SetMacroOverrides(ctx context.Context, telegramID int64, proteinG, carbsG, fatG int) (*Profile, error) {
	return r.UpdateFields(ctx, telegramID, map[string]any{
		"protein_target": proteinG,
		"carbs_target":   carbsG,
		"fat_target":     fatG,
		"macro_override": 1,
	})
}

// ResetMacroOverrides clears all three macro overrides so targets are derived
// from the goal split again.
func (r *Repository) ResetMacroOverrides(ctx context.Context, telegramID int64) (*Profile, error) {
	return r.UpdateFields(ctx, telegramID, map[string]any{
		"protein_target": nil,
		"carbs_target":   nil,
		"fat_target":     nil,
		"macro_override": 0,
	})
}

// SetNotificationsEnabled toggles daily reminders.
func (r *Repository) SetNotificationsEnabled(ctx context.Context, telegramID int64, enabled bool) (*Profile, error) {
	v := 0
	if enabled {
		v = 1
	}
	return r.UpdateFields(ctx, telegramID, map[string]any{"notifications_enabled": v})
}

// SetReminderHour sets the preferred reminder hour (0-23).
func (r *Repository) SetReminderHour(ctx context.Context, telegramID int64, hour int) (*Profile, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("reminder hour must be between 0 and 23, got %d", hour)
	}
	return r.UpdateFields(ctx, telegramID, map[string]any{"reminder_hour": hour})
}

// SetOnboardingComplete marks onboarding done with the calculated target.
func (r *Repository) SetOnboardingComplete(ctx context.Context, telegramID int64, dailyTarget int) (*Profile, error) {
	return r.UpdateFields(ctx, telegramID, map[string]any{
		"daily_calorie_target": dailyTarget,
		"onboarding_complete":  1,
	})
}

// UsersForReminder returns users eligible for a reminder at the given hour:
// onboarded, notifications on, matching hour, not already reminded today.
func (r *Repository) UsersForReminder(ctx context.Context, hour int) ([]*Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT telegram_id, username, first_name, weight, height, age, sex,
		       activity_level, goal, daily_calorie_target, calorie_override,
		       protein_target, carbs_target, fat_target, macro_override,
		       onboarding_complete, notifications_enabled, reminder_hour,
		       last_reminder_sent, weekly_summary_enabled, last_weekly_summary_sent,
		       created_at, updated_at
		FROM users
		WHERE onboarding_complete = 1
		AND notifications_enabled = 1
		AND reminder_hour = ?
		AND (last_reminder_sent IS NULL OR date(last_reminder_sent) < date('now'))`,
		hour)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder users: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

// UsersForWeeklySummary returns onboarded users with weekly summaries enabled
// who have not received one in the last six days.
func (r *Repository) UsersForWeeklySummary(ctx context.Context) ([]*Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT telegram_id, username, first_name, weight, height, age, sex,
		       activity_level, goal, daily_calorie_target, calorie_override,
		       protein_target, carbs_target, fat_target, macro_override,
		       onboarding_complete, notifications_enabled, reminder_hour,
		       last_reminder_sent, weekly_summary_enabled, last_weekly_summary_sent,
		       created_at, updated_at
		FROM users
		WHERE onboarding_complete = 1
		AND weekly_summary_enabled = 1
		AND (last_weekly_summary_sent IS NULL OR date(last_weekly_summary_sent) < date('now', '-6 days'))`)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly summary users: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

// UpdateLastReminder records that a reminder was just sent.
func (r *Repository) UpdateLastReminder(ctx context.Context, telegramID int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_reminder_sent = CURRENT_TIMESTAMP WHERE telegram_id = ?", telegramID)
	return err
}

// UpdateLastWeeklySummary records that a weekly summary was just sent.
func (r *Repository) UpdateLastWeeklySummary(ctx context.Context, telegramID int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_weekly_summary_sent = CURRENT_TIMESTAMP WHERE telegram_id = ?", telegramID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p                    Profile
		username, firstName  sql.NullString
		weight, height       sql.NullFloat64
		age                  sql.NullInt64
		sex, activity, goal  sql.NullString
		calTarget            sql.NullInt64
		calOverride          sql.NullInt64
		protein, carbs, fat  sql.NullInt64
		macroOverride        sql.NullInt64
		onboarding, notifs   sql.NullInt64
		reminderHour         sql.NullInt64
		lastReminder         sql.NullTime
		weeklyEnabled        sql.NullInt64
		lastWeekly           sql.NullTime
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&p.TelegramID, &username, &firstName, &weight, &height, &age, &sex,
		&activity, &goal, &calTarget, &calOverride,
		&protein, &carbs, &fat, &macroOverride,
		&onboarding, &notifs, &reminderHour,
		&lastReminder, &weeklyEnabled, &lastWeekly,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Username = username.String
	p.FirstName = firstName.String
	if weight.Valid {
		p.WeightKg = &weight.Float64
	}
	if height.Valid {
		p.HeightCm = &height.Float64
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	p.Sex = Sex(sex.String)
	p.ActivityLevel = ActivityLevel(activity.String)
	p.Goal = Goal(goal.String)
	if calTarget.Valid {
		v := int(calTarget.Int64)
		p.DailyCalorieTarget = &v
	}
	p.CalorieOverride = calOverride.Int64 != 0
	if protein.Valid {
		v := int(protein.Int64)
		p.ProteinTarget = &v
	}
	if carbs.Valid {
		v := int(carbs.Int64)
		p.CarbsTarget = &v
	}
	if fat.Valid {
		v := int(fat.Int64)
		p.FatTarget = &v
	}
	p.MacroOverride = macroOverride.Int64 != 0
	p.OnboardingComplete = onboarding.Int64 != 0
	p.NotificationsEnabled = notifs.Int64 != 0
	p.ReminderHour = DefaultReminderHour
	if reminderHour.Valid {
		p.ReminderHour = int(reminderHour.Int64)
	}
	if lastReminder.Valid {
		t := lastReminder.Time
		p.LastReminderSent = &t
	}
	p.WeeklySummaryEnabled = weeklyEnabled.Int64 != 0
	if lastWeekly.Valid {
		t := lastWeekly.Time
		p.LastWeeklySummarySent = &t
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}

func collectProfiles(rows *sql.Rows) ([]*Profile, error) {
	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
