package pet

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository provides access to pet and achievement persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new pet Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetName returns the user's pet name, creating the pet row with the default
// name on first access.
func (r *Repository) GetName(ctx context.Context, telegramID int64) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_status (telegram_id, pet_name)
		VALUES (?, ?)
		ON CONFLICT(telegram_id) DO NOTHING`,
		telegramID, DefaultName)
	if err != nil {
		return "", fmt.Errorf("failed to ensure pet row: %w", err)
	}

	var name string
	err = r.db.QueryRowContext(ctx,
		"SELECT pet_name FROM pet_status WHERE telegram_id = ?", telegramID).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("failed to get pet name: %w", err)
	}
	return name, nil
}

// Rename changes the pet's name after validating its length.
func (r *Repository) Rename(ctx context.Context, telegramID int64, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_status (telegram_id, pet_name)
		VALUES (?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET pet_name = excluded.pet_name`,
		telegramID, name)
	if err != nil {
		return fmt.Errorf("failed to rename pet: %w", err)
	}
	return nil
}

// UnlockTimes returns the persisted unlock timestamps by achievement id.
func (r *Repository) UnlockTimes(ctx context.Context, telegramID int64) (map[string]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT achievement_id, unlocked_at FROM achievements
		WHERE telegram_id = ?`,
		telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	times := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		times[id] = at
	}
	return times, rows.Err()
}

// RecordUnlock persists an achievement unlock. Recording the same unlock
// twice is a no-op so the original timestamp survives.
func (r *Repository) RecordUnlock(ctx context.Context, telegramID int64, achievementID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO achievements (telegram_id, achievement_id, unlocked_at)
		VALUES (?, ?, ?)
		ON CONFLICT(telegram_id, achievement_id) DO NOTHING`,
		telegramID, achievementID, at)
	if err != nil {
		return fmt.Errorf("failed to record achievement %s: %w", achievementID, err)
	}
	return nil
}
