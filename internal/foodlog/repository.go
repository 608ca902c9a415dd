package foodlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository provides access to food log persistence.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new food log Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const entryColumns = `id, telegram_id, logged_at, input_type, raw_input,
	photo_file_id, analysis_json, total_calories, total_protein, total_carbs,
	total_fat, confidence_score`

// Insert creates a new food log entry. Totals are recomputed from the item
// list before writing so the aggregate always matches the items.
func (r *Repository) Insert(ctx context.Context, e *Entry) (*Entry, error) {
	e.Analysis.RecomputeTotals()
	e.TotalCalories = e.Analysis.Totals.Calories
	e.TotalProtein = e.Analysis.Totals.ProteinG
	e.TotalCarbs = e.Analysis.Totals.CarbsG
	e.TotalFat = e.Analysis.Totals.FatG

	analysisJSON, err := json.Marshal(e.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}

	loggedAt := e.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO food_logs (
			telegram_id, logged_at, input_type, raw_input, photo_file_id,
			analysis_json, total_calories, total_protein, total_carbs,
			total_fat, confidence_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TelegramID, loggedAt, string(e.InputType), nullable(e.RawInput),
		nullable(e.PhotoFileID), string(analysisJSON), e.TotalCalories,
		e.TotalProtein, e.TotalCarbs, e.TotalFat, e.Confidence)
	if err != nil {
		return nil, fmt.Errorf("failed to insert food log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return r.GetByID(ctx, e.TelegramID, id)
}

// GetByID returns a single entry owned by the given user.
func (r *Repository) GetByID(ctx context.Context, telegramID, id int64) (*Entry, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM food_logs WHERE id = ? AND telegram_id = ?",
		id, telegramID)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get food log %d: %w", id, err)
	}
	return e, nil
}

// ListByDate returns all entries for a calendar date in ascending log order.
func (r *Repository) ListByDate(ctx context.Context, telegramID int64, date time.Time) ([]*Entry, error) {
	return r.ListByRange(ctx, telegramID, date, date)
}

// ListByRange returns all entries between two calendar dates (inclusive) in
// ascending log order.
func (r *Repository) ListByRange(ctx context.Context, telegramID int64, start, end time.Time) ([]*Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM food_logs
		WHERE telegram_id = ?
		AND date(logged_at) >= date(?)
		AND date(logged_at) <= date(?)
		ORDER BY logged_at ASC`,
		telegramID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list food logs: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// Recent returns the most recent entries, newest first.
func (r *Repository) Recent(ctx context.Context, telegramID int64, limit int) ([]*Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM food_logs
		WHERE telegram_id = ?
		ORDER BY logged_at DESC
		LIMIT ?`,
		telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent food logs: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// DeleteByID removes an entry. Returns ErrNotFound when the id does not
// exist or belongs to another user.
func (r *Repository) DeleteByID(ctx context.Context, telegramID, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM food_logs WHERE id = ? AND telegram_id = ?", id, telegramID)
	if err != nil {
		return fmt.Errorf("failed to delete food log %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByUser returns the total number of meals ever logged by a user.
func (r *Repository) CountByUser(ctx context.Context, telegramID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM food_logs WHERE telegram_id = ?", telegramID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count food logs: %w", err)
	}
	return count, nil
}

// DistinctDates returns every calendar date with at least one logged meal,
// ascending. Used for streak computation.
func (r *Repository) DistinctDates(ctx context.Context, telegramID int64) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT date(logged_at) FROM food_logs
		WHERE telegram_id = ?
		ORDER BY date(logged_at) ASC`,
		telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list logging dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		d, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse logging date %q: %w", s, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// HasLoggedToday reports whether the user logged any meal today.
func (r *Repository) HasLoggedToday(ctx context.Context, telegramID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM food_logs
		WHERE telegram_id = ?
		AND date(logged_at) = date(?)`,
		telegramID, time.Now().Format("2006-01-02")).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check today's logs: %w", err)
	}
	return count > 0, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e            Entry
		inputType    sql.NullString
		rawInput     sql.NullString
		photoFileID  sql.NullString
		analysisJSON string
		calories     sql.NullInt64
		protein      sql.NullFloat64
		carbs        sql.NullFloat64
		fat          sql.NullFloat64
		confidence   sql.NullFloat64
	)

	err := row.Scan(&e.ID, &e.TelegramID, &e.LoggedAt, &inputType, &rawInput,
		&photoFileID, &analysisJSON, &calories, &protein, &carbs, &fat, &confidence)
	if err != nil {
		return nil, err
	}

	e.InputType = InputType(inputType.String)
	e.RawInput = rawInput.String
	e.PhotoFileID = photoFileID.String
	e.TotalCalories = int(calories.Int64)
	e.TotalProtein = protein.Float64
	e.TotalCarbs = carbs.Float64
	e.TotalFat = fat.Float64
	e.Confidence = confidence.Float64

	if err := json.Unmarshal([]byte(analysisJSON), &e.Analysis); err != nil {
		// A corrupt analysis blob should not hide the entry's totals
		e.Analysis = Analysis{}
	}
	return &e, nil
}

func collectEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
