package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"foodgpt-bot/internal/user"
)

// Onboarding steps, asked in order.
const (
	StepWeight   = "weight"
	StepHeight   = "height"
	StepAge      = "age"
	StepSex      = "sex"
	StepActivity = "activity"
	StepGoal     = "goal"
)

var stepOrder = []string{StepWeight, StepHeight, StepAge, StepSex, StepActivity, StepGoal}

// OnboardingData holds the answers collected so far, stored as JSON.
type OnboardingData struct {
	WeightKg      *float64 `json:"weight_kg,omitempty"`
	HeightCm      *float64 `json:"height_cm,omitempty"`
	Age           *int     `json:"age,omitempty"`
	Sex           string   `json:"sex,omitempty"`
	ActivityLevel string   `json:"activity_level,omitempty"`
	Goal          string   `json:"goal,omitempty"`
}

// OnboardingState is a user's position in the onboarding conversation.
type OnboardingState struct {
	TelegramID  int64
	CurrentStep string
	Data        OnboardingData
}

// OnboardingRepository persists in-progress onboarding conversations.
type OnboardingRepository struct {
	db *sql.DB
}

// NewOnboardingRepository creates a new OnboardingRepository.
func NewOnboardingRepository(db *sql.DB) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

// Get returns the active onboarding state, or nil when none exists.
func (r *OnboardingRepository) Get(ctx context.Context, telegramID int64) (*OnboardingState, error) {
	var step, data string
	err := r.db.QueryRowContext(ctx, `
		SELECT current_step, collected_data FROM onboarding_state
		WHERE telegram_id = ?`,
		telegramID).Scan(&step, &data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get onboarding state: %w", err)
	}

	s := &OnboardingState{TelegramID: telegramID, CurrentStep: step}
	if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
		return nil, fmt.Errorf("failed to parse onboarding data: %w", err)
	}
	return s, nil
}

// Save upserts the onboarding state.
func (r *OnboardingRepository) Save(ctx context.Context, s *OnboardingState) error {
	data, err := json.Marshal(s.Data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO onboarding_state (telegram_id, current_step, collected_data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(telegram_id) DO UPDATE SET
			current_step = excluded.current_step,
			collected_data = excluded.collected_data,
			updated_at = CURRENT_TIMESTAMP`,
		s.TelegramID, s.CurrentStep, string(data))
	if err != nil {
		return fmt.Errorf("failed to save onboarding state: %w", err)
	}
	return nil
}

// Delete removes the onboarding state once the conversation is finished.
func (r *OnboardingRepository) Delete(ctx context.Context, telegramID int64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM onboarding_state WHERE telegram_id = ?", telegramID)
	if err != nil {
		return fmt.Errorf("failed to delete onboarding state: %w", err)
	}
	return nil
}

// Prompt returns the question to ask for a step.
func Prompt(step string) string {
	switch step {
	case StepWeight:
		return "What's your weight in kg? (e.g. 75)"
	case StepHeight:
		return "What's your height in cm? (e.g. 178)"
	case StepAge:
		return "How old are you?"
	case StepSex:
		return "What's your biological sex? (male / female)"
	case StepActivity:
		return "How active are you?\n1 - Sedentary (desk job, little exercise)\n2 - Lightly active (1-3 workouts/week)\n3 - Moderately active (3-5 workouts/week)\n4 - Very active (6-7 workouts/week)"
	case StepGoal:
		return "What's your goal?\n1 - Lose weight\n2 - Maintain weight\n3 - Gain weight\n4 - Build muscle"
	}
	return ""
}

// nextStep returns the step after the given one, or "" at the end.
func nextStep(step string) string {
	for i, s := range stepOrder {
		if s == step && i+1 < len(stepOrder) {
			return stepOrder[i+1]
		}
	}
	return ""
}

// ApplyAnswer parses a user's answer for the current step into the collected
// data. It returns a user-facing error message when the answer is invalid.
func (s *OnboardingState) ApplyAnswer(answer string) (errMsg string) {
	answer = strings.TrimSpace(strings.ToLower(answer))

	switch s.CurrentStep {
	case StepWeight:
		v, err := strconv.ParseFloat(answer, 64)
		if err != nil || v < 20 || v > 500 {
			return "Please send your weight as a number in kg, like 75."
		}
		s.Data.WeightKg = &v
	case StepHeight:
		v, err := strconv.ParseFloat(answer, 64)
		if err != nil || v < 80 || v > 280 {
			return "Please send your height as a number in cm, like 178."
		}
		s.Data.HeightCm = &v
	case StepAge:
		v, err := strconv.Atoi(answer)
		if err != nil || v < 10 || v > 120 {
			return "Please send your age as a whole number, like 30."
		}
		s.Data.Age = &v
	case StepSex:
		switch answer {
		case "male", "m":
			s.Data.Sex = string(user.SexMale)
		case "female", "f":
			s.Data.Sex = string(user.SexFemale)
		default:
			return "Please answer male or female."
		}
	case StepActivity:
		levels := map[string]user.ActivityLevel{
			"1": user.ActivitySedentary,
			"2": user.ActivityLightlyActive,
			"3": user.ActivityModeratelyActive,
			"4": user.ActivityVeryActive,
		}
		lvl, ok := levels[answer]
		if !ok {
			return "Please pick a number from 1 to 4."
		}
		s.Data.ActivityLevel = string(lvl)
	case StepGoal:
		goals := map[string]user.Goal{
			"1": user.GoalLose,
			"2": user.GoalMaintain,
			"3": user.GoalGain,
			"4": user.GoalGainMuscles,
		}
		g, ok := goals[answer]
		if !ok {
			return "Please pick a number from 1 to 4."
		}
		s.Data.Goal = string(g)
	}

	s.CurrentStep = nextStep(s.CurrentStep)
	return ""
}

// Done reports whether every step has been answered.
func (s *OnboardingState) Done() bool {
	return s.CurrentStep == ""
}
