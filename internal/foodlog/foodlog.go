// Package foodlog stores logged meals and the structured analysis that
// produced them.
package foodlog

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced meal entry does not exist or
// belongs to another user.
var ErrNotFound = errors.New("food log entry not found")

// InputType describes how a meal was logged.
type InputType string

const (
	InputPhoto     InputType = "photo"
	InputText      InputType = "text"
	InputPhotoText InputType = "photo_text"
)

// FoodItem is a single analyzed food item within a meal.
type FoodItem struct {
	Name     string  `json:"name"`
	Portion  string  `json:"portion"`
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Totals is the aggregate nutrition of a meal or a day.
type Totals struct {
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Analysis is the structured output of the food analysis collaborator.
type Analysis struct {
	Items             []FoodItem `json:"items"`
	Totals            Totals     `json:"totals"`
	OverallConfidence float64    `json:"overall_confidence"`
	Notes             string     `json:"notes,omitempty"`
}

// RecomputeTotals rebuilds the aggregate from the item list. The aggregate
// must always equal the sum of its items.
func (a *Analysis) RecomputeTotals() {
	var t Totals
	for _, item := range a.Items {
		t.Calories += item.Calories
		t.ProteinG += item.ProteinG
		t.CarbsG += item.CarbsG
		t.FatG += item.FatG
	}
	a.Totals = t
}

// Entry is a logged meal. Entries are immutable once created; corrections are
// delete-and-relog.
type Entry struct {
	ID          int64
	TelegramID  int64
	LoggedAt    time.Time
	InputType   InputType
	RawInput    string
	PhotoFileID string
	Analysis    Analysis

	TotalCalories int
	TotalProtein  float64
	TotalCarbs    float64
	TotalFat      float64
	Confidence    float64
}

// Date returns the entry's calendar date as YYYY-MM-DD.
func (e *Entry) Date() string {
	return e.LoggedAt.Format("2006-01-02")
}
