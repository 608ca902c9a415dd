package summary

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"foodgpt-bot/internal/foodlog"
	"foodgpt-bot/internal/targets"
)

// Adherence thresholds against the calorie target, in percent.
const (
	adherenceTolerancePct = 10
	adherenceSeverePct    = 20
)

// commonFoodsLimit caps the number of foods shown in summaries.
const commonFoodsLimit = 5

// assumedWeightKg is used for protein-per-kg advice when weight is unknown.
const assumedWeightKg = 70

// Insights are rule-based observations over a summary period.
type Insights struct {
	PositiveNotes []string
	Improvements  []string
	Advice        []string
}

// RangeSummary is the full nutrition summary for a date range.
type RangeSummary struct {
	Start       string
	End         string
	Days        int
	Totals      foodlog.Totals
	MealsLogged int

	AvgCalories float64
	AvgProteinG float64
	AvgCarbsG   float64
	AvgFatG     float64

	DailyTarget  int
	AvgVsTarget  int
	AdherencePct float64

	CommonFoods []string
	Insights    Insights
}

// Summarize builds a nutrition summary with insights over entries between
// start and end (inclusive). weightKg may be nil when unknown.
func Summarize(entries []*foodlog.Entry, start, end time.Time, dailyTarget int, weightKg *float64) (*RangeSummary, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s after end %s",
			ErrInvalidRange, start.Format(dateLayout), end.Format(dateLayout))
	}
	numDays := int(end.Sub(start).Hours()/24) + 1

	s := &RangeSummary{
		Start:       start.Format(dateLayout),
		End:         end.Format(dateLayout),
		Days:        numDays,
		DailyTarget: dailyTarget,
	}

	foodCounts := make(map[string]int)
	for _, e := range entries {
		s.Totals.Calories += e.TotalCalories
		s.Totals.ProteinG += e.TotalProtein
		s.Totals.CarbsG += e.TotalCarbs
		s.Totals.FatG += e.TotalFat
		s.MealsLogged++
		for _, item := range e.Analysis.Items {
			foodCounts[strings.ToLower(item.Name)]++
		}
	}

	s.AvgCalories = float64(s.Totals.Calories) / float64(numDays)
	s.AvgProteinG = s.Totals.ProteinG / float64(numDays)
	s.AvgCarbsG = s.Totals.CarbsG / float64(numDays)
	s.AvgFatG = s.Totals.FatG / float64(numDays)

	if dailyTarget > 0 {
		s.AvgVsTarget = int(s.AvgCalories) - dailyTarget
		s.AdherencePct = s.AvgCalories / float64(dailyTarget) * 100
	}

	s.CommonFoods = topFoods(foodCounts, commonFoodsLimit)
	s.Insights = buildInsights(s, weightKg)
	return s, nil
}

func topFoods(counts map[string]int, limit int) []string {
	type foodCount struct {
		name  string
		count int
	}
	all := make([]foodCount, 0, len(counts))
	for name, count := range counts {
		all = append(all, foodCount{name, count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].name < all[j].name
	})
	if len(all) > limit {
		all = all[:limit]
	}
	names := make([]string, len(all))
	for i, fc := range all {
		names[i] = fc.name
	}
	return names
}

func buildInsights(s *RangeSummary, weightKg *float64) Insights {
	var ins Insights

	// Calorie adherence
	if s.DailyTarget > 0 {
		diffPct := (s.AvgCalories - float64(s.DailyTarget)) / float64(s.DailyTarget) * 100
		switch {
		case diffPct >= -adherenceTolerancePct && diffPct <= adherenceTolerancePct:
			ins.PositiveNotes = append(ins.PositiveNotes,
				"Great calorie control! You're staying close to your target.")
		case diffPct > adherenceTolerancePct:
			ins.Improvements = append(ins.Improvements,
				fmt.Sprintf("You're averaging %d kcal over your target.", int(s.AvgCalories)-s.DailyTarget))
			ins.Advice = append(ins.Advice,
				"Consider smaller portions or lighter snacks between meals.")
		case diffPct < -adherenceSeverePct:
			ins.Improvements = append(ins.Improvements,
				"You may be under-eating. Ensure you're getting enough fuel.")
		default:
			ins.PositiveNotes = append(ins.PositiveNotes,
				"You're in a good calorie deficit for your goals.")
		}
	}

	// Protein per kg of body weight
	weight := float64(assumedWeightKg)
	if weightKg != nil && *weightKg > 0 {
		weight = *weightKg
	}
	proteinPerKg := s.AvgProteinG / weight
	if proteinPerKg >= 1.6 {
		ins.PositiveNotes = append(ins.PositiveNotes,
			fmt.Sprintf("Excellent protein intake at %dg/day!", int(s.AvgProteinG)))
	} else if proteinPerKg < 1.0 {
		ins.Improvements = append(ins.Improvements,
			fmt.Sprintf("Protein is a bit low at %dg/day.", int(s.AvgProteinG)))
		ins.Advice = append(ins.Advice,
			"Try adding eggs, Greek yogurt, or lean meat to boost protein.")
	}

	// Macro balance
	totalCals := s.AvgProteinG*targets.CaloriesPerGramProtein +
		s.AvgCarbsG*targets.CaloriesPerGramCarbs +
		s.AvgFatG*targets.CaloriesPerGramFat
	if totalCals > 0 {
		fatPct := s.AvgFatG * targets.CaloriesPerGramFat / totalCals * 100
		if fatPct > 40 {
			ins.Improvements = append(ins.Improvements, "Fat intake is on the higher side.")
			ins.Advice = append(ins.Advice,
				"Consider swapping fried foods for grilled alternatives.")
		}
	}

	// Logging consistency
	avgMeals := float64(s.MealsLogged) / float64(s.Days)
	if avgMeals >= 3 {
		ins.PositiveNotes = append(ins.PositiveNotes,
			fmt.Sprintf("Good logging consistency with %.1f meals/day tracked.", avgMeals))
	} else if avgMeals < 2 {
		ins.Improvements = append(ins.Improvements,
			"You might be missing some meals in your logs.")
		ins.Advice = append(ins.Advice,
			"Try to log everything you eat for more accurate tracking.")
	}

	return ins
}

// Format renders the summary as plain text for the bot.
func (s *RangeSummary) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summary: %s to %s (%d days)\n\n", s.Start, s.End, s.Days)
	fmt.Fprintf(&b, "Daily Average: %d kcal\n", int(s.AvgCalories))
	fmt.Fprintf(&b, "  Protein: %.1fg | Carbs: %.1fg | Fat: %.1fg\n", s.AvgProteinG, s.AvgCarbsG, s.AvgFatG)

	if s.DailyTarget > 0 {
		fmt.Fprintf(&b, "\nTarget: %d kcal/day\n", s.DailyTarget)
		fmt.Fprintf(&b, "Adherence: %.1f%%\n", roundTenth(s.AdherencePct))
	}

	if len(s.CommonFoods) > 0 {
		fmt.Fprintf(&b, "\nCommon foods: %s\n", strings.Join(s.CommonFoods, ", "))
	}
	if len(s.Insights.PositiveNotes) > 0 {
		b.WriteString("\nWhat's going well:\n")
		for _, note := range s.Insights.PositiveNotes {
			fmt.Fprintf(&b, "  + %s\n", note)
		}
	}
	if len(s.Insights.Improvements) > 0 {
		b.WriteString("\nAreas to improve:\n")
		for _, note := range s.Insights.Improvements {
			fmt.Fprintf(&b, "  - %s\n", note)
		}
	}
	if len(s.Insights.Advice) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, tip := range s.Insights.Advice {
			fmt.Fprintf(&b, "  > %s\n", tip)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
