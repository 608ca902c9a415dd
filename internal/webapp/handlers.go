package webapp

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodgpt-bot/internal/foodlog"
	"foodgpt-bot/internal/pet"
	"foodgpt-bot/internal/summary"
	"foodgpt-bot/internal/targets"
	"foodgpt-bot/internal/user"
)

const (
	defaultChartDays = 30
	maxChartDays     = 365
)

type authTokenRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

type authTokenResponse struct {
	Token string     `json:"token"`
	User  WebAppUser `json:"user"`
}

func (s *Server) handleAuthToken(c *gin.Context) {
	var req authTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data is required"})
		return
	}

	u, err := s.auth.VerifyInitData(req.InitData)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
		return
	}

	if _, err := s.users.Create(c.Request.Context(), u.ID, u.Username, u.FirstName); err != nil {
		s.log.Error("failed to upsert user", zap.Int64("telegram_id", u.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	token, err := s.auth.IssueToken(u.ID)
	if err != nil {
		s.log.Error("failed to issue token", zap.Int64("telegram_id", u.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, authTokenResponse{Token: token, User: *u})
}

type profileResponse struct {
	TelegramID         int64    `json:"telegram_id"`
	Username           string   `json:"username,omitempty"`
	FirstName          string   `json:"first_name,omitempty"`
	WeightKg           *float64 `json:"weight_kg,omitempty"`
	HeightCm           *float64 `json:"height_cm,omitempty"`
	Age                *int     `json:"age,omitempty"`
	Sex                string   `json:"sex,omitempty"`
	ActivityLevel      string   `json:"activity_level,omitempty"`
	Goal               string   `json:"goal,omitempty"`
	DailyCalorieTarget int      `json:"daily_calorie_target"`
	CalorieOverride    bool     `json:"calorie_override"`
	ProteinTarget      *int     `json:"protein_target,omitempty"`
	CarbsTarget        *int     `json:"carbs_target,omitempty"`
	FatTarget          *int     `json:"fat_target,omitempty"`
	MacroOverride      bool     `json:"macro_override"`
	OnboardingComplete bool     `json:"onboarding_complete"`
}

func profileToResponse(p *user.Profile) profileResponse {
	return profileResponse{
		TelegramID:         p.TelegramID,
		Username:           p.Username,
		FirstName:          p.FirstName,
		WeightKg:           p.WeightKg,
		HeightCm:           p.HeightCm,
		Age:                p.Age,
		Sex:                string(p.Sex),
		ActivityLevel:      string(p.ActivityLevel),
		Goal:               string(p.Goal),
		DailyCalorieTarget: p.CalorieTargetOrDefault(targets.DefaultCalorieTarget),
		CalorieOverride:    p.CalorieOverride,
		ProteinTarget:      p.ProteinTarget,
		CarbsTarget:        p.CarbsTarget,
		FatTarget:          p.FatTarget,
		MacroOverride:      p.MacroOverride,
		OnboardingComplete: p.OnboardingComplete,
	}
}

func (s *Server) loadProfile(c *gin.Context) *user.Profile {
	p, err := s.users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.log.Error("failed to load profile", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return nil
	}
	return p
}

func (s *Server) handleMe(c *gin.Context) {
	p := s.loadProfile(c)
	if p == nil {
		return
	}
	c.JSON(http.StatusOK, profileToResponse(p))
}

type mealResponse struct {
	ID         int64              `json:"id"`
	LoggedAt   time.Time          `json:"logged_at"`
	InputType  string             `json:"input_type"`
	Items      []foodlog.FoodItem `json:"items"`
	Calories   int                `json:"calories"`
	ProteinG   float64            `json:"protein_g"`
	CarbsG     float64            `json:"carbs_g"`
	FatG       float64            `json:"fat_g"`
	Confidence float64            `json:"confidence"`
}

func mealsToResponse(entries []*foodlog.Entry) []mealResponse {
	out := make([]mealResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, mealResponse{
			ID:         e.ID,
			LoggedAt:   e.LoggedAt,
			InputType:  string(e.InputType),
			Items:      e.Analysis.Items,
			Calories:   e.TotalCalories,
			ProteinG:   e.TotalProtein,
			CarbsG:     e.TotalCarbs,
			FatG:       e.TotalFat,
			Confidence: e.Confidence,
		})
	}
	return out
}

type daySummaryResponse struct {
	Date            string         `json:"date"`
	Calories        int            `json:"calories"`
	ProteinG        float64        `json:"protein_g"`
	CarbsG          float64        `json:"carbs_g"`
	FatG            float64        `json:"fat_g"`
	MealCount       int            `json:"meal_count"`
	Target          int            `json:"target"`
	PercentOfTarget float64        `json:"percent_of_target"`
	Meals           []mealResponse `json:"meals"`
}

func dayToResponse(d summary.DaySummary) daySummaryResponse {
	return daySummaryResponse{
		Date:            d.Date,
		Calories:        d.Calories,
		ProteinG:        d.ProteinG,
		CarbsG:          d.CarbsG,
		FatG:            d.FatG,
		MealCount:       d.MealCount,
		Target:          d.Target,
		PercentOfTarget: d.PercentOfTarget,
		Meals:           mealsToResponse(d.Meals),
	}
}

type petResponse struct {
	Name            string  `json:"name"`
	Level           string  `json:"level"`
	Mood            string  `json:"mood"`
	AssetKey        string  `json:"asset_key"`
	MealCount       int     `json:"meal_count"`
	CurrentStreak   int     `json:"current_streak"`
	BestStreak      int     `json:"best_streak"`
	TodayCalories   int     `json:"today_calories"`
	PercentOfTarget float64 `json:"percent_of_target"`
}

func petToResponse(st *pet.State) petResponse {
	return petResponse{
		Name:            st.Name,
		Level:           string(st.Level),
		Mood:            string(st.Mood),
		AssetKey:        st.AssetKey,
		MealCount:       st.MealCount,
		CurrentStreak:   st.Streaks.Current,
		BestStreak:      st.Streaks.Best,
		TodayCalories:   st.TodayCalories,
		PercentOfTarget: st.PercentOfTarget,
	}
}

func (s *Server) handleDashboardToday(c *gin.Context) {
	userID := currentUserID(c)

	day, err := s.summaries.Day(c.Request.Context(), userID, time.Now())
	if err != nil {
		s.log.Error("failed to build dashboard", zap.Int64("telegram_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	petState, err := s.pets.State(c.Request.Context(), userID)
	if err != nil {
		s.log.Error("failed to load pet", zap.Int64("telegram_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"today": dayToResponse(day),
		"pet":   petToResponse(petState),
	})
}

type calendarDayResponse struct {
	Date      string `json:"date"`
	Calories  int    `json:"calories"`
	MealCount int    `json:"meal_count"`
	Status    string `json:"status,omitempty"`
}

func (s *Server) handleCalendar(c *gin.Context) {
	ref := time.Now()
	if month := c.Query("month"); month != "" {
		parsed, err := time.ParseInLocation("2006-01", month, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
			return
		}
		ref = parsed
	}

	days, err := s.summaries.CalendarMonth(c.Request.Context(), currentUserID(c), ref)
	if err != nil {
		s.log.Error("failed to build calendar", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make([]calendarDayResponse, 0, len(days))
	for _, d := range days {
		r := calendarDayResponse{Date: d.Date, Calories: d.Calories, MealCount: d.MealCount}
		if d.HasStatus {
			r.Status = string(d.Status)
		}
		out = append(out, r)
	}
	c.JSON(http.StatusOK, gin.H{"month": ref.Format("2006-01"), "days": out})
}

func (s *Server) handleCalendarDay(c *gin.Context) {
	date, err := time.ParseInLocation("2006-01-02", c.Param("day"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be YYYY-MM-DD"})
		return
	}

	day, err := s.summaries.Day(c.Request.Context(), currentUserID(c), date)
	if err != nil {
		s.log.Error("failed to build day view", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, dayToResponse(day))
}

func (s *Server) chartWindow(c *gin.Context) (start, end time.Time, ok bool) {
	days := defaultChartDays
	if v := c.Query("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > maxChartDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be 1-365"})
			return time.Time{}, time.Time{}, false
		}
		days = parsed
	}
	end = time.Now()
	start = end.AddDate(0, 0, -(days - 1))
	return start, end, true
}

func (s *Server) handleChartCalories(c *gin.Context) {
	start, end, ok := s.chartWindow(c)
	if !ok {
		return
	}

	series, err := s.summaries.RangeSeries(c.Request.Context(), currentUserID(c), start, end, true)
	if err != nil {
		s.log.Error("failed to build calories chart", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	p := s.loadProfile(c)
	if p == nil {
		return
	}

	type point struct {
		Date     string `json:"date"`
		Calories int    `json:"calories"`
	}
	out := make([]point, 0, len(series))
	for _, d := range series {
		out = append(out, point{Date: d.Date, Calories: d.Calories})
	}
	c.JSON(http.StatusOK, gin.H{
		"target": p.CalorieTargetOrDefault(targets.DefaultCalorieTarget),
		"series": out,
	})
}

func (s *Server) handleChartMacros(c *gin.Context) {
	start, end, ok := s.chartWindow(c)
	if !ok {
		return
	}

	series, err := s.summaries.RangeSeries(c.Request.Context(), currentUserID(c), start, end, true)
	if err != nil {
		s.log.Error("failed to build macros chart", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	type point struct {
		Date     string  `json:"date"`
		ProteinG float64 `json:"protein_g"`
		CarbsG   float64 `json:"carbs_g"`
		FatG     float64 `json:"fat_g"`
	}
	out := make([]point, 0, len(series))
	for _, d := range series {
		out = append(out, point{Date: d.Date, ProteinG: d.ProteinG, CarbsG: d.CarbsG, FatG: d.FatG})
	}

	avg := summary.Average(series)
	c.JSON(http.StatusOK, gin.H{
		"series": out,
		"averages": gin.H{
			"calories":  avg.Calories,
			"protein_g": avg.ProteinG,
			"carbs_g":   avg.CarbsG,
			"fat_g":     avg.FatG,
		},
	})
}

func (s *Server) handleChartTrend(c *gin.Context) {
	start, end, ok := s.chartWindow(c)
	if !ok {
		return
	}

	series, err := s.summaries.TrendSeries(c.Request.Context(), currentUserID(c), start, end)
	if err != nil {
		s.log.Error("failed to build trend chart", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	type point struct {
		Date      string  `json:"date"`
		Calories  int     `json:"calories"`
		MovingAvg float64 `json:"moving_avg"`
	}
	out := make([]point, 0, len(series))
	for _, d := range series {
		out = append(out, point{Date: d.Date, Calories: d.Calories, MovingAvg: d.MovingAvg})
	}
	c.JSON(http.StatusOK, gin.H{"series": out})
}

func (s *Server) handleSummary(c *gin.Context) {
	start, err := time.ParseInLocation("2006-01-02", c.Query("start"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := time.ParseInLocation("2006-01-02", c.Query("end"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}

	sum, err := s.summaries.Range(c.Request.Context(), currentUserID(c), start, end)
	if err != nil {
		if errors.Is(err, summary.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must not be after end"})
			return
		}
		s.log.Error("failed to build summary", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"start":        sum.Start,
		"end":          sum.End,
		"days":         sum.Days,
		"meals_logged": sum.MealsLogged,
		"totals": gin.H{
			"calories":  sum.Totals.Calories,
			"protein_g": sum.Totals.ProteinG,
			"carbs_g":   sum.Totals.CarbsG,
			"fat_g":     sum.Totals.FatG,
		},
		"averages": gin.H{
			"calories":  sum.AvgCalories,
			"protein_g": sum.AvgProteinG,
			"carbs_g":   sum.AvgCarbsG,
			"fat_g":     sum.AvgFatG,
		},
		"daily_target":  sum.DailyTarget,
		"adherence_pct": sum.AdherencePct,
		"common_foods":  sum.CommonFoods,
		"insights": gin.H{
			"positive":     sum.Insights.PositiveNotes,
			"improvements": sum.Insights.Improvements,
			"advice":       sum.Insights.Advice,
		},
	})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	s.handleMe(c)
}

type updateProfileRequest struct {
	WeightKg        *float64 `json:"weight_kg"`
	HeightCm        *float64 `json:"height_cm"`
	Age             *int     `json:"age"`
	Sex             *string  `json:"sex"`
	ActivityLevel   *string  `json:"activity_level"`
	Goal            *string  `json:"goal"`
	CalorieOverride *int     `json:"calorie_override"`
	ProteinTarget   *int     `json:"protein_target"`
	CarbsTarget     *int     `json:"carbs_target"`
	FatTarget       *int     `json:"fat_target"`
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	fields := map[string]any{}
	if req.WeightKg != nil {
		fields["weight"] = *req.WeightKg
	}
	if req.HeightCm != nil {
		fields["height"] = *req.HeightCm
	}
	if req.Age != nil {
		fields["age"] = *req.Age
	}
	if req.Sex != nil {
		if !user.Sex(*req.Sex).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sex value"})
			return
		}
		fields["sex"] = *req.Sex
	}
	if req.ActivityLevel != nil {
		if !user.ActivityLevel(*req.ActivityLevel).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown activity level"})
			return
		}
		fields["activity_level"] = *req.ActivityLevel
	}
	if req.Goal != nil {
		if !user.Goal(*req.Goal).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown goal"})
			return
		}
		fields["goal"] = *req.Goal
	}
	if req.CalorieOverride != nil {
		if *req.CalorieOverride < 500 || *req.CalorieOverride > 10000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "calorie_override must be 500-10000"})
			return
		}
		fields["daily_calorie_target"] = *req.CalorieOverride
		fields["calorie_override"] = 1
	}
	if req.ProteinTarget != nil || req.CarbsTarget != nil || req.FatTarget != nil {
		fields["macro_override"] = 1
		if req.ProteinTarget != nil {
			fields["protein_target"] = *req.ProteinTarget
		}
		if req.CarbsTarget != nil {
			fields["carbs_target"] = *req.CarbsTarget
		}
		if req.FatTarget != nil {
			fields["fat_target"] = *req.FatTarget
		}
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	p, err := s.users.UpdateFields(c.Request.Context(), currentUserID(c), fields)
	if err != nil {
		s.log.Error("failed to update profile", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// Recompute derived targets when the profile changed and no manual
	// calorie override is in place
	if !p.CalorieOverride && req.CalorieOverride == nil {
		if computed, err := targets.Compute(p); err == nil {
			p, err = s.users.UpdateFields(c.Request.Context(), currentUserID(c), map[string]any{
				"daily_calorie_target": computed.CalorieTarget,
				"protein_target":       computed.ProteinTarget,
				"carbs_target":         computed.CarbsTarget,
				"fat_target":           computed.FatTarget,
			})
			if err != nil {
				s.log.Error("failed to store recomputed targets", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
		}
	}

	c.JSON(http.StatusOK, profileToResponse(p))
}

func (s *Server) handleResetMacros(c *gin.Context) {
	p, err := s.users.ResetMacroOverrides(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.log.Error("failed to reset macros", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if computed, err := targets.Compute(p); err == nil {
		p, err = s.users.UpdateFields(c.Request.Context(), currentUserID(c), map[string]any{
			"protein_target": computed.ProteinTarget,
			"carbs_target":   computed.CarbsTarget,
			"fat_target":     computed.FatTarget,
		})
		if err != nil {
			s.log.Error("failed to store recomputed macros", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	c.JSON(http.StatusOK, profileToResponse(p))
}

func (s *Server) handlePet(c *gin.Context) {
	state, err := s.pets.State(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.log.Error("failed to load pet", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	achievements := make([]gin.H, 0, len(state.Achievements))
	for _, a := range state.Achievements {
		item := gin.H{
			"id":          a.ID,
			"title":       a.Title,
			"description": a.Description,
			"unlocked":    a.Unlocked,
		}
		if a.UnlockedAt != nil {
			item["unlocked_at"] = a.UnlockedAt
		}
		achievements = append(achievements, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"pet":          petToResponse(state),
		"achievements": achievements,
	})
}

type renamePetRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) handlePetRename(c *gin.Context) {
	var req renamePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if err := s.pets.Rename(c.Request.Context(), currentUserID(c), req.Name); err != nil {
		if errors.Is(err, pet.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must be 1-20 characters"})
			return
		}
		s.log.Error("failed to rename pet", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": req.Name})
}

func (s *Server) handleDeleteMeal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meal id must be a number"})
		return
	}

	if err := s.logs.DeleteByID(c.Request.Context(), currentUserID(c), id); err != nil {
		if errors.Is(err, foodlog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
			return
		}
		s.log.Error("failed to delete meal", zap.Int64("telegram_id", currentUserID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}
