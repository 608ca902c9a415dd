package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foodgpt-bot/internal/analyzer"
	"foodgpt-bot/internal/foodlog"
	"foodgpt-bot/internal/pet"
	"foodgpt-bot/internal/targets"
	"foodgpt-bot/internal/user"
)

const helpText = `I track your meals and feed your pet. Send me a photo or a description of what you ate and I'll estimate the nutrition.

Commands:
/start - set up your profile and calorie target
/summarize [period] - nutrition summary (today, yesterday, this week, last week, this month, last month, a date, or "A to B")
/delete <id> - remove a logged meal
/pet - see how your pet is doing
/rename <name> - rename your pet
/achievements - your unlocked achievements
/target [calories] - show or override your daily target
/notifications [on|off|hour] - manage the daily reminder
/help - this message`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		text := helpText
		if b.cfg.WebAppURL != "" {
			text += "\n\nCharts and calendar live in the dashboard: " + b.cfg.WebAppURL
		}
		b.reply(msg.Chat.ID, text)
	case "summarize":
		b.handleSummarize(ctx, msg)
	case "delete":
		b.handleDelete(ctx, msg)
	case "pet":
		b.handlePet(ctx, msg)
	case "rename":
		b.handleRename(ctx, msg)
	case "achievements":
		b.handleAchievements(ctx, msg)
	case "target":
		b.handleTarget(ctx, msg)
	case "notifications":
		b.handleNotifications(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	profile, err := b.users.Create(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName)
	if err != nil {
		log.Printf("Error creating user %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}

	if profile.OnboardingComplete {
		target := profile.CalorieTargetOrDefault(targets.DefaultCalorieTarget)
		text := fmt.Sprintf(
			"Welcome back, %s! Your daily target is %d kcal. Send me a meal to log it, or /help for commands.",
			msg.From.FirstName, target)
		if b.cfg.WebAppURL != "" {
			text += "\n\nDashboard: " + b.cfg.WebAppURL
		}
		b.reply(msg.Chat.ID, text)
		return
	}

	state := &OnboardingState{TelegramID: msg.From.ID, CurrentStep: StepWeight}
	if err := b.onboarding.Save(ctx, state); err != nil {
		log.Printf("Error starting onboarding for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}

	b.reply(msg.Chat.ID, "Hi! I'm FoodGPT. Let's set up your profile so I can calculate your calorie target.\n\n"+Prompt(StepWeight))
}

func (b *Bot) handleOnboardingAnswer(ctx context.Context, msg *tgbotapi.Message, state *OnboardingState) {
	if errMsg := state.ApplyAnswer(msg.Text); errMsg != "" {
		b.reply(msg.Chat.ID, errMsg)
		return
	}

	if !state.Done() {
		if err := b.onboarding.Save(ctx, state); err != nil {
			log.Printf("Error saving onboarding state for %d: %v", msg.From.ID, err)
			b.reply(msg.Chat.ID, "Something went wrong, please try again.")
			return
		}
		b.reply(msg.Chat.ID, Prompt(state.CurrentStep))
		return
	}

	b.finishOnboarding(ctx, msg, state)
}

func (b *Bot) finishOnboarding(ctx context.Context, msg *tgbotapi.Message, state *OnboardingState) {
	profile, err := b.users.UpdateFields(ctx, msg.From.ID, map[string]any{
		"weight":         *state.Data.WeightKg,
		"height":         *state.Data.HeightCm,
		"age":            *state.Data.Age,
		"sex":            state.Data.Sex,
		"activity_level": state.Data.ActivityLevel,
		"goal":           state.Data.Goal,
	})
	if err != nil {
		log.Printf("Error saving profile for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}

	computed, err := targets.Compute(profile)
	if err != nil {
		log.Printf("Error computing targets for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}

	if _, err := b.users.UpdateFields(ctx, msg.From.ID, map[string]any{
		"daily_calorie_target": computed.CalorieTarget,
		"protein_target":       computed.ProteinTarget,
		"carbs_target":         computed.CarbsTarget,
		"fat_target":           computed.FatTarget,
		"onboarding_complete":  1,
	}); err != nil {
		log.Printf("Error finishing onboarding for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}

	if err := b.onboarding.Delete(ctx, msg.From.ID); err != nil {
		log.Printf("Error clearing onboarding state for %d: %v", msg.From.ID, err)
	}

	b.reply(msg.Chat.ID, fmt.Sprintf(
		"All set! Your daily target is %d kcal (%dg protein, %dg carbs, %dg fat).\n\nA pet egg is waiting for you - log your first meal to hatch it!",
		computed.CalorieTarget, computed.ProteinTarget, computed.CarbsTarget, computed.FatTarget))
}

func (b *Bot) handleSummarize(ctx context.Context, msg *tgbotapi.Message) {
	start, end, err := ParseDateExpr(msg.CommandArguments(), time.Now())
	if err != nil {
		b.reply(msg.Chat.ID, err.Error())
		return
	}

	s, err := b.summaries.Range(ctx, msg.From.ID, start, end)
	if err != nil {
		log.Printf("Error summarizing for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Couldn't build your summary, please try again.")
		return
	}
	if s.MealsLogged == 0 {
		b.reply(msg.Chat.ID, fmt.Sprintf("No meals logged between %s and %s.", s.Start, s.End))
		return
	}
	b.reply(msg.Chat.ID, s.Format())
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		b.showRecentForDeletion(ctx, msg)
		return
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: /delete <meal id>. Run /delete without arguments to list recent meals.")
		return
	}

	if err := b.logs.DeleteByID(ctx, msg.From.ID, id); err != nil {
		if errors.Is(err, foodlog.ErrNotFound) {
			b.reply(msg.Chat.ID, fmt.Sprintf("Meal %d not found.", id))
			return
		}
		log.Printf("Error deleting meal %d for %d: %v", id, msg.From.ID, err)
		b.reply(msg.Chat.ID, "Couldn't delete that meal, please try again.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Meal %d deleted.", id))
}

func (b *Bot) showRecentForDeletion(ctx context.Context, msg *tgbotapi.Message) {
	entries, err := b.logs.Recent(ctx, msg.From.ID, 10)
	if err != nil {
		log.Printf("Error listing meals for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Couldn't list your meals, please try again.")
		return
	}
	if len(entries) == 0 {
		b.reply(msg.Chat.ID, "You haven't logged any meals yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your recent meals:\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("#%d - %s, %d kcal (%s)\n",
			e.ID, describeEntry(e), e.TotalCalories, e.LoggedAt.Format("Jan 2 15:04")))
	}
	sb.WriteString("\nSend /delete <id> to remove one.")
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handlePet(ctx context.Context, msg *tgbotapi.Message) {
	state, err := b.pets.State(ctx, msg.From.ID)
	if err != nil {
		log.Printf("Error loading pet for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Couldn't check on your pet, please try again.")
		return
	}
	b.reply(msg.Chat.ID, formatPetState(state))
}

func (b *Bot) handleRename(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.TrimSpace(msg.CommandArguments())
	if err := b.pets.Rename(ctx, msg.From.ID, name); err != nil {
		if errors.Is(err, pet.ErrInvalidName) {
			b.reply(msg.Chat.ID, "Usage: /rename <name> (1-20 characters).")
			return
		}
		log.Printf("Error renaming pet for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Couldn't rename your pet, please try again.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Your pet is now called %s!", name))
}

func (b *Bot) handleAchievements(ctx context.Context, msg *tgbotapi.Message) {
	state, err := b.pets.State(ctx, msg.From.ID)
	if err != nil {
		log.Printf("Error loading achievements for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Couldn't load your achievements, please try again.")
		return
	}

	var sb strings.Builder
	unlocked := 0
	sb.WriteString("Achievements:\n")
	for _, a := range state.Achievements {
		mark := "[ ]"
		if a.Unlocked {
			mark = "[x]"
			unlocked++
		}
		sb.WriteString(fmt.Sprintf("%s %s - %s\n", mark, a.Title, a.Description))
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d unlocked. Current streak: %d days (best %d).",
		unlocked, len(state.Achievements), state.Streaks.Current, state.Streaks.Best))
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleTarget(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())

	if arg == "" {
		profile, err := b.users.Get(ctx, msg.From.ID)
		if err != nil || profile == nil {
			b.reply(msg.Chat.ID, "Run /start first to set up your profile.")
			return
		}
		b.reply(msg.Chat.ID, formatTarget(profile))
		return
	}

	if arg == "reset" {
		profile, err := b.users.Get(ctx, msg.From.ID)
		if err != nil || profile == nil {
			b.reply(msg.Chat.ID, "Run /start first to set up your profile.")
			return
		}
		fresh := *profile
		fresh.CalorieOverride = false
		fresh.DailyCalorieTarget = nil
		computed, err := targets.DailyTarget(&fresh)
		if err != nil {
			b.reply(msg.Chat.ID, "Your profile is incomplete, run /start to redo it.")
			return
		}
		if _, err := b.users.ClearCalorieOverride(ctx, msg.From.ID, computed); err != nil {
			log.Printf("Error clearing override for %d: %v", msg.From.ID, err)
			b.reply(msg.Chat.ID, "Couldn't reset your target, please try again.")
			return
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("Back to the calculated target: %d kcal/day.", computed))
		return
	}

	calories, err := strconv.Atoi(arg)
	if err != nil || calories < 500 || calories > 10000 {
		b.reply(msg.Chat.ID, "Usage: /target <calories between 500 and 10000>, or /target reset.")
		return
	}
	if _, err := b.users.SetCalorieOverride(ctx, msg.From.ID, calories); err != nil {
		log.Printf("Error setting target for %d: %v", msg.From.ID, err)
		b.reply(msg.Chat.ID, "Couldn't update your target, please try again.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Daily target set to %d kcal.", calories))
}

func (b *Bot) handleNotifications(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(strings.ToLower(msg.CommandArguments()))
	switch {
	case arg == "on" || arg == "off":
		if _, err := b.users.SetNotificationsEnabled(ctx, msg.From.ID, arg == "on"); err != nil {
			log.Printf("Error toggling notifications for %d: %v", msg.From.ID, err)
			b.reply(msg.Chat.ID, "Couldn't update your notifications, please try again.")
			return
		}
		if arg == "on" {
			b.reply(msg.Chat.ID, "Daily reminders are on.")
		} else {
			b.reply(msg.Chat.ID, "Daily reminders are off.")
		}
	case arg == "":
		profile, err := b.users.Get(ctx, msg.From.ID)
		if err != nil || profile == nil {
			b.reply(msg.Chat.ID, "Run /start first to set up your profile.")
			return
		}
		status := "off"
		if profile.NotificationsEnabled {
			status = "on"
		}
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"Reminders are %s, scheduled for %02d:00.\nUse /notifications on, /notifications off, or /notifications <hour 0-23>.",
			status, profile.ReminderHour))
	default:
		hour, err := strconv.Atoi(arg)
		if err != nil || hour < 0 || hour > 23 {
			b.reply(msg.Chat.ID, "Usage: /notifications on|off|<hour 0-23>.")
			return
		}
		if _, err := b.users.SetReminderHour(ctx, msg.From.ID, hour); err != nil {
			log.Printf("Error setting reminder hour for %d: %v", msg.From.ID, err)
			b.reply(msg.Chat.ID, "Couldn't update your reminder, please try again.")
			return
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("Daily reminder moved to %02d:00.", hour))
	}
}

func formatTarget(p *user.Profile) string {
	target := p.CalorieTargetOrDefault(targets.DefaultCalorieTarget)
	source := "calculated from your profile"
	if p.CalorieOverride {
		source = "set manually"
	}
	s := fmt.Sprintf("Daily target: %d kcal (%s).", target, source)
	if p.ProteinTarget != nil && p.CarbsTarget != nil && p.FatTarget != nil {
		s += fmt.Sprintf("\nMacros: %dg protein, %dg carbs, %dg fat.",
			*p.ProteinTarget, *p.CarbsTarget, *p.FatTarget)
	}
	return s + "\nUse /target <calories> to override or /target reset to recalculate."
}

func describeEntry(e *foodlog.Entry) string {
	if len(e.Analysis.Items) > 0 {
		names := make([]string, 0, len(e.Analysis.Items))
		for _, item := range e.Analysis.Items {
			names = append(names, item.Name)
		}
		return strings.Join(names, ", ")
	}
	if e.RawInput != "" {
		return e.RawInput
	}
	return "photo meal"
}

func formatLoggedMeal(e *foodlog.Entry, feed *pet.FeedResult) string {
	var sb strings.Builder
	sb.WriteString("Meal logged!\n\n")
	for _, item := range e.Analysis.Items {
		sb.WriteString(fmt.Sprintf("- %s", item.Name))
		if item.Portion != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", item.Portion))
		}
		sb.WriteString(fmt.Sprintf(": %d kcal\n", item.Calories))
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d kcal | %.0fg protein | %.0fg carbs | %.0fg fat\n",
		e.TotalCalories, e.TotalProtein, e.TotalCarbs, e.TotalFat))
	if e.Analysis.Notes != "" {
		sb.WriteString(fmt.Sprintf("Note: %s\n", e.Analysis.Notes))
	}
	sb.WriteString(fmt.Sprintf("Meal id #%d - use /delete %d if this looks wrong.", e.ID, e.ID))

	if feed != nil {
		if feed.Evolved {
			sb.WriteString(fmt.Sprintf("\n\n%s evolved into a %s!", feed.State.Name, feed.State.Level))
		}
		for _, a := range feed.NewAchievements {
			sb.WriteString(fmt.Sprintf("\nAchievement unlocked: %s - %s", a.Title, a.Description))
		}
	}
	return sb.String()
}

func formatPetState(s *pet.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s the %s is feeling %s.\n\n", s.Name, s.Level, s.Mood)
	fmt.Fprintf(&sb, "Meals fed: %d\n", s.MealCount)
	fmt.Fprintf(&sb, "Today: %d kcal (%.0f%% of target)\n", s.TodayCalories, s.PercentOfTarget)
	fmt.Fprintf(&sb, "Streak: %d days (best %d)", s.Streaks.Current, s.Streaks.Best)
	return sb.String()
}

func analysisErrorText(err error) string {
	if errors.Is(err, analyzer.ErrNoFood) {
		return "I couldn't find any food in that. Try a clearer photo or describe the meal in text."
	}
	return "I couldn't analyze that meal right now. Please try again in a moment."
}
