package telegram

import (
	"testing"

	"foodgpt-bot/internal/user"
)

func TestOnboardingFlow(t *testing.T) {
	state := &OnboardingState{TelegramID: 1, CurrentStep: StepWeight}

	answers := []string{"80", "180", "30", "male", "1", "2"}
	for _, a := range answers {
		if errMsg := state.ApplyAnswer(a); errMsg != "" {
			t.Fatalf("Expected answer %q to be accepted, got %q", a, errMsg)
		}
	}

	if !state.Done() {
		t.Fatalf("Expected onboarding to be done, still at %q", state.CurrentStep)
	}
	if state.Data.WeightKg == nil || *state.Data.WeightKg != 80 {
		t.Errorf("Expected weight 80, got %v", state.Data.WeightKg)
	}
	if state.Data.Sex != string(user.SexMale) {
		t.Errorf("Expected sex male, got %q", state.Data.Sex)
	}
	if state.Data.ActivityLevel != string(user.ActivitySedentary) {
		t.Errorf("Expected sedentary, got %q", state.Data.ActivityLevel)
	}
	if state.Data.Goal != string(user.GoalMaintain) {
		t.Errorf("Expected maintain, got %q", state.Data.Goal)
	}
}

func TestApplyAnswerRejections(t *testing.T) {
	cases := []struct {
		step   string
		answer string
	}{
		{StepWeight, "heavy"},
		{StepWeight, "5"},
		{StepHeight, "9000"},
		{StepAge, "five"},
		{StepAge, "-3"},
		{StepSex, "robot"},
		{StepActivity, "7"},
		{StepGoal, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.step+"/"+tc.answer, func(t *testing.T) {
			state := &OnboardingState{CurrentStep: tc.step}
			if errMsg := state.ApplyAnswer(tc.answer); errMsg == "" {
				t.Errorf("Expected %q to be rejected at step %s", tc.answer, tc.step)
			}
			if state.CurrentStep != tc.step {
				t.Errorf("Expected step to stay %s after rejection, got %s", tc.step, state.CurrentStep)
			}
		})
	}

	t.Run("CaseAndSpacesTolerated", func(t *testing.T) {
		state := &OnboardingState{CurrentStep: StepSex}
		if errMsg := state.ApplyAnswer("  Male "); errMsg != "" {
			t.Errorf("Expected answer to be accepted, got %q", errMsg)
		}
		if state.Data.Sex != string(user.SexMale) {
			t.Errorf("Expected male, got %q", state.Data.Sex)
		}
	})
}
