// Package analyzer turns meal photos and descriptions into structured
// nutrition estimates using the Gemini API.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"foodgpt-bot/internal/foodlog"
)

// ErrNoFood is returned when the model finds no recognizable food in the
// input.
var ErrNoFood = errors.New("no food recognized in the input")

// Analyzer is an interface for a client that can analyze meals.
type Analyzer interface {
	AnalyzeText(ctx context.Context, description string) (*foodlog.Analysis, error)
	AnalyzePhoto(ctx context.Context, photo []byte, caption string) (*foodlog.Analysis, error)
	Close() error
}

const (
	modelName   = "gemini-1.5-flash"
	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

const analysisPrompt = `You are a nutrition analysis assistant. Analyze the meal and respond with ONLY a JSON object, no markdown, no explanations:
{
  "items": [
    {"name": "food name", "portion": "estimated portion", "calories": 0, "protein_g": 0.0, "carbs_g": 0.0, "fat_g": 0.0}
  ],
  "totals": {"calories": 0, "protein_g": 0.0, "carbs_g": 0.0, "fat_g": 0.0},
  "overall_confidence": 0.0,
  "notes": "optional caveats"
}
Estimate realistic portions when unclear. overall_confidence is 0.0-1.0. If there is no food at all, respond with {"items": []}.`

// geminiAnalyzer is a meal analyzer backed by the Google Gemini API.
type geminiAnalyzer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAnalyzer creates a new Gemini-backed meal analyzer.
func NewGeminiAnalyzer(ctx context.Context, apiKey string) (Analyzer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	return &geminiAnalyzer{client: client, model: model}, nil
}

// AnalyzeText analyzes a textual meal description.
func (a *geminiAnalyzer) AnalyzeText(ctx context.Context, description string) (*foodlog.Analysis, error) {
	prompt := fmt.Sprintf("%s\n\nMeal description: %s", analysisPrompt, description)
	return a.generate(ctx, genai.Text(prompt))
}

// AnalyzePhoto analyzes a meal photo, optionally refined by a caption.
func (a *geminiAnalyzer) AnalyzePhoto(ctx context.Context, photo []byte, caption string) (*foodlog.Analysis, error) {
	prompt := analysisPrompt
	if caption != "" {
		prompt = fmt.Sprintf("%s\n\nUser's caption: %s", analysisPrompt, caption)
	}
	return a.generate(ctx, genai.ImageData("jpeg", photo), genai.Text(prompt))
}

// generate calls the model with retries and parses the JSON response.
func (a *geminiAnalyzer) generate(ctx context.Context, parts ...genai.Part) (*foodlog.Analysis, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay * time.Duration(attempt-1)):
			}
		}

		resp, err := a.model.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = fmt.Errorf("failed to generate content: %w", err)
			continue
		}

		text, err := responseText(resp)
		if err != nil {
			lastErr = err
			continue
		}

		analysis, err := parseAnalysis(text)
		if err != nil {
			lastErr = err
			continue
		}
		return analysis, nil
	}
	return nil, fmt.Errorf("analysis failed after %d attempts: %w", maxAttempts, lastErr)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("generated content is not text")
	}
	return string(text), nil
}

// parseAnalysis decodes the model output, tolerating markdown code fences,
// and recomputes the totals from the item list.
func parseAnalysis(raw string) (*foodlog.Analysis, error) {
	cleaned := stripCodeFence(raw)

	var analysis foodlog.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}
	if len(analysis.Items) == 0 {
		return nil, ErrNoFood
	}

	analysis.RecomputeTotals()
	if analysis.OverallConfidence < 0 {
		analysis.OverallConfidence = 0
	}
	if analysis.OverallConfidence > 1 {
		analysis.OverallConfidence = 1
	}
	return &analysis, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Close closes the underlying Gemini client.
func (a *geminiAnalyzer) Close() error {
	return a.client.Close()
}
