package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultDatabasePath is used when DATABASE_PATH is not set.
const DefaultDatabasePath = "data/foodgpt.db"

// Config holds the configuration for the application.
type Config struct {
	TelegramBotToken   string
	TelegramWebhookURL string
	GeminiAPIKey       string

	DatabasePath string
	WebAppURL    string
	JWTSecret    string

	AdminTelegramID int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = DefaultDatabasePath
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		// Fallback: sign webapp tokens with the bot token
		jwtSecret = botToken
	}

	var adminID int64
	if s := os.Getenv("ADMIN_TELEGRAM_ID"); s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID must be a numeric Telegram ID: %w", err)
		}
		adminID = parsed
	}

	return &Config{
		TelegramBotToken:   botToken,
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		GeminiAPIKey:       geminiAPIKey,
		DatabasePath:       databasePath,
		WebAppURL:          os.Getenv("WEBAPP_URL"),
		JWTSecret:          jwtSecret,
		AdminTelegramID:    adminID,
	}, nil
}
