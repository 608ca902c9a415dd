package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("TELEGRAM_BOT_TOKEN", "bot_token")
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("DATABASE_PATH", "/tmp/test.db")
		setEnv("WEBAPP_URL", "https://app.test")
		setEnv("ADMIN_TELEGRAM_ID", "12345")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.TelegramBotToken != "bot_token" {
			t.Errorf("Expected TelegramBotToken to be 'bot_token', got '%s'", cfg.TelegramBotToken)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if cfg.DatabasePath != "/tmp/test.db" {
			t.Errorf("Expected DatabasePath to be '/tmp/test.db', got '%s'", cfg.DatabasePath)
		}
		if cfg.WebAppURL != "https://app.test" {
			t.Errorf("Expected WebAppURL to be 'https://app.test', got '%s'", cfg.WebAppURL)
		}
		if cfg.AdminTelegramID != 12345 {
			t.Errorf("Expected AdminTelegramID to be 12345, got %d", cfg.AdminTelegramID)
		}
	})

	t.Run("MissingBotToken", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		os.Unsetenv("TELEGRAM_BOT_TOKEN")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing TELEGRAM_BOT_TOKEN, got nil")
		}
		expectedError := "TELEGRAM_BOT_TOKEN environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		setEnv("TELEGRAM_BOT_TOKEN", "bot_token")
		os.Unsetenv("GEMINI_API_KEY")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		setEnv("TELEGRAM_BOT_TOKEN", "bot_token")
		setEnv("GEMINI_API_KEY", "gemini_key")
		os.Unsetenv("DATABASE_PATH")
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("ADMIN_TELEGRAM_ID")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != DefaultDatabasePath {
			t.Errorf("Expected DatabasePath to default to '%s', got '%s'", DefaultDatabasePath, cfg.DatabasePath)
		}
		if cfg.JWTSecret != "bot_token" {
			t.Errorf("Expected JWTSecret to fall back to the bot token, got '%s'", cfg.JWTSecret)
		}
		if cfg.AdminTelegramID != 0 {
			t.Errorf("Expected AdminTelegramID to be 0, got %d", cfg.AdminTelegramID)
		}
	})

	t.Run("InvalidAdminID", func(t *testing.T) {
		setEnv("TELEGRAM_BOT_TOKEN", "bot_token")
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("ADMIN_TELEGRAM_ID", "not-a-number")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for non-numeric ADMIN_TELEGRAM_ID, got nil")
		}
	})
}
