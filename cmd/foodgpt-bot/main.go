package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"foodgpt-bot/internal/analyzer"
	"foodgpt-bot/internal/config"
	"foodgpt-bot/internal/database"
	"foodgpt-bot/internal/foodlog"
	"foodgpt-bot/internal/pet"
	"foodgpt-bot/internal/reminder"
	"foodgpt-bot/internal/summary"
	"foodgpt-bot/internal/telegram"
	"foodgpt-bot/internal/user"
	"foodgpt-bot/internal/webapp"
)

func main() {
	// 1. Load Configuration
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Infrastructure
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	mealAnalyzer, err := analyzer.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to create Gemini analyzer: %v", err)
	}
	defer mealAnalyzer.Close()

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	// 3. Initialize Repositories
	userRepo := user.NewRepository(db.SQL)
	logRepo := foodlog.NewRepository(db.SQL)
	petRepo := pet.NewRepository(db.SQL)
	onboardingRepo := telegram.NewOnboardingRepository(db.SQL)

	// 4. Initialize Services
	summaryService := summary.NewService(userRepo, logRepo)
	petService := pet.NewService(petRepo, logRepo, userRepo)

	// 5. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, userRepo, logRepo, summaryService, petService, mealAnalyzer, onboardingRepo)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 6. Webapp API
	auth := webapp.NewAuthenticator(cfg.TelegramBotToken, cfg.JWTSecret)
	api := webapp.NewServer(zlog, auth, userRepo, logRepo, summaryService, petService)

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)
	mux.Handle("/api/", api.Router())

	// 7. Reminder Job
	job := reminder.NewJob(bot, userRepo, logRepo, summaryService)
	go job.Run(ctx)

	// 8. Start Server with Graceful Shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		log.Printf("FoodGPT server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
