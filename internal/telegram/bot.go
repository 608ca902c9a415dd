// Package telegram runs the FoodGPT bot: onboarding, meal logging and all
// chat commands arrive here over a webhook.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"foodgpt-bot/internal/analyzer"
	"foodgpt-bot/internal/config"
	"foodgpt-bot/internal/foodlog"
	"foodgpt-bot/internal/pet"
	"foodgpt-bot/internal/summary"
	"foodgpt-bot/internal/user"
)

// messageTimeout bounds the handling of a single update, analysis included.
const messageTimeout = 90 * time.Second

// Bot wraps the Telegram API and the services behind the chat commands.
type Bot struct {
	api        *tgbotapi.BotAPI
	cfg        *config.Config
	users      *user.Repository
	logs       *foodlog.Repository
	summaries  *summary.Service
	pets       *pet.Service
	analyzer   analyzer.Analyzer
	onboarding *OnboardingRepository
}

// NewBot initializes the Telegram Bot and sets the webhook.
func NewBot(
	cfg *config.Config,
	users *user.Repository,
	logs *foodlog.Repository,
	summaries *summary.Service,
	pets *pet.Service,
	analyzer analyzer.Analyzer,
	onboarding *OnboardingRepository,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:        api,
		cfg:        cfg,
		users:      users,
		logs:       logs,
		summaries:  summaries,
		pets:       pets,
		analyzer:   analyzer,
		onboarding: onboarding,
	}, nil
}

// RegisterHandlers registers the webhook handler on the given mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	userID := msg.From.ID

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// A pending onboarding conversation captures all plain messages
	state, err := b.onboarding.Get(ctx, userID)
	if err != nil {
		log.Printf("Error loading onboarding state for %d: %v", userID, err)
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}
	if state != nil {
		b.handleOnboardingAnswer(ctx, msg, state)
		return
	}

	if msg.Photo == nil && strings.TrimSpace(msg.Text) == "" {
		b.reply(msg.Chat.ID, "Send me a photo or description of your meal and I'll log it. Try /help for commands.")
		return
	}

	b.handleFoodMessage(ctx, msg)
}

// handleFoodMessage analyzes a meal message, stores the entry and feeds the
// pet.
func (b *Bot) handleFoodMessage(ctx context.Context, msg *tgbotapi.Message) {
	statusMsg, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "Analyzing your meal..."))
	if err != nil {
		log.Printf("Failed to send status reply: %v", err)
		return
	}

	entry, err := b.analyzeMessage(ctx, msg)
	if err != nil {
		log.Printf("Error analyzing meal for %d: %v", msg.From.ID, err)
		b.edit(msg.Chat.ID, statusMsg.MessageID, analysisErrorText(err))
		if !errors.Is(err, analyzer.ErrNoFood) {
			b.sendAdminAlert(fmt.Sprintf("Meal analysis failed for user %d: %v", msg.From.ID, err))
		}
		return
	}

	stored, err := b.logs.Insert(ctx, entry)
	if err != nil {
		log.Printf("Error storing meal for %d: %v", msg.From.ID, err)
		b.edit(msg.Chat.ID, statusMsg.MessageID, "I analyzed your meal but couldn't save it. Please try again.")
		return
	}

	feed, err := b.pets.Feed(ctx, msg.From.ID)
	if err != nil {
		log.Printf("Error feeding pet for %d: %v", msg.From.ID, err)
	}

	b.edit(msg.Chat.ID, statusMsg.MessageID, formatLoggedMeal(stored, feed))
}

func (b *Bot) analyzeMessage(ctx context.Context, msg *tgbotapi.Message) (*foodlog.Entry, error) {
	entry := &foodlog.Entry{
		TelegramID: msg.From.ID,
		LoggedAt:   time.Now(),
	}

	if msg.Photo == nil {
		entry.InputType = foodlog.InputText
		entry.RawInput = msg.Text
		analysis, err := b.analyzer.AnalyzeText(ctx, msg.Text)
		if err != nil {
			return nil, err
		}
		entry.Analysis = *analysis
		entry.Confidence = analysis.OverallConfidence
		return entry, nil
	}

	// Largest photo size is last
	photo := msg.Photo[len(msg.Photo)-1]
	data, err := b.downloadPhoto(ctx, photo.FileID)
	if err != nil {
		return nil, err
	}

	entry.InputType = foodlog.InputPhoto
	entry.PhotoFileID = photo.FileID
	if msg.Caption != "" {
		entry.InputType = foodlog.InputPhotoText
		entry.RawInput = msg.Caption
	}

	analysis, err := b.analyzer.AnalyzePhoto(ctx, data, msg.Caption)
	if err != nil {
		return nil, err
	}
	entry.Analysis = *analysis
	entry.Confidence = analysis.OverallConfidence
	return entry, nil
}

func (b *Bot) downloadPhoto(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve photo url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download photo: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(b.cfg.AdminTelegramID, text)); err != nil {
		log.Printf("Failed to send admin alert: %v", err)
	}
}

// SendMessage delivers a plain text message. It satisfies the reminder
// job's sender.
func (b *Bot) SendMessage(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		log.Printf("Failed to edit message in %d: %v", chatID, err)
	}
}
