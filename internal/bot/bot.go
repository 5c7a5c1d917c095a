// internal/bot/bot.go
package bot

import (
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/baraholka/backend/internal/config"
	"github.com/baraholka/backend/internal/models"
)

// Bot runs the Telegram side of the marketplace: it answers /start deep
// links that point at a listing and pushes notification messages. It
// implements services.TelegramSender.
type Bot struct {
	api *tgbotapi.BotAPI
	db  *gorm.DB
	cfg *config.Config

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(db *gorm.DB, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	return &Bot{
		api:  api,
		db:   db,
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}, nil
}

// Start begins long polling. Call Stop to shut down.
func (b *Bot) Start() {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := b.api.GetUpdatesChan(updateConfig)

	logrus.WithField("bot", b.api.Self.UserName).Info("Telegram bot started")

	go func() {
		defer close(b.done)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				b.handleUpdate(update)
			case <-b.stop:
				b.api.StopReceivingUpdates()
				logrus.Info("Telegram bot stopped")
				return
			}
		}
	}()
}

func (b *Bot) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.done
}

// SendMessage pushes a plain-text message to a chat.
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	return nil
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	switch update.Message.Command() {
	case "start":
		b.handleStart(update.Message)
	case "help":
		b.reply(update.Message.Chat.ID, fmt.Sprintf(
			"Open %s to browse listings. Log in with your Telegram account to post your own.",
			b.cfg.Frontend.BaseURL))
	}
}

// handleStart answers /start. A deep-link payload carries a listing ID
// (t.me/<bot>?start=<id>) and gets a short card with a web link.
func (b *Bot) handleStart(message *tgbotapi.Message) {
	payload := strings.TrimSpace(message.CommandArguments())
	if payload == "" {
		b.reply(message.Chat.ID, fmt.Sprintf(
			"Welcome! Browse the marketplace at %s", b.cfg.Frontend.BaseURL))
		return
	}

	listingID, err := uuid.Parse(payload)
	if err != nil {
		b.reply(message.Chat.ID, "Sorry, that link does not look right.")
		return
	}

	var listing models.Listing
	err = b.db.Preload("Currency").
		Where("id = ? AND status = ?", listingID, models.ListingStatusPublished).
		First(&listing).Error
	if err != nil {
		b.reply(message.Chat.ID, "This listing is no longer available.")
		return
	}

	price := fmt.Sprintf("%d", listing.Price)
	if listing.Currency != nil {
		price += " " + listing.Currency.Code
	}

	b.reply(message.Chat.ID, fmt.Sprintf(
		"%s\n%s\n\nOpen: %s/listings/%s",
		listing.Title, price, strings.TrimSuffix(b.cfg.Frontend.BaseURL, "/"), listing.ID))
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Warn("Failed to reply")
	}
}
