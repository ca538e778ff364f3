package bot

import (
	"context"
	"fmt"
	"math"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/masterybot/internal/engine"
	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/internal/onboarding"
	"github.com/example/masterybot/internal/summary"
	"github.com/example/masterybot/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Sender is the part of the Telegram API the bot writes through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// LearnerStore links Telegram chats to learners.
type LearnerStore interface {
	Get(ctx context.Context, id string) (*models.Learner, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.Learner, error)
	Upsert(ctx context.Context, l *models.Learner) error
}

// Mastery is the subset of the engine the bot reads.
type Mastery interface {
	GetDueQueue(ctx context.Context, learnerID, courseID string) ([]models.ConceptState, error)
	GetSummary(ctx context.Context, learnerID, courseID string) (*engine.Summary, error)
	GetOnboardingStatus(ctx context.Context, learnerID string) (*onboarding.Status, error)
}

// Bot is the Telegram front end. It links chats to learners, answers
// progress commands and delivers review reminders.
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	learners LearnerStore
	mastery  Mastery
	config   *Config
	log      *logger.Logger
}

// New authorizes against the Telegram API with cfg.Token.
func New(cfg *Config, learners LearnerStore, mastery Mastery, log *logger.Logger) (*Bot, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	b := NewWithSender(api, cfg, learners, mastery, log)
	b.api = api
	b.log.Info("authorized on telegram", "account", api.Self.UserName)
	return b, nil
}

// NewWithSender builds a bot that writes through s and does not poll.
func NewWithSender(s Sender, cfg *Config, learners LearnerStore, mastery Mastery, log *logger.Logger) *Bot {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Bot{
		sender:   s,
		learners: learners,
		mastery:  mastery,
		config:   cfg,
		log:      log.With("component", "bot"),
	}
}

// Start handles updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return fmt.Errorf("bot has no telegram connection")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = int(b.config.UpdateTimeout.Seconds())
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		err = b.send(b.withMenu(tgbotapi.NewMessage(update.Message.Chat.ID, "I don't understand. Use /help to see the commands.")))
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.log.Error("handle update failed", "error", err, "update_id", update.UpdateID)
	}
}

// SendReminder implements scheduler.Notifier.
func (b *Bot) SendReminder(ctx context.Context, l models.Learner, s summary.LearnerSummary) error {
	if l.TelegramChatID == 0 {
		return fmt.Errorf("learner %s has no linked chat", l.ID)
	}
	text := fmt.Sprintf("You have %d %s due for review across %d %s. Mastered so far: %d of %d.",
		s.DueForReview, plural(s.DueForReview, "concept", "concepts"),
		len(s.Courses), plural(len(s.Courses), "course", "courses"),
		s.Mastered, s.TotalConcepts)
	msg := tgbotapi.NewMessage(l.TelegramChatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	if err := b.send(msg); err != nil {
		return err
	}
	b.log.Info("reminder sent", "learner_id", l.ID, "due", s.DueForReview)
	return nil
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📊 Summary", CallbackData: "show_summary"},
			{Text: "🧭 Status", CallbackData: "show_status"},
		},
	}
}

func (b *Bot) withMenu(msg tgbotapi.MessageConfig) tgbotapi.MessageConfig {
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return msg
}

func (b *Bot) send(c tgbotapi.Chattable) error {
	if _, err := b.sender.Send(c); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}
