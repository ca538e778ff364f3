package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/internal/engine"
	"github.com/example/masterybot/pkg/models"
)

const notLinkedText = "This chat is not linked to a learner yet. Send /start <learner id> first."

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	switch message.Command() {
	case "start":
		return b.handleStart(ctx, message)
	case "help":
		return b.handleHelp(message)
	case "due":
		return b.handleDue(ctx, message)
	case "summary":
		return b.handleSummary(ctx, message.Chat.ID, message.CommandArguments())
	case "status":
		return b.handleStatus(ctx, message.Chat.ID)
	case "notify":
		return b.handleNotify(ctx, message)
	case "time":
		return b.handleTime(ctx, message)
	default:
		return b.send(b.withMenu(tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /help to see the commands.")))
	}
}

// HandleCallback handles main menu buttons.
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.Message == nil || callback.Message.Chat == nil {
		return fmt.Errorf("callback without message")
	}
	chatID := callback.Message.Chat.ID
	switch callback.Data {
	case "show_summary":
		return b.handleSummary(ctx, chatID, "")
	case "show_status":
		return b.handleStatus(ctx, chatID)
	default:
		b.log.Warn("unknown callback", "data", callback.Data)
		return nil
	}
}

// /start <learner id> links the chat to a learner, creating it if needed.
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	learnerID := strings.TrimSpace(message.CommandArguments())
	if learnerID == "" {
		if l, err := b.learners.GetByChatID(ctx, chatID); err == nil {
			return b.send(b.withMenu(tgbotapi.NewMessage(chatID, fmt.Sprintf("Welcome back, %s!", l.ID))))
		}
		return b.send(tgbotapi.NewMessage(chatID, "Send /start <learner id> to link this chat to your learning account."))
	}

	l, err := b.learners.Get(ctx, learnerID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		l = &models.Learner{
			ID:                   learnerID,
			NotificationHour:     b.config.DefaultNotificationHour,
			NotificationsEnabled: true,
		}
	case err != nil:
		return err
	}
	l.TelegramChatID = chatID
	if err := b.learners.Upsert(ctx, l); err != nil {
		return err
	}
	b.log.Info("chat linked", "learner_id", l.ID)

	text := fmt.Sprintf("👋 Linked to learner %s.\n\nYou'll get review reminders at %d:00. Use /help to see the commands.",
		l.ID, l.NotificationHour)
	return b.send(b.withMenu(tgbotapi.NewMessage(chatID, text)))
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "📖 Commands\n\n" +
		"/start <learner id> - link this chat\n" +
		"/due <course> - concepts due for review\n" +
		"/summary [course] - mastery summary\n" +
		"/status - onboarding status and insights\n" +
		"/notify on|off - toggle reminders\n" +
		"/time <hour> - reminder hour (0-23)"
	return b.send(b.withMenu(tgbotapi.NewMessage(message.Chat.ID, text)))
}

func (b *Bot) handleDue(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	l, ok, err := b.linkedLearner(ctx, chatID)
	if !ok {
		return err
	}
	course := strings.TrimSpace(message.CommandArguments())
	if course == "" {
		return b.send(tgbotapi.NewMessage(chatID, "Please name a course: /due <course>"))
	}

	queue, err := b.mastery.GetDueQueue(ctx, l.ID, course)
	if errors.Is(err, apperr.ErrNotFound) {
		return b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("No concepts found for course %s.", course)))
	}
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		return b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Nothing due in %s. 🎉", course)))
	}

	var text strings.Builder
	fmt.Fprintf(&text, "🔁 %d due in %s\n\n", len(queue), course)
	for i, c := range queue {
		if i == b.config.DueListLimit {
			fmt.Fprintf(&text, "…and %d more", len(queue)-i)
			break
		}
		fmt.Fprintf(&text, "%d. %s (%d%%)\n", i+1, conceptName(c), percent(c.PMastery))
	}
	return b.send(tgbotapi.NewMessage(chatID, text.String()))
}

func (b *Bot) handleSummary(ctx context.Context, chatID int64, course string) error {
	l, ok, err := b.linkedLearner(ctx, chatID)
	if !ok {
		return err
	}
	course = strings.TrimSpace(course)
	if course == "" {
		course = engine.AllCourses
	}

	s, err := b.mastery.GetSummary(ctx, l.ID, course)
	if errors.Is(err, apperr.ErrNotFound) {
		return b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("No concepts found for course %s.", course)))
	}
	if err != nil {
		return err
	}

	var text strings.Builder
	switch {
	case s.Learner != nil:
		ls := s.Learner
		if ls.TotalConcepts == 0 {
			return b.send(tgbotapi.NewMessage(chatID, "You have no concepts yet."))
		}
		fmt.Fprintf(&text, "📊 All courses (%d)\n\n", len(ls.Courses))
		fmt.Fprintf(&text, "Mastered: %d of %d (%d%%)\n", ls.Mastered, ls.TotalConcepts, percent(ls.MasteryRatio))
		fmt.Fprintf(&text, "Due for review: %d\n", ls.DueForReview)
		fmt.Fprintf(&text, "Learning: %d\n", ls.Learning)
		fmt.Fprintf(&text, "Not started: %d\n", ls.NotStarted)
	case s.Course != nil:
		cs := s.Course
		fmt.Fprintf(&text, "📊 %s\n\n", cs.CourseID)
		fmt.Fprintf(&text, "Mastered: %d of %d\n", cs.MasteredConcepts, cs.TotalConcepts)
		fmt.Fprintf(&text, "Overall mastery: %d%%\n", percent(cs.OverallMastery))
		fmt.Fprintf(&text, "Due for review: %d\n", cs.ConceptsDueForReview)
		if cs.NormalizedGain != nil {
			fmt.Fprintf(&text, "Learning gain: %d%%\n", percent(*cs.NormalizedGain))
		}
	}
	return b.send(tgbotapi.NewMessage(chatID, text.String()))
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) error {
	l, ok, err := b.linkedLearner(ctx, chatID)
	if !ok {
		return err
	}
	st, err := b.mastery.GetOnboardingStatus(ctx, l.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return b.send(tgbotapi.NewMessage(chatID, "Finish a learning session and your profile will appear here."))
	}
	if err != nil {
		return err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "🧭 %s\n", st.Message)
	fmt.Fprintf(&text, "Sessions: %d, days since start: %d\n", st.SessionCount, st.ElapsedDays)
	if len(st.TopInsights) > 0 {
		text.WriteString("\n💡 Insights\n")
		for _, in := range st.TopInsights {
			fmt.Fprintf(&text, "• %s\n", in.Statement)
		}
	}
	return b.send(tgbotapi.NewMessage(chatID, text.String()))
}

func (b *Bot) handleNotify(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	l, ok, err := b.linkedLearner(ctx, chatID)
	if !ok {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(message.CommandArguments())) {
	case "on":
		l.NotificationsEnabled = true
	case "off":
		l.NotificationsEnabled = false
	default:
		return b.send(tgbotapi.NewMessage(chatID, "Please use /notify on or /notify off"))
	}
	if err := b.learners.Upsert(ctx, l); err != nil {
		return err
	}
	return b.send(tgbotapi.NewMessage(chatID, "✅ Reminders "+enabledString(l.NotificationsEnabled)))
}

func (b *Bot) handleTime(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	l, ok, err := b.linkedLearner(ctx, chatID)
	if !ok {
		return err
	}
	hour, err := strconv.Atoi(strings.TrimSpace(message.CommandArguments()))
	if err != nil || hour < 0 || hour > 23 {
		return b.send(tgbotapi.NewMessage(chatID, "Please give an hour between 0 and 23: /time <hour>"))
	}
	l.NotificationHour = hour
	if err := b.learners.Upsert(ctx, l); err != nil {
		return err
	}
	return b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Reminder time set to %d:00", hour)))
}

// linkedLearner resolves the learner for chatID. When ok is false the caller
// returns err; the user has already been told if the chat is not linked.
func (b *Bot) linkedLearner(ctx context.Context, chatID int64) (*models.Learner, bool, error) {
	l, err := b.learners.GetByChatID(ctx, chatID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, false, b.send(tgbotapi.NewMessage(chatID, notLinkedText))
	}
	if err != nil {
		return nil, false, err
	}
	return l, true, nil
}

func conceptName(c models.ConceptState) string {
	if c.Label != "" {
		return c.Label
	}
	return c.ConceptID
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
