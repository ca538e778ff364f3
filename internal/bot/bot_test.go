package bot

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/masterybot/internal/database"
	"github.com/example/masterybot/internal/engine"
	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/internal/summary"
	"github.com/example/masterybot/pkg/models"
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (r *recordingSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	if len(r.sent) == 0 {
		t.Fatal("no message sent")
	}
	return r.sent[len(r.sent)-1]
}

type fixture struct {
	bot      *Bot
	sender   *recordingSender
	learners *database.LearnerRepository
	engine   *engine.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	eng := engine.New(engine.Options{
		Records:  database.NewRecordRepository(db),
		Profiles: database.NewProfileRepository(db),
		Sessions: database.NewSessionRepository(db),
		Log:      logger.Nop(),
	})
	learners := database.NewLearnerRepository(db)
	sender := &recordingSender{}
	return &fixture{
		bot:      NewWithSender(sender, DefaultConfig(), learners, eng, logger.Nop()),
		sender:   sender,
		learners: learners,
		engine:   eng,
	}
}

func command(chatID int64, text string) *tgbotapi.Message {
	name := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(name)},
		},
	}
}

func TestStartLinksChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.bot.HandleCommand(ctx, command(42, "/start l1")); err != nil {
		t.Fatalf("start: %v", err)
	}
	l, err := f.learners.GetByChatID(ctx, 42)
	if err != nil {
		t.Fatalf("GetByChatID: %v", err)
	}
	if l.ID != "l1" || !l.NotificationsEnabled || l.NotificationHour != 9 {
		t.Errorf("learner = %+v", l)
	}
	if !strings.Contains(f.sender.last(t).Text, "Linked to learner l1") {
		t.Errorf("reply = %q", f.sender.last(t).Text)
	}
}

func TestCommandsRequireLink(t *testing.T) {
	f := newFixture(t)
	for _, cmd := range []string{"/due c1", "/summary", "/status", "/notify off", "/time 7"} {
		if err := f.bot.HandleCommand(context.Background(), command(7, cmd)); err != nil {
			t.Fatalf("%s: %v", cmd, err)
		}
		if got := f.sender.last(t).Text; got != notLinkedText {
			t.Errorf("%s reply = %q", cmd, got)
		}
	}
}

func TestDueAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mustCommand(t, f, command(42, "/start l1"))

	specs := []models.ConceptSpec{{ConceptID: "a", Label: "Fractions"}, {ConceptID: "b", Label: "Decimals"}}
	if _, err := f.engine.InitializeConcepts(ctx, "l1", "math", specs); err != nil {
		t.Fatalf("InitializeConcepts: %v", err)
	}

	mustCommand(t, f, command(42, "/due math"))
	if got := f.sender.last(t).Text; !strings.Contains(got, "Nothing due in math") {
		t.Errorf("due reply = %q", got)
	}

	mustCommand(t, f, command(42, "/due physics"))
	if got := f.sender.last(t).Text; !strings.Contains(got, "No concepts found") {
		t.Errorf("due unknown course reply = %q", got)
	}

	mustCommand(t, f, command(42, "/summary"))
	if got := f.sender.last(t).Text; !strings.Contains(got, "Mastered: 0 of 2") || !strings.Contains(got, "Not started: 2") {
		t.Errorf("summary reply = %q", got)
	}

	mustCommand(t, f, command(42, "/summary math"))
	if got := f.sender.last(t).Text; !strings.Contains(got, "📊 math") {
		t.Errorf("course summary reply = %q", got)
	}
}

func TestStatusWithoutProfile(t *testing.T) {
	f := newFixture(t)
	mustCommand(t, f, command(42, "/start l1"))
	mustCommand(t, f, command(42, "/status"))
	if got := f.sender.last(t).Text; !strings.Contains(got, "Finish a learning session") {
		t.Errorf("status reply = %q", got)
	}
}

func TestNotificationSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mustCommand(t, f, command(42, "/start l1"))

	mustCommand(t, f, command(42, "/time 25"))
	if got := f.sender.last(t).Text; !strings.Contains(got, "between 0 and 23") {
		t.Errorf("bad time reply = %q", got)
	}
	mustCommand(t, f, command(42, "/time 18"))
	mustCommand(t, f, command(42, "/notify off"))

	l, err := f.learners.Get(ctx, "l1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if l.NotificationHour != 18 || l.NotificationsEnabled {
		t.Errorf("learner = %+v", l)
	}
}

func TestSendReminder(t *testing.T) {
	f := newFixture(t)
	l := models.Learner{ID: "l1", TelegramChatID: 42}
	s := summary.LearnerSummary{Courses: []string{"math"}, TotalConcepts: 5, Mastered: 2, DueForReview: 1}

	if err := f.bot.SendReminder(context.Background(), l, s); err != nil {
		t.Fatalf("SendReminder: %v", err)
	}
	msg := f.sender.last(t)
	if msg.ChatID != 42 || !strings.Contains(msg.Text, "1 concept due for review across 1 course") {
		t.Errorf("reminder = %d %q", msg.ChatID, msg.Text)
	}

	if err := f.bot.SendReminder(context.Background(), models.Learner{ID: "x"}, s); err == nil {
		t.Error("reminder to unlinked learner should fail")
	}
}

func mustCommand(t *testing.T, f *fixture, m *tgbotapi.Message) {
	t.Helper()
	if err := f.bot.HandleCommand(context.Background(), m); err != nil {
		t.Fatalf("%s: %v", m.Text, err)
	}
}
