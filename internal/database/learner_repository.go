package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/pkg/models"
)

// LearnerRepository handles database operations for learners
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

const learnerColumns = `id, telegram_chat_id, notification_hour, notifications_enabled, created_at, updated_at`

// Upsert creates the learner or updates its settings.
func (r *LearnerRepository) Upsert(ctx context.Context, l *models.Learner) error {
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO learners (`+learnerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			telegram_chat_id = excluded.telegram_chat_id,
			notification_hour = excluded.notification_hour,
			notifications_enabled = excluded.notifications_enabled,
			updated_at = excluded.updated_at
	`), l.ID, l.TelegramChatID, l.NotificationHour, l.NotificationsEnabled, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save learner: %w", err)
	}
	return nil
}

// Get returns a learner by id
func (r *LearnerRepository) Get(ctx context.Context, id string) (*models.Learner, error) {
	return r.getBy(ctx, "id = ?", id)
}

// GetByChatID returns the learner linked to a Telegram chat
func (r *LearnerRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Learner, error) {
	return r.getBy(ctx, "telegram_chat_id = ?", chatID)
}

func (r *LearnerRepository) getBy(ctx context.Context, where string, arg any) (*models.Learner, error) {
	var l models.Learner
	err := r.db.GetContext(ctx, &l, r.db.Rebind(`SELECT `+learnerColumns+` FROM learners WHERE `+where), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("learner %v not found", arg)
		}
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}
	return &l, nil
}

// ListForNotification returns learners with notifications enabled at hour.
func (r *LearnerRepository) ListForNotification(ctx context.Context, hour int) ([]models.Learner, error) {
	var learners []models.Learner
	err := r.db.SelectContext(ctx, &learners, r.db.Rebind(`
		SELECT `+learnerColumns+` FROM learners
		WHERE notifications_enabled = ? AND notification_hour = ? AND telegram_chat_id <> 0
		ORDER BY id
	`), true, hour)
	if err != nil {
		return nil, fmt.Errorf("failed to list learners: %w", err)
	}
	return learners, nil
}
