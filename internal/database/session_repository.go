package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/pkg/models"
)

// SessionRepository handles database operations for learning sessions
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session
func (r *SessionRepository) Create(ctx context.Context, s *models.LearningSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO learning_sessions (id, learner_id, started_at, ended_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`), s.ID, s.LearnerID, s.StartedAt, s.EndedAt, string(payload))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Update overwrites an open session. Closed sessions are immutable.
func (r *SessionRepository) Update(ctx context.Context, s *models.LearningSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE learning_sessions SET ended_at = ?, payload = ?
		WHERE id = ? AND ended_at IS NULL
	`), s.EndedAt, string(payload), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := r.Get(ctx, s.ID); err != nil {
			return err
		}
		return apperr.Validationf("session %s is closed", s.ID)
	}
	return nil
}

// Get returns a session by id
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.LearningSession, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, r.db.Rebind(`SELECT payload FROM learning_sessions WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("session %s not found", id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var s models.LearningSession
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// RecentClosed returns up to limit of the learner's most recent closed sessions,
// oldest first. Open sessions are skipped.
func (r *SessionRepository) RecentClosed(ctx context.Context, learnerID string, limit int) ([]models.LearningSession, error) {
	var payloads []string
	err := r.db.SelectContext(ctx, &payloads, r.db.Rebind(`
		SELECT payload FROM learning_sessions
		WHERE learner_id = ? AND ended_at IS NOT NULL
		ORDER BY started_at DESC
		LIMIT ?
	`), learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent sessions: %w", err)
	}

	sessions := make([]models.LearningSession, len(payloads))
	for i, p := range payloads {
		if err := json.Unmarshal([]byte(p), &sessions[len(payloads)-1-i]); err != nil {
			return nil, fmt.Errorf("failed to decode session: %w", err)
		}
	}
	return sessions, nil
}

// Count returns how many sessions the learner has recorded.
func (r *SessionRepository) Count(ctx context.Context, learnerID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM learning_sessions WHERE learner_id = ?`), learnerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
