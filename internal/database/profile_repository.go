package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/pkg/models"
)

// ProfileRepository stores adaptive profiles as JSON documents.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new repository instance
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Load returns the profile of learnerID.
func (r *ProfileRepository) Load(ctx context.Context, learnerID string) (*models.AdaptiveProfile, error) {
	var row struct {
		Version  int64  `db:"version"`
		Document string `db:"document"`
	}
	query := r.db.Rebind(`SELECT version, document FROM adaptive_profiles WHERE learner_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, learnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("no profile for learner %s", learnerID)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var p models.AdaptiveProfile
	if err := json.Unmarshal([]byte(row.Document), &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.Version = row.Version
	return &p, nil
}

// Save writes p with the same version rules as RecordRepository.Save.
func (r *ProfileRepository) Save(ctx context.Context, p *models.AdaptiveProfile) error {
	next := *p
	next.Version = p.Version + 1
	doc, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	now := time.Now().UTC()
	var res sql.Result
	if p.Version == 0 {
		res, err = r.db.ExecContext(ctx, r.db.Rebind(`
			INSERT INTO adaptive_profiles (learner_id, version, document, updated_at)
			VALUES (?, 1, ?, ?)
			ON CONFLICT (learner_id) DO NOTHING
		`), p.LearnerID, string(doc), now)
	} else {
		res, err = r.db.ExecContext(ctx, r.db.Rebind(`
			UPDATE adaptive_profiles SET version = version + 1, document = ?, updated_at = ?
			WHERE learner_id = ? AND version = ?
		`), string(doc), now, p.LearnerID, p.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if err := expectOneRow(res, "profile of learner %s changed since version %d", p.LearnerID, p.Version); err != nil {
		return err
	}
	p.Version++
	return nil
}
