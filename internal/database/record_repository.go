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

// RecordRepository stores spaced repetition records and their concept states.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository creates a new repository instance
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

type conceptRow struct {
	models.ConceptState
	ResponseTimesJSON string `db:"response_times"`
}

const conceptColumns = `concept_id, label, course_id, lesson_id, p_init, p_transit, p_guess, p_slip,
	p_mastery, attempts, correct_attempts, response_times, last_attempt,
	leitner_box, next_review, review_count, is_mastered`

// Load returns the record of learnerID in courseID with concepts in insertion order.
func (r *RecordRepository) Load(ctx context.Context, learnerID, courseID string) (*models.SpacedRepetitionRecord, error) {
	var rec models.SpacedRepetitionRecord
	query := r.db.Rebind(`
		SELECT learner_id, course_id, version, pre_assessment_score, post_assessment_score,
			normalized_gain, created_at, updated_at
		FROM mastery_records
		WHERE learner_id = ? AND course_id = ?
	`)
	if err := r.db.GetContext(ctx, &rec, query, learnerID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("no record for learner %s in course %s", learnerID, courseID)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	concepts, err := r.loadConcepts(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}
	rec.Concepts = concepts
	return &rec, nil
}

func (r *RecordRepository) loadConcepts(ctx context.Context, learnerID, courseID string) ([]models.ConceptState, error) {
	var rows []conceptRow
	query := r.db.Rebind(`SELECT ` + conceptColumns + `
		FROM concept_states
		WHERE learner_id = ? AND course_id = ?
		ORDER BY position ASC
	`)
	if err := r.db.SelectContext(ctx, &rows, query, learnerID, courseID); err != nil {
		return nil, fmt.Errorf("failed to get concept states: %w", err)
	}

	concepts := make([]models.ConceptState, 0, len(rows))
	for _, row := range rows {
		c := row.ConceptState
		if err := json.Unmarshal([]byte(row.ResponseTimesJSON), &c.ResponseTimes); err != nil {
			return nil, fmt.Errorf("failed to decode response times of %s: %w", c.ConceptID, err)
		}
		concepts = append(concepts, c)
	}
	return concepts, nil
}

// ListByLearner returns every course record of learnerID ordered by course.
func (r *RecordRepository) ListByLearner(ctx context.Context, learnerID string) ([]models.SpacedRepetitionRecord, error) {
	var courses []string
	query := r.db.Rebind(`SELECT course_id FROM mastery_records WHERE learner_id = ? ORDER BY course_id`)
	if err := r.db.SelectContext(ctx, &courses, query, learnerID); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	records := make([]models.SpacedRepetitionRecord, 0, len(courses))
	for _, courseID := range courses {
		rec, err := r.Load(ctx, learnerID, courseID)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// Save writes rec atomically. A record with Version 0 is created; otherwise the
// stored version must equal rec.Version. On success rec.Version is incremented.
// Concept rows are upserted and never deleted.
func (r *RecordRepository) Save(ctx context.Context, rec *models.SpacedRepetitionRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if rec.Version == 0 {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO mastery_records (
				learner_id, course_id, version, pre_assessment_score, post_assessment_score,
				normalized_gain, created_at, updated_at
			) VALUES (?, ?, 1, ?, ?, ?, ?, ?)
			ON CONFLICT (learner_id, course_id) DO NOTHING
		`), rec.LearnerID, rec.CourseID, rec.PreAssessmentScore, rec.PostAssessmentScore,
			rec.NormalizedGain, rec.CreatedAt, now)
		if err != nil {
			return fmt.Errorf("failed to create record: %w", err)
		}
		if err := expectOneRow(res, "record %s/%s already exists", rec.LearnerID, rec.CourseID); err != nil {
			return err
		}
	} else {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE mastery_records SET
				version = version + 1,
				pre_assessment_score = ?,
				post_assessment_score = ?,
				normalized_gain = ?,
				updated_at = ?
			WHERE learner_id = ? AND course_id = ? AND version = ?
		`), rec.PreAssessmentScore, rec.PostAssessmentScore, rec.NormalizedGain, now,
			rec.LearnerID, rec.CourseID, rec.Version)
		if err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
		if err := expectOneRow(res, "record %s/%s changed since version %d", rec.LearnerID, rec.CourseID, rec.Version); err != nil {
			return err
		}
	}

	upsert := tx.Rebind(`
		INSERT INTO concept_states (
			learner_id, course_id, concept_id, position, label, lesson_id,
			p_init, p_transit, p_guess, p_slip, p_mastery, attempts, correct_attempts,
			response_times, last_attempt, leitner_box, next_review, review_count, is_mastered
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, course_id, concept_id) DO UPDATE SET
			p_mastery = excluded.p_mastery,
			attempts = excluded.attempts,
			correct_attempts = excluded.correct_attempts,
			response_times = excluded.response_times,
			last_attempt = excluded.last_attempt,
			leitner_box = excluded.leitner_box,
			next_review = excluded.next_review,
			review_count = excluded.review_count,
			is_mastered = excluded.is_mastered
	`)
	for i, c := range rec.Concepts {
		times := c.ResponseTimes
		if times == nil {
			times = []float64{}
		}
		rt, err := json.Marshal(times)
		if err != nil {
			return fmt.Errorf("failed to encode response times: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsert,
			rec.LearnerID, rec.CourseID, c.ConceptID, i, c.Label, c.LessonID,
			c.PInit, c.PTransit, c.PGuess, c.PSlip, c.PMastery, c.Attempts, c.CorrectAttempts,
			string(rt), c.LastAttempt, c.LeitnerBox, c.NextReview, c.ReviewCount, c.IsMastered,
		); err != nil {
			return fmt.Errorf("failed to save concept %s: %w", c.ConceptID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record: %w", err)
	}
	rec.Version++
	rec.UpdatedAt = now
	return nil
}

func expectOneRow(res sql.Result, format string, args ...any) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.Conflictf(format, args...)
	}
	return nil
}
