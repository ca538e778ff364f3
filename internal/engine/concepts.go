package engine

import (
	"context"
	"errors"
	"time"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/internal/knowledge"
	"github.com/example/masterybot/internal/personalization"
	"github.com/example/masterybot/internal/spaced_repetition"
	"github.com/example/masterybot/internal/summary"
	"github.com/example/masterybot/pkg/models"
)

// Points awarded per attempt.
const (
	PointsCorrect = 10
	PointsMastery = 25
)

// AllCourses selects the multi-course summary in GetSummary.
const AllCourses = "all"

// AttemptResult is returned by RecordAttempt.
type AttemptResult struct {
	Concept       models.ConceptState   `json:"concept"`
	Points        int                   `json:"points"`
	NewlyMastered bool                  `json:"newly_mastered"`
	Forecast      knowledge.Forecast    `json:"forecast"`
	Course        summary.CourseSummary `json:"course"`
}

// Summary holds either a course summary or the multi-course summary.
type Summary struct {
	Course  *summary.CourseSummary  `json:"course,omitempty"`
	Learner *summary.LearnerSummary `json:"learner,omitempty"`
}

// InitializeConcepts adds concepts that are not yet part of the learner's
// course record, creating the record when needed. It is idempotent.
func (e *Engine) InitializeConcepts(ctx context.Context, learnerID, courseID string, specs []models.ConceptSpec) (*summary.CourseSummary, error) {
	if err := requireID("learner id", learnerID); err != nil {
		return nil, err
	}
	if err := requireID("course id", courseID); err != nil {
		return nil, err
	}
	needTuning := false
	for _, s := range specs {
		if s.ConceptID == "" {
			return nil, apperr.Validationf("concept id is required")
		}
		if s.Params != nil {
			if err := knowledge.ValidateParams(*s.Params); err != nil {
				return nil, err
			}
		} else {
			needTuning = true
		}
	}

	// Tuned parameters may come from the remote service; resolve them before
	// taking the record lock.
	var tuned models.BKTParams
	if needTuning {
		conditions, err := e.declaredConditions(ctx, learnerID)
		if err != nil {
			return nil, err
		}
		tuned = e.tuner.ParamsFor(ctx, conditions)
	}

	rec, err := e.mutateRecord(ctx, learnerID, courseID, true, func(rec *models.SpacedRepetitionRecord, _ time.Time) error {
		for _, s := range specs {
			if _, exists := rec.ConceptIndex(s.ConceptID); exists {
				continue
			}
			params := tuned
			if s.Params != nil {
				params = *s.Params
			}
			rec.Concepts = append(rec.Concepts, models.NewConceptState(courseID, s, params))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs := summary.Course(rec, e.now())
	e.log.Info("concepts initialized", "learner_id", learnerID, "course_id", courseID, "total", cs.TotalConcepts)
	return &cs, nil
}

// RecordAttempt applies one answered item to a concept: the knowledge update,
// the Leitner step and the derived aggregates are saved together.
func (e *Engine) RecordAttempt(ctx context.Context, learnerID, courseID, conceptID string, isCorrect bool, responseTimeMs float64) (*AttemptResult, error) {
	if err := requireID("concept id", conceptID); err != nil {
		return nil, err
	}

	var result AttemptResult
	rec, err := e.mutateRecord(ctx, learnerID, courseID, false, func(rec *models.SpacedRepetitionRecord, now time.Time) error {
		idx, ok := rec.ConceptIndex(conceptID)
		if !ok {
			return apperr.NotFoundf("concept %s not initialized in course %s", conceptID, courseID)
		}
		before := rec.Concepts[idx]
		next, err := e.tracer.RecordAttempt(before, isCorrect, responseTimeMs, now)
		if err != nil {
			return err
		}
		next = e.leitner.Advance(next, isCorrect, now)
		rec.Concepts[idx] = next

		result = AttemptResult{Concept: next.Clone()}
		if isCorrect {
			result.Points = PointsCorrect
		}
		if next.IsMastered && !before.IsMastered {
			result.NewlyMastered = true
			result.Points += PointsMastery
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Forecast = knowledge.ForecastMastery(result.Concept)
	result.Course = summary.Course(rec, e.now())
	e.log.Debug("attempt recorded", "learner_id", learnerID, "course_id", courseID, "concept_id", conceptID,
		"correct", isCorrect, "p_mastery", result.Concept.PMastery, "box", result.Concept.LeitnerBox)
	return &result, nil
}

// GetDueQueue returns the concepts to review now. The remote ordering is used
// when it is available and well formed; otherwise the weakest concepts come first.
func (e *Engine) GetDueQueue(ctx context.Context, learnerID, courseID string) ([]models.ConceptState, error) {
	rec, err := e.records.Load(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}
	now := e.now()

	if e.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, e.remoteTimeout)
		ids, err := e.remote.PrioritizeReviews(rctx, personalization.PrioritizeRequest{
			LearnerID: learnerID,
			CourseID:  courseID,
			Concepts:  rec.Concepts,
		})
		cancel()
		if err == nil {
			if queue, ok := spaced_repetition.OrderByIDs(rec, ids); ok {
				return queue, nil
			}
			err = apperr.Unavailablef("prioritized ids do not match the record")
		}
		e.log.Warn("remote review prioritization failed, using local order", "learner_id", learnerID, "course_id", courseID, "error", err)
	}
	return spaced_repetition.BuildDueQueue(rec, now), nil
}

// GetSummary returns the course summary, or every course when courseID is AllCourses.
func (e *Engine) GetSummary(ctx context.Context, learnerID, courseID string) (*Summary, error) {
	if err := requireID("learner id", learnerID); err != nil {
		return nil, err
	}
	now := e.now()
	if courseID == AllCourses {
		records, err := e.records.ListByLearner(ctx, learnerID)
		if err != nil {
			return nil, err
		}
		ls := summary.Learner(learnerID, records, now)
		return &Summary{Learner: &ls}, nil
	}

	rec, err := e.records.Load(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}
	cs := summary.Course(rec, now)
	return &Summary{Course: &cs}, nil
}

// RecordAssessment stores a pre or post assessment score (0-100).
func (e *Engine) RecordAssessment(ctx context.Context, learnerID, courseID string, kind models.AssessmentKind, score float64) (*summary.CourseSummary, error) {
	// validate before touching the record
	probe := models.SpacedRepetitionRecord{}
	if err := summary.RecordAssessment(&probe, kind, score); err != nil {
		return nil, err
	}

	rec, err := e.mutateRecord(ctx, learnerID, courseID, false, func(rec *models.SpacedRepetitionRecord, _ time.Time) error {
		return summary.RecordAssessment(rec, kind, score)
	})
	if err != nil {
		return nil, err
	}
	cs := summary.Course(rec, e.now())
	return &cs, nil
}

// ForecastMastery estimates the attempts a concept still needs.
func (e *Engine) ForecastMastery(ctx context.Context, learnerID, courseID, conceptID string) (*knowledge.Forecast, error) {
	rec, err := e.records.Load(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}
	idx, ok := rec.ConceptIndex(conceptID)
	if !ok {
		return nil, apperr.NotFoundf("concept %s not initialized in course %s", conceptID, courseID)
	}
	f := knowledge.ForecastMastery(rec.Concepts[idx])
	return &f, nil
}

// declaredConditions returns the conditions stored on the learner's profile.
func (e *Engine) declaredConditions(ctx context.Context, learnerID string) ([]string, error) {
	p, err := e.profiles.Load(ctx, learnerID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Conditions, nil
}
