// Package engine exposes the caller-facing mastery and profile operations.
// Writes to one record or profile are serialized in-process and guarded by
// the store's version check; remote calls are made without holding a lock.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/internal/cache"
	"github.com/example/masterybot/internal/knowledge"
	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/internal/personalization"
	"github.com/example/masterybot/internal/profile"
	"github.com/example/masterybot/internal/spaced_repetition"
	"github.com/example/masterybot/internal/summary"
	"github.com/example/masterybot/pkg/models"
)

// RecordStore persists spaced repetition records. Save must fail with
// apperr.ErrConcurrencyConflict when the stored version differs from rec.Version.
type RecordStore interface {
	Load(ctx context.Context, learnerID, courseID string) (*models.SpacedRepetitionRecord, error)
	ListByLearner(ctx context.Context, learnerID string) ([]models.SpacedRepetitionRecord, error)
	Save(ctx context.Context, rec *models.SpacedRepetitionRecord) error
}

// ProfileStore persists adaptive profiles with the same version rule.
type ProfileStore interface {
	Load(ctx context.Context, learnerID string) (*models.AdaptiveProfile, error)
	Save(ctx context.Context, p *models.AdaptiveProfile) error
}

// SessionStore persists learning sessions.
type SessionStore interface {
	Create(ctx context.Context, s *models.LearningSession) error
	Update(ctx context.Context, s *models.LearningSession) error
	Get(ctx context.Context, id string) (*models.LearningSession, error)
	RecentClosed(ctx context.Context, learnerID string, limit int) ([]models.LearningSession, error)
	Count(ctx context.Context, learnerID string) (int, error)
}

// Personalization is the optional remote service.
type Personalization interface {
	profile.ProfileService
	PrioritizeReviews(ctx context.Context, req personalization.PrioritizeRequest) ([]string, error)
	TuneParameters(ctx context.Context, conditions []string) (models.BKTParams, error)
}

// Options configure an Engine. Remote and Cache may be nil.
type Options struct {
	Records  RecordStore
	Profiles ProfileStore
	Sessions SessionStore

	Remote        Personalization
	RemoteTimeout time.Duration
	Cache         cache.ParamCache

	WriteRetries int
	Now          func() time.Time
	Log          *logger.Logger
}

// Engine implements the caller-facing operations.
type Engine struct {
	records  RecordStore
	profiles ProfileStore
	sessions SessionStore

	remote        Personalization
	remoteTimeout time.Duration

	tracer  *knowledge.Tracer
	leitner *spaced_repetition.Leitner
	builder *profile.Builder
	tuner   *paramTuner

	locks   *keyedMutex
	retries int
	now     func() time.Time
	log     *logger.Logger
}

// New creates an engine.
func New(opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = profile.DefaultRemoteTimeout
	}
	if opts.WriteRetries < 0 {
		opts.WriteRetries = 0
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryParamCache(24 * time.Hour)
	}

	log := opts.Log.With("component", "engine")
	tracer := knowledge.NewTracer()

	var remoteAnalyzer profile.Analyzer
	if opts.Remote != nil {
		remoteAnalyzer = profile.NewRemoteAnalyzer(opts.Remote)
	}

	return &Engine{
		records:       opts.Records,
		profiles:      opts.Profiles,
		sessions:      opts.Sessions,
		remote:        opts.Remote,
		remoteTimeout: opts.RemoteTimeout,
		tracer:        tracer,
		leitner:       spaced_repetition.NewLeitner(),
		builder:       profile.NewBuilder(remoteAnalyzer, opts.RemoteTimeout, opts.Log),
		tuner:         newParamTuner(opts.Remote, opts.Cache, tracer, opts.RemoteTimeout, log),
		locks:         newKeyedMutex(),
		retries:       opts.WriteRetries,
		now:           func() time.Time { return opts.Now().UTC() },
		log:           log,
	}
}

func recordKey(learnerID, courseID string) string { return "record:" + learnerID + "/" + courseID }
func profileKey(learnerID string) string          { return "profile:" + learnerID }
func sessionKey(id string) string                 { return "session:" + id }

// mutateRecord applies fn to a fresh copy of the record under the record's
// lock and saves it, reloading and reapplying on version conflicts. fn must be
// deterministic given the record. When create is set a missing record starts empty.
func (e *Engine) mutateRecord(
	ctx context.Context,
	learnerID, courseID string,
	create bool,
	fn func(rec *models.SpacedRepetitionRecord, now time.Time) error,
) (*models.SpacedRepetitionRecord, error) {
	unlock := e.locks.Lock(recordKey(learnerID, courseID))
	defer unlock()

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		stored, err := e.records.Load(ctx, learnerID, courseID)
		var work models.SpacedRepetitionRecord
		switch {
		case err == nil:
			work = stored.Clone()
		case create && errors.Is(err, apperr.ErrNotFound):
			work = models.SpacedRepetitionRecord{LearnerID: learnerID, CourseID: courseID}
		default:
			return nil, err
		}

		now := e.now()
		if err := fn(&work, now); err != nil {
			return nil, err
		}
		summary.Recompute(&work, now)

		err = e.records.Save(ctx, &work)
		if err == nil {
			return &work, nil
		}
		if !errors.Is(err, apperr.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
		e.log.Warn("record write conflict, retrying", "learner_id", learnerID, "course_id", courseID, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("record %s/%s: giving up after %d attempts: %w", learnerID, courseID, e.retries+1, lastErr)
}

// mutateProfile is mutateRecord for profiles. A missing profile starts from
// the default for conditions.
func (e *Engine) mutateProfile(
	ctx context.Context,
	learnerID string,
	conditions []string,
	fn func(p *models.AdaptiveProfile, now time.Time),
) (*models.AdaptiveProfile, error) {
	unlock := e.locks.Lock(profileKey(learnerID))
	defer unlock()

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		now := e.now()
		stored, err := e.profiles.Load(ctx, learnerID)
		var work models.AdaptiveProfile
		switch {
		case err == nil:
			work = stored.Clone()
		case errors.Is(err, apperr.ErrNotFound):
			work = profile.DefaultProfile(learnerID, conditions, now)
		default:
			return nil, err
		}

		fn(&work, now)

		err = e.profiles.Save(ctx, &work)
		if err == nil {
			return &work, nil
		}
		if !errors.Is(err, apperr.ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
		e.log.Warn("profile write conflict, retrying", "learner_id", learnerID, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("profile %s: giving up after %d attempts: %w", learnerID, e.retries+1, lastErr)
}

func requireID(name, v string) error {
	if v == "" {
		return apperr.Validationf("%s is required", name)
	}
	return nil
}
