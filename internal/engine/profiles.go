package engine

import (
	"context"
	"time"

	"github.com/example/masterybot/internal/knowledge"
	"github.com/example/masterybot/internal/onboarding"
	"github.com/example/masterybot/internal/profile"
	"github.com/example/masterybot/pkg/models"
)

const topInsightCount = 3

// RefreshProfile analyzes the learner's recent closed sessions and merges the
// result into their profile. conditions replaces the declared conditions when
// non-nil. The analysis runs without holding the profile lock.
func (e *Engine) RefreshProfile(ctx context.Context, learnerID string, conditions []string) (*models.AdaptiveProfile, error) {
	if err := requireID("learner id", learnerID); err != nil {
		return nil, err
	}
	if conditions == nil {
		stored, err := e.declaredConditions(ctx, learnerID)
		if err != nil {
			return nil, err
		}
		conditions = stored
	} else {
		conditions = knowledge.NormalizeConditions(conditions)
	}

	closed, err := e.sessions.RecentClosed(ctx, learnerID, profile.MaxWindow)
	if err != nil {
		return nil, err
	}

	window := profile.NewWindow(learnerID, closed, conditions, e.now())
	analysis := e.builder.Analyze(ctx, window)

	p, err := e.mutateProfile(ctx, learnerID, conditions, func(p *models.AdaptiveProfile, now time.Time) {
		p.Conditions = conditions
		profile.Apply(p, analysis, now)
		if onboarding.Advance(p, now) {
			e.log.Info("onboarding complete", "learner_id", learnerID)
		}
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("profile refreshed", "learner_id", learnerID, "source", analysis.Source, "sessions", analysis.SessionsAnalyzed)
	return p, nil
}

// GetProfile returns the stored profile.
func (e *Engine) GetProfile(ctx context.Context, learnerID string) (*models.AdaptiveProfile, error) {
	return e.profiles.Load(ctx, learnerID)
}

// GetOnboardingStatus describes where the learner is in the calibration period.
func (e *Engine) GetOnboardingStatus(ctx context.Context, learnerID string) (*onboarding.Status, error) {
	p, err := e.profiles.Load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	count, err := e.sessions.Count(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	st := onboarding.Describe(p, count, e.now(), topInsightCount)
	return &st, nil
}

// OptimalSettings returns presentation settings for the learner on device.
func (e *Engine) OptimalSettings(ctx context.Context, learnerID, device string) (*profile.Settings, error) {
	p, err := e.profiles.Load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	s := profile.OptimalSettings(p, p.Conditions, device)
	return &s, nil
}
