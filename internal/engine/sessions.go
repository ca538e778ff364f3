package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/internal/profile"
	"github.com/example/masterybot/pkg/models"
)

// SessionStart opens a learning session.
type SessionStart struct {
	LearnerID string `json:"learner_id"`
	CourseID  string `json:"course_id"`
	LessonID  string `json:"lesson_id"`
}

// SessionActivity is an incremental update to an open session. Counters are
// added; scores, when present, replace the previous sample.
type SessionActivity struct {
	Interactions int `json:"interactions"`
	TabSwitches  int `json:"tab_switches"`
	Backtracks   int `json:"backtracks"`
	Rereads      int `json:"rereads"`
	HelpRequests int `json:"help_requests"`

	ContentTime         map[string]int              `json:"content_time,omitempty"`
	ContentInteractions []models.ContentInteraction `json:"content_interactions,omitempty"`
	QuizOutcomes        []models.QuizOutcome        `json:"quiz_outcomes,omitempty"`
	Breaks              []models.BreakRecord        `json:"breaks,omitempty"`

	FrustrationScore *float64 `json:"frustration_score,omitempty"`
	EngagementScore  *float64 `json:"engagement_score,omitempty"`
	FocusScore       *float64 `json:"focus_score,omitempty"`
}

// SessionClose finishes a session.
type SessionClose struct {
	LessonCompleted    bool     `json:"lesson_completed"`
	OverallPerformance *float64 `json:"overall_performance,omitempty"` // derived from quiz outcomes when absent
}

func (a *SessionActivity) validate() error {
	if a.Interactions < 0 || a.TabSwitches < 0 || a.Backtracks < 0 || a.Rereads < 0 || a.HelpRequests < 0 {
		return apperr.Validationf("session counters must be non-negative")
	}
	for _, s := range []*float64{a.FrustrationScore, a.EngagementScore, a.FocusScore} {
		if s != nil && !(*s >= 0 && *s <= 100) {
			return apperr.Validationf("session score %v out of range [0,100]", *s)
		}
	}
	for t, secs := range a.ContentTime {
		if secs < 0 {
			return apperr.Validationf("content time for %s must be non-negative", t)
		}
	}
	for _, ci := range a.ContentInteractions {
		if ci.ContentType == "" || ci.DurationSeconds < 0 || ci.CompletionRate < 0 || ci.CompletionRate > 1 {
			return apperr.Validationf("invalid content interaction %q", ci.ContentID)
		}
	}
	for _, q := range a.QuizOutcomes {
		if q.ResponseTimeMs < 0 {
			return apperr.Validationf("quiz response time must be non-negative")
		}
	}
	for _, b := range a.Breaks {
		if b.DurationSeconds < 0 {
			return apperr.Validationf("break duration must be non-negative")
		}
	}
	return nil
}

// StartSession opens a new session for the learner.
func (e *Engine) StartSession(ctx context.Context, in SessionStart) (*models.LearningSession, error) {
	if err := requireID("learner id", in.LearnerID); err != nil {
		return nil, err
	}
	now := e.now()
	s := &models.LearningSession{
		ID:          uuid.NewString(),
		LearnerID:   in.LearnerID,
		CourseID:    in.CourseID,
		LessonID:    in.LessonID,
		StartedAt:   now,
		TimeOfDay:   models.TimeOfDayAt(now),
		ContentTime: map[string]int{},
	}
	if err := e.sessions.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordSessionActivity adds activity to an open session.
func (e *Engine) RecordSessionActivity(ctx context.Context, sessionID string, a SessionActivity) (*models.LearningSession, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	return e.updateSession(ctx, sessionID, func(s *models.LearningSession, _ time.Time) {
		s.InteractionCount += a.Interactions
		s.TabSwitches += a.TabSwitches
		s.BacktrackCount += a.Backtracks
		s.RereadCount += a.Rereads
		s.HelpRequests += a.HelpRequests
		if s.ContentTime == nil {
			s.ContentTime = map[string]int{}
		}
		for t, secs := range a.ContentTime {
			s.ContentTime[t] += secs
		}
		s.ContentInteractions = append(s.ContentInteractions, a.ContentInteractions...)
		s.QuizOutcomes = append(s.QuizOutcomes, a.QuizOutcomes...)
		s.Breaks = append(s.Breaks, a.Breaks...)
		if a.FrustrationScore != nil {
			s.FrustrationScore = *a.FrustrationScore
		}
		if a.EngagementScore != nil {
			s.EngagementScore = *a.EngagementScore
		}
		if a.FocusScore != nil {
			s.FocusScore = *a.FocusScore
		}
	})
}

// CloseSession freezes the session, derives its durations and averages, and
// refreshes the learner's profile.
func (e *Engine) CloseSession(ctx context.Context, sessionID string, in SessionClose) (*models.LearningSession, *models.AdaptiveProfile, error) {
	if in.OverallPerformance != nil && !(*in.OverallPerformance >= 0 && *in.OverallPerformance <= 100) {
		return nil, nil, apperr.Validationf("overall performance %v out of range [0,100]", *in.OverallPerformance)
	}
	s, err := e.updateSession(ctx, sessionID, func(s *models.LearningSession, now time.Time) {
		end := now
		if end.Before(s.StartedAt) {
			end = s.StartedAt
		}
		s.EndedAt = &end
		finalize(s, in)
	})
	if err != nil {
		return nil, nil, err
	}

	p, err := e.RefreshProfile(ctx, s.LearnerID, nil)
	if err != nil {
		return s, nil, err
	}
	return s, p, nil
}

// Adapt suggests in-session adjustments for a session. Learners without a
// profile yet are measured against the default profile.
func (e *Engine) Adapt(ctx context.Context, sessionID string) (*profile.Adaptation, error) {
	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, err := e.profiles.Load(ctx, s.LearnerID)
	if errors.Is(err, apperr.ErrNotFound) {
		def := profile.DefaultProfile(s.LearnerID, nil, e.now())
		p, err = &def, nil
	}
	if err != nil {
		return nil, err
	}
	a := profile.Adapt(s, p)
	return &a, nil
}

func (e *Engine) updateSession(ctx context.Context, sessionID string, fn func(s *models.LearningSession, now time.Time)) (*models.LearningSession, error) {
	unlock := e.locks.Lock(sessionKey(sessionID))
	defer unlock()

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.IsClosed() {
		return nil, apperr.Validationf("session %s is closed", sessionID)
	}
	fn(s, e.now())
	if err := e.sessions.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func finalize(s *models.LearningSession, in SessionClose) {
	total := int(s.EndedAt.Sub(s.StartedAt) / time.Second)
	breaks := 0
	for _, b := range s.Breaks {
		breaks += b.DurationSeconds
	}
	s.TotalDuration = total
	s.ActiveDuration = max(0, total-breaks)

	if minutes := float64(s.ActiveDuration) / 60; minutes > 0 {
		s.ClickFrequency = float64(s.InteractionCount) / minutes
	}
	if n := len(s.ContentInteractions); n > 0 {
		sum := 0
		for _, ci := range s.ContentInteractions {
			sum += ci.DurationSeconds
		}
		s.AvgTimeOnContent = float64(sum) / float64(n)
	}

	correct := 0
	var responseMs float64
	for _, q := range s.QuizOutcomes {
		if q.IsCorrect {
			correct++
		}
		responseMs += q.ResponseTimeMs
	}
	if n := len(s.QuizOutcomes); n > 0 {
		s.ResponseTime = responseMs / float64(n) / 1000
	}

	s.LessonCompleted = in.LessonCompleted
	switch {
	case in.OverallPerformance != nil:
		s.OverallPerformance = *in.OverallPerformance
	case len(s.QuizOutcomes) > 0:
		s.OverallPerformance = float64(correct) / float64(len(s.QuizOutcomes)) * 100
	}
}
