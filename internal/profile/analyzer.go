// Package profile derives a learner's adaptive profile from their recent
// learning sessions. Analysis runs remotely when a personalization service is
// configured and falls back to the local statistics otherwise.
package profile

import (
	"context"
	"sort"
	"time"

	"github.com/example/masterybot/pkg/models"
)

// MaxWindow is the number of most recent sessions considered by an analysis.
const MaxWindow = 100

// Window is the input of an analysis.
type Window struct {
	LearnerID  string
	Sessions   []models.LearningSession // oldest first
	Conditions []string
	Now        time.Time
}

// NewWindow keeps the MaxWindow most recent sessions ordered by start time.
func NewWindow(learnerID string, sessions []models.LearningSession, conditions []string, now time.Time) Window {
	s := append([]models.LearningSession(nil), sessions...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].StartedAt.Before(s[j].StartedAt) })
	if len(s) > MaxWindow {
		s = s[len(s)-MaxWindow:]
	}
	return Window{
		LearnerID:  learnerID,
		Sessions:   s,
		Conditions: append([]string(nil), conditions...),
		Now:        now,
	}
}

// Analysis is the result of analyzing a window. Local and remote analyzers
// produce the same shape.
type Analysis struct {
	Preferences      models.DiscoveredPreferences
	Attention        models.AttentionProfile
	Thresholds       models.EmotionalThresholds
	Confidence       models.ConfidenceScores
	Insights         []models.Insight
	SessionsAnalyzed int
	Source           string
}

// Analyzer turns a session window into an Analysis.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, w Window) (*Analysis, error)
}
