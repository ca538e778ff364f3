package profile

import (
	"context"
	"time"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/pkg/models"
)

// DefaultRemoteTimeout bounds a remote analysis when none is configured.
const DefaultRemoteTimeout = 3 * time.Second

// Builder runs the remote analyzer when present and falls back to the local one.
type Builder struct {
	remote  Analyzer
	local   Analyzer
	timeout time.Duration
	log     *logger.Logger
}

// NewBuilder creates a builder. remote may be nil.
func NewBuilder(remote Analyzer, timeout time.Duration, log *logger.Logger) *Builder {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &Builder{
		remote:  remote,
		local:   LocalAnalyzer{},
		timeout: timeout,
		log:     log.With("component", "profile_builder"),
	}
}

// Analyze returns the analysis of w. It never fails: remote errors, timeouts
// and malformed responses fall back to the local analysis.
func (b *Builder) Analyze(ctx context.Context, w Window) *Analysis {
	if len(w.Sessions) == 0 {
		return DefaultAnalysis(w.Conditions)
	}
	if b.remote != nil {
		a, err := b.runRemote(ctx, w)
		if err == nil {
			return a
		}
		b.log.Warn("remote profile analysis failed, falling back to local", "learner_id", w.LearnerID, "error", err)
	}
	a, _ := b.local.Analyze(ctx, w)
	return a
}

type remoteResult struct {
	a   *Analysis
	err error
}

func (b *Builder) runRemote(ctx context.Context, w Window) (*Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan remoteResult, 1)
	go func() {
		a, err := b.remote.Analyze(ctx, w)
		done <- remoteResult{a, err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.a == nil {
			return nil, apperr.Unavailablef("%s analyzer returned no analysis", b.remote.Name())
		}
		return r.a, r.err
	case <-ctx.Done():
		return nil, apperr.Unavailablef("%s analyzer: %v", b.remote.Name(), ctx.Err())
	}
}

// Apply merges a into profile. A remote analysis always replaces the preference
// blocks; a local one only when it is at least as confident as the stored
// profile. Confidence never decreases and insights already in the log are not
// added twice.
func Apply(profile *models.AdaptiveProfile, a *Analysis, now time.Time) {
	if a.Source == models.SourceRemote || a.Confidence.Overall >= profile.ConfidenceScores.Overall {
		profile.DiscoveredPreferences = a.Preferences
		profile.AttentionProfile = a.Attention
		profile.EmotionalThresholds = a.Thresholds
		profile.AnalysisSource = a.Source
	}
	profile.ConfidenceScores = profile.ConfidenceScores.Raise(a.Confidence)
	for _, ins := range a.Insights {
		if !profile.Insights.Contains(ins) {
			profile.Insights.Append(ins)
		}
	}
	if a.SessionsAnalyzed > profile.SessionsAnalyzed {
		profile.SessionsAnalyzed = a.SessionsAnalyzed
	}
	at := now.UTC()
	profile.LastAnalyzedAt = &at
}
