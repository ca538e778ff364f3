package profile

import (
	"context"

	"github.com/example/masterybot/internal/personalization"
	"github.com/example/masterybot/pkg/models"
)

// ProfileService is the remote profile analysis endpoint.
type ProfileService interface {
	BuildProfile(ctx context.Context, req personalization.ProfileRequest) (*personalization.ProfileResponse, error)
}

// RemoteAnalyzer delegates analysis to the personalization service.
type RemoteAnalyzer struct {
	svc ProfileService
}

func NewRemoteAnalyzer(svc ProfileService) *RemoteAnalyzer {
	return &RemoteAnalyzer{svc: svc}
}

func (r *RemoteAnalyzer) Name() string { return models.SourceRemote }

func (r *RemoteAnalyzer) Analyze(ctx context.Context, w Window) (*Analysis, error) {
	resp, err := r.svc.BuildProfile(ctx, personalization.ProfileRequest{
		LearnerID:  w.LearnerID,
		Sessions:   w.Sessions,
		Conditions: w.Conditions,
	})
	if err != nil {
		return nil, err
	}

	n := len(w.Sessions)
	insights := make([]models.Insight, 0, len(*resp.Insights))
	for _, ins := range *resp.Insights {
		if ins.DiscoveredAt.IsZero() {
			ins.DiscoveredAt = w.Now
		}
		if ins.BasedOnSessions == 0 {
			ins.BasedOnSessions = n
		}
		insights = append(insights, ins)
	}
	return &Analysis{
		Preferences:      *resp.DiscoveredPreferences,
		Attention:        *resp.AttentionProfile,
		Thresholds:       *resp.EmotionalThresholds,
		Confidence:       *resp.ConfidenceScores,
		Insights:         insights,
		SessionsAnalyzed: n,
		Source:           models.SourceRemote,
	}, nil
}
