package profile

import (
	"time"

	"github.com/example/masterybot/internal/knowledge"
	"github.com/example/masterybot/pkg/models"
)

// DefaultAnalysis is the profile used before any session has been observed,
// adjusted for the declared conditions.
func DefaultAnalysis(conditions []string) *Analysis {
	a := &Analysis{
		Preferences: models.DiscoveredPreferences{
			OptimalChunkSize:           "medium",
			OptimalSessionDuration:     25,
			OptimalBreakFrequency:      25,
			OptimalBreakDuration:       5,
			PreferredContentTypes:      []models.ContentTypeScore{},
			OptimalTimeSlots:           []models.TimeSlotScore{},
			IdealDifficultyProgression: "moderate",
			VisualComplexityTolerance:  models.ToleranceMedium,
			AudioComplexityTolerance:   models.ToleranceMedium,
			AnimationTolerance:         models.ToleranceModerate,
			PrefersGuidedLearning:      true,
			NeedsFrequentFeedback:      true,
			RespondsToGamification:     true,
		},
		Attention: models.AttentionProfile{
			AverageFocusDuration:   900,
			FocusRecoveryTime:      300,
			DistractionSensitivity: models.ToleranceMedium,
			OptimalContentLength:   500,
		},
		Thresholds: models.EmotionalThresholds{
			FrustrationTriggerPoint:   70,
			DisengagementTriggerPoint: 30,
			OptimalChallengeLevel:     60,
		},
		Insights: []models.Insight{},
		Source:   models.SourceDefault,
	}

	for _, c := range knowledge.NormalizeConditions(conditions) {
		switch c {
		case "adhd":
			a.Preferences.OptimalChunkSize = "small"
			a.Preferences.OptimalSessionDuration = 15
			a.Preferences.OptimalBreakFrequency = 15
			a.Attention.DistractionSensitivity = models.ToleranceHigh
		case "dyslexia":
			a.Preferences.OptimalChunkSize = "small"
			a.Preferences.PreferredContentTypes = []models.ContentTypeScore{
				{Type: "audio", EffectivenessScore: 80},
				{Type: "video", EffectivenessScore: 75},
			}
		}
	}
	return a
}

// DefaultProfile returns a fresh profile whose calibration period starts at now.
func DefaultProfile(learnerID string, conditions []string, now time.Time) models.AdaptiveProfile {
	p := models.AdaptiveProfile{
		LearnerID:           learnerID,
		Conditions:          knowledge.NormalizeConditions(conditions),
		OnboardingStartedAt: now.UTC(),
	}
	a := DefaultAnalysis(conditions)
	p.DiscoveredPreferences = a.Preferences
	p.AttentionProfile = a.Attention
	p.EmotionalThresholds = a.Thresholds
	p.AnalysisSource = a.Source
	return p
}
