package models

import "time"

// Tolerance levels for sensory complexity.
const (
	ToleranceLow      = "low"
	ToleranceMedium   = "medium"
	ToleranceHigh     = "high"
	ToleranceMinimal  = "minimal"
	ToleranceModerate = "moderate"
)

// Profile analysis sources.
const (
	SourceDefault = "default"
	SourceLocal   = "local"
	SourceRemote  = "remote"
)

// ContentTypeScore ranks a content type by measured effectiveness (0-100).
type ContentTypeScore struct {
	Type               string  `json:"type"`
	EffectivenessScore float64 `json:"effectiveness_score"`
}

// TimeSlotScore ranks a time-of-day bucket by mean performance (0-100).
type TimeSlotScore struct {
	TimeOfDay        TimeOfDay `json:"time_of_day"`
	PerformanceScore float64   `json:"performance_score"`
}

// DiscoveredPreferences are the learning preferences inferred from sessions.
type DiscoveredPreferences struct {
	OptimalChunkSize           string             `json:"optimal_chunk_size"`       // tiny, small, medium, large
	OptimalSessionDuration     int                `json:"optimal_session_duration"` // minutes
	OptimalBreakFrequency      int                `json:"optimal_break_frequency"`  // minutes between breaks
	OptimalBreakDuration       int                `json:"optimal_break_duration"`   // minutes
	PreferredContentTypes      []ContentTypeScore `json:"preferred_content_types"`
	OptimalTimeSlots           []TimeSlotScore    `json:"optimal_time_slots"`
	IdealDifficultyProgression string             `json:"ideal_difficulty_progression"` // slow, moderate, fast
	NeedsMoreExamples          bool               `json:"needs_more_examples"`
	NeedsMorePractice          bool               `json:"needs_more_practice"`
	VisualComplexityTolerance  string             `json:"visual_complexity_tolerance"`
	AudioComplexityTolerance   string             `json:"audio_complexity_tolerance"`
	AnimationTolerance         string             `json:"animation_tolerance"`
	PrefersGuidedLearning      bool               `json:"prefers_guided_learning"`
	PrefersExploration         bool               `json:"prefers_exploration"`
	NeedsFrequentFeedback      bool               `json:"needs_frequent_feedback"`
	RespondsToGamification     bool               `json:"responds_to_gamification"`
}

// AttentionProfile summarizes focus behaviour. Durations are seconds.
type AttentionProfile struct {
	AverageFocusDuration   int    `json:"average_focus_duration"`
	FocusRecoveryTime      int    `json:"focus_recovery_time"`
	DistractionSensitivity string `json:"distraction_sensitivity"` // low, medium, high
	OptimalContentLength   int    `json:"optimal_content_length"`
}

// EmotionalThresholds are the 0-100 trigger points for emotional interventions.
type EmotionalThresholds struct {
	FrustrationTriggerPoint   float64 `json:"frustration_trigger_point"`
	DisengagementTriggerPoint float64 `json:"disengagement_trigger_point"`
	OptimalChallengeLevel     float64 `json:"optimal_challenge_level"`
}

// ConfidenceScores are 0-100 confidence values per profile facet.
type ConfidenceScores struct {
	Overall           float64 `json:"overall"`
	ContentPreference float64 `json:"content_preference"`
	TimingPreference  float64 `json:"timing_preference"`
	AttentionPattern  float64 `json:"attention_pattern"`
}

// Raise returns the facet-wise maximum of c and o.
func (c ConfidenceScores) Raise(o ConfidenceScores) ConfidenceScores {
	return ConfidenceScores{
		Overall:           max(c.Overall, o.Overall),
		ContentPreference: max(c.ContentPreference, o.ContentPreference),
		TimingPreference:  max(c.TimingPreference, o.TimingPreference),
		AttentionPattern:  max(c.AttentionPattern, o.AttentionPattern),
	}
}

// Insight is a natural-language statement discovered about a learner.
type Insight struct {
	Statement       string    `json:"statement"`
	Confidence      float64   `json:"confidence"` // 0-100
	DiscoveredAt    time.Time `json:"discovered_at"`
	BasedOnSessions int       `json:"based_on_sessions"`
}

// AdaptiveProfile is the descriptive learning profile of one learner.
type AdaptiveProfile struct {
	LearnerID string `json:"learner_id"`
	Version   int64  `json:"version"`

	Conditions            []string   `json:"conditions"`
	OnboardingStartedAt   time.Time  `json:"onboarding_started_at"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty"`

	Insights              InsightLog            `json:"insights"`
	DiscoveredPreferences DiscoveredPreferences `json:"discovered_preferences"`
	AttentionProfile      AttentionProfile      `json:"attention_profile"`
	EmotionalThresholds   EmotionalThresholds   `json:"emotional_thresholds"`
	ConfidenceScores      ConfidenceScores      `json:"confidence_scores"`

	SessionsAnalyzed int        `json:"sessions_analyzed"`
	LastAnalyzedAt   *time.Time `json:"last_analyzed_at,omitempty"`
	AnalysisSource   string     `json:"analysis_source"`
}

// OnboardingComplete reports whether the calibration period has been latched as over.
func (p *AdaptiveProfile) OnboardingComplete() bool { return p.OnboardingCompletedAt != nil }

// Clone returns a deep copy.
func (p AdaptiveProfile) Clone() AdaptiveProfile {
	out := p
	out.Conditions = append([]string(nil), p.Conditions...)
	out.OnboardingCompletedAt = cloneTime(p.OnboardingCompletedAt)
	out.LastAnalyzedAt = cloneTime(p.LastAnalyzedAt)
	out.Insights = p.Insights.Clone()
	out.DiscoveredPreferences.PreferredContentTypes = append([]ContentTypeScore(nil), p.DiscoveredPreferences.PreferredContentTypes...)
	out.DiscoveredPreferences.OptimalTimeSlots = append([]TimeSlotScore(nil), p.DiscoveredPreferences.OptimalTimeSlots...)
	return out
}
