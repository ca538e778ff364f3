package personalization

import (
	"strings"

	"github.com/example/masterybot/internal/apperr"
)

func (r *ProfileResponse) validate() error {
	switch {
	case r.DiscoveredPreferences == nil:
		return malformed("discovered_preferences missing")
	case r.AttentionProfile == nil:
		return malformed("attention_profile missing")
	case r.EmotionalThresholds == nil:
		return malformed("emotional_thresholds missing")
	case r.ConfidenceScores == nil:
		return malformed("confidence_scores missing")
	case r.Insights == nil:
		return malformed("insights missing")
	}

	p := r.DiscoveredPreferences
	if p.OptimalSessionDuration < 0 || p.OptimalBreakDuration < 0 || p.OptimalBreakFrequency < 0 {
		return malformed("negative preference duration")
	}
	for _, ct := range p.PreferredContentTypes {
		if strings.TrimSpace(ct.Type) == "" || !percent(ct.EffectivenessScore) {
			return malformed("invalid content type score")
		}
	}
	for _, ts := range p.OptimalTimeSlots {
		if ts.TimeOfDay == "" || !percent(ts.PerformanceScore) {
			return malformed("invalid time slot score")
		}
	}

	a := r.AttentionProfile
	if a.AverageFocusDuration < 0 || a.FocusRecoveryTime < 0 || a.OptimalContentLength < 0 {
		return malformed("negative attention duration")
	}

	th := r.EmotionalThresholds
	if !percent(th.FrustrationTriggerPoint) || !percent(th.DisengagementTriggerPoint) || !percent(th.OptimalChallengeLevel) {
		return malformed("emotional threshold out of range")
	}

	cs := r.ConfidenceScores
	if !percent(cs.Overall) || !percent(cs.ContentPreference) || !percent(cs.TimingPreference) || !percent(cs.AttentionPattern) {
		return malformed("confidence score out of range")
	}

	for _, ins := range *r.Insights {
		if strings.TrimSpace(ins.Statement) == "" || !percent(ins.Confidence) || ins.BasedOnSessions < 0 {
			return malformed("invalid insight")
		}
	}
	return nil
}

func percent(v float64) bool {
	return v >= 0 && v <= 100
}

func malformed(detail string) error {
	return apperr.Unavailablef("personalization: malformed profile response: %s", detail)
}
