// Package onboarding tracks the calibration period at the start of a learner's profile.
package onboarding

import (
	"fmt"
	"sort"
	"time"

	"github.com/example/masterybot/pkg/models"
)

// CalibrationWindow is how long a profile stays in the calibrating state.
const CalibrationWindow = 7 * 24 * time.Hour

// State is the onboarding lifecycle state.
type State string

const (
	Calibrating State = "calibrating"
	Stable      State = "stable"
)

// Status is the onboarding view returned to callers.
type Status struct {
	State        State            `json:"state"`
	ElapsedDays  int              `json:"elapsed_days"`
	SessionCount int              `json:"session_count"`
	Message      string           `json:"message"`
	TopInsights  []models.Insight `json:"top_insights"`
}

// StateAt returns the lifecycle state of profile at now. Once a profile has
// been latched stable it stays stable.
func StateAt(profile *models.AdaptiveProfile, now time.Time) State {
	if profile.OnboardingComplete() || now.Sub(profile.OnboardingStartedAt) >= CalibrationWindow {
		return Stable
	}
	return Calibrating
}

// Advance latches the transition to stable on profile. It reports whether the
// profile changed.
func Advance(profile *models.AdaptiveProfile, now time.Time) bool {
	if profile.OnboardingComplete() || StateAt(profile, now) != Stable {
		return false
	}
	done := profile.OnboardingStartedAt.Add(CalibrationWindow).UTC()
	profile.OnboardingCompletedAt = &done
	return true
}

// Describe builds the status of profile, listing up to limit insights by confidence.
func Describe(profile *models.AdaptiveProfile, sessionCount int, now time.Time, limit int) Status {
	st := StateAt(profile, now)
	elapsed := int(now.Sub(profile.OnboardingStartedAt) / (24 * time.Hour))
	if elapsed < 0 {
		elapsed = 0
	}
	return Status{
		State:        st,
		ElapsedDays:  elapsed,
		SessionCount: sessionCount,
		Message:      message(st, elapsed),
		TopInsights:  topInsights(profile.Insights.Items(), limit),
	}
}

func message(st State, elapsed int) string {
	if st == Stable {
		return "Your learning profile is ready. Recommendations are tuned to how you learn."
	}
	left := int(CalibrationWindow/(24*time.Hour)) - elapsed
	if left <= 1 {
		return "We're still getting to know how you learn. Your profile will be ready tomorrow."
	}
	return fmt.Sprintf("We're still getting to know how you learn. Recommendations are provisional for %d more days.", left)
}

func topInsights(items []models.Insight, limit int) []models.Insight {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Confidence != items[j].Confidence {
			return items[i].Confidence > items[j].Confidence
		}
		return items[i].DiscoveredAt.After(items[j].DiscoveredAt)
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
