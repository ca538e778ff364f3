package profile

import (
	"slices"

	"github.com/example/masterybot/internal/knowledge"
	"github.com/example/masterybot/pkg/models"
)

// Settings are the presentation settings recommended for a learner.
type Settings struct {
	ChunkSize         string   `json:"chunk_size"`
	SessionDuration   int      `json:"session_duration"`
	BreakFrequency    int      `json:"break_frequency"`
	BreakDuration     int      `json:"break_duration"`
	ContentPriority   []string `json:"content_priority"`
	GamificationLevel string   `json:"gamification_level"`
	FeedbackFrequency string   `json:"feedback_frequency"`
	AnimationLevel    string   `json:"animation_level"`
	Confidence        float64  `json:"confidence"`
}

// OptimalSettings derives settings from the profile, then applies condition
// and device adjustments. device is "desktop" or "mobile".
func OptimalSettings(p *models.AdaptiveProfile, conditions []string, device string) Settings {
	d := p.DiscoveredPreferences
	s := Settings{
		ChunkSize:         d.OptimalChunkSize,
		SessionDuration:   d.OptimalSessionDuration,
		BreakFrequency:    d.OptimalBreakFrequency,
		BreakDuration:     d.OptimalBreakDuration,
		ContentPriority:   []string{},
		GamificationLevel: "low",
		FeedbackFrequency: "normal",
		AnimationLevel:    d.AnimationTolerance,
		Confidence:        p.ConfidenceScores.Overall,
	}
	for i, ct := range d.PreferredContentTypes {
		if i == 3 {
			break
		}
		s.ContentPriority = append(s.ContentPriority, ct.Type)
	}
	if d.RespondsToGamification {
		s.GamificationLevel = "high"
	}
	if d.NeedsFrequentFeedback {
		s.FeedbackFrequency = "high"
	}

	for _, c := range knowledge.NormalizeConditions(conditions) {
		switch c {
		case "adhd":
			if s.ChunkSize == "medium" || s.ChunkSize == "large" {
				s.ChunkSize = "small"
			}
			s.BreakFrequency = min(s.BreakFrequency, 15)
		case "autism":
			s.AnimationLevel = models.ToleranceMinimal
		case "dyslexia":
			if !slices.Contains(s.ContentPriority, "audio") {
				s.ContentPriority = append([]string{"audio"}, s.ContentPriority...)
			}
		}
	}

	if device == "mobile" {
		if s.ChunkSize == "small" || s.ChunkSize == "tiny" {
			s.ChunkSize = "tiny"
		} else {
			s.ChunkSize = "small"
		}
		s.SessionDuration = min(s.SessionDuration, 15)
	}
	return s
}

// Suggestion is one proposed intervention.
type Suggestion struct {
	Type         string   `json:"type"` // break, content_switch, difficulty
	Message      string   `json:"message"`
	Activities   []string `json:"activities,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
	Action       string   `json:"action,omitempty"`
}

// Intervention is the response to a detected frustration level.
type Intervention struct {
	Needed      bool         `json:"intervention_needed"`
	Severity    string       `json:"severity"` // low, medium, high
	Suggestions []Suggestion `json:"suggestions"`
}

var calmingActivities = map[string][]string{
	"frustrated": {
		"Deep breathing exercise (4-7-8 technique)",
		"Quick stretching break",
		"Listen to calming music",
		"Take a 5-minute walk",
	},
	"anxious": {
		"Guided meditation (2 minutes)",
		"Progressive muscle relaxation",
		"Grounding exercise (5-4-3-2-1)",
		"Coloring activity",
	},
}

// FrustrationIntervention suggests interventions for a 0-100 frustration
// level. Nothing is suggested at or below 65.
func FrustrationIntervention(level float64, conditions []string, contentType string) Intervention {
	out := Intervention{Severity: "low", Suggestions: []Suggestion{}}
	if level <= 65 {
		return out
	}
	out.Needed = true
	state := "anxious"
	out.Severity = "medium"
	if level > 80 {
		state = "frustrated"
		out.Severity = "high"
	}

	out.Suggestions = append(out.Suggestions, Suggestion{
		Type:       "break",
		Message:    "Let's take a short break. You're doing great!",
		Activities: calmingActivities[state],
	})

	alternatives := []string{"text", "audio"}
	if contentType == "" || contentType == "text" {
		alternatives = []string{"video", "interactive"}
	}
	if slices.Contains(knowledge.NormalizeConditions(conditions), "dyslexia") && !slices.Contains(alternatives, "audio") {
		alternatives = append([]string{"audio"}, alternatives...)
	}
	out.Suggestions = append(out.Suggestions, Suggestion{
		Type:         "content_switch",
		Message:      "Would you like to try a different format?",
		Alternatives: alternatives,
	})

	if level > 80 {
		out.Suggestions = append(out.Suggestions, Suggestion{
			Type:    "difficulty",
			Message: "Let me give you an easier version to build confidence.",
			Action:  "simplify_content",
		})
	}
	return out
}

// Adaptation is a set of in-session adjustments for an open session.
type Adaptation struct {
	SuggestBreak           bool     `json:"should_suggest_break"`
	SimplifyContent        bool     `json:"should_simplify_content"`
	OfferAlternativeFormat bool     `json:"should_offer_alternative_format"`
	SuggestedFormat        string   `json:"suggested_format,omitempty"`
	CalmingNeeded          bool     `json:"calming_intervention_needed"`
	EncouragementNeeded    bool     `json:"encouragement_needed"`
	Messages               []string `json:"messages"`
}

// Adapt compares an in-progress session against the learner's thresholds.
func Adapt(s *models.LearningSession, p *models.AdaptiveProfile) Adaptation {
	out := Adaptation{Messages: []string{}}
	if s.AvgTimeOnContent > float64(p.AttentionProfile.AverageFocusDuration) && p.AttentionProfile.AverageFocusDuration > 0 {
		out.SuggestBreak = true
		out.Messages = append(out.Messages, "You've been focusing well! Time for a quick break?")
	}
	if s.FrustrationScore > p.EmotionalThresholds.FrustrationTriggerPoint {
		out.CalmingNeeded = true
		out.SimplifyContent = true
		out.Messages = append(out.Messages, "Let's take it easier. Would you like a simpler explanation?")
	}
	if s.EngagementScore < p.EmotionalThresholds.DisengagementTriggerPoint {
		out.EncouragementNeeded = true
		if p.DiscoveredPreferences.RespondsToGamification {
			out.Messages = append(out.Messages, "You're making progress! Keep going to earn bonus points!")
		} else {
			out.Messages = append(out.Messages, "You're doing great. Just a little more to go!")
		}
	}
	if types := p.DiscoveredPreferences.PreferredContentTypes; len(types) > 0 && s.EngagementScore < 50 {
		out.OfferAlternativeFormat = true
		out.SuggestedFormat = types[0].Type
		out.Messages = append(out.Messages, "Would you like to try the "+types[0].Type+" version instead?")
	}
	return out
}
