package profile

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/example/masterybot/internal/knowledge"
	"github.com/example/masterybot/pkg/models"
)

// Per-facet confidence gained per analyzed session, capped at 100.
const (
	overallConfidencePerSession   = 15
	contentConfidencePerSession   = 12
	timingConfidencePerSession    = 10
	attentionConfidencePerSession = 18
)

var engagementScore = map[models.EngagementLevel]float64{
	models.EngagementLow:    30,
	models.EngagementMedium: 60,
	models.EngagementHigh:   100,
}

var sessionMilestones = []int{100, 50, 25, 10, 5, 1}

var attentionConditions = map[string]bool{"adhd": true, "add": true}

// LocalAnalyzer computes the profile from plain session statistics. It never fails.
type LocalAnalyzer struct{}

func (LocalAnalyzer) Name() string { return models.SourceLocal }

func (LocalAnalyzer) Analyze(_ context.Context, w Window) (*Analysis, error) {
	return analyzeLocally(w), nil
}

func analyzeLocally(w Window) *Analysis {
	n := len(w.Sessions)
	if n == 0 {
		return DefaultAnalysis(w.Conditions)
	}
	st := collect(w.Sessions)

	prefs := models.DiscoveredPreferences{
		OptimalChunkSize:           chunkSize(st.avgFocus),
		OptimalSessionDuration:     optimalSessionMinutes(w.Sessions),
		OptimalBreakFrequency:      breakFrequency(st.avgTabSwitches),
		OptimalBreakDuration:       5,
		PreferredContentTypes:      st.contentScores(),
		OptimalTimeSlots:           st.timeSlots(),
		IdealDifficultyProgression: difficultyProgression(st.avgFrustration, st.avgPerformance),
		NeedsMoreExamples:          st.avgHelp > 2,
		NeedsMorePractice:          st.avgReread > 3,
		VisualComplexityTolerance:  visualTolerance(st.avgBacktrack),
		AudioComplexityTolerance:   models.ToleranceMedium,
		AnimationTolerance:         models.ToleranceModerate,
		PrefersGuidedLearning:      st.avgHelp > 1,
		PrefersExploration:         st.avgClickFreq > 1.5,
		NeedsFrequentFeedback:      true,
		RespondsToGamification:     st.avgEngagement > 60,
	}
	if st.avgFrustration > 60 {
		prefs.AnimationTolerance = models.ToleranceMinimal
	}

	attention := models.AttentionProfile{
		AverageFocusDuration:   int(st.avgFocus),
		FocusRecoveryTime:      st.recoveryTime(),
		DistractionSensitivity: models.ToleranceMedium,
		OptimalContentLength:   int(st.avgFocus * 0.8),
	}
	if st.avgTabSwitches > 3 {
		attention.DistractionSensitivity = models.ToleranceHigh
	}

	thresholds := models.EmotionalThresholds{
		FrustrationTriggerPoint:   math.Max(50, percentile(st.frustration, 0.75)),
		DisengagementTriggerPoint: math.Max(20, percentile(st.engagement, 0.25)),
		OptimalChallengeLevel:     st.avgEngagement,
	}

	return &Analysis{
		Preferences:      prefs,
		Attention:        attention,
		Thresholds:       thresholds,
		Confidence:       ConfidenceFor(n),
		Insights:         insights(w, st, prefs),
		SessionsAnalyzed: n,
		Source:           models.SourceLocal,
	}
}

// ConfidenceFor returns the local confidence after n sessions.
func ConfidenceFor(n int) models.ConfidenceScores {
	f := func(per int) float64 { return math.Min(100, float64(n*per)) }
	return models.ConfidenceScores{
		Overall:           f(overallConfidencePerSession),
		ContentPreference: f(contentConfidencePerSession),
		TimingPreference:  f(timingConfidencePerSession),
		AttentionPattern:  f(attentionConfidencePerSession),
	}
}

type stats struct {
	n              int
	avgFocus       float64
	avgTabSwitches float64
	avgHelp        float64
	avgReread      float64
	avgBacktrack   float64
	avgClickFreq   float64
	avgFrustration float64
	avgEngagement  float64
	avgPerformance float64
	avgMinutes     float64

	frustration []float64
	engagement  []float64

	slotPerf     map[models.TimeOfDay][]float64
	contentEng   map[string][]float64
	breakSeconds []float64
}

func collect(sessions []models.LearningSession) stats {
	st := stats{
		n:          len(sessions),
		slotPerf:   make(map[models.TimeOfDay][]float64),
		contentEng: make(map[string][]float64),
	}
	for _, s := range sessions {
		st.avgFocus += s.AvgTimeOnContent
		st.avgTabSwitches += float64(s.TabSwitches)
		st.avgHelp += float64(s.HelpRequests)
		st.avgReread += float64(s.RereadCount)
		st.avgBacktrack += float64(s.BacktrackCount)
		st.avgClickFreq += s.ClickFrequency
		st.avgPerformance += s.OverallPerformance
		st.avgMinutes += float64(s.TotalDuration) / 60
		st.frustration = append(st.frustration, s.FrustrationScore)
		st.engagement = append(st.engagement, s.EngagementScore)

		slot := s.TimeOfDay
		if slot == "" {
			slot = models.TimeOfDayAt(s.StartedAt)
		}
		st.slotPerf[slot] = append(st.slotPerf[slot], s.OverallPerformance)

		for _, ci := range s.ContentInteractions {
			if ci.ContentType == "" {
				continue
			}
			score, ok := engagementScore[ci.Engagement]
			if !ok {
				score = engagementScore[models.EngagementMedium]
			}
			st.contentEng[ci.ContentType] = append(st.contentEng[ci.ContentType], score)
		}
		for _, b := range s.Breaks {
			if b.ReturnedAfter {
				st.breakSeconds = append(st.breakSeconds, float64(b.DurationSeconds))
			}
		}
	}
	n := float64(st.n)
	st.avgFocus /= n
	st.avgTabSwitches /= n
	st.avgHelp /= n
	st.avgReread /= n
	st.avgBacktrack /= n
	st.avgClickFreq /= n
	st.avgPerformance /= n
	st.avgMinutes /= n
	st.avgFrustration = mean(st.frustration)
	st.avgEngagement = mean(st.engagement)
	return st
}

func (st stats) timeSlots() []models.TimeSlotScore {
	out := make([]models.TimeSlotScore, 0, len(st.slotPerf))
	for _, slot := range []models.TimeOfDay{models.Morning, models.Afternoon, models.Evening, models.Night} {
		if v, ok := st.slotPerf[slot]; ok {
			out = append(out, models.TimeSlotScore{TimeOfDay: slot, PerformanceScore: mean(v)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerformanceScore > out[j].PerformanceScore })
	return out
}

func (st stats) contentScores() []models.ContentTypeScore {
	out := make([]models.ContentTypeScore, 0, len(st.contentEng))
	for t, v := range st.contentEng {
		out = append(out, models.ContentTypeScore{Type: t, EffectivenessScore: mean(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EffectivenessScore != out[j].EffectivenessScore {
			return out[i].EffectivenessScore > out[j].EffectivenessScore
		}
		return out[i].Type < out[j].Type
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func (st stats) recoveryTime() int {
	if len(st.breakSeconds) == 0 {
		return 300
	}
	return int(mean(st.breakSeconds))
}

func chunkSize(avgFocus float64) string {
	switch {
	case avgFocus < 180:
		return "tiny"
	case avgFocus < 400:
		return "small"
	case avgFocus < 900:
		return "medium"
	default:
		return "large"
	}
}

// optimalSessionMinutes is the median length of sessions that completed the
// lesson with good performance.
func optimalSessionMinutes(sessions []models.LearningSession) int {
	var minutes []float64
	for _, s := range sessions {
		if s.LessonCompleted && s.OverallPerformance > 60 {
			minutes = append(minutes, float64(s.TotalDuration)/60)
		}
	}
	if len(minutes) == 0 {
		return 15
	}
	return int(math.Min(45, percentile(minutes, 0.5)))
}

func breakFrequency(avgTabSwitches float64) int {
	switch {
	case avgTabSwitches > 5:
		return 10
	case avgTabSwitches > 2:
		return 15
	default:
		return 25
	}
}

func difficultyProgression(frustration, performance float64) string {
	switch {
	case frustration > 65 || performance < 50:
		return "slow"
	case frustration < 40 && performance > 75:
		return "fast"
	default:
		return "moderate"
	}
}

func visualTolerance(avgBacktrack float64) string {
	switch {
	case avgBacktrack > 4:
		return models.ToleranceLow
	case avgBacktrack < 2:
		return models.ToleranceHigh
	default:
		return models.ToleranceMedium
	}
}

func insights(w Window, st stats, prefs models.DiscoveredPreferences) []models.Insight {
	n := st.n
	add := func(out []models.Insight, statement string, confidence float64) []models.Insight {
		return append(out, models.Insight{
			Statement:       statement,
			Confidence:      confidence,
			DiscoveredAt:    w.Now,
			BasedOnSessions: n,
		})
	}

	var out []models.Insight
	for _, m := range sessionMilestones {
		if n >= m {
			if m == 1 {
				out = add(out, "You've completed your first learning session", 100)
			} else {
				out = add(out, fmt.Sprintf("You've completed %d learning sessions", m), 100)
			}
			break
		}
	}

	if len(prefs.OptimalTimeSlots) > 0 {
		best := prefs.OptimalTimeSlots[0]
		out = add(out, fmt.Sprintf("You learn best in the %s with %.0f%% average performance", best.TimeOfDay, best.PerformanceScore),
			math.Min(90, float64(n*10)))
	}
	if len(prefs.PreferredContentTypes) > 0 {
		top := prefs.PreferredContentTypes[0]
		out = add(out, fmt.Sprintf("%s content works best for you (%.0f%% engagement)", titleCase(top.Type), top.EffectivenessScore),
			math.Min(85, float64(n*8)))
	}
	out = add(out, fmt.Sprintf("Your sessions last about %.0f minutes on average", st.avgMinutes), math.Min(80, float64(n*7)))

	conditions := knowledge.NormalizeConditions(w.Conditions)
	for _, c := range conditions {
		if attentionConditions[c] && st.avgMinutes < 15 {
			out = add(out, fmt.Sprintf("Shorter sessions of about %d minutes with frequent breaks suit you best", prefs.OptimalSessionDuration),
				math.Min(75, float64(n*7)))
			break
		}
	}
	if slices.Contains(conditions, "dyslexia") {
		audio, okA := st.contentEng["audio"]
		text, okT := st.contentEng["text"]
		if okA && okT && mean(audio) > mean(text) {
			out = add(out, "Audio content helps you learn more effectively than text", math.Min(80, float64(n*8)))
		}
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// percentile interpolates linearly between the closest ranks.
func percentile(v []float64, q float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}
