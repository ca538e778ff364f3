package models

import "time"

// TimeOfDay buckets a session start time.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimeOfDayAt returns the bucket for t's local hour.
func TimeOfDayAt(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 21:
		return Evening
	default:
		return Night
	}
}

// EngagementLevel is the qualitative engagement recorded for a content interaction.
type EngagementLevel string

const (
	EngagementLow    EngagementLevel = "low"
	EngagementMedium EngagementLevel = "medium"
	EngagementHigh   EngagementLevel = "high"
)

// ContentInteraction records time spent on a single piece of content.
type ContentInteraction struct {
	ContentID       string          `json:"content_id"`
	ContentType     string          `json:"content_type"` // text, video, audio, interactive, ...
	Engagement      EngagementLevel `json:"engagement"`
	CompletionRate  float64         `json:"completion_rate"` // 0..1
	WasSkipped      bool            `json:"was_skipped"`
	DurationSeconds int             `json:"duration_seconds"`
}

// QuizOutcome is a single answered item inside a session.
type QuizOutcome struct {
	ItemID         string  `json:"item_id"`
	ConceptID      string  `json:"concept_id,omitempty"`
	IsCorrect      bool    `json:"is_correct"`
	ResponseTimeMs float64 `json:"response_time_ms"`
}

// BreakRecord is a pause taken during a session.
type BreakRecord struct {
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
	WasPrompted     bool      `json:"was_prompted"`
	ReturnedAfter   bool      `json:"returned_after"`
}

// LearningSession is one sitting of a learner. Counters grow while the session is
// open; once EndedAt is set the session is frozen.
type LearningSession struct {
	ID        string     `json:"id" db:"id"`
	LearnerID string     `json:"learner_id" db:"learner_id"`
	CourseID  string     `json:"course_id" db:"course_id"`
	LessonID  string     `json:"lesson_id" db:"lesson_id"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	TotalDuration  int       `json:"total_duration"`  // seconds, set at close
	ActiveDuration int       `json:"active_duration"` // seconds, total minus breaks
	TimeOfDay      TimeOfDay `json:"time_of_day"`

	InteractionCount int     `json:"interaction_count"`
	TabSwitches      int     `json:"tab_switches"`
	BacktrackCount   int     `json:"backtrack_count"`
	RereadCount      int     `json:"reread_count"`
	HelpRequests     int     `json:"help_requests"`
	ClickFrequency   float64 `json:"click_frequency"`     // clicks per minute
	AvgTimeOnContent float64 `json:"avg_time_on_content"` // seconds
	ResponseTime     float64 `json:"response_time"`       // mean seconds per quiz item

	FrustrationScore float64 `json:"frustration_score"` // 0..100
	EngagementScore  float64 `json:"engagement_score"`  // 0..100
	FocusScore       float64 `json:"focus_score"`       // 0..100

	ContentTime         map[string]int       `json:"content_time,omitempty"` // seconds per content type
	ContentInteractions []ContentInteraction `json:"content_interactions,omitempty"`
	QuizOutcomes        []QuizOutcome        `json:"quiz_outcomes,omitempty"`
	Breaks              []BreakRecord        `json:"breaks,omitempty"`

	LessonCompleted    bool    `json:"lesson_completed"`
	OverallPerformance float64 `json:"overall_performance"` // 0..100
}

// IsClosed reports whether the session has ended.
func (s *LearningSession) IsClosed() bool { return s.EndedAt != nil }
