package models

import "time"

// MasteryThreshold is the p(mastery) at or above which a concept counts as mastered.
const MasteryThreshold = 0.80

// Leitner box bounds.
const (
	MinLeitnerBox = 1
	MaxLeitnerBox = 5
)

// BKTParams are the four Bayesian Knowledge Tracing parameters of a concept.
type BKTParams struct {
	PInit    float64 `json:"p_init" db:"p_init"`       // P(L0), prior probability of knowing
	PTransit float64 `json:"p_transit" db:"p_transit"` // P(T), probability of learning per attempt
	PGuess   float64 `json:"p_guess" db:"p_guess"`     // P(G), correct without mastery
	PSlip    float64 `json:"p_slip" db:"p_slip"`       // P(S), wrong despite mastery
}

// DefaultBKTParams returns the parameters used when no condition tuning applies.
func DefaultBKTParams() BKTParams {
	return BKTParams{PInit: 0.10, PTransit: 0.15, PGuess: 0.25, PSlip: 0.10}
}

// ConceptSpec describes a concept to introduce into a learner's course record.
type ConceptSpec struct {
	ConceptID string     `json:"concept_id"`
	Label     string     `json:"label"`
	LessonID  string     `json:"lesson_id"`
	Params    *BKTParams `json:"params,omitempty"` // nil → tuned for the learner's conditions
}

// ConceptState tracks one learner's mastery of one concept in one course.
type ConceptState struct {
	ConceptID string `json:"concept_id" db:"concept_id"`
	Label     string `json:"label" db:"label"`
	CourseID  string `json:"course_id" db:"course_id"`
	LessonID  string `json:"lesson_id" db:"lesson_id"`

	BKTParams

	PMastery        float64    `json:"p_mastery" db:"p_mastery"`
	Attempts        int        `json:"attempts" db:"attempts"`
	CorrectAttempts int        `json:"correct_attempts" db:"correct_attempts"`
	ResponseTimes   []float64  `json:"response_times" db:"-"` // milliseconds, in answer order
	LastAttempt     *time.Time `json:"last_attempt,omitempty" db:"last_attempt"`

	LeitnerBox  int        `json:"leitner_box" db:"leitner_box"`
	NextReview  *time.Time `json:"next_review,omitempty" db:"next_review"`
	ReviewCount int        `json:"review_count" db:"review_count"`
	IsMastered  bool       `json:"is_mastered" db:"is_mastered"`
}

// NewConceptState builds the initial state of a concept for a course.
func NewConceptState(courseID string, spec ConceptSpec, params BKTParams) ConceptState {
	c := ConceptState{
		ConceptID:  spec.ConceptID,
		Label:      spec.Label,
		CourseID:   courseID,
		LessonID:   spec.LessonID,
		BKTParams:  params,
		LeitnerBox: MinLeitnerBox,
	}
	c.SetMastery(params.PInit)
	return c
}

// SetMastery is the only way p(mastery) should change; it keeps IsMastered consistent.
func (c *ConceptState) SetMastery(p float64) {
	c.PMastery = p
	c.IsMastered = p >= MasteryThreshold
}

// IsDue reports whether the concept is eligible for review at now.
func (c *ConceptState) IsDue(now time.Time) bool {
	return c.NextReview != nil && !c.NextReview.After(now) && !c.IsMastered
}

// Accuracy returns correct/attempts, or 0 before the first attempt.
func (c *ConceptState) Accuracy() float64 {
	if c.Attempts == 0 {
		return 0
	}
	return float64(c.CorrectAttempts) / float64(c.Attempts)
}

// Clone returns a deep copy.
func (c ConceptState) Clone() ConceptState {
	out := c
	if c.ResponseTimes != nil {
		out.ResponseTimes = append([]float64(nil), c.ResponseTimes...)
	}
	out.LastAttempt = cloneTime(c.LastAttempt)
	out.NextReview = cloneTime(c.NextReview)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
