package models

import "time"

// AssessmentKind distinguishes pre- and post-course assessments.
type AssessmentKind string

const (
	AssessmentPre  AssessmentKind = "pre"
	AssessmentPost AssessmentKind = "post"
)

// SpacedRepetitionRecord holds every concept state of one learner in one course.
// The derived fields are recomputed on every write and on every read.
type SpacedRepetitionRecord struct {
	LearnerID string `json:"learner_id" db:"learner_id"`
	CourseID  string `json:"course_id" db:"course_id"`
	Version   int64  `json:"version" db:"version"`

	Concepts []ConceptState `json:"concepts" db:"-"`

	OverallMastery       float64 `json:"overall_mastery" db:"-"`
	TotalConcepts        int     `json:"total_concepts" db:"-"`
	MasteredConcepts     int     `json:"mastered_concepts" db:"-"`
	ConceptsDueForReview int     `json:"concepts_due_for_review" db:"-"`

	PreAssessmentScore  *float64 `json:"pre_assessment_score,omitempty" db:"pre_assessment_score"`
	PostAssessmentScore *float64 `json:"post_assessment_score,omitempty" db:"post_assessment_score"`
	NormalizedGain      *float64 `json:"normalized_gain,omitempty" db:"normalized_gain"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ConceptIndex returns the position of conceptID in Concepts.
func (r *SpacedRepetitionRecord) ConceptIndex(conceptID string) (int, bool) {
	for i := range r.Concepts {
		if r.Concepts[i].ConceptID == conceptID {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy that can be mutated without affecting r.
func (r SpacedRepetitionRecord) Clone() SpacedRepetitionRecord {
	out := r
	out.Concepts = make([]ConceptState, len(r.Concepts))
	for i := range r.Concepts {
		out.Concepts[i] = r.Concepts[i].Clone()
	}
	out.PreAssessmentScore = cloneFloat(r.PreAssessmentScore)
	out.PostAssessmentScore = cloneFloat(r.PostAssessmentScore)
	out.NormalizedGain = cloneFloat(r.NormalizedGain)
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
