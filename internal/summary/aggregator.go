// Package summary derives mastery aggregates from spaced-repetition records.
package summary

import (
	"math"
	"sort"
	"time"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/pkg/models"
)

// LearningThreshold separates "learning" from "not started" in the
// multi-course breakdown.
const LearningThreshold = 0.15

// ConceptBrief is a compact view of a concept used in rankings.
type ConceptBrief struct {
	ConceptID  string  `json:"concept_id"`
	Label      string  `json:"label"`
	PMastery   float64 `json:"p_mastery"`
	Accuracy   float64 `json:"accuracy"`
	LeitnerBox int     `json:"leitner_box"`
}

// Distribution counts concepts by mastery band.
type Distribution struct {
	Low    int `json:"low"`    // < 0.4
	Medium int `json:"medium"` // 0.4 to threshold
	High   int `json:"high"`   // >= threshold
}

// CourseSummary aggregates one learner's record in one course.
type CourseSummary struct {
	LearnerID            string         `json:"learner_id"`
	CourseID             string         `json:"course_id"`
	TotalConcepts        int            `json:"total_concepts"`
	MasteredConcepts     int            `json:"mastered_concepts"`
	InProgress           int            `json:"in_progress"`
	ConceptsDueForReview int            `json:"concepts_due_for_review"`
	OverallMastery       float64        `json:"overall_mastery"`
	Distribution         Distribution   `json:"distribution"`
	Weakest              []ConceptBrief `json:"weakest"`
	Strongest            []ConceptBrief `json:"strongest"`
	PreAssessmentScore   *float64       `json:"pre_assessment_score,omitempty"`
	PostAssessmentScore  *float64       `json:"post_assessment_score,omitempty"`
	NormalizedGain       *float64       `json:"normalized_gain,omitempty"`
}

// LearnerSummary buckets every concept across all of a learner's courses into
// four mutually exclusive states.
type LearnerSummary struct {
	LearnerID      string   `json:"learner_id"`
	Courses        []string `json:"courses"`
	TotalConcepts  int      `json:"total_concepts"`
	Mastered       int      `json:"mastered"`
	DueForReview   int      `json:"due_for_review"`
	Learning       int      `json:"learning"`
	NotStarted     int      `json:"not_started"`
	MasteryRatio   float64  `json:"mastery_ratio"`   // mastered / total
	OverallMastery float64  `json:"overall_mastery"` // mean p(mastery)
}

// Recompute refreshes the derived fields of record against now.
func Recompute(record *models.SpacedRepetitionRecord, now time.Time) {
	record.TotalConcepts = len(record.Concepts)
	record.MasteredConcepts = 0
	record.ConceptsDueForReview = 0
	sum := 0.0
	for i := range record.Concepts {
		c := &record.Concepts[i]
		sum += c.PMastery
		if c.IsMastered {
			record.MasteredConcepts++
		}
		if c.IsDue(now) {
			record.ConceptsDueForReview++
		}
	}
	record.OverallMastery = 0
	if record.TotalConcepts > 0 {
		record.OverallMastery = sum / float64(record.TotalConcepts)
	}
}

// RecordAssessment stores a 0-100 score and recomputes the normalized gain.
// The gain is set only when both scores exist and pre < 100.
func RecordAssessment(record *models.SpacedRepetitionRecord, kind models.AssessmentKind, score float64) error {
	if math.IsNaN(score) || score < 0 || score > 100 {
		return apperr.Validationf("assessment score %v out of range [0,100]", score)
	}
	switch kind {
	case models.AssessmentPre:
		record.PreAssessmentScore = &score
	case models.AssessmentPost:
		record.PostAssessmentScore = &score
	default:
		return apperr.Validationf("assessment kind %q: want pre or post", kind)
	}
	record.NormalizedGain = NormalizedGain(record.PreAssessmentScore, record.PostAssessmentScore)
	return nil
}

// NormalizedGain returns (post-pre)/(100-pre), or nil when it is undefined.
func NormalizedGain(pre, post *float64) *float64 {
	if pre == nil || post == nil || *pre >= 100 {
		return nil
	}
	g := (*post - *pre) / (100 - *pre)
	return &g
}

// Course builds the summary of a single record.
func Course(record *models.SpacedRepetitionRecord, now time.Time) CourseSummary {
	rec := record.Clone()
	Recompute(&rec, now)
	s := CourseSummary{
		LearnerID:            rec.LearnerID,
		CourseID:             rec.CourseID,
		TotalConcepts:        rec.TotalConcepts,
		MasteredConcepts:     rec.MasteredConcepts,
		InProgress:           rec.TotalConcepts - rec.MasteredConcepts,
		ConceptsDueForReview: rec.ConceptsDueForReview,
		OverallMastery:       rec.OverallMastery,
		PreAssessmentScore:   rec.PreAssessmentScore,
		PostAssessmentScore:  rec.PostAssessmentScore,
		NormalizedGain:       rec.NormalizedGain,
		Weakest:              []ConceptBrief{},
		Strongest:            []ConceptBrief{},
	}
	for _, c := range rec.Concepts {
		switch {
		case c.PMastery >= models.MasteryThreshold:
			s.Distribution.High++
		case c.PMastery >= 0.4:
			s.Distribution.Medium++
		default:
			s.Distribution.Low++
		}
	}

	sorted := append([]models.ConceptState(nil), rec.Concepts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PMastery < sorted[j].PMastery })
	for i := 0; i < len(sorted) && i < 5; i++ {
		s.Weakest = append(s.Weakest, brief(sorted[i]))
		s.Strongest = append(s.Strongest, brief(sorted[len(sorted)-1-i]))
	}
	return s
}

// Learner aggregates every record of a learner.
func Learner(learnerID string, records []models.SpacedRepetitionRecord, now time.Time) LearnerSummary {
	s := LearnerSummary{LearnerID: learnerID, Courses: []string{}}
	sum := 0.0
	for i := range records {
		s.Courses = append(s.Courses, records[i].CourseID)
		for j := range records[i].Concepts {
			c := &records[i].Concepts[j]
			s.TotalConcepts++
			sum += c.PMastery
			switch {
			case c.PMastery >= models.MasteryThreshold:
				s.Mastered++
			case c.NextReview != nil && !c.NextReview.After(now):
				s.DueForReview++
			case c.PMastery > LearningThreshold:
				s.Learning++
			default:
				s.NotStarted++
			}
		}
	}
	if s.TotalConcepts > 0 {
		s.MasteryRatio = float64(s.Mastered) / float64(s.TotalConcepts)
		s.OverallMastery = sum / float64(s.TotalConcepts)
	}
	sort.Strings(s.Courses)
	return s
}

func brief(c models.ConceptState) ConceptBrief {
	return ConceptBrief{ConceptID: c.ConceptID, Label: c.Label, PMastery: c.PMastery, Accuracy: c.Accuracy(), LeitnerBox: c.LeitnerBox}
}
