package spaced_repetition

import (
	"time"

	"github.com/example/masterybot/pkg/models"
)

// intervalDays maps a Leitner box to the days until its next review.
var intervalDays = map[int]int{
	1: 1,
	2: 3,
	3: 7,
	4: 14,
	5: 30,
}

// Leitner implements five-box Leitner scheduling.
type Leitner struct{}

// NewLeitner creates a Leitner scheduler.
func NewLeitner() *Leitner {
	return &Leitner{}
}

// IntervalFor returns the review delay for a box. Out-of-range boxes are clamped.
func IntervalFor(box int) time.Duration {
	return time.Duration(intervalDays[clampBox(box)]) * 24 * time.Hour
}

// Advance returns state moved between boxes for one answer and rescheduled
// relative to now. A correct answer promotes one box (max 5); an incorrect
// answer always demotes to box 1.
func (l *Leitner) Advance(state models.ConceptState, isCorrect bool, now time.Time) models.ConceptState {
	next := state.Clone()
	if isCorrect {
		next.LeitnerBox = clampBox(state.LeitnerBox + 1)
	} else {
		next.LeitnerBox = models.MinLeitnerBox
	}
	review := now.UTC().Add(IntervalFor(next.LeitnerBox))
	next.NextReview = &review
	next.ReviewCount++
	return next
}

func clampBox(box int) int {
	if box < models.MinLeitnerBox {
		return models.MinLeitnerBox
	}
	if box > models.MaxLeitnerBox {
		return models.MaxLeitnerBox
	}
	return box
}
