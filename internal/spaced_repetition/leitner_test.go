package spaced_repetition

import (
	"testing"
	"time"

	"github.com/example/masterybot/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func concept(id string, box int) models.ConceptState {
	c := models.NewConceptState("course-1", models.ConceptSpec{ConceptID: id}, models.DefaultBKTParams())
	c.LeitnerBox = box
	return c
}

func TestAdvanceCorrectPromotes(t *testing.T) {
	l := NewLeitner()
	next := l.Advance(concept("a", 1), true, t0)
	if next.LeitnerBox != 2 {
		t.Errorf("box = %d, want 2", next.LeitnerBox)
	}
	if want := t0.Add(3 * 24 * time.Hour); next.NextReview == nil || !next.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", next.NextReview, want)
	}
	if next.ReviewCount != 1 {
		t.Errorf("ReviewCount = %d", next.ReviewCount)
	}
}

func TestAdvanceCapsAtFive(t *testing.T) {
	next := NewLeitner().Advance(concept("a", 5), true, t0)
	if next.LeitnerBox != 5 {
		t.Errorf("box = %d, want 5", next.LeitnerBox)
	}
	if want := t0.Add(30 * 24 * time.Hour); !next.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", next.NextReview, want)
	}
}

func TestAdvanceIncorrectResetsFromAnyBox(t *testing.T) {
	l := NewLeitner()
	for box := 1; box <= 5; box++ {
		next := l.Advance(concept("a", box), false, t0)
		if next.LeitnerBox != 1 {
			t.Errorf("from box %d: box = %d, want 1", box, next.LeitnerBox)
		}
		if want := t0.Add(24 * time.Hour); !next.NextReview.Equal(want) {
			t.Errorf("from box %d: NextReview = %v", box, next.NextReview)
		}
	}
}

func TestAdvanceStaysInBounds(t *testing.T) {
	l := NewLeitner()
	c := concept("a", 1)
	answers := []bool{true, true, true, true, true, true, true, false, true, true, false, false}
	for _, a := range answers {
		c = l.Advance(c, a, t0)
		if c.LeitnerBox < models.MinLeitnerBox || c.LeitnerBox > models.MaxLeitnerBox {
			t.Fatalf("box %d out of bounds", c.LeitnerBox)
		}
	}
	if c.ReviewCount != len(answers) {
		t.Errorf("ReviewCount = %d", c.ReviewCount)
	}
}

func TestIntervalTable(t *testing.T) {
	want := map[int]int{0: 1, 1: 1, 2: 3, 3: 7, 4: 14, 5: 30, 9: 30}
	for box, days := range want {
		if got := IntervalFor(box); got != time.Duration(days)*24*time.Hour {
			t.Errorf("IntervalFor(%d) = %v, want %d days", box, got, days)
		}
	}
}
