package models

import (
	"testing"
	"time"
)

func TestNewConceptState(t *testing.T) {
	c := NewConceptState("c1", ConceptSpec{ConceptID: "a", Label: "A"}, DefaultBKTParams())
	if c.PMastery != 0.10 || c.LeitnerBox != MinLeitnerBox || c.IsMastered || c.NextReview != nil {
		t.Errorf("initial state = %+v", c)
	}
}

func TestSetMasteryTracksThreshold(t *testing.T) {
	var c ConceptState
	c.SetMastery(MasteryThreshold)
	if !c.IsMastered {
		t.Error("p at threshold should be mastered")
	}
	c.SetMastery(MasteryThreshold - 0.01)
	if c.IsMastered {
		t.Error("p below threshold should not be mastered")
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	tests := []struct {
		name   string
		review *time.Time
		p      float64
		want   bool
	}{
		{"never scheduled", nil, 0.2, false},
		{"past", &past, 0.2, true},
		{"exactly now", &now, 0.2, true},
		{"future", &future, 0.2, false},
		{"mastered", &past, 0.9, false},
	}
	for _, tt := range tests {
		c := ConceptState{NextReview: tt.review}
		c.SetMastery(tt.p)
		if got := c.IsDue(now); got != tt.want {
			t.Errorf("%s: IsDue = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	at := time.Now()
	c := ConceptState{ResponseTimes: []float64{100}, NextReview: &at}
	d := c.Clone()
	d.ResponseTimes[0] = 5
	*d.NextReview = at.Add(time.Hour)
	if c.ResponseTimes[0] != 100 || !c.NextReview.Equal(at) {
		t.Error("Clone shares memory with the original")
	}
}

func TestAccuracy(t *testing.T) {
	c := ConceptState{}
	if c.Accuracy() != 0 {
		t.Error("accuracy before any attempt should be 0")
	}
	c.Attempts, c.CorrectAttempts = 4, 3
	if c.Accuracy() != 0.75 {
		t.Errorf("Accuracy = %v", c.Accuracy())
	}
}
