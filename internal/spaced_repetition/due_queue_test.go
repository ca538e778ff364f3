package spaced_repetition

import (
	"testing"
	"time"

	"github.com/example/masterybot/pkg/models"
)

func at(d time.Duration) *time.Time {
	v := t0.Add(d)
	return &v
}

func record(concepts ...models.ConceptState) *models.SpacedRepetitionRecord {
	return &models.SpacedRepetitionRecord{LearnerID: "u1", CourseID: "course-1", Concepts: concepts}
}

func withState(id string, mastery float64, next *time.Time) models.ConceptState {
	c := concept(id, 1)
	c.SetMastery(mastery)
	c.NextReview = next
	return c
}

func ids(cs []models.ConceptState) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ConceptID
	}
	return out
}

func TestBuildDueQueueFiltersAndOrders(t *testing.T) {
	rec := record(
		withState("overdue-strong", 0.6, at(-48*time.Hour)),
		withState("future", 0.2, at(time.Hour)),
		withState("never-scheduled", 0.1, nil),
		withState("mastered", 0.9, at(-time.Hour)),
		withState("overdue-weak", 0.3, at(-time.Minute)),
		withState("due-now", 0.3, at(0)),
	)
	got := ids(BuildDueQueue(rec, t0))
	want := []string{"overdue-weak", "due-now", "overdue-strong"}
	if len(got) != len(want) {
		t.Fatalf("queue = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue = %v, want %v", got, want)
		}
	}
}

func TestBuildDueQueueNeverIncludesMastered(t *testing.T) {
	rec := record()
	for i := 0; i < 20; i++ {
		m := float64(i) / 20
		rec.Concepts = append(rec.Concepts, withState(string(rune('a'+i)), m, at(-time.Hour)))
	}
	for _, c := range BuildDueQueue(rec, t0) {
		if c.IsMastered {
			t.Errorf("mastered concept %s in queue", c.ConceptID)
		}
	}
}

func TestBuildDueQueueDoesNotMutate(t *testing.T) {
	rec := record(withState("a", 0.5, at(-time.Hour)))
	q := BuildDueQueue(rec, t0)
	q[0].PMastery = 0
	*q[0].NextReview = t0.Add(time.Hour)
	if rec.Concepts[0].PMastery != 0.5 || !rec.Concepts[0].NextReview.Equal(t0.Add(-time.Hour)) {
		t.Error("record mutated through queue")
	}
}

func TestOrderByIDs(t *testing.T) {
	rec := record(
		withState("a", 0.2, at(-time.Hour)),
		withState("b", 0.9, at(-time.Hour)),
		withState("c", 0.4, nil),
	)
	q, ok := OrderByIDs(rec, []string{"c", "b", "a"})
	if !ok {
		t.Fatal("ok = false")
	}
	if got := ids(q); len(got) != 2 || got[0] != "c" || got[1] != "a" {
		t.Errorf("queue = %v, want [c a]", got)
	}
	if _, ok := OrderByIDs(rec, []string{"a", "zzz"}); ok {
		t.Error("unknown id accepted")
	}
	if _, ok := OrderByIDs(rec, []string{"a", "a"}); ok {
		t.Error("duplicate id accepted")
	}
}
