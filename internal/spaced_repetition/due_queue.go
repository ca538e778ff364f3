package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/masterybot/pkg/models"
)

// BuildDueQueue returns the concepts eligible for review at now: a review time
// is set and has passed, and the concept is not mastered. Weakest concepts come
// first; equal mastery keeps record order. The record is not modified.
func BuildDueQueue(record *models.SpacedRepetitionRecord, now time.Time) []models.ConceptState {
	var due []models.ConceptState
	for i := range record.Concepts {
		if record.Concepts[i].IsDue(now) {
			due = append(due, record.Concepts[i].Clone())
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].PMastery < due[j].PMastery
	})
	return due
}

// OrderByIDs arranges the record's concepts in the given id order, dropping
// mastered concepts. ok is false when ids names an unknown concept or repeats one.
func OrderByIDs(record *models.SpacedRepetitionRecord, ids []string) (queue []models.ConceptState, ok bool) {
	seen := make(map[string]bool, len(ids))
	queue = make([]models.ConceptState, 0, len(ids))
	for _, id := range ids {
		idx, found := record.ConceptIndex(id)
		if !found || seen[id] {
			return nil, false
		}
		seen[id] = true
		if record.Concepts[idx].IsMastered {
			continue
		}
		queue = append(queue, record.Concepts[idx].Clone())
	}
	return queue, true
}
