package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/masterybot/internal/apperr"
	"github.com/example/masterybot/pkg/models"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func mustDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newRecord() *models.SpacedRepetitionRecord {
	rec := &models.SpacedRepetitionRecord{LearnerID: "l1", CourseID: "c1"}
	for _, id := range []string{"b", "a", "c"} {
		rec.Concepts = append(rec.Concepts, models.NewConceptState("c1",
			models.ConceptSpec{ConceptID: id, Label: "Concept " + id}, models.DefaultBKTParams()))
	}
	return rec
}

func TestRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepository(mustDB(t))

	if _, err := repo.Load(ctx, "l1", "c1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Load missing = %v", err)
	}

	rec := newRecord()
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.Version != 1 {
		t.Fatalf("version = %d", rec.Version)
	}

	next := t0.Add(72 * time.Hour)
	rec.Concepts[1].SetMastery(0.39)
	rec.Concepts[1].Attempts = 1
	rec.Concepts[1].CorrectAttempts = 1
	rec.Concepts[1].ResponseTimes = []float64{1200}
	rec.Concepts[1].LeitnerBox = 2
	rec.Concepts[1].NextReview = &next
	pre := 40.0
	rec.PreAssessmentScore = &pre
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := repo.Load(ctx, "l1", "c1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("version = %d", got.Version)
	}
	if len(got.Concepts) != 3 || got.Concepts[0].ConceptID != "b" || got.Concepts[2].ConceptID != "c" {
		t.Fatalf("concept order = %+v", got.Concepts)
	}
	a := got.Concepts[1]
	if a.PMastery != 0.39 || a.LeitnerBox != 2 || len(a.ResponseTimes) != 1 || a.NextReview == nil || !a.NextReview.Equal(next) {
		t.Fatalf("concept a = %+v", a)
	}
	if a.PInit != 0.10 || a.PSlip != 0.10 {
		t.Fatalf("params = %+v", a.BKTParams)
	}
	if got.PreAssessmentScore == nil || *got.PreAssessmentScore != 40 || got.PostAssessmentScore != nil {
		t.Fatalf("scores = %v %v", got.PreAssessmentScore, got.PostAssessmentScore)
	}
}

func TestRecordVersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepository(mustDB(t))
	rec := newRecord()
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := repo.Save(ctx, newRecord()); !errors.Is(err, apperr.ErrConcurrencyConflict) {
		t.Fatalf("duplicate create = %v", err)
	}

	stale, _ := repo.Load(ctx, "l1", "c1")
	fresh, _ := repo.Load(ctx, "l1", "c1")
	fresh.Concepts[0].SetMastery(0.5)
	if err := repo.Save(ctx, fresh); err != nil {
		t.Fatal(err)
	}
	stale.Concepts[0].SetMastery(0.2)
	if err := repo.Save(ctx, stale); !errors.Is(err, apperr.ErrConcurrencyConflict) {
		t.Fatalf("stale save = %v", err)
	}

	got, _ := repo.Load(ctx, "l1", "c1")
	if got.Concepts[0].PMastery != 0.5 {
		t.Fatalf("stale write applied: %v", got.Concepts[0].PMastery)
	}
}

func TestListByLearner(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepository(mustDB(t))
	for _, course := range []string{"z", "m"} {
		rec := &models.SpacedRepetitionRecord{LearnerID: "l1", CourseID: course}
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	recs, err := repo.ListByLearner(ctx, "l1")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].CourseID != "m" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(mustDB(t))

	p := &models.AdaptiveProfile{LearnerID: "l1", OnboardingStartedAt: t0, Conditions: []string{"adhd"}}
	p.Insights.Append(models.Insight{Statement: "hello", Confidence: 50, DiscoveredAt: t0, BasedOnSessions: 1})
	if err := repo.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Load(ctx, "l1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 || got.Insights.Len() != 1 || got.Conditions[0] != "adhd" {
		t.Fatalf("profile = %+v", got)
	}

	stale := *got
	got.SessionsAnalyzed = 3
	if err := repo.Save(ctx, got); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, &stale); !errors.Is(err, apperr.ErrConcurrencyConflict) {
		t.Fatalf("stale save = %v", err)
	}
	if _, err := repo.Load(ctx, "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing = %v", err)
	}
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(mustDB(t))

	for i := 0; i < 4; i++ {
		s := &models.LearningSession{ID: string(rune('a' + i)), LearnerID: "l1", StartedAt: t0.Add(time.Duration(i) * time.Hour)}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	s, err := repo.Get(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	s.InteractionCount = 7
	if err := repo.Update(ctx, s); err != nil {
		t.Fatal(err)
	}
	end := t0.Add(2 * time.Hour)
	s.EndedAt = &end
	if err := repo.Update(ctx, s); err != nil {
		t.Fatalf("closing update: %v", err)
	}
	s.InteractionCount = 99
	if err := repo.Update(ctx, s); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("update after close = %v", err)
	}
	if err := repo.Update(ctx, &models.LearningSession{ID: "zz"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("update missing = %v", err)
	}

	recent, err := repo.RecentClosed(ctx, "l1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != "b" {
		t.Fatalf("recent = %+v", recent)
	}
	if recent[0].InteractionCount != 7 {
		t.Fatalf("closed session changed: %+v", recent[0])
	}
	if n, _ := repo.Count(ctx, "l1"); n != 4 {
		t.Fatalf("count = %d", n)
	}
}

func TestSessionRepositoryRecentClosedSkipsOpenSessions(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(mustDB(t))

	// three old closed sessions followed by five newer open ones
	for i := 0; i < 8; i++ {
		start := t0.Add(time.Duration(i) * time.Hour)
		s := &models.LearningSession{ID: fmt.Sprintf("s%d", i), LearnerID: "l1", StartedAt: start}
		if i < 3 {
			end := start.Add(30 * time.Minute)
			s.EndedAt = &end
		}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := repo.RecentClosed(ctx, "l1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != "s1" || recent[1].ID != "s2" {
		t.Fatalf("recent closed = %+v", recent)
	}

	all, err := repo.RecentClosed(ctx, "l1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "s0" {
		t.Fatalf("recent closed with room = %+v", all)
	}
}

func TestLearnerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewLearnerRepository(mustDB(t))

	l := &models.Learner{ID: "l1", TelegramChatID: 42, NotificationHour: 9, NotificationsEnabled: true}
	if err := repo.Upsert(ctx, l); err != nil {
		t.Fatal(err)
	}
	if err := repo.Upsert(ctx, &models.Learner{ID: "l2", TelegramChatID: 43, NotificationHour: 9}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByChatID(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "l1" || got.NotificationHour != 9 || !got.NotificationsEnabled {
		t.Fatalf("learner = %+v", got)
	}

	list, err := repo.ListForNotification(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "l1" {
		t.Fatalf("notifiable = %+v", list)
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing = %v", err)
	}
}

func TestLearnersTableHasNoConditionsColumn(t *testing.T) {
	rows, err := mustDB(t).Queryx(`SELECT * FROM learners`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(cols, ", "); got != learnerColumns {
		t.Fatalf("learners columns = %q, want %q", got, learnerColumns)
	}
}
