package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/masterybot/internal/engine"
	"github.com/example/masterybot/internal/summary"
	"github.com/example/masterybot/pkg/models"
)

type fakeLearners struct {
	byHour map[int][]models.Learner
	err    error
}

func (f *fakeLearners) ListForNotification(_ context.Context, hour int) ([]models.Learner, error) {
	return f.byHour[hour], f.err
}

type fakeSummaries map[string]int

func (f fakeSummaries) GetSummary(_ context.Context, learnerID, courseID string) (*engine.Summary, error) {
	if courseID != engine.AllCourses {
		return nil, errors.New("unexpected course " + courseID)
	}
	due, ok := f[learnerID]
	if !ok {
		return nil, errors.New("no records")
	}
	return &engine.Summary{Learner: &summary.LearnerSummary{LearnerID: learnerID, DueForReview: due}}, nil
}

type fakeNotifier struct {
	sent []string
	fail map[string]bool
}

func (f *fakeNotifier) SendReminder(_ context.Context, l models.Learner, s summary.LearnerSummary) error {
	if f.fail[l.ID] {
		return errors.New("blocked")
	}
	f.sent = append(f.sent, l.ID)
	return nil
}

func at(hour int) func() time.Time {
	return func() time.Time { return time.Date(2024, 6, 3, hour, 0, 0, 0, time.UTC) }
}

func TestRunOnceNotifiesLearnersWithDueConcepts(t *testing.T) {
	learners := &fakeLearners{byHour: map[int][]models.Learner{
		9: {{ID: "due"}, {ID: "idle"}, {ID: "missing"}, {ID: "blocked"}},
	}}
	n := &fakeNotifier{fail: map[string]bool{"blocked": true}}
	s := New(Options{
		Learners:  learners,
		Summaries: fakeSummaries{"due": 3, "idle": 0, "blocked": 2},
		Notifier:  n,
		Now:       at(9),
	})

	if got := s.RunOnce(context.Background()); got != 1 {
		t.Fatalf("RunOnce = %d, want 1", got)
	}
	if len(n.sent) != 1 || n.sent[0] != "due" {
		t.Errorf("sent = %v, want [due]", n.sent)
	}
}

func TestRunOnceOutsideWindow(t *testing.T) {
	learners := &fakeLearners{byHour: map[int][]models.Learner{23: {{ID: "due"}}}}
	n := &fakeNotifier{}
	s := New(Options{
		Learners:  learners,
		Summaries: fakeSummaries{"due": 1},
		Notifier:  n,
		StartHour: 8,
		EndHour:   22,
		Now:       at(23),
	})
	if got := s.RunOnce(context.Background()); got != 0 || len(n.sent) != 0 {
		t.Errorf("RunOnce outside window sent %d (%v)", got, n.sent)
	}
}

func TestRunOnceListError(t *testing.T) {
	s := New(Options{
		Learners:  &fakeLearners{err: errors.New("db down")},
		Summaries: fakeSummaries{},
		Notifier:  &fakeNotifier{},
		Now:       at(10),
	})
	if got := s.RunOnce(context.Background()); got != 0 {
		t.Errorf("RunOnce = %d, want 0", got)
	}
}

func TestRemind(t *testing.T) {
	n := &fakeNotifier{}
	s := New(Options{
		Learners:  &fakeLearners{},
		Summaries: fakeSummaries{"due": 2, "idle": 0},
		Notifier:  n,
		Now:       at(3),
	})

	sent, err := s.remind(context.Background(), models.Learner{ID: "due"})
	if err != nil || !sent {
		t.Fatalf("remind(due) = %v, %v", sent, err)
	}
	sent, err = s.remind(context.Background(), models.Learner{ID: "idle"})
	if err != nil || sent {
		t.Errorf("remind(idle) = %v, %v", sent, err)
	}
	if _, err := s.remind(context.Background(), models.Learner{ID: "missing"}); err == nil {
		t.Error("remind(missing) should fail")
	}
}

func TestNextHour(t *testing.T) {
	got := nextHour(time.Date(2024, 6, 3, 9, 41, 5, 0, time.UTC))
	if want := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextHour = %v, want %v", got, want)
	}
}
