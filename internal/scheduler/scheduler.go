package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/masterybot/internal/engine"
	"github.com/example/masterybot/internal/logger"
	"github.com/example/masterybot/internal/summary"
	"github.com/example/masterybot/pkg/models"
)

// Default notification window, inclusive, in the scheduler's time zone.
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier delivers a review reminder to one learner.
type Notifier interface {
	SendReminder(ctx context.Context, learner models.Learner, s summary.LearnerSummary) error
}

// LearnerLister selects learners whose reminder hour is hour.
type LearnerLister interface {
	ListForNotification(ctx context.Context, hour int) ([]models.Learner, error)
}

// SummarySource is satisfied by *engine.Engine.
type SummarySource interface {
	GetSummary(ctx context.Context, learnerID, courseID string) (*engine.Summary, error)
}

// Options configures a Scheduler. Zero hours fall back to the defaults.
type Options struct {
	Learners  LearnerLister
	Summaries SummarySource
	Notifier  Notifier
	StartHour int
	EndHour   int
	Location  *time.Location
	Now       func() time.Time
	Log       *logger.Logger
}

// Scheduler sends hourly review reminders.
type Scheduler struct {
	scheduler *gocron.Scheduler
	learners  LearnerLister
	summaries SummarySource
	notifier  Notifier
	startHour int
	endHour   int
	now       func() time.Time
	log       *logger.Logger
}

func New(opts Options) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		learners:  opts.Learners,
		summaries: opts.Summaries,
		notifier:  opts.Notifier,
		startHour: opts.StartHour,
		endHour:   opts.EndHour,
		now:       opts.Now,
		log:       opts.Log,
	}
	if s.startHour == 0 && s.endHour == 0 {
		s.startHour, s.endHour = DefaultNotificationStartHour, DefaultNotificationEndHour
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().In(loc) }
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.With("component", "scheduler")
	return s
}

// Start runs the hourly check in the background.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Hour().StartAt(nextHour(s.now())).Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce notifies every learner scheduled for the current hour who has
// concepts due for review. It returns the number of reminders sent.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	hour := s.now().Hour()
	if hour < s.startHour || hour > s.endHour {
		s.log.Debug("outside notification hours, skipping reminders", "hour", hour, "start", s.startHour, "end", s.endHour)
		return 0
	}

	learners, err := s.learners.ListForNotification(ctx, hour)
	if err != nil {
		s.log.Error("list learners for notification failed", "error", err, "hour", hour)
		return 0
	}

	sent := 0
	for _, l := range learners {
		if ctx.Err() != nil {
			break
		}
		ok, err := s.remind(ctx, l)
		if err != nil {
			s.log.Warn("send reminder failed", "error", err, "learner_id", l.ID)
			continue
		}
		if ok {
			sent++
		}
	}
	s.log.Info("reminders sent", "hour", hour, "candidates", len(learners), "sent", sent)
	return sent
}

// remind sends l a reminder when anything is due. sent is false when nothing is.
func (s *Scheduler) remind(ctx context.Context, l models.Learner) (sent bool, err error) {
	sum, err := s.summaries.GetSummary(ctx, l.ID, engine.AllCourses)
	if err != nil {
		return false, fmt.Errorf("load summary: %w", err)
	}
	if sum.Learner == nil || sum.Learner.DueForReview == 0 {
		return false, nil
	}
	if err := s.notifier.SendReminder(ctx, l, *sum.Learner); err != nil {
		return false, err
	}
	return true, nil
}

func nextHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}
