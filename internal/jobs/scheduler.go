package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"gittogether/api/internal/queue"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) (string, error)
}

type Scheduler struct {
	cron  *cron.Cron
	queue Enqueuer
	spec  string
	log   zerolog.Logger
	now   func() time.Time
}

// NewScheduler builds a seconds-precision scheduler. spec is the cron
// expression of the daily pending-request reminder.
func NewScheduler(queue Enqueuer, spec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		queue: queue,
		spec:  spec,
		log:   log,
		now:   time.Now,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		s.log.Warn().Msg("no task queue configured, scheduled jobs disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.enqueuePendingReminder); err != nil {
		return fmt.Errorf("schedule pending reminder %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Msg("scheduler started")
	return nil
}

// Stop waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// ReminderWindow spans from the start of yesterday, in now's location, to now.
func ReminderWindow(now time.Time) (time.Time, time.Time) {
	y, m, d := now.AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), now
}

func (s *Scheduler) enqueuePendingReminder() {
	from, to := ReminderWindow(s.now())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := s.queue.Enqueue(ctx, queue.TaskPendingReminder, queue.PendingReminder{From: from, To: to})
	if err != nil {
		s.log.Error().Err(err).Msg("enqueue pending reminder failed")
		return
	}
	s.log.Info().Str("task_id", id).Time("from", from).Msg("pending reminder enqueued")
}
