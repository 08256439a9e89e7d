package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the poller on a fixed interval. Wake triggers an immediate
// extra run when a new subscription or pending calculation is registered, so
// nobody waits a full interval for a rate that is already published.
type Scheduler struct {
	poller   *Poller
	interval time.Duration

	// mu guards sched and job: Wake arrives from request goroutines while
	// Shutdown may run from the ctx watcher and the caller's defer at once.
	mu    sync.Mutex
	sched gocron.Scheduler
	job   gocron.Job
}

func NewScheduler(poller *Poller, interval time.Duration) *Scheduler {
	return &Scheduler{poller: poller, interval: interval}
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	task := func(jobCtx context.Context) {
		execID := uuid.NewString()
		if pollErr := s.poller.PollOnce(jobCtx, execID); pollErr != nil {
			logrus.Errorf("Rate poll %s failed: %v", execID, pollErr)
		}
	}

	job, err := scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(task),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}

	scheduler.Start()

	s.mu.Lock()
	s.sched = scheduler
	s.job = job
	s.mu.Unlock()

	// Stop scheduler when the provided context is canceled. Singleton mode
	// lets the in-flight cycle finish before shutdown completes.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

// Wake schedules an immediate poll without disturbing the regular cadence.
// Safe to call before Start and during or after Shutdown.
func (s *Scheduler) Wake() {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()

	if job == nil {
		return
	}
	if err := job.RunNow(); err != nil {
		logrus.Warnf("Failed to wake rate monitor early: %v", err)
	}
}

// Shutdown is idempotent: the first caller stops the scheduler, later callers
// find the handle already cleared and return nil.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	sched := s.sched
	s.sched = nil
	s.job = nil
	s.mu.Unlock()

	if sched == nil {
		return nil
	}
	return sched.Shutdown()
}
