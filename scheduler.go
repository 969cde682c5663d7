package mediascan

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultInterval = 24 * time.Hour

// Runner performs one harvest.
type Runner interface {
	Run(ctx context.Context) (*RunResult, error)
}

// ScheduleConfig controls when runs happen.
type ScheduleConfig struct {
	// At is the daily "HH:MM" start time in local time. When empty, runs
	// are spaced by Interval.
	At       string
	Interval time.Duration
	// RunOnStart triggers a run as soon as the scheduler starts.
	RunOnStart bool
	// RunTimeout bounds a single run. Zero means no limit.
	RunTimeout time.Duration
}

// Scheduler triggers runs on a fixed daily cadence until stopped.
type Scheduler struct {
	runner   Runner
	cfg      ScheduleConfig
	log      logrus.FieldLogger
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	running  sync.Mutex
}

// NewScheduler creates a scheduler. It fails when At is not a valid
// "HH:MM" time.
func NewScheduler(runner Runner, cfg ScheduleConfig, log logrus.FieldLogger) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if _, err := NextRun(time.Now(), cfg.At, cfg.Interval); err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &Scheduler{
		runner:   runner,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}, nil
}

// Run blocks, triggering runs until Stop is called or ctx is cancelled.
// A run in progress is allowed to finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("Scheduler starting")

	if s.cfg.RunOnStart {
		s.runOnce(ctx)
	}

	for {
		next, _ := NextRun(s.now(), s.cfg.At, s.cfg.Interval)
		wait := next.Sub(s.now())
		s.log.WithField("next_run", next.Format(time.RFC3339)).Info("Next run scheduled")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Scheduler stopping (context cancelled)")
			return ctx.Err()
		case <-s.stopChan:
			timer.Stop()
			s.log.Info("Scheduler stopping")
			return nil
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

// Stop signals the scheduler to stop after any run in progress.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.running.Lock()
	defer s.running.Unlock()

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	result, err := s.runner.Run(ctx)
	if err != nil {
		s.log.WithError(err).Error("Run failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"run_id":   result.RunID.String(),
		"accepted": result.Accepted(),
		"failed":   len(result.FailedSources()),
	}).Info("Run complete")
}

// NextRun returns the next start time after now. With at set, that is the
// next occurrence of the "HH:MM" wall-clock time in now's location;
// otherwise now plus interval.
func NextRun(now time.Time, at string, interval time.Duration) (time.Time, error) {
	if at == "" {
		if interval <= 0 {
			interval = DefaultInterval
		}
		return now.Add(interval), nil
	}

	clock, err := time.Parse("15:04", at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule time %q: %w", at, err)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
