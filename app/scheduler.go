/*
scheduler.go - Periodic re-evaluation scheduler

PURPOSE:
  Keeps the ledger of recent weeks current while clock rings are still
  being corrected. On every tick the scheduler re-evaluates the current
  service week plus a configurable number of previous ones, ending today.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Each tick is a normal Service.Evaluate call: same snapshot, same run log
  - A tick that finds a manual run in progress is skipped, not queued

CONFIGURATION:
  - Interval: How often to re-evaluate (default: 1 hour)
  - Lookback: Previous service weeks included (default: 1)
  - Enabled:  Whether the scheduler is active

USAGE:
  sched := NewScheduler(svc, log)
  sched.Start()
  // ... later
  sched.Stop()

SEE ALSO:
  - service.go: Evaluate
  - api/handlers.go: Evaluate endpoint (manual runs)
*/
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/logger"
)

// Scheduler re-evaluates recent service weeks on a fixed interval.
type Scheduler struct {
	Service  *Service
	Interval time.Duration
	Lookback int
	Enabled  bool

	log    logger.Logger
	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates an enabled scheduler with an hourly interval and a
// one-week lookback.
func NewScheduler(svc *Service, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scheduler{
		Service:  svc,
		Interval: time.Hour,
		Lookback: 1,
		Enabled:  true,
		log:      log,
		now:      time.Now,
	}
}

// Start begins the scheduler. The first evaluation runs immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.log.Infof("scheduler disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.log.Infof("scheduler started: interval=%v lookback=%d weeks", s.Interval, s.Lookback)
}

// Stop stops the scheduler and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.log.Infof("scheduler stopped")
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.stop
		cancel()
	}()

	s.RunNow(ctx)

	for {
		select {
		case <-s.ticker.C:
			s.RunNow(ctx)
		case <-s.stop:
			return
		}
	}
}

// Window returns the range a tick evaluates: from the start of the service
// week Lookback weeks back through today.
func (s *Scheduler) Window() generic.Period {
	today := generic.DateOf(s.now())
	week := generic.ServiceWeek(today, s.Service.Engine().Config().WeekStart)
	return generic.Period{Start: week.Start.AddDays(-7 * s.Lookback), End: today}
}

// RunNow performs one re-evaluation. It returns the run error, with a run
// already in progress reported as nil.
func (s *Scheduler) RunNow(ctx context.Context) error {
	rng := s.Window()
	res, err := s.Service.Evaluate(ctx, rng)
	switch {
	case errors.Is(err, generic.ErrRunInProgress):
		s.log.Infof("scheduled evaluation of %s skipped: run in progress", rng)
		return nil
	case err != nil:
		s.log.Errorf("scheduled evaluation of %s failed: %v", rng, err)
		return err
	}
	s.log.Infof("scheduled evaluation of %s: %d violations, %s remedy hours",
		rng, res.Ledger.Totals.Violations, res.Ledger.Totals.Remedy)
	return nil
}
