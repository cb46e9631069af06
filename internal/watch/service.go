// Package watch runs translation sweeps on a cron schedule. Scheduled
// runs are skipped while the catalog tree is unchanged; manual triggers
// always sweep. Overlapping triggers collapse into one run.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/pofactory/po-translator/pkg/file"
	"github.com/pofactory/po-translator/pkg/icron"
	"github.com/pofactory/po-translator/pkg/log"
)

// ErrNoChanges reports a sweep skipped because no catalog changed
// since the previous run.
var ErrNoChanges = errors.New("no catalog changes since last run")

// RunFunc performs one sweep over the catalog tree.
type RunFunc func(ctx context.Context) error

// Service owns the schedule and the sweep lifecycle.
type Service struct {
	expr string
	root string
	run  RunFunc

	cron   *cron.Cron
	flight singleflight.Group

	mu      sync.Mutex
	lastRun time.Time
	lastErr error

	runs  atomic.Int64
	skips atomic.Int64
}

// Status is a snapshot of the service counters.
type Status struct {
	Runs    int64
	Skips   int64
	LastRun time.Time
	LastErr error
}

// New validates the schedule and builds a stopped service. root is the
// directory whose .po files gate scheduled sweeps; leave it empty to
// sweep unconditionally.
func New(expr, root string, run RunFunc) (*Service, error) {
	if run == nil {
		return nil, errors.New("watch: run function is required")
	}
	if _, err := icron.Parse(expr); err != nil {
		return nil, err
	}
	return &Service{expr: expr, root: root, run: run}, nil
}

// Start schedules sweeps until ctx ends.
func (s *Service) Start(ctx context.Context) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.expr, func() {
		if err := s.sweep(ctx, false); err != nil && !errors.Is(err, ErrNoChanges) {
			log.Error("watch: scheduled sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.expr, err)
	}
	s.cron.Start()
	log.Info("watch: sweeping on %q", s.expr)

	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		log.Info("watch: stopped")
	}()
	return nil
}

// TriggerNow sweeps immediately, bypassing the change gate. A trigger
// that arrives while a sweep is in flight joins it instead of starting
// a second one.
func (s *Service) TriggerNow(ctx context.Context) error {
	return s.sweep(ctx, true)
}

// Schedule describes the fires around now.
func (s *Service) Schedule(now time.Time) (*icron.TriggerInfo, error) {
	return icron.Describe(s.expr, now)
}

// Status returns the run counters.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Runs:    s.runs.Load(),
		Skips:   s.skips.Load(),
		LastRun: s.lastRun,
		LastErr: s.lastErr,
	}
}

func (s *Service) sweep(ctx context.Context, force bool) error {
	_, err, _ := s.flight.Do("sweep", func() (any, error) {
		if !force {
			skip, err := s.unchanged()
			if err != nil {
				log.Warn("watch: change scan failed, sweeping anyway: %v", err)
			} else if skip {
				s.skips.Add(1)
				log.Debug("watch: catalogs unchanged, skipping sweep")
				return nil, ErrNoChanges
			}
		}

		start := time.Now()
		runErr := s.run(ctx)
		s.mu.Lock()
		s.lastRun = start
		s.lastErr = runErr
		s.mu.Unlock()
		s.runs.Add(1)

		if runErr != nil {
			return nil, runErr
		}
		log.Info("watch: sweep finished in %s", time.Since(start).Round(time.Millisecond))
		return nil, nil
	})
	return err
}

// unchanged reports whether no .po file under root changed since the
// last completed sweep. The first sweep always runs.
func (s *Service) unchanged() (bool, error) {
	if s.root == "" {
		return false, nil
	}
	s.mu.Lock()
	last := s.lastRun
	s.mu.Unlock()
	if last.IsZero() {
		return false, nil
	}
	changed, err := file.FindChangedSince(s.root, last, ".po")
	if err != nil {
		return false, err
	}
	return len(changed) == 0, nil
}
