package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-rental-api/internal/domain"
	"github.com/robfig/cron/v3"
)

// Job names, also accepted by the admin trigger endpoint.
const (
	JobAutoDelete  = "auto_delete"
	JobExpiryScan  = "expiry_scan"
	JobExpirySweep = "expiry_sweep"
)

// Sweeper runs the time-driven listing transitions.
type Sweeper interface {
	SweepRejected(ctx context.Context) (int, error)
	ScanExpiringFeatured(ctx context.Context) (int, error)
	SweepExpiredFeatured(ctx context.Context) (int, error)
}

// Config holds one cron spec per job. An empty spec leaves the job manual only.
type Config struct {
	AutoDelete  string
	ExpiryScan  string
	ExpirySweep string
	JobTimeout  time.Duration
}

type jobFunc func(ctx context.Context) (int, error)

// Scheduler runs the listing sweeps on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]jobFunc
	timeout time.Duration
	mu      sync.Mutex
	running bool
}

// New registers the jobs. A malformed spec is an error.
func New(sw Sweeper, cfg Config) (*Scheduler, error) {
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		jobs: map[string]jobFunc{
			JobAutoDelete:  sw.SweepRejected,
			JobExpiryScan:  sw.ScanExpiringFeatured,
			JobExpirySweep: sw.SweepExpiredFeatured,
		},
		timeout: timeout,
	}
	for name, spec := range map[string]string{
		JobAutoDelete:  cfg.AutoDelete,
		JobExpiryScan:  cfg.ExpiryScan,
		JobExpirySweep: cfg.ExpirySweep,
	} {
		if spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(spec, func() { s.run(context.Background(), name) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", name, spec, err)
		}
		slog.Info("job scheduled", "job", name, "spec", spec)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out")
	}
	s.running = false
}

// RunJob runs a job now and returns how many listings it touched.
func (s *Scheduler) RunJob(ctx context.Context, name string) (int, error) {
	if _, ok := s.jobs[name]; !ok {
		return 0, fmt.Errorf("unknown job %q: %w", name, domain.ErrNotFound)
	}
	return s.run(ctx, name)
}

// Jobs lists the job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) run(ctx context.Context, name string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	n, err := s.jobs[name](ctx)
	if err != nil {
		slog.Error("job failed", "job", name, "err", err)
		return n, err
	}
	slog.Info("job finished", "job", name, "affected", n, "took", time.Since(start))
	return n, nil
}
