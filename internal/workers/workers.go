package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"zettanote/internal/platform/config"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

type AuditPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type LockSweeper interface {
	SweepExpiredLocks(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron  *cron.Cron
	cfg   config.WorkersConfig
	audit AuditPurger
	locks LockSweeper
	log   zerolog.Logger
	now   func() time.Time
}

func NewScheduler(cfg config.WorkersConfig, audit AuditPurger, locks LockSweeper, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:   cfg,
		audit: audit,
		locks: locks,
		log:   log,
		now:   time.Now,
	}
}

// Start registers the jobs and starts the cron loop. An empty spec
// disables its job.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"audit_purge", s.cfg.AuditPurgeSpec, s.PurgeAuditLog},
		{"lockout_sweep", s.cfg.LockoutSweepSpec, s.SweepLocks},
	}

	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, func() { s.run(job.name, job.run) }); err != nil {
			return fmt.Errorf("schedule %s: %w", job.name, err)
		}
		s.log.Info().Str("job", job.name).Str("spec", job.spec).Msg("job scheduled")
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling. The returned context is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("job failed")
		return
	}
	s.log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job finished")
}

// PurgeAuditLog deletes audit entries older than the retention window.
// A zero retention keeps everything.
func (s *Scheduler) PurgeAuditLog(ctx context.Context) error {
	if s.cfg.AuditRetention <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.cfg.AuditRetention)

	n, err := s.audit.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge audit log: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("audit log purged")
	}
	return nil
}

func (s *Scheduler) SweepLocks(ctx context.Context) error {
	n, err := s.locks.SweepExpiredLocks(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired locks: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("cleared", n).Msg("expired admin locks cleared")
	}
	return nil
}
