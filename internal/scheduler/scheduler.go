package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/config"
	"github.com/mamadbah2/husk/internal/domain/models"
	"github.com/mamadbah2/husk/internal/service/reporting"
)

// DigestGenerator builds the weekly digest.
type DigestGenerator interface {
	GenerateWeeklyDigest(ctx context.Context, now time.Time) (models.Digest, error)
}

// DigestArchive stores digests.
type DigestArchive interface {
	SaveDigest(ctx context.Context, digest models.Digest) error
}

// DigestSheet exports digests to a spreadsheet.
type DigestSheet interface {
	AppendDigest(ctx context.Context, digest models.Digest) error
}

// Notifier pushes a text message to the operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Sinks are the optional digest destinations. Nil sinks are skipped.
type Sinks struct {
	Archive  DigestArchive
	Sheet    DigestSheet
	Notifier Notifier
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.ReportingConfig
	reporting DigestGenerator
	sinks     Sinks
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, reporting DigestGenerator, sinks Sinks, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	// Standard 5-field cron spec (min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:      c,
		cfg:       cfg,
		reporting: reporting,
		sinks:     sinks,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Start registers the weekly digest job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendWeeklyDigest); err != nil {
		return fmt.Errorf("schedule weekly digest %q: %w", s.cfg.CronSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("weekly digest failed", zap.Error(err))
	}
}

// RunOnce builds the digest for the week ending now and delivers it to every
// configured sink. A failing sink does not stop the others; their errors are
// joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.logger.Info("generating weekly digest")

	digest, err := s.reporting.GenerateWeeklyDigest(ctx, s.now())
	if err != nil {
		return fmt.Errorf("generate weekly digest: %w", err)
	}

	var errs []error
	deliver := func(sink string, fn func() error) {
		if err := fn(); err != nil {
			s.logger.Error("digest delivery failed", zap.String("sink", sink), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", sink, err))
			return
		}
		s.logger.Info("digest delivered", zap.String("sink", sink))
	}

	if s.sinks.Archive != nil {
		deliver("mongodb", func() error { return s.sinks.Archive.SaveDigest(ctx, digest) })
	}
	if s.sinks.Sheet != nil {
		deliver("sheets", func() error { return s.sinks.Sheet.AppendDigest(ctx, digest) })
	}
	if s.sinks.Notifier != nil {
		deliver("whatsapp", func() error { return s.sinks.Notifier.Notify(ctx, reporting.FormatDigest(digest)) })
	}

	return errors.Join(errs...)
}
