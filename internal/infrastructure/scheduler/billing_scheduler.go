// Package scheduler runs the periodic billing jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// QuarterCloser rolls up ended billing quarters. Implemented by the billing
// service.
type QuarterCloser interface {
	CloseEndedQuarters(ctx context.Context) (int, error)
}

// BillingScheduler periodically closes ended billing quarters: waiving
// onboarding quarters and generating invoices for billable ones. The job is
// idempotent, so the daily cadence only bounds how long a quarter stays
// pending after its span ends.
type BillingScheduler struct {
	cron       *cron.Cron
	closer     QuarterCloser
	schedule   string
	jobTimeout time.Duration
	logger     *zap.Logger
}

// NewBillingScheduler creates a scheduler with a cron expression like
// "0 3 * * *" (daily at 03:00)
func NewBillingScheduler(closer QuarterCloser, schedule string, logger *zap.Logger) *BillingScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingScheduler{
		cron:       cron.New(),
		closer:     closer,
		schedule:   schedule,
		jobTimeout: 10 * time.Minute,
		logger:     logger,
	}
}

// Start registers the quarter-close job and starts the cron loop
func (s *BillingScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runQuarterClose); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("billing scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *BillingScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("billing scheduler stopped")
}

// RunNow triggers one quarter-close pass outside the schedule
func (s *BillingScheduler) RunNow(ctx context.Context) (int, error) {
	return s.closer.CloseEndedQuarters(ctx)
}

func (s *BillingScheduler) runQuarterClose() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	closed, err := s.closer.CloseEndedQuarters(ctx)
	if err != nil {
		s.logger.Error("quarter close job failed", zap.Error(err))
		return
	}
	if closed > 0 {
		s.logger.Info("quarter close job finished", zap.Int("closed", closed))
	}
}
