package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/caseward/caseward/pkg/observability"
)

// RetentionSweeper periodically deletes decision records older than the
// configured retention horizon.
type RetentionSweeper struct {
	recorder *DBRecorder
	policy   RetentionPolicy
	logger   *observability.Logger
	cron     *cron.Cron
}

// NewRetentionSweeper creates a sweeper for a DB recorder.
func NewRetentionSweeper(recorder *DBRecorder, policy RetentionPolicy, logger *observability.Logger) *RetentionSweeper {
	if policy.Schedule == "" {
		policy.Schedule = DefaultRetentionPolicy().Schedule
	}
	return &RetentionSweeper{
		recorder: recorder,
		policy:   policy,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the sweep and begins running it.
func (s *RetentionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.policy.Schedule, func() {
		if err := s.SweepOnce(context.Background()); err != nil {
			s.logger.WithError(err).Error("decision retention sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *RetentionSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepOnce performs one retention pass.
func (s *RetentionSweeper) SweepOnce(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -s.policy.RetentionDays)
	dropped, err := s.recorder.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if dropped > 0 {
		s.logger.WithFields(map[string]interface{}{
			"dropped": dropped,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("swept expired policy decisions")
	}
	return nil
}
