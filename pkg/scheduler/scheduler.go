// Package scheduler runs periodic maintenance tasks such as the dashboard snapshot refresh.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Scheduler wraps a gocron scheduler running in UTC.
type Scheduler struct {
	cron   *gocron.Scheduler
	logger *zap.Logger
}

// New creates a scheduler. Jobs never overlap with themselves.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{cron: s, logger: logger}
}

// Every registers task to run at the given interval, starting one interval from now.
func (s *Scheduler) Every(name string, interval time.Duration, task func()) error {
	if interval <= 0 {
		return fmt.Errorf("schedule %s: interval must be positive", name)
	}
	_, err := s.cron.Every(interval).WaitForSchedule().Tag(name).Do(func() {
		start := time.Now()
		task()
		s.logger.Debug("scheduled task finished", zap.String("task", name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.logger.Info("scheduled task registered", zap.String("task", name), zap.Duration("interval", interval))
	return nil
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	return s.cron.Len()
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.StartAsync()
}

// Stop halts all tasks.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
