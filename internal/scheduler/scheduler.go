// Package scheduler polls an odds source on a cron schedule so that long
// running commands see odds as they move toward post time.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/keiba-sim/internal/datasource"
	"github.com/yourusername/keiba-sim/internal/models"
)

// MinInterval is the shortest polling interval accepted by ScheduleEvery
const MinInterval = 5 * time.Second

// RaceHandler receives the races of each successful refresh
type RaceHandler func(races []models.Race)

// invalidator is implemented by caching providers
type invalidator interface {
	Invalidate()
}

// Scheduler manages scheduled race card refreshes
type Scheduler struct {
	cron           *cron.Cron
	source         datasource.RaceSource
	logger         *logrus.Entry
	mu             sync.RWMutex
	isRunning      bool
	jobIDs         []cron.EntryID
	refreshTimeout time.Duration
}

// NewScheduler creates a new scheduler for source
func NewScheduler(source datasource.RaceSource, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:           cron.New(cron.WithLocation(jst())),
		source:         source,
		logger:         log.WithField("component", "scheduler"),
		jobIDs:         make([]cron.EntryID, 0),
		refreshTimeout: 30 * time.Second,
	}
}

// jst is the race day clock; cron expressions are read in Japan time
func jst() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// ScheduleRefresh adds a refresh job for a cron expression such as
// "*/5 9-16 * * 6,0" or a descriptor such as "@every 1m"
func (s *Scheduler) ScheduleRefresh(cronExpression string, handle RaceHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()

		races, err := s.Refresh(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Scheduled race card refresh failed")
			return
		}
		if handle != nil {
			handle(races)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("schedule", cronExpression).Info("Scheduled race card refresh")
	return nil
}

// ScheduleEvery adds a refresh job at a fixed interval, at least MinInterval
func (s *Scheduler) ScheduleEvery(interval time.Duration, handle RaceHandler) error {
	if interval < MinInterval {
		interval = MinInterval
	}
	return s.ScheduleRefresh(fmt.Sprintf("@every %s", interval), handle)
}

// Refresh drops cached entries and fetches the race list again
func (s *Scheduler) Refresh(ctx context.Context) ([]models.Race, error) {
	if c, ok := s.source.(invalidator); ok {
		c.Invalidate()
	}
	start := time.Now()
	races, err := s.source.FetchRaces(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"source":      s.source.Name(),
		"races":       len(races),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Race card refreshed")
	return races, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Infof("Scheduler started with %d jobs", len(s.jobIDs))
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled refresh
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}
