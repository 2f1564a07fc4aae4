// Package scheduler refreshes accuracy indexes on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeboard/internal/cache"
	"github.com/yourusername/edgeboard/internal/models"
)

// Refresher rebuilds the accuracy index of one sport
type Refresher interface {
	Refresh(ctx context.Context, sport models.Sport) (*cache.Snapshot, error)
}

// Scheduler manages scheduled index refresh jobs
type Scheduler struct {
	cron            *cron.Cron
	refresher       Refresher
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          map[models.Sport]cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler evaluating cron specs in loc
func NewScheduler(refresher Refresher, loc *time.Location, logger *logrus.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(loc)),
		refresher:       refresher,
		logger:          logger.WithField("component", "scheduler"),
		jobIDs:          make(map[models.Sport]cron.EntryID),
		jobTimeout:      2 * time.Minute,
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleIndexRefresh schedules one refresh job per sport on the cron expression
func (s *Scheduler) ScheduleIndexRefresh(cronExpression string, sports []models.Sport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, err := cron.ParseStandard(cronExpression); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpression, err)
	}

	for _, sport := range sports {
		if _, exists := s.jobIDs[sport]; exists {
			return fmt.Errorf("refresh for %s already scheduled", sport)
		}

		sport := sport
		entryID, err := s.cron.AddFunc(cronExpression, func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
			defer cancel()
			s.refresh(ctx, sport)
		})
		if err != nil {
			return fmt.Errorf("failed to add job: %w", err)
		}
		s.jobIDs[sport] = entryID
	}

	s.logger.WithFields(logrus.Fields{
		"schedule": cronExpression,
		"sports":   sports,
	}).Info("Scheduled index refresh jobs")
	return nil
}

// RunOnce refreshes every given sport immediately and returns the first error
func (s *Scheduler) RunOnce(ctx context.Context, sports []models.Sport) error {
	var firstErr error
	for _, sport := range sports {
		if err := s.refresh(ctx, sport); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Scheduler) refresh(ctx context.Context, sport models.Sport) error {
	start := time.Now()
	snap, err := s.refresher.Refresh(ctx, sport)
	if err != nil {
		s.logger.WithError(err).WithField("sport", sport).Error("Scheduled index refresh failed")
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"sport":       sport,
		"snapshot_id": snap.ID,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Scheduled index refresh completed")
	return nil
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
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler, waiting up to the graceful timeout for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled refresh
func (s *Scheduler) NextRun() time.Time {
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

// Sports returns the sports with a scheduled refresh
func (s *Scheduler) Sports() []models.Sport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Sport, 0, len(s.jobIDs))
	for sport := range s.jobIDs {
		out = append(out, sport)
	}
	return out
}

// RemoveSport removes the refresh job of a sport
func (s *Scheduler) RemoveSport(sport models.Sport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}
	jobID, ok := s.jobIDs[sport]
	if !ok {
		return fmt.Errorf("no refresh scheduled for %s", sport)
	}

	s.cron.Remove(jobID)
	delete(s.jobIDs, sport)
	return nil
}
