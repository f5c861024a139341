package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/acadwell/wellness-bot/internal/config"
	"github.com/acadwell/wellness-bot/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 10 * time.Minute

// Jobs is the work the scheduler runs
type Jobs interface {
	RunDailySummary(ctx context.Context) (*models.DailySummary, error)
	RunCleanup(ctx context.Context) error
}

// Pruner drops expired in-process throttle state
type Pruner interface {
	Prune(now time.Time) int
}

// Service handles scheduling of background wellness tasks
type Service struct {
	config *config.Config
	jobs   Jobs
	pruner Pruner
	cron   *cron.Cron
}

// NewService creates a new scheduler service. pruner may be nil when the
// throttle state lives outside the process.
func NewService(cfg *config.Config, jobs Jobs, pruner Pruner) (*Service, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.TimeZone, err)
	}

	return &Service{
		config: cfg,
		jobs:   jobs,
		pruner: pruner,
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
	}, nil
}

// Start registers the jobs and starts the cron runner
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.DailySummarySchedule, func() {
		logrus.Info("Starting daily wellness summary")
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := s.jobs.RunDailySummary(ctx); err != nil {
			logrus.Errorf("Daily wellness summary failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid DAILY_SUMMARY_SCHEDULE %q: %w", s.config.DailySummarySchedule, err)
	}

	_, err = s.cron.AddFunc(s.config.CleanupSchedule, func() {
		logrus.Info("Starting notification cleanup")
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := s.jobs.RunCleanup(ctx); err != nil {
			logrus.Errorf("Notification cleanup failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid CLEANUP_SCHEDULE %q: %w", s.config.CleanupSchedule, err)
	}

	if s.pruner != nil {
		// Prune throttle state every 15 minutes
		_, err = s.cron.AddFunc("0 */15 * * * *", func() {
			if removed := s.pruner.Prune(time.Now()); removed > 0 {
				logrus.Debugf("Pruned %d expired throttle keys", removed)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	logrus.Infof("Scheduler started (summary: %s, cleanup: %s)", s.config.DailySummarySchedule, s.config.CleanupSchedule)
	return nil
}

// Entries reports how many jobs are registered
func (s *Service) Entries() int {
	return len(s.cron.Entries())
}

// Stop stops the scheduler and waits for running jobs
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
