package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = 2 * time.Minute

type expiredCourseCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

// CourseSweeper runs the expiry sweep on a cron schedule. Overlapping runs
// are skipped.
type CourseSweeper struct {
	cron     *cron.Cron
	closer   expiredCourseCloser
	schedule string
	logger   *zap.Logger
	now      func() time.Time
}

// NewCourseSweeper validates the schedule and registers the job. The cron is
// not started until Start.
func NewCourseSweeper(closer expiredCourseCloser, schedule string, logger *zap.Logger) (*CourseSweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CourseSweeper{closer: closer, schedule: schedule, logger: logger, now: time.Now}
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("register course sweep %q: %w", schedule, err)
	}
	return s, nil
}

// Start launches the scheduler goroutine.
func (s *CourseSweeper) Start() {
	s.cron.Start()
	s.logger.Info("course sweep scheduled", zap.String("schedule", s.schedule))
}

// Stop halts the scheduler and waits for a running sweep, bounded by ctx.
func (s *CourseSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("course sweep still running at shutdown")
	}
}

// RunOnce performs a single sweep.
func (s *CourseSweeper) RunOnce(ctx context.Context) (int64, error) {
	return s.closer.CloseExpired(ctx, s.now())
}

func (s *CourseSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("course sweep failed", zap.Error(err))
	}
}
