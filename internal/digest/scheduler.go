package digest

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs a Job on a standard five-field cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	job    *Job
	logger *logrus.Logger

	// jobCtx is handed to every run and cancelled when Run returns, so a
	// digest in progress stops between users instead of finishing the list.
	jobCtx    context.Context
	cancelJob context.CancelFunc
}

// NewScheduler registers job under spec. It fails when spec is not a valid
// cron expression.
func NewScheduler(spec string, job *Job, logger *logrus.Logger) (*Scheduler, error) {
	jobCtx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:      cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		job:       job,
		logger:    logger,
		jobCtx:    jobCtx,
		cancelJob: cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.runJob); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) runJob() {
	if _, err := s.job.Run(s.jobCtx); err != nil {
		s.logger.Errorf("Weekly digest failed: %v", err)
	}
}

// Run starts the scheduler and blocks until ctx is cancelled. A digest in
// progress is interrupted and waited for.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("Digest scheduler started")
	<-ctx.Done()
	s.cancelJob()
	<-s.cron.Stop().Done()
	s.logger.Info("Digest scheduler stopped")
	return nil
}
