package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"tracknow/internal/logx"
)

// Refresher rebuilds a cached report.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ReportWarmupJob periodically refreshes the cached performance report so
// the admin dashboard rarely hits the aggregation queries.
type ReportWarmupJob struct {
	refresher Refresher
	spec      string
	timeout   time.Duration
	cron      *cron.Cron
	logger    logx.Logger
}

// NewReportWarmupJob creates the job. spec uses the six-field cron syntax
// with seconds.
func NewReportWarmupJob(refresher Refresher, spec string, timeout time.Duration, logger logx.Logger) *ReportWarmupJob {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &ReportWarmupJob{
		refresher: refresher,
		spec:      spec,
		timeout:   timeout,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger,
	}
}

// Start schedules the job.
func (j *ReportWarmupJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.runOnce); err != nil {
		return fmt.Errorf("schedule report warmup %q: %w", j.spec, err)
	}
	j.cron.Start()
	j.logger.Info("report warmup job started", logx.String("schedule", j.spec))
	return nil
}

// Run starts the job and stops it when ctx is done.
func (j *ReportWarmupJob) Run(ctx context.Context) error {
	if err := j.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	j.Stop()
	return ctx.Err()
}

// Stop waits for a running refresh to finish.
func (j *ReportWarmupJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("report warmup job stopped")
}

func (j *ReportWarmupJob) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.refresher.Refresh(ctx); err != nil {
		j.logger.Error("report warmup failed", logx.Err(err))
		return
	}
	j.logger.Debug("report warmed", logx.Duration("took", time.Since(start)))
}
