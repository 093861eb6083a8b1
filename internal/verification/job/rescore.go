// Package job schedules background maintenance of pending verifications.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Rescorer recomputes every pending review.
type Rescorer interface {
	RescorePending(ctx context.Context) (int, error)
}

// RescoreJob runs Rescorer on a cron schedule. Overlapping runs are skipped.
type RescoreJob struct {
	cron     *cron.Cron
	rescorer Rescorer
	logger   *slog.Logger
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRescoreJob parses spec ("@every 1h", "0 * * * *", ...) and registers
// the job without starting it.
func NewRescoreJob(rescorer Rescorer, spec string, logger *slog.Logger) (*RescoreJob, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &RescoreJob{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		rescorer: rescorer,
		logger:   logger,
		timeout:  5 * time.Minute,
		ctx:      ctx,
		cancel:   cancel,
	}
	if _, err := j.cron.AddFunc(spec, func() { j.RunOnce(j.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("rescore schedule %q: %w", spec, err)
	}
	return j, nil
}

// RunOnce performs one rescoring pass.
func (j *RescoreJob) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.rescorer.RescorePending(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "pending rescoring failed", "updated", n, "error", err)
		return
	}
	j.logger.InfoContext(ctx, "pending verifications rescored",
		"updated", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (j *RescoreJob) Start() {
	j.cron.Start()
	j.logger.Info("rescore job started")
}

// Stop cancels a running pass and waits for it to return or ctx to expire.
func (j *RescoreJob) Stop(ctx context.Context) {
	done := j.cron.Stop()
	j.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
		j.logger.Warn("rescore job did not stop before deadline")
	}
}
