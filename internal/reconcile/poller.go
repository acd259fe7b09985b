package reconcile

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/angelmondragon/storefront-sync/pkg/logger"
	"github.com/angelmondragon/storefront-sync/pkg/metrics"
)

// Job is one periodic reconciliation task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// poller runs a job every interval. After consecutive failures the wait grows
// exponentially up to maxBackoff; one success restores the base interval.
type poller struct {
	job        Job
	interval   time.Duration
	maxBackoff time.Duration
	logg       *logger.Logger
	metrics    *metrics.SyncMetrics
}

func (p *poller) newBackoff() retry.Backoff {
	return retry.WithCappedDuration(p.maxBackoff, retry.NewExponential(p.interval))
}

// run blocks until ctx is canceled. The first run happens one interval after
// start.
func (p *poller) run(ctx context.Context) {
	backoff := p.newBackoff()
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		delay := p.interval
		if err := p.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			if next, stop := backoff.Next(); !stop && next > delay {
				delay = next
			}
			p.logg.Warn(p.logg.WithField(ctx, "retry_in_ms", delay.Milliseconds()), "poll backing off")
		} else {
			backoff = p.newBackoff()
		}
		timer.Reset(delay)
	}
}

func (p *poller) runOnce(ctx context.Context) error {
	jobCtx := p.logg.WithJob(ctx, p.job.Name())
	p.logg.Debug(jobCtx, "job start")
	start := time.Now()
	err := p.job.Run(jobCtx)
	duration := time.Since(start)
	p.metrics.ObserveDuration(p.job.Name(), duration)
	jobCtx = p.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		p.logg.Error(jobCtx, "job failed", err)
		p.metrics.IncFailure(p.job.Name())
		return err
	}
	p.logg.Debug(jobCtx, "job completed")
	p.metrics.IncSuccess(p.job.Name())
	return nil
}
