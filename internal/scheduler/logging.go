package scheduler

import (
	"context"
	"time"

	obslogger "github.com/smallbiznis/invoicebuilder/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicebuilder/internal/observability/metrics"
	"github.com/smallbiznis/invoicebuilder/internal/observability/obscontext"
	"go.uber.org/zap"
)

// jobRun counts what one execution of a job did. It rides on the context so
// nested job calls report into the same run.
type jobRun struct {
	job       string
	runID     string
	batchSize int
	startedAt time.Time
	processed int
	errors    int
}

type jobRunKey struct{}

func (r *jobRun) AddProcessed(count int) {
	if r != nil && count > 0 {
		r.processed += count
	}
}

func (r *jobRun) IncError() {
	if r != nil {
		r.errors++
	}
}

func jobRunFromContext(ctx context.Context) *jobRun {
	if ctx == nil {
		return nil
	}
	run, _ := ctx.Value(jobRunKey{}).(*jobRun)
	return run
}

// beginRun attaches a run to ctx unless one is already there. finish logs the
// outcome and is a no-op for callers that did not start the run.
func (s *Scheduler) beginRun(ctx context.Context, job string, batchSize int) (context.Context, *jobRun, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	if existing := jobRunFromContext(ctx); existing != nil {
		return ctx, existing, func() {}
	}

	run := &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		batchSize: batchSize,
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithRequestID(ctx, run.runID)

	s.logger(ctx).Info("scheduler.job.start",
		zap.String("job", job),
		zap.Int("batch_size", batchSize),
	)
	return ctx, run, func() { s.logRunFinished(ctx, run) }
}

func (s *Scheduler) logRunFinished(ctx context.Context, run *jobRun) {
	fields := []zap.Field{
		zap.String("job", run.job),
		zap.Int64("duration_ms", s.clock.Now().Sub(run.startedAt).Milliseconds()),
		zap.Int("processed_count", run.processed),
		zap.Int("error_count", run.errors),
	}
	if run.errors > 0 {
		s.logger(ctx).Warn("scheduler.job.finish", fields...)
		return
	}
	s.logger(ctx).Info("scheduler.job.finish", fields...)
}

// logger tags entries with the run id (as request_id) and any invoice id.
func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobError(ctx context.Context, msg, invoiceID string, err error) {
	if err == nil {
		return
	}
	jobRunFromContext(ctx).IncError()
	if invoiceID != "" {
		ctx = obscontext.WithInvoiceID(ctx, invoiceID)
	}
	s.logger(ctx).Error(msg,
		zap.String("error_type", obsmetrics.SchedulerErrorReason(err)),
		zap.Error(err),
	)
}
