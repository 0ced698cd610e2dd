package worker

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// StuckJobStore is the single sweep capability, implemented by the jobs repo
// as one set-based update.
type StuckJobStore interface {
	SweepStuck(ctx context.Context, olderThan time.Duration) (int64, error)
}

// StuckJobSweeper periodically moves jobs stuck in processing back to
// retrying. A job lands there when a worker dies after mark_processing but
// before any terminal write; the message itself is redelivered by the
// visibility lease, so the sweep only repairs the visible status.
type StuckJobSweeper struct {
	jobs     StuckJobStore
	maxAge   time.Duration
	interval time.Duration
}

// NewStuckJobSweeper constructs a sweeper. It returns nil when jobs is nil
// so callers can pass the result straight to a goroutine guard.
func NewStuckJobSweeper(jobs StuckJobStore, maxAge, interval time.Duration) *StuckJobSweeper {
	if jobs == nil {
		return nil
	}
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &StuckJobSweeper{jobs: jobs, maxAge: maxAge, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *StuckJobSweeper) Run(ctx context.Context) {
	if s == nil || s.jobs == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stuck job sweeper stopping")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *StuckJobSweeper) sweepOnce(ctx context.Context) {
	tracer := otel.Tracer("jobs.sweeper")
	ctx, span := tracer.Start(ctx, "StuckJobSweeper.sweepOnce")
	defer span.End()
	span.SetAttributes(attribute.Float64("jobs.max_age_seconds", s.maxAge.Seconds()))

	swept, err := s.jobs.SweepStuck(ctx, s.maxAge)
	if err != nil {
		span.RecordError(err)
		slog.Error("stuck job sweep failed", slog.Any("error", err))
		return
	}
	span.SetAttributes(attribute.Int64("jobs.swept", swept))
	if swept > 0 {
		slog.Warn("swept stuck jobs back to retrying",
			slog.Int64("count", swept),
			slog.Duration("max_age", s.maxAge))
	}
}
