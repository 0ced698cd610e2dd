// Package worker runs the long-poll consumer that turns queued review jobs
// into persisted reports, plus the companion dead-letter handler and the
// stuck-job sweeper.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// Analyzer is the single analysis capability the worker needs.
type Analyzer interface {
	Analyze(ctx context.Context, content []byte, fileName string) (*domain.Report, error)
}

// Worker consumes review tasks from the main queue. Messages are processed
// at-least-once: a message is deleted only after the job row is complete, so
// a crash between the two causes a harmless redelivery that the completed-job
// check short-circuits.
type Worker struct {
	Jobs     domain.JobStore
	DLQ      domain.DLQStore
	Queue    domain.Queue
	Cache    domain.ResultCache
	Analyzer Analyzer

	MaxReceiveCount    int
	LongPoll           time.Duration
	StoreRetryAttempts int
	StoreRetryDelay    time.Duration
}

// New constructs a Worker with the given dependencies and tuning.
func New(jobs domain.JobStore, dlq domain.DLQStore, q domain.Queue, cache domain.ResultCache, an Analyzer,
	maxReceiveCount int, longPoll time.Duration, storeRetryAttempts int, storeRetryDelay time.Duration) *Worker {
	if maxReceiveCount <= 0 {
		maxReceiveCount = 3
	}
	if longPoll <= 0 {
		longPoll = 10 * time.Second
	}
	if storeRetryAttempts <= 0 {
		storeRetryAttempts = 3
	}
	if storeRetryDelay <= 0 {
		storeRetryDelay = 500 * time.Millisecond
	}
	return &Worker{
		Jobs:     jobs,
		DLQ:      dlq,
		Queue:    q,
		Cache:    cache,
		Analyzer: an,

		MaxReceiveCount:    maxReceiveCount,
		LongPoll:           longPoll,
		StoreRetryAttempts: storeRetryAttempts,
		StoreRetryDelay:    storeRetryDelay,
	}
}

// Run receives and processes messages until ctx is cancelled. The in-flight
// message is finished before returning; an abandoned message is redelivered
// after its visibility lease expires.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("worker starting",
		slog.Int("max_receive_count", w.MaxReceiveCount),
		slog.Duration("long_poll", w.LongPoll))

	for {
		if ctx.Err() != nil {
			slog.Info("worker stopping")
			return nil
		}

		msg, err := w.Queue.Receive(ctx, w.LongPoll)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("worker stopping")
				return nil
			}
			slog.Warn("queue receive failed", slog.Any("error", err))
			pause(ctx, time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		// Shutdown must not abort store writes for a message already
		// leased; process on a detached context.
		w.Handle(context.WithoutCancel(ctx), msg)
	}
}

// Handle processes a single received message end to end.
func (w *Worker) Handle(ctx context.Context, msg *domain.QueueMessage) {
	tracer := otel.Tracer("worker")
	ctx, span := tracer.Start(ctx, "worker.Handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("queue.message_id", msg.ID),
		attribute.Int("queue.receive_count", msg.ReceiveCount),
	)

	var payload domain.ReviewTaskPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil || payload.JobID == "" {
		// A body that does not parse never will; drop it.
		slog.Error("malformed queue message, deleting",
			slog.String("message_id", msg.ID),
			slog.Any("error", err))
		observability.JobsFailedTotal.WithLabelValues("malformed").Inc()
		if derr := w.Queue.Delete(ctx, msg.ID, msg.Receipt); derr != nil {
			slog.Warn("delete of malformed message failed", slog.String("message_id", msg.ID), slog.Any("error", derr))
		}
		return
	}
	span.SetAttributes(attribute.String("job.id", payload.JobID))

	if msg.ReceiveCount == w.MaxReceiveCount {
		slog.Warn("terminal delivery attempt, next failure dead-letters",
			slog.String("job_id", payload.JobID),
			slog.String("message_id", msg.ID),
			slog.Int("receive_count", msg.ReceiveCount))
	}

	job, err := w.Jobs.Get(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The row is the source of truth; a message without one is noise.
			slog.Error("message references unknown job, deleting",
				slog.String("job_id", payload.JobID),
				slog.String("message_id", msg.ID))
			_ = w.Queue.Delete(ctx, msg.ID, msg.Receipt)
			return
		}
		slog.Warn("job read failed, leaving message for redelivery",
			slog.String("job_id", payload.JobID), slog.Any("error", err))
		return
	}
	if job.Status == domain.JobComplete {
		// Redelivery after a crash between complete and delete.
		slog.Info("job already complete, deleting redelivered message",
			slog.String("job_id", payload.JobID),
			slog.String("message_id", msg.ID))
		if derr := w.Queue.Delete(ctx, msg.ID, msg.Receipt); derr != nil {
			slog.Warn("delete of redelivered message failed", slog.String("message_id", msg.ID), slog.Any("error", derr))
		}
		return
	}

	if err := w.retryStore(ctx, "mark_processing", func() error {
		return w.Jobs.MarkProcessing(ctx, payload.JobID, msg.ReceiveCount)
	}); err != nil {
		slog.Warn("mark processing failed, leaving message for redelivery",
			slog.String("job_id", payload.JobID), slog.Any("error", err))
		return
	}
	observability.StartProcessingJob("review")

	start := time.Now()
	report, err := w.Analyzer.Analyze(ctx, []byte(payload.FileContent), payload.FileName)
	durationMS := time.Since(start).Milliseconds()
	if err != nil {
		w.handleFailure(ctx, msg, payload, err)
		return
	}

	w.Cache.Put(ctx, payload.CodeHash, report)

	var firstCompletion bool
	if err := w.retryStore(ctx, "complete", func() error {
		var cerr error
		firstCompletion, cerr = w.Jobs.Complete(ctx, payload.JobID, report, durationMS, msg.ReceiveCount)
		return cerr
	}); err != nil {
		slog.Warn("complete write failed, leaving message for redelivery",
			slog.String("job_id", payload.JobID), slog.Any("error", err))
		observability.FailJob("review")
		return
	}

	if derr := w.Queue.Delete(ctx, msg.ID, msg.Receipt); derr != nil {
		slog.Warn("delete after completion failed, redelivery will no-op",
			slog.String("message_id", msg.ID), slog.Any("error", derr))
	}
	observability.CompleteJob("review")
	observability.ObserveReview(report.QualityScore, report.Metrics.IssuesFound)

	slog.Info("review complete",
		slog.String("job_id", payload.JobID),
		slog.Bool("first_completion", firstCompletion),
		slog.Float64("quality_score", report.QualityScore),
		slog.Int("issues_found", report.Metrics.IssuesFound),
		slog.Int64("duration_ms", durationMS))
}

// handleFailure records the failed attempt. The message is never deleted
// here: either the visibility lease expires and the transport redelivers, or
// the redrive policy routes it to the dead-letter queue.
func (w *Worker) handleFailure(ctx context.Context, msg *domain.QueueMessage, payload domain.ReviewTaskPayload, analysisErr error) {
	errText := analysisErr.Error()

	if msg.ReceiveCount >= w.MaxReceiveCount {
		entry := domain.DLQEntry{
			JobID:        payload.JobID,
			MessageID:    msg.ID,
			Body:         msg.Body,
			ReceiveCount: msg.ReceiveCount,
			LastError:    errText,
			MovedAt:      time.Now().UTC(),
		}
		if err := w.retryStore(ctx, "dlq_insert", func() error {
			_, _, ierr := w.DLQ.Insert(ctx, entry)
			return ierr
		}); err != nil {
			slog.Error("dead-letter record failed, leaving message for redelivery",
				slog.String("job_id", payload.JobID), slog.Any("error", err))
			observability.FailJob("review")
			return
		}
		if err := w.retryStore(ctx, "mark_dlq", func() error {
			return w.Jobs.MarkDLQ(ctx, payload.JobID, msg.ID, errText)
		}); err != nil {
			slog.Error("dead-letter status write failed",
				slog.String("job_id", payload.JobID), slog.Any("error", err))
		}
		observability.DeadLetterJob("review")
		slog.Error("review exhausted retry budget",
			slog.String("job_id", payload.JobID),
			slog.String("message_id", msg.ID),
			slog.Int("receive_count", msg.ReceiveCount),
			slog.String("last_error", errText))
		return
	}

	if err := w.retryStore(ctx, "mark_retrying", func() error {
		return w.Jobs.MarkRetrying(ctx, payload.JobID, msg.ReceiveCount, errText)
	}); err != nil {
		slog.Error("retrying status write failed",
			slog.String("job_id", payload.JobID), slog.Any("error", err))
	}
	observability.FailJob("review")
	slog.Warn("review attempt failed, message left for redelivery",
		slog.String("job_id", payload.JobID),
		slog.Int("receive_count", msg.ReceiveCount),
		slog.String("error", errText))
}

// retryStore runs a store write with bounded exponential-backoff retries.
// Not-found errors are terminal and come back unwrapped so callers can
// branch on them.
func (w *Worker) retryStore(ctx context.Context, op string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	if w.StoreRetryDelay > 0 {
		bo.InitialInterval = w.StoreRetryDelay
	}
	retries := uint64(0)
	if w.StoreRetryAttempts > 1 {
		retries = uint64(w.StoreRetryAttempts - 1)
	}

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return backoff.Permanent(err)
		}
		slog.Warn("store write failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("op=worker.%s: %w", op, err)
}
