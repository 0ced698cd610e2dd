package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// DLQHandler drains the companion dead-letter queue into the durable
// dlq_messages table so operators can inspect, resolve, and retry. The
// insert is idempotent on message id; a worker that already recorded the
// final failure wins and this pass only deletes the routed message.
type DLQHandler struct {
	DLQ      domain.DLQStore
	Jobs     domain.JobStore
	Queue    domain.Queue
	LongPoll time.Duration
}

// NewDLQHandler constructs a DLQHandler.
func NewDLQHandler(dlq domain.DLQStore, jobs domain.JobStore, q domain.Queue, longPoll time.Duration) *DLQHandler {
	if longPoll <= 0 {
		longPoll = 10 * time.Second
	}
	return &DLQHandler{DLQ: dlq, Jobs: jobs, Queue: q, LongPoll: longPoll}
}

// Run consumes dead-lettered messages until ctx is cancelled.
func (h *DLQHandler) Run(ctx context.Context) error {
	slog.Info("dlq handler starting", slog.Duration("long_poll", h.LongPoll))

	for {
		if ctx.Err() != nil {
			slog.Info("dlq handler stopping")
			return nil
		}

		msg, err := h.Queue.ReceiveDLQ(ctx, h.LongPoll)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("dlq handler stopping")
				return nil
			}
			slog.Warn("dlq receive failed", slog.Any("error", err))
			pause(ctx, time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		h.Handle(context.WithoutCancel(ctx), msg)
	}
}

// Handle records one dead-lettered message and removes it from the DLQ. The
// message is deleted only after the entry and the job status are durable;
// a crash in between redelivers and the idempotent insert absorbs it.
func (h *DLQHandler) Handle(ctx context.Context, msg *domain.QueueMessage) {
	tracer := otel.Tracer("worker")
	ctx, span := tracer.Start(ctx, "dlq.Handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("queue.message_id", msg.ID),
		attribute.Int("queue.receive_count", msg.ReceiveCount),
	)

	var payload domain.ReviewTaskPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil || payload.JobID == "" {
		slog.Error("malformed dead-lettered message, deleting",
			slog.String("message_id", msg.ID),
			slog.Any("error", err))
		if derr := h.Queue.DeleteDLQ(ctx, msg.ID, msg.Receipt); derr != nil {
			slog.Warn("delete of malformed dlq message failed", slog.String("message_id", msg.ID), slog.Any("error", derr))
		}
		return
	}
	span.SetAttributes(attribute.String("job.id", payload.JobID))

	entry := domain.DLQEntry{
		JobID:        payload.JobID,
		MessageID:    msg.ID,
		Body:         msg.Body,
		ReceiveCount: msg.ReceiveCount,
		LastError:    "retry budget exhausted",
		MovedAt:      time.Now().UTC(),
	}
	entryID, inserted, err := h.DLQ.Insert(ctx, entry)
	if err != nil {
		slog.Error("dead-letter record failed, leaving message for redelivery",
			slog.String("job_id", payload.JobID), slog.Any("error", err))
		return
	}

	if err := h.Jobs.MarkDLQ(ctx, payload.JobID, msg.ID, entry.LastError); err != nil {
		slog.Error("dead-letter status write failed, leaving message for redelivery",
			slog.String("job_id", payload.JobID), slog.Any("error", err))
		return
	}

	if err := h.Queue.DeleteDLQ(ctx, msg.ID, msg.Receipt); err != nil {
		slog.Warn("dlq delete failed, idempotent insert absorbs the redelivery",
			slog.String("message_id", msg.ID), slog.Any("error", err))
	}

	slog.Info("dead-lettered message recorded",
		slog.String("job_id", payload.JobID),
		slog.String("message_id", msg.ID),
		slog.String("dlq_id", entryID),
		slog.Bool("first_record", inserted),
		slog.Int("receive_count", msg.ReceiveCount))
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
