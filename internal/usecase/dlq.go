package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

const (
	defaultDLQLimit = 50
	maxDLQLimit     = 200
)

// DLQService is the operational surface over dead-lettered messages:
// inspection, resolution, and manual retry.
type DLQService struct {
	DLQ   domain.DLQStore
	Jobs  domain.JobStore
	Queue domain.Queue
}

// NewDLQService constructs a DLQService with its dependencies.
func NewDLQService(d domain.DLQStore, j domain.JobStore, q domain.Queue) DLQService {
	return DLQService{DLQ: d, Jobs: j, Queue: q}
}

// List returns dead-letter entries, optionally filtered by resolved state.
func (s DLQService) List(ctx domain.Context, resolved *bool, limit, offset int) ([]domain.DLQEntry, error) {
	if limit <= 0 {
		limit = defaultDLQLimit
	}
	if limit > maxDLQLimit {
		limit = maxDLQLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.DLQ.List(ctx, resolved, limit, offset)
}

// Stats aggregates the dead-letter table.
func (s DLQService) Stats(ctx domain.Context) (domain.DLQStats, error) {
	return s.DLQ.Stats(ctx)
}

// Get reads one entry.
func (s DLQService) Get(ctx domain.Context, id string) (domain.DLQEntry, error) {
	if id == "" {
		return domain.DLQEntry{}, fmt.Errorf("%w: dlq id required", domain.ErrInvalidInput)
	}
	return s.DLQ.Get(ctx, id)
}

// Resolve marks an entry handled. Resolving an already-resolved entry is a
// no-op; the original resolution is kept.
func (s DLQService) Resolve(ctx domain.Context, id, reason string) error {
	if id == "" {
		return fmt.Errorf("%w: dlq id required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: resolution reason required", domain.ErrInvalidInput)
	}
	return s.DLQ.Resolve(ctx, id, reason)
}

// Retry resends the dead-lettered body on the main queue with a fresh retry
// budget, bumps the entry's retry count, and moves the job back to retrying.
func (s DLQService) Retry(ctx domain.Context, id string) (string, error) {
	entry, err := s.DLQ.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if entry.Resolved {
		return "", fmt.Errorf("%w: entry already resolved", domain.ErrConflict)
	}

	msgID, err := s.Queue.ResendToMain(ctx, entry.Body)
	if err != nil {
		return "", fmt.Errorf("op=dlq.retry: %w", err)
	}
	if err := s.DLQ.IncrementRetry(ctx, entry.ID); err != nil {
		return "", fmt.Errorf("op=dlq.retry: %w", err)
	}
	if err := s.Jobs.ReopenFromDLQ(ctx, entry.JobID); err != nil {
		return "", fmt.Errorf("op=dlq.retry: %w", err)
	}

	slog.Info("dead-lettered job resent to main queue",
		slog.String("dlq_id", entry.ID),
		slog.String("job_id", entry.JobID),
		slog.String("new_message_id", msgID))
	return msgID, nil
}
