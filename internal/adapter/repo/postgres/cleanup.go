package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CleanupService enforces data retention on review jobs and resolved
// dead-letter entries.
type CleanupService struct {
	Pool          *pgxpool.Pool
	RetentionDays int
}

// NewCleanupService creates a new cleanup service.
func NewCleanupService(pool *pgxpool.Pool, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 90 // default 90 days
	}
	return &CleanupService{Pool: pool, RetentionDays: retentionDays}
}

// CleanupOldData removes data older than the retention period. Unresolved
// dead-letter entries are kept regardless of age; they represent work an
// operator has not looked at yet.
func (s *CleanupService) CleanupOldData(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -s.RetentionDays)

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cleanup begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tagDLQ, err := tx.Exec(ctx, `
		DELETE FROM dlq_messages
		WHERE resolved AND moved_at < $1
	`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup dlq: %w", err)
	}

	tagJobs, err := tx.Exec(ctx, `
		DELETE FROM review_jobs
		WHERE created_at < $1
		AND status IN ('complete', 'dlq')
		AND id NOT IN (SELECT job_id FROM dlq_messages WHERE NOT resolved)
	`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup jobs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("cleanup commit: %w", err)
	}

	slog.Info("data cleanup completed",
		slog.Int64("deleted_jobs", tagJobs.RowsAffected()),
		slog.Int64("deleted_dlq_entries", tagDLQ.RowsAffected()),
		slog.Time("cutoff", cutoff),
	)

	return nil
}

// RunPeriodic starts a periodic cleanup job.
func (s *CleanupService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour // daily by default
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run initial cleanup
	if err := s.CleanupOldData(ctx); err != nil {
		slog.Error("initial cleanup failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup service stopping")
			return
		case <-ticker.C:
			if err := s.CleanupOldData(ctx); err != nil {
				slog.Error("periodic cleanup failed", slog.Any("error", err))
			}
		}
	}
}
