package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates a pgx connection pool from the provided DSN and returns it.
// The pool is configured with sane defaults for this application and traces
// queries through OpenTelemetry.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.ConnConfig.Tracer = otelpgx.NewTracer()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// Migrate applies the schema idempotently. Both binaries run it at startup
// so a fresh database needs no out-of-band provisioning.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS review_jobs (
			id UUID PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES users(id),
			code_hash TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_content TEXT NOT NULL,
			status TEXT NOT NULL,
			result JSONB,
			cache_hit BOOLEAN NOT NULL DEFAULT FALSE,
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			dlq_message_id TEXT NOT NULL DEFAULT '',
			dlq_moved_at TIMESTAMPTZ,
			processing_time_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_jobs_owner_created ON review_jobs (owner_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_review_jobs_code_hash ON review_jobs (code_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_review_jobs_status ON review_jobs (status)`,
		`CREATE TABLE IF NOT EXISTS dlq_messages (
			id UUID PRIMARY KEY,
			job_id UUID NOT NULL,
			message_id TEXT NOT NULL UNIQUE,
			body TEXT NOT NULL,
			receive_count INT NOT NULL,
			last_error TEXT NOT NULL DEFAULT '',
			moved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			retry_count INT NOT NULL DEFAULT 0,
			resolved BOOLEAN NOT NULL DEFAULT FALSE,
			resolved_at TIMESTAMPTZ,
			resolution_reason TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dlq_messages_resolved ON dlq_messages (resolved, moved_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("op=postgres.migrate: %w", err)
		}
	}
	return nil
}
