package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// DLQRepo persists dead-letter entries in PostgreSQL.
type DLQRepo struct{ Pool PgxPool }

// NewDLQRepo constructs a DLQRepo with the given pool.
func NewDLQRepo(p PgxPool) *DLQRepo { return &DLQRepo{Pool: p} }

const dlqColumns = `id, job_id, message_id, body, receive_count, COALESCE(last_error,''),
	moved_at, retry_count, resolved, resolved_at, COALESCE(resolution_reason,'')`

// Insert records an entry keyed by the queue message id. Recording the same
// message twice is a no-op; the second insert reports false.
func (r *DLQRepo) Insert(ctx domain.Context, e domain.DLQEntry) (string, bool, error) {
	tracer := otel.Tracer("repo.dlq")
	ctx, span := tracer.Start(ctx, "dlq.Insert")
	defer span.End()
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	movedAt := e.MovedAt
	if movedAt.IsZero() {
		movedAt = time.Now().UTC()
	}
	q := `INSERT INTO dlq_messages (id, job_id, message_id, body, receive_count, last_error, moved_at, retry_count, resolved)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,FALSE)
	ON CONFLICT (message_id) DO NOTHING`
	tag, err := r.Pool.Exec(ctx, q, id, e.JobID, e.MessageID, string(e.Body), e.ReceiveCount, e.LastError, movedAt, e.RetryCount)
	if err != nil {
		return "", false, fmt.Errorf("op=dlq.insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already recorded; hand back the existing id.
		var existing string
		if err := r.Pool.QueryRow(ctx, `SELECT id FROM dlq_messages WHERE message_id=$1`, e.MessageID).Scan(&existing); err != nil {
			return "", false, fmt.Errorf("op=dlq.insert: %w", err)
		}
		return existing, false, nil
	}
	return id, true, nil
}

// Get loads an entry by id.
func (r *DLQRepo) Get(ctx domain.Context, id string) (domain.DLQEntry, error) {
	tracer := otel.Tracer("repo.dlq")
	ctx, span := tracer.Start(ctx, "dlq.Get")
	defer span.End()
	q := `SELECT ` + dlqColumns + ` FROM dlq_messages WHERE id=$1`
	e, err := scanDLQEntry(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DLQEntry{}, fmt.Errorf("op=dlq.get: %w", domain.ErrNotFound)
		}
		return domain.DLQEntry{}, fmt.Errorf("op=dlq.get: %w", err)
	}
	return e, nil
}

// List returns entries newest first, optionally filtered by resolution state.
func (r *DLQRepo) List(ctx domain.Context, resolved *bool, limit, offset int) ([]domain.DLQEntry, error) {
	tracer := otel.Tracer("repo.dlq")
	ctx, span := tracer.Start(ctx, "dlq.List")
	defer span.End()
	q := `SELECT ` + dlqColumns + ` FROM dlq_messages
	WHERE ($1::boolean IS NULL OR resolved = $1)
	ORDER BY moved_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.Pool.Query(ctx, q, resolved, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("op=dlq.list: %w", err)
	}
	defer rows.Close()
	var out []domain.DLQEntry
	for rows.Next() {
		e, err := scanDLQEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("op=dlq.list: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=dlq.list: %w", err)
	}
	return out, nil
}

// Stats aggregates the dead-letter table.
func (r *DLQRepo) Stats(ctx domain.Context) (domain.DLQStats, error) {
	tracer := otel.Tracer("repo.dlq")
	ctx, span := tracer.Start(ctx, "dlq.Stats")
	defer span.End()
	q := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE NOT resolved),
		COUNT(DISTINCT job_id),
		MAX(moved_at),
		COALESCE(AVG(retry_count), 0)
	FROM dlq_messages`
	var s domain.DLQStats
	if err := r.Pool.QueryRow(ctx, q).Scan(&s.Total, &s.Unresolved, &s.UniqueJobs, &s.LatestMovedAt, &s.AverageRetries); err != nil {
		return domain.DLQStats{}, fmt.Errorf("op=dlq.stats: %w", err)
	}
	return s, nil
}

// Resolve marks an entry handled. Resolving an already-resolved entry keeps
// the original resolution.
func (r *DLQRepo) Resolve(ctx domain.Context, id string, reason string) error {
	tracer := otel.Tracer("repo.dlq")
	ctx, span := tracer.Start(ctx, "dlq.Resolve")
	defer span.End()
	q := `UPDATE dlq_messages SET resolved=TRUE, resolved_at=$2, resolution_reason=$3 WHERE id=$1 AND NOT resolved`
	if _, err := r.Pool.Exec(ctx, q, id, time.Now().UTC(), reason); err != nil {
		return fmt.Errorf("op=dlq.resolve: %w", err)
	}
	return nil
}

// IncrementRetry bumps the manual retry counter for an entry.
func (r *DLQRepo) IncrementRetry(ctx domain.Context, id string) error {
	tracer := otel.Tracer("repo.dlq")
	ctx, span := tracer.Start(ctx, "dlq.IncrementRetry")
	defer span.End()
	q := `UPDATE dlq_messages SET retry_count = retry_count + 1 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("op=dlq.increment_retry: %w", err)
	}
	return nil
}

func scanDLQEntry(row pgx.Row) (domain.DLQEntry, error) {
	var e domain.DLQEntry
	var body string
	if err := row.Scan(&e.ID, &e.JobID, &e.MessageID, &body, &e.ReceiveCount, &e.LastError,
		&e.MovedAt, &e.RetryCount, &e.Resolved, &e.ResolvedAt, &e.ResolutionReason); err != nil {
		return domain.DLQEntry{}, err
	}
	e.Body = []byte(body)
	return e, nil
}
