package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// JobRepo persists and loads review jobs from PostgreSQL using a minimal pgx pool.
type JobRepo struct{ Pool PgxPool }

// NewJobRepo constructs a JobRepo with the given pool.
func NewJobRepo(p PgxPool) *JobRepo { return &JobRepo{Pool: p} }

const jobColumns = `id, owner_id, code_hash, file_name, file_content, status, result, cache_hit,
	attempts, COALESCE(last_error,''), COALESCE(dlq_message_id,''), dlq_moved_at,
	processing_time_ms, created_at, completed_at`

// Create inserts a new job and returns its id.
func (r *JobRepo) Create(ctx domain.Context, j domain.Job) (string, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "review_jobs"),
	)
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}
	var result []byte
	if j.Result != nil {
		var err error
		result, err = json.Marshal(j.Result)
		if err != nil {
			return "", fmt.Errorf("op=job.create: %w", err)
		}
	}
	q := `INSERT INTO review_jobs (id, owner_id, code_hash, file_name, file_content, status, result, cache_hit, attempts, last_error, processing_time_ms, created_at, completed_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.Pool.Exec(ctx, q, id, j.OwnerID, j.CodeHash, j.FileName, j.FileContent,
		j.Status, result, j.CacheHit, j.Attempts, j.LastError, j.ProcessingTimeMS,
		time.Now().UTC(), j.CompletedAt)
	if err != nil {
		return "", fmt.Errorf("op=job.create: %w", err)
	}
	return id, nil
}

// MarkProcessing records the attempt count and moves the job to processing.
// Terminal jobs are left untouched so a late redelivery cannot demote them.
func (r *JobRepo) MarkProcessing(ctx domain.Context, id string, attempts int) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.MarkProcessing")
	defer span.End()
	q := `UPDATE review_jobs SET status=$2, attempts=$3, updated_at=now() WHERE id=$1 AND status NOT IN ($4,$5)`
	_, err := r.Pool.Exec(ctx, q, id, domain.JobProcessing, attempts, domain.JobComplete, domain.JobDLQ)
	if err != nil {
		return fmt.Errorf("op=job.mark_processing: %w", err)
	}
	return nil
}

// Complete stores the result and moves the job to complete. The conditional
// update makes redelivered completions a no-op; it reports false when the
// job was already complete.
func (r *JobRepo) Complete(ctx domain.Context, id string, report *domain.Report, durationMS int64, attempts int) (bool, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Complete")
	defer span.End()
	result, err := json.Marshal(report)
	if err != nil {
		return false, fmt.Errorf("op=job.complete: %w", err)
	}
	q := `UPDATE review_jobs
	SET status=$2, result=$3, processing_time_ms=$4, attempts=$5, last_error='', completed_at=$6, updated_at=now()
	WHERE id=$1 AND status<>$2`
	tag, err := r.Pool.Exec(ctx, q, id, domain.JobComplete, result, durationMS, attempts, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("op=job.complete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkRetrying records a failed attempt while the message waits for redelivery.
func (r *JobRepo) MarkRetrying(ctx domain.Context, id string, attempts int, lastError string) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.MarkRetrying")
	defer span.End()
	q := `UPDATE review_jobs SET status=$2, attempts=$3, last_error=$4, updated_at=now() WHERE id=$1 AND status NOT IN ($5,$6)`
	_, err := r.Pool.Exec(ctx, q, id, domain.JobRetrying, attempts, lastError, domain.JobComplete, domain.JobDLQ)
	if err != nil {
		return fmt.Errorf("op=job.mark_retrying: %w", err)
	}
	return nil
}

// ReopenFromDLQ moves a dead-lettered job back to retrying for a manual
// retry, clearing its dead-letter bookkeeping. Only jobs currently in the
// dlq state match; a second reopen or a raced completion is a no-op.
func (r *JobRepo) ReopenFromDLQ(ctx domain.Context, id string) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.ReopenFromDLQ")
	defer span.End()
	q := `UPDATE review_jobs
	SET status=$2, dlq_message_id='', dlq_moved_at=NULL, last_error=$3, updated_at=now()
	WHERE id=$1 AND status=$4`
	_, err := r.Pool.Exec(ctx, q, id, domain.JobRetrying, "manually retried from dead letter queue", domain.JobDLQ)
	if err != nil {
		return fmt.Errorf("op=job.reopen_from_dlq: %w", err)
	}
	return nil
}

// MarkDLQ moves the job to its dead-lettered terminal state.
func (r *JobRepo) MarkDLQ(ctx domain.Context, id string, messageID string, lastError string) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.MarkDLQ")
	defer span.End()
	q := `UPDATE review_jobs SET status=$2, dlq_message_id=$3, dlq_moved_at=$4, last_error=$5, updated_at=now() WHERE id=$1 AND status<>$6`
	_, err := r.Pool.Exec(ctx, q, id, domain.JobDLQ, messageID, time.Now().UTC(), lastError, domain.JobComplete)
	if err != nil {
		return fmt.Errorf("op=job.mark_dlq: %w", err)
	}
	return nil
}

// SweepStuck moves processing jobs whose last update is older than the given
// age back to retrying so the visibility-expired message can be picked up
// again. It returns the number of jobs swept.
func (r *JobRepo) SweepStuck(ctx domain.Context, olderThan time.Duration) (int64, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.SweepStuck")
	defer span.End()
	cutoff := time.Now().UTC().Add(-olderThan)
	q := `UPDATE review_jobs SET status=$2, last_error=$3, updated_at=now() WHERE status=$4 AND updated_at < $1`
	tag, err := r.Pool.Exec(ctx, q, cutoff,
		domain.JobRetrying, fmt.Sprintf("processing exceeded %v, swept back to retrying", olderThan), domain.JobProcessing)
	if err != nil {
		return 0, fmt.Errorf("op=job.sweep_stuck: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Get loads a job by id.
func (r *JobRepo) Get(ctx domain.Context, id string) (domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Get")
	defer span.End()
	q := `SELECT ` + jobColumns + ` FROM review_jobs WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Job{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
		}
		return domain.Job{}, fmt.Errorf("op=job.get: %w", err)
	}
	return j, nil
}

// History returns the owner's most recent jobs, newest first.
func (r *JobRepo) History(ctx domain.Context, ownerID int64, limit int) ([]domain.JobSummary, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.History")
	defer span.End()
	q := `SELECT id, file_name, status, cache_hit, processing_time_ms, created_at,
		COALESCE((result->'metrics'->>'issues_found')::int, 0)
	FROM review_jobs WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.Pool.Query(ctx, q, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("op=job.history: %w", err)
	}
	defer rows.Close()
	var out []domain.JobSummary
	for rows.Next() {
		var s domain.JobSummary
		if err := rows.Scan(&s.ID, &s.FileName, &s.Status, &s.CacheHit, &s.ProcessingTimeMS, &s.CreatedAt, &s.IssuesFound); err != nil {
			return nil, fmt.Errorf("op=job.history: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=job.history: %w", err)
	}
	return out, nil
}

// FindByCodeHash returns summaries of jobs that analyzed the given content.
func (r *JobRepo) FindByCodeHash(ctx domain.Context, codeHash string) ([]domain.JobSummary, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.FindByCodeHash")
	defer span.End()
	q := `SELECT id, file_name, status, cache_hit, processing_time_ms, created_at,
		COALESCE((result->'metrics'->>'issues_found')::int, 0)
	FROM review_jobs WHERE code_hash=$1 ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q, codeHash)
	if err != nil {
		return nil, fmt.Errorf("op=job.find_by_hash: %w", err)
	}
	defer rows.Close()
	var out []domain.JobSummary
	for rows.Next() {
		var s domain.JobSummary
		if err := rows.Scan(&s.ID, &s.FileName, &s.Status, &s.CacheHit, &s.ProcessingTimeMS, &s.CreatedAt, &s.IssuesFound); err != nil {
			return nil, fmt.Errorf("op=job.find_by_hash: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=job.find_by_hash: %w", err)
	}
	return out, nil
}

// CountByStatus returns the number of jobs currently in the given status.
func (r *JobRepo) CountByStatus(ctx domain.Context, status domain.JobStatus) (int64, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.CountByStatus")
	defer span.End()
	var count int64
	q := `SELECT COUNT(*) FROM review_jobs WHERE status=$1`
	if err := r.Pool.QueryRow(ctx, q, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("op=job.count_by_status: %w", err)
	}
	return count, nil
}

// CountByStatusSince returns the number of jobs in the given status created
// after the cutoff.
func (r *JobRepo) CountByStatusSince(ctx domain.Context, status domain.JobStatus, since time.Time) (int64, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.CountByStatusSince")
	defer span.End()
	var count int64
	q := `SELECT COUNT(*) FROM review_jobs WHERE status=$1 AND created_at >= $2`
	if err := r.Pool.QueryRow(ctx, q, status, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("op=job.count_by_status_since: %w", err)
	}
	return count, nil
}

func scanJob(row pgx.Row) (domain.Job, error) {
	var j domain.Job
	var result []byte
	if err := row.Scan(&j.ID, &j.OwnerID, &j.CodeHash, &j.FileName, &j.FileContent,
		&j.Status, &result, &j.CacheHit, &j.Attempts, &j.LastError, &j.DLQMessageID,
		&j.DLQMovedAt, &j.ProcessingTimeMS, &j.CreatedAt, &j.CompletedAt); err != nil {
		return domain.Job{}, err
	}
	if len(result) > 0 {
		var rep domain.Report
		if err := json.Unmarshal(result, &rep); err != nil {
			return domain.Job{}, err
		}
		j.Result = &rep
	}
	return j, nil
}
