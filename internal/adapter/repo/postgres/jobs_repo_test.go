package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

func TestJobRepo_Create(t *testing.T) {
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewJobRepo(pool)
	ctx := context.Background()

	job := domain.Job{
		ID:       "9f0c7c2c-5a1c-4c81-8f39-7a1f0c000001",
		OwnerID:  42,
		CodeHash: "abc123",
		FileName: "app.js",
		Status:   domain.JobQueued,
	}
	id, err := repo.Create(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, job.ID, id)

	// Generates an id when none is given.
	id, err = repo.Create(ctx, domain.Job{OwnerID: 42, Status: domain.JobQueued})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// Database error surfaces with the op prefix.
	pool.execErr = assert.AnError
	_, err = repo.Create(ctx, job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=job.create")
}

func TestJobRepo_Complete_Idempotent(t *testing.T) {
	ctx := context.Background()
	rep := &domain.Report{FileName: "app.js", QualityScore: 90, QualityGrade: "A"}

	// First completion updates a row.
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := postgres.NewJobRepo(pool)
	updated, err := repo.Complete(ctx, "job-1", rep, 1200, 1)
	require.NoError(t, err)
	assert.True(t, updated)

	// A redelivered completion matches no row and reports false.
	pool.execTag = pgconn.NewCommandTag("UPDATE 0")
	updated, err = repo.Complete(ctx, "job-1", rep, 800, 2)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestJobRepo_ReopenFromDLQ_TargetsDeadLetteredRowsOnly(t *testing.T) {
	ctx := context.Background()
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := postgres.NewJobRepo(pool)

	require.NoError(t, repo.ReopenFromDLQ(ctx, "job-1"))
	require.Len(t, pool.execCalls, 1)

	// The guard must match dlq rows, unlike MarkRetrying which excludes them.
	q := pool.execCalls[0]
	assert.Contains(t, q, "WHERE id=$1 AND status=$4")
	assert.Contains(t, q, "dlq_message_id=''")
	assert.Contains(t, q, "dlq_moved_at=NULL")
	args := pool.execArgs[0]
	require.Len(t, args, 4)
	assert.Equal(t, "job-1", args[0])
	assert.Equal(t, domain.JobRetrying, args[1])
	assert.Equal(t, domain.JobDLQ, args[3])

	pool.execErr = assert.AnError
	err := repo.ReopenFromDLQ(ctx, "job-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=job.reopen_from_dlq")
}

func TestJobRepo_MarkRetrying_RefusesTerminalStates(t *testing.T) {
	ctx := context.Background()
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := postgres.NewJobRepo(pool)

	require.NoError(t, repo.MarkRetrying(ctx, "job-1", 2, "boom"))
	require.Len(t, pool.execArgs, 1)
	args := pool.execArgs[0]
	require.Len(t, args, 6)
	assert.Equal(t, domain.JobComplete, args[4])
	assert.Equal(t, domain.JobDLQ, args[5])
}

func TestJobRepo_Get(t *testing.T) {
	ctx := context.Background()
	created := time.Now().UTC()
	result, _ := json.Marshal(&domain.Report{FileName: "app.js", QualityScore: 85})

	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*string)) = "job-1"
		*(dest[1].(*int64)) = 42
		*(dest[2].(*string)) = "abc123"
		*(dest[3].(*string)) = "app.js"
		*(dest[4].(*string)) = "const x = 1;"
		*(dest[5].(*domain.JobStatus)) = domain.JobComplete
		*(dest[6].(*[]byte)) = result
		*(dest[7].(*bool)) = false
		*(dest[8].(*int)) = 1
		*(dest[9].(*string)) = ""
		*(dest[10].(*string)) = ""
		*(dest[11].(**time.Time)) = nil
		*(dest[12].(*int64)) = 1200
		*(dest[13].(*time.Time)) = created
		*(dest[14].(**time.Time)) = &created
		return nil
	}}}
	repo := postgres.NewJobRepo(pool)

	job, err := repo.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobComplete, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, float64(85), job.Result.QualityScore)
	require.NotNil(t, job.CompletedAt)
}

func TestJobRepo_Get_NotFound(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewJobRepo(pool)

	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobRepo_History(t *testing.T) {
	created := time.Now().UTC()
	pool := &poolStub{rows: &rowsStub{rows: []func(dest ...any) error{
		func(dest ...any) error {
			*(dest[0].(*string)) = "job-2"
			*(dest[1].(*string)) = "b.js"
			*(dest[2].(*domain.JobStatus)) = domain.JobComplete
			*(dest[3].(*bool)) = true
			*(dest[4].(*int64)) = 3
			*(dest[5].(*time.Time)) = created
			*(dest[6].(*int)) = 2
			return nil
		},
		func(dest ...any) error {
			*(dest[0].(*string)) = "job-1"
			*(dest[1].(*string)) = "a.js"
			*(dest[2].(*domain.JobStatus)) = domain.JobQueued
			*(dest[3].(*bool)) = false
			*(dest[4].(*int64)) = 0
			*(dest[5].(*time.Time)) = created.Add(-time.Minute)
			*(dest[6].(*int)) = 0
			return nil
		},
	}}}
	repo := postgres.NewJobRepo(pool)

	out, err := repo.History(context.Background(), 42, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "job-2", out[0].ID)
	assert.True(t, out[0].CacheHit)
	assert.Equal(t, 2, out[0].IssuesFound)
}

func TestJobRepo_CountByStatus(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*(dest[0].(*int64)) = 7
		return nil
	}}}
	repo := postgres.NewJobRepo(pool)

	n, err := repo.CountByStatus(context.Background(), domain.JobQueued)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
