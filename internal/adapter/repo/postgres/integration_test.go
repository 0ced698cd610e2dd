package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// startPostgres spins up a disposable database for the repo round-trip test.
// Requires Docker; gated behind the INTEGRATION env var so the unit suite
// stays hermetic.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() || os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run container-backed tests")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "app"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithStartupTimeout(90 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err)
	return "postgres://postgres:postgres@" + host + ":" + port.Port() + "/app?sslmode=disable"
}

func Test_Repos_RoundTrip(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.Eventually(t, func() bool { return pool.Ping(ctx) == nil }, 30*time.Second, time.Second)
	require.NoError(t, postgres.Migrate(ctx, pool))

	users := postgres.NewUserRepo(pool)
	jobs := postgres.NewJobRepo(pool)
	dlq := postgres.NewDLQRepo(pool)

	require.NoError(t, users.Ensure(ctx, 1))
	require.NoError(t, users.Ensure(ctx, 1)) // idempotent

	id, err := jobs.Create(ctx, domain.Job{
		OwnerID:     1,
		CodeHash:    "cafe",
		FileName:    "app.js",
		FileContent: "const x = 1;\n",
		Status:      domain.JobQueued,
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, jobs.MarkProcessing(ctx, id, 1))
	report := &domain.Report{FileName: "app.js", QualityScore: 100, QualityGrade: "A"}
	first, err := jobs.Complete(ctx, id, report, 42, 1)
	require.NoError(t, err)
	assert.True(t, first)

	// A redelivered completion is a no-op.
	again, err := jobs.Complete(ctx, id, report, 42, 2)
	require.NoError(t, err)
	assert.False(t, again)

	// Terminal state survives late transition attempts.
	require.NoError(t, jobs.MarkProcessing(ctx, id, 3))
	got, err := jobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "A", got.Result.QualityGrade)

	// Dead-letter path on a second job.
	id2, err := jobs.Create(ctx, domain.Job{OwnerID: 1, CodeHash: "beef", FileName: "b.js", FileContent: "y", Status: domain.JobQueued, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.NoError(t, jobs.MarkRetrying(ctx, id2, 2, "boom"))

	entry := domain.DLQEntry{JobID: id2, MessageID: "msg-1", Body: []byte(`{"job_id":"x"}`), ReceiveCount: 3, LastError: "boom", MovedAt: time.Now().UTC()}
	dlqID, inserted, err := dlq.Insert(ctx, entry)
	require.NoError(t, err)
	assert.True(t, inserted)
	_, insertedAgain, err := dlq.Insert(ctx, entry)
	require.NoError(t, err)
	assert.False(t, insertedAgain)

	require.NoError(t, jobs.MarkDLQ(ctx, id2, "msg-1", "boom"))

	// Manual retry reopens the dead-lettered job and the normal lifecycle
	// resumes from retrying.
	require.NoError(t, jobs.ReopenFromDLQ(ctx, id2))
	reopened, err := jobs.Get(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, domain.JobRetrying, reopened.Status)
	assert.Empty(t, reopened.DLQMessageID)
	require.NoError(t, jobs.MarkProcessing(ctx, id2, 4))
	firstRetry, err := jobs.Complete(ctx, id2, report, 10, 4)
	require.NoError(t, err)
	assert.True(t, firstRetry)

	require.NoError(t, dlq.IncrementRetry(ctx, dlqID))
	require.NoError(t, dlq.Resolve(ctx, dlqID, "fixed upstream"))
	resolved, err := dlq.Get(ctx, dlqID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, 1, resolved.RetryCount)

	stats, err := dlq.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 0, stats.Unresolved)

	// Nothing recent qualifies as stuck.
	swept, err := jobs.SweepStuck(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, swept)
}
