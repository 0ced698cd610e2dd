package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-code-reviewer/internal/app"
	"github.com/fairyhunter13/ai-code-reviewer/internal/config"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain/mocks"
	"github.com/fairyhunter13/ai-code-reviewer/internal/usecase"
)

type testEnv struct {
	router http.Handler
	jobs   *mocks.JobStore
	users  *mocks.UserStore
	queue  *mocks.Queue
	cache  *mocks.ResultCache
	dlq    *mocks.DLQStore
}

func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	jobs := mocks.NewJobStore(t)
	users := mocks.NewUserStore(t)
	queue := mocks.NewQueue(t)
	cache := mocks.NewResultCache(t)
	dlq := mocks.NewDLQStore(t)

	if cfg.RateLimitPerMin == 0 {
		cfg.RateLimitPerMin = 100
	}
	srv := &httpserver.Server{
		Cfg:    cfg,
		Submit: usecase.NewSubmitService(jobs, users, queue, cache, 1<<20),
		DLQ:    usecase.NewDLQService(dlq, jobs, queue),
		Stats:  usecase.NewStatsService(jobs, dlq, users, queue, cache),
	}
	return &testEnv{
		router: app.BuildRouter(cfg, srv),
		jobs:   jobs,
		users:  users,
		queue:  queue,
		cache:  cache,
		dlq:    dlq,
	}
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitReview_Queued(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	env.users.On("Ensure", mock.Anything, int64(1)).Return(nil)
	env.cache.On("Get", mock.Anything, mock.Anything).Return(nil, false)
	env.jobs.On("Create", mock.Anything, mock.Anything).Return("job-1", nil)
	env.queue.On("Enqueue", mock.Anything, mock.Anything).Return("msg-1", nil)

	rec := doJSON(t, env.router, http.MethodPost, "/reviews/submit",
		`{"file_name":"app.js","file_content":"const x = 1;\n"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp["job_id"])
	assert.Equal(t, "queued", resp["status"])
	assert.Equal(t, false, resp["cache_hit"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestSubmitReview_CacheHit(t *testing.T) {
	env := newTestEnv(t, config.Config{})
	cached := &domain.Report{FileName: "app.js", QualityScore: 100, QualityGrade: "A"}

	env.users.On("Ensure", mock.Anything, int64(7)).Return(nil)
	env.cache.On("Get", mock.Anything, mock.Anything).Return(cached, true)
	env.jobs.On("Create", mock.Anything, mock.Anything).Return("job-2", nil)

	rec := doJSON(t, env.router, http.MethodPost, "/reviews/submit",
		`{"file_name":"app.js","file_content":"const x = 1;\n","owner":7}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "complete", resp["status"])
	assert.Equal(t, true, resp["cache_hit"])
	assert.NotNil(t, resp["result"])
}

func TestSubmitReview_BadRequests(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	for name, body := range map[string]string{
		"invalid json":  `{"file_name":`,
		"missing name":  `{"file_content":"x"}`,
		"missing body":  `{"file_name":"a.js"}`,
		"empty content": `{"file_name":"a.js","file_content":"   "}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, env.router, http.MethodPost, "/reviews/submit", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestJobStatus(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	env.jobs.On("Get", mock.Anything, "job-1").Return(domain.Job{
		ID:       "job-1",
		Status:   domain.JobProcessing,
		CacheHit: false,
	}, nil)
	rec := doJSON(t, env.router, http.MethodGet, "/reviews/status/job-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processing", resp["status"])

	env.jobs.On("Get", mock.Anything, "nope").Return(domain.Job{}, domain.ErrNotFound)
	rec = doJSON(t, env.router, http.MethodGet, "/reviews/status/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory_AlwaysReturnsArray(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	env.jobs.On("History", mock.Anything, int64(9), 20).Return(nil, nil)
	rec := doJSON(t, env.router, http.MethodGet, "/reviews/history?owner=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestDLQEndpoints(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	env.dlq.On("List", mock.Anything, mock.Anything, 50, 0).Return([]domain.DLQEntry{
		{ID: "dlq-1", JobID: "job-1", MessageID: "msg-1", Body: []byte(`{"job_id":"job-1"}`), ReceiveCount: 3},
	}, nil)
	rec := doJSON(t, env.router, http.MethodGet, "/dlq", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, `{"job_id":"job-1"}`, entries[0]["body"])

	env.dlq.On("Stats", mock.Anything).Return(domain.DLQStats{Total: 1, Unresolved: 1}, nil)
	rec = doJSON(t, env.router, http.MethodGet, "/dlq/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	env.dlq.On("Get", mock.Anything, "dlq-1").Return(domain.DLQEntry{ID: "dlq-1", Resolved: true}, nil)
	rec = doJSON(t, env.router, http.MethodPost, "/dlq/dlq-1/retry", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, env.router, http.MethodPost, "/dlq/dlq-1/resolve", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env.dlq.On("Resolve", mock.Anything, "dlq-1", "fixed upstream").Return(nil)
	rec = doJSON(t, env.router, http.MethodPost, "/dlq/dlq-1/resolve", `{"reason":"fixed upstream"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDLQ_AdminGuard(t *testing.T) {
	hash, err := httpserver.HashPassword("s3cret", httpserver.Argon2Params{
		Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32,
	})
	require.NoError(t, err)
	env := newTestEnv(t, config.Config{AdminUsername: "ops", AdminPasswordHash: hash})

	rec := doJSON(t, env.router, http.MethodGet, "/dlq/stats", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env.dlq.On("Stats", mock.Anything).Return(domain.DLQStats{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/dlq/stats", nil)
	req.SetBasicAuth("ops", "s3cret")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndStats(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	env.cache.On("HitRate", mock.Anything).Return(int64(3), int64(1), 0.75)
	rec := doJSON(t, env.router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.InDelta(t, 0.75, health["cache_hit_rate"].(float64), 1e-9)

	env.queue.On("Depth", mock.Anything).Return(int64(2), nil)
	for _, st := range []domain.JobStatus{domain.JobQueued, domain.JobProcessing, domain.JobRetrying, domain.JobComplete, domain.JobDLQ} {
		env.jobs.On("CountByStatus", mock.Anything, st).Return(int64(1), nil)
	}
	env.users.On("Count", mock.Anything).Return(int64(5), nil)
	env.dlq.On("Stats", mock.Anything).Return(domain.DLQStats{Total: 1}, nil)

	rec = doJSON(t, env.router, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 2, stats["queue_depth"])
	assert.EqualValues(t, 1, stats["active_workers"])
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t, config.Config{})

	rec := doJSON(t, env.router, http.MethodGet, "/readyz", "")
	// Nil checks are skipped, not failed.
	require.Equal(t, http.StatusOK, rec.Code)
}
