package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-code-reviewer/internal/config"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
	"github.com/fairyhunter13/ai-code-reviewer/internal/usecase"
)

// defaultOwnerID is used when a submission carries no owner.
const defaultOwnerID = 1

// Server aggregates handler dependencies.
type Server struct {
	Cfg    config.Config
	Submit usecase.SubmitService
	DLQ    usecase.DLQService
	Stats  usecase.StatsService

	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

var (
	vld     *validator.Validate
	vldOnce sync.Once
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type submitRequest struct {
	FileName    string `json:"file_name" validate:"required"`
	FileContent string `json:"file_content" validate:"required"`
	Owner       int64  `json:"owner"`
}

type submitResponse struct {
	JobID    string         `json:"job_id"`
	Status   string         `json:"status"`
	CacheHit bool           `json:"cache_hit"`
	Result   *domain.Report `json:"result,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// SubmitReview handles POST /reviews/submit.
func (s *Server) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", domain.ErrInvalidInput))
		return
	}
	if err := getValidator().Struct(&req); err != nil {
		writeError(w, fmt.Errorf("%w: file_name and file_content are required", domain.ErrInvalidInput))
		return
	}
	owner := req.Owner
	if owner <= 0 {
		owner = defaultOwnerID
	}

	res, err := s.Submit.Submit(r.Context(), req.FileName, []byte(req.FileContent), owner)
	if err != nil {
		LoggerFrom(r).Warn("submission rejected", "error", err)
		writeError(w, err)
		return
	}

	resp := submitResponse{
		JobID:    res.JobID,
		Status:   string(res.Status),
		CacheHit: res.CacheHit,
		Result:   res.Report,
	}
	if res.CacheHit {
		resp.Message = "served from cache"
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Message = "queued for review"
	writeJSON(w, http.StatusAccepted, resp)
}

type jobStatusResponse struct {
	ID               string         `json:"id"`
	Status           string         `json:"status"`
	Result           *domain.Report `json:"result,omitempty"`
	CacheHit         bool           `json:"cache_hit"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	LastError        string         `json:"last_error,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
}

// JobStatus handles GET /reviews/status/{job_id}.
func (s *Server) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.Submit.Status(r.Context(), jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobStatusResponse{
		ID:               job.ID,
		Status:           string(job.Status),
		Result:           job.Result,
		CacheHit:         job.CacheHit,
		ProcessingTimeMS: job.ProcessingTimeMS,
		LastError:        job.LastError,
		CreatedAt:        job.CreatedAt,
		CompletedAt:      job.CompletedAt,
	})
}

// History handles GET /reviews/history?owner=&limit=.
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	owner := parseInt64Param(r, "owner", defaultOwnerID)
	limit := int(parseInt64Param(r, "limit", 0))

	items, err := s.Submit.History(r.Context(), owner, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.JobSummary{}
	}
	writeJSON(w, http.StatusOK, items)
}

type dlqEntryResponse struct {
	ID               string     `json:"id"`
	JobID            string     `json:"job_id"`
	MessageID        string     `json:"message_id"`
	Body             string     `json:"body"`
	ReceiveCount     int        `json:"receive_count"`
	LastError        string     `json:"last_error"`
	MovedAt          time.Time  `json:"moved_at"`
	RetryCount       int        `json:"retry_count"`
	Resolved         bool       `json:"resolved"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolutionReason string     `json:"resolution_reason,omitempty"`
}

func toDLQResponse(e domain.DLQEntry) dlqEntryResponse {
	return dlqEntryResponse{
		ID:               e.ID,
		JobID:            e.JobID,
		MessageID:        e.MessageID,
		Body:             string(e.Body),
		ReceiveCount:     e.ReceiveCount,
		LastError:        e.LastError,
		MovedAt:          e.MovedAt,
		RetryCount:       e.RetryCount,
		Resolved:         e.Resolved,
		ResolvedAt:       e.ResolvedAt,
		ResolutionReason: e.ResolutionReason,
	}
}

// DLQList handles GET /dlq?resolved=&limit=&offset=.
func (s *Server) DLQList(w http.ResponseWriter, r *http.Request) {
	var resolved *bool
	if v := r.URL.Query().Get("resolved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, fmt.Errorf("%w: resolved must be a boolean", domain.ErrInvalidInput))
			return
		}
		resolved = &b
	}
	limit := int(parseInt64Param(r, "limit", 0))
	offset := int(parseInt64Param(r, "offset", 0))

	entries, err := s.DLQ.List(r.Context(), resolved, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dlqEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toDLQResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// DLQStats handles GET /dlq/stats.
func (s *Server) DLQStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DLQ.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DLQGet handles GET /dlq/{id}.
func (s *Server) DLQGet(w http.ResponseWriter, r *http.Request) {
	entry, err := s.DLQ.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDLQResponse(entry))
}

// DLQRetry handles POST /dlq/{id}/retry.
func (s *Server) DLQRetry(w http.ResponseWriter, r *http.Request) {
	msgID, err := s.DLQ.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":        "resent to main queue",
		"new_message_id": msgID,
	})
}

type resolveRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// DLQResolve handles POST /dlq/{id}/resolve.
func (s *Server) DLQResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", domain.ErrInvalidInput))
		return
	}
	if err := getValidator().Struct(&req); err != nil {
		writeError(w, fmt.Errorf("%w: reason is required", domain.ErrInvalidInput))
		return
	}
	if err := s.DLQ.Resolve(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"resolved": true})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Stats.Health(r.Context()))
}

// StatsOverview handles GET /stats.
func (s *Server) StatsOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.Stats.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// Healthz is the bare liveness probe.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz probes the backing stores so load balancers only route to a
// process that can serve.
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]func(ctx context.Context) error{
		"db":    s.DBCheck,
		"redis": s.RedisCheck,
	}
	status := map[string]string{}
	healthy := true
	for name, check := range checks {
		if check == nil {
			status[name] = "skipped"
			continue
		}
		if err := check(ctx); err != nil {
			LoggerFrom(r).Warn("readiness check failed", "check", name, "error", err)
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func parseInt64Param(r *http.Request, name string, def int64) int64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}
