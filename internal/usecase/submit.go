// Package usecase contains application business logic services.
package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
	"github.com/fairyhunter13/ai-code-reviewer/internal/hashing"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 50
)

// SubmitService orchestrates submission intake: validation, cache probe,
// job creation, and enqueueing.
type SubmitService struct {
	Jobs            domain.JobStore
	Users           domain.UserStore
	Queue           domain.Queue
	Cache           domain.ResultCache
	MaxContentBytes int64
}

// NewSubmitService constructs a SubmitService with its dependencies.
func NewSubmitService(j domain.JobStore, u domain.UserStore, q domain.Queue, c domain.ResultCache, maxContentBytes int64) SubmitService {
	return SubmitService{Jobs: j, Users: u, Queue: q, Cache: c, MaxContentBytes: maxContentBytes}
}

// SubmitResult is the synchronous answer to a submission. On a cache hit the
// report is attached and Status is already complete.
type SubmitResult struct {
	JobID    string
	Status   domain.JobStatus
	CacheHit bool
	Report   *domain.Report
}

// Submit validates the file, probes the result cache by content fingerprint,
// and either returns the cached report synchronously or enqueues the job.
// The cache-hit path writes the job row before returning so a status poll
// immediately after the response sees a consistent view.
func (s SubmitService) Submit(ctx domain.Context, fileName string, content []byte, ownerID int64) (SubmitResult, error) {
	if err := s.validate(fileName, content); err != nil {
		return SubmitResult{}, err
	}
	if err := s.Users.Ensure(ctx, ownerID); err != nil {
		return SubmitResult{}, fmt.Errorf("op=submit: %w", err)
	}

	fingerprint := hashing.CodeHash(content)

	if cached, ok := s.Cache.Get(ctx, fingerprint); ok {
		now := time.Now().UTC()
		job := domain.Job{
			OwnerID:     ownerID,
			CodeHash:    fingerprint,
			FileName:    fileName,
			FileContent: string(content),
			Status:      domain.JobComplete,
			Result:      cached,
			CacheHit:    true,
			CreatedAt:   now,
			CompletedAt: &now,
		}
		jobID, err := s.Jobs.Create(ctx, job)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("op=submit: %w", err)
		}
		slog.Info("submission served from cache",
			slog.String("job_id", jobID),
			slog.String("code_hash", fingerprint))
		return SubmitResult{JobID: jobID, Status: domain.JobComplete, CacheHit: true, Report: cached}, nil
	}

	job := domain.Job{
		OwnerID:     ownerID,
		CodeHash:    fingerprint,
		FileName:    fileName,
		FileContent: string(content),
		Status:      domain.JobQueued,
		CreatedAt:   time.Now().UTC(),
	}
	jobID, err := s.Jobs.Create(ctx, job)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("op=submit: %w", err)
	}

	payload, err := json.Marshal(domain.ReviewTaskPayload{
		JobID:       jobID,
		CodeHash:    fingerprint,
		FileName:    fileName,
		FileContent: string(content),
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("op=submit: %w", err)
	}
	if _, err := s.Queue.Enqueue(ctx, payload); err != nil {
		// Leave a trace on the row; the client gets the error and can retry.
		_ = s.Jobs.MarkRetrying(ctx, jobID, 0, "enqueue failed: "+err.Error())
		return SubmitResult{}, fmt.Errorf("op=submit: %w", err)
	}
	observability.EnqueueJob("review")

	return SubmitResult{JobID: jobID, Status: domain.JobQueued}, nil
}

func (s SubmitService) validate(fileName string, content []byte) error {
	if strings.TrimSpace(fileName) == "" {
		return fmt.Errorf("%w: file name required", domain.ErrInvalidInput)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return fmt.Errorf("%w: empty content", domain.ErrInvalidInput)
	}
	if s.MaxContentBytes > 0 && int64(len(content)) > s.MaxContentBytes {
		return fmt.Errorf("%w: content exceeds %d bytes", domain.ErrInvalidInput, s.MaxContentBytes)
	}
	if mt := mimetype.Detect(content); !isTextual(mt.String()) {
		return fmt.Errorf("%w: binary content not reviewable (%s)", domain.ErrInvalidInput, mt.String())
	}
	return nil
}

func isTextual(mime string) bool {
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	switch {
	case strings.Contains(mime, "javascript"),
		strings.Contains(mime, "json"),
		strings.Contains(mime, "xml"),
		strings.Contains(mime, "x-sh"):
		return true
	}
	return false
}

// Status reads the job record through the store.
func (s SubmitService) Status(ctx domain.Context, jobID string) (domain.Job, error) {
	if jobID == "" {
		return domain.Job{}, fmt.Errorf("%w: job id required", domain.ErrInvalidInput)
	}
	return s.Jobs.Get(ctx, jobID)
}

// History lists the owner's recent jobs, newest first. The limit is clamped
// to at most 50 entries.
func (s SubmitService) History(ctx domain.Context, ownerID int64, limit int) ([]domain.JobSummary, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.Jobs.History(ctx, ownerID, limit)
}
