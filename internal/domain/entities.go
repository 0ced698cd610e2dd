// Package domain holds the core entities and ports of the code review
// pipeline. Adapters (Postgres, Redis, HTTP, AI provider, linter) depend on
// this package, never the other way around.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrRateLimited    = errors.New("rate limited")
	ErrQueueTransient = errors.New("queue transient failure")
	ErrStoreTransient = errors.New("store transient failure")
	ErrInternal       = errors.New("internal error")
)

// JobStatus enumerates the lifecycle states of a review job. Transitions are
// strictly monotonic per job: queued -> processing -> (complete | retrying),
// retrying -> processing, and (processing | retrying) -> dlq. A completed or
// dead-lettered job never leaves its terminal state.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobRetrying   JobStatus = "retrying"
	JobComplete   JobStatus = "complete"
	JobDLQ        JobStatus = "dlq"
)

// Job is the durable record of one review submission.
// Invariants: Status=complete <=> Result != nil && CompletedAt != nil;
// Status=dlq <=> DLQMessageID != "".
type Job struct {
	ID               string
	OwnerID          int64
	CodeHash         string
	FileName         string
	FileContent      string
	Status           JobStatus
	Result           *Report
	CacheHit         bool
	Attempts         int
	LastError        string
	DLQMessageID     string
	DLQMovedAt       *time.Time
	CreatedAt        time.Time
	CompletedAt      *time.Time
	ProcessingTimeMS int64
}

// JobSummary is a condensed view of a job for history listings.
type JobSummary struct {
	ID               string    `json:"id"`
	FileName         string    `json:"file_name"`
	Status           JobStatus `json:"status"`
	CacheHit         bool      `json:"cache_hit"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
	IssuesFound      int       `json:"issues_found"`
}

// ReviewTaskPayload is the queue message body carried from the submission
// service to the worker.
type ReviewTaskPayload struct {
	JobID       string `json:"job_id"`
	CodeHash    string `json:"code_hash"`
	FileName    string `json:"file_name"`
	FileContent string `json:"file_content"`
}

// QueueMessage is one delivery of a payload from the transport. Receipt is a
// transient ownership token scoped to the current visibility lease; deleting
// with a stale receipt is a no-op. ReceiveCount is monotonic per message.
type QueueMessage struct {
	ID           string
	Receipt      string
	Body         []byte
	ReceiveCount int
}

// DLQEntry is the durable record of a message that exhausted its retry
// budget. MessageID is unique: recording the same dead-lettered message twice
// is idempotent.
type DLQEntry struct {
	ID               string
	JobID            string
	MessageID        string
	Body             []byte
	ReceiveCount     int
	LastError        string
	MovedAt          time.Time
	RetryCount       int
	Resolved         bool
	ResolvedAt       *time.Time
	ResolutionReason string
}

// DLQStats aggregates the dead-letter table for the operational surface.
type DLQStats struct {
	Total          int64      `json:"total"`
	Unresolved     int64      `json:"unresolved"`
	UniqueJobs     int64      `json:"unique_jobs"`
	LatestMovedAt  *time.Time `json:"latest_moved_at"`
	AverageRetries float64    `json:"average_retries"`
}

// Context is an alias so the domain stays decoupled from call-site plumbing;
// adapters and usecases pass context.Context straight through.
type Context = context.Context
