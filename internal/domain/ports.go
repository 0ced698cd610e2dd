package domain

import "time"

// Ports implemented by adapters.

//go:generate mockery --name=JobStore --output=mocks --outpkg=mocks --filename=job_store_mock.go
//go:generate mockery --name=DLQStore --output=mocks --outpkg=mocks --filename=dlq_store_mock.go
//go:generate mockery --name=Queue --output=mocks --outpkg=mocks --filename=queue_mock.go
//go:generate mockery --name=ResultCache --output=mocks --outpkg=mocks --filename=result_cache_mock.go
//go:generate mockery --name=AIClient --output=mocks --outpkg=mocks --filename=aiclient_mock.go
//go:generate mockery --name=LintEngine --output=mocks --outpkg=mocks --filename=lint_engine_mock.go
//go:generate mockery --name=UserStore --output=mocks --outpkg=mocks --filename=user_store_mock.go

// JobStore is the durable source of truth for job state. Every mutation is
// atomic at row granularity; the conditional updates guard the monotonic
// status transitions described on JobStatus.
type JobStore interface {
	Create(ctx Context, j Job) (string, error)
	// MarkProcessing records the attempt count and moves the job to
	// processing. It refuses to demote a terminal job.
	MarkProcessing(ctx Context, id string, attempts int) error
	// Complete stores the result and moves the job to complete. It reports
	// false when the job was already complete, so a redelivery is a no-op.
	Complete(ctx Context, id string, report *Report, durationMS int64, attempts int) (bool, error)
	MarkRetrying(ctx Context, id string, attempts int, lastError string) error
	MarkDLQ(ctx Context, id string, messageID string, lastError string) error
	// ReopenFromDLQ moves a dead-lettered job back to retrying for a manual
	// retry. Jobs in any other state are left untouched.
	ReopenFromDLQ(ctx Context, id string) error
	Get(ctx Context, id string) (Job, error)
	History(ctx Context, ownerID int64, limit int) ([]JobSummary, error)
	FindByCodeHash(ctx Context, codeHash string) ([]JobSummary, error)
	CountByStatus(ctx Context, status JobStatus) (int64, error)
	// CountByStatusSince estimates queue depth from recent rows.
	CountByStatusSince(ctx Context, status JobStatus, since time.Time) (int64, error)
}

// DLQStore persists dead-letter entries for inspection and manual retry.
type DLQStore interface {
	// Insert records an entry; inserting an already-recorded message id is a
	// no-op and reports false.
	Insert(ctx Context, e DLQEntry) (string, bool, error)
	Get(ctx Context, id string) (DLQEntry, error)
	List(ctx Context, resolved *bool, limit, offset int) ([]DLQEntry, error)
	Stats(ctx Context) (DLQStats, error)
	Resolve(ctx Context, id string, reason string) error
	IncrementRetry(ctx Context, id string) error
}

// UserStore tracks submission owners.
type UserStore interface {
	Ensure(ctx Context, ownerID int64) error
	Count(ctx Context) (int64, error)
}

// Queue is an at-least-once transport with visibility-lease redelivery and a
// companion dead-letter destination.
type Queue interface {
	Enqueue(ctx Context, body []byte) (string, error)
	// Receive long-polls up to maxWait and returns nil when no message is
	// available. The returned message is invisible to other consumers for
	// the configured visibility lease.
	Receive(ctx Context, maxWait time.Duration) (*QueueMessage, error)
	// Delete removes a received message using its receipt. A stale receipt
	// (lease already expired and message reclaimed) deletes nothing.
	Delete(ctx Context, msgID, receipt string) error
	ReceiveDLQ(ctx Context, maxWait time.Duration) (*QueueMessage, error)
	DeleteDLQ(ctx Context, msgID, receipt string) error
	// ResendToMain re-enqueues a verbatim body on the main queue; used by the
	// DLQ handler's manual retry.
	ResendToMain(ctx Context, body []byte) (string, error)
	Depth(ctx Context) (int64, error)
}

// ResultCache maps fingerprints to reports with TTL eviction. Get never
// fails the caller: a degraded backend reads as a miss. Put is best-effort.
type ResultCache interface {
	Get(ctx Context, fingerprint string) (*Report, bool)
	Put(ctx Context, fingerprint string, report *Report)
	HitRate(ctx Context) (hits, misses int64, rate float64)
}

// AIClient is the single remote AI capability used by the AI detector.
type AIClient interface {
	// ReviewJSON returns the provider's raw JSON payload for the given
	// prompts. Implementations bound the call with the configured timeout.
	ReviewJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// LintEngine is the pluggable external linter used as a detector for
// JavaScript and TypeScript sources.
type LintEngine interface {
	Lint(ctx Context, fileName, content string) ([]LintFinding, error)
}
