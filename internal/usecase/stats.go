package usecase

import (
	"time"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// StatsService aggregates operational numbers for /health and /stats.
type StatsService struct {
	Jobs  domain.JobStore
	DLQ   domain.DLQStore
	Users domain.UserStore
	Queue domain.Queue
	Cache domain.ResultCache
}

// NewStatsService constructs a StatsService with its dependencies.
func NewStatsService(j domain.JobStore, d domain.DLQStore, u domain.UserStore, q domain.Queue, c domain.ResultCache) StatsService {
	return StatsService{Jobs: j, DLQ: d, Users: u, Queue: q, Cache: c}
}

// Health is the liveness summary returned by /health.
type Health struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	CacheHitRate float64   `json:"cache_hit_rate"`
}

// Overview is the /stats aggregate.
type Overview struct {
	CacheHits     int64                      `json:"cache_hits"`
	CacheMisses   int64                      `json:"cache_misses"`
	CacheHitRate  float64                    `json:"cache_hit_rate"`
	QueueDepth    int64                      `json:"queue_depth"`
	ActiveWorkers int64                      `json:"active_workers"`
	TotalUsers    int64                      `json:"total_users"`
	JobsByStatus  map[domain.JobStatus]int64 `json:"jobs_by_status"`
	DLQ           domain.DLQStats            `json:"dlq"`
}

// Health reports the service status with the current cache hit rate. It
// never fails: a degraded cache reads as a zero rate.
func (s StatsService) Health(ctx domain.Context) Health {
	_, _, rate := s.Cache.HitRate(ctx)
	return Health{Status: "ok", Timestamp: time.Now().UTC(), CacheHitRate: rate}
}

// Stats gathers cache counters, queue depth, job counts per status, user
// count, and dead-letter aggregates.
func (s StatsService) Stats(ctx domain.Context) (Overview, error) {
	hits, misses, rate := s.Cache.HitRate(ctx)

	depth, err := s.Queue.Depth(ctx)
	if err != nil {
		return Overview{}, err
	}

	byStatus := make(map[domain.JobStatus]int64, 5)
	for _, st := range []domain.JobStatus{domain.JobQueued, domain.JobProcessing, domain.JobRetrying, domain.JobComplete, domain.JobDLQ} {
		n, err := s.Jobs.CountByStatus(ctx, st)
		if err != nil {
			return Overview{}, err
		}
		byStatus[st] = n
	}

	users, err := s.Users.Count(ctx)
	if err != nil {
		return Overview{}, err
	}
	dlqStats, err := s.DLQ.Stats(ctx)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		CacheHits:     hits,
		CacheMisses:   misses,
		CacheHitRate:  rate,
		QueueDepth:    depth,
		ActiveWorkers: byStatus[domain.JobProcessing],
		TotalUsers:    users,
		JobsByStatus:  byStatus,
		DLQ:           dlqStats,
	}, nil
}
