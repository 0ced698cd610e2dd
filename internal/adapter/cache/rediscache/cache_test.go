package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := New(rdb, "test", time.Hour)
	cleanup := func() {
		_ = rdb.Close()
		mr.Close()
	}
	return c, mr, cleanup
}

func sampleReport() *domain.Report {
	return &domain.Report{
		FileName: "app.js",
		Security: []domain.Issue{{
			Line:     3,
			Message:  "Use of eval() with user input",
			Severity: domain.SeverityCritical,
			RuleID:   "no-eval",
			Category: domain.CategorySecurity,
		}},
		QualityScore: 85,
		QualityGrade: "B",
		Metrics:      domain.ReportMetrics{LinesAnalyzed: 10, IssuesFound: 1},
	}
}

func TestCache_PutThenGet(t *testing.T) {
	c, _, cleanup := newTestCache(t)
	defer cleanup()
	ctx := context.Background()

	hash := "aaaa0000"
	c.Put(ctx, hash, sampleReport())

	got, ok := c.Get(ctx, hash)
	require.True(t, ok)
	require.Equal(t, "app.js", got.FileName)
	require.Len(t, got.Security, 1)
	require.Equal(t, "no-eval", got.Security[0].RuleID)
	require.Equal(t, float64(85), got.QualityScore)
}

func TestCache_MissOnUnknownHash(t *testing.T) {
	c, _, cleanup := newTestCache(t)
	defer cleanup()

	got, ok := c.Get(context.Background(), "deadbeef")
	require.False(t, ok)
	require.Nil(t, got)
}

func TestCache_CorruptEntryReadsAsMissAndEvicts(t *testing.T) {
	c, mr, cleanup := newTestCache(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, mr.Set("test:result:bad", "{not json"))
	got, ok := c.Get(ctx, "bad")
	require.False(t, ok)
	require.Nil(t, got)
	require.False(t, mr.Exists("test:result:bad"))
}

func TestCache_TTLExpiry(t *testing.T) {
	c, mr, cleanup := newTestCache(t)
	defer cleanup()
	ctx := context.Background()

	c.Put(ctx, "expiring", sampleReport())
	mr.FastForward(2 * time.Hour)

	_, ok := c.Get(ctx, "expiring")
	require.False(t, ok)
}

func TestCache_FailOpenWhenRedisDown(t *testing.T) {
	c, mr, cleanup := newTestCache(t)
	defer cleanup()
	mr.Close()

	got, ok := c.Get(context.Background(), "anything")
	require.False(t, ok)
	require.Nil(t, got)

	// Put must not panic either.
	c.Put(context.Background(), "anything", sampleReport())
}

func TestCache_HitRateCounters(t *testing.T) {
	c, _, cleanup := newTestCache(t)
	defer cleanup()
	ctx := context.Background()

	c.Put(ctx, "h1", sampleReport())
	_, _ = c.Get(ctx, "h1")   // hit
	_, _ = c.Get(ctx, "h1")   // hit
	_, _ = c.Get(ctx, "miss") // miss

	hits, misses, rate := c.HitRate(ctx)
	require.Equal(t, int64(2), hits)
	require.Equal(t, int64(1), misses)
	require.InDelta(t, 2.0/3.0, rate, 1e-9)
}
