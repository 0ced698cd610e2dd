package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

func issueIDs(issues []domain.Issue) []string {
	ids := make([]string, 0, len(issues))
	for _, is := range issues {
		ids = append(ids, is.RuleID)
	}
	return ids
}

func Test_DetectAsync_SkipsSynchronousFiles(t *testing.T) {
	s := scanFile(`const x = compute();
return x + 1;`)
	require.Empty(t, detectAsync(s))
}

func Test_DetectAsync_UnhandledPromise(t *testing.T) {
	bare := scanFile(`fetchUser(id).then(render);`)
	require.Contains(t, issueIDs(detectAsync(bare)), "unhandled-promise")

	handled := scanFile(`fetchUser(id).then(render).catch(showError);`)
	require.NotContains(t, issueIDs(detectAsync(handled)), "unhandled-promise")
}

func Test_DetectAsync_SequentialAwaitFiresOnce(t *testing.T) {
	s := scanFile(`async function load(ids) {
  for (const id of ids) {
    const a = await fetchA(id);
    const b = await fetchB(id);
  }
}`)
	issues := detectAsync(s)

	var hits []domain.Issue
	for _, is := range issues {
		if is.RuleID == "sequential-await" {
			hits = append(hits, is)
		}
	}
	require.Len(t, hits, 1)
	require.Equal(t, 3, hits[0].Line)
	require.Equal(t, domain.CategoryPerformance, hits[0].Category)
}

func Test_DetectAsync_UnboundedParallelism(t *testing.T) {
	s := scanFile(`await Promise.all(users.map(u => syncUser(u)));`)
	issues := detectAsync(s)
	require.Contains(t, issueIDs(issues), "unbounded-parallelism")
}

func Test_DetectAsync_IntervalOverlap(t *testing.T) {
	s := scanFile(`setInterval(async () => { await poll(); }, 1000);`)
	require.Contains(t, issueIDs(detectAsync(s)), "async-interval-overlap")

	syncOnly := scanFile(`setInterval(() => tick(), 1000);`)
	require.NotContains(t, issueIDs(detectAsync(syncOnly)), "async-interval-overlap")
}

func Test_DetectSemantic_RetryWithoutBackoff(t *testing.T) {
	hot := scanFile(`while (attempts < maxRetries) {
  retry();
}`)
	require.Contains(t, issueIDs(detectSemantic(hot)), "retry-without-backoff")

	backedOff := scanFile(`while (attempts < maxRetries) {
  retry();
  await sleep(delay * 2);
}`)
	require.NotContains(t, issueIDs(detectSemantic(backedOff)), "retry-without-backoff")
}

func Test_DetectSemantic_UnboundedQueue(t *testing.T) {
	growOnly := scanFile(`function enqueue(job) {
  pendingJobs.push(job);
}`)
	require.Contains(t, issueIDs(detectSemantic(growOnly)), "unbounded-queue")

	drained := scanFile(`function enqueue(job) {
  pendingJobs.push(job);
}
function drain() {
  return pendingJobs.shift();
}`)
	require.NotContains(t, issueIDs(detectSemantic(drained)), "unbounded-queue")
}

func Test_DetectSemantic_NoGracefulShutdown(t *testing.T) {
	abrupt := scanFile(`app.listen(3000);`)
	require.Contains(t, issueIDs(detectSemantic(abrupt)), "no-graceful-shutdown")

	graceful := scanFile(`const srv = app.listen(3000);
process.on("SIGTERM", () => srv.close());`)
	require.NotContains(t, issueIDs(detectSemantic(graceful)), "no-graceful-shutdown")
}

func Test_DetectSemantic_CacheWithoutEviction(t *testing.T) {
	leak := scanFile(`const cache = new Map();
function remember(k, v) {
  cache.set(k, v);
}`)
	require.Contains(t, issueIDs(detectSemantic(leak)), "cache-without-eviction")

	bounded := scanFile(`const cache = new Map();
function remember(k, v) {
  if (cache.size > maxSize) evictOldest();
  cache.set(k, v);
}`)
	require.NotContains(t, issueIDs(detectSemantic(bounded)), "cache-without-eviction")
}

func Test_DetectSemantic_CategoriesRouteToBuckets(t *testing.T) {
	s := scanFile(`function enqueue(job) {
  pendingJobs.push(job);
}`)
	fs := route(detectSemantic(s))
	for _, f := range fs {
		if f.Issue.RuleID == "unbounded-queue" {
			require.Equal(t, bucketPerformance, f.Bucket, "memory-leak issues land in the performance bucket")
			return
		}
	}
	t.Fatal("unbounded-queue not reported")
}
