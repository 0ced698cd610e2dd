package analyzer

import (
	"regexp"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

var semanticRules = []semanticRule{
	{
		ID:         "unprotected-event-handler",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryReliability,
		Message:    "Event handler body has no error protection",
		Suggestion: "Wrap the handler body in try/catch so one event cannot crash the process",
		Line:       regexp.MustCompile(`\.on\s*\(\s*['"]|addEventListener\s*\(`),
		FileNone:   regexp.MustCompile(`try\s*\{`),
	},
	{
		ID:         "async-reentrancy",
		Severity:   domain.SeverityHigh,
		Category:   domain.CategoryConcurrency,
		Message:    "Queue-draining loop awaits while the queue stays shared",
		Suggestion: "Guard the drain with a processing flag or snapshot the queue first",
		Line:       regexp.MustCompile(`while\s*\(.*(queue|pending|backlog)\w*\.length`),
		FileAll:    regexp.MustCompile(`\bawait\b`),
	},
	{
		ID:         "retry-without-backoff",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryReliability,
		Message:    "Retry loop with no delay or backoff",
		Suggestion: "Add exponential backoff with jitter between attempts",
		Line:       regexp.MustCompile(`(?i)\bretr(y|ies)\b`),
		InLoopOnly: true,
		FileNone:   regexp.MustCompile(`(?i)setTimeout|sleep|delay|backoff`),
		Once:       true,
	},
	{
		ID:         "unbounded-queue",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryMemoryLeak,
		Message:    "Queue grows without a drain or size bound",
		Suggestion: "Cap the queue length or drop oldest entries on overflow",
		Line:       regexp.MustCompile(`(?i)(queue|pending|backlog|buffer)\w*\.push\s*\(`),
		FileNone:   regexp.MustCompile(`\.shift\s*\(|\.splice\s*\(|\.pop\s*\(|length\s*[><]`),
		Once:       true,
	},
	{
		ID:         "no-graceful-shutdown",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryReliability,
		Message:    "Server started without shutdown signal handling",
		Suggestion: "Handle SIGTERM/SIGINT and close the server before exit",
		Line:       regexp.MustCompile(`\.listen\s*\(|createServer\s*\(`),
		FileNone:   regexp.MustCompile(`SIGTERM|SIGINT|\.close\s*\(`),
		Once:       true,
	},
	{
		ID:         "shared-mutable-state",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryConcurrency,
		Message:    "Module-level mutable state touched from async code",
		Suggestion: "Scope the state per request or guard it explicitly",
		Line:       regexp.MustCompile(`^(let|var)\s+\w+\s*=\s*(\[\]|\{\}|0|new Map|new Set)`),
		FileAll:    regexp.MustCompile(`\basync\b|\bawait\b`),
		Once:       true,
	},
	{
		ID:         "callback-nesting",
		Severity:   domain.SeverityLow,
		Category:   domain.CategoryMaintainability,
		Message:    "Deeply nested callbacks",
		Suggestion: "Flatten the flow with promises or async/await",
		Line:       regexp.MustCompile(`(=>.*){3,}|(function\s*\(.*){3,}`),
	},
	{
		ID:         "random-in-retry",
		Severity:   domain.SeverityLow,
		Category:   domain.CategoryTestability,
		Message:    "Non-deterministic RNG drives retry timing",
		Suggestion: "Inject the randomness source so tests can pin it",
		Line:       regexp.MustCompile(`Math\.random\s*\(`),
		LineAlso:   regexp.MustCompile(`(?i)retry|attempt`),
	},
	{
		ID:         "fixed-window-limiter",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryReliability,
		Message:    "Fixed-window rate limiter admits bursts at window edges",
		Suggestion: "Use a sliding window or token bucket",
		Line:       regexp.MustCompile(`(?i)(requests?Count|windowStart|rateLimit)\w*\s*=`),
		FileAll:    regexp.MustCompile(`(?i)limit`),
		Once:       true,
	},
	{
		ID:         "wall-clock-interval",
		Severity:   domain.SeverityLow,
		Category:   domain.CategoryReliability,
		Message:    "Interval math on the wall clock breaks under clock adjustment",
		Suggestion: "Use a monotonic time source for durations",
		Line:       regexp.MustCompile(`Date\.now\s*\(\)\s*-|-\s*Date\.now\s*\(\)`),
		Once:       true,
	},
	{
		ID:         "cache-without-eviction",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryMemoryLeak,
		Message:    "Cache map populated without any eviction policy",
		Suggestion: "Bound the cache with TTL or LRU eviction",
		Line:       regexp.MustCompile(`(?i)cache\w*\.set\s*\(|(?i)cache\w*\[\w+\]\s*=`),
		FileNone:   regexp.MustCompile(`(?i)delete|evict|ttl|maxSize|lru|clear\s*\(`),
		Once:       true,
	},
	{
		ID:         "non-atomic-counter",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryConcurrency,
		Message:    "Shared counter mutated non-atomically in concurrent code",
		Suggestion: "Serialize the update or use an atomic construct",
		Line:       regexp.MustCompile(`(?i)(count|counter|total)\w*\s*(\+\+|\+=)`),
		FileAll:    regexp.MustCompile(`\basync\b|\bawait\b|setInterval`),
		Once:       true,
	},
	{
		ID:         "global-request-state",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryDesign,
		Message:    "Global mutable state referenced from request handlers",
		Suggestion: "Carry per-request state on the request context",
		Line:       regexp.MustCompile(`^(let|var)\s+\w+`),
		FileAll:    regexp.MustCompile(`app\.(get|post|put|delete)\s*\(|router\.\w+\s*\(`),
		Once:       true,
	},
	{
		ID:         "missing-backpressure",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryReliability,
		Message:    "Stream consumed without backpressure handling",
		Suggestion: "Honor pause/resume or pipe with highWaterMark configured",
		Line:       regexp.MustCompile(`\.on\s*\(\s*['"]data['"]`),
		FileNone:   regexp.MustCompile(`pause\s*\(|highWaterMark|\.pipe\s*\(|drain`),
		Once:       true,
	},
}

// detectSemantic runs the higher-order pattern stage.
func detectSemantic(s *fileScan) []domain.Issue {
	return runSemanticRules(s, semanticRules)
}
