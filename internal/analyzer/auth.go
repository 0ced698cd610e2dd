package analyzer

import (
	"regexp"
	"strings"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// The auth stage looks for liveness and state-machine hazards common to
// token-refresh code: waiter queues that leak requests on the error path,
// refresh flags that never reset, and herd-flushing without stagger.

var (
	authMarkers   = regexp.MustCompile(`(?i)auth|token|login|session|refresh`)
	waiterPushRe  = regexp.MustCompile(`(\w*(?i:queue|pending|waiters?)\w*)\.push\s*\(`)
	catchHeadRe   = regexp.MustCompile(`\bcatch\b|\.catch\s*\(`)
	refreshFlagRe = regexp.MustCompile(`(?i)\b(is)?(refreshing|fetching|renewing)\w*\s*=\s*(true|false)\b`)
	finallyRe     = regexp.MustCompile(`\bfinally\b`)
	herdFlushRe   = regexp.MustCompile(`(\w*(?i:queue|pending|waiters?)\w*)\.(forEach|map)\s*\(`)
	staggerRe     = regexp.MustCompile(`(?i)jitter|stagger|setTimeout|delay`)
)

// detectAuth runs only when the file carries auth-related keywords.
func detectAuth(s *fileScan) []domain.Issue {
	if !s.matchesAnywhere(authMarkers) {
		return nil
	}
	var out []domain.Issue
	out = append(out, detectLostWaiters(s)...)
	out = append(out, detectRefreshFlagHazard(s)...)
	out = append(out, detectThunderingHerd(s)...)
	return out
}

// detectLostWaiters requires that a waiter queue drained on the success path
// is also drained on the error path. Error paths are catch blocks, located
// by brace tracking from each catch head.
func detectLostWaiters(s *fileScan) []domain.Issue {
	firstPush := 0
	var queueNames []string
	seen := map[string]bool{}
	for i, line := range s.lines {
		for _, m := range waiterPushRe.FindAllStringSubmatch(line, -1) {
			if firstPush == 0 {
				firstPush = i + 1
			}
			if !seen[m[1]] {
				seen[m[1]] = true
				queueNames = append(queueNames, m[1])
			}
		}
	}
	if firstPush == 0 {
		return nil
	}

	drainRe := regexp.MustCompile(`(` + strings.Join(quoteAll(queueNames), "|") +
		`)\s*(\.\s*(shift|splice|forEach|pop)\s*\(|=\s*\[\]|\.length\s*=\s*0)`)
	catchSpans := blockSpans(s, catchHeadRe)
	if len(catchSpans) == 0 {
		// No error path at all; the queue cannot be drained on failure.
		return []domain.Issue{lostRequestsIssue(firstPush)}
	}

	drainedInCatch := false
	drainedAnywhere := false
	for i, line := range s.lines {
		if !drainRe.MatchString(line) {
			continue
		}
		drainedAnywhere = true
		for _, span := range catchSpans {
			if i+1 >= span[0] && i+1 <= span[1] {
				drainedInCatch = true
			}
		}
	}
	if drainedAnywhere && !drainedInCatch {
		return []domain.Issue{lostRequestsIssue(firstPush)}
	}
	return nil
}

func lostRequestsIssue(line int) domain.Issue {
	return domain.Issue{
		Line:       line,
		Message:    "Waiter queue is drained on success but not on the error path; queued requests hang forever on failure",
		Severity:   domain.SeverityHigh,
		RuleID:     "lost-requests-on-error",
		Suggestion: "Reject and clear the waiter queue in the error path as well",
		Category:   domain.CategoryReliability,
	}
}

// detectRefreshFlagHazard requires a symmetric set-true/set-false count for
// refresh-style flags plus a scoped reset (finally) so the flag cannot stick.
func detectRefreshFlagHazard(s *fileScan) []domain.Issue {
	var trueCount, falseCount, firstSet int
	for i, line := range s.lines {
		for _, m := range refreshFlagRe.FindAllString(line, -1) {
			if firstSet == 0 {
				firstSet = i + 1
			}
			if strings.HasSuffix(strings.TrimSpace(m), "true") {
				trueCount++
			} else {
				falseCount++
			}
		}
	}
	if trueCount == 0 {
		return nil
	}
	if trueCount > falseCount || !s.matchesAnywhere(finallyRe) {
		return []domain.Issue{{
			Line:       firstSet,
			Message:    "Refresh flag can remain set after a failure, blocking future refreshes",
			Severity:   domain.SeverityHigh,
			RuleID:     "refresh-flag-asymmetry",
			Suggestion: "Reset the flag in a finally block so every path clears it",
			Category:   domain.CategoryReliability,
		}}
	}
	return nil
}

// detectThunderingHerd flags a waiter queue flushed with unbounded
// parallelism and no staggering construct anywhere in the file.
func detectThunderingHerd(s *fileScan) []domain.Issue {
	if s.matchesAnywhere(staggerRe) {
		return nil
	}
	for i, line := range s.lines {
		if herdFlushRe.MatchString(line) {
			return []domain.Issue{{
				Line:       i + 1,
				Message:    "Waiter queue flushed all at once; released requests stampede the upstream",
				Severity:   domain.SeverityMedium,
				RuleID:     "thundering-herd",
				Suggestion: "Stagger the release with jitter or a bounded dispatch rate",
				Category:   domain.CategoryReliability,
			}}
		}
	}
	return nil
}

// blockSpans finds the line extent of each block introduced by a head
// pattern, using the same net-brace heuristic as the loop scanner.
func blockSpans(s *fileScan, head *regexp.Regexp) [][2]int {
	var spans [][2]int
	for i := 0; i < len(s.lines); i++ {
		if !head.MatchString(s.lines[i]) {
			continue
		}
		balance := 0
		sawOpen := false
		end := i + 1
		for j := i; j < len(s.lines); j++ {
			balance += strings.Count(s.lines[j], "{") - strings.Count(s.lines[j], "}")
			if balance > 0 {
				sawOpen = true
			}
			if sawOpen && balance <= 0 {
				end = j + 1
				break
			}
			end = j + 1
		}
		spans = append(spans, [2]int{i + 1, end})
	}
	return spans
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = regexp.QuoteMeta(n)
	}
	return out
}
