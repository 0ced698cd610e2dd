package analyzer

import (
	"regexp"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// asyncMarkers gates the async/concurrency stage: files with no async
// constructs skip it entirely.
var asyncMarkers = regexp.MustCompile(`\basync\b|\bawait\b|\.then\s*\(|\bPromise\b|setTimeout|setInterval`)

// semanticRule is a higher-order rule: an anchor line plus whole-file
// predicates. FileAll must match somewhere in the file; FileNone must not.
type semanticRule struct {
	ID         string
	Severity   string
	Category   string
	Message    string
	Suggestion string
	Line       *regexp.Regexp
	LineAlso   *regexp.Regexp
	FileAll    *regexp.Regexp
	FileNone   *regexp.Regexp
	InLoopOnly bool
	Once       bool // report only the first matching line
}

func runSemanticRules(s *fileScan, rules []semanticRule) []domain.Issue {
	var out []domain.Issue
	for _, r := range rules {
		if r.FileAll != nil && !s.matchesAnywhere(r.FileAll) {
			continue
		}
		if r.FileNone != nil && s.matchesAnywhere(r.FileNone) {
			continue
		}
		for i, line := range s.lines {
			lineNo := i + 1
			if r.InLoopOnly && !s.inLoop(lineNo) {
				continue
			}
			if !r.Line.MatchString(line) {
				continue
			}
			if r.LineAlso != nil && !r.LineAlso.MatchString(line) {
				continue
			}
			out = append(out, domain.Issue{
				Line:       lineNo,
				Message:    r.Message,
				Severity:   r.Severity,
				RuleID:     r.ID,
				Suggestion: r.Suggestion,
				Category:   r.Category,
			})
			if r.Once {
				break
			}
		}
	}
	return out
}

var asyncRules = []semanticRule{
	{
		ID:         "unhandled-promise",
		Severity:   domain.SeverityHigh,
		Category:   domain.CategoryReliability,
		Message:    "Promise chain without rejection handling",
		Suggestion: "Attach a .catch or wrap the await in try/catch",
		Line:       regexp.MustCompile(`\.then\s*\(`),
		FileNone:   regexp.MustCompile(`\.catch\s*\(|try\s*\{`),
	},
	{
		ID:         "sequential-await",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryPerformance,
		Message:    "Independent awaits executed sequentially inside a loop",
		Suggestion: "Collect the promises and await them together",
		Line:       regexp.MustCompile(`\bawait\b`),
		InLoopOnly: true,
		Once:       true,
	},
	{
		ID:         "unbounded-parallelism",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryConcurrency,
		Message:    "Promise.all over an unbounded collection",
		Suggestion: "Chunk the work or bound concurrency with a pool",
		Line:       regexp.MustCompile(`Promise\.all\s*\(\s*\w+\.map\s*\(`),
	},
	{
		ID:         "async-interval-overlap",
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryConcurrency,
		Message:    "Async callback on a fixed interval can overlap itself",
		Suggestion: "Reschedule after completion instead of using setInterval",
		Line:       regexp.MustCompile(`setInterval\s*\(\s*async\b`),
	},
}

// detectAsync runs the async/concurrency stage when the file shows async
// markers. Issues carry categories; the caller routes them to buckets.
func detectAsync(s *fileScan) []domain.Issue {
	if !s.matchesAnywhere(asyncMarkers) {
		return nil
	}
	return runSemanticRules(s, asyncRules)
}
