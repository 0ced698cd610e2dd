package analyzer

import (
	"regexp"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// Report buckets.
const (
	bucketSecurity    = "security"
	bucketPerformance = "performance"
	bucketStyle       = "style"
)

// finding pairs an issue with the report bucket it lands in.
type finding struct {
	Issue  domain.Issue
	Bucket string
}

// patternRule is one pre-compiled line-oriented rule. Match must hit the
// line; Also, when set, must hit the same line too; Unless suppresses the
// rule when it hits the line. InLoopOnly rules fire only inside a loop.
type patternRule struct {
	ID         string
	Severity   string
	Bucket     string
	Message    string
	Suggestion string
	Match      *regexp.Regexp
	Also       *regexp.Regexp
	Unless     *regexp.Regexp
	InLoopOnly bool
}

// genericRules run for every language. Order is part of the report contract.
var genericRules = []patternRule{
	{
		ID:         "no-eval",
		Severity:   domain.SeverityCritical,
		Bucket:     bucketSecurity,
		Message:    "Use of eval() with dynamic input allows arbitrary code execution",
		Suggestion: "Parse the input explicitly instead of evaluating it as code",
		Match:      regexp.MustCompile(`\beval\s*\(`),
	},
	{
		ID:         "command-injection",
		Severity:   domain.SeverityCritical,
		Bucket:     bucketSecurity,
		Message:    "Shell command built from dynamic input",
		Suggestion: "Pass arguments as a list and avoid shell interpolation",
		Match:      regexp.MustCompile(`\b(exec|execSync|spawn|system|popen)\s*\(`),
		Also:       regexp.MustCompile(`\+|\$\{|%s|\bformat\(`),
	},
	{
		ID:         "sql-injection",
		Severity:   domain.SeverityCritical,
		Bucket:     bucketSecurity,
		Message:    "SQL statement built by string concatenation or interpolation",
		Suggestion: "Use parameterized queries or prepared statements",
		Match:      regexp.MustCompile(`(?i)\b(select|insert|update|delete)\b`),
		Also:       regexp.MustCompile(`['"` + "`" + `]\s*\+|\+\s*['"` + "`" + `]|\$\{|%s|\.format\(`),
	},
	{
		ID:         "dom-injection",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "HTML sink written with dynamic content",
		Suggestion: "Use textContent or sanitize the value before writing markup",
		Match:      regexp.MustCompile(`(innerHTML|outerHTML|document\.write)\s*[=(]`),
		Also:       regexp.MustCompile(`\+|\$\{`),
	},
	{
		ID:         "hardcoded-credentials",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "Credential literal embedded in source",
		Suggestion: "Load secrets from the environment or a secret manager",
		Match:      regexp.MustCompile(`(?i)(password|passwd|secret|api[_-]?key|auth[_-]?token)\s*[:=]\s*['"][^'"]{8,}['"]`),
	},
	{
		ID:         "weak-hash",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "Weak digest algorithm used in a password context",
		Suggestion: "Use a slow adaptive hash such as bcrypt, scrypt, or argon2",
		Match:      regexp.MustCompile(`(?i)(createHash\s*\(\s*['"](md5|sha1)['"]|hashlib\.(md5|sha1)\b|MessageDigest\.getInstance\s*\(\s*"(MD5|SHA-?1)")`),
	},
	{
		ID:         "open-redirect",
		Severity:   domain.SeverityMedium,
		Bucket:     bucketSecurity,
		Message:    "Redirect target taken from request input",
		Suggestion: "Validate the target against an allow-list before redirecting",
		Match:      regexp.MustCompile(`(redirect|location\.href|sendRedirect)\s*[(=]`),
		Also:       regexp.MustCompile(`req\.|request\.|params|query`),
	},
	{
		ID:         "insecure-random",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "Non-cryptographic RNG used for a security-sensitive identifier",
		Suggestion: "Use a cryptographically secure random source",
		Match:      regexp.MustCompile(`Math\.random\s*\(\)|random\.random\s*\(\)`),
		Also:       regexp.MustCompile(`(?i)token|secret|session|password|nonce|apikey|reset`),
	},
	{
		ID:         "path-traversal",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "File path built from request input",
		Suggestion: "Resolve the path and verify it stays inside the allowed root",
		Match:      regexp.MustCompile(`(readFile|writeFile|createReadStream|createWriteStream|sendFile|open)\s*\(`),
		Also:       regexp.MustCompile(`req\.|request\.|params|query|\.\.\/`),
	},
	{
		ID:         "prototype-pollution",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "Assignment through a polluted prototype path",
		Suggestion: "Reject __proto__ and constructor keys when merging objects",
		Match:      regexp.MustCompile(`__proto__|\bconstructor\s*\[|Object\.assign\s*\(\s*[^,]+,\s*(req\.|JSON\.parse)`),
	},
	{
		ID:         "missing-input-validation",
		Severity:   domain.SeverityMedium,
		Bucket:     bucketSecurity,
		Message:    "Request field consumed without validation",
		Suggestion: "Validate and sanitize request fields before use",
		Match:      regexp.MustCompile(`(req\.body|req\.params|req\.query)\.\w+`),
		Unless:     regexp.MustCompile(`(?i)validat|sanitiz|schema|escape`),
	},
	{
		ID:         "n-plus-one-query",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketPerformance,
		Message:    "Database call issued inside a loop",
		Suggestion: "Batch the lookups into one query outside the loop",
		Match:      regexp.MustCompile(`\b(query|findOne|findById|execute|fetch)\s*\(|\bSELECT\b`),
		InLoopOnly: true,
	},
	{
		ID:         "sync-io",
		Severity:   domain.SeverityMedium,
		Bucket:     bucketPerformance,
		Message:    "Synchronous blocking I/O on a shared execution path",
		Suggestion: "Use the asynchronous variant to avoid stalling the event loop",
		Match:      regexp.MustCompile(`\b(readFileSync|writeFileSync|existsSync|execSync|readdirSync)\s*\(`),
	},
	{
		ID:         "string-concat-in-loop",
		Severity:   domain.SeverityLow,
		Bucket:     bucketPerformance,
		Message:    "String accumulated by concatenation inside a loop",
		Suggestion: "Collect parts in a list and join once after the loop",
		Match:      regexp.MustCompile(`\w+\s*\+=\s*['"` + "`" + `]|\w+\s*=\s*\w+\s*\+\s*['"` + "`" + `]`),
		InLoopOnly: true,
	},
	{
		ID:         "regex-in-loop",
		Severity:   domain.SeverityMedium,
		Bucket:     bucketPerformance,
		Message:    "Regular expression compiled inside a loop",
		Suggestion: "Compile the pattern once before the loop",
		Match:      regexp.MustCompile(`new\s+RegExp\s*\(|re\.compile\s*\(`),
		InLoopOnly: true,
	},
	{
		ID:         "empty-catch",
		Severity:   domain.SeverityMedium,
		Bucket:     bucketStyle,
		Message:    "Exception swallowed by an empty handler",
		Suggestion: "Handle the error or log it with context",
		Match:      regexp.MustCompile(`catch\s*(\([^)]*\))?\s*\{\s*\}`),
	},
	{
		ID:         "loose-equality",
		Severity:   domain.SeverityLow,
		Bucket:     bucketStyle,
		Message:    "Loose equality comparison",
		Suggestion: "Use === / !== to avoid implicit type coercion",
		Match:      regexp.MustCompile(`[^=!<>]==[^=]|[^=!]!=[^=]`),
		Unless:     regexp.MustCompile(`===|!==`),
	},
}

// runPatternRules applies a rule set over the shared scan, one pass per line.
func runPatternRules(s *fileScan, rules []patternRule) []finding {
	var out []finding
	for i, line := range s.lines {
		lineNo := i + 1
		for _, r := range rules {
			if r.InLoopOnly && !s.inLoop(lineNo) {
				continue
			}
			if !r.Match.MatchString(line) {
				continue
			}
			if r.Also != nil && !r.Also.MatchString(line) {
				continue
			}
			if r.Unless != nil && r.Unless.MatchString(line) {
				continue
			}
			out = append(out, finding{
				Bucket: r.Bucket,
				Issue: domain.Issue{
					Line:       lineNo,
					Message:    r.Message,
					Severity:   r.Severity,
					RuleID:     r.ID,
					Suggestion: r.Suggestion,
				},
			})
		}
	}
	return out
}

// detectInfiniteLoops flags unconditional loops whose body has no break.
func detectInfiniteLoops(s *fileScan) []finding {
	var out []finding
	for _, l := range s.loops {
		if !l.Unconditional || l.HasBreak {
			continue
		}
		out = append(out, finding{
			Bucket: bucketSecurity,
			Issue: domain.Issue{
				Line:       l.Head,
				Message:    "Unconditional loop with no break will never terminate",
				Severity:   domain.SeverityCritical,
				RuleID:     "infinite-loop",
				Suggestion: "Add a termination condition or an explicit break",
			},
		})
	}
	return out
}
