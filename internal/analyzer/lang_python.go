package analyzer

import (
	"regexp"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

var pythonRules = []patternRule{
	{
		ID:         "py-shell-true",
		Severity:   domain.SeverityCritical,
		Bucket:     bucketSecurity,
		Message:    "subprocess invoked with shell=True",
		Suggestion: "Pass the command as a list and drop shell=True",
		Match:      regexp.MustCompile(`subprocess\.\w+\s*\(.*shell\s*=\s*True`),
	},
	{
		ID:         "py-pickle-load",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "pickle deserialization of untrusted data",
		Suggestion: "Use a safe format such as JSON for external data",
		Match:      regexp.MustCompile(`pickle\.loads?\s*\(`),
	},
	{
		ID:         "py-yaml-load",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "yaml.load without an explicit safe loader",
		Suggestion: "Use yaml.safe_load or pass Loader=SafeLoader",
		Match:      regexp.MustCompile(`yaml\.load\s*\(`),
		Unless:     regexp.MustCompile(`SafeLoader|safe_load`),
	},
	{
		ID:         "py-bare-except",
		Severity:   domain.SeverityMedium,
		Bucket:     bucketStyle,
		Message:    "Bare except hides unexpected failures",
		Suggestion: "Catch specific exception types",
		Match:      regexp.MustCompile(`except\s*:`),
	},
	{
		ID:         "py-assert-auth",
		Severity:   domain.SeverityMedium,
		Bucket:     bucketSecurity,
		Message:    "assert used for an authorization check",
		Suggestion: "Raise an explicit error; asserts vanish under -O",
		Match:      regexp.MustCompile(`\bassert\b`),
		Also:       regexp.MustCompile(`(?i)auth|permission|role|admin`),
	},
	{
		ID:         "py-mutable-default",
		Severity:   domain.SeverityMedium,
		Bucket:     bucketStyle,
		Message:    "Mutable default argument shared across calls",
		Suggestion: "Default to None and create the container inside the function",
		Match:      regexp.MustCompile(`def\s+\w+\s*\([^)]*=\s*(\[\]|\{\})`),
	},
}

var (
	pyXMLParse   = regexp.MustCompile(`xml\.etree|xml\.dom|xml\.sax|lxml\.etree`)
	pyXMLDefused = regexp.MustCompile(`defusedxml`)
)

// detectPython runs the Python-specific per-line rules plus whole-file checks.
func detectPython(s *fileScan) []finding {
	out := runPatternRules(s, pythonRules)
	if s.matchesAnywhere(pyXMLParse) && !s.matchesAnywhere(pyXMLDefused) {
		out = append(out, finding{
			Bucket: bucketSecurity,
			Issue: domain.Issue{
				Line:       firstMatchLine(s, pyXMLParse),
				Message:    "XML parsed without entity protection",
				Severity:   domain.SeverityMedium,
				RuleID:     "py-xxe",
				Suggestion: "Parse XML with defusedxml",
			},
		})
	}
	out = append(out, detectPlainHTTP(s, "py-insecure-transport")...)
	return out
}
