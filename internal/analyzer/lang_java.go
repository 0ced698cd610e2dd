package analyzer

import (
	"regexp"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

var javaRules = []patternRule{
	{
		ID:         "java-runtime-exec",
		Severity:   domain.SeverityCritical,
		Bucket:     bucketSecurity,
		Message:    "Runtime.exec invoked with a concatenated command",
		Suggestion: "Use ProcessBuilder with a fixed argument list",
		Match:      regexp.MustCompile(`Runtime\.getRuntime\(\)\.exec\s*\(`),
		Also:       regexp.MustCompile(`\+`),
	},
	{
		ID:         "java-statement-concat",
		Severity:   domain.SeverityCritical,
		Bucket:     bucketSecurity,
		Message:    "JDBC statement built by string concatenation",
		Suggestion: "Use PreparedStatement with bind parameters",
		Match:      regexp.MustCompile(`(executeQuery|executeUpdate|execute)\s*\(`),
		Also:       regexp.MustCompile(`"\s*\+|\+\s*"`),
	},
	{
		ID:         "java-insecure-random",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "java.util.Random used for a security-sensitive value",
		Suggestion: "Use SecureRandom for tokens and secrets",
		Match:      regexp.MustCompile(`new\s+Random\s*\(`),
		Also:       regexp.MustCompile(`(?i)token|secret|session|password|nonce`),
	},
	{
		ID:         "java-print-stacktrace",
		Severity:   domain.SeverityLow,
		Bucket:     bucketStyle,
		Message:    "printStackTrace hides failures from structured logs",
		Suggestion: "Log the exception through the application logger",
		Match:      regexp.MustCompile(`\.printStackTrace\s*\(\s*\)`),
	},
	{
		ID:         "java-deserialization",
		Severity:   domain.SeverityHigh,
		Bucket:     bucketSecurity,
		Message:    "Native object deserialization from an untrusted stream",
		Suggestion: "Avoid ObjectInputStream on external data; use a safe codec",
		Match:      regexp.MustCompile(`new\s+ObjectInputStream\s*\(`),
	},
}

var (
	javaXMLFactory   = regexp.MustCompile(`DocumentBuilderFactory|SAXParserFactory|XMLInputFactory`)
	javaXMLHardening = regexp.MustCompile(`setFeature|XMLConstants|setExpandEntityReferences\s*\(\s*false`)
)

// detectJava runs the Java-specific per-line rules plus whole-file checks.
func detectJava(s *fileScan) []finding {
	out := runPatternRules(s, javaRules)
	if s.matchesAnywhere(javaXMLFactory) && !s.matchesAnywhere(javaXMLHardening) {
		out = append(out, finding{
			Bucket: bucketSecurity,
			Issue: domain.Issue{
				Line:       firstMatchLine(s, javaXMLFactory),
				Message:    "XML parser created without disabling external entities",
				Severity:   domain.SeverityHigh,
				RuleID:     "java-xxe",
				Suggestion: "Disable DTDs and external entities on the parser factory",
			},
		})
	}
	out = append(out, detectPlainHTTP(s, "java-insecure-transport")...)
	return out
}

var plainHTTPRe = regexp.MustCompile(`['"]http://(?:[^'"]*)['"]`)
var localHTTPRe = regexp.MustCompile(`http://(localhost|127\.0\.0\.1|0\.0\.0\.0)`)

// detectPlainHTTP flags cleartext endpoints, ignoring loopback addresses.
func detectPlainHTTP(s *fileScan, ruleID string) []finding {
	var out []finding
	for i, line := range s.lines {
		if plainHTTPRe.MatchString(line) && !localHTTPRe.MatchString(line) {
			out = append(out, finding{
				Bucket: bucketSecurity,
				Issue: domain.Issue{
					Line:       i + 1,
					Message:    "Cleartext HTTP endpoint",
					Severity:   domain.SeverityMedium,
					RuleID:     ruleID,
					Suggestion: "Use HTTPS for non-local endpoints",
				},
			})
		}
	}
	return out
}

// firstMatchLine returns the 1-based line of the first match, or 1.
func firstMatchLine(s *fileScan, re *regexp.Regexp) int {
	for i, line := range s.lines {
		if re.MatchString(line) {
			return i + 1
		}
	}
	return 1
}
