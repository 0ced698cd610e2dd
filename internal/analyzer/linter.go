package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// LintRuleMap routes linter rule ids onto report buckets. Rules absent from
// the map fall into the style bucket.
type LintRuleMap struct {
	Security    []string `yaml:"security"`
	Performance []string `yaml:"performance"`
	Style       []string `yaml:"style"`

	byRule map[string]string
}

// defaultLintRules covers the fixed rule set the engine is run with.
const defaultLintRules = `
security:
  - no-eval
  - no-implied-eval
  - no-new-func
  - no-script-url
  - no-caller
performance:
  - no-await-in-loop
  - no-inner-declarations
  - no-loop-func
style:
  - eqeqeq
  - no-unused-vars
  - no-var
  - prefer-const
  - semi
  - curly
`

// DefaultLintRuleMap parses the built-in rule routing.
func DefaultLintRuleMap() *LintRuleMap {
	m, err := parseLintRuleMap([]byte(defaultLintRules))
	if err != nil {
		// The literal above is fixed; a parse failure is a programming error.
		panic(err)
	}
	return m
}

// LoadLintRuleMap reads a rule routing file, falling back to the built-in
// map when path is empty.
func LoadLintRuleMap(path string) (*LintRuleMap, error) {
	if path == "" {
		return DefaultLintRuleMap(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=linter.load_rules: %w", err)
	}
	return parseLintRuleMap(raw)
}

func parseLintRuleMap(raw []byte) (*LintRuleMap, error) {
	var m LintRuleMap
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("op=linter.parse_rules: %w", err)
	}
	m.byRule = make(map[string]string)
	for _, r := range m.Security {
		m.byRule[r] = bucketSecurity
	}
	for _, r := range m.Performance {
		m.byRule[r] = bucketPerformance
	}
	for _, r := range m.Style {
		m.byRule[r] = bucketStyle
	}
	return &m, nil
}

// BucketFor returns the routing bucket for a linter rule id.
func (m *LintRuleMap) BucketFor(ruleID string) string {
	if b, ok := m.byRule[ruleID]; ok {
		return b
	}
	return bucketStyle
}

// mapLintFindings converts engine diagnostics into report findings:
// error-level diagnostics become high severity, everything else medium.
func mapLintFindings(rules *LintRuleMap, fs []domain.LintFinding) []finding {
	out := make([]finding, 0, len(fs))
	for _, f := range fs {
		sev := domain.SeverityMedium
		if f.Severity >= 2 {
			sev = domain.SeverityHigh
		}
		out = append(out, finding{
			Bucket: rules.BucketFor(f.RuleID),
			Issue: domain.Issue{
				Line:       f.Line,
				Column:     f.Column,
				Message:    f.Message,
				Severity:   sev,
				RuleID:     f.RuleID,
				Suggestion: "Address the linter diagnostic",
			},
		})
	}
	return out
}
