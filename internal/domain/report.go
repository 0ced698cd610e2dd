package domain

// Severity levels in descending order of weight.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Issue categories emitted by the async, semantic, and auth detector stages.
// The analyzer routes each category to one of the three report buckets.
const (
	CategorySecurity        = "security"
	CategoryPerformance     = "performance"
	CategoryConcurrency     = "concurrency"
	CategoryMemoryLeak      = "memory-leak"
	CategoryReliability     = "reliability"
	CategoryObservability   = "observability"
	CategoryTestability     = "testability"
	CategoryMaintainability = "maintainability"
	CategoryDesign          = "design"
	CategoryStyle           = "style"
)

// Issue is one finding from a detector, anchored to a line of the submitted
// file.
type Issue struct {
	Line       int    `json:"line"`
	Column     int    `json:"column,omitempty"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	RuleID     string `json:"rule_id"`
	Suggestion string `json:"suggestion"`
	Category   string `json:"category,omitempty"`
}

// AISuggestion is one validated element of the AI provider's response.
// Line >= 1; Severity and Category are members of their enumerated sets; the
// string fields are non-empty. Elements violating the schema are dropped, not
// coerced.
type AISuggestion struct {
	Line         int    `json:"line" validate:"required,min=1"`
	Severity     string `json:"severity" validate:"required,oneof=critical high medium low"`
	Category     string `json:"category" validate:"required,oneof=security performance logic style reliability"`
	Issue        string `json:"issue" validate:"required"`
	Explanation  string `json:"explanation" validate:"required"`
	SuggestedFix string `json:"suggested_fix" validate:"required"`
}

// ReportMetrics summarizes one analyzer run.
type ReportMetrics struct {
	LinesAnalyzed    int    `json:"lines_analyzed"`
	IssuesFound      int    `json:"issues_found"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	ReviewTimeText   string `json:"review_time"`
	// CacheHit is always false in stored and cached reports: hit status is
	// carried on the job envelope instead, so a report served from cache
	// stays byte-identical to the one the first submission produced.
	CacheHit bool `json:"cache_hit"`
}

// Report is the structured output of the analyzer for one file. The three
// buckets preserve detector-stage order.
type Report struct {
	FileName      string         `json:"file_name"`
	Security      []Issue        `json:"security"`
	Performance   []Issue        `json:"performance"`
	Style         []Issue        `json:"style"`
	AISuggestions []AISuggestion `json:"ai_suggestions"`
	QualityScore  float64        `json:"quality_score"`
	QualityGrade  string         `json:"quality_grade"`
	Metrics       ReportMetrics  `json:"metrics"`
}

// TotalIssues counts findings across the three buckets plus AI suggestions.
func (r *Report) TotalIssues() int {
	return len(r.Security) + len(r.Performance) + len(r.Style) + len(r.AISuggestions)
}

// LintFinding is one diagnostic from the external linter engine before the
// analyzer maps it onto a report bucket.
type LintFinding struct {
	Line     int
	Column   int
	RuleID   string
	Message  string
	Severity int // 2 = error, 1 = warning, mirroring the engine's levels
}
