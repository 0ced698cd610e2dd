package domain

import "fmt"

// AnalysisErrorKind discriminates analyzer failure modes. AI failures are
// swallowed inside the analyzer (the run degrades to an empty suggestion
// list); the other kinds propagate to the worker and drive redelivery.
type AnalysisErrorKind string

const (
	AnalysisPatternFailure AnalysisErrorKind = "pattern_failure"
	AnalysisLinterFailure  AnalysisErrorKind = "linter_failure"
	AnalysisAIFailure      AnalysisErrorKind = "ai_failure"
	AnalysisForcedFailure  AnalysisErrorKind = "forced_failure"
)

// AnalysisError wraps a detector-stage failure with its kind.
type AnalysisError struct {
	Kind  AnalysisErrorKind
	Cause error
}

func (e *AnalysisError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("analysis failed: %s", e.Kind)
	}
	return fmt.Sprintf("analysis failed: %s: %v", e.Kind, e.Cause)
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

// NewAnalysisError constructs an AnalysisError of the given kind.
func NewAnalysisError(kind AnalysisErrorKind, cause error) *AnalysisError {
	return &AnalysisError{Kind: kind, Cause: cause}
}
