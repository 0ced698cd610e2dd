package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain/mocks"
)

func newTestAnalyzer(t *testing.T, opts Options) (*Analyzer, *mocks.AIClient, *mocks.LintEngine) {
	t.Helper()
	aiClient := mocks.NewAIClient(t)
	lintEngine := mocks.NewLintEngine(t)
	if opts.AIModel == "" {
		opts.AIModel = "deepseek/deepseek-chat"
	}
	if opts.AIMaxPromptTokens == 0 {
		opts.AIMaxPromptTokens = 12000
	}
	return New(opts, aiClient, lintEngine), aiClient, lintEngine
}

func Test_Analyze_EvalFlaggedOnLineOne(t *testing.T) {
	a, _, lint := newTestAnalyzer(t, Options{})
	lint.On("Lint", mock.Anything, "danger.js", mock.Anything).Return(nil, nil)

	rep, err := a.Analyze(context.Background(), []byte(`eval(input);`), "danger.js")
	require.NoError(t, err)

	require.NotEmpty(t, rep.Security)
	first := rep.Security[0]
	require.Equal(t, "no-eval", first.RuleID)
	require.Equal(t, 1, first.Line)
	require.Contains(t, []string{domain.SeverityHigh, domain.SeverityCritical}, first.Severity)
	require.Empty(t, rep.AISuggestions)
	require.Equal(t, 1, rep.Metrics.LinesAnalyzed)
	require.Equal(t, rep.TotalIssues(), rep.Metrics.IssuesFound)
}

func Test_Analyze_CleanFileScoresA(t *testing.T) {
	a, _, lint := newTestAnalyzer(t, Options{})
	lint.On("Lint", mock.Anything, "clean.js", mock.Anything).Return(nil, nil)

	src := "function add(a, b) {\n  return a + b;\n}\n"
	rep, err := a.Analyze(context.Background(), []byte(src), "clean.js")
	require.NoError(t, err)

	require.Empty(t, rep.Security)
	require.Empty(t, rep.Performance)
	require.Empty(t, rep.Style)
	require.Equal(t, 100.0, rep.QualityScore)
	require.Equal(t, "A", rep.QualityGrade)
	require.Equal(t, 4, rep.Metrics.LinesAnalyzed, "trailing newline adds an empty final segment")
}

func Test_Analyze_InfiniteLoopDetection(t *testing.T) {
	a, _, lint := newTestAnalyzer(t, Options{})
	lint.On("Lint", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	rep, err := a.Analyze(context.Background(), []byte("while (true) {\n  spin();\n}"), "spin.js")
	require.NoError(t, err)

	ids := make([]string, 0, len(rep.Security))
	for _, is := range rep.Security {
		ids = append(ids, is.RuleID)
	}
	require.Contains(t, ids, "infinite-loop")

	rep2, err := a.Analyze(context.Background(), []byte("while (true) {\n  if (done()) break;\n}"), "poll.js")
	require.NoError(t, err)
	for _, is := range rep2.Security {
		require.NotEqual(t, "infinite-loop", is.RuleID)
	}
}

func Test_Analyze_ForcedFailure(t *testing.T) {
	a, _, _ := newTestAnalyzer(t, Options{AllowForceFail: true})

	_, err := a.Analyze(context.Background(), []byte("ok();"), "force_fail.js")
	require.Error(t, err)

	var ae *domain.AnalysisError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, domain.AnalysisForcedFailure, ae.Kind)
}

func Test_Analyze_ForcedFailureDisabledByDefault(t *testing.T) {
	a, _, lint := newTestAnalyzer(t, Options{})
	lint.On("Lint", mock.Anything, "force_fail.js", mock.Anything).Return(nil, nil)

	rep, err := a.Analyze(context.Background(), []byte("ok();"), "force_fail.js")
	require.NoError(t, err)
	require.NotNil(t, rep)
}

func Test_Analyze_LinterFailurePropagates(t *testing.T) {
	a, _, lint := newTestAnalyzer(t, Options{})
	lint.On("Lint", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("engine unreachable"))

	_, err := a.Analyze(context.Background(), []byte("ok();"), "app.js")
	require.Error(t, err)

	var ae *domain.AnalysisError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, domain.AnalysisLinterFailure, ae.Kind)
}

func Test_Analyze_LinterFindingsRouted(t *testing.T) {
	a, _, lint := newTestAnalyzer(t, Options{})
	lint.On("Lint", mock.Anything, mock.Anything, mock.Anything).Return([]domain.LintFinding{
		{Line: 2, RuleID: "no-eval", Message: "eval is harmful", Severity: 2},
		{Line: 5, RuleID: "eqeqeq", Message: "expected ===", Severity: 1},
		{Line: 9, RuleID: "no-await-in-loop", Message: "await inside loop", Severity: 1},
	}, nil)

	rep, err := a.Analyze(context.Background(), []byte("ok();"), "app.js")
	require.NoError(t, err)

	requireRule := func(bucket []domain.Issue, ruleID string) domain.Issue {
		for _, is := range bucket {
			if is.RuleID == ruleID {
				return is
			}
		}
		t.Fatalf("rule %s not found", ruleID)
		return domain.Issue{}
	}
	sec := requireRule(rep.Security, "no-eval")
	require.Equal(t, domain.SeverityHigh, sec.Severity)
	style := requireRule(rep.Style, "eqeqeq")
	require.Equal(t, domain.SeverityMedium, style.Severity)
	requireRule(rep.Performance, "no-await-in-loop")
}

func Test_Analyze_LinterSkippedForPython(t *testing.T) {
	a, _, _ := newTestAnalyzer(t, Options{})

	rep, err := a.Analyze(context.Background(), []byte("import os\nprint(os.getcwd())\n"), "script.py")
	require.NoError(t, err)
	require.NotNil(t, rep)
}

func aiPayload(sugs string) string {
	return `{"suggestions": [` + sugs + `]}`
}

const validSuggestion = `{"line": 1, "severity": "medium", "category": "logic", "issue": "off by one", "explanation": "loop bound excludes last element", "suggested_fix": "use <= bound"}`

func Test_Analyze_AIGatedByLineBounds(t *testing.T) {
	opts := Options{EnableAI: true, MinFileLinesForAI: 5, MaxFileLinesForAI: 10}

	t.Run("below minimum skips the provider", func(t *testing.T) {
		a, _, lint := newTestAnalyzer(t, opts)
		lint.On("Lint", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

		rep, err := a.Analyze(context.Background(), []byte("a();\nb();\nc();"), "small.js")
		require.NoError(t, err)
		require.Empty(t, rep.AISuggestions)
	})

	t.Run("at maximum still calls the provider", func(t *testing.T) {
		a, ai, lint := newTestAnalyzer(t, opts)
		lint.On("Lint", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		ai.On("ReviewJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(aiPayload(validSuggestion), nil)

		src := strings.TrimSuffix(strings.Repeat("x();\n", 10), "\n")
		rep, err := a.Analyze(context.Background(), []byte(src), "max.js")
		require.NoError(t, err)
		require.Len(t, rep.AISuggestions, 1)
	})

	t.Run("past maximum skips the provider", func(t *testing.T) {
		a, _, lint := newTestAnalyzer(t, opts)
		lint.On("Lint", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

		src := strings.TrimSuffix(strings.Repeat("x();\n", 11), "\n")
		rep, err := a.Analyze(context.Background(), []byte(src), "big.js")
		require.NoError(t, err)
		require.Empty(t, rep.AISuggestions)
	})
}

func Test_Analyze_AIFailureNeverFailsAnalysis(t *testing.T) {
	a, ai, lint := newTestAnalyzer(t, Options{EnableAI: true, MinFileLinesForAI: 1, MaxFileLinesForAI: 100})
	lint.On("Lint", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	ai.On("ReviewJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("provider timeout"))

	rep, err := a.Analyze(context.Background(), []byte("a();\nb();"), "app.js")
	require.NoError(t, err)
	require.NotNil(t, rep.AISuggestions)
	require.Empty(t, rep.AISuggestions)
}

func Test_Analyze_AIInvalidSuggestionsDropped(t *testing.T) {
	a, ai, lint := newTestAnalyzer(t, Options{EnableAI: true, MinFileLinesForAI: 1, MaxFileLinesForAI: 100})
	lint.On("Lint", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	invalid := `{"line": 0, "severity": "medium", "category": "logic", "issue": "bad line", "explanation": "x", "suggested_fix": "y"}`
	badSeverity := `{"line": 2, "severity": "urgent", "category": "logic", "issue": "bad severity", "explanation": "x", "suggested_fix": "y"}`
	ai.On("ReviewJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(aiPayload(validSuggestion+","+invalid+","+badSeverity), nil)

	rep, err := a.Analyze(context.Background(), []byte("a();\nb();"), "app.js")
	require.NoError(t, err)
	require.Len(t, rep.AISuggestions, 1)
	require.Equal(t, "off by one", rep.AISuggestions[0].Issue)
}

func Test_Analyze_QualityGradeReflectsFindings(t *testing.T) {
	a, _, lint := newTestAnalyzer(t, Options{})
	lint.On("Lint", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	rep, err := a.Analyze(context.Background(), []byte(`eval(input);`), "danger.js")
	require.NoError(t, err)

	// One critical security finding deducts 15 from 100.
	require.Equal(t, 85.0, rep.QualityScore)
	require.Equal(t, "B", rep.QualityGrade)
}
