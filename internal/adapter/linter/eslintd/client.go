// Package eslintd is an HTTP client for the external lint engine. The engine
// exposes a single POST /lint endpoint taking the file name and content and
// returning ESLint-shaped diagnostics.
package eslintd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
	"github.com/fairyhunter13/ai-code-reviewer/internal/observability"
)

// Client implements domain.LintEngine over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.ConnectionMetrics
}

// New constructs a lint engine client. timeout bounds each request.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		metrics:    observability.NewConnectionMetrics(observability.ConnectionTypeLinter, observability.OperationTypeLint, baseURL),
	}
}

type lintRequest struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

type lintMessage struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	RuleID   string `json:"ruleId"`
	Message  string `json:"message"`
	Severity int    `json:"severity"`
}

type lintResponse struct {
	Messages []lintMessage `json:"messages"`
}

// Lint posts the file to the engine and maps its diagnostics onto domain
// findings. Transport and decode errors surface to the caller; the analyzer
// turns them into a linter-stage failure.
func (c *Client) Lint(ctx context.Context, fileName, content string) ([]domain.LintFinding, error) {
	start := time.Now()
	c.metrics.RecordRequest()

	out, err := c.lint(ctx, fileName, content)
	if err != nil {
		c.metrics.RecordFailure(err, time.Since(start))
		return nil, err
	}
	c.metrics.RecordSuccess(time.Since(start))
	return out, nil
}

func (c *Client) lint(ctx context.Context, fileName, content string) ([]domain.LintFinding, error) {
	body, err := json.Marshal(lintRequest{FileName: fileName, Content: content})
	if err != nil {
		return nil, fmt.Errorf("op=linter.lint: %w", err)
	}

	u := c.baseURL
	if u == "" {
		u = "http://localhost:7777"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u+"/lint", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("op=linter.lint: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("op=linter.lint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("op=linter.lint: engine status %d: %s", resp.StatusCode, snippet)
	}

	var lr lintResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("op=linter.lint: decode: %w", err)
	}

	findings := make([]domain.LintFinding, 0, len(lr.Messages))
	for _, m := range lr.Messages {
		if m.Line < 1 {
			m.Line = 1
		}
		findings = append(findings, domain.LintFinding{
			Line:     m.Line,
			Column:   m.Column,
			RuleID:   m.RuleID,
			Message:  m.Message,
			Severity: m.Severity,
		})
	}
	return findings, nil
}

// Healthy reports whether recent engine calls have been succeeding.
func (c *Client) Healthy() bool {
	return c.metrics.IsHealthy()
}
