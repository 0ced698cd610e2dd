// Package ai implements domain.AIClient against an OpenAI-compatible chat
// completions endpoint (OpenRouter by default).
package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-code-reviewer/internal/config"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

// ErrCircuitOpen is returned without touching the provider while the breaker
// is cooling down after consecutive failures.
var ErrCircuitOpen = errors.New("ai provider circuit open")

// Client calls the configured chat completions API with bounded retries and
// a per-model circuit breaker.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	breaker *CircuitBreaker
}

// New constructs a provider client. The HTTP timeout follows the configured
// per-request bound.
func New(cfg config.Config) *Client {
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.AIRequestTimeout(), Transport: otelhttp.NewTransport(http.DefaultTransport)},
		breaker: NewCircuitBreaker(cfg.AIModel),
	}
}

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// ReviewJSON sends the prompts to the chat completions endpoint and returns
// the raw message content. Rate limiting and 5xx responses are retried with
// exponential backoff; 4xx responses are permanent.
func (c *Client) ReviewJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.AIAPIKey == "" {
		return "", fmt.Errorf("op=ai.review: %w: AI_API_KEY missing", domain.ErrInvalidInput)
	}
	if !c.breaker.ShouldAttempt() {
		observability.AIRequestsTotal.WithLabelValues(c.cfg.AIProvider, "circuit_open").Inc()
		return "", ErrCircuitOpen
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.cfg.AIModel,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("op=ai.review: %w", err)
	}

	var out struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	op := func() error {
		start := time.Now()
		// Recreate the request each attempt so the body is fresh.
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AIBaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.AIAPIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(req)
		observability.AIRequestDuration.WithLabelValues(c.cfg.AIProvider).Observe(time.Since(start).Seconds())
		if err != nil {
			observability.AIRequestsTotal.WithLabelValues(c.cfg.AIProvider, "transport_error").Inc()
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			observability.AIRequestsTotal.WithLabelValues(c.cfg.AIProvider, "transport_error").Inc()
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			observability.AIRequestsTotal.WithLabelValues(c.cfg.AIProvider, "rate_limited").Inc()
			slog.Warn("ai provider rate limited",
				slog.String("provider", c.cfg.AIProvider),
				slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
			return fmt.Errorf("%w: provider 429", domain.ErrRateLimited)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			observability.AIRequestsTotal.WithLabelValues(c.cfg.AIProvider, "client_error").Inc()
			slog.Warn("ai provider 4xx",
				slog.String("provider", c.cfg.AIProvider),
				slog.Int("status", resp.StatusCode),
				slog.String("model", c.cfg.AIModel),
				slog.String("body", snippet(respBody)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			observability.AIRequestsTotal.WithLabelValues(c.cfg.AIProvider, "server_error").Inc()
			slog.Error("ai provider non-2xx",
				slog.String("provider", c.cfg.AIProvider),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(respBody)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(respBody, &out); err != nil {
			observability.AIRequestsTotal.WithLabelValues(c.cfg.AIProvider, "decode_error").Inc()
			return backoff.Permanent(fmt.Errorf("decode: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.backoffConfig(), ctx)); err != nil {
		c.breaker.RecordFailure()
		return "", fmt.Errorf("op=ai.review: %w", err)
	}
	if len(out.Choices) == 0 {
		c.breaker.RecordFailure()
		observability.AIRequestsTotal.WithLabelValues(c.cfg.AIProvider, "empty_response").Inc()
		return "", fmt.Errorf("op=ai.review: empty choices from provider")
	}

	c.breaker.RecordSuccess()
	observability.AIRequestsTotal.WithLabelValues(c.cfg.AIProvider, "success").Inc()
	if out.Model != "" && out.Model != c.cfg.AIModel {
		slog.Warn("model substitution detected",
			slog.String("requested_model", c.cfg.AIModel),
			slog.String("actual_model", out.Model))
	}
	return out.Choices[0].Message.Content, nil
}

func snippet(b []byte) string {
	if len(b) > 512 {
		b = b[:512]
	}
	return string(b)
}
