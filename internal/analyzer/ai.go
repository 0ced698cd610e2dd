package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
)

const aiSystemPrompt = `You are a senior code reviewer. Review the submitted file and report concrete, actionable findings.
Respond with JSON only, no prose, in this exact shape:
{"suggestions": [{"line": <int>, "severity": "critical|high|medium|low", "category": "security|performance|logic|style|reliability", "issue": "<short title>", "explanation": "<why it matters>", "suggested_fix": "<how to fix>"}]}
Line numbers are 1-based and must point into the submitted file. Return {"suggestions": []} when nothing is worth reporting.`

// aiDetector is the provider-backed review stage. Every failure mode
// degrades to an empty suggestion list; it never fails the analysis.
type aiDetector struct {
	client          domain.AIClient
	validate        *validator.Validate
	model           string
	maxPromptTokens int
	timeout         time.Duration

	mu            sync.RWMutex
	encodingCache map[string]*tiktoken.Tiktoken
}

func newAIDetector(client domain.AIClient, validate *validator.Validate, model string, maxPromptTokens int, timeout time.Duration) *aiDetector {
	return &aiDetector{
		client:          client,
		validate:        validate,
		model:           model,
		maxPromptTokens: maxPromptTokens,
		timeout:         timeout,
		encodingCache:   make(map[string]*tiktoken.Tiktoken),
	}
}

// encodingFor returns the tiktoken encoding for the configured model,
// caching it per normalized name. Unknown models fall back to cl100k_base,
// which approximates most modern chat models well enough for budgeting.
func (d *aiDetector) encodingFor(model string) (*tiktoken.Tiktoken, error) {
	normalized := normalizeModelName(model)

	d.mu.RLock()
	if enc, ok := d.encodingCache[normalized]; ok {
		d.mu.RUnlock()
		return enc, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if enc, ok := d.encodingCache[normalized]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(normalized)
	if err != nil {
		slog.Debug("falling back to cl100k_base encoding",
			slog.String("model", model),
			slog.String("normalized", normalized),
			slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	d.encodingCache[normalized] = enc
	return enc, nil
}

// normalizeModelName maps provider-prefixed model ids (e.g.
// "deepseek/deepseek-chat:free") onto tiktoken-compatible names.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	if strings.Contains(model, "/") {
		parts := strings.Split(model, "/")
		model = parts[len(parts)-1]
	}
	model = strings.TrimSuffix(model, ":free")

	switch {
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	case strings.Contains(model, "gpt-4"):
		return "gpt-4"
	default:
		// cl100k_base tokenization is a reasonable approximation for
		// llama, mistral, qwen, deepseek and claude families.
		return "gpt-4"
	}
}

// truncateToBudget trims content so the whole prompt stays under the token
// budget. Truncation happens on token boundaries and is flagged so the
// provider knows the tail is missing.
func (d *aiDetector) truncateToBudget(content string) string {
	enc, err := d.encodingFor(d.model)
	if err != nil {
		slog.Warn("token encoding unavailable, skipping prompt truncation", slog.Any("error", err))
		return content
	}

	overhead := len(enc.Encode(aiSystemPrompt, nil, nil)) + 64
	budget := d.maxPromptTokens - overhead
	if budget <= 0 {
		budget = d.maxPromptTokens
	}

	tokens := enc.Encode(content, nil, nil)
	if len(tokens) <= budget {
		return content
	}
	truncated := enc.Decode(tokens[:budget])
	return truncated + "\n// ... (truncated for review)"
}

func (d *aiDetector) buildUserPrompt(fileName, language, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\nLanguage: %s\n\n", fileName, language)
	b.WriteString("```\n")
	b.WriteString(d.truncateToBudget(content))
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	return b.String()
}

// detect runs the provider call under its own deadline and returns the
// validated suggestions. Any failure reads as an empty list.
func (d *aiDetector) detect(ctx context.Context, fileName, language, content string) []domain.AISuggestion {
	if d.client == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	raw, err := d.client.ReviewJSON(callCtx, aiSystemPrompt, d.buildUserPrompt(fileName, language, content), 2048)
	if err != nil {
		slog.Warn("ai review request failed", slog.String("file", fileName), slog.Any("error", err))
		return []domain.AISuggestion{}
	}

	suggestions, err := d.parseSuggestions(raw)
	if err != nil {
		slog.Warn("ai review payload unusable", slog.String("file", fileName), slog.Any("error", err))
		return []domain.AISuggestion{}
	}
	return suggestions
}

// parseSuggestions extracts the suggestions array from the provider payload.
// Invalid elements are dropped with a warning, not coerced.
func (d *aiDetector) parseSuggestions(raw string) ([]domain.AISuggestion, error) {
	cleaned := extractJSONObject(raw)

	var payload struct {
		Suggestions []json.RawMessage `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("op=ai.parseSuggestions: %w", err)
	}
	if payload.Suggestions == nil {
		return nil, fmt.Errorf("op=ai.parseSuggestions: missing suggestions array")
	}

	out := make([]domain.AISuggestion, 0, len(payload.Suggestions))
	for i, rawEl := range payload.Suggestions {
		var s domain.AISuggestion
		if err := json.Unmarshal(rawEl, &s); err != nil {
			slog.Warn("dropping malformed ai suggestion", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		if err := d.validate.Struct(&s); err != nil {
			slog.Warn("dropping invalid ai suggestion", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// extractJSONObject strips markdown fences and surrounding prose, returning
// the first balanced JSON object in the payload.
func extractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	if start == -1 {
		return raw
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return raw[start:]
}
