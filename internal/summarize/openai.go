package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	maxAttempts        = 6
	defaultTemperature = 0.2
)

// Model families that reject a custom temperature parameter.
var noTempPrefixes = []string{"gpt-4.1", "gpt-5", "o1", "o3", "o4", "gpt-4o", "gpt-4o-mini"}

// Client talks to an OpenAI-compatible chat completions endpoint. The
// fallback model is tried whenever the primary fails for a reason that a
// different model might not share.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	fallback   string
	httpClient *http.Client
	stats      *Stats
}

// NewClient builds a summarization client. stats may be nil when callers
// do not track call latency.
func NewClient(baseURL, apiKey, model, fallback string, stats *Stats) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		fallback: fallback,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		stats: stats,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	Temperature         *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// SummarizeSection asks the model for bullet text covering the excerpts.
// Failures degrade instead of erroring: after every retry avenue is
// exhausted the sentinel bullet is returned with a nil error, because a
// missing summary must never sink the report.
func (c *Client) SummarizeSection(ctx context.Context, title string, excerpts []string, pages []int) (string, error) {
	if len(excerpts) == 0 {
		return fmt.Sprintf("- (no content for %s)", title), nil
	}
	if len(excerpts) > maxChunks {
		excerpts = excerpts[:maxChunks]
	}
	if len(pages) > len(excerpts) {
		pages = pages[:len(excerpts)]
	}
	goal := bulletsGoalFor(excerpts)

	perChunk := perChunkLimit
	hardCap := promptHardCap
	wantTokens := maxCompletionTokens
	models := c.modelTryOrder()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		for _, model := range models {
			user := buildUserMessage(title, excerpts, pages, goal, perChunk, hardCap)
			out, err := c.chat(ctx, model, user, wantTokens)
			if err == nil {
				return strings.TrimSpace(out), nil
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			switch classify(err) {
			case failContextLength:
				perChunk = max(800, perChunk*7/10)
				hardCap = max(6000, hardCap*85/100)
				wantTokens = max(250, wantTokens*8/10)
			case failTransient:
				wait(ctx, Backoff(attempt))
			case failBadRequest:
				return fmt.Sprintf("- (summary unavailable: %v)", err), nil
			}
			// failNextModel falls through to the next candidate.
		}
		if attempt < maxAttempts-1 {
			wait(ctx, Backoff(attempt))
		}
	}
	return "- (summary unavailable: retries_exhausted)", nil
}

func (c *Client) modelTryOrder() []string {
	var models []string
	for _, m := range []string{c.model, c.fallback} {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		dup := false
		for _, seen := range models {
			if seen == m {
				dup = true
			}
		}
		if !dup {
			models = append(models, m)
		}
	}
	return models
}

// chat performs one completion call, transparently retrying when the model
// rejects the temperature parameter or wants max_tokens instead of
// max_completion_tokens.
func (c *Client) chat(ctx context.Context, model, userMsg string, wantTokens int) (string, error) {
	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMsg},
		},
		MaxCompletionTokens: wantTokens,
	}
	if supportsTemperature(model) {
		t := defaultTemperature
		req.Temperature = &t
	}

	out, err := c.doChat(ctx, req)
	if err == nil {
		return out, nil
	}

	msg := strings.ToLower(err.Error())
	if req.Temperature != nil && strings.Contains(msg, "temperature") {
		req.Temperature = nil
		out, err = c.doChat(ctx, req)
		if err == nil {
			return out, nil
		}
		msg = strings.ToLower(err.Error())
	}
	if req.MaxCompletionTokens > 0 && strings.Contains(msg, "max_completion_tokens") {
		req.MaxTokens = req.MaxCompletionTokens
		req.MaxCompletionTokens = 0
		return c.doChat(ctx, req)
	}
	return "", err
}

func (c *Client) doChat(ctx context.Context, req chatRequest) (string, error) {
	start := time.Now()
	out, err := c.postChat(ctx, req)
	if c.stats != nil {
		c.stats.Record(time.Since(start).Milliseconds(), err != nil)
	}
	return out, err
}

func (c *Client) postChat(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat api status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("chat error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return apiResp.Choices[0].Message.Content, nil
}

type failureKind int

const (
	failNextModel failureKind = iota
	failContextLength
	failTransient
	failBadRequest
)

// classify buckets a completion failure by what retrying can fix: shrink
// the prompt, back off, switch models, or give up with the error text.
func classify(err error) failureKind {
	if IsRetryable(err) {
		return failTransient
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "maximum context length"),
		strings.Contains(msg, "context_length_exceeded"),
		strings.Contains(msg, "too long"):
		return failContextLength
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "overloaded"):
		return failTransient
	case strings.Contains(msg, "model_not_found"),
		strings.Contains(msg, "you can't access"),
		strings.Contains(msg, "insufficient_quota"):
		return failNextModel
	case strings.Contains(msg, "unsupported parameter"),
		strings.Contains(msg, "invalid_request_error"):
		return failBadRequest
	default:
		return failNextModel
	}
}

func supportsTemperature(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, p := range noTempPrefixes {
		if strings.HasPrefix(m, p) {
			return false
		}
	}
	return true
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
