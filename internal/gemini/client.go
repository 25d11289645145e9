// Package gemini wraps the Gemini API behind a single submit-prompt,
// receive-text operation with bounded timeouts and retry.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kalambet/personaforge/internal/config"
)

const (
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
)

// ErrEmptyReply means the API responded successfully but the reply carried
// no text. Callers should treat it like an unusable reply, not a network
// failure.
var ErrEmptyReply = errors.New("model reply contained no text")

// UpstreamError wraps a failure of the external generation API so callers
// can distinguish it from local errors. Timeout marks the bounded per-attempt
// deadline expiring.
type UpstreamError struct {
	Err     error
	Timeout bool
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("upstream timeout: %v", e.Err)
	}
	return fmt.Sprintf("upstream error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Client calls the Gemini generate-content endpoint.
type Client struct {
	genai   *genai.Client
	model   string
	temp    float32
	maxTok  int32
	timeout time.Duration
}

// NewClient creates a Client from the Gemini section of the configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &Client{
		genai:   gc,
		model:   cfg.Model,
		temp:    float32(cfg.Temperature),
		maxTok:  int32(cfg.MaxOutputTokens),
		timeout: cfg.Timeout,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Generate submits a prompt and returns the model's reply text. Each attempt
// is bounded by the configured timeout; retryable upstream errors (rate
// limits, 5xx) are retried with exponential backoff up to maxRetries.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := range maxRetries {
		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}

		if errors.Is(err, ErrEmptyReply) {
			return "", err
		}
		if isTimeout(err) && ctx.Err() == nil {
			return "", &UpstreamError{Err: err, Timeout: true}
		}
		if ctx.Err() != nil {
			return "", &UpstreamError{Err: err}
		}
		if !isRetryable(err) {
			return "", &UpstreamError{Err: err}
		}

		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return "", &UpstreamError{Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}
	}

	return "", &UpstreamError{Err: fmt.Errorf("giving up after %d attempts: %w", maxRetries, lastErr)}
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temp),
		MaxOutputTokens: c.maxTok,
	}
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}

	resp, err := c.genai.Models.GenerateContent(attemptCtx, c.model, contents, cfg)
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyReply
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// isRetryable reports whether the upstream error is transient. The Gemini
// SDK exposes failures as formatted messages, so classification is by
// status substring.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrEmptyReply) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429",
		"resource_exhausted",
		"rate limit",
		"quota",
		"500",
		"502",
		"503",
		"504",
		"internal",
		"unavailable",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
