package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	"github.com/wolfitem/ai-podcast/internal/domain/service"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
	"github.com/wolfitem/ai-podcast/internal/middleware"
)

const (
	defaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion    = "2023-06-01"
	maxAttempts         = 4
)

// ClaudeClient implements service.AIClient against the Anthropic
// Messages API.
type ClaudeClient struct {
	config  model.AnthropicConfig
	client  *http.Client
	limiter *middleware.RateLimiter
	metrics *middleware.MetricsCollector
}

// NewClaudeClient creates a dialogue model client. The metrics collector
// may be nil.
func NewClaudeClient(config model.AnthropicConfig, metrics *middleware.MetricsCollector) *ClaudeClient {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	transport := &http.Transport{
		ResponseHeaderTimeout: timeout,
		TLSHandshakeTimeout:   15 * time.Second,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &ClaudeClient{
		config:  config,
		client:  &http.Client{Timeout: timeout, Transport: transport},
		limiter: middleware.NewRateLimiter(int64(config.MaxCalls), 24*time.Hour),
		metrics: metrics,
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateDialogue sends a prompt and returns the model reply text.
// Rate-limit and server errors are retried with exponential backoff.
func (c *ClaudeClient) GenerateDialogue(ctx context.Context, prompt string) (string, error) {
	if c.config.APIKey == "" {
		return "", model.NewConfigurationError("anthropic api key is not configured", nil)
	}

	maxTokens := c.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	body, err := json.Marshal(anthropicRequest{
		Model:     c.config.Model,
		MaxTokens: maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", model.NewAIGenerationError("failed to encode request", err)
	}

	var reply string
	err = c.limiter.WithLimiter(ctx, func() error {
		var sendErr error
		reply, sendErr = c.sendWithRetry(ctx, body)
		return sendErr
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// sendWithRetry performs the API call, retrying rate-limit and server
// errors with exponential backoff up to maxAttempts.
func (c *ClaudeClient) sendWithRetry(ctx context.Context, body []byte) (string, error) {
	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		reply, retryable, err := c.doRequest(ctx, body)
		duration := time.Since(start)
		if c.metrics != nil {
			c.metrics.RecordAPICall(duration, err == nil)
		}
		if err == nil {
			logger.Info("dialogue model reply received",
				"model", c.config.Model,
				"reply_length", len(reply),
				"duration_ms", duration.Milliseconds())
			return reply, nil
		}

		lastErr = err
		if !retryable || attempt == maxAttempts {
			break
		}

		wait := b.Duration()
		logger.Warn("dialogue model request failed, retrying",
			"attempt", attempt, "backoff", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", model.NewAIGenerationError(
		fmt.Sprintf("dialogue model request failed after %d attempts", maxAttempts), lastErr)
}

// doRequest performs one API call. The second return value reports
// whether the failure is worth retrying.
func (c *ClaudeClient) doRequest(ctx context.Context, body []byte) (string, bool, error) {
	endpoint := c.config.APIUrl
	if endpoint == "" {
		endpoint = defaultAnthropicURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, model.NewNetworkError("dialogue model request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return "", true, model.NewNetworkError("failed to read dialogue model response", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("dialogue model returned status %d: %s",
			resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, model.NewAIGenerationError("failed to decode dialogue model response", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("dialogue model error: %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", false, model.NewAIGenerationError("dialogue model response contained no text", nil)
	}

	logger.Debug("dialogue model usage",
		"input_tokens", parsed.Usage.InputTokens,
		"output_tokens", parsed.Usage.OutputTokens)
	return strings.TrimSpace(text.String()), false, nil
}

// GetRateLimits returns the current API budget state.
func (c *ClaudeClient) GetRateLimits() service.RateLimit {
	status := c.limiter.GetStatus()
	return service.RateLimit{
		MaxCalls:     int(status.Limit),
		CurrentCalls: int(status.Used),
		Remaining:    int(status.Remaining),
		ResetTime:    time.Now().Add(status.ResetIn),
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
