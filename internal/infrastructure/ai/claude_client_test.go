package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	"github.com/wolfitem/ai-podcast/internal/middleware"
)

func anthropicTestServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		fmt.Fprintf(w, `{"content":[{"type":"text","text":%q}],"usage":{"input_tokens":10,"output_tokens":5}}`, reply)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGenerateDialogue(t *testing.T) {
	server := anthropicTestServer(t, "Alex: Hello there.")

	client := NewClaudeClient(model.AnthropicConfig{
		APIKey: "test-key",
		Model:  "test-model",
		APIUrl: server.URL,
	}, nil)

	reply, err := client.GenerateDialogue(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "Alex: Hello there.", reply)
}

func TestGenerateDialogueRequiresAPIKey(t *testing.T) {
	client := NewClaudeClient(model.AnthropicConfig{}, nil)

	_, err := client.GenerateDialogue(context.Background(), "prompt")
	var cfgErr *model.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestGenerateDialogueBudgetExhausted(t *testing.T) {
	server := anthropicTestServer(t, "ok")

	client := NewClaudeClient(model.AnthropicConfig{
		APIKey:   "test-key",
		Model:    "test-model",
		APIUrl:   server.URL,
		MaxCalls: 1,
	}, nil)

	_, err := client.GenerateDialogue(context.Background(), "first")
	require.NoError(t, err)

	_, err = client.GenerateDialogue(context.Background(), "second")
	var rlErr *middleware.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, int64(1), rlErr.Status.Used)

	limits := client.GetRateLimits()
	assert.Equal(t, 1, limits.CurrentCalls)
	assert.Equal(t, 0, limits.Remaining)
}
