package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"github.com/wolfitem/ai-podcast/internal/domain/model"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

const (
	defaultElevenLabsURL = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultModelID       = "eleven_monolingual_v1"
	maxAttempts          = 3
)

// ElevenLabsClient implements service.TTSClient against the ElevenLabs
// text-to-speech API.
type ElevenLabsClient struct {
	config model.ElevenLabsConfig
	client *http.Client
}

// NewElevenLabsClient creates a speech synthesis client.
func NewElevenLabsClient(config model.ElevenLabsConfig) *ElevenLabsClient {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ElevenLabsClient{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize renders text with the given voice and returns MP3 bytes.
// Rate-limit and server errors are retried with exponential backoff.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if c.config.APIKey == "" {
		return nil, model.NewConfigurationError("elevenlabs api key is not configured", nil)
	}
	if voiceID == "" {
		return nil, model.NewConfigurationError("voice id is required for synthesis", nil)
	}

	modelID := c.config.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, model.NewAudioGenerationError("failed to encode synthesis request", err)
	}

	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    20 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		audio, retryable, err := c.doRequest(ctx, voiceID, body)
		if err == nil {
			logger.Debug("synthesis chunk completed", "voice", voiceID, "text_bytes", len(text), "audio_bytes", len(audio))
			return audio, nil
		}

		lastErr = err
		if !retryable || attempt == maxAttempts {
			break
		}

		wait := b.Duration()
		logger.Warn("synthesis request failed, retrying", "attempt", attempt, "backoff", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, model.NewAudioGenerationError("speech synthesis failed", lastErr)
}

func (c *ElevenLabsClient) doRequest(ctx context.Context, voiceID string, body []byte) ([]byte, bool, error) {
	base := c.config.APIUrl
	if base == "" {
		base = defaultElevenLabsURL
	}
	endpoint := fmt.Sprintf("%s/%s", base, voiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, model.NewNetworkError("synthesis request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("synthesis api returned status %d: %s", resp.StatusCode, string(respBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, model.NewNetworkError("failed to read synthesis response", err)
	}
	if len(audio) == 0 {
		return nil, false, fmt.Errorf("synthesis api returned empty audio")
	}
	return audio, false, nil
}
