package service

import (
	"context"
	"time"
)

// AIClient generates dialogue text from prompts.
type AIClient interface {
	// GenerateDialogue sends a prompt to the language model and returns
	// the reply text.
	GenerateDialogue(ctx context.Context, prompt string) (string, error)
	// GetRateLimits returns the current API budget state.
	GetRateLimits() RateLimit
}

// RateLimit describes the API call budget of a client.
type RateLimit struct {
	MaxCalls     int
	CurrentCalls int
	Remaining    int
	ResetTime    time.Time
}
