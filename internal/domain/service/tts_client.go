package service

import "context"

// TTSClient turns text into speech audio.
type TTSClient interface {
	// Synthesize renders text with the given voice and returns MP3 bytes.
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}
