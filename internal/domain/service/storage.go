package service

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Download when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage stores and retrieves published artifacts.
type ObjectStorage interface {
	// Upload stores a blob under key and returns its public URL.
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	// Download retrieves a blob by key. A missing key yields
	// ErrObjectNotFound.
	Download(ctx context.Context, key string) ([]byte, error)
	// PublicURL returns the public URL for a key without touching the
	// backend.
	PublicURL(key string) string
}
