package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Validator checks user-supplied inputs before they reach the pipeline.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateOPMLPath checks an OPML subscription file path: it must stay
// inside the working directory, carry the .opml extension, and point at
// a readable file of sane size.
func (v *Validator) ValidateOPMLPath(filePath string) error {
	if strings.TrimSpace(filePath) == "" {
		return errors.New("opml file path must not be empty")
	}

	cleanPath := filepath.Clean(filePath)

	if strings.Contains(cleanPath, "..") || strings.Contains(cleanPath, "~") {
		return fmt.Errorf("path contains illegal characters: %s", cleanPath)
	}

	if !filepath.IsAbs(cleanPath) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		cleanPath = filepath.Clean(filepath.Join(wd, cleanPath))
	}

	allowedRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	relPath, err := filepath.Rel(allowedRoot, cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve relative path: %w", err)
	}
	if strings.HasPrefix(relPath, "..") {
		return fmt.Errorf("path escapes the working directory: %s", cleanPath)
	}

	if !strings.HasSuffix(strings.ToLower(cleanPath), ".opml") {
		return fmt.Errorf("only .opml files are accepted: %s", cleanPath)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("file is not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", cleanPath)
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return fmt.Errorf("file cannot be opened for reading: %w", err)
	}
	file.Close()

	if info.Size() > 10*1024*1024 {
		return fmt.Errorf("file too large (>10MB): %s", cleanPath)
	}

	return nil
}

// ValidateFeedURL checks an RSS feed URL: http(s) only, a plausible
// public hostname, and no internal network targets.
func (v *Validator) ValidateFeedURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("feed url must not be empty")
	}

	lowerURL := strings.ToLower(url)
	if !strings.HasPrefix(lowerURL, "http://") && !strings.HasPrefix(lowerURL, "https://") {
		return fmt.Errorf("only http/https feed urls are accepted: %s", url)
	}

	urlRegex := regexp.MustCompile(`^https?://[a-zA-Z0-9\-\.]+\.[a-zA-Z]{2,}(?::\d+)?(?:[/\w\.\-%&=\?]*)*/?$`)
	if !urlRegex.MatchString(url) {
		return fmt.Errorf("invalid feed url: %s", url)
	}

	blockedHosts := []string{
		"localhost", "127.0.0.1", "0.0.0.0", "::1",
		"192.168.", "10.0.", "172.16.", "169.254.",
	}
	for _, banned := range blockedHosts {
		if strings.Contains(lowerURL, banned) {
			return fmt.Errorf("internal network addresses are not allowed: %s", banned)
		}
	}

	domain := strings.TrimPrefix(strings.TrimPrefix(lowerURL, "https://"), "http://")
	if idx := strings.IndexAny(domain, "/:"); idx != -1 {
		domain = domain[:idx]
	}

	labelRegex := regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)
	for _, part := range strings.Split(domain, ".") {
		if !labelRegex.MatchString(part) {
			return fmt.Errorf("invalid feed hostname label: %s", part)
		}
	}

	return nil
}
