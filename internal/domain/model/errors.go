package model

import "fmt"

// PipelineError is the base error carried by every failed pipeline stage.
// The concrete kinds below embed it so callers can match either the
// specific kind or the generic pipeline failure with errors.As.
type PipelineError struct {
	Stage   string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports invalid or missing pipeline configuration.
type ConfigurationError struct {
	PipelineError
}

// NetworkError reports a failed network operation after retries.
type NetworkError struct {
	PipelineError
}

// ScrapingError reports a failed article collection stage.
type ScrapingError struct {
	PipelineError
}

// AIGenerationError reports a failed script generation stage.
type AIGenerationError struct {
	PipelineError
}

// AudioGenerationError reports a failed audio synthesis stage.
type AudioGenerationError struct {
	PipelineError
}

// ValidationError reports rejected input data.
type ValidationError struct {
	PipelineError
}

// NewConfigurationError builds a configuration error.
func NewConfigurationError(message string, err error) *ConfigurationError {
	return &ConfigurationError{PipelineError{Stage: "config", Message: message, Err: err}}
}

// NewNetworkError builds a network error.
func NewNetworkError(message string, err error) *NetworkError {
	return &NetworkError{PipelineError{Stage: "network", Message: message, Err: err}}
}

// NewScrapingError builds a scraping error.
func NewScrapingError(message string, err error) *ScrapingError {
	return &ScrapingError{PipelineError{Stage: "scraping", Message: message, Err: err}}
}

// NewAIGenerationError builds a script generation error.
func NewAIGenerationError(message string, err error) *AIGenerationError {
	return &AIGenerationError{PipelineError{Stage: "script", Message: message, Err: err}}
}

// NewAudioGenerationError builds an audio synthesis error.
func NewAudioGenerationError(message string, err error) *AudioGenerationError {
	return &AudioGenerationError{PipelineError{Stage: "audio", Message: message, Err: err}}
}

// NewValidationError builds a validation error.
func NewValidationError(message string, err error) *ValidationError {
	return &ValidationError{PipelineError{Stage: "validation", Message: message, Err: err}}
}
