package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")

	ErrConfiguration = errors.New("configuration error")
	ErrExtraction    = errors.New("extraction error")
	ErrProvider      = errors.New("provider error")
	ErrTimeout       = errors.New("timeout")
)

// ConfigurationError means the provider settings or the category list cannot be used.
type ConfigurationError struct {
	Reason  string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration error: %s (missing %s)", e.Reason, strings.Join(e.Missing, ", "))
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ExtractionError means no usable text could be taken from a post.
type ExtractionError struct {
	PostID string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: no content found in post %s", e.PostID)
}

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// ProviderError is a non-2xx response or an unreadable envelope from an LLM backend.
// Status is 0 when the failure was not an HTTP status.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Body)
}

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

func (e *ProviderError) Unwrap() error { return e.Err }

// TimeoutError means the pipeline stopped waiting on an LLM call.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("LLM call timeout after %s", e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
