package main

import "fmt"

// ConfigError reports a missing, malformed, or incomplete configuration file.
// It always aborts the run before any task is processed.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// KeywordFileError reports a keyword file that is missing or yields no
// usable entries. It aborts the run.
type KeywordFileError struct {
	Path   string
	Reason string
	Err    error
}

func (e *KeywordFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("keyword file %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("keyword file %s: %s", e.Path, e.Reason)
}

func (e *KeywordFileError) Unwrap() error { return e.Err }

// GenerationError reports a failed plan or draft call. It marks the current
// task failed; the run continues.
type GenerationError struct {
	Stage string // "plan" or "draft"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PublishErrorKind classifies publish failures for the retry policy.
type PublishErrorKind string

const (
	PublishErrAuth       PublishErrorKind = "auth"       // 401/403, never retried
	PublishErrValidation PublishErrorKind = "validation" // other 4xx, never retried
	PublishErrTransport  PublishErrorKind = "transport"  // 5xx or network failure, retried
)

// PublishError reports a failed WordPress request after the retry policy has
// been applied.
type PublishError struct {
	Kind       PublishErrorKind
	StatusCode int
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("publish (%s, HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("publish (%s): %v", e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// HTTPError represents a non-2xx response from an outbound request.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}
