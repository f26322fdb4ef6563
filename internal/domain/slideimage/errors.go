package slideimage

import (
	"errors"
	"fmt"
)

// Error codes for pipeline failures.
const (
	ErrCodeRateLimited      = "RATE_LIMITED"      // Provider 429, retryable after waiting
	ErrCodeProviderError    = "PROVIDER_ERROR"    // Provider non-2xx other than 429
	ErrCodePersistenceWrite = "PERSISTENCE_WRITE" // Image rendered but not durably saved, logged only
	ErrCodePersistenceRead  = "PERSISTENCE_READ"  // Store lookup failed, treated as a cache miss
	ErrCodeMalformedInput   = "MALFORMED_INPUT"   // Empty prompt, skipped rather than failed
)

// PipelineError classifies a failure inside the slide-image pipeline.
type PipelineError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SlideID   string `json:"slide_id,omitempty"`
	Cause     error  `json:"-"`
	Retryable bool   `json:"retryable"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// WithCause attaches the underlying cause.
func (e *PipelineError) WithCause(cause error) *PipelineError {
	e.Cause = cause
	return e
}

// WithSlide attaches the slide the error belongs to.
func (e *PipelineError) WithSlide(slideID string) *PipelineError {
	e.SlideID = slideID
	return e
}

// NewRateLimited builds a provider rate-limit error. The message is preserved
// for user display and must carry wait guidance.
func NewRateLimited(message string) *PipelineError {
	if message == "" {
		message = "image service is rate limited, please wait a moment before retrying"
	}
	return &PipelineError{Code: ErrCodeRateLimited, Message: message, Retryable: true}
}

// NewProviderError builds a generic provider failure.
func NewProviderError(message string) *PipelineError {
	if message == "" {
		message = "image generation failed"
	}
	return &PipelineError{Code: ErrCodeProviderError, Message: message, Retryable: true}
}

// NewPersistenceWrite builds a non-fatal store write failure.
func NewPersistenceWrite(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodePersistenceWrite,
		Message: "generated image could not be saved",
		Cause:   cause,
	}
}

// NewPersistenceRead builds a non-fatal store read failure.
func NewPersistenceRead(cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodePersistenceRead,
		Message: "image store lookup failed",
		Cause:   cause,
	}
}

// IsRateLimited reports whether err is a provider rate-limit error.
func IsRateLimited(err error) bool {
	var perr *PipelineError
	return errors.As(err, &perr) && perr.Code == ErrCodeRateLimited
}

// ErrorCode extracts the pipeline error code, or PROVIDER_ERROR for foreign errors.
func ErrorCode(err error) string {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ErrCodeProviderError
}
