package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNavigation represents page navigation failures
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeTimeout represents driver or wait timeouts
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeUnsupported represents quiz layouts the engine does not handle
	ErrorTypeUnsupported ErrorType = "unsupported_layout"
	// ErrorTypeExtraction represents DOM/content extraction failures
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypePersistence represents storage-layer errors
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeValidation represents record validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents a quiz-pipeline-specific error
type ScrapeError struct {
	Type    ErrorType
	Quiz    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Quiz, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Quiz, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth retrying at the quiz level
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNavigation, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, quiz, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Quiz:    quiz,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNavigation creates a new navigation error
func NewNavigation(quiz, message string, err error) *ScrapeError {
	return New(ErrorTypeNavigation, quiz, message, err)
}

// NewTimeout creates a new timeout error
func NewTimeout(quiz, message string, err error) *ScrapeError {
	return New(ErrorTypeTimeout, quiz, message, err)
}

// NewUnsupported creates a new unsupported-layout error
func NewUnsupported(quiz, layout string) *ScrapeError {
	return New(ErrorTypeUnsupported, quiz, fmt.Sprintf("unsupported quiz layout: %s", layout), nil)
}

// NewExtraction creates a new extraction error
func NewExtraction(quiz, message string, err error) *ScrapeError {
	return New(ErrorTypeExtraction, quiz, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(quiz string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, quiz, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(quiz, message string, err error) *ScrapeError {
	return New(ErrorTypePersistence, quiz, message, err)
}

// NewValidation creates a new validation error
func NewValidation(quiz, message string) *ScrapeError {
	return New(ErrorTypeValidation, quiz, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// Retryable reports whether err is, or wraps, a retryable ScrapeError.
func Retryable(err error) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}
