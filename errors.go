package deckgen

import "errors"

const (
	CodeMissingCredential = "missing_credential"
	CodeExhaustedRetries  = "exhausted_retries"
)

// Error is the terminal failure shape surfaced through Result.Err.
type Error struct {
	Code      string
	Status    int
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "error"
}

func (e *Error) Unwrap() error { return e.Cause }

// IsMissingCredential reports a fatal no-API-key failure, which is never
// retried.
func IsMissingCredential(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeMissingCredential
}

// IsExhaustedRetries reports that every attempt in the budget failed.
func IsExhaustedRetries(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeExhaustedRetries
}
