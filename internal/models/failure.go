package models

import (
	"fmt"
	"net/http"
)

// Stable, machine-readable error codes returned to clients.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeCSRFTokenMissing  = "CSRF_TOKEN_MISSING"
	CodeCSRFTokenMismatch = "CSRF_TOKEN_MISMATCH"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL"
)

// Failure is a client-facing rejection. Message must stay generic and never carry
// expected values or say which credential was wrong.
type Failure struct {
	Status  int
	Code    string
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%d %s: %s", f.Status, f.Code, f.Message)
}

// NewBadRequest returns a 400 failure with the given message.
func NewBadRequest(message string) *Failure {
	return &Failure{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: message}
}

// NewInvalidSignature returns the failure used for every signature verification mismatch.
func NewInvalidSignature() *Failure {
	return &Failure{Status: http.StatusBadRequest, Code: CodeInvalidSignature, Message: "invalid signature"}
}

// NewCSRFTokenMissing returns the failure used when either CSRF credential is absent.
func NewCSRFTokenMissing() *Failure {
	return &Failure{Status: http.StatusForbidden, Code: CodeCSRFTokenMissing, Message: "invalid or missing CSRF token"}
}

// NewCSRFTokenMismatch returns the failure used when the CSRF credentials disagree.
func NewCSRFTokenMismatch() *Failure {
	return &Failure{Status: http.StatusForbidden, Code: CodeCSRFTokenMismatch, Message: "invalid or missing CSRF token"}
}

// NewRateLimited returns the 429 failure.
func NewRateLimited() *Failure {
	return &Failure{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: "too many requests"}
}

// NewInternal returns a 500 failure that hides the underlying cause.
func NewInternal() *Failure {
	return &Failure{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal error"}
}
