package gateway

import (
	"fmt"
	"net/http"
)

// OAuth error codes as constants
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeUnauthorizedClient   = "unauthorized_client"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeServerError          = "server_error"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeRateLimitExceeded    = "rate_limit_exceeded"
)

// OAuthError represents an OAuth 2.0 protocol error outcome. It flows back
// to the client through the configured error-format policy (raw OAuth2 body
// or problem detail).
type OAuthError struct {
	Code        string // OAuth error code (e.g., "invalid_request", "invalid_grant")
	Description string // Human-readable error description
	Status      int    // HTTP status code
}

// Error implements the error interface
func (e *OAuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewOAuthError creates a new OAuth error
func NewOAuthError(code, description string, status int) *OAuthError {
	return &OAuthError{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Common OAuth errors as reusable constructors
var (
	// ErrInvalidRequest indicates the request is malformed or missing required parameters
	ErrInvalidRequest = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeInvalidRequest, desc, http.StatusBadRequest)
	}

	// ErrServerError indicates an internal server error occurred
	ErrServerError = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeServerError, desc, http.StatusInternalServerError)
	}

	// ErrRateLimitExceeded indicates too many requests from one source
	ErrRateLimitExceeded = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeRateLimitExceeded, desc, http.StatusTooManyRequests)
	}
)

// ConfigurationError reports that the engine factory could not produce a
// usable engine for the configured type. It signals a deployment defect,
// never a per-request condition: request processing aborts loudly and no
// protocol redirect is produced.
type ConfigurationError struct {
	EngineType string
	Err        error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine factory failed for type %q: %v", e.EngineType, e.Err)
	}
	return fmt.Sprintf("engine factory returned no engine for type %q", e.EngineType)
}

// Unwrap returns the underlying factory error, if any.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IdentityResolutionError reports that the identity provider could not
// resolve the resource owner during an authorize attempt. The attempt is
// abandoned: the browser sees a generic failure, never a redirect, so a
// partial grant cannot leak to the client.
type IdentityResolutionError struct {
	Err error
}

// Error implements the error interface
func (e *IdentityResolutionError) Error() string {
	return fmt.Sprintf("identity resolution failed: %v", e.Err)
}

// Unwrap returns the underlying provider error.
func (e *IdentityResolutionError) Unwrap() error {
	return e.Err
}
