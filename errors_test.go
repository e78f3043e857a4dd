package gateway

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestOAuthError_Error(t *testing.T) {
	err := ErrInvalidRequest("grant_type is required")
	if err.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", err.Status, http.StatusBadRequest)
	}
	if got := err.Error(); got != "invalid_request: grant_type is required" {
		t.Errorf("Error() = %q", got)
	}
}

func TestConfigurationError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &ConfigurationError{EngineType: "mongo", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is does not reach the wrapped factory error")
	}
	if !strings.Contains(err.Error(), "mongo") {
		t.Errorf("Error() = %q, want engine type included", err.Error())
	}

	// Nil engine from the factory produces a distinct message.
	nilErr := &ConfigurationError{EngineType: "mongo"}
	if !strings.Contains(nilErr.Error(), "no engine") {
		t.Errorf("Error() = %q", nilErr.Error())
	}
}

func TestIdentityResolutionError(t *testing.T) {
	cause := errors.New("no authenticated user")
	err := &IdentityResolutionError{Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is does not reach the wrapped provider error")
	}
	if !strings.Contains(err.Error(), "identity resolution failed") {
		t.Errorf("Error() = %q", err.Error())
	}
}
