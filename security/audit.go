// Package security provides the security features of the gateway: audit
// logging with PII protection and request rate limiting.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor handles security event logging with PII protection. Session and
// owner identifiers are hashed before logging; client identifiers are
// public protocol values and logged as-is.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor.
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event.
type Event struct {
	Type      string
	SessionID string
	OwnerID   string
	ClientID  string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event with hashed PII. Nil-safe on a nil
// receiver so call sites need no guard.
func (a *Auditor) LogEvent(event Event) {
	if a == nil || !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"session_hash", hashForLogging(event.SessionID),
		"owner_hash", hashForLogging(event.OwnerID),
		"client_id", event.ClientID,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogConsentPrompt logs that a consent prompt was rendered for a client.
func (a *Auditor) LogConsentPrompt(sessionID, clientID string) {
	a.LogEvent(Event{
		Type:      "consent_prompt",
		SessionID: sessionID,
		ClientID:  clientID,
	})
}

// LogConsentDecision logs a recorded consent decision.
func (a *Auditor) LogConsentDecision(sessionID, clientID string, granted bool) {
	a.LogEvent(Event{
		Type:      "consent_decision",
		SessionID: sessionID,
		ClientID:  clientID,
		Details: map[string]any{
			"granted": granted,
		},
	})
}

// LogAuthorizeCompleted logs a completed authorize attempt (redirect issued).
func (a *Auditor) LogAuthorizeCompleted(sessionID, ownerID, clientID string, granted bool) {
	a.LogEvent(Event{
		Type:      "authorize_completed",
		SessionID: sessionID,
		OwnerID:   ownerID,
		ClientID:  clientID,
		Details: map[string]any{
			"granted": granted,
		},
	})
}

// LogAuthorizeRejected logs an authorize request rejected by validation.
func (a *Auditor) LogAuthorizeRejected(sessionID, clientID, reason string) {
	a.LogEvent(Event{
		Type:      "authorize_rejected",
		SessionID: sessionID,
		ClientID:  clientID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogIdentityResolutionFailed logs an identity provider failure. The error
// text stays out of the browser response; the audit trail keeps it.
func (a *Auditor) LogIdentityResolutionFailed(sessionID, clientID, reason string) {
	a.LogEvent(Event{
		Type:      "identity_resolution_failed",
		SessionID: sessionID,
		ClientID:  clientID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogResourceDenied logs a rejected resource-access verification.
func (a *Auditor) LogResourceDenied(reason string) {
	a.LogEvent(Event{
		Type: "resource_denied",
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogRateLimitExceeded logs a rate limit violation.
func (a *Auditor) LogRateLimitExceeded(identifier, endpoint string) {
	a.LogEvent(Event{
		Type:      "rate_limit_exceeded",
		SessionID: identifier,
		Details: map[string]any{
			"endpoint": endpoint,
		},
	})
}

// hashForLogging creates a truncated SHA256 hash of sensitive data.
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
