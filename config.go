package gateway

import (
	"errors"
	"log/slog"
	"time"

	"github.com/consentgate/oauth2-gateway/instrumentation"
)

// Default configuration values
const (
	DefaultSessionCookieName = "gateway_session"
	DefaultSessionTTL        = 12 * time.Hour
	DefaultEngineType        = "default"
)

// Config holds the gateway handler configuration
type Config struct {
	// EngineType is the opaque selector passed to the engine factory on
	// first resolution. Default: "default".
	EngineType string

	// DisableProblemErrors switches client-error responses from the
	// problem-detail format (RFC 7807, the default) to raw OAuth2-spec
	// error bodies.
	DisableProblemErrors bool

	// SessionCookieName is the cookie carrying the browser session
	// identifier for consent tracking. Default: "gateway_session".
	SessionCookieName string

	// SessionTTL bounds the session cookie lifetime. Consent decisions
	// recorded under the session share its fate. Default: 12 hours.
	SessionTTL time.Duration

	// Rate limiting for the token endpoint
	RateLimit RateLimitConfig

	// EnableAuditLogging enables security audit logging.
	// Logs consent events, authorize outcomes, and violations
	// (session and owner identifiers hashed).
	EnableAuditLogging bool

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger

	// Instrumentation provides metrics and tracing (optional, a disabled
	// no-op instance is created if not provided)
	Instrumentation *instrumentation.Instrumentation
}

// RateLimitConfig holds token-endpoint rate limiting configuration
type RateLimitConfig struct {
	// Rate is requests per second allowed per IP. Zero disables limiting.
	Rate int

	// Burst is the maximum burst size allowed per IP.
	Burst int

	// MaxEntries caps the number of tracked IPs (LRU eviction beyond it).
	MaxEntries int

	// TrustProxy enables trusting X-Forwarded-For and X-Real-IP headers.
	// Only enable behind a trusted reverse proxy.
	TrustProxy bool

	// TrustedProxyCount is how many proxies to trust from the right of
	// the X-Forwarded-For chain. Zero means one.
	TrustedProxyCount int
}

// applyDefaults fills zero-valued fields with secure defaults.
func (c *Config) applyDefaults() {
	if c.EngineType == "" {
		c.EngineType = DefaultEngineType
	}
	if c.SessionCookieName == "" {
		c.SessionCookieName = DefaultSessionCookieName
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate checks the configuration for unusable combinations.
func (c *Config) Validate() error {
	if c.RateLimit.Rate < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate limit values must not be negative")
	}
	if c.RateLimit.Rate > 0 && c.RateLimit.Burst == 0 {
		return errors.New("rate limiting enabled with zero burst would reject every request")
	}
	return nil
}
