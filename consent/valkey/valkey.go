// Package valkey provides a Valkey-backed consent store for deployments
// where authorize requests for one browser session may land on different
// gateway instances. Each decision is stored under its own key with the
// session TTL, so decisions expire with the session.
package valkey

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/consentgate/oauth2-gateway/consent"
)

const (
	// DefaultKeyPrefix is the default prefix for all consent keys.
	DefaultKeyPrefix = "gateway:"

	// DefaultSessionTTL bounds how long a decision outlives its last write.
	DefaultSessionTTL = 12 * time.Hour

	connectionVerifyTimeout = 5 * time.Second
)

// Config holds configuration for the Valkey consent store.
type Config struct {
	// Address is the Valkey server address (required), e.g. "localhost:6379".
	Address string

	// Password is the optional password for Valkey authentication.
	Password string

	// DB is the optional database number (default 0).
	DB int

	// KeyPrefix is the prefix for all keys (default "gateway:").
	KeyPrefix string

	// SessionTTL is the expiry applied to each decision (default 12h).
	SessionTTL time.Duration

	// TLS is the optional TLS configuration for encrypted connections.
	TLS *tls.Config
}

// Store is a Valkey-backed consent store.
type Store struct {
	client     valkeygo.Client
	keyPrefix  string
	sessionTTL time.Duration
	logger     *slog.Logger
}

var _ consent.Store = (*Store)(nil)

// New creates a Valkey consent store and verifies connectivity.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := valkeygo.NewClient(valkeygo.ClientOption{
		InitAddress: []string{cfg.Address},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
		TLSConfig:   cfg.TLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionVerifyTimeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	return &Store{
		client:     client,
		keyPrefix:  cfg.KeyPrefix,
		sessionTTL: cfg.SessionTTL,
		logger:     logger,
	}, nil
}

// Close releases the underlying Valkey connection.
func (s *Store) Close() {
	s.client.Close()
}

func (s *Store) decisionKey(sessionID, clientID string) string {
	return fmt.Sprintf("%sconsent:%s:%s", s.keyPrefix, sessionID, clientID)
}

// Get returns the active decision for (sessionID, clientID).
func (s *Store) Get(ctx context.Context, sessionID, clientID string) (bool, bool, error) {
	if sessionID == "" || clientID == "" {
		return false, false, fmt.Errorf("session ID and client ID are required")
	}

	key := s.decisionKey(sessionID, clientID)
	value, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get consent decision: %w", err)
	}
	return value == "1", true, nil
}

// Set records a decision, overwriting any prior decision for the pair and
// resetting its expiry to the session TTL.
func (s *Store) Set(ctx context.Context, sessionID, clientID string, granted bool) error {
	if sessionID == "" || clientID == "" {
		return fmt.Errorf("session ID and client ID are required")
	}

	value := "0"
	if granted {
		value = "1"
	}
	key := s.decisionKey(sessionID, clientID)
	err := s.client.Do(ctx,
		s.client.B().Set().Key(key).Value(value).Ex(s.sessionTTL).Build(),
	).Error()
	if err != nil {
		return fmt.Errorf("failed to save consent decision: %w", err)
	}
	return nil
}
