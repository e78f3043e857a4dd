// Package memory provides an in-memory consent store. Sessions idle past
// the configured TTL are evicted by a background sweep, mirroring the
// session-scoped lifetime of consent decisions.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/consentgate/oauth2-gateway/consent"
)

const (
	defaultSessionTTL    = 12 * time.Hour
	defaultSweepInterval = time.Minute
)

type sessionEntry struct {
	decisions map[string]bool // client ID -> granted
	lastSeen  time.Time
}

// Store is an in-memory consent store. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry

	sessionTTL    time.Duration
	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once
	logger        *slog.Logger
}

var _ consent.Store = (*Store)(nil)

// New creates a store with the default session TTL (12 hours) and sweep
// interval (1 minute).
func New(logger *slog.Logger) *Store {
	return NewWithTTL(defaultSessionTTL, defaultSweepInterval, logger)
}

// NewWithTTL creates a store with a custom session TTL and sweep interval.
// Non-positive values fall back to the defaults.
func NewWithTTL(sessionTTL, sweepInterval time.Duration, logger *slog.Logger) *Store {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		sessions:      make(map[string]*sessionEntry),
		sessionTTL:    sessionTTL,
		sweepInterval: sweepInterval,
		stopSweep:     make(chan struct{}),
		logger:        logger,
	}
	go s.sweepLoop()
	return s
}

// Get returns the active decision for (sessionID, clientID). Touching a
// session refreshes its idle timer.
func (s *Store) Get(_ context.Context, sessionID, clientID string) (bool, bool, error) {
	if sessionID == "" || clientID == "" {
		return false, false, fmt.Errorf("session ID and client ID are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return false, false, nil
	}
	entry.lastSeen = time.Now()

	granted, ok := entry.decisions[clientID]
	return granted, ok, nil
}

// Set records a decision, overwriting any prior decision for the pair.
func (s *Store) Set(_ context.Context, sessionID, clientID string, granted bool) error {
	if sessionID == "" || clientID == "" {
		return fmt.Errorf("session ID and client ID are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		entry = &sessionEntry{decisions: make(map[string]bool)}
		s.sessions[sessionID] = entry
	}
	entry.decisions[clientID] = granted
	entry.lastSeen = time.Now()
	return nil
}

// Stop terminates the background sweep goroutine.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopSweep)
	})
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep evicts sessions idle past the TTL.
func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for sessionID, entry := range s.sessions {
		if now.Sub(entry.lastSeen) > s.sessionTTL {
			delete(s.sessions, sessionID)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug("Evicted expired consent sessions",
			"evicted", evicted,
			"remaining", len(s.sessions))
	}
}

// sessionCount reports the number of live sessions (for tests).
func (s *Store) sessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
