// Package consent defines the store for resource-owner consent decisions.
// A decision is a boolean keyed by (session, client): at most one decision
// is active per pair, a new submission overwrites the prior one, and the
// decision lives only as long as the session. Backends include in-memory
// and Valkey implementations.
package consent

import "context"

// Store persists per-session consent decisions.
//
// Reads and writes for a session are only ever issued by the single
// authorize request currently processing that session, so implementations
// need read-after-write visibility within one call but no cross-writer
// coordination beyond basic thread safety.
type Store interface {
	// Get returns the active decision for (sessionID, clientID). ok is
	// false when no decision has been recorded for the pair.
	Get(ctx context.Context, sessionID, clientID string) (granted bool, ok bool, err error)

	// Set records a decision for (sessionID, clientID), overwriting any
	// prior decision for the pair.
	Set(ctx context.Context, sessionID, clientID string, granted bool) error
}
