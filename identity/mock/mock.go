// Package mock provides a deterministic identity provider for tests.
package mock

import (
	"net/http"

	"github.com/consentgate/oauth2-gateway/identity"
)

// Provider returns a fixed owner ID, or a fixed error when Err is set.
type Provider struct {
	OwnerID string
	Err     error

	// ResolveCalls counts Resolve invocations.
	ResolveCalls int
}

var _ identity.Provider = (*Provider)(nil)

// New creates a mock provider resolving to ownerID.
func New(ownerID string) *Provider {
	return &Provider{OwnerID: ownerID}
}

// Resolve returns the configured owner ID or error.
func (p *Provider) Resolve(*http.Request) (string, error) {
	p.ResolveCalls++
	if p.Err != nil {
		return "", p.Err
	}
	return p.OwnerID, nil
}
