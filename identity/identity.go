// Package identity defines the capability that resolves the authenticated
// resource owner from the current HTTP request. Implementations may consult
// sessions, headers, or an external identity store; the gateway invokes the
// provider only at the moment consent has been granted, immediately before
// completing the authorize handshake.
package identity

import "net/http"

// Provider resolves the resource owner's identifier from an HTTP request.
// The returned identifier is opaque to the gateway and passed through to
// the engine's authorize-completion call without interpretation.
//
// A resolution failure is fatal for the current authorize attempt: the
// gateway shows the browser a generic error instead of a protocol redirect,
// so a partial grant never leaks to the client.
type Provider interface {
	Resolve(r *http.Request) (string, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(r *http.Request) (string, error)

// Resolve calls f.
func (f ProviderFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}
