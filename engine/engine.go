// Package engine defines the contract between the gateway and an external
// OAuth2 protocol engine. The engine owns the protocol state machine (grant
// validation, code and token generation, signature and expiry checks); the
// gateway only translates HTTP traffic into protocol values and back.
package engine

import (
	"context"

	"github.com/consentgate/oauth2-gateway/protocol"
)

// Engine is the external OAuth2 protocol implementation the gateway adapts
// to and from HTTP.
type Engine interface {
	// ValidateAuthorizeRequest validates an inbound authorize request
	// (client id, redirect URI, scope, response type). On failure it
	// populates resp with the protocol error and returns false.
	ValidateAuthorizeRequest(ctx context.Context, req *protocol.Request, resp *protocol.Response) bool

	// HandleAuthorizeRequest completes the authorize step with the
	// resource owner's consent decision and identity. On success resp
	// carries a Location header redirecting to the client's redirect URI
	// with either an authorization code (granted) or an access_denied
	// error (denied), per OAuth2 semantics.
	HandleAuthorizeRequest(ctx context.Context, req *protocol.Request, resp *protocol.Response, authorized bool, ownerID string)

	// HandleTokenRequest processes a token issuance request and returns
	// the protocol response (token payload or error).
	HandleTokenRequest(ctx context.Context, req *protocol.Request) *protocol.Response

	// VerifyResourceRequest verifies the inbound request as an
	// authenticated resource request. On failure it returns false and a
	// response carrying the protocol error.
	VerifyResourceRequest(ctx context.Context, req *protocol.Request) (bool, *protocol.Response)
}

// Factory constructs engine instances keyed by an opaque type selector
// (which storage backend or grant set to use). A factory that cannot
// produce an engine for the selector must return an error; returning a nil
// engine with a nil error is a configuration defect.
type Factory interface {
	New(engineType string) (Engine, error)
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc func(engineType string) (Engine, error)

// New calls f.
func (f FactoryFunc) New(engineType string) (Engine, error) {
	return f(engineType)
}
