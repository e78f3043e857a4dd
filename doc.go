// Package gateway is the HTTP boundary layer of an OAuth2 authorization
// server. It translates inbound HTTP requests into protocol-neutral request
// and response values, drives the interactive authorization-consent flow,
// and delegates the protocol state machine (grant validation, code and
// token issuance, verification) to an external engine obtained from an
// injected factory.
//
// The gateway is a library, not a daemon: mount the Handler's Serve methods
// on your own router. Consent decisions are session-scoped, kept in a
// pluggable consent.Store; resource-owner identity comes from a pluggable
// identity.Provider invoked only once consent has been granted.
package gateway
