// Package memory provides a compact in-process OAuth2 engine implementing
// the engine.Engine contract. It supports the authorization-code and
// client-credentials grants with an in-memory client registry and is
// suitable for development, testing, and conformance probing.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/consentgate/oauth2-gateway/engine"
	"github.com/consentgate/oauth2-gateway/protocol"
)

// OAuth2 error codes emitted by this engine (RFC 6749).
const (
	errInvalidRequest          = "invalid_request"
	errInvalidClient           = "invalid_client"
	errInvalidGrant            = "invalid_grant"
	errUnauthorizedClient      = "unauthorized_client"
	errUnsupportedGrantType    = "unsupported_grant_type"
	errUnsupportedResponseType = "unsupported_response_type"
	errAccessDenied            = "access_denied"
	errInvalidToken            = "invalid_token"
)

const (
	defaultCodeTTL  = 10 * time.Minute
	defaultTokenTTL = time.Hour
)

// Client is a registered OAuth2 client.
type Client struct {
	ID           string
	SecretHash   string // bcrypt hash; empty for public clients
	RedirectURIs []string
}

type authCode struct {
	clientID    string
	redirectURI string
	scope       string
	ownerID     string
	expiresAt   time.Time
	used        bool
}

type accessToken struct {
	token    *oauth2.Token
	clientID string
	ownerID  string
	scope    string
}

// Engine is an in-memory OAuth2 engine. Safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	clients map[string]*Client
	codes   map[string]*authCode
	tokens  map[string]*accessToken

	codeTTL  time.Duration
	tokenTTL time.Duration
	logger   *slog.Logger
}

var _ engine.Engine = (*Engine)(nil)

// New creates an in-memory engine with default code and token lifetimes.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		clients:  make(map[string]*Client),
		codes:    make(map[string]*authCode),
		tokens:   make(map[string]*accessToken),
		codeTTL:  defaultCodeTTL,
		tokenTTL: defaultTokenTTL,
		logger:   logger,
	}
}

// RegisterClient adds a client to the registry. The secret is stored as a
// bcrypt hash; pass an empty secret for a public client.
func (e *Engine) RegisterClient(clientID, secret string, redirectURIs ...string) error {
	if clientID == "" {
		return fmt.Errorf("client ID is required")
	}

	var secretHash string
	if secret != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash client secret: %w", err)
		}
		secretHash = string(hash)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.clients[clientID] = &Client{
		ID:           clientID,
		SecretHash:   secretHash,
		RedirectURIs: redirectURIs,
	}
	return nil
}

// ValidateAuthorizeRequest checks client_id, redirect_uri and response_type.
func (e *Engine) ValidateAuthorizeRequest(_ context.Context, req *protocol.Request, resp *protocol.Response) bool {
	clientID := req.QueryParam("client_id")
	if clientID == "" {
		resp.SetError(400, errInvalidRequest, "client_id is required", "")
		return false
	}

	e.mu.RLock()
	client, ok := e.clients[clientID]
	e.mu.RUnlock()
	if !ok {
		resp.SetError(400, errUnauthorizedClient, "unknown client", "")
		return false
	}

	if _, err := e.resolveRedirectURI(client, req.QueryParam("redirect_uri")); err != nil {
		resp.SetError(400, errInvalidRequest, err.Error(), "")
		return false
	}

	if rt := req.QueryParam("response_type"); rt != "code" {
		resp.SetError(400, errUnsupportedResponseType, "only the code response type is supported", "")
		return false
	}

	return true
}

// resolveRedirectURI validates an explicit redirect_uri against the client's
// registered URIs, or falls back to a sole registered URI when absent.
func (e *Engine) resolveRedirectURI(client *Client, redirectURI string) (string, error) {
	if redirectURI == "" {
		if len(client.RedirectURIs) == 1 {
			return client.RedirectURIs[0], nil
		}
		return "", fmt.Errorf("redirect_uri is required")
	}
	for _, registered := range client.RedirectURIs {
		if registered == redirectURI {
			return redirectURI, nil
		}
	}
	return "", fmt.Errorf("redirect_uri is not registered for the client")
}

// HandleAuthorizeRequest completes the authorize step. Both outcomes are
// redirects: granted carries a fresh authorization code, denied carries an
// access_denied error, each with the client's state echoed back.
func (e *Engine) HandleAuthorizeRequest(_ context.Context, req *protocol.Request, resp *protocol.Response, authorized bool, ownerID string) {
	clientID := req.QueryParam("client_id")

	e.mu.Lock()
	defer e.mu.Unlock()

	client, ok := e.clients[clientID]
	if !ok {
		resp.SetError(400, errUnauthorizedClient, "unknown client", "")
		return
	}
	redirectURI, err := e.resolveRedirectURI(client, req.QueryParam("redirect_uri"))
	if err != nil {
		resp.SetError(400, errInvalidRequest, err.Error(), "")
		return
	}

	params := url.Values{}
	if state := req.QueryParam("state"); state != "" {
		params.Set("state", state)
	}

	if !authorized {
		params.Set("error", errAccessDenied)
		params.Set("error_description", "the resource owner denied the request")
		resp.SetRedirect(appendQuery(redirectURI, params))
		return
	}

	code := oauth2.GenerateVerifier()
	e.codes[code] = &authCode{
		clientID:    clientID,
		redirectURI: redirectURI,
		scope:       req.QueryParam("scope"),
		ownerID:     ownerID,
		expiresAt:   time.Now().Add(e.codeTTL),
	}

	params.Set("code", code)
	resp.SetRedirect(appendQuery(redirectURI, params))
}

// appendQuery attaches params to uri, preserving any existing query string.
func appendQuery(uri string, params url.Values) string {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + params.Encode()
}

// HandleTokenRequest processes the authorization_code and client_credentials
// grants. Client credentials arrive either via the synthetic Basic-Auth
// header fields or as body parameters.
func (e *Engine) HandleTokenRequest(_ context.Context, req *protocol.Request) *protocol.Response {
	resp := protocol.NewResponse()

	grantType := req.BodyParam("grant_type")
	if grantType == "" {
		resp.SetError(400, errInvalidRequest, "grant_type is required", "")
		return resp
	}

	client, ok := e.authenticateClient(req)
	if !ok {
		resp.SetError(401, errInvalidClient, "client authentication failed", "")
		resp.SetHeader("WWW-Authenticate", "Basic")
		return resp
	}

	switch grantType {
	case "authorization_code":
		e.handleCodeGrant(req, resp, client)
	case "client_credentials":
		e.issueToken(resp, client.ID, client.ID, req.BodyParam("scope"))
	default:
		resp.SetError(400, errUnsupportedGrantType, fmt.Sprintf("grant type %q is not supported", grantType), "")
	}
	return resp
}

// authenticateClient resolves and verifies the requesting client.
func (e *Engine) authenticateClient(req *protocol.Request) (*Client, bool) {
	clientID := req.Header(protocol.HeaderAuthUser)
	secret := req.Header(protocol.HeaderAuthPassword)
	if clientID == "" {
		clientID = req.BodyParam("client_id")
		secret = req.BodyParam("client_secret")
	}
	if clientID == "" {
		return nil, false
	}

	e.mu.RLock()
	client, ok := e.clients[clientID]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if client.SecretHash == "" {
		// Public client; no secret to verify.
		return client, secret == ""
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(secret)); err != nil {
		return nil, false
	}
	return client, true
}

func (e *Engine) handleCodeGrant(req *protocol.Request, resp *protocol.Response, client *Client) {
	code := req.BodyParam("code")
	if code == "" {
		resp.SetError(400, errInvalidRequest, "code is required", "")
		return
	}

	e.mu.Lock()
	grant, ok := e.codes[code]
	switch {
	case !ok, grant.used, time.Now().After(grant.expiresAt):
		e.mu.Unlock()
		resp.SetError(400, errInvalidGrant, "authorization code is invalid or expired", "")
		return
	case grant.clientID != client.ID:
		e.mu.Unlock()
		resp.SetError(400, errInvalidGrant, "authorization code was issued to another client", "")
		return
	}
	if redirectURI := req.BodyParam("redirect_uri"); redirectURI != "" && redirectURI != grant.redirectURI {
		e.mu.Unlock()
		resp.SetError(400, errInvalidGrant, "redirect_uri does not match the authorization request", "")
		return
	}
	grant.used = true
	e.mu.Unlock()

	e.issueToken(resp, client.ID, grant.ownerID, grant.scope)
}

// issueToken mints an opaque bearer token and writes the token payload.
func (e *Engine) issueToken(resp *protocol.Response, clientID, ownerID, scope string) {
	tok := &oauth2.Token{
		AccessToken: oauth2.GenerateVerifier(),
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(e.tokenTTL),
	}

	e.mu.Lock()
	e.tokens[tok.AccessToken] = &accessToken{
		token:    tok,
		clientID: clientID,
		ownerID:  ownerID,
		scope:    scope,
	}
	e.mu.Unlock()

	resp.SetParameter("access_token", tok.AccessToken)
	resp.SetParameter("token_type", tok.TokenType)
	resp.SetParameter("expires_in", strconv.Itoa(int(e.tokenTTL/time.Second)))
	if scope != "" {
		resp.SetParameter("scope", scope)
	}
	resp.SetHeader("Cache-Control", "no-store")
	resp.SetHeader("Pragma", "no-cache")
}

// VerifyResourceRequest checks the bearer credential on an inbound request.
func (e *Engine) VerifyResourceRequest(_ context.Context, req *protocol.Request) (bool, *protocol.Response) {
	auth := req.Header("Authorization")
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || raw == "" {
		resp := protocol.NewResponse()
		resp.SetError(401, errInvalidToken, "missing bearer credential", "")
		resp.SetHeader("WWW-Authenticate", "Bearer")
		return false, resp
	}

	e.mu.RLock()
	stored, found := e.tokens[raw]
	e.mu.RUnlock()

	if !found || !stored.token.Valid() {
		resp := protocol.NewResponse()
		resp.SetError(401, errInvalidToken, "the access token is invalid or expired", "")
		resp.SetHeader("WWW-Authenticate", "Bearer")
		return false, resp
	}
	return true, nil
}
