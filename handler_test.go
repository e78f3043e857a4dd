package gateway

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	consentmem "github.com/consentgate/oauth2-gateway/consent/memory"
	"github.com/consentgate/oauth2-gateway/engine"
	enginemem "github.com/consentgate/oauth2-gateway/engine/memory"
	identitymock "github.com/consentgate/oauth2-gateway/identity/mock"
	"github.com/consentgate/oauth2-gateway/internal/testutil"
	"github.com/consentgate/oauth2-gateway/protocol"
)

const (
	testClientID     = "client-1"
	testClientSecret = "secret-1"
	testRedirectURI  = "https://client.example/cb"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestHandler wires a handler around the in-memory engine, an in-memory
// consent store, and a mock identity provider resolving to "owner-1".
func newTestHandler(t *testing.T, cfg Config) (*Handler, *identitymock.Provider) {
	t.Helper()

	eng := enginemem.New(testLogger())
	if err := eng.RegisterClient(testClientID, testClientSecret, testRedirectURI); err != nil {
		t.Fatalf("RegisterClient() error = %v", err)
	}

	store := consentmem.New(testLogger())
	t.Cleanup(store.Stop)

	idp := identitymock.New("owner-1")

	if cfg.Logger == nil {
		cfg.Logger = testLogger()
	}
	factory := engine.FactoryFunc(func(string) (engine.Engine, error) {
		return eng, nil
	})

	h, err := NewHandler(factory, idp, store, cfg)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	t.Cleanup(h.Close)
	return h, idp
}

func TestNewHandler_RequiresCollaborators(t *testing.T) {
	factory := engine.FactoryFunc(func(string) (engine.Engine, error) {
		return enginemem.New(testLogger()), nil
	})
	idp := identitymock.New("owner-1")
	store := consentmem.New(testLogger())
	defer store.Stop()

	if _, err := NewHandler(nil, idp, store, Config{}); err == nil {
		t.Error("nil factory accepted")
	}
	if _, err := NewHandler(factory, nil, store, Config{}); err == nil {
		t.Error("nil identity provider accepted")
	}
	if _, err := NewHandler(factory, idp, nil, Config{}); err == nil {
		t.Error("nil consent store accepted")
	}
	if _, err := NewHandler(factory, idp, store, Config{RateLimit: RateLimitConfig{Rate: 5}}); err == nil {
		t.Error("invalid rate limit config accepted")
	}
}

func TestServeToken_OptionsPassthrough(t *testing.T) {
	h, _ := newTestHandler(t, Config{})

	rr := testutil.NewHTTPRequest(http.MethodOptions, "/oauth/token").
		Do(http.HandlerFunc(h.ServeToken))

	testutil.AssertEqual(t, rr.Code, http.StatusNoContent)
	if rr.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("preflight response missing CORS headers")
	}
	if rr.Body.Len() != 0 {
		t.Errorf("preflight response carries a body: %q", rr.Body.String())
	}
}

func TestServeToken_RejectsNonPost(t *testing.T) {
	h, _ := newTestHandler(t, Config{})

	rr := testutil.NewHTTPRequest(http.MethodGet, "/oauth/token").
		Do(http.HandlerFunc(h.ServeToken))

	testutil.AssertEqual(t, rr.Code, http.StatusMethodNotAllowed)
}

func TestServeToken_MissingGrantProblemFormat(t *testing.T) {
	h, _ := newTestHandler(t, Config{})

	rr := testutil.NewHTTPRequest(http.MethodPost, "/oauth/token").
		WithForm(url.Values{}).
		Do(http.HandlerFunc(h.ServeToken))

	// Problem formatting is the default; the problem status must equal the
	// engine's status code.
	testutil.AssertEqual(t, rr.Code, http.StatusBadRequest)
	testutil.AssertEqual(t, rr.Header().Get("Content-Type"), protocol.ProblemMediaType)

	var p protocol.Problem
	testutil.AssertNoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	testutil.AssertEqual(t, p.Status, http.StatusBadRequest)
	testutil.AssertEqual(t, p.Title, "invalid_request")
}

func TestServeToken_MissingGrantRawFormat(t *testing.T) {
	h, _ := newTestHandler(t, Config{DisableProblemErrors: true})

	rr := testutil.NewHTTPRequest(http.MethodPost, "/oauth/token").
		WithForm(url.Values{}).
		Do(http.HandlerFunc(h.ServeToken))

	testutil.AssertEqual(t, rr.Code, http.StatusBadRequest)
	testutil.AssertEqual(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	testutil.AssertNoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	testutil.AssertEqual(t, body["error"], "invalid_request")
}

func TestServeToken_ClientCredentialsGrant(t *testing.T) {
	h, _ := newTestHandler(t, Config{})

	rr := clientCredentialsRequest(h)

	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	var body map[string]string
	testutil.AssertNoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	if body["access_token"] == "" {
		t.Error("token response missing access_token")
	}
	testutil.AssertEqual(t, body["token_type"], "Bearer")
	testutil.AssertEqual(t, rr.Header().Get("Cache-Control"), "no-store")
}

func TestServeToken_RateLimited(t *testing.T) {
	h, _ := newTestHandler(t, Config{
		RateLimit: RateLimitConfig{Rate: 1, Burst: 1},
	})

	first := clientCredentialsRequest(h)
	testutil.AssertEqual(t, first.Code, http.StatusOK)

	second := clientCredentialsRequest(h)
	testutil.AssertEqual(t, second.Code, http.StatusTooManyRequests)
}

func TestServeResource_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t, Config{})

	rr := testutil.NewHTTPRequest(http.MethodGet, "/oauth/resource").
		Do(http.HandlerFunc(h.ServeResource))

	testutil.AssertEqual(t, rr.Code, http.StatusUnauthorized)

	var p protocol.Problem
	testutil.AssertNoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	testutil.AssertEqual(t, p.Title, "invalid_token")
}

func TestServeResource_Success(t *testing.T) {
	h, _ := newTestHandler(t, Config{})

	tokenResp := clientCredentialsRequest(h)
	testutil.AssertEqual(t, tokenResp.Code, http.StatusOK)
	var token map[string]string
	testutil.AssertNoError(t, json.Unmarshal(tokenResp.Body.Bytes(), &token))

	rr := testutil.NewHTTPRequest(http.MethodGet, "/oauth/resource").
		WithHeader("Authorization", "Bearer "+token["access_token"]).
		Do(http.HandlerFunc(h.ServeResource))

	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertEqual(t, rr.Body.String(), resourceSuccessBody)
}

func TestServeReceiveCode_EscapesCode(t *testing.T) {
	h, _ := newTestHandler(t, Config{})

	rr := testutil.NewHTTPRequest(http.MethodGet, "/oauth/receive-code?code="+url.QueryEscape("<script>alert(1)</script>")).
		Do(http.HandlerFunc(h.ServeReceiveCode))

	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertStringContains(t, rr.Body.String(), "&lt;script&gt;")
	if strings.Contains(rr.Body.String(), "<script>alert") {
		t.Error("code value was not escaped")
	}
}

func TestServeReceiveCode_NoCode(t *testing.T) {
	h, _ := newTestHandler(t, Config{})

	rr := testutil.NewHTTPRequest(http.MethodGet, "/oauth/receive-code").
		Do(http.HandlerFunc(h.ServeReceiveCode))

	testutil.AssertEqual(t, rr.Code, http.StatusOK)
	testutil.AssertStringContains(t, rr.Body.String(), "No authorization code")
}

func clientCredentialsRequest(h *Handler) *httptest.ResponseRecorder {
	return testutil.NewHTTPRequest(http.MethodPost, "/oauth/token").
		WithForm(url.Values{"grant_type": {"client_credentials"}}).
		WithHeader("Authorization", basicAuth(testClientID, testClientSecret)).
		Do(http.HandlerFunc(h.ServeToken))
}

func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}
