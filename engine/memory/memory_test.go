package memory

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/consentgate/oauth2-gateway/protocol"
)

const (
	testClientID    = "test-client"
	testSecret      = "test-secret"
	testRedirectURI = "https://client.example/cb"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(nil)
	if err := e.RegisterClient(testClientID, testSecret, testRedirectURI); err != nil {
		t.Fatalf("RegisterClient() error = %v", err)
	}
	return e
}

func authorizeRequest(query url.Values) *protocol.Request {
	r := httptest.NewRequest("GET", "/oauth/authorize?"+query.Encode(), nil)
	return protocol.NewRequest(r)
}

func defaultAuthorizeQuery() url.Values {
	return url.Values{
		"client_id":     {testClientID},
		"redirect_uri":  {testRedirectURI},
		"response_type": {"code"},
		"state":         {"xyz"},
	}
}

func TestValidateAuthorizeRequest(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(url.Values)
		wantValid bool
		wantError string
	}{
		{
			name:      "valid request",
			mutate:    func(url.Values) {},
			wantValid: true,
		},
		{
			name:      "missing client_id",
			mutate:    func(q url.Values) { q.Del("client_id") },
			wantError: "invalid_request",
		},
		{
			name:      "unknown client",
			mutate:    func(q url.Values) { q.Set("client_id", "nobody") },
			wantError: "unauthorized_client",
		},
		{
			name:      "unregistered redirect_uri",
			mutate:    func(q url.Values) { q.Set("redirect_uri", "https://evil.example/cb") },
			wantError: "invalid_request",
		},
		{
			name:      "wrong response_type",
			mutate:    func(q url.Values) { q.Set("response_type", "token") },
			wantError: "unsupported_response_type",
		},
		{
			name:      "redirect_uri defaulted from registration",
			mutate:    func(q url.Values) { q.Del("redirect_uri") },
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			query := defaultAuthorizeQuery()
			tt.mutate(query)

			resp := protocol.NewResponse()
			valid := e.ValidateAuthorizeRequest(context.Background(), authorizeRequest(query), resp)

			if valid != tt.wantValid {
				t.Fatalf("ValidateAuthorizeRequest() = %v, want %v (resp=%v)", valid, tt.wantValid, resp.Parameters)
			}
			if !tt.wantValid {
				if got := resp.Parameter(protocol.ParamError); got != tt.wantError {
					t.Errorf("error = %q, want %q", got, tt.wantError)
				}
				if !resp.IsClientError() {
					t.Errorf("status = %d, want 4xx", resp.StatusCode)
				}
			}
		})
	}
}

func TestHandleAuthorizeRequest_Granted(t *testing.T) {
	e := newTestEngine(t)
	resp := protocol.NewResponse()

	e.HandleAuthorizeRequest(context.Background(), authorizeRequest(defaultAuthorizeQuery()), resp, true, "owner-1")

	loc := resp.Location()
	if loc == "" {
		t.Fatalf("no Location header; resp=%v", resp.Parameters)
	}
	parsed, err := url.Parse(loc)
	if err != nil {
		t.Fatalf("Location is not a URL: %v", err)
	}
	if !strings.HasPrefix(loc, testRedirectURI) {
		t.Errorf("Location = %q, want prefix %q", loc, testRedirectURI)
	}
	if parsed.Query().Get("code") == "" {
		t.Error("redirect carries no authorization code")
	}
	if got := parsed.Query().Get("state"); got != "xyz" {
		t.Errorf("state = %q, want xyz", got)
	}
}

func TestHandleAuthorizeRequest_Denied(t *testing.T) {
	e := newTestEngine(t)
	resp := protocol.NewResponse()

	e.HandleAuthorizeRequest(context.Background(), authorizeRequest(defaultAuthorizeQuery()), resp, false, "owner-1")

	parsed, err := url.Parse(resp.Location())
	if err != nil || resp.Location() == "" {
		t.Fatalf("Location = %q, err = %v", resp.Location(), err)
	}
	if got := parsed.Query().Get("error"); got != "access_denied" {
		t.Errorf("error = %q, want access_denied", got)
	}
	if parsed.Query().Get("code") != "" {
		t.Error("denied redirect must not carry a code")
	}
}

// issueCode runs a granted authorize step and returns the minted code.
func issueCode(t *testing.T, e *Engine, ownerID string) string {
	t.Helper()
	resp := protocol.NewResponse()
	e.HandleAuthorizeRequest(context.Background(), authorizeRequest(defaultAuthorizeQuery()), resp, true, ownerID)
	parsed, err := url.Parse(resp.Location())
	if err != nil {
		t.Fatalf("bad redirect: %v", err)
	}
	code := parsed.Query().Get("code")
	if code == "" {
		t.Fatal("no code issued")
	}
	return code
}

func tokenRequest(body url.Values, basicAuth bool) *protocol.Request {
	r := httptest.NewRequest("POST", "/oauth/token", strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicAuth {
		r.SetBasicAuth(testClientID, testSecret)
	}
	return protocol.NewRequest(r)
}

func TestHandleTokenRequest_AuthorizationCode(t *testing.T) {
	e := newTestEngine(t)
	code := issueCode(t, e, "owner-1")

	resp := e.HandleTokenRequest(context.Background(), tokenRequest(url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {testRedirectURI},
	}, true))

	if resp.IsError() {
		t.Fatalf("token request failed: %v", resp.Parameters)
	}
	if resp.Parameter("access_token") == "" {
		t.Error("no access_token in response")
	}
	if got := resp.Parameter("token_type"); got != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", got)
	}
}

func TestHandleTokenRequest_CodeReplay(t *testing.T) {
	e := newTestEngine(t)
	code := issueCode(t, e, "owner-1")
	body := url.Values{"grant_type": {"authorization_code"}, "code": {code}}

	first := e.HandleTokenRequest(context.Background(), tokenRequest(body, true))
	if first.IsError() {
		t.Fatalf("first exchange failed: %v", first.Parameters)
	}

	second := e.HandleTokenRequest(context.Background(), tokenRequest(body, true))
	if got := second.Parameter(protocol.ParamError); got != "invalid_grant" {
		t.Errorf("replayed code error = %q, want invalid_grant", got)
	}
}

func TestHandleTokenRequest_ClientCredentials(t *testing.T) {
	e := newTestEngine(t)

	resp := e.HandleTokenRequest(context.Background(), tokenRequest(url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"probe"},
	}, true))

	if resp.IsError() {
		t.Fatalf("token request failed: %v", resp.Parameters)
	}
	if got := resp.Parameter("scope"); got != "probe" {
		t.Errorf("scope = %q, want probe", got)
	}
}

func TestHandleTokenRequest_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       url.Values
		basicAuth  bool
		wantError  string
		wantStatus int
	}{
		{
			name:       "missing grant_type",
			body:       url.Values{},
			basicAuth:  true,
			wantError:  "invalid_request",
			wantStatus: 400,
		},
		{
			name:       "no client credentials",
			body:       url.Values{"grant_type": {"client_credentials"}},
			wantError:  "invalid_client",
			wantStatus: 401,
		},
		{
			name:       "bad secret via body params",
			body:       url.Values{"grant_type": {"client_credentials"}, "client_id": {testClientID}, "client_secret": {"wrong"}},
			wantError:  "invalid_client",
			wantStatus: 401,
		},
		{
			name:       "unsupported grant",
			body:       url.Values{"grant_type": {"password"}},
			basicAuth:  true,
			wantError:  "unsupported_grant_type",
			wantStatus: 400,
		},
		{
			name:       "unknown code",
			body:       url.Values{"grant_type": {"authorization_code"}, "code": {"bogus"}},
			basicAuth:  true,
			wantError:  "invalid_grant",
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			resp := e.HandleTokenRequest(context.Background(), tokenRequest(tt.body, tt.basicAuth))

			if got := resp.Parameter(protocol.ParamError); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestVerifyResourceRequest(t *testing.T) {
	e := newTestEngine(t)

	tokenResp := e.HandleTokenRequest(context.Background(), tokenRequest(url.Values{
		"grant_type": {"client_credentials"},
	}, true))
	token := tokenResp.Parameter("access_token")

	resourceReq := func(auth string) *protocol.Request {
		r := httptest.NewRequest("GET", "/oauth/resource", nil)
		if auth != "" {
			r.Header.Set("Authorization", auth)
		}
		return protocol.NewRequest(r)
	}

	ok, _ := e.VerifyResourceRequest(context.Background(), resourceReq("Bearer "+token))
	if !ok {
		t.Error("valid token rejected")
	}

	ok, resp := e.VerifyResourceRequest(context.Background(), resourceReq("Bearer bogus"))
	if ok {
		t.Error("bogus token accepted")
	}
	if resp.StatusCode != 401 || resp.Parameter(protocol.ParamError) != "invalid_token" {
		t.Errorf("resp = %d %v, want 401 invalid_token", resp.StatusCode, resp.Parameters)
	}

	ok, resp = e.VerifyResourceRequest(context.Background(), resourceReq(""))
	if ok {
		t.Error("missing credential accepted")
	}
	if got := resp.Header("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", got)
	}
}

func TestVerifyResourceRequest_ExpiredToken(t *testing.T) {
	e := newTestEngine(t)
	e.tokenTTL = -time.Minute

	tokenResp := e.HandleTokenRequest(context.Background(), tokenRequest(url.Values{
		"grant_type": {"client_credentials"},
	}, true))
	token := tokenResp.Parameter("access_token")

	r := httptest.NewRequest("GET", "/oauth/resource", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	ok, resp := e.VerifyResourceRequest(context.Background(), protocol.NewRequest(r))
	if ok {
		t.Error("expired token accepted")
	}
	if resp.StatusCode != 401 {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
