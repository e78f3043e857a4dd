// Package protocol holds the transport-neutral OAuth2 request and response
// values exchanged with an engine, plus the adapters that translate them
// to and from net/http. Engines never see *http.Request directly; the
// gateway builds a protocol.Request once per inbound call and hands the
// engine a fresh protocol.Response to populate.
package protocol

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// Synthetic header fields carrying HTTP Basic-Auth credentials.
//
// The client-credential grant commonly rides on HTTP Basic Auth, and engines
// expect the decoded username/password as header-equivalent fields rather
// than as a transport construct. These names are part of the engine contract.
const (
	HeaderAuthUser     = "Auth-User"
	HeaderAuthPassword = "Auth-Password"
)

// maxBodyBytes caps how much request body is buffered into a Request.
// OAuth2 grant parameters are tiny; anything larger is not a protocol request.
const maxBodyBytes = 1 << 20

// Request is an immutable snapshot of an inbound OAuth2 protocol request.
// It is constructed once per call via NewRequest and never mutated.
type Request struct {
	// Query holds the URL query parameters (first value per key).
	Query map[string]string

	// Body holds the body parameters, parsed according to content type.
	// Never nil; empty when the request carries no parseable body.
	Body map[string]string

	// Headers holds all request headers under canonical MIME keys
	// (first value per key), plus the synthetic Basic-Auth fields.
	Headers map[string]string

	// Method is the HTTP request method, always populated.
	Method string

	// ContentType is the media type of the request body, without parameters.
	// Empty when the request carries no Content-Type header.
	ContentType string

	// RawBody is the unparsed request body.
	RawBody []byte
}

// NewRequest builds a protocol Request from an HTTP request.
//
// It extracts query parameters, parses body parameters per content type
// (form-encoded and JSON bodies are understood; anything else yields an
// empty map), copies all headers, and seeds the synthetic Auth-User and
// Auth-Password fields from HTTP Basic-Auth credentials when present.
// Absent pieces become empty maps or strings; NewRequest never fails.
func NewRequest(r *http.Request) *Request {
	req := &Request{
		Query:   make(map[string]string),
		Body:    make(map[string]string),
		Headers: make(map[string]string),
		Method:  r.Method,
	}

	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			req.Query[key] = values[0]
		}
	}

	for key, values := range r.Header {
		if len(values) > 0 {
			req.Headers[http.CanonicalHeaderKey(key)] = values[0]
		}
	}

	if user, password, ok := r.BasicAuth(); ok {
		req.Headers[HeaderAuthUser] = user
		req.Headers[HeaderAuthPassword] = password
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			req.ContentType = mediaType
		} else {
			req.ContentType = ct
		}
	}

	if r.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err == nil && len(raw) > 0 {
			req.RawBody = raw
			req.Body = parseBodyParams(req.ContentType, raw)
		}
	}

	return req
}

// parseBodyParams parses body parameters according to the content type.
// Unknown content types and malformed bodies yield an empty map.
func parseBodyParams(contentType string, raw []byte) map[string]string {
	params := make(map[string]string)

	switch contentType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return params
		}
		for key, vals := range values {
			if len(vals) > 0 {
				params[key] = vals[0]
			}
		}

	case "application/json":
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return params
		}
		for key, val := range decoded {
			switch v := val.(type) {
			case string:
				params[key] = v
			case float64, bool:
				params[key] = fmt.Sprint(v)
			}
		}
	}

	return params
}

// QueryParam returns the named query parameter, or "" when absent.
func (r *Request) QueryParam(name string) string {
	return r.Query[name]
}

// BodyParam returns the named body parameter, or "" when absent.
func (r *Request) BodyParam(name string) string {
	return r.Body[name]
}

// Header returns the named header field, case-insensitively, or "" when
// absent. The synthetic Basic-Auth fields are addressable the same way.
func (r *Request) Header(name string) string {
	return r.Headers[http.CanonicalHeaderKey(name)]
}
