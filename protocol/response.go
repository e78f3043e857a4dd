package protocol

import (
	"encoding/json"
	"net/http"
)

// Standard OAuth2 error parameter names (RFC 6749 section 5.2).
const (
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamErrorURI         = "error_uri"
)

// Response is the engine's answer to a protocol request: a status code, a
// header set, and either raw protocol-formatted body content or structured
// parameters (token payloads, error fields). The gateway only reads it.
type Response struct {
	// StatusCode is the HTTP status code to relay. Defaults to 200.
	StatusCode int

	// Headers holds response headers under canonical MIME keys.
	Headers map[string]string

	// Parameters holds structured response fields. For error responses
	// these are error, error_description and error_uri; for token
	// responses the token payload fields.
	Parameters map[string]string

	// Body is raw protocol-formatted content. When empty, WriteResponse
	// serializes Parameters as JSON instead.
	Body []byte
}

// NewResponse returns an empty 200 response for an engine to populate.
func NewResponse() *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Headers:    make(map[string]string),
		Parameters: make(map[string]string),
	}
}

// SetHeader sets a response header under its canonical key.
func (r *Response) SetHeader(name, value string) {
	r.Headers[http.CanonicalHeaderKey(name)] = value
}

// Header returns the named response header, case-insensitively.
func (r *Response) Header(name string) string {
	return r.Headers[http.CanonicalHeaderKey(name)]
}

// SetParameter sets a structured response field.
func (r *Response) SetParameter(name, value string) {
	r.Parameters[name] = value
}

// Parameter returns the named structured field, or "" when absent.
func (r *Response) Parameter(name string) string {
	return r.Parameters[name]
}

// SetError populates the response as an OAuth2 error. The description and
// uri fields are optional and omitted when empty.
func (r *Response) SetError(status int, code, description, uri string) {
	r.StatusCode = status
	r.SetParameter(ParamError, code)
	if description != "" {
		r.SetParameter(ParamErrorDescription, description)
	}
	if uri != "" {
		r.SetParameter(ParamErrorURI, uri)
	}
}

// SetRedirect populates the response as a 302 redirect to location.
func (r *Response) SetRedirect(location string) {
	r.StatusCode = http.StatusFound
	r.SetHeader("Location", location)
}

// Location returns the redirect target, or "" when the response does not
// redirect.
func (r *Response) Location() string {
	return r.Header("Location")
}

// IsError reports whether the response carries an error status.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// IsClientError reports whether the response carries a 4xx status.
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// WriteResponse relays a protocol response onto an HTTP response: status
// and headers verbatim, Content-Type forced to application/json, body
// written unmodified. When the response carries no raw body its structured
// parameters are serialized as the JSON body instead.
func WriteResponse(w http.ResponseWriter, resp *Response) {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
		return
	}
	_ = json.NewEncoder(w).Encode(resp.Parameters)
}
