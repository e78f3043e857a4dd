package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys.
//
// Never record actual credentials (tokens, codes, secrets, session IDs) as
// attribute values; traces outlive requests and reach wider audiences than
// production systems. Record metadata only.
const (
	AttrClientID   = "oauth.client_id"   // client identifier (non-secret)
	AttrDecision   = "oauth.decision"    // consent outcome (granted/denied/prompt)
	AttrGrantType  = "oauth.grant_type"  // OAuth grant type
	AttrError      = "oauth.error"       // protocol error code
	AttrEngineType = "gateway.engine"    // engine type selector
	AttrEndpoint   = "http.endpoint"     // logical endpoint name
	AttrMethod     = "http.method"       // HTTP method
	AttrStatusCode = "http.status_code"  // HTTP status code
	AttrSession    = "gateway.session"   // whether a session cookie was present (boolean)
)

// RecordError records an error on a span with an error status (nil-safe).
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe).
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanError sets an error status on a span (nil-safe).
func SetSpanError(span trace.Span, message string) {
	if span != nil {
		span.SetStatus(codes.Error, message)
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe).
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}
