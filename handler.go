package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/consentgate/oauth2-gateway/consent"
	"github.com/consentgate/oauth2-gateway/engine"
	"github.com/consentgate/oauth2-gateway/identity"
	"github.com/consentgate/oauth2-gateway/instrumentation"
	"github.com/consentgate/oauth2-gateway/protocol"
	"github.com/consentgate/oauth2-gateway/security"
)

// resourceSuccessBody is the fixed acknowledgment returned by the resource
// endpoint. The endpoint exists as a conformance probe, not a real resource.
const resourceSuccessBody = `{"success":true,"message":"You accessed my APIs!"}`

// Handler serves the OAuth2 gateway endpoints. Method and path routing are
// owned by the surrounding mux; each Serve method is a plain http.HandlerFunc
// to mount wherever the deployment wants it.
type Handler struct {
	config   Config
	logger   *slog.Logger
	resolver *Resolver
	identity identity.Provider
	consents consent.Store

	auditor     *security.Auditor
	rateLimiter *security.RateLimiter
	inst        *instrumentation.Instrumentation
	tracer      trace.Tracer
}

// NewHandler creates a gateway handler around an engine factory, an identity
// provider and a consent store. The factory is invoked lazily on first use.
func NewHandler(factory engine.Factory, provider identity.Provider, consents consent.Store, config Config) (*Handler, error) {
	if factory == nil {
		return nil, errors.New("engine factory is required")
	}
	if provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if consents == nil {
		return nil, errors.New("consent store is required")
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	inst := config.Instrumentation
	if inst == nil {
		var err error
		inst, err = instrumentation.New(instrumentation.Config{Enabled: false})
		if err != nil {
			return nil, err
		}
	}

	h := &Handler{
		config:   config,
		logger:   config.Logger,
		resolver: NewResolver(factory),
		identity: provider,
		consents: consents,
		auditor:  security.NewAuditor(config.Logger, config.EnableAuditLogging),
		inst:     inst,
		tracer:   inst.Tracer("gateway"),
	}

	if config.RateLimit.Rate > 0 {
		h.rateLimiter = security.NewRateLimiter(
			config.RateLimit.Rate,
			config.RateLimit.Burst,
			config.RateLimit.MaxEntries,
			config.Logger,
		)
	}

	return h, nil
}

// Close releases background resources (rate limiter sweep goroutine).
func (h *Handler) Close() {
	if h.rateLimiter != nil {
		h.rateLimiter.Stop()
	}
}

// ServeToken handles the token endpoint. A preflight OPTIONS request passes
// through with no protocol processing; everything else must be a POST
// carrying OAuth2 grant parameters in the body.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := h.tracer.Start(r.Context(), "gateway.token")
	defer span.End()
	defer h.recordRequest(ctx, "token", r.Method, start)

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		h.writeError(w, NewOAuthError(ErrorCodeInvalidRequest, "token requests must use POST", http.StatusMethodNotAllowed))
		return
	}

	if h.rateLimiter != nil {
		ip := security.ClientIP(r, h.config.RateLimit.TrustProxy, h.config.RateLimit.TrustedProxyCount)
		if !h.rateLimiter.Allow(ip) {
			h.logger.Warn("Token endpoint rate limit exceeded", "ip", ip)
			h.auditor.LogRateLimitExceeded(ip, "token")
			h.inst.Metrics().RateLimitExceeded.Add(ctx, 1,
				metric.WithAttributes(attribute.String(instrumentation.AttrEndpoint, "token")))
			h.writeError(w, ErrRateLimitExceeded("too many token requests"))
			return
		}
	}

	eng, err := h.resolveEngine(ctx)
	if err != nil {
		instrumentation.RecordError(span, err)
		h.writeError(w, ErrServerError("authorization engine unavailable"))
		return
	}

	resp := eng.HandleTokenRequest(ctx, protocol.NewRequest(r))
	if resp.IsClientError() {
		instrumentation.SetSpanAttributes(span,
			attribute.String(instrumentation.AttrError, resp.Parameter(protocol.ParamError)))
		h.writeEngineError(w, resp)
		return
	}

	instrumentation.SetSpanSuccess(span)
	protocol.WriteResponse(w, resp)
}

// ServeResource handles the resource verification endpoint: the engine
// checks the bearer credential and a fixed JSON acknowledgment is returned
// on success.
func (h *Handler) ServeResource(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := h.tracer.Start(r.Context(), "gateway.resource")
	defer span.End()
	defer h.recordRequest(ctx, "resource", r.Method, start)

	eng, err := h.resolveEngine(ctx)
	if err != nil {
		instrumentation.RecordError(span, err)
		h.writeError(w, ErrServerError("authorization engine unavailable"))
		return
	}

	ok, resp := eng.VerifyResourceRequest(ctx, protocol.NewRequest(r))
	if !ok {
		h.auditor.LogResourceDenied(resp.Parameter(protocol.ParamError))
		instrumentation.SetSpanAttributes(span,
			attribute.String(instrumentation.AttrError, resp.Parameter(protocol.ParamError)))
		h.writeEngineError(w, resp)
		return
	}

	instrumentation.SetSpanSuccess(span)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(resourceSuccessBody))
}

// ServeAuthorize handles the interactive authorize endpoint: GET starts or
// resumes the consent flow, POST submits a consent decision.
func (h *Handler) ServeAuthorize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := h.tracer.Start(r.Context(), "gateway.authorize")
	defer span.End()
	defer h.recordRequest(ctx, "authorize", r.Method, start)

	h.handleAuthorizeFlow(ctx, span, w, r)
}

// ServeReceiveCode displays the authorization code passed on the query
// string. Display only; the template escapes the value.
func (h *Handler) ServeReceiveCode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := h.tracer.Start(r.Context(), "gateway.receive_code")
	defer span.End()
	defer h.recordRequest(ctx, "receive_code", r.Method, start)

	if err := renderReceiveCode(w, receiveCodeData{Code: r.URL.Query().Get("code")}); err != nil {
		h.logger.Error("Failed to render code view", "error", err)
	}
}

// resolveEngine resolves the configured engine, logging configuration
// failures loudly. A failure here is a deployment defect, not a client error.
func (h *Handler) resolveEngine(ctx context.Context) (engine.Engine, error) {
	eng, err := h.resolver.Resolve(h.config.EngineType)
	h.inst.Metrics().EngineResolutions.Add(ctx, 1,
		metric.WithAttributes(attribute.String(instrumentation.AttrEngineType, h.config.EngineType)))
	if err != nil {
		h.logger.Error("Engine resolution failed",
			"engine_type", h.config.EngineType,
			"error", err)
		return nil, err
	}
	return eng, nil
}

// writeEngineError relays an engine error response through the configured
// error-format policy: problem detail by default, raw OAuth2 body when
// problem formatting is disabled.
func (h *Handler) writeEngineError(w http.ResponseWriter, resp *protocol.Response) {
	if h.config.DisableProblemErrors {
		protocol.WriteResponse(w, resp)
		return
	}
	protocol.WriteProblem(w, protocol.ToProblem(resp))
}

// writeError writes a gateway-originated OAuth error through the same
// error-format policy as engine errors.
func (h *Handler) writeError(w http.ResponseWriter, oerr *OAuthError) {
	resp := protocol.NewResponse()
	resp.SetError(oerr.Status, oerr.Code, oerr.Description, "")
	h.writeEngineError(w, resp)
}

// recordRequest records per-endpoint request count and duration.
func (h *Handler) recordRequest(ctx context.Context, endpoint, method string, start time.Time) {
	attrs := metric.WithAttributes(
		attribute.String(instrumentation.AttrEndpoint, endpoint),
		attribute.String(instrumentation.AttrMethod, method),
	)
	h.inst.Metrics().HTTPRequestsTotal.Add(ctx, 1, attrs)
	h.inst.Metrics().HTTPRequestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
}
