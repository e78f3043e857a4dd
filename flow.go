package gateway

import (
	"context"
	"html/template"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/consentgate/oauth2-gateway/instrumentation"
	"github.com/consentgate/oauth2-gateway/protocol"
)

// consentApproved is the literal a consent submission must carry to grant
// access. Anything else on a submitted decision records a denial.
const consentApproved = "yes"

// handleAuthorizeFlow drives one authorize attempt. Each invocation
// reconstructs all state from the session and the request: validation via
// the engine, then consent lookup (a same-request submission is recorded
// before the lookup, so approval counts immediately), then either the
// consent prompt, or identity resolution and completion through the engine.
// A Location header on the completed response becomes the redirect back to
// the client; its absence is an error.
func (h *Handler) handleAuthorizeFlow(ctx context.Context, span trace.Span, w http.ResponseWriter, r *http.Request) {
	eng, err := h.resolveEngine(ctx)
	if err != nil {
		instrumentation.RecordError(span, err)
		h.writeError(w, ErrServerError("authorization engine unavailable"))
		return
	}

	// Read or mint the session before anything writes the response body.
	sessionID := h.sessionID(w, r)

	req := protocol.NewRequest(r)
	resp := protocol.NewResponse()
	clientID := req.QueryParam("client_id")
	instrumentation.SetSpanAttributes(span,
		attribute.String(instrumentation.AttrClientID, clientID))

	if !eng.ValidateAuthorizeRequest(ctx, req, resp) {
		h.auditor.LogAuthorizeRejected(sessionID, clientID, resp.Parameter(protocol.ParamError))
		instrumentation.SetSpanAttributes(span,
			attribute.String(instrumentation.AttrError, resp.Parameter(protocol.ParamError)))
		h.writeEngineError(w, resp)
		return
	}

	// A submitted decision overwrites any prior one for (session, client)
	// before the lookup below, so a same-request approval is already
	// decided when re-read.
	if submitted := req.BodyParam("authorized"); submitted != "" {
		granted := submitted == consentApproved
		if err := h.consents.Set(ctx, sessionID, clientID, granted); err != nil {
			h.logger.Error("Failed to record consent decision",
				"client_id", clientID,
				"error", err)
			instrumentation.RecordError(span, err)
			h.writeError(w, ErrServerError("could not record consent decision"))
			return
		}
		h.auditor.LogConsentDecision(sessionID, clientID, granted)
		h.inst.Metrics().ConsentDecisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String(instrumentation.AttrClientID, clientID),
			attribute.Bool("granted", granted)))
	}

	granted, decided, err := h.consents.Get(ctx, sessionID, clientID)
	if err != nil {
		h.logger.Error("Failed to read consent decision",
			"client_id", clientID,
			"error", err)
		instrumentation.RecordError(span, err)
		h.writeError(w, ErrServerError("could not read consent decision"))
		return
	}

	// No decision yet: halt and prompt. Not an error, just first contact
	// with this client in this session.
	if !decided {
		h.auditor.LogConsentPrompt(sessionID, clientID)
		h.inst.Metrics().ConsentPromptsRendered.Add(ctx, 1, metric.WithAttributes(
			attribute.String(instrumentation.AttrClientID, clientID)))
		instrumentation.SetSpanAttributes(span,
			attribute.String(instrumentation.AttrDecision, "prompt"))

		data := consentPromptData{
			ClientID: clientID,
			Action:   template.URL(r.URL.RequestURI()),
		}
		if err := renderConsentPrompt(w, data); err != nil {
			h.logger.Error("Failed to render consent prompt", "error", err)
		}
		return
	}

	ownerID, err := h.identity.Resolve(r)
	if err != nil {
		iderr := &IdentityResolutionError{Err: err}
		h.logger.Error("Identity resolution failed",
			"client_id", clientID,
			"error", iderr)
		h.auditor.LogIdentityResolutionFailed(sessionID, clientID, err.Error())
		instrumentation.RecordError(span, iderr)
		// A generic failure, never a redirect: the client must not see a
		// partial grant.
		http.Error(w, "authorization could not be completed", http.StatusInternalServerError)
		return
	}

	eng.HandleAuthorizeRequest(ctx, req, resp, granted, ownerID)

	if location := resp.Location(); location != "" {
		h.auditor.LogAuthorizeCompleted(sessionID, ownerID, clientID, granted)
		h.inst.Metrics().AuthorizeCompleted.Add(ctx, 1, metric.WithAttributes(
			attribute.String(instrumentation.AttrClientID, clientID),
			attribute.Bool("granted", granted)))
		instrumentation.SetSpanAttributes(span,
			attribute.String(instrumentation.AttrDecision, decisionLabel(granted)))
		instrumentation.SetSpanSuccess(span)
		http.Redirect(w, r, location, http.StatusFound)
		return
	}

	instrumentation.SetSpanError(span, "authorize completion produced no redirect")
	h.writeEngineError(w, resp)
}

func decisionLabel(granted bool) string {
	if granted {
		return "granted"
	}
	return "denied"
}
