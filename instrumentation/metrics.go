package instrumentation

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the gateway.
type Metrics struct {
	// HTTP layer
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Authorization flow
	ConsentPromptsRendered metric.Int64Counter
	ConsentDecisions       metric.Int64Counter
	AuthorizeCompleted     metric.Int64Counter

	// Engine resolution
	EngineResolutions metric.Int64Counter

	// Security
	RateLimitExceeded metric.Int64Counter
}

// newMetrics creates and registers all metric instruments.
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}
	httpMeter := inst.Meter("http")
	flowMeter := inst.Meter("flow")

	var err error
	m.HTTPRequestsTotal, err = httpMeter.Int64Counter(
		"gateway.http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.requests.total counter: %w", err)
	}

	m.HTTPRequestDuration, err = httpMeter.Float64Histogram(
		"gateway.http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.request.duration histogram: %w", err)
	}

	m.ConsentPromptsRendered, err = flowMeter.Int64Counter(
		"gateway.consent.prompts.rendered",
		metric.WithDescription("Number of consent prompts rendered"),
		metric.WithUnit("{prompt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consent.prompts.rendered counter: %w", err)
	}

	m.ConsentDecisions, err = flowMeter.Int64Counter(
		"gateway.consent.decisions",
		metric.WithDescription("Number of consent decisions recorded"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consent.decisions counter: %w", err)
	}

	m.AuthorizeCompleted, err = flowMeter.Int64Counter(
		"gateway.authorize.completed",
		metric.WithDescription("Number of authorize attempts completed with a redirect"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorize.completed counter: %w", err)
	}

	m.EngineResolutions, err = flowMeter.Int64Counter(
		"gateway.engine.resolutions",
		metric.WithDescription("Number of engine factory invocations"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine.resolutions counter: %w", err)
	}

	m.RateLimitExceeded, err = httpMeter.Int64Counter(
		"gateway.ratelimit.exceeded",
		metric.WithDescription("Number of requests rejected by rate limiting"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ratelimit.exceeded counter: %w", err)
	}

	return m, nil
}
