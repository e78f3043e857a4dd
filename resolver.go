package gateway

import (
	"sync"

	"github.com/consentgate/oauth2-gateway/engine"
)

// Resolver lazily obtains and caches the OAuth2 engine from an injected
// factory. Construction happens at most once per resolver instance under
// single-initialization discipline; steady-state reads share the handle.
//
// The type selector only matters on the first call: once a handle exists,
// Resolve returns it regardless of the selector passed later. A deployment
// with multiple engine configurations selected by type would silently get
// only the first one ever requested.
type Resolver struct {
	factory engine.Factory

	mu     sync.Mutex
	engine engine.Engine
}

// NewResolver creates a resolver around the given factory.
func NewResolver(factory engine.Factory) *Resolver {
	return &Resolver{factory: factory}
}

// Resolve returns the cached engine handle, constructing it via the factory
// on first use. A factory error or nil engine yields a *ConfigurationError;
// a failed construction is not cached, so a later call re-invokes the
// factory (and fails the same way until the deployment is fixed).
func (r *Resolver) Resolve(engineType string) (engine.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil {
		return r.engine, nil
	}
	if r.factory == nil {
		return nil, &ConfigurationError{EngineType: engineType}
	}

	eng, err := r.factory.New(engineType)
	if err != nil {
		return nil, &ConfigurationError{EngineType: engineType, Err: err}
	}
	if eng == nil {
		return nil, &ConfigurationError{EngineType: engineType}
	}

	r.engine = eng
	return r.engine, nil
}
