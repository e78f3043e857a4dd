// Package headercred resolves the resource owner from HTTP Basic-Auth
// credentials, using the authenticated username as the owner identifier.
package headercred

import (
	"fmt"
	"net/http"

	"github.com/consentgate/oauth2-gateway/identity"
)

// Provider resolves the owner identifier from the Basic-Auth username.
type Provider struct{}

var _ identity.Provider = Provider{}

// New creates a Basic-Auth identity provider.
func New() Provider {
	return Provider{}
}

// Resolve returns the Basic-Auth username, or an error when the request
// carries no Basic-Auth credentials.
func (Provider) Resolve(r *http.Request) (string, error) {
	user, _, ok := r.BasicAuth()
	if !ok || user == "" {
		return "", fmt.Errorf("no basic-auth credentials on request")
	}
	return user, nil
}
