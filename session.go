package gateway

import (
	"net/http"

	"github.com/google/uuid"
)

// sessionID returns the browser session identifier from the configured
// cookie, minting a fresh one (and setting the cookie) when absent or
// empty. Consent decisions are keyed by this identifier, so every authorize
// participant gets a stable session for the cookie's lifetime.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(h.config.SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.config.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
