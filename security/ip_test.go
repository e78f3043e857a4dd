package security

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name              string
		remoteAddr        string
		forwardedFor      string
		realIP            string
		trustProxy        bool
		trustedProxyCount int
		want              string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:51234",
			want:       "203.0.113.7",
		},
		{
			name:         "forwarded header ignored without trust",
			remoteAddr:   "10.0.0.2:443",
			forwardedFor: "203.0.113.7",
			want:         "10.0.0.2",
		},
		{
			name:         "single trusted proxy",
			remoteAddr:   "10.0.0.2:443",
			forwardedFor: "203.0.113.7",
			trustProxy:   true,
			want:         "203.0.113.7",
		},
		{
			name:              "two trusted proxies",
			remoteAddr:        "10.0.0.2:443",
			forwardedFor:      "203.0.113.7, 10.0.0.3",
			trustProxy:        true,
			trustedProxyCount: 2,
			want:              "203.0.113.7",
		},
		{
			name:         "spoofed entry beyond trusted chain",
			remoteAddr:   "10.0.0.2:443",
			forwardedFor: "198.51.100.9, 203.0.113.7",
			trustProxy:   true,
			want:         "198.51.100.9",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.2:443",
			realIP:     "203.0.113.7",
			trustProxy: true,
			want:       "203.0.113.7",
		},
		{
			name:         "garbage forwarded value falls through",
			remoteAddr:   "10.0.0.2:443",
			forwardedFor: "not-an-ip",
			trustProxy:   true,
			want:         "10.0.0.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwardedFor != "" {
				r.Header.Set("X-Forwarded-For", tt.forwardedFor)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}

			got := ClientIP(r, tt.trustProxy, tt.trustedProxyCount)
			if got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
