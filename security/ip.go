package security

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP address for rate limiting and audit logs.
//
// Forwarding headers are only honored when trustProxy is true; otherwise any
// caller could spoof X-Forwarded-For to dodge per-IP limits. trustedProxyCount
// is the number of proxies under our control counted from the right of the
// X-Forwarded-For chain.
func ClientIP(r *http.Request, trustProxy bool, trustedProxyCount int) string {
	if trustProxy {
		if ip := ipFromForwardedFor(r.Header.Get("X-Forwarded-For"), trustedProxyCount); ip != "" {
			return ip
		}
		if ip := r.Header.Get("X-Real-IP"); net.ParseIP(ip) != nil {
			return ip
		}
	}
	return ipFromRemoteAddr(r.RemoteAddr)
}

// ipFromForwardedFor picks the client entry out of an X-Forwarded-For chain.
// The chain reads "client, proxy1, proxy2"; the rightmost trustedProxyCount
// entries were appended by proxies we control, so the client is just left of
// them. A trustedProxyCount of zero is treated as one trusted proxy.
func ipFromForwardedFor(xff string, trustedProxyCount int) string {
	if xff == "" {
		return ""
	}

	ips := strings.Split(xff, ",")
	proxyCount := trustedProxyCount
	if proxyCount == 0 {
		proxyCount = 1
	}
	idx := len(ips) - proxyCount - 1
	if idx < 0 {
		idx = 0
	}

	ip := strings.TrimSpace(ips[idx])
	if net.ParseIP(ip) != nil {
		return ip
	}
	return ""
}

func ipFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
