// Package middleware provides HTTP middleware functions for the URL shortening service.
package middleware

import (
	"net"
	"net/http"
)

// TrustedSubnetMiddleware creates middleware that checks if the client's IP address
// is within the trusted subnet defined in CIDR notation.
// If trustedSubnet is empty or invalid, access is denied for all requests.
// Only the connection address is checked: X-Real-IP is set by the client and is ignored here.
func TrustedSubnetMiddleware(trustedSubnet string) func(http.Handler) http.Handler {
	var subnet *net.IPNet
	if trustedSubnet != "" {
		// config.Validate rejects a malformed CIDR before the server starts
		_, subnet, _ = net.ParseCIDR(trustedSubnet)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subnet == nil {
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			ip := net.ParseIP(remoteIP(r))
			if ip == nil {
				http.Error(w, "Invalid client IP address", http.StatusForbidden)
				return
			}

			if !subnet.Contains(ip) {
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the visitor address recorded with visits: X-Real-IP when set,
// otherwise the host of RemoteAddr. It must not be used for access decisions.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return remoteIP(r)
}

// remoteIP returns the host of the connection address.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
