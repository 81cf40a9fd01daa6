package websocket

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// AllowOrigins reports whether a browser request may reach the backend. Requests
// without an Origin header (native clients) pass, as do pages served from this
// machine and origins listed in allowed. "*" allows everything.
func AllowOrigins(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.TrimRight(strings.ToLower(origin), "/")] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		if _, ok := set[strings.TrimRight(strings.ToLower(origin), "/")]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if isLoopback(u.Hostname()) {
			return true
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
