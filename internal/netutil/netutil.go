package netutil

import (
	"net/netip"
	"strings"
)

// MaxUserAgentLength bounds the user-agent string echoed by the ping
// diagnostics endpoint.
const MaxUserAgentLength = 128

// NormalizeIP extracts the canonical IP from a remote address that may carry
// a port ("192.0.2.4:1234", "[2001:db8::1]:443") or arrive bare. Zone
// identifiers are stripped. The bool reports whether an IP was recognized; on
// failure the input comes back unchanged.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		return addrPort.Addr().WithZone("").String(), true
	}
	if ip, ok := canonical(raw); ok {
		return ip, true
	}
	// Bracketed IPv6 whose port is not numeric, e.g. "[::1]:port".
	if strings.HasPrefix(raw, "[") {
		if end := strings.LastIndex(raw, "]"); end > 0 {
			if ip, ok := canonical(raw[1:end]); ok {
				return ip, true
			}
		}
	}
	// host:junk with a non-numeric port section.
	if idx := strings.LastIndex(raw, ":"); idx > 0 {
		if ip, ok := canonical(raw[:idx]); ok {
			return ip, true
		}
	}
	return raw, false
}

func canonical(s string) (string, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", false
	}
	addr = addr.WithZone("")
	if !addr.IsValid() {
		return "", false
	}
	return addr.String(), true
}

// TruncateUserAgent caps a user agent at MaxUserAgentLength runes, marking
// the cut with an ellipsis.
func TruncateUserAgent(ua string) string {
	if ua == "" {
		return ""
	}
	runes := []rune(ua)
	if len(runes) <= MaxUserAgentLength {
		return ua
	}
	return string(runes[:MaxUserAgentLength]) + "..."
}
