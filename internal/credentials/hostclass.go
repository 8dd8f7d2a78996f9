package credentials

import (
	"net"
	"strings"
)

// IsLocalOrPrivateHost reports whether host (no port) qualifies as
// local/private for the purposes of permitting an insecure http:// base URL
// (spec.md §6, Local-host classification).
func IsLocalOrPrivateHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"))
	if host == "" {
		return false
	}

	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	if strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 10 ||
			ip4[0] == 127 ||
			(ip4[0] == 192 && ip4[1] == 168) ||
			(ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31)
	}

	// IPv6 unique-local (fc00::/7) and link-local (fe80::/10) ranges.
	b0 := ip[0]
	if b0&0xfe == 0xfc {
		return true
	}
	if b0 == 0xfe && ip[1]&0xc0 == 0x80 {
		return true
	}
	return false
}
