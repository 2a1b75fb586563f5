package audit

import (
	"net"
	"net/netip"
	"strings"
)

// AnonymizeIP zeroes the last IPv4 octet and keeps only the /64 prefix of
// IPv6 addresses. Values that do not parse are dropped.
func AnonymizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return ""
	}
	addr = addr.WithZone("")

	if addr.Is4In6() {
		addr = addr.Unmap()
	}

	if addr.Is4() {
		b := addr.As4()
		b[3] = 0
		return netip.AddrFrom4(b).String()
	}

	prefix, err := addr.Prefix(64)
	if err != nil {
		return ""
	}
	return prefix.Addr().String()
}
