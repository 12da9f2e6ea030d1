// Package privacy masks client identifiers before they reach logs.
package privacy

import (
	"fmt"
	"net/netip"
)

// AnonymizeIP keeps the /24 of an IPv4 address and the /48 of an IPv6
// address. IPv6 prefixes are written as three zero-padded hextets followed
// by "::". Empty input yields "unknown" and unparseable input "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	if addr.Is4() {
		prefix, _ := addr.Prefix(24)
		return prefix.Addr().String()
	}

	b := addr.As16()
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::", b[0], b[1], b[2], b[3], b[4], b[5])
}
