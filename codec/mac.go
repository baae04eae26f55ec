// Package codec holds the small string<->bytes conversions the engine needs
// for human-readable field accessors: MAC and IPv4 addresses, DNS names.
// Ported directly from pypacker.py's module-level mac_*/ip4_*/dns_name_*
// functions.
package codec

import (
	"fmt"
	"net"
)

// MACToBytes parses "AA:BB:CC:DD:EE:FF" into its 6 raw bytes.
func MACToBytes(s string) ([6]byte, error) {
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return [6]byte{}, fmt.Errorf("codec: invalid MAC address %q", s)
	}
	var out [6]byte
	copy(out[:], hw)
	return out, nil
}

// MACToString formats 6 raw bytes as "AA:BB:CC:DD:EE:FF".
func MACToString(b []byte) string {
	if len(b) != 6 {
		return ""
	}
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}
