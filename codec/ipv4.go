package codec

import (
	"fmt"
	"net"
)

// IPv4ToBytes parses "127.0.0.1" into its 4 raw bytes, the byte order
// fields carry them in on the wire.
func IPv4ToBytes(s string) ([4]byte, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return [4]byte{}, fmt.Errorf("codec: invalid IPv4 address %q", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return [4]byte{}, fmt.Errorf("codec: not an IPv4 address: %q", s)
	}
	var out [4]byte
	copy(out[:], ip4)
	return out, nil
}

// IPv4ToString formats 4 raw bytes as "127.0.0.1". Uses stdlib net.IP
// rather than hand-rolled string formatting, following inetdiag.go's own
// choice of net.IP for address rendering.
func IPv4ToString(b []byte) string {
	if len(b) != 4 {
		return ""
	}
	return net.IPv4(b[0], b[1], b[2], b[3]).String()
}
