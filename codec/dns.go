package codec

import (
	"errors"
	"strings"
)

// ErrTruncatedName is returned when a DNS name's length-prefixed label
// sequence runs past the end of the supplied bytes.
var ErrTruncatedName = errors.New("codec: truncated DNS name")

// DNSNameDecode reads a length-prefixed DNS label sequence
// (b"\x03www\x07example\x03com\x00") into its dotted string form
// ("www.example.com."). It does not follow compression pointers; callers
// needing pointer support resolve them before calling this (see
// layer567/dns, which only ever hands it already-expanded label bytes).
func DNSNameDecode(name []byte) (string, error) {
	var labels []string
	off := 0
	for off < len(name) {
		n := int(name[off])
		if n == 0 {
			break
		}
		off++
		if off+n > len(name) {
			return "", ErrTruncatedName
		}
		labels = append(labels, string(name[off:off+n]))
		off += n
	}
	return strings.Join(labels, ".") + ".", nil
}

// DNSNameEncode is DNSNameDecode's inverse: "www.example.com" (trailing dot
// optional) to b"\x03www\x07example\x03com\x00".
func DNSNameEncode(name string) []byte {
	name = strings.TrimSuffix(name, ".")
	var out []byte
	if name != "" {
		for _, label := range strings.Split(name, ".") {
			if len(label) == 0 {
				continue
			}
			out = append(out, byte(len(label)))
			out = append(out, label...)
		}
	}
	out = append(out, 0)
	return out
}
