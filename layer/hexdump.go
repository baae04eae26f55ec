package layer

import "fmt"

// Hexdump renders buf (an already-packed header or header+body) as a
// classic offset/hex/ASCII dump, length bytes per line. Grounded on
// pypacker.py's `hexdump`, which exists purely as a debug aid. It never
// participates in dissection or serialization.
func Hexdump(buf []byte, length int) string {
	if length <= 0 {
		length = 16
	}
	var out []byte
	for pos := 0; pos < len(buf); pos += length {
		end := pos + length
		if end > len(buf) {
			end = len(buf)
		}
		line := buf[pos:end]
		out = append(out, fmt.Sprintf("  %04d:      %s\n", pos, hexAndASCII(line, length))...)
	}
	if len(out) > 0 {
		out = out[:len(out)-1]
	}
	return string(out)
}

func hexAndASCII(line []byte, width int) string {
	hexPart := make([]byte, 0, width*3)
	for i, c := range line {
		if i > 0 {
			hexPart = append(hexPart, ' ')
		}
		hexPart = append(hexPart, fmt.Sprintf("%02x", c)...)
	}
	for i := len(line); i < width; i++ {
		hexPart = append(hexPart, "   "...)
	}
	ascii := make([]byte, len(line))
	for i, c := range line {
		if c >= 0x20 && c < 0x7f {
			ascii[i] = c
		} else {
			ascii[i] = '.'
		}
	}
	return fmt.Sprintf("%-*s %s", width*3, hexPart, ascii)
}

// HeaderHexdump dumps just this layer's own header bytes.
func (b *Base) HeaderHexdump(length int) string {
	hdr, err := b.packHeader()
	if err != nil {
		return fmt.Sprintf("<pack error: %v>", err)
	}
	return Hexdump(hdr, length)
}
