package codec

import "testing"

func TestMACRoundTrip(t *testing.T) {
	const s = "aa:bb:cc:dd:ee:ff"
	b, err := MACToBytes(s)
	if err != nil {
		t.Fatalf("MACToBytes(%q) error: %v", s, err)
	}
	want := [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	if b != want {
		t.Errorf("MACToBytes(%q) = %v, want %v", s, b, want)
	}
	if got := MACToString(b[:]); got != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("MACToString() = %q, want %q", got, "AA:BB:CC:DD:EE:FF")
	}
}

func TestMACToBytesInvalid(t *testing.T) {
	if _, err := MACToBytes("not-a-mac"); err == nil {
		t.Error("MACToBytes(invalid) returned no error")
	}
}

func TestIPv4RoundTrip(t *testing.T) {
	b, err := IPv4ToBytes("192.168.1.42")
	if err != nil {
		t.Fatalf("IPv4ToBytes() error: %v", err)
	}
	want := [4]byte{192, 168, 1, 42}
	if b != want {
		t.Errorf("IPv4ToBytes() = %v, want %v", b, want)
	}
	if got := IPv4ToString(b[:]); got != "192.168.1.42" {
		t.Errorf("IPv4ToString() = %q, want %q", got, "192.168.1.42")
	}
}

func TestIPv4ToBytesRejectsIPv6(t *testing.T) {
	if _, err := IPv4ToBytes("::1"); err == nil {
		t.Error("IPv4ToBytes(IPv6 literal) returned no error")
	}
}

func TestDNSNameRoundTrip(t *testing.T) {
	encoded := DNSNameEncode("www.example.com")
	want := []byte{3, 'w', 'w', 'w', 7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0}
	if len(encoded) != len(want) {
		t.Fatalf("DNSNameEncode() length = %d, want %d", len(encoded), len(want))
	}
	for i := range want {
		if encoded[i] != want[i] {
			t.Fatalf("DNSNameEncode()[%d] = %d, want %d", i, encoded[i], want[i])
		}
	}

	decoded, err := DNSNameDecode(encoded)
	if err != nil {
		t.Fatalf("DNSNameDecode() error: %v", err)
	}
	if decoded != "www.example.com." {
		t.Errorf("DNSNameDecode() = %q, want %q", decoded, "www.example.com.")
	}
}

func TestDNSNameDecodeTruncated(t *testing.T) {
	if _, err := DNSNameDecode([]byte{5, 'a', 'b'}); err != ErrTruncatedName {
		t.Errorf("DNSNameDecode(truncated) error = %v, want ErrTruncatedName", err)
	}
}
