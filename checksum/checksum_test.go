package checksum

import "testing"

func TestSum16KnownVector(t *testing.T) {
	// RFC 1071 §3 worked example.
	buf := []byte{0x00, 0x01, 0xf2, 0x03, 0xf4, 0xf5, 0xf6, 0xf7}
	got := Sum16(buf)
	want := uint16(0x220d)
	if got != want {
		t.Errorf("Sum16() = %#04x, want %#04x", got, want)
	}
}

func TestSum16OddLength(t *testing.T) {
	buf := []byte{0xff, 0x00, 0x01}
	got := Sum16(buf)
	if got == 0 {
		t.Errorf("Sum16() of odd-length buffer returned 0 unexpectedly")
	}
}

func TestSum16SelfVerifies(t *testing.T) {
	// A checksummed buffer with its own checksum field included has a
	// one's-complement sum of all-ones (the standard self-verification
	// property of the algorithm), so Sum16, which returns the complement of
	// that sum, yields zero.
	buf := []byte{0x45, 0x00, 0x00, 0x1c, 0x00, 0x00, 0x00, 0x00, 0x40, 0x11, 0x00, 0x00, 0xc0, 0xa8, 0x00, 0x01, 0xc0, 0xa8, 0x00, 0x02}
	sum := Sum16(buf)
	buf[10] = byte(sum >> 8)
	buf[11] = byte(sum)
	if got := Sum16(buf); got != 0 {
		t.Errorf("Sum16() of self-checksummed buffer = %#04x, want 0", got)
	}
}

func TestZeroAsAllOnes(t *testing.T) {
	if got := ZeroAsAllOnes(0); got != 0xffff {
		t.Errorf("ZeroAsAllOnes(0) = %#04x, want 0xffff", got)
	}
	if got := ZeroAsAllOnes(0x1234); got != 0x1234 {
		t.Errorf("ZeroAsAllOnes(0x1234) = %#04x, want 0x1234", got)
	}
}

func TestPseudoHeaderV4Layout(t *testing.T) {
	src := [4]byte{192, 168, 0, 1}
	dst := [4]byte{192, 168, 0, 2}
	got := PseudoHeaderV4(src, dst, 17, 8)
	want := []byte{192, 168, 0, 1, 192, 168, 0, 2, 0, 17, 0, 8}
	if len(got) != len(want) {
		t.Fatalf("PseudoHeaderV4() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PseudoHeaderV4()[%d] = %#02x, want %#02x", i, got[i], want[i])
		}
	}
}

func TestPseudoHeaderV6Layout(t *testing.T) {
	var src, dst [16]byte
	src[0] = 0x20
	dst[0] = 0x20
	got := PseudoHeaderV6(src, dst, 17, 512)
	if len(got) != 38 {
		t.Fatalf("PseudoHeaderV6() length = %d, want 38", len(got))
	}
	if got[32] != 0 || got[33] != 0 || got[34] != 0 {
		t.Errorf("PseudoHeaderV6() zero padding = %v, want three zero bytes", got[32:35])
	}
	if got[35] != 17 {
		t.Errorf("PseudoHeaderV6() next-header = %d, want 17", got[35])
	}
	if got[36] != 2 || got[37] != 0 {
		t.Errorf("PseudoHeaderV6() length field = %v, want big-endian 512", got[36:38])
	}
}
