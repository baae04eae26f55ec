package udp

import (
	"testing"

	"github.com/m-lab/pkt-engine/layer"
	"github.com/m-lab/pkt-engine/layer3/ip4"
	"github.com/m-lab/pkt-engine/layer567/dns"
)

func TestNewFromFieldsDefaults(t *testing.T) {
	u, err := NewFromFields()
	if err != nil {
		t.Fatalf("NewFromFields() error: %v", err)
	}
	if got := u.Sport(); got != 0xdead {
		t.Errorf("Sport() default = %#x, want 0xdead", got)
	}
	if got := u.Ulen(); got != 8 {
		t.Errorf("Ulen() default = %d, want 8", got)
	}
}

func TestStandaloneBinLeavesChecksumZero(t *testing.T) {
	u, _ := NewFromFields(WithSport(1), WithDport(2))
	b, err := u.Bin(true)
	if err != nil {
		t.Fatalf("Bin() error: %v", err)
	}
	if b[6] != 0 || b[7] != 0 {
		t.Errorf("checksum bytes = %v, want zero with no lower layer present", b[6:8])
	}
}

func TestChecksumRecomputedOverIP4PseudoHeader(t *testing.T) {
	ipPkt, _ := ip4.NewFromFields(ip4.WithSrc("10.0.0.1"), ip4.WithDst("10.0.0.2"), ip4.WithProto(ip4.ProtoUDP))
	u, _ := NewFromFields(WithSport(5000), WithDport(53))
	u.SetBodyBytes([]byte("query"))
	u.SetLowerLayer(ipPkt)

	b, err := u.Bin(true)
	if err != nil {
		t.Fatalf("Bin() error: %v", err)
	}
	if b[6] == 0 && b[7] == 0 {
		t.Error("checksum left at zero even with an IPv4 lower layer present")
	}
	if got := u.Ulen(); got != uint16(8+len("query")) {
		t.Errorf("Ulen() = %d, want %d", got, 8+len("query"))
	}
}

func TestDissectDispatchesToDNSByDestPort(t *testing.T) {
	q, _ := dns.NewQuery("example.com", 1, 1)
	qbytes, err := q.Bin(true)
	if err != nil {
		t.Fatalf("dns Bin() error: %v", err)
	}
	wire := buildUDPWire(40000, 53, qbytes)

	u, err := New(wire)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	got, err := u.BodyHandler()
	if err != nil {
		t.Fatalf("BodyHandler() error: %v", err)
	}
	msg, ok := got.(*dns.Message)
	if !ok {
		t.Fatalf("BodyHandler() type = %T, want *dns.Message", got)
	}
	if name, err := msg.QName(); err != nil || name != "example.com." {
		t.Errorf("QName() = (%q, %v), want (example.com., nil)", name, err)
	}
}

func TestDissectFullMatchesLazyHighestLayer(t *testing.T) {
	q, _ := dns.NewQuery("example.com", 1, 1)
	qbytes, err := q.Bin(true)
	if err != nil {
		t.Fatalf("dns Bin() error: %v", err)
	}
	wire := buildUDPWire(40000, 53, qbytes)

	lazy, err := New(wire)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	wantTop := layer.HighestLayer(lazy)
	if _, ok := wantTop.(*dns.Message); !ok {
		t.Fatalf("HighestLayer() without DissectFull = %T, want *dns.Message", wantTop)
	}

	eager, err := New(wire)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := eager.DissectFull(); err != nil {
		t.Fatalf("DissectFull() error: %v", err)
	}
	gotTop := layer.HighestLayer(eager)
	if gotTop.ClassID() != wantTop.ClassID() {
		t.Errorf("HighestLayer() after DissectFull() = %v, want %v", gotTop.ClassID(), wantTop.ClassID())
	}
	if _, ok := gotTop.(*dns.Message); !ok {
		t.Errorf("HighestLayer() after DissectFull() = %T, want *dns.Message", gotTop)
	}
}

func TestDirectionAndReverseAddress(t *testing.T) {
	a, _ := NewFromFields(WithSport(1), WithDport(2))
	b, _ := NewFromFields(WithSport(1), WithDport(2))
	if a.Direction(b)&layer.DirSame == 0 {
		t.Error("Direction() did not report DirSame for identical port pairs")
	}

	rev, _ := NewFromFields(WithSport(2), WithDport(1))
	if a.Direction(rev)&layer.DirRev == 0 {
		t.Error("Direction() did not report DirRev for swapped port pairs")
	}

	a.ReverseAddress()
	if a.Sport() != 2 || a.Dport() != 1 {
		t.Errorf("ReverseAddress() = sport %d dport %d, want swapped", a.Sport(), a.Dport())
	}
}

func TestDissectRejectsShortBuffer(t *testing.T) {
	// New absorbs dissect errors into DissectError rather than returning them.
	u, err := New(make([]byte, 4))
	if err != nil {
		t.Fatalf("New(short buffer) error = %v, want nil", err)
	}
	if !u.DissectError() {
		t.Error("DissectError() = false after a short buffer, want true")
	}
	if _, err := u.dissect(make([]byte, 4)); err != ErrShortDatagram {
		t.Errorf("dissect(short buffer) error = %v, want ErrShortDatagram", err)
	}
}

func buildUDPWire(sport, dport uint16, payload []byte) []byte {
	ulen := 8 + len(payload)
	b := []byte{
		byte(sport >> 8), byte(sport),
		byte(dport >> 8), byte(dport),
		byte(ulen >> 8), byte(ulen),
		0, 0,
	}
	return append(b, payload...)
}
