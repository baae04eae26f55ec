package dns

import (
	"bytes"
	"testing"

	"github.com/m-lab/pkt-engine/codec"
)

func TestNewQueryDefaultsAndBin(t *testing.T) {
	q, err := NewQuery("example.com", 1, 1)
	if err != nil {
		t.Fatalf("NewQuery() error: %v", err)
	}
	if got := q.QDCount(); got != 1 {
		t.Errorf("QDCount() default = %d, want 1", got)
	}
	if got := q.QType(); got != 1 {
		t.Errorf("QType() = %d, want 1", got)
	}
	b, err := q.Bin(true)
	if err != nil {
		t.Fatalf("Bin() error: %v", err)
	}
	if len(b) != 12+len(codec.DNSNameEncode("example.com"))+4 {
		t.Errorf("Bin() length = %d, want header+name+qtype/qclass", len(b))
	}
}

func TestDissectRoundTrip(t *testing.T) {
	q, _ := NewQuery("www.example.com", 28, 1)
	wire, err := q.Bin(true)
	if err != nil {
		t.Fatalf("Bin() error: %v", err)
	}

	m, err := New(wire)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	name, err := m.QName()
	if err != nil {
		t.Fatalf("QName() error: %v", err)
	}
	if name != "www.example.com." {
		t.Errorf("QName() = %q, want %q", name, "www.example.com.")
	}
	if m.QType() != 28 {
		t.Errorf("QType() = %d, want 28", m.QType())
	}

	got, err := m.Bin(true)
	if err != nil {
		t.Fatalf("re-Bin() error: %v", err)
	}
	if !bytes.Equal(got, wire) {
		t.Errorf("re-Bin() = %v, want %v (round trip)", got, wire)
	}
}

func TestDissectRejectsCompressedName(t *testing.T) {
	buf := make([]byte, 13)
	buf[12] = 0xc0 // compression pointer marker in the label-length byte
	// New absorbs dissect errors into DissectError rather than returning them.
	m, err := New(buf)
	if err != nil {
		t.Fatalf("New(compressed name) error = %v, want nil", err)
	}
	if !m.DissectError() {
		t.Error("DissectError() = false after a compressed name, want true")
	}
	if _, err := m.dissect(buf); err != ErrCompressedName {
		t.Errorf("dissect(compressed name) error = %v, want ErrCompressedName", err)
	}
}

func TestDissectRejectsShortMessage(t *testing.T) {
	m, err := New(make([]byte, 5))
	if err != nil {
		t.Fatalf("New(short buffer) error = %v, want nil", err)
	}
	if !m.DissectError() {
		t.Error("DissectError() = false after a short buffer, want true")
	}
	if _, err := m.dissect(make([]byte, 5)); err != ErrShortMessage {
		t.Errorf("dissect(short buffer) error = %v, want ErrShortMessage", err)
	}
}

func TestQNameListPopulatedByNewQuery(t *testing.T) {
	q, _ := NewQuery("a.b", 1, 1)
	if n := q.QNameList().Len(); n == 0 {
		t.Fatal("QNameList().Len() == 0 after NewQuery")
	}
	name, err := q.QName()
	if err != nil {
		t.Fatalf("QName() error: %v", err)
	}
	if name != "a.b." {
		t.Errorf("QName() = %q, want %q", name, "a.b.")
	}
}
