// Package dns implements a minimal Domain Name System message parser (RFC
// 1035): the fixed 12-byte header plus the first question's name as a
// trigger list of length-prefixed labels. It exists to exercise UDP's
// port-based handler dispatch and the trigger-list machinery on a real
// protocol rather than a synthetic fixture. Full resource-record parsing
// is out of scope; the answer/authority/additional sections are kept as
// opaque body bytes.
package dns

import (
	"encoding/binary"

	"github.com/m-lab/pkt-engine/codec"
	"github.com/m-lab/pkt-engine/layer"
	"github.com/m-lab/pkt-engine/triggerlist"
)

// ClassID identifies DNS in the process-wide handler registry.
var ClassID = layer.NewClassID("dns")

const (
	fID      = "id"
	fFlags   = "flags"
	fQDCount = "qdcount"
	fANCount = "ancount"
	fNSCount = "nscount"
	fARCount = "arcount"
	fQName   = "qname"
	fQType   = "qtype"
	fQClass  = "qclass"
)

var schema = func() *layer.Compiled {
	c, err := layer.Register(layer.Schema{
		ByteOrder: binary.BigEndian,
		Fields: []layer.FieldSpec{
			{Name: fID, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 0}},
			{Name: fFlags, Kind: layer.KindStatic, Width: 2, Default: []byte{0x01, 0x00}},
			{Name: fQDCount, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 1}},
			{Name: fANCount, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 0}},
			{Name: fNSCount, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 0}},
			{Name: fARCount, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 0}},
			{Name: fQName, Kind: layer.KindTriggerList},
			{Name: fQType, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 1}},
			{Name: fQClass, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 1}},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}()

func init() {
	layer.RegisterConstructor(ClassID, func(buf []byte, lower layer.Layer) (layer.Layer, error) {
		return newFromBytes(buf, lower)
	})
}

// Message is a dissected or under-construction DNS message.
type Message struct {
	layer.Base
}

// New parses buf as a standalone DNS message.
func New(buf []byte) (*Message, error) { return newFromBytes(buf, nil) }

func newFromBytes(buf []byte, lower layer.Layer) (*Message, error) {
	m := &Message{}
	m.Base.Init(schema, ClassID, m)
	m.Base.Dissect(buf, m.dissect)
	if lower != nil {
		m.SetLowerLayer(lower)
	}
	return m, nil
}

// NewQuery builds a minimal standard query for name/qtype/qclass, the rest
// of the header taking the schema's RFC-sensible defaults (recursion
// desired, one question, zero answers).
func NewQuery(name string, qtype, qclass uint16) (*Message, error) {
	m := &Message{}
	m.Base.Init(schema, ClassID, m)
	_ = m.QNameList().Extend(labelElements(codec.DNSNameEncode(name)))
	m.SetUint16(fQType, qtype)
	m.SetUint16(fQClass, qclass)
	return m, nil
}

func (m *Message) SetUint16(name string, v uint16) { m.SetUint16Named(name, v) }

func (m *Message) dissect(buf []byte) (int, error) {
	if len(buf) < 12 {
		return 0, ErrShortMessage
	}
	off, err := findNameEnd(buf, 12)
	if err != nil {
		return 0, err
	}
	m.InitTriggerList(fQName, buf[12:off], func(raw []byte) ([]triggerlist.Element, error) {
		return labelElements(raw), nil
	})
	end := off + 4
	if end > len(buf) {
		return 0, ErrShortMessage
	}
	return end, nil
}

// findNameEnd scans a length-prefixed label sequence starting at off,
// returning the offset just past its zero-length terminator.
func findNameEnd(buf []byte, off int) (int, error) {
	for off < len(buf) {
		n := int(buf[off])
		if n&0xc0 != 0 {
			return 0, ErrCompressedName
		}
		off++
		if n == 0 {
			return off, nil
		}
		if off+n > len(buf) {
			return 0, ErrShortMessage
		}
		off += n
	}
	return 0, ErrShortMessage
}

// labelElements splits a length-prefixed label sequence into one
// triggerlist.Bytes element per label (including its length-prefix byte)
// plus a final single-byte element for the zero terminator, so
// concatenating every element's Bin() reproduces the exact original bytes.
func labelElements(raw []byte) []triggerlist.Element {
	var elems []triggerlist.Element
	off := 0
	for off < len(raw) {
		n := int(raw[off])
		if n == 0 {
			elems = append(elems, triggerlist.Bytes{0})
			break
		}
		end := off + 1 + n
		if end > len(raw) {
			end = len(raw)
		}
		elems = append(elems, triggerlist.Bytes(append([]byte(nil), raw[off:end]...)))
		off = end
	}
	return elems
}

// QNameList returns the *triggerlist.List backing the first question's
// name, letting callers mutate labels directly (Append/Insert/Delete) as
// well as read them.
func (m *Message) QNameList() *triggerlist.List { return m.Base.TriggerList(fQName) }

func (m *Message) ID() uint16      { return m.GetUint16Named(fID) }
func (m *Message) Flags() uint16   { return m.GetUint16Named(fFlags) }
func (m *Message) QDCount() uint16 { return m.GetUint16Named(fQDCount) }
func (m *Message) QType() uint16   { return m.GetUint16Named(fQType) }
func (m *Message) QClass() uint16  { return m.GetUint16Named(fQClass) }

// QName decodes the first question's name back to dotted-string form.
func (m *Message) QName() (string, error) {
	bts, err := m.Base.TriggerList(fQName).Bin()
	if err != nil {
		return "", err
	}
	return codec.DNSNameDecode(bts)
}
