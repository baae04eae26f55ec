// Package ip4 implements the IPv4 header: the lower layer UDP sits on top
// of for port dispatch and pseudo-header checksumming. Grounded on the
// generic schema/dissect contract pypacker.py defines and on inetdiag.go's
// net.IP-based address handling for the string-form accessors.
package ip4

import (
	"encoding/binary"
	"fmt"

	"github.com/m-lab/pkt-engine/checksum"
	"github.com/m-lab/pkt-engine/codec"
	"github.com/m-lab/pkt-engine/layer"
	"github.com/m-lab/pkt-engine/layer4/udp"
)

// ClassID identifies IP4 in the process-wide handler registry.
var ClassID = layer.NewClassID("ip4")

const (
	fVerIHL   = "ver_ihl"
	fTOS      = "tos"
	fTotalLen = "total_len"
	fID       = "id"
	fFragOff  = "flags_frag"
	fTTL      = "ttl"
	fProto    = "proto"
	fSum      = "sum"
	fSrc      = "src"
	fDst      = "dst"
)

// Protocol numbers this package registers upper-layer handlers against.
const (
	ProtoUDP = 17
	ProtoTCP = 6
)

var schema = func() *layer.Compiled {
	c, err := layer.Register(layer.Schema{
		ByteOrder: binary.BigEndian,
		Fields: []layer.FieldSpec{
			{Name: fVerIHL, Kind: layer.KindStatic, Width: 1, Default: []byte{0x45}},
			{Name: fTOS, Kind: layer.KindStatic, Width: 1, Default: []byte{0}},
			{Name: fTotalLen, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 20}},
			{Name: fID, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 0}},
			{Name: fFragOff, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 0}},
			{Name: fTTL, Kind: layer.KindStatic, Width: 1, Default: []byte{64}},
			{Name: fProto, Kind: layer.KindStatic, Width: 1, Default: []byte{ProtoUDP}},
			{Name: fSum, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 0}},
			{Name: fSrc, Kind: layer.KindStatic, Width: 4, Default: []byte{0, 0, 0, 0}},
			{Name: fDst, Kind: layer.KindStatic, Width: 4, Default: []byte{0, 0, 0, 0}},
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
	layer.RegisterHandler(ClassID, []uint32{ProtoUDP}, udp.ClassID)
}

// IP4 is a dissected or under-construction IPv4 header, the "10 static
// fields (20 bytes), no trigger lists" end of the schema spectrum.
type IP4 struct {
	layer.Base
}

// New parses buf as a standalone (lowest-layer) IPv4 packet.
func New(buf []byte) (*IP4, error) { return newFromBytes(buf, nil) }

func newFromBytes(buf []byte, lower layer.Layer) (*IP4, error) {
	p := &IP4{}
	p.Base.Init(schema, ClassID, p)
	p.Base.Dissect(buf, p.dissect)
	if lower != nil {
		p.SetLowerLayer(lower)
	}
	return p, nil
}

// NewFromFields builds an IP4 header from scratch via functional options,
// all fields keeping their schema defaults otherwise.
func NewFromFields(opts ...Option) (*IP4, error) {
	p := &IP4{}
	p.Base.Init(schema, ClassID, p)
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Option configures an IP4 built via NewFromFields.
type Option func(*IP4) error

func WithSrc(ip string) Option {
	return func(p *IP4) error { return p.SetSrcString(ip) }
}

func WithDst(ip string) Option {
	return func(p *IP4) error { return p.SetDstString(ip) }
}

func WithProto(proto uint8) Option {
	return func(p *IP4) error { p.SetProto(proto); return nil }
}

func (p *IP4) dissect(buf []byte) (int, error) {
	if len(buf) < 20 {
		return 0, fmt.Errorf("ip4: buffer too short: %d bytes", len(buf))
	}
	ihl := int(buf[0]&0x0f) * 4
	if ihl < 20 || ihl > len(buf) {
		return 0, fmt.Errorf("ip4: invalid header length %d", ihl)
	}
	proto := buf[9]
	bodyBuf := buf[ihl:]
	p.InitHandler(uint32(proto), bodyBuf)
	return ihl, nil
}

// --- typed field accessors ---

func (p *IP4) VerIHL() uint8   { return p.GetUint8Named(fVerIHL) }
func (p *IP4) TOS() uint8      { return p.GetUint8Named(fTOS) }
func (p *IP4) TotalLen() uint16 { return p.GetUint16Named(fTotalLen) }
func (p *IP4) SetTotalLen(v uint16) { p.SetUint16Named(fTotalLen, v) }
func (p *IP4) TTL() uint8     { return p.GetUint8Named(fTTL) }
func (p *IP4) SetTTL(v uint8) { p.SetUint8Named(fTTL, v) }
func (p *IP4) Proto() uint8   { return p.GetUint8Named(fProto) }
func (p *IP4) SetProto(v uint8) { p.SetUint8Named(fProto, v) }
func (p *IP4) Checksum() uint16 { return p.GetUint16Named(fSum) }

func (p *IP4) Src() [4]byte {
	var out [4]byte
	copy(out[:], p.GetBytesNamed(fSrc))
	return out
}

func (p *IP4) Dst() [4]byte {
	var out [4]byte
	copy(out[:], p.GetBytesNamed(fDst))
	return out
}

func (p *IP4) SrcString() string { return codec.IPv4ToString(p.GetBytesNamed(fSrc)) }
func (p *IP4) DstString() string { return codec.IPv4ToString(p.GetBytesNamed(fDst)) }

func (p *IP4) SetSrc(addr [4]byte) { p.SetBytesNamed(fSrc, addr[:]) }
func (p *IP4) SetDst(addr [4]byte) { p.SetBytesNamed(fDst, addr[:]) }

func (p *IP4) SetSrcString(s string) error {
	addr, err := codec.IPv4ToBytes(s)
	if err != nil {
		return err
	}
	p.SetSrc(addr)
	return nil
}

func (p *IP4) SetDstString(s string) error {
	addr, err := codec.IPv4ToBytes(s)
	if err != nil {
		return err
	}
	p.SetDst(addr)
	return nil
}

// PseudoHeaderAddresses implements the interface UDP's checksum logic uses
// to fold the lower layer's addresses into its own checksum without a
// direct type dependency on ip4.IP4.
func (p *IP4) PseudoHeaderAddresses() (src, dst [4]byte, isIPv6 bool) {
	return p.Src(), p.Dst(), false
}

// Direction implements layer.Directional: DirSame if both addresses match
// the other layer's (assuming it also exposes PseudoHeaderAddresses), DirRev
// if they're swapped, DirUnknown otherwise.
func (p *IP4) Direction(other layer.Layer) layer.Direction {
	type addressed interface {
		PseudoHeaderAddresses() (src, dst [4]byte, isIPv6 bool)
	}
	o, ok := other.(addressed)
	if !ok {
		return layer.DirNotImplemented
	}
	osrc, odst, _ := o.PseudoHeaderAddresses()
	src, dst := p.Src(), p.Dst()
	switch {
	case src == osrc && dst == odst:
		return layer.DirSame
	case src == odst && dst == osrc:
		return layer.DirRev
	default:
		return layer.DirUnknown
	}
}

// ReverseAddress swaps src and dst in place, mirroring pypacker.py's
// per-protocol `reverse_address` overrides.
func (p *IP4) ReverseAddress() {
	src, dst := p.Src(), p.Dst()
	p.SetSrc(dst)
	p.SetDst(src)
}

// Bin recomputes total_len and the header checksum before falling through
// to the engine's default serializer, mirroring udp.py's auto-field
// pattern applied to IP4's own header checksum instead of a pseudo-header
// one (IP4's checksum only ever covers its own header).
func (p *IP4) Bin(updateAutoFields bool) ([]byte, error) {
	if updateAutoFields {
		p.SetUint16Named(fSum, 0)
		hdrLen := p.HeaderLen()
		bodyLen := len(p.BodyBytes())
		if upper, err := p.BodyHandler(); err == nil && upper != nil {
			bodyLen = upper.Len()
		}
		p.SetTotalLen(uint16(hdrLen + bodyLen))
		hdr, err := p.Base.HeaderBytes()
		if err != nil {
			return nil, err
		}
		sum := checksum.Sum16(hdr)
		p.SetUint16Named(fSum, sum)
	}
	return p.Base.Bin(updateAutoFields)
}
