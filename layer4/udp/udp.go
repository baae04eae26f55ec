// Package udp implements the User Datagram Protocol (RFC 768), ported
// directly from udp.py: auto-checksum recompute wired through the lower
// layer's pseudo-header addresses, source/destination port dispatch, and
// the direction/reverse_address pair used for flow-symmetry comparisons.
package udp

import (
	"encoding/binary"

	"github.com/m-lab/pkt-engine/checksum"
	"github.com/m-lab/pkt-engine/layer"
	"github.com/m-lab/pkt-engine/layer567/dns"
)

// ClassID identifies UDP in the process-wide handler registry.
var ClassID = layer.NewClassID("udp")

const (
	fSport = "sport"
	fDport = "dport"
	fUlen  = "ulen"
	fSum   = "sum"
)

// UDPPortMax mirrors udp.py's UDP_PORT_MAX.
const UDPPortMax = 65535

// Well-known port groups, ported from udp.py's UDP_PROTO_* tuples. Each
// port in a group dispatches to the same upper-layer class.
var (
	ProtoTelnet = []uint32{23}
	ProtoDNS    = []uint32{53, 5353}
	ProtoDHCP   = []uint32{67, 68}
	ProtoPMAP   = []uint32{111}
	ProtoNTP    = []uint32{123}
)

var schema = func() *layer.Compiled {
	c, err := layer.Register(layer.Schema{
		ByteOrder: binary.BigEndian,
		Fields: []layer.FieldSpec{
			{Name: fSport, Kind: layer.KindStatic, Width: 2, Default: []byte{0xde, 0xad}},
			{Name: fDport, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 0}},
			{Name: fUlen, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 8}},
			{Name: fSum, Kind: layer.KindStatic, Width: 2, Default: []byte{0, 0}},
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
	layer.RegisterHandler(ClassID, ProtoDNS, dns.ClassID)
}

// UDP is a dissected or under-construction UDP header.
type UDP struct {
	layer.Base
}

// New parses buf as a standalone UDP datagram (no lower IP layer, so the
// checksum can never be auto-computed, see Bin).
func New(buf []byte) (*UDP, error) { return newFromBytes(buf, nil) }

func newFromBytes(buf []byte, lower layer.Layer) (*UDP, error) {
	u := &UDP{}
	u.Base.Init(schema, ClassID, u)
	u.Base.Dissect(buf, u.dissect)
	if lower != nil {
		u.SetLowerLayer(lower)
	}
	return u, nil
}

// Option configures a UDP built via NewFromFields.
type Option func(*UDP) error

func WithSport(v uint16) Option { return func(u *UDP) error { u.SetSport(v); return nil } }
func WithDport(v uint16) Option { return func(u *UDP) error { u.SetDport(v); return nil } }

// NewFromFields builds a UDP header from scratch via functional options.
// sport defaults to 0xdead and ulen to 8, matching udp.py's __hdr__
// defaults exactly.
func NewFromFields(opts ...Option) (*UDP, error) {
	u := &UDP{}
	u.Base.Init(schema, ClassID, u)
	for _, opt := range opts {
		if err := opt(u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// dissect reads the port pair directly out of buf (not via the generic
// field accessors, which aren't safe to use before Base.Dissect finishes)
// to decide the upper-layer handler, checking source before destination:
// the pinned precedence for the case where both ports happen to be
// registered to different classes.
func (u *UDP) dissect(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrShortDatagram
	}
	sport := binary.BigEndian.Uint16(buf[0:2])
	dport := binary.BigEndian.Uint16(buf[2:4])
	bodyBuf := buf[8:]
	if _, ok := layer.Peek(ClassID, uint32(sport)); ok {
		u.InitHandler(uint32(sport), bodyBuf)
	} else {
		u.InitHandler(uint32(dport), bodyBuf)
	}
	return 8, nil
}

func (u *UDP) Sport() uint16 { return u.GetUint16Named(fSport) }
func (u *UDP) Dport() uint16 { return u.GetUint16Named(fDport) }
func (u *UDP) Ulen() uint16  { return u.GetUint16Named(fUlen) }
func (u *UDP) Checksum() uint16 { return u.GetUint16Named(fSum) }

func (u *UDP) SetSport(v uint16) { u.SetUint16Named(fSport, v) }
func (u *UDP) SetDport(v uint16) { u.SetUint16Named(fDport, v) }
func (u *UDP) SetChecksum(v uint16) { u.SetUint16Named(fSum, v) }

// pseudoHeaderSource is implemented by whatever IP-family layer sits below
// UDP; it decouples the checksum logic from a direct import of layer3/ip4
// (and would equally suit a future IPv6 layer), the Go-native replacement
// for udp.py's `try: self._lower_layer.src, self._lower_layer.dst / except
// AttributeError` duck typing.
type pseudoHeaderSource interface {
	PseudoHeaderAddresses() (src, dst [4]byte, isIPv6 bool)
}

// Bin recomputes ulen and, when a lower layer exposing pseudo-header
// addresses is present, the checksum, before falling through to the
// engine's default serializer. Ported from udp.py's `bin` override: the
// checksum is only recomputed when this layer (or anything above it)
// changed, or the lower layer's header changed. Setting the checksum by
// hand marks this layer changed, so Bin recomputes over it.
func (u *UDP) Bin(updateAutoFields bool) ([]byte, error) {
	if updateAutoFields {
		changed := u.Changed()
		update := true
		if lower := u.LowerLayer(); lower != nil {
			if !lower.Changed() {
				update = changed
			}
		} else {
			update = false
		}
		if changed {
			u.SetUlen()
		}
		if update {
			u.recalcSum()
		}
	}
	return u.Base.Bin(updateAutoFields)
}

// SetUlen recomputes the ulen field from this layer's current total length
// (header + body, recursively through any attached upper layer).
func (u *UDP) SetUlen() {
	u.SetUint16Named(fUlen, uint16(u.Len()))
}

func (u *UDP) recalcSum() {
	lower := u.LowerLayer()
	if lower == nil {
		return
	}
	src4, ok := pseudoSrcDst(lower)
	if !ok {
		return
	}
	u.SetChecksum(0)
	hdr, err := u.Base.HeaderBytes()
	if err != nil {
		return
	}
	body := u.BodyBytes()
	datagram := make([]byte, 0, len(hdr)+len(body))
	datagram = append(datagram, hdr...)
	datagram = append(datagram, body...)

	pseudo := checksum.PseudoHeaderV4(src4.src, src4.dst, 17, uint16(len(datagram)))
	full := append(pseudo, datagram...)
	sum := checksum.ZeroAsAllOnes(checksum.Sum16(full))
	u.SetChecksum(sum)
}

type v4Addrs struct{ src, dst [4]byte }

func pseudoSrcDst(lower layer.Layer) (v4Addrs, bool) {
	ph, ok := lower.(pseudoHeaderSource)
	if !ok {
		return v4Addrs{}, false
	}
	src, dst, isIPv6 := ph.PseudoHeaderAddresses()
	if isIPv6 {
		return v4Addrs{}, false
	}
	return v4Addrs{src: src, dst: dst}, true
}

// Direction implements layer.Directional exactly per udp.py's `direction`.
func (u *UDP) Direction(other layer.Layer) layer.Direction {
	o, ok := other.(interface {
		Sport() uint16
		Dport() uint16
	})
	if !ok {
		return layer.DirNotImplemented
	}
	switch {
	case u.Sport() == o.Sport() && u.Dport() == o.Dport():
		return layer.DirSame | layer.DirRev
	case u.Sport() == o.Dport() && u.Dport() == o.Sport():
		return layer.DirRev
	default:
		return layer.DirUnknown
	}
}

// ReverseAddress swaps sport and dport in place.
func (u *UDP) ReverseAddress() {
	sport, dport := u.Sport(), u.Dport()
	u.SetSport(dport)
	u.SetDport(sport)
}
