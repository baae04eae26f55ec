// Package radiotap implements the de facto radiotap link-layer header used
// by 802.11 packet captures: a fixed 8-byte prefix, a present-flags bitmask
// that drives a variable-length run of optional fields, and an optional
// frame-check-sequence trailer. Ported from radiotap.py, including its
// present-flags masking quirk (the mask table is defined against a
// big-endian reinterpretation of the field's little-endian wire bytes). FCS
// presence is read from bit 0x10 of the FLAGS field.
package radiotap

import (
	"encoding/binary"

	"github.com/m-lab/pkt-engine/layer"
	"github.com/m-lab/pkt-engine/triggerlist"
)

// ClassID identifies Radiotap in the process-wide handler registry.
var ClassID = layer.NewClassID("radiotap")

// RTapType80211 is the sole discriminator radiotap.py registers a body
// handler against. No 802.11 dissector is part of this engine, so nothing
// calls RegisterHandler for it; the body is always carried as raw bytes,
// and InitHandler's unknown-discriminator counter fires on every dissect
// whose body is non-empty (an empty body is stored without a lookup).
const RTapType80211 = 0

const (
	fVersion      = "version"
	fPad          = "pad"
	fLen          = "len"
	fPresentFlags = "present_flags"
	fFlags        = "flags"
)

// Present-flags bit masks, defined against a big-endian reinterpretation of
// the field's 4 wire bytes rather than their native little-endian value.
// See presentFlagsMask.
const (
	tsftMask       uint32 = 0x01000000
	flagsMask      uint32 = 0x02000000
	rateMask       uint32 = 0x04000000
	channelMask    uint32 = 0x08000000
	fhssMask       uint32 = 0x10000000
	dbAntSigMask   uint32 = 0x20000000
	dbAntNoiseMask uint32 = 0x40000000
	lockQualMask   uint32 = 0x80000000

	txAttnMask    uint32 = 0x00010000
	dbTxAttnMask  uint32 = 0x00020000
	dbmTxPwrMask  uint32 = 0x00040000
	antennaMask   uint32 = 0x00080000
	antSigMask    uint32 = 0x00100000
	antNoiseMask  uint32 = 0x00200000
	rxFlagsMask   uint32 = 0x00400000

	channelPlusMask uint32 = 0x00000400
	htMask          uint32 = 0x00000800
	ampduMask       uint32 = 0x00001000
	vhtMask         uint32 = 0x00002000

	rtNSNextMask   uint32 = 0x00000020
	vendorNSNext   uint32 = 0x00000040
	extMask        uint32 = 0x00000080
)

// ChannelMask identifies the (freq, flags) tuple decoded by ChannelInfo.
const ChannelMask = channelMask

type sizeAlign struct{ length, align int }

// radioFields gives each known present-flags bit its (length, alignment) in
// bytes, per radiotap.org's defined-fields list.
var radioFields = map[uint32]sizeAlign{
	tsftMask:       {8, 8},
	flagsMask:      {1, 1},
	rateMask:       {1, 1},
	channelMask:    {4, 2},
	fhssMask:       {2, 1},
	dbAntSigMask:   {1, 1},
	dbAntNoiseMask: {1, 1},
	lockQualMask:   {2, 2},
	txAttnMask:     {2, 2},
	dbTxAttnMask:   {2, 2},
	dbmTxPwrMask:   {1, 1},
	antennaMask:    {1, 1},
	antSigMask:     {1, 1},
	antNoiseMask:   {1, 1},
	rxFlagsMask:    {2, 2},
	htMask:         {3, 1},
	ampduMask:      {8, 4},
	vhtMask:        {12, 2},
}

// radioFieldOrder is radioFields' keys in present-flags bit order (low bit
// first), the order fields actually appear in the variable-length section.
var radioFieldOrder = []uint32{
	tsftMask, flagsMask, rateMask, channelMask,
	fhssMask, dbAntSigMask, dbAntNoiseMask, lockQualMask,
	txAttnMask, dbTxAttnMask, dbmTxPwrMask, antennaMask,
	antSigMask, antNoiseMask, rxFlagsMask,
	htMask,
	ampduMask, vhtMask,
}

// unsupportedMasks are present-flags bits radiotap.org leaves with no fixed
// field width (CHANNELPLUS, the two namespace-next bits, and EXT). Rather
// than guess a width and risk misparsing every field after it, dissecting a
// header with any of these bits set fails outright.
var unsupportedMasks = []uint32{channelPlusMask, rtNSNextMask, vendorNSNext, extMask}

var schema = func() *layer.Compiled {
	c, err := layer.Register(layer.Schema{
		ByteOrder: binary.LittleEndian,
		Fields: []layer.FieldSpec{
			{Name: fVersion, Kind: layer.KindStatic, Width: 1, Default: []byte{0}},
			{Name: fPad, Kind: layer.KindStatic, Width: 1, Default: []byte{0}},
			{Name: fLen, Kind: layer.KindStatic, Width: 2, Default: []byte{0x08, 0x00}},
			{Name: fPresentFlags, Kind: layer.KindStatic, Width: 4, Default: []byte{0, 0, 0, 0}},
			{Name: fFlags, Kind: layer.KindTriggerList},
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

// Radiotap is a dissected or under-construction radiotap header. fcs holds
// the optional frame-check-sequence trailer, the Go equivalent of
// radiotap.py's dynamically-set _fcs attribute: it isn't one of the
// schema's named fields because it never appears at a fixed position in
// the header proper, only as a trailer after the body.
type Radiotap struct {
	layer.Base
	fcs []byte
}

// New parses buf as a standalone radiotap frame.
func New(buf []byte) (*Radiotap, error) { return newFromBytes(buf, nil) }

func newFromBytes(buf []byte, lower layer.Layer) (*Radiotap, error) {
	r := &Radiotap{}
	r.Base.Init(schema, ClassID, r)
	r.Base.Dissect(buf, r.dissect)
	if lower != nil {
		r.SetLowerLayer(lower)
	}
	return r, nil
}

// NewFromFields builds a radiotap header from scratch; present_flags and the
// flags trigger list start empty (no optional fields), matching the
// schema's own zero defaults.
func NewFromFields() *Radiotap {
	r := &Radiotap{}
	r.Base.Init(schema, ClassID, r)
	return r
}

// presentFlagsMask reinterprets present_flags' 4 wire bytes as big-endian,
// matching the mask constants above, per radiotap.py's unpack_flags(">I").
func (r *Radiotap) presentFlagsMask() uint32 {
	return binary.BigEndian.Uint32(r.GetBytesNamed(fPresentFlags))
}

func (r *Radiotap) dissect(buf []byte) (int, error) {
	if len(buf) < 8 {
		return 0, ErrShortHeader
	}
	flags := binary.BigEndian.Uint32(buf[4:8])
	posEnd := len(buf)

	if flags&flagsMask == flagsMask {
		off := 0
		if flags&tsftMask == tsftMask {
			off = 8
		}
		if 8+off >= len(buf) {
			return 0, ErrTruncatedFlags
		}
		if buf[8+off]&0x10 != 0 {
			if len(buf) < 4 {
				return 0, ErrTruncatedFlags
			}
			r.fcs = append([]byte(nil), buf[len(buf)-4:]...)
			posEnd = len(buf) - 4
		}
	}

	hdrLen := int(binary.LittleEndian.Uint16(buf[2:4]))
	if hdrLen < 8 || hdrLen > len(buf) {
		return 0, ErrTruncatedFlags
	}
	r.InitTriggerList(fFlags, buf[8:hdrLen], func(raw []byte) ([]triggerlist.Element, error) {
		return parseFlags(raw, flags)
	})
	if posEnd < hdrLen {
		posEnd = hdrLen
	}
	r.InitHandler(RTapType80211, buf[hdrLen:posEnd])
	return hdrLen, nil
}

// parseFlags walks radioFieldOrder, emitting one triggerlist.Tuple per
// present field (mask, raw bytes). Alignment padding needed before a field
// is counted into that field's size, so a tuple's value holds the padding
// bytes first and the field's own bytes last. Ported from radiotap.py's
// _parse_flags.
func parseFlags(raw []byte, flags uint32) ([]triggerlist.Element, error) {
	for _, m := range unsupportedMasks {
		if flags&m != 0 {
			return nil, ErrUnsupportedField
		}
	}

	var elems []triggerlist.Element
	off := 0
	for _, mask := range radioFieldOrder {
		if flags&mask == 0 {
			continue
		}
		sa := radioFields[mask]
		size := sa.length
		if mod := off % sa.align; mod != 0 {
			size += sa.align - mod
		}
		if off+size > len(raw) {
			return nil, ErrTruncatedFlags
		}
		value := append([]byte(nil), raw[off:off+size]...)
		elems = append(elems, triggerlist.Tuple{Mask: mask, Value: value})
		off += size
	}
	return elems, nil
}

func (r *Radiotap) Version() uint8 { return r.GetUint8Named(fVersion) }
func (r *Radiotap) Pad() uint8     { return r.GetUint8Named(fPad) }

// HdrLen returns the header's declared total length (fixed prefix plus
// variable fields), the radiotap "len" field. Named to avoid colliding with
// the embedded Base.Len, which reports the full packet's length instead.
func (r *Radiotap) HdrLen() uint16 { return r.GetUint16Named(fLen) }

// PresentFlags returns present_flags reinterpreted to match the mask
// constants this package exports (TSFT, FLAGS, RATE, ...).
func (r *Radiotap) PresentFlags() uint32 { return r.presentFlagsMask() }

// FlagsList returns the trigger list backing the optional fields, letting
// callers walk or mutate the (mask, value) tuples directly.
func (r *Radiotap) FlagsList() *triggerlist.List { return r.Base.TriggerList(fFlags) }

// ChannelInfo returns the channel frequency (MHz) and channel flags carried
// in the CHANNEL_MASK field, if present. Ported from get_channelinfo.
func (r *Radiotap) ChannelInfo() (freqMHz uint16, channelFlags uint16, ok bool) {
	elems, err := r.FlagsList().Elements()
	if err != nil {
		return 0, 0, false
	}
	for _, e := range elems {
		t, isTuple := e.(triggerlist.Tuple)
		if !isTuple || t.Mask != channelMask || len(t.Value) < 4 {
			continue
		}
		v := t.Value[len(t.Value)-4:] // skip any leading alignment padding
		return binary.LittleEndian.Uint16(v[0:2]), binary.LittleEndian.Uint16(v[2:4]), true
	}
	return 0, 0, false
}

// FCS returns the frame-check-sequence trailer, or nil if none was present.
func (r *Radiotap) FCS() []byte { return r.fcs }

// SetFCS sets the trailer appended after Bin's header+body output.
func (r *Radiotap) SetFCS(fcs []byte) { r.fcs = fcs }

// Bin appends the FCS trailer (if any) after the engine's default
// serialization, ported from radiotap.py's own bin() override.
func (r *Radiotap) Bin(updateAutoFields bool) ([]byte, error) {
	b, err := r.Base.Bin(updateAutoFields)
	if err != nil {
		return nil, err
	}
	if len(r.fcs) == 0 {
		return b, nil
	}
	out := make([]byte, 0, len(b)+len(r.fcs))
	out = append(out, b...)
	out = append(out, r.fcs...)
	return out, nil
}
