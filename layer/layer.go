// Package layer implements the protocol-agnostic packet engine: a
// schema-driven field store, lazy body dissection, change tracking and
// serialization, shared by every concrete protocol package (layer12/...,
// layer3/..., layer4/..., layer567/...).
//
// It is the Go-native reshaping of pypacker's pypacker.py/pypacker_meta.py:
// metaclass-synthesized attributes become a FieldKind-tagged Schema plus
// typed accessor methods generated by hand per protocol; the string-keyed
// handler registry becomes an integer ClassID table; Python's dynamic
// __getattr__-based lazy body handler becomes the explicit Body sum type.
package layer

// Layer is implemented by every concrete protocol type (UDP, IP4, ...),
// each of which embeds Base and gets most of these methods promoted for
// free. Protocols needing auto-computed fields (checksums, lengths) shadow
// Bin to recompute those fields before delegating to Base.Bin.
type Layer interface {
	// Bin serializes this layer and everything attached above it. When
	// updateAutoFields is true, protocols with derived fields recompute
	// them first.
	Bin(updateAutoFields bool) ([]byte, error)
	// HeaderBytes packs only this layer's own header, without touching the
	// body.
	HeaderBytes() ([]byte, error)
	// BodyBytes returns this layer's body as flat bytes: the raw/lazy
	// payload, or (recursively) the packed bytes of an attached upper
	// layer.
	BodyBytes() []byte
	// SetBodyBytes replaces the body with raw bytes, detaching any
	// instantiated upper layer.
	SetBodyBytes(body []byte)
	// BodyHandler returns the upper layer, lazily instantiating it from
	// stored raw bytes on first call. Returns (nil, nil) when the body is
	// plain bytes with no registered handler.
	BodyHandler() (Layer, error)
	// SetBodyHandler attaches an already-constructed upper layer.
	SetBodyHandler(h Layer)
	// LowerLayer returns the layer this one was dissected out of, or nil
	// for the lowest layer. The reference is non-owning: a layer's
	// serialized form never depends on what's below it.
	LowerLayer() Layer
	// ClassID identifies the concrete protocol type.
	ClassID() ClassID
	// DissectError reports whether this layer's own dissect() call failed;
	// the layer remains usable with best-effort field values.
	DissectError() bool
	// HeaderLen returns the current packed length of this layer's own
	// header, recomputing it first if any field width changed.
	HeaderLen() int
	// Len returns HeaderLen() plus the full length of everything above it.
	Len() int
	// AddChangeListener lets a containing TriggerList subscribe to this
	// layer's own mutations (see triggerlist.List). The returned func
	// unsubscribes; callers that no longer care simply stop calling it.
	AddChangeListener(cb func()) (unsubscribe func())
	// Changed reports whether this layer or anything above it has
	// unserialized mutations pending.
	Changed() bool

	// base gives same-package helpers (navigate.go, serialize.go) direct
	// access to shared state without widening the public surface; any type
	// embedding Base gets it for free, so external protocol packages still
	// satisfy this interface purely by embedding layer.Base.
	base() *Base
}

// Direction classifies how one layer's address fields relate to another's,
// mirroring pypacker.py's DIR_SAME / DIR_REV / DIR_UNKNOWN / DIR_NOT_IMPLEMENTED.
type Direction int

const (
	DirSame          Direction = 1
	DirRev           Direction = 2
	DirUnknown       Direction = 4
	DirNotImplemented Direction = 255
)

// Directional is implemented by protocols with an address pair worth
// comparing (IP4, UDP's ports on top of it, ...). Protocols without one
// simply don't implement it; navigate.go treats that as DirNotImplemented.
type Directional interface {
	Direction(other Layer) Direction
	ReverseAddress()
}
