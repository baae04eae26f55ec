package layer

// This file is the by-name counterpart to the by-index helpers in base.go:
// every concrete protocol's hand-written typed accessor (UDP.Sport(),
// IP4.Src(), ...) resolves its schema field once per call via these, trading
// a small map lookup for not having to thread field indices through every
// protocol package by hand. Protocols that care about the cost can cache
// b.idx(name) themselves; none of the ones in this module are hot enough to
// need that.

func (b *Base) GetUint8Named(name string) uint8   { return b.getUint8(b.idx(name)) }
func (b *Base) GetUint16Named(name string) uint16 { return b.getUint16(b.idx(name)) }
func (b *Base) GetUint32Named(name string) uint32 { return b.getUint32(b.idx(name)) }
func (b *Base) GetBytesNamed(name string) []byte  { return b.getBytes(b.idx(name)) }
func (b *Base) IsActiveNamed(name string) bool    { return b.isActive(b.idx(name)) }

func (b *Base) SetUint8Named(name string, v uint8)   { b.setUint8(b.idx(name), v) }
func (b *Base) SetUint16Named(name string, v uint16) { b.setUint16(b.idx(name), v) }
func (b *Base) SetUint32Named(name string, v uint32) { b.setUint32(b.idx(name), v) }

// SetBytesNamed sets a KindStatic field's raw bytes (panicking if the width
// doesn't match the schema, a programmer error rather than a runtime one
// since the width is fixed at compile time for every caller) or a
// KindDynamicSimple field's bytes (any width).
func (b *Base) SetBytesNamed(name string, v []byte) {
	i := b.idx(name)
	switch b.schema.fields[i].Kind {
	case KindDynamicSimple:
		b.setDynamicBytes(i, v)
	default:
		if err := b.setFixedBytes(i, v); err != nil {
			panic(err)
		}
	}
}

// DeactivateNamed clears an optional field to "absent".
func (b *Base) DeactivateNamed(name string) { b.deactivate(b.idx(name)) }

// SetLowerLayer records lower as the layer this one was dissected out of.
// Used by a protocol's constructor when it's being built by the handler
// dispatch table rather than as a standalone top-level layer.
func (b *Base) SetLowerLayer(lower Layer) { b.lower = lower }
