package layer

import "github.com/m-lab/pkt-engine/metrics"

// bodyKind tags which of Body's shapes is live, replacing pypacker.py's
// dynamic check of whether `self._bodytypename` is set vs. `self._body_bytes`.
type bodyKind int

const (
	bodyRaw bodyKind = iota
	bodyLazy
	bodyAttached
)

// body holds a layer's payload in exactly one of three shapes at a time:
// plain undissected bytes, bytes earmarked for lazy dissection into a
// specific upper ClassID, or an already-instantiated upper Layer.
type body struct {
	kind bodyKind

	raw []byte

	lazyDiscriminator uint32
	lazyClass         ClassID
	lazyBytes         []byte

	attached Layer
}

// BodyBytes returns the flat byte form of the body: raw bytes as-is, the
// not-yet-dissected lazy bytes as-is, or (recursively) the attached upper
// layer's own header-plus-body bytes packed with its current field values.
// Mirrors pypacker.py's `_get_bodybytes`: it does not reset changed status
// and does not recompute auto-fields, unlike Bin.
func (b *Base) BodyBytes() []byte {
	switch b.body.kind {
	case bodyLazy:
		return b.body.lazyBytes
	case bodyAttached:
		bts, err := b.bodyBytesDeep()
		if err != nil {
			logWarn("BodyBytes: packing attached layer on %s: %v", ClassName(b.class), err)
			return nil
		}
		return bts
	default:
		return b.body.raw
	}
}

func (b *Base) bodyBytesDeep() ([]byte, error) {
	if b.body.kind != bodyAttached {
		return b.BodyBytes(), nil
	}
	h := b.body.attached
	hb := h.base()
	changed, formatChanged := hb.headerChanged, hb.headerFormatChanged
	hdr, err := h.HeaderBytes()
	hb.headerChanged, hb.headerFormatChanged = changed, formatChanged
	if err != nil {
		return nil, err
	}
	rest := h.base().BodyBytes()
	out := make([]byte, 0, len(hdr)+len(rest))
	out = append(out, hdr...)
	out = append(out, rest...)
	return out, nil
}

// SetBodyBytes replaces the body with plain bytes, detaching (and
// unlinking) any previously attached upper layer.
func (b *Base) SetBodyBytes(v []byte) {
	if b.body.kind == bodyAttached && b.body.attached != nil {
		b.body.attached.base().lower = nil
	}
	b.body = body{kind: bodyRaw, raw: v}
	b.headerChanged = true
	b.notifyListeners()
}

// SetBodyHandler attaches h as this layer's upper layer, replacing whatever
// the body currently holds. Passing nil clears the body to empty bytes.
func (b *Base) SetBodyHandler(h Layer) {
	if b.body.kind == bodyAttached && b.body.attached != nil {
		b.body.attached.base().lower = nil
	}
	if h == nil {
		b.body = body{kind: bodyRaw, raw: []byte{}}
	} else {
		h.base().lower = b.owner
		b.body = body{kind: bodyAttached, attached: h}
	}
	b.headerChanged = true
	b.notifyListeners()
}

// BodyHandler returns the upper layer, lazily instantiating it out of the
// stored lazy bytes on first call (pypacker.py's `body_handler` getter /
// `__getattr__`-triggered `_init_handler`). A failed instantiation demotes
// the body back to raw bytes and returns the constructor's error; later
// calls see the raw body and return (nil, nil).
func (b *Base) BodyHandler() (Layer, error) {
	switch b.body.kind {
	case bodyAttached:
		return b.body.attached, nil
	case bodyRaw:
		return nil, nil
	case bodyLazy:
		ctor, ok := lookupConstructor(b.body.lazyClass)
		if !ok {
			b.body = body{kind: bodyRaw, raw: b.body.lazyBytes}
			return nil, nil
		}
		upper, err := ctor(b.body.lazyBytes, b.owner)
		if err != nil {
			logWarn("BodyHandler: instantiating %s body on %s: %v", ClassName(b.body.lazyClass), ClassName(b.class), err)
			b.body = body{kind: bodyRaw, raw: b.body.lazyBytes}
			return nil, err
		}
		b.body = body{kind: bodyAttached, attached: upper}
		return upper, nil
	}
	return nil, nil
}

// InitHandler records buf as the lazy body of this layer, to be dissected
// into upper's registered class on first BodyHandler call. If no handler is
// registered for discriminator under this layer's class, buf is stored as
// plain raw bytes instead (pypacker.py's `_init_handler` "else" branch).
func (b *Base) InitHandler(discriminator uint32, buf []byte) {
	if len(buf) == 0 {
		b.body = body{kind: bodyRaw, raw: []byte{}}
		return
	}
	upper, ok := lookupHandler(b.class, discriminator)
	if !ok {
		metrics.UnknownDiscriminatorCount.WithLabelValues(ClassName(b.class)).Inc()
		b.body = body{kind: bodyRaw, raw: buf}
		return
	}
	b.body = body{kind: bodyLazy, lazyDiscriminator: discriminator, lazyClass: upper, lazyBytes: buf}
}
