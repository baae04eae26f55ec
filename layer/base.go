package layer

import (
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"github.com/m-lab/go/logx"
	"github.com/m-lab/pkt-engine/metrics"
	"github.com/m-lab/pkt-engine/triggerlist"
)

// trace is the trace logger standing in for pypacker.py's commented
// `logger.debug(...)` call sites. NewLogEvery(_, 0) applies no rate limit,
// so every trace call is written out.
var trace = logx.NewLogEvery(log.New(log.Writer(), "layer: ", log.LstdFlags), 0)

func logWarn(format string, args ...interface{}) {
	log.Printf("layer: "+format, args...)
}

// UnpackState is the three-state lifecycle of a Base's simple-field values,
// see pypacker.py's `_unpacked` and the state machine the design notes
// describe: PreDissect (the state Init leaves a layer in; a layer built from
// fields rather than bytes stays here, and its field values are the schema
// defaults or whatever was set directly),
// NotYetUnpacked (header bytes captured, static fields not yet decoded),
// Unpacked (terminal; every active static field reflects header_cache or a
// direct mutation).
type UnpackState int

const (
	PreDissect UnpackState = iota
	NotYetUnpacked
	Unpacked
)

// Base is the embeddable packet-instance state shared by every concrete
// protocol type. It owns field storage, the body union, change tracking and
// the upper/lower layer links; protocol packages embed it by value and add
// typed accessor methods plus a Dissect function.
type Base struct {
	schema *Compiled
	class  ClassID
	owner  Layer // the embedding protocol struct; see Init.

	values []([]byte)
	active []bool

	triggers map[int]*triggerSlotHolder

	headerCache         []byte
	headerChanged       bool
	headerFormatChanged bool
	headerLen           int

	unpacked UnpackState

	body body

	lower Layer

	dissectError bool

	listeners []*listenerEntry
}

// triggerSlotHolder holds the *triggerlist.List backing one KindTriggerList
// field; see trigger.go for construction and listener wiring.
type triggerSlotHolder struct {
	list *triggerlist.List
}

// Init sets up a freshly allocated Base for use. Every protocol constructor
// calls it before doing anything else, passing itself as owner so Base can
// link lower/upper layers and satisfy the `base() *Base` half of Layer.
func (b *Base) Init(schema *Compiled, class ClassID, owner Layer) {
	b.schema = schema
	b.class = class
	b.owner = owner
	b.values = make([][]byte, len(schema.fields))
	b.active = make([]bool, len(schema.fields))
	b.triggers = make(map[int]*triggerSlotHolder)
	for i, f := range schema.fields {
		if f.Kind == KindTriggerList {
			continue
		}
		b.values[i] = append([]byte(nil), f.Default...)
		b.active[i] = !f.Deactivatable || len(f.Default) > 0
		if b.active[i] {
			b.headerLen += len(b.values[i])
		}
	}
	b.unpacked = PreDissect
}

// base implements the unexported half of Layer; embedding Base gives every
// protocol type this method for free regardless of which package it lives
// in, since the method's identifier is scoped to package layer.
func (b *Base) base() *Base { return b }

func (b *Base) ClassID() ClassID       { return b.class }
func (b *Base) DissectError() bool     { return b.dissectError }
func (b *Base) LowerLayer() Layer      { return b.lower }
func (b *Base) schemaOf() *Compiled    { return b.schema }

// AddChangeListener registers cb to run whenever this layer's own fields or
// body change, and returns a func that unsubscribes it. Used by
// triggerlist.List to propagate a contained sub-packet's mutation up to the
// owning packet (see triggerlist/list.go's listener wiring), the Go analogue of
// pypacker.py's `_add_change_listener`/`_remove_change_listener` pair, which
// relied on Python function-object identity for removal.
func (b *Base) AddChangeListener(cb func()) func() {
	id := len(b.listeners)
	entry := &listenerEntry{fn: cb}
	b.listeners = append(b.listeners, entry)
	return func() {
		if id < len(b.listeners) && b.listeners[id] == entry {
			b.listeners[id] = nil
		}
	}
}

type listenerEntry struct{ fn func() }

func (b *Base) notifyListeners() {
	for _, l := range b.listeners {
		if l == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					metrics.ListenerPanicCount.Inc()
					logWarn("recovered panic in change listener for %s: %v", ClassName(b.class), r)
				}
			}()
			l.fn()
		}()
	}
}

// Changed reports whether this layer or anything attached above it still
// has pending serialization work, mirroring pypacker.py's `_changed`.
func (b *Base) Changed() bool {
	if b.headerChanged || b.headerFormatChanged {
		return true
	}
	if b.body.kind == bodyAttached && b.body.attached != nil {
		return b.body.attached.Changed()
	}
	return false
}

func (b *Base) byteOrder() binary.ByteOrder { return b.schema.byteOrder }

// ensureUnpacked decodes any not-yet-decoded static field values out of
// headerCache, transitioning NotYetUnpacked -> Unpacked exactly once.
func (b *Base) ensureUnpacked() error {
	if b.unpacked != NotYetUnpacked {
		return nil
	}
	return b.unpack()
}

// Dissect runs fn (a protocol's own header parser) over buf, then records
// whatever header length it returns as headerCache and everything after it
// as the (raw, for now) body. Any error returned by fn, or any panic fn
// triggers while poking at a malformed buffer, is absorbed into
// dissectError rather than propagated, mirroring pypacker.py's blanket
// `except Exception` around `_dissect`, reshaped as Go's explicit error
// return plus a defensive recover() for the cases Go can't express as an
// error (out-of-range slice access on a too-short buffer).
func (b *Base) Dissect(buf []byte, fn func([]byte) (int, error)) {
	start := time.Now()
	n, err := b.runDissect(buf, fn)
	metrics.DissectLatencyUsecSummary.WithLabelValues(ClassName(b.class)).Observe(float64(time.Since(start).Microseconds()))
	if err != nil {
		b.dissectError = true
		metrics.DissectErrorCount.WithLabelValues(ClassName(b.class)).Inc()
		logWarn("dissect error in %s: %v", ClassName(b.class), err)
		n = len(buf)
	}
	if n < 0 || n > len(buf) {
		n = len(buf)
	}
	b.headerLen = n
	b.headerCache = append([]byte(nil), buf[:n]...)
	if b.body.kind == bodyRaw && b.body.raw == nil {
		b.body = body{kind: bodyRaw, raw: append([]byte(nil), buf[n:]...)}
	}
	b.headerChanged = false
	b.headerFormatChanged = false
	b.unpacked = NotYetUnpacked
	trace.Printf("dissected %s: header_len=%d dissect_error=%v", ClassName(b.class), n, b.dissectError)
}

func (b *Base) runDissect(buf []byte, fn func([]byte) (int, error)) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(buf)
}

// --- generic typed field access, shared by every protocol's accessors ---

func (b *Base) idx(name string) int {
	i, ok := b.schema.indexOf[name]
	if !ok {
		panic(fmt.Sprintf("layer: %s has no field %q", ClassName(b.class), name))
	}
	return i
}

func (b *Base) getUint8(i int) uint8 {
	_ = b.ensureUnpacked()
	if !b.active[i] || len(b.values[i]) < 1 {
		return 0
	}
	return b.values[i][0]
}

func (b *Base) getUint16(i int) uint16 {
	_ = b.ensureUnpacked()
	if !b.active[i] || len(b.values[i]) < 2 {
		return 0
	}
	return b.byteOrder().Uint16(b.values[i])
}

func (b *Base) getUint32(i int) uint32 {
	_ = b.ensureUnpacked()
	if !b.active[i] || len(b.values[i]) < 4 {
		return 0
	}
	return b.byteOrder().Uint32(b.values[i])
}

func (b *Base) getBytes(i int) []byte {
	_ = b.ensureUnpacked()
	if !b.active[i] {
		return nil
	}
	return append([]byte(nil), b.values[i]...)
}

func (b *Base) isActive(i int) bool {
	_ = b.ensureUnpacked()
	return b.active[i]
}

func (b *Base) setUint8(i int, v uint8) {
	b.values[i] = []byte{v}
	b.markSimpleChanged(i, false)
}

func (b *Base) setUint16(i int, v uint16) {
	buf := make([]byte, 2)
	b.byteOrder().PutUint16(buf, v)
	b.values[i] = buf
	b.markSimpleChanged(i, false)
}

func (b *Base) setUint32(i int, v uint32) {
	buf := make([]byte, 4)
	b.byteOrder().PutUint32(buf, v)
	b.values[i] = buf
	b.markSimpleChanged(i, false)
}

// setFixedBytes sets a KindStatic byte-array field (e.g. a 6-byte MAC
// address); value width must equal the schema's declared Width.
func (b *Base) setFixedBytes(i int, v []byte) error {
	if len(v) != b.schema.fields[i].Width {
		return ErrFieldWidth
	}
	b.values[i] = append([]byte(nil), v...)
	b.markSimpleChanged(i, false)
	return nil
}

// setDynamicBytes sets a KindDynamicSimple field; unlike static fields its
// width is whatever v's length is, so a changed length always marks
// headerFormatChanged too.
func (b *Base) setDynamicBytes(i int, v []byte) {
	oldLen := len(b.values[i])
	b.values[i] = append([]byte(nil), v...)
	b.markSimpleChanged(i, len(v) != oldLen)
}

// deactivate clears an optional field to "absent", contributing zero bytes
// to the header. Only meaningful for fields marked Deactivatable.
func (b *Base) deactivate(i int) {
	if !b.active[i] {
		return
	}
	b.active[i] = false
	b.markSimpleChanged(i, true)
}

// activateWith reactivates a previously-deactivated field with a new value,
// the Go analogue of pypacker's "setting a None field to non-None reactivates
// it" simple-field semantics.
func (b *Base) activateWith(i int, encode func()) {
	wasActive := b.active[i]
	b.active[i] = true
	encode()
	if !wasActive {
		b.headerFormatChanged = true
	}
}

func (b *Base) markSimpleChanged(i int, formatChanged bool) {
	b.headerChanged = true
	if formatChanged {
		b.headerFormatChanged = true
	}
	b.notifyListeners()
}

// SetFieldByName sets a KindStatic or KindDynamicSimple field generically by
// its schema name. Returns ErrUnknownField for a name the schema doesn't
// declare (or a trigger-list field), or ErrFieldWidth if v doesn't match a
// static field's fixed width.
func (b *Base) SetFieldByName(name string, v []byte) error {
	i, ok := b.schema.indexOf[name]
	if !ok {
		return ErrUnknownField
	}
	f := b.schema.fields[i]
	switch f.Kind {
	case KindStatic:
		return b.setFixedBytes(i, v)
	case KindDynamicSimple:
		b.setDynamicBytes(i, v)
		return nil
	default:
		return ErrUnknownField
	}
}
