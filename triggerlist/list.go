// Package triggerlist implements a lazily-dissected, mutation-tracked
// ordered container used for header sub-fields that are themselves a
// variable-length sequence of structured elements: radiotap's presence-flag
// value list, a DNS message's label sequence, and similar.
//
// It is the Go reshaping of pypacker's triggerlist.py: a Python list
// subclass there becomes a dedicated List type here, since Go has no
// equivalent of subclassing a builtin container; mutation hooks that were
// Python's overridden __setitem__/__iadd__/etc. become explicit methods.
package triggerlist

import (
	"log"

	"github.com/m-lab/pkt-engine/metrics"
)

// Element is anything a List can hold: raw bytes, a radiotap-style
// mask/value pair, or a fully dissected sub-packet (via an adapter in the
// owning protocol package, see layer.LayerElement).
type Element interface {
	// Bin returns this element's own contribution to the list's packed
	// bytes.
	Bin() ([]byte, error)
}

// Listenable is implemented by elements that can themselves change after
// being added to a list (typically a wrapped sub-packet). The list
// subscribes to such elements so their own mutations mark the list (and so
// the owning packet) dirty too, mirroring triggerlist.py's
// `__refresh_listener` registering `self._notify_change` on each contained
// Packet.
type Listenable interface {
	AddChangeListener(cb func()) (unsubscribe func())
}

// DissectFunc parses raw bytes captured at construction time into a slice
// of elements, run at most once, on first read or write.
type DissectFunc func(raw []byte) ([]Element, error)

// List is a lazily dissected, change-tracked sequence of Elements.
type List struct {
	elements []Element
	unsub    []func()

	dissectCB DissectFunc
	rawBytes  []byte

	cachedBin []byte

	notify func()
}

// New returns an empty, already-dissected list: the constructor used when a
// protocol builds a fresh trigger list field via keyword construction rather
// than by dissecting bytes.
func New(notify func()) *List {
	return &List{notify: notify}
}

// NewFromBytes returns a list whose contents will be lazily parsed by cb the
// first time anything reads or mutates it. Grounded on triggerlist.py's
// constructor storing `(bytes, dissect_callback)` as a single "not yet
// dissected" cell.
func NewFromBytes(raw []byte, cb DissectFunc, notify func()) *List {
	return &List{rawBytes: raw, dissectCB: cb, notify: notify}
}

// lazyDissect runs the stored dissect callback at most once. Mirrors
// triggerlist.py's `_lazy_dissect`, called at the top of every mutating or
// reading method before touching l.elements.
func (l *List) lazyDissect() error {
	if l.dissectCB == nil {
		return nil
	}
	cb := l.dissectCB
	l.dissectCB = nil
	elems, err := cb(l.rawBytes)
	if err != nil {
		return err
	}
	l.elements = elems
	for _, e := range l.elements {
		l.unsub = append(l.unsub, l.subscribe(e))
	}
	return nil
}

func (l *List) subscribe(e Element) func() {
	if le, ok := e.(Listenable); ok {
		return le.AddChangeListener(l.markChanged)
	}
	return func() {}
}

func (l *List) markChanged() {
	l.cachedBin = nil
	if l.notify != nil {
		l.notify()
	}
}

// Len reports the number of elements, forcing lazy dissection first.
func (l *List) Len() int {
	if err := l.lazyDissect(); err != nil {
		return 0
	}
	return len(l.elements)
}

// Get returns the element at i.
func (l *List) Get(i int) (Element, error) {
	if err := l.lazyDissect(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(l.elements) {
		return nil, ErrIndexRange
	}
	return l.elements[i], nil
}

// Set replaces the element at i.
func (l *List) Set(i int, e Element) error {
	if err := l.lazyDissect(); err != nil {
		return err
	}
	if i < 0 || i >= len(l.elements) {
		return ErrIndexRange
	}
	if l.unsub[i] != nil {
		l.unsub[i]()
	}
	l.elements[i] = e
	l.unsub[i] = l.subscribe(e)
	l.markChanged()
	return nil
}

// Append adds e to the end of the list.
func (l *List) Append(e Element) error {
	if err := l.lazyDissect(); err != nil {
		return err
	}
	l.elements = append(l.elements, e)
	l.unsub = append(l.unsub, l.subscribe(e))
	l.markChanged()
	return nil
}

// Extend appends every element of es, in order.
func (l *List) Extend(es []Element) error {
	if err := l.lazyDissect(); err != nil {
		return err
	}
	for _, e := range es {
		l.elements = append(l.elements, e)
		l.unsub = append(l.unsub, l.subscribe(e))
	}
	if len(es) > 0 {
		l.markChanged()
	}
	return nil
}

// Insert places e at position i, shifting later elements up.
func (l *List) Insert(i int, e Element) error {
	if err := l.lazyDissect(); err != nil {
		return err
	}
	if i < 0 || i > len(l.elements) {
		return ErrIndexRange
	}
	l.elements = append(l.elements, nil)
	copy(l.elements[i+1:], l.elements[i:])
	l.elements[i] = e
	l.unsub = append(l.unsub, nil)
	copy(l.unsub[i+1:], l.unsub[i:])
	l.unsub[i] = l.subscribe(e)
	l.markChanged()
	return nil
}

// Delete removes the element at i.
func (l *List) Delete(i int) error {
	if err := l.lazyDissect(); err != nil {
		return err
	}
	if i < 0 || i >= len(l.elements) {
		return ErrIndexRange
	}
	if l.unsub[i] != nil {
		l.unsub[i]()
	}
	l.elements = append(l.elements[:i], l.elements[i+1:]...)
	l.unsub = append(l.unsub[:i], l.unsub[i+1:]...)
	l.markChanged()
	return nil
}

// Elements returns a copy of the current element slice, forcing lazy
// dissection first. Callers must not mutate it in place; use the List's own
// methods so change tracking stays correct.
func (l *List) Elements() ([]Element, error) {
	if err := l.lazyDissect(); err != nil {
		return nil, err
	}
	out := make([]Element, len(l.elements))
	copy(out, l.elements)
	return out, nil
}

// FindPos returns the index of the first element (at or after offset)
// matching pred, mirroring triggerlist.py's `find_pos`. A panicking pred is
// recovered and treated as a non-match for that element, rather than
// crashing the caller's dissection or summarize path.
func (l *List) FindPos(offset int, pred func(Element) bool) (int, bool) {
	if err := l.lazyDissect(); err != nil {
		return 0, false
	}
	for i := offset; i < len(l.elements); i++ {
		if safePred(pred, l.elements[i]) {
			return i, true
		}
	}
	return 0, false
}

func safePred(pred func(Element) bool, e Element) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PredicatePanicCount.Inc()
			log.Printf("triggerlist: recovered panic in FindPos predicate: %v", r)
			matched = false
		}
	}()
	return pred(e)
}

// FindValue returns the first element matching pred, mirroring
// triggerlist.py's `find_value`.
func (l *List) FindValue(pred func(Element) bool) (Element, bool) {
	i, ok := l.FindPos(0, pred)
	if !ok {
		return nil, false
	}
	return l.elements[i], true
}

// Bin packs the list by concatenating each element's own Bin() output, in
// order, caching the result until the next mutation. Because each Element
// implementation (Bytes, Tuple, a sub-packet adapter) already returns
// exactly the bytes that element contributes, plain concatenation here
// covers both of triggerlist.py's two pack strategies (a custom `_pack`
// override for raw tuples, vs. falling through to concatenated `bin()` for
// sub-packets) without needing a separate override hook.
func (l *List) Bin() ([]byte, error) {
	if l.cachedBin != nil {
		return l.cachedBin, nil
	}
	if err := l.lazyDissect(); err != nil {
		return nil, err
	}
	var out []byte
	for _, e := range l.elements {
		bts, err := e.Bin()
		if err != nil {
			return nil, err
		}
		out = append(out, bts...)
	}
	if out == nil {
		out = []byte{}
	}
	l.cachedBin = out
	return out, nil
}
