package layer

import "github.com/m-lab/pkt-engine/triggerlist"

// LayerElement adapts a fully dissected sub-packet so it can live inside a
// triggerlist.List alongside (or instead of) raw-byte/tuple elements, e.g.
// a DNS label parsed as its own small Layer rather than plain Bytes. It
// forwards Bin and the change-listener subscription straight through to
// the wrapped Layer.
type LayerElement struct{ L Layer }

func (e LayerElement) Bin() ([]byte, error) { return e.L.Bin(true) }

func (e LayerElement) AddChangeListener(cb func()) func() {
	return e.L.AddChangeListener(cb)
}

// InitTriggerList installs a lazily-dissected trigger list for the named
// field, to be called from a protocol's Dissect method once it knows the
// byte range the list occupies. Mirrors pypacker.py's `_init_triggerlist`.
func (b *Base) InitTriggerList(name string, raw []byte, dissect triggerlist.DissectFunc) {
	i := b.idx(name)
	b.triggers[i] = &triggerSlotHolder{
		list: triggerlist.NewFromBytes(raw, dissect, b.onTriggerListChanged),
	}
	b.headerFormatChanged = true
}

// onTriggerListChanged is the notify callback every owned trigger list is
// constructed with: any mutation marks this layer dirty and bubbles up to
// whatever (if anything) is listening on this layer in turn.
func (b *Base) onTriggerListChanged() {
	b.headerChanged = true
	b.headerFormatChanged = true
	b.notifyListeners()
}

// TriggerList returns the *triggerlist.List backing the named field,
// creating an empty one on first access if the field was never dissected
// from bytes (the keyword-construction path).
func (b *Base) TriggerList(name string) *triggerlist.List {
	i := b.idx(name)
	slot, ok := b.triggers[i]
	if !ok {
		slot = &triggerSlotHolder{list: triggerlist.New(b.onTriggerListChanged)}
		b.triggers[i] = slot
	}
	return slot.list
}
