package layer

import "github.com/m-lab/pkt-engine/metrics"

// Bin is Base's default serializer: protocols with no derived fields get it
// for free via embedding. Protocols with auto-computed fields (checksums,
// lengths) define their own Bin that updates those fields first and then
// delegates here, mirroring pypacker.py's `UDP.bin()` calling
// `pypacker.Packet.bin(self, update_auto_fields=...)`.
func (b *Base) Bin(updateAutoFields bool) ([]byte, error) {
	hdr, err := b.packHeader()
	if err != nil {
		metrics.PackFailureCount.WithLabelValues(ClassName(b.class)).Inc()
		return nil, err
	}
	var bodyBytes []byte
	if upper, err := b.BodyHandler(); err == nil && upper != nil {
		bodyBytes, err = upper.Bin(updateAutoFields)
		if err != nil {
			return nil, err
		}
	} else {
		bodyBytes = b.BodyBytes()
	}
	out := make([]byte, 0, len(hdr)+len(bodyBytes))
	out = append(out, hdr...)
	out = append(out, bodyBytes...)
	b.headerChanged = false
	b.headerFormatChanged = false
	return out, nil
}

// HeaderBytes packs just this layer's own header, leaving the body alone.
func (b *Base) HeaderBytes() ([]byte, error) {
	return b.packHeader()
}

// packHeader serializes the active fields in schema order, using the
// cached result when nothing has changed since the last pack (pypacker.py's
// `_pack_header`).
func (b *Base) packHeader() ([]byte, error) {
	if !b.headerChanged && b.headerCache != nil {
		return b.headerCache, nil
	}
	if b.unpacked == NotYetUnpacked {
		if err := b.unpack(); err != nil {
			return nil, err
		}
	} else if b.headerFormatChanged {
		if err := b.recomputeHeaderLen(); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, 0, b.headerLen)
	for i, f := range b.schema.fields {
		switch f.Kind {
		case KindStatic, KindDynamicSimple:
			if !b.active[i] {
				continue
			}
			buf = append(buf, b.values[i]...)
		case KindTriggerList:
			tl := b.triggers[i]
			if tl == nil {
				continue
			}
			bts, err := tl.list.Bin()
			if err != nil {
				return nil, err
			}
			buf = append(buf, bts...)
		}
	}
	b.headerCache = buf
	b.headerChanged = false
	return buf, nil
}

// recomputeHeaderLen sums the current width of every active field, updating
// headerLen and clearing headerFormatChanged. Pypacker.py's
// `_update_header_format` does the equivalent struct-format recompile; here
// there's no cached format object to rebuild, just the total byte count.
func (b *Base) recomputeHeaderLen() error {
	total := 0
	for i, f := range b.schema.fields {
		switch f.Kind {
		case KindStatic, KindDynamicSimple:
			if !b.active[i] {
				continue
			}
			total += len(b.values[i])
		case KindTriggerList:
			tl := b.triggers[i]
			if tl == nil {
				continue
			}
			bts, err := tl.list.Bin()
			if err != nil {
				return err
			}
			total += len(bts)
		}
	}
	b.headerLen = total
	b.headerFormatChanged = false
	return nil
}

// unpack decodes every active KindStatic field's value out of headerCache,
// skipping KindDynamicSimple and KindTriggerList fields whose values were
// already set directly during Dissect (pypacker.py requires exactly this:
// "such types MUST get initiated in _dissect() because there is no way of
// guessing the correct format when unpacking values"). Their already-known
// current width is still needed to compute each static field's offset.
func (b *Base) unpack() error {
	b.unpacked = Unpacked
	if b.headerFormatChanged {
		if err := b.recomputeHeaderLen(); err != nil {
			return err
		}
	}
	offset := 0
	for i, f := range b.schema.fields {
		if !b.active[i] && f.Kind != KindTriggerList {
			continue
		}
		var width int
		switch f.Kind {
		case KindStatic:
			width = f.Width
			if offset+width > len(b.headerCache) {
				return ErrShortHeader
			}
			b.values[i] = append([]byte(nil), b.headerCache[offset:offset+width]...)
		case KindDynamicSimple:
			width = len(b.values[i])
		case KindTriggerList:
			tl := b.triggers[i]
			if tl == nil {
				continue
			}
			bts, err := tl.list.Bin()
			if err != nil {
				return err
			}
			width = len(bts)
		}
		offset += width
	}
	return nil
}
