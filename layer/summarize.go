package layer

import (
	"fmt"
	"strings"
)

// Summarize renders this layer (and, if verbose, everything above it) as a
// one-line-per-layer "ClassName(field=value, ...)" description, ported from
// pypacker.py's `_summarize`. Like Bin, it forces a repack first if
// anything changed, so the printed values always match what Bin would emit.
func (b *Base) Summarize(verbose bool) string {
	if b.headerChanged || b.headerFormatChanged {
		if owner := b.owner; owner != nil {
			_, _ = owner.Bin(true)
		}
	}
	_ = b.ensureUnpacked()

	parts := make([]string, 0, len(b.schema.fields)+1)
	for i, f := range b.schema.fields {
		switch f.Kind {
		case KindTriggerList:
			tl := b.triggers[i]
			n := 0
			if tl != nil {
				n = tl.list.Len()
			}
			parts = append(parts, fmt.Sprintf("%s=<%d elements>", f.Name, n))
		default:
			if !b.active[i] {
				parts = append(parts, fmt.Sprintf("%s=<inactive>", f.Name))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%#x", f.Name, b.values[i]))
		}
	}
	switch b.body.kind {
	case bodyAttached:
		parts = append(parts, fmt.Sprintf("handler=%s", ClassName(b.body.attached.ClassID())))
	default:
		parts = append(parts, fmt.Sprintf("bytes=%d", len(b.BodyBytes())))
	}

	lines := []string{fmt.Sprintf("%s(%s)", ClassName(b.class), strings.Join(parts, ", "))}
	if verbose && b.body.kind == bodyAttached {
		lines = append(lines, b.body.attached.base().Summarize(true))
	}
	return strings.Join(lines, "\n")
}

// String makes Base (and so every embedding protocol type) satisfy
// fmt.Stringer with a single-layer summary.
func (b *Base) String() string {
	return b.Summarize(false)
}

// GoString makes Base satisfy fmt.GoStringer: %#v renders the full layer
// chain, the recursive counterpart to String's single-layer %v.
func (b *Base) GoString() string {
	return b.Summarize(true)
}
