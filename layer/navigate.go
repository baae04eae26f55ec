package layer

import "github.com/m-lab/pkt-engine/metrics"

// HeaderLen returns the packed length of this layer's own header,
// recomputing it first if any field's width changed since the last pack.
func (b *Base) HeaderLen() int {
	if b.headerFormatChanged {
		_ = b.recomputeHeaderLen()
	}
	return b.headerLen
}

// Len returns this layer's header length plus the length of everything
// above it, forcing lazy instantiation along the way, the same as
// pypacker.py's `__len__` walking `body_handler`.
func (b *Base) Len() int {
	total := b.HeaderLen()
	if upper, err := b.BodyHandler(); err == nil && upper != nil {
		total += upper.Len()
	} else {
		total += len(b.BodyBytes())
	}
	return total
}

// DissectFull forces full dissection of this layer and every layer above it,
// lazily instantiated or not, so HighestLayer(l) after calling DissectFull
// reaches the same layer it would have reached anyway through ordinary lazy
// access, just without waiting for a caller to ask for each one individually.
// Mirrors pypacker.py's `dissect_full`, the eager counterpart to its default
// lazy body-handler instantiation.
func (b *Base) DissectFull() error {
	var l Layer = b
	for {
		if err := l.base().ensureUnpacked(); err != nil {
			return err
		}
		upper, err := l.BodyHandler()
		if err != nil {
			return err
		}
		if upper == nil {
			return nil
		}
		l = upper
	}
}

// LowestLayer walks down through LowerLayer links to the bottom of the
// stack (pypacker.py's `lowest_layer` property).
func LowestLayer(l Layer) Layer {
	for {
		lower := l.LowerLayer()
		if lower == nil {
			return l
		}
		l = lower
	}
}

// HighestLayer walks up through BodyHandler links to the top of the stack,
// materializing lazy layers as it goes (pypacker.py's `highest_layer`).
func HighestLayer(l Layer) Layer {
	lowest := ClassName(LowestLayer(l).ClassID())
	depth := 1
	for {
		upper, err := l.BodyHandler()
		if err != nil || upper == nil {
			metrics.PacketDepthHistogram.WithLabelValues(lowest).Observe(float64(depth))
			return l
		}
		l = upper
		depth++
	}
}

// Find walks up from start looking for a layer of class target, forcing
// lazy dissection one layer at a time. It stops (returning nil) the moment
// it reaches a layer whose own dissect failed, a plain-bytes body, or the
// top of the stack without a match.
//
// This replaces pypacker.py's `_target_unpack_clz` threading (where a
// caller could ask a dissect-in-progress packet to eagerly instantiate a
// specific deep class instead of stopping at each lazy boundary): Go's
// version always materializes one layer at a time via BodyHandler, which
// reaches the same upper layer in the same number of instantiations, just
// without a dissect-time hint parameter threaded through every dissector.
func Find(start Layer, target ClassID) Layer {
	for l := start; l != nil; {
		if l.ClassID() == target {
			return l
		}
		upper, err := l.BodyHandler()
		if err != nil || upper == nil {
			return nil
		}
		l = upper
	}
	return nil
}

// Iter calls visit for start and every layer above it, stopping early if
// visit returns false. Mirrors pypacker.py's `__iter__`.
func Iter(start Layer, visit func(Layer) bool) {
	for l := start; l != nil; {
		if !visit(l) {
			return
		}
		upper, err := l.BodyHandler()
		if err != nil || upper == nil {
			return
		}
		l = upper
	}
}

// Concat attaches upper as the body handler of lower's highest layer,
// returning lower so calls can chain left to right the way pypacker.py's
// `__add__` operator does (`ip + udp + dns`). Walking to lower's highest
// layer first makes repeated concatenation append rather than replace an
// existing body.
func Concat(lower, upper Layer) Layer {
	top := HighestLayer(lower)
	top.SetBodyHandler(upper)
	return lower
}

// DirectionAll compares every layer pair walking up from a and b together,
// ANDing each pair's Direction into an overall verdict, matching
// pypacker.py's `direction_all` accumulation. DirNotImplemented has every
// bit set, so such a pair leaves the verdict unchanged; a DirUnknown pair
// clears it, and a verdict with no bits left is reported as DirUnknown.
func DirectionAll(a, b Layer) Direction {
	result := DirSame | DirRev
	la, lb := a, b
	for la != nil && lb != nil {
		result &= pairDirection(la, lb)
		ua, err := la.BodyHandler()
		if err != nil {
			ua = nil
		}
		ub, err := lb.BodyHandler()
		if err != nil {
			ub = nil
		}
		la, lb = ua, ub
	}
	if result == 0 {
		return DirUnknown
	}
	return result
}

func pairDirection(a, b Layer) Direction {
	da, ok := a.(Directional)
	if !ok {
		return DirNotImplemented
	}
	return da.Direction(b)
}

// IsDirection reports whether dir's bits are set in the result of
// DirectionAll(a, b).
func IsDirection(a, b Layer, dir Direction) bool {
	return DirectionAll(a, b)&dir == dir
}

// ReverseAllAddress calls ReverseAddress on every layer from start upward
// that implements Directional, leaving layers that don't untouched
// (pypacker.py's `reverse_all_address`).
func ReverseAllAddress(start Layer) {
	Iter(start, func(l Layer) bool {
		if d, ok := l.(Directional); ok {
			d.ReverseAddress()
		}
		return true
	})
}
