package triggerlist

import "errors"

// ErrIndexRange is returned by index-based List operations given an
// out-of-bounds index.
var ErrIndexRange = errors.New("triggerlist: index out of range")

// Bytes is a raw-byte list element, the most common case (a label or
// option blob with no further internal structure worth modeling).
type Bytes []byte

func (b Bytes) Bin() ([]byte, error) { return []byte(b), nil }

// Tuple is a mask/value pair, used by radiotap's presence-flag list where
// each active bit contributes a fixed-width value but the bit position
// itself (Mask) only matters for ordering/lookup, not for the packed bytes.
// Grounded on radiotap.py's FlagTriggerList entries, which pypacker stores
// as `(bit, value_bytes)` tuples.
type Tuple struct {
	Mask  uint32
	Value []byte
}

func (t Tuple) Bin() ([]byte, error) { return t.Value, nil }
