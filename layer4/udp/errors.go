package udp

import "errors"

// ErrShortDatagram is returned when a buffer is too short to contain even a
// UDP header (8 bytes).
var ErrShortDatagram = errors.New("udp: buffer shorter than 8-byte header")
