package radiotap

import "errors"

var (
	// ErrShortHeader is returned when buf is too short to contain the fixed
	// 8-byte prefix (version/pad/len/present_flags).
	ErrShortHeader = errors.New("radiotap: buffer shorter than 8-byte prefix")
	// ErrUnsupportedField is returned when present_flags sets a bit whose
	// field width radiotap.org leaves unspecified (CHANNELPLUS, the
	// namespace-next bits, or EXT). Guessing a width would silently
	// misparse every field that follows it.
	ErrUnsupportedField = errors.New("radiotap: present flags include a field of unspecified width")
	// ErrTruncatedFlags is returned when the declared header length is too
	// short to hold every field present_flags claims is present.
	ErrTruncatedFlags = errors.New("radiotap: header too short for its present flags")
)
