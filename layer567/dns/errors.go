package dns

import "errors"

var (
	// ErrShortMessage is returned when buf is too short to contain a
	// 12-byte header and a well-formed question name plus qtype/qclass.
	ErrShortMessage = errors.New("dns: message shorter than its declared fields")
	// ErrCompressedName is returned for a question name using a
	// compression pointer (RFC 1035 §4.1.4); resolving pointers against
	// the rest of the message is out of scope for this minimal parser.
	ErrCompressedName = errors.New("dns: compressed question names are not supported")
)
