package layer

import "errors"

// Sentinel errors returned by the engine. Matching saver.go's package-level
// error-var style rather than a bespoke error type hierarchy.
var (
	ErrUnknownField    = errors.New("layer: unknown field name")
	ErrFieldWidth      = errors.New("layer: field value has wrong width for static field")
	ErrShortHeader     = errors.New("layer: buffer too short for header field")
	ErrPackFailed      = errors.New("layer: header value could not be packed")
	ErrSchemaCollision = errors.New("layer: duplicate or reserved field name in schema")
	ErrEmptySchema     = errors.New("layer: schema must declare at least one field")
	ErrUnknownClass    = errors.New("layer: class not registered")
)
