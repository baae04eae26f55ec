package layer

import "encoding/binary"

// FieldKind tags how a field's bytes are located, sized and stored. It
// replaces pypacker_meta.py's runtime inspection of each __hdr__ tuple entry
// with a value fixed once at Register time.
type FieldKind int

const (
	// KindStatic fields have a fixed byte width for the lifetime of the
	// schema: integers, fixed-length byte arrays (MAC addresses, etc).
	KindStatic FieldKind = iota
	// KindDynamicSimple fields carry a byte slice whose width can change
	// from one instance to the next but isn't itself a structured list of
	// elements (a DNS question name, for example).
	KindDynamicSimple
	// KindTriggerList fields are backed by a *triggerlist.List: a lazily
	// dissected, mutation-tracked sequence of sub-elements.
	KindTriggerList
)

// FieldSpec describes one field in a protocol's header layout.
type FieldSpec struct {
	Name string
	Kind FieldKind

	// Width is the fixed byte width of a KindStatic field. Ignored for the
	// other kinds, whose width is derived from their current value.
	Width int

	// Default holds the wire-encoded default value a freshly constructed
	// (keyword/functional) instance starts with. For KindTriggerList this
	// must be nil; trigger lists start out empty.
	Default []byte

	// Deactivatable marks a field that may be entirely absent from the
	// header (contributes zero bytes when inactive). A deactivatable field
	// starts out active when its Default is non-empty and inactive when it
	// is empty; fields not marked deactivatable are always active.
	Deactivatable bool
}

// Schema is the process-wide, immutable field layout for one protocol. It is
// built once (normally from an package-level var) and passed to Register.
type Schema struct {
	ByteOrder binary.ByteOrder
	Fields    []FieldSpec
}

// Compiled is the validated, indexed form of a Schema returned by Register.
// Protocol packages hold onto one Compiled value (again, process-wide and
// read-only) and pass it to Base.Init for every instance they create.
type Compiled struct {
	byteOrder binary.ByteOrder
	fields    []FieldSpec
	indexOf   map[string]int
}

// reserved mirrors pypacker_meta.py's check that no header field's name
// collides with a method pypacker.Packet already defines (header_len, bin,
// dissect, ...). The Go surface area promoted from Base is smaller, but the
// same idea applies to the handful of names Base itself exposes.
var reserved = map[string]bool{
	"bin": true, "dissect": true, "headerlen": true, "bodybytes": true,
	"upperlayer": true, "lowerlayer": true, "classid": true,
}

// Register validates schema and compiles it into process-wide lookup
// structures. Call it once, from a protocol package's init() or as a
// package-level var initializer; the result is shared by every instance.
func Register(schema Schema) (*Compiled, error) {
	if len(schema.Fields) == 0 {
		return nil, ErrEmptySchema
	}
	byteOrder := schema.ByteOrder
	if byteOrder == nil {
		byteOrder = binary.BigEndian
	}
	c := &Compiled{
		byteOrder: byteOrder,
		fields:    append([]FieldSpec(nil), schema.Fields...),
		indexOf:   make(map[string]int, len(schema.Fields)),
	}
	for i, f := range c.fields {
		if f.Name == "" {
			return nil, ErrSchemaCollision
		}
		lower := toLower(f.Name)
		if reserved[lower] {
			return nil, ErrSchemaCollision
		}
		if _, exists := c.indexOf[f.Name]; exists {
			return nil, ErrSchemaCollision
		}
		if f.Kind == KindStatic && f.Width <= 0 {
			return nil, ErrSchemaCollision
		}
		c.indexOf[f.Name] = i
	}
	return c, nil
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
