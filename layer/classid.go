package layer

// ClassID is a small process-wide integer identifying a registered protocol
// type, standing in for pypacker's class-name-keyed _handler dict (see
// pypacker.py's Packet.load_handler / Packet._handler). Assigning small
// integers instead of comparing strings or reflect.Type values keeps the
// handler table a plain array-friendly map without reflection.
type ClassID int

// Unset is the zero value, never assigned to a registered class.
const Unset ClassID = 0

var (
	classNames  = map[ClassID]string{}
	classByName = map[string]ClassID{}
	nextClassID = ClassID(1)
)

// NewClassID assigns (or returns the existing) ClassID for name. Protocol
// packages call this once from an init() or package-level var, e.g.
// `var ClassUDP = layer.NewClassID("udp")`.
func NewClassID(name string) ClassID {
	if id, ok := classByName[name]; ok {
		return id
	}
	id := nextClassID
	nextClassID++
	classByName[name] = id
	classNames[id] = name
	return id
}

// ClassName returns the human-readable name a ClassID was registered with,
// used by hexdump/summarize output and log messages.
func ClassName(id ClassID) string {
	if name, ok := classNames[id]; ok {
		return name
	}
	return "unknown"
}

// Constructor builds a Layer from the raw bytes of an upper-layer body. lower
// is the already-constructed layer whose body these bytes came from; the
// constructor is responsible for linking itself to it (see Base.Init).
type Constructor func(buf []byte, lower Layer) (Layer, error)

var constructors = map[ClassID]Constructor{}

// RegisterConstructor makes class buildable from raw bytes during lazy body
// dispatch. Call once per protocol package, alongside RegisterHandler calls
// that point at it.
func RegisterConstructor(class ClassID, ctor Constructor) {
	constructors[class] = ctor
}

func lookupConstructor(class ClassID) (Constructor, bool) {
	ctor, ok := constructors[class]
	return ctor, ok
}

// dispatch maps (owning class, discriminator value) -> upper class. It is
// the Go-native replacement for pypacker's load_handler dict-of-dicts
// keyed by (ether type | protocol number | port), see e.g. udp.py's
// `load_handler(UDP, {UDP_PROTO_DNS: dns.DNS})`.
var dispatch = map[ClassID]map[uint32]ClassID{}

// RegisterHandler registers upper as the class to instantiate whenever owner
// observes any of discriminators as its body-selector field value.
func RegisterHandler(owner ClassID, discriminators []uint32, upper ClassID) {
	m, ok := dispatch[owner]
	if !ok {
		m = make(map[uint32]ClassID)
		dispatch[owner] = m
	}
	for _, d := range discriminators {
		m[d] = upper
	}
}

func lookupHandler(owner ClassID, discriminator uint32) (ClassID, bool) {
	m, ok := dispatch[owner]
	if !ok {
		return Unset, false
	}
	upper, ok := m[discriminator]
	return upper, ok
}

// Peek reports whether a handler is registered for (owner, discriminator)
// without consuming or instantiating anything. Protocols with more than one
// candidate discriminator field (UDP's source and destination ports) use it
// to decide precedence before committing to InitHandler.
func Peek(owner ClassID, discriminator uint32) (ClassID, bool) {
	return lookupHandler(owner, discriminator)
}
