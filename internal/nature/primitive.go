package nature

// Primitive is a leaf scalar classification.
type Primitive int

const (
	// Number covers integers that fit the consumer runtime's native number.
	Number Primitive = iota
	// BigInt covers 64-bit integers.
	BigInt
	Boolean
	String
)

func (p Primitive) Kind() Kind { return KindPrimitive }

func (p Primitive) String() string {
	switch p {
	case Number:
		return "Number"
	case BigInt:
		return "BigInt"
	case Boolean:
		return "Boolean"
	case String:
		return "String"
	default:
		return "Unknown"
	}
}

func (Primitive) sealed() {}

// primitives maps host keywords to their classification.
var primitives = map[string]Primitive{
	"u8":     Number,
	"u16":    Number,
	"u32":    Number,
	"i8":     Number,
	"i16":    Number,
	"i32":    Number,
	"u64":    BigInt,
	"i64":    BigInt,
	"bool":   Boolean,
	"String": String,
}

// LookupPrimitive classifies a keyword. ok is false for any other name.
func LookupPrimitive(name string) (p Primitive, ok bool) {
	p, ok = primitives[name]
	return p, ok
}
