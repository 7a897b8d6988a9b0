package nature

// Class is the top-level group of a Nature.
type Class int

const (
	ClassPrimitive Class = iota
	ClassRefered
	ClassComposite
)

// String returns the string representation of the class.
func (c Class) String() string {
	switch c {
	case ClassPrimitive:
		return "Primitive"
	case ClassRefered:
		return "Refered"
	case ClassComposite:
		return "Composite"
	default:
		return "Unknown"
	}
}

// Kind identifies the concrete shape of a Nature.
type Kind int

const (
	// Leaf
	KindPrimitive Kind = iota

	// Composite shapes, built from other natures
	KindVec
	KindHashMap
	KindOption
	KindTuple
	KindFunc

	// Refered shapes, named or resolvable later
	KindStruct
	KindEnum
	KindEnumVariant
	KindNamedFunc
	KindField
	KindFuncArg
	KindRef
)

var kindNames = map[Kind]string{
	KindPrimitive:   "primitive",
	KindVec:         "vec",
	KindHashMap:     "hash_map",
	KindOption:      "option",
	KindTuple:       "tuple",
	KindFunc:        "func",
	KindStruct:      "struct",
	KindEnum:        "enum",
	KindEnumVariant: "enum_variant",
	KindNamedFunc:   "named_func",
	KindField:       "field",
	KindFuncArg:     "func_arg",
	KindRef:         "ref",
}

// String returns the snake_case name used in JSON documents and snapshots.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Class returns the group the kind belongs to.
func (k Kind) Class() Class {
	switch k {
	case KindPrimitive:
		return ClassPrimitive
	case KindVec, KindHashMap, KindOption, KindTuple, KindFunc:
		return ClassComposite
	default:
		return ClassRefered
	}
}
