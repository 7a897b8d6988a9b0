package syntax

// Attribute is an outer attribute attached to an item, e.g.
// #[typelink(class, rename = "x")] has Name "typelink" and Args
// ["class", "rename = \"x\""].
type Attribute struct {
	Name string
	Args []string
	Pos  Position
}

// Pattern is the binding pattern of a function parameter.
type Pattern interface {
	pattern()
}

// IdentPattern binds a single name, optionally mutable.
type IdentPattern struct {
	Name    string
	Mutable bool
}

// OtherPattern is any destructuring or wildcard pattern.
type OtherPattern struct {
	Kind string
	Text string
}

func (*IdentPattern) pattern() {}
func (*OtherPattern) pattern() {}

// Receiver is the self parameter of a method.
type Receiver struct {
	Text string
}

// Param is a typed function parameter.
type Param struct {
	Pattern Pattern
	Type    Type
	Pos     Position
}

// FnDecl is a free function or a method signature. Output is nil when no
// return type is declared.
type FnDecl struct {
	Name     string
	Public   bool
	Async    bool
	Receiver *Receiver
	Params   []Param
	Output   Type
	Attrs    []Attribute
	Pos      Position
}

// Shape says how a struct or variant lays out its fields.
type Shape int

const (
	ShapeUnit Shape = iota
	ShapeNamed
	ShapeTuple
)

// FieldDecl is a struct or variant field. Name is empty for positional fields.
type FieldDecl struct {
	Name string
	Type Type
	Pos  Position
}

// StructDecl is a struct item.
type StructDecl struct {
	Name   string
	Shape  Shape
	Fields []FieldDecl
	Attrs  []Attribute
	Pos    Position
}

// VariantDecl is one enum variant.
type VariantDecl struct {
	Name   string
	Shape  Shape
	Fields []FieldDecl
	Pos    Position
}

// EnumDecl is an enum item.
type EnumDecl struct {
	Name     string
	Variants []VariantDecl
	Attrs    []Attribute
	Pos      Position
}

// ImplDecl is an impl block. Trait is empty for inherent impls.
type ImplDecl struct {
	SelfType Type
	Trait    string
	Methods  []FnDecl
	Attrs    []Attribute
	Pos      Position
}

// Item is a top-level declaration: *StructDecl, *EnumDecl, *FnDecl or
// *ImplDecl.
type Item interface {
	ItemName() string
	Attributes() []Attribute
	Position() Position
}

func (d *StructDecl) ItemName() string { return d.Name }
func (d *EnumDecl) ItemName() string   { return d.Name }
func (d *FnDecl) ItemName() string     { return d.Name }
func (d *ImplDecl) ItemName() string   { return TypeName(d.SelfType) }

func (d *StructDecl) Attributes() []Attribute { return d.Attrs }
func (d *EnumDecl) Attributes() []Attribute   { return d.Attrs }
func (d *FnDecl) Attributes() []Attribute     { return d.Attrs }
func (d *ImplDecl) Attributes() []Attribute   { return d.Attrs }

func (d *StructDecl) Position() Position { return d.Pos }
func (d *EnumDecl) Position() Position   { return d.Pos }
func (d *FnDecl) Position() Position     { return d.Pos }
func (d *ImplDecl) Position() Position   { return d.Pos }

// File is one parsed source file. HasErrors is set when the frontend had to
// recover from syntax errors; items it could still recognize are kept.
type File struct {
	Path      string
	Items     []Item
	HasErrors bool
}

// FindAttribute returns the first attribute called name.
func FindAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}
