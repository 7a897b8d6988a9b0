package nature

import (
	"fmt"
	"slices"
	"strconv"
)

// Named is implemented by every refered nature that carries a name and a
// declaration-site context. Ref is not Named: it is only a placeholder.
type Named interface {
	Nature
	Name() string
	Context() Context
}

// Struct is a named record. Members are its fields in declaration order,
// followed by any methods attached from impl blocks.
type Struct struct {
	name    string
	ctx     Context
	members []Nature
}

// NewStruct returns a Struct with no members.
func NewStruct(name string, ctx Context) *Struct {
	return &Struct{name: name, ctx: ctx.Clone()}
}

func (s *Struct) Name() string     { return s.name }
func (s *Struct) Context() Context { return s.ctx.Clone() }

// Members returns a copy of everything bound into the struct, in bind order.
func (s *Struct) Members() []Nature { return slices.Clone(s.members) }

// Fields returns the Field members in order.
func (s *Struct) Fields() []*Field { return membersOf[*Field](s.members) }

// Methods returns the NamedFunc members in order.
func (s *Struct) Methods() []*NamedFunc { return membersOf[*NamedFunc](s.members) }

func (s *Struct) Kind() Kind { return KindStruct }

func (s *Struct) String() string {
	return fmt.Sprintf("Struct(%s, %s)", strconv.Quote(s.name), listString(s.members))
}

func (*Struct) sealed() {}

// Enum is a named sum type. Members are its variants in declaration order.
type Enum struct {
	name     string
	ctx      Context
	variants []Nature
}

// NewEnum returns an Enum with no variants.
func NewEnum(name string, ctx Context) *Enum {
	return &Enum{name: name, ctx: ctx.Clone()}
}

func (e *Enum) Name() string     { return e.name }
func (e *Enum) Context() Context { return e.ctx.Clone() }

// Variants returns a copy of the variant list.
func (e *Enum) Variants() []Nature { return slices.Clone(e.variants) }

func (e *Enum) Kind() Kind { return KindEnum }

func (e *Enum) String() string {
	return fmt.Sprintf("Enum(%s, %s)", strconv.Quote(e.name), listString(e.variants))
}

func (*Enum) sealed() {}

// EnumVariant is one variant with its associated values.
type EnumVariant struct {
	name   string
	ctx    Context
	values []Nature
	flat   bool
}

// NewEnumVariant returns a variant with no values. The flat flag starts false
// and is only written by ResolveFlatness.
func NewEnumVariant(name string, ctx Context) *EnumVariant {
	return &EnumVariant{name: name, ctx: ctx.Clone()}
}

func (v *EnumVariant) Name() string     { return v.name }
func (v *EnumVariant) Context() Context { return v.ctx.Clone() }

// Values returns a copy of the associated values.
func (v *EnumVariant) Values() []Nature { return slices.Clone(v.values) }

// Flat reports the stored flatness of the owning enum as last computed by
// ResolveFlatness. Prefer IsEnumFlat for an up-to-date answer.
func (v *EnumVariant) Flat() bool { return v.flat }

func (v *EnumVariant) Kind() Kind { return KindEnumVariant }

func (v *EnumVariant) String() string {
	return fmt.Sprintf("EnumVariant(%s, %s)", strconv.Quote(v.name), listString(v.values))
}

func (*EnumVariant) sealed() {}

// NamedFunc is a named function or method wrapping its signature.
type NamedFunc struct {
	name string
	ctx  Context
	sig  Nature
}

// NewNamedFunc wraps a signature.
func NewNamedFunc(name string, ctx Context, sig Nature) *NamedFunc {
	return &NamedFunc{name: name, ctx: ctx.Clone(), sig: sig}
}

func (f *NamedFunc) Name() string      { return f.name }
func (f *NamedFunc) Context() Context  { return f.ctx.Clone() }
func (f *NamedFunc) Signature() Nature { return f.sig }

func (f *NamedFunc) Kind() Kind { return KindNamedFunc }

func (f *NamedFunc) String() string {
	return fmt.Sprintf("NamedFunc(%s, %s)", strconv.Quote(f.name), f.sig)
}

func (*NamedFunc) sealed() {}

// Field is a named member of a struct or variant.
type Field struct {
	name string
	ctx  Context
	typ  Nature
}

// NewField wraps a field type.
func NewField(name string, ctx Context, typ Nature) *Field {
	return &Field{name: name, ctx: ctx.Clone(), typ: typ}
}

func (f *Field) Name() string     { return f.name }
func (f *Field) Context() Context { return f.ctx.Clone() }
func (f *Field) Type() Nature     { return f.typ }

func (f *Field) Kind() Kind { return KindField }

func (f *Field) String() string {
	return fmt.Sprintf("Field(%s, %s)", strconv.Quote(f.name), f.typ)
}

func (*Field) sealed() {}

// FuncArg is a named function parameter.
type FuncArg struct {
	name string
	ctx  Context
	typ  Nature
}

// NewFuncArg wraps a parameter type.
func NewFuncArg(name string, ctx Context, typ Nature) *FuncArg {
	return &FuncArg{name: name, ctx: ctx.Clone(), typ: typ}
}

func (a *FuncArg) Name() string     { return a.name }
func (a *FuncArg) Context() Context { return a.ctx.Clone() }
func (a *FuncArg) Type() Nature     { return a.typ }

func (a *FuncArg) Kind() Kind { return KindFuncArg }

func (a *FuncArg) String() string {
	return fmt.Sprintf("FuncArg(%s, %s)", strconv.Quote(a.name), a.typ)
}

func (*FuncArg) sealed() {}

// Ref is an unresolved reference to a named entity, kept verbatim.
type Ref string

// SelfRef is the receiver type placeholder.
const SelfRef Ref = "Self"

func (r Ref) Kind() Kind { return KindRef }

func (r Ref) String() string {
	return fmt.Sprintf("Ref(%s)", strconv.Quote(string(r)))
}

func (Ref) sealed() {}

func membersOf[T Nature](members []Nature) []T {
	var out []T
	for _, m := range members {
		if t, ok := m.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
