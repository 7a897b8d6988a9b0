// Package syntax defines the parsed declaration shapes the type model is
// extracted from. Nodes are produced by a host-language frontend (see
// internal/parsers) and never carry raw source text beyond names.
package syntax

import "strings"

// Position locates a node in its source file. Line and Column are 1-based.
type Position struct {
	File   string
	Line   int
	Column int
}

// Type is a type expression.
type Type interface {
	typeNode()
}

// Ident is a bare type name such as u8, String or MyStruct.
type Ident struct {
	Name string
}

// Segment is one segment of a path type.
// Bracketed is true for angle-bracketed arguments (Vec<u8>) and false for
// parenthesized ones (Fn(u8)). A segment with no arguments has Bracketed
// false and no Args.
type Segment struct {
	Name      string
	Args      []GenericArg
	Bracketed bool
}

// Path is a possibly qualified, possibly generic type path.
type Path struct {
	Segments []Segment
}

// Tuple is a tuple type. The unit type () is a Tuple with no elements.
type Tuple struct {
	Elems []Type
}

// Unsupported is a type form the model has no shape for (arrays, references,
// raw pointers, trait objects, function pointers...). Kind names the form.
type Unsupported struct {
	Kind string
	Text string
}

func (*Ident) typeNode()       {}
func (*Path) typeNode()        {}
func (*Tuple) typeNode()       {}
func (*Unsupported) typeNode() {}

// AsIdent reports the single identifier a path stands for, if it has exactly
// one segment and no arguments.
func (p *Path) AsIdent() (string, bool) {
	if len(p.Segments) != 1 {
		return "", false
	}
	seg := p.Segments[0]
	if seg.Bracketed || len(seg.Args) > 0 {
		return "", false
	}
	return seg.Name, true
}

// String renders the path with :: separators, without arguments.
func (p *Path) String() string {
	names := make([]string, 0, len(p.Segments))
	for _, s := range p.Segments {
		names = append(names, s.Name)
	}
	return strings.Join(names, "::")
}

// GenericArg is one entry inside a segment's argument list.
type GenericArg interface {
	genericArg()
}

// TypeArg is a type argument.
type TypeArg struct {
	Type Type
}

// OtherArg is a lifetime, const expression or associated type binding.
type OtherArg struct {
	Kind string
	Text string
}

func (*TypeArg) genericArg()  {}
func (*OtherArg) genericArg() {}

// TypeName returns the last path segment or identifier name of t, or "" when
// t has no name (tuples, unsupported forms).
func TypeName(t Type) string {
	switch t := t.(type) {
	case *Ident:
		return t.Name
	case *Path:
		if len(t.Segments) == 0 {
			return ""
		}
		return t.Segments[len(t.Segments)-1].Name
	}
	return ""
}
