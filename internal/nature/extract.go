package nature

import (
	"strconv"

	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/syntax"
)

// ExtractIdent classifies a bare identifier: keywords map to primitives,
// anything else becomes a Ref kept verbatim.
func ExtractIdent(name string) Nature {
	if p, ok := LookupPrimitive(name); ok {
		return p
	}
	return Ref(name)
}

// ExtractType classifies a type expression.
func ExtractType(t syntax.Type, ctx Context) (Nature, error) {
	switch t := t.(type) {
	case *syntax.Ident:
		return ExtractIdent(t.Name), nil
	case *syntax.Path:
		if name, ok := t.AsIdent(); ok {
			return ExtractIdent(name), nil
		}
		return extractPath(t, ctx)
	case *syntax.Tuple:
		return extractTuple(t, ctx)
	case *syntax.Unsupported:
		return nil, notSupported("type %s (%s) is not supported", t.Kind, t.Text)
	case nil:
		return nil, parsingf("missing type expression")
	}
	return nil, notSupported("type node %T is not supported", t)
}

// ExtractGenericArg classifies one bracketed argument. Only type arguments
// are accepted.
func ExtractGenericArg(arg syntax.GenericArg, ctx Context) (Nature, error) {
	switch a := arg.(type) {
	case *syntax.TypeArg:
		return ExtractType(a.Type, ctx)
	case *syntax.OtherArg:
		return nil, notSupported("generic argument %s (%s) is not supported", a.Kind, a.Text)
	}
	return nil, notSupported("generic argument %T is not supported", arg)
}

func extractPath(p *syntax.Path, ctx Context) (Nature, error) {
	if len(p.Segments) > 1 {
		return nil, parsingf("Not supported Other Type for more than 1 PathSegment: %s", p)
	}
	if len(p.Segments) == 0 {
		return nil, parsingf("For not primitive types expected at least one segment")
	}

	seg := p.Segments[0]
	var ty Nature
	switch seg.Name {
	case "Vec":
		ty = NewVec()
	case "HashMap":
		ty = NewHashMap()
	case "Option":
		ty = NewOption()
	default:
		return nil, parsingf("Only Vec, HashMap and Option are supported, got %s", seg.Name)
	}

	if !seg.Bracketed {
		return nil, notSupported("%s requires angle-bracketed arguments", seg.Name)
	}
	for i, arg := range seg.Args {
		child, err := ExtractGenericArg(arg, ctx.Clone())
		if err != nil {
			return nil, errors.Wrapf(err, "%s argument %d", seg.Name, i)
		}
		if err := Bind(ty, child); err != nil {
			return nil, errors.Wrapf(err, "%s argument %d", seg.Name, i)
		}
	}
	return ty, nil
}

func extractTuple(t *syntax.Tuple, ctx Context) (Nature, error) {
	ty := NewTuple()
	for i, elem := range t.Elems {
		child, err := ExtractType(elem, ctx.Clone())
		if err != nil {
			return nil, errors.Wrapf(err, "tuple element %d", i)
		}
		if err := Bind(ty, child); err != nil {
			return nil, err
		}
	}
	return ty, nil
}

// ExtractFunc builds the signature of a function-like declaration. The
// receiver is not an argument; every other parameter must bind a plain name.
func ExtractFunc(fn *syntax.FnDecl, ctx Context) (*Func, error) {
	args := make([]*FuncArg, 0, len(fn.Params))
	for i, param := range fn.Params {
		id, ok := param.Pattern.(*syntax.IdentPattern)
		if !ok || id.Name == "" {
			return nil, parsingf("Cannot find ident for FnArg %d of %s", i, fn.Name)
		}
		typ, err := ExtractType(param.Type, ctx.Clone())
		if err != nil {
			return nil, errors.Wrapf(err, "argument %s of %s", id.Name, fn.Name)
		}
		args = append(args, NewFuncArg(id.Name, ctx, typ))
	}

	var out Nature
	if fn.Output != nil {
		var err error
		out, err = ExtractType(fn.Output, ctx.Clone())
		if err != nil {
			return nil, errors.Wrapf(err, "return type of %s", fn.Name)
		}
	}

	return NewFunc(args, out, fn.Async), nil
}

// ExtractNamedFunc wraps the signature of fn under its name.
func ExtractNamedFunc(fn *syntax.FnDecl, ctx Context) (*NamedFunc, error) {
	sig, err := ExtractFunc(fn, ctx)
	if err != nil {
		return nil, err
	}
	return NewNamedFunc(fn.Name, ctx, sig), nil
}

// ExtractStruct builds a Struct with one Field per declared field. Positional
// fields are named by index.
func ExtractStruct(decl *syntax.StructDecl, ctx Context) (*Struct, error) {
	s := NewStruct(decl.Name, ctx)
	for i, f := range decl.Fields {
		field, err := extractField(f, i, ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "struct %s", decl.Name)
		}
		if err := Bind(s, field); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ExtractEnum builds an Enum with one EnumVariant per variant. Named variant
// fields become Field values; positional ones are bound as bare types.
func ExtractEnum(decl *syntax.EnumDecl, ctx Context) (*Enum, error) {
	e := NewEnum(decl.Name, ctx)
	for _, vd := range decl.Variants {
		v := NewEnumVariant(vd.Name, ctx)
		for i, f := range vd.Fields {
			var value Nature
			var err error
			if vd.Shape == syntax.ShapeNamed {
				value, err = extractField(f, i, ctx)
			} else {
				value, err = ExtractType(f.Type, ctx.Clone())
			}
			if err != nil {
				return nil, errors.Wrapf(err, "enum %s variant %s", decl.Name, vd.Name)
			}
			if err := Bind(v, value); err != nil {
				return nil, err
			}
		}
		if err := Bind(e, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func extractField(f syntax.FieldDecl, index int, ctx Context) (*Field, error) {
	name := f.Name
	if name == "" {
		name = strconv.Itoa(index)
	}
	typ, err := ExtractType(f.Type, ctx.Clone())
	if err != nil {
		return nil, errors.Wrapf(err, "field %s", name)
	}
	return NewField(name, ctx, typ), nil
}
