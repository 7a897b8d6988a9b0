// Package nature is the type model: a tagged union of leaf primitives,
// composite container shapes and named (refered) entities, the Bind protocol
// that assembles them, the extraction engine that classifies syntax nodes,
// and the Natures registry for one analysis run.
//
// Named-type recursion is only ever expressed through Ref placeholders, so
// every Nature tree is finite and acyclic.
package nature

// Nature is one node of the type model. The set of implementations is closed:
// Primitive, Ref, *Vec, *HashMap, *Option, *Tuple, *Func, *Struct, *Enum,
// *EnumVariant, *NamedFunc, *Field and *FuncArg.
type Nature interface {
	// Kind returns the concrete shape for type switching.
	Kind() Kind

	// String renders the canonical debug form, e.g. Vec(Some(Number)).
	String() string

	sealed()
}

// ClassOf returns the group of n.
func ClassOf(n Nature) Class {
	return n.Kind().Class()
}

// Bind fills the next open slot of target with child, or appends child to
// target's member list. It is the only way a Nature changes after
// construction.
//
//	Primitive                    always fails
//	Struct, Enum, EnumVariant    append
//	HashMap                      key (Primitive only), then value, then fails
//	Option, Vec                  one bind, then fails
//	Tuple                        append
//	Func, NamedFunc, Field,
//	FuncArg, Ref                 not bindable
func Bind(target, child Nature) error {
	if target == nil {
		return parsingf("cannot bind into a nil nature")
	}
	if child == nil {
		return parsingf("cannot bind a nil nature into %s", target.Kind())
	}

	switch t := target.(type) {
	case Primitive:
		return parsingf("primitive type %s cannot be bound", t)

	case *Struct:
		t.members = append(t.members, child)
		return nil
	case *Enum:
		t.variants = append(t.variants, child)
		return nil
	case *EnumVariant:
		t.values = append(t.values, child)
		return nil

	case *HashMap:
		if t.key == nil {
			p, ok := child.(Primitive)
			if !ok {
				return parsingf("HashMap can use as key only Primitive type, got %s", child.Kind())
			}
			t.key = &p
			return nil
		}
		if t.value == nil {
			t.value = child
			return nil
		}
		return parsingf("HashMap entity already has been bound")

	case *Option:
		if t.inner != nil {
			return parsingf("Option entity already has been bound")
		}
		t.inner = child
		return nil

	case *Vec:
		if t.elem != nil {
			return parsingf("Vec entity already has been bound")
		}
		t.elem = child
		return nil

	case *Tuple:
		t.elems = append(t.elems, child)
		return nil
	}

	return notSupported("%s cannot be bound", target.Kind())
}

// Children returns the direct sub-natures of n in order.
func Children(n Nature) []Nature {
	switch n := n.(type) {
	case *Vec:
		return compact(n.elem)
	case *HashMap:
		if n.key != nil {
			return compact(*n.key, n.value)
		}
		return compact(n.value)
	case *Option:
		return compact(n.inner)
	case *Tuple:
		return n.Elems()
	case *Func:
		out := make([]Nature, 0, len(n.args)+1)
		for _, a := range n.args {
			out = append(out, a)
		}
		if n.out != nil {
			out = append(out, n.out)
		}
		return out
	case *Struct:
		return n.Members()
	case *Enum:
		return n.Variants()
	case *EnumVariant:
		return n.Values()
	case *NamedFunc:
		return compact(n.sig)
	case *Field:
		return compact(n.typ)
	case *FuncArg:
		return compact(n.typ)
	}
	return nil
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the children of the visited node.
func Walk(n Nature, fn func(Nature) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Refs returns every Ref name under n, in visit order, duplicates included.
func Refs(n Nature) []string {
	var names []string
	Walk(n, func(c Nature) bool {
		if r, ok := c.(Ref); ok {
			names = append(names, string(r))
		}
		return true
	})
	return names
}

// IsSelfReturned reports whether n is a signature (or a named function)
// returning exactly Ref("Self"), the marker of builder-style chaining.
func IsSelfReturned(n Nature) bool {
	if nf, ok := n.(*NamedFunc); ok {
		n = nf.sig
	}
	f, ok := n.(*Func)
	if !ok || f.out == nil {
		return false
	}
	r, ok := f.out.(Ref)
	return ok && r == SelfRef
}

func compact(ns ...Nature) []Nature {
	out := make([]Nature, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
