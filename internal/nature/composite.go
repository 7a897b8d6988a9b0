package nature

import (
	"fmt"
	"slices"
	"strings"
)

// Vec is a homogeneous sequence. Its element slot is filled by the first Bind.
type Vec struct {
	elem Nature
}

// NewVec returns a Vec with an open element slot.
func NewVec() *Vec { return &Vec{} }

// Elem returns the element nature, or nil while the slot is open.
func (v *Vec) Elem() Nature { return v.elem }

func (v *Vec) Kind() Kind { return KindVec }

func (v *Vec) String() string {
	return fmt.Sprintf("Vec(%s)", optString(v.elem))
}

func (*Vec) sealed() {}

// HashMap is a keyed collection. The key must be a Primitive.
type HashMap struct {
	key   *Primitive
	value Nature
}

// NewHashMap returns a HashMap with open key and value slots.
func NewHashMap() *HashMap { return &HashMap{} }

// Key returns the key classification; ok is false while the slot is open.
func (m *HashMap) Key() (p Primitive, ok bool) {
	if m.key == nil {
		return 0, false
	}
	return *m.key, true
}

// Value returns the value nature, or nil while the slot is open.
func (m *HashMap) Value() Nature { return m.value }

func (m *HashMap) Kind() Kind { return KindHashMap }

func (m *HashMap) String() string {
	key := "None"
	if m.key != nil {
		key = "Some(" + m.key.String() + ")"
	}
	return fmt.Sprintf("HashMap(%s, %s)", key, optString(m.value))
}

func (*HashMap) sealed() {}

// Option is a nullable wrapper.
type Option struct {
	inner Nature
}

// NewOption returns an Option with an open inner slot.
func NewOption() *Option { return &Option{} }

// Inner returns the wrapped nature, or nil while the slot is open.
func (o *Option) Inner() Nature { return o.inner }

func (o *Option) Kind() Kind { return KindOption }

func (o *Option) String() string {
	return fmt.Sprintf("Option(%s)", optString(o.inner))
}

func (*Option) sealed() {}

// Tuple is a fixed, ordered product of natures. Elements are appended by Bind.
type Tuple struct {
	elems []Nature
}

// NewTuple returns an empty Tuple.
func NewTuple() *Tuple { return &Tuple{} }

// Elems returns a copy of the elements in bind order.
func (t *Tuple) Elems() []Nature { return slices.Clone(t.elems) }

// Len returns the number of elements.
func (t *Tuple) Len() int { return len(t.elems) }

func (t *Tuple) Kind() Kind { return KindTuple }

func (t *Tuple) String() string {
	return fmt.Sprintf("Tuple(%s)", listString(t.elems))
}

func (*Tuple) sealed() {}

// Func is a function signature. It is complete at construction and cannot be
// bound into.
type Func struct {
	args  []*FuncArg
	out   Nature
	async bool
}

// NewFunc builds a signature. out is nil when no return type is declared.
func NewFunc(args []*FuncArg, out Nature, async bool) *Func {
	return &Func{
		args:  slices.Clone(args),
		out:   out,
		async: async,
	}
}

// Args returns a copy of the arguments in declaration order.
func (f *Func) Args() []*FuncArg { return slices.Clone(f.args) }

// Output returns the return nature, or nil for no declared return.
func (f *Func) Output() Nature { return f.out }

// IsAsync reports whether the declaration was asynchronous.
func (f *Func) IsAsync() bool { return f.async }

func (f *Func) Kind() Kind { return KindFunc }

func (f *Func) String() string {
	args := make([]string, 0, len(f.args))
	for _, a := range f.args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("Func([%s], %s, is_async=%t)", strings.Join(args, ", "), optString(f.out), f.async)
}

func (*Func) sealed() {}

func optString(n Nature) string {
	if n == nil {
		return "None"
	}
	return "Some(" + n.String() + ")"
}

func listString(ns []Nature) string {
	parts := make([]string, 0, len(ns))
	for _, n := range ns {
		parts = append(parts, n.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
