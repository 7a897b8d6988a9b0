package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/typelink/internal/syntax"
)

// Test Plan for RustParser:
// - Collects structs, enums, functions and impl blocks with attributes
// - Recurses into inline modules
// - Converts named, tuple and unit field shapes
// - Converts primitive, generic, scoped, tuple and unsupported types
// - Marks receivers, mutable params and async functions
// - Recovers names from ref and ref mut bindings
// - Records 1-based positions
// - Flags files with syntax errors without failing

func parse(t *testing.T, src string) *syntax.File {
	t.Helper()
	file, err := NewRustParser().ParseSource("test.rs", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, file)
	return file
}

func TestRustParser_ParseFile(t *testing.T) {
	t.Parallel()

	file, err := NewRustParser().ParseFile(context.Background(), "../../testdata/rust/crate/src/lib.rs")
	require.NoError(t, err)
	assert.False(t, file.HasErrors)

	var names []string
	for _, item := range file.Items {
		names = append(names, item.ItemName())
	}
	assert.Equal(t, []string{"Config", "Session", "Session", "Status", "Event", "Hidden", "handshake"}, names)

	hidden := file.Items[5]
	assert.Empty(t, hidden.Attributes())
}

func TestRustParser_ParseFileMissing(t *testing.T) {
	t.Parallel()

	_, err := NewRustParser().ParseFile(context.Background(), "does/not/exist.rs")
	require.Error(t, err)
}

func TestRustParser_ParseFileCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRustParser().ParseFile(ctx, "../../testdata/rust/crate/src/lib.rs")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRustParser_Attributes(t *testing.T) {
	t.Parallel()

	file := parse(t, `
#[derive(Debug, Clone)]
// a comment between attributes and the item
#[typelink(class, target = "a,b")]
struct A { x: u8 }

#[typelink]
fn f() {}

#[doc = "hello"]
enum E { One }
`)
	require.Len(t, file.Items, 3)

	attrs := file.Items[0].Attributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, "derive", attrs[0].Name)
	assert.Equal(t, []string{"Debug", "Clone"}, attrs[0].Args)
	assert.Equal(t, "typelink", attrs[1].Name)
	assert.Equal(t, []string{"class", `target = "a,b"`}, attrs[1].Args)
	assert.Equal(t, 4, attrs[1].Pos.Line)

	fnAttrs := file.Items[1].Attributes()
	require.Len(t, fnAttrs, 1)
	assert.Equal(t, "typelink", fnAttrs[0].Name)
	assert.Empty(t, fnAttrs[0].Args)

	docAttrs := file.Items[2].Attributes()
	require.Len(t, docAttrs, 1)
	assert.Equal(t, "doc", docAttrs[0].Name)
	assert.Equal(t, []string{`"hello"`}, docAttrs[0].Args)
}

func TestRustParser_AttributesDoNotLeak(t *testing.T) {
	t.Parallel()

	file := parse(t, `
#[typelink]
use std::fmt;

struct Plain { x: u8 }
`)
	require.Len(t, file.Items, 1)
	assert.Empty(t, file.Items[0].Attributes())
}

func TestRustParser_StructShapes(t *testing.T) {
	t.Parallel()

	file := parse(t, `
struct Named { a: u8, pub b: String }
struct Pair(pub u8, String);
struct Unit;
`)
	require.Len(t, file.Items, 3)

	named := file.Items[0].(*syntax.StructDecl)
	assert.Equal(t, syntax.ShapeNamed, named.Shape)
	require.Len(t, named.Fields, 2)
	assert.Equal(t, "a", named.Fields[0].Name)
	assert.Equal(t, &syntax.Ident{Name: "u8"}, named.Fields[0].Type)
	assert.Equal(t, "b", named.Fields[1].Name)
	assert.Equal(t, &syntax.Ident{Name: "String"}, named.Fields[1].Type)

	pair := file.Items[1].(*syntax.StructDecl)
	assert.Equal(t, syntax.ShapeTuple, pair.Shape)
	require.Len(t, pair.Fields, 2)
	assert.Empty(t, pair.Fields[0].Name)
	assert.Equal(t, &syntax.Ident{Name: "u8"}, pair.Fields[0].Type)
	assert.Equal(t, &syntax.Ident{Name: "String"}, pair.Fields[1].Type)

	unit := file.Items[2].(*syntax.StructDecl)
	assert.Equal(t, syntax.ShapeUnit, unit.Shape)
	assert.Empty(t, unit.Fields)
}

func TestRustParser_Enum(t *testing.T) {
	t.Parallel()

	file := parse(t, `enum Event {
    Connected(u32),
    Message { from: String },
    Closed,
}`)
	require.Len(t, file.Items, 1)
	enum := file.Items[0].(*syntax.EnumDecl)
	assert.Equal(t, "Event", enum.Name)
	require.Len(t, enum.Variants, 3)

	assert.Equal(t, "Connected", enum.Variants[0].Name)
	assert.Equal(t, syntax.ShapeTuple, enum.Variants[0].Shape)
	require.Len(t, enum.Variants[0].Fields, 1)
	assert.Equal(t, 2, enum.Variants[0].Pos.Line)

	assert.Equal(t, "Message", enum.Variants[1].Name)
	assert.Equal(t, syntax.ShapeNamed, enum.Variants[1].Shape)
	assert.Equal(t, "from", enum.Variants[1].Fields[0].Name)

	assert.Equal(t, "Closed", enum.Variants[2].Name)
	assert.Equal(t, syntax.ShapeUnit, enum.Variants[2].Shape)
}

func TestRustParser_Function(t *testing.T) {
	t.Parallel()

	file := parse(t, `pub async fn run(mut a: u8, (x, y): (u8, u8), cb: Vec<String>) -> Option<u64> {}`)
	require.Len(t, file.Items, 1)
	fn := file.Items[0].(*syntax.FnDecl)

	assert.Equal(t, "run", fn.Name)
	assert.True(t, fn.Public)
	assert.True(t, fn.Async)
	assert.Nil(t, fn.Receiver)
	require.Len(t, fn.Params, 3)

	assert.Equal(t, &syntax.IdentPattern{Name: "a", Mutable: true}, fn.Params[0].Pattern)
	other, ok := fn.Params[1].Pattern.(*syntax.OtherPattern)
	require.True(t, ok)
	assert.Equal(t, "tuple_pattern", other.Kind)
	assert.Equal(t, &syntax.IdentPattern{Name: "cb"}, fn.Params[2].Pattern)

	out, ok := fn.Output.(*syntax.Path)
	require.True(t, ok)
	require.Len(t, out.Segments, 1)
	assert.Equal(t, "Option", out.Segments[0].Name)
	assert.True(t, out.Segments[0].Bracketed)
	assert.Equal(t, []syntax.GenericArg{&syntax.TypeArg{Type: &syntax.Ident{Name: "u64"}}}, out.Segments[0].Args)
}

func TestRustParser_RefBindings(t *testing.T) {
	t.Parallel()

	file := parse(t, `fn h(ref a: u8, ref mut b: String, _: u8) {}`)
	fn := file.Items[0].(*syntax.FnDecl)
	require.Len(t, fn.Params, 3)

	assert.Equal(t, &syntax.IdentPattern{Name: "a"}, fn.Params[0].Pattern)
	assert.Equal(t, &syntax.IdentPattern{Name: "b", Mutable: true}, fn.Params[1].Pattern)
	_, ok := fn.Params[2].Pattern.(*syntax.OtherPattern)
	assert.True(t, ok)
}

func TestRustParser_FunctionWithoutReturn(t *testing.T) {
	t.Parallel()

	file := parse(t, `fn quiet() {}`)
	fn := file.Items[0].(*syntax.FnDecl)
	assert.False(t, fn.Public)
	assert.False(t, fn.Async)
	assert.Nil(t, fn.Output)
	assert.Empty(t, fn.Params)
}

func TestRustParser_Impl(t *testing.T) {
	t.Parallel()

	file := parse(t, `
#[typelink]
impl Session {
    #[typelink(skip)]
    pub fn id(&self) -> u32 { 0 }
    fn boxed(self: Box<Self>) -> Self { todo!() }
    const X: u8 = 1;
}

impl Display for Session {}
`)
	require.Len(t, file.Items, 2)

	impl := file.Items[0].(*syntax.ImplDecl)
	assert.Equal(t, "Session", impl.ItemName())
	assert.Empty(t, impl.Trait)
	require.Len(t, impl.Attrs, 1)
	require.Len(t, impl.Methods, 2)

	id := impl.Methods[0]
	assert.Equal(t, "id", id.Name)
	require.NotNil(t, id.Receiver)
	assert.Equal(t, "&self", id.Receiver.Text)
	require.Len(t, id.Attrs, 1)
	assert.Equal(t, []string{"skip"}, id.Attrs[0].Args)

	boxed := impl.Methods[1]
	require.NotNil(t, boxed.Receiver)
	assert.Empty(t, boxed.Params)
	assert.Empty(t, boxed.Attrs)

	display := file.Items[1].(*syntax.ImplDecl)
	assert.Equal(t, "Display", display.Trait)
}

func TestRustParser_Types(t *testing.T) {
	t.Parallel()

	file := parse(t, `struct T {
    a: std::string::String,
    b: HashMap<String, Vec<u8>>,
    c: (u8, bool),
    d: (),
    e: [u8; 4],
    f: &'a str,
    g: Cow<'a, str>,
    h: std::collections::HashMap<String, u8>,
}`)
	decl := file.Items[0].(*syntax.StructDecl)
	require.Len(t, decl.Fields, 8)

	scoped, ok := decl.Fields[0].Type.(*syntax.Path)
	require.True(t, ok)
	assert.Equal(t, "std::string::String", scoped.String())
	_, single := scoped.AsIdent()
	assert.False(t, single)

	hashMap := decl.Fields[1].Type.(*syntax.Path)
	require.Len(t, hashMap.Segments[0].Args, 2)
	inner := hashMap.Segments[0].Args[1].(*syntax.TypeArg).Type.(*syntax.Path)
	assert.Equal(t, "Vec", inner.Segments[0].Name)

	assert.Equal(t, &syntax.Tuple{Elems: []syntax.Type{&syntax.Ident{Name: "u8"}, &syntax.Ident{Name: "bool"}}}, decl.Fields[2].Type)
	assert.Equal(t, &syntax.Tuple{}, decl.Fields[3].Type)

	array, ok := decl.Fields[4].Type.(*syntax.Unsupported)
	require.True(t, ok)
	assert.Equal(t, "array_type", array.Kind)

	ref, ok := decl.Fields[5].Type.(*syntax.Unsupported)
	require.True(t, ok)
	assert.Equal(t, "reference_type", ref.Kind)

	cow := decl.Fields[6].Type.(*syntax.Path)
	require.Len(t, cow.Segments[0].Args, 2)
	lifetime, ok := cow.Segments[0].Args[0].(*syntax.OtherArg)
	require.True(t, ok)
	assert.Equal(t, "lifetime", lifetime.Kind)

	qualified := decl.Fields[7].Type.(*syntax.Path)
	require.Len(t, qualified.Segments, 3)
	assert.True(t, qualified.Segments[2].Bracketed)
	assert.Empty(t, qualified.Segments[0].Args)
}

func TestRustParser_Modules(t *testing.T) {
	t.Parallel()

	file := parse(t, `
mod a {
    mod b {
        #[typelink]
        pub struct Deep { x: u8 }
    }
}
mod external;
`)
	require.Len(t, file.Items, 1)
	assert.Equal(t, "Deep", file.Items[0].ItemName())
	assert.Equal(t, 5, file.Items[0].Position().Line)
	assert.Equal(t, 9, file.Items[0].Position().Column)
	assert.Equal(t, "test.rs", file.Items[0].Position().File)
}

func TestRustParser_SyntaxErrors(t *testing.T) {
	t.Parallel()

	file := parse(t, `struct Ok { x: u8 }
struct Broken {`)
	assert.True(t, file.HasErrors)
}

func TestSplitArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "class", []string{"class"}},
		{"several", "a, b ,c", []string{"a", "b", "c"}},
		{"nested", "a(b, c), d", []string{"a(b, c)", "d"}},
		{"quoted", `x = "1,2", y`, []string{`x = "1,2"`, "y"}},
		{"trailing comma", "a, b,", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, splitArgs(tt.in))
		})
	}
}
