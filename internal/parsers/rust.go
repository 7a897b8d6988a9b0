package parsers

import (
	"context"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/syntax"
)

// RustParser turns Rust source into syntax declarations.
type RustParser struct {
	language *sitter.Language
}

// NewRustParser creates a new Rust parser.
func NewRustParser() *RustParser {
	return &RustParser{
		language: sitter.NewLanguage(rust.Language()),
	}
}

// ParseFile reads and parses a Rust source file.
func (p *RustParser) ParseFile(ctx context.Context, filePath string) (*syntax.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", filePath)
	}
	return p.ParseSource(filePath, source)
}

// ParseSource parses Rust source text. filePath is only used for positions.
func (p *RustParser) ParseSource(filePath string, source []byte) (*syntax.File, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, errors.Wrap(err, "failed to load rust grammar")
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, errors.Newf("failed to parse rust file: %s", filePath)
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	file := &syntax.File{
		Path:      filePath,
		HasErrors: rootNode.HasError(),
	}
	c := &converter{source: source, file: filePath}
	file.Items = c.collectItems(rootNode)
	return file, nil
}

// converter carries the per-file state of one conversion.
type converter struct {
	source []byte
	file   string
}

func (c *converter) text(node *sitter.Node) string {
	return extractNodeText(node, c.source)
}

func (c *converter) pos(node *sitter.Node) syntax.Position {
	return nodePosition(node, c.file)
}

// collectItems converts the items of a source file or module body. Outer
// attributes are siblings that precede their item.
func (c *converter) collectItems(container *sitter.Node) []syntax.Item {
	var items []syntax.Item
	var pending []syntax.Attribute

	for i := 0; i < int(container.ChildCount()); i++ {
		child := container.Child(uint(i))
		switch child.Kind() {
		case "attribute_item":
			pending = append(pending, c.convertAttribute(child))
			continue
		case "line_comment", "block_comment":
			continue
		case "struct_item":
			items = append(items, c.convertStruct(child, pending))
		case "enum_item":
			items = append(items, c.convertEnum(child, pending))
		case "function_item":
			items = append(items, c.convertFunction(child, pending))
		case "impl_item":
			items = append(items, c.convertImpl(child, pending))
		case "mod_item":
			if body := child.ChildByFieldName("body"); body != nil {
				items = append(items, c.collectItems(body)...)
			}
		}
		pending = nil
	}
	return items
}

// convertAttribute splits #[name(arg, arg)] into its name and arguments.
func (c *converter) convertAttribute(node *sitter.Node) syntax.Attribute {
	text := c.text(node)
	if attr := findChildByType(node, "attribute"); attr != nil {
		text = c.text(attr)
	} else {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "#["), "]")
	}

	attribute := syntax.Attribute{Pos: c.pos(node)}
	open := strings.IndexAny(text, "(=")
	if open < 0 {
		attribute.Name = strings.TrimSpace(text)
		return attribute
	}

	attribute.Name = strings.TrimSpace(text[:open])
	if text[open] == '=' {
		attribute.Args = []string{strings.TrimSpace(text[open+1:])}
		return attribute
	}
	inner := strings.TrimSuffix(strings.TrimSpace(text[open+1:]), ")")
	attribute.Args = splitArgs(inner)
	return attribute
}

// splitArgs splits on commas that are not nested in brackets or quotes.
func splitArgs(s string) []string {
	var args []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '"' && (i == 0 || s[i-1] != '\\'):
			inString = !inString
		case inString:
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			depth--
		case ch == ',' && depth == 0:
			if arg := strings.TrimSpace(s[start:i]); arg != "" {
				args = append(args, arg)
			}
			start = i + 1
		}
	}
	if arg := strings.TrimSpace(s[start:]); arg != "" {
		args = append(args, arg)
	}
	return args
}

func (c *converter) convertStruct(node *sitter.Node, attrs []syntax.Attribute) *syntax.StructDecl {
	decl := &syntax.StructDecl{
		Name:  c.text(node.ChildByFieldName("name")),
		Attrs: attrs,
		Pos:   c.pos(node),
	}
	decl.Shape, decl.Fields = c.convertFields(node.ChildByFieldName("body"))
	return decl
}

func (c *converter) convertEnum(node *sitter.Node, attrs []syntax.Attribute) *syntax.EnumDecl {
	decl := &syntax.EnumDecl{
		Name:  c.text(node.ChildByFieldName("name")),
		Attrs: attrs,
		Pos:   c.pos(node),
	}

	for _, v := range findChildrenByType(node.ChildByFieldName("body"), "enum_variant") {
		variant := syntax.VariantDecl{
			Name: c.text(v.ChildByFieldName("name")),
			Pos:  c.pos(v),
		}
		variant.Shape, variant.Fields = c.convertFields(v.ChildByFieldName("body"))
		decl.Variants = append(decl.Variants, variant)
	}
	return decl
}

// convertFields handles both {named: T} and (T, U) field lists.
func (c *converter) convertFields(body *sitter.Node) (syntax.Shape, []syntax.FieldDecl) {
	if body == nil {
		return syntax.ShapeUnit, nil
	}

	var fields []syntax.FieldDecl
	switch body.Kind() {
	case "field_declaration_list":
		for _, f := range findChildrenByType(body, "field_declaration") {
			fields = append(fields, syntax.FieldDecl{
				Name: c.text(f.ChildByFieldName("name")),
				Type: c.convertType(f.ChildByFieldName("type")),
				Pos:  c.pos(f),
			})
		}
		return syntax.ShapeNamed, fields

	case "ordered_field_declaration_list":
		for _, child := range namedChildren(body) {
			switch child.Kind() {
			case "visibility_modifier", "attribute_item":
				continue
			}
			fields = append(fields, syntax.FieldDecl{
				Type: c.convertType(child),
				Pos:  c.pos(child),
			})
		}
		return syntax.ShapeTuple, fields
	}
	return syntax.ShapeUnit, nil
}

func (c *converter) convertFunction(node *sitter.Node, attrs []syntax.Attribute) *syntax.FnDecl {
	fn := &syntax.FnDecl{
		Name:   c.text(node.ChildByFieldName("name")),
		Public: findChildByType(node, "visibility_modifier") != nil,
		Attrs:  attrs,
		Pos:    c.pos(node),
	}

	if mods := findChildByType(node, "function_modifiers"); mods != nil {
		fn.Async = findChildByType(mods, "async") != nil
	}

	for _, child := range namedChildren(node.ChildByFieldName("parameters")) {
		switch child.Kind() {
		case "self_parameter":
			fn.Receiver = &syntax.Receiver{Text: c.text(child)}
		case "parameter":
			pattern := child.ChildByFieldName("pattern")
			if pattern != nil && pattern.Kind() == "self" {
				// self: Box<Self> and friends
				fn.Receiver = &syntax.Receiver{Text: c.text(child)}
				continue
			}
			fn.Params = append(fn.Params, syntax.Param{
				Pattern: c.convertPattern(child, pattern),
				Type:    c.convertType(child.ChildByFieldName("type")),
				Pos:     c.pos(child),
			})
		case "variadic_parameter":
			fn.Params = append(fn.Params, syntax.Param{
				Pattern: &syntax.OtherPattern{Kind: child.Kind(), Text: c.text(child)},
				Type:    &syntax.Unsupported{Kind: child.Kind(), Text: c.text(child)},
				Pos:     c.pos(child),
			})
		}
	}

	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fn.Output = c.convertType(ret)
	}
	return fn
}

func (c *converter) convertPattern(param, pattern *sitter.Node) syntax.Pattern {
	if pattern == nil {
		return &syntax.OtherPattern{Kind: "missing"}
	}
	mutable := findChildByType(param, "mutable_specifier") != nil
	// ref a, ref mut a and mut a still bind a plain name.
	inner := pattern
	for inner != nil && (inner.Kind() == "ref_pattern" || inner.Kind() == "mut_pattern") {
		if findChildByType(inner, "mutable_specifier") != nil {
			mutable = true
		}
		inner = lastPatternChild(inner)
	}
	if inner != nil && inner.Kind() == "identifier" {
		return &syntax.IdentPattern{
			Name:    c.text(inner),
			Mutable: mutable,
		}
	}
	return &syntax.OtherPattern{Kind: pattern.Kind(), Text: c.text(pattern)}
}

// lastPatternChild returns the pattern wrapped by a ref or mut pattern.
func lastPatternChild(node *sitter.Node) *sitter.Node {
	children := namedChildren(node)
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].Kind() != "mutable_specifier" {
			return children[i]
		}
	}
	return nil
}

func (c *converter) convertImpl(node *sitter.Node, attrs []syntax.Attribute) *syntax.ImplDecl {
	decl := &syntax.ImplDecl{
		SelfType: c.convertType(node.ChildByFieldName("type")),
		Attrs:    attrs,
		Pos:      c.pos(node),
	}
	if trait := node.ChildByFieldName("trait"); trait != nil {
		decl.Trait = c.text(trait)
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return decl
	}

	var pending []syntax.Attribute
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(uint(i))
		switch child.Kind() {
		case "attribute_item":
			pending = append(pending, c.convertAttribute(child))
			continue
		case "line_comment", "block_comment":
			continue
		case "function_item":
			decl.Methods = append(decl.Methods, *c.convertFunction(child, pending))
		}
		pending = nil
	}
	return decl
}

// convertType maps a tree-sitter type node to a syntax.Type. Forms the model
// has no shape for become syntax.Unsupported and are rejected at extraction.
func (c *converter) convertType(node *sitter.Node) syntax.Type {
	if node == nil {
		return nil
	}

	switch node.Kind() {
	case "primitive_type", "type_identifier":
		return &syntax.Ident{Name: c.text(node)}

	case "scoped_type_identifier":
		return &syntax.Path{Segments: c.pathSegments(node)}

	case "generic_type":
		segments := c.pathSegments(node.ChildByFieldName("type"))
		if len(segments) == 0 {
			return &syntax.Unsupported{Kind: node.Kind(), Text: c.text(node)}
		}
		last := &segments[len(segments)-1]
		last.Bracketed = true
		last.Args = c.convertGenericArgs(node.ChildByFieldName("type_arguments"))
		return &syntax.Path{Segments: segments}

	case "tuple_type":
		tuple := &syntax.Tuple{}
		for _, elem := range namedChildren(node) {
			tuple.Elems = append(tuple.Elems, c.convertType(elem))
		}
		return tuple

	case "unit_type":
		return &syntax.Tuple{}
	}

	return &syntax.Unsupported{Kind: node.Kind(), Text: c.text(node)}
}

func (c *converter) pathSegments(node *sitter.Node) []syntax.Segment {
	if node == nil {
		return nil
	}
	var segments []syntax.Segment
	for _, part := range strings.Split(c.text(node), "::") {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, syntax.Segment{Name: part})
		}
	}
	return segments
}

func (c *converter) convertGenericArgs(node *sitter.Node) []syntax.GenericArg {
	var args []syntax.GenericArg
	for _, child := range namedChildren(node) {
		kind := child.Kind()
		switch {
		case kind == "lifetime", kind == "type_binding", kind == "block", strings.HasSuffix(kind, "_literal"):
			args = append(args, &syntax.OtherArg{Kind: kind, Text: c.text(child)})
		default:
			args = append(args, &syntax.TypeArg{Type: c.convertType(child)})
		}
	}
	return args
}
