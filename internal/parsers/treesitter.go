package parsers

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/typelink/internal/syntax"
)

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// nodePosition converts a node's start point to a 1-based Position.
func nodePosition(node *sitter.Node, filePath string) syntax.Position {
	start := node.StartPosition()
	return syntax.Position{
		File:   filePath,
		Line:   int(start.Row) + 1,
		Column: int(start.Column) + 1,
	}
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all child nodes with the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if !child.IsNamed() {
			continue
		}
		switch child.Kind() {
		case "line_comment", "block_comment":
			continue
		}
		results = append(results, child)
	}
	return results
}
