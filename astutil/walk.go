// Copyright © 2024 The pyscope authors

// Package astutil provides shared syntax tree walking utilities.
//
// These helpers are used by the lint and lsp packages to find the nodes
// under a cursor and to visit calls without repeating the traversal.
package astutil

import (
	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/parser/token"
)

// Walk calls fn for every node in the tree, depth-first in source order.
// parent is nil for the root.
func Walk(root ast.Node, fn func(node ast.Node, parent ast.Node, depth int)) {
	walkNode(root, nil, 0, fn)
}

func walkNode(node ast.Node, parent ast.Node, depth int, fn func(ast.Node, ast.Node, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	for _, child := range ast.Children(node) {
		walkNode(child, node, depth+1, fn)
	}
}

// WalkCalls calls fn for every call expression in the tree.
func WalkCalls(root ast.Node, fn func(call *ast.Call, depth int)) {
	Walk(root, func(node ast.Node, _ ast.Node, depth int) {
		if call, ok := node.(*ast.Call); ok {
			fn(call, depth)
		}
	})
}

// CallName returns the name of the function a call invokes directly, or
// "" when the callee is not a plain name.
func CallName(call *ast.Call) string {
	if n, ok := call.Func.(*ast.Name); ok {
		return n.ID
	}
	return ""
}

// ArgCount returns the number of positional and keyword arguments of a
// call.
func ArgCount(call *ast.Call) int {
	return len(call.Args) + len(call.Keywords)
}

// PathAt returns the chain of nodes whose spans contain offset, outermost
// first.  The result is empty when offset is outside root.
func PathAt(root ast.Node, offset int) []ast.Node {
	var path []ast.Node
	for node := root; node != nil; {
		if !node.Span().Contains(offset) {
			break
		}
		path = append(path, node)
		var next ast.Node
		for _, child := range ast.Children(node) {
			if child.Span().Contains(offset) {
				next = child
				break
			}
		}
		node = next
	}
	return path
}

// NameAt returns the identifier occurrence at offset, or nil.
func NameAt(root ast.Node, offset int) *ast.Name {
	path := PathAt(root, offset)
	for i := len(path) - 1; i >= 0; i-- {
		if n, ok := path[i].(*ast.Name); ok {
			return n
		}
	}
	return nil
}

// Location returns the position of node's first byte in f.
func Location(f *token.File, node ast.Node) *token.Location {
	return f.Location(node.Span().Start)
}
