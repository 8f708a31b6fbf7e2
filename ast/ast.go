// Copyright © 2024 The pyscope authors

// Package ast declares the syntax tree consumed by the binder.
//
// Statements and expressions are closed sets of pointer types implementing
// Stmt and Expr respectively.  Nodes are never copied; a node's pointer is
// its identity, which is what analysis side tables are keyed on.
package ast

import (
	"github.com/luthersystems/pyscope/parser/token"
)

// Span is a half-open byte range [Start, End) in the source text.
type Span struct {
	Start int
	End   int
}

// Contains reports whether off lies within s.  The end offset is included so
// that a cursor placed just after an identifier still selects it.
func (s Span) Contains(off int) bool {
	return s.Start <= off && off <= s.End
}

// Len returns the width of s in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Node is implemented by every syntax tree node.
type Node interface {
	Span() Span
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// ScopeNode is implemented by nodes that introduce a scope: Module,
// FunctionDef, ClassDef, Lambda and Comprehension.
type ScopeNode interface {
	Node
	scopeNode()
}

// Base carries the source span of a node.  Every node type embeds it.
type Base struct {
	Loc Span
}

func (b *Base) Span() Span { return b.Loc }

// At returns a Base covering [start, end).
func At(start, end int) Base {
	return Base{Loc: Span{Start: start, End: end}}
}

// Module is the root of a parsed file.
type Module struct {
	Base
	Body     []Stmt
	File     *token.File
	Comments []*token.Token
}

func (*Module) scopeNode() {}

// Docstring returns the leading string constant of body, if any.
func Docstring(body []Stmt) *Constant {
	if len(body) == 0 {
		return nil
	}
	es, ok := body[0].(*ExprStmt)
	if !ok {
		return nil
	}
	c, ok := es.Value.(*Constant)
	if !ok || c.Kind != ConstString {
		return nil
	}
	return c
}

// Ctx is the context an identifier or target appears in.
type Ctx int

const (
	Load Ctx = iota
	Store
	Del
)

func (c Ctx) String() string {
	switch c {
	case Load:
		return "load"
	case Store:
		return "store"
	case Del:
		return "del"
	default:
		return "unknown"
	}
}
