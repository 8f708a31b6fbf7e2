// Copyright © 2024 The pyscope authors

package ast

import "fmt"

type nodeList []Node

func (l *nodeList) expr(e Expr) {
	if e != nil {
		*l = append(*l, e)
	}
}

func (l *nodeList) exprs(es []Expr) {
	for _, e := range es {
		l.expr(e)
	}
}

func (l *nodeList) stmts(ss []Stmt) {
	for _, s := range ss {
		if s != nil {
			*l = append(*l, s)
		}
	}
}

func (l *nodeList) name(n *Name) {
	if n != nil {
		*l = append(*l, n)
	}
}

func (l *nodeList) params(ps []*Param) {
	for _, p := range ps {
		if p != nil {
			*l = append(*l, p)
		}
	}
}

func (l *nodeList) keywords(ks []*Keyword) {
	for _, k := range ks {
		if k != nil {
			*l = append(*l, k)
		}
	}
}

// Children returns the direct children of n in source order.  BadStmt and
// BadExpr have no children.  Children panics on node types declared outside
// this package.
func Children(n Node) []Node {
	var l nodeList
	switch n := n.(type) {
	case *Module:
		l.stmts(n.Body)
	case *FunctionDef:
		l.exprs(n.Decorators)
		l.name(n.Name)
		l.params(n.Params)
		l.expr(n.Returns)
		l.stmts(n.Body)
	case *Param:
		l.name(n.Name)
		l.expr(n.Target)
		l.expr(n.Annotation)
		l.expr(n.Default)
	case *ClassDef:
		l.exprs(n.Decorators)
		l.name(n.Name)
		l.exprs(n.Bases)
		l.keywords(n.Keywords)
		l.stmts(n.Body)
	case *Return:
		l.expr(n.Value)
	case *Delete:
		l.exprs(n.Targets)
	case *Assign:
		l.exprs(n.Targets)
		l.expr(n.Value)
	case *AugAssign:
		l.expr(n.Target)
		l.expr(n.Value)
	case *AnnAssign:
		l.expr(n.Target)
		l.expr(n.Annotation)
		l.expr(n.Value)
	case *For:
		l.expr(n.Target)
		l.expr(n.Iter)
		l.stmts(n.Body)
		l.stmts(n.Else)
	case *While:
		l.expr(n.Test)
		l.stmts(n.Body)
		l.stmts(n.Else)
	case *If:
		l.expr(n.Test)
		l.stmts(n.Body)
		l.stmts(n.Else)
	case *With:
		for _, item := range n.Items {
			l = append(l, item)
		}
		l.stmts(n.Body)
	case *WithItem:
		l.expr(n.Context)
		l.expr(n.Target)
	case *Try:
		l.stmts(n.Body)
		for _, h := range n.Handlers {
			l = append(l, h)
		}
		l.stmts(n.Else)
		l.stmts(n.Finally)
	case *ExceptHandler:
		l.expr(n.Type)
		l.expr(n.Name)
		l.stmts(n.Body)
	case *Raise:
		l.expr(n.Exc)
		l.exprs(n.Extra)
		l.expr(n.Cause)
	case *Assert:
		l.expr(n.Test)
		l.expr(n.Msg)
	case *Import:
		for _, a := range n.Names {
			l = append(l, a)
		}
	case *ImportFrom:
		for _, a := range n.Names {
			l = append(l, a)
		}
	case *Alias:
		l.name(n.Target)
	case *Global:
		for _, name := range n.Names {
			l.name(name)
		}
	case *Nonlocal:
		for _, name := range n.Names {
			l.name(name)
		}
	case *Exec:
		l.expr(n.Body)
		l.expr(n.Globals)
		l.expr(n.Locals)
	case *Print:
		l.expr(n.Dest)
		l.exprs(n.Values)
	case *ExprStmt:
		l.expr(n.Value)
	case *Pass, *Break, *Continue, *BadStmt:
	case *Name, *Constant, *BadExpr:
	case *Attribute:
		l.expr(n.Value)
	case *Subscript:
		l.expr(n.Value)
		l.expr(n.Index)
	case *Slice:
		l.expr(n.Lower)
		l.expr(n.Upper)
		l.expr(n.Step)
	case *Call:
		l.expr(n.Func)
		l.exprs(n.Args)
		l.keywords(n.Keywords)
	case *Keyword:
		l.expr(n.Value)
	case *BinOp:
		l.expr(n.Left)
		l.expr(n.Right)
	case *UnaryOp:
		l.expr(n.Operand)
	case *BoolOp:
		l.exprs(n.Values)
	case *Compare:
		l.expr(n.Left)
		l.exprs(n.Comparators)
	case *IfExp:
		l.expr(n.Body)
		l.expr(n.Test)
		l.expr(n.Else)
	case *Tuple:
		l.exprs(n.Elts)
	case *List:
		l.exprs(n.Elts)
	case *Set:
		l.exprs(n.Elts)
	case *Dict:
		for i := range n.Values {
			if i < len(n.Keys) {
				l.expr(n.Keys[i])
			}
			l.expr(n.Values[i])
		}
	case *Starred:
		l.expr(n.Value)
	case *Lambda:
		l.params(n.Params)
		l.expr(n.Body)
	case *Comprehension:
		l.expr(n.Elt)
		l.expr(n.Value)
		for _, gen := range n.Generators {
			l = append(l, gen)
		}
	case *CompFor:
		l.expr(n.Target)
		l.expr(n.Iter)
		l.exprs(n.Ifs)
	case *NamedExpr:
		l.name(n.Target)
		l.expr(n.Value)
	case *Await:
		l.expr(n.Value)
	case *Yield:
		l.expr(n.Value)
	case *YieldFrom:
		l.expr(n.Value)
	default:
		panic(fmt.Sprintf("ast: unexpected node type %T", n))
	}
	return l
}
