// Copyright © 2024 The pyscope authors

package analysis

import (
	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/version"
)

// Snapshot is the immutable result of binding a module.  It may be shared
// by any number of goroutines.  Scopes, variables and references returned
// by its methods belong to the snapshot and must not be modified.
type Snapshot struct {
	module     *ast.Module
	cfg        Config
	generation uint64

	scopes []*Scope
	vars   []*Variable
	refs   []*Reference

	scopeByNode map[ast.ScopeNode]ScopeID
	enclosing   map[ast.Node]ScopeID
	refByName   map[*ast.Name]RefID
	refsByVar   map[VarID][]RefID

	diags []diagnostic.Diagnostic
}

func newSnapshot(b *Binder) *Snapshot {
	s := &Snapshot{
		module:      b.mod,
		cfg:         b.cfg,
		scopes:      b.scopes,
		vars:        b.vars,
		refs:        b.refs,
		scopeByNode: b.scopeByNode,
		enclosing:   b.enclosing,
		refByName:   b.refByName,
		refsByVar:   make(map[VarID][]RefID),
		diags:       b.sink.Items(),
	}
	for _, r := range b.refs[1:] {
		if r.Var.IsValid() {
			s.refsByVar[r.Var] = append(s.refsByVar[r.Var], r.ID)
		}
	}
	return s
}

// Module returns the bound syntax tree.
func (s *Snapshot) Module() *ast.Module { return s.module }

// Version returns the language version the module was bound against.
func (s *Snapshot) Version() version.Version { return s.cfg.Version }

// Filename returns the name diagnostics are reported against.
func (s *Snapshot) Filename() string {
	if s.cfg.Filename != "" {
		return s.cfg.Filename
	}
	return s.module.File.Name
}

// Generation counts the rebinds of the Store that published the snapshot.
// It is zero for snapshots made by Bind directly.
func (s *Snapshot) Generation() uint64 { return s.generation }

// Root returns the module scope.
func (s *Snapshot) Root() *Scope { return s.Scope(1) }

// Scope returns the scope with the given id, or nil.
func (s *Snapshot) Scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.scopes) {
		return nil
	}
	return s.scopes[id]
}

// Variable returns the variable with the given id, or nil.
func (s *Snapshot) Variable(id VarID) *Variable {
	if !id.IsValid() || int(id) >= len(s.vars) {
		return nil
	}
	return s.vars[id]
}

// Reference returns the reference with the given id, or nil.
func (s *Snapshot) Reference(id RefID) *Reference {
	if !id.IsValid() || int(id) >= len(s.refs) {
		return nil
	}
	return s.refs[id]
}

// Scopes returns every scope in creation order, which is a pre-order walk
// of the scope tree.
func (s *Snapshot) Scopes() []*Scope {
	return append([]*Scope(nil), s.scopes[1:]...)
}

// Variables returns every variable in creation order.
func (s *Snapshot) Variables() []*Variable {
	return append([]*Variable(nil), s.vars[1:]...)
}

// References returns every reference in the order it was recorded.
func (s *Snapshot) References() []*Reference {
	return append([]*Reference(nil), s.refs[1:]...)
}

// ScopeOf returns the scope introduced by node.  It is nil for nodes that
// do not introduce one, including list comprehensions before 3.0.
func (s *Snapshot) ScopeOf(node ast.ScopeNode) *Scope {
	return s.Scope(s.scopeByNode[node])
}

// EnclosingScope returns the scope node appears in.  For a definition that
// is the scope containing it, not the scope it introduces.
func (s *Snapshot) EnclosingScope(node ast.Node) *Scope {
	return s.Scope(s.enclosing[node])
}

// ReferenceFor returns the reference recorded for a name occurrence.
func (s *Snapshot) ReferenceFor(name *ast.Name) *Reference {
	return s.Reference(s.refByName[name])
}

// Resolve returns the variable a name occurrence denotes.  It returns nil
// for dynamic references and for names outside the module.
func (s *Snapshot) Resolve(name *ast.Name) *Variable {
	r := s.ReferenceFor(name)
	if r == nil {
		return nil
	}
	return s.Variable(r.Var)
}

// Lookup returns the variable scope owns for name, or nil.
func (s *Snapshot) Lookup(scope ScopeID, name string) *Variable {
	sc := s.Scope(scope)
	if sc == nil {
		return nil
	}
	id, ok := sc.Var(name)
	if !ok {
		return nil
	}
	return s.Variable(id)
}

// ReferencesTo returns every reference bound to the variable, in source
// order of recording.
func (s *Snapshot) ReferencesTo(id VarID) []*Reference {
	ids := s.refsByVar[id]
	refs := make([]*Reference, len(ids))
	for i, rid := range ids {
		refs[i] = s.refs[rid]
	}
	return refs
}

// Names returns the variables of scope, in definition order.
func (s *Snapshot) Names(scope ScopeID) []*Variable {
	sc := s.Scope(scope)
	if sc == nil {
		return nil
	}
	return s.varList(sc.Vars)
}

// FreeVars returns the free variables of scope.
func (s *Snapshot) FreeVars(scope ScopeID) []*Variable {
	if sc := s.Scope(scope); sc != nil {
		return s.varList(sc.FreeVars)
	}
	return nil
}

// CellVars returns the cell variables of scope.
func (s *Snapshot) CellVars(scope ScopeID) []*Variable {
	if sc := s.Scope(scope); sc != nil {
		return s.varList(sc.CellVars)
	}
	return nil
}

func (s *Snapshot) varList(ids []VarID) []*Variable {
	vars := make([]*Variable, len(ids))
	for i, id := range ids {
		vars[i] = s.vars[id]
	}
	return vars
}

// ScopeAt returns the innermost scope whose code spans offset.  Offsets
// outside every nested scope fall in the module scope.  Decorators,
// defaults, annotations, class bases and the outermost iterable of a
// comprehension belong to the enclosing scope even though they lie inside
// the node introducing the nested one.
func (s *Snapshot) ScopeAt(offset int) *Scope {
	cur := s.Root()
	for cur != nil {
		var next *Scope
		for _, id := range cur.Children {
			c := s.scopes[id]
			if c.Node.Span().Contains(offset) && !evaluatedOutside(c.Node, offset) {
				next = c
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
	return nil
}

// evaluatedOutside reports whether offset lies in a part of node that is
// evaluated in the scope containing node.
func evaluatedOutside(node ast.ScopeNode, offset int) bool {
	var outer []ast.Node
	addExpr := func(e ast.Expr) {
		if e != nil {
			outer = append(outer, e)
		}
	}
	addParams := func(params []*ast.Param) {
		for _, p := range params {
			addExpr(p.Annotation)
			addExpr(p.Default)
		}
	}
	switch n := node.(type) {
	case *ast.FunctionDef:
		for _, d := range n.Decorators {
			addExpr(d)
		}
		addParams(n.Params)
		addExpr(n.Returns)
	case *ast.ClassDef:
		for _, d := range n.Decorators {
			addExpr(d)
		}
		for _, b := range n.Bases {
			addExpr(b)
		}
		for _, kw := range n.Keywords {
			addExpr(kw.Value)
		}
	case *ast.Lambda:
		addParams(n.Params)
	case *ast.Comprehension:
		if len(n.Generators) > 0 {
			addExpr(n.Generators[0].Iter)
		}
	}
	for _, o := range outer {
		if o.Span().Contains(offset) {
			return true
		}
	}
	return false
}

// Visible returns the variables visible by name from scope, innermost
// first.  Class bodies enclosing scope are skipped the way resolution
// skips them.
func (s *Snapshot) Visible(scope ScopeID) []*Variable {
	var vars []*Variable
	seen := make(map[string]bool)
	for sc := s.Scope(scope); sc != nil; sc = s.Scope(sc.Parent) {
		if sc.Kind == ScopeClass && sc.ID != scope {
			continue
		}
		for _, id := range sc.Vars {
			v := s.vars[id]
			if seen[v.Name] || v.Inferred || v.Kind == VarNonlocal {
				continue
			}
			seen[v.Name] = true
			vars = append(vars, v)
		}
	}
	return vars
}

// Diagnostics returns the binder's findings in the order they were found.
func (s *Snapshot) Diagnostics() []diagnostic.Diagnostic {
	return append([]diagnostic.Diagnostic(nil), s.diags...)
}

// HasErrors reports whether any diagnostic is an error.
func (s *Snapshot) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == diagnostic.SeverityError {
			return true
		}
	}
	return false
}
