// Copyright © 2024 The pyscope authors

package analysis

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/luthersystems/pyscope/ast"
)

// arena owns every scope, variable and reference created while binding a
// module.  Slot 0 of each table is reserved so that the zero ID means
// "none".
type arena struct {
	scopes []*Scope
	vars   []*Variable
	refs   []*Reference
}

func newArena() *arena {
	return &arena{
		scopes: make([]*Scope, 1, 16),
		vars:   make([]*Variable, 1, 64),
		refs:   make([]*Reference, 1, 256),
	}
}

func (a *arena) newScope(kind ScopeKind, parent ScopeID, node ast.ScopeNode) *Scope {
	n, err := safecast.Conv[uint32](len(a.scopes))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	s := &Scope{
		ID:     ScopeID(n),
		Kind:   kind,
		Name:   scopeName(node),
		Parent: parent,
		Node:   node,
		names:  make(map[string]VarID),
	}
	a.scopes = append(a.scopes, s)
	if p := a.scope(parent); p != nil {
		p.Children = append(p.Children, s.ID)
	}
	return s
}

func (a *arena) newVar(scope *Scope, name string, kind VarKind) *Variable {
	n, err := safecast.Conv[uint32](len(a.vars))
	if err != nil {
		panic(fmt.Errorf("variables arena overflow: %w", err))
	}
	v := &Variable{
		ID:    VarID(n),
		Name:  name,
		Scope: scope.ID,
		Kind:  kind,
	}
	a.vars = append(a.vars, v)
	scope.names[name] = v.ID
	scope.Vars = append(scope.Vars, v.ID)
	return v
}

func (a *arena) newRef(scope ScopeID, name string, node *ast.Name, access Access) *Reference {
	n, err := safecast.Conv[uint32](len(a.refs))
	if err != nil {
		panic(fmt.Errorf("references arena overflow: %w", err))
	}
	r := &Reference{
		ID:     RefID(n),
		Name:   name,
		Node:   node,
		Scope:  scope,
		Access: access,
	}
	a.refs = append(a.refs, r)
	return r
}

func (a *arena) scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(a.scopes) {
		return nil
	}
	return a.scopes[id]
}

func (a *arena) variable(id VarID) *Variable {
	if !id.IsValid() || int(id) >= len(a.vars) {
		return nil
	}
	return a.vars[id]
}

func (a *arena) reference(id RefID) *Reference {
	if !id.IsValid() || int(id) >= len(a.refs) {
		return nil
	}
	return a.refs[id]
}

// lookup returns the variable name owned by scope s.
func (a *arena) lookup(s *Scope, name string) *Variable {
	id, ok := s.names[name]
	if !ok {
		return nil
	}
	return a.vars[id]
}
