// Copyright © 2024 The pyscope authors

package analysis

// resolveRef binds r to the variable it denotes.  A name defined in the
// referencing scope binds there; otherwise the nearest enclosing scope that
// offers the name wins and the variable is captured through every scope in
// between.  Class bodies offer nothing but their __class__ cell.  Names no
// scope defines become module globals unless a scope on the way out may
// gain names at run time, in which case the reference stays dynamic.
func (b *Binder) resolveRef(r *Reference) {
	s := b.scope(r.Scope)
	if v := b.lookup(s, r.Name); v != nil {
		switch {
		case v.Kind == VarGlobal && s.Kind != ScopeModule:
			b.bindGlobal(r, s)
			return
		case v.Kind != VarNonlocal:
			r.Var = v.ID
			return
		}
	}
	for id := s.Parent; id.IsValid(); {
		a := b.scope(id)
		v := b.lookup(a, r.Name)
		switch {
		case v == nil:
		case a.Kind == ScopeModule:
			if !v.Inferred {
				r.Var = v.ID
				return
			}
		case a.Kind == ScopeClass:
			if v.Implicit && r.Name == "__class__" {
				b.capture(v, s, a)
				r.Var = v.ID
				return
			}
		case v.Kind == VarGlobal:
			b.bindGlobal(r, s)
			return
		case v.Kind == VarNonlocal:
		default:
			b.capture(v, s, a)
			r.Var = v.ID
			return
		}
		id = a.Parent
	}
	if b.lateBound(s) {
		r.Dynamic = true
		return
	}
	g := b.lookup(b.root(), r.Name)
	if g == nil {
		g = b.moduleVar(r.Name)
		g.Inferred = true
	}
	r.Var = g.ID
}

func (b *Binder) bindGlobal(r *Reference, s *Scope) {
	g := b.moduleVar(r.Name)
	r.Var = g.ID
	if st := b.state[s.ID]; !st.globals[g.ID] {
		st.globals[g.ID] = true
		s.ReferencedGlobals = append(s.ReferencedGlobals, g.ID)
	}
}

// capture marks v, owned by owner, as used from the nested scope from.
func (b *Binder) capture(v *Variable, from, owner *Scope) {
	v.AccessedInNestedScope = true
	if st := b.state[owner.ID]; !st.cell[v.ID] {
		st.cell[v.ID] = true
		owner.CellVars = append(owner.CellVars, v.ID)
	}
	for cur := from; cur.ID != owner.ID; cur = b.scope(cur.Parent) {
		if st := b.state[cur.ID]; !st.free[v.ID] {
			st.free[v.ID] = true
			cur.FreeVars = append(cur.FreeVars, v.ID)
		}
	}
}

// lateBound reports whether s or any scope enclosing it may gain names at
// run time.
func (b *Binder) lateBound(s *Scope) bool {
	for ; s != nil; s = b.scope(s.Parent) {
		if s.IsLateBound() {
			return true
		}
	}
	return false
}
