// Copyright © 2024 The pyscope authors

package analysis

import "github.com/luthersystems/pyscope/diagnostic"

func (b *Binder) finishScope(s *Scope) {
	st := b.state[s.ID]
	for _, n := range st.nonlocals {
		if !b.nonlocalBound(s, n.ID) {
			b.errorf(CodeNonlocalUnbound, n, "no binding for nonlocal '%s' found", n.ID)
		}
	}
	for _, id := range s.Children {
		if b.scope(id).IsClosure() {
			s.ContainsNestedFreeVariables = true
			break
		}
	}
	if s.Kind == ScopeFunction || s.Kind == ScopeLambda {
		b.checkDynamicScope(s, st)
	}
	if s.Kind != ScopeModule && !b.cfg.Version.SafeClosureDelete() {
		for _, id := range s.Vars {
			v := b.variable(id)
			if v.Deleted && (v.AccessedInNestedScope || v.Kind == VarNonlocal) {
				var others []diagnostic.Span
				if r := b.nestedUse(s, v); r != nil {
					others = append(others, b.label(r.Node, "captured here"))
				}
				b.related(diagnostic.SeverityError, CodeDeleteCell, v.DeletedAt, others,
					"can not delete variable '%s' referenced in nested scope", v.Name)
			}
		}
	}
}

// nestedUse returns the first reference to v from a scope nested in s.
func (b *Binder) nestedUse(s *Scope, v *Variable) *Reference {
	for _, r := range b.refs {
		if r != nil && r.Var == v.ID && r.Scope != s.ID && r.Node != nil {
			return r
		}
	}
	return nil
}

// nonlocalBound reports whether a function-like scope enclosing s binds
// name.  Neither the module nor class bodies can satisfy a nonlocal
// declaration.
func (b *Binder) nonlocalBound(s *Scope, name string) bool {
	for id := s.Parent; id.IsValid(); {
		a := b.scope(id)
		if a.Kind.functionLike() {
			if v := b.lookup(a, name); v != nil && v.Kind != VarGlobal {
				return true
			}
		}
		id = a.Parent
	}
	return false
}

func (b *Binder) checkDynamicScope(s *Scope, st *scopeState) {
	if st.importStar != nil {
		if s.IsClosure() {
			b.errorf(CodeImportStarClosure, st.importStar,
				"import * is not allowed in function '%s' because it is a nested function", s.Name)
		}
		if s.ContainsNestedFreeVariables {
			b.errorf(CodeImportStarNestedFree, st.importStar,
				"import * is not allowed in function '%s' because it contains a nested function with free variables", s.Name)
		}
	}
	if st.dynamicEval != nil {
		if s.IsClosure() {
			b.errorf(CodeExecClosure, st.dynamicEval,
				"unqualified exec is not allowed in function '%s' because it is a nested function", s.Name)
		}
		if s.ContainsNestedFreeVariables {
			b.errorf(CodeExecNestedFree, st.dynamicEval,
				"unqualified exec is not allowed in function '%s' because it contains a nested function with free variables", s.Name)
		}
	}
}
