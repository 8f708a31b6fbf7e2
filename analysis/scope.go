// Copyright © 2024 The pyscope authors

package analysis

import "github.com/luthersystems/pyscope/ast"

// ScopeKind classifies the kind of scope.
type ScopeKind int

const (
	ScopeModule        ScopeKind = iota // file level
	ScopeFunction                       // def body
	ScopeClass                          // class body
	ScopeLambda                         // lambda body
	ScopeComprehension                  // comprehension or generator expression
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	case ScopeLambda:
		return "lambda"
	case ScopeComprehension:
		return "comprehension"
	default:
		return "unknown"
	}
}

// functionLike reports whether scopes of kind k offer their locals to
// nested scopes.
func (k ScopeKind) functionLike() bool {
	return k == ScopeFunction || k == ScopeLambda || k == ScopeComprehension
}

// Scope is a lexical scope.  Scopes reached through a Snapshot are shared
// between readers and must not be modified.
type Scope struct {
	ID       ScopeID
	Kind     ScopeKind
	Name     string
	Parent   ScopeID
	Children []ScopeID
	Node     ast.ScopeNode

	// Vars lists the scope's own variables in definition order.
	Vars []VarID
	// FreeVars lists variables owned by strict ancestors and used here or in
	// a descendant, in discovery order.
	FreeVars []VarID
	// CellVars lists own variables captured by a descendant scope.
	CellVars []VarID
	// ReferencedGlobals lists module globals this scope refers to through a
	// global declaration.
	ReferencedGlobals []VarID

	ContainsImportStar             bool
	ContainsUnqualifiedDynamicEval bool
	NeedsDynamicLocals             bool
	HasLateBoundAssignment         bool
	ContainsNestedFreeVariables    bool

	names map[string]VarID
}

// IsClosure reports whether the scope refers to variables of an enclosing
// scope.
func (s *Scope) IsClosure() bool {
	return len(s.FreeVars) > 0
}

// Var returns the scope's own variable named name.
func (s *Scope) Var(name string) (VarID, bool) {
	id, ok := s.names[name]
	return id, ok
}

// IsLateBound reports whether names may be introduced into the scope at
// run time.
func (s *Scope) IsLateBound() bool {
	return s.NeedsDynamicLocals || s.HasLateBoundAssignment
}

func scopeName(n ast.ScopeNode) string {
	switch n := n.(type) {
	case *ast.Module:
		return "<module>"
	case *ast.FunctionDef:
		return n.Name.ID
	case *ast.ClassDef:
		return n.Name.ID
	case *ast.Lambda:
		return "<lambda>"
	case *ast.Comprehension:
		switch n.Kind {
		case ast.ListComp:
			return "<listcomp>"
		case ast.SetComp:
			return "<setcomp>"
		case ast.DictComp:
			return "<dictcomp>"
		default:
			return "<genexpr>"
		}
	}
	return ""
}
