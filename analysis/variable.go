// Copyright © 2024 The pyscope authors

package analysis

import "github.com/luthersystems/pyscope/ast"

// VarKind classifies how a variable is bound in its scope.
type VarKind int

const (
	VarLocal VarKind = iota
	VarParameter
	VarGlobal
	VarNonlocal
)

func (k VarKind) String() string {
	switch k {
	case VarLocal:
		return "local"
	case VarParameter:
		return "parameter"
	case VarGlobal:
		return "global"
	case VarNonlocal:
		return "nonlocal"
	default:
		return "unknown"
	}
}

// Variable is the unique binding of a name in a scope.  Every Reference to
// the name that resolves to this binding carries its VarID.
type Variable struct {
	ID    VarID
	Name  string
	Scope ScopeID
	Kind  VarKind

	Deleted               bool
	AccessedInNestedScope bool

	// Bound is set when some statement assigns the variable.
	Bound bool
	// Implicit variables are created by the binder itself, such as a class
	// body's __module__ or __class__.
	Implicit bool
	// Inferred module globals were created to resolve a reference to a name
	// that nothing defines.
	Inferred bool

	// Def is the first binding occurrence, nil when there is none.
	Def *ast.Name
	// DeletedAt is the first del statement target naming the variable.
	DeletedAt *ast.Name
}
