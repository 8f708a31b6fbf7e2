// Copyright © 2024 The pyscope authors

package analysis

import "github.com/luthersystems/pyscope/ast"

// Access describes what an occurrence of a name does.
type Access uint8

const (
	AccessRead    Access = 1 << iota // value is loaded
	AccessWrite                      // name is bound
	AccessDelete                     // name is deleted
	AccessDeclare                    // global or nonlocal declaration
)

// Has reports whether all bits of flag are set.
func (a Access) Has(flag Access) bool {
	return a&flag == flag
}

func (a Access) String() string {
	var s string
	add := func(f Access, name string) {
		if a.Has(f) {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	add(AccessRead, "read")
	add(AccessWrite, "write")
	add(AccessDelete, "delete")
	add(AccessDeclare, "declare")
	if s == "" {
		return "none"
	}
	return s
}

// Reference is a name usage site.  After resolution it either carries the
// Variable it denotes or is marked Dynamic, meaning the name can only be
// looked up at run time.
type Reference struct {
	ID     RefID
	Name   string
	Node   *ast.Name // nil for implicit references
	Scope  ScopeID   // scope the occurrence appears in
	Access Access

	Var     VarID
	Dynamic bool
}

// Implicit reports whether the reference was synthesized by the binder, as
// for the __class__ cell used by zero-argument super().
func (r *Reference) Implicit() bool {
	return r.Node == nil
}

// Span returns the source span of the occurrence, or the zero span for
// implicit references.
func (r *Reference) Span() ast.Span {
	if r.Node == nil {
		return ast.Span{}
	}
	return r.Node.Span()
}
