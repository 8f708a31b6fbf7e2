// Copyright © 2024 The pyscope authors

package analysis

// ScopeID identifies a scope in a binding arena.
type ScopeID uint32

// NoScope marks the absence of a scope.
const NoScope ScopeID = 0

// IsValid reports whether id refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScope }

// VarID identifies a variable in a binding arena.
type VarID uint32

// NoVar marks the absence of a variable, e.g. for dynamic references.
const NoVar VarID = 0

// IsValid reports whether id refers to an allocated variable.
func (id VarID) IsValid() bool { return id != NoVar }

// RefID identifies a reference in a binding arena.
type RefID uint32

// NoRef marks the absence of a reference.
const NoRef RefID = 0

// IsValid reports whether id refers to an allocated reference.
func (id RefID) IsValid() bool { return id != NoRef }
