// Copyright © 2024 The pyscope authors

package analysis

// Diagnostic codes reported by the binder.
const (
	CodeGlobalAfterAssign    = "global-after-assign"
	CodeGlobalAfterUse       = "global-after-use"
	CodeGlobalParam          = "global-param"
	CodeNonlocalAfterAssign  = "nonlocal-after-assign"
	CodeNonlocalAfterUse     = "nonlocal-after-use"
	CodeNonlocalParam        = "nonlocal-param"
	CodeNonlocalGlobal       = "nonlocal-global"
	CodeNonlocalModule       = "nonlocal-module"
	CodeNonlocalUnbound      = "nonlocal-unbound"
	CodeNonlocalUnsupported  = "nonlocal-unsupported"
	CodeImportStarClosure    = "import-star-closure"
	CodeImportStarNestedFree = "import-star-nested-free"
	CodeExecClosure          = "exec-closure"
	CodeExecNestedFree       = "exec-nested-free"
	CodeDeleteCell           = "delete-cell"
	CodeNamedExprIterVar     = "named-expr-iter-var"
	CodeNamedExprClass       = "named-expr-class"
	CodeNamedExprIterable    = "named-expr-iterable"
)

// Codes lists every binder diagnostic code.
var Codes = []string{
	CodeGlobalAfterAssign,
	CodeGlobalAfterUse,
	CodeGlobalParam,
	CodeNonlocalAfterAssign,
	CodeNonlocalAfterUse,
	CodeNonlocalParam,
	CodeNonlocalGlobal,
	CodeNonlocalModule,
	CodeNonlocalUnbound,
	CodeNonlocalUnsupported,
	CodeImportStarClosure,
	CodeImportStarNestedFree,
	CodeExecClosure,
	CodeExecNestedFree,
	CodeDeleteCell,
	CodeNamedExprIterVar,
	CodeNamedExprClass,
	CodeNamedExprIterable,
}
