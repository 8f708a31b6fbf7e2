// Copyright © 2024 The pyscope authors

package lint

import (
	"fmt"
	"strings"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
)

// AnalyzerSyntax reports the errors and warnings found while parsing.
var AnalyzerSyntax = &Analyzer{
	Name:     "syntax",
	Doc:      "Report syntax errors.\n\nThe parser recovers from errors so that later checks still see most of the file; every recovered error is reported here.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		for _, d := range pass.Syntax {
			pass.Report(fromDiagnostic(d, pass.Filename))
		}
		return nil
	},
}

// AnalyzerBinding reports the compile-time errors found while binding
// names to scopes, such as a nonlocal declaration with no binding or a
// name used before its global declaration.
var AnalyzerBinding = &Analyzer{
	Name:     "binding",
	Doc:      "Report name binding errors.\n\nThese are the errors the interpreter raises at compile time: misplaced global and nonlocal declarations, import * and exec in closures, deleting a cell variable, and invalid assignment expressions.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		for _, d := range pass.Snapshot.Diagnostics() {
			pass.Report(fromDiagnostic(d, pass.Filename))
		}
		return nil
	},
}

func fromDiagnostic(d diagnostic.Diagnostic, filename string) Diagnostic {
	out := Diagnostic{
		Message:  d.Message,
		Code:     d.Code,
		Severity: severityOf(d.Severity),
		Notes:    d.Notes,
	}
	if len(d.Spans) > 0 {
		out.Pos = positionOf(d.Spans[0], filename)
		for _, sp := range d.Spans[1:] {
			out.Related = append(out.Related, Related{Pos: positionOf(sp, filename), Message: sp.Label})
		}
	}
	return out
}

// AnalyzerUndefinedName reports reads of module globals that nothing in
// the module binds and that are not builtins.
var AnalyzerUndefinedName = &Analyzer{
	Name:     "undefined-name",
	Doc:      "Report names that are never defined.\n\nA read that resolves to a module global is undefined when no statement in the module binds the name and it is not a builtin of the target version. Modules that bind names at run time (from m import *) are skipped.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		snap := pass.Snapshot
		root := snap.Root()
		if root.IsLateBound() || root.ContainsImportStar {
			return nil
		}
		for _, ref := range snap.References() {
			if ref.Node == nil || ref.Dynamic || !ref.Access.Has(analysis.AccessRead) {
				continue
			}
			v := snap.Variable(ref.Var)
			if v == nil || v.Scope != root.ID || v.Bound || v.Implicit {
				continue
			}
			if analysis.IsBuiltin(v.Name, snap.Version()) {
				continue
			}
			d := Diagnostic{
				Message: fmt.Sprintf("undefined name '%s'", v.Name),
				Pos:     pass.position(ref.Node.Span()),
			}
			if v.DeletedAt != nil && !v.Inferred {
				pass.ReportWithNotes(d, "the name is only ever deleted at module level")
				continue
			}
			pass.Report(d)
		}
		return nil
	},
}

// AnalyzerUnusedVariable reports function locals that are bound but never
// read.
var AnalyzerUnusedVariable = &Analyzer{
	Name:     "unused-variable",
	Doc:      "Report local variables that are assigned to but never used.\n\nOnly function scopes are checked. Names starting with an underscore, parameters, and variables read by nested functions are ignored, as are scopes that call locals(), exec or eval.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		snap := pass.Snapshot
		defs := definitionNames(snap)
		for _, s := range snap.Scopes() {
			if s.Kind != analysis.ScopeFunction || s.IsLateBound() || s.ContainsUnqualifiedDynamicEval {
				continue
			}
			for _, v := range snap.Names(s.ID) {
				if defs[v.Def] || !unusedLocal(snap, v) {
					continue
				}
				pass.Reportf(v.Def, "local variable '%s' is assigned to but never used", v.Name)
			}
		}
		return nil
	},
}

// definitionNames returns the name nodes of every def and class statement.
// Unused nested definitions are not reported.
func definitionNames(snap *analysis.Snapshot) map[*ast.Name]bool {
	defs := make(map[*ast.Name]bool)
	for _, s := range snap.Scopes() {
		switch n := s.Node.(type) {
		case *ast.FunctionDef:
			defs[n.Name] = true
		case *ast.ClassDef:
			defs[n.Name] = true
		}
	}
	return defs
}

func unusedLocal(snap *analysis.Snapshot, v *analysis.Variable) bool {
	if v.Kind != analysis.VarLocal || !v.Bound || v.Implicit || v.Def == nil {
		return false
	}
	if strings.HasPrefix(v.Name, "_") || v.AccessedInNestedScope {
		return false
	}
	for _, ref := range snap.ReferencesTo(v.ID) {
		if ref.Access.Has(analysis.AccessRead) {
			return false
		}
	}
	return true
}

// AnalyzerDynamicName reports references that can only be resolved at run
// time.  It is off by default.
var AnalyzerDynamicName = &Analyzer{
	Name:     "dynamic-name",
	Doc:      "Report names resolved at run time.\n\nA free name in a scope that may receive bindings at run time, through import * or an exec statement, cannot be bound statically.",
	Severity: SeverityInfo,
	Run: func(pass *Pass) error {
		snap := pass.Snapshot
		for _, ref := range snap.References() {
			if !ref.Dynamic || ref.Node == nil {
				continue
			}
			d := Diagnostic{
				Message: fmt.Sprintf("name '%s' can only be resolved at run time", ref.Name),
				Pos:     pass.position(ref.Node.Span()),
			}
			if note := lateBoundReason(snap, ref.Scope); note != "" {
				pass.ReportWithNotes(d, note)
				continue
			}
			pass.Report(d)
		}
		return nil
	},
}

// lateBoundReason names the innermost scope, starting at id, that makes a
// reference dynamic.
func lateBoundReason(snap *analysis.Snapshot, id analysis.ScopeID) string {
	for s := snap.Scope(id); s != nil; s = snap.Scope(s.Parent) {
		switch {
		case s.ContainsImportStar:
			return fmt.Sprintf("%s '%s' contains 'from ... import *'", s.Kind, s.Name)
		case s.ContainsUnqualifiedDynamicEval:
			return fmt.Sprintf("%s '%s' contains an unqualified exec", s.Kind, s.Name)
		case s.IsLateBound():
			return fmt.Sprintf("%s '%s' binds names at run time", s.Kind, s.Name)
		}
	}
	return ""
}

// AnalyzerShadowedBuiltin reports bindings that hide a builtin of the
// target version.  It is off by default.
var AnalyzerShadowedBuiltin = &Analyzer{
	Name:     "shadowed-builtin",
	Doc:      "Report bindings that shadow a builtin.\n\nModule dunder names such as __name__ and __doc__ are ignored.",
	Severity: SeverityInfo,
	Run: func(pass *Pass) error {
		snap := pass.Snapshot
		for _, v := range snap.Variables() {
			if v.Def == nil || v.Implicit || !v.Bound || v.Kind == analysis.VarNonlocal {
				continue
			}
			// global declarations are reported at the module variable
			if v.Kind == analysis.VarGlobal && v.Scope != snap.Root().ID {
				continue
			}
			if strings.HasPrefix(v.Name, "__") && strings.HasSuffix(v.Name, "__") {
				continue
			}
			if !analysis.IsBuiltin(v.Name, snap.Version()) {
				continue
			}
			pass.Reportf(v.Def, "'%s' shadows a builtin", v.Name)
		}
		return nil
	},
}
