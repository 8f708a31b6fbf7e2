// Copyright © 2024 The pyscope authors

// Package report flattens a bound module into plain data that can be
// serialized as JSON, YAML or msgpack, or printed as an indented scope tree.
package report

import (
	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/parser/token"
)

// Schema is incremented whenever the layout of Report changes.
const Schema uint16 = 1

// Report is the serializable form of an analysis.Snapshot.  Ids match the
// snapshot's arena ids; zero means none.
type Report struct {
	Schema      uint16       `json:"schema" yaml:"schema" msgpack:"schema"`
	File        string       `json:"file" yaml:"file" msgpack:"file"`
	Version     string       `json:"version" yaml:"version" msgpack:"version"`
	Scopes      []Scope      `json:"scopes" yaml:"scopes" msgpack:"scopes"`
	References  []Reference  `json:"references" yaml:"references" msgpack:"references"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

// Span is a source range with its resolved start position.
type Span struct {
	Start int `json:"start" yaml:"start" msgpack:"start"`
	End   int `json:"end" yaml:"end" msgpack:"end"`
	Line  int `json:"line" yaml:"line" msgpack:"line"`
	Col   int `json:"col" yaml:"col" msgpack:"col"`
}

// Scope describes one lexical scope.  Free and Cell hold variable names in
// discovery order; Globals names the module globals reached through global
// declarations.
type Scope struct {
	ID        uint32     `json:"id" yaml:"id" msgpack:"id"`
	Kind      string     `json:"kind" yaml:"kind" msgpack:"kind"`
	Name      string     `json:"name" yaml:"name" msgpack:"name"`
	Parent    uint32     `json:"parent,omitempty" yaml:"parent,omitempty" msgpack:"parent,omitempty"`
	Children  []uint32   `json:"children,omitempty" yaml:"children,omitempty" msgpack:"children,omitempty"`
	Span      Span       `json:"span" yaml:"span" msgpack:"span"`
	Flags     []string   `json:"flags,omitempty" yaml:"flags,omitempty" msgpack:"flags,omitempty"`
	Variables []Variable `json:"variables,omitempty" yaml:"variables,omitempty" msgpack:"variables,omitempty"`
	Free      []string   `json:"free,omitempty" yaml:"free,omitempty" msgpack:"free,omitempty"`
	Cell      []string   `json:"cell,omitempty" yaml:"cell,omitempty" msgpack:"cell,omitempty"`
	Globals   []string   `json:"globals,omitempty" yaml:"globals,omitempty" msgpack:"globals,omitempty"`
}

// Variable describes one binding of a name in a scope.
type Variable struct {
	ID    uint32   `json:"id" yaml:"id" msgpack:"id"`
	Name  string   `json:"name" yaml:"name" msgpack:"name"`
	Kind  string   `json:"kind" yaml:"kind" msgpack:"kind"`
	Flags []string `json:"flags,omitempty" yaml:"flags,omitempty" msgpack:"flags,omitempty"`
	Def   *Span    `json:"def,omitempty" yaml:"def,omitempty" msgpack:"def,omitempty"`
}

// Reference describes one occurrence of a name.  Span is nil for
// references the binder synthesized.
type Reference struct {
	ID      uint32 `json:"id" yaml:"id" msgpack:"id"`
	Name    string `json:"name" yaml:"name" msgpack:"name"`
	Scope   uint32 `json:"scope" yaml:"scope" msgpack:"scope"`
	Access  string `json:"access" yaml:"access" msgpack:"access"`
	Span    *Span  `json:"span,omitempty" yaml:"span,omitempty" msgpack:"span,omitempty"`
	Var     uint32 `json:"var,omitempty" yaml:"var,omitempty" msgpack:"var,omitempty"`
	Dynamic bool   `json:"dynamic,omitempty" yaml:"dynamic,omitempty" msgpack:"dynamic,omitempty"`
}

// Diagnostic is a binder finding.  Related lists the secondary sites, such
// as the earlier use of a name declared global.
type Diagnostic struct {
	Severity string   `json:"severity" yaml:"severity" msgpack:"severity"`
	Code     string   `json:"code" yaml:"code" msgpack:"code"`
	Message  string   `json:"message" yaml:"message" msgpack:"message"`
	Span     *Span    `json:"span,omitempty" yaml:"span,omitempty" msgpack:"span,omitempty"`
	Related  []Label  `json:"related,omitempty" yaml:"related,omitempty" msgpack:"related,omitempty"`
	Notes    []string `json:"notes,omitempty" yaml:"notes,omitempty" msgpack:"notes,omitempty"`
}

// Label is a labelled secondary span of a diagnostic.
type Label struct {
	Span Span   `json:"span" yaml:"span" msgpack:"span"`
	Text string `json:"text,omitempty" yaml:"text,omitempty" msgpack:"text,omitempty"`
}

// New flattens snap.
func New(snap *analysis.Snapshot) *Report {
	f := snap.Module().File
	r := &Report{
		Schema:  Schema,
		File:    snap.Filename(),
		Version: snap.Version().String(),
	}
	for _, s := range snap.Scopes() {
		r.Scopes = append(r.Scopes, newScope(snap, f, s))
	}
	for _, ref := range snap.References() {
		rr := Reference{
			ID:      uint32(ref.ID),
			Name:    ref.Name,
			Scope:   uint32(ref.Scope),
			Access:  ref.Access.String(),
			Var:     uint32(ref.Var),
			Dynamic: ref.Dynamic,
		}
		if ref.Node != nil {
			rr.Span = spanPtr(f, ref.Node)
		}
		r.References = append(r.References, rr)
	}
	for _, d := range snap.Diagnostics() {
		rd := Diagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code,
			Message:  d.Message,
			Notes:    d.Notes,
		}
		if len(d.Spans) > 0 {
			rd.Span = fromDiagnosticSpan(d.Spans[0])
			for _, sp := range d.Spans[1:] {
				rd.Related = append(rd.Related, Label{Span: *fromDiagnosticSpan(sp), Text: sp.Label})
			}
		}
		r.Diagnostics = append(r.Diagnostics, rd)
	}
	return r
}

func newScope(snap *analysis.Snapshot, f *token.File, s *analysis.Scope) Scope {
	rs := Scope{
		ID:     uint32(s.ID),
		Kind:   s.Kind.String(),
		Name:   s.Name,
		Parent: uint32(s.Parent),
		Span:   spanOf(f, s.Node.Span()),
		Flags:  scopeFlags(s),
	}
	for _, c := range s.Children {
		rs.Children = append(rs.Children, uint32(c))
	}
	for _, v := range snap.Names(s.ID) {
		rv := Variable{
			ID:    uint32(v.ID),
			Name:  v.Name,
			Kind:  v.Kind.String(),
			Flags: varFlags(v),
		}
		if v.Def != nil {
			rv.Def = spanPtr(f, v.Def)
		}
		rs.Variables = append(rs.Variables, rv)
	}
	rs.Free = varNames(snap.FreeVars(s.ID))
	rs.Cell = varNames(snap.CellVars(s.ID))
	for _, id := range s.ReferencedGlobals {
		if v := snap.Variable(id); v != nil {
			rs.Globals = append(rs.Globals, v.Name)
		}
	}
	return rs
}

func scopeFlags(s *analysis.Scope) []string {
	var flags []string
	add := func(set bool, name string) {
		if set {
			flags = append(flags, name)
		}
	}
	add(s.ContainsImportStar, "import-star")
	add(s.ContainsUnqualifiedDynamicEval, "dynamic-eval")
	add(s.NeedsDynamicLocals, "dynamic-locals")
	add(s.HasLateBoundAssignment, "late-bound")
	add(s.ContainsNestedFreeVariables, "nested-free")
	add(s.IsClosure(), "closure")
	return flags
}

func varFlags(v *analysis.Variable) []string {
	var flags []string
	add := func(set bool, name string) {
		if set {
			flags = append(flags, name)
		}
	}
	add(v.Bound, "bound")
	add(v.Deleted, "deleted")
	add(v.AccessedInNestedScope, "nested")
	add(v.Implicit, "implicit")
	add(v.Inferred, "inferred")
	return flags
}

func varNames(vars []*analysis.Variable) []string {
	var names []string
	for _, v := range vars {
		names = append(names, v.Name)
	}
	return names
}

func spanOf(f *token.File, s ast.Span) Span {
	loc := f.Location(s.Start)
	return Span{Start: s.Start, End: s.End, Line: loc.Line, Col: loc.Col}
}

func spanPtr(f *token.File, n ast.Node) *Span {
	s := spanOf(f, n.Span())
	return &s
}

func fromDiagnosticSpan(s diagnostic.Span) *Span {
	return &Span{Start: s.Start, End: s.End, Line: s.Line, Col: s.Col}
}
