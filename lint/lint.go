// Copyright © 2024 The pyscope authors

// Package lint provides static checks for Python source files built on the
// scope model of package analysis.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives a bound module and reports diagnostics. The framework
// handles parsing, binding, running analyzers, collecting results, and
// formatting output.
//
// Analyzers are composable; embedders can define custom checks alongside
// the built-in set.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
)

// Severity indicates the severity level of a lint diagnostic.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity: %q", str)
	}
	return nil
}

// severityOf maps a front-end or binder severity onto the lint scale.
func severityOf(s diagnostic.Severity) Severity {
	switch s {
	case diagnostic.SeverityError:
		return SeverityError
	case diagnostic.SeverityWarning:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "unused-variable").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// Module is the parsed source file.
	Module *ast.Module

	// Snapshot holds the bound scope model of Module.
	Snapshot *analysis.Snapshot

	// Syntax holds the diagnostics reported while parsing Module.
	Syntax []diagnostic.Diagnostic

	// diagnostics collects reported findings.
	diagnostics []Diagnostic
}

// Report records a diagnostic finding.
func (p *Pass) Report(d Diagnostic) {
	d.Analyzer = p.Analyzer.Name
	if d.Severity == severityUnset {
		d.Severity = p.Analyzer.Severity
	}
	p.diagnostics = append(p.diagnostics, d)
}

// ReportWithNotes records a diagnostic with additional hint text.
func (p *Pass) ReportWithNotes(d Diagnostic, notes ...string) {
	d.Notes = append(d.Notes, notes...)
	p.Report(d)
}

// Reportf is a convenience for reporting a diagnostic covering node.
func (p *Pass) Reportf(node ast.Node, format string, args ...interface{}) {
	d := Diagnostic{
		Message: fmt.Sprintf(format, args...),
	}
	if node != nil {
		d.Pos = p.position(node.Span())
	}
	p.Report(d)
}

func (p *Pass) position(span ast.Span) Position {
	return positionOf(diagnostic.SpanOf(p.Module.File, span.Start, span.End), p.Filename)
}

func positionOf(span diagnostic.Span, filename string) Position {
	pos := Position{
		File:   span.File,
		Line:   span.Line,
		Col:    span.Col,
		EndCol: span.EndCol,
	}
	if filename != "" {
		pos.File = filename
	}
	return pos
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the problem.
	Pos Position `json:"pos" yaml:"pos"`

	// Message is a human-readable description of the problem.
	Message string `json:"message" yaml:"message"`

	// Code is the stable identifier of binder and syntax findings.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// Analyzer is the name of the check that found this problem.
	Analyzer string `json:"analyzer" yaml:"analyzer"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity" yaml:"severity"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// Related points at other sites involved in the problem, such as the
	// earlier use of a name declared global.
	Related []Related `json:"related,omitempty" yaml:"related,omitempty"`
}

// Related is a secondary location of a diagnostic.
type Related struct {
	Pos     Position `json:"pos" yaml:"pos"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Position identifies a location in source code.
type Position struct {
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
	Col    int    `json:"col,omitempty" yaml:"col,omitempty"`
	EndCol int    `json:"end_col,omitempty" yaml:"end_col,omitempty"`
}

// String returns the position in file:line:col format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// String returns the diagnostic in go vet style: file:line: message (analyzer)
// with optional note lines appended.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Analyzer)
	for _, r := range d.Related {
		s += fmt.Sprintf("\n  %s: %s", r.Pos, r.Message)
	}
	for _, n := range d.Notes {
		s += "\n  = note: " + n
	}
	return s
}

// Diagnostic converts d for the annotated snippet renderer.
func (d Diagnostic) Diagnostic() diagnostic.Diagnostic {
	sev := diagnostic.SeverityNote
	switch d.Severity {
	case SeverityError:
		sev = diagnostic.SeverityError
	case SeverityWarning, severityUnset:
		sev = diagnostic.SeverityWarning
	}
	code := d.Code
	if code == "" {
		code = d.Analyzer
	}
	out := diagnostic.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  d.Message,
		Notes:    d.Notes,
	}
	if d.Pos.Line > 0 {
		out.Spans = []diagnostic.Span{spanAt(d.Pos, "")}
		for _, r := range d.Related {
			out.Spans = append(out.Spans, spanAt(r.Pos, r.Message))
		}
	}
	return out
}

func spanAt(pos Position, label string) diagnostic.Span {
	return diagnostic.Span{
		File:   pos.File,
		Line:   pos.Line,
		Col:    pos.Col,
		EndCol: pos.EndCol,
		Label:  label,
	}
}

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer

	// Config is passed to the binder. Its Filename is overridden per file.
	Config analysis.Config
}

// LintFile parses, binds and lints a single source file.
func (l *Linter) LintFile(ctx context.Context, source []byte, filename string) ([]Diagnostic, error) {
	cfg := l.Config
	cfg.Filename = filename
	snap, syntax, err := analysis.AnalyzeFile(ctx, filename, source, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return l.LintSnapshot(snap, syntax)
}

// LintResult lints a file already bound by analysis.BindFiles.
func (l *Linter) LintResult(r analysis.FileResult) ([]Diagnostic, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return l.LintSnapshot(r.Snapshot, r.Syntax)
}

// LintSnapshot runs the analyzers over a bound module.  syntax holds the
// parser's diagnostics for the same module, if any.
func (l *Linter) LintSnapshot(snap *analysis.Snapshot, syntax []diagnostic.Diagnostic) ([]Diagnostic, error) {
	filename := snap.Filename()
	var all []Diagnostic

	for _, analyzer := range l.Analyzers {
		pass := &Pass{
			Analyzer: analyzer,
			Filename: filename,
			Module:   snap.Module(),
			Snapshot: snap,
			Syntax:   syntax,
		}
		if err := analyzer.Run(pass); err != nil {
			return nil, fmt.Errorf("%s: analyzer %s: %w", filename, analyzer.Name, err)
		}
		// Set file on diagnostics that don't have one
		for i := range pass.diagnostics {
			if pass.diagnostics[i].Pos.File == "" {
				pass.diagnostics[i].Pos.File = filename
			}
		}
		all = append(all, pass.diagnostics...)
	}

	all = filterSuppressed(all, snap.Module())

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].Pos, all[j].Pos
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})

	return all, nil
}

// FormatText writes diagnostics in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

// FormatRendered writes diagnostics as annotated source snippets.
func FormatRendered(w io.Writer, r *diagnostic.Renderer, diags []Diagnostic) error {
	out := make([]diagnostic.Diagnostic, len(diags))
	for i, d := range diags {
		out[i] = d.Diagnostic()
	}
	return r.RenderAll(w, out)
}

// DefaultAnalyzers returns the built-in set of lint checks.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerSyntax,
		AnalyzerBinding,
		AnalyzerUndefinedName,
		AnalyzerUnusedVariable,
	}
}

// AllAnalyzers returns every built-in check, including those that are off
// by default.
func AllAnalyzers() []*Analyzer {
	return append(DefaultAnalyzers(), AnalyzerDynamicName, AnalyzerShadowedBuiltin)
}

// AnalyzerDoc returns a listing of the built-in checks, one per line, with
// the first line of each check's documentation.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range AllAnalyzers() {
		summary, _, _ := strings.Cut(a.Doc, "\n")
		fmt.Fprintf(&b, "  %-18s %s\n", a.Name, summary)
	}
	return b.String()
}

// LookupAnalyzer finds a built-in check by name.
func LookupAnalyzer(name string) (*Analyzer, bool) {
	for _, a := range AllAnalyzers() {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
