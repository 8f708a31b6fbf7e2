// Copyright © 2024 The pyscope authors

// Package diagnostic holds the warnings and errors produced while parsing and
// binding a module, and renders them as Rust-style annotated snippets for
// the CLI.  It is independent of the analysis package so that the parser,
// the binder and every command can share it without import cycles.
package diagnostic

import (
	"fmt"

	"github.com/luthersystems/pyscope/parser/token"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Span identifies a region of source code to highlight in the diagnostic.
// Start and End are byte offsets; Line, Col and EndCol are derived from them
// for display.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Start  int    // byte offset of the first highlighted byte
	End    int    // byte offset just past the highlighted region
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = auto-detect from source)
	Label  string // text shown under the underline
}

// SpanOf resolves the byte range [start, end) in f.  When the range crosses
// a line boundary only the first line is underlined.
func SpanOf(f *token.File, start, end int) Span {
	loc := f.Location(start)
	span := Span{
		File:  f.Name,
		Start: start,
		End:   end,
		Line:  loc.Line,
		Col:   loc.Col,
	}
	if end > start {
		endLoc := f.Location(end - 1)
		if endLoc.Line == loc.Line {
			span.EndCol = endLoc.Col
		}
	}
	return span
}

// String formats the span as file:line:col.
func (s Span) String() string {
	loc := token.Location{File: s.File, Pos: s.Start, Line: s.Line, Col: s.Col}
	return loc.String()
}

// Diagnostic represents a single error, warning, or note with optional
// source annotations and trailing notes.  Code is a stable identifier for
// the kind of finding.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Spans    []Span
	Notes    []string
}

func (d Diagnostic) String() string {
	if len(d.Spans) == 0 {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Spans[0], d.Severity, d.Message)
}
