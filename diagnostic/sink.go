// Copyright © 2024 The pyscope authors

package diagnostic

import "fmt"

// Sink is an append-only collector of diagnostics.  Entries keep the order
// in which they were reported.  The zero value is ready to use and a nil
// *Sink discards everything.
type Sink struct {
	items  []Diagnostic
	errors int
}

// Add appends d.
func (s *Sink) Add(d Diagnostic) {
	if s == nil {
		return
	}
	if d.Severity == SeverityError {
		s.errors++
	}
	s.items = append(s.items, d)
}

// Errorf reports an error at span.
func (s *Sink) Errorf(code string, span Span, format string, v ...interface{}) {
	s.Add(Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, v...),
		Spans:    []Span{span},
	})
}

// Warnf reports a warning at span.
func (s *Sink) Warnf(code string, span Span, format string, v ...interface{}) {
	s.Add(Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, v...),
		Spans:    []Span{span},
	})
}

// Items returns a copy of the collected diagnostics.
func (s *Sink) Items() []Diagnostic {
	if s == nil {
		return nil
	}
	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of collected diagnostics.
func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// HasErrors reports whether an error has been collected.
func (s *Sink) HasErrors() bool {
	return s != nil && s.errors > 0
}
