// Copyright © 2024 The pyscope authors

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteText prints the scope tree of r, one scope per block, nested by
// indentation.
func WriteText(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	byID := make(map[uint32]*Scope, len(r.Scopes))
	for i := range r.Scopes {
		byID[r.Scopes[i].ID] = &r.Scopes[i]
	}
	fmt.Fprintf(bw, "# %s (python %s)\n", r.File, r.Version) //nolint:errcheck // checked on Flush
	for i := range r.Scopes {
		if r.Scopes[i].Parent == 0 {
			writeScope(bw, byID, &r.Scopes[i], 0)
		}
	}
	for _, d := range r.Diagnostics {
		pos := ""
		if d.Span != nil {
			pos = fmt.Sprintf("%d:%d: ", d.Span.Line, d.Span.Col)
		}
		fmt.Fprintf(bw, "%s%s[%s]: %s\n", pos, d.Severity, d.Code, d.Message) //nolint:errcheck // checked on Flush
		for _, l := range d.Related {
			fmt.Fprintf(bw, "  %d:%d: %s\n", l.Span.Line, l.Span.Col, l.Text) //nolint:errcheck // checked on Flush
		}
	}
	return bw.Flush()
}

func writeScope(w io.Writer, byID map[uint32]*Scope, s *Scope, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s %s (line %d)", indent, s.Kind, s.Name, s.Span.Line) //nolint:errcheck
	if len(s.Flags) > 0 {
		fmt.Fprintf(w, " [%s]", strings.Join(s.Flags, ", ")) //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck
	for _, v := range s.Variables {
		fmt.Fprintf(w, "%s  %s: %s", indent, v.Name, v.Kind) //nolint:errcheck
		if len(v.Flags) > 0 {
			fmt.Fprintf(w, " [%s]", strings.Join(v.Flags, ", ")) //nolint:errcheck
		}
		fmt.Fprintln(w) //nolint:errcheck
	}
	list := func(label string, names []string) {
		if len(names) > 0 {
			fmt.Fprintf(w, "%s  %s: %s\n", indent, label, strings.Join(names, ", ")) //nolint:errcheck
		}
	}
	list("free", s.Free)
	list("cell", s.Cell)
	list("globals", s.Globals)
	for _, id := range s.Children {
		if c, ok := byID[id]; ok {
			writeScope(w, byID, c, depth+1)
		}
	}
}
