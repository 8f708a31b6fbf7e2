// Copyright © 2024 The pyscope authors

package diagnostic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"

	"github.com/luthersystems/pyscope/parser/token"
)

// defaultNoteWidth is the column at which notes are wrapped when
// Renderer.NoteWidth is unset.
const defaultNoteWidth = 100

// tabWidth matches the tab stops of the Python tokenizer.
const tabWidth = 8

// Renderer formats diagnostics as annotated source snippets.  The first
// span of a diagnostic is its primary location and is underlined with '^';
// the remaining spans point at related sites (the earlier use of a
// declared name, the nested scope capturing a deleted variable) and are
// underlined with '-'.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)

	// NoteWidth wraps long notes. Zero selects a default; negative disables
	// wrapping.
	NoteWidth int
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	bw := bufio.NewWriter(w)
	out := &snippetWriter{
		w:      bw,
		gutter: 1,
		p:      choosePalette(r.Color, fileFromWriter(w)),
		files:  make(map[string]*token.File),
		read:   r.SourceReader,
	}
	out.header(d)
	if len(d.Spans) > 0 {
		out.gutter = gutterWidth(d.Spans)
		for i, g := range groupByFile(d.Spans) {
			out.file(g, i == 0, d.Severity)
		}
	}
	for _, note := range d.Notes {
		out.printf("%s%s=%s note: %s\n", out.pad(), out.p.boldCyan, out.p.reset, r.wrapNote(note, out.gutter))
	}
	if out.err != nil {
		return out.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// wrapNote wraps note and indents continuation lines under the note text.
func (r *Renderer) wrapNote(note string, gutter int) string {
	width := r.NoteWidth
	if width == 0 {
		width = defaultNoteWidth
	}
	if width < 0 || len(note) <= width {
		return note
	}
	indent := strings.Repeat(" ", gutter+1+len("= note: "))
	return strings.ReplaceAll(wordwrap.String(note, width), "\n", "\n"+indent)
}

// fileSpans are the spans of one diagnostic that fall in the same file,
// in their original order.
type fileSpans struct {
	name  string
	spans []indexedSpan
}

type indexedSpan struct {
	Span
	primary bool
}

func groupByFile(spans []Span) []fileSpans {
	var groups []fileSpans
	at := make(map[string]int)
	for i, s := range spans {
		g, ok := at[s.File]
		if !ok {
			g = len(groups)
			at[s.File] = g
			groups = append(groups, fileSpans{name: s.File})
		}
		groups[g].spans = append(groups[g].spans, indexedSpan{Span: s, primary: i == 0})
	}
	return groups
}

func gutterWidth(spans []Span) int {
	width := 1
	for _, s := range spans {
		if n := len(strconv.Itoa(s.Line)); n > width {
			width = n
		}
	}
	return width
}

// snippetWriter renders one diagnostic.  It keeps the first write error and
// drops everything after it.
type snippetWriter struct {
	w      io.Writer
	err    error
	p      palette
	gutter int
	files  map[string]*token.File
	read   func(string) ([]byte, error)
}

func (s *snippetWriter) printf(format string, a ...interface{}) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, a...)
}

// pad is the blank space in front of the gutter bar.
func (s *snippetWriter) pad() string {
	return strings.Repeat(" ", s.gutter+1)
}

func (s *snippetWriter) bar() {
	s.printf("%s%s|%s\n", s.pad(), s.p.boldBlue, s.p.reset)
}

func (s *snippetWriter) header(d Diagnostic) {
	color, text := s.severityStyle(d.Severity)
	if d.Code != "" {
		text += "[" + d.Code + "]"
	}
	s.printf("%s%s%s%s: %s%s%s\n", color, s.p.bold, text, s.p.reset, s.p.bold, d.Message, s.p.reset)
}

func (s *snippetWriter) severityStyle(sev Severity) (string, string) {
	switch sev {
	case SeverityError:
		return s.p.boldRed, "error"
	case SeverityWarning:
		return s.p.yellow, "warning"
	default:
		return s.p.boldCyan, "note"
	}
}

// file writes the location line and the annotated source lines of g.  The
// location of the primary span is introduced with "-->", locations in other
// files with ":::".
func (s *snippetWriter) file(g fileSpans, first bool, sev Severity) {
	arrow := ":::"
	if first {
		arrow = "-->"
	}
	s.printf("%s%s%s%s %s\n", strings.Repeat(" ", s.gutter), s.p.boldBlue, arrow, s.p.reset, location(g.spans[0].Span))

	src := s.source(g.name)
	if src == nil {
		s.bar()
		for _, sp := range g.spans[1:] {
			if sp.Label != "" {
				s.printf("%s%s=%s %s: %s\n", s.pad(), s.p.boldBlue, s.p.reset, location(sp.Span), sp.Label)
			}
		}
		return
	}

	byLine := make(map[int][]indexedSpan)
	var lines []int
	for _, sp := range g.spans {
		if sp.Line <= 0 {
			continue
		}
		if _, ok := byLine[sp.Line]; !ok {
			lines = append(lines, sp.Line)
		}
		byLine[sp.Line] = append(byLine[sp.Line], sp)
	}
	sort.Ints(lines)

	s.bar()
	for i, n := range lines {
		if i > 0 && n > lines[i-1]+1 {
			s.printf("%s%s...%s\n", strings.Repeat(" ", s.gutter-1), s.p.boldBlue, s.p.reset)
		}
		text, ok := src.Line(n)
		if !ok {
			continue
		}
		s.printf("%s%*d |%s %s\n", s.p.boldBlue, s.gutter, n, s.p.reset, expandTabs(text))
		spans := byLine[n]
		sort.SliceStable(spans, func(a, b int) bool { return spans[a].Col < spans[b].Col })
		for _, sp := range spans {
			s.underline(text, sp, sev)
		}
	}
	s.bar()
}

func (s *snippetWriter) underline(text string, sp indexedSpan, sev Severity) {
	col := sp.Col
	if col <= 0 {
		col = 1
	}
	end := sp.EndCol
	if end <= 0 {
		end = identEnd(text, col)
	}
	if end < col {
		end = col
	}
	start := displayWidth(prefix(text, col-1))
	width := displayWidth(prefix(text, end)) - start
	if width < 1 {
		width = 1
	}

	mark, color := "-", s.p.boldBlue
	if sp.primary {
		mark = "^"
		color, _ = s.severityStyle(sev)
	}
	s.printf("%s%s|%s %s%s%s", s.pad(), s.p.boldBlue, s.p.reset,
		strings.Repeat(" ", start), color, strings.Repeat(mark, width))
	if sp.Label != "" {
		s.printf(" %s", sp.Label)
	}
	s.printf("%s\n", s.p.reset)
}

// source returns the line index of name, or nil when it cannot be read.
func (s *snippetWriter) source(name string) *token.File {
	if f, ok := s.files[name]; ok {
		return f
	}
	var f *token.File
	if name != "" {
		read := s.read
		if read == nil {
			read = func(name string) ([]byte, error) {
				return os.ReadFile(name) //nolint:gosec // reads user-specified source files for display
			}
		}
		if data, err := read(name); err == nil {
			f = token.NewFile(name, data)
		}
	}
	s.files[name] = f
	return f
}

func location(sp Span) string {
	switch {
	case sp.Line <= 0:
		return sp.File
	case sp.Col <= 0:
		return fmt.Sprintf("%s:%d", sp.File, sp.Line)
	}
	return fmt.Sprintf("%s:%d:%d", sp.File, sp.Line, sp.Col)
}

// prefix returns the first n bytes of text, clamped to its length.
func prefix(text string, n int) string {
	if n > len(text) {
		n = len(text)
	}
	if n < 0 {
		n = 0
	}
	return text[:n]
}

// identEnd returns the 1-based column of the last byte of the identifier
// or dotted name starting at col, or col itself when none starts there.
func identEnd(text string, col int) int {
	if col <= 0 || col > len(text) {
		return col
	}
	end := col - 1
	for end < len(text) {
		ch, size := utf8.DecodeRuneInString(text[end:])
		if ch != '_' && ch != '.' && !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			break
		}
		end += size
	}
	if end == col-1 {
		return col
	}
	return end
}

// displayWidth returns the number of terminal cells text occupies with
// tabs expanded.
func displayWidth(text string) int {
	w := 0
	for _, ch := range text {
		if ch == '\t' {
			w += tabWidth - w%tabWidth
		} else {
			w++
		}
	}
	return w
}

func expandTabs(text string) string {
	if !strings.Contains(text, "\t") {
		return text
	}
	var b strings.Builder
	w := 0
	for _, ch := range text {
		if ch == '\t' {
			n := tabWidth - w%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			w += n
			continue
		}
		b.WriteRune(ch)
		w++
	}
	return b.String()
}

// fileFromWriter returns the file behind w for terminal detection, or nil.
func fileFromWriter(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
