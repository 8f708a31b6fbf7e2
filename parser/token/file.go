// Copyright © 2024 The pyscope authors

package token

import "sort"

// File holds source text along with an index of line starts so that byte
// offsets can be translated to line and column positions.
type File struct {
	Name  string
	src   []byte
	lines []int
}

// NewFile indexes src.  The File retains src; callers must not modify it.
func NewFile(name string, src []byte) *File {
	lines := []int{0}
	for i, c := range src {
		if c == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &File{Name: name, src: src, lines: lines}
}

// Source returns the indexed text.
func (f *File) Source() []byte {
	return f.src
}

// Len returns the length of the source in bytes.
func (f *File) Len() int {
	return len(f.src)
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int {
	return len(f.lines)
}

// Location resolves a byte offset.  Offsets outside the file are clamped.
func (f *File) Location(pos int) *Location {
	if pos < 0 {
		pos = 0
	}
	if pos > len(f.src) {
		pos = len(f.src)
	}
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > pos }) - 1
	return &Location{
		File: f.Name,
		Pos:  pos,
		Line: i + 1,
		Col:  pos - f.lines[i] + 1,
	}
}

// Offset translates a 1-based line and column back to a byte offset.  The
// result is clamped to the line's extent.
func (f *File) Offset(line, col int) int {
	if line < 1 {
		return 0
	}
	if line > len(f.lines) {
		return len(f.src)
	}
	start := f.lines[line-1]
	end := len(f.src)
	if line < len(f.lines) {
		end = f.lines[line] - 1
	}
	pos := start + col - 1
	if pos < start {
		pos = start
	}
	if pos > end {
		pos = end
	}
	return pos
}

// Line returns the text of the 1-based line n without its terminator.
func (f *File) Line(n int) (string, bool) {
	if n < 1 || n > len(f.lines) {
		return "", false
	}
	start := f.lines[n-1]
	end := len(f.src)
	if n < len(f.lines) {
		end = f.lines[n] - 1
	}
	if end > start && f.src[end-1] == '\r' {
		end--
	}
	return string(f.src[start:end]), true
}
