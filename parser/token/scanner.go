// Copyright © 2024 The pyscope authors

package token

import (
	"strings"
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from an in-memory byte slice.
type Scanner struct {
	src   []byte
	start int // start of the current token
	next  int // offset of the next unscanned byte
	c     rune
}

// NewScanner initializes and returns a new Scanner over src.
func NewScanner(src []byte) *Scanner {
	return &Scanner{src: src}
}

// EmitToken returns a token containing the text scanned since the last call
// to either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type: typ,
		Text: s.Text(),
		Pos:  s.start,
		End:  s.next,
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.next
}

// Text returns a string containing text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Text() string {
	return string(s.src[s.start:s.next])
}

// Start returns the offset of the current token.
func (s *Scanner) Start() int {
	return s.start
}

// Pos returns the offset of the next rune to be scanned.
func (s *Scanner) Pos() int {
	return s.next
}

// Rune returns the last rune scanned.
func (s *Scanner) Rune() rune {
	return s.c
}

// EOF reports whether all input has been scanned.
func (s *Scanner) EOF() bool {
	return s.next >= len(s.src)
}

// Peek returns the next rune to be scanned.  At EOF Peek returns a false
// second value.  Invalid utf-8 is reported as utf8.RuneError.
func (s *Scanner) Peek() (rune, bool) {
	if s.EOF() {
		return 0, false
	}
	c, _ := utf8.DecodeRune(s.src[s.next:])
	return c, true
}

// PeekAt returns the byte n positions past the next rune, or zero.
func (s *Scanner) PeekAt(n int) byte {
	if s.next+n >= len(s.src) {
		return 0
	}
	return s.src[s.next+n]
}

// HasPrefix reports whether the unscanned input begins with prefix.
func (s *Scanner) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(s.src[s.next:min(len(s.src), s.next+len(prefix))]), prefix)
}

// ScanRune accepts the next rune into the current token.  It returns false at
// EOF.
func (s *Scanner) ScanRune() bool {
	if s.EOF() {
		return false
	}
	c, n := utf8.DecodeRune(s.src[s.next:])
	s.c = c
	s.next += n
	return true
}

func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if ok && fn(peek) {
		return s.ScanRune()
	}
	return false
}

func (s *Scanner) AcceptRune(c rune) bool {
	peek, ok := s.Peek()
	if ok && peek == c {
		return s.ScanRune()
	}
	return false
}

func (s *Scanner) AcceptAny(charset string) bool {
	peek, ok := s.Peek()
	if ok && strings.ContainsRune(charset, peek) {
		return s.ScanRune()
	}
	return false
}

func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqAny(charset string) int {
	var n int
	for s.AcceptAny(charset) {
		n++
	}
	return n
}

// AcceptString accepts literal if the input begins with it.  Nothing is
// consumed on failure.
func (s *Scanner) AcceptString(literal string) bool {
	if !s.HasPrefix(literal) {
		return false
	}
	for range literal {
		s.ScanRune()
	}
	return true
}
