// Copyright © 2024 The pyscope authors

// Package lexer converts source text into the token stream consumed by the
// parser, synthesizing NEWLINE, INDENT and DEDENT tokens from the layout.
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/luthersystems/pyscope/parser/token"
)

// Operators ordered so that longer spellings are tried first.
var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"->", ":=", "==", "!=", "<>", "<=", ">=", "**", "//", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "=",
}

const tabSize = 8

type Lexer struct {
	scanner     *token.Scanner
	indents     []int
	depth       int  // bracket nesting; layout is ignored inside brackets
	lineStart   bool // at the beginning of a logical line
	lineHasCode bool // a token has been emitted on the current logical line
	done        bool
	comments    []*token.Token
}

func New(s *token.Scanner) *Lexer {
	return &Lexer{
		scanner:   s,
		indents:   []int{0},
		lineStart: true,
	}
}

// Tokenize lexes all of src and returns the token stream, terminated by EOF,
// together with every comment encountered.
func Tokenize(src []byte) (tokens []*token.Token, comments []*token.Token) {
	lex := New(token.NewScanner(src))
	for {
		toks := lex.ReadToken()
		tokens = append(tokens, toks...)
		if len(toks) > 0 && toks[len(toks)-1].Type == token.EOF {
			return tokens, lex.Comments()
		}
	}
}

// Comments returns the comments read so far.  Comments never appear in the
// token stream.
func (lex *Lexer) Comments() []*token.Token {
	return lex.comments
}

// ReadToken returns the next tokens in the stream.  Layout changes may
// produce several tokens at once.  After EOF has been returned ReadToken
// keeps returning EOF.
func (lex *Lexer) ReadToken() []*token.Token {
	if lex.done {
		return []*token.Token{lex.zeroWidth(token.EOF)}
	}
	if lex.lineStart && lex.depth == 0 {
		if toks := lex.readIndent(); toks != nil {
			return toks
		}
	}
	lex.skipWhitespace()
	c, ok := lex.scanner.Peek()
	if !ok {
		return lex.readEOF()
	}
	switch {
	case c == '#':
		lex.readComment()
		return lex.ReadToken()
	case c == '\\':
		lex.scanner.ScanRune()
		lex.scanner.AcceptRune('\r')
		if lex.scanner.AcceptRune('\n') {
			lex.scanner.Ignore()
			return lex.ReadToken()
		}
		return lex.errorf("unexpected character after line continuation character")
	case c == '\n' || c == '\r':
		lex.scanner.AcceptRune('\r')
		lex.scanner.AcceptRune('\n')
		if lex.depth > 0 || !lex.lineHasCode {
			lex.scanner.Ignore()
			return lex.ReadToken()
		}
		lex.lineStart = true
		lex.lineHasCode = false
		return []*token.Token{lex.scanner.EmitToken(token.NEWLINE)}
	case c == '"' || c == '\'':
		return lex.readString()
	case isDigit(c) || (c == '.' && isDigit(rune(lex.scanner.PeekAt(1)))):
		return lex.readNumber()
	case isWordStart(c):
		return lex.readName()
	}
	return lex.readOperator()
}

// readIndent measures the indentation of a new logical line.  Blank and
// comment-only lines do not affect the layout.  It returns nil when no
// layout token is due.
func (lex *Lexer) readIndent() []*token.Token {
	for {
		col := 0
	measure:
		for {
			switch {
			case lex.scanner.AcceptRune(' '):
				col++
			case lex.scanner.AcceptRune('\t'):
				col = (col/tabSize + 1) * tabSize
			case lex.scanner.AcceptRune('\f'):
				col = 0
			default:
				break measure
			}
		}
		c, ok := lex.scanner.Peek()
		switch {
		case !ok:
			lex.scanner.Ignore()
			return nil
		case c == '#':
			lex.readComment()
			lex.skipNewline()
			continue
		case c == '\n' || c == '\r':
			lex.skipNewline()
			continue
		}
		lex.scanner.Ignore()
		lex.lineStart = false
		return lex.layout(col)
	}
}

func (lex *Lexer) layout(col int) []*token.Token {
	top := lex.indents[len(lex.indents)-1]
	switch {
	case col > top:
		lex.indents = append(lex.indents, col)
		return []*token.Token{lex.zeroWidth(token.INDENT)}
	case col < top:
		var toks []*token.Token
		for len(lex.indents) > 1 && col < lex.indents[len(lex.indents)-1] {
			lex.indents = lex.indents[:len(lex.indents)-1]
			toks = append(toks, lex.zeroWidth(token.DEDENT))
		}
		if col != lex.indents[len(lex.indents)-1] {
			toks = append(toks, lex.errorTok("unindent does not match any outer indentation level"))
		}
		return toks
	}
	return nil
}

func (lex *Lexer) readEOF() []*token.Token {
	lex.done = true
	var toks []*token.Token
	if lex.lineHasCode {
		toks = append(toks, lex.zeroWidth(token.NEWLINE))
	}
	for len(lex.indents) > 1 {
		lex.indents = lex.indents[:len(lex.indents)-1]
		toks = append(toks, lex.zeroWidth(token.DEDENT))
	}
	return append(toks, lex.zeroWidth(token.EOF))
}

func (lex *Lexer) readComment() {
	lex.scanner.Ignore()
	lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' && c != '\r' })
	lex.comments = append(lex.comments, lex.scanner.EmitToken(token.COMMENT))
}

func (lex *Lexer) skipNewline() {
	lex.scanner.AcceptRune('\r')
	lex.scanner.AcceptRune('\n')
	lex.scanner.Ignore()
}

func (lex *Lexer) readName() []*token.Token {
	lex.scanner.AcceptSeq(isWord)
	if isStringPrefix(lex.scanner.Text()) {
		if c, ok := lex.scanner.Peek(); ok && (c == '"' || c == '\'') {
			return lex.readString()
		}
	}
	return lex.emit(token.NAME)
}

// readString scans a string literal whose optional prefix has already been
// accepted.
func (lex *Lexer) readString() []*token.Token {
	quote, _ := lex.scanner.Peek()
	triple := strings.Repeat(string(quote), 3)
	if lex.scanner.AcceptString(triple) {
		for !lex.scanner.AcceptString(triple) {
			if !lex.scanner.ScanRune() {
				return lex.errorf("unterminated triple-quoted string literal")
			}
			if lex.scanner.Rune() == '\\' {
				lex.scanner.ScanRune()
			}
		}
		return lex.emit(token.STRING)
	}
	lex.scanner.ScanRune()
	for {
		c, ok := lex.scanner.Peek()
		if !ok || c == '\n' || c == '\r' {
			return lex.errorf("unterminated string literal")
		}
		lex.scanner.ScanRune()
		switch c {
		case quote:
			return lex.emit(token.STRING)
		case '\\':
			// An escaped newline continues the literal, raw or not.
			if !lex.scanner.AcceptRune('\r') {
				lex.scanner.ScanRune()
			} else {
				lex.scanner.AcceptRune('\n')
			}
		}
	}
}

func (lex *Lexer) readNumber() []*token.Token {
	for {
		if lex.scanner.Accept(func(c rune) bool { return isWord(c) || c == '.' }) {
			continue
		}
		// Exponent signs: 1e-5, 2.5E+3.  Hex literals never reach here with
		// a sign following an 'e'.
		text := lex.scanner.Text()
		last := text[len(text)-1]
		if (last == 'e' || last == 'E') && !strings.HasPrefix(strings.ToLower(text), "0x") {
			if lex.scanner.AcceptAny("+-") {
				continue
			}
		}
		break
	}
	return lex.emit(token.NUMBER)
}

func (lex *Lexer) readOperator() []*token.Token {
	for _, op := range operators {
		if !lex.scanner.AcceptString(op) {
			continue
		}
		switch op {
		case "(", "[", "{":
			lex.depth++
		case ")", "]", "}":
			if lex.depth > 0 {
				lex.depth--
			}
		}
		return lex.emit(token.OP)
	}
	lex.scanner.ScanRune()
	return lex.errorf("invalid character %q in source text", lex.scanner.Rune())
}

func (lex *Lexer) skipWhitespace() {
	lex.scanner.AcceptSeqAny(" \t\f")
	lex.scanner.Ignore()
}

func (lex *Lexer) emit(typ token.Type) []*token.Token {
	lex.lineHasCode = true
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

func (lex *Lexer) zeroWidth(typ token.Type) *token.Token {
	pos := lex.scanner.Start()
	return &token.Token{Type: typ, Pos: pos, End: pos}
}

// errorTok returns an ERROR token whose Text is the message and whose extent
// covers the offending input.
func (lex *Lexer) errorTok(msg string) *token.Token {
	tok := lex.scanner.EmitToken(token.ERROR)
	tok.Text = msg
	return tok
}

func (lex *Lexer) errorf(format string, v ...interface{}) []*token.Token {
	lex.lineHasCode = true
	return []*token.Token{lex.errorTok(fmt.Sprintf(format, v...))}
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf", "ur":
		return true
	}
	return false
}

func isWordStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isWord(c rune) bool {
	return isWordStart(c) || unicode.IsDigit(c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}
