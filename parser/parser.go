// Copyright © 2024 The pyscope authors

// Package parser builds an ast.Module from source text.
//
// The parser is fault tolerant: a syntax error is reported to the
// diagnostic sink, the offending statement is replaced by an ast.BadStmt and
// parsing resumes at the next logical line.  Parse therefore always returns
// a module that the binder can process.
package parser

import (
	"fmt"

	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/parser/lexer"
	"github.com/luthersystems/pyscope/parser/token"
	"github.com/luthersystems/pyscope/version"
)

// CodeSyntax is the diagnostic code of every parse error.
const CodeSyntax = "syntax"

type parser struct {
	file *token.File
	v    version.Version
	sink *diagnostic.Sink

	toks []*token.Token
	pos  int
	tok  *token.Token
	end  int // end offset of the last consumed non-layout token

	errLine       int // line of the last reported error, to avoid cascades
	printFunction bool
}

// bailout is raised to abandon the current statement after an error.
type bailout struct{}

// Parse parses src as a module under language version v.  Syntax errors are
// reported to sink, which may be nil.
func Parse(filename string, src []byte, v version.Version, sink *diagnostic.Sink) *ast.Module {
	if v.IsZero() {
		v = version.Default
	}
	file := token.NewFile(filename, src)
	toks, comments := lexer.Tokenize(src)
	p := &parser{
		file: file,
		v:    v,
		sink: sink,
		toks: toks,
		pos:  -1,
	}
	p.next()
	mod := &ast.Module{
		Base:     ast.At(0, len(src)),
		File:     file,
		Comments: comments,
	}
	for p.tok.Type != token.EOF {
		if p.tok.Type == token.DEDENT || p.tok.Type == token.NEWLINE {
			p.next()
			continue
		}
		mod.Body = append(mod.Body, p.statement()...)
	}
	return mod
}

// ParseExpr parses a single expression.  It is a convenience for tests and
// tools that need to bind an isolated expression.
func ParseExpr(src string, v version.Version, sink *diagnostic.Sink) ast.Expr {
	mod := Parse("<expr>", []byte(src), v, sink)
	if len(mod.Body) != 1 {
		return &ast.BadExpr{Base: ast.At(0, len(src))}
	}
	es, ok := mod.Body[0].(*ast.ExprStmt)
	if !ok {
		return &ast.BadExpr{Base: ast.At(0, len(src))}
	}
	return es.Value
}

// next advances to the next token.  Lexical errors are reported and skipped.
func (p *parser) next() {
	if p.tok != nil {
		switch p.tok.Type {
		case token.NEWLINE, token.INDENT, token.DEDENT, token.EOF:
		default:
			p.end = p.tok.End
		}
	}
	for {
		if p.pos < len(p.toks)-1 {
			p.pos++
		}
		p.tok = p.toks[p.pos]
		if p.tok.Type != token.ERROR {
			return
		}
		p.report(p.tok.Pos, p.tok.End, "%s", p.tok.Text)
	}
}

func (p *parser) peek() *token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

// isKw reports whether the current token is the reserved word kw.
func (p *parser) isKw(kw string) bool {
	return p.tok.Type == token.NAME && p.tok.Text == kw && p.isKeyword(kw)
}

func (p *parser) isKeyword(name string) bool {
	switch name {
	case "print":
		return p.v.HasPrintStatement() && !p.printFunction
	case "await":
		return p.v.AtLeast(3, 5)
	}
	return token.IsKeyword(name, p.v)
}

// isAsync reports whether the current token starts an async compound
// statement or comprehension clause.
func (p *parser) isAsync() bool {
	if p.tok.Type != token.NAME || p.tok.Text != "async" || !p.v.AtLeast(3, 5) {
		return false
	}
	nx := p.peek()
	return nx.Type == token.NAME && (nx.Text == "def" || nx.Text == "for" || nx.Text == "with")
}

func (p *parser) isOp(op string) bool {
	return p.tok.Type == token.OP && p.tok.Text == op
}

func (p *parser) acceptOp(op string) bool {
	if p.isOp(op) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKw(kw string) bool {
	if p.isKw(kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectOp(op string) {
	if !p.acceptOp(op) {
		p.fail("expected '%s', found %s", op, p.describe())
	}
}

func (p *parser) expectKw(kw string) {
	if !p.acceptKw(kw) {
		p.fail("expected '%s', found %s", kw, p.describe())
	}
}

// ident consumes an identifier that is not a reserved word.
func (p *parser) ident() *ast.Name {
	if p.tok.Type != token.NAME || p.isKeyword(p.tok.Text) {
		p.fail("expected name, found %s", p.describe())
	}
	n := &ast.Name{Base: ast.At(p.tok.Pos, p.tok.End), ID: p.tok.Text, Ctx: ast.Store}
	p.next()
	return n
}

func (p *parser) describe() string {
	switch p.tok.Type {
	case token.NEWLINE:
		return "end of line"
	case token.INDENT:
		return "indent"
	case token.DEDENT:
		return "dedent"
	case token.EOF:
		return "end of file"
	}
	return fmt.Sprintf("'%s'", p.tok.Text)
}

// report records a syntax error unless one was already reported on the
// same line.
func (p *parser) report(start, end int, format string, v ...interface{}) {
	line := p.file.Location(start).Line
	if line == p.errLine {
		return
	}
	p.errLine = line
	p.sink.Errorf(CodeSyntax, diagnostic.SpanOf(p.file, start, end), format, v...)
}

// errorAt reports a recoverable error that does not abandon the statement.
func (p *parser) errorAt(n ast.Node, format string, v ...interface{}) {
	span := n.Span()
	p.report(span.Start, span.End, format, v...)
}

// fail reports an error at the current token and abandons the statement.
func (p *parser) fail(format string, v ...interface{}) {
	p.report(p.tok.Pos, p.tok.End, format, v...)
	panic(bailout{})
}

// sync skips to the start of the next statement.  An indented block that
// immediately follows the failed line is skipped with it.
func (p *parser) sync() {
	for p.tok.Type != token.NEWLINE && p.tok.Type != token.EOF {
		if p.tok.Type == token.INDENT || p.tok.Type == token.DEDENT {
			break
		}
		p.next()
	}
	if p.tok.Type == token.NEWLINE {
		p.next()
	}
	if p.tok.Type == token.INDENT {
		depth := 0
		for p.tok.Type != token.EOF {
			switch p.tok.Type {
			case token.INDENT:
				depth++
			case token.DEDENT:
				depth--
			}
			p.next()
			if depth == 0 {
				break
			}
		}
	}
}
