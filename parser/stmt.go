// Copyright © 2024 The pyscope authors

package parser

import (
	"strings"

	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/parser/token"
)

var augOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true, "%=": true,
	"**=": true, ">>=": true, "<<=": true, "&=": true, "^=": true, "|=": true,
	"@=": true,
}

// statement parses one statement.  A simple statement line may hold several
// statements separated by semicolons.
func (p *parser) statement() (stmts []ast.Stmt) {
	start := p.tok.Pos
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		p.sync()
		end := p.end
		if end < start {
			end = start
		}
		stmts = append(stmts, &ast.BadStmt{Base: ast.At(start, end)})
	}()
	if p.tok.Type == token.INDENT {
		p.fail("unexpected indent")
	}
	if s := p.compoundStmt(); s != nil {
		return []ast.Stmt{s}
	}
	return p.simpleStmts()
}

func (p *parser) compoundStmt() ast.Stmt {
	switch {
	case p.isKw("if"):
		return p.ifStmt()
	case p.isKw("while"):
		return p.whileStmt()
	case p.isKw("for"):
		return p.forStmt(p.tok.Pos, false)
	case p.isKw("try"):
		return p.tryStmt()
	case p.isKw("with"):
		return p.withStmt(p.tok.Pos, false)
	case p.isKw("def"):
		return p.funcDef(p.tok.Pos, nil, false)
	case p.isKw("class"):
		return p.classDef(p.tok.Pos, nil)
	case p.isOp("@"):
		return p.decorated()
	case p.isAsync():
		start := p.tok.Pos
		p.next()
		switch {
		case p.isKw("def"):
			return p.funcDef(start, nil, true)
		case p.isKw("for"):
			return p.forStmt(start, true)
		default:
			return p.withStmt(start, true)
		}
	}
	return nil
}

func (p *parser) simpleStmts() []ast.Stmt {
	var stmts []ast.Stmt
	for {
		stmts = append(stmts, p.smallStmt())
		if !p.acceptOp(";") {
			break
		}
		if p.tok.Type == token.NEWLINE || p.tok.Type == token.EOF {
			break
		}
	}
	switch p.tok.Type {
	case token.NEWLINE:
		p.next()
	case token.EOF, token.DEDENT:
	default:
		p.fail("invalid syntax")
	}
	return stmts
}

func (p *parser) smallStmt() ast.Stmt {
	start := p.tok.Pos
	switch {
	case p.acceptKw("pass"):
		return &ast.Pass{Base: ast.At(start, p.end)}
	case p.acceptKw("break"):
		return &ast.Break{Base: ast.At(start, p.end)}
	case p.acceptKw("continue"):
		return &ast.Continue{Base: ast.At(start, p.end)}
	case p.acceptKw("return"):
		s := &ast.Return{}
		if !p.atStmtEnd() {
			s.Value = p.testListStarExpr()
		}
		s.Loc = ast.Span{Start: start, End: p.end}
		return s
	case p.acceptKw("raise"):
		return p.raiseStmt(start)
	case p.acceptKw("global"):
		names := p.nameList()
		return &ast.Global{Base: ast.At(start, p.end), Names: names}
	case p.acceptKw("nonlocal"):
		names := p.nameList()
		return &ast.Nonlocal{Base: ast.At(start, p.end), Names: names}
	case p.acceptKw("del"):
		targets := p.exprList()
		var elts []ast.Expr
		if t, ok := targets.(*ast.Tuple); ok {
			elts = t.Elts
		} else {
			elts = []ast.Expr{targets}
		}
		for _, e := range elts {
			p.setCtx(e, ast.Del)
		}
		return &ast.Delete{Base: ast.At(start, p.end), Targets: elts}
	case p.isKw("import"):
		return p.importStmt()
	case p.isKw("from"):
		return p.importFrom()
	case p.acceptKw("assert"):
		s := &ast.Assert{Test: p.test()}
		if p.acceptOp(",") {
			s.Msg = p.test()
		}
		s.Loc = ast.Span{Start: start, End: p.end}
		return s
	case p.isKw("exec"):
		return p.execStmt()
	case p.isKw("print"):
		return p.printStmt()
	}
	return p.exprStmt()
}

func (p *parser) atStmtEnd() bool {
	return p.tok.Type == token.NEWLINE || p.tok.Type == token.EOF || p.isOp(";")
}

func (p *parser) raiseStmt(start int) ast.Stmt {
	s := &ast.Raise{}
	if !p.atStmtEnd() {
		s.Exc = p.test()
		switch {
		case p.acceptKw("from"):
			s.Cause = p.test()
		case !p.v.Is3():
			for p.acceptOp(",") {
				s.Extra = append(s.Extra, p.test())
			}
		}
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) nameList() []*ast.Name {
	names := []*ast.Name{p.ident()}
	for p.acceptOp(",") {
		names = append(names, p.ident())
	}
	return names
}

func (p *parser) exprStmt() ast.Stmt {
	start := p.tok.Pos
	var first ast.Expr
	if p.isKw("yield") {
		first = p.yieldExpr()
	} else {
		first = p.testListStarExpr()
	}
	switch {
	case p.isOp(":"):
		p.next()
		p.setCtx(first, ast.Store)
		s := &ast.AnnAssign{Target: first, Annotation: p.test()}
		if p.acceptOp("=") {
			s.Value = p.assignValue()
		}
		s.Loc = ast.Span{Start: start, End: p.end}
		return s
	case p.tok.Type == token.OP && augOps[p.tok.Text]:
		op := p.tok.Text
		p.next()
		p.setCtx(first, ast.Store)
		if _, ok := first.(*ast.Tuple); ok {
			p.errorAt(first, "illegal expression for augmented assignment")
		}
		value := p.assignValue()
		return &ast.AugAssign{Base: ast.At(start, p.end), Target: first, Op: op, Value: value}
	case p.isOp("="):
		targets := []ast.Expr{first}
		var value ast.Expr
		for p.acceptOp("=") {
			value = p.assignValue()
			targets = append(targets, value)
		}
		targets = targets[:len(targets)-1]
		for _, t := range targets {
			p.setCtx(t, ast.Store)
		}
		return &ast.Assign{Base: ast.At(start, p.end), Targets: targets, Value: value}
	}
	return &ast.ExprStmt{Base: ast.At(start, p.end), Value: first}
}

func (p *parser) assignValue() ast.Expr {
	if p.isKw("yield") {
		return p.yieldExpr()
	}
	return p.testListStarExpr()
}

// setCtx marks e as an assignment or deletion target, reporting targets that
// cannot be bound.
func (p *parser) setCtx(e ast.Expr, ctx ast.Ctx) {
	switch e := e.(type) {
	case *ast.Name:
		e.Ctx = ctx
	case *ast.Attribute:
		e.Ctx = ctx
	case *ast.Subscript:
		e.Ctx = ctx
	case *ast.Starred:
		e.Ctx = ctx
		p.setCtx(e.Value, ctx)
	case *ast.Tuple:
		e.Ctx = ctx
		for _, elt := range e.Elts {
			p.setCtx(elt, ctx)
		}
	case *ast.List:
		e.Ctx = ctx
		for _, elt := range e.Elts {
			p.setCtx(elt, ctx)
		}
	case *ast.BadExpr:
	default:
		verb := "assign to"
		if ctx == ast.Del {
			verb = "delete"
		}
		p.errorAt(e, "cannot %s %s", verb, describeExpr(e))
	}
}

func describeExpr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Call:
		return "function call"
	case *ast.Constant:
		return "literal"
	case *ast.Lambda:
		return "lambda"
	case *ast.Comprehension:
		return e.Kind.String()
	case *ast.NamedExpr:
		return "named expression"
	case *ast.Compare:
		return "comparison"
	case *ast.Yield, *ast.YieldFrom:
		return "yield expression"
	}
	return "expression"
}

func (p *parser) importStmt() ast.Stmt {
	start := p.tok.Pos
	p.next()
	s := &ast.Import{}
	for {
		aliasStart := p.tok.Pos
		first := p.ident()
		dotted := []string{first.ID}
		for p.acceptOp(".") {
			dotted = append(dotted, p.ident().ID)
		}
		alias := &ast.Alias{Name: strings.Join(dotted, "."), Target: first}
		if p.acceptKw("as") {
			alias.Target = p.ident()
		}
		alias.Loc = ast.Span{Start: aliasStart, End: p.end}
		s.Names = append(s.Names, alias)
		if !p.acceptOp(",") {
			break
		}
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) importFrom() ast.Stmt {
	start := p.tok.Pos
	p.next()
	s := &ast.ImportFrom{}
	for p.isOp(".") || p.isOp("...") {
		s.Level += len(p.tok.Text)
		p.next()
	}
	if !p.isKw("import") {
		dotted := []string{p.ident().ID}
		for p.acceptOp(".") {
			dotted = append(dotted, p.ident().ID)
		}
		s.Module = strings.Join(dotted, ".")
	}
	p.expectKw("import")
	if p.acceptOp("*") {
		s.Star = true
		s.Loc = ast.Span{Start: start, End: p.end}
		return s
	}
	paren := p.acceptOp("(")
	for {
		aliasStart := p.tok.Pos
		name := p.ident()
		alias := &ast.Alias{Name: name.ID, Target: name}
		if p.acceptKw("as") {
			alias.Target = p.ident()
		}
		alias.Loc = ast.Span{Start: aliasStart, End: p.end}
		s.Names = append(s.Names, alias)
		if !p.acceptOp(",") {
			break
		}
		if paren && p.isOp(")") {
			break
		}
	}
	if paren {
		p.expectOp(")")
	}
	if s.Module == "__future__" && s.Level == 0 {
		for _, a := range s.Names {
			if a.Name == "print_function" {
				p.printFunction = true
			}
		}
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) execStmt() ast.Stmt {
	start := p.tok.Pos
	p.next()
	s := &ast.Exec{Body: p.expr()}
	if p.acceptKw("in") {
		s.Globals = p.test()
		if p.acceptOp(",") {
			s.Locals = p.test()
		}
	} else if t, ok := s.Body.(*ast.Tuple); ok && (len(t.Elts) == 2 || len(t.Elts) == 3) {
		// exec(code, globals[, locals]) is the tuple form of the statement.
		s.Body, s.Globals = t.Elts[0], t.Elts[1]
		if len(t.Elts) == 3 {
			s.Locals = t.Elts[2]
		}
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) printStmt() ast.Stmt {
	start := p.tok.Pos
	p.next()
	s := &ast.Print{}
	if p.acceptOp(">>") {
		s.Dest = p.test()
		if !p.acceptOp(",") {
			s.Loc = ast.Span{Start: start, End: p.end}
			return s
		}
	}
	for !p.atStmtEnd() {
		s.Values = append(s.Values, p.test())
		if !p.acceptOp(",") {
			break
		}
		s.NoNewline = p.atStmtEnd()
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

// suite parses the body following a compound statement header's colon.
func (p *parser) suite() []ast.Stmt {
	p.expectOp(":")
	if p.tok.Type != token.NEWLINE {
		return p.simpleStmts()
	}
	p.next()
	if p.tok.Type != token.INDENT {
		p.fail("expected an indented block")
	}
	p.next()
	var body []ast.Stmt
	for p.tok.Type != token.DEDENT && p.tok.Type != token.EOF {
		if p.tok.Type == token.NEWLINE {
			p.next()
			continue
		}
		body = append(body, p.statement()...)
	}
	if p.tok.Type == token.DEDENT {
		p.next()
	}
	return body
}

func (p *parser) ifStmt() ast.Stmt {
	start := p.tok.Pos
	p.next()
	s := &ast.If{Test: p.namedExprTest()}
	s.Body = p.suite()
	switch {
	case p.isKw("elif"):
		s.Else = []ast.Stmt{p.ifStmt()}
	case p.acceptKw("else"):
		s.Else = p.suite()
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) whileStmt() ast.Stmt {
	start := p.tok.Pos
	p.next()
	s := &ast.While{Test: p.namedExprTest()}
	s.Body = p.suite()
	if p.acceptKw("else") {
		s.Else = p.suite()
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) forStmt(start int, async bool) ast.Stmt {
	p.expectKw("for")
	s := &ast.For{IsAsync: async}
	s.Target = p.exprList()
	p.setCtx(s.Target, ast.Store)
	p.expectKw("in")
	s.Iter = p.testListStarExpr()
	s.Body = p.suite()
	if p.acceptKw("else") {
		s.Else = p.suite()
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) tryStmt() ast.Stmt {
	start := p.tok.Pos
	p.next()
	s := &ast.Try{Body: p.suite()}
	for p.isKw("except") {
		hstart := p.tok.Pos
		p.next()
		h := &ast.ExceptHandler{}
		if !p.isOp(":") {
			h.Type = p.test()
			switch {
			case p.acceptKw("as"):
				h.Name = p.ident()
			case !p.v.Is3() && p.acceptOp(","):
				h.Name = p.test()
				p.setCtx(h.Name, ast.Store)
			}
		}
		h.Body = p.suite()
		h.Loc = ast.Span{Start: hstart, End: p.end}
		s.Handlers = append(s.Handlers, h)
	}
	if len(s.Handlers) > 0 && p.acceptKw("else") {
		s.Else = p.suite()
	}
	if p.acceptKw("finally") {
		s.Finally = p.suite()
	}
	if len(s.Handlers) == 0 && s.Finally == nil {
		p.fail("expected 'except' or 'finally' block")
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) withStmt(start int, async bool) ast.Stmt {
	p.expectKw("with")
	s := &ast.With{IsAsync: async}
	for {
		istart := p.tok.Pos
		item := &ast.WithItem{Context: p.test()}
		if p.acceptKw("as") {
			item.Target = p.expr()
			p.setCtx(item.Target, ast.Store)
		}
		item.Loc = ast.Span{Start: istart, End: p.end}
		s.Items = append(s.Items, item)
		if !p.acceptOp(",") {
			break
		}
	}
	s.Body = p.suite()
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) decorated() ast.Stmt {
	start := p.tok.Pos
	var decorators []ast.Expr
	for p.acceptOp("@") {
		decorators = append(decorators, p.namedExprTest())
		if p.tok.Type != token.NEWLINE {
			p.fail("invalid syntax")
		}
		p.next()
	}
	switch {
	case p.isKw("def"):
		return p.funcDef(start, decorators, false)
	case p.isKw("class"):
		return p.classDef(start, decorators)
	case p.isAsync():
		p.next()
		return p.funcDef(start, decorators, true)
	}
	p.fail("expected function or class definition after decorator")
	return nil
}

func (p *parser) funcDef(start int, decorators []ast.Expr, async bool) ast.Stmt {
	p.expectKw("def")
	s := &ast.FunctionDef{Decorators: decorators, IsAsync: async}
	s.Name = p.ident()
	p.expectOp("(")
	s.Params = p.params(")", true)
	p.expectOp(")")
	if p.acceptOp("->") {
		s.Returns = p.test()
	}
	s.Body = p.suite()
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

// params parses a parameter list up to (not including) closer.  Annotations
// are only accepted for function definitions.
func (p *parser) params(closer string, annotations bool) []*ast.Param {
	var params []*ast.Param
	kind := ast.ParamPositional
	for !p.isOp(closer) {
		start := p.tok.Pos
		switch {
		case p.acceptOp("/"):
			for _, prm := range params {
				if prm.Kind == ast.ParamPositional {
					prm.Kind = ast.ParamPosOnly
				}
			}
		case p.acceptOp("**"):
			params = append(params, p.param(start, ast.ParamKwArgs, annotations))
		case p.acceptOp("*"):
			if p.tok.Type == token.NAME {
				params = append(params, p.param(start, ast.ParamVarArgs, annotations))
			}
			kind = ast.ParamKwOnly
		default:
			params = append(params, p.param(start, kind, annotations))
		}
		if !p.acceptOp(",") {
			break
		}
	}
	return params
}

func (p *parser) param(start int, kind ast.ParamKind, annotations bool) *ast.Param {
	prm := &ast.Param{Kind: kind}
	if kind == ast.ParamPositional && !p.v.HasNonlocal() && p.isOp("(") {
		target := p.sublist()
		if n, ok := target.(*ast.Name); ok {
			prm.Name = n
		} else {
			prm.Target = target
		}
	} else {
		prm.Name = p.ident()
	}
	if annotations && p.acceptOp(":") {
		prm.Annotation = p.test()
	}
	if (kind == ast.ParamPositional || kind == ast.ParamKwOnly) && p.acceptOp("=") {
		prm.Default = p.test()
	}
	prm.Loc = ast.Span{Start: start, End: p.end}
	return prm
}

// sublist parses a parenthesized Python 2 parameter.  "(a)" is the plain
// name a; anything with a comma is a Store tuple.
func (p *parser) sublist() ast.Expr {
	start := p.tok.Pos
	p.expectOp("(")
	var elts []ast.Expr
	comma := false
	for {
		if p.isOp("(") {
			elts = append(elts, p.sublist())
		} else {
			elts = append(elts, p.ident())
		}
		if !p.acceptOp(",") {
			break
		}
		comma = true
		if p.isOp(")") {
			break
		}
	}
	p.expectOp(")")
	if len(elts) == 1 && !comma {
		return elts[0]
	}
	return &ast.Tuple{Base: ast.At(start, p.end), Elts: elts, Ctx: ast.Store}
}

func (p *parser) classDef(start int, decorators []ast.Expr) ast.Stmt {
	p.expectKw("class")
	s := &ast.ClassDef{Decorators: decorators}
	s.Name = p.ident()
	if p.acceptOp("(") {
		s.Bases, s.Keywords = p.argList()
		p.expectOp(")")
	}
	s.Body = p.suite()
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}
