// Copyright © 2024 The pyscope authors

package parser

import (
	"strings"

	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/parser/token"
)

// Binary operator precedence levels, loosest first.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%", "//", "@"},
}

var compareOps = map[string]bool{
	"<": true, ">": true, "==": true, ">=": true, "<=": true, "!=": true, "<>": true,
}

// atSeqEnd reports whether the current token ends a comma separated
// sequence, allowing a trailing comma.
func (p *parser) atSeqEnd() bool {
	switch p.tok.Type {
	case token.NEWLINE, token.EOF, token.INDENT, token.DEDENT:
		return true
	case token.OP:
		switch p.tok.Text {
		case ")", "]", "}", ";", "=", ":":
			return true
		}
		return augOps[p.tok.Text]
	}
	return p.isKw("in")
}

// sequence parses item (',' item)* [','] producing a Tuple when a comma is
// present.
func (p *parser) sequence(item func() ast.Expr) ast.Expr {
	start := p.tok.Pos
	first := item()
	if !p.isOp(",") {
		return first
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if p.atSeqEnd() {
			break
		}
		elts = append(elts, item())
	}
	return &ast.Tuple{Base: ast.At(start, p.end), Elts: elts}
}

func (p *parser) testListStarExpr() ast.Expr {
	return p.sequence(p.testOrStar)
}

func (p *parser) exprList() ast.Expr {
	return p.sequence(p.exprOrStar)
}

func (p *parser) starred(start int) ast.Expr {
	value := p.expr()
	return &ast.Starred{Base: ast.At(start, p.end), Value: value}
}

func (p *parser) testOrStar() ast.Expr {
	start := p.tok.Pos
	if p.acceptOp("*") {
		return p.starred(start)
	}
	return p.test()
}

func (p *parser) exprOrStar() ast.Expr {
	start := p.tok.Pos
	if p.acceptOp("*") {
		return p.starred(start)
	}
	return p.expr()
}

func (p *parser) namedOrStar() ast.Expr {
	start := p.tok.Pos
	if p.acceptOp("*") {
		return p.starred(start)
	}
	return p.namedExprTest()
}

func (p *parser) namedExprTest() ast.Expr {
	start := p.tok.Pos
	x := p.test()
	if !p.isOp(":=") {
		return x
	}
	if !p.v.HasNamedExpr() {
		p.fail("assignment expressions are not supported in version %s", p.v)
	}
	name, ok := x.(*ast.Name)
	if !ok {
		p.fail("cannot use assignment expressions with %s", describeExpr(x))
	}
	p.next()
	name.Ctx = ast.Store
	value := p.test()
	return &ast.NamedExpr{Base: ast.At(start, p.end), Target: name, Value: value}
}

func (p *parser) test() ast.Expr {
	if p.isKw("lambda") {
		return p.lambda(false)
	}
	start := p.tok.Pos
	x := p.orTest()
	if !p.acceptKw("if") {
		return x
	}
	cond := p.orTest()
	p.expectKw("else")
	els := p.test()
	return &ast.IfExp{Base: ast.At(start, p.end), Test: cond, Body: x, Else: els}
}

func (p *parser) testNoCond() ast.Expr {
	if p.isKw("lambda") {
		return p.lambda(true)
	}
	return p.orTest()
}

func (p *parser) lambda(noCond bool) ast.Expr {
	start := p.tok.Pos
	p.next()
	params := p.params(":", false)
	p.expectOp(":")
	var body ast.Expr
	if noCond {
		body = p.testNoCond()
	} else {
		body = p.test()
	}
	return &ast.Lambda{Base: ast.At(start, p.end), Params: params, Body: body}
}

func (p *parser) orTest() ast.Expr {
	return p.boolOp("or", p.andTest)
}

func (p *parser) andTest() ast.Expr {
	return p.boolOp("and", p.notTest)
}

func (p *parser) boolOp(op string, operand func() ast.Expr) ast.Expr {
	start := p.tok.Pos
	x := operand()
	if !p.isKw(op) {
		return x
	}
	values := []ast.Expr{x}
	for p.acceptKw(op) {
		values = append(values, operand())
	}
	return &ast.BoolOp{Base: ast.At(start, p.end), Op: op, Values: values}
}

func (p *parser) notTest() ast.Expr {
	start := p.tok.Pos
	if p.acceptKw("not") {
		operand := p.notTest()
		return &ast.UnaryOp{Base: ast.At(start, p.end), Op: "not", Operand: operand}
	}
	return p.comparison()
}

func (p *parser) compareOp() (string, bool) {
	switch {
	case p.tok.Type == token.OP && compareOps[p.tok.Text]:
		op := p.tok.Text
		p.next()
		return op, true
	case p.acceptKw("in"):
		return "in", true
	case p.isKw("not") && p.peek().Type == token.NAME && p.peek().Text == "in":
		p.next()
		p.next()
		return "not in", true
	case p.acceptKw("is"):
		if p.acceptKw("not") {
			return "is not", true
		}
		return "is", true
	}
	return "", false
}

func (p *parser) comparison() ast.Expr {
	start := p.tok.Pos
	x := p.expr()
	var (
		ops         []string
		comparators []ast.Expr
	)
	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}
		ops = append(ops, op)
		comparators = append(comparators, p.expr())
	}
	if len(ops) == 0 {
		return x
	}
	return &ast.Compare{Base: ast.At(start, p.end), Left: x, Ops: ops, Comparators: comparators}
}

func (p *parser) expr() ast.Expr {
	return p.binary(0)
}

func (p *parser) binary(level int) ast.Expr {
	if level == len(binaryLevels) {
		return p.factor()
	}
	start := p.tok.Pos
	x := p.binary(level + 1)
	for p.tok.Type == token.OP && hasOp(binaryLevels[level], p.tok.Text) {
		op := p.tok.Text
		p.next()
		y := p.binary(level + 1)
		x = &ast.BinOp{Base: ast.At(start, p.end), Left: x, Op: op, Right: y}
	}
	return x
}

func hasOp(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func (p *parser) factor() ast.Expr {
	start := p.tok.Pos
	if p.isOp("+") || p.isOp("-") || p.isOp("~") {
		op := p.tok.Text
		p.next()
		operand := p.factor()
		return &ast.UnaryOp{Base: ast.At(start, p.end), Op: op, Operand: operand}
	}
	return p.power()
}

func (p *parser) power() ast.Expr {
	start := p.tok.Pos
	var x ast.Expr
	if p.acceptKw("await") {
		value := p.primary()
		x = &ast.Await{Base: ast.At(start, p.end), Value: value}
	} else {
		x = p.primary()
	}
	if p.acceptOp("**") {
		y := p.factor()
		return &ast.BinOp{Base: ast.At(start, p.end), Left: x, Op: "**", Right: y}
	}
	return x
}

func (p *parser) primary() ast.Expr {
	start := p.tok.Pos
	x := p.atom()
	for {
		switch {
		case p.acceptOp("("):
			args, kws := p.argList()
			p.expectOp(")")
			x = &ast.Call{Base: ast.At(start, p.end), Func: x, Args: args, Keywords: kws}
		case p.acceptOp("["):
			index := p.subscriptList()
			p.expectOp("]")
			x = &ast.Subscript{Base: ast.At(start, p.end), Value: x, Index: index}
		case p.acceptOp("."):
			if p.tok.Type != token.NAME {
				p.fail("expected attribute name, found %s", p.describe())
			}
			attr := p.tok.Text
			p.next()
			x = &ast.Attribute{Base: ast.At(start, p.end), Value: x, Attr: attr}
		default:
			return x
		}
	}
}

func (p *parser) argList() (args []ast.Expr, kws []*ast.Keyword) {
	for !p.isOp(")") {
		start := p.tok.Pos
		switch {
		case p.acceptOp("**"):
			value := p.test()
			kws = append(kws, &ast.Keyword{Base: ast.At(start, p.end), Value: value})
		case p.acceptOp("*"):
			value := p.test()
			args = append(args, &ast.Starred{Base: ast.At(start, p.end), Value: value})
		default:
			x := p.namedExprTest()
			switch {
			case p.isOp("="):
				name, ok := x.(*ast.Name)
				if !ok {
					p.fail("expression cannot contain assignment, perhaps you meant \"==\"?")
				}
				p.next()
				value := p.test()
				kws = append(kws, &ast.Keyword{Base: ast.At(start, p.end), Arg: name.ID, Value: value})
			case p.isCompFor():
				c := p.comprehension(ast.GeneratorExp, x, nil)
				c.Loc = ast.Span{Start: start, End: p.end}
				args = append(args, c)
			default:
				args = append(args, x)
			}
		}
		if !p.acceptOp(",") {
			break
		}
	}
	return args, kws
}

func (p *parser) subscriptList() ast.Expr {
	start := p.tok.Pos
	first := p.subscript()
	if !p.isOp(",") {
		return first
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		elts = append(elts, p.subscript())
	}
	return &ast.Tuple{Base: ast.At(start, p.end), Elts: elts}
}

func (p *parser) subscript() ast.Expr {
	start := p.tok.Pos
	var lower ast.Expr
	if !p.isOp(":") {
		lower = p.namedOrStar()
		if !p.isOp(":") {
			return lower
		}
	}
	p.next()
	s := &ast.Slice{Lower: lower}
	if !p.isOp(":") && !p.isOp("]") && !p.isOp(",") {
		s.Upper = p.test()
	}
	if p.acceptOp(":") && !p.isOp("]") && !p.isOp(",") {
		s.Step = p.test()
	}
	s.Loc = ast.Span{Start: start, End: p.end}
	return s
}

func (p *parser) isCompFor() bool {
	return p.isKw("for") || (p.isAsync() && p.peek().Text == "for")
}

// comprehension parses the for/if clauses following elt.  The caller sets
// the span once the closing bracket has been consumed.
func (p *parser) comprehension(kind ast.CompKind, elt, value ast.Expr) *ast.Comprehension {
	c := &ast.Comprehension{Kind: kind, Elt: elt, Value: value}
	for p.isCompFor() {
		gen := &ast.CompFor{}
		start := p.tok.Pos
		if p.tok.Text == "async" {
			gen.IsAsync = true
			p.next()
		}
		p.expectKw("for")
		gen.Target = p.exprList()
		p.setCtx(gen.Target, ast.Store)
		p.expectKw("in")
		gen.Iter = p.orTest()
		for p.acceptKw("if") {
			gen.Ifs = append(gen.Ifs, p.testNoCond())
		}
		gen.Loc = ast.Span{Start: start, End: p.end}
		c.Generators = append(c.Generators, gen)
	}
	return c
}

func (p *parser) yieldExpr() ast.Expr {
	start := p.tok.Pos
	p.next()
	if p.acceptKw("from") {
		value := p.test()
		return &ast.YieldFrom{Base: ast.At(start, p.end), Value: value}
	}
	y := &ast.Yield{}
	if !p.atSeqEnd() {
		y.Value = p.testListStarExpr()
	}
	y.Loc = ast.Span{Start: start, End: p.end}
	return y
}

func (p *parser) atom() ast.Expr {
	start := p.tok.Pos
	switch p.tok.Type {
	case token.NAME:
		switch {
		case p.isKw("None"):
			p.next()
			return &ast.Constant{Base: ast.At(start, p.end), Kind: ast.ConstNone, Value: "None"}
		case p.isKw("True"):
			p.next()
			return &ast.Constant{Base: ast.At(start, p.end), Kind: ast.ConstTrue, Value: "True"}
		case p.isKw("False"):
			p.next()
			return &ast.Constant{Base: ast.At(start, p.end), Kind: ast.ConstFalse, Value: "False"}
		case p.isKeyword(p.tok.Text):
			p.fail("invalid syntax")
		}
		n := &ast.Name{Base: ast.At(start, p.tok.End), ID: p.tok.Text, Ctx: ast.Load}
		p.next()
		return n
	case token.NUMBER:
		text := p.tok.Text
		p.next()
		return &ast.Constant{Base: ast.At(start, p.end), Kind: ast.ConstNumber, Value: text}
	case token.STRING:
		kind := ast.ConstString
		if prefix := strings.ToLower(p.tok.Text[:strings.IndexAny(p.tok.Text, `'"`)]); strings.Contains(prefix, "b") {
			kind = ast.ConstBytes
		}
		var parts []string
		for p.tok.Type == token.STRING {
			parts = append(parts, p.tok.Text)
			p.next()
		}
		return &ast.Constant{Base: ast.At(start, p.end), Kind: kind, Value: strings.Join(parts, " ")}
	case token.OP:
		switch p.tok.Text {
		case "(":
			return p.parenAtom()
		case "[":
			return p.listAtom()
		case "{":
			return p.braceAtom()
		case "...":
			p.next()
			return &ast.Constant{Base: ast.At(start, p.end), Kind: ast.ConstEllipsis, Value: "..."}
		}
	}
	p.fail("invalid syntax")
	return nil
}

func (p *parser) parenAtom() ast.Expr {
	start := p.tok.Pos
	p.next()
	if p.acceptOp(")") {
		return &ast.Tuple{Base: ast.At(start, p.end)}
	}
	if p.isKw("yield") {
		y := p.yieldExpr()
		p.expectOp(")")
		return y
	}
	first := p.namedOrStar()
	if p.isCompFor() {
		c := p.comprehension(ast.GeneratorExp, first, nil)
		p.expectOp(")")
		c.Loc = ast.Span{Start: start, End: p.end}
		return c
	}
	if !p.isOp(",") {
		p.expectOp(")")
		return first
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp(")") {
			break
		}
		elts = append(elts, p.namedOrStar())
	}
	p.expectOp(")")
	return &ast.Tuple{Base: ast.At(start, p.end), Elts: elts}
}

func (p *parser) listAtom() ast.Expr {
	start := p.tok.Pos
	p.next()
	if p.acceptOp("]") {
		return &ast.List{Base: ast.At(start, p.end)}
	}
	first := p.namedOrStar()
	if p.isCompFor() {
		c := p.comprehension(ast.ListComp, first, nil)
		p.expectOp("]")
		c.Loc = ast.Span{Start: start, End: p.end}
		return c
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		elts = append(elts, p.namedOrStar())
	}
	p.expectOp("]")
	return &ast.List{Base: ast.At(start, p.end), Elts: elts}
}

func (p *parser) braceAtom() ast.Expr {
	start := p.tok.Pos
	p.next()
	if p.acceptOp("}") {
		return &ast.Dict{Base: ast.At(start, p.end)}
	}
	if p.acceptOp("**") {
		return p.dictRest(start, nil, p.expr())
	}
	first := p.namedOrStar()
	if p.acceptOp(":") {
		value := p.test()
		if p.isCompFor() {
			c := p.comprehension(ast.DictComp, first, value)
			p.expectOp("}")
			c.Loc = ast.Span{Start: start, End: p.end}
			return c
		}
		return p.dictRest(start, first, value)
	}
	if p.isCompFor() {
		c := p.comprehension(ast.SetComp, first, nil)
		p.expectOp("}")
		c.Loc = ast.Span{Start: start, End: p.end}
		return c
	}
	elts := []ast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		elts = append(elts, p.namedOrStar())
	}
	p.expectOp("}")
	return &ast.Set{Base: ast.At(start, p.end), Elts: elts}
}

func (p *parser) dictRest(start int, key, value ast.Expr) ast.Expr {
	d := &ast.Dict{Keys: []ast.Expr{key}, Values: []ast.Expr{value}}
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		if p.acceptOp("**") {
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, p.expr())
			continue
		}
		k := p.test()
		p.expectOp(":")
		d.Keys = append(d.Keys, k)
		d.Values = append(d.Values, p.test())
	}
	p.expectOp("}")
	d.Loc = ast.Span{Start: start, End: p.end}
	return d
}
