// Copyright © 2024 The pyscope authors

package parser

import (
	"testing"

	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	py27 = version.MustParse("2.7")
	py37 = version.MustParse("3.7")
	py38 = version.MustParse("3.8")
)

func parse(t *testing.T, src string, v version.Version) *ast.Module {
	t.Helper()
	var sink diagnostic.Sink
	mod := Parse("test.py", []byte(src), v, &sink)
	require.Equal(t, 0, sink.Len(), "unexpected diagnostics: %v", sink.Items())
	return mod
}

func parseErrors(src string, v version.Version) (*ast.Module, []diagnostic.Diagnostic) {
	var sink diagnostic.Sink
	mod := Parse("test.py", []byte(src), v, &sink)
	return mod, sink.Items()
}

// --- Statements ---

func TestParseAssign(t *testing.T) {
	mod := parse(t, "a = b = 1\nx, *y = z\n", py38)
	require.Len(t, mod.Body, 2)

	assign := mod.Body[0].(*ast.Assign)
	require.Len(t, assign.Targets, 2)
	assert.Equal(t, "a", assign.Targets[0].(*ast.Name).ID)
	assert.Equal(t, ast.Store, assign.Targets[1].(*ast.Name).Ctx)
	assert.Equal(t, "1", assign.Value.(*ast.Constant).Value)

	unpack := mod.Body[1].(*ast.Assign)
	tuple := unpack.Targets[0].(*ast.Tuple)
	require.Len(t, tuple.Elts, 2)
	star := tuple.Elts[1].(*ast.Starred)
	assert.Equal(t, ast.Store, star.Value.(*ast.Name).Ctx)
	assert.Equal(t, ast.Load, unpack.Value.(*ast.Name).Ctx)
}

func TestParseAugAndAnnAssign(t *testing.T) {
	mod := parse(t, "x += 1\ny: int = 2\nz: str\n", py38)
	aug := mod.Body[0].(*ast.AugAssign)
	assert.Equal(t, "+=", aug.Op)
	assert.Equal(t, ast.Store, aug.Target.(*ast.Name).Ctx)

	ann := mod.Body[1].(*ast.AnnAssign)
	assert.Equal(t, "int", ann.Annotation.(*ast.Name).ID)
	assert.NotNil(t, ann.Value)
	assert.Nil(t, mod.Body[2].(*ast.AnnAssign).Value)
}

func TestParseFunctionDef(t *testing.T) {
	src := "@dec\nasync def f(a, b=1, /, c: int = 2, *args, d, e=3, **kw) -> R:\n    return a\n"
	mod := parse(t, src, py38)
	fn := mod.Body[0].(*ast.FunctionDef)
	assert.Equal(t, "f", fn.Name.ID)
	assert.True(t, fn.IsAsync)
	require.Len(t, fn.Decorators, 1)
	assert.Equal(t, "R", fn.Returns.(*ast.Name).ID)
	assert.Equal(t, 0, fn.Span().Start)

	kinds := map[string]ast.ParamKind{}
	for _, p := range fn.Params {
		kinds[p.Name.ID] = p.Kind
	}
	assert.Equal(t, map[string]ast.ParamKind{
		"a":    ast.ParamPosOnly,
		"b":    ast.ParamPosOnly,
		"c":    ast.ParamPositional,
		"args": ast.ParamVarArgs,
		"d":    ast.ParamKwOnly,
		"e":    ast.ParamKwOnly,
		"kw":   ast.ParamKwArgs,
	}, kinds)
	assert.NotNil(t, fn.Params[2].Annotation)
	assert.NotNil(t, fn.Params[2].Default)
	require.Len(t, fn.Body, 1)
	assert.IsType(t, &ast.Return{}, fn.Body[0])
}

func TestParseBareStar(t *testing.T) {
	mod := parse(t, "def f(a, *, b): pass\n", py38)
	fn := mod.Body[0].(*ast.FunctionDef)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, ast.ParamKwOnly, fn.Params[1].Kind)
}

func TestParseClassDef(t *testing.T) {
	mod := parse(t, "class C(Base, metaclass=M):\n    \"\"\"doc\"\"\"\n    x = 1\n", py38)
	cls := mod.Body[0].(*ast.ClassDef)
	assert.Equal(t, "C", cls.Name.ID)
	require.Len(t, cls.Bases, 1)
	require.Len(t, cls.Keywords, 1)
	assert.Equal(t, "metaclass", cls.Keywords[0].Arg)
	assert.NotNil(t, ast.Docstring(cls.Body))
}

func TestParseControlFlow(t *testing.T) {
	src := `if a:
    pass
elif b:
    pass
else:
    pass
while c:
    break
else:
    pass
for i, j in k:
    continue
try:
    pass
except ValueError as e:
    pass
except:
    pass
else:
    pass
finally:
    pass
with open(f) as fh, lock:
    pass
`
	mod := parse(t, src, py38)
	require.Len(t, mod.Body, 5)

	ifs := mod.Body[0].(*ast.If)
	elif := ifs.Else[0].(*ast.If)
	assert.Len(t, elif.Else, 1)

	forStmt := mod.Body[2].(*ast.For)
	assert.Equal(t, ast.Store, forStmt.Target.(*ast.Tuple).Ctx)

	try := mod.Body[3].(*ast.Try)
	require.Len(t, try.Handlers, 2)
	assert.Equal(t, "e", try.Handlers[0].Name.(*ast.Name).ID)
	assert.Nil(t, try.Handlers[1].Type)
	assert.Len(t, try.Else, 1)
	assert.Len(t, try.Finally, 1)

	with := mod.Body[4].(*ast.With)
	require.Len(t, with.Items, 2)
	assert.Equal(t, "fh", with.Items[0].Target.(*ast.Name).ID)
	assert.Nil(t, with.Items[1].Target)
}

func TestParseImports(t *testing.T) {
	mod := parse(t, "import os.path, sys as system\nfrom ..pkg import (a, b as c,)\nfrom m import *\n", py38)
	imp := mod.Body[0].(*ast.Import)
	require.Len(t, imp.Names, 2)
	assert.Equal(t, "os.path", imp.Names[0].Name)
	assert.Equal(t, "os", imp.Names[0].Target.ID)
	assert.Equal(t, "system", imp.Names[1].Target.ID)

	from := mod.Body[1].(*ast.ImportFrom)
	assert.Equal(t, 2, from.Level)
	assert.Equal(t, "pkg", from.Module)
	require.Len(t, from.Names, 2)
	assert.Equal(t, "c", from.Names[1].Target.ID)

	star := mod.Body[2].(*ast.ImportFrom)
	assert.True(t, star.Star)
	assert.Empty(t, star.Names)
}

func TestParseGlobalNonlocalDel(t *testing.T) {
	mod := parse(t, "def f():\n    global a, b\n    nonlocal c\n    del d, e[0]\n", py38)
	body := mod.Body[0].(*ast.FunctionDef).Body
	require.Len(t, body, 3)
	assert.Len(t, body[0].(*ast.Global).Names, 2)
	assert.Equal(t, "c", body[1].(*ast.Nonlocal).Names[0].ID)
	del := body[2].(*ast.Delete)
	require.Len(t, del.Targets, 2)
	assert.Equal(t, ast.Del, del.Targets[0].(*ast.Name).Ctx)
	assert.Equal(t, ast.Del, del.Targets[1].(*ast.Subscript).Ctx)
}

func TestParseSemicolons(t *testing.T) {
	mod := parse(t, "a = 1; b = 2;\n", py38)
	assert.Len(t, mod.Body, 2)
}

// --- Expressions ---

func TestParseComprehensions(t *testing.T) {
	mod := parse(t, "[y for x in seq if (y := x)]\n{k: v for k, v in d}\n{s for s in t}\n(g for g in h)\nf(a for a in b)\n", py38)

	list := mod.Body[0].(*ast.ExprStmt).Value.(*ast.Comprehension)
	assert.Equal(t, ast.ListComp, list.Kind)
	require.Len(t, list.Generators, 1)
	assert.Equal(t, ast.Store, list.Generators[0].Target.(*ast.Name).Ctx)
	named := list.Generators[0].Ifs[0].(*ast.NamedExpr)
	assert.Equal(t, "y", named.Target.ID)

	dict := mod.Body[1].(*ast.ExprStmt).Value.(*ast.Comprehension)
	assert.Equal(t, ast.DictComp, dict.Kind)
	assert.NotNil(t, dict.Value)

	assert.Equal(t, ast.SetComp, mod.Body[2].(*ast.ExprStmt).Value.(*ast.Comprehension).Kind)
	assert.Equal(t, ast.GeneratorExp, mod.Body[3].(*ast.ExprStmt).Value.(*ast.Comprehension).Kind)

	call := mod.Body[4].(*ast.ExprStmt).Value.(*ast.Call)
	require.Len(t, call.Args, 1)
	assert.Equal(t, ast.GeneratorExp, call.Args[0].(*ast.Comprehension).Kind)
}

func TestParseNestedComprehensionClauses(t *testing.T) {
	mod := parse(t, "[x for a in b if a for x in a if x if y]\n", py38)
	c := mod.Body[0].(*ast.ExprStmt).Value.(*ast.Comprehension)
	require.Len(t, c.Generators, 2)
	assert.Len(t, c.Generators[0].Ifs, 1)
	assert.Len(t, c.Generators[1].Ifs, 2)
}

func TestParseNamedExprVersion(t *testing.T) {
	_, diags := parseErrors("if (n := 10) > 5:\n    pass\n", py37)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "assignment expressions are not supported")

	mod := parse(t, "if (n := 10) > 5:\n    pass\n", py38)
	cmp := mod.Body[0].(*ast.If).Test.(*ast.Compare)
	assert.IsType(t, &ast.NamedExpr{}, cmp.Left)
}

func TestParseCallsAndTrailers(t *testing.T) {
	expr := ParseExpr("f(a, *b, c=1, **d).attr[1:2, ::3]", py38, nil)
	sub := expr.(*ast.Subscript)
	tuple := sub.Index.(*ast.Tuple)
	require.Len(t, tuple.Elts, 2)
	slice := tuple.Elts[1].(*ast.Slice)
	assert.Nil(t, slice.Lower)
	assert.NotNil(t, slice.Step)

	attr := sub.Value.(*ast.Attribute)
	assert.Equal(t, "attr", attr.Attr)
	call := attr.Value.(*ast.Call)
	require.Len(t, call.Args, 2)
	assert.IsType(t, &ast.Starred{}, call.Args[1])
	require.Len(t, call.Keywords, 2)
	assert.Equal(t, "c", call.Keywords[0].Arg)
	assert.Equal(t, "", call.Keywords[1].Arg)
}

func TestParseOperators(t *testing.T) {
	expr := ParseExpr("not a or b and c < d not in e is not f", py38, nil)
	or := expr.(*ast.BoolOp)
	assert.Equal(t, "or", or.Op)
	and := or.Values[1].(*ast.BoolOp)
	cmp := and.Values[1].(*ast.Compare)
	assert.Equal(t, []string{"<", "not in", "is not"}, cmp.Ops)

	expr = ParseExpr("1 + 2 * -3 ** 2", py38, nil)
	add := expr.(*ast.BinOp)
	assert.Equal(t, "+", add.Op)
	mul := add.Right.(*ast.BinOp)
	assert.Equal(t, "*", mul.Op)
	neg := mul.Right.(*ast.UnaryOp)
	assert.Equal(t, "**", neg.Operand.(*ast.BinOp).Op)
}

func TestParseLambdaAndIfExp(t *testing.T) {
	expr := ParseExpr("lambda x, *r, k=1: x if k else r", py38, nil)
	lam := expr.(*ast.Lambda)
	require.Len(t, lam.Params, 3)
	assert.IsType(t, &ast.IfExp{}, lam.Body)
}

func TestParseLiterals(t *testing.T) {
	expr := ParseExpr("{'a': 1, **m, 'b': [None, True, ..., b'x' b'y']}", py38, nil)
	dict := expr.(*ast.Dict)
	require.Len(t, dict.Keys, 3)
	assert.Nil(t, dict.Keys[1])
	list := dict.Values[2].(*ast.List)
	assert.Equal(t, ast.ConstNone, list.Elts[0].(*ast.Constant).Kind)
	assert.Equal(t, ast.ConstEllipsis, list.Elts[2].(*ast.Constant).Kind)
	assert.Equal(t, ast.ConstBytes, list.Elts[3].(*ast.Constant).Kind)

	assert.IsType(t, &ast.Set{}, ParseExpr("{1, 2}", py38, nil))
	assert.IsType(t, &ast.Tuple{}, ParseExpr("()", py38, nil))
}

func TestParseYieldAndAwait(t *testing.T) {
	mod := parse(t, "async def f():\n    x = yield\n    yield from g()\n    await h()\n", py38)
	body := mod.Body[0].(*ast.FunctionDef).Body
	assert.IsType(t, &ast.Yield{}, body[0].(*ast.Assign).Value)
	assert.IsType(t, &ast.YieldFrom{}, body[1].(*ast.ExprStmt).Value)
	assert.IsType(t, &ast.Await{}, body[2].(*ast.ExprStmt).Value)
}

// --- Version 2 syntax ---

func TestParsePy2Statements(t *testing.T) {
	src := "print >>f, a, b,\nexec code in g, l\nexec(code, g)\ntry:\n    pass\nexcept E, e:\n    pass\nraise E, V\n"
	mod := parse(t, src, py27)
	require.Len(t, mod.Body, 5)

	pr := mod.Body[0].(*ast.Print)
	assert.NotNil(t, pr.Dest)
	assert.Len(t, pr.Values, 2)
	assert.True(t, pr.NoNewline)

	ex := mod.Body[1].(*ast.Exec)
	assert.NotNil(t, ex.Globals)
	assert.NotNil(t, ex.Locals)

	tupleForm := mod.Body[2].(*ast.Exec)
	assert.NotNil(t, tupleForm.Globals)
	assert.Nil(t, tupleForm.Locals)

	handler := mod.Body[3].(*ast.Try).Handlers[0]
	assert.Equal(t, ast.Store, handler.Name.(*ast.Name).Ctx)

	assert.Len(t, mod.Body[4].(*ast.Raise).Extra, 1)
}

func TestParsePrintFunctionFuture(t *testing.T) {
	mod := parse(t, "from __future__ import print_function\nprint('x', file=f)\n", py27)
	assert.IsType(t, &ast.Call{}, mod.Body[1].(*ast.ExprStmt).Value)
}

func TestParseNonlocalIsNameInPy2(t *testing.T) {
	mod := parse(t, "nonlocal = 1\n", py27)
	assert.IsType(t, &ast.Assign{}, mod.Body[0])
}

func TestParseTupleParams(t *testing.T) {
	mod := parse(t, "def f(a, (b, (c, d)), (e)):\n    return b\ng = lambda (x, y), z=1: x\n", py27)
	fn := mod.Body[0].(*ast.FunctionDef)
	require.Len(t, fn.Params, 3)
	assert.Equal(t, "a", fn.Params[0].Name.ID)

	sub := fn.Params[1]
	assert.Nil(t, sub.Name)
	outer := sub.Target.(*ast.Tuple)
	assert.Equal(t, ast.Store, outer.Ctx)
	require.Len(t, outer.Elts, 2)
	assert.Equal(t, "b", outer.Elts[0].(*ast.Name).ID)
	assert.Len(t, outer.Elts[1].(*ast.Tuple).Elts, 2)
	assert.Equal(t, ast.Span{Start: 9, End: 20}, outer.Span())

	assert.Equal(t, "e", fn.Params[2].Name.ID, "a parenthesized name is a plain parameter")
	assert.Nil(t, fn.Params[2].Target)

	lam := mod.Body[1].(*ast.Assign).Value.(*ast.Lambda)
	require.Len(t, lam.Params, 2)
	assert.Len(t, lam.Params[0].Target.(*ast.Tuple).Elts, 2)
	assert.NotNil(t, lam.Params[1].Default)
	assert.Contains(t, ast.Children(lam.Params[0]), ast.Node(lam.Params[0].Target))
}

func TestParseTupleParamsRejectedInPy3(t *testing.T) {
	_, diags := parseErrors("def f(a, (b, c)):\n    pass\n", py38)
	require.NotEmpty(t, diags)
	assert.Equal(t, "expected name, found '('", diags[0].Message)
}

// --- Error recovery ---

func TestParseRecovery(t *testing.T) {
	src := "x = 1 +\ny = 2\ndef f:\n    z = 3\nw = 4\n"
	mod, diags := parseErrors(src, py38)
	require.NotEmpty(t, diags)
	for _, d := range diags {
		assert.Equal(t, CodeSyntax, d.Code)
		assert.Equal(t, diagnostic.SeverityError, d.Severity)
	}
	var bad, assigns int
	for _, s := range mod.Body {
		switch s.(type) {
		case *ast.BadStmt:
			bad++
		case *ast.Assign:
			assigns++
		}
	}
	assert.Equal(t, 2, bad)
	assert.Equal(t, 2, assigns)
	last, ok := mod.Body[len(mod.Body)-1].(*ast.Assign)
	require.True(t, ok, "parsing resumes after errors")
	assert.Equal(t, "w", last.Targets[0].(*ast.Name).ID)
}

func TestParseInvalidTargets(t *testing.T) {
	_, diags := parseErrors("f() = 1\n", py38)
	require.Len(t, diags, 1)
	assert.Equal(t, "cannot assign to function call", diags[0].Message)

	_, diags = parseErrors("del 1\n", py38)
	require.Len(t, diags, 1)
	assert.Equal(t, "cannot delete literal", diags[0].Message)
}

func TestParseUnexpectedIndent(t *testing.T) {
	mod, diags := parseErrors("a = 1\n    b = 2\nc = 3\n", py38)
	require.Len(t, diags, 1)
	assert.Equal(t, "unexpected indent", diags[0].Message)
	assert.IsType(t, &ast.Assign{}, mod.Body[len(mod.Body)-1])
}

func TestParseLexicalError(t *testing.T) {
	mod, diags := parseErrors("s = 'abc\nt = 1\n", py38)
	require.NotEmpty(t, diags)
	assert.Equal(t, "unterminated string literal", diags[0].Message)
	assert.Equal(t, 1, diags[0].Spans[0].Line)
	last := mod.Body[len(mod.Body)-1].(*ast.Assign)
	assert.Equal(t, "t", last.Targets[0].(*ast.Name).ID)
}

func TestParseSpans(t *testing.T) {
	mod := parse(t, "def f(x):\n    return x\n", py38)
	fn := mod.Body[0].(*ast.FunctionDef)
	assert.Equal(t, ast.Span{Start: 4, End: 5}, fn.Name.Span())
	assert.Equal(t, ast.Span{Start: 6, End: 7}, fn.Params[0].Name.Span())
	ret := fn.Body[0].(*ast.Return)
	assert.Equal(t, ast.Span{Start: 14, End: 22}, ret.Span())
	assert.Equal(t, 0, fn.Span().Start)
	assert.Equal(t, 22, fn.Span().End)
}
