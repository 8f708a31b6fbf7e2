// Copyright © 2024 The pyscope authors

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Resolution ---

func TestBind_Closure(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    x = 1
    def g():
        return x
`, "3.12")
	f := scopeNamed(t, snap, "f")
	g := scopeNamed(t, snap, "g")

	x := varIn(snap, f, "x")
	require.NotNil(t, x)
	assert.Equal(t, VarLocal, x.Kind)
	assert.True(t, x.AccessedInNestedScope)
	assert.Equal(t, []string{"x"}, names(snap, f.CellVars))
	assert.Equal(t, []string{"x"}, names(snap, g.FreeVars))
	assert.True(t, g.IsClosure())
	assert.True(t, f.ContainsNestedFreeVariables)
	assert.Nil(t, varIn(snap, g, "x"))

	refs := refsIn(snap, g, "x")
	require.Len(t, refs, 1)
	assert.Equal(t, x.ID, refs[0].Var)
	assert.Empty(t, snap.Diagnostics())
}

func TestBind_GlobalDeclaration(t *testing.T) {
	snap := parseAndBind(t, `
x = 1
def f():
    global x
    x = 2
`, "3.12")
	root := snap.Root()
	f := scopeNamed(t, snap, "f")
	x := varIn(snap, root, "x")
	require.NotNil(t, x)
	assert.Equal(t, VarGlobal, x.Kind)
	assert.True(t, x.Bound)

	for _, r := range refsIn(snap, f, "x") {
		assert.Equal(t, x.ID, r.Var, "reference at %v", r.Span())
	}
	assert.Equal(t, []string{"x"}, names(snap, f.ReferencedGlobals))
	assert.Empty(t, f.FreeVars)
	assert.Empty(t, snap.Diagnostics())
}

func TestBind_GlobalDeclarationBindsModule(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    global counter
    counter = 0
`, "3.12")
	counter := varIn(snap, snap.Root(), "counter")
	require.NotNil(t, counter)
	assert.True(t, counter.Bound)
	assert.False(t, counter.Inferred)
	require.NotNil(t, counter.Def)
	assert.Equal(t, "counter", counter.Def.ID)
}

func TestBind_NonlocalWithoutBinding(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    nonlocal z
`, "3.12")
	assert.Equal(t, []string{CodeNonlocalUnbound}, diagCodes(snap))
	assert.Equal(t, "no binding for nonlocal 'z' found", snap.Diagnostics()[0].Message)
}

func TestBind_Nonlocal(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    y = 0
    def g():
        nonlocal y
        y = 1
    return y
`, "3.12")
	f := scopeNamed(t, snap, "f")
	g := scopeNamed(t, snap, "g")
	y := varIn(snap, f, "y")
	require.NotNil(t, y)
	assert.Equal(t, []string{"y"}, names(snap, f.CellVars))
	assert.Equal(t, []string{"y"}, names(snap, g.FreeVars))
	assert.Equal(t, VarNonlocal, varIn(snap, g, "y").Kind)
	for _, r := range refsIn(snap, g, "y") {
		assert.Equal(t, y.ID, r.Var)
	}
	assert.Empty(t, snap.Diagnostics())
}

func TestBind_NonlocalSkipsClassAndModule(t *testing.T) {
	snap := parseAndBind(t, `
x = 0
class A:
    x = 1
    def m(self):
        nonlocal x
`, "3.12")
	assert.Equal(t, []string{CodeNonlocalUnbound}, diagCodes(snap))
}

func TestBind_ImportStarMakesNamesDynamic(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    from os import *
    return path
`, "3.12")
	f := scopeNamed(t, snap, "f")
	assert.True(t, f.ContainsImportStar)
	assert.True(t, f.NeedsDynamicLocals)
	assert.True(t, f.HasLateBoundAssignment)

	refs := refsIn(snap, f, "path")
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Dynamic)
	assert.False(t, refs[0].Var.IsValid())
	assert.Nil(t, varIn(snap, snap.Root(), "path"))
}

func TestBind_InferredGlobals(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    return foo
def g():
    from os import *
    return foo
`, "3.12")
	foo := varIn(snap, snap.Root(), "foo")
	require.NotNil(t, foo)
	assert.True(t, foo.Inferred)
	assert.False(t, foo.Bound)

	fRefs := refsIn(snap, scopeNamed(t, snap, "f"), "foo")
	require.Len(t, fRefs, 1)
	assert.Equal(t, foo.ID, fRefs[0].Var)

	gRefs := refsIn(snap, scopeNamed(t, snap, "g"), "foo")
	require.Len(t, gRefs, 1)
	assert.True(t, gRefs[0].Dynamic, "an inferred global must not satisfy a late bound scope")
}

func TestBind_ModuleDefinitionsAreGlobal(t *testing.T) {
	snap := parseAndBind(t, `
import os
x = 1
def f(): pass
class C: pass
for i in range(3): pass
`, "3.12")
	for _, name := range []string{"os", "x", "f", "C", "i"} {
		v := varIn(snap, snap.Root(), name)
		require.NotNil(t, v, name)
		assert.Equal(t, VarGlobal, v.Kind, name)
		assert.True(t, v.Bound, name)
	}
	rng := varIn(snap, snap.Root(), "range")
	require.NotNil(t, rng)
	assert.True(t, rng.Inferred)
}

func TestBind_Parameters(t *testing.T) {
	snap := parseAndBind(t, `
def f(a, b=c, *args, d, **kw):
    return a
`, "3.12")
	f := scopeNamed(t, snap, "f")
	for _, name := range []string{"a", "b", "args", "d", "kw"} {
		v := varIn(snap, f, name)
		require.NotNil(t, v, name)
		assert.Equal(t, VarParameter, v.Kind, name)
	}
	// defaults are evaluated in the enclosing scope
	assert.Len(t, refsIn(snap, snap.Root(), "c"), 1)
	assert.Empty(t, refsIn(snap, f, "c"))
}

func TestBind_TupleParameters(t *testing.T) {
	snap := parseAndBind(t, `
def f(a, (b, (c, d))):
    def g():
        return c
    return b + d
h = lambda (x, y): x
`, "2.7")
	assert.Empty(t, snap.Diagnostics())
	f := scopeNamed(t, snap, "f")
	for _, name := range []string{"a", "b", "c", "d"} {
		v := varIn(snap, f, name)
		require.NotNil(t, v, name)
		assert.Equal(t, VarParameter, v.Kind, name)
		assert.True(t, v.Bound, name)
		require.Len(t, refsIn(snap, f, name), 1+map[string]int{"b": 1, "d": 1}[name], name)
	}
	assert.Equal(t, []string{"c"}, names(snap, f.CellVars))
	assert.Equal(t, []string{"c"}, names(snap, scopeNamed(t, snap, "g").FreeVars))

	l := scopeNamed(t, snap, "<lambda>")
	assert.Equal(t, VarParameter, varIn(snap, l, "x").Kind)
	assert.Equal(t, VarParameter, varIn(snap, l, "y").Kind)
	assert.Nil(t, varIn(snap, snap.Root(), "y"))
}

func TestBind_Lambda(t *testing.T) {
	snap := parseAndBind(t, `
def f(y):
    return lambda x: x + y
`, "3.12")
	l := scopeNamed(t, snap, "<lambda>")
	assert.Equal(t, ScopeLambda, l.Kind)
	assert.Equal(t, VarParameter, varIn(snap, l, "x").Kind)
	assert.Equal(t, []string{"y"}, names(snap, l.FreeVars))
	assert.Equal(t, []string{"y"}, names(snap, scopeNamed(t, snap, "f").CellVars))
}

func TestBind_AugAssignMakesLocal(t *testing.T) {
	snap := parseAndBind(t, `
x = 1
def f():
    x += 1
`, "3.12")
	f := scopeNamed(t, snap, "f")
	x := varIn(snap, f, "x")
	require.NotNil(t, x)
	assert.Equal(t, VarLocal, x.Kind)
	refs := refsIn(snap, f, "x")
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Access.Has(AccessRead|AccessWrite))
}

func TestBind_BindingStatements(t *testing.T) {
	snap := parseAndBind(t, `
def f(m):
    for a, (b, *c) in m: pass
    with open(m) as d: pass
    try:
        pass
    except ValueError as e:
        pass
    import os.path
    from sys import argv as av
    if m:
        g = 1
    del h
`, "3.12")
	f := scopeNamed(t, snap, "f")
	for _, name := range []string{"a", "b", "c", "d", "e", "os", "av", "g", "h"} {
		v := varIn(snap, f, name)
		require.NotNil(t, v, name)
		assert.Equal(t, VarLocal, v.Kind, name)
	}
	h := varIn(snap, f, "h")
	assert.True(t, h.Deleted)
	assert.False(t, h.Bound)
	assert.Nil(t, varIn(snap, f, "sys"))
}

func TestBind_AnnotationOnlyIsLocal(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    x: int
    return x
`, "3.12")
	f := scopeNamed(t, snap, "f")
	x := varIn(snap, f, "x")
	require.NotNil(t, x)
	assert.False(t, x.Bound)
	for _, r := range refsIn(snap, f, "x") {
		assert.Equal(t, x.ID, r.Var)
	}
}

// --- Classes ---

func TestBind_ClassBodyNotVisibleToMethods(t *testing.T) {
	snap := parseAndBind(t, `
class A:
    y = 1
    def m(self):
        return y
`, "3.12")
	a := scopeNamed(t, snap, "A")
	m := scopeNamed(t, snap, "m")
	classY := varIn(snap, a, "y")
	require.NotNil(t, classY)
	assert.False(t, classY.AccessedInNestedScope)

	refs := refsIn(snap, m, "y")
	require.Len(t, refs, 1)
	v := snap.Variable(refs[0].Var)
	require.NotNil(t, v)
	assert.Equal(t, snap.Root().ID, v.Scope)
	assert.Empty(t, m.FreeVars)
}

func TestBind_ClassPropagatesFreeVariables(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    x = 1
    class A:
        def m(self):
            return x
`, "3.12")
	assert.Equal(t, []string{"x"}, names(snap, scopeNamed(t, snap, "A").FreeVars))
	assert.Equal(t, []string{"x"}, names(snap, scopeNamed(t, snap, "m").FreeVars))
	assert.Equal(t, []string{"x"}, names(snap, scopeNamed(t, snap, "f").CellVars))
}

func TestBind_ClassImplicitNames(t *testing.T) {
	tests := []struct {
		version string
		want    []string
	}{
		{"3.12", []string{"__module__", "__qualname__", "__doc__", "__class__", "z"}},
		{"3.2", []string{"__module__", "__doc__", "__class__", "z"}},
		{"2.7", []string{"__module__", "__doc__", "z"}},
	}
	for _, test := range tests {
		t.Run(test.version, func(t *testing.T) {
			snap := parseAndBind(t, "class A:\n    \"doc\"\n    z = 1\n", test.version)
			a := scopeNamed(t, snap, "A")
			assert.Equal(t, test.want, names(snap, a.Vars))
			for _, v := range snap.Names(a.ID)[:len(test.want)-1] {
				assert.True(t, v.Implicit, v.Name)
			}
		})
	}
}

func TestBind_SuperUsesClassCell(t *testing.T) {
	src := `
class A:
    def m(self):
        return super().m()
`
	snap := parseAndBind(t, src, "3.12")
	assert.Equal(t, []string{"__class__"}, names(snap, scopeNamed(t, snap, "m").FreeVars))
	assert.Equal(t, []string{"__class__"}, names(snap, scopeNamed(t, snap, "A").CellVars))

	snap = parseAndBind(t, src, "2.7")
	assert.Empty(t, scopeNamed(t, snap, "m").FreeVars)
	assert.Empty(t, scopeNamed(t, snap, "A").CellVars)
}

// --- Comprehensions ---

func TestBind_ComprehensionScope(t *testing.T) {
	snap := parseAndBind(t, `
def f(seq):
    [x for x in seq]
    return x
`, "3.12")
	comp := scopeNamed(t, snap, "<listcomp>")
	f := scopeNamed(t, snap, "f")
	assert.Equal(t, ScopeComprehension, comp.Kind)
	assert.NotNil(t, varIn(snap, comp, "x"))
	assert.Nil(t, varIn(snap, f, "x"))
	// the outermost iterable is evaluated in the enclosing scope
	assert.Len(t, refsIn(snap, f, "seq"), 1)
	assert.Empty(t, refsIn(snap, comp, "seq"))
}

func TestBind_ListComprehensionLeaksBefore3(t *testing.T) {
	snap := parseAndBind(t, `
def f(seq):
    [x for x in seq]
    (y for y in seq)
    return x
`, "2.7")
	f := scopeNamed(t, snap, "f")
	assert.NotNil(t, varIn(snap, f, "x"))
	assert.Nil(t, varIn(snap, f, "y"))
	gen := scopeNamed(t, snap, "<genexpr>")
	assert.NotNil(t, varIn(snap, gen, "y"))
	for _, s := range snap.Scopes() {
		assert.NotEqual(t, "<listcomp>", s.Name)
	}
}

func TestBind_ComprehensionKinds(t *testing.T) {
	snap := parseAndBind(t, `
a = {k: v for k, v in items}
b = {e for e in items}
c = (g for g in items)
`, "3.12")
	for _, name := range []string{"<dictcomp>", "<setcomp>", "<genexpr>"} {
		assert.Equal(t, ScopeComprehension, scopeNamed(t, snap, name).Kind)
	}
}

func TestBind_NamedExprInComprehension(t *testing.T) {
	snap := parseAndBind(t, `
def f(seq):
    return [y for x in seq if (y := x)]
`, "3.12")
	f := scopeNamed(t, snap, "f")
	comp := scopeNamed(t, snap, "<listcomp>")
	y := varIn(snap, f, "y")
	require.NotNil(t, y)
	assert.Nil(t, varIn(snap, comp, "y"))
	assert.NotNil(t, varIn(snap, comp, "x"))
	assert.Equal(t, []string{"y"}, names(snap, comp.FreeVars))
	assert.Equal(t, []string{"y"}, names(snap, f.CellVars))
	for _, r := range refsIn(snap, comp, "y") {
		assert.Equal(t, y.ID, r.Var)
	}
	assert.Empty(t, snap.Diagnostics())
}

func TestBind_NamedExprAtModule(t *testing.T) {
	snap := parseAndBind(t, "[y for x in seq if (y := x)]\n", "3.12")
	y := varIn(snap, snap.Root(), "y")
	require.NotNil(t, y)
	assert.Equal(t, VarGlobal, y.Kind)
	assert.Empty(t, scopeNamed(t, snap, "<listcomp>").FreeVars)
}

func TestBind_NamedExprInOutermostIterable(t *testing.T) {
	snap := parseAndBind(t, "[x for x in (w := range(5))]\nprint(w)\n", "3.12")
	w := varIn(snap, snap.Root(), "w")
	require.NotNil(t, w)
	refs := refsIn(snap, snap.Root(), "w")
	require.Len(t, refs, 2)
	for _, r := range refs {
		assert.Equal(t, w.ID, r.Var)
	}
	assert.Empty(t, snap.Diagnostics())
}

func TestBind_NamedExprErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"iteration variable", "[x := 0 for x in range(5)]\n", CodeNamedExprIterVar},
		{"nested iteration variable", "[[x := 1 for y in b] for x in a]\n", CodeNamedExprIterVar},
		{"class body", "class A:\n    [(y := 1) for x in range(3)]\n", CodeNamedExprClass},
		{"inner iterable", "[x for a in b for x in (y := a)]\n", CodeNamedExprIterable},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			snap := parseAndBind(t, test.src, "3.12")
			assert.Equal(t, []string{test.code}, diagCodes(snap))
		})
	}
}

// --- Declarations ---

func TestBind_GlobalAfterAssign(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    x = 1
    def g():
        return x
    global x
`, "3.12")
	assert.Equal(t, []string{CodeGlobalAfterAssign}, diagCodes(snap))
	f := scopeNamed(t, snap, "f")
	g := scopeNamed(t, snap, "g")
	assert.Equal(t, VarGlobal, varIn(snap, f, "x").Kind)

	// The kind changed before resolution, so nothing was captured.
	assert.Empty(t, f.CellVars)
	assert.Empty(t, g.FreeVars)
	refs := refsIn(snap, g, "x")
	require.Len(t, refs, 1)
	modX := varIn(snap, snap.Root(), "x")
	require.NotNil(t, modX)
	assert.Equal(t, modX.ID, refs[0].Var)
	assert.True(t, modX.Bound)
}

func TestBind_GlobalInEnclosingFunction(t *testing.T) {
	snap := parseAndBind(t, `
x = 1
def f():
    def g():
        return x
    global x
`, "3.12")
	assert.Empty(t, snap.Diagnostics())
	g := scopeNamed(t, snap, "g")
	refs := refsIn(snap, g, "x")
	require.Len(t, refs, 1)
	assert.Equal(t, varIn(snap, snap.Root(), "x").ID, refs[0].Var)
	assert.Empty(t, g.FreeVars)
	assert.Empty(t, scopeNamed(t, snap, "f").CellVars)
}

func TestBind_DeclarationDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		codes []string
		msg   string
	}{
		{
			"global after use",
			"def f():\n    print(x)\n    global x\n",
			[]string{CodeGlobalAfterUse},
			"name 'x' is used prior to global declaration",
		},
		{
			"global parameter",
			"def f(x):\n    global x\n",
			[]string{CodeGlobalParam},
			"name 'x' is parameter and global",
		},
		{
			"nonlocal after assign",
			"def f():\n    x = 0\n    def g():\n        x = 1\n        nonlocal x\n",
			[]string{CodeNonlocalAfterAssign},
			"name 'x' is assigned to before nonlocal declaration",
		},
		{
			"nonlocal after use",
			"def f():\n    x = 0\n    def g():\n        print(x)\n        nonlocal x\n",
			[]string{CodeNonlocalAfterUse},
			"name 'x' is used prior to nonlocal declaration",
		},
		{
			"nonlocal parameter",
			"def f():\n    x = 0\n    def g(x):\n        nonlocal x\n",
			[]string{CodeNonlocalParam},
			"name 'x' is parameter and nonlocal",
		},
		{
			"nonlocal and global",
			"def f():\n    x = 0\n    def g():\n        global x\n        nonlocal x\n",
			[]string{CodeNonlocalGlobal},
			"name 'x' is nonlocal and global",
		},
		{
			"global and nonlocal",
			"def f():\n    x = 0\n    def g():\n        nonlocal x\n        global x\n",
			[]string{CodeNonlocalGlobal},
			"name 'x' is nonlocal and global",
		},
		{
			"nonlocal at module level",
			"nonlocal x\n",
			[]string{CodeNonlocalModule},
			"nonlocal declaration not allowed at module level",
		},
		{
			"repeated nonlocal",
			"def f():\n    x = 1\n    def g():\n        nonlocal x\n        nonlocal x\n",
			nil,
			"",
		},
		{
			"repeated global",
			"def f():\n    global a\n    global a\n    a = 1\n",
			nil,
			"",
		},
		{
			"global list",
			"def f():\n    global a, b\n    a = b = 1\n",
			nil,
			"",
		},
		{
			"global at module level",
			"global a, b\na = 1\n",
			nil,
			"",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			snap := parseAndBind(t, test.src, "3.12")
			require.Equal(t, test.codes, diagCodes(snap))
			if test.msg != "" {
				assert.Equal(t, test.msg, snap.Diagnostics()[0].Message)
			}
		})
	}
}

func TestBind_DiagnosticSpan(t *testing.T) {
	snap := parseAndBind(t, "def f(x):\n    global x\n", "3.12")
	diags := snap.Diagnostics()
	require.Len(t, diags, 1)
	require.Len(t, diags[0].Spans, 1)
	sp := diags[0].Spans[0]
	assert.Equal(t, "test.py", sp.File)
	assert.Equal(t, 2, sp.Line)
	assert.Equal(t, 12, sp.Col)
}

func TestBind_DiagnosticRelatedSpans(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		version string
		code    string
		line    int
		col     int
		label   string
	}{
		{
			"global after use",
			"def f():\n    print(x)\n    global x\n",
			"3.12",
			CodeGlobalAfterUse,
			2, 11, "used here",
		},
		{
			"nonlocal after use",
			"def f():\n    x = 0\n    def g():\n        print(x)\n        nonlocal x\n",
			"3.12",
			CodeNonlocalAfterUse,
			4, 15, "used here",
		},
		{
			"global after assign",
			"def f():\n    x = 1\n    global x\n",
			"3.12",
			CodeGlobalAfterAssign,
			2, 5, "assigned here",
		},
		{
			"nonlocal after assign",
			"def f():\n    x = 0\n    def g():\n        x = 1\n        nonlocal x\n",
			"3.12",
			CodeNonlocalAfterAssign,
			4, 9, "assigned here",
		},
		{
			"delete cell",
			"def f():\n    x = 1\n    def g():\n        return x\n    del x\n",
			"2.7",
			CodeDeleteCell,
			4, 16, "captured here",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			snap := parseAndBind(t, test.src, test.version)
			require.Equal(t, []string{test.code}, diagCodes(snap))
			spans := snap.Diagnostics()[0].Spans
			require.Len(t, spans, 2)
			assert.Empty(t, spans[0].Label)
			assert.Equal(t, test.line, spans[1].Line)
			assert.Equal(t, test.col, spans[1].Col)
			assert.Equal(t, test.label, spans[1].Label)
		})
	}
}

// --- Dynamic constructs ---

func TestBind_ImportStarClosure(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    x = 1
    def g():
        from os import *
        return x
`, "2.7")
	assert.Equal(t, []string{CodeImportStarClosure}, diagCodes(snap))
	assert.Equal(t, "import * is not allowed in function 'g' because it is a nested function",
		snap.Diagnostics()[0].Message)
}

func TestBind_ImportStarNestedFree(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    from os import *
    x = 1
    def g():
        return x
`, "2.7")
	assert.Equal(t, []string{CodeImportStarNestedFree}, diagCodes(snap))
	assert.True(t, scopeNamed(t, snap, "f").ContainsNestedFreeVariables)
}

func TestBind_ExecStatement(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    x = 1
    def g():
        exec "y = 1"
        return x
`, "2.7")
	assert.Equal(t, []string{CodeExecClosure}, diagCodes(snap))
	g := scopeNamed(t, snap, "g")
	assert.True(t, g.ContainsUnqualifiedDynamicEval)
	assert.True(t, g.HasLateBoundAssignment)

	snap = parseAndBind(t, `
def f():
    exec "y = 1"
    x = 1
    def g():
        return x
`, "2.7")
	assert.Equal(t, []string{CodeExecNestedFree}, diagCodes(snap))

	snap = parseAndBind(t, `
def f(ns):
    x = 1
    def g():
        exec "y = 1" in ns, ns
        return x
`, "2.7")
	assert.Empty(t, snap.Diagnostics())
	g = scopeNamed(t, snap, "g")
	assert.False(t, g.ContainsUnqualifiedDynamicEval)
	assert.False(t, g.HasLateBoundAssignment)
}

func TestBind_ExecCall(t *testing.T) {
	snap := parseAndBind(t, `
def f():
    x = 1
    exec("y = 1")
    def g():
        return x
    return y
`, "3.12")
	f := scopeNamed(t, snap, "f")
	assert.True(t, f.ContainsUnqualifiedDynamicEval)
	assert.True(t, f.HasLateBoundAssignment)
	assert.True(t, f.NeedsDynamicLocals)
	assert.Empty(t, snap.Diagnostics())
	refs := refsIn(snap, f, "y")
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Dynamic)

	snap = parseAndBind(t, "def f(g):\n    exec('y = 1', g)\n", "3.12")
	f = scopeNamed(t, snap, "f")
	assert.False(t, f.ContainsUnqualifiedDynamicEval)
	assert.True(t, f.HasLateBoundAssignment)

	snap = parseAndBind(t, "def f(g, l):\n    exec('y = 1', g, locals=l)\n", "3.12")
	f = scopeNamed(t, snap, "f")
	assert.False(t, f.HasLateBoundAssignment)
}

func TestBind_Introspection(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"def f():\n    return locals()\n", true},
		{"def f():\n    return vars()\n", true},
		{"def f(a):\n    return dir(*a)\n", true},
		{"def f(a):\n    return dir(a)\n", false},
		{"def f(a):\n    return eval(a, {})\n", true},
		{"def f(a):\n    return obj.locals()\n", false},
	}
	for _, test := range tests {
		snap := parseAndBind(t, test.src, "3.12")
		assert.Equal(t, test.want, scopeNamed(t, snap, "f").NeedsDynamicLocals, test.src)
	}
}

func TestBind_DeleteCapturedVariable(t *testing.T) {
	src := `
def f():
    x = 1
    def g():
        return x
    del x
`
	for _, v := range []string{"2.7", "3.0", "3.1"} {
		snap := parseAndBind(t, src, v)
		assert.Equal(t, []string{CodeDeleteCell}, diagCodes(snap), v)
		assert.Equal(t, "can not delete variable 'x' referenced in nested scope", snap.Diagnostics()[0].Message)
	}
	for _, v := range []string{"3.2", "3.12"} {
		snap := parseAndBind(t, src, v)
		assert.Empty(t, snap.Diagnostics(), v)
	}
}

func TestBind_DeleteNonlocal(t *testing.T) {
	src := `
def f():
    x = 1
    def g():
        nonlocal x
        del x
`
	snap := parseAndBind(t, src, "3.1")
	assert.Equal(t, []string{CodeDeleteCell}, diagCodes(snap))
	snap = parseAndBind(t, src, "3.8")
	assert.Empty(t, snap.Diagnostics())
}

// --- Invariants ---

var invariantSources = []string{
	`
import os
from sys import *
x = 1
def outer(a, *b, **c):
    y = a
    class Inner:
        z = y
        def method(self):
            return super().method(z, y, x)
    def gen():
        nonlocal y
        yield [i + y for i in b if (w := i)]
    lambda q=1: q + y
    del a
    return {k: v for k, v in c.items()}, w
`,
	`
def f():
    global g
    g = lambda: g
    for (a, b) in [(1, 2)]:
        with a as (c, d):
            pass
    try:
        pass
    except Exception as e:
        raise
    return locals()
`,
}

func TestBind_Invariants(t *testing.T) {
	for _, src := range invariantSources {
		snap := parseAndBind(t, src, "3.12")

		// every name occurrence has exactly one reference
		for _, n := range allNames(snap.Module()) {
			r := snap.ReferenceFor(n)
			if assert.NotNil(t, r, "no reference for %s at %v", n.ID, n.Span()) {
				assert.Same(t, n, r.Node)
			}
		}
		for _, r := range snap.References() {
			// resolved or dynamic, never both
			assert.NotEqual(t, r.Var.IsValid(), r.Dynamic, "reference %s at %v", r.Name, r.Span())
			if v := snap.Variable(r.Var); v != nil {
				assert.Equal(t, r.Name, v.Name)
			}
		}
		for _, s := range snap.Scopes() {
			seen := make(map[string]bool)
			for _, v := range snap.Names(s.ID) {
				assert.False(t, seen[v.Name], "duplicate variable %s in %s", v.Name, s.Name)
				seen[v.Name] = true
				assert.Equal(t, s.ID, v.Scope)
			}
			for _, v := range snap.FreeVars(s.ID) {
				assert.NotEqual(t, s.ID, v.Scope)
				assert.True(t, isAncestor(snap, v.Scope, s.ID), "free %s in %s", v.Name, s.Name)
				assert.True(t, v.AccessedInNestedScope)
			}
			for _, v := range snap.CellVars(s.ID) {
				assert.Equal(t, s.ID, v.Scope)
				assert.True(t, v.AccessedInNestedScope)
			}
			if s.Kind == ScopeModule {
				assert.Empty(t, s.FreeVars)
				assert.Empty(t, s.CellVars)
			}
		}
	}
}

func isAncestor(snap *Snapshot, anc, id ScopeID) bool {
	for s := snap.Scope(snap.Scope(id).Parent); s != nil; s = snap.Scope(s.Parent) {
		if s.ID == anc {
			return true
		}
	}
	return false
}

func TestBind_Idempotent(t *testing.T) {
	for _, src := range invariantSources {
		a := parseAndBind(t, src, "3.12")
		b := parseAndBind(t, src, "3.12")
		assert.Equal(t, dump(a), dump(b))

		c, err := Bind(t.Context(), a.Module(), Config{Version: a.Version()})
		require.NoError(t, err)
		assert.Equal(t, dump(a), dump(c))
	}
}
