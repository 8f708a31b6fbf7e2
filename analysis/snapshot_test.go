// Copyright © 2024 The pyscope authors

package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/parser"
	"github.com/luthersystems/pyscope/version"
)

const snapshotSource = `
def f(a):
    def g():
        return a
    return g
`

func parseModule(t *testing.T, src string) *ast.Module {
	t.Helper()
	var sink diagnostic.Sink
	mod := parser.Parse("test.py", []byte(src), version.Default, &sink)
	require.Empty(t, sink.Items())
	return mod
}

// --- Binder phases ---

func TestBinder_PhaseOrder(t *testing.T) {
	mod := parseModule(t, snapshotSource)
	b, err := NewBinder(mod, Config{})
	require.NoError(t, err)

	assert.ErrorIs(t, b.Resolve(), ErrPhaseOrder)
	assert.ErrorIs(t, b.Finish(), ErrPhaseOrder)
	_, err = b.Snapshot()
	assert.ErrorIs(t, err, ErrPhaseOrder)

	require.NoError(t, b.Collect())
	assert.ErrorIs(t, b.Collect(), ErrPhaseOrder)
	require.NoError(t, b.Resolve())
	require.NoError(t, b.Finish())
	snap, err := b.Snapshot()
	require.NoError(t, err)
	again, err := b.Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, version.Default, snap.Version())
}

func TestNewBinder_InvalidConfig(t *testing.T) {
	_, err := NewBinder(nil, Config{})
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "module", cerr.Field)

	_, err = NewBinder(&ast.Module{}, Config{})
	require.ErrorAs(t, err, &cerr)

	_, err = NewBinder(parseModule(t, "x = 1\n"), Config{Version: version.Version{Major: 4}})
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "version", cerr.Field)
	assert.ErrorIs(t, err, version.ErrUnsupported)
}

func TestBind_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Bind(ctx, parseModule(t, snapshotSource), Config{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBind_FilenameOverride(t *testing.T) {
	snap, err := Bind(context.Background(), parseModule(t, "def f(x):\n    global x\n"), Config{Filename: "pkg/mod.py"})
	require.NoError(t, err)
	assert.Equal(t, "pkg/mod.py", snap.Filename())
	require.Len(t, snap.Diagnostics(), 1)
	assert.Equal(t, "pkg/mod.py", snap.Diagnostics()[0].Spans[0].File)
	assert.True(t, snap.HasErrors())
}

// --- Snapshot queries ---

func TestSnapshot_NodeLookups(t *testing.T) {
	mod := parseModule(t, snapshotSource)
	snap, err := Bind(context.Background(), mod, Config{})
	require.NoError(t, err)

	f := mod.Body[0].(*ast.FunctionDef)
	g := f.Body[0].(*ast.FunctionDef)
	ret := g.Body[0].(*ast.Return)
	a := ret.Value.(*ast.Name)

	fs := snap.ScopeOf(f)
	require.NotNil(t, fs)
	assert.Equal(t, "f", fs.Name)
	assert.Equal(t, snap.Root(), snap.EnclosingScope(f))
	assert.Equal(t, fs, snap.EnclosingScope(g))
	assert.Equal(t, snap.ScopeOf(g), snap.EnclosingScope(ret))
	assert.Same(t, snap.Root(), snap.ScopeOf(mod))

	param := snap.Resolve(a)
	require.NotNil(t, param)
	assert.Equal(t, VarParameter, param.Kind)
	assert.Same(t, param, snap.Lookup(fs.ID, "a"))
	assert.Same(t, f.Params[0].Name, param.Def)

	refs := snap.ReferencesTo(param.ID)
	require.Len(t, refs, 2)
	assert.Same(t, f.Params[0].Name, refs[0].Node)
	assert.Same(t, a, refs[1].Node)
	assert.True(t, refs[0].Access.Has(AccessWrite))
	assert.True(t, refs[1].Access.Has(AccessRead))
}

func TestSnapshot_ScopeAt(t *testing.T) {
	mod := parseModule(t, snapshotSource)
	snap, err := Bind(context.Background(), mod, Config{})
	require.NoError(t, err)

	off := strings.Index(snapshotSource, "return a")
	assert.Equal(t, "g", snap.ScopeAt(off).Name)
	off = strings.Index(snapshotSource, "return g")
	assert.Equal(t, "f", snap.ScopeAt(off).Name)
	assert.Equal(t, ScopeModule, snap.ScopeAt(0).Kind)
}

func TestSnapshot_ScopeAtHeaders(t *testing.T) {
	src := `@deco
def f(x=lambda: y, *, k: ann = dflt) -> ret:
    return x
class C(Base, metaclass=Meta):
    pass
z = [i for i in items if i > 0]
`
	snap := parseAndBind(t, src, "3.12")
	at := func(sub string) string {
		off := strings.Index(src, sub)
		require.NotEqual(t, -1, off, sub)
		return snap.ScopeAt(off).Name
	}
	for _, sub := range []string{"deco", "dflt", "ann", "ret", "Base", "Meta", "items"} {
		assert.Equal(t, "<module>", at(sub), sub)
	}
	assert.Equal(t, "<lambda>", at("y,"))
	assert.Equal(t, "f", at("return x"))
	assert.Equal(t, "C", at("pass"))
	assert.Equal(t, "<listcomp>", at("i > 0"))
	assert.Equal(t, "<listcomp>", at("i for"))
}

func TestSnapshot_Visible(t *testing.T) {
	snap := parseAndBind(t, `
x = 1
class A:
    y = 2
    def m(self):
        z = 3
`, "3.12")
	m := scopeNamed(t, snap, "m")
	var got []string
	for _, v := range snap.Visible(m.ID) {
		got = append(got, v.Name)
	}
	assert.Equal(t, []string{"self", "z", "x", "A"}, got)
}

func TestScopeKind_String(t *testing.T) {
	assert.Equal(t, "module", ScopeModule.String())
	assert.Equal(t, "function", ScopeFunction.String())
	assert.Equal(t, "class", ScopeClass.String())
	assert.Equal(t, "lambda", ScopeLambda.String())
	assert.Equal(t, "comprehension", ScopeComprehension.String())
	assert.Equal(t, "unknown", ScopeKind(99).String())
}

func TestAccess_String(t *testing.T) {
	assert.Equal(t, "read|write", (AccessRead | AccessWrite).String())
	assert.Equal(t, "declare", AccessDeclare.String())
	assert.Equal(t, "none", Access(0).String())
}

// --- Store ---

func TestStore_Rebind(t *testing.T) {
	store := NewStore()
	assert.Nil(t, store.Current())

	first, err := store.Rebind(context.Background(), parseModule(t, "x = 1\n"), Config{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Generation())
	assert.Same(t, first, store.Current())
	before := dump(first)

	second, err := store.Rebind(context.Background(), parseModule(t, "y = 2\n"), Config{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Generation())
	assert.Same(t, second, store.Current())

	// earlier snapshots are unaffected by later rebinds
	assert.Equal(t, before, dump(first))
	assert.NotNil(t, first.Lookup(first.Root().ID, "x"))
	assert.Nil(t, first.Lookup(first.Root().ID, "y"))

	_, err = store.Rebind(context.Background(), nil, Config{})
	assert.Error(t, err)
	assert.Same(t, second, store.Current())
}

func TestStore_ConcurrentReaders(t *testing.T) {
	store := NewStore()
	mod := parseModule(t, snapshotSource)
	_, err := store.Rebind(context.Background(), mod, Config{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				snap := store.Current()
				g := scopeNamedNoT(snap, "g")
				if assert.NotNil(t, g) {
					assert.Len(t, g.FreeVars, 1)
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		_, err := store.Rebind(context.Background(), mod, Config{})
		assert.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, uint64(11), store.Current().Generation())
}

func scopeNamedNoT(snap *Snapshot, name string) *Scope {
	for _, s := range snap.Scopes() {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// --- Tracing ---

func TestBind_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)

	_, err := Bind(context.Background(), parseModule(t, snapshotSource), Config{})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	var got []string
	var bind tracetest.SpanStub
	for _, s := range spans {
		got = append(got, s.Name)
		if s.Name == "analysis.Bind" {
			bind = s
		}
	}
	assert.Equal(t, []string{"collect", "resolve", "finish", "analysis.Bind"}, got)
	for _, s := range spans[:3] {
		assert.Equal(t, bind.SpanContext.SpanID(), s.Parent.SpanID())
	}
	attrs := make(map[string]int64)
	for _, kv := range bind.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInt64()
	}
	assert.Equal(t, int64(3), attrs["pyscope.scopes"])
	assert.Equal(t, int64(0), attrs["pyscope.diagnostics"])
}

// --- Builtins ---

func TestIsBuiltin(t *testing.T) {
	py2 := version.MustParse("2.7")
	py36 := version.MustParse("3.6")
	py37 := version.MustParse("3.7")

	assert.True(t, IsBuiltin("len", py2))
	assert.True(t, IsBuiltin("len", version.Default))
	assert.True(t, IsBuiltin("xrange", py2))
	assert.False(t, IsBuiltin("xrange", version.Default))
	assert.False(t, IsBuiltin("ascii", py2))
	assert.False(t, IsBuiltin("breakpoint", py36))
	assert.True(t, IsBuiltin("breakpoint", py37))
	assert.True(t, IsBuiltin("__name__", py37))
	assert.False(t, IsBuiltin("foo", py37))

	names := Builtins(py37)
	assert.Contains(t, names, "print")
	assert.NotContains(t, names, "unicode")
	assert.IsIncreasing(t, names)
}
