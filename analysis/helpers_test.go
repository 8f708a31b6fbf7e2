// Copyright © 2024 The pyscope authors

package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/parser"
	"github.com/luthersystems/pyscope/version"
)

// parseAndBind is a test helper that parses source and binds it.  The
// source must be free of syntax errors.
func parseAndBind(t *testing.T, source string, v string) *Snapshot {
	t.Helper()
	ver := version.MustParse(v)
	var sink diagnostic.Sink
	mod := parser.Parse("test.py", []byte(source), ver, &sink)
	require.Empty(t, sink.Items(), "unexpected syntax errors")
	snap, err := Bind(context.Background(), mod, Config{Version: ver})
	require.NoError(t, err)
	return snap
}

// scopeNamed returns the first scope with the given name.
func scopeNamed(t *testing.T, snap *Snapshot, name string) *Scope {
	t.Helper()
	for _, s := range snap.Scopes() {
		if s.Name == name {
			return s
		}
	}
	require.FailNow(t, "no scope named "+name)
	return nil
}

func varIn(snap *Snapshot, s *Scope, name string) *Variable {
	return snap.Lookup(s.ID, name)
}

func names(snap *Snapshot, ids []VarID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = snap.Variable(id).Name
	}
	return out
}

func diagCodes(snap *Snapshot) []string {
	var codes []string
	for _, d := range snap.Diagnostics() {
		codes = append(codes, d.Code)
	}
	return codes
}

// refsIn returns the explicit references to name recorded in scope s.
func refsIn(snap *Snapshot, s *Scope, name string) []*Reference {
	var refs []*Reference
	for _, r := range snap.References() {
		if r.Scope == s.ID && r.Name == name && !r.Implicit() {
			refs = append(refs, r)
		}
	}
	return refs
}

// allNames collects every identifier occurrence in the tree.
func allNames(n ast.Node) []*ast.Name {
	var out []*ast.Name
	var visit func(ast.Node)
	visit = func(n ast.Node) {
		if name, ok := n.(*ast.Name); ok {
			out = append(out, name)
		}
		for _, c := range ast.Children(n) {
			visit(c)
		}
	}
	visit(n)
	return out
}

// dump renders the binding as text so that two bindings can be compared.
func dump(snap *Snapshot) string {
	var sb strings.Builder
	for _, s := range snap.Scopes() {
		fmt.Fprintf(&sb, "scope %d %s %q parent=%d free=%v cell=%v globals=%v star=%t eval=%t dyn=%t late=%t nested=%t\n",
			s.ID, s.Kind, s.Name, s.Parent,
			names(snap, s.FreeVars), names(snap, s.CellVars), names(snap, s.ReferencedGlobals),
			s.ContainsImportStar, s.ContainsUnqualifiedDynamicEval, s.NeedsDynamicLocals,
			s.HasLateBoundAssignment, s.ContainsNestedFreeVariables)
		for _, v := range snap.Names(s.ID) {
			fmt.Fprintf(&sb, "  var %s %s deleted=%t nested=%t bound=%t implicit=%t inferred=%t\n",
				v.Name, v.Kind, v.Deleted, v.AccessedInNestedScope, v.Bound, v.Implicit, v.Inferred)
		}
	}
	for _, r := range snap.References() {
		fmt.Fprintf(&sb, "ref %s %v scope=%d access=%s var=%d dynamic=%t\n",
			r.Name, r.Span(), r.Scope, r.Access, r.Var, r.Dynamic)
	}
	for _, d := range snap.Diagnostics() {
		fmt.Fprintln(&sb, d.String())
	}
	return sb.String()
}
