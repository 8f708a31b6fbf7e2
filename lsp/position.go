// Copyright © 2024 The pyscope authors

package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/astutil"
	"github.com/luthersystems/pyscope/parser/token"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// lspPosition converts a byte offset in f to a 0-based LSP position whose
// character counts UTF-16 code units.
func lspPosition(f *token.File, offset int) protocol.Position {
	loc := f.Location(offset)
	text, _ := f.Line(loc.Line)
	col := loc.Col - 1
	if col > len(text) {
		col = len(text)
	}
	return protocol.Position{
		Line:      safeUint(loc.Line - 1),
		Character: safeUint(utf16Len(text[:col])),
	}
}

// offsetOf converts an LSP position to a byte offset in f.
func offsetOf(f *token.File, pos protocol.Position) int {
	line := int(pos.Line) + 1
	text, ok := f.Line(line)
	if !ok {
		return f.Len()
	}
	units := int(pos.Character)
	col := 0
	for col < len(text) && units > 0 {
		r, size := utf8.DecodeRuneInString(text[col:])
		units -= utf16.RuneLen(r)
		if units < 0 {
			break
		}
		col += size
	}
	return f.Offset(line, col+1)
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// lspRange converts a byte span in f to an LSP range.
func lspRange(f *token.File, span ast.Span) protocol.Range {
	return protocol.Range{
		Start: lspPosition(f, span.Start),
		End:   lspPosition(f, span.End),
	}
}

// nameAtPosition finds the identifier occurrence at the given LSP position
// and the reference recorded for it.
func nameAtPosition(snap *analysis.Snapshot, pos protocol.Position) (*ast.Name, *analysis.Reference) {
	if snap == nil {
		return nil, nil
	}
	mod := snap.Module()
	name := astutil.NameAt(mod, offsetOf(mod.File, pos))
	if name == nil {
		return nil, nil
	}
	return name, snap.ReferenceFor(name)
}

// variableAtPosition resolves the identifier under the cursor to its
// variable.  The reference is returned even when it is dynamic.
func variableAtPosition(snap *analysis.Snapshot, pos protocol.Position) (*analysis.Variable, *analysis.Reference) {
	_, ref := nameAtPosition(snap, pos)
	if ref == nil {
		return nil, nil
	}
	return snap.Variable(ref.Var), ref
}

// isBuiltinVar reports whether v stands for a builtin: a module global
// that nothing binds whose name is a builtin of the snapshot's version.
func isBuiltinVar(snap *analysis.Snapshot, v *analysis.Variable) bool {
	return v.Scope == snap.Root().ID && !v.Bound && analysis.IsBuiltin(v.Name, snap.Version())
}

// wordAtPosition extracts the identifier prefix that ends at the given
// 0-based LSP position, and reports whether it follows a dot.
func wordAtPosition(content string, line, col int) (string, bool) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return "", false
	}
	ln := lines[line]
	if col < 0 {
		return "", false
	}
	if col > len(ln) {
		col = len(ln)
	}
	start := col
	for start > 0 && isIdentChar(ln[start-1]) {
		start--
	}
	return ln[start:col], start > 0 && ln[start-1] == '.'
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// mapSymbolKind converts a variable to an LSP SymbolKind.
func mapSymbolKind(snap *analysis.Snapshot, v *analysis.Variable) protocol.SymbolKind {
	switch definitionKind(snap, v) {
	case analysis.ScopeFunction:
		if s := snap.Scope(v.Scope); s != nil && s.Kind == analysis.ScopeClass {
			return protocol.SymbolKindMethod
		}
		return protocol.SymbolKindFunction
	case analysis.ScopeClass:
		return protocol.SymbolKindClass
	}
	return protocol.SymbolKindVariable
}

// mapCompletionItemKind converts a variable to an LSP CompletionItemKind.
func mapCompletionItemKind(snap *analysis.Snapshot, v *analysis.Variable) protocol.CompletionItemKind {
	switch definitionKind(snap, v) {
	case analysis.ScopeFunction:
		return protocol.CompletionItemKindFunction
	case analysis.ScopeClass:
		return protocol.CompletionItemKindClass
	}
	return protocol.CompletionItemKindVariable
}

// definitionKind returns ScopeFunction or ScopeClass when v is bound by a
// def or class statement, and ScopeModule otherwise.
func definitionKind(snap *analysis.Snapshot, v *analysis.Variable) analysis.ScopeKind {
	if v.Def == nil {
		return analysis.ScopeModule
	}
	for _, s := range snap.Scopes() {
		switch n := s.Node.(type) {
		case *ast.FunctionDef:
			if n.Name == v.Def {
				return analysis.ScopeFunction
			}
		case *ast.ClassDef:
			if n.Name == v.Def {
				return analysis.ScopeClass
			}
		}
	}
	return analysis.ScopeModule
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
