// Copyright © 2024 The pyscope authors

package lsp

import (
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/ast"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol
// request.  Functions and classes nest their own definitions; module and
// class variables are listed alongside them.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	snap := s.snapshotFor(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	// Return as []DocumentSymbol (the preferred hierarchical form).
	return documentSymbols(snap, snap.Root()), nil
}

func documentSymbols(snap *analysis.Snapshot, scope *analysis.Scope) []protocol.DocumentSymbol {
	f := snap.Module().File
	type entry struct {
		start int
		sym   protocol.DocumentSymbol
	}
	var entries []entry
	defs := make(map[*ast.Name]bool)

	for _, id := range scope.Children {
		child := snap.Scope(id)
		var name *ast.Name
		kind := protocol.SymbolKindFunction
		switch n := child.Node.(type) {
		case *ast.FunctionDef:
			name = n.Name
			if scope.Kind == analysis.ScopeClass {
				kind = protocol.SymbolKindMethod
			}
		case *ast.ClassDef:
			name = n.Name
			kind = protocol.SymbolKindClass
		default:
			continue
		}
		defs[name] = true
		span := child.Node.Span()
		entries = append(entries, entry{span.Start, protocol.DocumentSymbol{
			Name:           name.ID,
			Kind:           kind,
			Range:          lspRange(f, span),
			SelectionRange: lspRange(f, name.Span()),
			Children:       documentSymbols(snap, child),
		}})
	}

	if scope.Kind == analysis.ScopeModule || scope.Kind == analysis.ScopeClass {
		for _, v := range snap.Names(scope.ID) {
			if v.Def == nil || v.Implicit || defs[v.Def] {
				continue
			}
			r := lspRange(f, v.Def.Span())
			entries = append(entries, entry{v.Def.Span().Start, protocol.DocumentSymbol{
				Name:           v.Name,
				Kind:           protocol.SymbolKindVariable,
				Range:          r,
				SelectionRange: r,
			}})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].start < entries[j].start })
	symbols := make([]protocol.DocumentSymbol, len(entries))
	for i, e := range entries {
		symbols[i] = e.sym
	}
	return symbols
}
