// Copyright © 2024 The pyscope authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
)

// textDocumentCompletion handles the textDocument/completion request.
// Attribute completion after a dot is not offered.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	snap := s.snapshotFor(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}

	f := snap.Module().File
	line := int(params.Position.Line)
	lineStart := f.Offset(line+1, 1)
	offset := offsetOf(f, params.Position)
	prefix, afterDot := wordAtPosition(string(f.Source()), line, offset-lineStart)
	if afterDot {
		return nil, nil
	}
	return scopeCompletions(snap, offset, prefix), nil
}

// scopeCompletions returns the names visible from the scope at offset,
// innermost first, followed by the builtins they do not shadow.
func scopeCompletions(snap *analysis.Snapshot, offset int, prefix string) []protocol.CompletionItem {
	scope := snap.ScopeAt(offset)
	if scope == nil {
		return nil
	}

	items := []protocol.CompletionItem{}
	seen := make(map[string]bool)
	for _, v := range snap.Visible(scope.ID) {
		seen[v.Name] = true
		if !strings.HasPrefix(v.Name, prefix) {
			continue
		}
		kind := mapCompletionItemKind(snap, v)
		owner := snap.Scope(v.Scope)
		detail := owner.Kind.String() + " " + owner.Name
		items = append(items, protocol.CompletionItem{
			Label:  v.Name,
			Kind:   &kind,
			Detail: &detail,
		})
	}
	for _, name := range analysis.Builtins(snap.Version()) {
		if seen[name] || !strings.HasPrefix(name, prefix) {
			continue
		}
		kind := protocol.CompletionItemKindFunction
		detail := "builtin"
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   &kind,
			Detail: &detail,
		})
	}
	return items
}
