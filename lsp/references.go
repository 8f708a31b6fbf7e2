// Copyright © 2024 The pyscope authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
)

// textDocumentReferences handles the textDocument/references request.  It
// lists every occurrence bound to the same variable as the one under the
// cursor.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	snap := s.snapshotFor(params.TextDocument.URI)
	v, _ := variableAtPosition(snap, params.Position)
	if v == nil {
		return nil, nil
	}

	f := snap.Module().File
	var locs []protocol.Location
	for _, ref := range occurrences(snap, v) {
		// Optionally include the declaration.
		if ref.Node == v.Def && !params.Context.IncludeDeclaration {
			continue
		}
		locs = append(locs, protocol.Location{
			URI:   params.TextDocument.URI,
			Range: lspRange(f, ref.Node.Span()),
		})
	}
	return locs, nil
}

// textDocumentDocumentHighlight handles the textDocument/documentHighlight
// request, marking writes and reads of the variable under the cursor.
func (s *Server) textDocumentDocumentHighlight(_ *glsp.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	snap := s.snapshotFor(params.TextDocument.URI)
	v, _ := variableAtPosition(snap, params.Position)
	if v == nil {
		return nil, nil
	}

	f := snap.Module().File
	var highlights []protocol.DocumentHighlight
	for _, ref := range occurrences(snap, v) {
		kind := protocol.DocumentHighlightKindRead
		if ref.Access.Has(analysis.AccessWrite) || ref.Access.Has(analysis.AccessDelete) {
			kind = protocol.DocumentHighlightKindWrite
		}
		if ref.Access == analysis.AccessDeclare {
			kind = protocol.DocumentHighlightKindText
		}
		highlights = append(highlights, protocol.DocumentHighlight{
			Range: lspRange(f, ref.Node.Span()),
			Kind:  &kind,
		})
	}
	return highlights, nil
}

// occurrences returns the source references bound to v, skipping
// references the binder synthesized.
func occurrences(snap *analysis.Snapshot, v *analysis.Variable) []*analysis.Reference {
	var refs []*analysis.Reference
	for _, ref := range snap.ReferencesTo(v.ID) {
		if ref.Node != nil {
			refs = append(refs, ref)
		}
	}
	return refs
}
