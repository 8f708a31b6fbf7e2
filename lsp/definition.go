// Copyright © 2024 The pyscope authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition handles the textDocument/definition request.  It
// jumps to the first binding site of the variable under the cursor.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	snap := s.snapshotFor(params.TextDocument.URI)
	v, _ := variableAtPosition(snap, params.Position)
	// Builtins and implicit variables have no navigable source.
	if v == nil || v.Def == nil {
		return nil, nil
	}
	return protocol.Location{
		URI:   params.TextDocument.URI,
		Range: lspRange(snap.Module().File, v.Def.Span()),
	}, nil
}
