// Copyright © 2024 The pyscope authors

package lsp

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/parser/token"
)

var errNoVariable = errors.New("no variable at position")

// renameTarget returns the variable under the cursor if it can be renamed.
// Builtins, implicit class variables and names resolved at run time cannot.
func renameTarget(snap *analysis.Snapshot, pos protocol.Position) (*analysis.Variable, *analysis.Reference, error) {
	v, ref := variableAtPosition(snap, pos)
	if ref == nil {
		return nil, nil, errNoVariable
	}
	if ref.Dynamic {
		return nil, nil, fmt.Errorf("cannot rename %s: resolved at run time", ref.Name)
	}
	if v == nil {
		return nil, nil, errNoVariable
	}
	if isBuiltinVar(snap, v) {
		return nil, nil, fmt.Errorf("cannot rename builtin: %s", v.Name)
	}
	if v.Implicit {
		return nil, nil, fmt.Errorf("cannot rename implicit variable: %s", v.Name)
	}
	return v, ref, nil
}

// textDocumentPrepareRename validates that the variable under the cursor
// is renameable and returns its range.
func (s *Server) textDocumentPrepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	snap := s.snapshotFor(params.TextDocument.URI)
	v, ref, err := renameTarget(snap, params.Position)
	if err != nil {
		// prepareRename returns null, not an error, for non-renameable symbols.
		return nil, nil
	}
	return &protocol.RangeWithPlaceholder{
		Range:       lspRange(snap.Module().File, ref.Node.Span()),
		Placeholder: v.Name,
	}, nil
}

// textDocumentRename handles the textDocument/rename request.
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	snap := s.snapshotFor(params.TextDocument.URI)
	if snap == nil {
		return nil, fmt.Errorf("document not found")
	}
	v, _, err := renameTarget(snap, params.Position)
	if err != nil {
		return nil, err
	}
	if !isIdentifier(params.NewName) || token.IsKeyword(params.NewName, snap.Version()) {
		return nil, fmt.Errorf("invalid name: %q", params.NewName)
	}
	return renameEdit(snap, params.TextDocument.URI, v, params.NewName), nil
}

// renameEdit replaces every occurrence of v with newName.
func renameEdit(snap *analysis.Snapshot, uri string, v *analysis.Variable, newName string) *protocol.WorkspaceEdit {
	f := snap.Module().File
	var edits []protocol.TextEdit
	for _, ref := range occurrences(snap, v) {
		edits = append(edits, protocol.TextEdit{
			Range:   lspRange(f, ref.Node.Span()),
			NewText: newName,
		})
	}
	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: edits},
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
