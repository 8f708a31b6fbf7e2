// Copyright © 2024 The pyscope authors

package lsp

import (
	"fmt"
	"slices"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/lint"
)

// textDocumentCodeAction handles the textDocument/codeAction request.
// It returns quick-fix actions for diagnostics in the requested range.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	// If the client only wants specific kinds, check we support them.
	if len(params.Context.Only) > 0 && !slices.Contains(params.Context.Only, protocol.CodeActionKindQuickFix) {
		return nil, nil
	}
	snap := s.snapshotFor(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}

	var actions []protocol.CodeAction
	for _, diag := range params.Context.Diagnostics {
		// Only handle diagnostics from our lint source.
		if diag.Source == nil || *diag.Source != sourceLint {
			continue
		}
		analyzer := diagnosticAnalyzer(diag)
		if analyzer == lint.AnalyzerUnusedVariable.Name {
			if a, ok := prefixUnderscoreAction(snap, params.TextDocument.URI, diag); ok {
				actions = append(actions, a)
			}
		}
		if analyzer != "" {
			actions = append(actions, suppressLintAction(snap, params.TextDocument.URI, diag, analyzer))
		}
	}

	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

// diagnosticAnalyzer recovers the analyzer name stored in a published
// diagnostic, falling back to its code.
func diagnosticAnalyzer(diag protocol.Diagnostic) string {
	if name, ok := diag.Data.(string); ok && name != "" {
		return name
	}
	if diag.Code != nil {
		return fmt.Sprintf("%v", diag.Code.Value)
	}
	return ""
}

// prefixUnderscoreAction renames an unused local so that it reads as
// intentionally unused.
func prefixUnderscoreAction(snap *analysis.Snapshot, uri string, diag protocol.Diagnostic) (protocol.CodeAction, bool) {
	v, _ := variableAtPosition(snap, diag.Range.Start)
	if v == nil {
		return protocol.CodeAction{}, false
	}
	kind := protocol.CodeActionKindQuickFix
	return protocol.CodeAction{
		Title:       fmt.Sprintf("Rename '%s' to '_%s'", v.Name, v.Name),
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diag},
		IsPreferred: boolPtr(true),
		Edit:        renameEdit(snap, uri, v, "_"+v.Name),
	}, true
}

// suppressLintAction creates a code action that adds a # nolint:analyzer
// comment to the end of the diagnostic line.
func suppressLintAction(snap *analysis.Snapshot, uri string, diag protocol.Diagnostic, analyzer string) protocol.CodeAction {
	text, _ := snap.Module().File.Line(int(diag.Range.Start.Line) + 1)
	insertPos := protocol.Position{Line: diag.Range.Start.Line, Character: safeUint(utf16Len(text))}

	kind := protocol.CodeActionKindQuickFix
	return protocol.CodeAction{
		Title:       fmt.Sprintf("Suppress with # nolint:%s", analyzer),
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diag},
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				uri: {
					{
						Range:   protocol.Range{Start: insertPos, End: insertPos},
						NewText: "  # nolint:" + analyzer,
					},
				},
			},
		},
	}
}
