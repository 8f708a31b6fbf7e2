// Copyright © 2024 The pyscope authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	snap := s.snapshotFor(params.TextDocument.URI)
	name, ref := nameAtPosition(snap, params.Position)
	if ref == nil {
		return nil, nil
	}

	content := buildHoverContent(snap, ref)
	if content == "" {
		return nil, nil
	}
	rng := lspRange(snap.Module().File, name.Span())
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: content,
		},
		Range: &rng,
	}, nil
}

// buildHoverContent builds Markdown hover text for the variable a
// reference denotes: its kind, owning scope and closure status.
func buildHoverContent(snap *analysis.Snapshot, ref *analysis.Reference) string {
	if ref.Dynamic {
		return fmt.Sprintf("**dynamic** `%s`\n\nResolved at run time.", ref.Name)
	}
	v := snap.Variable(ref.Var)
	if v == nil {
		return ""
	}
	if isBuiltinVar(snap, v) {
		return fmt.Sprintf("**builtin** `%s`", v.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** `%s`", variableKindLabel(snap, v), v.Name)

	owner := snap.Scope(v.Scope)
	fmt.Fprintf(&sb, "\n\nDefined in %s `%s`", owner.Kind, owner.Name)

	var notes []string
	if v.AccessedInNestedScope {
		notes = append(notes, "cell variable, captured by a nested scope")
	}
	if ref.Scope != v.Scope && owner.Kind != analysis.ScopeModule {
		notes = append(notes, "free variable here")
	}
	if v.Implicit {
		notes = append(notes, "implicit")
	}
	if !v.Bound && !v.Implicit {
		notes = append(notes, "never assigned")
	}
	if v.Deleted {
		notes = append(notes, "deleted")
	}
	for _, n := range notes {
		fmt.Fprintf(&sb, "\n- %s", n)
	}

	if v.Def != nil {
		loc := snap.Module().File.Location(v.Def.Span().Start)
		fmt.Fprintf(&sb, "\n\n*Bound at line %d*", loc.Line)
	}
	return sb.String()
}

func variableKindLabel(snap *analysis.Snapshot, v *analysis.Variable) string {
	switch definitionKind(snap, v) {
	case analysis.ScopeFunction:
		return "function"
	case analysis.ScopeClass:
		return "class"
	}
	switch v.Kind {
	case analysis.VarParameter:
		return "parameter"
	case analysis.VarGlobal:
		return "global"
	case analysis.VarNonlocal:
		return "nonlocal"
	default:
		return "local"
	}
}
