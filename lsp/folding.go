// Copyright © 2024 The pyscope authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line function and class bodies and
// consecutive comment blocks.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	snap := s.ensureAnalysis(doc)
	if snap == nil {
		return nil, nil
	}

	var ranges []protocol.FoldingRange
	f := snap.Module().File
	for _, sc := range snap.Scopes() {
		if sc.Kind != analysis.ScopeFunction && sc.Kind != analysis.ScopeClass {
			continue
		}
		span := sc.Node.Span()
		startLine := f.Location(span.Start).Line - 1 // convert to 0-based
		endLine := f.Location(max(span.End-1, span.Start)).Line - 1
		if endLine > startLine {
			kind := string(protocol.FoldingRangeKindRegion)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(startLine),
				EndLine:   safeUint(endLine),
				Kind:      &kind,
			})
		}
	}

	// Fold consecutive comment blocks from source text.
	ranges = append(ranges, commentFoldingRanges(string(f.Source()))...)
	return ranges, nil
}

// commentFoldingRanges detects consecutive lines starting with "#" and
// produces a folding range for each block of 2+ lines.
func commentFoldingRanges(content string) []protocol.FoldingRange {
	lines := strings.Split(content, "\n")
	var ranges []protocol.FoldingRange

	blockStart := -1
	flush := func(end int) {
		if blockStart >= 0 && end > blockStart {
			kind := string(protocol.FoldingRangeKindComment)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(blockStart),
				EndLine:   safeUint(end),
				Kind:      &kind,
			})
		}
		blockStart = -1
	}
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			if blockStart < 0 {
				blockStart = i
			}
			continue
		}
		flush(i - 1)
	}
	// Handle comment block at end of file.
	flush(len(lines) - 1)
	return ranges
}
