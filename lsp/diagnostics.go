// Copyright © 2024 The pyscope authors

package lsp

import (
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/lint"
	"github.com/luthersystems/pyscope/parser/token"
)

const (
	debounceDelay = 300 * time.Millisecond

	sourceLint = "pyscope"
)

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version), // #nosec G115 -- document versions are small
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version), // #nosec G115 -- document versions are small
		content,
	)

	// Debounce: delay analysis to avoid thrashing during rapid edits.
	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() { _ = recover() }() // don't crash the server on analysis panic
		d := s.docs.Get(doc.URI)
		if d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)

	doc := s.docs.Get(params.TextDocument.URI)
	if doc != nil {
		s.analyzeAndPublish(doc)
	}
	s.index.invalidate(uriToPath(params.TextDocument.URI))
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// analyzeAndPublish rebinds and lints a document and publishes the
// resulting diagnostics to the client.
func (s *Server) analyzeAndPublish(doc *Document) {
	s.ensureAnalysis(doc)
	snap, syntax := doc.state()
	if snap == nil {
		return
	}

	diags := []protocol.Diagnostic{}
	lintDiags, err := s.linter.LintSnapshot(snap, syntax)
	if err != nil {
		s.log.WithError(err).WithField("uri", doc.URI).Warn("lint failed")
	}
	for _, d := range lintDiags {
		diags = append(diags, convertLintDiagnostic(snap.Module().File, doc.URI, d))
	}

	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Diagnostics: diags,
	})
}

// convertLintDiagnostic converts a lint.Diagnostic to an LSP Diagnostic.
// Related locations in the same file become related information.
func convertLintDiagnostic(f *token.File, uri protocol.DocumentUri, d lint.Diagnostic) protocol.Diagnostic {
	sev := mapLintSeverity(d.Severity)
	code := d.Code
	if code == "" {
		code = d.Analyzer
	}
	out := protocol.Diagnostic{
		Range:    lintRange(f, d.Pos),
		Severity: &sev,
		Source:   strPtr(sourceLint),
		Code:     &protocol.IntegerOrString{Value: code},
		Message:  d.Message,
		Data:     d.Analyzer,
	}
	if d.Analyzer == lint.AnalyzerUnusedVariable.Name {
		out.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}
	}
	for _, r := range d.Related {
		if r.Pos.Line <= 0 || r.Pos.File != d.Pos.File {
			continue
		}
		out.RelatedInformation = append(out.RelatedInformation, protocol.DiagnosticRelatedInformation{
			Location: protocol.Location{URI: uri, Range: lintRange(f, r.Pos)},
			Message:  r.Message,
		})
	}
	return out
}

// lintRange converts a lint position to a range.  A zero EndCol gives an
// empty range at the start.
func lintRange(f *token.File, pos lint.Position) protocol.Range {
	if pos.Line <= 0 {
		return protocol.Range{}
	}
	start := f.Offset(pos.Line, pos.Col)
	end := start
	if pos.EndCol >= pos.Col {
		end = f.Offset(pos.Line, pos.EndCol+1)
	}
	return protocol.Range{Start: lspPosition(f, start), End: lspPosition(f, end)}
}

// mapLintSeverity converts a lint.Severity to a protocol.DiagnosticSeverity.
func mapLintSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func strPtr(s string) *string {
	return &s
}
