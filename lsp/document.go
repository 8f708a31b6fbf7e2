// Copyright © 2024 The pyscope authors

package lsp

import (
	"context"
	"sort"
	"sync"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/parser"
)

// Document represents an open text document tracked by the LSP server.
// Each document owns a Store; request handlers read the published
// snapshot while a rebind may be running.
type Document struct {
	mu      sync.Mutex
	URI     string
	Version int32
	Content string

	// dirty is set when Content changed after the last rebind.
	dirty  bool
	syntax []diagnostic.Diagnostic
	store  *analysis.Store
}

func newDocument(uri string, version int32, content string) *Document {
	return &Document{
		URI:     uri,
		Version: version,
		Content: content,
		dirty:   true,
		store:   analysis.NewStore(),
	}
}

// rebind parses and binds the current content if it changed since the
// last rebind.  The caller must hold d.mu.
func (d *Document) rebind(ctx context.Context, cfg analysis.Config) error {
	if !d.dirty && d.store.Current() != nil {
		return nil
	}
	var sink diagnostic.Sink
	cfg.Filename = uriToPath(d.URI)
	mod := parser.Parse(cfg.Filename, []byte(d.Content), cfg.Version, &sink)
	if _, err := d.store.Rebind(ctx, mod, cfg); err != nil {
		return err
	}
	d.syntax = sink.Items()
	d.dirty = false
	return nil
}

// Snapshot returns the most recently published snapshot, or nil.
func (d *Document) Snapshot() *analysis.Snapshot {
	return d.store.Current()
}

// state returns the published snapshot with the syntax diagnostics of the
// same parse.
func (d *Document) state() (*analysis.Snapshot, []diagnostic.Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store.Current(), d.syntax
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store.  It is bound on first use.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := newDocument(uri, version, content)
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and marks it for
// rebinding.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = newDocument(uri, version, content)
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.dirty = true
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// All returns the open documents ordered by URI.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	docs := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	s.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })
	return docs
}
