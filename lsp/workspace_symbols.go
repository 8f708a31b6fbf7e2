// Copyright © 2024 The pyscope authors

package lsp

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/pyscope/analysis"
)

// workspaceIndex caches the definitions of every file under the
// workspace root, keyed by path.  It is built on the first
// workspace/symbol request.
type workspaceIndex struct {
	once    sync.Once
	mu      sync.RWMutex
	built   bool
	cfg     analysis.Config
	symbols map[string][]protocol.SymbolInformation
}

func newWorkspaceIndex() *workspaceIndex {
	return &workspaceIndex{symbols: make(map[string][]protocol.SymbolInformation)}
}

// build binds all files under root once.  Files that fail to read or bind
// are left out of the index.
func (w *workspaceIndex) build(ctx context.Context, root string, cfg analysis.Config, log logrus.FieldLogger) {
	w.once.Do(func() {
		w.mu.Lock()
		w.cfg = cfg
		w.built = true
		w.mu.Unlock()
		if root == "" {
			return
		}
		results, err := analysis.BindWorkspace(ctx, root, cfg, 0)
		if err != nil {
			log.WithError(err).WithField("root", root).Warn("workspace index failed")
			return
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		for _, r := range results {
			if r.Err != nil {
				log.WithError(r.Err).Debug("workspace index skipped file")
				continue
			}
			w.symbols[r.Path] = moduleSymbols(r.Snapshot, pathToURI(r.Path))
		}
		log.WithField("files", len(w.symbols)).Info("workspace indexed")
	})
}

// invalidate rebinds the file at path after it was saved.  A file that no
// longer binds is dropped.  Nothing happens before the index is built.
func (w *workspaceIndex) invalidate(path string) {
	w.mu.RLock()
	built, cfg := w.built, w.cfg
	w.mu.RUnlock()
	if !built {
		return
	}
	results, err := analysis.BindFiles(context.Background(), []string{path}, cfg, 1)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil || len(results) == 0 || results[0].Err != nil {
		delete(w.symbols, path)
		return
	}
	w.symbols[path] = moduleSymbols(results[0].Snapshot, pathToURI(path))
}

// lookup returns the indexed symbols matching query, skipping the files in
// exclude.
func (w *workspaceIndex) lookup(lowerQuery string, exclude map[string]bool) []protocol.SymbolInformation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.symbols))
	for path := range w.symbols {
		if !exclude[path] {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	var out []protocol.SymbolInformation
	for _, path := range paths {
		for _, si := range w.symbols[path] {
			if matchesQuery(si.Name, lowerQuery) {
				out = append(out, si)
			}
		}
	}
	return out
}

// workspaceSymbol handles the workspace/symbol request.
// It returns the module level definitions, and the methods of module level
// classes, across the workspace that match the query string. An empty
// query returns all symbols.  Open documents take precedence over the
// saved files on disk.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	s.index.build(context.Background(), s.rootPath, s.cfg, s.log)

	query := strings.ToLower(params.Query)
	var results []protocol.SymbolInformation
	open := make(map[string]bool)
	for _, doc := range s.docs.All() {
		open[uriToPath(doc.URI)] = true
		snap := s.ensureAnalysis(doc)
		if snap == nil {
			continue
		}
		for _, si := range moduleSymbols(snap, doc.URI) {
			if matchesQuery(si.Name, query) {
				results = append(results, si)
			}
		}
	}
	results = append(results, s.index.lookup(query, open)...)
	return results, nil
}

// moduleSymbols flattens the document symbols of a module to two levels:
// module definitions, and the members of module classes with the class as
// their container.
func moduleSymbols(snap *analysis.Snapshot, uri string) []protocol.SymbolInformation {
	var out []protocol.SymbolInformation
	for _, ds := range documentSymbols(snap, snap.Root()) {
		out = append(out, protocol.SymbolInformation{
			Name:     ds.Name,
			Kind:     ds.Kind,
			Location: protocol.Location{URI: uri, Range: ds.SelectionRange},
		})
		if ds.Kind != protocol.SymbolKindClass {
			continue
		}
		container := ds.Name
		for _, child := range ds.Children {
			out = append(out, protocol.SymbolInformation{
				Name:          child.Name,
				Kind:          child.Kind,
				Location:      protocol.Location{URI: uri, Range: child.SelectionRange},
				ContainerName: &container,
			})
		}
	}
	return out
}

// matchesQuery performs case-insensitive substring matching. An empty query
// matches everything.
func matchesQuery(name, lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), lowerQuery)
}
