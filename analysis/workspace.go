// Copyright © 2024 The pyscope authors

package analysis

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/parser"
)

// FileResult is the outcome of parsing and binding one file.
type FileResult struct {
	Path     string
	Snapshot *Snapshot              // nil when Err is set
	Syntax   []diagnostic.Diagnostic // front-end diagnostics
	Err      error                  // the file could not be read or bound
}

// Diagnostics returns the syntax diagnostics followed by the binder's.
func (r *FileResult) Diagnostics() []diagnostic.Diagnostic {
	diags := append([]diagnostic.Diagnostic(nil), r.Syntax...)
	if r.Snapshot != nil {
		diags = append(diags, r.Snapshot.diags...)
	}
	return diags
}

// AnalyzeFile parses and binds a single source file.  Syntax errors do not
// stop binding; the parser's recovered tree is bound as is.
func AnalyzeFile(ctx context.Context, filename string, src []byte, cfg Config) (*Snapshot, []diagnostic.Diagnostic, error) {
	var sink diagnostic.Sink
	mod := parser.Parse(filename, src, cfg.Version, &sink)
	snap, err := Bind(ctx, mod, cfg)
	if err != nil {
		return nil, sink.Items(), err
	}
	return snap, sink.Items(), nil
}

// ListFiles walks root and returns the sorted paths of all .py files.  It
// skips hidden directories, bytecode caches and virtual environments.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".py" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// shouldSkipDir returns true for directories that should not be walked.
// It skips hidden directories (e.g. .git, .tox) and well known
// environment and cache directories, but not "." or "..".
func shouldSkipDir(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	if len(name) > 0 && name[0] == '.' {
		return true
	}
	switch name {
	case "__pycache__", "node_modules", "venv", "site-packages":
		return true
	}
	return false
}

// BindFiles parses and binds files using up to jobs goroutines.  Results
// are in the order of files.  Per-file failures are reported in the
// result; the returned error is only set when ctx is cancelled.
func BindFiles(ctx context.Context, files []string, cfg Config, jobs int) ([]FileResult, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// each goroutine owns one index
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = bindFile(gctx, path, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func bindFile(ctx context.Context, path string, cfg Config) FileResult {
	res := FileResult{Path: path}
	src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	if err != nil {
		res.Err = err
		return res
	}
	fcfg := cfg
	fcfg.Filename = ""
	snap, syntax, err := AnalyzeFile(ctx, path, src, fcfg)
	res.Snapshot = snap
	res.Syntax = syntax
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
	}
	return res
}

// BindWorkspace binds every .py file under root.
func BindWorkspace(ctx context.Context, root string, cfg Config, jobs int) ([]FileResult, error) {
	files, err := ListFiles(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return BindFiles(ctx, files, cfg, jobs)
}
