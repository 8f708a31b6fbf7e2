// Copyright © 2024 The pyscope authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luthersystems/pyscope/analysis"
)

// expandArgs expands arguments, resolving patterns ending with "/..." and
// plain directories to all .py files found recursively under them.  File
// arguments pass through unchanged.  A file is dropped when an exclude
// pattern matches its path, its base name or any directory on its path.
func expandArgs(args, excludes []string) ([]string, error) {
	for _, pat := range excludes {
		if _, err := filepath.Match(pat, ""); err != nil {
			return nil, fmt.Errorf("bad exclude pattern %q: %w", pat, err)
		}
	}
	var out []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] && !excluded(path, excludes) {
			seen[path] = true
			out = append(out, path)
		}
	}
	for _, arg := range args {
		dir, recursive := strings.CutSuffix(arg, "/...")
		if recursive && dir == "" {
			dir = "."
		}
		if !recursive {
			if info, err := os.Stat(arg); err == nil && info.IsDir() {
				dir, recursive = arg, true
			}
		}
		if !recursive {
			add(arg)
			continue
		}
		files, err := analysis.ListFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", arg, err)
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

func excluded(path string, excludes []string) bool {
	if len(excludes) == 0 {
		return false
	}
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for _, pat := range excludes {
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
		for _, part := range parts {
			if ok, _ := filepath.Match(pat, part); ok {
				return true
			}
		}
	}
	return false
}
