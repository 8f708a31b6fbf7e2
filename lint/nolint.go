// Copyright © 2024 The pyscope authors

package lint

import (
	"strings"

	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/parser/token"
)

// filterSuppressed removes diagnostics on lines with "# nolint" comments.
func filterSuppressed(diags []Diagnostic, mod *ast.Module) []Diagnostic {
	// line -> "" (all) or "analyzer1,analyzer2"
	nolintLines := make(map[int]string)
	for _, c := range mod.Comments {
		checkNolintToken(mod.File, c, nolintLines)
	}
	if len(nolintLines) == 0 {
		return diags
	}

	var filtered []Diagnostic
	for _, d := range diags {
		directive, ok := nolintLines[d.Pos.Line]
		if !ok {
			filtered = append(filtered, d)
			continue
		}
		// Empty directive = suppress all
		if directive == "" {
			continue
		}
		suppressed := false
		for _, name := range strings.Split(directive, ",") {
			name = strings.TrimSpace(name)
			if name == d.Analyzer || (d.Code != "" && name == d.Code) {
				suppressed = true
				break
			}
		}
		if !suppressed {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func checkNolintToken(f *token.File, tok *token.Token, lines map[int]string) {
	if tok == nil || f == nil {
		return
	}
	text := strings.TrimSpace(tok.Text)
	text = strings.TrimLeft(text, "#")
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "nolint") {
		return
	}
	line := f.Location(tok.Pos).Line
	rest := strings.TrimPrefix(text, "nolint")
	if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
		lines[line] = ""
		return
	}
	if strings.HasPrefix(rest, ":") {
		directive, _, _ := strings.Cut(strings.TrimPrefix(rest, ":"), " ")
		lines[line] = directive
	}
}
