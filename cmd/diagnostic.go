// Copyright © 2024 The pyscope authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/lint"
)

// newRenderer returns a renderer that reads sources from disk, except for
// the in-memory sources given (e.g. "<stdin>").
func newRenderer(mode diagnostic.ColorMode, sources map[string][]byte) *diagnostic.Renderer {
	return &diagnostic.Renderer{
		Color: mode,
		SourceReader: func(name string) ([]byte, error) {
			if src, ok := sources[name]; ok {
				return src, nil
			}
			return os.ReadFile(name) //nolint:gosec // CLI tool reads user-specified files
		},
	}
}

// renderCheckDiagnostics renders lint diagnostics as annotated snippets,
// each with a hint on how to suppress it.
func renderCheckDiagnostics(w io.Writer, r *diagnostic.Renderer, diags []lint.Diagnostic) error {
	hinted := make([]lint.Diagnostic, len(diags))
	for i, d := range diags {
		d.Notes = append(append([]string(nil), d.Notes...),
			"to suppress: add \"# nolint:"+d.Analyzer+"\" as a comment on this line")
		hinted[i] = d
	}
	return lint.FormatRendered(w, r, hinted)
}

// writeSummary prints the closing line of a check run.
func writeSummary(w io.Writer, mode diagnostic.ColorMode, diags []lint.Diagnostic, files int) {
	var errs int
	for _, d := range diags {
		if d.Severity == lint.SeverityError {
			errs++
		}
	}
	c := color.New(color.Bold, color.FgYellow)
	if errs > 0 {
		c = color.New(color.Bold, color.FgRed)
	}
	if useColor(mode, w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	_, _ = c.Fprintf(w, "%s (%s) in %s\n",
		plural(len(diags), "problem"), plural(errs, "error"), plural(files, "file"))
}

// useColor resolves ColorAuto against w the way the renderer does.
func useColor(mode diagnostic.ColorMode, w io.Writer) bool {
	switch mode {
	case diagnostic.ColorAlways:
		return true
	case diagnostic.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && diagnostic.IsTerminal(f)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
