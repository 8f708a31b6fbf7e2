// Copyright © 2024 The pyscope authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/report"
)

// ScopesCommand creates the "scopes" cobra command.
func ScopesCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var format string

	cmd := &cobra.Command{
		Use:   "scopes [flags] file",
		Short: "Print the scope tree of a Python module",
		Long: `Bind a Python module and print its scopes, the variables each scope
defines and where every name is resolved.

Use "-" to read the module from stdin.  The json, yaml and msgpack formats
carry the full scope model, including references, for use by other tools.

Examples:
  pyscope scopes app.py                    Print the scope tree
  pyscope scopes -f json app.py            Dump the scope model as JSON
  pyscope scopes --python 2.7 -f yaml -    Bind stdin with Python 2 rules`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			code := runScopes(cmd.Context(), cfg, format, args[0], cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if code != exitClean {
				os.Exit(code)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text",
		"Output format: text, json, yaml or msgpack.")
	return cmd
}

func runScopes(ctx context.Context, cfg *cmdConfig, format, path string, stdin io.Reader, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	fail := func(err error) int {
		fmt.Fprintln(stderr, "pyscope scopes:", err)
		return exitUsage
	}

	s, err := cfg.settings()
	if err != nil {
		return fail(err)
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return fail(err)
	}

	name := path
	var src []byte
	if path == "-" {
		name = stdinName
		src, err = io.ReadAll(stdin)
	} else {
		src, err = os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	}
	if err != nil {
		return fail(err)
	}

	snap, syntax, err := analysis.AnalyzeFile(ctx, name, src, analysis.Config{Version: s.Version})
	if err != nil {
		return fail(err)
	}
	cfg.log.WithField("file", name).
		WithField("scopes", len(snap.Scopes())).
		Debug("module bound")

	if len(syntax) > 0 {
		r := newRenderer(s.Color, map[string][]byte{name: src})
		if err := r.RenderAll(stderr, syntax); err != nil {
			return fail(err)
		}
	}
	if err := report.Encode(stdout, report.New(snap), f); err != nil {
		return fail(err)
	}
	if hasErrors(syntax) {
		return exitFindings
	}
	return exitClean
}

func hasErrors(diags []diagnostic.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diagnostic.SeverityError {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(ScopesCommand())
}
