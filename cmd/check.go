// Copyright © 2024 The pyscope authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/analysis"
	"github.com/luthersystems/pyscope/lint"
)

const stdinName = "<stdin>"

type checkFlags struct {
	json     bool
	list     bool
	excludes []string
}

// CheckCommand creates the "check" cobra command.  Embedders can pass
// WithAnalyzers to run their own checks next to the built-in ones.
func CheckCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var flags checkFlags

	cmd := &cobra.Command{
		Use:     "check [flags] [files...]",
		Aliases: []string{"lint"},
		Short:   "Report binding errors and likely mistakes in Python source files",
		Long: `Bind every name in the given Python files to its scope and report problems.

The binding check reports what the interpreter would reject at compile time:
misplaced global and nonlocal declarations, import * or exec in a function
with closures, deleting a variable referenced by a nested scope, and
assignment expressions that rebind comprehension variables.  Other checks
report likely mistakes, similar to "go vet" for Go.

With no files, reads from stdin.  A directory or a pattern ending in "/..."
stands for every .py file below it.  Files are checked in parallel
(--jobs).

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a specific diagnostic, add a comment on the same line:
  exec(code)  # nolint:binding

To suppress all checks on a line:
  exec(code)  # nolint

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `
Examples:
  pyscope check app.py                          # Check a single file
  pyscope check ./...                           # Check a tree
  pyscope check --python 2.7 legacy/            # Use Python 2 scoping rules
  pyscope check --json app.py                   # Output diagnostics as JSON
  pyscope check --checks=undefined-name app.py  # Run only specific checks
  pyscope check --list                          # List available checks
  pyscope check --exclude='test_*' ./...        # Exclude files by name
  pyscope check --exclude=build ./...           # Exclude directories
  cat app.py | pyscope check                    # Check from stdin`,
		Run: func(cmd *cobra.Command, args []string) {
			code := runCheck(cmd.Context(), cfg, &flags, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if code != exitClean {
				os.Exit(code)
			}
		},
	}

	cmd.Flags().BoolVar(&flags.json, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().String("checks", "",
		"Comma-separated list of checks to run (default: the default set).")
	cmd.Flags().BoolVar(&flags.list, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&flags.excludes, "exclude", nil,
		"Glob pattern for files or directories to exclude (may be repeated).")
	_ = cfg.v.BindPFlag("checks", cmd.Flags().Lookup("checks"))

	return cmd
}

// runCheck runs the check command and returns its exit code.
func runCheck(ctx context.Context, cfg *cmdConfig, flags *checkFlags, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	fail := func(err error) int {
		fmt.Fprintln(stderr, "pyscope check:", err)
		return exitUsage
	}

	s, err := cfg.settings()
	if err != nil {
		return fail(err)
	}
	if flags.list {
		listChecks(stdout, cfg.available())
		return exitClean
	}
	analyzers, err := cfg.selectAnalyzers(s.Checks)
	if err != nil {
		return fail(err)
	}
	l := &lint.Linter{
		Analyzers: analyzers,
		Config:    analysis.Config{Version: s.Version},
	}

	var (
		diags   []lint.Diagnostic
		files   int
		sources = make(map[string][]byte)
	)
	if len(args) == 0 {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return fail(fmt.Errorf("reading stdin: %w", err))
		}
		sources[stdinName] = src
		if diags, err = l.LintFile(ctx, src, stdinName); err != nil {
			return fail(err)
		}
		files = 1
	} else {
		paths, err := expandArgs(args, flags.excludes)
		if err != nil {
			return fail(err)
		}
		results, err := analysis.BindFiles(ctx, paths, l.Config, s.Jobs)
		if err != nil {
			return fail(err)
		}
		for _, r := range results {
			d, err := l.LintResult(r)
			if err != nil {
				return fail(err)
			}
			diags = append(diags, d...)
		}
		files = len(paths)
	}

	cfg.log.WithFields(logrus.Fields{
		"files":    files,
		"problems": len(diags),
		"python":   s.Version.String(),
	}).Info("check finished")

	if len(diags) == 0 {
		return exitClean
	}
	if flags.json {
		if err := lint.FormatJSON(stdout, diags); err != nil {
			return fail(err)
		}
		return exitFindings
	}
	if err := renderCheckDiagnostics(stderr, newRenderer(s.Color, sources), diags); err != nil {
		return fail(err)
	}
	writeSummary(stderr, s.Color, diags, files)
	return exitFindings
}

func listChecks(w io.Writer, analyzers []*lint.Analyzer) {
	defaults := make(map[string]bool)
	for _, a := range lint.DefaultAnalyzers() {
		defaults[a.Name] = true
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, a := range analyzers {
		summary, _, _ := strings.Cut(a.Doc, "\n")
		mark := ""
		if !defaults[a.Name] {
			mark = " (off by default)"
		}
		fmt.Fprintf(tw, "%s\t%s%s\n", a.Name, summary, mark) //nolint:errcheck // best-effort output to writer
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(CheckCommand())
}
