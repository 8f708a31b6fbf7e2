// Copyright © 2024 The pyscope authors

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/lsp"
)

// LSPCommand creates the "lsp" cobra command.  Checks added with
// WithAnalyzers are run on every document next to the default set.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the pyscope Language Server Protocol server",
		Long: `Start an LSP server for Python source files.

The language server provides diagnostics, hover, go-to-definition, find
references, document highlights, completion, document and workspace
symbols, rename, folding ranges and quick fixes, all driven by the scope
model.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  pyscope lsp                           Start with stdio transport
  pyscope lsp --python 3.8              Analyze documents as Python 3.8
  pyscope lsp --port 7998               Start with TCP on port 7998

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "pyscope lsp --stdio" for .py files.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			s, err := cfg.settings()
			if err != nil {
				fmt.Fprintln(os.Stderr, "pyscope lsp:", err)
				os.Exit(exitUsage)
			}
			analyzers, err := cfg.selectAnalyzers(s.Checks)
			if err != nil {
				fmt.Fprintln(os.Stderr, "pyscope lsp:", err)
				os.Exit(exitUsage)
			}

			srv := lsp.New(
				lsp.WithVersion(s.Version),
				lsp.WithAnalyzers(analyzers),
				lsp.WithLogger(cfg.log),
			)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				cfg.log.WithField("addr", addr).Info("pyscope LSP server listening")
				err = srv.RunTCP(addr)
			} else {
				err = srv.RunStdio()
			}
			if err != nil {
				cfg.log.WithError(err).Error("lsp server error")
				os.Exit(exitFindings)
			}
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
