// Copyright © 2024 The pyscope authors

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/luthersystems/pyscope/version"
)

// buildVersion is set at link time with
// -ldflags "-X github.com/luthersystems/pyscope/cmd.buildVersion=v1.2.3".
var buildVersion = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pyscope version and the supported Python versions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		writeVersion(cmd.OutOrStdout())
	},
}

func writeVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "pyscope %s\n", buildVersion)
	_, _ = fmt.Fprintf(w, "python %s through %s (default %s)\n", version.Minimum, version.Maximum, version.Default)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
