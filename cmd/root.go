// Copyright © 2024 The pyscope authors

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/version"
)

// Exit codes shared by all commands.
const (
	exitClean    = 0
	exitFindings = 1
	exitUsage    = 2
)

const envPrefix = "PYSCOPE"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pyscope",
	Short: "Static scope analysis for Python",
	Long: `pyscope binds every name in a Python module to the scope that defines
it, the way the interpreter's compiler does, and reports what it finds.

Getting started:
  pyscope check app.py              Report binding errors and likely mistakes
  pyscope check ./...               Check every .py file below the current directory
  pyscope scopes app.py             Print the scope tree of a module
  pyscope scopes -f json app.py     Dump the scope tree as JSON
  pyscope lsp                       Start the language server on stdio

Scoping rules follow the selected language version (--python, default ` + version.Default.String() + `):
nonlocal, class cells, comprehension scopes and assignment expressions are
only recognized where the version has them.

Configuration is read from $HOME/.pyscope.yaml (or --config) and from
PYSCOPE_* environment variables, e.g. PYSCOPE_PYTHON=2.7. Keys:
  python     language version
  color      auto, always or never
  log-level  panic, fatal, error, warning, info, debug or trace
  checks     list of lint checks to run
  jobs       number of files checked in parallel (0 = GOMAXPROCS)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setupLogging(logrus.StandardLogger(), viper.GetString("log-level"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pyscope:", err)
		os.Exit(exitUsage)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pyscope.yaml)")
	pf.String("color", "auto",
		`Control colored output: "auto", "always", or "never".`)
	pf.String("python", version.Default.String(),
		"Python version to analyze as (2.7, 3.0 through 3.13).")
	pf.String("log-level", "warning",
		"Log level: panic, fatal, error, warning, info, debug or trace.")
	pf.Int("jobs", 0,
		"Number of files processed in parallel (0 uses GOMAXPROCS).")
	for _, name := range []string{"color", "python", "log-level", "jobs"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".pyscope" (without extension).
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".pyscope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	err := viper.ReadInConfig()
	switch {
	case err == nil:
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	case cfgFile != "":
		logrus.WithError(err).WithField("file", cfgFile).Warn("cannot read config file")
	}
}

// settings are the resolved values of the configuration keys shared by
// the commands.
type settings struct {
	Version version.Version
	Color   diagnostic.ColorMode
	Checks  []string
	Jobs    int
}

// loadSettings validates the merged flag, environment and file
// configuration.
func loadSettings(v *viper.Viper) (settings, error) {
	var s settings
	var err error
	if s.Version, err = version.Parse(v.GetString("python")); err != nil {
		return s, fmt.Errorf("python: %w", err)
	}
	if s.Color, err = diagnostic.ParseColorMode(strings.ToLower(v.GetString("color"))); err != nil {
		return s, fmt.Errorf("color: %w", err)
	}
	s.Checks = splitList(v.GetStringSlice("checks"))
	s.Jobs = v.GetInt("jobs")
	if s.Jobs < 0 {
		return s, fmt.Errorf("jobs: must not be negative, got %d", s.Jobs)
	}
	return s, nil
}

// splitList flattens comma separated entries, so that both a YAML list
// and "a,b" on the command line or in the environment work.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// setupLogging applies the configured log level.  Logs go to stderr so
// they never mix with command output or the LSP stdio stream.
func setupLogging(log *logrus.Logger, name string) error {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return nil
}
