// Copyright © 2024 The pyscope authors

package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/luthersystems/pyscope/lint"
)

// Option configures an exported command factory (CheckCommand,
// ScopesCommand, LSPCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	extra []*lint.Analyzer
	log   logrus.FieldLogger
	v     *viper.Viper
}

// WithAnalyzers adds embedder-defined checks.  They run by default next to
// the built-in default set and can be selected with --checks.
func WithAnalyzers(analyzers ...*lint.Analyzer) Option {
	return func(c *cmdConfig) { c.extra = append(c.extra, analyzers...) }
}

// WithLogger sets the logger for command events.  The default is the
// logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *cmdConfig) { c.log = log }
}

// WithConfig reads settings from v instead of the global viper instance.
func WithConfig(v *viper.Viper) Option {
	return func(c *cmdConfig) { c.v = v }
}

func newCmdConfig(opts []Option) *cmdConfig {
	c := &cmdConfig{}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.v == nil {
		c.v = viper.GetViper()
	}
	return c
}

func (c *cmdConfig) settings() (settings, error) {
	return loadSettings(c.v)
}

// available returns every check that can be selected by name.
func (c *cmdConfig) available() []*lint.Analyzer {
	return append(lint.AllAnalyzers(), c.extra...)
}

// selectAnalyzers resolves check names.  With no names the default set
// plus the embedder's checks run.
func (c *cmdConfig) selectAnalyzers(names []string) ([]*lint.Analyzer, error) {
	if len(names) == 0 {
		return append(lint.DefaultAnalyzers(), c.extra...), nil
	}
	byName := make(map[string]*lint.Analyzer)
	for _, a := range c.available() {
		byName[a.Name] = a
	}
	var selected []*lint.Analyzer
	seen := make(map[string]bool)
	for _, name := range names {
		a, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown check: %s", name)
		}
		if !seen[name] {
			seen[name] = true
			selected = append(selected, a)
		}
	}
	return selected, nil
}
