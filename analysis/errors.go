// Copyright © 2024 The pyscope authors

package analysis

import (
	"errors"
	"fmt"
)

// ErrPhaseOrder is returned (wrapped) when binder phases are run out of
// order or more than once.
var ErrPhaseOrder = errors.New("binder phase out of order")

// ConfigError reports an invalid binder input.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid binder config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
