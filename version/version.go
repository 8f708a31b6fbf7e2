// Copyright © 2024 The pyscope authors

// Package version describes the language version a module is bound against.
//
// Several scoping rules changed across releases of the language: whether
// list comprehensions get their own scope, whether methods see an implicit
// __class__ cell, whether nonlocal exists at all.  Every rule the binder and
// parser select on is exposed as a predicate so that callers never compare
// version numbers directly.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version is a major.minor language version.
type Version struct {
	Major int
	Minor int
}

// Default is the version used when none is configured.
var Default = Version{Major: 3, Minor: 12}

// Minimum and Maximum bound the versions accepted by Parse.
var (
	Minimum = Version{Major: 2, Minor: 7}
	Maximum = Version{Major: 3, Minor: 13}
)

// ErrUnsupported is returned (wrapped) by Parse for well formed versions
// outside the supported range.
var ErrUnsupported = errors.New("unsupported language version")

// Parse parses a version of the form "3.8".  A bare major version selects
// the lowest supported minor release of that major version.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("empty language version")
	}
	majorStr, minorStr, hasMinor := strings.Cut(s, ".")
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return Version{}, fmt.Errorf("invalid language version %q: %w", s, err)
	}
	v := Version{Major: major}
	switch {
	case hasMinor:
		v.Minor, err = strconv.Atoi(minorStr)
		if err != nil {
			return Version{}, fmt.Errorf("invalid language version %q: %w", s, err)
		}
	case major == 2:
		v.Minor = 7
	}
	if v.Less(Minimum) || Maximum.Less(v) {
		return Version{}, fmt.Errorf("%w: %s (want %s through %s)", ErrUnsupported, v, Minimum, Maximum)
	}
	return v, nil
}

// MustParse is like Parse but panics on error.  It is intended for tests and
// package level variables.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool {
	return v == Version{}
}

// Less reports whether v precedes other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// AtLeast reports whether v is other or newer.
func (v Version) AtLeast(major, minor int) bool {
	return !v.Less(Version{Major: major, Minor: minor})
}

// Is3 reports whether v is a 3.x release.
func (v Version) Is3() bool { return v.Major >= 3 }

// HasNonlocal reports whether the nonlocal statement exists.
func (v Version) HasNonlocal() bool { return v.Is3() }

// ListComprehensionScope reports whether list comprehensions get their own
// scope.  Generator, set and dict comprehensions always do.
func (v Version) ListComprehensionScope() bool { return v.Is3() }

// HasClassCell reports whether methods may refer to the implicit __class__
// cell of their enclosing class.
func (v Version) HasClassCell() bool { return v.Is3() }

// SafeClosureDelete reports whether deleting a variable captured by a nested
// scope is permitted.
func (v Version) SafeClosureDelete() bool { return v.AtLeast(3, 2) }

// HasNamedExpr reports whether assignment expressions (:=) exist.
func (v Version) HasNamedExpr() bool { return v.AtLeast(3, 8) }

// HasExecStatement reports whether exec is a statement rather than a call.
func (v Version) HasExecStatement() bool { return !v.Is3() }

// HasPrintStatement reports whether print is a statement rather than a call.
func (v Version) HasPrintStatement() bool { return !v.Is3() }

// HasQualname reports whether class bodies define __qualname__.
func (v Version) HasQualname() bool { return v.AtLeast(3, 3) }

// HasAsyncKeywords reports whether async and await are reserved words.
func (v Version) HasAsyncKeywords() bool { return v.AtLeast(3, 7) }
