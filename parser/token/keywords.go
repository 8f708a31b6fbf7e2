// Copyright © 2024 The pyscope authors

package token

import "github.com/luthersystems/pyscope/version"

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "break": true, "class": true, "continue": true,
	"def": true, "del": true, "elif": true, "else": true, "except": true,
	"finally": true, "for": true, "from": true, "global": true, "if": true,
	"import": true, "in": true, "is": true, "lambda": true, "not": true,
	"or": true, "pass": true, "raise": true, "return": true, "try": true,
	"while": true, "with": true, "yield": true,
}

// IsKeyword reports whether name is a reserved word under v.
func IsKeyword(name string, v version.Version) bool {
	switch name {
	case "nonlocal":
		return v.HasNonlocal()
	case "async", "await":
		return v.HasAsyncKeywords()
	case "exec":
		return v.HasExecStatement()
	case "print":
		return v.HasPrintStatement()
	case "None", "True", "False":
		// Constants in both lines, but only reserved in 3.x.
		return v.Is3()
	}
	return keywords[name]
}
