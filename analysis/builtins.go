// Copyright © 2024 The pyscope authors

package analysis

import (
	"sort"

	"github.com/luthersystems/pyscope/version"
)

// builtinRange is the span of versions a builtin name exists in.  A zero
// until means the name still exists in the latest version.
type builtinRange struct {
	since version.Version
	until version.Version
}

func (r builtinRange) contains(v version.Version) bool {
	if v.Less(r.since) {
		return false
	}
	return r.until.IsZero() || v.Less(r.until)
}

var (
	py27 = version.Version{Major: 2, Minor: 7}
	py30 = version.Version{Major: 3, Minor: 0}
)

var builtins = map[string]builtinRange{}

func init() {
	common := []string{
		"abs", "all", "any", "bin", "bool", "bytearray", "bytes", "callable",
		"chr", "classmethod", "compile", "complex", "delattr", "dict", "dir",
		"divmod", "enumerate", "eval", "filter", "float", "format",
		"frozenset", "getattr", "globals", "hasattr", "hash", "help", "hex",
		"id", "input", "int", "isinstance", "issubclass", "iter", "len",
		"list", "locals", "map", "max", "memoryview", "min", "next", "object",
		"oct", "open", "ord", "pow", "print", "property", "range", "repr",
		"reversed", "round", "set", "setattr", "slice", "sorted",
		"staticmethod", "str", "sum", "super", "tuple", "type", "vars", "zip",
		"__import__", "__build_class__",
		"None", "True", "False", "Ellipsis", "NotImplemented", "__debug__",
		"copyright", "credits", "license", "exit", "quit",

		"ArithmeticError", "AssertionError", "AttributeError",
		"BaseException", "BufferError", "BytesWarning", "DeprecationWarning",
		"EOFError", "EnvironmentError", "Exception", "FloatingPointError",
		"FutureWarning", "GeneratorExit", "IOError", "ImportError",
		"ImportWarning", "IndentationError", "IndexError", "KeyError",
		"KeyboardInterrupt", "LookupError", "MemoryError", "NameError",
		"NotImplementedError", "OSError", "OverflowError",
		"PendingDeprecationWarning", "ReferenceError", "RuntimeError",
		"RuntimeWarning", "StopIteration", "SyntaxError", "SyntaxWarning",
		"SystemError", "SystemExit", "TabError", "TypeError",
		"UnboundLocalError", "UnicodeDecodeError", "UnicodeEncodeError",
		"UnicodeError", "UnicodeTranslateError", "UnicodeWarning",
		"UserWarning", "ValueError", "Warning", "ZeroDivisionError",

		// module attributes every file can refer to
		"__name__", "__doc__", "__file__", "__package__", "__builtins__",
	}
	for _, name := range common {
		builtins[name] = builtinRange{since: py27}
	}
	for _, name := range []string{
		"apply", "basestring", "buffer", "cmp", "coerce", "execfile", "file",
		"intern", "long", "raw_input", "reduce", "reload", "unichr",
		"unicode", "xrange", "StandardError",
	} {
		builtins[name] = builtinRange{since: py27, until: py30}
	}
	for _, name := range []string{
		"ascii", "exec", "BlockingIOError", "BrokenPipeError",
		"ChildProcessError", "ConnectionAbortedError", "ConnectionError",
		"ConnectionRefusedError", "ConnectionResetError", "FileExistsError",
		"FileNotFoundError", "InterruptedError", "IsADirectoryError",
		"NotADirectoryError", "PermissionError", "ProcessLookupError",
		"ResourceWarning", "TimeoutError", "__spec__", "__loader__",
	} {
		builtins[name] = builtinRange{since: py30}
	}
	since := map[string]version.Version{
		"RecursionError":          {Major: 3, Minor: 5},
		"StopAsyncIteration":      {Major: 3, Minor: 5},
		"ModuleNotFoundError":     {Major: 3, Minor: 6},
		"breakpoint":              {Major: 3, Minor: 7},
		"aiter":                   {Major: 3, Minor: 10},
		"anext":                   {Major: 3, Minor: 10},
		"EncodingWarning":         {Major: 3, Minor: 10},
		"BaseExceptionGroup":      {Major: 3, Minor: 11},
		"ExceptionGroup":          {Major: 3, Minor: 11},
		"PythonFinalizationError": {Major: 3, Minor: 13},
	}
	for name, v := range since {
		builtins[name] = builtinRange{since: v}
	}
}

// IsBuiltin reports whether name is predefined in every module under
// version v.
func IsBuiltin(name string, v version.Version) bool {
	r, ok := builtins[name]
	return ok && r.contains(v)
}

// Builtins returns the sorted builtin names of version v.
func Builtins(v version.Version) []string {
	var names []string
	for name, r := range builtins {
		if r.contains(v) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
