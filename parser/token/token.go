// Copyright © 2024 The pyscope authors

package token

import "fmt"

// Token is a lexical token.  Pos and End are byte offsets into the source
// text, End exclusive.
type Token struct {
	Type Type
	Text string
	Pos  int
	End  int
}

func (tok *Token) String() string {
	switch tok.Type {
	case NAME, NUMBER, STRING, OP, ERROR, COMMENT:
		return fmt.Sprintf("%s %q", tok.Type, tok.Text)
	}
	return tok.Type.String()
}

// Is reports whether tok is an OP or NAME token with the given text.
func (tok *Token) Is(text string) bool {
	return (tok.Type == OP || tok.Type == NAME) && tok.Text == text
}

type Type uint

// Type constants used by the lexer and parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	NAME
	NUMBER
	STRING
	OP

	COMMENT

	// Layout
	NEWLINE
	INDENT
	DEDENT

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID: "invalid",
		ERROR:   "error",
		EOF:     "EOF",
		NAME:    "name",
		NUMBER:  "number",
		STRING:  "string",
		OP:      "op",
		COMMENT: "comment",
		NEWLINE: "newline",
		INDENT:  "indent",
		DEDENT:  "dedent",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// Location is a resolved source position.  Line and Col start at 1; Col
// counts bytes.
type Location struct {
	File string
	Pos  int
	Line int
	Col  int
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
