// Copyright © 2024 The pyscope authors

package ast

// ParamKind classifies formal parameters.
type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamPosOnly
	ParamVarArgs
	ParamKwOnly
	ParamKwArgs
)

// Param is a formal parameter of a function or lambda.  Bare "*" and "/"
// markers do not produce a Param; they only change the Kind of the
// parameters that follow.  A Python 2 sublist parameter such as (b, c) in
// "def f(a, (b, c))" has a nil Name and a Store Tuple as Target.
type Param struct {
	Base
	Name       *Name
	Target     Expr
	Kind       ParamKind
	Annotation Expr
	Default    Expr
}

type FunctionDef struct {
	Base
	Name       *Name
	Params     []*Param
	Returns    Expr
	Decorators []Expr
	Body       []Stmt
	IsAsync    bool
}

type ClassDef struct {
	Base
	Name       *Name
	Bases      []Expr
	Keywords   []*Keyword
	Decorators []Expr
	Body       []Stmt
}

type Return struct {
	Base
	Value Expr
}

type Delete struct {
	Base
	Targets []Expr
}

// Assign is a (possibly chained) assignment: a = b = value.
type Assign struct {
	Base
	Targets []Expr
	Value   Expr
}

type AugAssign struct {
	Base
	Target Expr
	Op     string
	Value  Expr
}

type AnnAssign struct {
	Base
	Target     Expr
	Annotation Expr
	Value      Expr
}

type For struct {
	Base
	Target  Expr
	Iter    Expr
	Body    []Stmt
	Else    []Stmt
	IsAsync bool
}

type While struct {
	Base
	Test Expr
	Body []Stmt
	Else []Stmt
}

// If holds elif chains as a nested If in Else.
type If struct {
	Base
	Test Expr
	Body []Stmt
	Else []Stmt
}

type WithItem struct {
	Base
	Context Expr
	Target  Expr
}

type With struct {
	Base
	Items   []*WithItem
	Body    []Stmt
	IsAsync bool
}

// ExceptHandler is one except clause.  Name is the bound target, a Name in
// 3.x and any assignment target in 2.x.
type ExceptHandler struct {
	Base
	Type Expr
	Name Expr
	Body []Stmt
}

type Try struct {
	Base
	Body     []Stmt
	Handlers []*ExceptHandler
	Else     []Stmt
	Finally  []Stmt
}

// Raise covers both spellings; Extra holds the trailing operands of the
// 2.x form "raise E, V, T".
type Raise struct {
	Base
	Exc   Expr
	Cause Expr
	Extra []Expr
}

type Assert struct {
	Base
	Test Expr
	Msg  Expr
}

// Alias is one imported name.  Target is the name bound by the import: the
// "as" name when present, otherwise the first dotted component for plain
// imports and the imported name for from-imports.
type Alias struct {
	Base
	Name   string
	Target *Name
}

type Import struct {
	Base
	Names []*Alias
}

// ImportFrom is "from Module import Names".  Star is set for the wildcard
// form, in which case Names is empty.
type ImportFrom struct {
	Base
	Module string
	Level  int
	Names  []*Alias
	Star   bool
}

type Global struct {
	Base
	Names []*Name
}

type Nonlocal struct {
	Base
	Names []*Name
}

// Exec is the 2.x exec statement: exec Body in Globals, Locals.
type Exec struct {
	Base
	Body    Expr
	Globals Expr
	Locals  Expr
}

// Print is the 2.x print statement.
type Print struct {
	Base
	Dest      Expr
	Values    []Expr
	NoNewline bool
}

type ExprStmt struct {
	Base
	Value Expr
}

type Pass struct{ Base }

type Break struct{ Base }

type Continue struct{ Base }

// BadStmt is a placeholder for source that failed to parse.  It has no
// children.
type BadStmt struct{ Base }

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*AnnAssign) stmtNode()   {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*If) stmtNode()          {}
func (*With) stmtNode()        {}
func (*Try) stmtNode()         {}
func (*Raise) stmtNode()       {}
func (*Assert) stmtNode()      {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*Exec) stmtNode()        {}
func (*Print) stmtNode()       {}
func (*ExprStmt) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*BadStmt) stmtNode()     {}

func (*FunctionDef) scopeNode() {}
func (*ClassDef) scopeNode()    {}
