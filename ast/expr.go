// Copyright © 2024 The pyscope authors

package ast

// Name is an identifier occurrence.  Every binding site and every use of a
// name is a distinct *Name.
type Name struct {
	Base
	ID  string
	Ctx Ctx
}

// ConstKind classifies literal constants.
type ConstKind int

const (
	ConstNumber ConstKind = iota
	ConstString
	ConstBytes
	ConstNone
	ConstTrue
	ConstFalse
	ConstEllipsis
)

// Constant is a literal.  Value is the source spelling; adjacent string
// literals are concatenated spellings separated by a space.
type Constant struct {
	Base
	Kind  ConstKind
	Value string
}

type Attribute struct {
	Base
	Value Expr
	Attr  string
	Ctx   Ctx
}

type Subscript struct {
	Base
	Value Expr
	Index Expr
	Ctx   Ctx
}

type Slice struct {
	Base
	Lower Expr
	Upper Expr
	Step  Expr
}

// Keyword is a keyword argument.  Arg is empty for "**mapping".
type Keyword struct {
	Base
	Arg   string
	Value Expr
}

type Call struct {
	Base
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

type BinOp struct {
	Base
	Left  Expr
	Op    string
	Right Expr
}

type UnaryOp struct {
	Base
	Op      string
	Operand Expr
}

type BoolOp struct {
	Base
	Op     string
	Values []Expr
}

type Compare struct {
	Base
	Left        Expr
	Ops         []string
	Comparators []Expr
}

type IfExp struct {
	Base
	Test Expr
	Body Expr
	Else Expr
}

type Tuple struct {
	Base
	Elts []Expr
	Ctx  Ctx
}

type List struct {
	Base
	Elts []Expr
	Ctx  Ctx
}

type Set struct {
	Base
	Elts []Expr
}

// Dict holds parallel Keys and Values.  A nil key marks "**mapping".
type Dict struct {
	Base
	Keys   []Expr
	Values []Expr
}

type Starred struct {
	Base
	Value Expr
	Ctx   Ctx
}

type Lambda struct {
	Base
	Params []*Param
	Body   Expr
}

// CompKind distinguishes the comprehension forms.
type CompKind int

const (
	ListComp CompKind = iota
	SetComp
	DictComp
	GeneratorExp
)

func (k CompKind) String() string {
	switch k {
	case ListComp:
		return "list comprehension"
	case SetComp:
		return "set comprehension"
	case DictComp:
		return "dict comprehension"
	case GeneratorExp:
		return "generator expression"
	default:
		return "comprehension"
	}
}

// CompFor is one "for Target in Iter if ..." clause.
type CompFor struct {
	Base
	Target  Expr
	Iter    Expr
	Ifs     []Expr
	IsAsync bool
}

// Comprehension covers list, set and dict comprehensions and generator
// expressions.  Elt is the element (the key for dict comprehensions) and
// Value is only set for dict comprehensions.
type Comprehension struct {
	Base
	Kind       CompKind
	Elt        Expr
	Value      Expr
	Generators []*CompFor
}

// NamedExpr is an assignment expression: Target := Value.
type NamedExpr struct {
	Base
	Target *Name
	Value  Expr
}

type Await struct {
	Base
	Value Expr
}

type Yield struct {
	Base
	Value Expr
}

type YieldFrom struct {
	Base
	Value Expr
}

// BadExpr is a placeholder for an expression that failed to parse.  It has
// no children.
type BadExpr struct{ Base }

func (*Name) exprNode()          {}
func (*Constant) exprNode()      {}
func (*Attribute) exprNode()     {}
func (*Subscript) exprNode()     {}
func (*Slice) exprNode()         {}
func (*Call) exprNode()          {}
func (*BinOp) exprNode()         {}
func (*UnaryOp) exprNode()       {}
func (*BoolOp) exprNode()        {}
func (*Compare) exprNode()       {}
func (*IfExp) exprNode()         {}
func (*Tuple) exprNode()         {}
func (*List) exprNode()          {}
func (*Set) exprNode()           {}
func (*Dict) exprNode()          {}
func (*Starred) exprNode()       {}
func (*Lambda) exprNode()        {}
func (*Comprehension) exprNode() {}
func (*NamedExpr) exprNode()     {}
func (*Await) exprNode()         {}
func (*Yield) exprNode()         {}
func (*YieldFrom) exprNode()     {}
func (*BadExpr) exprNode()       {}

func (*Lambda) scopeNode()        {}
func (*Comprehension) scopeNode() {}
