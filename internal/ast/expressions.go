package ast

import (
	"fmt"
	"strings"

	"github.com/cwbudde/slangc/internal/token"
)

// ObjectRef is a name or dotted path (`a`, `a::b::c`) as written by the
// user, not yet resolved against any scope. Name binding (phase 2)
// rewrites every ObjectRef it can resolve into a tast.LoadSymbol node;
// no ObjectRef should survive phase 2.
type ObjectRef struct {
	Position token.Position
	Path     []string
}

func (o *ObjectRef) Pos() token.Position { return o.Position }
func (o *ObjectRef) String() string      { return strings.Join(o.Path, "::") }
func (*ObjectRef) exprNode()             {}

// IntLiteral is an integer literal.
type IntLiteral struct {
	Position token.Position
	Value    int64
}

func (l *IntLiteral) Pos() token.Position { return l.Position }
func (l *IntLiteral) String() string      { return fmt.Sprintf("%d", l.Value) }
func (*IntLiteral) exprNode()             {}

// FloatLiteral is a floating-point literal.
type FloatLiteral struct {
	Position token.Position
	Value    float64
}

func (l *FloatLiteral) Pos() token.Position { return l.Position }
func (l *FloatLiteral) String() string      { return fmt.Sprintf("%g", l.Value) }
func (*FloatLiteral) exprNode()             {}

// BoolLiteral is a boolean literal.
type BoolLiteral struct {
	Position token.Position
	Value    bool
}

func (l *BoolLiteral) Pos() token.Position { return l.Position }
func (l *BoolLiteral) String() string      { return fmt.Sprintf("%t", l.Value) }
func (*BoolLiteral) exprNode()             {}

// StringLiteral is a string literal.
type StringLiteral struct {
	Position token.Position
	Value    string
}

func (l *StringLiteral) Pos() token.Position { return l.Position }
func (l *StringLiteral) String() string      { return fmt.Sprintf("%q", l.Value) }
func (*StringLiteral) exprNode()             {}

// FieldInit is one `name = value` pair inside a struct literal.
type FieldInit struct {
	Name  string
	Value Expr
}

// ObjectInit is a named-field struct literal `S{f1=v1, f2=v2}`, before
// struct-literal canonicalization (phase 4) turns it into a positional
// tuple.
type ObjectInit struct {
	Position token.Position
	Type     Expr // names the target struct, possibly a generic instance
	Fields   []FieldInit
}

func (o *ObjectInit) Pos() token.Position { return o.Position }
func (o *ObjectInit) String() string      { return o.Type.String() + "{...}" }
func (*ObjectInit) exprNode()             {}

// ListLiteral is an array literal `[e1, e2, ...]`.
type ListLiteral struct {
	Position token.Position
	Elements []Expr
}

func (l *ListLiteral) Pos() token.Position { return l.Position }
func (l *ListLiteral) String() string      { return "[...]" }
func (*ListLiteral) exprNode()             {}

// CallExpr is any call-shaped expression: a function call, a class
// construction, or (after type evaluation promotes it) an enum-variant
// construction. Scope-fill preserves the syntax uniformly; later phases
// decide what it means.
type CallExpr struct {
	Position token.Position
	Callee   Expr
	Args     []Expr
}

func (c *CallExpr) Pos() token.Position { return c.Position }
func (c *CallExpr) String() string      { return c.Callee.String() + "(...)" }
func (*CallExpr) exprNode()             {}

// GetAttr is member access `base.attr`.
type GetAttr struct {
	Position token.Position
	Base     Expr
	Attr     string
}

func (g *GetAttr) Pos() token.Position { return g.Position }
func (g *GetAttr) String() string      { return g.Base.String() + "." + g.Attr }
func (*GetAttr) exprNode()             {}

// GetIndex is indexing `base[index]`, also used to write a generic
// application `Name[TypeArg]` in type position.
type GetIndex struct {
	Position token.Position
	Base     Expr
	Index    Expr
}

func (g *GetIndex) Pos() token.Position { return g.Position }
func (g *GetIndex) String() string      { return g.Base.String() + "[...]" }
func (*GetIndex) exprNode()             {}

// BinaryOp is a binary operator application.
type BinaryOp struct {
	Position token.Position
	Op       token.Type
	Left     Expr
	Right    Expr
}

func (b *BinaryOp) Pos() token.Position { return b.Position }
func (b *BinaryOp) String() string      { return "(" + b.Left.String() + " op " + b.Right.String() + ")" }
func (*BinaryOp) exprNode()             {}

// UnaryOp is a unary operator application (`-x`, `not x`).
type UnaryOp struct {
	Position token.Position
	Op       token.Type
	Operand  Expr
}

func (u *UnaryOp) Pos() token.Position { return u.Position }
func (u *UnaryOp) String() string      { return "(op " + u.Operand.String() + ")" }
func (*UnaryOp) exprNode()             {}

// ArrayTypeExpr denotes `[ElemType; Size]` in type position.
type ArrayTypeExpr struct {
	Position token.Position
	Elem     Expr
	Size     int
}

func (a *ArrayTypeExpr) Pos() token.Position { return a.Position }
func (a *ArrayTypeExpr) String() string      { return "[" + a.Elem.String() + "; …]" }
func (*ArrayTypeExpr) exprNode()             {}
