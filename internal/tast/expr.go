package tast

import (
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/token"
	"github.com/cwbudde/slangc/internal/types"
)

// Expr is a T-AST expression: every concrete kind embeds ExprBase, so
// every expression carries a location and an inferred type. The
// expression's tagged-variant kind is simply which concrete Go type
// implements Expr — phases switch on it with a type switch rather than
// threading an explicit enum tag alongside the struct.
type Expr interface {
	Pos() token.Position
	ExprType() types.Type
	SetExprType(types.Type)
}

// ExprBase is embedded by every concrete Expr.
type ExprBase struct {
	Position token.Position
	Typ      types.Type
}

func (b *ExprBase) Pos() token.Position       { return b.Position }
func (b *ExprBase) ExprType() types.Type      { return b.Typ }
func (b *ExprBase) SetExprType(t types.Type)   { b.Typ = t }

// ObjectRef is a name or dotted path preserved verbatim by scope-fill.
// No ObjectRef may survive name binding (phase 2); one found later is a
// programmer error, not a diagnostic.
type ObjectRef struct {
	ExprBase
	Path []string
}

// LiteralKind discriminates BoolLiteral/Int/Float/String/Undefined
// literal payloads without needing four near-identical Go types.
type LiteralKind int

const (
	LitBool LiteralKind = iota
	LitInt
	LitFloat
	LitString
	LitUndefined
)

// Literal is a basic-typed constant.
type Literal struct {
	ExprBase
	Kind    LiteralKind
	Bool    bool
	Int     int64
	Float   float64
	String  string
}

// LoadSymbol is the result of successfully resolving an ObjectRef (phase
// 2) or a dotted module-qualified path.
type LoadSymbol struct {
	ExprBase
	Sym *sym.Symbol
}

// FieldValue is one `name = value` pair of a not-yet-canonicalized
// ObjectInit.
type FieldValue struct {
	Name  string
	Value Expr
}

// ObjectInit is a named-field struct literal, pre phase-4
// canonicalization.
type ObjectInit struct {
	ExprBase
	StructType types.Type
	Fields     []FieldValue
}

// TupleLiteral is the canonical, positional struct literal: every slot
// corresponds by index to StructType's field order. Also used by class lowering's synthesized
// constructor body.
type TupleLiteral struct {
	ExprBase
	StructType types.Type
	Values     []Expr
}

// UnionLiteral tags one choice of a (compiler-internal) Union type with
// its payload value.
type UnionLiteral struct {
	ExprBase
	UnionType types.Type
	Choice    string
	Payload   Expr
}

// EnumLiteral is an enum-variant construction, produced by type
// evaluation's call-syntax promotion and consumed — replaced
// entirely — by enum lowering. No EnumLiteral survives
// phase 7.
type EnumLiteral struct {
	ExprBase
	EnumType types.Type
	Variant  string
	Args     []Expr
}

// ListLiteral is an array literal.
type ListLiteral struct {
	ExprBase
	Elements []Expr
}

// Call is a function-call-shaped expression: callee evaluates to a
// function-typed value, Args are positionally coerced to its parameters
//.
type Call struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// CastKind discriminates TypeCast's four conversions.
type CastKind int

const (
	CastFloatToInt CastKind = iota
	CastIntToFloat
	CastUserToOpaque
	CastOpaqueToUser
)

// TypeCast is an explicit conversion inserted by the compiler: numeric
// coercion (phase 5's Int/Float widening) or generic-erasure boundary
// casts (phase 9, between a TypeVar slot's erased Opaque storage and
// its bound concrete type at a given use-site).
type TypeCast struct {
	ExprBase
	Kind    CastKind
	Operand Expr
}

// GetAttr is member access `base.attr`. Index is resolved (to the
// field's position in StructType's field order) once the base's type is
// known, during type-checking.
type GetAttr struct {
	ExprBase
	Base  Expr
	Attr  string
	Index int
}

// GetIndex is array indexing `base[index]`.
type GetIndex struct {
	ExprBase
	Base  Expr
	Index Expr
}

// BinOpKind is the operator of a BinOp node.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpEq
	OpNe
	OpAnd
	OpOr
)

// BinOp is a binary operator application, already resolved to a single
// BinOpKind (the parser's token.Type has already been classified).
type BinOp struct {
	ExprBase
	Op    BinOpKind
	Left  Expr
	Right Expr
}

// UnaryOpKind is the operator of a UnaryOp node.
type UnaryOpKind int

const (
	OpNeg UnaryOpKind = iota
	OpNot
)

// UnaryOp is a unary operator application.
type UnaryOp struct {
	ExprBase
	Op      UnaryOpKind
	Operand Expr
}
