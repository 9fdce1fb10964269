// Package ast defines the parsed abstract syntax tree for Slang source.
//
// This tree is the output of the parser/lexer boundary: it
// names things, but resolves nothing. Every reference — a bare identifier,
// a dotted path, a type name — is preserved verbatim as an ObjectRef or
// Unresolved node. Phase 1 (scope-fill) walks this tree to build the T-AST
// skeleton in package tast; phases 2+ resolve and annotate it there.
package ast

import "github.com/cwbudde/slangc/internal/token"

// Node is the base interface implemented by every AST node.
type Node interface {
	Pos() token.Position
	String() string
}

// Expr is any node that denotes a value, or — in type position — a type.
// Slang reuses the expression grammar for type expressions:
// a name, a dotted path, or a generic application `Name[Args]` all parse
// as ordinary expressions and are only interpreted as types later.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any node that performs an action.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is any top-level or nested declaration: function, struct, enum,
// class, or a generic wrapping one of those.
type Decl interface {
	Node
	declNode()
	DeclName() string
}

// Program is the root of a parsed compilation unit.
type Program struct {
	Name    string
	Imports []*ImportDecl
	Decls   []Decl
}

func (p *Program) Pos() token.Position { return token.Position{Line: 1, Column: 1} }
func (p *Program) String() string      { return "Program(" + p.Name + ")" }

// ImportDecl is either `import M` or `from M import a, b`.
type ImportDecl struct {
	Position token.Position
	Module   string
	Names    []string // empty for a plain `import M`
}

func (i *ImportDecl) Pos() token.Position { return i.Position }
func (i *ImportDecl) String() string      { return "import " + i.Module }

// Param is a function/method parameter: a name plus its declared type
// expression.
type Param struct {
	Position token.Position
	Name     string
	Type     Expr
}

// Field is a struct/class field: a name, declared type, and — for
// classes only — an initializer expression (every class field must have
// one; ).
type Field struct {
	Position token.Position
	Name     string
	Type     Expr
	Init     Expr
}

// TypeParam is a generic type parameter name (`T` in `Box[T]`).
type TypeParam struct {
	Position token.Position
	Name     string
}
