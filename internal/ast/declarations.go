package ast

import "github.com/cwbudde/slangc/internal/token"

// FuncDecl is a top-level function or — after being attached to a class
// by the parser as a Method — a method body. ReceiverOf is empty for a
// free function and holds the owning class's name for a method; class
// lowering (phase 6) uses that to insert the explicit `this` parameter.
type FuncDecl struct {
	Position   token.Position
	Name       string
	ReceiverOf string
	Params     []*Param
	Result     Expr // nil means Void
	Body       *Block
}

func (f *FuncDecl) Pos() token.Position { return f.Position }
func (f *FuncDecl) String() string      { return "fn " + f.Name }
func (*FuncDecl) declNode()             {}
func (f *FuncDecl) DeclName() string    { return f.Name }

// StructDecl is a plain value aggregate: named, ordered fields with no
// behavior.
type StructDecl struct {
	Position   token.Position
	Name       string
	TypeParams []*TypeParam
	Fields     []*Field
}

func (d *StructDecl) Pos() token.Position { return d.Position }
func (d *StructDecl) String() string      { return "struct " + d.Name }
func (*StructDecl) declNode()             {}
func (d *StructDecl) DeclName() string    { return d.Name }

// VariantDecl is one enum variant, e.g. `Some(int)` (arity 1), `None`
// (arity 0), or `Pair(int, int)` (arity 2).
type VariantDecl struct {
	Position   token.Position
	Name       string
	PayloadTypes []Expr
}

// EnumDecl is a tagged-union-like source construct: a fixed set of named
// variants, each with zero or more payload fields. Lowered to a tagged
// union record by phase 7.
type EnumDecl struct {
	Position   token.Position
	Name       string
	TypeParams []*TypeParam
	Variants   []*VariantDecl
}

func (d *EnumDecl) Pos() token.Position { return d.Position }
func (d *EnumDecl) String() string      { return "enum " + d.Name }
func (*EnumDecl) declNode()             {}
func (d *EnumDecl) DeclName() string    { return d.Name }

// ClassDecl is a struct plus behavior: every field must carry an
// initializer (no defaults synthesized elsewhere), and methods receive
// an implicit `this`. Phase 6 rewrites a ClassDecl into a Struct plus a
// constructor function plus top-level functions for its methods; no
// ClassDecl survives that phase.
type ClassDecl struct {
	Position   token.Position
	Name       string
	TypeParams []*TypeParam
	Fields     []*Field
	Methods    []*FuncDecl
}

func (d *ClassDecl) Pos() token.Position { return d.Position }
func (d *ClassDecl) String() string      { return "class " + d.Name }
func (*ClassDecl) declNode()             {}
func (d *ClassDecl) DeclName() string    { return d.Name }

// GenericDecl wraps a StructDecl or EnumDecl that declares one or more
// type parameters, marking it as a template pending instantiation
// (phase 3) and erasure (phase 9) rather than a concrete definition.
type GenericDecl struct {
	Inner Decl
}

func (d *GenericDecl) Pos() token.Position { return d.Inner.Pos() }
func (d *GenericDecl) String() string      { return "generic " + d.Inner.String() }
func (*GenericDecl) declNode()             {}
func (d *GenericDecl) DeclName() string    { return d.Inner.DeclName() }
