// Package tast implements the typed AST (T-AST): the representation that
// every semantic phase reads and mutates, from scope-fill's skeleton
// through type-checking's annotations to the lowering passes' rewrites.
//
// Ownership follows exactly: a Program strongly owns its
// Definitions; a Function strongly owns its Locals and Body. Everywhere
// else — Scope entries, Symbol.Def, EnumVariant.Parent, a method's
// ReceiverOf — the reference is weak: a plain Go pointer the holder
// never ranges over to free, just to look up. This is what lets an enum
// and its variants, or a class and its methods, point at each other
// without a cycle-collecting GC: Go's GC already reclaims
// the cycle once the Program itself is dropped.
package tast

import (
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/token"
	"github.com/cwbudde/slangc/internal/types"
)

// DefKind discriminates the Definition tagged variant.
type DefKind int

const (
	DefFunction DefKind = iota
	DefStruct
	DefUnion // compiler-internal, introduced by enum lowering
	DefEnum
	DefClass
)

func (k DefKind) String() string {
	switch k {
	case DefFunction:
		return "function"
	case DefStruct:
		return "struct"
	case DefUnion:
		return "union"
	case DefEnum:
		return "enum"
	case DefClass:
		return "class"
	}
	return "?"
}

// FieldDef is one field of a Struct, Union choice, or Class. Init is
// non-nil only for a Class field; class lowering consumes it to build the synthesized
// constructor's body.
type FieldDef struct {
	Name string
	Type types.Type
	Init Expr
}

// StructDef is the body of a Kind == DefStruct Definition: an ordered
// list of fields, no behavior.
type StructDef struct {
	Fields []FieldDef
}

// UnionDef is the body of a Kind == DefUnion Definition: one field per
// enum variant, named after the variant.
type UnionDef struct {
	Choices []FieldDef
}

// EnumVariant is one variant of an EnumDef. Parent is a weak reference
// back to the owning enum Definition — the cyclic shape calls
// out by name.
type EnumVariant struct {
	ID           uint64
	Name         string
	PayloadTypes []types.Type
	Parent       *Definition
}

// EnumDef is the body of a Kind == DefEnum Definition.
type EnumDef struct {
	Variants []*EnumVariant
	// TaggedType is filled in by enum lowering (phase 7): the struct
	// {tag:Int, data:Union} this enum lowers to.
	TaggedType types.Type
	DataUnion  *Definition // the synthesized E_Data union, weak
}

// ClassDef is the body of a Kind == DefClass Definition. Methods holds
// weak references to Function Definitions; a method's own FuncDef holds
// a weak ReceiverOf pointer back to this class.
type ClassDef struct {
	Fields  []FieldDef
	Methods []*Definition

	// Not filled in by class lowering (phase 6): it turns the Definition
	// into a struct in place, sets Class to nil, and keeps the
	// synthesized constructor in its own per-run map.
	LoweredStruct types.Type
	Ctor          *Definition
}

// FuncDef is the body of a Kind == DefFunction Definition.
type FuncDef struct {
	Params     []*Local
	Result     types.Type
	Locals     []*Local
	Body       []Stmt
	ReceiverOf *Definition // weak ref to the owning class, pre class-lowering; nil for free functions
}

// Definition is a node-id-bearing, named, tagged-variant top-level
// entity. Exactly one of Func/Struct/Union/Enum/
// Class is populated, selected by Kind.
type Definition struct {
	ID   uint64
	Name string
	Kind DefKind

	// TypeParams is non-empty when this Definition is a generic template
	// (a Struct or Enum) pending instantiation (phase 3) and, later,
	// erasure (phase 9). A Definition with TypeParams is owned by the
	// Program's Generics list, not its Defs list.
	TypeParams []*TypeParamDef

	Func   *FuncDef
	Struct *StructDef
	Union  *UnionDef
	Enum   *EnumDef
	Class  *ClassDef
}

func (d *Definition) DefID() uint64   { return d.ID }
func (d *Definition) DefName() string { return d.Name }

// TypeParamDef is a declared generic type parameter, itself a
// declaration with its own node-id.
type TypeParamDef struct {
	ID   uint64
	Name string
}

func (t *TypeParamDef) DefID() uint64   { return t.ID }
func (t *TypeParamDef) DefName() string { return t.Name }

// Local is a parameter or local variable: a node-id-bearing declaration
// with a slot index used by both the bytecode compiler (phase 10, for
// LoadLocal/StoreLocal) and the LLVM emitter (for alloca naming).
type Local struct {
	ID      uint64
	Name    string
	Type    types.Type
	Index   int
	IsParam bool
}

// Program is a named compilation unit.
type Program struct {
	Name    string
	Scope   *sym.Scope
	Defs    []*Definition // strongly owned, concrete (non-generic) definitions
	Generics []*Definition // strongly owned, generic templates pending erasure
}

// AddDef appends a concrete definition, owned by the Program.
func (p *Program) AddDef(d *Definition) {
	if len(d.TypeParams) > 0 {
		p.Generics = append(p.Generics, d)
		return
	}
	p.Defs = append(p.Defs, d)
}

// FindByName returns the first definition (concrete or generic) with the
// given name, or nil.
func (p *Program) FindByName(name string) *Definition {
	for _, d := range p.Defs {
		if d.Name == name {
			return d
		}
	}
	for _, d := range p.Generics {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Location is a source position (row, column) attached to every Stmt and Expr.
type Location = token.Position
