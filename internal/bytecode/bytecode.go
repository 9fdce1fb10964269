// Package bytecode implements the stack-machine intermediate
// representation the tenth compiler phase lowers the T-AST down to: a
// typed, linear instruction sequence per function, interned composite
// types, and a JSON-ish serialization for the optional on-disk form.
package bytecode

import "github.com/google/uuid"

// Kind discriminates a bytecode Type.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindVoid
	KindPtr
	KindComposite
	KindFunction
)

// Type is the bytecode-level type: narrower than types.Type (no
// TypeVar, no Unresolved — everything reaching this package already
// passed generic erasure), but carrying the same Composite-by-index
// identity the T-AST's nominal types had.
type Type struct {
	Kind Kind

	Elem *Type // KindPtr

	Composite int // KindComposite: index into Program.Types

	Params []Type // KindFunction
	Result *Type  // KindFunction
}

func Bool() Type   { return Type{Kind: KindBool} }
func Int() Type    { return Type{Kind: KindInt} }
func Float() Type  { return Type{Kind: KindFloat} }
func String() Type { return Type{Kind: KindString} }
func Void() Type   { return Type{Kind: KindVoid} }

func Ptr(elem Type) Type {
	e := elem
	return Type{Kind: KindPtr, Elem: &e}
}

func Composite(index int) Type { return Type{Kind: KindComposite, Composite: index} }

func Function(params []Type, result Type) Type {
	r := result
	return Type{Kind: KindFunction, Params: params, Result: &r}
}

// TypeDefKind discriminates a composite type-table entry.
type TypeDefKind int

const (
	TypeDefStruct TypeDefKind = iota
	TypeDefUnion
	TypeDefArray
)

// FieldDef is one field of a Struct TypeDef or one choice of a Union
// TypeDef.
type FieldDef struct {
	Name string
	Type Type
}

// TypeDef is one entry of Program.Types: a struct, union, or array,
// interned by structural identity.
type TypeDef struct {
	Kind TypeDefKind
	Name string

	Fields []FieldDef // Struct, Union

	ElemType Type // Array
	ArrayLen int  // Array
}

// Import is an extern declaration naming a standard-library function.
type Import struct {
	Name string
	Sig  Type
}

// Param is a named, typed function parameter.
type Param struct {
	Name string
	Type Type
}

// Local is a named, typed function local.
type Local struct {
	Name string
	Type Type
}

// Function is one compiled Slang function: a flat instruction sequence
// plus the typed parameter/local layout the instructions index into.
type Function struct {
	Name   string
	Params []Param
	Locals []Local
	Result *Type // nil means void
	Code   []Instr
}

// Program is a whole compiled module: imports, an interned type table,
// and the compiled functions. ID is a per-compilation-run identifier;
// the disassembly header prints it and Serialize/Deserialize keep it, but
// no log line records it.
type Program struct {
	Name string
	ID   uuid.UUID

	Imports   []Import
	Types     []TypeDef
	Functions []Function
}

// NewProgram starts an empty Program tagged with a fresh run id.
func NewProgram(name string) *Program {
	return &Program{Name: name, ID: uuid.New()}
}

// InternType returns the index of def in p.Types, appending it if this
// is its first occurrence. Composite types are compared structurally,
// not by pointer, matching the stack-machine's flat representation.
func (p *Program) InternType(def TypeDef) int {
	for i, existing := range p.Types {
		if typeDefsEqual(existing, def) {
			return i
		}
	}
	p.Types = append(p.Types, def)
	return len(p.Types) - 1
}

func typeDefsEqual(a, b TypeDef) bool {
	if a.Kind != b.Kind || a.Name != b.Name {
		return false
	}
	switch a.Kind {
	case TypeDefArray:
		return a.ArrayLen == b.ArrayLen && typesEqual(a.ElemType, b.ElemType)
	default:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !typesEqual(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	}
}

func typesEqual(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindPtr:
		return typesEqual(*a.Elem, *b.Elem)
	case KindComposite:
		return a.Composite == b.Composite
	case KindFunction:
		if len(a.Params) != len(b.Params) || !typesEqual(*a.Result, *b.Result) {
			return false
		}
		for i := range a.Params {
			if !typesEqual(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
