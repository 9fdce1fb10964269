// Package types implements SlangType, the discriminated union of types
// that flows through the T-AST from phase 3 (type evaluation) onward
//.
package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the SlangType union.
type Kind int

const (
	KindUndefined Kind = iota
	KindBasic
	KindArray
	KindUser
	KindTypeVar
	KindTypeConstructor
	KindOpaque
	KindVoid
	KindUnresolved
)

// BasicKind enumerates the primitive SlangType values.
type BasicKind int

const (
	Bool BasicKind = iota
	Int
	Float
	String
)

func (b BasicKind) String() string {
	switch b {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	}
	return "?"
}

// UserKind distinguishes the flavors of a User type.
type UserKind int

const (
	UserStruct UserKind = iota
	UserEnum
	UserClass
	UserFunction
	// UserUnion tags the compiler-internal union type enum lowering
	// (phase 7) synthesizes for an enum's payload data — never produced
	// by the parser or type evaluation, only by that lowering pass.
	UserUnion
)

// Definition is the minimal surface SlangType needs from a definition:
// enough to key nominal equality and to let the type ask its owner
// questions (e.g. "is this a heap type"). The concrete implementation is
// tast.Definition; this interface lets package types avoid importing
// package tast (which imports types), breaking the cycle by keeping
// package types independent of the AST package its values describe.
type Definition interface {
	DefID() uint64
	DefName() string
}

// RawExpr is satisfied by ast.Expr; kept as an interface here for the
// same reason Definition is — SlangType.Unresolved wraps the original
// parsed expression until phase 3 evaluates it.
type RawExpr interface {
	String() string
}

// Type is a SlangType value. The zero Type is KindUndefined, the
// sentinel for "not yet typed".
type Type struct {
	Kind Kind

	Basic BasicKind // valid when Kind == KindBasic

	Elem     *Type // valid when Kind == KindArray
	ArrayLen int   // valid when Kind == KindArray

	User     UserKind   // valid when Kind == KindUser
	Def      Definition // valid when Kind == KindUser or KindTypeConstructor(User)
	TypeArgs []Type     // generic instantiation arguments, Kind == KindUser

	// Function signature, valid when Kind == KindUser && User == UserFunction.
	Params []Type
	Result *Type

	TypeVar Definition // valid when Kind == KindTypeVar (weak ref to the declared type param)

	Inner *Type // valid when Kind == KindTypeConstructor

	Raw RawExpr // valid when Kind == KindUnresolved
}

func Undefined() Type { return Type{Kind: KindUndefined} }
func Void() Type      { return Type{Kind: KindVoid} }
func Opaque() Type    { return Type{Kind: KindOpaque} }
func BasicType(b BasicKind) Type { return Type{Kind: KindBasic, Basic: b} }
func Unresolved(raw RawExpr) Type { return Type{Kind: KindUnresolved, Raw: raw} }

func Array(elem Type, size int) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e, ArrayLen: size}
}

func User(kind UserKind, def Definition, typeArgs []Type) Type {
	return Type{Kind: KindUser, User: kind, Def: def, TypeArgs: typeArgs}
}

func Function(params []Type, result Type) Type {
	r := result
	return Type{Kind: KindUser, User: UserFunction, Params: params, Result: &r}
}

func TypeVarOf(def Definition) Type {
	return Type{Kind: KindTypeVar, TypeVar: def}
}

func TypeConstructor(inner Type) Type {
	i := inner
	return Type{Kind: KindTypeConstructor, Inner: &i}
}

// IsUndefined reports whether t is the "not yet typed" sentinel.
func (t Type) IsUndefined() bool { return t.Kind == KindUndefined }

// IsHeapType reports whether t is legal as a generic type argument under
// erasure:
// any user-defined type, or a bound generic instance of one.
func (t Type) IsHeapType() bool {
	return t.Kind == KindUser && t.User != UserFunction
}

// Equals implements SlangType equality: nominal (weak-ref
// pointer equality of definitions, plus structural equality of type
// arguments) for User types; structural for everything else, including
// function signatures.
func (t Type) Equals(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindUndefined, KindVoid, KindOpaque:
		return true
	case KindBasic:
		return t.Basic == o.Basic
	case KindArray:
		return t.ArrayLen == o.ArrayLen && t.Elem.Equals(*o.Elem)
	case KindUser:
		if t.User == UserFunction {
			if len(t.Params) != len(o.Params) || !t.Result.Equals(*o.Result) {
				return false
			}
			for i := range t.Params {
				if !t.Params[i].Equals(o.Params[i]) {
					return false
				}
			}
			return true
		}
		if t.Def != o.Def || t.User != o.User {
			return false
		}
		if len(t.TypeArgs) != len(o.TypeArgs) {
			return false
		}
		for i := range t.TypeArgs {
			if !t.TypeArgs[i].Equals(o.TypeArgs[i]) {
				return false
			}
		}
		return true
	case KindTypeVar:
		return t.TypeVar == o.TypeVar
	case KindTypeConstructor:
		return t.Inner.Equals(*o.Inner)
	case KindUnresolved:
		return t.Raw == o.Raw
	}
	return false
}

// IsNumeric reports whether t is Int or Float.
func (t Type) IsNumeric() bool {
	return t.Kind == KindBasic && (t.Basic == Int || t.Basic == Float)
}

func (t Type) String() string {
	switch t.Kind {
	case KindUndefined:
		return "<undefined>"
	case KindVoid:
		return "void"
	case KindOpaque:
		return "opaque"
	case KindBasic:
		return t.Basic.String()
	case KindArray:
		return fmt.Sprintf("[%s; %d]", t.Elem.String(), t.ArrayLen)
	case KindUser:
		if t.User == UserFunction {
			parts := make([]string, len(t.Params))
			for i, p := range t.Params {
				parts[i] = p.String()
			}
			return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), t.Result.String())
		}
		name := ""
		if t.Def != nil {
			name = t.Def.DefName()
		}
		if len(t.TypeArgs) == 0 {
			return name
		}
		parts := make([]string, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s[%s]", name, strings.Join(parts, ", "))
	case KindTypeVar:
		if t.TypeVar != nil {
			return t.TypeVar.DefName()
		}
		return "<typevar>"
	case KindTypeConstructor:
		return "typeof(" + t.Inner.String() + ")"
	case KindUnresolved:
		return "<unresolved:" + t.Raw.String() + ">"
	}
	return "<?>"
}
