package sym

import "github.com/cwbudde/slangc/internal/types"

// SymbolKind discriminates the Symbol union.
type SymbolKind int

const (
	SymType SymbolKind = iota
	SymDefinition
	SymFunction
	SymExternFunction
	SymModule
	SymParameter
	SymLocal
	SymField
	SymEnumVariant
)

// Symbol is a named entity a Scope can resolve a reference to. All
// pointer-shaped fields are weak references: the
// symbol never keeps its target alive, it only names it.
type Symbol struct {
	Kind SymbolKind
	Name string

	// SymType
	Type types.Type

	// SymDefinition, SymFunction: weak ref to the owning definition.
	Def types.Definition

	// SymExternFunction: declared signature for a std-lib import.
	ExternSig types.Type

	// SymModule: the module's exported scope.
	Module *Scope

	// SymParameter, SymLocal, SymField: declared type and position.
	VarType types.Type
	Index   int // parameter/local slot index, or field index

	// SymEnumVariant: weak ref to the parent enum definition and this
	// variant's payload arity.
	EnumDef      types.Definition
	VariantIndex int
	PayloadArity int
}
