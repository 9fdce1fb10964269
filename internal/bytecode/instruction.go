package bytecode

import "fmt"

// Op names each concrete Instr's opcode. The
// Go type of an Instr already discriminates it in code — this exists so
// disassembly and serialization have a stable name to print and parse.
type Op int

const (
	OpNop Op = iota
	OpBoolLiteral
	OpIntLiteral
	OpFloatLiteral
	OpStringLiteral
	OpUndefinedLiteral
	OpDuplicate
	OpDropTop
	OpOperator
	OpComparison
	OpTypeConvert
	OpMalloc
	OpSetAttr
	OpGetAttr
	OpSetElement
	OpGetElement
	OpLoadParameter
	OpLoadLocal
	OpStoreLocal
	OpLoadGlobalName
	OpJump
	OpJumpIf
	OpJumpSwitch
	OpCall
	OpReturn
)

var opNames = [...]string{
	OpNop: "nop", OpBoolLiteral: "bool_literal", OpIntLiteral: "int_literal",
	OpFloatLiteral: "float_literal", OpStringLiteral: "string_literal",
	OpUndefinedLiteral: "undefined_literal", OpDuplicate: "duplicate",
	OpDropTop: "drop_top", OpOperator: "operator", OpComparison: "comparison",
	OpTypeConvert: "type_convert", OpMalloc: "malloc", OpSetAttr: "set_attr",
	OpGetAttr: "get_attr", OpSetElement: "set_element", OpGetElement: "get_element",
	OpLoadParameter: "load_parameter", OpLoadLocal: "load_local",
	OpStoreLocal: "store_local", OpLoadGlobalName: "load_global_name",
	OpJump: "jump", OpJumpIf: "jump_if", OpJumpSwitch: "jump_switch",
	OpCall: "call", OpReturn: "return",
}

func (o Op) String() string {
	if int(o) >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Instr is one bytecode instruction. Every concrete kind is a distinct
// Go type, the same tagged-variant-by-type-switch idiom the T-AST uses
// for Expr/Stmt.
type Instr interface {
	Opcode() Op
}

type Nop struct{}

func (Nop) Opcode() Op { return OpNop }

type BoolLiteral struct{ Value bool }

func (BoolLiteral) Opcode() Op { return OpBoolLiteral }

type IntLiteral struct{ Value int64 }

func (IntLiteral) Opcode() Op { return OpIntLiteral }

type FloatLiteral struct{ Value float64 }

func (FloatLiteral) Opcode() Op { return OpFloatLiteral }

type StringLiteral struct{ Value string }

func (StringLiteral) Opcode() Op { return OpStringLiteral }

type UndefinedLiteral struct{}

func (UndefinedLiteral) Opcode() Op { return OpUndefinedLiteral }

// Duplicate copies the top-of-stack value; composite-literal codegen
// uses it before every SetAttr/SetElement so the pointer survives to be
// the expression's final result.
type Duplicate struct{}

func (Duplicate) Opcode() Op { return OpDuplicate }

type DropTop struct{}

func (DropTop) Opcode() Op { return OpDropTop }

// ArithOp is the operator of an Operator instruction.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
)

func (a ArithOp) String() string {
	switch a {
	case ArithAdd:
		return "add"
	case ArithSub:
		return "sub"
	case ArithMul:
		return "mul"
	case ArithDiv:
		return "div"
	}
	return "?"
}

// Operator is arithmetic over two operands of Typ already on the stack
// (String supports only ArithAdd, as concatenation).
type Operator struct {
	Op  ArithOp
	Typ Type
}

func (Operator) Opcode() Op { return OpOperator }

// CompareOp is the operator of a Comparison instruction.
type CompareOp int

const (
	CmpLt CompareOp = iota
	CmpLtEq
	CmpGt
	CmpGtEq
	CmpEq
	CmpNe
)

func (c CompareOp) String() string {
	switch c {
	case CmpLt:
		return "lt"
	case CmpLtEq:
		return "lteq"
	case CmpGt:
		return "gt"
	case CmpGtEq:
		return "gteq"
	case CmpEq:
		return "eq"
	case CmpNe:
		return "ne"
	}
	return "?"
}

// Comparison pushes a Bool result (String supports only CmpEq/CmpNe).
type Comparison struct {
	Op  CompareOp
	Typ Type
}

func (Comparison) Opcode() Op { return OpComparison }

// ConvertKind is the direction of a TypeConvert.
type ConvertKind int

const (
	ConvFloatToInt ConvertKind = iota
	ConvIntToFloat
	ConvUserToOpaque
	ConvOpaqueToUser
)

// TypeConvert replaces the top-of-stack value with a converted one.
// Target is only meaningful for ConvOpaqueToUser, where the bytecode
// needs to know what concrete type the Opaque pointer is being read
// back as.
type TypeConvert struct {
	Kind   ConvertKind
	Target Type
}

func (TypeConvert) Opcode() Op { return OpTypeConvert }

// Malloc allocates a composite of type Typ and pushes a typed pointer.
type Malloc struct{ Typ Type }

func (Malloc) Opcode() Op { return OpMalloc }

// SetAttr pops value then base, storing value at base's field Index.
type SetAttr struct{ Index int }

func (SetAttr) Opcode() Op { return OpSetAttr }

// GetAttr pops base, pushing the value at field Index (declared type
// Typ, for the LLVM emitter's getelementptr).
type GetAttr struct {
	Index int
	Typ   Type
}

func (GetAttr) Opcode() Op { return OpGetAttr }

// SetElement pops value, index, then base, storing value at base[index].
type SetElement struct{}

func (SetElement) Opcode() Op { return OpSetElement }

// GetElement pops index then base, pushing base[index] (declared
// element type Typ).
type GetElement struct{ Typ Type }

func (GetElement) Opcode() Op { return OpGetElement }

type LoadParameter struct{ Index int }

func (LoadParameter) Opcode() Op { return OpLoadParameter }

type LoadLocal struct{ Index int }

func (LoadLocal) Opcode() Op { return OpLoadLocal }

type StoreLocal struct{ Index int }

func (StoreLocal) Opcode() Op { return OpStoreLocal }

// LoadGlobalName pushes a reference to a top-level function or extern,
// resolved by name at this package's boundary (function definitions are
// not index-addressed the way locals are).
type LoadGlobalName struct{ Name string }

func (LoadGlobalName) Opcode() Op { return OpLoadGlobalName }

// Jump, JumpIf and JumpSwitch address instruction indices within the
// same Function's Code, filled in by a patch once the target is known
// (an emit-then-backpatch two-step, since a jump target isn't known
// until its block has been emitted) — a plain struct field is enough
// here since this instruction set has no fixed-width encoding to pack
// an operand into.
type Jump struct{ Target int }

func (Jump) Opcode() Op { return OpJump }

type JumpIf struct {
	TrueTarget  int
	FalseTarget int
}

func (JumpIf) Opcode() Op { return OpJumpIf }

// SwitchCase is one (tag value, target) arm of a JumpSwitch.
type SwitchCase struct {
	Value  int64
	Target int
}

type JumpSwitch struct {
	Default int
	Options []SwitchCase
}

func (JumpSwitch) Opcode() Op { return OpJumpSwitch }

// Call pops NArgs arguments (pushed in order after the callee), then the
// callee, and, if HasResult, pushes a value of ResultType.
type Call struct {
	NArgs      int
	HasResult  bool
	ResultType Type
}

func (Call) Opcode() Op { return OpCall }

// Return pops Arity values (0 or 1) and exits the function.
type Return struct{ Arity int }

func (Return) Opcode() Op { return OpReturn }
