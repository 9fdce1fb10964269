package bytecode

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Serialize encodes a Program as JSON(-ish) intermediate form,
// re-consumable by another back-end or a future interpreter.
func Serialize(p *Program) ([]byte, error) {
	return json.MarshalIndent(toWireProgram(p), "", "  ")
}

// Deserialize is Serialize's inverse.
func Deserialize(data []byte) (*Program, error) {
	var wp wireProgram
	if err := json.Unmarshal(data, &wp); err != nil {
		return nil, err
	}
	return wp.toProgram()
}

// The wire* types mirror the domain types field-for-field except Code,
// whose element type Instr is an interface: JSON has no native tagged
// union, so each instruction round-trips through wireInstr, a flat
// struct with every field any opcode might need and an explicit "op"
// discriminator — the same "one struct, optional fields" trick used
// wherever this package's composite payloads cross a text boundary.
type wireProgram struct {
	Name      string
	ID        string
	Imports   []Import
	Types     []TypeDef
	Functions []wireFunction
}

type wireFunction struct {
	Name   string
	Params []Param
	Locals []Local
	Result *Type
	Code   []wireInstr
}

type wireInstr struct {
	Op string `json:"op"`

	Bool  *bool    `json:"bool,omitempty"`
	Int   *int64   `json:"int,omitempty"`
	Float *float64 `json:"float,omitempty"`
	Str   *string  `json:"str,omitempty"`

	Index *int  `json:"index,omitempty"`
	Typ   *Type `json:"typ,omitempty"`

	Arith *ArithOp   `json:"arith,omitempty"`
	Cmp   *CompareOp `json:"cmp,omitempty"`
	Conv  *ConvertKind `json:"conv,omitempty"`

	Target      *int `json:"target,omitempty"`
	TrueTarget  *int `json:"true_target,omitempty"`
	FalseTarget *int `json:"false_target,omitempty"`

	Default *int         `json:"default,omitempty"`
	Options []SwitchCase `json:"options,omitempty"`

	NArgs      *int  `json:"n_args,omitempty"`
	HasResult  *bool `json:"has_result,omitempty"`
	ResultType *Type `json:"result_type,omitempty"`

	Arity *int `json:"arity,omitempty"`
}

func toWireProgram(p *Program) wireProgram {
	wp := wireProgram{Name: p.Name, ID: p.ID.String(), Imports: p.Imports, Types: p.Types}
	for _, f := range p.Functions {
		wf := wireFunction{Name: f.Name, Params: f.Params, Locals: f.Locals, Result: f.Result}
		for _, instr := range f.Code {
			wf.Code = append(wf.Code, toWireInstr(instr))
		}
		wp.Functions = append(wp.Functions, wf)
	}
	return wp
}

func ptr[T any](v T) *T { return &v }

func toWireInstr(i Instr) wireInstr {
	w := wireInstr{Op: i.Opcode().String()}
	switch v := i.(type) {
	case Nop:
	case BoolLiteral:
		w.Bool = ptr(v.Value)
	case IntLiteral:
		w.Int = ptr(v.Value)
	case FloatLiteral:
		w.Float = ptr(v.Value)
	case StringLiteral:
		w.Str = ptr(v.Value)
	case UndefinedLiteral:
	case Duplicate:
	case DropTop:
	case Operator:
		w.Arith = ptr(v.Op)
		w.Typ = ptr(v.Typ)
	case Comparison:
		w.Cmp = ptr(v.Op)
		w.Typ = ptr(v.Typ)
	case TypeConvert:
		w.Conv = ptr(v.Kind)
		w.Typ = ptr(v.Target)
	case Malloc:
		w.Typ = ptr(v.Typ)
	case SetAttr:
		w.Index = ptr(v.Index)
	case GetAttr:
		w.Index = ptr(v.Index)
		w.Typ = ptr(v.Typ)
	case SetElement:
	case GetElement:
		w.Typ = ptr(v.Typ)
	case LoadParameter:
		w.Index = ptr(v.Index)
	case LoadLocal:
		w.Index = ptr(v.Index)
	case StoreLocal:
		w.Index = ptr(v.Index)
	case LoadGlobalName:
		w.Str = ptr(v.Name)
	case Jump:
		w.Target = ptr(v.Target)
	case JumpIf:
		w.TrueTarget = ptr(v.TrueTarget)
		w.FalseTarget = ptr(v.FalseTarget)
	case JumpSwitch:
		w.Default = ptr(v.Default)
		w.Options = v.Options
	case Call:
		w.NArgs = ptr(v.NArgs)
		w.HasResult = ptr(v.HasResult)
		w.ResultType = ptr(v.ResultType)
	case Return:
		w.Arity = ptr(v.Arity)
	}
	return w
}

func (wp wireProgram) toProgram() (*Program, error) {
	p := &Program{Name: wp.Name, Imports: wp.Imports, Types: wp.Types}
	if wp.ID != "" {
		id, err := uuid.Parse(wp.ID)
		if err != nil {
			return nil, err
		}
		p.ID = id
	}
	for _, wf := range wp.Functions {
		f := Function{Name: wf.Name, Params: wf.Params, Locals: wf.Locals, Result: wf.Result}
		for _, wi := range wf.Code {
			instr, err := wi.toInstr()
			if err != nil {
				return nil, err
			}
			f.Code = append(f.Code, instr)
		}
		p.Functions = append(p.Functions, f)
	}
	return p, nil
}

func (w wireInstr) toInstr() (Instr, error) {
	switch w.Op {
	case OpNop.String():
		return Nop{}, nil
	case OpBoolLiteral.String():
		return BoolLiteral{Value: deref(w.Bool)}, nil
	case OpIntLiteral.String():
		return IntLiteral{Value: deref(w.Int)}, nil
	case OpFloatLiteral.String():
		return FloatLiteral{Value: deref(w.Float)}, nil
	case OpStringLiteral.String():
		return StringLiteral{Value: deref(w.Str)}, nil
	case OpUndefinedLiteral.String():
		return UndefinedLiteral{}, nil
	case OpDuplicate.String():
		return Duplicate{}, nil
	case OpDropTop.String():
		return DropTop{}, nil
	case OpOperator.String():
		return Operator{Op: deref(w.Arith), Typ: deref(w.Typ)}, nil
	case OpComparison.String():
		return Comparison{Op: deref(w.Cmp), Typ: deref(w.Typ)}, nil
	case OpTypeConvert.String():
		return TypeConvert{Kind: deref(w.Conv), Target: deref(w.Typ)}, nil
	case OpMalloc.String():
		return Malloc{Typ: deref(w.Typ)}, nil
	case OpSetAttr.String():
		return SetAttr{Index: deref(w.Index)}, nil
	case OpGetAttr.String():
		return GetAttr{Index: deref(w.Index), Typ: deref(w.Typ)}, nil
	case OpSetElement.String():
		return SetElement{}, nil
	case OpGetElement.String():
		return GetElement{Typ: deref(w.Typ)}, nil
	case OpLoadParameter.String():
		return LoadParameter{Index: deref(w.Index)}, nil
	case OpLoadLocal.String():
		return LoadLocal{Index: deref(w.Index)}, nil
	case OpStoreLocal.String():
		return StoreLocal{Index: deref(w.Index)}, nil
	case OpLoadGlobalName.String():
		return LoadGlobalName{Name: deref(w.Str)}, nil
	case OpJump.String():
		return Jump{Target: deref(w.Target)}, nil
	case OpJumpIf.String():
		return JumpIf{TrueTarget: deref(w.TrueTarget), FalseTarget: deref(w.FalseTarget)}, nil
	case OpJumpSwitch.String():
		return JumpSwitch{Default: deref(w.Default), Options: w.Options}, nil
	case OpCall.String():
		return Call{NArgs: deref(w.NArgs), HasResult: deref(w.HasResult), ResultType: deref(w.ResultType)}, nil
	case OpReturn.String():
		return Return{Arity: deref(w.Arity)}, nil
	}
	return nil, fmt.Errorf("bytecode: unknown instruction opcode %q", w.Op)
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
