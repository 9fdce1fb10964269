package bytecode

import (
	"fmt"
	"io"
)

// Disassembler renders a Program as human-readable text — a
// regression-testable form for golden-file snapshots, written with the
// same writer-based structure as a disassembler one line at a time.
type Disassembler struct {
	w io.Writer
}

func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{w: w}
}

func (d *Disassembler) Disassemble(p *Program) {
	fmt.Fprintf(d.w, "; program %s (%s)\n", p.Name, p.ID)
	for i, td := range p.Types {
		fmt.Fprintf(d.w, "; type[%d] %s\n", i, typeDefString(td))
	}
	for _, imp := range p.Imports {
		fmt.Fprintf(d.w, "; import %s %s\n", imp.Name, imp.Sig.String())
	}
	for _, fn := range p.Functions {
		d.disassembleFunction(&fn)
	}
}

func (d *Disassembler) disassembleFunction(fn *Function) {
	result := "void"
	if fn.Result != nil {
		result = fn.Result.String()
	}
	fmt.Fprintf(d.w, "\nfunc %s(%s) -> %s\n", fn.Name, paramList(fn.Params), result)
	for i, l := range fn.Locals {
		fmt.Fprintf(d.w, "  ; local[%d] %s: %s\n", i, l.Name, l.Type.String())
	}
	for i, instr := range fn.Code {
		fmt.Fprintf(d.w, "  %04d  %s\n", i, instrString(instr))
	}
}

func paramList(ps []Param) string {
	s := ""
	for i, p := range ps {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %s", p.Name, p.Type.String())
	}
	return s
}

func (t Type) String() string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindVoid:
		return "void"
	case KindPtr:
		return t.Elem.String() + "*"
	case KindComposite:
		return fmt.Sprintf("composite[%d]", t.Composite)
	case KindFunction:
		s := "fn("
		for i, p := range t.Params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		return s + ") -> " + t.Result.String()
	}
	return "?"
}

func typeDefString(td TypeDef) string {
	switch td.Kind {
	case TypeDefArray:
		return fmt.Sprintf("array[%d]%s", td.ArrayLen, td.ElemType.String())
	case TypeDefUnion:
		return td.Name + " union" + fieldListString(td.Fields)
	default:
		return td.Name + " struct" + fieldListString(td.Fields)
	}
}

func fieldListString(fields []FieldDef) string {
	s := "{"
	for i, f := range fields {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ": " + f.Type.String()
	}
	return s + "}"
}

func instrString(i Instr) string {
	switch v := i.(type) {
	case Nop:
		return "nop"
	case BoolLiteral:
		return fmt.Sprintf("bool_literal %v", v.Value)
	case IntLiteral:
		return fmt.Sprintf("int_literal %d", v.Value)
	case FloatLiteral:
		return fmt.Sprintf("float_literal %g", v.Value)
	case StringLiteral:
		return fmt.Sprintf("string_literal %q", v.Value)
	case UndefinedLiteral:
		return "undefined_literal"
	case Duplicate:
		return "duplicate"
	case DropTop:
		return "drop_top"
	case Operator:
		return fmt.Sprintf("operator %s %s", v.Op, v.Typ)
	case Comparison:
		return fmt.Sprintf("comparison %s %s", v.Op, v.Typ)
	case TypeConvert:
		return fmt.Sprintf("type_convert %s %s", convertKindString(v.Kind), v.Target)
	case Malloc:
		return fmt.Sprintf("malloc %s", v.Typ)
	case SetAttr:
		return fmt.Sprintf("set_attr %d", v.Index)
	case GetAttr:
		return fmt.Sprintf("get_attr %d %s", v.Index, v.Typ)
	case SetElement:
		return "set_element"
	case GetElement:
		return fmt.Sprintf("get_element %s", v.Typ)
	case LoadParameter:
		return fmt.Sprintf("load_parameter %d", v.Index)
	case LoadLocal:
		return fmt.Sprintf("load_local %d", v.Index)
	case StoreLocal:
		return fmt.Sprintf("store_local %d", v.Index)
	case LoadGlobalName:
		return fmt.Sprintf("load_global_name %s", v.Name)
	case Jump:
		return fmt.Sprintf("jump %d", v.Target)
	case JumpIf:
		return fmt.Sprintf("jump_if true=%d false=%d", v.TrueTarget, v.FalseTarget)
	case JumpSwitch:
		s := fmt.Sprintf("jump_switch default=%d", v.Default)
		for _, opt := range v.Options {
			s += fmt.Sprintf(" %d:%d", opt.Value, opt.Target)
		}
		return s
	case Call:
		if v.HasResult {
			return fmt.Sprintf("call n_args=%d -> %s", v.NArgs, v.ResultType)
		}
		return fmt.Sprintf("call n_args=%d", v.NArgs)
	case Return:
		return fmt.Sprintf("return %d", v.Arity)
	}
	return "?"
}

func convertKindString(k ConvertKind) string {
	switch k {
	case ConvFloatToInt:
		return "float_to_int"
	case ConvIntToFloat:
		return "int_to_float"
	case ConvUserToOpaque:
		return "user_to_opaque"
	case ConvOpaqueToUser:
		return "opaque_to_user"
	}
	return "?"
}
