// Package interp is a minimal tree-walking stack machine over a
// compiled bytecode.Program. It exists only so the CLI driver's
// --execute-bytecode flag has something to run for smoke-testing a
// compile — it is not a production runtime, has no garbage collector,
// and does not implement extern calls into a standard library.
package interp

import (
	"fmt"

	"github.com/cwbudde/slangc/internal/bytecode"
)

// object is the interpreter's runtime representation of every
// composite: structs and unions address fields by index, arrays
// address elements by index, both backed by the same flat slice.
type object struct {
	typeIdx int
	slots   []any
}

// Interp executes the functions of one compiled Program.
type Interp struct {
	prog  *bytecode.Program
	funcs map[string]*bytecode.Function
}

// New prepares an Interp over p, indexing its functions by name.
func New(p *bytecode.Program) *Interp {
	in := &Interp{prog: p, funcs: map[string]*bytecode.Function{}}
	for i := range p.Functions {
		in.funcs[p.Functions[i].Name] = &p.Functions[i]
	}
	return in
}

// Run calls the named function with args and returns its result, nil
// if it returns no value.
func (in *Interp) Run(name string, args ...any) (any, error) {
	fn, ok := in.funcs[name]
	if !ok {
		return nil, fmt.Errorf("interp: no function %q", name)
	}
	return in.call(fn, args)
}

func (in *Interp) call(fn *bytecode.Function, args []any) (any, error) {
	locals := make([]any, len(fn.Params)+len(fn.Locals))
	copy(locals, args)

	stack := make([]any, 0, 16)
	push := func(v any) { stack = append(stack, v) }
	pop := func() any {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top
	}

	pc := 0
	for pc < len(fn.Code) {
		instr := fn.Code[pc]
		next := pc + 1

		switch v := instr.(type) {
		case bytecode.Nop:

		case bytecode.BoolLiteral:
			push(v.Value)
		case bytecode.IntLiteral:
			push(v.Value)
		case bytecode.FloatLiteral:
			push(v.Value)
		case bytecode.StringLiteral:
			push(v.Value)
		case bytecode.UndefinedLiteral:
			push(nil)

		case bytecode.Duplicate:
			top := stack[len(stack)-1]
			push(top)
		case bytecode.DropTop:
			pop()

		case bytecode.Operator:
			b, a := pop(), pop()
			push(applyOperator(v, a, b))
		case bytecode.Comparison:
			b, a := pop(), pop()
			push(applyComparison(v, a, b))
		case bytecode.TypeConvert:
			push(applyConvert(v, pop()))

		case bytecode.Malloc:
			push(in.alloc(v.Typ))
		case bytecode.SetAttr:
			val, base := pop(), pop()
			base.(*object).slots[v.Index] = val
		case bytecode.GetAttr:
			base := pop()
			push(base.(*object).slots[v.Index])
		case bytecode.SetElement:
			val, index, base := pop(), pop(), pop()
			base.(*object).slots[toInt(index)] = val
		case bytecode.GetElement:
			index, base := pop(), pop()
			push(base.(*object).slots[toInt(index)])

		case bytecode.LoadParameter:
			push(locals[v.Index])
		case bytecode.LoadLocal:
			push(locals[len(fn.Params)+v.Index])
		case bytecode.StoreLocal:
			locals[len(fn.Params)+v.Index] = pop()
		case bytecode.LoadGlobalName:
			if callee, ok := in.funcs[v.Name]; ok {
				push(callee)
			} else {
				push(v.Name)
			}

		case bytecode.Jump:
			next = v.Target
		case bytecode.JumpIf:
			if pop().(bool) {
				next = v.TrueTarget
			} else {
				next = v.FalseTarget
			}
		case bytecode.JumpSwitch:
			tag := toInt(pop())
			next = v.Default
			for _, opt := range v.Options {
				if opt.Value == tag {
					next = opt.Target
					break
				}
			}

		case bytecode.Call:
			args := make([]any, v.NArgs)
			for i := v.NArgs - 1; i >= 0; i-- {
				args[i] = pop()
			}
			callee := pop()
			fn, ok := callee.(*bytecode.Function)
			if !ok {
				return nil, fmt.Errorf("interp: call to undefined extern %v", callee)
			}
			result, err := in.call(fn, args)
			if err != nil {
				return nil, err
			}
			if v.HasResult {
				push(result)
			}

		case bytecode.Return:
			if v.Arity == 0 {
				return nil, nil
			}
			return pop(), nil

		default:
			return nil, fmt.Errorf("interp: unhandled instruction %T", instr)
		}
		pc = next
	}
	return nil, nil
}

func (in *Interp) alloc(t bytecode.Type) *object {
	idx := t.Elem.Composite
	td := in.prog.Types[idx]
	if td.Kind == bytecode.TypeDefArray {
		return &object{typeIdx: idx, slots: make([]any, td.ArrayLen)}
	}
	return &object{typeIdx: idx, slots: make([]any, len(td.Fields))}
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func applyOperator(op bytecode.Operator, a, b any) any {
	if op.Typ.Kind == bytecode.KindString {
		return a.(string) + b.(string)
	}
	if op.Typ.Kind == bytecode.KindFloat {
		x, y := a.(float64), b.(float64)
		switch op.Op {
		case bytecode.ArithAdd:
			return x + y
		case bytecode.ArithSub:
			return x - y
		case bytecode.ArithMul:
			return x * y
		case bytecode.ArithDiv:
			return x / y
		}
	}
	x, y := a.(int64), b.(int64)
	switch op.Op {
	case bytecode.ArithAdd:
		return x + y
	case bytecode.ArithSub:
		return x - y
	case bytecode.ArithMul:
		return x * y
	case bytecode.ArithDiv:
		return x / y
	}
	return nil
}

func applyComparison(cmp bytecode.Comparison, a, b any) bool {
	if cmp.Typ.Kind == bytecode.KindString {
		x, y := a.(string), b.(string)
		switch cmp.Op {
		case bytecode.CmpEq:
			return x == y
		case bytecode.CmpNe:
			return x != y
		}
		return false
	}
	if cmp.Typ.Kind == bytecode.KindFloat {
		x, y := a.(float64), b.(float64)
		return compareOrdered(cmp.Op, x < y, x == y)
	}
	x, y := a.(int64), b.(int64)
	return compareOrdered(cmp.Op, x < y, x == y)
}

func compareOrdered(op bytecode.CompareOp, less, equal bool) bool {
	switch op {
	case bytecode.CmpLt:
		return less
	case bytecode.CmpLtEq:
		return less || equal
	case bytecode.CmpGt:
		return !less && !equal
	case bytecode.CmpGtEq:
		return !less
	case bytecode.CmpEq:
		return equal
	case bytecode.CmpNe:
		return !equal
	}
	return false
}

func applyConvert(c bytecode.TypeConvert, v any) any {
	switch c.Kind {
	case bytecode.ConvFloatToInt:
		return int64(v.(float64))
	case bytecode.ConvIntToFloat:
		return float64(v.(int64))
	default:
		// User<->Opaque casts are no-ops: Go's any already erases the
		// static type, there's nothing to convert at runtime.
		return v
	}
}
