package llvmgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/cwbudde/slangc/internal/bytecode"
	"github.com/cwbudde/slangc/internal/errors"
)

// sval is a value on the translation-time operand stack. A nil v with
// undef set is bytecode's UndefinedLiteral: its concrete LLVM
// representation isn't known until the instruction consuming it (a
// StoreLocal, SetAttr, Return, ...) supplies the target type.
type sval struct {
	v     value.Value
	undef bool
}

// funcGen translates one bytecode.Function's flat instruction stream
// into LLVM basic blocks. The operand stack always starts a block
// empty: every control-flow instruction the bytecode compiler emits
// (Jump/JumpIf/JumpSwitch) sits at a statement boundary, never mid
// expression, so no cross-block phi merging is needed.
type funcGen struct {
	e      *Emitter
	llvmFn *ir.Func
	bcFn   *bytecode.Function

	paramAllocas []value.Value
	localAllocas []value.Value

	blocks    map[int]*ir.Block
	cur       *ir.Block
	stack     []sval
	switchSeq int
}

func (e *Emitter) emitFunction(fn *bytecode.Function) {
	llvmFn := e.funcs[fn.Name]

	entry := llvmFn.NewBlock("entry")

	paramAllocas := make([]value.Value, len(fn.Params))
	for i, p := range fn.Params {
		a := entry.NewAlloca(e.llType(p.Type))
		a.SetName(p.Name + ".addr")
		entry.NewStore(llvmFn.Params[i], a)
		paramAllocas[i] = a
	}

	localAllocas := make([]value.Value, len(fn.Locals))
	for i, l := range fn.Locals {
		a := entry.NewAlloca(e.llType(l.Type))
		a.SetName(l.Name + ".addr")
		localAllocas[i] = a
	}

	labels := labelTargets(fn.Code)
	blocks := map[int]*ir.Block{}
	for idx := range labels {
		blocks[idx] = llvmFn.NewBlock(fmt.Sprintf("L%d", idx))
	}
	first, ok := blocks[0]
	if !ok {
		first = llvmFn.NewBlock("L0")
		blocks[0] = first
	}
	entry.NewBr(first)

	fg := &funcGen{
		e: e, llvmFn: llvmFn, bcFn: fn,
		paramAllocas: paramAllocas, localAllocas: localAllocas,
		blocks: blocks, cur: first,
	}

	for i, instr := range fn.Code {
		if b, ok := blocks[i]; ok && i != 0 {
			if fg.cur.Term == nil {
				fg.cur.NewBr(b)
			}
			fg.cur = b
			fg.stack = fg.stack[:0]
		}
		if fg.cur.Term != nil {
			// Dead code between a terminator and the next label: the
			// bytecode compiler never falls through one, so nothing
			// here is reachable.
			continue
		}
		fg.emit(instr)
	}
	if fg.cur.Term == nil {
		if fn.Result == nil {
			fg.cur.NewRet(nil)
		} else {
			fg.cur.NewUnreachable()
		}
	}
}

// labelTargets collects every instruction index some jump in code
// addresses, plus 0 (the function's entry point).
func labelTargets(code []bytecode.Instr) map[int]struct{} {
	targets := map[int]struct{}{0: {}}
	for _, instr := range code {
		switch v := instr.(type) {
		case bytecode.Jump:
			targets[v.Target] = struct{}{}
		case bytecode.JumpIf:
			targets[v.TrueTarget] = struct{}{}
			targets[v.FalseTarget] = struct{}{}
		case bytecode.JumpSwitch:
			targets[v.Default] = struct{}{}
			for _, opt := range v.Options {
				targets[opt.Target] = struct{}{}
			}
		}
	}
	return targets
}

func (fg *funcGen) push(v value.Value) { fg.stack = append(fg.stack, sval{v: v}) }
func (fg *funcGen) pushUndef()          { fg.stack = append(fg.stack, sval{undef: true}) }

func (fg *funcGen) pop() sval {
	if len(fg.stack) == 0 {
		errors.Panic("llvmgen", "operand stack underflow in %s", fg.bcFn.Name)
	}
	top := fg.stack[len(fg.stack)-1]
	fg.stack = fg.stack[:len(fg.stack)-1]
	return top
}

// materialize resolves a stack value to a concrete LLVM value of want,
// turning an unresolved UndefinedLiteral into want's zero value. want
// may be nil when the caller knows the value can never be undef (a
// composite base pointer, which is always the direct result of a
// Malloc).
func (fg *funcGen) materialize(s sval, want types.Type) value.Value {
	if !s.undef {
		return s.v
	}
	switch t := want.(type) {
	case *types.IntType:
		return constant.NewInt(t, 0)
	case *types.FloatType:
		return constant.NewFloat(t, 0)
	case *types.PointerType:
		return constant.NewNull(t)
	default:
		return constant.NewZeroInitializer(want)
	}
}

func (fg *funcGen) block(target int) *ir.Block {
	b, ok := fg.blocks[target]
	if !ok {
		errors.Panic("llvmgen", "jump to unlabeled instruction %d in %s", target, fg.bcFn.Name)
	}
	return b
}

// elemType recovers the type base points to, for a base materialized
// from a Malloc result — SetAttr/GetAttr/GetElement/SetElement carry
// only a field index or element type, not the composite's identity.
func elemType(base value.Value) types.Type {
	pt, ok := base.Type().(*types.PointerType)
	if !ok {
		errors.Panic("llvmgen", "field or element access on non-pointer value %s", base)
	}
	return pt.ElemType
}

func i32(n int64) *constant.Int { return constant.NewInt(types.I32, n) }

func (fg *funcGen) emit(instr bytecode.Instr) {
	switch v := instr.(type) {
	case bytecode.Nop:

	case bytecode.BoolLiteral:
		b := int64(0)
		if v.Value {
			b = 1
		}
		fg.push(constant.NewInt(types.I1, b))
	case bytecode.IntLiteral:
		fg.push(constant.NewInt(types.I64, v.Value))
	case bytecode.FloatLiteral:
		fg.push(constant.NewFloat(types.Double, v.Value))
	case bytecode.StringLiteral:
		fg.push(fg.internString(v.Value))
	case bytecode.UndefinedLiteral:
		fg.pushUndef()

	case bytecode.Duplicate:
		top := fg.pop()
		fg.stack = append(fg.stack, top, top)
	case bytecode.DropTop:
		fg.pop()

	case bytecode.Operator:
		fg.genOperator(v)
	case bytecode.Comparison:
		fg.genComparison(v)
	case bytecode.TypeConvert:
		fg.genConvert(v)

	case bytecode.Malloc:
		fg.genMalloc(v)
	case bytecode.SetAttr:
		fg.genSetAttr(v)
	case bytecode.GetAttr:
		fg.genGetAttr(v)
	case bytecode.SetElement:
		fg.genSetElement()
	case bytecode.GetElement:
		fg.genGetElement(v)

	case bytecode.LoadParameter:
		a := fg.paramAllocas[v.Index]
		fg.push(fg.cur.NewLoad(elemType(a), a))
	case bytecode.LoadLocal:
		a := fg.localAllocas[v.Index]
		fg.push(fg.cur.NewLoad(elemType(a), a))
	case bytecode.StoreLocal:
		a := fg.localAllocas[v.Index]
		fg.cur.NewStore(fg.materialize(fg.pop(), elemType(a)), a)
	case bytecode.LoadGlobalName:
		fn, ok := fg.e.funcs[v.Name]
		if !ok {
			errors.Panic("llvmgen", "undeclared global %q in %s", v.Name, fg.bcFn.Name)
		}
		fg.push(fn)

	case bytecode.Jump:
		fg.cur.NewBr(fg.block(v.Target))
	case bytecode.JumpIf:
		cond := fg.materialize(fg.pop(), types.I1)
		fg.cur.NewCondBr(cond, fg.block(v.TrueTarget), fg.block(v.FalseTarget))
	case bytecode.JumpSwitch:
		tag := fg.materialize(fg.pop(), types.I64)
		fg.genJumpSwitch(v, tag)

	case bytecode.Call:
		fg.genCall(v)
	case bytecode.Return:
		fg.genReturn(v)

	default:
		errors.Panic("llvmgen", "unhandled bytecode instruction %T in %s", instr, fg.bcFn.Name)
	}
}

// genJumpSwitch lowers a JumpSwitch as a chain of equality tests rather
// than an LLVM switch instruction, so no option list needs inferring
// a default-safe unreachable count (and the tag is never required to
// be the unusual low-bit-width integer LLVM's switch wants).
func (fg *funcGen) genJumpSwitch(v bytecode.JumpSwitch, tag value.Value) {
	cur := fg.cur
	for i, opt := range v.Options {
		cond := cur.NewICmp(enum.IPredEQ, tag, constant.NewInt(types.I64, opt.Value))
		next := fg.llvmFn.NewBlock(fmt.Sprintf("switch.%d.%d", fg.switchSeq, i))
		cur.NewCondBr(cond, fg.block(opt.Target), next)
		cur = next
	}
	cur.NewBr(fg.block(v.Default))
	fg.switchSeq++
	fg.cur = cur
}

func (fg *funcGen) genOperator(v bytecode.Operator) {
	rhs := fg.pop()
	lhs := fg.pop()
	t := fg.e.llType(v.Typ)

	if v.Typ.Kind == bytecode.KindString {
		l := fg.materialize(lhs, t)
		r := fg.materialize(rhs, t)
		fg.push(fg.cur.NewCall(fg.e.strConcatFn, l, r))
		return
	}

	l := fg.materialize(lhs, t)
	r := fg.materialize(rhs, t)
	if v.Typ.Kind == bytecode.KindFloat {
		switch v.Op {
		case bytecode.ArithAdd:
			fg.push(fg.cur.NewFAdd(l, r))
		case bytecode.ArithSub:
			fg.push(fg.cur.NewFSub(l, r))
		case bytecode.ArithMul:
			fg.push(fg.cur.NewFMul(l, r))
		case bytecode.ArithDiv:
			fg.push(fg.cur.NewFDiv(l, r))
		}
		return
	}
	switch v.Op {
	case bytecode.ArithAdd:
		fg.push(fg.cur.NewAdd(l, r))
	case bytecode.ArithSub:
		fg.push(fg.cur.NewSub(l, r))
	case bytecode.ArithMul:
		fg.push(fg.cur.NewMul(l, r))
	case bytecode.ArithDiv:
		fg.push(fg.cur.NewSDiv(l, r))
	}
}

func (fg *funcGen) genComparison(v bytecode.Comparison) {
	rhs := fg.pop()
	lhs := fg.pop()
	t := fg.e.llType(v.Typ)
	l := fg.materialize(lhs, t)
	r := fg.materialize(rhs, t)

	if v.Typ.Kind == bytecode.KindString {
		eq := fg.cur.NewCall(fg.e.strCompareFn, l, r)
		if v.Op == bytecode.CmpNe {
			fg.push(fg.cur.NewXor(eq, constant.NewInt(types.I1, 1)))
		} else {
			fg.push(eq)
		}
		return
	}

	if v.Typ.Kind == bytecode.KindFloat {
		fg.push(fg.cur.NewFCmp(floatPred(v.Op), l, r))
		return
	}
	fg.push(fg.cur.NewICmp(intPred(v.Op), l, r))
}

func floatPred(op bytecode.CompareOp) enum.FPred {
	switch op {
	case bytecode.CmpLt:
		return enum.FPredOLT
	case bytecode.CmpLtEq:
		return enum.FPredOLE
	case bytecode.CmpGt:
		return enum.FPredOGT
	case bytecode.CmpGtEq:
		return enum.FPredOGE
	case bytecode.CmpEq:
		return enum.FPredOEQ
	case bytecode.CmpNe:
		return enum.FPredONE
	}
	return enum.FPredOEQ
}

func intPred(op bytecode.CompareOp) enum.IPred {
	switch op {
	case bytecode.CmpLt:
		return enum.IPredSLT
	case bytecode.CmpLtEq:
		return enum.IPredSLE
	case bytecode.CmpGt:
		return enum.IPredSGT
	case bytecode.CmpGtEq:
		return enum.IPredSGE
	case bytecode.CmpEq:
		return enum.IPredEQ
	case bytecode.CmpNe:
		return enum.IPredNE
	}
	return enum.IPredEQ
}

func (fg *funcGen) genConvert(v bytecode.TypeConvert) {
	top := fg.pop()
	switch v.Kind {
	case bytecode.ConvFloatToInt:
		fg.push(fg.cur.NewFPToSI(fg.materialize(top, types.Double), types.I64))
	case bytecode.ConvIntToFloat:
		fg.push(fg.cur.NewSIToFP(fg.materialize(top, types.I64), types.Double))
	case bytecode.ConvUserToOpaque:
		opaque := types.NewPointer(types.I8)
		fg.push(fg.cur.NewBitCast(fg.materialize(top, opaque), opaque))
	case bytecode.ConvOpaqueToUser:
		target := fg.e.llType(v.Target)
		fg.push(fg.cur.NewBitCast(fg.materialize(top, target), target))
	}
}

func (fg *funcGen) genMalloc(v bytecode.Malloc) {
	ptrType := fg.e.llType(v.Typ)
	size := fg.e.sizeofComposite(compositeIndex(v.Typ))
	raw := fg.cur.NewCall(fg.e.mallocFn, constant.NewInt(types.I64, size))
	fg.push(fg.cur.NewBitCast(raw, ptrType))
}

// compositeIndex recovers the Types-table index a Malloc allocates
// against. Struct, union, and array allocations all reach here as
// Ptr(Composite(idx)) — toBCType wraps every heap-allocated type in a
// pointer — so the index lives one level down from Typ.Kind itself.
func compositeIndex(t bytecode.Type) int {
	if t.Kind == bytecode.KindPtr {
		return compositeIndex(*t.Elem)
	}
	return t.Composite
}

func (fg *funcGen) genSetAttr(v bytecode.SetAttr) {
	val := fg.pop()
	base := fg.materialize(fg.pop(), nil)
	agg := elemType(base)
	st, ok := agg.(*types.StructType)
	if !ok {
		errors.Panic("llvmgen", "set_attr on non-struct type %s", agg)
	}
	gep := fg.cur.NewGetElementPtr(agg, base, i32(0), i32(int64(v.Index)))
	fg.cur.NewStore(fg.materialize(val, st.Fields[v.Index]), gep)
}

func (fg *funcGen) genGetAttr(v bytecode.GetAttr) {
	base := fg.materialize(fg.pop(), nil)
	agg := elemType(base)
	gep := fg.cur.NewGetElementPtr(agg, base, i32(0), i32(int64(v.Index)))
	fg.push(fg.cur.NewLoad(fg.e.llType(v.Typ), gep))
}

func (fg *funcGen) genSetElement() {
	val := fg.pop()
	index := fg.pop()
	base := fg.materialize(fg.pop(), nil)
	agg := elemType(base)
	arr, ok := agg.(*types.ArrayType)
	if !ok {
		errors.Panic("llvmgen", "set_element on non-array type %s", agg)
	}
	idx := fg.materialize(index, types.I64)
	gep := fg.cur.NewGetElementPtr(agg, base, i32(0), idx)
	fg.cur.NewStore(fg.materialize(val, arr.ElemType), gep)
}

func (fg *funcGen) genGetElement(v bytecode.GetElement) {
	index := fg.pop()
	base := fg.materialize(fg.pop(), nil)
	agg := elemType(base)
	idx := fg.materialize(index, types.I64)
	gep := fg.cur.NewGetElementPtr(agg, base, i32(0), idx)
	fg.push(fg.cur.NewLoad(fg.e.llType(v.Typ), gep))
}

func (fg *funcGen) genCall(v bytecode.Call) {
	args := make([]value.Value, v.NArgs)
	for i := v.NArgs - 1; i >= 0; i-- {
		args[i] = fg.materialize(fg.pop(), nil)
	}
	callee := fg.materialize(fg.pop(), nil)
	call := fg.cur.NewCall(callee, args...)
	if v.HasResult {
		fg.push(call)
	}
}

func (fg *funcGen) genReturn(v bytecode.Return) {
	if v.Arity == 0 {
		fg.cur.NewRet(nil)
		return
	}
	want := types.Type(types.Void)
	if fg.bcFn.Result != nil {
		want = fg.e.llType(*fg.bcFn.Result)
	}
	fg.cur.NewRet(fg.materialize(fg.pop(), want))
}

// internString pools every distinct literal as one private global
// constant, GEP'd down to i8* at each use.
func (fg *funcGen) internString(s string) value.Value {
	g, ok := fg.e.strings[s]
	if !ok {
		data := constant.NewCharArrayFromString(s + "\x00")
		g = fg.e.mod.NewGlobalDef(fmt.Sprintf("str.%d", len(fg.e.strings)), data)
		g.Immutable = true
		fg.e.strings[s] = g
	}
	arrType := types.NewArray(uint64(len(s)+1), types.I8)
	return fg.cur.NewGetElementPtr(arrType, g, i32(0), i32(0))
}
