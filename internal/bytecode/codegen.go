package bytecode

import (
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/types"
)

// CodeGen is phase 10: lowers a fully-lowered, erased T-AST
// program (no Class/Enum/Case/For/TypeVar left) to the stack-machine
// instruction sequences of a Program.
type CodeGen struct {
	prog     *Program
	typeIdx  map[*tast.Definition]int
}

// Compile runs phase 10 over prog, which must already have been through
// every sema pass up to and including generic erasure.
func Compile(name string, prog *tast.Program) *Program {
	cg := &CodeGen{prog: NewProgram(name), typeIdx: map[*tast.Definition]int{}}
	for _, d := range prog.Defs {
		if d.Kind == tast.DefFunction {
			cg.prog.Functions = append(cg.prog.Functions, cg.compileFunc(d))
		}
	}
	return cg.prog
}

// toBCType converts a checked types.Type into its bytecode-level Type,
// interning any composite it first encounters.
func (cg *CodeGen) toBCType(t types.Type) Type {
	switch t.Kind {
	case types.KindBasic:
		switch t.Basic {
		case types.Bool:
			return Bool()
		case types.Int:
			return Int()
		case types.Float:
			return Float()
		case types.String:
			return String()
		}
	case types.KindVoid, types.KindUndefined:
		return Void()
	case types.KindOpaque:
		return Ptr(Void())
	case types.KindArray:
		return Ptr(Composite(cg.internArray(t)))
	case types.KindUser:
		if t.User == types.UserFunction {
			params := make([]Type, len(t.Params))
			for i, p := range t.Params {
				params[i] = cg.toBCType(p)
			}
			return Function(params, cg.toBCType(*t.Result))
		}
		def, ok := t.Def.(*tast.Definition)
		if !ok {
			errors.Panic("bytecode-codegen", "user type with no definition reached codegen")
		}
		return Ptr(Composite(cg.internDef(def)))
	}
	return Void()
}

func (cg *CodeGen) internDef(def *tast.Definition) int {
	if idx, ok := cg.typeIdx[def]; ok {
		return idx
	}
	// Reserve the slot before recursing so a struct referencing its own
	// type (through an array of itself) finds its own index rather than
	// recursing forever.
	idx := len(cg.prog.Types)
	cg.prog.Types = append(cg.prog.Types, TypeDef{Name: def.Name})
	cg.typeIdx[def] = idx

	switch {
	case def.Struct != nil:
		fields := make([]FieldDef, len(def.Struct.Fields))
		for i, f := range def.Struct.Fields {
			fields[i] = FieldDef{Name: f.Name, Type: cg.toBCType(f.Type)}
		}
		cg.prog.Types[idx] = TypeDef{Kind: TypeDefStruct, Name: def.Name, Fields: fields}
	case def.Union != nil:
		choices := make([]FieldDef, len(def.Union.Choices))
		for i, c := range def.Union.Choices {
			choices[i] = FieldDef{Name: c.Name, Type: cg.toBCType(c.Type)}
		}
		cg.prog.Types[idx] = TypeDef{Kind: TypeDefUnion, Name: def.Name, Fields: choices}
	}
	return idx
}

func (cg *CodeGen) internArray(t types.Type) int {
	elem := cg.toBCType(*t.Elem)
	for i, td := range cg.prog.Types {
		if td.Kind == TypeDefArray && td.ArrayLen == t.ArrayLen && typesEqual(td.ElemType, elem) {
			return i
		}
	}
	idx := len(cg.prog.Types)
	cg.prog.Types = append(cg.prog.Types, TypeDef{Kind: TypeDefArray, ElemType: elem, ArrayLen: t.ArrayLen})
	return idx
}

// funcGen holds the per-function state a single compileFunc call needs:
// the instruction buffer being built and the loop-label stack break/
// continue resolve against.
type funcGen struct {
	cg     *CodeGen
	fn     *tast.FuncDef
	out    *Function
	loops  []loopLabels
}

type loopLabels struct {
	continueTarget int
	breakJumps     []int
}

func (cg *CodeGen) compileFunc(def *tast.Definition) Function {
	fd := def.Func
	out := Function{Name: def.Name}
	for _, p := range fd.Params {
		out.Params = append(out.Params, Param{Name: p.Name, Type: cg.toBCType(p.Type)})
	}
	for _, l := range fd.Locals {
		out.Locals = append(out.Locals, Local{Name: l.Name, Type: cg.toBCType(l.Type)})
	}
	if fd.Result.Kind != types.KindVoid && !fd.Result.IsUndefined() {
		r := cg.toBCType(fd.Result)
		out.Result = &r
	}

	fg := &funcGen{cg: cg, fn: fd, out: &out}
	fg.genStmts(fd.Body)
	return out
}

func (fg *funcGen) emit(i Instr) int {
	fg.out.Code = append(fg.out.Code, i)
	return len(fg.out.Code) - 1
}

func (fg *funcGen) here() int { return len(fg.out.Code) }

// localSlot translates a *tast.Local's program-wide declaration index
// (shared across Params and Locals in one flat list) into the
// instruction set's separate Parameter/Local index spaces.
func (fg *funcGen) localSlot(l *tast.Local) (isParam bool, slot int) {
	if l.IsParam {
		return true, l.Index
	}
	return false, l.Index - len(fg.out.Params)
}

func (fg *funcGen) genStmts(stmts []tast.Stmt) {
	for _, s := range stmts {
		fg.genStmt(s)
	}
}

func (fg *funcGen) genStmt(s tast.Stmt) {
	switch st := s.(type) {
	case *tast.LetStmt:
		fg.genExpr(st.Value)
		fg.emit(StoreLocal{Index: st.Local.Index - len(fg.out.Params)})
	case *tast.StoreLocal:
		fg.genExpr(st.Value)
		fg.emit(StoreLocal{Index: st.Local.Index - len(fg.out.Params)})
	case *tast.AssignStmt:
		fg.genAssign(st.Target, st.Value)
	case *tast.SetAttr:
		fg.genExpr(st.Base)
		fg.genExpr(st.Value)
		fg.emit(SetAttr{Index: st.Index})
	case *tast.SetIndex:
		fg.genExpr(st.Base)
		fg.genExpr(st.Index)
		fg.genExpr(st.Value)
		fg.emit(SetElement{})
	case *tast.ExprStmt:
		fg.genExpr(st.X)
		fg.emit(DropTop{})
	case *tast.Compound:
		fg.genStmts(st.Stmts)
	case *tast.If:
		fg.genIf(st)
	case *tast.While:
		fg.genWhile(st)
	case *tast.Loop:
		fg.genLoop(st)
	case *tast.Switch:
		fg.genSwitch(st)
	case *tast.Return:
		if st.Value != nil {
			fg.genExpr(st.Value)
			fg.emit(Return{Arity: 1})
		} else {
			fg.emit(Return{Arity: 0})
		}
	case *tast.Pass:
		// no-op
	case *tast.Break:
		idx := fg.emit(Jump{Target: -1})
		n := len(fg.loops)
		if n == 0 {
			errors.Panic("bytecode-codegen", "break outside of a loop")
		}
		fg.loops[n-1].breakJumps = append(fg.loops[n-1].breakJumps, idx)
	case *tast.Continue:
		n := len(fg.loops)
		if n == 0 {
			errors.Panic("bytecode-codegen", "continue outside of a loop")
		}
		fg.emit(Jump{Target: fg.loops[n-1].continueTarget})
	case *tast.Unreachable:
		// Reached only if an invariant the semantic phases establish
		// (exhaustive Case coverage) was violated; nothing is emitted, so
		// control that lands here continues at the next instruction.
	default:
		errors.Panic("bytecode-codegen", "unhandled statement %T", s)
	}
}

func (fg *funcGen) genAssign(target, value tast.Expr) {
	switch t := target.(type) {
	case *tast.LoadSymbol:
		fg.genExpr(value)
		switch t.Sym.Kind {
		case sym.SymParameter, sym.SymLocal:
			fg.emit(StoreLocal{Index: t.Sym.Index - len(fg.out.Params)})
		default:
			errors.Panic("bytecode-codegen", "cannot assign to symbol kind %v", t.Sym.Kind)
		}
	case *tast.GetAttr:
		fg.genExpr(t.Base)
		fg.genExpr(value)
		fg.emit(SetAttr{Index: t.Index})
	case *tast.GetIndex:
		fg.genExpr(t.Base)
		fg.genExpr(t.Index)
		fg.genExpr(value)
		fg.emit(SetElement{})
	default:
		errors.Panic("bytecode-codegen", "unassignable target %T", target)
	}
}

func (fg *funcGen) genIf(st *tast.If) {
	tp, fp := fg.genCond(st.Cond)
	thenStart := fg.here()
	fg.patchTrue(tp, thenStart)
	fg.genStmts(st.Then)
	if len(st.Else) == 0 {
		end := fg.here()
		fg.patchFalse(fp, end)
		return
	}
	jumpEnd := fg.emit(Jump{Target: -1})
	elseStart := fg.here()
	fg.patchFalse(fp, elseStart)
	fg.genStmts(st.Else)
	end := fg.here()
	fg.patch(jumpEnd, end)
}

func (fg *funcGen) genWhile(st *tast.While) {
	head := fg.here()
	tp, fp := fg.genCond(st.Cond)
	bodyStart := fg.here()
	fg.patchTrue(tp, bodyStart)
	fg.loops = append(fg.loops, loopLabels{continueTarget: head})
	fg.genStmts(st.Body)
	fg.emit(Jump{Target: head})
	end := fg.here()
	fg.patchFalse(fp, end)
	fg.closeLoop(end)
}

func (fg *funcGen) genLoop(st *tast.Loop) {
	head := fg.here()
	fg.loops = append(fg.loops, loopLabels{continueTarget: head})
	fg.genStmts(st.Body)
	fg.emit(Jump{Target: head})
	fg.closeLoop(fg.here())
}

func (fg *funcGen) closeLoop(end int) {
	n := len(fg.loops)
	l := fg.loops[n-1]
	fg.loops = fg.loops[:n-1]
	for _, idx := range l.breakJumps {
		fg.patch(idx, end)
	}
}

func (fg *funcGen) genSwitch(st *tast.Switch) {
	fg.genExpr(st.Tag)
	jsIdx := fg.emit(JumpSwitch{})
	armEnds := make([]int, 0, len(st.Arms))
	options := make([]SwitchCase, 0, len(st.Arms))
	for _, arm := range st.Arms {
		options = append(options, SwitchCase{Value: arm.Value, Target: fg.here()})
		fg.genStmts(arm.Body)
		armEnds = append(armEnds, fg.emit(Jump{Target: -1}))
	}
	defaultStart := fg.here()
	fg.genStmts(st.Default)
	end := fg.here()
	for _, idx := range armEnds {
		fg.patch(idx, end)
	}
	fg.out.Code[jsIdx] = JumpSwitch{Default: defaultStart, Options: options}
}

// patch overwrites a Jump placeholder's Target.
func (fg *funcGen) patch(idx, target int) {
	j, ok := fg.out.Code[idx].(Jump)
	if !ok {
		errors.Panic("bytecode-codegen", "patch: instruction %d is not a Jump", idx)
	}
	j.Target = target
	fg.out.Code[idx] = j
}

// condPatch names one hole (true-branch or false-branch target) of a
// JumpIf still waiting to be filled in.
type condPatch struct {
	idx   int
	isTrue bool
}

func (fg *funcGen) patchTrue(ps []condPatch, target int) {
	for _, p := range ps {
		ji := fg.out.Code[p.idx].(JumpIf)
		ji.TrueTarget = target
		fg.out.Code[p.idx] = ji
	}
}

func (fg *funcGen) patchFalse(ps []condPatch, target int) {
	for _, p := range ps {
		ji := fg.out.Code[p.idx].(JumpIf)
		ji.FalseTarget = target
		fg.out.Code[p.idx] = ji
	}
}

// genCond implements condition-position short-circuit
// threading: instead of evaluating And/Or to a materialized Bool, it
// recursively distributes the caller's eventual true/false destinations
// so only the minimum necessary comparisons execute.
func (fg *funcGen) genCond(e tast.Expr) (truePatches, falsePatches []condPatch) {
	if bin, ok := e.(*tast.BinOp); ok {
		switch bin.Op {
		case tast.OpAnd:
			tpL, fpL := fg.genCond(bin.Left)
			rStart := fg.here()
			fg.patchTrue(tpL, rStart)
			tpR, fpR := fg.genCond(bin.Right)
			return tpR, append(fpL, fpR...)
		case tast.OpOr:
			tpL, fpL := fg.genCond(bin.Left)
			rStart := fg.here()
			fg.patchFalse(fpL, rStart)
			tpR, fpR := fg.genCond(bin.Right)
			return append(tpL, tpR...), fpR
		}
	}
	if un, ok := e.(*tast.UnaryOp); ok && un.Op == tast.OpNot {
		tp, fp := fg.genCond(un.Operand)
		return fp, tp
	}
	fg.genExpr(e)
	idx := fg.emit(JumpIf{TrueTarget: -1, FalseTarget: -1})
	return []condPatch{{idx, true}}, []condPatch{{idx, false}}
}

// genLogicalValue materializes an And/Or/Not expression used in
// non-condition position (e.g. `let c = a and b`) into a real Bool value
// at the join point, threading the same true/false-label machinery
// condition position uses through an expression-context continuation.
func (fg *funcGen) genLogicalValue(e tast.Expr) {
	tp, fp := fg.genCond(e)
	trueStart := fg.here()
	fg.emit(BoolLiteral{Value: true})
	jumpEnd := fg.emit(Jump{Target: -1})
	falseStart := fg.here()
	fg.emit(BoolLiteral{Value: false})
	end := fg.here()
	fg.patchTrue(tp, trueStart)
	fg.patchFalse(fp, falseStart)
	fg.patch(jumpEnd, end)
}

func isLogical(e tast.Expr) bool {
	if bin, ok := e.(*tast.BinOp); ok {
		return bin.Op == tast.OpAnd || bin.Op == tast.OpOr
	}
	if un, ok := e.(*tast.UnaryOp); ok {
		return un.Op == tast.OpNot
	}
	return false
}

func (fg *funcGen) genExpr(e tast.Expr) {
	switch ex := e.(type) {
	case *tast.Literal:
		fg.genLiteral(ex)
	case *tast.LoadSymbol:
		fg.genLoadSymbol(ex)
	case *tast.TupleLiteral:
		fg.genTupleLiteral(ex)
	case *tast.UnionLiteral:
		fg.genUnionLiteral(ex)
	case *tast.ListLiteral:
		fg.genListLiteral(ex)
	case *tast.Call:
		fg.genCall(ex)
	case *tast.TypeCast:
		fg.genExpr(ex.Operand)
		fg.emit(fg.convertInstr(ex))
	case *tast.GetAttr:
		fg.genExpr(ex.Base)
		fg.emit(GetAttr{Index: ex.Index, Typ: fg.cg.toBCType(ex.ExprType())})
	case *tast.GetIndex:
		fg.genExpr(ex.Base)
		fg.genExpr(ex.Index)
		fg.emit(GetElement{Typ: fg.cg.toBCType(ex.ExprType())})
	case *tast.BinOp:
		fg.genBinOp(ex)
	case *tast.UnaryOp:
		fg.genUnaryOp(ex)
	default:
		errors.Panic("bytecode-codegen", "unhandled expression %T", e)
	}
}

func (fg *funcGen) genLiteral(l *tast.Literal) {
	switch l.Kind {
	case tast.LitBool:
		fg.emit(BoolLiteral{Value: l.Bool})
	case tast.LitInt:
		fg.emit(IntLiteral{Value: l.Int})
	case tast.LitFloat:
		fg.emit(FloatLiteral{Value: l.Float})
	case tast.LitString:
		fg.emit(StringLiteral{Value: l.String})
	case tast.LitUndefined:
		fg.emit(UndefinedLiteral{})
	}
}

func (fg *funcGen) genLoadSymbol(ls *tast.LoadSymbol) {
	switch ls.Sym.Kind {
	case sym.SymParameter:
		fg.emit(LoadParameter{Index: ls.Sym.Index})
	case sym.SymLocal:
		fg.emit(LoadLocal{Index: ls.Sym.Index - len(fg.out.Params)})
	case sym.SymFunction, sym.SymExternFunction:
		fg.emit(LoadGlobalName{Name: ls.Sym.Name})
	default:
		errors.Panic("bytecode-codegen", "unhandled LoadSymbol kind %v", ls.Sym.Kind)
	}
}

func (fg *funcGen) genTupleLiteral(tl *tast.TupleLiteral) {
	fg.emit(Malloc{Typ: fg.cg.toBCType(tl.StructType)})
	for i, v := range tl.Values {
		fg.emit(Duplicate{})
		if isLogical(v) {
			fg.genLogicalValue(v)
		} else {
			fg.genExpr(v)
		}
		fg.emit(SetAttr{Index: i})
	}
}

func (fg *funcGen) genUnionLiteral(ul *tast.UnionLiteral) {
	fg.emit(Malloc{Typ: fg.cg.toBCType(ul.UnionType)})
	def, ok := ul.UnionType.Def.(*tast.Definition)
	if !ok || def.Union == nil {
		errors.Panic("bytecode-codegen", "UnionLiteral with non-union type")
	}
	idx := -1
	for i, c := range def.Union.Choices {
		if c.Name == ul.Choice {
			idx = i
			break
		}
	}
	if idx < 0 {
		errors.Panic("bytecode-codegen", "union %q has no choice %q", def.Name, ul.Choice)
	}
	fg.emit(Duplicate{})
	if isLogical(ul.Payload) {
		fg.genLogicalValue(ul.Payload)
	} else {
		fg.genExpr(ul.Payload)
	}
	fg.emit(SetAttr{Index: idx})
}

func (fg *funcGen) genListLiteral(ll *tast.ListLiteral) {
	fg.emit(Malloc{Typ: fg.cg.toBCType(ll.ExprType())})
	for i, elem := range ll.Elements {
		fg.emit(Duplicate{})
		fg.emit(IntLiteral{Value: int64(i)})
		if isLogical(elem) {
			fg.genLogicalValue(elem)
		} else {
			fg.genExpr(elem)
		}
		fg.emit(SetElement{})
	}
}

func (fg *funcGen) genCall(c *tast.Call) {
	fg.genExpr(c.Callee)
	for _, a := range c.Args {
		if isLogical(a) {
			fg.genLogicalValue(a)
		} else {
			fg.genExpr(a)
		}
	}
	resType := c.ExprType()
	hasResult := resType.Kind != types.KindVoid && !resType.IsUndefined()
	call := Call{NArgs: len(c.Args), HasResult: hasResult}
	if hasResult {
		call.ResultType = fg.cg.toBCType(resType)
	}
	fg.emit(call)
}

func (fg *funcGen) convertInstr(tc *tast.TypeCast) Instr {
	switch tc.Kind {
	case tast.CastFloatToInt:
		return TypeConvert{Kind: ConvFloatToInt}
	case tast.CastIntToFloat:
		return TypeConvert{Kind: ConvIntToFloat}
	case tast.CastUserToOpaque:
		return TypeConvert{Kind: ConvUserToOpaque}
	case tast.CastOpaqueToUser:
		return TypeConvert{Kind: ConvOpaqueToUser, Target: fg.cg.toBCType(tc.ExprType())}
	}
	errors.Panic("bytecode-codegen", "unhandled cast kind %v", tc.Kind)
	return Nop{}
}

func (fg *funcGen) genBinOp(b *tast.BinOp) {
	if b.Op == tast.OpAnd || b.Op == tast.OpOr {
		fg.genLogicalValue(b)
		return
	}
	fg.genExpr(b.Left)
	fg.genExpr(b.Right)
	typ := fg.cg.toBCType(b.Left.ExprType())
	switch b.Op {
	case tast.OpAdd:
		fg.emit(Operator{Op: ArithAdd, Typ: typ})
	case tast.OpSub:
		fg.emit(Operator{Op: ArithSub, Typ: typ})
	case tast.OpMul:
		fg.emit(Operator{Op: ArithMul, Typ: typ})
	case tast.OpDiv:
		fg.emit(Operator{Op: ArithDiv, Typ: typ})
	case tast.OpLt:
		fg.emit(Comparison{Op: CmpLt, Typ: typ})
	case tast.OpLtEq:
		fg.emit(Comparison{Op: CmpLtEq, Typ: typ})
	case tast.OpGt:
		fg.emit(Comparison{Op: CmpGt, Typ: typ})
	case tast.OpGtEq:
		fg.emit(Comparison{Op: CmpGtEq, Typ: typ})
	case tast.OpEq:
		fg.emit(Comparison{Op: CmpEq, Typ: typ})
	case tast.OpNe:
		fg.emit(Comparison{Op: CmpNe, Typ: typ})
	default:
		errors.Panic("bytecode-codegen", "unhandled binop %v", b.Op)
	}
}

// genUnaryOp lowers Neg as `0 - operand`: the instruction set
// has no dedicated negation opcode, only the binary Operator.
func (fg *funcGen) genUnaryOp(u *tast.UnaryOp) {
	switch u.Op {
	case tast.OpNot:
		fg.genLogicalValue(u)
	case tast.OpNeg:
		typ := fg.cg.toBCType(u.Operand.ExprType())
		if typ.Kind == KindFloat {
			fg.emit(FloatLiteral{Value: 0})
		} else {
			fg.emit(IntLiteral{Value: 0})
		}
		fg.genExpr(u.Operand)
		fg.emit(Operator{Op: ArithSub, Typ: typ})
	default:
		errors.Panic("bytecode-codegen", "unhandled unary op %v", u.Op)
	}
}
