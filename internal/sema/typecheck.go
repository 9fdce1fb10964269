package sema

import (
	"fmt"

	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/token"
	"github.com/cwbudde/slangc/internal/types"
)

// TypeCheck is phase 5: a single bottom-up pass assigning a
// type to every expression and asserting statement-level constraints.
// Failure at one expression does not halt the pass.
type TypeCheck struct{}

func (*TypeCheck) Name() string { return "type-checking" }

func (tc *TypeCheck) Run(prog *ast.Program, ctx *Context) error {
	for _, def := range allDefs(ctx.Program) {
		switch def.Kind {
		case tast.DefFunction:
			tc.checkFunc(ctx, def)
		case tast.DefClass:
			scope := scopeOf(ctx, def.ID)
			if scope == nil {
				scope = ctx.Program.Scope
			}
			for i, f := range def.Class.Fields {
				if f.Init == nil {
					ctx.Bag.Add(errors.New(errors.MissingField, token.Position{}, "class field \""+f.Name+"\" has no initializer", ctx.Source, ctx.File))
					continue
				}
				got := tc.checkExpr(ctx, f.Init, scope)
				def.Class.Fields[i].Init = tc.coerce(ctx, f.Type, f.Init, got)
			}
			for _, m := range def.Class.Methods {
				tc.checkFunc(ctx, m)
			}
		}
	}
	return nil
}

func (tc *TypeCheck) checkFunc(ctx *Context, def *tast.Definition) {
	scope := scopeOf(ctx, def.ID)
	if scope == nil {
		scope = ctx.Program.Scope
	}
	tc.checkStmts(ctx, def.Func.Body, scope)
}

func (tc *TypeCheck) checkStmts(ctx *Context, stmts []tast.Stmt, scope *sym.Scope) {
	for _, s := range stmts {
		tc.checkStmt(ctx, s, scope)
	}
}

func (tc *TypeCheck) checkStmt(ctx *Context, s tast.Stmt, scope *sym.Scope) {
	switch st := s.(type) {
	case *tast.LetStmt:
		vt := tc.checkExpr(ctx, st.Value, scope)
		if st.Local.Type.IsUndefined() {
			st.Local.Type = vt
			syncVarType(scope, st.Local.Name, vt)
		} else {
			st.Value = tc.coerce(ctx, st.Local.Type, st.Value, vt)
		}
	case *tast.AssignStmt:
		want := tc.checkExpr(ctx, st.Target, scope)
		got := tc.checkExpr(ctx, st.Value, scope)
		st.Value = tc.coerceValue(ctx, want, st.Value, got, st.Position)
	case *tast.ExprStmt:
		tc.checkExpr(ctx, st.X, scope)
	case *tast.Compound:
		tc.checkStmts(ctx, st.Stmts, scope)
	case *tast.If:
		tc.checkCond(ctx, st.Cond, scope)
		tc.checkStmts(ctx, st.Then, scope)
		tc.checkStmts(ctx, st.Else, scope)
	case *tast.While:
		tc.checkCond(ctx, st.Cond, scope)
		tc.checkStmts(ctx, st.Body, scope)
	case *tast.Loop:
		tc.checkStmts(ctx, st.Body, scope)
	case *tast.For:
		tc.checkFor(ctx, st, scope)
	case *tast.Case:
		tc.checkCase(ctx, st, scope)
	case *tast.Return:
		if st.Value != nil {
			// Return-type checking against the declared signature is a
			// deliberate gap; only the value's
			// own type is computed here.
			tc.checkExpr(ctx, st.Value, scope)
		}
	}
}

func (tc *TypeCheck) checkCond(ctx *Context, e tast.Expr, scope *sym.Scope) {
	t := tc.checkExpr(ctx, e, scope)
	if t.Kind != types.KindBasic || t.Basic != types.Bool {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, e.Pos(), "condition must be bool, got "+t.String(), ctx.Source, ctx.File))
	}
}

func (tc *TypeCheck) checkFor(ctx *Context, st *tast.For, scope *sym.Scope) {
	it := tc.checkExpr(ctx, st.Iterand, scope)
	if it.Kind != types.KindArray {
		ctx.Bag.Add(errors.New(errors.CannotIterate, st.Position, "cannot iterate over "+it.String(), ctx.Source, ctx.File))
		tc.checkStmts(ctx, st.Body, scope)
		return
	}
	st.Var.Type = *it.Elem
	syncVarType(scope, st.Var.Name, st.Var.Type)
	tc.checkStmts(ctx, st.Body, scope)
}

func (tc *TypeCheck) checkCase(ctx *Context, st *tast.Case, scope *sym.Scope) {
	scrut := tc.checkExpr(ctx, st.Scrutinee, scope)
	if scrut.Kind != types.KindUser || scrut.User != types.UserEnum {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, st.Position, "case scrutinee must be an enum, got "+scrut.String(), ctx.Source, ctx.File))
		return
	}
	def, ok := scrut.Def.(*tast.Definition)
	if !ok || def.Enum == nil {
		return
	}

	seenVariant := map[string]bool{}
	covered := map[string]bool{}
	for _, arm := range st.Arms {
		if seenVariant[arm.Variant] {
			ctx.Bag.Add(errors.New(errors.DuplicateCaseVariant, st.Position, "duplicate case arm for variant \""+arm.Variant+"\"", ctx.Source, ctx.File))
		}
		seenVariant[arm.Variant] = true

		var variant *tast.EnumVariant
		for _, v := range def.Enum.Variants {
			if v.Name == arm.Variant {
				variant = v
				break
			}
		}
		if variant == nil {
			ctx.Bag.Add(errors.New(errors.UnresolvedName, st.Position, "\""+def.Name+"\" has no variant \""+arm.Variant+"\"", ctx.Source, ctx.File))
			tc.checkStmts(ctx, arm.Body, scope)
			continue
		}
		covered[arm.Variant] = true
		if len(arm.Bindings) != len(variant.PayloadTypes) {
			ctx.Bag.Add(errors.New(errors.ArityMismatch, st.Position,
				fmt.Sprintf("variant \"%s\" has %d payload value(s), arm binds %d", arm.Variant, len(variant.PayloadTypes), len(arm.Bindings)),
				ctx.Source, ctx.File))
		}
		substituted := substitutePayloadTypes(scrut, variant.PayloadTypes)
		for i, b := range arm.Bindings {
			if i < len(substituted) {
				b.Type = substituted[i]
				syncVarType(scope, b.Name, b.Type)
			}
		}
		tc.checkStmts(ctx, arm.Body, scope)
	}
	for _, v := range def.Enum.Variants {
		if !covered[v.Name] {
			ctx.Bag.Add(errors.New(errors.MissingCaseVariant, st.Position, "case does not cover variant \""+v.Name+"\"", ctx.Source, ctx.File))
		}
	}
}

// substitutePayloadTypes replaces a generic enum's TypeVar payload slots
// with the scrutinee's bound type arguments.
func substitutePayloadTypes(enumType types.Type, payloads []types.Type) []types.Type {
	out := make([]types.Type, len(payloads))
	for i, p := range payloads {
		out[i] = substituteTypeArgs(p, enumType)
	}
	return out
}

// substituteTypeArgs binds a generic Definition's TypeVar occurrences in
// t against the concrete arguments carried by instance (a KindUser type
// with a non-empty TypeArgs) — the same mechanism erasure's boundary
// casts rely on to know what a field's TypeVar is bound to at a given
// use-site.
func substituteTypeArgs(t, instance types.Type) types.Type {
	def, _ := instance.Def.(*tast.Definition)
	if def == nil || len(def.TypeParams) == 0 || len(instance.TypeArgs) == 0 {
		return t
	}
	bind := map[uint64]types.Type{}
	for i, tp := range def.TypeParams {
		if i < len(instance.TypeArgs) {
			bind[tp.ID] = instance.TypeArgs[i]
		}
	}
	switch {
	case t.Kind == types.KindTypeVar && t.TypeVar != nil:
		if bound, ok := bind[t.TypeVar.DefID()]; ok {
			return bound
		}
	case t.Kind == types.KindArray:
		elem := substituteTypeArgs(*t.Elem, instance)
		return types.Array(elem, t.ArrayLen)
	}
	return t
}

// checkExpr assigns a type to e and returns it, recursing bottom-up.
func (tc *TypeCheck) checkExpr(ctx *Context, e tast.Expr, scope *sym.Scope) types.Type {
	switch ex := e.(type) {
	case *tast.Literal:
		return ex.ExprType()
	case *tast.LoadSymbol:
		return tc.checkLoadSymbol(ctx, ex)
	case *tast.TupleLiteral:
		def, _ := ex.StructType.Def.(*tast.Definition)
		if def != nil && def.Struct != nil {
			for i, v := range ex.Values {
				if i < len(def.Struct.Fields) {
					ex.Values[i] = tc.coerce(ctx, def.Struct.Fields[i].Type, v, tc.checkExpr(ctx, v, scope))
				}
			}
		}
		ex.SetExprType(ex.StructType)
		return ex.StructType
	case *tast.ListLiteral:
		var elem types.Type
		for i, el := range ex.Elements {
			t := tc.checkExpr(ctx, el, scope)
			if i == 0 {
				elem = t
			}
		}
		arr := types.Array(elem, len(ex.Elements))
		ex.SetExprType(arr)
		return arr
	case *tast.EnumLiteral:
		return tc.checkEnumLiteral(ctx, ex, scope)
	case *tast.Call:
		return tc.checkCall(ctx, ex, scope)
	case *tast.TypeCast:
		tc.checkExpr(ctx, ex.Operand, scope)
		return ex.ExprType()
	case *tast.GetAttr:
		return tc.checkGetAttr(ctx, ex, scope)
	case *tast.GetIndex:
		return tc.checkGetIndex(ctx, ex, scope)
	case *tast.BinOp:
		return tc.checkBinOp(ctx, ex, scope)
	case *tast.UnaryOp:
		return tc.checkUnaryOp(ctx, ex, scope)
	case *tast.ObjectInit:
		// Struct-literal canonicalization (phase 4) runs before type
		// checking; an ObjectInit here means canonicalization bailed out
		// on an already-reported error. Type as Undefined and move on.
		return types.Undefined()
	default:
		return types.Undefined()
	}
}

func (tc *TypeCheck) checkLoadSymbol(ctx *Context, ex *tast.LoadSymbol) types.Type {
	var t types.Type
	switch ex.Sym.Kind {
	case sym.SymParameter, sym.SymLocal:
		t = ex.Sym.VarType
	case sym.SymType:
		t = ex.Sym.Type
	case sym.SymFunction:
		if fd, ok := ex.Sym.Def.(*tast.Definition); ok && fd.Func != nil {
			t = functionType(fd.Func)
		}
	case sym.SymExternFunction:
		t = ex.Sym.ExternSig
	default:
		t = types.Undefined()
	}
	ex.SetExprType(t)
	return t
}

func (tc *TypeCheck) checkEnumLiteral(ctx *Context, ex *tast.EnumLiteral, scope *sym.Scope) types.Type {
	def, _ := ex.EnumType.Def.(*tast.Definition)
	var variant *tast.EnumVariant
	if def != nil {
		for _, v := range def.Enum.Variants {
			if v.Name == ex.Variant {
				variant = v
				break
			}
		}
	}
	if variant == nil {
		ctx.Bag.Add(errors.New(errors.UnresolvedName, ex.Position, "unknown enum variant \""+ex.Variant+"\"", ctx.Source, ctx.File))
		ex.SetExprType(ex.EnumType)
		return ex.EnumType
	}
	if len(ex.Args) != len(variant.PayloadTypes) {
		ctx.Bag.Add(errors.New(errors.ArityMismatch, ex.Position,
			fmt.Sprintf("variant \"%s\" expects %d argument(s), got %d", ex.Variant, len(variant.PayloadTypes), len(ex.Args)),
			ctx.Source, ctx.File))
	}
	wanted := substitutePayloadTypes(ex.EnumType, variant.PayloadTypes)
	for i, a := range ex.Args {
		got := tc.checkExpr(ctx, a, scope)
		if i < len(wanted) {
			ex.Args[i] = tc.coerce(ctx, wanted[i], a, got)
		}
	}
	ex.SetExprType(ex.EnumType)
	return ex.EnumType
}

func (tc *TypeCheck) checkCall(ctx *Context, ex *tast.Call, scope *sym.Scope) types.Type {
	calleeType := tc.checkExpr(ctx, ex.Callee, scope)

	if calleeType.Kind == types.KindTypeConstructor {
		// Class construction: `C()` — zero-arg, result is the class type
		// (the synthesized C_ctor is wired up at class lowering, phase 6).
		inner := *calleeType.Inner
		if len(ex.Args) != 0 {
			ctx.Bag.Add(errors.New(errors.ArityMismatch, ex.Position, "class constructor takes no arguments", ctx.Source, ctx.File))
		}
		for _, a := range ex.Args {
			tc.checkExpr(ctx, a, scope)
		}
		ex.SetExprType(inner)
		return inner
	}

	if calleeType.Kind != types.KindUser || calleeType.User != types.UserFunction {
		ctx.Bag.Add(errors.New(errors.CannotCall, ex.Position, "cannot call a value of type "+calleeType.String(), ctx.Source, ctx.File))
		for _, a := range ex.Args {
			tc.checkExpr(ctx, a, scope)
		}
		return types.Undefined()
	}

	if len(ex.Args) != len(calleeType.Params) {
		ctx.Bag.Add(errors.New(errors.ArityMismatch, ex.Position,
			fmt.Sprintf("expected %d argument(s), got %d", len(calleeType.Params), len(ex.Args)), ctx.Source, ctx.File))
	}
	for i, a := range ex.Args {
		got := tc.checkExpr(ctx, a, scope)
		if i < len(calleeType.Params) {
			ex.Args[i] = tc.coerce(ctx, calleeType.Params[i], a, got)
		}
	}
	result := *calleeType.Result
	ex.SetExprType(result)
	return result
}

func (tc *TypeCheck) checkGetAttr(ctx *Context, ex *tast.GetAttr, scope *sym.Scope) types.Type {
	baseType := tc.checkExpr(ctx, ex.Base, scope)
	if baseType.Kind != types.KindUser || baseType.User == types.UserFunction {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, ex.Position, "cannot access field \""+ex.Attr+"\" on "+baseType.String(), ctx.Source, ctx.File))
		return types.Undefined()
	}
	fields := userFields(baseType)
	for i, f := range fields {
		if f.Name == ex.Attr {
			ex.Index = i
			t := substituteTypeArgs(f.Type, baseType)
			ex.SetExprType(t)
			return t
		}
	}
	ctx.Bag.Add(errors.New(errors.UnresolvedName, ex.Position, baseType.String()+" has no field \""+ex.Attr+"\"", ctx.Source, ctx.File))
	return types.Undefined()
}

// userFields returns the field layout of any User type that has one
// (struct, or class prior to lowering).
func userFields(t types.Type) []tast.FieldDef {
	def, ok := t.Def.(*tast.Definition)
	if !ok {
		return nil
	}
	switch {
	case def.Struct != nil:
		return def.Struct.Fields
	case def.Class != nil:
		return def.Class.Fields
	case def.Union != nil:
		return def.Union.Choices
	}
	return nil
}

func (tc *TypeCheck) checkGetIndex(ctx *Context, ex *tast.GetIndex, scope *sym.Scope) types.Type {
	baseType := tc.checkExpr(ctx, ex.Base, scope)
	idxType := tc.checkExpr(ctx, ex.Index, scope)
	if baseType.Kind != types.KindArray {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, ex.Position, "cannot index "+baseType.String(), ctx.Source, ctx.File))
		return types.Undefined()
	}
	if idxType.Kind != types.KindBasic || idxType.Basic != types.Int {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, ex.Position, "array index must be int, got "+idxType.String(), ctx.Source, ctx.File))
	}
	ex.SetExprType(*baseType.Elem)
	return *baseType.Elem
}

func (tc *TypeCheck) checkUnaryOp(ctx *Context, ex *tast.UnaryOp, scope *sym.Scope) types.Type {
	operand := tc.checkExpr(ctx, ex.Operand, scope)
	switch ex.Op {
	case tast.OpNeg:
		if !operand.IsNumeric() {
			ctx.Bag.Add(errors.New(errors.TypeMismatch, ex.Position, "unary - requires a numeric operand, got "+operand.String(), ctx.Source, ctx.File))
		}
		ex.SetExprType(operand)
		return operand
	case tast.OpNot:
		ex.Operand = tc.coerce(ctx, types.BasicType(types.Bool), ex.Operand, operand)
		b := types.BasicType(types.Bool)
		ex.SetExprType(b)
		return b
	}
	return types.Undefined()
}

func (tc *TypeCheck) checkBinOp(ctx *Context, ex *tast.BinOp, scope *sym.Scope) types.Type {
	left := tc.checkExpr(ctx, ex.Left, scope)
	right := tc.checkExpr(ctx, ex.Right, scope)

	switch ex.Op {
	case tast.OpAnd, tast.OpOr:
		b := types.BasicType(types.Bool)
		ex.Left = tc.coerce(ctx, b, ex.Left, left)
		ex.Right = tc.coerce(ctx, b, ex.Right, right)
		ex.SetExprType(b)
		return b

	case tast.OpLt, tast.OpLtEq, tast.OpGt, tast.OpGtEq:
		tc.unifyNumeric(ctx, ex, left, right)
		b := types.BasicType(types.Bool)
		ex.SetExprType(b)
		return b

	case tast.OpEq, tast.OpNe:
		if left.Kind == types.KindBasic && left.Basic == types.String {
			if !right.Equals(left) {
				ctx.Bag.Add(errors.New(errors.TypeMismatch, ex.Position, "string comparison requires two strings", ctx.Source, ctx.File))
			}
		} else if left.IsNumeric() || right.IsNumeric() {
			tc.unifyNumeric(ctx, ex, left, right)
		} else if !left.Equals(right) {
			ctx.Bag.Add(errors.New(errors.TypeMismatch, ex.Position, "cannot compare "+left.String()+" and "+right.String(), ctx.Source, ctx.File))
		}
		b := types.BasicType(types.Bool)
		ex.SetExprType(b)
		return b

	case tast.OpAdd:
		if left.Kind == types.KindBasic && left.Basic == types.String {
			ex.Right = tc.coerce(ctx, types.BasicType(types.String), ex.Right, right)
			s := types.BasicType(types.String)
			ex.SetExprType(s)
			return s
		}
		return tc.arith(ctx, ex, left, right, false)

	case tast.OpSub, tast.OpMul:
		return tc.arith(ctx, ex, left, right, false)

	case tast.OpDiv:
		// "/" always promotes both operands to Float and always yields
		// Float, unlike "+"/"-"/"*" which stay Int when both sides are Int.
		return tc.arith(ctx, ex, left, right, true)
	}
	return types.Undefined()
}

// arith unifies Int/Float operands (Int∪Float→Float), inserting autoconv
// casts on the narrower side, and forces Float when forceFloat is set
// (the Div operator's promotion rule).
func (tc *TypeCheck) arith(ctx *Context, ex *tast.BinOp, left, right types.Type, forceFloat bool) types.Type {
	if !left.IsNumeric() || !right.IsNumeric() {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, ex.Position, "arithmetic requires numeric operands, got "+left.String()+" and "+right.String(), ctx.Source, ctx.File))
		ex.SetExprType(types.Undefined())
		return types.Undefined()
	}
	result := types.BasicType(types.Int)
	if forceFloat || left.Basic == types.Float || right.Basic == types.Float {
		result = types.BasicType(types.Float)
	}
	ex.Left = tc.coerce(ctx, result, ex.Left, left)
	ex.Right = tc.coerce(ctx, result, ex.Right, right)
	ex.SetExprType(result)
	return result
}

func (tc *TypeCheck) unifyNumeric(ctx *Context, ex *tast.BinOp, left, right types.Type) {
	if !left.IsNumeric() || !right.IsNumeric() {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, ex.Position, "comparison requires numeric operands, got "+left.String()+" and "+right.String(), ctx.Source, ctx.File))
		return
	}
	result := types.BasicType(types.Int)
	if left.Basic == types.Float || right.Basic == types.Float {
		result = types.BasicType(types.Float)
	}
	ex.Left = tc.coerce(ctx, result, ex.Left, left)
	ex.Right = tc.coerce(ctx, result, ex.Right, right)
}

// coerce implements coerce(wanted, expr): if wanted is Float
// and expr's type is Int, wrap expr in a TypeCast to Float; otherwise
// assert equality, recording a diagnostic on mismatch.
func (tc *TypeCheck) coerce(ctx *Context, wanted types.Type, expr tast.Expr, got types.Type) tast.Expr {
	return tc.coerceValue(ctx, wanted, expr, got, expr.Pos())
}

func (tc *TypeCheck) coerceValue(ctx *Context, wanted types.Type, expr tast.Expr, got types.Type, pos token.Position) tast.Expr {
	if wanted.IsUndefined() || got.IsUndefined() {
		return expr
	}
	if wanted.Kind == types.KindBasic && wanted.Basic == types.Float && got.Kind == types.KindBasic && got.Basic == types.Int {
		cast := &tast.TypeCast{ExprBase: tast.ExprBase{Position: expr.Pos(), Typ: wanted}, Kind: tast.CastIntToFloat, Operand: expr}
		return cast
	}
	if !wanted.Equals(got) {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, pos, "expected "+wanted.String()+", got "+got.String(), ctx.Source, ctx.File))
	}
	return expr
}
