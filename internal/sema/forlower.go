package sema

import (
	"fmt"

	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/types"
)

// ForLower is phase 8: rewrites `for v in a` over an array
// into a counted while loop with two freshly allocated locals.
type ForLower struct{}

func (*ForLower) Name() string { return "for-loop-lowering" }

func (fl *ForLower) Run(prog *ast.Program, ctx *Context) error {
	for _, d := range ctx.Program.Defs {
		if d.Kind == tast.DefFunction {
			d.Func.Body = fl.lowerStmts(ctx, d.Func, d.Func.Body)
		}
	}
	return nil
}

func (fl *ForLower) lowerStmts(ctx *Context, fn *tast.FuncDef, stmts []tast.Stmt) []tast.Stmt {
	out := make([]tast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, fl.lowerStmt(ctx, fn, s)...)
	}
	return out
}

// lowerStmt returns a slice: a For statement expands into the three
// freshly introduced statements names (`i := 0`, `it := a`,
// the while loop).
func (fl *ForLower) lowerStmt(ctx *Context, fn *tast.FuncDef, s tast.Stmt) []tast.Stmt {
	switch st := s.(type) {
	case *tast.Compound:
		st.Stmts = fl.lowerStmts(ctx, fn, st.Stmts)
	case *tast.If:
		st.Then = fl.lowerStmts(ctx, fn, st.Then)
		st.Else = fl.lowerStmts(ctx, fn, st.Else)
	case *tast.While:
		st.Body = fl.lowerStmts(ctx, fn, st.Body)
	case *tast.Loop:
		st.Body = fl.lowerStmts(ctx, fn, st.Body)
	case *tast.Case:
		for _, arm := range st.Arms {
			arm.Body = fl.lowerStmts(ctx, fn, arm.Body)
		}
	case *tast.Switch:
		for _, arm := range st.Arms {
			arm.Body = fl.lowerStmts(ctx, fn, arm.Body)
		}
		st.Default = fl.lowerStmts(ctx, fn, st.Default)
	case *tast.For:
		return fl.lowerFor(ctx, fn, st)
	}
	return []tast.Stmt{s}
}

func newLocal(ctx *Context, fn *tast.FuncDef, name string, t types.Type) *tast.Local {
	l := &tast.Local{ID: ctx.Sym.NextID(), Name: name, Type: t, Index: len(fn.Params) + len(fn.Locals)}
	fn.Locals = append(fn.Locals, l)
	return l
}

func (fl *ForLower) lowerFor(ctx *Context, fn *tast.FuncDef, st *tast.For) []tast.Stmt {
	arrType := st.Iterand.ExprType()
	n := 0
	if arrType.Kind == types.KindArray {
		n = arrType.ArrayLen
	}

	iLocal := newLocal(ctx, fn, fmt.Sprintf("$i%d", st.Var.ID), types.BasicType(types.Int))
	itLocal := newLocal(ctx, fn, fmt.Sprintf("$it%d", st.Var.ID), arrType)

	initI := &tast.LetStmt{StmtBase: st.StmtBase, Local: iLocal,
		Value: &tast.Literal{ExprBase: tast.ExprBase{Position: st.Position, Typ: types.BasicType(types.Int)}, Kind: tast.LitInt, Int: 0}}
	initIt := &tast.LetStmt{StmtBase: st.StmtBase, Local: itLocal, Value: st.Iterand}

	loadI := func() *tast.LoadSymbol {
		return &tast.LoadSymbol{ExprBase: tast.ExprBase{Position: st.Position, Typ: types.BasicType(types.Int)}, Sym: localSymbol(iLocal)}
	}
	loadIt := func() *tast.LoadSymbol {
		return &tast.LoadSymbol{ExprBase: tast.ExprBase{Position: st.Position, Typ: arrType}, Sym: localSymbol(itLocal)}
	}

	cond := &tast.BinOp{
		ExprBase: tast.ExprBase{Position: st.Position, Typ: types.BasicType(types.Bool)},
		Op:       tast.OpLt,
		Left:     loadI(),
		Right:    &tast.Literal{ExprBase: tast.ExprBase{Position: st.Position, Typ: types.BasicType(types.Int)}, Kind: tast.LitInt, Int: int64(n)},
	}

	elemType := types.Undefined()
	if arrType.Elem != nil {
		elemType = *arrType.Elem
	}
	bindV := &tast.LetStmt{StmtBase: st.StmtBase, Local: st.Var,
		Value: &tast.GetIndex{ExprBase: tast.ExprBase{Position: st.Position, Typ: elemType}, Base: loadIt(), Index: loadI()}}

	incrStmt := &tast.AssignStmt{StmtBase: st.StmtBase,
		Target: loadI(),
		Value: &tast.BinOp{
			ExprBase: tast.ExprBase{Position: st.Position, Typ: types.BasicType(types.Int)},
			Op:       tast.OpAdd,
			Left:     loadI(),
			Right:    &tast.Literal{ExprBase: tast.ExprBase{Position: st.Position, Typ: types.BasicType(types.Int)}, Kind: tast.LitInt, Int: 1},
		},
	}

	body := append([]tast.Stmt{bindV}, fl.lowerStmts(ctx, fn, st.Body)...)
	body = append(body, incrStmt)

	whileStmt := &tast.While{StmtBase: st.StmtBase, Cond: cond, Body: body}
	return []tast.Stmt{initI, initIt, whileStmt}
}
