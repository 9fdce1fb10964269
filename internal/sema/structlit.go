package sema

import (
	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/types"
)

// StructLit is phase 4: converts named-field object
// initializers into positional tuple literals.
type StructLit struct{}

func (*StructLit) Name() string { return "struct-literal-canonicalization" }

func (sl *StructLit) Run(prog *ast.Program, ctx *Context) error {
	for _, def := range allDefs(ctx.Program) {
		switch def.Kind {
		case tast.DefFunction:
			sl.walkStmts(ctx, def.Func.Body)
		case tast.DefClass:
			for i, f := range def.Class.Fields {
				if f.Init != nil {
					def.Class.Fields[i].Init = sl.walkExpr(ctx, f.Init)
				}
			}
			for _, m := range def.Class.Methods {
				sl.walkStmts(ctx, m.Func.Body)
			}
		}
	}
	return nil
}

func (sl *StructLit) walkStmts(ctx *Context, stmts []tast.Stmt) {
	for i, s := range stmts {
		stmts[i] = sl.walkStmt(ctx, s)
	}
}

func (sl *StructLit) walkStmt(ctx *Context, s tast.Stmt) tast.Stmt {
	switch st := s.(type) {
	case *tast.LetStmt:
		st.Value = sl.walkExpr(ctx, st.Value)
	case *tast.AssignStmt:
		st.Target = sl.walkExpr(ctx, st.Target)
		st.Value = sl.walkExpr(ctx, st.Value)
	case *tast.ExprStmt:
		st.X = sl.walkExpr(ctx, st.X)
	case *tast.Compound:
		sl.walkStmts(ctx, st.Stmts)
	case *tast.If:
		st.Cond = sl.walkExpr(ctx, st.Cond)
		sl.walkStmts(ctx, st.Then)
		sl.walkStmts(ctx, st.Else)
	case *tast.While:
		st.Cond = sl.walkExpr(ctx, st.Cond)
		sl.walkStmts(ctx, st.Body)
	case *tast.Loop:
		sl.walkStmts(ctx, st.Body)
	case *tast.For:
		st.Iterand = sl.walkExpr(ctx, st.Iterand)
		sl.walkStmts(ctx, st.Body)
	case *tast.Case:
		st.Scrutinee = sl.walkExpr(ctx, st.Scrutinee)
		for _, arm := range st.Arms {
			sl.walkStmts(ctx, arm.Body)
		}
	case *tast.Return:
		if st.Value != nil {
			st.Value = sl.walkExpr(ctx, st.Value)
		}
	}
	return s
}

func (sl *StructLit) walkExpr(ctx *Context, e tast.Expr) tast.Expr {
	switch ex := e.(type) {
	case *tast.ObjectInit:
		for i := range ex.Fields {
			ex.Fields[i].Value = sl.walkExpr(ctx, ex.Fields[i].Value)
		}
		return sl.canonicalize(ctx, ex)
	case *tast.ListLiteral:
		for i := range ex.Elements {
			ex.Elements[i] = sl.walkExpr(ctx, ex.Elements[i])
		}
		return ex
	case *tast.Call:
		ex.Callee = sl.walkExpr(ctx, ex.Callee)
		for i := range ex.Args {
			ex.Args[i] = sl.walkExpr(ctx, ex.Args[i])
		}
		return ex
	case *tast.GetAttr:
		ex.Base = sl.walkExpr(ctx, ex.Base)
		return ex
	case *tast.GetIndex:
		ex.Base = sl.walkExpr(ctx, ex.Base)
		ex.Index = sl.walkExpr(ctx, ex.Index)
		return ex
	case *tast.BinOp:
		ex.Left = sl.walkExpr(ctx, ex.Left)
		ex.Right = sl.walkExpr(ctx, ex.Right)
		return ex
	case *tast.UnaryOp:
		ex.Operand = sl.walkExpr(ctx, ex.Operand)
		return ex
	default:
		return e
	}
}

// canonicalize implements ordered rules.
func (sl *StructLit) canonicalize(ctx *Context, init *tast.ObjectInit) tast.Expr {
	if init.StructType.Kind != types.KindUser || init.StructType.User != types.UserStruct {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, init.Position, "struct literal target is not a struct type", ctx.Source, ctx.File))
		return init
	}
	def, ok := init.StructType.Def.(*tast.Definition)
	if !ok || def.Struct == nil {
		ctx.Bag.Add(errors.New(errors.TypeMismatch, init.Position, "struct literal target has no field layout", ctx.Source, ctx.File))
		return init
	}

	seen := map[string]bool{}
	values := map[string]tast.Expr{}
	for _, fv := range init.Fields {
		if seen[fv.Name] {
			ctx.Bag.Add(errors.New(errors.DuplicateField, init.Position, "duplicate field \""+fv.Name+"\" in struct literal", ctx.Source, ctx.File))
			continue
		}
		seen[fv.Name] = true
		found := false
		for _, fd := range def.Struct.Fields {
			if fd.Name == fv.Name {
				found = true
				break
			}
		}
		if !found {
			ctx.Bag.Add(errors.New(errors.SuperfluousField, init.Position, "\""+def.Name+"\" has no field \""+fv.Name+"\"", ctx.Source, ctx.File))
			continue
		}
		values[fv.Name] = fv.Value
	}

	out := &tast.TupleLiteral{ExprBase: init.ExprBase, StructType: init.StructType}
	for _, fd := range def.Struct.Fields {
		v, ok := values[fd.Name]
		if !ok {
			ctx.Bag.Add(errors.New(errors.MissingField, init.Position, "missing field \""+fd.Name+"\" in \""+def.Name+"\" literal", ctx.Source, ctx.File))
			out.Values = append(out.Values, &tast.Literal{ExprBase: tast.ExprBase{Position: init.Position, Typ: fd.Type}, Kind: tast.LitUndefined})
			continue
		}
		out.Values = append(out.Values, v)
	}
	return out
}
