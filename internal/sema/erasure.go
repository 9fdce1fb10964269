package sema

import (
	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/types"
)

// Erasure is phase 9: a generic struct or enum compiles to a
// single shared representation no matter what it's instantiated with, so
// every TypeVar-typed slot becomes Opaque. Each boundary where a concrete
// value crosses into or out of such a slot — a field read, a field
// write, a struct or union literal's slot — gets an explicit TypeCast so
// later phases never have to reason about type arguments again.
//
// Runs last among the lowering passes: by the time Erasure sees a
// function body, Case/For have already been rewritten away (phases 7
// and 8), so only Switch and While remain.
type Erasure struct{}

func (*Erasure) Name() string { return "generic-erasure" }

func (er *Erasure) Run(prog *ast.Program, ctx *Context) error {
	for _, d := range ctx.Program.Defs {
		if d.Kind == tast.DefFunction {
			er.rewriteStmts(d.Func.Body)
		}
	}
	for _, d := range ctx.Program.Generics {
		er.eraseDef(d)
	}
	return nil
}

// eraseDef rewrites a generic template's own declared field/payload
// types in place, after every use-site in Defs has already had a chance
// to see them as TypeVar and insert a cast.
func (er *Erasure) eraseDef(d *tast.Definition) {
	if d.Struct != nil {
		for i := range d.Struct.Fields {
			if d.Struct.Fields[i].Type.Kind == types.KindTypeVar {
				d.Struct.Fields[i].Type = types.Opaque()
			}
		}
	}
	if d.Union != nil {
		for i := range d.Union.Choices {
			if d.Union.Choices[i].Type.Kind == types.KindTypeVar {
				d.Union.Choices[i].Type = types.Opaque()
			}
		}
	}
	if d.Enum != nil {
		for _, v := range d.Enum.Variants {
			for i, pt := range v.PayloadTypes {
				if pt.Kind == types.KindTypeVar {
					v.PayloadTypes[i] = types.Opaque()
				}
			}
		}
	}
}

// templateFieldType looks up field index's declared type on the generic
// template t instantiates, before that template has been erased.
func templateFieldType(t types.Type, index int) (types.Type, bool) {
	def, ok := t.Def.(*tast.Definition)
	if !ok {
		return types.Undefined(), false
	}
	if def.Struct != nil && index >= 0 && index < len(def.Struct.Fields) {
		return def.Struct.Fields[index].Type, true
	}
	if def.Union != nil && index >= 0 && index < len(def.Union.Choices) {
		return def.Union.Choices[index].Type, true
	}
	return types.Undefined(), false
}

func (er *Erasure) castToOpaque(e tast.Expr) tast.Expr {
	return &tast.TypeCast{
		ExprBase: tast.ExprBase{Position: e.Pos(), Typ: types.Opaque()},
		Kind:     tast.CastUserToOpaque,
		Operand:  e,
	}
}

func (er *Erasure) rewriteStmts(stmts []tast.Stmt) {
	for _, s := range stmts {
		er.rewriteStmt(s)
	}
}

func (er *Erasure) rewriteStmt(s tast.Stmt) {
	switch st := s.(type) {
	case *tast.LetStmt:
		st.Value = er.rewriteExpr(st.Value)
	case *tast.AssignStmt:
		st.Target = er.rewriteExpr(st.Target)
		st.Value = er.rewriteExpr(st.Value)
	case *tast.StoreLocal:
		st.Value = er.rewriteExpr(st.Value)
	case *tast.SetAttr:
		st.Base = er.rewriteExpr(st.Base)
		st.Value = er.rewriteExpr(st.Value)
		if ft, ok := templateFieldType(st.Base.ExprType(), st.Index); ok && ft.Kind == types.KindTypeVar {
			st.Value = er.castToOpaque(st.Value)
		}
	case *tast.SetIndex:
		st.Base = er.rewriteExpr(st.Base)
		st.Index = er.rewriteExpr(st.Index)
		st.Value = er.rewriteExpr(st.Value)
	case *tast.ExprStmt:
		st.X = er.rewriteExpr(st.X)
	case *tast.Compound:
		er.rewriteStmts(st.Stmts)
	case *tast.If:
		st.Cond = er.rewriteExpr(st.Cond)
		er.rewriteStmts(st.Then)
		er.rewriteStmts(st.Else)
	case *tast.While:
		st.Cond = er.rewriteExpr(st.Cond)
		er.rewriteStmts(st.Body)
	case *tast.Loop:
		er.rewriteStmts(st.Body)
	case *tast.Switch:
		st.Tag = er.rewriteExpr(st.Tag)
		for _, arm := range st.Arms {
			er.rewriteStmts(arm.Body)
		}
		er.rewriteStmts(st.Default)
	case *tast.Return:
		if st.Value != nil {
			st.Value = er.rewriteExpr(st.Value)
		}
	}
}

// rewriteExpr implements boundary casts: a GetAttr reading a
// TypeVar-typed field comes back Opaque and needs CastOpaqueToUser to the
// type bound at this use-site; a TupleLiteral or UnionLiteral slot being
// constructed against a TypeVar-typed field needs the reverse
// CastUserToOpaque.
func (er *Erasure) rewriteExpr(e tast.Expr) tast.Expr {
	switch ex := e.(type) {
	case *tast.GetAttr:
		ex.Base = er.rewriteExpr(ex.Base)
		if ft, ok := templateFieldType(ex.Base.ExprType(), ex.Index); ok && ft.Kind == types.KindTypeVar {
			concrete := ex.ExprType()
			ex.SetExprType(types.Opaque())
			return &tast.TypeCast{
				ExprBase: tast.ExprBase{Position: ex.Position, Typ: concrete},
				Kind:     tast.CastOpaqueToUser,
				Operand:  ex,
			}
		}
		return ex
	case *tast.GetIndex:
		ex.Base = er.rewriteExpr(ex.Base)
		ex.Index = er.rewriteExpr(ex.Index)
		return ex
	case *tast.TupleLiteral:
		def, _ := ex.StructType.Def.(*tast.Definition)
		for i := range ex.Values {
			ex.Values[i] = er.rewriteExpr(ex.Values[i])
			if def != nil && def.Struct != nil && i < len(def.Struct.Fields) &&
				def.Struct.Fields[i].Type.Kind == types.KindTypeVar {
				ex.Values[i] = er.castToOpaque(ex.Values[i])
			}
		}
		return ex
	case *tast.UnionLiteral:
		ex.Payload = er.rewriteExpr(ex.Payload)
		if def, ok := ex.UnionType.Def.(*tast.Definition); ok && def.Union != nil {
			for _, c := range def.Union.Choices {
				if c.Name == ex.Choice && c.Type.Kind == types.KindTypeVar {
					ex.Payload = er.castToOpaque(ex.Payload)
				}
			}
		}
		return ex
	case *tast.ListLiteral:
		for i := range ex.Elements {
			ex.Elements[i] = er.rewriteExpr(ex.Elements[i])
		}
		return ex
	case *tast.Call:
		ex.Callee = er.rewriteExpr(ex.Callee)
		for i := range ex.Args {
			ex.Args[i] = er.rewriteExpr(ex.Args[i])
		}
		return ex
	case *tast.BinOp:
		ex.Left = er.rewriteExpr(ex.Left)
		ex.Right = er.rewriteExpr(ex.Right)
		return ex
	case *tast.UnaryOp:
		ex.Operand = er.rewriteExpr(ex.Operand)
		return ex
	case *tast.TypeCast:
		ex.Operand = er.rewriteExpr(ex.Operand)
		return ex
	default:
		return e
	}
}
