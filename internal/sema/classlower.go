package sema

import (
	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/types"
)

// ClassLower is phase 6: rewrites each class into a record
// plus a synthesized constructor, and promotes each method to a
// top-level function taking the receiver as an explicit first
// parameter.
type ClassLower struct{}

func (*ClassLower) Name() string { return "class-lowering" }

// classInfo records what a class lowered to, keyed by the class's
// original *tast.Definition — which becomes the lowered struct's
// Definition in place, so the pointer stays a valid map key across the
// mutation.
type classInfo struct {
	ctor    *tast.Definition
	methods map[string]*tast.Definition // original method name -> promoted definition
}

func (cl *ClassLower) Run(prog *ast.Program, ctx *Context) error {
	var classDefs []*tast.Definition
	for _, d := range ctx.Program.Defs {
		if d.Kind == tast.DefClass {
			classDefs = append(classDefs, d)
		}
	}

	infos := map[*tast.Definition]*classInfo{}
	for _, def := range classDefs {
		infos[def] = cl.lowerClass(ctx, def)
	}

	for _, d := range ctx.Program.Defs {
		if d.Kind == tast.DefFunction {
			cl.rewriteStmts(d.Func.Body, infos)
		}
	}
	return nil
}

func (cl *ClassLower) lowerClass(ctx *Context, def *tast.Definition) *classInfo {
	fields := make([]tast.FieldDef, len(def.Class.Fields))
	inits := make([]tast.Expr, len(def.Class.Fields))
	for i, f := range def.Class.Fields {
		fields[i] = tast.FieldDef{Name: f.Name, Type: f.Type}
		if f.Init == nil {
			errors.Panic("class-lowering", "class field %q of %q has no initializer", f.Name, def.Name)
		}
		inits[i] = f.Init
	}

	methods := def.Class.Methods
	def.Struct = &tast.StructDef{Fields: fields}
	def.Kind = tast.DefStruct
	def.Class = nil
	structType := types.User(types.UserStruct, def, nil)

	ctorBody := []tast.Stmt{
		&tast.Return{Value: &tast.TupleLiteral{
			ExprBase:   tast.ExprBase{Typ: structType},
			StructType: structType,
			Values:     inits,
		}},
	}
	ctor := &tast.Definition{
		ID:   ctx.Sym.NextID(),
		Name: def.Name + "_ctor",
		Kind: tast.DefFunction,
		Func: &tast.FuncDef{Result: structType, Body: ctorBody},
	}
	ctx.Program.AddDef(ctor)

	methodMap := map[string]*tast.Definition{}
	for _, m := range methods {
		orig := m.Name
		m.Name = def.Name + "_" + orig
		m.Func.ReceiverOf = nil
		ctx.Program.AddDef(m)
		methodMap[orig] = m
	}

	return &classInfo{ctor: ctor, methods: methodMap}
}

func classOf(t types.Type, infos map[*tast.Definition]*classInfo) (*tast.Definition, *classInfo) {
	t = unwrapTypeConstructor(t)
	if t.Kind != types.KindUser {
		return nil, nil
	}
	def, ok := t.Def.(*tast.Definition)
	if !ok {
		return nil, nil
	}
	info, ok := infos[def]
	if !ok {
		return nil, nil
	}
	return def, info
}

func (cl *ClassLower) rewriteStmts(stmts []tast.Stmt, infos map[*tast.Definition]*classInfo) {
	for i, s := range stmts {
		stmts[i] = cl.rewriteStmt(s, infos)
	}
}

func (cl *ClassLower) rewriteStmt(s tast.Stmt, infos map[*tast.Definition]*classInfo) tast.Stmt {
	switch st := s.(type) {
	case *tast.LetStmt:
		st.Value = cl.rewriteExpr(st.Value, infos)
	case *tast.AssignStmt:
		st.Target = cl.rewriteExpr(st.Target, infos)
		st.Value = cl.rewriteExpr(st.Value, infos)
	case *tast.ExprStmt:
		st.X = cl.rewriteExpr(st.X, infos)
	case *tast.Compound:
		cl.rewriteStmts(st.Stmts, infos)
	case *tast.If:
		st.Cond = cl.rewriteExpr(st.Cond, infos)
		cl.rewriteStmts(st.Then, infos)
		cl.rewriteStmts(st.Else, infos)
	case *tast.While:
		st.Cond = cl.rewriteExpr(st.Cond, infos)
		cl.rewriteStmts(st.Body, infos)
	case *tast.Loop:
		cl.rewriteStmts(st.Body, infos)
	case *tast.For:
		st.Iterand = cl.rewriteExpr(st.Iterand, infos)
		cl.rewriteStmts(st.Body, infos)
	case *tast.Case:
		st.Scrutinee = cl.rewriteExpr(st.Scrutinee, infos)
		for _, arm := range st.Arms {
			cl.rewriteStmts(arm.Body, infos)
		}
	case *tast.Return:
		if st.Value != nil {
			st.Value = cl.rewriteExpr(st.Value, infos)
		}
	}
	return s
}

// rewriteExpr implements step 4's two use-site rewrites:
// `obj.m(args)` becomes `C_m(obj, args)`, and a zero-arg class
// construction `C()` becomes a call to the synthesized constructor.
func (cl *ClassLower) rewriteExpr(e tast.Expr, infos map[*tast.Definition]*classInfo) tast.Expr {
	switch ex := e.(type) {
	case *tast.Call:
		ex.Callee = cl.rewriteExpr(ex.Callee, infos)
		for i := range ex.Args {
			ex.Args[i] = cl.rewriteExpr(ex.Args[i], infos)
		}
		if attr, ok := ex.Callee.(*tast.GetAttr); ok {
			if _, info := classOf(attr.Base.ExprType(), infos); info != nil {
				if m, ok := info.methods[attr.Attr]; ok {
					callee := &tast.LoadSymbol{
						ExprBase: tast.ExprBase{Position: attr.Position, Typ: functionType(m.Func)},
						Sym:      &sym.Symbol{Kind: sym.SymFunction, Name: m.Name, Def: m},
					}
					args := append([]tast.Expr{attr.Base}, ex.Args...)
					return &tast.Call{ExprBase: ex.ExprBase, Callee: callee, Args: args}
				}
			}
		}
		if ls, ok := ex.Callee.(*tast.LoadSymbol); ok && ls.Sym.Kind == sym.SymType {
			if _, info := classOf(ls.Sym.Type, infos); info != nil {
				callee := &tast.LoadSymbol{
					ExprBase: tast.ExprBase{Position: ls.Position, Typ: functionType(info.ctor.Func)},
					Sym:      &sym.Symbol{Kind: sym.SymFunction, Name: info.ctor.Name, Def: info.ctor},
				}
				return &tast.Call{ExprBase: ex.ExprBase, Callee: callee}
			}
		}
		return ex
	case *tast.TupleLiteral:
		for i := range ex.Values {
			ex.Values[i] = cl.rewriteExpr(ex.Values[i], infos)
		}
		return ex
	case *tast.ListLiteral:
		for i := range ex.Elements {
			ex.Elements[i] = cl.rewriteExpr(ex.Elements[i], infos)
		}
		return ex
	case *tast.EnumLiteral:
		for i := range ex.Args {
			ex.Args[i] = cl.rewriteExpr(ex.Args[i], infos)
		}
		return ex
	case *tast.GetAttr:
		ex.Base = cl.rewriteExpr(ex.Base, infos)
		return ex
	case *tast.GetIndex:
		ex.Base = cl.rewriteExpr(ex.Base, infos)
		ex.Index = cl.rewriteExpr(ex.Index, infos)
		return ex
	case *tast.BinOp:
		ex.Left = cl.rewriteExpr(ex.Left, infos)
		ex.Right = cl.rewriteExpr(ex.Right, infos)
		return ex
	case *tast.UnaryOp:
		ex.Operand = cl.rewriteExpr(ex.Operand, infos)
		return ex
	case *tast.TypeCast:
		ex.Operand = cl.rewriteExpr(ex.Operand, infos)
		return ex
	default:
		return e
	}
}
