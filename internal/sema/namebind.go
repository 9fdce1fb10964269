package sema

import (
	"strings"

	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/tast"
)

// NameBind is phase 2: resolves every ObjectRef against the
// scope recorded for its owning definition by scope-fill, rewriting
// successful resolutions to LoadSymbol in place.
type NameBind struct{}

func (*NameBind) Name() string { return "name-binding" }

func (nb *NameBind) Run(prog *ast.Program, ctx *Context) error {
	for _, def := range allDefs(ctx.Program) {
		scope := scopeOf(ctx, def.ID)
		if scope == nil {
			scope = ctx.Program.Scope
		}
		nb.bindDef(ctx, def, scope)
	}
	return nil
}

func allDefs(p *tast.Program) []*tast.Definition {
	out := append([]*tast.Definition{}, p.Defs...)
	out = append(out, p.Generics...)
	return out
}

func (nb *NameBind) bindDef(ctx *Context, def *tast.Definition, scope *sym.Scope) {
	switch def.Kind {
	case tast.DefFunction:
		nb.bindFunc(ctx, def, scope)
	case tast.DefClass:
		for i, f := range def.Class.Fields {
			if f.Init != nil {
				def.Class.Fields[i].Init = nb.bindExpr(ctx, f.Init, scope)
			}
		}
		for _, m := range def.Class.Methods {
			mscope := scopeOf(ctx, m.ID)
			if mscope == nil {
				mscope = scope
			}
			nb.bindFunc(ctx, m, mscope)
		}
	}
	// Struct/Enum field and payload types are bound lazily by type
	// evaluation (phase 3), which needs their Unresolved raw expression
	// untouched to distinguish a type-position name from a value-position
	// one; there is nothing further for name-binding to do here.
}

func (nb *NameBind) bindFunc(ctx *Context, def *tast.Definition, scope *sym.Scope) {
	for i, s := range def.Func.Body {
		def.Func.Body[i] = nb.bindStmt(ctx, s, scope)
	}
}

func (nb *NameBind) bindStmt(ctx *Context, s tast.Stmt, scope *sym.Scope) tast.Stmt {
	switch st := s.(type) {
	case *tast.LetStmt:
		st.Value = nb.bindExpr(ctx, st.Value, scope)
	case *tast.AssignStmt:
		st.Target = nb.bindExpr(ctx, st.Target, scope)
		st.Value = nb.bindExpr(ctx, st.Value, scope)
	case *tast.ExprStmt:
		st.X = nb.bindExpr(ctx, st.X, scope)
	case *tast.Compound:
		nb.bindStmts(ctx, st.Stmts, scope)
	case *tast.If:
		st.Cond = nb.bindExpr(ctx, st.Cond, scope)
		nb.bindStmts(ctx, st.Then, scope)
		nb.bindStmts(ctx, st.Else, scope)
	case *tast.While:
		st.Cond = nb.bindExpr(ctx, st.Cond, scope)
		nb.bindStmts(ctx, st.Body, scope)
	case *tast.Loop:
		nb.bindStmts(ctx, st.Body, scope)
	case *tast.For:
		st.Iterand = nb.bindExpr(ctx, st.Iterand, scope)
		nb.bindStmts(ctx, st.Body, scope)
	case *tast.Case:
		st.Scrutinee = nb.bindExpr(ctx, st.Scrutinee, scope)
		for _, arm := range st.Arms {
			nb.bindStmts(ctx, arm.Body, scope)
		}
	case *tast.Return:
		if st.Value != nil {
			st.Value = nb.bindExpr(ctx, st.Value, scope)
		}
	}
	return s
}

func (nb *NameBind) bindStmts(ctx *Context, stmts []tast.Stmt, scope *sym.Scope) {
	for i, s := range stmts {
		stmts[i] = nb.bindStmt(ctx, s, scope)
	}
}

// bindExpr resolves ObjectRef nodes, returning the (possibly rewritten)
// expression. Every non-ObjectRef expression recurses into its children.
func (nb *NameBind) bindExpr(ctx *Context, e tast.Expr, scope *sym.Scope) tast.Expr {
	switch ex := e.(type) {
	case *tast.ObjectRef:
		return nb.resolveRef(ctx, ex, scope)
	case *tast.ObjectInit:
		for i := range ex.Fields {
			ex.Fields[i].Value = nb.bindExpr(ctx, ex.Fields[i].Value, scope)
		}
		return ex
	case *tast.ListLiteral:
		for i := range ex.Elements {
			ex.Elements[i] = nb.bindExpr(ctx, ex.Elements[i], scope)
		}
		return ex
	case *tast.Call:
		ex.Callee = nb.bindExpr(ctx, ex.Callee, scope)
		for i := range ex.Args {
			ex.Args[i] = nb.bindExpr(ctx, ex.Args[i], scope)
		}
		return ex
	case *tast.GetAttr:
		ex.Base = nb.bindExpr(ctx, ex.Base, scope)
		return ex
	case *tast.GetIndex:
		ex.Base = nb.bindExpr(ctx, ex.Base, scope)
		ex.Index = nb.bindExpr(ctx, ex.Index, scope)
		return ex
	case *tast.BinOp:
		ex.Left = nb.bindExpr(ctx, ex.Left, scope)
		ex.Right = nb.bindExpr(ctx, ex.Right, scope)
		return ex
	case *tast.UnaryOp:
		ex.Operand = nb.bindExpr(ctx, ex.Operand, scope)
		return ex
	default:
		return e // Literal and already-resolved nodes
	}
}

// resolveRef implements left-to-right dotted-path resolution:
// `a::b::c` resolves `a` in the scope chain, then walks `b`, `c` through
// module-exported scopes only.
func (nb *NameBind) resolveRef(ctx *Context, ref *tast.ObjectRef, scope *sym.Scope) tast.Expr {
	head := ref.Path[0]
	s, ok := scope.Lookup(head)
	if !ok {
		ctx.Bag.Add(errors.New(errors.UnresolvedName, ref.Position,
			"unresolved name \""+strings.Join(ref.Path, "::")+"\"", ctx.Source, ctx.File))
		return ref
	}
	for _, seg := range ref.Path[1:] {
		if s.Kind != sym.SymModule {
			ctx.Bag.Add(errors.New(errors.UnresolvedName, ref.Position,
				"\""+s.Name+"\" is not a module; cannot access \""+seg+"\"", ctx.Source, ctx.File))
			return ref
		}
		next, ok := s.Module.LookupLocal(seg)
		if !ok {
			ctx.Bag.Add(errors.New(errors.UnresolvedName, ref.Position,
				"module \""+s.Name+"\" has no export \""+seg+"\"", ctx.Source, ctx.File))
			return ref
		}
		s = next
	}
	out := &tast.LoadSymbol{ExprBase: ref.ExprBase, Sym: s}
	if s.Kind == sym.SymType {
		out.Typ = s.Type
	} else if s.Kind == sym.SymParameter || s.Kind == sym.SymLocal {
		out.Typ = s.VarType
	}
	return out
}
