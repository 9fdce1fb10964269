package sema

import (
	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/types"
)

// TypeEval is phase 3: evaluates every type-position
// expression into a SlangType, resolves generic applications, and
// promotes call syntax into enum-variant construction.
type TypeEval struct{}

func (*TypeEval) Name() string { return "type-evaluation" }

func (te *TypeEval) Run(prog *ast.Program, ctx *Context) error {
	for _, def := range allDefs(ctx.Program) {
		te.evalDefSignature(ctx, def)
	}
	for _, def := range allDefs(ctx.Program) {
		if def.Kind == tast.DefFunction {
			te.evalFuncBody(ctx, def)
		}
		if def.Kind == tast.DefClass {
			for _, m := range def.Class.Methods {
				te.evalFuncBody(ctx, m)
			}
		}
	}
	return nil
}

func (te *TypeEval) evalDefSignature(ctx *Context, def *tast.Definition) {
	scope := scopeOf(ctx, def.ID)
	if scope == nil {
		scope = ctx.Program.Scope
	}
	switch def.Kind {
	case tast.DefStruct:
		for i, f := range def.Struct.Fields {
			def.Struct.Fields[i].Type = te.evalUnresolved(ctx, f.Type, scope)
		}
	case tast.DefEnum:
		for _, v := range def.Enum.Variants {
			for i, p := range v.PayloadTypes {
				v.PayloadTypes[i] = te.evalUnresolved(ctx, p, scope)
			}
		}
	case tast.DefClass:
		for i, f := range def.Class.Fields {
			def.Class.Fields[i].Type = te.evalUnresolved(ctx, f.Type, scope)
			if f.Init != nil {
				def.Class.Fields[i].Init = te.walkExpr(ctx, f.Init, scope)
			}
		}
		for _, m := range def.Class.Methods {
			te.evalFuncSignature(ctx, m)
		}
	case tast.DefFunction:
		te.evalFuncSignature(ctx, def)
	}
}

func (te *TypeEval) evalFuncSignature(ctx *Context, def *tast.Definition) {
	scope := scopeOf(ctx, def.ID)
	if scope == nil {
		scope = ctx.Program.Scope
	}
	for _, p := range def.Func.Params {
		p.Type = te.evalUnresolved(ctx, p.Type, scope)
		syncVarType(scope, p.Name, p.Type)
	}
	def.Func.Result = te.evalUnresolved(ctx, def.Func.Result, scope)
}

// syncVarType keeps a Local's evaluated type in step with the *sym.Symbol
// a LoadSymbol node actually carries — the Local struct and the scope
// entry are separate copies populated at scope-fill time, and every
// reader past this point resolves a name's type through the symbol, not
// through the Local slice.
func syncVarType(scope *sym.Scope, name string, t types.Type) {
	if s, ok := scope.LookupLocal(name); ok {
		s.VarType = t
	}
}

// evalUnresolved evaluates t if it is KindUnresolved, returning it
// unchanged otherwise (idempotence: re-running type-checking on an
// already-typed program is a no-op, "Round-trip & idempotence").
func (te *TypeEval) evalUnresolved(ctx *Context, t types.Type, scope *sym.Scope) types.Type {
	if t.Kind != types.KindUnresolved {
		return t
	}
	raw, ok := t.Raw.(ast.Expr)
	if !ok {
		return t
	}
	return te.evalTypeExpr(ctx, raw, scope)
}

func (te *TypeEval) evalTypeExpr(ctx *Context, e ast.Expr, scope *sym.Scope) types.Type {
	switch ex := e.(type) {
	case *ast.ObjectRef:
		s, ok := scope.Lookup(ex.Path[0])
		if !ok {
			ctx.Bag.Add(errors.New(errors.UnresolvedName, ex.Position, "unresolved type name \""+ex.Path[0]+"\"", ctx.Source, ctx.File))
			return types.Undefined()
		}
		for _, seg := range ex.Path[1:] {
			if s.Kind != sym.SymModule {
				ctx.Bag.Add(errors.New(errors.InvalidTypeExpression, ex.Position, "\""+s.Name+"\" is not a module", ctx.Source, ctx.File))
				return types.Undefined()
			}
			next, ok := s.Module.LookupLocal(seg)
			if !ok {
				ctx.Bag.Add(errors.New(errors.UnresolvedName, ex.Position, "module \""+s.Name+"\" has no export \""+seg+"\"", ctx.Source, ctx.File))
				return types.Undefined()
			}
			s = next
		}
		switch s.Kind {
		case sym.SymType:
			return unwrapTypeConstructor(s.Type)
		default:
			ctx.Bag.Add(errors.New(errors.InvalidTypeExpression, ex.Position, "\""+s.Name+"\" does not denote a type", ctx.Source, ctx.File))
			return types.Undefined()
		}
	case *ast.GetIndex:
		baseRef, ok := ex.Base.(*ast.ObjectRef)
		if !ok {
			ctx.Bag.Add(errors.New(errors.InvalidTypeExpression, ex.Position, "generic application requires a type name", ctx.Source, ctx.File))
			return types.Undefined()
		}
		s, ok := scope.Lookup(baseRef.Path[0])
		if !ok || s.Kind != sym.SymType {
			ctx.Bag.Add(errors.New(errors.UnresolvedName, ex.Position, "unresolved generic type \""+baseRef.Path[0]+"\"", ctx.Source, ctx.File))
			return types.Undefined()
		}
		base := unwrapTypeConstructor(s.Type)
		if base.Def == nil {
			ctx.Bag.Add(errors.New(errors.BadGenericArguments, ex.Position, "\""+baseRef.Path[0]+"\" is not a generic definition", ctx.Source, ctx.File))
			return types.Undefined()
		}
		argType := te.evalTypeExpr(ctx, ex.Index, scope)
		if !argType.IsHeapType() {
			ctx.Bag.Add(errors.New(errors.BadGenericArguments, ex.Position, "type argument to \""+baseRef.Path[0]+"\" must be a heap type", ctx.Source, ctx.File))
		}
		return types.User(base.User, base.Def, []types.Type{argType})
	case *ast.ArrayTypeExpr:
		elem := te.evalTypeExpr(ctx, ex.Elem, scope)
		return types.Array(elem, ex.Size)
	default:
		ctx.Bag.Add(errors.New(errors.InvalidTypeExpression, e.Pos(), "not a valid type expression", ctx.Source, ctx.File))
		return types.Undefined()
	}
}

func unwrapTypeConstructor(t types.Type) types.Type {
	if t.Kind == types.KindTypeConstructor {
		return *t.Inner
	}
	return t
}

func (te *TypeEval) evalFuncBody(ctx *Context, def *tast.Definition) {
	scope := scopeOf(ctx, def.ID)
	if scope == nil {
		scope = ctx.Program.Scope
	}
	for i, s := range def.Func.Body {
		def.Func.Body[i] = te.walkStmt(ctx, s, scope)
	}
}

func (te *TypeEval) walkStmts(ctx *Context, stmts []tast.Stmt, scope *sym.Scope) {
	for i, s := range stmts {
		stmts[i] = te.walkStmt(ctx, s, scope)
	}
}

func (te *TypeEval) walkStmt(ctx *Context, s tast.Stmt, scope *sym.Scope) tast.Stmt {
	switch st := s.(type) {
	case *tast.LetStmt:
		st.Local.Type = te.evalUnresolved(ctx, st.Local.Type, scope)
		syncVarType(scope, st.Local.Name, st.Local.Type)
		st.Value = te.walkExpr(ctx, st.Value, scope)
	case *tast.AssignStmt:
		st.Target = te.walkExpr(ctx, st.Target, scope)
		st.Value = te.walkExpr(ctx, st.Value, scope)
	case *tast.ExprStmt:
		st.X = te.walkExpr(ctx, st.X, scope)
	case *tast.Compound:
		te.walkStmts(ctx, st.Stmts, scope)
	case *tast.If:
		st.Cond = te.walkExpr(ctx, st.Cond, scope)
		te.walkStmts(ctx, st.Then, scope)
		te.walkStmts(ctx, st.Else, scope)
	case *tast.While:
		st.Cond = te.walkExpr(ctx, st.Cond, scope)
		te.walkStmts(ctx, st.Body, scope)
	case *tast.Loop:
		te.walkStmts(ctx, st.Body, scope)
	case *tast.For:
		st.Iterand = te.walkExpr(ctx, st.Iterand, scope)
		te.walkStmts(ctx, st.Body, scope)
	case *tast.Case:
		st.Scrutinee = te.walkExpr(ctx, st.Scrutinee, scope)
		for _, arm := range st.Arms {
			te.walkStmts(ctx, arm.Body, scope)
		}
	case *tast.Return:
		if st.Value != nil {
			st.Value = te.walkExpr(ctx, st.Value, scope)
		}
	}
	return s
}

// walkExpr recurses through the expression tree evaluating any stray
// Unresolved type annotations (e.g. an ObjectInit's declared struct type)
// and applying the call-to-enum-literal promotion.
func (te *TypeEval) walkExpr(ctx *Context, e tast.Expr, scope *sym.Scope) tast.Expr {
	switch ex := e.(type) {
	case *tast.ObjectInit:
		ex.StructType = te.evalUnresolved(ctx, ex.StructType, scope)
		for i := range ex.Fields {
			ex.Fields[i].Value = te.walkExpr(ctx, ex.Fields[i].Value, scope)
		}
		return ex
	case *tast.ListLiteral:
		for i := range ex.Elements {
			ex.Elements[i] = te.walkExpr(ctx, ex.Elements[i], scope)
		}
		return ex
	case *tast.Call:
		ex.Callee = te.walkExpr(ctx, ex.Callee, scope)
		for i := range ex.Args {
			ex.Args[i] = te.walkExpr(ctx, ex.Args[i], scope)
		}
		if lit := te.tryPromoteEnumLiteral(ex); lit != nil {
			return lit
		}
		return ex
	case *tast.GetAttr:
		ex.Base = te.walkExpr(ctx, ex.Base, scope)
		return ex
	case *tast.GetIndex:
		ex.Base = te.walkExpr(ctx, ex.Base, scope)
		ex.Index = te.walkExpr(ctx, ex.Index, scope)
		return ex
	case *tast.BinOp:
		ex.Left = te.walkExpr(ctx, ex.Left, scope)
		ex.Right = te.walkExpr(ctx, ex.Right, scope)
		return ex
	case *tast.UnaryOp:
		ex.Operand = te.walkExpr(ctx, ex.Operand, scope)
		return ex
	case *tast.LoadSymbol:
		if ex.Sym.Kind == sym.SymFunction && ex.Sym.Def != nil {
			if fd, ok := ex.Sym.Def.(*tast.Definition); ok && fd.Func != nil {
				ex.Typ = functionType(fd.Func)
			}
		}
		return ex
	default:
		return e
	}
}

func functionType(f *tast.FuncDef) types.Type {
	params := make([]types.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}
	return types.Function(params, f.Result)
}

// tryPromoteEnumLiteral implements call-syntax promotion:
// `T::Variant(args)` where T is an enum with a variant named Variant
// becomes an EnumLiteral rather than a function call.
func (te *TypeEval) tryPromoteEnumLiteral(call *tast.Call) *tast.EnumLiteral {
	attr, ok := call.Callee.(*tast.GetAttr)
	if !ok {
		return nil
	}
	loadSym, ok := attr.Base.(*tast.LoadSymbol)
	if !ok || loadSym.Sym.Kind != sym.SymType {
		return nil
	}
	enumType := unwrapTypeConstructor(loadSym.Sym.Type)
	if enumType.Kind != types.KindUser || enumType.User != types.UserEnum {
		return nil
	}
	def, ok := enumType.Def.(*tast.Definition)
	if !ok || def.Enum == nil {
		return nil
	}
	for _, v := range def.Enum.Variants {
		if v.Name == attr.Attr {
			return &tast.EnumLiteral{ExprBase: call.ExprBase, EnumType: enumType, Variant: attr.Attr, Args: call.Args}
		}
	}
	return nil
}
