package sema

import (
	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/token"
	"github.com/cwbudde/slangc/internal/types"
)

func binOpKind(t token.Type) tast.BinOpKind {
	switch t {
	case token.PLUS:
		return tast.OpAdd
	case token.MINUS:
		return tast.OpSub
	case token.STAR:
		return tast.OpMul
	case token.SLASH:
		return tast.OpDiv
	case token.LT:
		return tast.OpLt
	case token.LTEQ:
		return tast.OpLtEq
	case token.GT:
		return tast.OpGt
	case token.GTEQ:
		return tast.OpGtEq
	case token.EQ:
		return tast.OpEq
	case token.NEQ:
		return tast.OpNe
	case token.AND:
		return tast.OpAnd
	case token.OR:
		return tast.OpOr
	}
	errors.Panic("scope-fill", "unhandled binary operator token %v", t)
	return 0
}

func unaryOpKind(t token.Type) tast.UnaryOpKind {
	switch t {
	case token.MINUS:
		return tast.OpNeg
	case token.NOT:
		return tast.OpNot
	}
	errors.Panic("scope-fill", "unhandled unary operator token %v", t)
	return 0
}

// blockFiller converts a parsed function body into its T-AST shape,
// registering every `let` as a fresh Local in the function's flat scope
// (see the defScopes doc comment for why nested block scopes aren't
// modeled separately).
type blockFiller struct {
	ctx   *Context
	scope *sym.Scope
	fn    *tast.FuncDef
}

func (b *blockFiller) nextLocal(name string, typ types.Type) *tast.Local {
	idx := len(b.fn.Params) + len(b.fn.Locals)
	l := &tast.Local{ID: b.ctx.Sym.NextID(), Name: name, Type: typ, Index: idx}
	b.fn.Locals = append(b.fn.Locals, l)
	return l
}

func (b *blockFiller) fillStmts(stmts []ast.Stmt) []tast.Stmt {
	out := make([]tast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, b.fillStmt(s))
	}
	return out
}

func (b *blockFiller) fillStmt(s ast.Stmt) tast.Stmt {
	switch st := s.(type) {
	case *ast.LetStmt:
		typ := types.Undefined()
		if st.Type != nil {
			typ = types.Unresolved(st.Type)
		}
		local := b.nextLocal(st.Name, typ)
		if !b.scope.Define(st.Name, &sym.Symbol{Kind: sym.SymLocal, Name: st.Name, VarType: typ, Index: local.Index}) {
			b.ctx.Bag.Add(errors.New(errors.DuplicateDeclaration, st.Position, "\""+st.Name+"\" is already declared", b.ctx.Source, b.ctx.File))
		}
		return &tast.LetStmt{StmtBase: tast.StmtBase{Position: st.Position}, Local: local, Value: b.fillExpr(st.Value)}
	case *ast.AssignStmt:
		return &tast.AssignStmt{StmtBase: tast.StmtBase{Position: st.Position}, Target: b.fillExpr(st.Target), Value: b.fillExpr(st.Value)}
	case *ast.ExprStmt:
		return &tast.ExprStmt{StmtBase: tast.StmtBase{Position: st.Position}, X: b.fillExpr(st.X)}
	case *ast.Block:
		return &tast.Compound{StmtBase: tast.StmtBase{Position: st.Position}, Stmts: b.fillStmts(st.Stmts)}
	case *ast.IfStmt:
		out := &tast.If{StmtBase: tast.StmtBase{Position: st.Position}, Cond: b.fillExpr(st.Cond), Then: b.fillStmts(st.Then.Stmts)}
		if st.Else != nil {
			out.Else = b.fillStmts(st.Else.Stmts)
		}
		return out
	case *ast.WhileStmt:
		return &tast.While{StmtBase: tast.StmtBase{Position: st.Position}, Cond: b.fillExpr(st.Cond), Body: b.fillStmts(st.Body.Stmts)}
	case *ast.LoopStmt:
		return &tast.Loop{StmtBase: tast.StmtBase{Position: st.Position}, Body: b.fillStmts(st.Body.Stmts)}
	case *ast.ForStmt:
		local := b.nextLocal(st.Var, types.Undefined())
		b.scope.Define(st.Var, &sym.Symbol{Kind: sym.SymLocal, Name: st.Var, Index: local.Index})
		return &tast.For{StmtBase: tast.StmtBase{Position: st.Position}, Var: local, Iterand: b.fillExpr(st.Iterand), Body: b.fillStmts(st.Body.Stmts)}
	case *ast.CaseStmt:
		out := &tast.Case{StmtBase: tast.StmtBase{Position: st.Position}, Scrutinee: b.fillExpr(st.Scrutinee)}
		for _, arm := range st.Arms {
			tarm := &tast.CaseArm{Variant: arm.Variant}
			for _, bindName := range arm.Bindings {
				l := b.nextLocal(bindName, types.Undefined())
				b.scope.Define(bindName, &sym.Symbol{Kind: sym.SymLocal, Name: bindName, Index: l.Index})
				tarm.Bindings = append(tarm.Bindings, l)
			}
			tarm.Body = b.fillStmts(arm.Body.Stmts)
			out.Arms = append(out.Arms, tarm)
		}
		return out
	case *ast.ReturnStmt:
		var v tast.Expr
		if st.Value != nil {
			v = b.fillExpr(st.Value)
		}
		return &tast.Return{StmtBase: tast.StmtBase{Position: st.Position}, Value: v}
	case *ast.PassStmt:
		return &tast.Pass{StmtBase: tast.StmtBase{Position: st.Position}}
	case *ast.BreakStmt:
		return &tast.Break{StmtBase: tast.StmtBase{Position: st.Position}}
	case *ast.ContinueStmt:
		return &tast.Continue{StmtBase: tast.StmtBase{Position: st.Position}}
	case *ast.UnreachableStmt:
		return &tast.Unreachable{StmtBase: tast.StmtBase{Position: st.Position}}
	default:
		errors.Panic("scope-fill", "unhandled statement kind %T", s)
		return nil
	}
}

func (b *blockFiller) fillExpr(e ast.Expr) tast.Expr {
	base := tast.ExprBase{Position: e.Pos(), Typ: types.Undefined()}
	switch ex := e.(type) {
	case *ast.ObjectRef:
		return &tast.ObjectRef{ExprBase: base, Path: ex.Path}
	case *ast.IntLiteral:
		base.Typ = types.BasicType(types.Int)
		return &tast.Literal{ExprBase: base, Kind: tast.LitInt, Int: ex.Value}
	case *ast.FloatLiteral:
		base.Typ = types.BasicType(types.Float)
		return &tast.Literal{ExprBase: base, Kind: tast.LitFloat, Float: ex.Value}
	case *ast.BoolLiteral:
		base.Typ = types.BasicType(types.Bool)
		return &tast.Literal{ExprBase: base, Kind: tast.LitBool, Bool: ex.Value}
	case *ast.StringLiteral:
		base.Typ = types.BasicType(types.String)
		return &tast.Literal{ExprBase: base, Kind: tast.LitString, String: ex.Value}
	case *ast.ObjectInit:
		out := &tast.ObjectInit{ExprBase: base, StructType: types.Unresolved(ex.Type)}
		for _, f := range ex.Fields {
			out.Fields = append(out.Fields, tast.FieldValue{Name: f.Name, Value: b.fillExpr(f.Value)})
		}
		return out
	case *ast.ListLiteral:
		out := &tast.ListLiteral{ExprBase: base}
		for _, el := range ex.Elements {
			out.Elements = append(out.Elements, b.fillExpr(el))
		}
		return out
	case *ast.CallExpr:
		out := &tast.Call{ExprBase: base, Callee: b.fillExpr(ex.Callee)}
		for _, a := range ex.Args {
			out.Args = append(out.Args, b.fillExpr(a))
		}
		return out
	case *ast.GetAttr:
		return &tast.GetAttr{ExprBase: base, Base: b.fillExpr(ex.Base), Attr: ex.Attr}
	case *ast.GetIndex:
		return &tast.GetIndex{ExprBase: base, Base: b.fillExpr(ex.Base), Index: b.fillExpr(ex.Index)}
	case *ast.BinaryOp:
		return &tast.BinOp{ExprBase: base, Op: binOpKind(ex.Op), Left: b.fillExpr(ex.Left), Right: b.fillExpr(ex.Right)}
	case *ast.UnaryOp:
		return &tast.UnaryOp{ExprBase: base, Op: unaryOpKind(ex.Op), Operand: b.fillExpr(ex.Operand)}
	default:
		errors.Panic("scope-fill", "unhandled expression kind %T", e)
		return nil
	}
}
