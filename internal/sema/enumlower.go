package sema

import (
	"fmt"

	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/types"
)

// EnumLower is phase 7: rewrites each enum into a tagged
// union record, every EnumLiteral into the matching tuple/union
// construction, and every Case statement into a dense integer Switch
// over the tag field.
type EnumLower struct{}

func (*EnumLower) Name() string { return "enum-lowering" }

type enumInfo struct {
	taggedType        types.Type
	unionType         types.Type
	variantIndex      map[string]int
	variantArity      map[string]int
	variantChoiceType map[string]types.Type
}

func (el *EnumLower) Run(prog *ast.Program, ctx *Context) error {
	var enumDefs []*tast.Definition
	for _, d := range ctx.Program.Defs {
		if d.Kind == tast.DefEnum {
			enumDefs = append(enumDefs, d)
		}
	}
	// A generic enum template lives in Generics, not Defs (tast.go's
	// AddDef), but it is the same shared Definition every instantiation's
	// Type.Def points at under erasure — it needs lowering too, or a Case
	// over an instantiated generic enum finds no enumInfo and panics.
	for _, d := range ctx.Program.Generics {
		if d.Kind == tast.DefEnum {
			enumDefs = append(enumDefs, d)
		}
	}

	infos := map[*tast.Definition]*enumInfo{}
	for _, def := range enumDefs {
		infos[def] = el.lowerEnum(ctx, def)
	}

	for _, d := range ctx.Program.Defs {
		if d.Kind == tast.DefFunction {
			d.Func.Body = el.rewriteStmts(ctx, d.Func, d.Func.Body, infos)
		}
	}
	return nil
}

func (el *EnumLower) lowerEnum(ctx *Context, def *tast.Definition) *enumInfo {
	choices := make([]tast.FieldDef, len(def.Enum.Variants))
	variantIndex := map[string]int{}
	variantArity := map[string]int{}
	variantChoiceType := map[string]types.Type{}

	for i, v := range def.Enum.Variants {
		variantIndex[v.Name] = i
		variantArity[v.Name] = len(v.PayloadTypes)

		var choiceType types.Type
		switch len(v.PayloadTypes) {
		case 0:
			choiceType = types.BasicType(types.Int)
		case 1:
			choiceType = v.PayloadTypes[0]
		default:
			fields := make([]tast.FieldDef, len(v.PayloadTypes))
			for j, pt := range v.PayloadTypes {
				fields[j] = tast.FieldDef{Name: fmt.Sprintf("f_%d", j), Type: pt}
			}
			dataDef := &tast.Definition{
				ID: ctx.Sym.NextID(), Name: def.Name + "_" + v.Name + "_Data",
				Kind: tast.DefStruct, Struct: &tast.StructDef{Fields: fields},
				TypeParams: def.TypeParams,
			}
			ctx.Program.AddDef(dataDef)
			choiceType = types.User(types.UserStruct, dataDef, nil)
		}
		choices[i] = tast.FieldDef{Name: v.Name, Type: choiceType}
		variantChoiceType[v.Name] = choiceType
	}

	unionDef := &tast.Definition{
		ID: ctx.Sym.NextID(), Name: def.Name + "_Data",
		Kind: tast.DefUnion, Union: &tast.UnionDef{Choices: choices},
		TypeParams: def.TypeParams,
	}
	ctx.Program.AddDef(unionDef)
	unionType := types.User(types.UserUnion, unionDef, nil)

	structType := types.User(types.UserStruct, def, nil)
	def.Enum.TaggedType = structType
	def.Enum.DataUnion = unionDef
	def.Struct = &tast.StructDef{Fields: []tast.FieldDef{
		{Name: "tag", Type: types.BasicType(types.Int)},
		{Name: "data", Type: unionType},
	}}
	def.Kind = tast.DefStruct

	return &enumInfo{
		taggedType: structType, unionType: unionType,
		variantIndex: variantIndex, variantArity: variantArity, variantChoiceType: variantChoiceType,
	}
}

func enumOf(t types.Type, infos map[*tast.Definition]*enumInfo) (*tast.Definition, *enumInfo) {
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

func localSymbol(l *tast.Local) *sym.Symbol {
	kind := sym.SymLocal
	if l.IsParam {
		kind = sym.SymParameter
	}
	return &sym.Symbol{Kind: kind, Name: l.Name, VarType: l.Type, Index: l.Index}
}

func (el *EnumLower) rewriteStmts(ctx *Context, fn *tast.FuncDef, stmts []tast.Stmt, infos map[*tast.Definition]*enumInfo) []tast.Stmt {
	out := make([]tast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, el.rewriteStmt(ctx, fn, s, infos)...)
	}
	return out
}

// rewriteStmt returns a slice because a single Case statement expands
// into two statements: the fresh scrutinee binding and the Switch.
func (el *EnumLower) rewriteStmt(ctx *Context, fn *tast.FuncDef, s tast.Stmt, infos map[*tast.Definition]*enumInfo) []tast.Stmt {
	switch st := s.(type) {
	case *tast.LetStmt:
		st.Value = el.rewriteExpr(ctx, st.Value, infos)
	case *tast.AssignStmt:
		st.Target = el.rewriteExpr(ctx, st.Target, infos)
		st.Value = el.rewriteExpr(ctx, st.Value, infos)
	case *tast.ExprStmt:
		st.X = el.rewriteExpr(ctx, st.X, infos)
	case *tast.Compound:
		st.Stmts = el.rewriteStmts(ctx, fn, st.Stmts, infos)
	case *tast.If:
		st.Cond = el.rewriteExpr(ctx, st.Cond, infos)
		st.Then = el.rewriteStmts(ctx, fn, st.Then, infos)
		st.Else = el.rewriteStmts(ctx, fn, st.Else, infos)
	case *tast.While:
		st.Cond = el.rewriteExpr(ctx, st.Cond, infos)
		st.Body = el.rewriteStmts(ctx, fn, st.Body, infos)
	case *tast.Loop:
		st.Body = el.rewriteStmts(ctx, fn, st.Body, infos)
	case *tast.For:
		st.Iterand = el.rewriteExpr(ctx, st.Iterand, infos)
		st.Body = el.rewriteStmts(ctx, fn, st.Body, infos)
	case *tast.Case:
		return el.rewriteCase(ctx, fn, st, infos)
	case *tast.Return:
		if st.Value != nil {
			st.Value = el.rewriteExpr(ctx, st.Value, infos)
		}
	}
	return []tast.Stmt{s}
}

// rewriteCase implements step 5.
func (el *EnumLower) rewriteCase(ctx *Context, fn *tast.FuncDef, st *tast.Case, infos map[*tast.Definition]*enumInfo) []tast.Stmt {
	st.Scrutinee = el.rewriteExpr(ctx, st.Scrutinee, infos)
	_, info := enumOf(st.Scrutinee.ExprType(), infos)
	if info == nil {
		errors.Panic("enum-lowering", "case scrutinee is not an enum type")
	}

	tLocal := &tast.Local{
		ID: ctx.Sym.NextID(), Name: fmt.Sprintf("$scrutinee%d", ctx.Sym.NextID()),
		Type: info.taggedType, Index: len(fn.Params) + len(fn.Locals),
	}
	fn.Locals = append(fn.Locals, tLocal)
	bind := &tast.LetStmt{StmtBase: st.StmtBase, Local: tLocal, Value: st.Scrutinee}

	loadT := func(t types.Type) *tast.LoadSymbol {
		return &tast.LoadSymbol{ExprBase: tast.ExprBase{Position: st.Position, Typ: t}, Sym: localSymbol(tLocal)}
	}
	tagExpr := &tast.GetAttr{
		ExprBase: tast.ExprBase{Position: st.Position, Typ: types.BasicType(types.Int)},
		Base:     loadT(info.taggedType), Attr: "tag", Index: 0,
	}

	var arms []*tast.SwitchArm
	for _, arm := range st.Arms {
		idx, ok := info.variantIndex[arm.Variant]
		if !ok {
			errors.Panic("enum-lowering", "case arm names unknown variant %q", arm.Variant)
		}
		dataBase := &tast.GetAttr{
			ExprBase: tast.ExprBase{Position: st.Position, Typ: info.unionType},
			Base:     loadT(info.taggedType), Attr: "data", Index: 1,
		}
		choiceType := info.variantChoiceType[arm.Variant]
		choiceGet := &tast.GetAttr{
			ExprBase: tast.ExprBase{Position: st.Position, Typ: choiceType},
			Base:     dataBase, Attr: arm.Variant, Index: idx,
		}

		var body []tast.Stmt
		switch info.variantArity[arm.Variant] {
		case 0:
			// no payload to unpack
		case 1:
			if len(arm.Bindings) == 1 {
				body = append(body, &tast.LetStmt{StmtBase: st.StmtBase, Local: arm.Bindings[0], Value: choiceGet})
			}
		default:
			for j, b := range arm.Bindings {
				fieldGet := &tast.GetAttr{
					ExprBase: tast.ExprBase{Position: st.Position, Typ: b.Type},
					Base:     choiceGet, Attr: fmt.Sprintf("f_%d", j), Index: j,
				}
				body = append(body, &tast.LetStmt{StmtBase: st.StmtBase, Local: b, Value: fieldGet})
			}
		}
		body = append(body, arm.Body...)
		body = el.rewriteStmts(ctx, fn, body, infos)
		arms = append(arms, &tast.SwitchArm{Value: int64(idx), Body: body})
	}

	sw := &tast.Switch{
		StmtBase: st.StmtBase,
		Tag:      tagExpr,
		Arms:     arms,
		Default:  []tast.Stmt{&tast.Unreachable{StmtBase: st.StmtBase}},
	}
	return []tast.Stmt{bind, sw}
}

// rewriteExpr replaces every EnumLiteral with its tagged tuple/union
// construction and recurses through every other
// expression kind unchanged.
func (el *EnumLower) rewriteExpr(ctx *Context, e tast.Expr, infos map[*tast.Definition]*enumInfo) tast.Expr {
	switch ex := e.(type) {
	case *tast.EnumLiteral:
		for i := range ex.Args {
			ex.Args[i] = el.rewriteExpr(ctx, ex.Args[i], infos)
		}
		_, info := enumOf(ex.EnumType, infos)
		if info == nil {
			errors.Panic("enum-lowering", "enum literal for variant %q has no lowered enum", ex.Variant)
		}
		idx := info.variantIndex[ex.Variant]

		var payload tast.Expr
		switch info.variantArity[ex.Variant] {
		case 0:
			payload = &tast.Literal{ExprBase: tast.ExprBase{Position: ex.Position, Typ: types.BasicType(types.Int)}, Kind: tast.LitInt, Int: 0}
		case 1:
			payload = ex.Args[0]
		default:
			choiceType := info.variantChoiceType[ex.Variant]
			payload = &tast.TupleLiteral{ExprBase: tast.ExprBase{Position: ex.Position, Typ: choiceType}, StructType: choiceType, Values: ex.Args}
		}
		union := &tast.UnionLiteral{
			ExprBase: tast.ExprBase{Position: ex.Position, Typ: info.unionType},
			UnionType: info.unionType, Choice: ex.Variant, Payload: payload,
		}
		tagLit := &tast.Literal{ExprBase: tast.ExprBase{Position: ex.Position, Typ: types.BasicType(types.Int)}, Kind: tast.LitInt, Int: int64(idx)}
		return &tast.TupleLiteral{ExprBase: ex.ExprBase, StructType: info.taggedType, Values: []tast.Expr{tagLit, union}}

	case *tast.Call:
		ex.Callee = el.rewriteExpr(ctx, ex.Callee, infos)
		for i := range ex.Args {
			ex.Args[i] = el.rewriteExpr(ctx, ex.Args[i], infos)
		}
		return ex
	case *tast.TupleLiteral:
		for i := range ex.Values {
			ex.Values[i] = el.rewriteExpr(ctx, ex.Values[i], infos)
		}
		return ex
	case *tast.ListLiteral:
		for i := range ex.Elements {
			ex.Elements[i] = el.rewriteExpr(ctx, ex.Elements[i], infos)
		}
		return ex
	case *tast.GetAttr:
		ex.Base = el.rewriteExpr(ctx, ex.Base, infos)
		return ex
	case *tast.GetIndex:
		ex.Base = el.rewriteExpr(ctx, ex.Base, infos)
		ex.Index = el.rewriteExpr(ctx, ex.Index, infos)
		return ex
	case *tast.BinOp:
		ex.Left = el.rewriteExpr(ctx, ex.Left, infos)
		ex.Right = el.rewriteExpr(ctx, ex.Right, infos)
		return ex
	case *tast.UnaryOp:
		ex.Operand = el.rewriteExpr(ctx, ex.Operand, infos)
		return ex
	case *tast.TypeCast:
		ex.Operand = el.rewriteExpr(ctx, ex.Operand, infos)
		return ex
	default:
		return e
	}
}
