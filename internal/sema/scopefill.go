package sema

import (
	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/token"
	"github.com/cwbudde/slangc/internal/types"
)

// ScopeFill is phase 1: walks the parsed AST, assigns a
// node-id to every declaration, builds the nested scope chain, and
// preserves every reference verbatim as ObjectRef/Unresolved.
type ScopeFill struct{}

func (*ScopeFill) Name() string { return "scope-fill" }

// defScopes records, per definition id, the scope local to that
// definition's body — the struct/enum/class/function scope owning its
// names. Case-arm and nested-block scopes are flattened into the owning
// function's scope: Slang has no block-scoped shadowing rule, so a
// single flat function scope resolves names identically.
type defScopes = map[uint64]*sym.Scope

func scopeOf(ctx *Context, id uint64) *sym.Scope {
	m, _ := ctx.scratch["defScopes"].(defScopes)
	if m == nil {
		m = defScopes{}
		ctx.scratch["defScopes"] = m
	}
	return m[id]
}

func setScope(ctx *Context, id uint64, s *sym.Scope) {
	m, _ := ctx.scratch["defScopes"].(defScopes)
	if m == nil {
		m = defScopes{}
		ctx.scratch["defScopes"] = m
	}
	m[id] = s
}

func (sf *ScopeFill) Run(prog *ast.Program, ctx *Context) error {
	ctx.Program.Name = prog.Name
	root := ctx.Program.Scope

	for _, imp := range prog.Imports {
		sf.bindImport(ctx, imp, root)
	}

	for _, d := range prog.Decls {
		sf.fillDecl(ctx, d, root)
	}
	return nil
}

func (sf *ScopeFill) bindImport(ctx *Context, imp *ast.ImportDecl, root *sym.Scope) {
	modSym, ok := ctx.Sym.ModuleScope.LookupLocal(imp.Module)
	if !ok {
		ctx.Bag.Add(errors.New(errors.UnresolvedName, imp.Position,
			"unknown module \""+imp.Module+"\"", ctx.Source, ctx.File))
		return
	}
	if len(imp.Names) == 0 {
		root.Define(imp.Module, modSym)
		return
	}
	for _, name := range imp.Names {
		s, ok := modSym.Module.LookupLocal(name)
		if !ok {
			ctx.Bag.Add(errors.New(errors.UnresolvedName, imp.Position,
				"module \""+imp.Module+"\" has no export \""+name+"\"", ctx.Source, ctx.File))
			continue
		}
		root.Define(name, s)
	}
}

func (sf *ScopeFill) fillDecl(ctx *Context, d ast.Decl, root *sym.Scope) {
	switch decl := d.(type) {
	case *ast.FuncDecl:
		def := sf.fillFunc(ctx, decl, root, nil)
		ctx.Program.AddDef(def)
		sf.defineOnce(ctx, root, decl.Name, &sym.Symbol{Kind: sym.SymFunction, Name: decl.Name, Def: def}, decl.Position)
	case *ast.StructDecl:
		def := sf.fillStruct(ctx, decl, root, nil)
		ctx.Program.AddDef(def)
		sf.defineOnce(ctx, root, decl.Name, &sym.Symbol{Kind: sym.SymType, Name: decl.Name, Type: types.TypeConstructor(types.User(types.UserStruct, def, nil))}, decl.Position)
	case *ast.EnumDecl:
		def := sf.fillEnum(ctx, decl, root, nil)
		ctx.Program.AddDef(def)
		sf.defineOnce(ctx, root, decl.Name, &sym.Symbol{Kind: sym.SymType, Name: decl.Name, Type: types.TypeConstructor(types.User(types.UserEnum, def, nil))}, decl.Position)
	case *ast.ClassDecl:
		def := sf.fillClass(ctx, decl, root)
		ctx.Program.AddDef(def)
		sf.defineOnce(ctx, root, decl.Name, &sym.Symbol{Kind: sym.SymType, Name: decl.Name, Type: types.TypeConstructor(types.User(types.UserClass, def, nil))}, decl.Position)
	case *ast.GenericDecl:
		switch inner := decl.Inner.(type) {
		case *ast.StructDecl:
			tparams := sf.fillTypeParams(ctx, inner.TypeParams)
			def := sf.fillStruct(ctx, inner, root, tparams)
			def.TypeParams = tparams
			ctx.Program.AddDef(def)
			sf.defineOnce(ctx, root, inner.Name, &sym.Symbol{Kind: sym.SymType, Name: inner.Name, Type: types.TypeConstructor(types.User(types.UserStruct, def, nil))}, inner.Position)
		case *ast.EnumDecl:
			tparams := sf.fillTypeParams(ctx, inner.TypeParams)
			def := sf.fillEnum(ctx, inner, root, tparams)
			def.TypeParams = tparams
			ctx.Program.AddDef(def)
			sf.defineOnce(ctx, root, inner.Name, &sym.Symbol{Kind: sym.SymType, Name: inner.Name, Type: types.TypeConstructor(types.User(types.UserEnum, def, nil))}, inner.Position)
		}
	}
}

func (sf *ScopeFill) defineOnce(ctx *Context, scope *sym.Scope, name string, s *sym.Symbol, pos token.Position) {
	if !scope.Define(name, s) {
		ctx.Bag.Add(errors.New(errors.DuplicateDeclaration, pos, "\""+name+"\" is already declared in this scope", ctx.Source, ctx.File))
	}
}

func (sf *ScopeFill) fillTypeParams(ctx *Context, tps []*ast.TypeParam) []*tast.TypeParamDef {
	out := make([]*tast.TypeParamDef, 0, len(tps))
	for _, tp := range tps {
		out = append(out, &tast.TypeParamDef{ID: ctx.Sym.NextID(), Name: tp.Name})
	}
	return out
}

func (sf *ScopeFill) fillStruct(ctx *Context, decl *ast.StructDecl, outer *sym.Scope, tparams []*tast.TypeParamDef) *tast.Definition {
	id := ctx.Sym.NextID()
	bodyScope := sym.NewScope(outer)
	for _, tp := range tparams {
		bodyScope.Define(tp.Name, &sym.Symbol{Kind: sym.SymType, Name: tp.Name, Type: types.TypeVarOf(tp)})
	}
	fields := make([]tast.FieldDef, 0, len(decl.Fields))
	for _, f := range decl.Fields {
		fields = append(fields, tast.FieldDef{Name: f.Name, Type: types.Unresolved(f.Type)})
	}
	def := &tast.Definition{ID: id, Name: decl.Name, Kind: tast.DefStruct, Struct: &tast.StructDef{Fields: fields}}
	setScope(ctx, id, bodyScope)
	return def
}

func (sf *ScopeFill) fillEnum(ctx *Context, decl *ast.EnumDecl, outer *sym.Scope, tparams []*tast.TypeParamDef) *tast.Definition {
	id := ctx.Sym.NextID()
	bodyScope := sym.NewScope(outer)
	for _, tp := range tparams {
		bodyScope.Define(tp.Name, &sym.Symbol{Kind: sym.SymType, Name: tp.Name, Type: types.TypeVarOf(tp)})
	}
	def := &tast.Definition{ID: id, Name: decl.Name, Kind: tast.DefEnum, Enum: &tast.EnumDef{}}
	for i, v := range decl.Variants {
		payloads := make([]types.Type, 0, len(v.PayloadTypes))
		for _, pt := range v.PayloadTypes {
			payloads = append(payloads, types.Unresolved(pt))
		}
		variant := &tast.EnumVariant{ID: ctx.Sym.NextID(), Name: v.Name, PayloadTypes: payloads, Parent: def}
		def.Enum.Variants = append(def.Enum.Variants, variant)
		if !bodyScope.Define(v.Name, &sym.Symbol{Kind: sym.SymEnumVariant, Name: v.Name, EnumDef: def, VariantIndex: i, PayloadArity: len(payloads)}) {
			ctx.Bag.Add(errors.New(errors.DuplicateDeclaration, v.Position, "variant \""+v.Name+"\" is already declared", ctx.Source, ctx.File))
		}
	}
	setScope(ctx, id, bodyScope)
	return def
}

func (sf *ScopeFill) fillClass(ctx *Context, decl *ast.ClassDecl, outer *sym.Scope) *tast.Definition {
	id := ctx.Sym.NextID()
	bodyScope := sym.NewScope(outer)
	def := &tast.Definition{ID: id, Name: decl.Name, Kind: tast.DefClass, Class: &tast.ClassDef{}}
	initFiller := &blockFiller{ctx: ctx, scope: bodyScope, fn: &tast.FuncDef{}}
	for _, f := range decl.Fields {
		fd := tast.FieldDef{Name: f.Name, Type: types.Unresolved(f.Type)}
		if f.Init != nil {
			fd.Init = initFiller.fillExpr(f.Init)
		}
		def.Class.Fields = append(def.Class.Fields, fd)
	}
	setScope(ctx, id, bodyScope)
	for _, m := range decl.Methods {
		mdef := sf.fillFunc(ctx, m, bodyScope, def)
		def.Class.Methods = append(def.Class.Methods, mdef)
		if !bodyScope.Define(m.Name, &sym.Symbol{Kind: sym.SymFunction, Name: m.Name, Def: mdef}) {
			ctx.Bag.Add(errors.New(errors.DuplicateDeclaration, m.Position, "method \""+m.Name+"\" is already declared", ctx.Source, ctx.File))
		}
	}
	return def
}

func (sf *ScopeFill) fillFunc(ctx *Context, decl *ast.FuncDecl, outer *sym.Scope, receiver *tast.Definition) *tast.Definition {
	id := ctx.Sym.NextID()
	fnScope := sym.NewScope(outer)
	funcDef := &tast.FuncDef{}
	def := &tast.Definition{ID: id, Name: decl.Name, Kind: tast.DefFunction, Func: funcDef}

	offset := 0
	if receiver != nil {
		funcDef.ReceiverOf = receiver
		// A method body references the receiver as `this`, same as any
		// other name (the parser emits an ObjectRef for the `this`
		// keyword) — so `this` needs a slot 0 parameter and scope entry
		// here, before class lowering (phase 6) makes it an explicit
		// leading parameter of the rewritten top-level function.
		thisType := types.User(types.UserClass, receiver, nil)
		thisLocal := &tast.Local{ID: ctx.Sym.NextID(), Name: "this", Type: thisType, Index: 0, IsParam: true}
		funcDef.Params = append(funcDef.Params, thisLocal)
		fnScope.Define("this", &sym.Symbol{Kind: sym.SymParameter, Name: "this", VarType: thisType, Index: 0})
		offset = 1
	}

	for i, p := range decl.Params {
		idx := i + offset
		local := &tast.Local{ID: ctx.Sym.NextID(), Name: p.Name, Type: types.Unresolved(p.Type), Index: idx, IsParam: true}
		funcDef.Params = append(funcDef.Params, local)
		if !fnScope.Define(p.Name, &sym.Symbol{Kind: sym.SymParameter, Name: p.Name, VarType: local.Type, Index: idx}) {
			ctx.Bag.Add(errors.New(errors.DuplicateDeclaration, p.Position, "parameter \""+p.Name+"\" is already declared", ctx.Source, ctx.File))
		}
	}
	if decl.Result != nil {
		funcDef.Result = types.Unresolved(decl.Result)
	} else {
		funcDef.Result = types.Void()
	}

	setScope(ctx, id, fnScope)
	b := &blockFiller{ctx: ctx, scope: fnScope, fn: funcDef}
	if decl.Body != nil {
		funcDef.Body = b.fillStmts(decl.Body.Stmts)
	}
	return def
}
