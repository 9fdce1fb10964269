// Package llvmgen is the last compiler phase: it walks a compiled
// bytecode.Program and builds an LLVM module with github.com/llir/llvm's
// typed IR builder — constructing *ir.Module, *ir.Func and *ir.Block
// values directly rather than formatting LLVM text by hand.
package llvmgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/cwbudde/slangc/internal/bytecode"
)

// Emitter lowers one bytecode.Program into one LLVM module.
type Emitter struct {
	mod *ir.Module

	typeDefs  []bytecode.TypeDef
	composite map[int]types.Type

	funcs map[string]*ir.Func

	strings map[string]*ir.Global

	mallocFn     *ir.Func
	strConcatFn  *ir.Func
	strCompareFn *ir.Func
}

// Emit compiles p into a ready-to-print LLVM module.
func Emit(p *bytecode.Program) *ir.Module {
	e := &Emitter{
		mod:       ir.NewModule(),
		typeDefs:  p.Types,
		composite: map[int]types.Type{},
		funcs:     map[string]*ir.Func{},
		strings:   map[string]*ir.Global{},
	}
	e.mod.SourceFilename = p.Name + ".slang"

	e.declareRuntime()
	for _, imp := range p.Imports {
		e.declareImport(imp)
	}
	for i := range p.Functions {
		e.declareFunction(&p.Functions[i])
	}
	for i := range p.Functions {
		e.emitFunction(&p.Functions[i])
	}
	return e.mod
}

// declareRuntime declares the small fixed ABI every emitted module
// links against: heap allocation and the two string operations LLVM
// has no native instruction for.
func (e *Emitter) declareRuntime() {
	i8ptr := types.NewPointer(types.I8)
	e.mallocFn = e.mod.NewFunc("malloc", i8ptr, ir.NewParam("size", types.I64))
	e.strConcatFn = e.mod.NewFunc("rt_str_concat", i8ptr, ir.NewParam("a", i8ptr), ir.NewParam("b", i8ptr))
	e.strCompareFn = e.mod.NewFunc("rt_str_compare", types.I1, ir.NewParam("a", i8ptr), ir.NewParam("b", i8ptr))
}

func (e *Emitter) declareImport(imp bytecode.Import) {
	if _, ok := e.funcs[imp.Name]; ok {
		return
	}
	sig := imp.Sig
	fn := e.mod.NewFunc(imp.Name, e.llType(*sig.Result))
	for i, p := range sig.Params {
		fn.Params = append(fn.Params, ir.NewParam(fmt.Sprintf("a%d", i), e.llType(p)))
	}
	e.funcs[imp.Name] = fn
}

func (e *Emitter) declareFunction(fn *bytecode.Function) {
	ret := types.Type(types.Void)
	if fn.Result != nil {
		ret = e.llType(*fn.Result)
	}
	llvmFn := e.mod.NewFunc(fn.Name, ret)
	for _, p := range fn.Params {
		llvmFn.Params = append(llvmFn.Params, ir.NewParam(p.Name, e.llType(p.Type)))
	}
	e.funcs[fn.Name] = llvmFn
}

// llType maps a bytecode.Type to its LLVM representation. Bool, Int and
// Float are fixed-width scalars; String and every composite are
// pointers, matching the heap-object model Malloc/GetAttr/GetElement
// assume.
func (e *Emitter) llType(t bytecode.Type) types.Type {
	switch t.Kind {
	case bytecode.KindBool:
		return types.I1
	case bytecode.KindInt:
		return types.I64
	case bytecode.KindFloat:
		return types.Double
	case bytecode.KindString:
		return types.NewPointer(types.I8)
	case bytecode.KindVoid:
		return types.Void
	case bytecode.KindPtr:
		return types.NewPointer(e.llType(*t.Elem))
	case bytecode.KindComposite:
		return e.compositeType(t.Composite)
	case bytecode.KindFunction:
		params := make([]types.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = e.llType(p)
		}
		return types.NewPointer(types.NewFunc(e.llType(*t.Result), params...))
	}
	return types.Void
}

// compositeType resolves index into the Types table to an LLVM type,
// memoizing before recursing into field types so a struct that refers
// to itself through a pointer field resolves instead of looping.
func (e *Emitter) compositeType(index int) types.Type {
	if t, ok := e.composite[index]; ok {
		return t
	}
	td := e.typeDefs[index]

	if td.Kind == bytecode.TypeDefArray {
		arr := types.NewArray(uint64(td.ArrayLen), e.llType(td.ElemType))
		e.composite[index] = arr
		return arr
	}

	st := types.NewStruct()
	e.composite[index] = st
	fields := make([]types.Type, len(td.Fields))
	for i, f := range td.Fields {
		fields[i] = e.llType(f.Type)
	}
	st.Fields = fields
	return st
}

// sizeofComposite is a conservative allocation size: every field is
// counted as a full 8-byte machine word (the widest scalar or a
// pointer), so Malloc never under-allocates even though it overshoots
// for bool/i1 fields.
func (e *Emitter) sizeofComposite(index int) int64 {
	td := e.typeDefs[index]
	if td.Kind == bytecode.TypeDefArray {
		return int64(td.ArrayLen) * 8
	}
	return int64(len(td.Fields)) * 8
}
