// Package sema implements the nine semantic phases that turn a parsed
// internal/ast.Program into a lowered internal/tast.Program: scope-fill,
// name-binding, type-evaluation, struct-literal canonicalization,
// type-checking, class lowering, enum lowering, for-loop lowering, and
// generic erasure. Each phase is a Pass coordinated by a PassManager
// that runs passes in order and stops at the first one leaving
// unrecovered errors; the shared mutable state lives in a Context built
// around internal/sym.Context and internal/tast.Program.
package sema

import (
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/slangc/internal/ast"
	"github.com/cwbudde/slangc/internal/errors"
	"github.com/cwbudde/slangc/internal/sym"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/types"
)

// Context is the shared state threaded through every phase.
type Context struct {
	Sym     *sym.Context
	Program *tast.Program
	Bag     *errors.Bag

	File   string
	Source string
	Log    *zap.Logger

	// scratch holds ad-hoc per-run state phases stash for a later phase
	// to pick up — e.g. scope-fill records each definition's body scope
	// under "defScopes" for the phases that resolve names after it.
	scratch map[string]any
}

// basicTypeNames are the primitive type names every Scope resolves
// without a source-level declaration.
var basicTypeNames = map[string]types.BasicKind{
	"bool":   types.Bool,
	"int":    types.Int,
	"float":  types.Float,
	"string": types.String,
}

// preludeScope builds the root scope every Program's top-level scope is
// nested inside, seeded with the primitive type names.
func preludeScope() *sym.Scope {
	s := sym.NewScope(nil)
	for name, kind := range basicTypeNames {
		s.Define(name, &sym.Symbol{Kind: sym.SymType, Name: name, Type: types.BasicType(kind)})
	}
	return s
}

// NewContext creates a Context over a freshly parsed module.
func NewContext(file, source string, log *zap.Logger) *Context {
	return &Context{
		Sym:     sym.NewContext(),
		Program: &tast.Program{Scope: sym.NewScope(preludeScope())},
		Bag:     &errors.Bag{},
		File:    file,
		Source:  source,
		Log:     log,
		scratch: map[string]any{},
	}
}

// Pass is a single semantic phase.
type Pass interface {
	// Name identifies the phase for logging.
	Name() string
	// Run executes the phase over prog, reading and mutating ctx.Program
	// in place. Diagnostics go into
	// ctx.Bag; Run returns an error only for a fatal driver-level failure.
	Run(prog *ast.Program, ctx *Context) error
}

// PassManager runs passes in order, stopping after the first one that
// leaves the Bag with errors.
type PassManager struct {
	passes []Pass
}

// NewPassManager builds a manager running every phase in order.
func NewPassManager(passes ...Pass) *PassManager {
	return &PassManager{passes: passes}
}

// DefaultPasses returns phases 1-9 in pipeline order.
func DefaultPasses() []Pass {
	return []Pass{
		&ScopeFill{},
		&NameBind{},
		&TypeEval{},
		&StructLit{},
		&TypeCheck{},
		&ClassLower{},
		&EnumLower{},
		&ForLower{},
		&Erasure{},
	}
}

// RunAll runs every registered pass against prog, stopping at the first
// one that reports any error-severity diagnostic.
func (pm *PassManager) RunAll(prog *ast.Program, ctx *Context) error {
	for _, pass := range pm.passes {
		start := time.Now()
		if err := pass.Run(prog, ctx); err != nil {
			return err
		}
		if ctx.Log != nil {
			ctx.Log.Info("phase complete",
				zap.String("phase", pass.Name()),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("diagnostics", len(ctx.Bag.Diagnostics())),
			)
		}
		if ctx.Bag.HasErrors() {
			break
		}
	}
	return nil
}
