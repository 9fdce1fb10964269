package llvmgen

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"go.uber.org/zap"

	"github.com/cwbudde/slangc/internal/bytecode"
	"github.com/cwbudde/slangc/internal/parser"
	"github.com/cwbudde/slangc/internal/sema"
)

func compileToBytecode(t *testing.T, name, src string) *bytecode.Program {
	t.Helper()
	p := parser.New(src)
	astProg := p.ParseProgram(name)
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	ctx := sema.NewContext(name+".sl", src, zap.NewNop())
	pm := sema.NewPassManager(sema.DefaultPasses()...)
	if err := pm.RunAll(astProg, ctx); err != nil {
		t.Fatalf("pass manager error: %v", err)
	}
	if ctx.Bag.HasErrors() {
		t.Fatalf("sema errors: %s", ctx.Bag.MultiError(false))
	}

	return bytecode.Compile(name, ctx.Program)
}

func TestEmitArithmeticFunction(t *testing.T) {
	prog := compileToBytecode(t, "arith", `
fn add(a: int, b: int) -> int: {
	return a + b;
}
`)
	mod := Emit(prog)
	snaps.MatchSnapshot(t, "arith_ir", mod.String())
}

func TestEmitStructAllocation(t *testing.T) {
	prog := compileToBytecode(t, "struct", `
struct Point:
	x: int
	y: int

fn makePoint(a: int, b: int) -> Point: {
	return Point{x = a, y = b};
}
`)
	mod := Emit(prog)
	snaps.MatchSnapshot(t, "struct_ir", mod.String())
}

func TestEmitConditionalBranch(t *testing.T) {
	prog := compileToBytecode(t, "cond", `
fn abs(x: int) -> int: {
	if x < 0 {
		return 0 - x;
	}
	return x;
}
`)
	mod := Emit(prog)
	snaps.MatchSnapshot(t, "cond_ir", mod.String())
}

func TestEmitArrayAllocationAndIndex(t *testing.T) {
	prog := compileToBytecode(t, "array", `
fn second() -> int: {
	let xs = [10, 20, 30];
	return xs[1];
}
`)
	mod := Emit(prog)
	snaps.MatchSnapshot(t, "array_ir", mod.String())
}

func TestEmitIsStableAcrossRuns(t *testing.T) {
	prog := compileToBytecode(t, "rt", `
fn square(x: int) -> int: {
	return x * x;
}
`)
	first := Emit(prog).String()
	second := Emit(prog).String()
	if first != second {
		t.Fatalf("emitting the same Program twice produced different IR text:\n%s\n---\n%s", first, second)
	}
}
