package interp

import (
	"testing"

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

func TestRunArithmeticFunction(t *testing.T) {
	prog := compileToBytecode(t, "arith", `
fn add(a: int, b: int) -> int: {
	return a + b;
}
`)
	result, err := New(prog).Run("add", int64(2), int64(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != int64(5) {
		t.Fatalf("add(2, 3) = %v, want 5", result)
	}
}

func TestRunConditionalBranch(t *testing.T) {
	prog := compileToBytecode(t, "abs", `
fn abs(x: int) -> int: {
	if x < 0 {
		return 0 - x;
	}
	return x;
}
`)
	in := New(prog)

	result, err := in.Run("abs", int64(-7))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != int64(7) {
		t.Fatalf("abs(-7) = %v, want 7", result)
	}

	result, err = in.Run("abs", int64(7))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != int64(7) {
		t.Fatalf("abs(7) = %v, want 7", result)
	}
}

func TestRunStructFieldAccess(t *testing.T) {
	prog := compileToBytecode(t, "point", `
struct Point:
	x: int
	y: int

fn sumCoords(a: int, b: int) -> int: {
	let p: Point = Point{x = a, y = b};
	return p.x + p.y;
}
`)
	result, err := New(prog).Run("sumCoords", int64(4), int64(9))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != int64(13) {
		t.Fatalf("sumCoords(4, 9) = %v, want 13", result)
	}
}

func TestRunWhileLoopAccumulates(t *testing.T) {
	prog := compileToBytecode(t, "loop", `
fn sumTo(n: int) -> int: {
	let total: int = 0;
	let i: int = 0;
	while i < n {
		total = total + i;
		i = i + 1;
	}
	return total;
}
`)
	result, err := New(prog).Run("sumTo", int64(5))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != int64(10) {
		t.Fatalf("sumTo(5) = %v, want 10", result)
	}
}

func TestRunArrayAllocationAndIndex(t *testing.T) {
	prog := compileToBytecode(t, "array", `
fn second() -> int: {
	let xs = [10, 20, 30];
	return xs[1];
}
`)
	result, err := New(prog).Run("second")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != int64(20) {
		t.Fatalf("second() = %v, want 20", result)
	}
}

func TestRunUndefinedFunctionErrors(t *testing.T) {
	prog := compileToBytecode(t, "empty", `
fn noop() -> int: {
	return 0;
}
`)
	if _, err := New(prog).Run("missing"); err == nil {
		t.Fatal("expected an error calling an undefined function")
	}
}
