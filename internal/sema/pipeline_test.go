package sema

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/cwbudde/slangc/internal/parser"
	"github.com/cwbudde/slangc/internal/tast"
	"github.com/cwbudde/slangc/internal/types"
)

// runPipeline parses src, runs every default phase over it, and returns
// the resulting Context for assertions.
func runPipeline(t *testing.T, src string) *Context {
	t.Helper()
	p := parser.New(src)
	prog := p.ParseProgram("test")
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}

	ctx := NewContext("test.sl", src, zap.NewNop())
	pm := NewPassManager(DefaultPasses()...)
	if err := pm.RunAll(prog, ctx); err != nil {
		t.Fatalf("pass manager error: %v", err)
	}
	return ctx
}

func expectNoDiagnostics(t *testing.T, src string) *Context {
	t.Helper()
	ctx := runPipeline(t, src)
	if ctx.Bag.HasErrors() {
		t.Fatalf("expected no errors, got: %s", ctx.Bag.MultiError(true))
	}
	return ctx
}

func expectDiagnostic(t *testing.T, src, substr string) {
	t.Helper()
	ctx := runPipeline(t, src)
	if !ctx.Bag.HasErrors() {
		t.Fatalf("expected an error containing %q, got none", substr)
	}
	msg := ctx.Bag.MultiError(true)
	if !strings.Contains(msg, substr) {
		t.Fatalf("expected an error containing %q, got: %s", substr, msg)
	}
}

func TestFunctionArithmeticLowersCleanly(t *testing.T) {
	expectNoDiagnostics(t, `
fn add(a: int, b: int) -> int: {
	return a + b;
}
`)
}

func TestStructLiteralCanonicalizesNamedFields(t *testing.T) {
	ctx := expectNoDiagnostics(t, `
struct Point:
	x: int
	y: int

fn origin() -> Point: {
	return Point{y = 0, x = 0};
}
`)
	if len(ctx.Program.Defs) == 0 {
		t.Fatal("expected at least one lowered definition")
	}
	origin := ctx.Program.FindByName("origin")
	if origin == nil || origin.Func == nil || len(origin.Func.Body) == 0 {
		t.Fatal("expected a lowered origin function with a body")
	}
	ret, ok := origin.Func.Body[0].(*tast.Return)
	if !ok {
		t.Fatalf("expected origin's first statement to be a return, got %T", origin.Func.Body[0])
	}
	if tup, ok := ret.Value.(*tast.TupleLiteral); !ok || len(tup.Values) != 2 {
		t.Fatalf("expected Point{y = 0, x = 0} to become a two-slot positional tuple, got %T", ret.Value)
	}
}

func TestClassLowersToStructPlusConstructor(t *testing.T) {
	ctx := expectNoDiagnostics(t, `
class Counter:
	count: int = 0

	fn increment() -> int: {
		return this.count + 1;
	}
`)
	if len(ctx.Program.Defs) < 2 {
		t.Fatalf("expected class lowering to synthesize multiple top-level definitions, got %d", len(ctx.Program.Defs))
	}
}

func TestEnumLowersToTaggedUnion(t *testing.T) {
	expectNoDiagnostics(t, `
enum Option:
	Some(int)
	None

fn unwrapOr(o: Option, fallback: int) -> int: {
	case o {
		Some(v): { return v; }
		None: { return fallback; }
	}
}
`)
}

func TestForLowersOverArray(t *testing.T) {
	expectNoDiagnostics(t, `
fn sum() -> int: {
	let total: int = 0;
	for x in [1, 2, 3] {
		total = total + x;
	}
	return total;
}
`)
}

func TestGenericEnumLowersAndErasesPayload(t *testing.T) {
	expectNoDiagnostics(t, `
struct Point:
	x: int
	y: int

enum Option[T]:
	Some(T)
	None

fn unwrap(o: Option[Point], fallback: Point) -> Point: {
	case o {
		Some(v): { return v; }
		None: { return fallback; }
	}
}
`)
}

func TestGenericStructErasesTypeVarFields(t *testing.T) {
	expectNoDiagnostics(t, `
struct Point:
	x: int
	y: int

struct Box[T]:
	value: T

fn unwrap(b: Box[Point]) -> Point: {
	return b.value;
}
`)
}

func TestGenericArgumentMustBeHeapType(t *testing.T) {
	expectDiagnostic(t, `
struct Box[T]:
	value: T

fn unbox(b: Box[int]) -> int: {
	return b.value;
}
`, "heap type")
}

func TestUnresolvedNameIsDiagnosed(t *testing.T) {
	expectDiagnostic(t, `
fn broken() -> int: {
	return missing;
}
`, "unresolved")
}

func TestDivisionAlwaysPromotesToFloat(t *testing.T) {
	ctx := expectNoDiagnostics(t, `
fn half(a: int, b: int) -> float: {
	return a / b;
}
`)
	half := ctx.Program.FindByName("half")
	if half == nil || half.Func == nil || len(half.Func.Body) == 0 {
		t.Fatal("expected a lowered half function with a body")
	}
	ret, ok := half.Func.Body[0].(*tast.Return)
	if !ok || ret.Value == nil {
		t.Fatalf("expected half's first statement to return a value, got %T", half.Func.Body[0])
	}
	if got := ret.Value.ExprType(); !got.Equals(types.BasicType(types.Float)) {
		t.Fatalf("int / int should have type float, got %s", got)
	}
}
