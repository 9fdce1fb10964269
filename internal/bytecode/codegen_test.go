package bytecode

import (
	"bytes"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"go.uber.org/zap"

	"github.com/cwbudde/slangc/internal/parser"
	"github.com/cwbudde/slangc/internal/sema"
)

// compileSource runs a Slang source string through every sema phase and
// then phase 10, failing the test on any diagnostic.
func compileSource(t *testing.T, name, src string) *Program {
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

	return Compile(name, ctx.Program)
}

func disassembleText(t *testing.T, prog *Program) string {
	t.Helper()
	var buf bytes.Buffer
	NewDisassembler(&buf).Disassemble(prog)
	return buf.String()
}

func TestCompileArithmeticFunction(t *testing.T) {
	prog := compileSource(t, "arith", `
fn add(a: int, b: int) -> int: {
	return a + b;
}
`)
	snaps.MatchSnapshot(t, "arith_disasm", disassembleText(t, prog))
}

func TestCompileConditionalShortCircuit(t *testing.T) {
	prog := compileSource(t, "cond", `
fn clamp(x: int, lo: int, hi: int) -> bool: {
	return x >= lo and x <= hi;
}
`)
	snaps.MatchSnapshot(t, "cond_disasm", disassembleText(t, prog))
}

func TestCompileStructAllocationAndFieldAccess(t *testing.T) {
	prog := compileSource(t, "struct", `
struct Point:
	x: int
	y: int

fn makePoint(a: int, b: int) -> Point: {
	return Point{x = a, y = b};
}
`)
	snaps.MatchSnapshot(t, "struct_disasm", disassembleText(t, prog))
}

func TestCompileArrayAllocationAndIndex(t *testing.T) {
	prog := compileSource(t, "array", `
fn second() -> int: {
	let xs = [10, 20, 30];
	return xs[1];
}
`)
	snaps.MatchSnapshot(t, "array_disasm", disassembleText(t, prog))
}

func TestDisassembleRoundTripIsStable(t *testing.T) {
	prog := compileSource(t, "rt", `
fn double(x: int) -> int: {
	return x * 2;
}
`)
	first := disassembleText(t, prog)
	second := disassembleText(t, prog)
	if first != second {
		t.Fatalf("disassembling the same Program twice produced different text:\n%s\n---\n%s", first, second)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	prog := compileSource(t, "serde", `
fn triple(x: int) -> int: {
	return x * 3;
}
`)
	data, err := Serialize(prog)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	restored, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if disassembleText(t, restored) != disassembleText(t, prog) {
		t.Fatal("Program did not round-trip through Serialize/Deserialize unchanged")
	}
}
