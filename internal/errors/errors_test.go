package errors

import (
	"strings"
	"testing"

	"github.com/cwbudde/slangc/internal/token"
)

func TestHasErrorsIgnoresWarnings(t *testing.T) {
	var b Bag
	b.Add(&Diagnostic{Kind: UnresolvedName, Severity: SeverityWarning, Message: "just a warning", Pos: token.Position{Line: 1, Column: 1}})
	if b.HasErrors() {
		t.Fatal("a bag holding only warnings should report HasErrors() == false")
	}

	b.Add(&Diagnostic{Kind: TypeMismatch, Severity: SeverityError, Message: "boom", Pos: token.Position{Line: 2, Column: 1}})
	if !b.HasErrors() {
		t.Fatal("a bag holding an Error-severity diagnostic should report HasErrors() == true")
	}
}

func TestDiagnosticsAreSortedBySourcePosition(t *testing.T) {
	var b Bag
	b.Add(New(TypeMismatch, token.Position{Line: 5, Column: 3}, "third", "", "f.sl"))
	b.Add(New(TypeMismatch, token.Position{Line: 1, Column: 9}, "first", "", "f.sl"))
	b.Add(New(TypeMismatch, token.Position{Line: 1, Column: 2}, "second", "", "f.sl"))

	diags := b.Diagnostics()
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(diags))
	}
	order := []string{diags[0].Message, diags[1].Message, diags[2].Message}
	want := []string{"second", "first", "third"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Diagnostics() order = %v, want %v", order, want)
		}
	}
}

func TestFormatIncludesCaretAtOffendingColumn(t *testing.T) {
	src := "let x = 1\nlet y = bogus\nlet z = 2"
	d := New(UnresolvedName, token.Position{Line: 2, Column: 9}, "unresolved name \"bogus\"", src, "f.sl")

	out := d.Format(false)
	lines := strings.Split(out, "\n")

	var caretLine string
	caretIdx := -1
	for i, ln := range lines {
		if strings.TrimSpace(ln) == "^" {
			caretLine = ln
			caretIdx = i
			break
		}
	}
	if caretLine == "" {
		t.Fatalf("Format output had no caret line:\n%s", out)
	}
	if caretIdx < 1 || strings.Index(caretLine, "^") != strings.Index(lines[caretIdx-1], "bogus") {
		t.Fatalf("caret should sit under column 9 (the start of \"bogus\") on the line above it:\n%s", out)
	}
	if !strings.Contains(out, "let y = bogus") {
		t.Fatalf("Format output should include the offending source line:\n%s", out)
	}
	if !strings.Contains(out, "unresolved name \"bogus\"") {
		t.Fatalf("Format output should include the diagnostic message:\n%s", out)
	}
}

func TestMultiErrorSingleDiagnosticSkipsHeader(t *testing.T) {
	var b Bag
	b.Add(New(TypeMismatch, token.Position{Line: 1, Column: 1}, "only one", "", "f.sl"))

	out := b.MultiError(false)
	if strings.Contains(out, "compilation failed") {
		t.Fatalf("a single-diagnostic MultiError should not print the multi-error header:\n%s", out)
	}
}

func TestMultiErrorMultipleDiagnosticsNumbersEach(t *testing.T) {
	var b Bag
	b.Add(New(TypeMismatch, token.Position{Line: 1, Column: 1}, "first problem", "", "f.sl"))
	b.Add(New(UnresolvedName, token.Position{Line: 2, Column: 1}, "second problem", "", "f.sl"))

	out := b.MultiError(false)
	if !strings.Contains(out, "compilation failed with 2 error(s)") {
		t.Fatalf("expected the multi-error header to report the count:\n%s", out)
	}
	if !strings.Contains(out, "[1/2]") || !strings.Contains(out, "[2/2]") {
		t.Fatalf("expected each diagnostic to be numbered:\n%s", out)
	}
}
