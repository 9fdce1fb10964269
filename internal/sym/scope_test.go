package sym

import (
	"testing"

	"github.com/cwbudde/slangc/internal/types"
)

func TestDefineRejectsRedefinitionInSameScope(t *testing.T) {
	s := NewScope(nil)
	if !s.Define("x", &Symbol{Kind: SymLocal, Name: "x"}) {
		t.Fatal("first Define of x should succeed")
	}
	if s.Define("x", &Symbol{Kind: SymLocal, Name: "x"}) {
		t.Fatal("second Define of x in the same scope should fail")
	}
}

func TestDefineAllowsShadowingInChildScope(t *testing.T) {
	parent := NewScope(nil)
	parent.Define("x", &Symbol{Kind: SymLocal, Name: "x", VarType: types.BasicType(types.Int)})

	child := NewScope(parent)
	if !child.Define("x", &Symbol{Kind: SymLocal, Name: "x", VarType: types.BasicType(types.String)}) {
		t.Fatal("Define in a child scope should not be blocked by a same-named parent symbol")
	}

	got, ok := child.LookupLocal("x")
	if !ok || !got.VarType.Equals(types.BasicType(types.String)) {
		t.Fatalf("LookupLocal should find the child's own symbol, got %+v", got)
	}
}

func TestLookupWalksToAncestorScopes(t *testing.T) {
	root := NewScope(nil)
	root.Define("globalFn", &Symbol{Kind: SymFunction, Name: "globalFn"})

	inner := NewScope(NewScope(root))
	got, ok := inner.Lookup("globalFn")
	if !ok || got.Name != "globalFn" {
		t.Fatalf("Lookup should resolve through every ancestor, got %+v, ok=%v", got, ok)
	}

	if _, ok := inner.LookupLocal("globalFn"); ok {
		t.Fatal("LookupLocal must not search ancestor scopes")
	}
}

func TestLookupMissingNameFails(t *testing.T) {
	s := NewScope(nil)
	if _, ok := s.Lookup("nope"); ok {
		t.Fatal("Lookup of an undeclared name should fail")
	}
}

func TestNamesPreservesDeclarationOrder(t *testing.T) {
	s := NewScope(nil)
	s.Define("c", &Symbol{Kind: SymLocal, Name: "c"})
	s.Define("a", &Symbol{Kind: SymLocal, Name: "a"})
	s.Define("b", &Symbol{Kind: SymLocal, Name: "b"})

	got := s.Names()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}
