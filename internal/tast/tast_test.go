package tast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cwbudde/slangc/internal/types"
)

func TestAddDefRoutesGenericsSeparately(t *testing.T) {
	prog := &Program{Name: "test"}

	concrete := &Definition{ID: 1, Name: "Point", Kind: DefStruct}
	generic := &Definition{ID: 2, Name: "Box", Kind: DefStruct, TypeParams: []*TypeParamDef{{ID: 3, Name: "T"}}}

	prog.AddDef(concrete)
	prog.AddDef(generic)

	if len(prog.Defs) != 1 || prog.Defs[0] != concrete {
		t.Fatalf("expected Defs to hold only the concrete definition, got %+v", prog.Defs)
	}
	if len(prog.Generics) != 1 || prog.Generics[0] != generic {
		t.Fatalf("expected Generics to hold only the generic template, got %+v", prog.Generics)
	}
}

func TestFindByNameSearchesBothLists(t *testing.T) {
	prog := &Program{Name: "test"}
	prog.AddDef(&Definition{ID: 1, Name: "Point", Kind: DefStruct})
	prog.AddDef(&Definition{ID: 2, Name: "Box", Kind: DefStruct, TypeParams: []*TypeParamDef{{ID: 3, Name: "T"}}})

	if got := prog.FindByName("Point"); got == nil || got.Name != "Point" {
		t.Fatalf("FindByName(Point) = %v, want the concrete definition", got)
	}
	if got := prog.FindByName("Box"); got == nil || got.Name != "Box" {
		t.Fatalf("FindByName(Box) = %v, want the generic template", got)
	}
	if got := prog.FindByName("Missing"); got != nil {
		t.Fatalf("FindByName(Missing) = %v, want nil", got)
	}
}

func TestEnumVariantParentIsWeakReference(t *testing.T) {
	enumDef := &Definition{ID: 1, Name: "Option", Kind: DefEnum}
	variant := &EnumVariant{ID: 2, Name: "Some", PayloadTypes: []types.Type{types.BasicType(types.Int)}, Parent: enumDef}
	enumDef.Enum = &EnumDef{Variants: []*EnumVariant{variant}}

	if variant.Parent != enumDef {
		t.Fatal("EnumVariant.Parent should point back at the owning Definition")
	}
	if enumDef.Enum.Variants[0] != variant {
		t.Fatal("EnumDef.Variants should hold the same variant pointer")
	}
}

func TestClassDefMethodsAreWeakReferences(t *testing.T) {
	methodDef := &Definition{ID: 1, Name: "increment", Kind: DefFunction, Func: &FuncDef{Result: types.BasicType(types.Int)}}
	classDef := &Definition{ID: 2, Name: "Counter", Kind: DefClass, Class: &ClassDef{Methods: []*Definition{methodDef}}}
	methodDef.Func.ReceiverOf = classDef

	if classDef.Class.Methods[0] != methodDef {
		t.Fatal("ClassDef.Methods should reference the method Definition directly")
	}
	if methodDef.Func.ReceiverOf != classDef {
		t.Fatal("FuncDef.ReceiverOf should point back at the owning class")
	}
}

func TestDefinitionSatisfiesTypesDefinition(t *testing.T) {
	var def types.Definition = &Definition{ID: 7, Name: "Widget"}
	if def.DefID() != 7 || def.DefName() != "Widget" {
		t.Fatalf("Definition did not satisfy types.Definition correctly: id=%d name=%s", def.DefID(), def.DefName())
	}
}

func TestLocalSlotIndexRoundTrips(t *testing.T) {
	locals := []*Local{
		{ID: 1, Name: "a", Type: types.BasicType(types.Int), Index: 0, IsParam: true},
		{ID: 2, Name: "total", Type: types.BasicType(types.Int), Index: 1, IsParam: false},
	}
	fn := &FuncDef{Params: locals[:1], Locals: locals, Result: types.BasicType(types.Int)}

	if fn.Params[0].Index != 0 {
		t.Fatalf("parameter slot index = %d, want 0", fn.Params[0].Index)
	}
	if fn.Locals[1].Index != 1 {
		t.Fatalf("local slot index = %d, want 1", fn.Locals[1].Index)
	}
}

func TestFieldDefSliceStructuralEquality(t *testing.T) {
	a := []FieldDef{
		{Name: "x", Type: types.BasicType(types.Int)},
		{Name: "y", Type: types.BasicType(types.Int)},
	}
	b := []FieldDef{
		{Name: "x", Type: types.BasicType(types.Int)},
		{Name: "y", Type: types.BasicType(types.Int)},
	}
	if diff := cmp.Diff(a, b, cmp.Comparer(func(x, y types.Type) bool { return x.Equals(y) })); diff != "" {
		t.Fatalf("two independently-built field lists with the same shape should be equal (-want +got):\n%s", diff)
	}
}
