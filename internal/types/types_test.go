package types

import (
	"testing"
)

func TestBasicTypeEquality(t *testing.T) {
	if !BasicType(Int).Equals(BasicType(Int)) {
		t.Fatal("BasicType(Int) should equal itself")
	}
	if BasicType(Int).Equals(BasicType(Float)) {
		t.Fatal("BasicType(Int) should not equal BasicType(Float)")
	}
}

func TestArrayTypeEquality(t *testing.T) {
	a := Array(BasicType(Int), 3)
	b := Array(BasicType(Int), 3)
	c := Array(BasicType(Int), 4)
	if !a.Equals(b) {
		t.Fatal("two arrays of the same element type and length should be equal")
	}
	if a.Equals(c) {
		t.Fatal("arrays of different lengths should not be equal")
	}
}

func TestUndefinedIsZeroValue(t *testing.T) {
	var zero Type
	if !zero.IsUndefined() {
		t.Fatal("the zero Type value should report IsUndefined")
	}
	if !zero.Equals(Undefined()) {
		t.Fatal("the zero Type value should equal Undefined()")
	}
}

func TestBasicTypesAreNotHeapTypes(t *testing.T) {
	if BasicType(Int).IsHeapType() {
		t.Fatal("a basic type is never a valid generic heap-type argument")
	}
}

func TestFunctionTypeIsNotAHeapType(t *testing.T) {
	fn := Function([]Type{BasicType(Int)}, BasicType(Bool))
	if fn.IsHeapType() {
		t.Fatal("a function signature is a User type but is excluded from heap types")
	}
}

type fakeDef struct {
	id   uint64
	name string
}

func (f *fakeDef) DefID() uint64   { return f.id }
func (f *fakeDef) DefName() string { return f.name }

func TestUserTypeEqualityIsNominal(t *testing.T) {
	d1 := &fakeDef{id: 1, name: "Point"}
	d2 := &fakeDef{id: 2, name: "Point"}

	t1 := User(UserStruct, d1, nil)
	t1Again := User(UserStruct, d1, nil)
	t2 := User(UserStruct, d2, nil)

	if !t1.Equals(t1Again) {
		t.Fatal("two User types over the same Definition pointer should be equal")
	}
	if t1.Equals(t2) {
		t.Fatal("two User types over distinct Definition pointers (even same name) should not be equal")
	}
}
