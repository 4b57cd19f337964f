package main

import "testing"

func TestSymbolTableDeclareAndLookup(t *testing.T) {
	st := NewSymbolTable()
	a, ok := st.Declare("a", TypeInt)
	if !ok || a.Index != 0 {
		t.Fatalf("first declare: got %+v, ok=%v", a, ok)
	}
	b, ok := st.Declare("b", TypeList)
	if !ok || b.Index != 1 {
		t.Fatalf("second declare: got %+v, ok=%v", b, ok)
	}
	if _, ok := st.Declare("a", TypeInt); ok {
		t.Fatal("expected redeclaring 'a' to fail")
	}
	if st.Count() != 2 {
		t.Errorf("got Count()=%d, want 2", st.Count())
	}
	got, ok := st.Lookup("b")
	if !ok || got != b {
		t.Errorf("Lookup(b): got %+v, ok=%v", got, ok)
	}
	if _, ok := st.Lookup("nope"); ok {
		t.Error("expected Lookup of an undeclared name to fail")
	}
}

func TestTypeKindString(t *testing.T) {
	cases := map[TypeKind]string{
		TypeInt:     "Int",
		TypeList:    "List",
		TypeArray:   "Array",
		TypeLambda:  "Lambda",
		TypeInvalid: "Invalid",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestTypeKindIsAggregate(t *testing.T) {
	if !TypeList.IsAggregate() || !TypeArray.IsAggregate() {
		t.Error("List and Array must be aggregate types")
	}
	if TypeInt.IsAggregate() || TypeLambda.IsAggregate() || TypeInvalid.IsAggregate() {
		t.Error("Int/Lambda/Invalid must not be aggregate types")
	}
}

func TestLocalOffInvariant(t *testing.T) {
	// §3: symbol index -> stack displacement is -16 - 8*index.
	cases := []struct {
		index int
		want  int32
	}{
		{0, -16},
		{1, -24},
		{5, -56},
	}
	for _, c := range cases {
		if got := LocalOff(c.index); got != c.want {
			t.Errorf("LocalOff(%d) = %d, want %d", c.index, got, c.want)
		}
	}
}
