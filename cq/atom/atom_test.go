package atom

import (
	"testing"

	"github.com/cqlang/cq-engine/cq/term"
)

func r(name string, terms ...term.Term) RelationalAtom {
	return RelationalAtom{Name: name, Terms: terms}
}

func TestRelationalAtomEqual(t *testing.T) {
	a := r("R", term.Variable{Name: "x"}, term.IntConst{Value: 1})
	b := r("R", term.Variable{Name: "x"}, term.IntConst{Value: 1})
	c := r("R", term.Variable{Name: "y"}, term.IntConst{Value: 1})
	if !a.Equal(b) {
		t.Fatal("expected equal atoms")
	}
	if a.Equal(c) {
		t.Fatal("expected distinct atoms to differ")
	}
}

func TestVariables(t *testing.T) {
	a := r("R", term.Variable{Name: "x"}, term.Variable{Name: "x"}, term.Variable{Name: "y"})
	vars := a.Variables()
	if len(vars) != 2 || vars[0].Name != "x" || vars[1].Name != "y" {
		t.Fatalf("unexpected variables: %v", vars)
	}
}

func TestEqualAsMultiset(t *testing.T) {
	a1 := r("R", term.Variable{Name: "x"}, term.Variable{Name: "y"})
	a2 := r("S", term.Variable{Name: "y"}, term.Variable{Name: "z"})
	left := []RelationalAtom{a1, a2}
	right := []RelationalAtom{a2, a1}
	if !EqualAsMultiset(left, right) {
		t.Fatal("expected multiset equality regardless of order")
	}

	right2 := []RelationalAtom{a2, a2}
	if EqualAsMultiset(left, right2) {
		t.Fatal("expected multiset inequality for differing atoms")
	}
}

func TestParseComparisonOperator(t *testing.T) {
	cases := map[string]ComparisonOperator{
		"=": EQ, "!=": NEQ, "<": LT, "<=": LEQ, ">": GT, ">=": GEQ,
	}
	for s, want := range cases {
		got, ok := ParseComparisonOperator(s)
		if !ok || got != want {
			t.Fatalf("ParseComparisonOperator(%q) = %v, %v; want %v, true", s, got, ok, want)
		}
	}
	if _, ok := ParseComparisonOperator("~"); ok {
		t.Fatal("expected unknown operator to fail")
	}
}
