package planner

import (
	"testing"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/term"
)

func TestClassifyStandaloneSingleVariable(t *testing.T) {
	rel := []atom.RelationalAtom{
		{Name: "R", Terms: []term.Term{v("a")}},
		{Name: "S", Terms: []term.Term{v("b")}},
	}
	cmp := atom.ComparisonAtom{Left: v("a"), Op: atom.GT, Right: i(1)}

	out, err := classify(rel, []atom.ComparisonAtom{cmp})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(out.selections[0]) != 1 || len(out.selections[1]) != 0 {
		t.Fatalf("expected predicate pushed onto relation 0, got %+v", out.selections)
	}
	if len(out.joinPredicates[0]) != 0 || len(out.joinPredicates[1]) != 0 {
		t.Fatalf("expected no join predicates, got %+v", out.joinPredicates)
	}
}

func TestClassifySameAtomBothVariables(t *testing.T) {
	rel := []atom.RelationalAtom{
		{Name: "R", Terms: []term.Term{v("a"), v("b")}},
	}
	cmp := atom.ComparisonAtom{Left: v("a"), Op: atom.LT, Right: v("b")}

	out, err := classify(rel, []atom.ComparisonAtom{cmp})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(out.selections[0]) != 1 {
		t.Fatalf("expected the predicate pushed as a selection, got %+v", out.selections)
	}
}

func TestClassifyCrossAtomIsJoinPredicate(t *testing.T) {
	rel := []atom.RelationalAtom{
		{Name: "R", Terms: []term.Term{v("a")}},
		{Name: "S", Terms: []term.Term{v("b")}},
	}
	cmp := atom.ComparisonAtom{Left: v("a"), Op: atom.LT, Right: v("b")}

	out, err := classify(rel, []atom.ComparisonAtom{cmp})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(out.joinPredicates[1]) != 1 {
		t.Fatalf("expected the predicate assigned to the rightmost relation (index 1), got %+v", out.joinPredicates)
	}
}

func TestClassifyUnboundVariableErrors(t *testing.T) {
	rel := []atom.RelationalAtom{
		{Name: "R", Terms: []term.Term{v("a")}},
	}
	cmp := atom.ComparisonAtom{Left: v("unbound"), Op: atom.EQ, Right: i(1)}

	if _, err := classify(rel, []atom.ComparisonAtom{cmp}); err == nil {
		t.Fatal("expected an error for a comparison over an unbound variable")
	}
}
