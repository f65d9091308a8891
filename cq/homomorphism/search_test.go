package homomorphism

import (
	"testing"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/term"
)

func v(name string) term.Variable { return term.Variable{Name: name} }

func rel(name string, terms ...term.Term) atom.RelationalAtom {
	return atom.RelationalAtom{Name: name, Terms: terms}
}

func withoutAtom(body []atom.RelationalAtom, idx int) []atom.RelationalAtom {
	out := make([]atom.RelationalAtom, 0, len(body)-1)
	for i, a := range body {
		if i != idx {
			out = append(out, a)
		}
	}
	return out
}

func queryOf(head atom.RelationalAtom, body []atom.RelationalAtom) atom.Query {
	atoms := make([]atom.Atom, len(body))
	for i, a := range body {
		atoms[i] = a
	}
	return atom.Query{Head: head, Body: atoms}
}

func TestExistsDuplicateAtomRemovable(t *testing.T) {
	// Q(x) :- R(x,y), R(x,z)
	body := []atom.RelationalAtom{
		rel("R", v("x"), v("y")),
		rel("R", v("x"), v("z")),
	}
	head := atom.RelationalAtom{Name: "Q", Terms: []term.Term{v("x")}}
	q := queryOf(head, body)
	qPrime := queryOf(head, withoutAtom(body, 1))

	if !Exists(q, qPrime, body[1]) {
		t.Fatal("expected R(x,z) to be removable")
	}
}

func TestExistsJoinPathNotRemovable(t *testing.T) {
	// Q(x,y) :- R(x,y), R(y,z)
	body := []atom.RelationalAtom{
		rel("R", v("x"), v("y")),
		rel("R", v("y"), v("z")),
	}
	head := atom.RelationalAtom{Name: "Q", Terms: []term.Term{v("x"), v("y")}}
	q := queryOf(head, body)

	qPrimeDropFirst := queryOf(head, withoutAtom(body, 0))
	if Exists(q, qPrimeDropFirst, body[0]) {
		t.Fatal("expected R(x,y) not to be removable")
	}

	qPrimeDropSecond := queryOf(head, withoutAtom(body, 1))
	if Exists(q, qPrimeDropSecond, body[1]) {
		t.Fatal("expected R(y,z) not to be removable")
	}
}

func TestExistsEmptyCandidatesWithNonHeadVariables(t *testing.T) {
	// S has no atom named R in q' -> candidate set is empty, V nonempty.
	body := []atom.RelationalAtom{
		rel("R", v("x"), v("y")),
		rel("S", v("y")),
	}
	head := atom.RelationalAtom{Name: "Q", Terms: []term.Term{v("y")}}
	q := queryOf(head, body)
	qPrime := queryOf(head, withoutAtom(body, 0))

	if Exists(q, qPrime, body[0]) {
		t.Fatal("expected no homomorphism when candidate set is empty")
	}
}
