package operator

import (
	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/term"
	"github.com/cqlang/cq-engine/cq/tuple"
)

// VariablePositions returns every tuple position, across the
// concatenation of atoms, at which name occurs. Atoms are normalized to
// contain only distinct variables each, so repeats only happen when the
// same variable occurs in more than one atom (the implicit equi-join
// case, §4.7).
func VariablePositions(atoms []atom.RelationalAtom, name string) []int {
	var positions []int
	offset := 0
	for _, a := range atoms {
		for i, t := range a.Terms {
			if v, ok := t.(term.Variable); ok && v.Name == name {
				positions = append(positions, offset+i)
			}
		}
		offset += len(a.Terms)
	}
	return positions
}

// Resolve is the single pure lookup function shared by Select, Join,
// Project, and SumAggregate (§9: "extract into a free function shared
// by Project and SumAggregate" — generalized here to every operator
// that must turn a term into a value). A constant resolves to itself.
// A variable resolves to the tuple value at its first occurrence among
// atoms; ok is false if the variable does not occur in atoms at all.
func Resolve(atoms []atom.RelationalAtom, t tuple.Tuple, target term.Term) (term.Term, bool) {
	v, isVar := target.(term.Variable)
	if !isVar {
		return target, true
	}
	positions := VariablePositions(atoms, v.Name)
	if len(positions) == 0 {
		return nil, false
	}
	return t[positions[0]], true
}
