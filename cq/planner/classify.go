package planner

import (
	"fmt"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/cqerr"
)

// classified holds the outcome of splitting a normalized query's
// comparison atoms into ones that can be pushed down into a single
// relation's Select, and ones that are genuine join predicates (§4.4).
type classified struct {
	// selections[i] holds the comparison atoms pushed down onto
	// relAtoms[i].
	selections [][]atom.ComparisonAtom
	// joinPredicates[i] holds the explicit join predicates to evaluate
	// once relAtoms[i] has been joined into the left-deep tree.
	// joinPredicates[0] is always empty (there is nothing to join yet).
	joinPredicates [][]atom.ComparisonAtom
}

// classify partitions comparisons over relAtoms by the number of
// distinct variables each one references (§4.4):
//
//   - 0 or 1 variable: a standalone selection, pushed onto the first
//     relation containing that variable (or relation 0, for a
//     constant-only comparison).
//   - 2 variables both bound by the same relation: also standalone,
//     pushed onto that relation.
//   - 2 variables bound by different relations: a join predicate,
//     assigned to the rightmost of the two relations (scanning
//     relAtoms right-to-left), so it is evaluated as soon as both
//     sides are bound in the left-deep tree (§4.7).
func classify(relAtoms []atom.RelationalAtom, comparisons []atom.ComparisonAtom) (classified, error) {
	out := classified{
		selections:     make([][]atom.ComparisonAtom, len(relAtoms)),
		joinPredicates: make([][]atom.ComparisonAtom, len(relAtoms)),
	}

	owner := func(name string) (int, bool) {
		for idx, r := range relAtoms {
			for _, rv := range r.Variables() {
				if rv.Name == name {
					return idx, true
				}
			}
		}
		return 0, false
	}

	for _, c := range comparisons {
		vars := c.Variables()

		switch len(vars) {
		case 0:
			out.selections[0] = append(out.selections[0], c)
		case 1:
			idx, ok := owner(vars[0].Name)
			if !ok {
				return classified{}, cqerr.New(cqerr.ErrPlannerInvariant,
					fmt.Sprintf("comparison atom references unbound variable %s", vars[0].Name))
			}
			out.selections[idx] = append(out.selections[idx], c)
		default:
			idx0, ok0 := owner(vars[0].Name)
			idx1, ok1 := owner(vars[1].Name)
			if !ok0 || !ok1 {
				return classified{}, cqerr.New(cqerr.ErrPlannerInvariant,
					fmt.Sprintf("comparison atom %s references an unbound variable", c))
			}
			if idx0 == idx1 {
				out.selections[idx0] = append(out.selections[idx0], c)
			} else {
				target := 0
			scan:
				for idx := len(relAtoms) - 1; idx >= 0; idx-- {
					for _, rv := range relAtoms[idx].Variables() {
						if rv.Name == vars[0].Name || rv.Name == vars[1].Name {
							target = idx
							break scan
						}
					}
				}
				out.joinPredicates[target] = append(out.joinPredicates[target], c)
			}
		}
	}

	return out, nil
}
