package operator

import (
	"io"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/tuple"
)

// Join is a tuple-nested-loop join (§4.7): the outer (left) child is
// advanced once per outer tuple; for each outer tuple the inner (right)
// child is scanned fully and reset. A combined tuple is emitted only if
// the implicit equi-join on shared variables holds and every explicit
// join predicate assigned to the right relation holds.
type Join struct {
	leftAtoms  []atom.RelationalAtom
	rightAtom  atom.RelationalAtom
	outer      Operator
	inner      Operator
	predicates []atom.ComparisonAtom

	outerTuple tuple.Tuple
	haveOuter  bool
}

// NewJoin builds a Join of outer (already labeled with leftAtoms) and
// inner (labeled with a single rightAtom), filtered by predicates (the
// explicit join comparisons the planner assigned to rightAtom).
func NewJoin(leftAtoms []atom.RelationalAtom, rightAtom atom.RelationalAtom, outer, inner Operator, predicates []atom.ComparisonAtom) *Join {
	return &Join{
		leftAtoms:  leftAtoms,
		rightAtom:  rightAtom,
		outer:      outer,
		inner:      inner,
		predicates: predicates,
	}
}

func (j *Join) Atoms() []atom.RelationalAtom {
	out := make([]atom.RelationalAtom, 0, len(j.leftAtoms)+1)
	out = append(out, j.leftAtoms...)
	out = append(out, j.rightAtom)
	return out
}

func (j *Join) Open() error {
	if err := j.outer.Open(); err != nil {
		return err
	}
	if err := j.inner.Open(); err != nil {
		return err
	}
	return j.advanceOuter()
}

func (j *Join) advanceOuter() error {
	t, ok, err := j.outer.Next()
	if err != nil {
		return err
	}
	j.outerTuple = t
	j.haveOuter = ok
	return nil
}

func (j *Join) Next() (tuple.Tuple, bool, error) {
	atoms := j.Atoms()
	for j.haveOuter {
		innerTuple, ok, err := j.inner.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			if err := j.inner.Reset(); err != nil {
				return nil, false, err
			}
			if err := j.advanceOuter(); err != nil {
				return nil, false, err
			}
			continue
		}

		combined := tuple.Append(j.outerTuple, innerTuple)
		satisfied, err := j.satisfies(atoms, combined, innerTuple)
		if err != nil {
			return nil, false, err
		}
		if satisfied {
			return combined, true, nil
		}
	}
	return nil, false, nil
}

// satisfies checks both the implicit equi-join on shared variables and
// the explicit predicates assigned to the right relation.
func (j *Join) satisfies(atoms []atom.RelationalAtom, combined, innerTuple tuple.Tuple) (bool, error) {
	for _, v := range j.rightAtom.Variables() {
		positions := VariablePositions(atoms, v.Name)
		if len(positions) < 2 {
			continue
		}
		want := combined[positions[0]]
		for _, pos := range positions[1:] {
			if !combined[pos].Equal(want) {
				return false, nil
			}
		}
	}

	for _, p := range j.predicates {
		left, leftOK := Resolve(atoms, combined, p.Left)
		right, rightOK := Resolve(atoms, combined, p.Right)
		if !leftOK || !rightOK {
			continue
		}
		ok, err := Evaluate(p.Op, left, right)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (j *Join) Reset() error {
	if err := j.outer.Reset(); err != nil {
		return err
	}
	if err := j.inner.Reset(); err != nil {
		return err
	}
	return j.advanceOuter()
}

func (j *Join) Close() error {
	errOuter := j.outer.Close()
	errInner := j.inner.Close()
	if errOuter != nil {
		return errOuter
	}
	return errInner
}

func (j *Join) Dump(w io.Writer) error { return dumpTuples(j, w) }
