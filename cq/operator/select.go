package operator

import (
	"io"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/tuple"
)

// Select filters a child's tuples by a non-empty list of comparison
// atoms whose variables are all contained in its single labeled
// RelationalAtom (§4.6). It is a streaming pass-through: it forwards
// the child tuple unchanged when every comparison holds.
type Select struct {
	rel   atom.RelationalAtom
	preds []atom.ComparisonAtom
	child Operator
}

// NewSelect wraps child with a selection over rel's variables. preds
// must be non-empty.
func NewSelect(rel atom.RelationalAtom, preds []atom.ComparisonAtom, child Operator) *Select {
	return &Select{rel: rel, preds: preds, child: child}
}

func (s *Select) Atoms() []atom.RelationalAtom { return []atom.RelationalAtom{s.rel} }

func (s *Select) Open() error { return s.child.Open() }

func (s *Select) Next() (tuple.Tuple, bool, error) {
	atoms := s.Atoms()
	for {
		t, ok, err := s.child.Next()
		if err != nil || !ok {
			return nil, ok, err
		}

		pass := true
		for _, p := range s.preds {
			left, leftOK := Resolve(atoms, t, p.Left)
			right, rightOK := Resolve(atoms, t, p.Right)
			if !leftOK || !rightOK {
				pass = false
				break
			}
			ok, err := Evaluate(p.Op, left, right)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				pass = false
				break
			}
		}
		if pass {
			return t, true, nil
		}
	}
}

func (s *Select) Reset() error { return s.child.Reset() }
func (s *Select) Close() error { return s.child.Close() }

func (s *Select) Dump(w io.Writer) error { return dumpTuples(s, w) }
