package operator

import (
	"io"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/term"
	"github.com/cqlang/cq-engine/cq/tuple"
)

// Project is the blocking, deduplicating root operator used when the
// query head carries no SumAggregate (§4.8). It resolves each head term
// against the accumulated relational atoms and emits the resulting
// tuple only the first time it is seen, since a CQ's answer set is a
// set, not a bag.
type Project struct {
	atoms     []atom.RelationalAtom
	headTerms []term.Term
	child     Operator

	materialized bool
	rows         []tuple.Tuple
	idx          int
}

// NewProject builds a Project over child (labeled with atoms) that
// outputs headTerms.
func NewProject(atoms []atom.RelationalAtom, headTerms []term.Term, child Operator) *Project {
	return &Project{atoms: atoms, headTerms: headTerms, child: child}
}

func (p *Project) Atoms() []atom.RelationalAtom { return p.atoms }

func (p *Project) Open() error { return p.child.Open() }

func (p *Project) materialize() error {
	if p.materialized {
		return nil
	}
	seen := make(map[string]bool)
	for {
		t, ok, err := p.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		projected, err := projectTuple(p.atoms, p.headTerms, t)
		if err != nil {
			return err
		}
		key := projected.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		p.rows = append(p.rows, projected)
	}
	p.materialized = true
	return nil
}

// projectTuple is the pure free function shared conceptually with
// SumAggregate's key/value extraction (§9): resolve each of terms
// against atoms/source, erroring if a term cannot be resolved (an
// unsafe projection, which the planner should already reject).
func projectTuple(atoms []atom.RelationalAtom, terms []term.Term, source tuple.Tuple) (tuple.Tuple, error) {
	out := make(tuple.Tuple, len(terms))
	for i, t := range terms {
		v, ok := Resolve(atoms, source, t)
		if !ok {
			return nil, unresolvedTermError(t)
		}
		out[i] = v
	}
	return out, nil
}

func (p *Project) Next() (tuple.Tuple, bool, error) {
	if err := p.materialize(); err != nil {
		return nil, false, err
	}
	if p.idx >= len(p.rows) {
		return nil, false, nil
	}
	t := p.rows[p.idx]
	p.idx++
	return t, true, nil
}

func (p *Project) Reset() error {
	if err := p.child.Reset(); err != nil {
		return err
	}
	p.idx = 0
	return nil
}

func (p *Project) Close() error { return p.child.Close() }

func (p *Project) Dump(w io.Writer) error { return dumpTuples(p, w) }
