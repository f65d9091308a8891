package operator

import (
	"io"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/cqerr"
	"github.com/cqlang/cq-engine/cq/term"
	"github.com/cqlang/cq-engine/cq/tuple"
)

// SumAggregate is the blocking root operator used when the query head
// carries a SumAggregate (§4.9). For each child tuple it groups by
// groupByTerms (the head variables) and accumulates the product of
// productTerms into a 64-bit signed sum per group.
type SumAggregate struct {
	atoms        []atom.RelationalAtom
	groupByTerms []term.Term
	productTerms []term.Term
	child        Operator

	materialized bool
	rows         []tuple.Tuple
	idx          int
}

// NewSumAggregate builds a SumAggregate over child (labeled with
// atoms).
func NewSumAggregate(atoms []atom.RelationalAtom, groupByTerms, productTerms []term.Term, child Operator) *SumAggregate {
	return &SumAggregate{atoms: atoms, groupByTerms: groupByTerms, productTerms: productTerms, child: child}
}

func (s *SumAggregate) Atoms() []atom.RelationalAtom { return s.atoms }

func (s *SumAggregate) Open() error { return s.child.Open() }

type aggEntry struct {
	key tuple.Tuple
	sum int64
}

func (s *SumAggregate) materialize() error {
	if s.materialized {
		return nil
	}

	order := make([]string, 0)
	acc := make(map[string]*aggEntry)

	for {
		t, ok, err := s.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		key, err := projectTuple(s.atoms, s.groupByTerms, t)
		if err != nil {
			return err
		}
		delta, err := s.product(t)
		if err != nil {
			return err
		}

		k := key.Key()
		entry, exists := acc[k]
		if !exists {
			entry = &aggEntry{key: key}
			acc[k] = entry
			order = append(order, k)
		}
		sum, overflowed := addChecked(entry.sum, delta)
		if overflowed {
			return cqerr.New(cqerr.ErrTypeMismatch, "sum aggregate overflowed a 64-bit accumulator")
		}
		entry.sum = sum
	}

	if len(acc) == 0 && len(s.groupByTerms) == 0 {
		s.rows = []tuple.Tuple{{term.IntConst{Value: 0}}}
		s.materialized = true
		return nil
	}

	for _, k := range order {
		entry := acc[k]
		row := make(tuple.Tuple, 0, len(entry.key)+1)
		row = append(row, entry.key...)
		row = append(row, term.IntConst{Value: entry.sum})
		s.rows = append(s.rows, row)
	}
	s.materialized = true
	return nil
}

// product resolves each productTerm against tuple t and returns the
// product of the resolved integer values. A non-integer resolved value
// is a TypeMismatch error (§4.9).
func (s *SumAggregate) product(t tuple.Tuple) (int64, error) {
	result := int64(1)
	for _, pt := range s.productTerms {
		resolved, ok := Resolve(s.atoms, t, pt)
		if !ok {
			return 0, unresolvedTermError(pt)
		}
		iv, ok := resolved.(term.IntConst)
		if !ok {
			return 0, cqerr.New(cqerr.ErrTypeMismatch,
				"SUM product term resolved to a non-integer value: "+resolved.String())
		}
		var overflowed bool
		result, overflowed = mulChecked(result, iv.Value)
		if overflowed {
			return 0, cqerr.New(cqerr.ErrTypeMismatch, "sum aggregate product overflowed a 64-bit accumulator")
		}
	}
	return result, nil
}

func addChecked(a, b int64) (int64, bool) {
	sum := a + b
	overflowed := (b > 0 && sum < a) || (b < 0 && sum > a)
	return sum, overflowed
}

func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	product := a * b
	return product, product/b != a
}

func (s *SumAggregate) Next() (tuple.Tuple, bool, error) {
	if err := s.materialize(); err != nil {
		return nil, false, err
	}
	if s.idx >= len(s.rows) {
		return nil, false, nil
	}
	t := s.rows[s.idx]
	s.idx++
	return t, true, nil
}

func (s *SumAggregate) Reset() error {
	if err := s.child.Reset(); err != nil {
		return err
	}
	s.idx = 0
	return nil
}

func (s *SumAggregate) Close() error { return s.child.Close() }

func (s *SumAggregate) Dump(w io.Writer) error { return dumpTuples(s, w) }
