package operator

import (
	"fmt"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/cqerr"
	"github.com/cqlang/cq-engine/cq/term"
)

// Evaluate applies op to two already-resolved constants. Comparing
// constants of different underlying types is a TypeMismatch error
// for every operator including EQ/NEQ.
func Evaluate(op atom.ComparisonOperator, left, right term.Term) (bool, error) {
	if !term.SameType(left, right) {
		return false, cqerr.New(cqerr.ErrTypeMismatch,
			fmt.Sprintf("cannot compare %s and %s of different types", left, right))
	}

	var cmp int
	switch l := left.(type) {
	case term.IntConst:
		r := right.(term.IntConst)
		switch {
		case l.Value < r.Value:
			cmp = -1
		case l.Value > r.Value:
			cmp = 1
		}
	case term.StrConst:
		r := right.(term.StrConst)
		switch {
		case l.Value < r.Value:
			cmp = -1
		case l.Value > r.Value:
			cmp = 1
		}
	default:
		return false, cqerr.New(cqerr.ErrTypeMismatch,
			fmt.Sprintf("cannot compare non-constant term %s", left))
	}

	switch op {
	case atom.EQ:
		return cmp == 0, nil
	case atom.NEQ:
		return cmp != 0, nil
	case atom.LT:
		return cmp < 0, nil
	case atom.LEQ:
		return cmp <= 0, nil
	case atom.GT:
		return cmp > 0, nil
	case atom.GEQ:
		return cmp >= 0, nil
	default:
		return false, cqerr.New(cqerr.ErrPlannerInvariant, fmt.Sprintf("unknown comparison operator %v", op))
	}
}
