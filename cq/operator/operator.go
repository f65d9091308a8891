// Package operator implements the iterator-based pipeline that
// evaluates a planned query: Scan, Select, Project, Join, and
// SumAggregate, all conforming to a common next/reset/dump protocol.
//
// operator.go holds the shared interface and the free functions shared
// across operators (binding.go, dump via dumpTuples); one file per
// concrete operator kind.
package operator

import (
	"bufio"
	"io"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/tuple"
)

// Operator is the capability set every pipeline node implements: a
// non-inheritance-based polymorphism realized as an interface, per the
// sum-type design note (§9) to replace runtime class-of checks.
type Operator interface {
	// Open prepares the operator for iteration (e.g. opens a Scan's
	// CSV file). It must be called once before the first Next.
	Open() error

	// Next returns the next tuple in the output stream. ok is false at
	// end of stream, in which case Next continues to report end of
	// stream on every subsequent call until Reset (§4.3).
	Next() (tuple.Tuple, bool, error)

	// Reset restores the operator to its pre-Next state, recursively
	// resetting children.
	Reset() error

	// Close releases resources (e.g. a Scan's open file handle).
	Close() error

	// Dump drains Next to end of stream, writing one formatted tuple
	// per line to w.
	Dump(w io.Writer) error

	// Atoms returns the relational atoms this operator is "labeled"
	// with: the ordered list whose concatenated arity equals the
	// arity of tuples this operator produces, and which Select/Join/
	// Project/SumAggregate use to resolve a variable to a tuple
	// position.
	Atoms() []atom.RelationalAtom
}

// dumpTuples is the shared, pure Dump implementation: every concrete
// operator's Dump delegates here. SumAggregate does not need a
// different output format (its tuples already carry the sum as their
// last element), so no override is needed despite the general operator
// protocol allowing one (§4.3).
func dumpTuples(op Operator, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for {
		t, ok, err := op.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if _, err := bw.WriteString(t.Format()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
