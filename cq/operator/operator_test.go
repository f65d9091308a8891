package operator

import (
	"io"
	"testing"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/term"
	"github.com/cqlang/cq-engine/cq/tuple"
)

// memOp is an in-memory streaming Operator used to test downstream
// operators without touching the filesystem, in the spirit of the
// teacher's mockIterator (datalog/executor/buffered_iterator_test.go).
type memOp struct {
	rel  atom.RelationalAtom
	rows []tuple.Tuple
	idx  int
}

func newMemOp(rel atom.RelationalAtom, rows ...tuple.Tuple) *memOp {
	return &memOp{rel: rel, rows: rows}
}

func (m *memOp) Atoms() []atom.RelationalAtom { return []atom.RelationalAtom{m.rel} }
func (m *memOp) Open() error                  { return nil }
func (m *memOp) Reset() error                 { m.idx = 0; return nil }
func (m *memOp) Close() error                 { return nil }
func (m *memOp) Dump(w io.Writer) error { return nil }

func (m *memOp) Next() (tuple.Tuple, bool, error) {
	if m.idx >= len(m.rows) {
		return nil, false, nil
	}
	t := m.rows[m.idx]
	m.idx++
	return t, true, nil
}

func v(name string) term.Variable { return term.Variable{Name: name} }
func i(n int64) term.IntConst     { return term.IntConst{Value: n} }
func str(s string) term.StrConst  { return term.StrConst{Value: s} }

func tup(terms ...term.Term) tuple.Tuple { return tuple.Tuple(terms) }

func drain(t *testing.T, op Operator) []tuple.Tuple {
	t.Helper()
	var out []tuple.Tuple
	for {
		row, ok, err := op.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, row)
	}
}

func TestSelectFiltersByComparison(t *testing.T) {
	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("a"), v("b")}}
	child := newMemOp(rel, tup(i(1), i(2)), tup(i(3), i(2)), tup(i(5), i(6)))
	preds := []atom.ComparisonAtom{{Left: v("a"), Op: atom.GT, Right: i(1)}}

	sel := NewSelect(rel, preds, child)
	if err := sel.Open(); err != nil {
		t.Fatal(err)
	}
	rows := drain(t, sel)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
}

func TestJoinEquiJoinOnSharedVariable(t *testing.T) {
	// R(a,b), S(b,c) joined on the shared b only; no explicit predicate
	rAtom := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("a"), v("b")}}
	sAtom := atom.RelationalAtom{Name: "S", Terms: []term.Term{v("b"), v("c")}}

	outer := newMemOp(rAtom, tup(i(1), i(2)), tup(i(3), i(2)), tup(i(5), i(6)))
	inner := newMemOp(sAtom, tup(i(2), i(10)), tup(i(6), i(20)))

	join := NewJoin([]atom.RelationalAtom{rAtom}, sAtom, outer, inner, nil)
	if err := join.Open(); err != nil {
		t.Fatal(err)
	}
	rows := drain(t, join)
	if len(rows) != 3 {
		t.Fatalf("expected 3 joined rows (before the a>1 filter), got %d: %v", len(rows), rows)
	}
}

func TestProjectDeduplicates(t *testing.T) {
	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("a")}}
	child := newMemOp(rel, tup(str("x")), tup(str("x")), tup(str("y")))

	proj := NewProject([]atom.RelationalAtom{rel}, []term.Term{v("a")}, child)
	if err := proj.Open(); err != nil {
		t.Fatal(err)
	}
	rows := drain(t, proj)
	if len(rows) != 2 {
		t.Fatalf("expected 2 distinct rows, got %d: %v", len(rows), rows)
	}
	if rows[0][0].(term.StrConst).Value != "x" || rows[1][0].(term.StrConst).Value != "y" {
		t.Fatalf("expected first-occurrence order, got %v", rows)
	}
}

func TestSumAggregateGroupBy(t *testing.T) {
	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("k"), v("val")}}
	child := newMemOp(rel, tup(str("a"), i(1)), tup(str("a"), i(2)), tup(str("b"), i(5)))

	agg := NewSumAggregate([]atom.RelationalAtom{rel}, []term.Term{v("k")}, []term.Term{v("val")}, child)
	if err := agg.Open(); err != nil {
		t.Fatal(err)
	}
	rows := drain(t, agg)
	sums := map[string]int64{}
	for _, row := range rows {
		sums[row[0].(term.StrConst).Value] = row[1].(term.IntConst).Value
	}
	if sums["a"] != 3 || sums["b"] != 5 {
		t.Fatalf("unexpected sums: %v", sums)
	}
}

func TestSumAggregateProductNoGroupBy(t *testing.T) {
	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("a"), v("b")}}
	child := newMemOp(rel, tup(i(2), i(3)), tup(i(4), i(5)))

	agg := NewSumAggregate([]atom.RelationalAtom{rel}, nil, []term.Term{v("a"), v("b")}, child)
	if err := agg.Open(); err != nil {
		t.Fatal(err)
	}
	rows := drain(t, agg)
	if len(rows) != 1 || rows[0][0].(term.IntConst).Value != 26 {
		t.Fatalf("expected single row [26], got %v", rows)
	}
}

func TestSumAggregateEmptyInputEmitsZero(t *testing.T) {
	rel := atom.RelationalAtom{Name: "R", Terms: []term.Term{v("a")}}
	child := newMemOp(rel)

	agg := NewSumAggregate([]atom.RelationalAtom{rel}, nil, []term.Term{v("a")}, child)
	if err := agg.Open(); err != nil {
		t.Fatal(err)
	}
	rows := drain(t, agg)
	if len(rows) != 1 || rows[0][0].(term.IntConst).Value != 0 {
		t.Fatalf("expected single zero row, got %v", rows)
	}
}
