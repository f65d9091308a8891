// Package atom implements the relational-atom and comparison-atom model
// that sits on top of cq/term: RelationalAtom, ComparisonAtom,
// SumAggregate, and the Query that bundles a head atom with a body of
// atoms.
package atom

import (
	"fmt"
	"strings"

	"github.com/cqlang/cq-engine/cq/term"
)

// RelationalAtom is a named predicate applied to an ordered sequence of
// terms, e.g. R(x, y, 3). Arity is len(Terms). The optional SumAggregate
// only appears on a query's head atom.
type RelationalAtom struct {
	Name         string
	Terms        []term.Term
	SumAggregate *SumAggregate
}

// Arity returns the number of terms (columns) of the atom.
func (a RelationalAtom) Arity() int { return len(a.Terms) }

// Equal reports whether two atoms have the same name and term sequence.
// The optional SumAggregate is not considered (it never appears on body
// atoms, and head-atom equality for plan caching is handled separately).
func (a RelationalAtom) Equal(o RelationalAtom) bool {
	if a.Name != o.Name || len(a.Terms) != len(o.Terms) {
		return false
	}
	for i := range a.Terms {
		if !a.Terms[i].Equal(o.Terms[i]) {
			return false
		}
	}
	return true
}

func (a RelationalAtom) String() string {
	parts := make([]string, len(a.Terms))
	for i, t := range a.Terms {
		parts[i] = t.String()
	}
	body := strings.Join(parts, ", ")
	if a.SumAggregate != nil {
		if body == "" {
			body = a.SumAggregate.String()
		} else {
			body = body + ", " + a.SumAggregate.String()
		}
	}
	return fmt.Sprintf("%s(%s)", a.Name, body)
}

// Variables returns the distinct variable terms appearing in the atom,
// in first-occurrence order.
func (a RelationalAtom) Variables() []term.Variable {
	seen := make(map[string]bool)
	var out []term.Variable
	for _, t := range a.Terms {
		if v, ok := t.(term.Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v)
		}
	}
	return out
}

// SumAggregate is the optional head aggregate: Σ over all result tuples
// of the product of the resolved ProductTerms. Each ProductTerm is
// either a Variable bound by some body relational atom, or an IntConst.
type SumAggregate struct {
	ProductTerms []term.Term
}

func (s SumAggregate) String() string {
	parts := make([]string, len(s.ProductTerms))
	for i, t := range s.ProductTerms {
		parts[i] = t.String()
	}
	return "SUM(" + strings.Join(parts, "*") + ")"
}

// ComparisonOperator enumerates the comparison atom operators.
type ComparisonOperator uint8

const (
	EQ ComparisonOperator = iota
	NEQ
	LT
	LEQ
	GT
	GEQ
)

func (op ComparisonOperator) String() string {
	switch op {
	case EQ:
		return "="
	case NEQ:
		return "!="
	case LT:
		return "<"
	case LEQ:
		return "<="
	case GT:
		return ">"
	case GEQ:
		return ">="
	default:
		return "?"
	}
}

// ParseComparisonOperator maps the query-text spelling to an operator.
func ParseComparisonOperator(s string) (ComparisonOperator, bool) {
	switch s {
	case "=":
		return EQ, true
	case "!=":
		return NEQ, true
	case "<":
		return LT, true
	case "<=":
		return LEQ, true
	case ">":
		return GT, true
	case ">=":
		return GEQ, true
	default:
		return 0, false
	}
}

// ComparisonAtom is a binary comparison between two terms.
type ComparisonAtom struct {
	Left  term.Term
	Op    ComparisonOperator
	Right term.Term
}

func (c ComparisonAtom) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// Variables returns the distinct variables referenced by the atom, in
// left-then-right order.
func (c ComparisonAtom) Variables() []term.Variable {
	var out []term.Variable
	if v, ok := c.Left.(term.Variable); ok {
		out = append(out, v)
	}
	if v, ok := c.Right.(term.Variable); ok {
		for _, existing := range out {
			if existing.Name == v.Name {
				return out
			}
		}
		out = append(out, v)
	}
	return out
}

// Atom is implemented by RelationalAtom and ComparisonAtom; it is the
// element type of a Query's body.
type Atom interface {
	isAtom()
}

func (RelationalAtom) isAtom()  {}
func (ComparisonAtom) isAtom()  {}

// Query is a conjunctive query: a head relational atom (whose terms are
// the variables exposed to the client, optionally with an attached
// SumAggregate) and an ordered body of relational and comparison atoms.
type Query struct {
	Head RelationalAtom
	Body []Atom
}

// RelationalBody returns the RelationalAtom elements of the body, in
// order, skipping comparison atoms.
func (q Query) RelationalBody() []RelationalAtom {
	var out []RelationalAtom
	for _, a := range q.Body {
		if r, ok := a.(RelationalAtom); ok {
			out = append(out, r)
		}
	}
	return out
}

// ComparisonBody returns the ComparisonAtom elements of the body, in
// order, skipping relational atoms.
func (q Query) ComparisonBody() []ComparisonAtom {
	var out []ComparisonAtom
	for _, a := range q.Body {
		if c, ok := a.(ComparisonAtom); ok {
			out = append(out, c)
		}
	}
	return out
}

// String renders the query in the textual form accepted by cq/parser.
func (q Query) String() string {
	parts := make([]string, len(q.Body))
	for i, a := range q.Body {
		switch v := a.(type) {
		case RelationalAtom:
			parts[i] = v.String()
		case ComparisonAtom:
			parts[i] = v.String()
		}
	}
	return fmt.Sprintf("%s :- %s", q.Head, strings.Join(parts, ", "))
}
