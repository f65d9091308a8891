package planner

import (
	"fmt"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/term"
)

// Normalize rewrites q into an equivalent query whose relational atoms
// contain only pairwise-distinct variables and no embedded constants
// (§4.4, §3 invariant). Each repeated variable occurrence, and each
// embedded constant, is replaced by a fresh variable, with an
// EQ ComparisonAtom recording the equality that was lost.
func Normalize(q atom.Query) atom.Query {
	used := collectVariableNames(q)
	next := 0
	freshVar := func() term.Variable {
		for {
			next++
			name := fmt.Sprintf("_t%d", next)
			if !used[name] {
				used[name] = true
				return term.Variable{Name: name}
			}
		}
	}

	var newBody []atom.Atom
	for _, a := range q.Body {
		switch v := a.(type) {
		case atom.RelationalAtom:
			rewritten, extra := normalizeAtom(v, freshVar)
			newBody = append(newBody, rewritten)
			newBody = append(newBody, extra...)
		case atom.ComparisonAtom:
			newBody = append(newBody, v)
		}
	}

	return atom.Query{Head: q.Head, Body: newBody}
}

// normalizeAtom rewrites a single relational atom's duplicated
// variables and embedded constants, returning the rewritten atom plus
// the comparison atoms that record what was substituted away.
func normalizeAtom(a atom.RelationalAtom, freshVar func() term.Variable) (atom.RelationalAtom, []atom.Atom) {
	seen := make(map[string]bool, len(a.Terms))
	newTerms := make([]term.Term, len(a.Terms))
	var extra []atom.Atom

	for i, t := range a.Terms {
		switch tv := t.(type) {
		case term.Variable:
			if seen[tv.Name] {
				fv := freshVar()
				newTerms[i] = fv
				extra = append(extra, atom.ComparisonAtom{Left: fv, Op: atom.EQ, Right: tv})
			} else {
				seen[tv.Name] = true
				newTerms[i] = tv
			}
		default:
			fv := freshVar()
			newTerms[i] = fv
			extra = append(extra, atom.ComparisonAtom{Left: fv, Op: atom.EQ, Right: t})
		}
	}

	return atom.RelationalAtom{Name: a.Name, Terms: newTerms, SumAggregate: a.SumAggregate}, extra
}

// collectVariableNames gathers every variable name already used in q,
// so fresh names introduced by normalization never collide.
func collectVariableNames(q atom.Query) map[string]bool {
	names := make(map[string]bool)
	addTerm := func(t term.Term) {
		if v, ok := t.(term.Variable); ok {
			names[v.Name] = true
		}
	}
	for _, t := range q.Head.Terms {
		addTerm(t)
	}
	if q.Head.SumAggregate != nil {
		for _, t := range q.Head.SumAggregate.ProductTerms {
			addTerm(t)
		}
	}
	for _, a := range q.Body {
		switch v := a.(type) {
		case atom.RelationalAtom:
			for _, t := range v.Terms {
				addTerm(t)
			}
		case atom.ComparisonAtom:
			addTerm(v.Left)
			addTerm(v.Right)
		}
	}
	return names
}
