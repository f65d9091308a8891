// Package core implements CoreDriver, the outer loop that repeatedly
// removes redundant body atoms from a conjunctive query until no
// further removal preserves equivalence, yielding the query's core.
package core

import (
	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/homomorphism"
)

// Minimize computes an equivalent query with the fewest body atoms.
// The minimizer only operates on relational body atoms; comparison
// atoms (out of scope for the minimizer's input) are
// preserved unchanged and simply carried along untouched.
//
// The outer loop iterates atoms in insertion order. For each relational
// atom a, it tries the candidate reduction q′ = q − {a}; if a
// homomorphism q → q′ exists fixing the head, q′ replaces q and the
// outer loop restarts. The loop terminates when a full pass removes
// nothing, which happens within at most len(body) restarts since the
// body strictly shrinks on every successful removal.
func Minimize(q atom.Query) atom.Query {
	current := q
	for {
		reduced, removedSomething := removeOneAtom(current)
		if !removedSomething {
			return current
		}
		current = reduced
	}
}

// removeOneAtom attempts a single removal pass: it tries every
// relational atom of current's body in order and returns as soon as one
// is found removable.
func removeOneAtom(current atom.Query) (atom.Query, bool) {
	body := current.RelationalBody()
	for _, candidate := range body {
		reducedBody := withoutAtom(current.Body, candidate)
		qPrime := atom.Query{Head: current.Head, Body: reducedBody}
		if homomorphism.Exists(current, qPrime, candidate) {
			return qPrime, true
		}
	}
	return current, false
}

// withoutAtom returns body with the first relational atom structurally
// equal to target removed, preserving order of the rest.
func withoutAtom(body []atom.Atom, target atom.RelationalAtom) []atom.Atom {
	out := make([]atom.Atom, 0, len(body)-1)
	removed := false
	for _, a := range body {
		if !removed {
			if r, ok := a.(atom.RelationalAtom); ok && r.Equal(target) {
				removed = true
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
