// Package homomorphism implements the search step of core computation:
// deciding whether a candidate reduced query q′ = q − {a} is equivalent
// to q, by searching for a homomorphism from q's body into q′'s body
// that fixes the head variables.
package homomorphism

import (
	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/term"
)

// assignment maps a variable name to the term it is bound to.
type assignment map[string]term.Term

// frame is one node of the explicit DFS worklist: the index of the next
// unassigned variable to bind, and the partial assignment built so far.
type frame struct {
	idx   int
	bound assignment
}

// Exists decides whether there is a homomorphism h : q → qPrime with
// h fixing every head variable, where qPrime is assumed to be q with
// removed deleted from its body (qPrime = q − {removed}).
//
// The search only needs to rebind the variables of removed that do not
// occur in the head (§4.1 step 1); every other variable, including every
// other body atom's variables, is held fixed. A witness is any total
// function from those variables to candidate terms drawn from same-name
// atoms in qPrime's body, such that substituting it into the whole of
// q's body collapses (by exact-duplicate removal) to exactly qPrime's
// atom set.
func Exists(q atom.Query, qPrime atom.Query, removed atom.RelationalAtom) bool {
	headVars := make(map[string]bool)
	for _, t := range q.Head.Terms {
		if v, ok := t.(term.Variable); ok {
			headVars[v.Name] = true
		}
	}

	var v []term.Variable
	seen := make(map[string]bool)
	for _, rv := range removed.Variables() {
		if !headVars[rv.Name] && !seen[rv.Name] {
			seen[rv.Name] = true
			v = append(v, rv)
		}
	}

	qPrimeBody := qPrime.RelationalBody()

	candidates := candidateTerms(removed.Name, qPrimeBody, seen)

	if len(v) == 0 {
		return matches(q.RelationalBody(), nil, qPrimeBody)
	}
	if len(candidates) == 0 {
		return false
	}

	qBody := q.RelationalBody()

	stack := []frame{{idx: 0, bound: assignment{}}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.idx == len(v) {
			if matches(qBody, top.bound, qPrimeBody) {
				return true
			}
			continue
		}

		variable := v[top.idx]
		for _, c := range candidates {
			next := make(assignment, len(top.bound)+1)
			for k, val := range top.bound {
				next[k] = val
			}
			next[variable.Name] = c
			stack = append(stack, frame{idx: top.idx + 1, bound: next})
		}
	}
	return false
}

// candidateTerms collects the distinct terms appearing anywhere in a
// same-named relational atom of body, excluding the variables in
// exclude (the over-approximation described in §4.1 step 2: any valid
// homomorphism must map removed into some same-name atom of q′).
func candidateTerms(name string, body []atom.RelationalAtom, exclude map[string]bool) []term.Term {
	var out []term.Term
	dedup := make(map[string]bool)
	for _, a := range body {
		if a.Name != name {
			continue
		}
		for _, t := range a.Terms {
			if v, ok := t.(term.Variable); ok && exclude[v.Name] {
				continue
			}
			key := t.Kind().String() + ":" + t.String()
			if dedup[key] {
				continue
			}
			dedup[key] = true
			out = append(out, t)
		}
	}
	return out
}

// apply substitutes bound[v] for every occurrence of variable v in a,
// leaving everything else untouched.
func apply(a atom.RelationalAtom, bound assignment) atom.RelationalAtom {
	if len(bound) == 0 {
		return a
	}
	out := atom.RelationalAtom{Name: a.Name, Terms: make([]term.Term, len(a.Terms))}
	for i, t := range a.Terms {
		if v, ok := t.(term.Variable); ok {
			if repl, found := bound[v.Name]; found {
				out.Terms[i] = repl
				continue
			}
		}
		out.Terms[i] = t
	}
	return out
}

// matches substitutes bound into every atom of qBody, deduplicates the
// result (a homomorphism may map two distinct atoms onto the same
// target atom), and checks that the deduplicated image is exactly the
// atom set of qPrimeBody.
func matches(qBody []atom.RelationalAtom, bound assignment, qPrimeBody []atom.RelationalAtom) bool {
	image := make([]atom.RelationalAtom, len(qBody))
	for i, a := range qBody {
		image[i] = apply(a, bound)
	}
	return atom.EqualAsMultiset(dedupAtoms(image), dedupAtoms(qPrimeBody))
}

// dedupAtoms removes exact-duplicate atoms, preserving first-occurrence
// order (order does not matter to EqualAsMultiset, but determinism
// helps tests and debugging).
func dedupAtoms(atoms []atom.RelationalAtom) []atom.RelationalAtom {
	var out []atom.RelationalAtom
	for _, a := range atoms {
		dup := false
		for _, o := range out {
			if a.Equal(o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}
