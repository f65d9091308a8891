// Package planner translates a conjunctive query into a left-deep tree
// of cq/operator values that can be streamed to produce its answer
// (§4.4). It normalizes the query, pushes standalone comparisons down
// onto the relation(s) they constrain, groups the remaining join
// predicates onto the relation that completes them, and wraps the
// resulting join tree in a Project or SumAggregate root depending on
// the query head.
package planner

import (
	"fmt"

	"github.com/cqlang/cq-engine/cq/atom"
	"github.com/cqlang/cq-engine/cq/catalog"
	"github.com/cqlang/cq-engine/cq/cqerr"
	"github.com/cqlang/cq-engine/cq/operator"
	"github.com/cqlang/cq-engine/cq/term"
)

// Planner builds operator trees for queries against a fixed catalog,
// optionally consulting a plan Cache and a catalog.ScanCache.
type Planner struct {
	catalog   *catalog.Catalog
	scanCache *catalog.ScanCache
	planCache *Cache
}

// New builds a Planner over cat. scanCache and planCache may both be
// nil; every consumer is nil-safe.
func New(cat *catalog.Catalog, scanCache *catalog.ScanCache, planCache *Cache) *Planner {
	return &Planner{catalog: cat, scanCache: scanCache, planCache: planCache}
}

// Plan builds the operator tree for q. If a plan cache is configured
// and holds an entry for q's canonical shape, the cached tree shape is
// reused (§4.4's memoization note); otherwise a fresh tree is built and,
// on success, stored back into the cache.
func (p *Planner) Plan(q atom.Query) (operator.Operator, error) {
	if p.planCache != nil {
		if plan, ok := p.planCache.Get(q); ok {
			return p.instantiate(plan)
		}
	}

	plan, err := buildPlan(q)
	if err != nil {
		return nil, err
	}
	if p.planCache != nil {
		p.planCache.Put(q, plan)
	}
	return p.instantiate(plan)
}

// plan is the planner's intermediate, catalog-independent
// representation: everything needed to instantiate an operator tree,
// without re-running normalization/classification/tree-shaping.
type plan struct {
	relAtoms   []atom.RelationalAtom
	selections [][]atom.ComparisonAtom
	joins      [][]atom.ComparisonAtom
	head       atom.RelationalAtom
}

// buildPlan runs the catalog-independent stages of planning: normalize,
// classify, and validate safety. The result can be cached and later
// turned into an operator tree against any catalog with matching
// relation names.
func buildPlan(q atom.Query) (plan, error) {
	normalized := Normalize(q)
	relAtoms := normalized.RelationalBody()
	if len(relAtoms) == 0 {
		return plan{}, cqerr.New(cqerr.ErrMalformedInput, "query body has no relational atoms")
	}

	cls, err := classify(relAtoms, normalized.ComparisonBody())
	if err != nil {
		return plan{}, err
	}

	if err := validateSafety(normalized.Head, relAtoms); err != nil {
		return plan{}, err
	}

	return plan{
		relAtoms:   relAtoms,
		selections: cls.selections,
		joins:      cls.joinPredicates,
		head:       normalized.Head,
	}, nil
}

// validateSafety checks that every variable exposed by head (its
// projected terms, and any SumAggregate product/group-by terms) is
// bound by some body relational atom (§3's safety invariant).
func validateSafety(head atom.RelationalAtom, relAtoms []atom.RelationalAtom) error {
	bound := make(map[string]bool)
	for _, r := range relAtoms {
		for _, v := range r.Variables() {
			bound[v.Name] = true
		}
	}

	check := func(t term.Term) error {
		v, ok := t.(term.Variable)
		if !ok {
			return nil
		}
		if !bound[v.Name] {
			return cqerr.New(cqerr.ErrMalformedInput,
				fmt.Sprintf("head variable %s is unsafe: not bound by any body atom", v.Name))
		}
		return nil
	}

	for _, t := range head.Terms {
		if err := check(t); err != nil {
			return err
		}
	}
	if head.SumAggregate != nil {
		for _, t := range head.SumAggregate.ProductTerms {
			if err := check(t); err != nil {
				return err
			}
		}
	}
	return nil
}

// instantiate turns a catalog-independent plan into a live operator
// tree, resolving each relation name against p.catalog.
func (p *Planner) instantiate(pl plan) (operator.Operator, error) {
	leaves := make([]operator.Operator, len(pl.relAtoms))
	for i, r := range pl.relAtoms {
		schema, ok := p.catalog.Relation(r.Name)
		if !ok {
			return nil, cqerr.New(cqerr.ErrCatalog, fmt.Sprintf("unknown relation %q", r.Name))
		}
		if schema.Arity() != r.Arity() {
			return nil, cqerr.New(cqerr.ErrCatalog,
				fmt.Sprintf("relation %q has arity %d, query uses arity %d", r.Name, schema.Arity(), r.Arity()))
		}

		var leaf operator.Operator = operator.NewScan(schema, r, p.scanCache)
		if preds := pl.selections[i]; len(preds) > 0 {
			leaf = operator.NewSelect(r, preds, leaf)
		}
		leaves[i] = leaf
	}

	cur := leaves[0]
	leftAtoms := []atom.RelationalAtom{pl.relAtoms[0]}
	for i := 1; i < len(leaves); i++ {
		cur = operator.NewJoin(leftAtoms, pl.relAtoms[i], cur, leaves[i], pl.joins[i])
		leftAtoms = append(leftAtoms, pl.relAtoms[i])
	}

	if pl.head.SumAggregate != nil {
		return operator.NewSumAggregate(leftAtoms, pl.head.Terms, pl.head.SumAggregate.ProductTerms, cur), nil
	}
	return operator.NewProject(leftAtoms, pl.head.Terms, cur), nil
}
