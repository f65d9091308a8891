package operator

import (
	"fmt"

	"github.com/cqlang/cq-engine/cq/cqerr"
	"github.com/cqlang/cq-engine/cq/term"
)

// unresolvedTermError reports a term that resolved to nothing: a
// projected or grouped variable that does not appear in any body
// relational atom. The planner validates this ahead of time (§4.4), so
// reaching here at runtime indicates a planner bug.
func unresolvedTermError(t term.Term) error {
	return cqerr.New(cqerr.ErrPlannerInvariant, fmt.Sprintf("term %s has no binding", t))
}
