// Package cqerr defines the closed error taxonomy shared across the
// minimizer and evaluator pipelines: MalformedInput, Catalog,
// Io, TupleShape, TypeMismatch, and PlannerInvariant. Each is a sentinel
// error; layers wrap it with fmt.Errorf("...: %w", err) the way the
// teacher wraps storage/planner errors (datalog/storage/database.go),
// and callers classify an error with errors.Is against the sentinels
// below regardless of how many layers it passed through.
package cqerr

import "errors"

var (
	// ErrMalformedInput covers a null/empty parsed query, a head
	// variable missing from the body, a projected variable absent from
	// every relational atom, or a non-numeric product term.
	ErrMalformedInput = errors.New("malformed input")

	// ErrCatalog covers a missing schema file, a malformed schema line,
	// or an unknown column type name.
	ErrCatalog = errors.New("catalog error")

	// ErrIO covers a missing CSV file or a read failure.
	ErrIO = errors.New("io error")

	// ErrTupleShape covers a CSV row whose field count doesn't match
	// the schema arity, or an integer parse failure.
	ErrTupleShape = errors.New("tuple shape error")

	// ErrTypeMismatch covers a comparison between different constant
	// types, or a non-integer value reaching SumAggregate.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrPlannerInvariant covers a join predicate whose term belongs to
	// no known relation, or a comparison atom that straddles relations
	// while classified as standalone. Seeing this indicates a planner
	// bug, not bad input.
	ErrPlannerInvariant = errors.New("planner invariant violated")
)

// QueryError wraps a sentinel kind with a message and an optional
// underlying cause, so errors.Is(err, cqerr.ErrCatalog) works no matter
// how deep the wrap chain is, while Error() still reads as one message.
type QueryError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *QueryError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the taxonomy kind first and then the cause (if any), so
// errors.Is(err, Kind) matches directly and errors.Is/As can also walk
// to whatever the cause wraps.
func (e *QueryError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// New builds a QueryError of the given kind.
func New(kind error, message string) error {
	return &QueryError{Kind: kind, Message: message}
}

// Wrap builds a QueryError of the given kind around a lower-level cause.
func Wrap(kind error, message string, cause error) error {
	return &QueryError{Kind: kind, Message: message, Cause: cause}
}
