// Package tuple defines the Tuple type flowing through cq/operator's
// pipeline: an ordered vector of constant terms, one per column of the
// concatenation of the relational atoms the producing operator is
// "labeled" with. Tuples carry positions, not column names.
package tuple

import (
	"strconv"
	"strings"

	"github.com/cqlang/cq-engine/cq/term"
)

// Tuple is an ordered sequence of constant terms (term.IntConst or
// term.StrConst never term.Variable).
type Tuple []term.Term

// Equal reports positional equality.
func (t Tuple) Equal(o Tuple) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if !t[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Key returns a string uniquely identifying the tuple's contents, used
// by Project and SumAggregate for set/map membership.
func (t Tuple) Key() string {
	var b strings.Builder
	for _, v := range t {
		b.WriteByte(byte(v.Kind()))
		b.WriteString(v.String())
		b.WriteByte(0)
	}
	return b.String()
}

// Format renders the tuple as the comma-separated output line described
// strings without surrounding quotes, integers in decimal.
func (t Tuple) Format() string {
	parts := make([]string, len(t))
	for i, v := range t {
		switch c := v.(type) {
		case term.IntConst:
			parts[i] = strconv.FormatInt(c.Value, 10)
		case term.StrConst:
			parts[i] = c.Value
		default:
			parts[i] = v.String()
		}
	}
	return strings.Join(parts, ", ")
}

// Append concatenates two tuples, as Join does for its outer and inner
// tuples.
func Append(left, right Tuple) Tuple {
	out := make(Tuple, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}
