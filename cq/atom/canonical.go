package atom

import (
	"sort"
	"strings"

	"github.com/cqlang/cq-engine/cq/codec"
)

// CanonicalKey returns a total, order-preserving string key for a as a
// bag member: serialize (name, terms...) as tagged bytes, then run the
// L85 order-preserving encoding over it. Atoms with equal (name, terms)
// always produce the same key, and the key space has a genuine total
// order (ordinary Go string comparison), unlike sorting by a hash code.
func CanonicalKey(a RelationalAtom) string {
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteByte(0)
	for _, t := range a.Terms {
		b.WriteByte(byte(t.Kind()))
		b.WriteString(t.String())
		b.WriteByte(0)
	}
	return codec.EncodeL85([]byte(b.String()))
}

// SortedByCanonicalKey returns a copy of atoms sorted by CanonicalKey,
// giving a deterministic, stable ordering for multiset comparison.
func SortedByCanonicalKey(atoms []RelationalAtom) []RelationalAtom {
	out := append([]RelationalAtom(nil), atoms...)
	sort.Slice(out, func(i, j int) bool {
		return CanonicalKey(out[i]) < CanonicalKey(out[j])
	})
	return out
}

// EqualAsMultiset reports whether a and b contain the same atoms with
// the same multiplicities, regardless of order. Duplicate atoms are
// faithfully compared (duplicates collapse to the same effect under CQ
// semantics, but §4.1 specifies multiset equality so we implement it
// literally: same cardinality, and pairwise equality after canonical
// sorting).
func EqualAsMultiset(a, b []RelationalAtom) bool {
	if len(a) != len(b) {
		return false
	}
	sa := SortedByCanonicalKey(a)
	sb := SortedByCanonicalKey(b)
	for i := range sa {
		if !sa[i].Equal(sb[i]) {
			return false
		}
	}
	return true
}
