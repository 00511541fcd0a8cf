package tangle

import (
	"github.com/tangle-db/tangle/jx"
)

// resolve picks the winner between two field records carrying equal
// states. The order is total, antisymmetric and independent of which
// replica asks, so every replica converges on the same record.
//
// Non-finite numbers never reach this point; values are validated at
// the merge boundary.
func resolve(a, b *Meta) *Meta {
	if jx.Equal(a.Value, b.Value) {
		return a
	}

	ca, err := jx.Canon(a.Value)
	if err != nil {
		return a
	}
	cb, err := jx.Canon(b.Value)
	if err != nil {
		return a
	}

	aobj := jx.KindOf(a.Value) == jx.Object
	bobj := jx.KindOf(b.Value) == jx.Object

	switch {
	case aobj && bobj:
		if cb > ca {
			return b
		}
		return a
	case aobj:
		return a
	case bobj:
		return b
	}

	if ca != cb {
		if cb > ca {
			return b
		}
		return a
	}

	// same canonical form, different kinds: the non-string side wins
	if jx.KindOf(a.Value) == jx.String && jx.KindOf(b.Value) != jx.String {
		return b
	}
	return a
}
