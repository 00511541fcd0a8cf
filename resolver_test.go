package tangle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tangle-db/tangle/jx"
)

func rec(v any) *Meta {
	return &Meta{Value: v, State: 1}
}

func TestResolveEqualValues(t *testing.T) {
	a, b := rec("same"), rec("same")
	assert.Same(t, a, resolve(a, b))
}

func TestResolveObjectBeatsScalar(t *testing.T) {
	obj := rec(map[string]any{"edge": "u1"})
	str := rec("zzzz")
	assert.Same(t, obj, resolve(obj, str))
	assert.Same(t, obj, resolve(str, obj))
}

func TestResolveObjectsByCanonicalForm(t *testing.T) {
	a := rec(map[string]any{"edge": "aaa"})
	b := rec(map[string]any{"edge": "bbb"})
	assert.Same(t, b, resolve(a, b))
	assert.Same(t, b, resolve(b, a))
}

func TestResolveScalarsByCanonicalForm(t *testing.T) {
	a, b := rec("a"), rec("b")
	assert.Same(t, b, resolve(a, b))
	assert.Same(t, b, resolve(b, a))
}

func TestResolveNumberBeatsItsStringForm(t *testing.T) {
	num := rec(float64(5))
	str := rec("5")
	assert.Same(t, num, resolve(num, str))
	assert.Same(t, num, resolve(str, num))
}

func TestResolveTotality(t *testing.T) {
	values := []any{
		nil, true, false,
		float64(0), float64(5), float64(-3.25), float64(1e21),
		"", "5", "ada", "zzz",
		[]any{float64(1), "two"},
		[]any{},
		map[string]any{},
		map[string]any{"edge": "u1"},
		map[string]any{"a": float64(1), "b": []any{nil}},
	}
	for i, av := range values {
		for j, bv := range values {
			a, b := rec(av), rec(bv)
			w1 := resolve(a, b)
			w2 := resolve(b, a)
			assert.True(t, w1 == a || w1 == b, "case %d/%d", i, j)
			assert.True(t, jx.Equal(w1.Value, w2.Value),
				"case %d/%d: order of arguments changed the winner", i, j)
		}
	}
}
