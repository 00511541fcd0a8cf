package jx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tangle-db/tangle/tangle_errors"
)

func TestCanonScalars(t *testing.T) {
	c, err := Canon(nil)
	assert.NoError(t, err)
	assert.Equal(t, "null", c)

	c, err = Canon(true)
	assert.NoError(t, err)
	assert.Equal(t, "true", c)

	c, err = Canon(float64(5))
	assert.NoError(t, err)
	assert.Equal(t, "5", c)

	c, err = Canon("5")
	assert.NoError(t, err)
	assert.Equal(t, "\"5\"", c)

	c, err = Canon("fcuk\n\"zis\"\n")
	assert.NoError(t, err)
	assert.Equal(t, "\"fcuk\\n\\\"zis\\\"\\n\"", c)
}

func TestCanonSortsKeys(t *testing.T) {
	c, err := Canon(map[string]any{"b": float64(2), "a": float64(1)})
	assert.NoError(t, err)
	assert.Equal(t, "{\"a\":1,\"b\":2}", c)

	c, err = Canon([]any{float64(1), "x", nil})
	assert.NoError(t, err)
	assert.Equal(t, "[1,\"x\",null]", c)
}

func TestCanonIntKindsCollapse(t *testing.T) {
	a, err := Canon(5)
	assert.NoError(t, err)
	b, err := Canon(float64(5))
	assert.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, Equal(int64(5), float64(5)))
}

func TestInvalidValues(t *testing.T) {
	assert.ErrorIs(t, Valid(math.NaN()), tangle_errors.ErrInvalidValue)
	assert.ErrorIs(t, Valid(math.Inf(1)), tangle_errors.ErrInvalidValue)
	assert.ErrorIs(t, Valid(math.Inf(-1)), tangle_errors.ErrInvalidValue)
	assert.ErrorIs(t, Valid(struct{}{}), tangle_errors.ErrInvalidValue)
	assert.ErrorIs(t, Valid(map[string]any{"x": math.NaN()}), tangle_errors.ErrInvalidValue)
	assert.NoError(t, Valid(map[string]any{"x": []any{float64(1), "y"}}))

	cyclic := map[string]any{}
	cyclic["self"] = cyclic
	assert.ErrorIs(t, Valid(cyclic), tangle_errors.ErrInvalidValue)
	_, err := Canon(cyclic)
	assert.ErrorIs(t, err, tangle_errors.ErrInvalidValue)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(
		map[string]any{"a": []any{float64(1)}, "b": "x"},
		map[string]any{"b": "x", "a": []any{float64(1)}},
	))
	assert.False(t, Equal(float64(5), "5"))
	assert.False(t, Equal(nil, false))
}

func TestHashMatchesEquality(t *testing.T) {
	h1, err := Hash(map[string]any{"a": float64(1)})
	assert.NoError(t, err)
	h2, err := Hash(map[string]any{"a": float64(1)})
	assert.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestCopyDoesNotAlias(t *testing.T) {
	src := map[string]any{"list": []any{float64(1)}, "obj": map[string]any{"k": "v"}}
	dst := Copy(src).(map[string]any)
	dst["obj"].(map[string]any)["k"] = "changed"
	dst["list"].([]any)[0] = float64(9)
	assert.Equal(t, "v", src["obj"].(map[string]any)["k"])
	assert.Equal(t, float64(1), src["list"].([]any)[0])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Null, KindOf(nil))
	assert.Equal(t, Bool, KindOf(false))
	assert.Equal(t, Number, KindOf(float64(0)))
	assert.Equal(t, Number, KindOf(7))
	assert.Equal(t, String, KindOf(""))
	assert.Equal(t, Array, KindOf([]any{}))
	assert.Equal(t, Object, KindOf(map[string]any{}))
	assert.Equal(t, Invalid, KindOf(make(chan int)))
}
