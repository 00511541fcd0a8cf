// Package jx defines the JSON value universe the merge algebra works
// over: kind tagging, canonical serialization, deep equality and
// content hashing. Canonical forms are stable across replicas; the
// conflict resolver's total order is defined on them.
package jx

import (
	"math"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/tangle-db/tangle/tangle_errors"
)

type Kind byte

const (
	Invalid Kind = iota
	Null
	Bool
	Number
	String
	Array
	Object
)

// values nested deeper than this are assumed to be cyclic
const maxDepth = 1000

// KindOf tags a Go value with its JSON kind. Numeric Go types all
// collapse into Number; anything outside the JSON universe is Invalid.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return Null
	case bool:
		return Bool
	case float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return Number
	case string:
		return String
	case []any:
		return Array
	case map[string]any:
		return Object
	default:
		return Invalid
	}
}

func numval(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return 0
}

// Valid reports whether v can be canonicalized: every nested value is
// JSON-encodable, every number is finite, nesting is acyclic.
func Valid(v any) error {
	return valid(v, 0)
}

func valid(v any, depth int) error {
	if depth > maxDepth {
		return tangle_errors.ErrInvalidValue
	}
	switch KindOf(v) {
	case Null, Bool, String:
		return nil
	case Number:
		f := numval(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return tangle_errors.ErrInvalidValue
		}
		return nil
	case Array:
		for _, el := range v.([]any) {
			if err := valid(el, depth+1); err != nil {
				return err
			}
		}
		return nil
	case Object:
		for _, el := range v.(map[string]any) {
			if err := valid(el, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return tangle_errors.ErrInvalidValue
	}
}

// Canon returns the canonical serialized form of v: object keys
// sorted, numbers in shortest round-trip decimal, strings escaped.
func Canon(v any) (string, error) {
	b, err := AppendCanon(nil, v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func AppendCanon(dst []byte, v any) ([]byte, error) {
	return appendCanon(dst, v, 0)
}

func appendCanon(dst []byte, v any, depth int) ([]byte, error) {
	if depth > maxDepth {
		return nil, tangle_errors.ErrInvalidValue
	}
	switch KindOf(v) {
	case Null:
		return append(dst, "null"...), nil
	case Bool:
		if v.(bool) {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case Number:
		f := numval(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, tangle_errors.ErrInvalidValue
		}
		return strconv.AppendFloat(dst, f, 'g', -1, 64), nil
	case String:
		return appendEscaped(dst, v.(string)), nil
	case Array:
		dst = append(dst, '[')
		for i, el := range v.([]any) {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			dst, err = appendCanon(dst, el, depth+1)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case Object:
		obj := v.(map[string]any)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dst = append(dst, '{')
		for i, k := range keys {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendEscaped(dst, k)
			dst = append(dst, ':')
			var err error
			dst, err = appendCanon(dst, obj[k], depth+1)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil
	default:
		return nil, tangle_errors.ErrInvalidValue
	}
}

const hex = "0123456789abcdef"

func appendEscaped(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, b := range []byte(s) {
		switch b {
		case '\\', '"':
			dst = append(dst, '\\', b)
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case 0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0x8, 0xb, 0xc, 0xe, 0xf,
			0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18, 0x19, 0x1a,
			0x1b, 0x1c, 0x1d, 0x1e, 0x1f:
			dst = append(dst, '\\', 'u', '0', '0', hex[b>>4], hex[b&0xF])
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, '"')
}

// Hash returns the xxhash of the canonical form.
func Hash(v any) (uint64, error) {
	b, err := AppendCanon(nil, v)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(b), nil
}

// Equal is deep JSON equality: same canonical form. Values that
// cannot be canonicalized are equal to nothing, themselves included.
func Equal(a, b any) bool {
	ab, err := AppendCanon(nil, a)
	if err != nil {
		return false
	}
	bb, err := AppendCanon(nil, b)
	if err != nil {
		return false
	}
	if xxhash.Sum64(ab) != xxhash.Sum64(bb) {
		return false
	}
	return string(ab) == string(bb)
}

// Copy deep-copies a JSON value so the result shares no mutable
// storage with the argument.
func Copy(v any) any {
	switch KindOf(v) {
	case Array:
		src := v.([]any)
		dst := make([]any, len(src))
		for i, el := range src {
			dst[i] = Copy(el)
		}
		return dst
	case Object:
		src := v.(map[string]any)
		dst := make(map[string]any, len(src))
		for k, el := range src {
			dst[k] = Copy(el)
		}
		return dst
	default:
		return v
	}
}
