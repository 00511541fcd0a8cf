package tangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDSourceYieldsUniqueIds(t *testing.T) {
	src := UUIDSource{}
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		uid := src.NewUid()
		assert.False(t, seen[uid])
		seen[uid] = true
	}
}

func TestULIDSourceYieldsUniqueIds(t *testing.T) {
	src := ULIDSource{}
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		uid := src.NewUid()
		assert.False(t, seen[uid])
		seen[uid] = true
	}
}
