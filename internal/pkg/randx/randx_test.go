package randx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyntheticMessageIDsAreUniqueAndNegative(t *testing.T) {
	seen := make(map[int64]struct{})
	for range 1000 {
		id := SyntheticMessageID()
		assert.True(t, IsSynthetic(id))
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}

	assert.False(t, IsSynthetic(42))
}

func TestClientToken(t *testing.T) {
	a, b := ClientToken(), ClientToken()
	assert.NotEqual(t, a, b)
	assert.True(t, IsValidClientToken(a))
	assert.False(t, IsValidClientToken("tmp-1"))
}
