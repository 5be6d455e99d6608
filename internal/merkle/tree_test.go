package merkle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/crypto"
)

func blobs(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("blob%d", i))
	}
	return out
}

func TestRoot(t *testing.T) {
	h := func(b []byte) crypto.Hash { return crypto.HashData(b) }
	nodeOf := func(l, r crypto.Hash) crypto.Hash { return crypto.HashConcat([]byte("node"), l[:], r[:]) }

	tests := []struct {
		name     string
		leaves   [][]byte
		expected crypto.Hash
	}{
		{
			name:     "empty",
			leaves:   nil,
			expected: crypto.Hash{},
		},
		{
			name:     "single",
			leaves:   blobs(1),
			expected: h([]byte("blob0")),
		},
		{
			name:     "two",
			leaves:   blobs(2),
			expected: nodeOf(h([]byte("blob0")), h([]byte("blob1"))),
		},
		{
			name:   "three_left_heavy",
			leaves: blobs(3),
			expected: nodeOf(
				nodeOf(h([]byte("blob0")), h([]byte("blob1"))),
				h([]byte("blob2")),
			),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Root(tc.leaves))
		})
	}
}

func TestRootDependsOnOrder(t *testing.T) {
	leaves := blobs(4)
	swapped := [][]byte{leaves[1], leaves[0], leaves[2], leaves[3]}
	assert.NotEqual(t, Root(leaves), Root(swapped))
}

func TestProofVerifies(t *testing.T) {
	for n := 1; n <= 9; n++ {
		leaves := blobs(n)
		root := Root(leaves)
		for i := range leaves {
			path := Proof(leaves, i)
			require.True(t, Verify(root, leaves[i], i, n, path), "leaf %d of %d", i, n)
			assert.False(t, Verify(root, []byte("other"), i, n, path), "leaf %d of %d", i, n)
		}
	}
}

func TestProofRejects(t *testing.T) {
	leaves := blobs(5)
	root := Root(leaves)

	assert.Nil(t, Proof(leaves, -1))
	assert.Nil(t, Proof(leaves, 5))
	assert.Empty(t, Proof(blobs(1), 0))

	path := Proof(leaves, 2)
	assert.False(t, Verify(root, leaves[2], 3, 5, path))
	assert.False(t, Verify(root, leaves[2], 5, 5, path))
	assert.False(t, Verify(root, leaves[2], 2, 5, path[1:]))
}
