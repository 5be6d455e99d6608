package merkle

import (
	"github.com/eigerco/computeplane/internal/crypto"
)

var nodePrefix = []byte("node")

// Root computes the root of a well-balanced binary Merkle tree over leaves.
// Leaves are hashed, an empty sequence has the zero hash as root.
func Root(leaves [][]byte) crypto.Hash {
	if len(leaves) == 0 {
		return crypto.Hash{}
	}
	return node(leaves)
}

// Proof returns the sibling hashes on the path from the root down to the leaf
// at index. It is nil for an index out of range or a single leaf tree.
func Proof(leaves [][]byte, index int) []crypto.Hash {
	if index < 0 || index >= len(leaves) {
		return nil
	}
	var path []crypto.Hash
	for len(leaves) > 1 {
		mid := split(len(leaves))
		if index < mid {
			path = append(path, node(leaves[mid:]))
			leaves = leaves[:mid]
		} else {
			path = append(path, node(leaves[:mid]))
			leaves = leaves[mid:]
			index -= mid
		}
	}
	return path
}

// Verify checks that leaf sits at index of a tree of count leaves with the
// given root, using a path produced by Proof.
func Verify(root crypto.Hash, leaf []byte, index, count int, path []crypto.Hash) bool {
	if index < 0 || index >= count {
		return false
	}

	// true when the path goes down the left subtree
	var left []bool
	for n := count; n > 1; {
		mid := split(n)
		if index < mid {
			left = append(left, true)
			n = mid
		} else {
			left = append(left, false)
			index -= mid
			n -= mid
		}
	}
	if len(left) != len(path) {
		return false
	}

	h := crypto.HashData(leaf)
	for i := len(path) - 1; i >= 0; i-- {
		if left[i] {
			h = crypto.HashConcat(nodePrefix, h[:], path[i][:])
		} else {
			h = crypto.HashConcat(nodePrefix, path[i][:], h[:])
		}
	}
	return h == root
}

func node(leaves [][]byte) crypto.Hash {
	if len(leaves) == 1 {
		return crypto.HashData(leaves[0])
	}
	mid := split(len(leaves))
	l := node(leaves[:mid])
	r := node(leaves[mid:])
	return crypto.HashConcat(nodePrefix, l[:], r[:])
}

// split rounds up so the left subtree is never the smaller one.
func split(n int) int {
	return n - n/2
}
