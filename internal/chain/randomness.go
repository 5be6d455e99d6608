package chain

import (
	"encoding/binary"

	"github.com/eigerco/computeplane/internal/crypto"
)

// Randomness is the host supplied random oracle. Every replica must get
// the same output for the same block and subject.
type Randomness interface {
	Random(subject []byte) []byte
}

// HashRandomness derives output by hashing a per block seed with the
// subject.
type HashRandomness struct {
	Seed crypto.Hash
}

func (r HashRandomness) Random(subject []byte) []byte {
	h := crypto.HashConcat(r.Seed[:], subject)
	return h[:]
}

// BlockSeed chains the previous seed with the block number.
func BlockSeed(parent crypto.Hash, block uint64) crypto.Hash {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], block)
	return crypto.HashConcat(parent[:], n[:])
}

// RandomUint64 reads the first eight bytes of the oracle output as a little
// endian integer. Short outputs are zero padded.
func RandomUint64(r Randomness, subject []byte) uint64 {
	var buf [8]byte
	copy(buf[:], r.Random(subject))
	return binary.LittleEndian.Uint64(buf[:])
}
