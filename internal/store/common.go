package store

import "encoding/binary"

// Module prefixes. Every key starts with the owning module byte followed by
// an item byte, so module ranges never overlap.
const (
	ModuleSystem byte = iota + 1
	ModuleBalances
	ModuleImpls
	ModuleWorkers
	ModulePool
)

// ModuleToString converts a module byte to a string
func ModuleToString(m byte) string {
	switch m {
	case ModuleSystem:
		return "system"
	case ModuleBalances:
		return "balances"
	case ModuleImpls:
		return "impls"
	case ModuleWorkers:
		return "workers"
	case ModulePool:
		return "pool"
	default:
		return "unknown"
	}
}

// MakeKey builds a composite key. Parts must be fixed width (see U32, U64) so
// that the byte order of keys equals the numeric order of their components.
func MakeKey(module, item byte, parts ...[]byte) []byte {
	size := 2
	for _, p := range parts {
		size += len(p)
	}
	key := make([]byte, 0, size)
	key = append(key, module, item)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// U32 encodes v big-endian.
func U32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// U64 encodes v big-endian.
func U64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// ReadU32 decodes a big-endian uint32 at offset.
func ReadU32(key []byte, offset int) uint32 {
	return binary.BigEndian.Uint32(key[offset : offset+4])
}

// ReadU64 decodes a big-endian uint64 at offset.
func ReadU64(key []byte, offset int) uint64 {
	return binary.BigEndian.Uint64(key[offset : offset+8])
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, or nil if there is none.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
