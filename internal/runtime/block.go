package runtime

import (
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/crypto"
	"github.com/eigerco/computeplane/internal/merkle"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/pkg/serialization/codec"
)

// SystemStorageVersion tags the layout of the system module.
const SystemStorageVersion store.StorageVersion = 1

const itemHeader byte = 1

func headerKey() []byte {
	return store.MakeKey(store.ModuleSystem, itemHeader)
}

// Header is the summary of the last executed block.
type Header struct {
	Number    primitives.BlockNumber
	Timestamp uint64
	// Seed feeds the randomness of the next block
	Seed crypto.Hash
}

// Extrinsic is one signed operation of a block.
type Extrinsic struct {
	Origin primitives.Origin
	Call   Call
}

// Block is an ordered batch of extrinsics at one height and wall clock.
type Block struct {
	Number     primitives.BlockNumber
	Timestamp  uint64
	Extrinsics []Extrinsic
}

// ExtrinsicResult is the outcome of one extrinsic. A zero Code is success.
type ExtrinsicResult struct {
	Call      string
	Codespace string
	Code      uint32
	Log       string
	Events    []chain.Event
}

func (r ExtrinsicResult) OK() bool {
	return r.Code == 0
}

// BlockResult collects everything a block produced. Initialization holds the
// events of the flip-flop pass that runs before the extrinsics.
type BlockResult struct {
	Header         Header
	Reaped         int
	Initialization []chain.Event
	Extrinsics     []ExtrinsicResult
	// ResultsRoot commits to the call name and outcome of every extrinsic
	ResultsRoot crypto.Hash
}

// Events returns every event of the block in emission order.
func (r BlockResult) Events() []chain.Event {
	events := append([]chain.Event(nil), r.Initialization...)
	for _, x := range r.Extrinsics {
		events = append(events, x.Events...)
	}
	return events
}

type resultLeaf struct {
	Call      string
	Codespace string
	Code      uint32
}

// Leaf is the encoding of r committed to by BlockResult.ResultsRoot.
func (r ExtrinsicResult) Leaf() ([]byte, error) {
	return codec.Default.Marshal(resultLeaf{Call: r.Call, Codespace: r.Codespace, Code: r.Code})
}

func resultsRoot(results []ExtrinsicResult) (crypto.Hash, error) {
	leaves := make([][]byte, 0, len(results))
	for _, r := range results {
		leaf, err := r.Leaf()
		if err != nil {
			return crypto.Hash{}, err
		}
		leaves = append(leaves, leaf)
	}
	return merkle.Root(leaves), nil
}
