package worker

import (
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
)

// StorageVersion of the workers module layout.
const StorageVersion store.StorageVersion = 1

const (
	itemWorker byte = iota + 1
	itemFlipSet
	itemFlopSet
	itemStage
	itemStartedAt
	itemCounter
)

func workerKey(id primitives.AccountId) []byte {
	return store.MakeKey(store.ModuleWorkers, itemWorker, id[:])
}

func workerPrefix() []byte {
	return store.MakeKey(store.ModuleWorkers, itemWorker)
}

// set is one of the two heartbeat sets.
type set byte

const (
	flipSet = set(itemFlipSet)
	flopSet = set(itemFlopSet)
)

func (s set) String() string {
	if s == flipSet {
		return "flip"
	}
	return "flop"
}

func (s set) key(id primitives.AccountId) []byte {
	return store.MakeKey(store.ModuleWorkers, byte(s), id[:])
}

func (s set) prefix() []byte {
	return store.MakeKey(store.ModuleWorkers, byte(s))
}

func stageKey() []byte {
	return store.MakeKey(store.ModuleWorkers, itemStage)
}

func startedAtKey() []byte {
	return store.MakeKey(store.ModuleWorkers, itemStartedAt)
}

func counterKey() []byte {
	return store.MakeKey(store.ModuleWorkers, itemCounter)
}

func accountFromKey(key []byte) primitives.AccountId {
	var id primitives.AccountId
	copy(id[:], key[2:])
	return id
}
