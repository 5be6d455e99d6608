package impl

import (
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
)

// StorageVersion of the impls module layout.
const StorageVersion store.StorageVersion = 1

const (
	itemNextImplId byte = iota + 1
	itemImpl
	itemBuild
	itemMetadata
)

func nextImplIdKey() []byte {
	return store.MakeKey(store.ModuleImpls, itemNextImplId)
}

func implKey(id primitives.ImplId) []byte {
	return store.MakeKey(store.ModuleImpls, itemImpl, store.U32(uint32(id)))
}

func implPrefix() []byte {
	return store.MakeKey(store.ModuleImpls, itemImpl)
}

func buildKey(id primitives.ImplId, version primitives.ImplBuildVersion) []byte {
	return store.MakeKey(store.ModuleImpls, itemBuild, store.U32(uint32(id)), store.U32(uint32(version)))
}

func buildPrefix(id primitives.ImplId) []byte {
	return store.MakeKey(store.ModuleImpls, itemBuild, store.U32(uint32(id)))
}

func metadataKey(id primitives.ImplId) []byte {
	return store.MakeKey(store.ModuleImpls, itemMetadata, store.U32(uint32(id)))
}
