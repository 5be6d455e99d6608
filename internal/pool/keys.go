package pool

import (
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
)

// StorageVersion of the pool module layout.
const StorageVersion store.StorageVersion = 1

const (
	itemNextPoolId byte = iota + 1
	itemPool
	itemPoolMetadata
	itemNextPolicyId
	itemPolicy
	itemNextJobId
	itemJob
	itemJobInput
	itemJobOutput
	itemJobProof
	itemAuthorized
	itemSubscribed
	itemSubscribedCounter
	itemAssignable
	itemAssignedCounter
	itemAssigned
)

// key offsets past the module and item bytes
const (
	offPool    = 2
	offAccount = 2
)

func u64(v uint64) []byte { return store.U64(v) }

func nextPoolIdKey() []byte {
	return store.MakeKey(store.ModulePool, itemNextPoolId)
}

func poolKey(id primitives.PoolId) []byte {
	return store.MakeKey(store.ModulePool, itemPool, u64(uint64(id)))
}

func poolPrefix() []byte {
	return store.MakeKey(store.ModulePool, itemPool)
}

func poolMetadataKey(id primitives.PoolId) []byte {
	return store.MakeKey(store.ModulePool, itemPoolMetadata, u64(uint64(id)))
}

func nextPolicyIdKey(pool primitives.PoolId) []byte {
	return store.MakeKey(store.ModulePool, itemNextPolicyId, u64(uint64(pool)))
}

func policyKey(pool primitives.PoolId, id primitives.JobPolicyId) []byte {
	return store.MakeKey(store.ModulePool, itemPolicy, u64(uint64(pool)), store.U32(uint32(id)))
}

func policyPrefix(pool primitives.PoolId) []byte {
	return store.MakeKey(store.ModulePool, itemPolicy, u64(uint64(pool)))
}

func nextJobIdKey(pool primitives.PoolId) []byte {
	return store.MakeKey(store.ModulePool, itemNextJobId, u64(uint64(pool)))
}

func jobKey(pool primitives.PoolId, id primitives.JobId) []byte {
	return store.MakeKey(store.ModulePool, itemJob, u64(uint64(pool)), u64(uint64(id)))
}

func jobPrefix(pool primitives.PoolId) []byte {
	return store.MakeKey(store.ModulePool, itemJob, u64(uint64(pool)))
}

func allJobsPrefix() []byte {
	return store.MakeKey(store.ModulePool, itemJob)
}

// blob is one of the deposit backed job attachments.
type blob byte

const (
	blobInput  = blob(itemJobInput)
	blobOutput = blob(itemJobOutput)
	blobProof  = blob(itemJobProof)
)

func (b blob) key(pool primitives.PoolId, job primitives.JobId) []byte {
	return store.MakeKey(store.ModulePool, byte(b), u64(uint64(pool)), u64(uint64(job)))
}

// authorizedKey is keyed by worker first so a worker's pools are one range.
func authorizedKey(worker primitives.AccountId, pool primitives.PoolId) []byte {
	return store.MakeKey(store.ModulePool, itemAuthorized, worker[:], u64(uint64(pool)))
}

func authorizedPrefix(worker primitives.AccountId) []byte {
	return store.MakeKey(store.ModulePool, itemAuthorized, worker[:])
}

func allAuthorizedPrefix() []byte {
	return store.MakeKey(store.ModulePool, itemAuthorized)
}

func subscribedKey(worker primitives.AccountId, pool primitives.PoolId) []byte {
	return store.MakeKey(store.ModulePool, itemSubscribed, worker[:], u64(uint64(pool)))
}

func subscribedCounterKey(worker primitives.AccountId) []byte {
	return store.MakeKey(store.ModulePool, itemSubscribedCounter, worker[:])
}

func assignableKey(pool primitives.PoolId, spec primitives.ImplSpecVersion, job primitives.JobId) []byte {
	return store.MakeKey(store.ModulePool, itemAssignable, u64(uint64(pool)), store.U32(uint32(spec)), u64(uint64(job)))
}

func assignablePrefix(pool primitives.PoolId, spec primitives.ImplSpecVersion) []byte {
	return store.MakeKey(store.ModulePool, itemAssignable, u64(uint64(pool)), store.U32(uint32(spec)))
}

func assignedCounterKey(worker primitives.AccountId) []byte {
	return store.MakeKey(store.ModulePool, itemAssignedCounter, worker[:])
}

func allAssignedCountersPrefix() []byte {
	return store.MakeKey(store.ModulePool, itemAssignedCounter)
}

// assignedKey indexes the jobs a worker holds.
func assignedKey(worker primitives.AccountId, pool primitives.PoolId, job primitives.JobId) []byte {
	return store.MakeKey(store.ModulePool, itemAssigned, worker[:], u64(uint64(pool)), u64(uint64(job)))
}

func assignedPrefix(worker primitives.AccountId) []byte {
	return store.MakeKey(store.ModulePool, itemAssigned, worker[:])
}

func accountAt(key []byte, offset int) primitives.AccountId {
	var id primitives.AccountId
	copy(id[:], key[offset:offset+primitives.AccountIdSize])
	return id
}

// workerPoolFromKey splits a (worker, pool) membership key.
func workerPoolFromKey(key []byte) (primitives.AccountId, primitives.PoolId) {
	return accountAt(key, offAccount), primitives.PoolId(store.ReadU64(key, offAccount+primitives.AccountIdSize))
}

// poolJobFromAssignedKey splits a (worker, pool, job) assignment key.
func poolJobFromAssignedKey(key []byte) (primitives.PoolId, primitives.JobId) {
	off := offAccount + primitives.AccountIdSize
	return primitives.PoolId(store.ReadU64(key, off)), primitives.JobId(store.ReadU64(key, off+8))
}

// poolJobFromJobKey splits a (pool, job) key.
func poolJobFromJobKey(key []byte) (primitives.PoolId, primitives.JobId) {
	return primitives.PoolId(store.ReadU64(key, offPool)), primitives.JobId(store.ReadU64(key, offPool+8))
}

func policyIdFromKey(key []byte) primitives.JobPolicyId {
	return primitives.JobPolicyId(store.ReadU32(key, offPool+8))
}

func jobFromAssignableKey(key []byte) primitives.JobId {
	return primitives.JobId(store.ReadU64(key, offPool+8+4))
}
