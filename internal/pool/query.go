package pool

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
)

func GetPool(s *store.Store, id primitives.PoolId) (Pool, error) {
	pool, found, err := store.Get[Pool](s, poolKey(id))
	if err != nil {
		return Pool{}, err
	}
	if !found {
		return Pool{}, errorsmod.Wrapf(ErrPoolNotFound, "pool %d", id)
	}
	return pool, nil
}

func GetPolicy(s *store.Store, pool primitives.PoolId, id primitives.JobPolicyId) (JobPolicy, error) {
	policy, found, err := store.Get[JobPolicy](s, policyKey(pool, id))
	if err != nil {
		return JobPolicy{}, err
	}
	if !found {
		return JobPolicy{}, errorsmod.Wrapf(ErrJobPolicyNotFound, "pool %d policy %d", pool, id)
	}
	return policy, nil
}

func GetJob(s *store.Store, pool primitives.PoolId, id primitives.JobId) (Job, error) {
	job, found, err := store.Get[Job](s, jobKey(pool, id))
	if err != nil {
		return Job{}, err
	}
	if !found {
		return Job{}, errorsmod.Wrapf(ErrJobNotFound, "pool %d job %d", pool, id)
	}
	return job, nil
}

func GetPoolMetadata(s *store.Store, id primitives.PoolId) (primitives.StoredData, bool, error) {
	return store.Get[primitives.StoredData](s, poolMetadataKey(id))
}

func GetJobInput(s *store.Store, pool primitives.PoolId, job primitives.JobId) (primitives.StoredData, bool, error) {
	return store.Get[primitives.StoredData](s, blobInput.key(pool, job))
}

func GetJobOutput(s *store.Store, pool primitives.PoolId, job primitives.JobId) (primitives.StoredData, bool, error) {
	return store.Get[primitives.StoredData](s, blobOutput.key(pool, job))
}

func GetJobProof(s *store.Store, pool primitives.PoolId, job primitives.JobId) (primitives.StoredData, bool, error) {
	return store.Get[primitives.StoredData](s, blobProof.key(pool, job))
}

func IsAuthorized(s *store.Store, pool primitives.PoolId, worker primitives.AccountId) (bool, error) {
	return s.Has(authorizedKey(worker, pool))
}

func IsSubscribed(s *store.Store, pool primitives.PoolId, worker primitives.AccountId) (bool, error) {
	return s.Has(subscribedKey(worker, pool))
}

func IsAssignable(s *store.Store, pool primitives.PoolId, spec primitives.ImplSpecVersion, job primitives.JobId) (bool, error) {
	return s.Has(assignableKey(pool, spec, job))
}

// AssignedJobsCount is the number of non terminal jobs the worker holds.
func AssignedJobsCount(s *store.Store, worker primitives.AccountId) (uint32, error) {
	return store.GetOr[uint32](s, assignedCounterKey(worker), 0)
}

func SubscribedPoolsCount(s *store.Store, worker primitives.AccountId) (uint32, error) {
	return store.GetOr[uint32](s, subscribedCounterKey(worker), 0)
}

// EachPool visits pools in id order.
func EachPool(s *store.Store, fn func(id primitives.PoolId, pool Pool) (bool, error)) error {
	return store.Each(s, poolPrefix(), func(key []byte, pool Pool) (bool, error) {
		return fn(primitives.PoolId(store.ReadU64(key, offPool)), pool)
	})
}

func EachPolicy(s *store.Store, pool primitives.PoolId, fn func(id primitives.JobPolicyId, policy JobPolicy) (bool, error)) error {
	return store.Each(s, policyPrefix(pool), func(key []byte, policy JobPolicy) (bool, error) {
		return fn(policyIdFromKey(key), policy)
	})
}

func EachJob(s *store.Store, pool primitives.PoolId, fn func(id primitives.JobId, job Job) (bool, error)) error {
	return store.Each(s, jobPrefix(pool), func(key []byte, job Job) (bool, error) {
		_, id := poolJobFromJobKey(key)
		return fn(id, job)
	})
}

// EachJobOfAllPools visits every job in (pool, job) order.
func EachJobOfAllPools(s *store.Store, fn func(pool primitives.PoolId, id primitives.JobId, job Job) (bool, error)) error {
	return store.Each(s, allJobsPrefix(), func(key []byte, job Job) (bool, error) {
		pool, id := poolJobFromJobKey(key)
		return fn(pool, id, job)
	})
}

// EachAuthorization visits every (worker, pool) authorization.
func EachAuthorization(s *store.Store, fn func(worker primitives.AccountId, pool primitives.PoolId) (bool, error)) error {
	return s.Iterate(allAuthorizedPrefix(), func(key, _ []byte) (bool, error) {
		worker, pool := workerPoolFromKey(key)
		return fn(worker, pool)
	})
}

// EachAssignedCounter visits the workers holding at least one job.
func EachAssignedCounter(s *store.Store, fn func(worker primitives.AccountId, count uint32) (bool, error)) error {
	return store.Each(s, allAssignedCountersPrefix(), func(key []byte, count uint32) (bool, error) {
		return fn(accountAt(key, offAccount), count)
	})
}

// JobRef names a job across pools.
type JobRef struct {
	Pool primitives.PoolId
	Job  primitives.JobId
}

// AssignedJobs lists the jobs the worker holds in (pool, job) order.
func AssignedJobs(s *store.Store, worker primitives.AccountId) ([]JobRef, error) {
	keys, err := s.Keys(assignedPrefix(worker), 0)
	if err != nil {
		return nil, err
	}
	refs := make([]JobRef, 0, len(keys))
	for _, key := range keys {
		pool, job := poolJobFromAssignedKey(key)
		refs = append(refs, JobRef{Pool: pool, Job: job})
	}
	return refs, nil
}
