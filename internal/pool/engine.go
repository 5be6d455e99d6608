package pool

import (
	"errors"
	"math"

	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/config"
	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/safemath"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/internal/worker"
	"github.com/eigerco/computeplane/pkg/log"
)

// Engine executes the pool, policy and job operations and takes part in
// the worker lifecycle through its Hooks.
type Engine struct {
	params config.Params
}

func NewEngine(params config.Params) *Engine {
	return &Engine{params: params}
}

// CreatePool creates a pool for an impl the caller may deploy. The pool
// accepts every impl spec version until restricted.
func (e *Engine) CreatePool(ctx *chain.Context, origin primitives.Origin, implId primitives.ImplId) (primitives.PoolId, error) {
	owner, err := chain.EnsureSigned(origin)
	if err != nil {
		return 0, err
	}
	implInfo, err := impl.GetImpl(ctx.Store, implId)
	if err != nil {
		return 0, err
	}
	if !implInfo.CanDeploy(owner) {
		return 0, errorsmod.Wrapf(ErrNoPermission, "impl %d is deployable by its owner only", implId)
	}

	id, err := store.GetOr[primitives.PoolId](ctx.Store, nextPoolIdKey(), 1)
	if err != nil {
		return 0, err
	}
	taken, err := ctx.Store.Has(poolKey(id))
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, errorsmod.Wrapf(ErrPoolIdTaken, "pool %d", id)
	}
	next, ok := safemath.Add64(uint64(id), 1)
	if !ok {
		return 0, ErrOverflow
	}

	if err := reserve(ctx, owner, e.params.CreatePoolDeposit); err != nil {
		return 0, err
	}
	pool := Pool{
		Owner:                   owner,
		OwnerDeposit:            e.params.CreatePoolDeposit,
		ImplId:                  implId,
		CreatingJobAvailability: true,
		MinImplSpecVersion:      1,
		MaxImplSpecVersion:      math.MaxUint32,
	}
	if err := store.Put(ctx.Store, poolKey(id), pool); err != nil {
		return 0, err
	}
	if err := store.Put(ctx.Store, nextPoolIdKey(), primitives.PoolId(next)); err != nil {
		return 0, err
	}

	log.Pool.Debug().Uint64("pool", uint64(id)).Uint32("impl", uint32(implId)).Str("owner", owner.Short()).Msg("pool created")
	ctx.Emit(PoolCreated{PoolId: id, Owner: owner, ImplId: implId})
	return id, nil
}

func (e *Engine) DestroyPool(ctx *chain.Context, origin primitives.Origin, id primitives.PoolId) error {
	pool, err := e.ownedPool(ctx, origin, id)
	if err != nil {
		return err
	}
	if pool.JobsCount > 0 || pool.WorkersCount > 0 {
		return errorsmod.Wrapf(ErrPoolNotEmpty, "%d jobs, %d workers", pool.JobsCount, pool.WorkersCount)
	}

	if err := ctx.Store.DeletePrefix(policyPrefix(id)); err != nil {
		return err
	}
	if err := e.removeMetadata(ctx, id); err != nil {
		return err
	}
	if err := ctx.Currency.Unreserve(pool.Owner, pool.OwnerDeposit); err != nil {
		return err
	}
	for _, key := range [][]byte{nextPolicyIdKey(id), nextJobIdKey(id), poolKey(id)} {
		if err := ctx.Store.Delete(key); err != nil {
			return err
		}
	}

	log.Pool.Debug().Uint64("pool", uint64(id)).Msg("pool destroyed")
	ctx.Emit(PoolDestroyed{PoolId: id})
	return nil
}

// UpdatePoolMetadata replaces the metadata and moves the deposit to match
// its new size.
func (e *Engine) UpdatePoolMetadata(ctx *chain.Context, origin primitives.Origin, id primitives.PoolId, data []byte) error {
	pool, err := e.ownedPool(ctx, origin, id)
	if err != nil {
		return err
	}
	if len(data) > int(e.params.PoolMetadataLimit) {
		return errorsmod.Wrapf(ErrPayloadTooLarge, "metadata is %d bytes, limit %d", len(data), e.params.PoolMetadataLimit)
	}
	deposit, err := ledger.DataDeposit(e.params.PoolMetadataDepositBase, e.params.DepositPerByte, len(data))
	if err != nil {
		return err
	}
	if err := ledger.Reconcile(ctx.Currency, pool.Owner, pool.MetadataDeposit, deposit); err != nil {
		return depositError(err)
	}
	stored := primitives.StoredData{Depositor: pool.Owner, ActualDeposit: deposit, Data: data}
	if err := store.Put(ctx.Store, poolMetadataKey(id), stored); err != nil {
		return err
	}
	pool.MetadataDeposit = deposit
	if err := store.Put(ctx.Store, poolKey(id), pool); err != nil {
		return err
	}

	ctx.Emit(PoolMetadataUpdated{PoolId: id, Size: uint32(len(data))})
	return nil
}

func (e *Engine) RemovePoolMetadata(ctx *chain.Context, origin primitives.Origin, id primitives.PoolId) error {
	if _, err := e.ownedPool(ctx, origin, id); err != nil {
		return err
	}
	found, err := ctx.Store.Has(poolMetadataKey(id))
	if err != nil {
		return err
	}
	if !found {
		return errorsmod.Wrapf(ErrMetadataNotFound, "pool %d", id)
	}
	if err := e.removeMetadata(ctx, id); err != nil {
		return err
	}
	ctx.Emit(PoolMetadataRemoved{PoolId: id})
	return nil
}

func (e *Engine) removeMetadata(ctx *chain.Context, id primitives.PoolId) error {
	current, found, err := GetPoolMetadata(ctx.Store, id)
	if err != nil || !found {
		return err
	}
	if err := ctx.Currency.Unreserve(current.Depositor, current.ActualDeposit); err != nil {
		return err
	}
	if err := ctx.Store.Delete(poolMetadataKey(id)); err != nil {
		return err
	}
	pool, found, err := store.Get[Pool](ctx.Store, poolKey(id))
	if err != nil || !found {
		return err
	}
	pool.MetadataDeposit = 0
	return store.Put(ctx.Store, poolKey(id), pool)
}

func (e *Engine) TogglePoolCreatingJobAvailability(ctx *chain.Context, origin primitives.Origin, id primitives.PoolId,
	available bool) error {
	pool, err := e.ownedPool(ctx, origin, id)
	if err != nil {
		return err
	}
	pool.CreatingJobAvailability = available
	if err := store.Put(ctx.Store, poolKey(id), pool); err != nil {
		return err
	}
	ctx.Emit(PoolCreatingJobAvailabilityUpdated{PoolId: id, Available: available})
	return nil
}

// UpdatePoolImplSpecVersionRange limits the impl spec versions new jobs may
// target. Existing jobs are not affected.
func (e *Engine) UpdatePoolImplSpecVersionRange(ctx *chain.Context, origin primitives.Origin, id primitives.PoolId,
	minVersion, maxVersion primitives.ImplSpecVersion) error {
	pool, err := e.ownedPool(ctx, origin, id)
	if err != nil {
		return err
	}
	if minVersion > maxVersion {
		return errorsmod.Wrapf(ErrInvalidArgument, "spec version range [%d, %d]", minVersion, maxVersion)
	}
	pool.MinImplSpecVersion, pool.MaxImplSpecVersion = minVersion, maxVersion
	if err := store.Put(ctx.Store, poolKey(id), pool); err != nil {
		return err
	}
	ctx.Emit(PoolImplSpecVersionRangeUpdated{PoolId: id, Min: minVersion, Max: maxVersion})
	return nil
}

func (e *Engine) CreateJobPolicy(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId,
	scope ApplicableScope, start, end *primitives.BlockNumber) (primitives.JobPolicyId, error) {
	pool, err := e.ownedPool(ctx, origin, poolId)
	if err != nil {
		return 0, err
	}
	if scope > ScopePublic {
		return 0, errorsmod.Wrapf(ErrInvalidArgument, "%s", scope)
	}
	if start != nil && end != nil && *start > *end {
		return 0, errorsmod.Wrapf(ErrInvalidArgument, "policy window [%d, %d]", *start, *end)
	}
	if pool.JobPoliciesCount >= e.params.MaxPoliciesPerPool {
		return 0, errorsmod.Wrapf(ErrJobPoliciesPerPoolLimitExceeded, "limit %d", e.params.MaxPoliciesPerPool)
	}

	id, err := store.GetOr[primitives.JobPolicyId](ctx.Store, nextPolicyIdKey(poolId), 1)
	if err != nil {
		return 0, err
	}
	taken, err := ctx.Store.Has(policyKey(poolId, id))
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, errorsmod.Wrapf(ErrJobPolicyIdTaken, "policy %d", id)
	}
	next, err := safemath.Inc32(uint32(id))
	if err != nil {
		return 0, ErrOverflow
	}
	if pool.JobPoliciesCount, err = safemath.Inc32(pool.JobPoliciesCount); err != nil {
		return 0, ErrOverflow
	}

	policy := JobPolicy{Enabled: true, ApplicableScope: scope, StartBlock: start, EndBlock: end}
	if err := store.Put(ctx.Store, policyKey(poolId, id), policy); err != nil {
		return 0, err
	}
	if err := store.Put(ctx.Store, nextPolicyIdKey(poolId), primitives.JobPolicyId(next)); err != nil {
		return 0, err
	}
	if err := store.Put(ctx.Store, poolKey(poolId), pool); err != nil {
		return 0, err
	}

	ctx.Emit(JobPolicyCreated{PoolId: poolId, PolicyId: id, Scope: scope})
	return id, nil
}

func (e *Engine) DestroyJobPolicy(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId,
	id primitives.JobPolicyId) error {
	pool, err := e.ownedPool(ctx, origin, poolId)
	if err != nil {
		return err
	}
	policy, err := GetPolicy(ctx.Store, poolId, id)
	if err != nil {
		return err
	}
	if policy.JobsCount > 0 {
		return errorsmod.Wrapf(ErrJobPolicyStillInUse, "%d jobs", policy.JobsCount)
	}
	if pool.JobPoliciesCount, err = safemath.Dec32(pool.JobPoliciesCount); err != nil {
		return ErrOverflow
	}
	if err := ctx.Store.Delete(policyKey(poolId, id)); err != nil {
		return err
	}
	if err := store.Put(ctx.Store, poolKey(poolId), pool); err != nil {
		return err
	}
	ctx.Emit(JobPolicyDestroyed{PoolId: poolId, PolicyId: id})
	return nil
}

func (e *Engine) UpdateJobPolicyEnablement(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId,
	id primitives.JobPolicyId, enabled bool) error {
	if _, err := e.ownedPool(ctx, origin, poolId); err != nil {
		return err
	}
	policy, err := GetPolicy(ctx.Store, poolId, id)
	if err != nil {
		return err
	}
	policy.Enabled = enabled
	if err := store.Put(ctx.Store, policyKey(poolId, id), policy); err != nil {
		return err
	}
	ctx.Emit(JobPolicyEnablementUpdated{PoolId: poolId, PolicyId: id, Enabled: enabled})
	return nil
}

func (e *Engine) ownedPool(ctx *chain.Context, origin primitives.Origin, id primitives.PoolId) (Pool, error) {
	who, err := chain.EnsureSigned(origin)
	if err != nil {
		return Pool{}, err
	}
	pool, err := GetPool(ctx.Store, id)
	if err != nil {
		return Pool{}, err
	}
	if pool.Owner != who {
		return Pool{}, errorsmod.Wrapf(ErrNotTheOwner, "pool %d", id)
	}
	return pool, nil
}

// workerInfo reads a worker record through the worker registry.
func workerInfo(ctx *chain.Context, id primitives.AccountId) (worker.Info, error) {
	info, err := worker.Get(ctx.Store, id)
	if errors.Is(err, worker.ErrNotExists) {
		return worker.Info{}, errorsmod.Wrapf(ErrWorkerNotFound, "worker %s", id)
	}
	return info, err
}

// adjust applies step to a counter stored under key. A counter reaching
// zero is deleted.
func adjust(s *store.Store, key []byte, step func(uint32) (uint32, error)) (uint32, error) {
	n, err := store.GetOr[uint32](s, key, 0)
	if err != nil {
		return 0, err
	}
	n, err = step(n)
	if err != nil {
		return 0, ErrOverflow
	}
	if n == 0 {
		return 0, s.Delete(key)
	}
	return n, store.Put(s, key, n)
}

func reserve(ctx *chain.Context, who primitives.AccountId, amount primitives.Balance) error {
	if err := ctx.Currency.Reserve(who, amount); err != nil {
		return depositError(err)
	}
	return nil
}

func depositError(err error) error {
	if ledger.IsInsufficient(err) {
		return errorsmod.Wrap(ErrInsufficientDeposit, err.Error())
	}
	return err
}
