package pool

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/safemath"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/pkg/log"
)

// AuthorizeWorker admits a worker bound to the pool's impl.
func (e *Engine) AuthorizeWorker(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId,
	worker primitives.AccountId) error {
	pool, err := e.ownedPool(ctx, origin, poolId)
	if err != nil {
		return err
	}
	info, err := workerInfo(ctx, worker)
	if err != nil {
		return err
	}
	if info.ImplId == nil || *info.ImplId != pool.ImplId {
		return errorsmod.Wrapf(ErrImplMismatched, "pool runs impl %d", pool.ImplId)
	}
	authorized, err := IsAuthorized(ctx.Store, poolId, worker)
	if err != nil {
		return err
	}
	if authorized {
		return errorsmod.Wrapf(ErrWorkerAlreadyAdded, "worker %s", worker)
	}
	if pool.WorkersCount >= e.params.MaxWorkersPerPool {
		return errorsmod.Wrapf(ErrWorkersPerPoolLimitExceeded, "limit %d", e.params.MaxWorkersPerPool)
	}
	if pool.WorkersCount, err = safemath.Inc32(pool.WorkersCount); err != nil {
		return ErrOverflow
	}

	if err := ctx.Store.Mark(authorizedKey(worker, poolId)); err != nil {
		return err
	}
	if err := store.Put(ctx.Store, poolKey(poolId), pool); err != nil {
		return err
	}
	ctx.Emit(WorkerAuthorized{PoolId: poolId, Worker: worker})
	return nil
}

// RevokeWorker removes the authorization and any subscription. Jobs the
// worker already holds stay assigned.
func (e *Engine) RevokeWorker(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId,
	worker primitives.AccountId) error {
	pool, err := e.ownedPool(ctx, origin, poolId)
	if err != nil {
		return err
	}
	authorized, err := IsAuthorized(ctx.Store, poolId, worker)
	if err != nil {
		return err
	}
	if !authorized {
		return errorsmod.Wrapf(ErrWorkerNotInThePool, "worker %s", worker)
	}
	subscribed, err := IsSubscribed(ctx.Store, poolId, worker)
	if err != nil {
		return err
	}
	if subscribed {
		if err := e.unsubscribe(ctx, poolId, worker); err != nil {
			return err
		}
	}
	if pool.WorkersCount, err = safemath.Dec32(pool.WorkersCount); err != nil {
		return ErrOverflow
	}
	if err := ctx.Store.Delete(authorizedKey(worker, poolId)); err != nil {
		return err
	}
	if err := store.Put(ctx.Store, poolKey(poolId), pool); err != nil {
		return err
	}
	ctx.Emit(WorkerRevoked{PoolId: poolId, Worker: worker})
	return nil
}

// SubscribePool lets an authorized worker pull jobs from the pool.
func (e *Engine) SubscribePool(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId) error {
	worker, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	if _, err := GetPool(ctx.Store, poolId); err != nil {
		return err
	}
	authorized, err := IsAuthorized(ctx.Store, poolId, worker)
	if err != nil {
		return err
	}
	if !authorized {
		return errorsmod.Wrapf(ErrWorkerNotInThePool, "worker %s", worker)
	}
	subscribed, err := IsSubscribed(ctx.Store, poolId, worker)
	if err != nil {
		return err
	}
	if subscribed {
		return ErrWorkerAlreadySubscribed
	}
	count, err := SubscribedPoolsCount(ctx.Store, worker)
	if err != nil {
		return err
	}
	if count >= e.params.MaxSubscribedPoolsPerWorker {
		return errorsmod.Wrapf(ErrWorkerSubscribedPoolsLimitExceeded, "limit %d", e.params.MaxSubscribedPoolsPerWorker)
	}

	if _, err := adjust(ctx.Store, subscribedCounterKey(worker), safemath.Inc32); err != nil {
		return err
	}
	if err := ctx.Store.Mark(subscribedKey(worker, poolId)); err != nil {
		return err
	}
	log.Pool.Debug().Uint64("pool", uint64(poolId)).Str("worker", worker.Short()).Msg("worker subscribed")
	ctx.Emit(WorkerSubscribed{PoolId: poolId, Worker: worker})
	return nil
}

func (e *Engine) UnsubscribePool(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId) error {
	worker, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	subscribed, err := IsSubscribed(ctx.Store, poolId, worker)
	if err != nil {
		return err
	}
	if !subscribed {
		return errorsmod.Wrapf(ErrWorkerNotSubscribeThePool, "pool %d", poolId)
	}
	return e.unsubscribe(ctx, poolId, worker)
}

func (e *Engine) unsubscribe(ctx *chain.Context, poolId primitives.PoolId, worker primitives.AccountId) error {
	if _, err := adjust(ctx.Store, subscribedCounterKey(worker), safemath.Dec32); err != nil {
		return err
	}
	if err := ctx.Store.Delete(subscribedKey(worker, poolId)); err != nil {
		return err
	}
	ctx.Emit(WorkerUnsubscribed{PoolId: poolId, Worker: worker})
	return nil
}
