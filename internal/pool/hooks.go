package pool

import (
	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/internal/worker"
	"github.com/eigerco/computeplane/pkg/log"
)

var _ worker.Hooks = (*Engine)(nil)

func (e *Engine) CanOnline(*chain.Context, primitives.AccountId, primitives.OnlinePayload, attestation.Verified) error {
	return nil
}

func (e *Engine) AfterOnline(*chain.Context, primitives.AccountId) error { return nil }

// CanOffline is false while the worker is processing a job.
func (e *Engine) CanOffline(ctx *chain.Context, who primitives.AccountId) (bool, error) {
	refs, err := AssignedJobs(ctx.Store, who)
	if err != nil {
		return false, err
	}
	for _, ref := range refs {
		job, err := GetJob(ctx.Store, ref.Pool, ref.Job)
		if err != nil {
			return false, err
		}
		if job.Status == Processing {
			return false, nil
		}
	}
	return true, nil
}

// BeforeOffline discards the jobs the worker is processing and releases
// the ones it has only taken.
func (e *Engine) BeforeOffline(ctx *chain.Context, who primitives.AccountId, reason worker.OfflineReason) error {
	refs, err := AssignedJobs(ctx.Store, who)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		job, err := GetJob(ctx.Store, ref.Pool, ref.Job)
		if err != nil {
			return err
		}
		if job.Status != Processing {
			if err := e.release(ctx, ref.Pool, ref.Job, job); err != nil {
				return err
			}
			ctx.Emit(JobReleased{PoolId: ref.Pool, JobId: ref.Job})
			continue
		}

		if err := e.unhold(ctx, who, ref.Pool, ref.Job); err != nil {
			return err
		}
		now := ctx.Now
		job.Status = Discarded
		job.EndedAt = &now
		if err := store.Put(ctx.Store, jobKey(ref.Pool, ref.Job), job); err != nil {
			return err
		}
		log.Pool.Debug().Uint64("pool", uint64(ref.Pool)).Uint64("job", uint64(ref.Job)).
			Stringer("reason", reason).Msg("job discarded")
		ctx.Emit(JobStatusUpdated{PoolId: ref.Pool, JobId: ref.Job, Status: Discarded})
	}
	return nil
}

func (e *Engine) AfterRefreshAttestation(*chain.Context, primitives.AccountId, primitives.OnlinePayload, attestation.Verified) error {
	return nil
}

func (e *Engine) AfterRequestingOffline(*chain.Context, primitives.AccountId) error { return nil }

// CanDeregister is false while any pool still authorizes the worker.
func (e *Engine) CanDeregister(ctx *chain.Context, who primitives.AccountId) (bool, error) {
	_, found, err := ctx.Store.First(authorizedPrefix(who))
	if err != nil {
		return false, err
	}
	return !found, nil
}

// BeforeDeregister drops the per worker counters, which are zero by now.
func (e *Engine) BeforeDeregister(ctx *chain.Context, who primitives.AccountId) error {
	if err := ctx.Store.Delete(assignedCounterKey(who)); err != nil {
		return err
	}
	return ctx.Store.Delete(subscribedCounterKey(who))
}
