package pool

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/safemath"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/internal/worker"
	"github.com/eigerco/computeplane/pkg/log"
)

// CreateJob queues a job under a policy. The caller pays the job deposit
// and the deposit of the input. A nil expiresIn means the default.
func (e *Engine) CreateJob(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId,
	policyId primitives.JobPolicyId, spec primitives.ImplSpecVersion, input []byte, expiresIn *uint64) (primitives.JobId, error) {
	owner, err := chain.EnsureSigned(origin)
	if err != nil {
		return 0, err
	}
	pool, err := GetPool(ctx.Store, poolId)
	if err != nil {
		return 0, err
	}
	if !pool.CreatingJobAvailability {
		return 0, errorsmod.Wrapf(ErrPoolCreatingJobAvailabilityDisabled, "pool %d", poolId)
	}
	if pool.JobsCount >= e.params.MaxJobsPerPool {
		return 0, errorsmod.Wrapf(ErrJobsPerPoolLimitExceeded, "limit %d", e.params.MaxJobsPerPool)
	}
	policy, err := GetPolicy(ctx.Store, poolId, policyId)
	if err != nil {
		return 0, err
	}
	switch {
	case !policy.Enabled:
		return 0, errorsmod.Wrapf(ErrJobPolicyNotApplicable, "policy %d is disabled", policyId)
	case !policy.inWindow(ctx.Block):
		return 0, errorsmod.Wrapf(ErrJobPolicyNotApplicable, "policy %d closed at block %d", policyId, ctx.Block)
	case policy.ApplicableScope == ScopeOwner && owner != pool.Owner:
		return 0, errorsmod.Wrapf(ErrJobPolicyNotApplicable, "policy %d is for the pool owner", policyId)
	}
	if !pool.supportsSpec(spec) {
		return 0, errorsmod.Wrapf(ErrUnsupportedImplSpecVersion, "spec %d outside [%d, %d]",
			spec, pool.MinImplSpecVersion, pool.MaxImplSpecVersion)
	}
	ttl := e.params.DefaultJobExpiresIn
	if expiresIn != nil {
		ttl = *expiresIn
	}
	if ttl < e.params.MinJobExpiresIn {
		return 0, errorsmod.Wrapf(ErrExpiresInTooSmall, "%d below %d", ttl, e.params.MinJobExpiresIn)
	}
	if ttl > e.params.MaxJobExpiresIn {
		return 0, errorsmod.Wrapf(ErrExpiresInTooLarge, "%d above %d", ttl, e.params.MaxJobExpiresIn)
	}
	if len(input) > int(e.params.InputLimit) {
		return 0, errorsmod.Wrapf(ErrPayloadTooLarge, "input is %d bytes, limit %d", len(input), e.params.InputLimit)
	}
	expiresAt, ok := safemath.Add64(ctx.Now, ttl)
	if !ok {
		return 0, ErrOverflow
	}

	id, err := store.GetOr[primitives.JobId](ctx.Store, nextJobIdKey(poolId), 1)
	if err != nil {
		return 0, err
	}
	taken, err := ctx.Store.Has(jobKey(poolId, id))
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, errorsmod.Wrapf(ErrJobIdTaken, "job %d", id)
	}
	next, ok := safemath.Add64(uint64(id), 1)
	if !ok {
		return 0, ErrOverflow
	}

	if err := reserve(ctx, owner, e.params.DepositPerJob); err != nil {
		return 0, err
	}
	if err := e.storeBlob(ctx, blobInput, poolId, id, owner, input); err != nil {
		return 0, err
	}
	job := Job{
		PolicyId:        policyId,
		Owner:           owner,
		Depositor:       owner,
		Deposit:         e.params.DepositPerJob,
		ImplSpecVersion: spec,
		Status:          Pending,
		ExpiresIn:       ttl,
		ExpiresAt:       expiresAt,
		CreatedAt:       ctx.Now,
	}
	if err := store.Put(ctx.Store, jobKey(poolId, id), job); err != nil {
		return 0, err
	}
	if err := ctx.Store.Mark(assignableKey(poolId, spec, id)); err != nil {
		return 0, err
	}
	if err := store.Put(ctx.Store, nextJobIdKey(poolId), primitives.JobId(next)); err != nil {
		return 0, err
	}
	if pool.JobsCount, err = safemath.Inc32(pool.JobsCount); err != nil {
		return 0, ErrOverflow
	}
	if policy.JobsCount, err = safemath.Inc32(policy.JobsCount); err != nil {
		return 0, ErrOverflow
	}
	if err := store.Put(ctx.Store, poolKey(poolId), pool); err != nil {
		return 0, err
	}
	if err := store.Put(ctx.Store, policyKey(poolId, policyId), policy); err != nil {
		return 0, err
	}

	log.Pool.Debug().Uint64("pool", uint64(poolId)).Uint64("job", uint64(id)).Str("owner", owner.Short()).Msg("job created")
	ctx.Emit(JobCreated{
		PoolId:          poolId,
		JobId:           id,
		PolicyId:        policyId,
		Owner:           owner,
		ImplSpecVersion: spec,
		ExpiresAt:       expiresAt,
	})
	return id, nil
}

// TakeJob assigns a job to the calling worker. With a job id the worker
// must be authorized in the pool, without one it must be subscribed and
// gets the first assignable job for its impl spec version. With processing
// set the job moves straight to Processing and its expiry restarts.
func (e *Engine) TakeJob(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId,
	jobId *primitives.JobId, processing bool) (primitives.JobId, error) {
	who, err := chain.EnsureSigned(origin)
	if err != nil {
		return 0, err
	}
	info, err := workerInfo(ctx, who)
	if err != nil {
		return 0, err
	}
	if info.Status != worker.Online {
		return 0, errorsmod.Wrapf(ErrWorkerNotOnline, "worker is %s", info.Status)
	}
	pool, err := GetPool(ctx.Store, poolId)
	if err != nil {
		return 0, err
	}
	if *info.ImplId != pool.ImplId {
		return 0, errorsmod.Wrapf(ErrImplMismatched, "pool runs impl %d", pool.ImplId)
	}
	spec := *info.ImplSpecVersion
	count, err := AssignedJobsCount(ctx.Store, who)
	if err != nil {
		return 0, err
	}
	if count >= e.params.MaxAssignedJobsPerWorker {
		return 0, errorsmod.Wrapf(ErrWorkerAssignedJobsLimitExceeded, "limit %d", e.params.MaxAssignedJobsPerWorker)
	}

	var id primitives.JobId
	if jobId != nil {
		id = *jobId
		authorized, err := IsAuthorized(ctx.Store, poolId, who)
		if err != nil {
			return 0, err
		}
		if !authorized {
			return 0, errorsmod.Wrapf(ErrWorkerNotInThePool, "pool %d", poolId)
		}
	} else {
		subscribed, err := IsSubscribed(ctx.Store, poolId, who)
		if err != nil {
			return 0, err
		}
		if !subscribed {
			return 0, errorsmod.Wrapf(ErrWorkerNotSubscribeThePool, "pool %d", poolId)
		}
		key, found, err := ctx.Store.First(assignablePrefix(poolId, spec))
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, errorsmod.Wrapf(ErrNoAssignableJob, "pool %d spec %d", poolId, spec)
		}
		id = jobFromAssignableKey(key)
	}

	job, err := GetJob(ctx.Store, poolId, id)
	if err != nil {
		return 0, err
	}
	switch {
	case job.Status.Terminal():
		return 0, errorsmod.Wrapf(ErrJobIsProcessed, "job %d is %s", id, job.Status)
	case !job.assignable():
		return 0, errorsmod.Wrapf(ErrJobAlreadyAssigned, "job %d", id)
	case job.ImplSpecVersion != spec:
		return 0, errorsmod.Wrapf(ErrUnsupportedImplSpecVersion, "job targets spec %d, worker runs %d", job.ImplSpecVersion, spec)
	}

	if err := ctx.Store.Delete(assignableKey(poolId, spec, id)); err != nil {
		return 0, err
	}
	if err := e.hold(ctx, who, poolId, id); err != nil {
		return 0, err
	}
	now := ctx.Now
	job.Assignee = &who
	job.AssignedAt = &now
	if processing {
		if err := e.startProcessing(ctx, &job); err != nil {
			return 0, err
		}
	}
	if err := store.Put(ctx.Store, jobKey(poolId, id), job); err != nil {
		return 0, err
	}

	log.Pool.Debug().Uint64("pool", uint64(poolId)).Uint64("job", uint64(id)).Str("worker", who.Short()).
		Bool("processing", processing).Msg("job assigned")
	ctx.Emit(JobAssigned{PoolId: poolId, JobId: id, Assignee: who})
	if processing {
		ctx.Emit(JobStatusUpdated{PoolId: poolId, JobId: id, Status: Processing})
	}
	return id, nil
}

// ReleaseJob hands a taken job back to the queue before work on it started.
func (e *Engine) ReleaseJob(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId, id primitives.JobId) error {
	who, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	job, err := e.assignedJob(ctx, who, poolId, id)
	if err != nil {
		return err
	}
	if job.Status == Processing {
		return errorsmod.Wrapf(ErrJobAssigneeLocked, "job %d", id)
	}
	if err := e.release(ctx, poolId, id, job); err != nil {
		return err
	}
	ctx.Emit(JobReleased{PoolId: poolId, JobId: id})
	return nil
}

// SubmitJobResult completes a job held by the caller. Output and proof are
// stored against deposits reserved on the worker.
func (e *Engine) SubmitJobResult(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId, id primitives.JobId,
	result JobResult, output, proof []byte) error {
	who, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	if !result.Valid() {
		return errorsmod.Wrapf(ErrInvalidArgument, "%s", result)
	}
	job, err := e.assignedJob(ctx, who, poolId, id)
	if err != nil {
		return err
	}
	if len(output) > int(e.params.OutputLimit) {
		return errorsmod.Wrapf(ErrPayloadTooLarge, "output is %d bytes, limit %d", len(output), e.params.OutputLimit)
	}
	if len(proof) > int(e.params.ProofLimit) {
		return errorsmod.Wrapf(ErrPayloadTooLarge, "proof is %d bytes, limit %d", len(proof), e.params.ProofLimit)
	}
	expiresAt, ok := safemath.Add64(ctx.Now, job.ExpiresIn)
	if !ok {
		return ErrOverflow
	}

	if err := e.storeBlob(ctx, blobOutput, poolId, id, who, output); err != nil {
		return err
	}
	if err := e.storeBlob(ctx, blobProof, poolId, id, who, proof); err != nil {
		return err
	}
	if err := e.unhold(ctx, who, poolId, id); err != nil {
		return err
	}
	now := ctx.Now
	job.Status = Processed
	job.Result = &result
	job.EndedAt = &now
	job.ExpiresAt = expiresAt
	if err := store.Put(ctx.Store, jobKey(poolId, id), job); err != nil {
		return err
	}

	log.Pool.Debug().Uint64("pool", uint64(poolId)).Uint64("job", uint64(id)).Stringer("result", result).Msg("job processed")
	ctx.Emit(JobResultUpdated{
		PoolId:     poolId,
		JobId:      id,
		Result:     result,
		OutputSize: uint32(len(output)),
		ProofSize:  uint32(len(proof)),
	})
	ctx.Emit(JobStatusUpdated{PoolId: poolId, JobId: id, Status: Processed})
	return nil
}

// DestroyJob is called by the job owner on a job nobody is working on.
func (e *Engine) DestroyJob(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId, id primitives.JobId) error {
	who, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	job, err := GetJob(ctx.Store, poolId, id)
	if err != nil {
		return err
	}
	if job.Owner != who {
		return errorsmod.Wrapf(ErrNotTheOwner, "job %d", id)
	}
	if job.Status == Processing {
		return errorsmod.Wrapf(ErrJobIsProcessing, "job %d", id)
	}
	return e.destroy(ctx, who, poolId, id, job)
}

// DestroyExpiredJob may be called by anyone once a job has expired.
func (e *Engine) DestroyExpiredJob(ctx *chain.Context, origin primitives.Origin, poolId primitives.PoolId, id primitives.JobId) error {
	who, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	job, err := GetJob(ctx.Store, poolId, id)
	if err != nil {
		return err
	}
	if job.ExpiresAt >= ctx.Now {
		return errorsmod.Wrapf(ErrJobStillValid, "job %d expires at %d", id, job.ExpiresAt)
	}
	return e.destroy(ctx, who, poolId, id, job)
}

// destroy refunds every deposit of the job and removes it with its blobs.
func (e *Engine) destroy(ctx *chain.Context, destroyer primitives.AccountId, poolId primitives.PoolId, id primitives.JobId, job Job) error {
	if job.taken() {
		if err := e.unhold(ctx, *job.Assignee, poolId, id); err != nil {
			return err
		}
	}
	if job.assignable() {
		if err := ctx.Store.Delete(assignableKey(poolId, job.ImplSpecVersion, id)); err != nil {
			return err
		}
	}
	for _, b := range []blob{blobInput, blobOutput, blobProof} {
		if err := e.removeBlob(ctx, b, poolId, id); err != nil {
			return err
		}
	}
	if err := ctx.Currency.Unreserve(job.Depositor, job.Deposit); err != nil {
		return err
	}
	if err := ctx.Store.Delete(jobKey(poolId, id)); err != nil {
		return err
	}

	pool, err := GetPool(ctx.Store, poolId)
	if err != nil {
		return err
	}
	if pool.JobsCount, err = safemath.Dec32(pool.JobsCount); err != nil {
		return ErrOverflow
	}
	if err := store.Put(ctx.Store, poolKey(poolId), pool); err != nil {
		return err
	}
	policy, err := GetPolicy(ctx.Store, poolId, job.PolicyId)
	if err != nil {
		return err
	}
	if policy.JobsCount, err = safemath.Dec32(policy.JobsCount); err != nil {
		return ErrOverflow
	}
	if err := store.Put(ctx.Store, policyKey(poolId, job.PolicyId), policy); err != nil {
		return err
	}

	log.Pool.Debug().Uint64("pool", uint64(poolId)).Uint64("job", uint64(id)).Str("destroyer", destroyer.Short()).Msg("job destroyed")
	ctx.Emit(JobDestroyed{PoolId: poolId, JobId: id, Destroyer: destroyer})
	return nil
}

// assignedJob loads a non terminal job held by who.
func (e *Engine) assignedJob(ctx *chain.Context, who primitives.AccountId, poolId primitives.PoolId, id primitives.JobId) (Job, error) {
	job, err := GetJob(ctx.Store, poolId, id)
	if err != nil {
		return Job{}, err
	}
	if job.Assignee == nil || *job.Assignee != who {
		return Job{}, errorsmod.Wrapf(ErrNotTheAssignee, "job %d", id)
	}
	if job.Status.Terminal() {
		return Job{}, errorsmod.Wrapf(ErrJobIsProcessed, "job %d is %s", id, job.Status)
	}
	return job, nil
}

func (e *Engine) startProcessing(ctx *chain.Context, job *Job) error {
	expiresAt, ok := safemath.Add64(ctx.Now, job.ExpiresIn)
	if !ok {
		return ErrOverflow
	}
	now := ctx.Now
	job.Status = Processing
	job.ProcessingAt = &now
	job.ExpiresAt = expiresAt
	return nil
}

// release puts a taken Pending job back into the queue.
func (e *Engine) release(ctx *chain.Context, poolId primitives.PoolId, id primitives.JobId, job Job) error {
	if err := e.unhold(ctx, *job.Assignee, poolId, id); err != nil {
		return err
	}
	job.Assignee = nil
	job.AssignedAt = nil
	if err := store.Put(ctx.Store, jobKey(poolId, id), job); err != nil {
		return err
	}
	return ctx.Store.Mark(assignableKey(poolId, job.ImplSpecVersion, id))
}

// hold records that who holds the job.
func (e *Engine) hold(ctx *chain.Context, who primitives.AccountId, poolId primitives.PoolId, id primitives.JobId) error {
	if _, err := adjust(ctx.Store, assignedCounterKey(who), safemath.Inc32); err != nil {
		return err
	}
	return ctx.Store.Mark(assignedKey(who, poolId, id))
}

// unhold reverses hold. It runs exactly once per assignment.
func (e *Engine) unhold(ctx *chain.Context, who primitives.AccountId, poolId primitives.PoolId, id primitives.JobId) error {
	if _, err := adjust(ctx.Store, assignedCounterKey(who), safemath.Dec32); err != nil {
		return err
	}
	return ctx.Store.Delete(assignedKey(who, poolId, id))
}

// storeBlob reserves len(data)*DepositPerByte on depositor and stores the
// blob. Empty blobs are not stored.
func (e *Engine) storeBlob(ctx *chain.Context, b blob, poolId primitives.PoolId, id primitives.JobId,
	depositor primitives.AccountId, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	deposit, err := ledger.DataDeposit(0, e.params.DepositPerByte, len(data))
	if err != nil {
		return err
	}
	if err := reserve(ctx, depositor, deposit); err != nil {
		return err
	}
	stored := primitives.StoredData{Depositor: depositor, ActualDeposit: deposit, Data: data}
	return store.Put(ctx.Store, b.key(poolId, id), stored)
}

func (e *Engine) removeBlob(ctx *chain.Context, b blob, poolId primitives.PoolId, id primitives.JobId) error {
	stored, found, err := store.Get[primitives.StoredData](ctx.Store, b.key(poolId, id))
	if err != nil || !found {
		return err
	}
	if err := ctx.Currency.Unreserve(stored.Depositor, stored.ActualDeposit); err != nil {
		return err
	}
	return ctx.Store.Delete(b.key(poolId, id))
}
