package runtime

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/primitives"
)

// dispatch routes a call to the engine handling it.
func (r *Runtime) dispatch(ctx *chain.Context, origin primitives.Origin, call Call) error {
	switch c := call.(type) {
	case *RegisterWorker:
		return r.workers.Register(ctx, origin, c.Worker, c.InitialBalance)
	case *DeregisterWorker:
		return r.workers.Deregister(ctx, origin, c.Worker)
	case *TransferToWorker:
		return r.workers.TransferToWorker(ctx, origin, c.Worker, c.Amount)
	case *WithdrawFromWorker:
		return r.workers.WithdrawFromWorker(ctx, origin, c.Worker, c.Amount)
	case *Online:
		return r.workers.Online(ctx, origin, c.Payload, c.Attestation)
	case *RefreshAttestation:
		return r.workers.RefreshAttestation(ctx, origin, c.Payload, c.Attestation)
	case *RequestOffline:
		return r.workers.RequestOffline(ctx, origin)
	case *RequestOfflineFor:
		return r.workers.RequestOfflineFor(ctx, origin, c.Worker)
	case *ForceOffline:
		return r.workers.ForceOffline(ctx, origin)
	case *ForceOfflineFor:
		return r.workers.ForceOfflineFor(ctx, origin, c.Worker)
	case *Heartbeat:
		return r.workers.Heartbeat(ctx, origin)

	case *RegisterImpl:
		_, err := r.impls.RegisterImpl(ctx, origin, c.AttestationMethod, c.DeploymentPermission)
		return err
	case *DeregisterImpl:
		return r.impls.DeregisterImpl(ctx, origin, c.ImplId)
	case *UpdateImplMetadata:
		return r.impls.UpdateImplMetadata(ctx, origin, c.ImplId, c.Metadata)
	case *RemoveImplMetadata:
		return r.impls.RemoveImplMetadata(ctx, origin, c.ImplId)
	case *UpdateImplBuildRestriction:
		return r.impls.UpdateImplBuildRestriction(ctx, origin, c.ImplId, c.Restriction)
	case *UpdateImplDeploymentPermission:
		return r.impls.UpdateImplDeploymentPermission(ctx, origin, c.ImplId, c.Permission)
	case *RegisterImplBuild:
		return r.impls.RegisterImplBuild(ctx, origin, c.ImplId, c.Version, c.MagicBytes)
	case *UpdateImplBuildStatus:
		return r.impls.UpdateImplBuildStatus(ctx, origin, c.ImplId, c.Version, c.Status)
	case *DeregisterImplBuild:
		return r.impls.DeregisterImplBuild(ctx, origin, c.ImplId, c.Version)
	case *RegisterImplBuildMagicBytes:
		return r.impls.RegisterImplBuildMagicBytes(ctx, origin, c.ImplId, c.Version, c.MagicBytes)
	case *DeregisterImplBuildMagicBytes:
		return r.impls.DeregisterImplBuildMagicBytes(ctx, origin, c.ImplId, c.Version, c.MagicBytes)

	case *CreatePool:
		_, err := r.pools.CreatePool(ctx, origin, c.ImplId)
		return err
	case *DestroyPool:
		return r.pools.DestroyPool(ctx, origin, c.PoolId)
	case *UpdatePoolMetadata:
		return r.pools.UpdatePoolMetadata(ctx, origin, c.PoolId, c.Metadata)
	case *RemovePoolMetadata:
		return r.pools.RemovePoolMetadata(ctx, origin, c.PoolId)
	case *TogglePoolCreatingJobAvailability:
		return r.pools.TogglePoolCreatingJobAvailability(ctx, origin, c.PoolId, c.Available)
	case *UpdatePoolImplSpecVersionRange:
		return r.pools.UpdatePoolImplSpecVersionRange(ctx, origin, c.PoolId, c.MinVersion, c.MaxVersion)
	case *AuthorizeWorker:
		return r.pools.AuthorizeWorker(ctx, origin, c.PoolId, c.Worker)
	case *RevokeWorker:
		return r.pools.RevokeWorker(ctx, origin, c.PoolId, c.Worker)
	case *SubscribePool:
		return r.pools.SubscribePool(ctx, origin, c.PoolId)
	case *UnsubscribePool:
		return r.pools.UnsubscribePool(ctx, origin, c.PoolId)

	case *CreateJobPolicy:
		_, err := r.pools.CreateJobPolicy(ctx, origin, c.PoolId, c.Scope, c.StartBlock, c.EndBlock)
		return err
	case *DestroyJobPolicy:
		return r.pools.DestroyJobPolicy(ctx, origin, c.PoolId, c.PolicyId)
	case *UpdateJobPolicyEnablement:
		return r.pools.UpdateJobPolicyEnablement(ctx, origin, c.PoolId, c.PolicyId, c.Enabled)

	case *CreateJob:
		_, err := r.pools.CreateJob(ctx, origin, c.PoolId, c.PolicyId, c.ImplSpecVersion, c.Input, c.ExpiresIn)
		return err
	case *DestroyJob:
		return r.pools.DestroyJob(ctx, origin, c.PoolId, c.JobId)
	case *DestroyExpiredJob:
		return r.pools.DestroyExpiredJob(ctx, origin, c.PoolId, c.JobId)
	case *TakeJob:
		_, err := r.pools.TakeJob(ctx, origin, c.PoolId, c.JobId, c.Processing)
		return err
	case *ReleaseJob:
		return r.pools.ReleaseJob(ctx, origin, c.PoolId, c.JobId)
	case *SubmitJobResult:
		return r.pools.SubmitJobResult(ctx, origin, c.PoolId, c.JobId, c.Result, c.Output, c.Proof)

	default:
		return errorsmod.Wrapf(ErrUnknownCall, "%T", call)
	}
}
