package worker

import (
	"errors"

	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/pkg/log"
)

// Online brings a registered or offline worker online with the impl build
// named in payload. The attestation must carry the worker's signature over
// the payload.
func (e *Engine) Online(ctx *chain.Context, origin primitives.Origin, payload primitives.OnlinePayload,
	envelope attestation.Envelope) error {
	worker, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	info, err := Get(ctx.Store, worker)
	if err != nil {
		return err
	}
	if info.Status != Registered && info.Status != Offline {
		return errorsmod.Wrapf(ErrNotOffline, "worker is %s", info.Status)
	}

	method := envelope.Method
	if err := e.checkMethodAllowed(method); err != nil {
		return err
	}
	if info.ImplId != nil && *info.ImplId != payload.ImplId {
		return errorsmod.Wrapf(ErrImplMismatched, "worker runs impl %d", *info.ImplId)
	}
	if info.AttestationMethod != nil && *info.AttestationMethod != method {
		return errorsmod.Wrapf(ErrAttestationMethodChanged, "worker attests with %s", *info.AttestationMethod)
	}
	implInfo, err := impl.CheckOnline(ctx.Store, payload)
	if err != nil {
		return err
	}
	if implInfo.AttestationMethod != method {
		return errorsmod.Wrapf(ErrUnsupportedAttestation, "impl %d requires %s", payload.ImplId, implInfo.AttestationMethod)
	}

	if err := e.topUpDeposit(ctx, worker, &info); err != nil {
		return err
	}
	verified, err := e.verify(ctx, worker, payload, envelope)
	if err != nil {
		return err
	}
	if err := e.hooks.CanOnline(ctx, worker, payload, verified); err != nil {
		return err
	}

	implId, spec, build := payload.ImplId, payload.ImplSpecVersion, payload.ImplBuildVersion
	now := ctx.Now
	info.ImplId = &implId
	info.ImplSpecVersion = &spec
	info.ImplBuildVersion = &build
	info.AttestationMethod = &method
	info.AttestationExpiresAt = verified.ExpiresAt
	info.AttestedAt = &now
	info.Status = Online
	if err := store.Put(ctx.Store, workerKey(worker), info); err != nil {
		return err
	}
	if err := impl.AddWorker(ctx.Store, implId, build); err != nil {
		return err
	}
	next, err := e.schedule(ctx, worker)
	if err != nil {
		return err
	}

	log.Workers.Debug().Str("worker", worker.Short()).Uint32("impl", uint32(implId)).
		Uint32("build", uint32(build)).Uint64("next", uint64(next)).Msg("worker online")
	ctx.Emit(WorkerOnline{
		Worker:               worker,
		ImplSpecVersion:      spec,
		ImplBuildVersion:     build,
		AttestationMethod:    method,
		AttestationExpiresAt: verified.ExpiresAt,
		NextHeartbeat:        next,
	})
	return e.hooks.AfterOnline(ctx, worker)
}

// RefreshAttestation replaces an expiring attestation of an online worker.
func (e *Engine) RefreshAttestation(ctx *chain.Context, origin primitives.Origin, payload primitives.OnlinePayload,
	envelope attestation.Envelope) error {
	worker, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	info, err := Get(ctx.Store, worker)
	if err != nil {
		return err
	}
	if !info.Active() {
		return errorsmod.Wrapf(ErrNotOnline, "worker is %s", info.Status)
	}
	if info.AttestationExpiresAt == nil {
		return ErrAttestationNeverExpire
	}
	if *info.ImplId != payload.ImplId {
		return errorsmod.Wrapf(ErrImplMismatched, "worker runs impl %d", *info.ImplId)
	}
	if *info.ImplSpecVersion != payload.ImplSpecVersion || *info.ImplBuildVersion != payload.ImplBuildVersion {
		return errorsmod.Wrapf(ErrImplBuildChanged, "worker runs spec %d build %d", *info.ImplSpecVersion, *info.ImplBuildVersion)
	}
	if *info.AttestationMethod != envelope.Method {
		return errorsmod.Wrapf(ErrAttestationMethodChanged, "worker attests with %s", *info.AttestationMethod)
	}
	match, err := impl.MatchesMagicBytes(ctx.Store, payload)
	if err != nil {
		return err
	}
	if !match {
		return errorsmod.Wrapf(impl.ErrImplBuildMagicBytesMismatched, "build %d", payload.ImplBuildVersion)
	}

	verified, err := e.verify(ctx, worker, payload, envelope)
	if err != nil {
		return err
	}
	now := ctx.Now
	info.AttestedAt = &now
	info.AttestationExpiresAt = verified.ExpiresAt
	if err := store.Put(ctx.Store, workerKey(worker), info); err != nil {
		return err
	}

	ctx.Emit(WorkerAttestationRefreshed{Worker: worker, ExpiresAt: verified.ExpiresAt})
	return e.hooks.AfterRefreshAttestation(ctx, worker, payload, verified)
}

// RequestOffline is called by the worker itself.
func (e *Engine) RequestOffline(ctx *chain.Context, origin primitives.Origin) error {
	worker, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	info, err := Get(ctx.Store, worker)
	if err != nil {
		return err
	}
	return e.requestOffline(ctx, worker, info)
}

// RequestOfflineFor is called by the owner on behalf of a worker.
func (e *Engine) RequestOfflineFor(ctx *chain.Context, origin primitives.Origin, worker primitives.AccountId) error {
	info, err := e.owned(ctx, origin, worker)
	if err != nil {
		return err
	}
	return e.requestOffline(ctx, worker, info)
}

// requestOffline goes offline right away when the hooks allow it. Otherwise
// the worker is parked in RequestingOffline and keeps heartbeating until a
// later heartbeat finds it free.
func (e *Engine) requestOffline(ctx *chain.Context, worker primitives.AccountId, info Info) error {
	switch info.Status {
	case Online:
	case RequestingOffline:
		return ErrAlreadyRequestedOffline
	default:
		return errorsmod.Wrapf(ErrNotOnline, "worker is %s", info.Status)
	}
	ok, err := e.hooks.CanOffline(ctx, worker)
	if err != nil {
		return err
	}
	if ok {
		return e.goOffline(ctx, worker, info, Graceful)
	}

	info.Status = RequestingOffline
	if err := store.Put(ctx.Store, workerKey(worker), info); err != nil {
		return err
	}
	ctx.Emit(WorkerRequestingOffline{Worker: worker})
	return e.hooks.AfterRequestingOffline(ctx, worker)
}

func (e *Engine) ForceOffline(ctx *chain.Context, origin primitives.Origin) error {
	worker, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	info, err := Get(ctx.Store, worker)
	if err != nil {
		return err
	}
	return e.forceOffline(ctx, worker, info)
}

func (e *Engine) ForceOfflineFor(ctx *chain.Context, origin primitives.Origin, worker primitives.AccountId) error {
	info, err := e.owned(ctx, origin, worker)
	if err != nil {
		return err
	}
	return e.forceOffline(ctx, worker, info)
}

func (e *Engine) forceOffline(ctx *chain.Context, worker primitives.AccountId, info Info) error {
	if !info.Active() {
		return errorsmod.Wrapf(ErrNotOnline, "worker is %s", info.Status)
	}
	return e.goOffline(ctx, worker, info, Forced)
}

// Heartbeat proves the worker is alive in the current window. A worker that
// can no longer stay online is offlined instead and the call still succeeds.
func (e *Engine) Heartbeat(ctx *chain.Context, origin primitives.Origin) error {
	worker, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	info, err := Get(ctx.Store, worker)
	if err != nil {
		return err
	}
	if !info.Active() {
		return errorsmod.Wrapf(ErrNotOnline, "worker is %s", info.Status)
	}

	if info.AttestationExpiresAt != nil && ctx.Now >= *info.AttestationExpiresAt {
		return e.goOffline(ctx, worker, info, AttestationExpired)
	}
	if info.Status == RequestingOffline {
		ok, err := e.hooks.CanOffline(ctx, worker)
		if err != nil {
			return err
		}
		if ok {
			return e.goOffline(ctx, worker, info, Graceful)
		}
	}
	reserved, err := ctx.Currency.ReservedBalance(worker)
	if err != nil {
		return err
	}
	if reserved < info.Deposit {
		return e.goOffline(ctx, worker, info, InsufficientDepositFunds)
	}
	usable, err := impl.BuildUsable(ctx.Store, *info.ImplId, *info.ImplBuildVersion)
	if err != nil {
		return err
	}
	if !usable {
		return e.goOffline(ctx, worker, info, ImplBlocked)
	}

	stage, _, _, err := FlipFlop(ctx.Store)
	if err != nil {
		return err
	}
	if stage.reaping() {
		return errorsmod.Wrapf(ErrTooEarly, "heartbeat window closed, stage %s", stage)
	}
	active := activeSet(stage)
	due, found, err := store.Get[primitives.BlockNumber](ctx.Store, active.key(worker))
	if err != nil {
		return err
	}
	if !found {
		return ErrHeartbeatAlreadySent
	}
	if due > ctx.Block {
		return errorsmod.Wrapf(ErrTooEarly, "next heartbeat at %d", due)
	}
	if err := ctx.Store.Delete(active.key(worker)); err != nil {
		return err
	}
	next, err := e.schedule(ctx, worker)
	if err != nil {
		return err
	}

	ctx.Emit(WorkerHeartbeatReceived{Worker: worker, Next: next})
	return nil
}

// goOffline lets the hooks clean up, then offlines the worker.
func (e *Engine) goOffline(ctx *chain.Context, worker primitives.AccountId, info Info, reason OfflineReason) error {
	if err := e.hooks.BeforeOffline(ctx, worker, reason); err != nil {
		return err
	}
	if err := ctx.Store.Delete(flipSet.key(worker)); err != nil {
		return err
	}
	if err := ctx.Store.Delete(flopSet.key(worker)); err != nil {
		return err
	}
	if err := impl.RemoveWorker(ctx.Store, *info.ImplId, *info.ImplBuildVersion); err != nil {
		return err
	}
	info.Status = Offline
	if err := store.Put(ctx.Store, workerKey(worker), info); err != nil {
		return err
	}

	log.Workers.Debug().Str("worker", worker.Short()).Stringer("reason", reason).Msg("worker offline")
	ctx.Emit(WorkerOffline{Worker: worker, Reason: reason})
	return nil
}

func (e *Engine) checkMethodAllowed(method attestation.Method) error {
	switch {
	case method == attestation.OptOut && e.params.DisallowOptOutAttestation:
		return ErrOptOutAttestationDisallowed
	case method == attestation.NonTEE && e.params.DisallowNonTEEAttestation:
		return ErrDisallowNonTEEAttestation
	case !method.Valid():
		return errorsmod.Wrapf(ErrUnsupportedAttestation, "%s", method)
	}
	return nil
}

// topUpDeposit reserves from free balance whatever the worker is missing of
// the current registration deposit.
func (e *Engine) topUpDeposit(ctx *chain.Context, worker primitives.AccountId, info *Info) error {
	required := info.Deposit
	if e.params.RegisterWorkerDeposit > required {
		required = e.params.RegisterWorkerDeposit
	}
	reserved, err := ctx.Currency.ReservedBalance(worker)
	if err != nil {
		return err
	}
	if reserved < required {
		if err := ctx.Currency.Reserve(worker, required-reserved); err != nil {
			return depositError(err)
		}
	}
	info.Deposit = required
	return nil
}

func (e *Engine) verify(ctx *chain.Context, worker primitives.AccountId, payload primitives.OnlinePayload,
	envelope attestation.Envelope) (attestation.Verified, error) {
	att, err := envelope.Open(e.attestation)
	if err != nil {
		return attestation.Verified{}, errorsmod.Wrap(ErrUnsupportedAttestation, err.Error())
	}
	verified, err := att.Verify(ctx.Now)
	switch {
	case errors.Is(err, attestation.ErrExpired):
		return attestation.Verified{}, errorsmod.Wrap(ErrExpiredAttestation, err.Error())
	case err != nil:
		return attestation.Verified{}, errorsmod.Wrap(ErrInvalidAttestation, err.Error())
	}
	ok, err := attestation.CheckSignature(att.Method(), verified, worker, payload)
	if err != nil {
		return attestation.Verified{}, err
	}
	if !ok {
		return attestation.Verified{}, ErrPayloadSignatureMismatched
	}
	return verified, nil
}
