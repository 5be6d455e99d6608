package worker

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/config"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/safemath"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/pkg/log"
)

// Engine executes the worker operations and the flip-flop detector.
type Engine struct {
	params      config.Params
	attestation attestation.Config
	hooks       Hooks
}

func NewEngine(params config.Params, hooks Hooks) *Engine {
	if hooks == nil {
		hooks = NoopHooks{}
	}
	return &Engine{
		params: params,
		attestation: attestation.Config{
			NonTEEValidity:      params.NonTEEAttestationValidity,
			ClockDriftTolerance: params.AttestationClockDriftTolerance,
		},
		hooks: hooks,
	}
}

// Register creates a worker owned by the signer. initialBalance moves from
// the owner to the worker and the registration deposit is reserved out of
// it.
func (e *Engine) Register(ctx *chain.Context, origin primitives.Origin, worker primitives.AccountId,
	initialBalance primitives.Balance) error {
	owner, err := chain.EnsureSigned(origin)
	if err != nil {
		return err
	}
	if owner == worker {
		return ErrInvalidOwner
	}
	exists, err := Exists(ctx.Store, worker)
	if err != nil {
		return err
	}
	if exists {
		return errorsmod.Wrapf(ErrAlreadyRegistered, "worker %s", worker)
	}
	deposit := e.params.RegisterWorkerDeposit
	required := safemath.SaturatingAdd64(uint64(deposit), uint64(ctx.Currency.MinimumBalance()))
	if uint64(initialBalance) < required {
		return errorsmod.Wrapf(ErrInitialBalanceTooLow, "need %d, got %d", required, initialBalance)
	}

	if err := ctx.Currency.Transfer(owner, worker, initialBalance, true); err != nil {
		return depositError(err)
	}
	if err := ctx.Currency.Reserve(worker, deposit); err != nil {
		return depositError(err)
	}
	if err := store.Put(ctx.Store, workerKey(worker), Info{Owner: owner, Deposit: deposit, Status: Registered}); err != nil {
		return err
	}
	if err := e.adjustCount(ctx, safemath.Inc32); err != nil {
		return err
	}

	log.Workers.Debug().Str("worker", worker.Short()).Str("owner", owner.Short()).Msg("worker registered")
	ctx.Emit(WorkerRegistered{Worker: worker, Owner: owner})
	return nil
}

// Deregister removes an idle worker, releases its deposit and sweeps its
// free balance back to the owner.
func (e *Engine) Deregister(ctx *chain.Context, origin primitives.Origin, worker primitives.AccountId) error {
	info, err := e.owned(ctx, origin, worker)
	if err != nil {
		return err
	}
	if info.Status != Registered && info.Status != Offline {
		return errorsmod.Wrapf(ErrNotOffline, "worker is %s", info.Status)
	}
	ok, err := e.hooks.CanDeregister(ctx, worker)
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrapf(ErrDeregisterBlocked, "worker %s", worker)
	}
	if err := e.hooks.BeforeDeregister(ctx, worker); err != nil {
		return err
	}

	if err := ctx.Currency.Unreserve(worker, info.Deposit); err != nil {
		return err
	}
	free, err := ctx.Currency.FreeBalance(worker)
	if err != nil {
		return err
	}
	if err := ctx.Currency.Transfer(worker, info.Owner, free, false); err != nil {
		return err
	}
	if err := ctx.Store.Delete(workerKey(worker)); err != nil {
		return err
	}
	if err := e.adjustCount(ctx, safemath.Dec32); err != nil {
		return err
	}

	log.Workers.Debug().Str("worker", worker.Short()).Msg("worker deregistered")
	ctx.Emit(WorkerDeregistered{Worker: worker})
	return nil
}

// TransferToWorker funds a worker from its owner.
func (e *Engine) TransferToWorker(ctx *chain.Context, origin primitives.Origin, worker primitives.AccountId,
	amount primitives.Balance) error {
	info, err := e.owned(ctx, origin, worker)
	if err != nil {
		return err
	}
	if err := ctx.Currency.Transfer(info.Owner, worker, amount, true); err != nil {
		return err
	}
	ctx.Emit(TransferredToWorker{Worker: worker, Amount: amount})
	return nil
}

// WithdrawFromWorker moves free funds of a worker back to its owner. The
// reserved deposit cannot be withdrawn.
func (e *Engine) WithdrawFromWorker(ctx *chain.Context, origin primitives.Origin, worker primitives.AccountId,
	amount primitives.Balance) error {
	info, err := e.owned(ctx, origin, worker)
	if err != nil {
		return err
	}
	if err := ctx.Currency.Transfer(worker, info.Owner, amount, true); err != nil {
		return err
	}
	ctx.Emit(WithdrewFromWorker{Worker: worker, Amount: amount})
	return nil
}

func (e *Engine) owned(ctx *chain.Context, origin primitives.Origin, worker primitives.AccountId) (Info, error) {
	owner, err := chain.EnsureSigned(origin)
	if err != nil {
		return Info{}, err
	}
	info, err := Get(ctx.Store, worker)
	if err != nil {
		return Info{}, err
	}
	if info.Owner != owner {
		return Info{}, errorsmod.Wrapf(ErrNotTheOwner, "worker %s", worker)
	}
	return info, nil
}

func (e *Engine) adjustCount(ctx *chain.Context, step func(uint32) (uint32, error)) error {
	n, err := Count(ctx.Store)
	if err != nil {
		return err
	}
	if n, err = step(n); err != nil {
		return ErrOverflow
	}
	return store.Put(ctx.Store, counterKey(), n)
}

func depositError(err error) error {
	if ledger.IsInsufficient(err) {
		return errorsmod.Wrap(ErrInsufficientDeposit, err.Error())
	}
	return err
}
