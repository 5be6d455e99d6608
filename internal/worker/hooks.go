package worker

import (
	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/primitives"
)

// Hooks let the component scheduling work onto workers take part in the
// worker lifecycle. Errors abort the operation being executed.
type Hooks interface {
	// CanOnline may veto an online transition.
	CanOnline(ctx *chain.Context, worker primitives.AccountId, payload primitives.OnlinePayload, verified attestation.Verified) error
	AfterOnline(ctx *chain.Context, worker primitives.AccountId) error
	// CanOffline is true when the worker holds no job in processing.
	CanOffline(ctx *chain.Context, worker primitives.AccountId) (bool, error)
	// BeforeOffline must leave no job assigned to the worker.
	BeforeOffline(ctx *chain.Context, worker primitives.AccountId, reason OfflineReason) error
	AfterRefreshAttestation(ctx *chain.Context, worker primitives.AccountId, payload primitives.OnlinePayload, verified attestation.Verified) error
	AfterRequestingOffline(ctx *chain.Context, worker primitives.AccountId) error
	// CanDeregister is true when nothing references the worker any more.
	CanDeregister(ctx *chain.Context, worker primitives.AccountId) (bool, error)
	BeforeDeregister(ctx *chain.Context, worker primitives.AccountId) error
}

var _ Hooks = NoopHooks{}

// NoopHooks allow everything.
type NoopHooks struct{}

func (NoopHooks) CanOnline(*chain.Context, primitives.AccountId, primitives.OnlinePayload, attestation.Verified) error {
	return nil
}

func (NoopHooks) AfterOnline(*chain.Context, primitives.AccountId) error { return nil }

func (NoopHooks) CanOffline(*chain.Context, primitives.AccountId) (bool, error) { return true, nil }

func (NoopHooks) BeforeOffline(*chain.Context, primitives.AccountId, OfflineReason) error { return nil }

func (NoopHooks) AfterRefreshAttestation(*chain.Context, primitives.AccountId, primitives.OnlinePayload, attestation.Verified) error {
	return nil
}

func (NoopHooks) AfterRequestingOffline(*chain.Context, primitives.AccountId) error { return nil }

func (NoopHooks) CanDeregister(*chain.Context, primitives.AccountId) (bool, error) { return true, nil }

func (NoopHooks) BeforeDeregister(*chain.Context, primitives.AccountId) error { return nil }
