package worker

import (
	"github.com/stretchr/testify/mock"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/primitives"
)

func NewHooksMock() *HooksMock {
	return &HooksMock{}
}

type HooksMock struct {
	mock.Mock
}

func (h *HooksMock) CanOnline(ctx *chain.Context, worker primitives.AccountId, payload primitives.OnlinePayload, verified attestation.Verified) error {
	args := h.MethodCalled("CanOnline", ctx, worker, payload, verified)
	return args.Error(0)
}

func (h *HooksMock) AfterOnline(ctx *chain.Context, worker primitives.AccountId) error {
	args := h.MethodCalled("AfterOnline", ctx, worker)
	return args.Error(0)
}

func (h *HooksMock) CanOffline(ctx *chain.Context, worker primitives.AccountId) (bool, error) {
	args := h.MethodCalled("CanOffline", ctx, worker)
	return args.Bool(0), args.Error(1)
}

func (h *HooksMock) BeforeOffline(ctx *chain.Context, worker primitives.AccountId, reason OfflineReason) error {
	args := h.MethodCalled("BeforeOffline", ctx, worker, reason)
	return args.Error(0)
}

func (h *HooksMock) AfterRefreshAttestation(ctx *chain.Context, worker primitives.AccountId, payload primitives.OnlinePayload, verified attestation.Verified) error {
	args := h.MethodCalled("AfterRefreshAttestation", ctx, worker, payload, verified)
	return args.Error(0)
}

func (h *HooksMock) AfterRequestingOffline(ctx *chain.Context, worker primitives.AccountId) error {
	args := h.MethodCalled("AfterRequestingOffline", ctx, worker)
	return args.Error(0)
}

func (h *HooksMock) CanDeregister(ctx *chain.Context, worker primitives.AccountId) (bool, error) {
	args := h.MethodCalled("CanDeregister", ctx, worker)
	return args.Bool(0), args.Error(1)
}

func (h *HooksMock) BeforeDeregister(ctx *chain.Context, worker primitives.AccountId) error {
	args := h.MethodCalled("BeforeDeregister", ctx, worker)
	return args.Error(0)
}
