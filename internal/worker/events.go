package worker

import (
	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/primitives"
)

type workersEvent struct{}

func (workersEvent) Module() string { return Codespace }

type WorkerRegistered struct {
	workersEvent
	Worker primitives.AccountId `json:"worker"`
	Owner  primitives.AccountId `json:"owner"`
}

type WorkerDeregistered struct {
	workersEvent
	Worker primitives.AccountId `json:"worker"`
}

type TransferredToWorker struct {
	workersEvent
	Worker primitives.AccountId `json:"worker"`
	Amount primitives.Balance   `json:"amount"`
}

type WithdrewFromWorker struct {
	workersEvent
	Worker primitives.AccountId `json:"worker"`
	Amount primitives.Balance   `json:"amount"`
}

type WorkerOnline struct {
	workersEvent
	Worker               primitives.AccountId        `json:"worker"`
	ImplSpecVersion      primitives.ImplSpecVersion  `json:"impl_spec_version"`
	ImplBuildVersion     primitives.ImplBuildVersion `json:"impl_build_version"`
	AttestationMethod    attestation.Method          `json:"attestation_method"`
	AttestationExpiresAt *uint64                     `json:"attestation_expires_at,omitempty"`
	NextHeartbeat        primitives.BlockNumber      `json:"next_heartbeat"`
}

type WorkerRequestingOffline struct {
	workersEvent
	Worker primitives.AccountId `json:"worker"`
}

type WorkerOffline struct {
	workersEvent
	Worker primitives.AccountId `json:"worker"`
	Reason OfflineReason        `json:"reason"`
}

type WorkerHeartbeatReceived struct {
	workersEvent
	Worker primitives.AccountId   `json:"worker"`
	Next   primitives.BlockNumber `json:"next"`
}

type WorkerAttestationRefreshed struct {
	workersEvent
	Worker    primitives.AccountId `json:"worker"`
	ExpiresAt *uint64              `json:"expires_at,omitempty"`
}

// FlipFlopStageChanged is emitted when a new heartbeat window opens.
type FlipFlopStageChanged struct {
	workersEvent
	Stage     Stage                  `json:"stage"`
	StartedAt primitives.BlockNumber `json:"started_at"`
}

func (WorkerRegistered) EventName() string           { return "WorkerRegistered" }
func (WorkerDeregistered) EventName() string         { return "WorkerDeregistered" }
func (TransferredToWorker) EventName() string        { return "TransferredToWorker" }
func (WithdrewFromWorker) EventName() string         { return "WithdrewFromWorker" }
func (WorkerOnline) EventName() string               { return "WorkerOnline" }
func (WorkerRequestingOffline) EventName() string    { return "WorkerRequestingOffline" }
func (WorkerOffline) EventName() string              { return "WorkerOffline" }
func (WorkerHeartbeatReceived) EventName() string    { return "WorkerHeartbeatReceived" }
func (WorkerAttestationRefreshed) EventName() string { return "WorkerAttestationRefreshed" }
func (FlipFlopStageChanged) EventName() string       { return "FlipFlopStageChanged" }
