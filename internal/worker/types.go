// Package worker tracks registered workers and their online lifecycle, and
// detects unresponsive workers with the flip-flop heartbeat protocol.
package worker

import (
	"fmt"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/primitives"
)

type Status uint8

const (
	Registered Status = iota
	Online
	// RequestingOffline workers still heartbeat until they hold no jobs
	RequestingOffline
	Offline
)

func (s Status) String() string {
	switch s {
	case Registered:
		return "Registered"
	case Online:
		return "Online"
	case RequestingOffline:
		return "RequestingOffline"
	case Offline:
		return "Offline"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Info is the stored record of a worker, keyed by the worker's own account.
type Info struct {
	Owner   primitives.AccountId
	Deposit primitives.Balance
	Status  Status

	ImplId               *primitives.ImplId
	ImplSpecVersion      *primitives.ImplSpecVersion
	ImplBuildVersion     *primitives.ImplBuildVersion
	AttestationMethod    *attestation.Method
	AttestationExpiresAt *uint64
	AttestedAt           *uint64
}

// Active reports whether the worker is online, including while it is
// requesting to go offline.
func (i Info) Active() bool {
	return i.Status == Online || i.Status == RequestingOffline
}

type OfflineReason uint8

const (
	Graceful OfflineReason = iota
	Forced
	Unresponsive
	AttestationExpired
	ImplBlocked
	InsufficientDepositFunds
)

func (r OfflineReason) String() string {
	switch r {
	case Graceful:
		return "Graceful"
	case Forced:
		return "Forced"
	case Unresponsive:
		return "Unresponsive"
	case AttestationExpired:
		return "AttestationExpired"
	case ImplBlocked:
		return "ImplBlocked"
	case InsufficientDepositFunds:
		return "InsufficientDepositFunds"
	default:
		return fmt.Sprintf("OfflineReason(%d)", uint8(r))
	}
}

func (r OfflineReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Stage of the flip-flop detector. In a steady stage heartbeats consume
// entries of the stage's own set and reschedule the worker in the other set.
// In a reap stage whatever is left in the old set is offlined.
type Stage uint8

const (
	Flip Stage = iota
	Flop
	FlipToFlop
	FlopToFlip
)

func (s Stage) String() string {
	switch s {
	case Flip:
		return "Flip"
	case Flop:
		return "Flop"
	case FlipToFlop:
		return "FlipToFlop"
	case FlopToFlip:
		return "FlopToFlip"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s Stage) reaping() bool {
	return s == FlipToFlop || s == FlopToFlip
}
