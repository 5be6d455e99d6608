package worker

import errorsmod "cosmossdk.io/errors"

const Codespace = "workers"

var (
	ErrNotTheOwner  = errorsmod.Register(Codespace, 2, "not the owner")
	ErrInvalidOwner = errorsmod.Register(Codespace, 3, "worker cannot own itself")

	ErrAlreadyRegistered       = errorsmod.Register(Codespace, 10, "worker already registered")
	ErrNotExists               = errorsmod.Register(Codespace, 11, "worker not exists")
	ErrNotOffline              = errorsmod.Register(Codespace, 12, "worker not offline")
	ErrNotOnline               = errorsmod.Register(Codespace, 13, "worker not online")
	ErrAlreadyRequestedOffline = errorsmod.Register(Codespace, 14, "worker already requested offline")
	ErrDeregisterBlocked       = errorsmod.Register(Codespace, 15, "worker deregistration blocked")

	ErrOptOutAttestationDisallowed = errorsmod.Register(Codespace, 20, "opt out attestation disallowed")
	ErrDisallowNonTEEAttestation   = errorsmod.Register(Codespace, 21, "non TEE attestation disallowed")
	ErrUnsupportedAttestation      = errorsmod.Register(Codespace, 22, "unsupported attestation")
	ErrExpiredAttestation          = errorsmod.Register(Codespace, 23, "expired attestation")
	ErrInvalidAttestation          = errorsmod.Register(Codespace, 24, "invalid attestation")
	ErrPayloadSignatureMismatched  = errorsmod.Register(Codespace, 25, "payload signature mismatched")
	ErrAttestationMethodChanged    = errorsmod.Register(Codespace, 26, "attestation method changed")
	ErrAttestationNeverExpire      = errorsmod.Register(Codespace, 27, "attestation never expire")

	ErrImplMismatched   = errorsmod.Register(Codespace, 30, "impl mismatched")
	ErrImplBuildChanged = errorsmod.Register(Codespace, 31, "impl build changed")

	ErrInsufficientDeposit  = errorsmod.Register(Codespace, 40, "insufficient deposit")
	ErrInitialBalanceTooLow = errorsmod.Register(Codespace, 41, "initial balance too low")

	ErrHeartbeatAlreadySent = errorsmod.Register(Codespace, 50, "heartbeat already sent")
	ErrTooEarly             = errorsmod.Register(Codespace, 51, "too early")

	ErrOverflow = errorsmod.Register(Codespace, 60, "counter overflow")
)
