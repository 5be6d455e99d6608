package impl

import errorsmod "cosmossdk.io/errors"

const Codespace = "impls"

var (
	ErrNotTheOwner = errorsmod.Register(Codespace, 2, "not the owner")

	ErrImplNotFound                         = errorsmod.Register(Codespace, 10, "impl not found")
	ErrImplIdTaken                          = errorsmod.Register(Codespace, 11, "impl id taken")
	ErrImplStillInUse                       = errorsmod.Register(Codespace, 12, "impl still in use")
	ErrImplBuildNotFound                    = errorsmod.Register(Codespace, 13, "impl build not found")
	ErrImplBuildAlreadyRegistered           = errorsmod.Register(Codespace, 14, "impl build already registered")
	ErrImplBuildRestricted                  = errorsmod.Register(Codespace, 15, "impl build restricted")
	ErrImplBuildStillInUse                  = errorsmod.Register(Codespace, 16, "impl build still in use")
	ErrImplBuildMagicBytesMismatched        = errorsmod.Register(Codespace, 17, "impl build magic bytes mismatched")
	ErrImplBuildMagicBytesAlreadyRegistered = errorsmod.Register(Codespace, 18, "impl build magic bytes already registered")
	ErrImplBuildMagicBytesNotRegistered     = errorsmod.Register(Codespace, 19, "impl build magic bytes not registered")
	ErrImplBuildMagicBytesLimitExceeded     = errorsmod.Register(Codespace, 20, "impl build magic bytes limit exceeded")
	ErrInvalidBuildRestriction              = errorsmod.Register(Codespace, 21, "invalid build restriction")
	ErrUnsupportedAttestation               = errorsmod.Register(Codespace, 22, "unsupported attestation method")

	ErrInsufficientDeposit = errorsmod.Register(Codespace, 30, "insufficient deposit")
	ErrPayloadTooLarge     = errorsmod.Register(Codespace, 31, "payload too large")
	ErrMetadataNotFound    = errorsmod.Register(Codespace, 32, "impl metadata not found")
	ErrOverflow            = errorsmod.Register(Codespace, 33, "counter overflow")
)
