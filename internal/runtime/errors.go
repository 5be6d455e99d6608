package runtime

import errorsmod "cosmossdk.io/errors"

const Codespace = "runtime"

var (
	ErrInternal        = errorsmod.Register(Codespace, 2, "internal error")
	ErrInvalidBlock    = errorsmod.Register(Codespace, 3, "invalid block")
	ErrUnknownCall     = errorsmod.Register(Codespace, 4, "unknown call")
	ErrInvariantBroken = errorsmod.Register(Codespace, 5, "invariant broken")
	ErrCallDecode      = errorsmod.Register(Codespace, 6, "call decode failed")
	ErrGenesis         = errorsmod.Register(Codespace, 7, "invalid genesis")
)
