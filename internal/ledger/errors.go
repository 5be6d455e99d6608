package ledger

import errorsmod "cosmossdk.io/errors"

const Codespace = "ledger"

var (
	ErrInsufficientBalance  = errorsmod.Register(Codespace, 2, "insufficient free balance")
	ErrInsufficientReserved = errorsmod.Register(Codespace, 3, "insufficient reserved balance")
	ErrExistentialDeposit   = errorsmod.Register(Codespace, 4, "value below existential deposit")
	ErrKeepAlive            = errorsmod.Register(Codespace, 5, "transfer would kill account")
	ErrOverflow             = errorsmod.Register(Codespace, 6, "balance overflow")
)
