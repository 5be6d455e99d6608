package chain

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/primitives"
)

const Codespace = "system"

var ErrBadOrigin = errorsmod.Register(Codespace, 2, "bad origin")

// EnsureSigned returns the signing account of origin.
func EnsureSigned(origin primitives.Origin) (primitives.AccountId, error) {
	who, ok := origin.Signer()
	if !ok {
		return primitives.AccountId{}, errorsmod.Wrapf(ErrBadOrigin, "expected signed origin, got %s", origin)
	}
	return who, nil
}
