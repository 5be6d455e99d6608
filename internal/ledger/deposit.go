package ledger

import (
	"errors"

	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/safemath"
)

// IsInsufficient reports whether err means the account could not cover a
// reservation or transfer, as opposed to a storage failure.
func IsInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrKeepAlive) ||
		errors.Is(err, ErrExistentialDeposit)
}

// DataDeposit is base + size*perByte.
func DataDeposit(base, perByte primitives.Balance, size int) (primitives.Balance, error) {
	bytes, ok := safemath.Mul64(uint64(perByte), uint64(size))
	if !ok {
		return 0, ErrOverflow
	}
	total, ok := safemath.Add64(uint64(base), bytes)
	if !ok {
		return 0, ErrOverflow
	}
	return primitives.Balance(total), nil
}

// Reconcile adjusts a reservation held for who from current to target.
func Reconcile(c Currency, who primitives.AccountId, current, target primitives.Balance) error {
	switch {
	case target > current:
		return c.Reserve(who, target-current)
	case target < current:
		return c.Unreserve(who, current-target)
	default:
		return nil
	}
}
