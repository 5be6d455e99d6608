// Package ledger holds account balances. Deposits throughout the system are
// reserved funds: they stay on the account but cannot be spent until
// unreserved.
package ledger

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/safemath"
	"github.com/eigerco/computeplane/internal/store"
)

// Currency is the ledger contract the engines depend on.
type Currency interface {
	FreeBalance(who primitives.AccountId) (primitives.Balance, error)
	ReservedBalance(who primitives.AccountId) (primitives.Balance, error)
	// MinimumBalance is the existential deposit. Accounts whose total falls
	// below it are reaped.
	MinimumBalance() primitives.Balance
	// Reserve moves amount from free to reserved. The free balance left
	// behind must stay at or above the minimum balance.
	Reserve(who primitives.AccountId, amount primitives.Balance) error
	Unreserve(who primitives.AccountId, amount primitives.Balance) error
	Transfer(src, dst primitives.AccountId, amount primitives.Balance, keepAlive bool) error
}

// StorageVersion of the balances module layout.
const StorageVersion store.StorageVersion = 1

const (
	itemAccount byte = iota + 1
	itemTotalIssuance
)

// AccountData is the stored balance of one account.
type AccountData struct {
	Free     primitives.Balance
	Reserved primitives.Balance
}

func (a AccountData) total() (primitives.Balance, bool) {
	v, ok := safemath.Add64(uint64(a.Free), uint64(a.Reserved))
	return primitives.Balance(v), ok
}

func accountKey(who primitives.AccountId) []byte {
	return store.MakeKey(store.ModuleBalances, itemAccount, who[:])
}

func totalIssuanceKey() []byte {
	return store.MakeKey(store.ModuleBalances, itemTotalIssuance)
}

var _ Currency = (*Balances)(nil)

// Balances is a store backed Currency.
type Balances struct {
	store              *store.Store
	existentialDeposit primitives.Balance
}

func NewBalances(s *store.Store, existentialDeposit primitives.Balance) *Balances {
	return &Balances{store: s, existentialDeposit: existentialDeposit}
}

func (b *Balances) Account(who primitives.AccountId) (AccountData, error) {
	return store.GetOr(b.store, accountKey(who), AccountData{})
}

func (b *Balances) setAccount(who primitives.AccountId, acc AccountData) error {
	if acc.Free == 0 && acc.Reserved == 0 {
		return b.store.Delete(accountKey(who))
	}
	return store.Put(b.store, accountKey(who), acc)
}

func (b *Balances) FreeBalance(who primitives.AccountId) (primitives.Balance, error) {
	acc, err := b.Account(who)
	return acc.Free, err
}

func (b *Balances) ReservedBalance(who primitives.AccountId) (primitives.Balance, error) {
	acc, err := b.Account(who)
	return acc.Reserved, err
}

func (b *Balances) MinimumBalance() primitives.Balance {
	return b.existentialDeposit
}

func (b *Balances) TotalIssuance() (primitives.Balance, error) {
	return store.GetOr[primitives.Balance](b.store, totalIssuanceKey(), 0)
}

func (b *Balances) Reserve(who primitives.AccountId, amount primitives.Balance) error {
	if amount == 0 {
		return nil
	}
	acc, err := b.Account(who)
	if err != nil {
		return err
	}
	free, ok := safemath.Sub64(uint64(acc.Free), uint64(amount))
	if !ok {
		return errorsmod.Wrapf(ErrInsufficientBalance, "reserve %d, free %d", amount, acc.Free)
	}
	if primitives.Balance(free) < b.existentialDeposit {
		return errorsmod.Wrapf(ErrKeepAlive, "reserve %d leaves %d free", amount, free)
	}
	reserved, ok := safemath.Add64(uint64(acc.Reserved), uint64(amount))
	if !ok {
		return ErrOverflow
	}
	acc.Free, acc.Reserved = primitives.Balance(free), primitives.Balance(reserved)
	return b.setAccount(who, acc)
}

func (b *Balances) Unreserve(who primitives.AccountId, amount primitives.Balance) error {
	if amount == 0 {
		return nil
	}
	acc, err := b.Account(who)
	if err != nil {
		return err
	}
	if acc.Reserved < amount {
		return errorsmod.Wrapf(ErrInsufficientReserved, "unreserve %d, reserved %d", amount, acc.Reserved)
	}
	free, ok := safemath.Add64(uint64(acc.Free), uint64(amount))
	if !ok {
		return ErrOverflow
	}
	acc.Free, acc.Reserved = primitives.Balance(free), acc.Reserved-amount
	return b.setAccount(who, acc)
}

// Transfer moves free funds. Without keepAlive the source may be emptied; a
// remainder below the minimum balance on an account with nothing reserved is
// dust and is burned.
func (b *Balances) Transfer(src, dst primitives.AccountId, amount primitives.Balance, keepAlive bool) error {
	if amount == 0 || src == dst {
		return nil
	}
	from, err := b.Account(src)
	if err != nil {
		return err
	}
	remaining, ok := safemath.Sub64(uint64(from.Free), uint64(amount))
	if !ok {
		return errorsmod.Wrapf(ErrInsufficientBalance, "transfer %d, free %d", amount, from.Free)
	}
	var dust primitives.Balance
	if primitives.Balance(remaining) < b.existentialDeposit {
		if keepAlive {
			return errorsmod.Wrapf(ErrKeepAlive, "transfer %d leaves %d free", amount, remaining)
		}
		if from.Reserved == 0 {
			dust = primitives.Balance(remaining)
			remaining = 0
		}
	}

	to, err := b.Account(dst)
	if err != nil {
		return err
	}
	toTotal, ok := to.total()
	if !ok {
		return ErrOverflow
	}
	if toTotal == 0 && amount < b.existentialDeposit {
		return errorsmod.Wrapf(ErrExistentialDeposit, "transfer %d to new account", amount)
	}
	credited, ok := safemath.Add64(uint64(to.Free), uint64(amount))
	if !ok {
		return ErrOverflow
	}

	from.Free = primitives.Balance(remaining)
	to.Free = primitives.Balance(credited)
	if err := b.setAccount(src, from); err != nil {
		return err
	}
	if err := b.setAccount(dst, to); err != nil {
		return err
	}
	if dust > 0 {
		return b.burn(dust)
	}
	return nil
}

// Endow mints free funds to an account. Only used at genesis.
func (b *Balances) Endow(who primitives.AccountId, amount primitives.Balance) error {
	acc, err := b.Account(who)
	if err != nil {
		return err
	}
	free, ok := safemath.Add64(uint64(acc.Free), uint64(amount))
	if !ok {
		return ErrOverflow
	}
	issuance, err := b.TotalIssuance()
	if err != nil {
		return err
	}
	total, ok := safemath.Add64(uint64(issuance), uint64(amount))
	if !ok {
		return ErrOverflow
	}
	acc.Free = primitives.Balance(free)
	if err := b.setAccount(who, acc); err != nil {
		return err
	}
	return store.Put(b.store, totalIssuanceKey(), primitives.Balance(total))
}

func (b *Balances) burn(amount primitives.Balance) error {
	issuance, err := b.TotalIssuance()
	if err != nil {
		return err
	}
	return store.Put(b.store, totalIssuanceKey(), primitives.Balance(safemath.SaturatingSub64(uint64(issuance), uint64(amount))))
}

// Accounts visits every stored account in key order.
func (b *Balances) Accounts(fn func(who primitives.AccountId, acc AccountData) (bool, error)) error {
	return store.Each(b.store, store.MakeKey(store.ModuleBalances, itemAccount), func(key []byte, acc AccountData) (bool, error) {
		var who primitives.AccountId
		copy(who[:], key[2:])
		return fn(who, acc)
	})
}
