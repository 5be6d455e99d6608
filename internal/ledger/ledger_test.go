package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/pkg/db/pebble"
)

var (
	alice = primitives.AccountId{1}
	bob   = primitives.AccountId{2}
)

func newTestBalances(t *testing.T, ed primitives.Balance) *Balances {
	t.Helper()
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	tx := kv.NewTransaction()
	t.Cleanup(func() { _ = tx.Close() })
	return NewBalances(store.New(tx), ed)
}

func TestReserveUnreserve(t *testing.T) {
	b := newTestBalances(t, 1)
	require.NoError(t, b.Endow(alice, 101))

	err := b.Reserve(alice, 101)
	assert.ErrorIs(t, err, ErrKeepAlive)
	err = b.Reserve(alice, 102)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, b.Reserve(alice, 100))
	acc, err := b.Account(alice)
	require.NoError(t, err)
	assert.Equal(t, AccountData{Free: 1, Reserved: 100}, acc)

	err = b.Unreserve(alice, 101)
	assert.ErrorIs(t, err, ErrInsufficientReserved)
	require.NoError(t, b.Unreserve(alice, 100))
	free, err := b.FreeBalance(alice)
	require.NoError(t, err)
	assert.Equal(t, primitives.Balance(101), free)
}

func TestTransfer(t *testing.T) {
	b := newTestBalances(t, 5)
	require.NoError(t, b.Endow(alice, 100))

	err := b.Transfer(alice, bob, 4, false)
	assert.ErrorIs(t, err, ErrExistentialDeposit)

	err = b.Transfer(alice, bob, 97, true)
	assert.ErrorIs(t, err, ErrKeepAlive)

	require.NoError(t, b.Transfer(alice, bob, 50, true))
	free, err := b.FreeBalance(bob)
	require.NoError(t, err)
	assert.Equal(t, primitives.Balance(50), free)

	// the 3 left on alice is dust and gets burned
	require.NoError(t, b.Transfer(alice, bob, 47, false))
	acc, err := b.Account(alice)
	require.NoError(t, err)
	assert.Equal(t, AccountData{}, acc)
	issuance, err := b.TotalIssuance()
	require.NoError(t, err)
	assert.Equal(t, primitives.Balance(97), issuance)

	var count int
	require.NoError(t, b.Accounts(func(who primitives.AccountId, _ AccountData) (bool, error) {
		assert.Equal(t, bob, who)
		count++
		return true, nil
	}))
	assert.Equal(t, 1, count)
}

func TestTransferKeepsReservedAccountsAlive(t *testing.T) {
	b := newTestBalances(t, 5)
	require.NoError(t, b.Endow(alice, 100))
	require.NoError(t, b.Reserve(alice, 50))

	require.NoError(t, b.Transfer(alice, bob, 48, false))
	acc, err := b.Account(alice)
	require.NoError(t, err)
	assert.Equal(t, AccountData{Free: 2, Reserved: 50}, acc)
}

func TestReconcile(t *testing.T) {
	b := newTestBalances(t, 1)
	require.NoError(t, b.Endow(alice, 100))

	require.NoError(t, Reconcile(b, alice, 0, 30))
	require.NoError(t, Reconcile(b, alice, 30, 10))
	require.NoError(t, Reconcile(b, alice, 10, 10))
	reserved, err := b.ReservedBalance(alice)
	require.NoError(t, err)
	assert.Equal(t, primitives.Balance(10), reserved)

	err = Reconcile(b, alice, 10, 200)
	assert.True(t, IsInsufficient(err))
}

func TestDataDeposit(t *testing.T) {
	d, err := DataDeposit(10, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, primitives.Balance(20), d)

	_, err = DataDeposit(1, ^primitives.Balance(0), 2)
	assert.ErrorIs(t, err, ErrOverflow)
}
