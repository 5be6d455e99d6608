package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/crypto"
	"github.com/eigerco/computeplane/internal/crypto/ed25519"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/pkg/db"
	"github.com/eigerco/computeplane/pkg/db/pebble"
)

// Key is a deterministic test account.
type Key struct {
	Id      primitives.AccountId
	Private ed25519.PrivateKey
}

// NewKey derives an account from a one byte seed.
func NewKey(t *testing.T, seed byte) Key {
	t.Helper()
	s := make([]byte, ed25519.SeedSize)
	s[0] = seed
	priv := ed25519.NewKeyFromSeed(s)
	id, err := primitives.AccountIdFromPublicKey(priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	return Key{Id: id, Private: priv}
}

// Env is an execution environment backed by a throwaway in-memory store.
type Env struct {
	KV  db.KVStore
	ED  primitives.Balance
	Ctx *chain.Context

	tx db.Transaction
}

// NewEnv opens an in-memory store and a first context at block 1, time 1000.
func NewEnv(t *testing.T, existentialDeposit primitives.Balance) *Env {
	t.Helper()
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	env := &Env{KV: kv, ED: existentialDeposit}
	t.Cleanup(func() {
		if env.tx != nil {
			_ = env.tx.Close()
		}
		_ = kv.Close()
	})
	env.Next(t, 1, 1000)
	return env
}

// Next commits the current context and opens a fresh one at block n and
// time now.
func (e *Env) Next(t *testing.T, n primitives.BlockNumber, now uint64) *chain.Context {
	t.Helper()
	if e.tx != nil {
		require.NoError(t, e.tx.Commit())
		require.NoError(t, e.tx.Close())
	}
	e.open(n, now)
	return e.Ctx
}

// Exec runs one operation in its own transaction at the current block. A
// failed operation is rolled back. Events of a successful one are left in
// e.Ctx until the next call.
func (e *Env) Exec(t *testing.T, op func(ctx *chain.Context) error) error {
	t.Helper()
	e.Next(t, e.Ctx.Block, e.Ctx.Now)
	if err := op(e.Ctx); err != nil {
		require.NoError(t, e.tx.Close())
		e.open(e.Ctx.Block, e.Ctx.Now)
		return err
	}
	return nil
}

func (e *Env) open(n primitives.BlockNumber, now uint64) {
	e.tx = e.KV.NewTransaction()
	s := store.New(e.tx)
	e.Ctx = &chain.Context{
		Store:    s,
		Currency: ledger.NewBalances(s, e.ED),
		Block:    n,
		Now:      now,
		Random:   chain.HashRandomness{Seed: crypto.HashData(store.U64(uint64(n)))},
	}
}

// Endow mints funds in the current context.
func (e *Env) Endow(t *testing.T, who primitives.AccountId, amount primitives.Balance) {
	t.Helper()
	require.NoError(t, e.Ctx.Currency.(*ledger.Balances).Endow(who, amount))
}

func (e *Env) Free(t *testing.T, who primitives.AccountId) primitives.Balance {
	t.Helper()
	v, err := e.Ctx.Currency.FreeBalance(who)
	require.NoError(t, err)
	return v
}

func (e *Env) Reserved(t *testing.T, who primitives.AccountId) primitives.Balance {
	t.Helper()
	v, err := e.Ctx.Currency.ReservedBalance(who)
	require.NoError(t, err)
	return v
}
