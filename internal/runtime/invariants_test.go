package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/store"
)

func TestInvariantsHoldAfterSetup(t *testing.T) {
	h := newHarness(t)
	h.mustBlock(t, h.onlineAndJoin()...)

	h.view(t, func(s *store.Store) {
		balances := ledger.NewBalances(s, 1)
		for _, inv := range Invariants() {
			msg, broken := inv.Check(s, balances)
			assert.False(t, broken, "%s: %s", inv.Name, msg)
		}
	})
}

func TestBrokenInvariantHaltsBlock(t *testing.T) {
	h := newHarness(t)
	h.mustBlock(t, h.onlineAndJoin()...)

	tx := h.kv.NewTransaction()
	s := store.New(tx)
	require.NoError(t, ledger.NewBalances(s, 1).Unreserve(h.worker.Id, 50))
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Close())

	h.view(t, func(s *store.Store) {
		err := CheckInvariants(s, ledger.NewBalances(s, 1))
		assert.ErrorIs(t, err, ErrInvariantBroken)
		assert.ErrorContains(t, err, "worker-deposit")
	})

	h.number++
	h.now += 6
	_, err := h.rt.ExecuteBlock(Block{Number: h.number, Timestamp: h.now})
	assert.ErrorIs(t, err, ErrInvariantBroken)
}
