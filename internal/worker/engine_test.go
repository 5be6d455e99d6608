package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/testutils"
)

func TestRegister(t *testing.T) {
	f := newFixture(t, testParams(), NoopHooks{})

	info := f.info(t, f.worker.Id)
	assert.Equal(t, Registered, info.Status)
	assert.Equal(t, primitives.Balance(100), info.Deposit)
	assert.Equal(t, f.owner.Id, info.Owner)
	assert.Equal(t, primitives.Balance(100), f.env.Free(t, f.owner.Id))
	assert.Equal(t, primitives.Balance(100), f.env.Reserved(t, f.worker.Id))
	assert.Equal(t, primitives.Balance(1), f.env.Free(t, f.worker.Id))
	assert.Equal(t, []chain.Event{WorkerRegistered{Worker: f.worker.Id, Owner: f.owner.Id}}, f.env.Ctx.Events())

	n, err := Count(f.env.Ctx.Store)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n)

	err = f.register(t, f.worker.Id, 101)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	other := testutils.NewKey(t, 4)
	// one unit below deposit plus existential deposit
	err = f.register(t, other.Id, 100)
	assert.ErrorIs(t, err, ErrInitialBalanceTooLow)

	err = f.env.Exec(t, func(ctx *chain.Context) error {
		return f.eng.Register(ctx, primitives.Signed(f.owner.Id), f.owner.Id, 101)
	})
	assert.ErrorIs(t, err, ErrInvalidOwner)

	// the owner only has 100 left
	err = f.register(t, other.Id, 101)
	assert.ErrorIs(t, err, ErrInsufficientDeposit)
}

func TestDeregister(t *testing.T) {
	hooks := NewHooksMock()
	hooks.On("CanDeregister", mock.Anything, mock.Anything).Return(false, nil).Once()
	f := newFixture(t, testParams(), allowAll(hooks))
	deregister := func(origin primitives.AccountId) error {
		return f.env.Exec(t, func(ctx *chain.Context) error {
			return f.eng.Deregister(ctx, primitives.Signed(origin), f.worker.Id)
		})
	}

	assert.ErrorIs(t, deregister(f.owner.Id), ErrDeregisterBlocked)
	assert.ErrorIs(t, deregister(f.worker.Id), ErrNotTheOwner)

	f.advance(t, 2)
	require.NoError(t, f.online(t, f.worker.Id, f.payload(), optOut(), 0))
	assert.ErrorIs(t, deregister(f.owner.Id), ErrNotOffline)
	require.NoError(t, f.env.Exec(t, func(ctx *chain.Context) error {
		return f.eng.ForceOfflineFor(ctx, primitives.Signed(f.owner.Id), f.worker.Id)
	}))

	require.NoError(t, deregister(f.owner.Id))
	assert.Equal(t, []chain.Event{WorkerDeregistered{Worker: f.worker.Id}}, f.env.Ctx.Events())
	hooks.AssertCalled(t, "BeforeDeregister", mock.Anything, f.worker.Id)

	// everything flows back to the owner
	assert.Equal(t, primitives.Balance(201), f.env.Free(t, f.owner.Id))
	assert.Zero(t, f.env.Free(t, f.worker.Id))
	assert.Zero(t, f.env.Reserved(t, f.worker.Id))
	exists, err := Exists(f.env.Ctx.Store, f.worker.Id)
	require.NoError(t, err)
	assert.False(t, exists)
	n, err := Count(f.env.Ctx.Store)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTransferAndWithdraw(t *testing.T) {
	f := newFixture(t, testParams(), NoopHooks{})
	transfer := func(amount primitives.Balance) error {
		return f.env.Exec(t, func(ctx *chain.Context) error {
			return f.eng.TransferToWorker(ctx, primitives.Signed(f.owner.Id), f.worker.Id, amount)
		})
	}
	withdraw := func(amount primitives.Balance) error {
		return f.env.Exec(t, func(ctx *chain.Context) error {
			return f.eng.WithdrawFromWorker(ctx, primitives.Signed(f.owner.Id), f.worker.Id, amount)
		})
	}

	require.NoError(t, transfer(50))
	assert.Equal(t, []chain.Event{TransferredToWorker{Worker: f.worker.Id, Amount: 50}}, f.env.Ctx.Events())
	assert.Equal(t, primitives.Balance(51), f.env.Free(t, f.worker.Id))

	// keep alive on the owner
	assert.ErrorIs(t, transfer(50), ledger.ErrKeepAlive)
	// the deposit cannot be withdrawn
	assert.ErrorIs(t, withdraw(100), ledger.ErrInsufficientBalance)
	assert.ErrorIs(t, withdraw(51), ledger.ErrKeepAlive)

	require.NoError(t, withdraw(50))
	assert.Equal(t, primitives.Balance(1), f.env.Free(t, f.worker.Id))
	assert.Equal(t, primitives.Balance(100), f.env.Reserved(t, f.worker.Id))
	assert.Equal(t, primitives.Balance(100), f.env.Free(t, f.owner.Id))

	stranger := testutils.NewKey(t, 9)
	err := f.env.Exec(t, func(ctx *chain.Context) error {
		return f.eng.TransferToWorker(ctx, primitives.Signed(stranger.Id), f.worker.Id, 1)
	})
	assert.ErrorIs(t, err, ErrNotTheOwner)
}
