package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/crypto"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/merkle"
	"github.com/eigerco/computeplane/internal/pool"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/internal/worker"
	"github.com/eigerco/computeplane/pkg/db/pebble"
)

func TestJobCycleThroughBlocks(t *testing.T) {
	h := newHarness(t)

	xs := append(h.onlineAndJoin(),
		signed(h.user, &CreateJob{PoolId: 1, PolicyId: 1, ImplSpecVersion: 1, Input: []byte("x")}),
		signed(h.worker, &TakeJob{PoolId: 1, Processing: true}),
	)
	res := h.mustBlock(t, xs...)
	assert.Equal(t, primitives.BlockNumber(1), res.Header.Number)
	assert.Empty(t, res.Initialization)
	assert.Equal(t, []string{"JobAssigned", "JobStatusUpdated"}, eventNames(res.Extrinsics[7].Events))

	h.view(t, func(s *store.Store) {
		job, err := pool.GetJob(s, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, pool.Processing, job.Status)
		require.NotNil(t, job.Assignee)
		assert.Equal(t, h.worker.Id, *job.Assignee)
	})

	res = h.block(t,
		signed(h.worker, &SubmitJobResult{PoolId: 1, JobId: 1, Result: pool.Success, Output: []byte("y")}),
		signed(h.user, &DestroyPool{PoolId: 1}),
		Extrinsic{Origin: primitives.None(), Call: &Heartbeat{}},
		signed(h.user, &DestroyJob{PoolId: 1, JobId: 1}),
	)
	assert.True(t, res.Extrinsics[0].OK())
	assert.Equal(t, []string{"JobResultUpdated", "JobStatusUpdated"}, eventNames(res.Extrinsics[0].Events))

	assert.Equal(t, "pool", res.Extrinsics[1].Codespace)
	assert.Equal(t, uint32(2), res.Extrinsics[1].Code)
	assert.Empty(t, res.Extrinsics[1].Events)

	assert.Equal(t, chain.Codespace, res.Extrinsics[2].Codespace)
	assert.Equal(t, uint32(2), res.Extrinsics[2].Code)

	assert.True(t, res.Extrinsics[3].OK())
	assert.Equal(t, []string{"JobDestroyed"}, eventNames(res.Extrinsics[3].Events))

	h.view(t, func(s *store.Store) {
		_, err := pool.GetPool(s, 1)
		require.NoError(t, err)
		_, err = pool.GetJob(s, 1, 1)
		assert.ErrorIs(t, err, pool.ErrJobNotFound)

		balances := ledger.NewBalances(s, 1)
		free, err := balances.FreeBalance(h.user.Id)
		require.NoError(t, err)
		assert.Equal(t, primitives.Balance(1000), free)
	})
}

func TestUnresponsiveWorkerIsReapedBeforeExtrinsics(t *testing.T) {
	h := newHarness(t)
	xs := append(h.onlineAndJoin(),
		signed(h.user, &CreateJob{PoolId: 1, PolicyId: 1, ImplSpecVersion: 1}),
		signed(h.worker, &TakeJob{PoolId: 1, Processing: true}),
	)
	h.mustBlock(t, xs...)

	var reapedAt BlockResult
	for i := 0; i < 30 && reapedAt.Reaped == 0; i++ {
		reapedAt = h.block(t)
	}
	require.Equal(t, 1, reapedAt.Reaped)

	var offline []worker.WorkerOffline
	for _, e := range reapedAt.Initialization {
		if o, ok := e.(worker.WorkerOffline); ok {
			offline = append(offline, o)
		}
	}
	require.Len(t, offline, 1)
	assert.Equal(t, h.worker.Id, offline[0].Worker)
	assert.Equal(t, worker.Unresponsive, offline[0].Reason)

	h.view(t, func(s *store.Store) {
		info, err := worker.Get(s, h.worker.Id)
		require.NoError(t, err)
		assert.Equal(t, worker.Offline, info.Status)

		job, err := pool.GetJob(s, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, pool.Discarded, job.Status)

		held, err := pool.AssignedJobsCount(s, h.worker.Id)
		require.NoError(t, err)
		assert.Zero(t, held)
	})
}

func TestExecuteBlockValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.rt.ExecuteBlock(Block{Number: 0, Timestamp: 2000})
	assert.ErrorIs(t, err, ErrInvalidBlock)

	h.mustBlock(t)
	_, err = h.rt.ExecuteBlock(Block{Number: 1, Timestamp: 2000})
	assert.ErrorIs(t, err, ErrInvalidBlock)
	_, err = h.rt.ExecuteBlock(Block{Number: 2, Timestamp: 999})
	assert.ErrorIs(t, err, ErrInvalidBlock)

	res, err := h.rt.ExecuteBlock(Block{Number: 5, Timestamp: h.now})
	require.NoError(t, err)
	assert.Equal(t, primitives.BlockNumber(5), res.Header.Number)

	header, found, err := h.rt.LastHeader()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, res.Header, header)
}

func TestExecuteBlockNeedsGenesis(t *testing.T) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	rt := New(kv, testParams())
	_, err = rt.ExecuteBlock(Block{Number: 1, Timestamp: 1})
	assert.ErrorIs(t, err, ErrInvalidBlock)
}

func TestInitGenesis(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.rt.InitGenesis(h.genesis()), ErrGenesis)

	h.view(t, func(s *store.Store) {
		for _, m := range modules {
			v, err := s.GetStorageVersion(m.id)
			require.NoError(t, err)
			assert.Equal(t, m.version, v, store.ModuleToString(m.id))
		}
		stage, startedAt, started, err := worker.FlipFlop(s)
		require.NoError(t, err)
		assert.True(t, started)
		assert.Equal(t, worker.Flip, stage)
		assert.Equal(t, primitives.BlockNumber(1), startedAt)

		free, err := ledger.NewBalances(s, 1).FreeBalance(h.implOwner.Id)
		require.NoError(t, err)
		assert.Equal(t, primitives.Balance(990), free)
	})

	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	g := h.genesis()
	g.Balances = nil
	assert.ErrorIs(t, New(kv, testParams()).InitGenesis(g), ErrGenesis)
}

type unroutedCall struct{}

func (unroutedCall) CallName() string { return "unrouted" }

func TestUnknownCalls(t *testing.T) {
	h := newHarness(t)
	res := h.block(t,
		Extrinsic{Origin: primitives.Signed(h.user.Id)},
		signed(h.user, unroutedCall{}),
	)
	for _, x := range res.Extrinsics {
		assert.Equal(t, Codespace, x.Codespace)
		assert.Equal(t, uint32(4), x.Code)
	}
	assert.Equal(t, "unknown", res.Extrinsics[0].Call)
	assert.Equal(t, "unrouted", res.Extrinsics[1].Call)
}

func TestReplayIsDeterministic(t *testing.T) {
	run := func() []chain.Event {
		h := newHarness(t)
		var events []chain.Event
		events = append(events, h.mustBlock(t, h.onlineAndJoin()...).Events()...)
		for i := 0; i < 12; i++ {
			events = append(events, h.block(t, signed(h.worker, &Heartbeat{})).Events()...)
		}
		return events
	}
	first := run()
	assert.Contains(t, eventNames(first), "WorkerHeartbeatReceived")
	assert.Equal(t, first, run())
}

func TestResultsRootCommitsToOutcomes(t *testing.T) {
	h := newHarness(t)
	res := h.block(t, signed(h.user, &DestroyPool{PoolId: 1}), signed(h.worker, &Heartbeat{}))
	require.Len(t, res.Extrinsics, 2)
	assert.NotEqual(t, crypto.Hash{}, res.ResultsRoot)

	leaves := make([][]byte, 0, len(res.Extrinsics))
	for _, x := range res.Extrinsics {
		leaf, err := x.Leaf()
		require.NoError(t, err)
		leaves = append(leaves, leaf)
	}
	assert.Equal(t, merkle.Root(leaves), res.ResultsRoot)
	assert.True(t, merkle.Verify(res.ResultsRoot, leaves[1], 1, 2, merkle.Proof(leaves, 1)))

	empty := h.block(t)
	assert.Equal(t, crypto.Hash{}, empty.ResultsRoot)
}
