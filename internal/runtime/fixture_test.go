package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/config"
	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/pool"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/internal/testutils"
	"github.com/eigerco/computeplane/pkg/db"
	"github.com/eigerco/computeplane/pkg/db/pebble"
)

func testParams() config.Params {
	p := config.Default()
	p.ExistentialDeposit = 1
	p.RegisterWorkerDeposit = 100
	p.RegisterImplDeposit = 10
	p.CreatePoolDeposit = 50
	p.DepositPerJob = 20
	p.DepositPerByte = 1
	p.PoolMetadataDepositBase = 5
	p.ImplMetadataDepositBase = 5
	p.MaxAssignedJobsPerWorker = 2
	p.MaxSubscribedPoolsPerWorker = 2
	p.MaxPoliciesPerPool = 2
	p.MaxJobsPerPool = 3
	p.MaxWorkersPerPool = 2
	p.HandleUnresponsivePerBlockLimit = 2
	p.CollectingHeartbeatsDurationInBlocks = 6
	p.MinJobExpiresIn = 60
	p.MaxJobExpiresIn = 3600
	p.DefaultJobExpiresIn = 600
	p.InputLimit = 16
	p.OutputLimit = 16
	p.ProofLimit = 16
	p.PoolMetadataLimit = 16
	p.ImplMetadataLimit = 16
	return p
}

type harness struct {
	kv db.KVStore
	rt *Runtime

	implOwner   testutils.Key
	poolOwner   testutils.Key
	workerOwner testutils.Key
	user        testutils.Key
	worker      testutils.Key

	number primitives.BlockNumber
	now    uint64
}

// newHarness initializes genesis at time 1000 with four endowed accounts and
// a public OptOut impl 1 with build 1 owned by implOwner.
func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	h := &harness{
		kv:          kv,
		rt:          New(kv, testParams(), append([]Option{WithInvariantChecks()}, opts...)...),
		implOwner:   testutils.NewKey(t, 1),
		poolOwner:   testutils.NewKey(t, 2),
		workerOwner: testutils.NewKey(t, 3),
		user:        testutils.NewKey(t, 4),
		worker:      testutils.NewKey(t, 5),
		now:         1000,
	}
	require.NoError(t, h.rt.InitGenesis(h.genesis()))
	return h
}

func (h *harness) genesis() Genesis {
	g := Genesis{Timestamp: h.now, Seed: "test"}
	for _, k := range []testutils.Key{h.implOwner, h.poolOwner, h.workerOwner, h.user} {
		g.Balances = append(g.Balances, GenesisAccount{Account: k.Id, Free: 1000})
	}
	g.Impls = []GenesisImpl{{
		Owner:                h.implOwner.Id,
		AttestationMethod:    attestation.OptOut,
		DeploymentPermission: impl.DeployPublic,
		Builds:               []GenesisBuild{{Version: 1}},
	}}
	return g
}

// block executes the next block, six seconds after the previous one.
func (h *harness) block(t *testing.T, xs ...Extrinsic) BlockResult {
	t.Helper()
	h.number++
	h.now += 6
	res, err := h.rt.ExecuteBlock(Block{Number: h.number, Timestamp: h.now, Extrinsics: xs})
	require.NoError(t, err)
	require.Len(t, res.Extrinsics, len(xs))
	return res
}

// mustBlock executes the next block and requires every extrinsic to succeed.
func (h *harness) mustBlock(t *testing.T, xs ...Extrinsic) BlockResult {
	t.Helper()
	res := h.block(t, xs...)
	for i, x := range res.Extrinsics {
		require.True(t, x.OK(), "extrinsic %d %s failed: %s", i, x.Call, x.Log)
	}
	return res
}

func (h *harness) view(t *testing.T, fn func(s *store.Store)) {
	t.Helper()
	require.NoError(t, h.rt.View(func(s *store.Store) error {
		fn(s)
		return nil
	}))
}

func signed(k testutils.Key, call Call) Extrinsic {
	return Extrinsic{Origin: primitives.Signed(k.Id), Call: call}
}

// onlineAndJoin registers the worker, brings it online and makes it a
// subscribed member of a new pool 1 with a public policy 1.
func (h *harness) onlineAndJoin() []Extrinsic {
	return []Extrinsic{
		signed(h.workerOwner, &RegisterWorker{Worker: h.worker.Id, InitialBalance: 121}),
		signed(h.worker, &Online{
			Payload:     primitives.OnlinePayload{ImplId: 1, ImplSpecVersion: 1, ImplBuildVersion: 1},
			Attestation: attestation.NewOptOut(),
		}),
		signed(h.poolOwner, &CreatePool{ImplId: 1}),
		signed(h.poolOwner, &CreateJobPolicy{PoolId: 1, Scope: pool.ScopePublic}),
		signed(h.poolOwner, &AuthorizeWorker{PoolId: 1, Worker: h.worker.Id}),
		signed(h.worker, &SubscribePool{PoolId: 1}),
	}
}

func eventNames(events []chain.Event) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.EventName())
	}
	return names
}
