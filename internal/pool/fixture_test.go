package pool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/config"
	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/testutils"
	"github.com/eigerco/computeplane/internal/worker"
)

func testParams() config.Params {
	p := config.Default()
	p.RegisterWorkerDeposit = 100
	p.RegisterImplDeposit = 10
	p.CreatePoolDeposit = 50
	p.DepositPerJob = 20
	p.DepositPerByte = 1
	p.PoolMetadataDepositBase = 5
	p.MaxAssignedJobsPerWorker = 2
	p.MaxSubscribedPoolsPerWorker = 2
	p.MaxPoliciesPerPool = 2
	p.MaxJobsPerPool = 3
	p.MaxWorkersPerPool = 2
	p.CollectingHeartbeatsDurationInBlocks = 6
	p.MinJobExpiresIn = 60
	p.MaxJobExpiresIn = 3600
	p.DefaultJobExpiresIn = 600
	p.InputLimit = 16
	p.OutputLimit = 16
	p.ProofLimit = 16
	p.PoolMetadataLimit = 16
	return p
}

type fixture struct {
	env      *testutils.Env
	params   config.Params
	pools    *Engine
	workers  *worker.Engine
	registry *impl.Registry

	implOwner   testutils.Key
	poolOwner   testutils.Key
	workerOwner testutils.Key
	user        testutils.Key
	worker      testutils.Key

	implId primitives.ImplId
	poolId primitives.PoolId
	policy primitives.JobPolicyId
}

// newFixture sets up a public OptOut impl with build 1, one online worker
// and a pool with a public policy. Everything happens at block 1, time 1000.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	params := testParams()
	pools := NewEngine(params)
	f := &fixture{
		env:         testutils.NewEnv(t, 1),
		params:      params,
		pools:       pools,
		workers:     worker.NewEngine(params, pools),
		registry:    impl.NewRegistry(params),
		implOwner:   testutils.NewKey(t, 1),
		poolOwner:   testutils.NewKey(t, 2),
		workerOwner: testutils.NewKey(t, 3),
		user:        testutils.NewKey(t, 4),
		worker:      testutils.NewKey(t, 5),
	}
	for _, k := range []testutils.Key{f.implOwner, f.poolOwner, f.workerOwner, f.user} {
		f.env.Endow(t, k.Id, 1000)
	}
	require.NoError(t, worker.StartFlipFlop(f.env.Ctx.Store, 1))
	f.exec(t, func(ctx *chain.Context) error {
		var err error
		f.implId, err = f.registry.RegisterImpl(ctx, primitives.Signed(f.implOwner.Id), attestation.OptOut, impl.DeployPublic)
		if err != nil {
			return err
		}
		return f.registry.RegisterImplBuild(ctx, primitives.Signed(f.implOwner.Id), f.implId, 1, nil)
	})
	f.addWorker(t, f.worker)
	f.exec(t, func(ctx *chain.Context) error {
		var err error
		f.poolId, err = f.pools.CreatePool(ctx, primitives.Signed(f.poolOwner.Id), f.implId)
		if err != nil {
			return err
		}
		f.policy, err = f.pools.CreateJobPolicy(ctx, primitives.Signed(f.poolOwner.Id), f.poolId, ScopePublic, nil, nil)
		return err
	})
	return f
}

func (f *fixture) exec(t *testing.T, op func(ctx *chain.Context) error) {
	t.Helper()
	require.NoError(t, f.env.Exec(t, op))
}

// addWorker registers w under workerOwner with 20 spare free balance and
// brings it online with spec 1.
func (f *fixture) addWorker(t *testing.T, w testutils.Key) {
	t.Helper()
	f.exec(t, func(ctx *chain.Context) error {
		if err := f.workers.Register(ctx, primitives.Signed(f.workerOwner.Id), w.Id, 121); err != nil {
			return err
		}
		payload := primitives.OnlinePayload{ImplId: f.implId, ImplSpecVersion: 1, ImplBuildVersion: 1}
		return f.workers.Online(ctx, primitives.Signed(w.Id), payload, attestation.NewOptOut())
	})
}

// join authorizes w in the fixture pool and subscribes it.
func (f *fixture) join(t *testing.T, w primitives.AccountId) {
	t.Helper()
	f.exec(t, func(ctx *chain.Context) error {
		if err := f.pools.AuthorizeWorker(ctx, primitives.Signed(f.poolOwner.Id), f.poolId, w); err != nil {
			return err
		}
		return f.pools.SubscribePool(ctx, primitives.Signed(w), f.poolId)
	})
}

func (f *fixture) createJob(t *testing.T, input []byte) primitives.JobId {
	t.Helper()
	id, err := f.tryCreateJob(t, f.user.Id, 1, input, nil)
	require.NoError(t, err)
	return id
}

func (f *fixture) tryCreateJob(t *testing.T, who primitives.AccountId, spec primitives.ImplSpecVersion, input []byte,
	expiresIn *uint64) (primitives.JobId, error) {
	t.Helper()
	var id primitives.JobId
	err := f.env.Exec(t, func(ctx *chain.Context) error {
		var err error
		id, err = f.pools.CreateJob(ctx, primitives.Signed(who), f.poolId, f.policy, spec, input, expiresIn)
		return err
	})
	return id, err
}

// take pulls a job for w, explicitly when job is given.
func (f *fixture) take(t *testing.T, w primitives.AccountId, job *primitives.JobId, processing bool) (primitives.JobId, error) {
	t.Helper()
	var id primitives.JobId
	err := f.env.Exec(t, func(ctx *chain.Context) error {
		var err error
		id, err = f.pools.TakeJob(ctx, primitives.Signed(w), f.poolId, job, processing)
		return err
	})
	return id, err
}

func (f *fixture) job(t *testing.T, id primitives.JobId) Job {
	t.Helper()
	job, err := GetJob(f.env.Ctx.Store, f.poolId, id)
	require.NoError(t, err)
	return job
}

func (f *fixture) pool(t *testing.T) Pool {
	t.Helper()
	pool, err := GetPool(f.env.Ctx.Store, f.poolId)
	require.NoError(t, err)
	return pool
}

func (f *fixture) assigned(t *testing.T, w primitives.AccountId) uint32 {
	t.Helper()
	n, err := AssignedJobsCount(f.env.Ctx.Store, w)
	require.NoError(t, err)
	return n
}

func (f *fixture) assignable(t *testing.T, id primitives.JobId) bool {
	t.Helper()
	ok, err := IsAssignable(f.env.Ctx.Store, f.poolId, 1, id)
	require.NoError(t, err)
	return ok
}

func ptr[T any](v T) *T { return &v }
