package worker

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/config"
	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/testutils"
)

func testParams() config.Params {
	p := config.Default()
	p.RegisterWorkerDeposit = 100
	p.RegisterImplDeposit = 10
	p.CollectingHeartbeatsDurationInBlocks = 6
	p.HandleUnresponsivePerBlockLimit = 3
	p.NonTEEAttestationValidity = 3600
	p.AttestationClockDriftTolerance = 30
	return p
}

type fixture struct {
	env       *testutils.Env
	params    config.Params
	eng       *Engine
	registry  *impl.Registry
	implOwner testutils.Key
	owner     testutils.Key
	worker    testutils.Key
	implId    primitives.ImplId
}

// newFixture registers an OptOut impl with released build 1, opens the
// first heartbeat window at block 2 and registers one worker at block 1.
func newFixture(t *testing.T, params config.Params, hooks Hooks) *fixture {
	t.Helper()
	f := &fixture{
		env:       testutils.NewEnv(t, 1),
		params:    params,
		eng:       NewEngine(params, hooks),
		registry:  impl.NewRegistry(params),
		implOwner: testutils.NewKey(t, 1),
		owner:     testutils.NewKey(t, 2),
		worker:    testutils.NewKey(t, 3),
	}
	f.env.Endow(t, f.implOwner.Id, 1000)
	f.env.Endow(t, f.owner.Id, 201)
	f.implId = f.newImpl(t, attestation.OptOut)
	require.NoError(t, StartFlipFlop(f.env.Ctx.Store, 2))
	require.NoError(t, f.register(t, f.worker.Id, 101))
	return f
}

func (f *fixture) newImpl(t *testing.T, method attestation.Method) primitives.ImplId {
	t.Helper()
	var id primitives.ImplId
	require.NoError(t, f.env.Exec(t, func(ctx *chain.Context) error {
		var err error
		id, err = f.registry.RegisterImpl(ctx, primitives.Signed(f.implOwner.Id), method, impl.DeployPublic)
		if err != nil {
			return err
		}
		return f.registry.RegisterImplBuild(ctx, primitives.Signed(f.implOwner.Id), id, 1, nil)
	}))
	return id
}

func (f *fixture) register(t *testing.T, worker primitives.AccountId, initial primitives.Balance) error {
	t.Helper()
	return f.env.Exec(t, func(ctx *chain.Context) error {
		return f.eng.Register(ctx, primitives.Signed(f.owner.Id), worker, initial)
	})
}

func (f *fixture) payload() primitives.OnlinePayload {
	return primitives.OnlinePayload{ImplId: f.implId, ImplSpecVersion: 1, ImplBuildVersion: 1}
}

// online brings worker online with an oracle that always returns r.
func (f *fixture) online(t *testing.T, worker primitives.AccountId, payload primitives.OnlinePayload,
	envelope attestation.Envelope, r byte) error {
	t.Helper()
	return f.env.Exec(t, func(ctx *chain.Context) error {
		ctx.Random = fixedRandom(r)
		return f.eng.Online(ctx, primitives.Signed(worker), payload, envelope)
	})
}

func (f *fixture) heartbeat(t *testing.T, worker primitives.AccountId, r byte) error {
	t.Helper()
	return f.env.Exec(t, func(ctx *chain.Context) error {
		ctx.Random = fixedRandom(r)
		return f.eng.Heartbeat(ctx, primitives.Signed(worker))
	})
}

// advance runs the detector for every block up to and including to. Block
// b has wall clock 1000 + 6*(b-1).
func (f *fixture) advance(t *testing.T, to primitives.BlockNumber) []chain.Event {
	t.Helper()
	var events []chain.Event
	for b := f.env.Ctx.Block + 1; b <= to; b++ {
		f.env.Next(t, b, 1000+6*uint64(b-1))
		require.NoError(t, f.env.Exec(t, func(ctx *chain.Context) error {
			_, err := f.eng.OnBlock(ctx)
			return err
		}))
		events = append(events, f.env.Ctx.Events()...)
	}
	return events
}

func (f *fixture) info(t *testing.T, worker primitives.AccountId) Info {
	t.Helper()
	info, err := Get(f.env.Ctx.Store, worker)
	require.NoError(t, err)
	return info
}

func (f *fixture) heartbeatOf(t *testing.T, worker primitives.AccountId) Heartbeat {
	t.Helper()
	hb, err := HeartbeatOf(f.env.Ctx.Store, worker)
	require.NoError(t, err)
	return hb
}

func (f *fixture) implWorkers(t *testing.T) uint32 {
	t.Helper()
	i, err := impl.GetImpl(f.env.Ctx.Store, f.implId)
	require.NoError(t, err)
	return i.WorkersCount
}

func fixedRandom(v byte) chain.Randomness {
	m := chain.NewRandomnessMock()
	m.On("Random", mock.Anything).Return([]byte{v})
	return m
}

// permissiveHooks allows everything and records the calls.
func permissiveHooks() *HooksMock {
	return allowAll(NewHooksMock())
}

// allowAll adds catch-all expectations after any specific ones already set.
func allowAll(h *HooksMock) *HooksMock {
	h.On("CanOnline", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("AfterOnline", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("CanOffline", mock.Anything, mock.Anything).Return(true, nil).Maybe()
	h.On("BeforeOffline", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("AfterRefreshAttestation", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("AfterRequestingOffline", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.On("CanDeregister", mock.Anything, mock.Anything).Return(true, nil).Maybe()
	h.On("BeforeDeregister", mock.Anything, mock.Anything).Return(nil).Maybe()
	return h
}
