package impl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/config"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/testutils"
)

func testParams() config.Params {
	p := config.Default()
	p.RegisterImplDeposit = 100
	p.ImplMetadataDepositBase = 10
	p.DepositPerByte = 1
	p.ImplMetadataLimit = 8
	p.MaxRegisteredImplBuildMagicBytes = 2
	return p
}

func setup(t *testing.T) (*testutils.Env, *Registry, testutils.Key) {
	env := testutils.NewEnv(t, 1)
	owner := testutils.NewKey(t, 1)
	env.Endow(t, owner.Id, 1000)
	return env, NewRegistry(testParams()), owner
}

func registerImpl(t *testing.T, env *testutils.Env, r *Registry, owner testutils.Key) primitives.ImplId {
	t.Helper()
	var id primitives.ImplId
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		var err error
		id, err = r.RegisterImpl(ctx, primitives.Signed(owner.Id), attestation.OptOut, DeployPublic)
		return err
	}))
	return id
}

func TestRegisterDeregisterImpl(t *testing.T) {
	env, r, owner := setup(t)

	id := registerImpl(t, env, r, owner)
	assert.Equal(t, primitives.ImplId(1), id)
	assert.Equal(t, []chain.Event{ImplRegistered{ImplId: 1, Owner: owner.Id}}, env.Ctx.Events())
	assert.Equal(t, primitives.Balance(100), env.Reserved(t, owner.Id))

	second := registerImpl(t, env, r, owner)
	assert.Equal(t, primitives.ImplId(2), second)

	stranger := testutils.NewKey(t, 2)
	err := env.Exec(t, func(ctx *chain.Context) error {
		return r.DeregisterImpl(ctx, primitives.Signed(stranger.Id), id)
	})
	assert.ErrorIs(t, err, ErrNotTheOwner)

	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.RegisterImplBuild(ctx, primitives.Signed(owner.Id), id, 1, nil)
	}))
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplMetadata(ctx, primitives.Signed(owner.Id), id, []byte("meta"))
	}))
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.DeregisterImpl(ctx, primitives.Signed(owner.Id), id)
	}))
	assert.Equal(t, primitives.Balance(100), env.Reserved(t, owner.Id))

	_, err = GetImpl(env.Ctx.Store, id)
	assert.ErrorIs(t, err, ErrImplNotFound)
	_, err = GetBuild(env.Ctx.Store, id, 1)
	assert.ErrorIs(t, err, ErrImplBuildNotFound)
	_, found, err := GetMetadata(env.Ctx.Store, id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegisterImplRequiresDeposit(t *testing.T) {
	env, r, _ := setup(t)
	poor := testutils.NewKey(t, 3)
	env.Endow(t, poor.Id, 100)

	err := env.Exec(t, func(ctx *chain.Context) error {
		_, err := r.RegisterImpl(ctx, primitives.Signed(poor.Id), attestation.OptOut, DeployOwner)
		return err
	})
	assert.ErrorIs(t, err, ErrInsufficientDeposit)

	err = env.Exec(t, func(ctx *chain.Context) error {
		_, err := r.RegisterImpl(ctx, primitives.Root(), attestation.OptOut, DeployOwner)
		return err
	})
	assert.ErrorIs(t, err, chain.ErrBadOrigin)
}

func TestRegisterImplDisallowedMethod(t *testing.T) {
	env, _, owner := setup(t)
	p := testParams()
	p.DisallowOptOutAttestation = true
	r := NewRegistry(p)

	err := env.Exec(t, func(ctx *chain.Context) error {
		_, err := r.RegisterImpl(ctx, primitives.Signed(owner.Id), attestation.OptOut, DeployOwner)
		return err
	})
	assert.ErrorIs(t, err, ErrUnsupportedAttestation)
}

func TestDeregisterImplInUse(t *testing.T) {
	env, r, owner := setup(t)
	id := registerImpl(t, env, r, owner)
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		if err := r.RegisterImplBuild(ctx, primitives.Signed(owner.Id), id, 1, nil); err != nil {
			return err
		}
		return AddWorker(ctx.Store, id, 1)
	}))

	err := env.Exec(t, func(ctx *chain.Context) error {
		return r.DeregisterImpl(ctx, primitives.Signed(owner.Id), id)
	})
	assert.ErrorIs(t, err, ErrImplStillInUse)
	err = env.Exec(t, func(ctx *chain.Context) error {
		return r.DeregisterImplBuild(ctx, primitives.Signed(owner.Id), id, 1)
	})
	assert.ErrorIs(t, err, ErrImplBuildStillInUse)

	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return RemoveWorker(ctx.Store, id, 1)
	}))
	impl, err := GetImpl(env.Ctx.Store, id)
	require.NoError(t, err)
	assert.Zero(t, impl.WorkersCount)
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.DeregisterImplBuild(ctx, primitives.Signed(owner.Id), id, 1)
	}))
}

func TestImplMetadataDeposit(t *testing.T) {
	env, r, owner := setup(t)
	id := registerImpl(t, env, r, owner)
	signed := primitives.Signed(owner.Id)

	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplMetadata(ctx, signed, id, []byte("abcdef"))
	}))
	assert.Equal(t, primitives.Balance(100+10+6), env.Reserved(t, owner.Id))

	// shrinking refunds the difference
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplMetadata(ctx, signed, id, []byte("ab"))
	}))
	assert.Equal(t, primitives.Balance(100+10+2), env.Reserved(t, owner.Id))
	md, found, err := GetMetadata(env.Ctx.Store, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("ab"), md.Data)
	assert.Equal(t, primitives.Balance(12), md.ActualDeposit)

	err = env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplMetadata(ctx, signed, id, make([]byte, 9))
	})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.RemoveImplMetadata(ctx, signed, id)
	}))
	assert.Equal(t, primitives.Balance(100), env.Reserved(t, owner.Id))
	err = env.Exec(t, func(ctx *chain.Context) error {
		return r.RemoveImplMetadata(ctx, signed, id)
	})
	assert.ErrorIs(t, err, ErrMetadataNotFound)
}

func TestBuildsAndMagicBytes(t *testing.T) {
	env, r, owner := setup(t)
	id := registerImpl(t, env, r, owner)
	signed := primitives.Signed(owner.Id)
	magic := primitives.ImplBuildMagicBytes{1, 2, 3}

	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.RegisterImplBuild(ctx, signed, id, 1, &magic)
	}))
	err := env.Exec(t, func(ctx *chain.Context) error {
		return r.RegisterImplBuild(ctx, signed, id, 1, nil)
	})
	assert.ErrorIs(t, err, ErrImplBuildAlreadyRegistered)

	payload := primitives.OnlinePayload{ImplId: id, ImplSpecVersion: 1, ImplBuildVersion: 1, ImplBuildMagicBytes: magic}
	_, err = CheckOnline(env.Ctx.Store, payload)
	require.NoError(t, err)

	other := primitives.ImplBuildMagicBytes{9}
	wrong := payload
	wrong.ImplBuildMagicBytes = other
	_, err = CheckOnline(env.Ctx.Store, wrong)
	assert.ErrorIs(t, err, ErrImplBuildMagicBytesMismatched)

	err = env.Exec(t, func(ctx *chain.Context) error {
		return r.RegisterImplBuildMagicBytes(ctx, signed, id, 1, magic)
	})
	assert.ErrorIs(t, err, ErrImplBuildMagicBytesAlreadyRegistered)
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.RegisterImplBuildMagicBytes(ctx, signed, id, 1, other)
	}))
	_, err = CheckOnline(env.Ctx.Store, wrong)
	require.NoError(t, err)
	err = env.Exec(t, func(ctx *chain.Context) error {
		return r.RegisterImplBuildMagicBytes(ctx, signed, id, 1, primitives.ImplBuildMagicBytes{7})
	})
	assert.ErrorIs(t, err, ErrImplBuildMagicBytesLimitExceeded)

	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.DeregisterImplBuildMagicBytes(ctx, signed, id, 1, magic)
	}))
	_, err = CheckOnline(env.Ctx.Store, payload)
	assert.ErrorIs(t, err, ErrImplBuildMagicBytesMismatched)
	err = env.Exec(t, func(ctx *chain.Context) error {
		return r.DeregisterImplBuildMagicBytes(ctx, signed, id, 1, magic)
	})
	assert.ErrorIs(t, err, ErrImplBuildMagicBytesNotRegistered)

	_, err = CheckOnline(env.Ctx.Store, primitives.OnlinePayload{ImplId: id, ImplBuildVersion: 2})
	assert.ErrorIs(t, err, ErrImplBuildNotFound)
	_, err = CheckOnline(env.Ctx.Store, primitives.OnlinePayload{ImplId: 42})
	assert.ErrorIs(t, err, ErrImplNotFound)
}

func TestBuildStatusAndRestriction(t *testing.T) {
	env, r, owner := setup(t)
	id := registerImpl(t, env, r, owner)
	signed := primitives.Signed(owner.Id)
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		for v := primitives.ImplBuildVersion(1); v <= 3; v++ {
			if err := r.RegisterImplBuild(ctx, signed, id, v, nil); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplBuildStatus(ctx, signed, id, 1, Deprecated)
	}))
	_, err := CheckOnline(env.Ctx.Store, primitives.OnlinePayload{ImplId: id, ImplBuildVersion: 1})
	assert.ErrorIs(t, err, ErrImplBuildRestricted)
	usable, err := BuildUsable(env.Ctx.Store, id, 1)
	require.NoError(t, err)
	assert.True(t, usable)

	// root may block builds too
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplBuildStatus(ctx, primitives.Root(), id, 1, Blocked)
	}))
	usable, err = BuildUsable(env.Ctx.Store, id, 1)
	require.NoError(t, err)
	assert.False(t, usable)

	two := primitives.ImplBuildVersion(2)
	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplBuildRestriction(ctx, signed, id, BuildRestriction{MinVersion: &two})
	}))
	_, err = CheckOnline(env.Ctx.Store, primitives.OnlinePayload{ImplId: id, ImplBuildVersion: 3})
	require.NoError(t, err)

	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplBuildRestriction(ctx, signed, id, BuildRestriction{MaxVersion: &two})
	}))
	_, err = CheckOnline(env.Ctx.Store, primitives.OnlinePayload{ImplId: id, ImplBuildVersion: 3})
	assert.ErrorIs(t, err, ErrImplBuildRestricted)
	usable, err = BuildUsable(env.Ctx.Store, id, 3)
	require.NoError(t, err)
	assert.False(t, usable)

	one := primitives.ImplBuildVersion(1)
	err = env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplBuildRestriction(ctx, signed, id, BuildRestriction{MinVersion: &two, MaxVersion: &one})
	})
	assert.ErrorIs(t, err, ErrInvalidBuildRestriction)
}

func TestDeploymentPermission(t *testing.T) {
	env, r, owner := setup(t)
	id := registerImpl(t, env, r, owner)
	stranger := testutils.NewKey(t, 9)

	impl, err := GetImpl(env.Ctx.Store, id)
	require.NoError(t, err)
	assert.True(t, impl.CanDeploy(stranger.Id))

	require.NoError(t, env.Exec(t, func(ctx *chain.Context) error {
		return r.UpdateImplDeploymentPermission(ctx, primitives.Signed(owner.Id), id, DeployOwner)
	}))
	impl, err = GetImpl(env.Ctx.Store, id)
	require.NoError(t, err)
	assert.False(t, impl.CanDeploy(stranger.Id))
	assert.True(t, impl.CanDeploy(owner.Id))
}
