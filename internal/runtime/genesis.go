package runtime

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/crypto"
	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/internal/worker"
)

// Genesis is the initial state. Impls are registered in order, so the n-th
// impl gets id n.
type Genesis struct {
	Timestamp uint64 `json:"timestamp"`
	// Seed is hashed into the randomness seed of block 1
	Seed string `json:"seed"`
	// FlipFlopStart is the block the first heartbeat window opens at,
	// defaults to 1
	FlipFlopStart primitives.BlockNumber `json:"flip_flop_start"`
	Balances      []GenesisAccount       `json:"balances"`
	Impls         []GenesisImpl          `json:"impls"`
}

type GenesisAccount struct {
	Account primitives.AccountId `json:"account"`
	Free    primitives.Balance   `json:"free"`
}

type GenesisImpl struct {
	Owner                primitives.AccountId      `json:"owner"`
	AttestationMethod    attestation.Method        `json:"attestation_method"`
	DeploymentPermission impl.DeploymentPermission `json:"deployment_permission"`
	Builds               []GenesisBuild            `json:"builds"`
}

type GenesisBuild struct {
	Version    primitives.ImplBuildVersion     `json:"version"`
	MagicBytes *primitives.ImplBuildMagicBytes `json:"magic_bytes,omitempty"`
}

// InitGenesis writes the genesis state as block 0. It fails if the store
// already holds a chain.
func (r *Runtime) InitGenesis(g Genesis) error {
	tx := r.kv.NewTransaction()
	defer tx.Close() //nolint:errcheck // after commit close only releases the batch

	header := Header{Timestamp: g.Timestamp, Seed: crypto.HashData([]byte(g.Seed))}
	ctx := r.newContext(tx, header)

	initialized, err := ctx.Store.Has(headerKey())
	if err != nil {
		return err
	}
	if initialized {
		return errorsmod.Wrap(ErrGenesis, "store already initialized")
	}

	balances := ctx.Currency.(*ledger.Balances)
	for _, acc := range g.Balances {
		if err := balances.Endow(acc.Account, acc.Free); err != nil {
			return errorsmod.Wrapf(ErrGenesis, "endow %s: %v", acc.Account.Short(), err)
		}
	}
	for i, gi := range g.Impls {
		origin := primitives.Signed(gi.Owner)
		id, err := r.impls.RegisterImpl(ctx, origin, gi.AttestationMethod, gi.DeploymentPermission)
		if err != nil {
			return errorsmod.Wrapf(ErrGenesis, "impl %d: %v", i+1, err)
		}
		for _, b := range gi.Builds {
			if err := r.impls.RegisterImplBuild(ctx, origin, id, b.Version, b.MagicBytes); err != nil {
				return errorsmod.Wrapf(ErrGenesis, "impl %d build %d: %v", id, b.Version, err)
			}
		}
	}

	start := g.FlipFlopStart
	if start == 0 {
		start = 1
	}
	if err := worker.StartFlipFlop(ctx.Store, start); err != nil {
		return err
	}
	for _, m := range modules {
		if err := ctx.Store.SetStorageVersion(m.id, m.version); err != nil {
			return err
		}
	}
	if err := store.Put(ctx.Store, headerKey(), header); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit genesis: %w", err)
	}
	return nil
}
