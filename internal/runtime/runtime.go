// Package runtime is the block state transition of the coordination layer.
// It runs the flip-flop pass before every block, then each extrinsic in its
// own transaction, and turns engine errors into per extrinsic results.
package runtime

import (
	"errors"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/config"
	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/pool"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/internal/worker"
	"github.com/eigerco/computeplane/pkg/db"
	"github.com/eigerco/computeplane/pkg/log"
)

type Runtime struct {
	kv     db.KVStore
	params config.Params

	impls   *impl.Registry
	workers *worker.Engine
	pools   *pool.Engine

	metrics         *Metrics
	checkInvariants bool
}

type Option func(*Runtime)

// WithMetrics records execution metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

// WithInvariantChecks verifies the state invariants after every block.
func WithInvariantChecks() Option {
	return func(r *Runtime) { r.checkInvariants = true }
}

// New wires the engines over kv. The pool engine is the lifecycle hook of the
// worker engine.
func New(kv db.KVStore, params config.Params, opts ...Option) *Runtime {
	pools := pool.NewEngine(params)
	r := &Runtime{
		kv:      kv,
		params:  params,
		impls:   impl.NewRegistry(params),
		workers: worker.NewEngine(params, pools),
		pools:   pools,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	return r
}

func (r *Runtime) Params() config.Params {
	return r.params
}

// LastHeader returns the header of the last executed block, or of genesis.
func (r *Runtime) LastHeader() (Header, bool, error) {
	var (
		header Header
		found  bool
	)
	err := r.View(func(s *store.Store) error {
		var err error
		header, found, err = store.Get[Header](s, headerKey())
		return err
	})
	return header, found, err
}

// View runs fn against the committed state. Writes made by fn are dropped.
func (r *Runtime) View(fn func(s *store.Store) error) error {
	tx := r.kv.NewTransaction()
	defer tx.Close() //nolint:errcheck // never committed
	return fn(store.New(tx))
}

// ExecuteBlock applies b on top of the last executed block. Failed
// extrinsics are reported in the result and leave no trace in state. An
// error means the block could not be applied and the host must halt.
func (r *Runtime) ExecuteBlock(b Block) (BlockResult, error) {
	started := time.Now()
	parent, found, err := r.LastHeader()
	if err != nil {
		return BlockResult{}, fmt.Errorf("read last header: %w", err)
	}
	if !found {
		return BlockResult{}, errorsmod.Wrap(ErrInvalidBlock, "genesis not initialized")
	}
	if b.Number <= parent.Number {
		return BlockResult{}, errorsmod.Wrapf(ErrInvalidBlock, "block %d does not follow %d", b.Number, parent.Number)
	}
	if b.Timestamp < parent.Timestamp {
		return BlockResult{}, errorsmod.Wrapf(ErrInvalidBlock, "timestamp %d before parent timestamp %d", b.Timestamp, parent.Timestamp)
	}

	header := Header{
		Number:    b.Number,
		Timestamp: b.Timestamp,
		Seed:      chain.BlockSeed(parent.Seed, uint64(b.Number)),
	}
	result := BlockResult{Header: header}

	reaped, events, err := r.initialize(header)
	if err != nil {
		return BlockResult{}, err
	}
	result.Reaped = reaped
	result.Initialization = events
	r.metrics.Reaped.Add(float64(reaped))
	r.metrics.countEvents(events)

	for i, x := range b.Extrinsics {
		res, err := r.applyExtrinsic(header, x)
		if err != nil {
			return BlockResult{}, fmt.Errorf("extrinsic %d of block %d: %w", i, b.Number, err)
		}
		result.Extrinsics = append(result.Extrinsics, res)
		r.metrics.observe(res)
	}
	if result.ResultsRoot, err = resultsRoot(result.Extrinsics); err != nil {
		return BlockResult{}, fmt.Errorf("results root of block %d: %w", b.Number, err)
	}

	if r.checkInvariants {
		if err := r.View(func(s *store.Store) error {
			return CheckInvariants(s, ledger.NewBalances(s, r.params.ExistentialDeposit))
		}); err != nil {
			log.Runtime.Error().Err(err).Uint64("block", uint64(b.Number)).Msg("invariant broken")
			return result, err
		}
	}

	elapsed := time.Since(started)
	r.metrics.BlockDuration.Observe(elapsed.Seconds())
	log.Runtime.Info().
		Uint64("block", uint64(b.Number)).
		Int("extrinsics", len(b.Extrinsics)).
		Int("reaped", reaped).
		Dur("took", elapsed).
		Msg("block executed")
	return result, nil
}

// initialize stores the new header and runs the flip-flop pass in one
// transaction.
func (r *Runtime) initialize(header Header) (int, []chain.Event, error) {
	tx := r.kv.NewTransaction()
	defer tx.Close() //nolint:errcheck // after commit close only releases the batch

	ctx := r.newContext(tx, header)
	if err := store.Put(ctx.Store, headerKey(), header); err != nil {
		return 0, nil, fmt.Errorf("store header: %w", err)
	}
	reaped, err := r.workers.OnBlock(ctx)
	if err != nil {
		return 0, nil, errorsmod.Wrapf(ErrInternal, "flip-flop pass at block %d: %v", header.Number, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("commit block initialization: %w", err)
	}
	return reaped, ctx.Events(), nil
}

// applyExtrinsic runs one call in its own transaction. Only a failure to
// commit is returned as an error; everything else becomes the result.
func (r *Runtime) applyExtrinsic(header Header, x Extrinsic) (res ExtrinsicResult, err error) {
	res.Call = "unknown"
	if x.Call != nil {
		res.Call = x.Call.CallName()
	}

	tx := r.kv.NewTransaction()
	defer tx.Close() //nolint:errcheck // after commit close only releases the batch
	ctx := r.newContext(tx, header)

	callErr := r.safeDispatch(ctx, x)
	if callErr != nil {
		res.Codespace, res.Code, res.Log = errorsmod.ABCIInfo(callErr, false)
		if res.Codespace == errorsmod.UndefinedCodespace {
			callErr = errorsmod.Wrap(ErrInternal, callErr.Error())
			res.Codespace, res.Code, res.Log = errorsmod.ABCIInfo(callErr, false)
		}
		if errors.Is(callErr, ErrInternal) {
			log.Runtime.Error().Err(callErr).Str("call", res.Call).Msg("extrinsic failed with an internal error")
		} else {
			log.Runtime.Debug().Err(callErr).Str("call", res.Call).Str("origin", x.Origin.String()).Msg("extrinsic failed")
		}
		return res, nil
	}
	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit %s: %w", res.Call, err)
	}
	res.Events = ctx.Events()
	return res, nil
}

func (r *Runtime) safeDispatch(ctx *chain.Context, x Extrinsic) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errorsmod.Wrapf(ErrInternal, "panic: %v", p)
		}
	}()
	if x.Call == nil {
		return errorsmod.Wrap(ErrUnknownCall, "empty call")
	}
	return r.dispatch(ctx, x.Origin, x.Call)
}

func (r *Runtime) newContext(tx db.Transaction, header Header) *chain.Context {
	s := store.New(tx)
	return &chain.Context{
		Store:    s,
		Currency: ledger.NewBalances(s, r.params.ExistentialDeposit),
		Block:    header.Number,
		Now:      header.Timestamp,
		Random:   chain.HashRandomness{Seed: header.Seed},
	}
}
