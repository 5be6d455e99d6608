package worker

import (
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/pkg/log"
)

var heartbeatSubject = []byte("computeplane/heartbeat")

// activeSet holds the workers expected to heartbeat in a steady stage, and
// the workers left to reap in the reap stage that follows it.
func activeSet(stage Stage) set {
	if stage == Flip || stage == FlipToFlop {
		return flipSet
	}
	return flopSet
}

// upcomingSet collects the workers scheduled for the next window.
func upcomingSet(stage Stage) set {
	if activeSet(stage) == flipSet {
		return flopSet
	}
	return flipSet
}

// OnBlock runs the flip-flop detector before the operations of a block. It
// closes the heartbeat window once it has lasted the configured duration,
// then offlines at most HandleUnresponsivePerBlockLimit silent workers per
// block until the old set is drained, and finally opens the next window.
// It returns the number of workers reaped.
func (e *Engine) OnBlock(ctx *chain.Context) (int, error) {
	stage, startedAt, started, err := FlipFlop(ctx.Store)
	if err != nil {
		return 0, err
	}
	if !started {
		if err := StartFlipFlop(ctx.Store, ctx.Block); err != nil {
			return 0, err
		}
		ctx.Emit(FlipFlopStageChanged{Stage: Flip, StartedAt: ctx.Block})
		return 0, nil
	}
	if ctx.Block < startedAt {
		return 0, nil
	}

	if !stage.reaping() {
		if ctx.Block < startedAt+e.params.CollectingHeartbeatsDurationInBlocks {
			return 0, nil
		}
		if stage == Flip {
			stage = FlipToFlop
		} else {
			stage = FlopToFlip
		}
		if err := store.Put(ctx.Store, stageKey(), stage); err != nil {
			return 0, err
		}
	}

	old := activeSet(stage)
	silent, err := ctx.Store.Keys(old.prefix(), int(e.params.HandleUnresponsivePerBlockLimit))
	if err != nil {
		return 0, err
	}
	reaped := 0
	for _, key := range silent {
		worker := accountFromKey(key)
		info, err := Get(ctx.Store, worker)
		if err != nil {
			return 0, err
		}
		if !info.Active() {
			// stale entry, nothing to offline
			if err := ctx.Store.Delete(key); err != nil {
				return 0, err
			}
			continue
		}
		if err := e.goOffline(ctx, worker, info, Unresponsive); err != nil {
			return 0, err
		}
		reaped++
	}

	// the next window opens in the block the old set runs empty
	remaining, _, err := ctx.Store.First(old.prefix())
	if err != nil {
		return 0, err
	}
	if remaining == nil {
		next := Flop
		if stage == FlopToFlip {
			next = Flip
		}
		if err := store.Put(ctx.Store, stageKey(), next); err != nil {
			return 0, err
		}
		if err := store.Put(ctx.Store, startedAtKey(), ctx.Block); err != nil {
			return 0, err
		}
		log.Workers.Debug().Stringer("stage", next).Uint64("block", uint64(ctx.Block)).
			Int("reaped", reaped).Msg("heartbeat window opened")
		ctx.Emit(FlipFlopStageChanged{Stage: next, StartedAt: ctx.Block})
	}
	return reaped, nil
}

// schedule puts the worker into the set of the upcoming window with a
// randomised due block, spreading heartbeats across the window.
func (e *Engine) schedule(ctx *chain.Context, worker primitives.AccountId) (primitives.BlockNumber, error) {
	stage, startedAt, _, err := FlipFlop(ctx.Store)
	if err != nil {
		return 0, err
	}
	duration := e.params.CollectingHeartbeatsDurationInBlocks
	next := startedAt + duration
	if spread := uint64(duration) * 4 / 5; spread > 0 {
		subject := append(append([]byte{}, heartbeatSubject...), worker[:]...)
		next += primitives.BlockNumber(chain.RandomUint64(ctx.Random, subject) % spread)
	}
	if err := store.Put(ctx.Store, upcomingSet(stage).key(worker), next); err != nil {
		return 0, err
	}
	return next, nil
}
