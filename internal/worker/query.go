package worker

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
)

// Get returns the record of a worker.
func Get(s *store.Store, id primitives.AccountId) (Info, error) {
	info, found, err := store.Get[Info](s, workerKey(id))
	if err != nil {
		return Info{}, err
	}
	if !found {
		return Info{}, errorsmod.Wrapf(ErrNotExists, "worker %s", id)
	}
	return info, nil
}

func Exists(s *store.Store, id primitives.AccountId) (bool, error) {
	return s.Has(workerKey(id))
}

// Count is the number of registered workers.
func Count(s *store.Store) (uint32, error) {
	return store.GetOr[uint32](s, counterKey(), 0)
}

// Each visits every worker in account order.
func Each(s *store.Store, fn func(id primitives.AccountId, info Info) (bool, error)) error {
	return store.Each(s, workerPrefix(), func(key []byte, info Info) (bool, error) {
		return fn(accountFromKey(key), info)
	})
}

// FlipFlop returns the detector stage and the block its window began at.
// The boolean is false until the detector has started.
func FlipFlop(s *store.Store) (Stage, primitives.BlockNumber, bool, error) {
	stage, err := store.GetOr(s, stageKey(), Flip)
	if err != nil {
		return 0, 0, false, err
	}
	startedAt, found, err := store.Get[primitives.BlockNumber](s, startedAtKey())
	return stage, startedAt, found, err
}

// StartFlipFlop opens the first heartbeat window at block start.
func StartFlipFlop(s *store.Store, start primitives.BlockNumber) error {
	if err := store.Put(s, stageKey(), Flip); err != nil {
		return err
	}
	return store.Put(s, startedAtKey(), start)
}

// Heartbeat is the membership of a worker in the heartbeat sets.
type Heartbeat struct {
	InFlip bool
	InFlop bool
	// Next is the scheduled heartbeat block of the set the worker is in
	Next primitives.BlockNumber
}

func HeartbeatOf(s *store.Store, id primitives.AccountId) (Heartbeat, error) {
	var hb Heartbeat
	flip, inFlip, err := store.Get[primitives.BlockNumber](s, flipSet.key(id))
	if err != nil {
		return hb, err
	}
	flop, inFlop, err := store.Get[primitives.BlockNumber](s, flopSet.key(id))
	if err != nil {
		return hb, err
	}
	hb.InFlip, hb.InFlop = inFlip, inFlop
	if inFlip {
		hb.Next = flip
	} else if inFlop {
		hb.Next = flop
	}
	return hb, nil
}
