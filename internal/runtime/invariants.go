package runtime

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/pool"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/internal/worker"
)

// Invariant checks one property of the state. It returns a description of
// every violation and whether the property is broken.
type Invariant func(s *store.Store, currency ledger.Currency) (string, bool)

type NamedInvariant struct {
	Name  string
	Check Invariant
}

// Invariants lists every state invariant in check order.
func Invariants() []NamedInvariant {
	return []NamedInvariant{
		{"heartbeat-membership", HeartbeatMembershipInvariant},
		{"assigned-jobs-counter", AssignedJobsCounterInvariant},
		{"assignable-index", AssignableIndexInvariant},
		{"pool-counters", PoolCountersInvariant},
		{"impl-workers-count", ImplWorkersCountInvariant},
		{"worker-deposit", WorkerDepositInvariant},
	}
}

// CheckInvariants runs every invariant and reports the broken ones.
func CheckInvariants(s *store.Store, currency ledger.Currency) error {
	var broken []string
	for _, inv := range Invariants() {
		if msg, stop := inv.Check(s, currency); stop {
			broken = append(broken, formatInvariant(inv.Name, msg))
		}
	}
	if len(broken) == 0 {
		return nil
	}
	return errorsmod.Wrap(ErrInvariantBroken, strings.Join(broken, "; "))
}

func formatInvariant(name, msg string) string {
	return fmt.Sprintf("%s: %s", name, msg)
}

// violations accumulates messages for one invariant.
type violations []string

func (v *violations) addf(format string, args ...interface{}) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

func (v violations) result() (string, bool) {
	return strings.Join(v, ", "), len(v) > 0
}

func failed(err error) (string, bool) {
	return fmt.Sprintf("read state: %v", err), true
}

// HeartbeatMembershipInvariant checks that every online worker sits in
// exactly one heartbeat set and every other worker in none.
func HeartbeatMembershipInvariant(s *store.Store, _ ledger.Currency) (string, bool) {
	var v violations
	err := worker.Each(s, func(id primitives.AccountId, info worker.Info) (bool, error) {
		hb, err := worker.HeartbeatOf(s, id)
		if err != nil {
			return false, err
		}
		switch {
		case info.Active() && hb.InFlip == hb.InFlop:
			v.addf("%s is %s with flip=%t flop=%t", id.Short(), info.Status, hb.InFlip, hb.InFlop)
		case !info.Active() && (hb.InFlip || hb.InFlop):
			v.addf("%s is %s but still scheduled", id.Short(), info.Status)
		}
		return true, nil
	})
	if err != nil {
		return failed(err)
	}
	return v.result()
}

// AssignedJobsCounterInvariant checks each worker's counter against the non
// terminal jobs it is the assignee of.
func AssignedJobsCounterInvariant(s *store.Store, _ ledger.Currency) (string, bool) {
	held := map[primitives.AccountId]uint32{}
	err := pool.EachJobOfAllPools(s, func(_ primitives.PoolId, _ primitives.JobId, job pool.Job) (bool, error) {
		if job.Assignee != nil && !job.Status.Terminal() {
			held[*job.Assignee]++
		}
		return true, nil
	})
	if err != nil {
		return failed(err)
	}

	var v violations
	counted := map[primitives.AccountId]bool{}
	err = pool.EachAssignedCounter(s, func(w primitives.AccountId, count uint32) (bool, error) {
		counted[w] = true
		if held[w] != count {
			v.addf("%s counter %d, holds %d", w.Short(), count, held[w])
		}
		return true, nil
	})
	if err != nil {
		return failed(err)
	}
	for w, n := range held {
		if !counted[w] {
			v.addf("%s has no counter, holds %d", w.Short(), n)
		}
	}
	return v.result()
}

// AssignableIndexInvariant checks that exactly the pending, unassigned jobs
// are in the assignable index.
func AssignableIndexInvariant(s *store.Store, _ ledger.Currency) (string, bool) {
	var v violations
	err := pool.EachJobOfAllPools(s, func(poolId primitives.PoolId, id primitives.JobId, job pool.Job) (bool, error) {
		indexed, err := pool.IsAssignable(s, poolId, job.ImplSpecVersion, id)
		if err != nil {
			return false, err
		}
		want := job.Status == pool.Pending && job.Assignee == nil
		if indexed != want {
			v.addf("job %d/%d is %s, indexed=%t", poolId, id, job.Status, indexed)
		}
		return true, nil
	})
	if err != nil {
		return failed(err)
	}
	return v.result()
}

// PoolCountersInvariant checks the worker, job and policy counters of every
// pool, and the job counter of every policy.
func PoolCountersInvariant(s *store.Store, _ ledger.Currency) (string, bool) {
	workers := map[primitives.PoolId]uint32{}
	err := pool.EachAuthorization(s, func(_ primitives.AccountId, p primitives.PoolId) (bool, error) {
		workers[p]++
		return true, nil
	})
	if err != nil {
		return failed(err)
	}

	var v violations
	err = pool.EachPool(s, func(id primitives.PoolId, p pool.Pool) (bool, error) {
		if p.WorkersCount != workers[id] {
			v.addf("pool %d workers_count %d, authorized %d", id, p.WorkersCount, workers[id])
		}
		delete(workers, id)

		var jobs uint32
		perPolicy := map[primitives.JobPolicyId]uint32{}
		if err := pool.EachJob(s, id, func(_ primitives.JobId, job pool.Job) (bool, error) {
			jobs++
			perPolicy[job.PolicyId]++
			return true, nil
		}); err != nil {
			return false, err
		}
		if p.JobsCount != jobs {
			v.addf("pool %d jobs_count %d, stored %d", id, p.JobsCount, jobs)
		}

		var policies uint32
		if err := pool.EachPolicy(s, id, func(pid primitives.JobPolicyId, policy pool.JobPolicy) (bool, error) {
			policies++
			if policy.JobsCount != perPolicy[pid] {
				v.addf("policy %d/%d jobs_count %d, stored %d", id, pid, policy.JobsCount, perPolicy[pid])
			}
			return true, nil
		}); err != nil {
			return false, err
		}
		if p.JobPoliciesCount != policies {
			v.addf("pool %d job_policies_count %d, stored %d", id, p.JobPoliciesCount, policies)
		}
		return true, nil
	})
	if err != nil {
		return failed(err)
	}
	for id := range workers {
		v.addf("authorizations for missing pool %d", id)
	}
	return v.result()
}

// ImplWorkersCountInvariant checks every impl's worker count against its
// online workers.
func ImplWorkersCountInvariant(s *store.Store, _ ledger.Currency) (string, bool) {
	online := map[primitives.ImplId]uint32{}
	err := worker.Each(s, func(_ primitives.AccountId, info worker.Info) (bool, error) {
		if info.Active() && info.ImplId != nil {
			online[*info.ImplId]++
		}
		return true, nil
	})
	if err != nil {
		return failed(err)
	}

	var v violations
	err = impl.EachImpl(s, func(id primitives.ImplId, i impl.Impl) (bool, error) {
		if i.WorkersCount != online[id] {
			v.addf("impl %d workers_count %d, online %d", id, i.WorkersCount, online[id])
		}
		return true, nil
	})
	if err != nil {
		return failed(err)
	}
	return v.result()
}

// WorkerDepositInvariant checks that every worker's deposit is backed by its
// reserved balance.
func WorkerDepositInvariant(s *store.Store, currency ledger.Currency) (string, bool) {
	var v violations
	err := worker.Each(s, func(id primitives.AccountId, info worker.Info) (bool, error) {
		reserved, err := currency.ReservedBalance(id)
		if err != nil {
			return false, err
		}
		if reserved < info.Deposit {
			v.addf("%s reserved %d below deposit %d", id.Short(), reserved, info.Deposit)
		}
		return true, nil
	})
	if err != nil {
		return failed(err)
	}
	return v.result()
}
