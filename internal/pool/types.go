// Package pool groups workers of one impl into pools that accept jobs under
// owner defined policies, and schedules those jobs onto the workers.
package pool

import (
	"fmt"

	"github.com/eigerco/computeplane/internal/primitives"
)

type Pool struct {
	Owner                   primitives.AccountId
	OwnerDeposit            primitives.Balance
	ImplId                  primitives.ImplId
	CreatingJobAvailability bool
	MinImplSpecVersion      primitives.ImplSpecVersion
	MaxImplSpecVersion      primitives.ImplSpecVersion
	JobPoliciesCount        uint32
	JobsCount               uint32
	WorkersCount            uint32
	// MetadataDeposit is zero while the pool has no metadata
	MetadataDeposit primitives.Balance
}

func (p Pool) supportsSpec(v primitives.ImplSpecVersion) bool {
	return v >= p.MinImplSpecVersion && v <= p.MaxImplSpecVersion
}

// ApplicableScope says who may create jobs under a policy.
type ApplicableScope uint8

const (
	ScopeOwner ApplicableScope = iota
	ScopePublic
)

func (s ApplicableScope) String() string {
	switch s {
	case ScopeOwner:
		return "Owner"
	case ScopePublic:
		return "Public"
	default:
		return fmt.Sprintf("ApplicableScope(%d)", uint8(s))
	}
}

func (s ApplicableScope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ApplicableScope) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Owner":
		*s = ScopeOwner
	case "Public":
		*s = ScopePublic
	default:
		return fmt.Errorf("unknown applicable scope %q", text)
	}
	return nil
}

// JobPolicy gates job creation. The block window is inclusive, nil bounds
// are open.
type JobPolicy struct {
	Enabled         bool
	ApplicableScope ApplicableScope
	StartBlock      *primitives.BlockNumber
	EndBlock        *primitives.BlockNumber
	JobsCount       uint32
}

func (p JobPolicy) inWindow(block primitives.BlockNumber) bool {
	if p.StartBlock != nil && block < *p.StartBlock {
		return false
	}
	if p.EndBlock != nil && block > *p.EndBlock {
		return false
	}
	return true
}

type JobStatus uint8

const (
	Pending JobStatus = iota
	Processing
	Processed
	Discarded
)

func (s JobStatus) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Processing:
		return "Processing"
	case Processed:
		return "Processed"
	case Discarded:
		return "Discarded"
	default:
		return fmt.Sprintf("JobStatus(%d)", uint8(s))
	}
}

func (s JobStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal jobs never change again.
func (s JobStatus) Terminal() bool {
	return s == Processed || s == Discarded
}

type JobResult uint8

const (
	Success JobResult = iota
	Fail
	Error
	Panic
)

func (r JobResult) String() string {
	switch r {
	case Success:
		return "Success"
	case Fail:
		return "Fail"
	case Error:
		return "Error"
	case Panic:
		return "Panic"
	default:
		return fmt.Sprintf("JobResult(%d)", uint8(r))
	}
}

func (r JobResult) Valid() bool {
	return r <= Panic
}

func (r JobResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *JobResult) UnmarshalText(text []byte) error {
	for v := Success; v <= Panic; v++ {
		if v.String() == string(text) {
			*r = v
			return nil
		}
	}
	return fmt.Errorf("unknown job result %q", text)
}

// Job timestamps are wall clock seconds.
type Job struct {
	PolicyId        primitives.JobPolicyId
	Owner           primitives.AccountId
	Depositor       primitives.AccountId
	Deposit         primitives.Balance
	ImplSpecVersion primitives.ImplSpecVersion
	Status          JobStatus
	Result          *JobResult
	ExpiresIn       uint64
	ExpiresAt       uint64
	CreatedAt       uint64
	Assignee        *primitives.AccountId
	AssignedAt      *uint64
	ProcessingAt    *uint64
	EndedAt         *uint64
}

// Taken jobs are assigned but still count against the assignee's limit.
func (j Job) taken() bool {
	return j.Assignee != nil && !j.Status.Terminal()
}

func (j Job) assignable() bool {
	return j.Status == Pending && j.Assignee == nil
}
