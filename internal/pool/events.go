package pool

import (
	"github.com/eigerco/computeplane/internal/primitives"
)

type poolEvent struct{}

func (poolEvent) Module() string { return Codespace }

type PoolCreated struct {
	poolEvent
	PoolId primitives.PoolId    `json:"pool_id"`
	Owner  primitives.AccountId `json:"owner"`
	ImplId primitives.ImplId    `json:"impl_id"`
}

type PoolDestroyed struct {
	poolEvent
	PoolId primitives.PoolId `json:"pool_id"`
}

type PoolMetadataUpdated struct {
	poolEvent
	PoolId primitives.PoolId `json:"pool_id"`
	Size   uint32            `json:"size"`
}

type PoolMetadataRemoved struct {
	poolEvent
	PoolId primitives.PoolId `json:"pool_id"`
}

type PoolCreatingJobAvailabilityUpdated struct {
	poolEvent
	PoolId    primitives.PoolId `json:"pool_id"`
	Available bool              `json:"available"`
}

type PoolImplSpecVersionRangeUpdated struct {
	poolEvent
	PoolId primitives.PoolId          `json:"pool_id"`
	Min    primitives.ImplSpecVersion `json:"min"`
	Max    primitives.ImplSpecVersion `json:"max"`
}

type JobPolicyCreated struct {
	poolEvent
	PoolId   primitives.PoolId      `json:"pool_id"`
	PolicyId primitives.JobPolicyId `json:"policy_id"`
	Scope    ApplicableScope        `json:"scope"`
}

type JobPolicyDestroyed struct {
	poolEvent
	PoolId   primitives.PoolId      `json:"pool_id"`
	PolicyId primitives.JobPolicyId `json:"policy_id"`
}

type JobPolicyEnablementUpdated struct {
	poolEvent
	PoolId   primitives.PoolId      `json:"pool_id"`
	PolicyId primitives.JobPolicyId `json:"policy_id"`
	Enabled  bool                   `json:"enabled"`
}

type WorkerAuthorized struct {
	poolEvent
	PoolId primitives.PoolId    `json:"pool_id"`
	Worker primitives.AccountId `json:"worker"`
}

type WorkerRevoked struct {
	poolEvent
	PoolId primitives.PoolId    `json:"pool_id"`
	Worker primitives.AccountId `json:"worker"`
}

type WorkerSubscribed struct {
	poolEvent
	PoolId primitives.PoolId    `json:"pool_id"`
	Worker primitives.AccountId `json:"worker"`
}

type WorkerUnsubscribed struct {
	poolEvent
	PoolId primitives.PoolId    `json:"pool_id"`
	Worker primitives.AccountId `json:"worker"`
}

type JobCreated struct {
	poolEvent
	PoolId          primitives.PoolId          `json:"pool_id"`
	JobId           primitives.JobId           `json:"job_id"`
	PolicyId        primitives.JobPolicyId     `json:"policy_id"`
	Owner           primitives.AccountId       `json:"owner"`
	ImplSpecVersion primitives.ImplSpecVersion `json:"impl_spec_version"`
	ExpiresAt       uint64                     `json:"expires_at"`
}

type JobAssigned struct {
	poolEvent
	PoolId   primitives.PoolId    `json:"pool_id"`
	JobId    primitives.JobId     `json:"job_id"`
	Assignee primitives.AccountId `json:"assignee"`
}

type JobReleased struct {
	poolEvent
	PoolId primitives.PoolId `json:"pool_id"`
	JobId  primitives.JobId  `json:"job_id"`
}

type JobStatusUpdated struct {
	poolEvent
	PoolId primitives.PoolId `json:"pool_id"`
	JobId  primitives.JobId  `json:"job_id"`
	Status JobStatus         `json:"status"`
}

type JobResultUpdated struct {
	poolEvent
	PoolId     primitives.PoolId `json:"pool_id"`
	JobId      primitives.JobId  `json:"job_id"`
	Result     JobResult         `json:"result"`
	OutputSize uint32            `json:"output_size"`
	ProofSize  uint32            `json:"proof_size"`
}

type JobDestroyed struct {
	poolEvent
	PoolId    primitives.PoolId    `json:"pool_id"`
	JobId     primitives.JobId     `json:"job_id"`
	Destroyer primitives.AccountId `json:"destroyer"`
}

func (PoolCreated) EventName() string                        { return "PoolCreated" }
func (PoolDestroyed) EventName() string                      { return "PoolDestroyed" }
func (PoolMetadataUpdated) EventName() string                { return "PoolMetadataUpdated" }
func (PoolMetadataRemoved) EventName() string                { return "PoolMetadataRemoved" }
func (PoolCreatingJobAvailabilityUpdated) EventName() string { return "PoolCreatingJobAvailabilityUpdated" }
func (PoolImplSpecVersionRangeUpdated) EventName() string    { return "PoolImplSpecVersionRangeUpdated" }
func (JobPolicyCreated) EventName() string                   { return "JobPolicyCreated" }
func (JobPolicyDestroyed) EventName() string                 { return "JobPolicyDestroyed" }
func (JobPolicyEnablementUpdated) EventName() string         { return "JobPolicyEnablementUpdated" }
func (WorkerAuthorized) EventName() string                   { return "WorkerAuthorized" }
func (WorkerRevoked) EventName() string                      { return "WorkerRevoked" }
func (WorkerSubscribed) EventName() string                   { return "WorkerSubscribed" }
func (WorkerUnsubscribed) EventName() string                 { return "WorkerUnsubscribed" }
func (JobCreated) EventName() string                         { return "JobCreated" }
func (JobAssigned) EventName() string                        { return "JobAssigned" }
func (JobReleased) EventName() string                        { return "JobReleased" }
func (JobStatusUpdated) EventName() string                   { return "JobStatusUpdated" }
func (JobResultUpdated) EventName() string                   { return "JobResultUpdated" }
func (JobDestroyed) EventName() string                       { return "JobDestroyed" }
