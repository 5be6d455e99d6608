package runtime

import (
	"encoding/json"
	"sort"

	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/pool"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/pkg/serialization/codec"
)

// Call is the typed argument record of one operation.
type Call interface {
	CallName() string
}

// Worker lifecycle

type RegisterWorker struct {
	Worker         primitives.AccountId `json:"worker"`
	InitialBalance primitives.Balance   `json:"initial_balance"`
}

type DeregisterWorker struct {
	Worker primitives.AccountId `json:"worker"`
}

type TransferToWorker struct {
	Worker primitives.AccountId `json:"worker"`
	Amount primitives.Balance   `json:"amount"`
}

type WithdrawFromWorker struct {
	Worker primitives.AccountId `json:"worker"`
	Amount primitives.Balance   `json:"amount"`
}

type Online struct {
	Payload     primitives.OnlinePayload `json:"payload"`
	Attestation attestation.Envelope     `json:"attestation"`
}

type RefreshAttestation struct {
	Payload     primitives.OnlinePayload `json:"payload"`
	Attestation attestation.Envelope     `json:"attestation"`
}

type RequestOffline struct{}

type RequestOfflineFor struct {
	Worker primitives.AccountId `json:"worker"`
}

type ForceOffline struct{}

type ForceOfflineFor struct {
	Worker primitives.AccountId `json:"worker"`
}

type Heartbeat struct{}

// Impl registry

type RegisterImpl struct {
	AttestationMethod    attestation.Method        `json:"attestation_method"`
	DeploymentPermission impl.DeploymentPermission `json:"deployment_permission"`
}

type DeregisterImpl struct {
	ImplId primitives.ImplId `json:"impl_id"`
}

type UpdateImplMetadata struct {
	ImplId   primitives.ImplId `json:"impl_id"`
	Metadata []byte            `json:"metadata"`
}

type RemoveImplMetadata struct {
	ImplId primitives.ImplId `json:"impl_id"`
}

type UpdateImplBuildRestriction struct {
	ImplId      primitives.ImplId     `json:"impl_id"`
	Restriction impl.BuildRestriction `json:"restriction"`
}

type UpdateImplDeploymentPermission struct {
	ImplId     primitives.ImplId         `json:"impl_id"`
	Permission impl.DeploymentPermission `json:"permission"`
}

type RegisterImplBuild struct {
	ImplId     primitives.ImplId               `json:"impl_id"`
	Version    primitives.ImplBuildVersion     `json:"version"`
	MagicBytes *primitives.ImplBuildMagicBytes `json:"magic_bytes,omitempty"`
}

type UpdateImplBuildStatus struct {
	ImplId  primitives.ImplId           `json:"impl_id"`
	Version primitives.ImplBuildVersion `json:"version"`
	Status  impl.BuildStatus            `json:"status"`
}

type DeregisterImplBuild struct {
	ImplId  primitives.ImplId           `json:"impl_id"`
	Version primitives.ImplBuildVersion `json:"version"`
}

type RegisterImplBuildMagicBytes struct {
	ImplId     primitives.ImplId              `json:"impl_id"`
	Version    primitives.ImplBuildVersion    `json:"version"`
	MagicBytes primitives.ImplBuildMagicBytes `json:"magic_bytes"`
}

type DeregisterImplBuildMagicBytes struct {
	ImplId     primitives.ImplId              `json:"impl_id"`
	Version    primitives.ImplBuildVersion    `json:"version"`
	MagicBytes primitives.ImplBuildMagicBytes `json:"magic_bytes"`
}

// Pools

type CreatePool struct {
	ImplId primitives.ImplId `json:"impl_id"`
}

type DestroyPool struct {
	PoolId primitives.PoolId `json:"pool_id"`
}

type UpdatePoolMetadata struct {
	PoolId   primitives.PoolId `json:"pool_id"`
	Metadata []byte            `json:"metadata"`
}

type RemovePoolMetadata struct {
	PoolId primitives.PoolId `json:"pool_id"`
}

type TogglePoolCreatingJobAvailability struct {
	PoolId    primitives.PoolId `json:"pool_id"`
	Available bool              `json:"available"`
}

type UpdatePoolImplSpecVersionRange struct {
	PoolId     primitives.PoolId          `json:"pool_id"`
	MinVersion primitives.ImplSpecVersion `json:"min_version"`
	MaxVersion primitives.ImplSpecVersion `json:"max_version"`
}

type AuthorizeWorker struct {
	PoolId primitives.PoolId    `json:"pool_id"`
	Worker primitives.AccountId `json:"worker"`
}

type RevokeWorker struct {
	PoolId primitives.PoolId    `json:"pool_id"`
	Worker primitives.AccountId `json:"worker"`
}

type SubscribePool struct {
	PoolId primitives.PoolId `json:"pool_id"`
}

type UnsubscribePool struct {
	PoolId primitives.PoolId `json:"pool_id"`
}

// Job policies

type CreateJobPolicy struct {
	PoolId     primitives.PoolId       `json:"pool_id"`
	Scope      pool.ApplicableScope    `json:"scope"`
	StartBlock *primitives.BlockNumber `json:"start_block,omitempty"`
	EndBlock   *primitives.BlockNumber `json:"end_block,omitempty"`
}

type DestroyJobPolicy struct {
	PoolId   primitives.PoolId      `json:"pool_id"`
	PolicyId primitives.JobPolicyId `json:"policy_id"`
}

type UpdateJobPolicyEnablement struct {
	PoolId   primitives.PoolId      `json:"pool_id"`
	PolicyId primitives.JobPolicyId `json:"policy_id"`
	Enabled  bool                   `json:"enabled"`
}

// Jobs

type CreateJob struct {
	PoolId          primitives.PoolId          `json:"pool_id"`
	PolicyId        primitives.JobPolicyId     `json:"policy_id"`
	ImplSpecVersion primitives.ImplSpecVersion `json:"impl_spec_version"`
	Input           []byte                     `json:"input,omitempty"`
	ExpiresIn       *uint64                    `json:"expires_in,omitempty"`
}

type DestroyJob struct {
	PoolId primitives.PoolId `json:"pool_id"`
	JobId  primitives.JobId  `json:"job_id"`
}

type DestroyExpiredJob struct {
	PoolId primitives.PoolId `json:"pool_id"`
	JobId  primitives.JobId  `json:"job_id"`
}

// TakeJob takes the given job, or the first assignable one of a subscribed
// pool when JobId is nil.
type TakeJob struct {
	PoolId     primitives.PoolId `json:"pool_id"`
	JobId      *primitives.JobId `json:"job_id,omitempty"`
	Processing bool              `json:"processing"`
}

type ReleaseJob struct {
	PoolId primitives.PoolId `json:"pool_id"`
	JobId  primitives.JobId  `json:"job_id"`
}

type SubmitJobResult struct {
	PoolId primitives.PoolId `json:"pool_id"`
	JobId  primitives.JobId  `json:"job_id"`
	Result pool.JobResult    `json:"result"`
	Output []byte            `json:"output,omitempty"`
	Proof  []byte            `json:"proof,omitempty"`
}

func (RegisterWorker) CallName() string                    { return "register_worker" }
func (DeregisterWorker) CallName() string                  { return "deregister_worker" }
func (TransferToWorker) CallName() string                  { return "transfer_to_worker" }
func (WithdrawFromWorker) CallName() string                { return "withdraw_from_worker" }
func (Online) CallName() string                            { return "online" }
func (RefreshAttestation) CallName() string                { return "refresh_attestation" }
func (RequestOffline) CallName() string                    { return "request_offline" }
func (RequestOfflineFor) CallName() string                 { return "request_offline_for" }
func (ForceOffline) CallName() string                      { return "force_offline" }
func (ForceOfflineFor) CallName() string                   { return "force_offline_for" }
func (Heartbeat) CallName() string                         { return "heartbeat" }
func (RegisterImpl) CallName() string                      { return "register_impl" }
func (DeregisterImpl) CallName() string                    { return "deregister_impl" }
func (UpdateImplMetadata) CallName() string                { return "update_impl_metadata" }
func (RemoveImplMetadata) CallName() string                { return "remove_impl_metadata" }
func (UpdateImplBuildRestriction) CallName() string        { return "update_impl_build_restriction" }
func (UpdateImplDeploymentPermission) CallName() string    { return "update_impl_deployment_permission" }
func (RegisterImplBuild) CallName() string                 { return "register_impl_build" }
func (UpdateImplBuildStatus) CallName() string             { return "update_impl_build_status" }
func (DeregisterImplBuild) CallName() string               { return "deregister_impl_build" }
func (RegisterImplBuildMagicBytes) CallName() string       { return "register_impl_build_magic_bytes" }
func (DeregisterImplBuildMagicBytes) CallName() string     { return "deregister_impl_build_magic_bytes" }
func (CreatePool) CallName() string                        { return "create_pool" }
func (DestroyPool) CallName() string                       { return "destroy_pool" }
func (UpdatePoolMetadata) CallName() string                { return "update_pool_metadata" }
func (RemovePoolMetadata) CallName() string                { return "remove_pool_metadata" }
func (TogglePoolCreatingJobAvailability) CallName() string { return "toggle_pool_creating_job_availability" }
func (UpdatePoolImplSpecVersionRange) CallName() string    { return "update_pool_impl_spec_version_range" }
func (AuthorizeWorker) CallName() string                   { return "authorize_worker" }
func (RevokeWorker) CallName() string                      { return "revoke_worker" }
func (SubscribePool) CallName() string                     { return "subscribe_pool" }
func (UnsubscribePool) CallName() string                   { return "unsubscribe_pool" }
func (CreateJobPolicy) CallName() string                   { return "create_job_policy" }
func (DestroyJobPolicy) CallName() string                  { return "destroy_job_policy" }
func (UpdateJobPolicyEnablement) CallName() string         { return "update_job_policy_enablement" }
func (CreateJob) CallName() string                         { return "create_job" }
func (DestroyJob) CallName() string                        { return "destroy_job" }
func (DestroyExpiredJob) CallName() string                 { return "destroy_expired_job" }
func (TakeJob) CallName() string                           { return "take_job" }
func (ReleaseJob) CallName() string                        { return "release_job" }
func (SubmitJobResult) CallName() string                   { return "submit_job_result" }

var callFactories = map[string]func() Call{}

func init() {
	for _, newCall := range []func() Call{
		func() Call { return &RegisterWorker{} },
		func() Call { return &DeregisterWorker{} },
		func() Call { return &TransferToWorker{} },
		func() Call { return &WithdrawFromWorker{} },
		func() Call { return &Online{} },
		func() Call { return &RefreshAttestation{} },
		func() Call { return &RequestOffline{} },
		func() Call { return &RequestOfflineFor{} },
		func() Call { return &ForceOffline{} },
		func() Call { return &ForceOfflineFor{} },
		func() Call { return &Heartbeat{} },
		func() Call { return &RegisterImpl{} },
		func() Call { return &DeregisterImpl{} },
		func() Call { return &UpdateImplMetadata{} },
		func() Call { return &RemoveImplMetadata{} },
		func() Call { return &UpdateImplBuildRestriction{} },
		func() Call { return &UpdateImplDeploymentPermission{} },
		func() Call { return &RegisterImplBuild{} },
		func() Call { return &UpdateImplBuildStatus{} },
		func() Call { return &DeregisterImplBuild{} },
		func() Call { return &RegisterImplBuildMagicBytes{} },
		func() Call { return &DeregisterImplBuildMagicBytes{} },
		func() Call { return &CreatePool{} },
		func() Call { return &DestroyPool{} },
		func() Call { return &UpdatePoolMetadata{} },
		func() Call { return &RemovePoolMetadata{} },
		func() Call { return &TogglePoolCreatingJobAvailability{} },
		func() Call { return &UpdatePoolImplSpecVersionRange{} },
		func() Call { return &AuthorizeWorker{} },
		func() Call { return &RevokeWorker{} },
		func() Call { return &SubscribePool{} },
		func() Call { return &UnsubscribePool{} },
		func() Call { return &CreateJobPolicy{} },
		func() Call { return &DestroyJobPolicy{} },
		func() Call { return &UpdateJobPolicyEnablement{} },
		func() Call { return &CreateJob{} },
		func() Call { return &DestroyJob{} },
		func() Call { return &DestroyExpiredJob{} },
		func() Call { return &TakeJob{} },
		func() Call { return &ReleaseJob{} },
		func() Call { return &SubmitJobResult{} },
	} {
		callFactories[newCall().CallName()] = newCall
	}
}

// CallNames lists every known call in lexical order.
func CallNames() []string {
	names := make([]string, 0, len(callFactories))
	for name := range callFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var jsonCodec codec.Codec = &codec.JSONCodec{}

// DecodeCall builds the call named name from its JSON arguments. Empty
// arguments leave every field at its zero value.
func DecodeCall(name string, args json.RawMessage) (Call, error) {
	newCall, ok := callFactories[name]
	if !ok {
		return nil, errorsmod.Wrapf(ErrUnknownCall, "%q", name)
	}
	call := newCall()
	if len(args) > 0 {
		if err := jsonCodec.Unmarshal(args, call); err != nil {
			return nil, errorsmod.Wrapf(ErrCallDecode, "%s: %v", name, err)
		}
	}
	return call, nil
}
