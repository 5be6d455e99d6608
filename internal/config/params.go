// Package config holds the runtime parameters of the coordination layer.
package config

import (
	"errors"
	"fmt"

	"github.com/eigerco/computeplane/internal/primitives"
)

// Params are the genesis constants. Every replica must run with the same
// values.
type Params struct {
	// Deposits
	RegisterWorkerDeposit   primitives.Balance `mapstructure:"register_worker_deposit" json:"register_worker_deposit"`
	RegisterImplDeposit     primitives.Balance `mapstructure:"register_impl_deposit" json:"register_impl_deposit"`
	CreatePoolDeposit       primitives.Balance `mapstructure:"create_pool_deposit" json:"create_pool_deposit"`
	DepositPerJob           primitives.Balance `mapstructure:"deposit_per_job" json:"deposit_per_job"`
	DepositPerByte          primitives.Balance `mapstructure:"deposit_per_byte" json:"deposit_per_byte"`
	ImplMetadataDepositBase primitives.Balance `mapstructure:"impl_metadata_deposit_base" json:"impl_metadata_deposit_base"`
	PoolMetadataDepositBase primitives.Balance `mapstructure:"pool_metadata_deposit_base" json:"pool_metadata_deposit_base"`
	ExistentialDeposit      primitives.Balance `mapstructure:"existential_deposit" json:"existential_deposit"`

	// Capacity bounds
	MaxAssignedJobsPerWorker         uint32 `mapstructure:"max_assigned_jobs_per_worker" json:"max_assigned_jobs_per_worker"`
	MaxSubscribedPoolsPerWorker      uint32 `mapstructure:"max_subscribed_pools_per_worker" json:"max_subscribed_pools_per_worker"`
	MaxPoliciesPerPool               uint32 `mapstructure:"max_policies_per_pool" json:"max_policies_per_pool"`
	MaxJobsPerPool                   uint32 `mapstructure:"max_jobs_per_pool" json:"max_jobs_per_pool"`
	MaxWorkersPerPool                uint32 `mapstructure:"max_workers_per_pool" json:"max_workers_per_pool"`
	MaxRegisteredImplBuildMagicBytes uint32 `mapstructure:"max_registered_impl_build_magic_bytes" json:"max_registered_impl_build_magic_bytes"`
	HandleUnresponsivePerBlockLimit  uint32 `mapstructure:"handle_unresponsive_per_block_limit" json:"handle_unresponsive_per_block_limit"`

	// Heartbeat window in blocks
	CollectingHeartbeatsDurationInBlocks primitives.BlockNumber `mapstructure:"collecting_heartbeats_duration_in_blocks" json:"collecting_heartbeats_duration_in_blocks"`

	// Job expiry in seconds
	MinJobExpiresIn     uint64 `mapstructure:"min_job_expires_in" json:"min_job_expires_in"`
	MaxJobExpiresIn     uint64 `mapstructure:"max_job_expires_in" json:"max_job_expires_in"`
	DefaultJobExpiresIn uint64 `mapstructure:"default_job_expires_in" json:"default_job_expires_in"`

	// Attestation policy
	DisallowOptOutAttestation      bool   `mapstructure:"disallow_opt_out_attestation" json:"disallow_opt_out_attestation"`
	DisallowNonTEEAttestation      bool   `mapstructure:"disallow_non_tee_attestation" json:"disallow_non_tee_attestation"`
	NonTEEAttestationValidity      uint64 `mapstructure:"non_tee_attestation_validity" json:"non_tee_attestation_validity"`
	AttestationClockDriftTolerance uint64 `mapstructure:"attestation_clock_drift_tolerance" json:"attestation_clock_drift_tolerance"`

	// Blob limits in bytes
	PoolMetadataLimit uint32 `mapstructure:"pool_metadata_limit" json:"pool_metadata_limit"`
	ImplMetadataLimit uint32 `mapstructure:"impl_metadata_limit" json:"impl_metadata_limit"`
	InputLimit        uint32 `mapstructure:"input_limit" json:"input_limit"`
	OutputLimit       uint32 `mapstructure:"output_limit" json:"output_limit"`
	ProofLimit        uint32 `mapstructure:"proof_limit" json:"proof_limit"`
}

const (
	unit      primitives.Balance = 1_000_000
	milliUnit primitives.Balance = 1_000
)

func Default() Params {
	return Params{
		RegisterWorkerDeposit:   100 * unit,
		RegisterImplDeposit:     100 * unit,
		CreatePoolDeposit:       100 * unit,
		DepositPerJob:           unit,
		DepositPerByte:          milliUnit,
		ImplMetadataDepositBase: unit,
		PoolMetadataDepositBase: unit,
		ExistentialDeposit:      milliUnit,

		MaxAssignedJobsPerWorker:         8,
		MaxSubscribedPoolsPerWorker:      8,
		MaxPoliciesPerPool:               16,
		MaxJobsPerPool:                   1000,
		MaxWorkersPerPool:                1000,
		MaxRegisteredImplBuildMagicBytes: 8,
		HandleUnresponsivePerBlockLimit:  64,

		CollectingHeartbeatsDurationInBlocks: 240,

		MinJobExpiresIn:     60,
		MaxJobExpiresIn:     7 * 24 * 3600,
		DefaultJobExpiresIn: 3600,

		NonTEEAttestationValidity:      24 * 3600,
		AttestationClockDriftTolerance: 30,

		PoolMetadataLimit: 2048,
		ImplMetadataLimit: 2048,
		InputLimit:        2048,
		OutputLimit:       2048,
		ProofLimit:        2048,
	}
}

// Validate rejects parameter sets the engines cannot run with.
func (p Params) Validate() error {
	var errs []error
	if p.CollectingHeartbeatsDurationInBlocks == 0 {
		errs = append(errs, errors.New("collecting_heartbeats_duration_in_blocks must be positive"))
	}
	if p.HandleUnresponsivePerBlockLimit == 0 {
		errs = append(errs, errors.New("handle_unresponsive_per_block_limit must be positive"))
	}
	if p.MinJobExpiresIn > p.MaxJobExpiresIn {
		errs = append(errs, fmt.Errorf("min_job_expires_in %d exceeds max_job_expires_in %d", p.MinJobExpiresIn, p.MaxJobExpiresIn))
	}
	if p.DefaultJobExpiresIn < p.MinJobExpiresIn || p.DefaultJobExpiresIn > p.MaxJobExpiresIn {
		errs = append(errs, fmt.Errorf("default_job_expires_in %d outside [%d, %d]", p.DefaultJobExpiresIn, p.MinJobExpiresIn, p.MaxJobExpiresIn))
	}
	if p.DisallowOptOutAttestation && p.DisallowNonTEEAttestation {
		errs = append(errs, errors.New("every attestation method is disallowed"))
	}
	if p.RegisterWorkerDeposit == 0 {
		errs = append(errs, errors.New("register_worker_deposit must be positive"))
	}
	if p.MaxAssignedJobsPerWorker == 0 || p.MaxSubscribedPoolsPerWorker == 0 || p.MaxJobsPerPool == 0 ||
		p.MaxPoliciesPerPool == 0 || p.MaxWorkersPerPool == 0 {
		errs = append(errs, errors.New("capacity bounds must be positive"))
	}
	return errors.Join(errs...)
}
