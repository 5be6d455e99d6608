package pool

import errorsmod "cosmossdk.io/errors"

const Codespace = "pool"

var (
	ErrNotTheOwner     = errorsmod.Register(Codespace, 2, "not the owner")
	ErrNotTheAssignee  = errorsmod.Register(Codespace, 3, "not the assignee")
	ErrNoPermission    = errorsmod.Register(Codespace, 4, "no permission")
	ErrInvalidArgument = errorsmod.Register(Codespace, 5, "invalid argument")

	ErrPoolIdTaken                         = errorsmod.Register(Codespace, 10, "pool id taken")
	ErrPoolNotFound                        = errorsmod.Register(Codespace, 11, "pool not found")
	ErrPoolNotEmpty                        = errorsmod.Register(Codespace, 12, "pool not empty")
	ErrPoolCreatingJobAvailabilityDisabled = errorsmod.Register(Codespace, 13, "pool is not accepting jobs")
	ErrMetadataNotFound                    = errorsmod.Register(Codespace, 14, "pool metadata not found")

	ErrWorkerNotFound             = errorsmod.Register(Codespace, 20, "worker not found")
	ErrWorkerNotOnline            = errorsmod.Register(Codespace, 21, "worker not online")
	ErrWorkerNotInThePool         = errorsmod.Register(Codespace, 22, "worker not in the pool")
	ErrWorkerAlreadyAdded         = errorsmod.Register(Codespace, 23, "worker already added")
	ErrWorkerAlreadySubscribed    = errorsmod.Register(Codespace, 24, "worker already subscribed")
	ErrWorkerNotSubscribeThePool  = errorsmod.Register(Codespace, 25, "worker not subscribed to the pool")
	ErrImplMismatched             = errorsmod.Register(Codespace, 26, "impl mismatched")
	ErrUnsupportedImplSpecVersion = errorsmod.Register(Codespace, 27, "unsupported impl spec version")

	ErrJobPolicyIdTaken       = errorsmod.Register(Codespace, 30, "job policy id taken")
	ErrJobPolicyNotFound      = errorsmod.Register(Codespace, 31, "job policy not found")
	ErrJobPolicyStillInUse    = errorsmod.Register(Codespace, 32, "job policy still in use")
	ErrJobPolicyNotApplicable = errorsmod.Register(Codespace, 33, "job policy not applicable")

	ErrJobIdTaken         = errorsmod.Register(Codespace, 40, "job id taken")
	ErrJobNotFound        = errorsmod.Register(Codespace, 41, "job not found")
	ErrNoAssignableJob    = errorsmod.Register(Codespace, 42, "no assignable job")
	ErrJobAlreadyAssigned = errorsmod.Register(Codespace, 43, "job already assigned")
	ErrJobAssigneeLocked  = errorsmod.Register(Codespace, 44, "job assignee locked")
	ErrJobIsProcessing    = errorsmod.Register(Codespace, 45, "job is processing")
	ErrJobIsProcessed     = errorsmod.Register(Codespace, 46, "job is processed")
	ErrJobStillValid      = errorsmod.Register(Codespace, 47, "job still valid")
	ErrExpiresInTooSmall  = errorsmod.Register(Codespace, 48, "expires in too small")
	ErrExpiresInTooLarge  = errorsmod.Register(Codespace, 49, "expires in too large")

	ErrInsufficientDeposit = errorsmod.Register(Codespace, 50, "insufficient deposit")
	ErrPayloadTooLarge     = errorsmod.Register(Codespace, 51, "payload too large")

	ErrWorkerAssignedJobsLimitExceeded    = errorsmod.Register(Codespace, 60, "worker assigned jobs limit exceeded")
	ErrWorkerSubscribedPoolsLimitExceeded = errorsmod.Register(Codespace, 61, "worker subscribed pools limit exceeded")
	ErrJobPoliciesPerPoolLimitExceeded    = errorsmod.Register(Codespace, 62, "job policies per pool limit exceeded")
	ErrJobsPerPoolLimitExceeded           = errorsmod.Register(Codespace, 63, "jobs per pool limit exceeded")
	ErrWorkersPerPoolLimitExceeded        = errorsmod.Register(Codespace, 64, "workers per pool limit exceeded")

	ErrOverflow = errorsmod.Register(Codespace, 70, "counter overflow")
)
