package impl

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/attestation"
	"github.com/eigerco/computeplane/internal/chain"
	"github.com/eigerco/computeplane/internal/config"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/safemath"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/pkg/log"
)

// Registry executes the impl operations.
type Registry struct {
	params config.Params
}

func NewRegistry(params config.Params) *Registry {
	return &Registry{params: params}
}

func (r *Registry) RegisterImpl(ctx *chain.Context, origin primitives.Origin, method attestation.Method,
	permission DeploymentPermission) (primitives.ImplId, error) {
	owner, err := chain.EnsureSigned(origin)
	if err != nil {
		return 0, err
	}
	if (method == attestation.OptOut && r.params.DisallowOptOutAttestation) ||
		(method == attestation.NonTEE && r.params.DisallowNonTEEAttestation) {
		return 0, errorsmod.Wrapf(ErrUnsupportedAttestation, "%s is disallowed", method)
	}
	if !method.Valid() {
		return 0, errorsmod.Wrapf(ErrUnsupportedAttestation, "%s", method)
	}

	id, err := store.GetOr[primitives.ImplId](ctx.Store, nextImplIdKey(), 1)
	if err != nil {
		return 0, err
	}
	taken, err := ctx.Store.Has(implKey(id))
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, errorsmod.Wrapf(ErrImplIdTaken, "impl %d", id)
	}
	next, err := safemath.Inc32(uint32(id))
	if err != nil {
		return 0, ErrOverflow
	}

	if err := reserve(ctx, owner, r.params.RegisterImplDeposit); err != nil {
		return 0, err
	}
	impl := Impl{
		Owner:                owner,
		OwnerDeposit:         r.params.RegisterImplDeposit,
		AttestationMethod:    method,
		DeploymentPermission: permission,
	}
	if err := store.Put(ctx.Store, implKey(id), impl); err != nil {
		return 0, err
	}
	if err := store.Put(ctx.Store, nextImplIdKey(), primitives.ImplId(next)); err != nil {
		return 0, err
	}

	log.Impls.Debug().Uint32("impl", uint32(id)).Str("owner", owner.Short()).Msg("impl registered")
	ctx.Emit(ImplRegistered{ImplId: id, Owner: owner})
	return id, nil
}

func (r *Registry) DeregisterImpl(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId) error {
	impl, err := r.ownedImpl(ctx, origin, id)
	if err != nil {
		return err
	}
	if impl.WorkersCount > 0 {
		return errorsmod.Wrapf(ErrImplStillInUse, "%d workers online", impl.WorkersCount)
	}

	if err := ctx.Store.DeletePrefix(buildPrefix(id)); err != nil {
		return err
	}
	if err := r.removeMetadata(ctx, id); err != nil {
		return err
	}
	if err := ctx.Currency.Unreserve(impl.Owner, impl.OwnerDeposit); err != nil {
		return err
	}
	if err := ctx.Store.Delete(implKey(id)); err != nil {
		return err
	}

	log.Impls.Debug().Uint32("impl", uint32(id)).Msg("impl deregistered")
	ctx.Emit(ImplDeregistered{ImplId: id})
	return nil
}

func (r *Registry) UpdateImplMetadata(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId, data []byte) error {
	impl, err := r.ownedImpl(ctx, origin, id)
	if err != nil {
		return err
	}
	if len(data) > int(r.params.ImplMetadataLimit) {
		return errorsmod.Wrapf(ErrPayloadTooLarge, "metadata is %d bytes, limit %d", len(data), r.params.ImplMetadataLimit)
	}
	deposit, err := ledger.DataDeposit(r.params.ImplMetadataDepositBase, r.params.DepositPerByte, len(data))
	if err != nil {
		return err
	}

	current, found, err := store.Get[primitives.StoredData](ctx.Store, metadataKey(id))
	if err != nil {
		return err
	}
	if !found {
		current.ActualDeposit = 0
	}
	if err := ledger.Reconcile(ctx.Currency, impl.Owner, current.ActualDeposit, deposit); err != nil {
		return depositError(err)
	}
	stored := primitives.StoredData{Depositor: impl.Owner, ActualDeposit: deposit, Data: data}
	if err := store.Put(ctx.Store, metadataKey(id), stored); err != nil {
		return err
	}

	ctx.Emit(ImplMetadataUpdated{ImplId: id, Size: uint32(len(data))})
	return nil
}

func (r *Registry) RemoveImplMetadata(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId) error {
	if _, err := r.ownedImpl(ctx, origin, id); err != nil {
		return err
	}
	found, err := ctx.Store.Has(metadataKey(id))
	if err != nil {
		return err
	}
	if !found {
		return errorsmod.Wrapf(ErrMetadataNotFound, "impl %d", id)
	}
	if err := r.removeMetadata(ctx, id); err != nil {
		return err
	}
	ctx.Emit(ImplMetadataRemoved{ImplId: id})
	return nil
}

func (r *Registry) removeMetadata(ctx *chain.Context, id primitives.ImplId) error {
	current, found, err := store.Get[primitives.StoredData](ctx.Store, metadataKey(id))
	if err != nil || !found {
		return err
	}
	if err := ctx.Currency.Unreserve(current.Depositor, current.ActualDeposit); err != nil {
		return err
	}
	return ctx.Store.Delete(metadataKey(id))
}

func (r *Registry) UpdateImplBuildRestriction(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId,
	restriction BuildRestriction) error {
	impl, err := r.ownedImpl(ctx, origin, id)
	if err != nil {
		return err
	}
	if !restriction.valid() {
		return errorsmod.Wrapf(ErrInvalidBuildRestriction, "min %d above max %d", *restriction.MinVersion, *restriction.MaxVersion)
	}
	impl.BuildRestriction = restriction
	if err := store.Put(ctx.Store, implKey(id), impl); err != nil {
		return err
	}
	ctx.Emit(ImplBuildRestrictionUpdated{ImplId: id, Restriction: restriction})
	return nil
}

func (r *Registry) UpdateImplDeploymentPermission(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId,
	permission DeploymentPermission) error {
	impl, err := r.ownedImpl(ctx, origin, id)
	if err != nil {
		return err
	}
	impl.DeploymentPermission = permission
	if err := store.Put(ctx.Store, implKey(id), impl); err != nil {
		return err
	}
	ctx.Emit(ImplDeploymentPermissionUpdated{ImplId: id, Permission: permission})
	return nil
}

func (r *Registry) RegisterImplBuild(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId,
	version primitives.ImplBuildVersion, magicBytes *primitives.ImplBuildMagicBytes) error {
	if _, err := r.ownedImpl(ctx, origin, id); err != nil {
		return err
	}
	exists, err := ctx.Store.Has(buildKey(id, version))
	if err != nil {
		return err
	}
	if exists {
		return errorsmod.Wrapf(ErrImplBuildAlreadyRegistered, "impl %d build %d", id, version)
	}
	build := Build{Status: Released}
	if magicBytes != nil {
		build.MagicBytes = []primitives.ImplBuildMagicBytes{*magicBytes}
	}
	if err := store.Put(ctx.Store, buildKey(id, version), build); err != nil {
		return err
	}

	log.Impls.Debug().Uint32("impl", uint32(id)).Uint32("build", uint32(version)).Msg("impl build registered")
	ctx.Emit(ImplBuildRegistered{ImplId: id, Version: version, MagicBytes: magicBytes})
	return nil
}

// UpdateImplBuildStatus may be called by the impl owner or root.
func (r *Registry) UpdateImplBuildStatus(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId,
	version primitives.ImplBuildVersion, status BuildStatus) error {
	if origin.IsRoot() {
		if _, err := GetImpl(ctx.Store, id); err != nil {
			return err
		}
	} else if _, err := r.ownedImpl(ctx, origin, id); err != nil {
		return err
	}
	build, err := GetBuild(ctx.Store, id, version)
	if err != nil {
		return err
	}
	build.Status = status
	if err := store.Put(ctx.Store, buildKey(id, version), build); err != nil {
		return err
	}

	log.Impls.Debug().Uint32("impl", uint32(id)).Uint32("build", uint32(version)).Stringer("status", status).Msg("impl build status updated")
	ctx.Emit(ImplBuildStatusUpdated{ImplId: id, Version: version, Status: status})
	return nil
}

func (r *Registry) DeregisterImplBuild(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId,
	version primitives.ImplBuildVersion) error {
	if _, err := r.ownedImpl(ctx, origin, id); err != nil {
		return err
	}
	build, err := GetBuild(ctx.Store, id, version)
	if err != nil {
		return err
	}
	if build.WorkersCount > 0 {
		return errorsmod.Wrapf(ErrImplBuildStillInUse, "%d workers online", build.WorkersCount)
	}
	if err := ctx.Store.Delete(buildKey(id, version)); err != nil {
		return err
	}
	ctx.Emit(ImplBuildDeregistered{ImplId: id, Version: version})
	return nil
}

func (r *Registry) RegisterImplBuildMagicBytes(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId,
	version primitives.ImplBuildVersion, magicBytes primitives.ImplBuildMagicBytes) error {
	if _, err := r.ownedImpl(ctx, origin, id); err != nil {
		return err
	}
	build, err := GetBuild(ctx.Store, id, version)
	if err != nil {
		return err
	}
	if build.indexOf(magicBytes) >= 0 {
		return errorsmod.Wrapf(ErrImplBuildMagicBytesAlreadyRegistered, "impl %d build %d", id, version)
	}
	if len(build.MagicBytes) >= int(r.params.MaxRegisteredImplBuildMagicBytes) {
		return errorsmod.Wrapf(ErrImplBuildMagicBytesLimitExceeded, "limit %d", r.params.MaxRegisteredImplBuildMagicBytes)
	}
	build.MagicBytes = append(build.MagicBytes, magicBytes)
	if err := store.Put(ctx.Store, buildKey(id, version), build); err != nil {
		return err
	}
	ctx.Emit(ImplBuildMagicBytesRegistered{ImplId: id, Version: version, MagicBytes: magicBytes})
	return nil
}

func (r *Registry) DeregisterImplBuildMagicBytes(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId,
	version primitives.ImplBuildVersion, magicBytes primitives.ImplBuildMagicBytes) error {
	if _, err := r.ownedImpl(ctx, origin, id); err != nil {
		return err
	}
	build, err := GetBuild(ctx.Store, id, version)
	if err != nil {
		return err
	}
	i := build.indexOf(magicBytes)
	if i < 0 {
		return errorsmod.Wrapf(ErrImplBuildMagicBytesNotRegistered, "impl %d build %d", id, version)
	}
	build.MagicBytes = append(build.MagicBytes[:i], build.MagicBytes[i+1:]...)
	if err := store.Put(ctx.Store, buildKey(id, version), build); err != nil {
		return err
	}
	ctx.Emit(ImplBuildMagicBytesDeregistered{ImplId: id, Version: version, MagicBytes: magicBytes})
	return nil
}

func (r *Registry) ownedImpl(ctx *chain.Context, origin primitives.Origin, id primitives.ImplId) (Impl, error) {
	who, err := chain.EnsureSigned(origin)
	if err != nil {
		return Impl{}, err
	}
	impl, err := GetImpl(ctx.Store, id)
	if err != nil {
		return Impl{}, err
	}
	if impl.Owner != who {
		return Impl{}, errorsmod.Wrapf(ErrNotTheOwner, "impl %d", id)
	}
	return impl, nil
}

func reserve(ctx *chain.Context, who primitives.AccountId, amount primitives.Balance) error {
	if err := ctx.Currency.Reserve(who, amount); err != nil {
		return depositError(err)
	}
	return nil
}

func depositError(err error) error {
	if ledger.IsInsufficient(err) {
		return errorsmod.Wrap(ErrInsufficientDeposit, err.Error())
	}
	return err
}
