package impl

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/eigerco/computeplane/internal/primitives"
	"github.com/eigerco/computeplane/internal/safemath"
	"github.com/eigerco/computeplane/internal/store"
)

func GetImpl(s *store.Store, id primitives.ImplId) (Impl, error) {
	impl, found, err := store.Get[Impl](s, implKey(id))
	if err != nil {
		return Impl{}, err
	}
	if !found {
		return Impl{}, errorsmod.Wrapf(ErrImplNotFound, "impl %d", id)
	}
	return impl, nil
}

func GetBuild(s *store.Store, id primitives.ImplId, version primitives.ImplBuildVersion) (Build, error) {
	build, found, err := store.Get[Build](s, buildKey(id, version))
	if err != nil {
		return Build{}, err
	}
	if !found {
		return Build{}, errorsmod.Wrapf(ErrImplBuildNotFound, "impl %d build %d", id, version)
	}
	return build, nil
}

func GetMetadata(s *store.Store, id primitives.ImplId) (primitives.StoredData, bool, error) {
	return store.Get[primitives.StoredData](s, metadataKey(id))
}

// CheckOnline validates the impl binding a worker claims when going online.
func CheckOnline(s *store.Store, payload primitives.OnlinePayload) (Impl, error) {
	impl, err := GetImpl(s, payload.ImplId)
	if err != nil {
		return Impl{}, err
	}
	build, err := GetBuild(s, payload.ImplId, payload.ImplBuildVersion)
	if err != nil {
		return Impl{}, err
	}
	if build.Status != Released {
		return Impl{}, errorsmod.Wrapf(ErrImplBuildRestricted, "build %d is %s", payload.ImplBuildVersion, build.Status)
	}
	if !impl.BuildRestriction.Allows(payload.ImplBuildVersion) {
		return Impl{}, errorsmod.Wrapf(ErrImplBuildRestricted, "build %d outside restriction", payload.ImplBuildVersion)
	}
	if !build.acceptsMagicBytes(payload.ImplBuildMagicBytes) {
		return Impl{}, errorsmod.Wrapf(ErrImplBuildMagicBytesMismatched, "build %d", payload.ImplBuildVersion)
	}
	return impl, nil
}

// BuildUsable reports whether workers already online with a build may stay
// online. Deprecated builds may, blocked and removed builds may not.
func BuildUsable(s *store.Store, id primitives.ImplId, version primitives.ImplBuildVersion) (bool, error) {
	impl, found, err := store.Get[Impl](s, implKey(id))
	if err != nil || !found {
		return false, err
	}
	build, found, err := store.Get[Build](s, buildKey(id, version))
	if err != nil || !found {
		return false, err
	}
	return build.Status != Blocked && impl.BuildRestriction.Allows(version), nil
}

// AddWorker counts a worker that went online with the build.
func AddWorker(s *store.Store, id primitives.ImplId, version primitives.ImplBuildVersion) error {
	return adjustWorkers(s, id, version, safemath.Inc32)
}

// RemoveWorker reverses AddWorker. A build deregistered in the meantime is
// skipped.
func RemoveWorker(s *store.Store, id primitives.ImplId, version primitives.ImplBuildVersion) error {
	return adjustWorkers(s, id, version, safemath.Dec32)
}

func adjustWorkers(s *store.Store, id primitives.ImplId, version primitives.ImplBuildVersion, step func(uint32) (uint32, error)) error {
	impl, found, err := store.Get[Impl](s, implKey(id))
	if err != nil {
		return err
	}
	if found {
		if impl.WorkersCount, err = step(impl.WorkersCount); err != nil {
			return errorsmod.Wrapf(ErrOverflow, "impl %d workers count", id)
		}
		if err := store.Put(s, implKey(id), impl); err != nil {
			return err
		}
	}
	build, found, err := store.Get[Build](s, buildKey(id, version))
	if err != nil || !found {
		return err
	}
	if build.WorkersCount, err = step(build.WorkersCount); err != nil {
		return errorsmod.Wrapf(ErrOverflow, "impl %d build %d workers count", id, version)
	}
	return store.Put(s, buildKey(id, version), build)
}

// EachImpl visits every impl in id order.
func EachImpl(s *store.Store, fn func(id primitives.ImplId, impl Impl) (bool, error)) error {
	return store.Each(s, implPrefix(), func(key []byte, impl Impl) (bool, error) {
		return fn(primitives.ImplId(store.ReadU32(key, 2)), impl)
	})
}

// EachBuild visits the builds of an impl in version order.
func EachBuild(s *store.Store, id primitives.ImplId, fn func(version primitives.ImplBuildVersion, build Build) (bool, error)) error {
	return store.Each(s, buildPrefix(id), func(key []byte, build Build) (bool, error) {
		return fn(primitives.ImplBuildVersion(store.ReadU32(key, 6)), build)
	})
}

// MatchesMagicBytes reports whether the build named in payload accepts the
// payload's magic bytes.
func MatchesMagicBytes(s *store.Store, payload primitives.OnlinePayload) (bool, error) {
	build, err := GetBuild(s, payload.ImplId, payload.ImplBuildVersion)
	if err != nil {
		return false, err
	}
	return build.acceptsMagicBytes(payload.ImplBuildMagicBytes), nil
}
