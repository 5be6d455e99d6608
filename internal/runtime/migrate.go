package runtime

import (
	"fmt"

	"github.com/eigerco/computeplane/internal/impl"
	"github.com/eigerco/computeplane/internal/ledger"
	"github.com/eigerco/computeplane/internal/pool"
	"github.com/eigerco/computeplane/internal/store"
	"github.com/eigerco/computeplane/internal/worker"
	"github.com/eigerco/computeplane/pkg/log"
)

type module struct {
	id      byte
	version store.StorageVersion
}

// modules lists every module with the storage version this build writes.
var modules = []module{
	{store.ModuleSystem, SystemStorageVersion},
	{store.ModuleBalances, ledger.StorageVersion},
	{store.ModuleImpls, impl.StorageVersion},
	{store.ModuleWorkers, worker.StorageVersion},
	{store.ModulePool, pool.StorageVersion},
}

// migration upgrades a module's data from one version to the next.
type migration func(s *store.Store) error

// migrations[module][v] moves the module from v to v+1. Steps without an
// entry only bump the tag. Version 0 is a store written before tags.
var migrations = map[byte]map[store.StorageVersion]migration{}

// Migrate brings every module up to the version this build writes. It
// refuses stores written by a newer build. It returns the number of modules
// upgraded.
func (r *Runtime) Migrate() (int, error) {
	tx := r.kv.NewTransaction()
	defer tx.Close() //nolint:errcheck // after commit close only releases the batch
	s := store.New(tx)

	upgraded := 0
	for _, m := range modules {
		stored, err := s.GetStorageVersion(m.id)
		if err != nil {
			return 0, err
		}
		if stored > m.version {
			return 0, fmt.Errorf("%s storage version %d is newer than supported %d", store.ModuleToString(m.id), stored, m.version)
		}
		if stored == m.version {
			continue
		}
		for v := stored; v < m.version; v++ {
			if step, ok := migrations[m.id][v]; ok {
				if err := step(s); err != nil {
					return 0, fmt.Errorf("migrate %s from %d: %w", store.ModuleToString(m.id), v, err)
				}
			}
		}
		if err := s.SetStorageVersion(m.id, m.version); err != nil {
			return 0, err
		}
		log.Runtime.Info().
			Str("module", store.ModuleToString(m.id)).
			Uint16("from", uint16(stored)).
			Uint16("to", uint16(m.version)).
			Msg("storage migrated")
		upgraded++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit migration: %w", err)
	}
	return upgraded, nil
}
