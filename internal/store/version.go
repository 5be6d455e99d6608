package store

// StorageVersion tags the layout a module's data is stored in, so it can be
// migrated in place.
type StorageVersion uint16

const itemStorageVersion byte = 0xff

func storageVersionKey(module byte) []byte {
	return MakeKey(ModuleSystem, itemStorageVersion, []byte{module})
}

// GetStorageVersion returns the stored version of a module, zero if unset.
func (s *Store) GetStorageVersion(module byte) (StorageVersion, error) {
	return GetOr[StorageVersion](s, storageVersionKey(module), 0)
}

func (s *Store) SetStorageVersion(module byte, v StorageVersion) error {
	return Put(s, storageVersionKey(module), v)
}
