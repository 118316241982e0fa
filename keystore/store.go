package keystore

import "errors"

// StorageKey is the fixed key under which the serialized keystore blob
// is stored.
const StorageKey = "sectornet_keystore"

var (
	// ErrNoBlob is returned by BlobStore.Read when no blob exists under
	// the given key. This is the normal first-run state.
	ErrNoBlob = errors.New("no stored blob")

	// ErrEpochConflict is returned when a (sector, epoch) slot that
	// already holds a key receives a different one. The same epoch must
	// never map to two different keys.
	ErrEpochConflict = errors.New("sector epoch already holds a different key")
)

// BlobStore is the durable storage behind the keystore.
type BlobStore interface {
	// Write stores blob under key, replacing any previous value. The
	// write must be durable before Write returns.
	Write(key string, blob []byte) error

	// Read returns the blob stored under key, or ErrNoBlob.
	Read(key string) ([]byte, error)

	// Delete removes the blob stored under key. Deleting an absent key
	// is not an error.
	Delete(key string) error

	// Close releases the store's resources.
	Close() error
}
