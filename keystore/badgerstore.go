package keystore

import (
	"crypto/sha256"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/crypto/pbkdf2"

	"github.com/opd-ai/sectornet/crypto"
)

// BadgerStore is a BlobStore over a local Badger database, for hosts
// that keep all client state in one key-value store. The database is
// encrypted at rest with a key derived from the same master password
// scheme the FileStore uses.
type BadgerStore struct {
	db *badger.DB
}

// badgerSalt is a fixed derivation salt for the database encryption
// key. Badger stores its own per-file IVs; the salt only needs to
// domain-separate this derivation from the FileStore's per-directory
// salt file.
var badgerSalt = []byte("sectornet/badger/v1")

// NewBadgerStore opens (or creates) a Badger database at path.
func NewBadgerStore(path string, masterPassword []byte) (*BadgerStore, error) {
	if len(masterPassword) == 0 {
		return nil, fmt.Errorf("master password cannot be empty")
	}

	derivedKey := pbkdf2.Key(masterPassword, badgerSalt, pbkdf2Iterations, 32, sha256.New)
	crypto.ZeroBytes(masterPassword)

	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithEncryptionKey(derivedKey).
		WithIndexCacheSize(10 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		crypto.ZeroBytes(derivedKey)
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// Write stores blob under key. Badger syncs the write before Update
// returns.
func (bs *BadgerStore) Write(key string, blob []byte) error {
	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), blob)
	})
	if err != nil {
		return fmt.Errorf("badger write: %w", err)
	}
	return nil
}

// Read returns the blob stored under key, or ErrNoBlob.
func (bs *BadgerStore) Read(key string) ([]byte, error) {
	var blob []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, ErrNoBlob
		}
		return nil, fmt.Errorf("badger read: %w", err)
	}
	return blob, nil
}

// Delete removes the blob stored under key.
func (bs *BadgerStore) Delete(key string) error {
	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}
