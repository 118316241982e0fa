package keystore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/sectornet/crypto"
)

// Keystore is the session-scoped index of cryptographic state. One
// instance is created at sign-in and destroyed at sign-out; every
// component that needs key material receives it explicitly.
type Keystore struct {
	store      BlobStore
	storageKey string

	mu       sync.RWMutex
	identity *crypto.IdentityKeyPair
	sectors  map[string]map[uint64]crypto.SectorKey
}

// New creates an empty keystore backed by store under the default
// storage key.
func New(store BlobStore) *Keystore {
	return &Keystore{
		store:      store,
		storageKey: StorageKey,
		sectors:    make(map[string]map[uint64]crypto.SectorKey),
	}
}

// SetIdentity installs the user's identity keypair. Callers must
// Persist afterwards for the identity to survive a reload.
func (k *Keystore) SetIdentity(pair *crypto.IdentityKeyPair) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.identity = pair
}

// Identity returns the installed identity keypair, or nil.
func (k *Keystore) Identity() *crypto.IdentityKeyPair {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.identity
}

// HasIdentity reports whether an identity keypair is installed.
func (k *Keystore) HasIdentity() bool {
	return k.Identity() != nil
}

// Get returns the key for (sectorID, epoch). Absence is a normal,
// expected condition: the key may simply not have been distributed to
// this user yet.
func (k *Keystore) Get(sectorID string, epoch uint64) (crypto.SectorKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	ring, ok := k.sectors[sectorID]
	if !ok {
		return crypto.SectorKey{}, false
	}
	key, ok := ring[epoch]
	return key, ok
}

// Put stores the key for (sectorID, epoch). An epoch that already
// holds a different key is never overwritten; re-inserting the same
// key is a no-op.
func (k *Keystore) Put(sectorID string, epoch uint64, key crypto.SectorKey) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	ring, ok := k.sectors[sectorID]
	if !ok {
		ring = make(map[uint64]crypto.SectorKey)
		k.sectors[sectorID] = ring
	}

	if existing, ok := ring[epoch]; ok {
		if existing != key {
			return fmt.Errorf("%w: sector %s epoch %d", ErrEpochConflict, sectorID, epoch)
		}
		return nil
	}

	ring[epoch] = key
	return nil
}

// savedKeystore is the durable serialized form of the keystore. Key
// halves are stored in the same portable format used on the profile
// directory, so the blob round-trips through the crypto import
// functions exactly.
type savedKeystore struct {
	Identity  savedIdentity                `json:"identity"`
	Sectors   map[string]map[uint64][]byte `json:"sectors"`
	Timestamp int64                        `json:"timestamp"`
}

type savedIdentity struct {
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"private_key"`
}

// Persist serializes the identity and the full sector key ring to the
// durable blob. Losing this write is equivalent to losing access to
// historical encrypted content, so callers must wait for Persist to
// return before reporting success to the user.
func (k *Keystore) Persist(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.RLock()
	if k.identity == nil {
		k.mu.RUnlock()
		return fmt.Errorf("persist: no identity to persist")
	}

	saved := savedKeystore{
		Identity: savedIdentity{
			PublicKey:  crypto.ExportPublicKey(k.identity.Public),
			PrivateKey: crypto.ExportPrivateKey(k.identity.Private),
		},
		Sectors:   make(map[string]map[uint64][]byte, len(k.sectors)),
		Timestamp: time.Now().Unix(),
	}
	for sectorID, ring := range k.sectors {
		epochs := make(map[uint64][]byte, len(ring))
		for epoch, key := range ring {
			raw := make([]byte, len(key))
			copy(raw, key[:])
			epochs[epoch] = raw
		}
		saved.Sectors[sectorID] = epochs
	}
	k.mu.RUnlock()

	blob, err := json.Marshal(&saved)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	if err := k.store.Write(k.storageKey, blob); err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"sectors": len(saved.Sectors),
	}).Debug("keystore persisted")
	return nil
}

// Restore reads the durable blob and reconstructs all keys. It returns
// false when no blob exists, which is the normal state for a user who
// has not yet created an identity. A corrupt blob is treated the same
// as an absent one after logging: the blob is all-or-nothing and is
// never partially trusted.
func (k *Keystore) Restore(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	blob, err := k.store.Read(k.storageKey)
	if err != nil {
		if err == ErrNoBlob {
			return false, nil
		}
		logrus.WithError(err).Warn("keystore blob unreadable, treating as absent")
		return false, nil
	}

	identity, sectors, err := decodeSaved(blob)
	if err != nil {
		logrus.WithError(err).Warn("keystore blob corrupt, treating as absent")
		return false, nil
	}

	k.mu.Lock()
	k.identity = identity
	k.sectors = sectors
	k.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"sectors": len(sectors),
	}).Debug("keystore restored")
	return true, nil
}

func decodeSaved(blob []byte) (*crypto.IdentityKeyPair, map[string]map[uint64]crypto.SectorKey, error) {
	var saved savedKeystore
	if err := json.Unmarshal(blob, &saved); err != nil {
		return nil, nil, err
	}

	public, err := crypto.ImportPublicKey(saved.Identity.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	private, err := crypto.ImportPrivateKey(saved.Identity.PrivateKey)
	if err != nil {
		return nil, nil, err
	}

	sectors := make(map[string]map[uint64]crypto.SectorKey, len(saved.Sectors))
	for sectorID, epochs := range saved.Sectors {
		ring := make(map[uint64]crypto.SectorKey, len(epochs))
		for epoch, raw := range epochs {
			key, err := crypto.ImportSectorKey(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("sector %s epoch %d: %w", sectorID, epoch, err)
			}
			ring[epoch] = key
		}
		sectors[sectorID] = ring
	}

	return &crypto.IdentityKeyPair{Public: public, Private: private}, sectors, nil
}

// Clear deletes the durable blob and drops all in-memory state. This is
// irreversible: without the blob, sector keys can only be recovered
// through the wrapped copies delivered by a future rotation in which
// this user participates as a recipient.
func (k *Keystore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := k.store.Delete(k.storageKey); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	k.mu.Lock()
	if k.identity != nil {
		_ = crypto.WipeIdentityKeyPair(k.identity)
	}
	k.identity = nil
	k.sectors = make(map[string]map[uint64]crypto.SectorKey)
	k.mu.Unlock()

	logrus.Info("keystore cleared")
	return nil
}
