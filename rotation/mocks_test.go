package rotation

import (
	"context"
	"sync"

	"github.com/opd-ai/sectornet/keystore"
	"github.com/opd-ai/sectornet/remote"
)

// fakeSectorService implements the membership and rotation surface of
// remote.SectorService.
type fakeSectorService struct {
	mu         sync.Mutex
	members    []remote.Principal
	membersErr error
	state      remote.CryptoState
	submitErr  error
	submitted  [][]remote.WrappedKey
	blockAt    chan struct{} // when set, GetMembers blocks until closed
}

func newFakeSectorService(members ...remote.Principal) *fakeSectorService {
	return &fakeSectorService{
		members: members,
		state:   remote.CryptoState{CurrentKeyEpoch: 4},
	}
}

func (f *fakeSectorService) GetMembers(ctx context.Context) ([]remote.Principal, error) {
	f.mu.Lock()
	block := f.blockAt
	err := f.membersErr
	members := f.members
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (f *fakeSectorService) GetCryptoState(ctx context.Context) (remote.CryptoState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeSectorService) SubmitKeyRotation(ctx context.Context, batch []remote.WrappedKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, batch)
	return nil
}

func (f *fakeSectorService) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

func (f *fakeSectorService) SendMessage(ctx context.Context, channel string, payload []byte, epoch uint64) error {
	return nil
}

func (f *fakeSectorService) GetMessages(ctx context.Context, channel string, pageSize int, beforeID string) ([]remote.Item, error) {
	return nil, nil
}

func (f *fakeSectorService) GetNewMessages(ctx context.Context, channel string, afterID string) ([]remote.Item, error) {
	return nil, nil
}

func (f *fakeSectorService) GetFeed(ctx context.Context, pageSize int, beforeID string) ([]remote.Item, error) {
	return nil, nil
}

func (f *fakeSectorService) GetNewFeedItems(ctx context.Context, afterID string) ([]remote.Item, error) {
	return nil, nil
}

// fakeDirectory maps principals to serialized public identity keys.
type fakeDirectory struct {
	keys map[remote.Principal][]byte
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{keys: make(map[remote.Principal][]byte)}
}

func (d *fakeDirectory) GetPublicKey(ctx context.Context, principal remote.Principal) ([]byte, error) {
	key, ok := d.keys[principal]
	if !ok {
		return nil, remote.ErrProfileNotFound
	}
	return key, nil
}

func (d *fakeDirectory) RegisterProfile(ctx context.Context, username string, publicKey []byte) error {
	return nil
}

// memStore is a minimal in-memory keystore backend.
type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemStore() *memStore { return &memStore{blobs: make(map[string][]byte)} }

func (m *memStore) Write(key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = blob
	return nil
}

func (m *memStore) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, keystore.ErrNoBlob
	}
	return blob, nil
}

func (m *memStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) blobCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
