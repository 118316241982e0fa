package sectornet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/sectornet/keystore"
	"github.com/opd-ai/sectornet/remote"
)

// memStore is an in-memory blob store shared across fake sessions to
// model durable storage surviving sign-out and sign-in.
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

// fakeNetwork models the hosting network: per-sector services plus the
// profile directory. It implements remote.Connector and
// remote.ProfileDirectory.
type fakeNetwork struct {
	mu       sync.Mutex
	sectors  map[string]*fakeSectorService
	profiles map[remote.Principal][]byte
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		sectors:  make(map[string]*fakeSectorService),
		profiles: make(map[remote.Principal][]byte),
	}
}

func (n *fakeNetwork) Sector(id string) remote.SectorService {
	return n.sector(id)
}

func (n *fakeNetwork) sector(id string) *fakeSectorService {
	n.mu.Lock()
	defer n.mu.Unlock()
	svc, ok := n.sectors[id]
	if !ok {
		svc = newFakeSectorService()
		n.sectors[id] = svc
	}
	return svc
}

func (n *fakeNetwork) GetPublicKey(ctx context.Context, principal remote.Principal) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	key, ok := n.profiles[principal]
	if !ok {
		return nil, remote.ErrProfileNotFound
	}
	return key, nil
}

func (n *fakeNetwork) RegisterProfile(ctx context.Context, username string, publicKey []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.profiles[remote.Principal(username)] = publicKey
	return nil
}

// fakeSectorService is an in-memory sector.
type fakeSectorService struct {
	mu       sync.Mutex
	members  []remote.Principal
	state    remote.CryptoState
	messages map[string][]remote.Item
	batches  [][]remote.WrappedKey
}

func newFakeSectorService() *fakeSectorService {
	return &fakeSectorService{
		state:    remote.CryptoState{CurrentKeyEpoch: 1},
		messages: make(map[string][]remote.Item),
	}
}

func (f *fakeSectorService) seed(channel string, payload []byte, epoch uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.append(channel, payload, epoch)
}

func (f *fakeSectorService) append(channel string, payload []byte, epoch uint64) {
	f.messages[channel] = append(f.messages[channel], remote.Item{
		ID:        fmt.Sprintf("%05d", len(f.messages[channel])+1),
		Author:    "member-a",
		Payload:   payload,
		KeyEpoch:  epoch,
		CreatedAt: time.Now(),
	})
}

func (f *fakeSectorService) setMembers(members ...remote.Principal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members = members
}

func (f *fakeSectorService) GetMembers(ctx context.Context) ([]remote.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members, nil
}

func (f *fakeSectorService) GetCryptoState(ctx context.Context) (remote.CryptoState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeSectorService) SubmitKeyRotation(ctx context.Context, batch []remote.WrappedKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	f.state.CurrentKeyEpoch++
	f.state.RekeyRequired = false
	return nil
}

func (f *fakeSectorService) SendMessage(ctx context.Context, channel string, payload []byte, epoch uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.append(channel, payload, epoch)
	return nil
}

func (f *fakeSectorService) GetMessages(ctx context.Context, channel string, pageSize int, beforeID string) ([]remote.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.messages[channel]

	end := len(items)
	if beforeID != "" {
		end = 0
		for i, item := range items {
			if item.ID < beforeID {
				end = i + 1
			}
		}
	}
	start := end - pageSize
	if start < 0 {
		start = 0
	}

	page := make([]remote.Item, 0, end-start)
	for i := end - 1; i >= start; i-- {
		page = append(page, items[i])
	}
	return page, nil
}

func (f *fakeSectorService) GetNewMessages(ctx context.Context, channel string, afterID string) ([]remote.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.Item
	for _, item := range f.messages[channel] {
		if item.ID > afterID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeSectorService) GetFeed(ctx context.Context, pageSize int, beforeID string) ([]remote.Item, error) {
	return f.GetMessages(ctx, "feed", pageSize, beforeID)
}

func (f *fakeSectorService) GetNewFeedItems(ctx context.Context, afterID string) ([]remote.Item, error) {
	return f.GetNewMessages(ctx, "feed", afterID)
}

func (f *fakeSectorService) GetGlobalFeed(ctx context.Context, pageSize int, beforeID string) ([]remote.Item, error) {
	return f.GetMessages(ctx, "global", pageSize, beforeID)
}

func (f *fakeSectorService) GetNewGlobalItems(ctx context.Context, afterID string) ([]remote.Item, error) {
	return f.GetNewMessages(ctx, "global", afterID)
}
