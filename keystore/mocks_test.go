package keystore

import "sync"

// memStore is an in-memory BlobStore for tests.
type memStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	writes int
	fail   error
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Write(key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	stored := make([]byte, len(blob))
	copy(stored, blob)
	m.blobs[key] = stored
	m.writes++
	return nil
}

func (m *memStore) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, ErrNoBlob
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (m *memStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *memStore) Close() error { return nil }
