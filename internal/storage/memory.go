package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryKV is a map-backed KV. FailWrites makes every Put and Delete fail,
// which is how tests simulate a full disk.
type MemoryKV struct {
	mu         sync.Mutex
	data       map[string]string
	FailWrites error
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// MemoryBlobs is a map-backed Blobs.
type MemoryBlobs struct {
	mu         sync.Mutex
	data       map[int64]Blob
	FailWrites error
}

func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{data: make(map[int64]Blob)}
}

func (m *MemoryBlobs) PutBlob(_ context.Context, id int64, blob Blob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[id] = Blob{ContentType: blob.ContentType, Data: append([]byte(nil), blob.Data...)}
	return nil
}

func (m *MemoryBlobs) GetBlob(_ context.Context, id int64) (Blob, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[id]
	return b, ok, nil
}

func (m *MemoryBlobs) DeleteBlob(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MemoryBlobs) ClearBlobs(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[int64]Blob)
	return nil
}

// Len reports how many blobs are stored.
func (m *MemoryBlobs) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
