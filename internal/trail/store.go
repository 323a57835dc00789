package trail

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Store persists the whole trail collection at once. There is no partial update.
type Store interface {
	LoadAll(ctx context.Context) (Collection, error)
	SaveAll(ctx context.Context, trails Collection) error
}

func encodeCollection(trails Collection) ([]byte, error) {
	if trails == nil {
		trails = Collection{}
	}
	body, err := json.Marshal(trails)
	if err != nil {
		return nil, fmt.Errorf("encode trails: %w", err)
	}
	return body, nil
}

func decodeCollection(body []byte) (Collection, error) {
	if len(body) == 0 {
		return Collection{}, nil
	}
	var trails Collection
	if err := json.Unmarshal(body, &trails); err != nil {
		return nil, fmt.Errorf("decode trails: %w", err)
	}
	if trails == nil {
		trails = Collection{}
	}
	return trails, nil
}

type MemoryStore struct {
	mu     sync.RWMutex
	trails Collection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trails: Collection{}}
}

func (m *MemoryStore) LoadAll(_ context.Context) (Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trails.Clone(), nil
}

func (m *MemoryStore) SaveAll(_ context.Context, trails Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trails = trails.Clone()
	return nil
}
