package repositories

import (
	"context"
	"sync"
)

// MemoryStateRepo keeps documents in process memory. State does not survive a restart.
type MemoryStateRepo struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStateRepo constructs an empty MemoryStateRepo.
func NewMemoryStateRepo() *MemoryStateRepo {
	return &MemoryStateRepo{docs: make(map[string][]byte)}
}

func (r *MemoryStateRepo) LoadState(_ context.Context, userID string, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.docs[userID+"\x00"+key]
	if !ok {
		return nil, ErrStateNotFound
	}
	return append([]byte(nil), data...), nil
}

func (r *MemoryStateRepo) SaveState(_ context.Context, userID string, key string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[userID+"\x00"+key] = append([]byte(nil), payload...)
	return nil
}
