package stores

import (
	"context"
	"sync"

	"chat-notifier/internal/logger"
	"chat-notifier/internal/repositories"
)

// CursorStore maps channel id to the last message id the user has seen.
// It does not enforce ordering; callers only move cursors forward.
type CursorStore struct {
	doc     document[map[string]string]
	mu      sync.RWMutex
	cursors map[string]string
}

// NewCursorStore loads the user's read cursors.
func NewCursorStore(ctx context.Context, repo repositories.StateRepository, userID string, logg *logger.Logger) *CursorStore {
	s := &CursorStore{doc: newDocument[map[string]string](repo, userID, KeyReadCursors, logg)}
	cursors, ok := s.doc.load(ctx)
	if !ok || cursors == nil {
		cursors = make(map[string]string)
	}
	s.cursors = cursors
	return s
}

// LastSeen returns the cursor for a channel.
func (s *CursorStore) LastSeen(channelID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.cursors[channelID]
	return id, ok && id != ""
}

// SetLastSeen records messageID as seen. Writing the same value again is a no-op.
func (s *CursorStore) SetLastSeen(ctx context.Context, channelID, messageID string) {
	if channelID == "" || messageID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursors[channelID] == messageID {
		return
	}
	s.cursors[channelID] = messageID
	s.doc.save(ctx, s.cursors)
}

// Forget drops the cursor of a channel that no longer exists.
func (s *CursorStore) Forget(ctx context.Context, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cursors[channelID]; !ok {
		return
	}
	delete(s.cursors, channelID)
	s.doc.save(ctx, s.cursors)
}

// All returns a copy of every cursor.
func (s *CursorStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.cursors))
	for id, m := range s.cursors {
		out[id] = m
	}
	return out
}
