package stores

import (
	"context"
	"sync"

	"chat-notifier/internal/logger"
	"chat-notifier/internal/models"
	"chat-notifier/internal/repositories"
)

// PreferenceStore keeps pinned/muted/hidden flags per channel.
type PreferenceStore struct {
	doc   document[map[string]models.Preference]
	mu    sync.RWMutex
	prefs map[string]models.Preference
}

// NewPreferenceStore loads the user's preferences.
func NewPreferenceStore(ctx context.Context, repo repositories.StateRepository, userID string, logg *logger.Logger) *PreferenceStore {
	s := &PreferenceStore{doc: newDocument[map[string]models.Preference](repo, userID, KeyPreferences, logg)}
	prefs, ok := s.doc.load(ctx)
	if !ok || prefs == nil {
		prefs = make(map[string]models.Preference)
	}
	s.prefs = prefs
	return s
}

// Get returns the channel's preference, all false when absent.
func (s *PreferenceStore) Get(channelID string) models.Preference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs[channelID]
}

// All returns a copy of every stored preference.
func (s *PreferenceStore) All() map[string]models.Preference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Preference, len(s.prefs))
	for id, p := range s.prefs {
		out[id] = p
	}
	return out
}

// Set merges patch into the channel's preference and persists before returning.
func (s *PreferenceStore) Set(ctx context.Context, channelID string, patch models.PreferencePatch) models.Preference {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.Apply(s.prefs[channelID])
	if next.IsZero() {
		delete(s.prefs, channelID)
	} else {
		s.prefs[channelID] = next
	}
	s.doc.save(ctx, s.prefs)
	return next
}
