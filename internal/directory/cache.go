package directory

import (
	"context"
	"reflect"
	"sync"

	"chat-notifier/internal/models"
)

// DefaultFullEvery is how many refreshes pass between full snapshot swaps.
const DefaultFullEvery = 5

// ChannelLister lists the user's channels.
type ChannelLister interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
}

// Cache holds the latest channel snapshot. Every refresh lists channels, but the
// snapshot is only swapped on a full tick (every fullEvery refreshes, or while
// empty) or when the set of channel ids changed.
type Cache struct {
	lister    ChannelLister
	fullEvery int

	mu       sync.RWMutex
	tick     int
	loaded   bool
	channels []models.Channel
	byID     map[string]models.Channel
}

// NewCache constructs a Cache.
func NewCache(lister ChannelLister, fullEvery int) *Cache {
	if fullEvery <= 0 {
		fullEvery = DefaultFullEvery
	}
	return &Cache{lister: lister, fullEvery: fullEvery, byID: map[string]models.Channel{}}
}

// Refresh polls the channel list. It returns the current snapshot and whether it
// changed. On error the cached snapshot is returned unchanged.
func (c *Cache) Refresh(ctx context.Context) ([]models.Channel, bool, error) {
	c.mu.Lock()
	c.tick++
	tick := c.tick
	c.mu.Unlock()

	listed, err := c.lister.ListChannels(ctx)
	if err != nil {
		return c.Snapshot(), false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	idsChanged := !sameIDs(c.byID, listed)
	full := !c.loaded || len(c.channels) == 0 || tick%c.fullEvery == 0
	if !full && !idsChanged {
		return cloneChannels(c.channels), false, nil
	}
	changed := !c.loaded || idsChanged || !reflect.DeepEqual(c.channels, listed)
	c.replace(listed)
	return cloneChannels(c.channels), changed, nil
}

func (c *Cache) replace(channels []models.Channel) {
	next := cloneChannels(channels)
	byID := make(map[string]models.Channel, len(next))
	for _, ch := range next {
		byID[ch.ID] = ch
	}
	c.channels = next
	c.byID = byID
	c.loaded = true
}

// Snapshot returns a copy of the cached channels.
func (c *Cache) Snapshot() []models.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneChannels(c.channels)
}

// Lookup returns a cached channel by id.
func (c *Cache) Lookup(channelID string) (models.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.byID[channelID]
	return ch, ok
}

// IDs returns the set of cached channel ids.
func (c *Cache) IDs() map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make(map[string]struct{}, len(c.byID))
	for id := range c.byID {
		ids[id] = struct{}{}
	}
	return ids
}

// Remove drops a channel ahead of the next refresh, e.g. after it was deleted.
func (c *Cache) Remove(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[channelID]; !ok {
		return
	}
	kept := make([]models.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		if ch.ID != channelID {
			kept = append(kept, ch)
		}
	}
	c.replace(kept)
}

func sameIDs(current map[string]models.Channel, listed []models.Channel) bool {
	if len(current) != len(listed) {
		return false
	}
	for _, ch := range listed {
		if _, ok := current[ch.ID]; !ok {
			return false
		}
	}
	return true
}

func cloneChannels(in []models.Channel) []models.Channel {
	if in == nil {
		return nil
	}
	out := make([]models.Channel, len(in))
	copy(out, in)
	return out
}
