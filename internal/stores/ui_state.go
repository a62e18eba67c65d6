package stores

import (
	"context"
	"sync"

	"chat-notifier/internal/logger"
	"chat-notifier/internal/models"
	"chat-notifier/internal/repositories"
)

type activeChannelDoc struct {
	ChannelID string `json:"channelId"`
}

// UIStateStore remembers the channel to reopen on return and the custom sidebar order.
type UIStateStore struct {
	activeDoc document[activeChannelDoc]
	orderDoc  document[models.ChannelOrder]

	mu     sync.RWMutex
	active string
	order  models.ChannelOrder
}

// NewUIStateStore loads the user's UI state.
func NewUIStateStore(ctx context.Context, repo repositories.StateRepository, userID string, logg *logger.Logger) *UIStateStore {
	s := &UIStateStore{
		activeDoc: newDocument[activeChannelDoc](repo, userID, KeyActiveChannel, logg),
		orderDoc:  newDocument[models.ChannelOrder](repo, userID, KeyChannelOrder, logg),
	}
	if doc, ok := s.activeDoc.load(ctx); ok {
		s.active = doc.ChannelID
	}
	if order, ok := s.orderDoc.load(ctx); ok {
		s.order = order
	}
	return s
}

// ActiveChannel returns the channel to restore, if any.
func (s *UIStateStore) ActiveChannel() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.active != ""
}

// SetActiveChannel persists the channel to restore. Empty ids are ignored so that
// leaving the view keeps the last channel.
func (s *UIStateStore) SetActiveChannel(ctx context.Context, channelID string) {
	if channelID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == channelID {
		return
	}
	s.active = channelID
	s.activeDoc.save(ctx, activeChannelDoc{ChannelID: channelID})
}

// Order returns the custom channel order.
func (s *UIStateStore) Order() models.ChannelOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ChannelOrder{
		Groups:  append([]string(nil), s.order.Groups...),
		Directs: append([]string(nil), s.order.Directs...),
	}
}

// SetOrder persists a new custom channel order.
func (s *UIStateStore) SetOrder(ctx context.Context, order models.ChannelOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.orderDoc.save(ctx, order)
}
