package notifications

import (
	"context"
	"errors"
	"fmt"

	"chat-notifier/internal/models"
)

// ActiveChannel returns the channel currently open in the chat view.
func (s *Service) ActiveChannel() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// SetActiveChannel switches the chat view to channelID and persists it as the
// channel to reopen. An empty id closes the view without marking anything read
// and leaves the persisted channel alone.
func (s *Service) SetActiveChannel(ctx context.Context, channelID string) error {
	if channelID == "" {
		s.clearActive()
		return nil
	}
	if _, err := s.lookup(ctx, channelID); err != nil {
		return fmt.Errorf("set active channel: %w", err)
	}
	s.ui.SetActiveChannel(ctx, channelID)
	s.activate(channelID)
	return nil
}

func (s *Service) activate(channelID string) {
	s.mu.Lock()
	if s.active != channelID {
		s.activeMsgs = nil
	}
	s.active = channelID
	s.zeroLocked(channelID)
	s.mu.Unlock()

	s.emit(models.Event{Type: models.EventActive, ChannelID: channelID}, s.snapshotEvent())
}

func (s *Service) clearActive() {
	s.mu.Lock()
	was := s.active
	s.active = ""
	s.activeMsgs = nil
	s.mu.Unlock()

	if was != "" {
		s.emit(models.Event{Type: models.EventActive}, s.snapshotEvent())
	}
}

// MountView restores the persisted active channel when the chat view opens, as
// long as the channel is still in the directory.
func (s *Service) MountView(ctx context.Context) (string, bool) {
	if id, ok := s.ActiveChannel(); ok {
		return id, true
	}
	saved, ok := s.ui.ActiveChannel()
	if !ok {
		return "", false
	}
	if _, err := s.lookup(ctx, saved); err != nil {
		if !errors.Is(err, ErrUnknownChannel) {
			s.logg.Warn(s.logg.WithChannelID(ctx, saved), "restoring active channel failed", err)
		}
		return "", false
	}
	s.activate(saved)
	return saved, true
}

// LeaveView tears the chat view down. When the former active channel shows a newest
// message past its cursor, that message is marked read first. The persisted channel
// is kept so the view reopens on it.
func (s *Service) LeaveView(ctx context.Context) {
	s.mu.Lock()
	id := s.active
	newest, hasNewest := models.Newest(s.activeMsgs)
	s.mu.Unlock()

	if id == "" {
		return
	}
	if hasNewest {
		if cursor, _ := s.cursors.LastSeen(id); cursor != newest.ID {
			if err := s.MarkRead(ctx, id, newest.ID); err != nil {
				s.logg.Warn(s.logg.WithChannelID(ctx, id), "mark read on leave failed", err)
			}
		}
	}
	s.clearActive()
}

// ActiveMessages returns the latest window of the active channel, fetching it when
// nothing has been polled yet.
func (s *Service) ActiveMessages(ctx context.Context) ([]models.Message, error) {
	s.mu.Lock()
	id, msgs := s.active, s.activeMsgs
	s.mu.Unlock()

	if id == "" {
		return []models.Message{}, nil
	}
	if msgs == nil {
		if err := s.PollActive(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		msgs = s.activeMsgs
		s.mu.Unlock()
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
