package notifications

import (
	"context"
	"fmt"
	"maps"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chat-notifier/internal/models"
	"chat-notifier/internal/observability"
	"chat-notifier/internal/unread"
)

// Poll loop names, used as metric labels.
const (
	LoopChannels    = "channels"
	LoopInvitations = "invitations"
	LoopActive      = "active"
)

// PollChannels refreshes the directory, reconciles every channel and commits the new
// unread state. Channels that fail keep last tick's values. A failing directory
// refresh falls back to the cached snapshot and is returned after the commit.
func (s *Service) PollChannels(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "notifications.PollChannels")
	defer span.End()
	start := time.Now()
	defer func() { observability.ObservePoll(LoopChannels, start, err) }()

	channels, dirChanged, refreshErr := s.dir.Refresh(ctx)
	if refreshErr != nil {
		s.logg.Warn(ctx, "directory refresh failed, using cached channels", refreshErr)
		observability.IncFetchFailures(LoopChannels, 1)
		refreshErr = fmt.Errorf("refresh directory: %w", refreshErr)
	}

	active, _ := s.ActiveChannel()
	res := s.engine.Reconcile(ctx, channels, active)
	observability.IncFetchFailures(LoopChannels, len(res.Failed))
	span.SetAttributes(attribute.Int("channels", len(channels)), attribute.Int("failed", len(res.Failed)))

	s.mu.Lock()
	if !s.live(ctx) {
		s.mu.Unlock()
		return refreshErr
	}
	// the cursor only follows the active channel if the view stayed on it
	if active != "" && s.active == active {
		if newest, ok := res.Newest[active]; ok {
			s.cursors.SetLastSeen(ctx, active, newest)
		}
	}
	merged := res.Merge(s.unread, s.activity)
	// the view may have switched channels or a mute may have landed during the fetch
	if s.active != "" {
		if _, ok := merged.Unread[s.active]; ok {
			merged.Unread[s.active] = 0
		}
		delete(merged.Activity, s.active)
	}
	for id := range merged.Unread {
		if s.prefs.Get(id).Muted {
			merged.Unread[id] = 0
			delete(merged.Activity, id)
		}
	}
	changed := dirChanged || !maps.Equal(s.unread, merged.Unread) || !maps.Equal(s.activity, merged.Activity)
	s.unread = merged.Unread
	s.activity = merged.Activity
	total, direct := unread.Totals(s.unread, channels)
	s.mu.Unlock()

	observability.SetUnreadTotals(total, direct)
	if changed {
		s.emit(s.snapshotEvent())
	}
	return refreshErr
}

// PollActive fetches the active channel's window for display and keeps its cursor
// on the newest message.
func (s *Service) PollActive(ctx context.Context) (err error) {
	id, ok := s.ActiveChannel()
	if !ok {
		return nil
	}
	ctx, span := tracer.Start(ctx, "notifications.PollActive", trace.WithAttributes(attribute.String("channel_id", id)))
	defer span.End()
	start := time.Now()
	defer func() { observability.ObservePoll(LoopActive, start, err) }()

	msgs, err := s.api.ListRecentMessages(ctx, id, s.window)
	if err != nil {
		observability.IncFetchFailures(LoopActive, 1)
		return fmt.Errorf("poll active channel %s: %w", id, err)
	}

	s.mu.Lock()
	if !s.live(ctx) || s.active != id {
		s.mu.Unlock()
		return nil
	}
	prev, _ := models.Newest(s.activeMsgs)
	s.activeMsgs = msgs
	s.zeroLocked(id)
	newest, ok := models.Newest(msgs)
	if ok {
		s.cursors.SetLastSeen(ctx, id, newest.ID)
	}
	s.mu.Unlock()

	if ok && newest.ID != prev.ID {
		s.emit(models.Event{Type: models.EventActive, ChannelID: id})
	}
	return nil
}
