package notifications

import (
	"context"
	"fmt"
	"time"

	"chat-notifier/internal/api"
	"chat-notifier/internal/content"
	"chat-notifier/internal/invitations"
	"chat-notifier/internal/models"
	"chat-notifier/internal/observability"
)

const rejectedNoticeText = "Your direct message invitation was rejected"

func acceptedNoticeText(resp content.Response) string {
	name := resp.Name
	if name == "" {
		name = resp.UserID
	}
	return name + " joined the conversation"
}

// Invitations returns the pending handshakes split by direction.
func (s *Service) Invitations() models.InvitationSummary {
	return s.tracker.Summary()
}

// PollInvitations scans the cached direct channels. Outgoing invitations whose
// channel vanished turn into one-time rejected notices.
func (s *Service) PollInvitations(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "notifications.PollInvitations")
	defer span.End()
	start := time.Now()
	defer func() { observability.ObservePoll(LoopInvitations, start, err) }()

	res := s.tracker.Scan(ctx, s.dir.Snapshot())
	observability.IncFetchFailures(LoopInvitations, len(res.Failed))

	s.mu.Lock()
	if !s.live(ctx) {
		s.mu.Unlock()
		return nil
	}
	notices := make([]models.Notice, 0, len(res.Vanished))
	for _, id := range res.Vanished {
		notice := models.Notice{
			Kind:      models.NoticeInvitationRejected,
			ChannelID: id,
			Text:      rejectedNoticeText,
			CreatedAt: time.Now().UTC(),
		}
		notices = append(notices, notice)
		delete(s.unread, id)
		delete(s.activity, id)
	}
	s.notices = append(s.notices, notices...)
	s.mu.Unlock()

	if len(notices) == 0 {
		return nil
	}
	events := make([]models.Event, 0, len(notices)+1)
	for i := range notices {
		s.dir.Remove(notices[i].ChannelID)
		s.cursors.Forget(ctx, notices[i].ChannelID)
		s.publishNotice(ctx, notices[i])
		events = append(events, models.Event{Type: models.EventNotice, Notice: &notices[i], ChannelID: notices[i].ChannelID})
	}
	events = append(events, s.snapshotEvent())
	s.emit(events...)
	return nil
}

// SendInvitation posts an invitation marker to a direct channel.
func (s *Service) SendInvitation(ctx context.Context, channelID, note string) (models.Message, error) {
	ch, err := s.directChannel(ctx, channelID)
	if err != nil {
		return models.Message{}, fmt.Errorf("send invitation: %w", err)
	}
	inv := content.Invitation{FromID: s.selfID, Note: note}
	for _, m := range ch.Members {
		if m.UserID == s.selfID {
			inv.FromName = m.DisplayName
		} else if inv.ToID == "" {
			inv.ToID = m.UserID
			inv.ToName = m.DisplayName
		}
	}
	raw, err := content.EncodeInvite(inv)
	if err != nil {
		return models.Message{}, fmt.Errorf("send invitation: %w", err)
	}
	msg, err := s.api.SendMessage(ctx, channelID, api.SendMessageRequest{Content: raw})
	if err != nil {
		return models.Message{}, fmt.Errorf("send invitation: %w", err)
	}
	s.tracker.Record(models.InvitationStatus{
		ChannelID:  channelID,
		State:      models.InvitationPendingOutgoing,
		MessageID:  msg.ID,
		InviterID:  s.selfID,
		Invitation: &inv,
	})
	return msg, nil
}

// AcceptInvitation answers a pending incoming invitation with an accepted marker,
// announces the new conversation with a system notice and opens the channel.
func (s *Service) AcceptInvitation(ctx context.Context, channelID string) error {
	ch, err := s.pendingIncoming(ctx, channelID)
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	resp := content.Response{UserID: s.selfID}
	for _, m := range ch.Members {
		if m.UserID == s.selfID {
			resp.Name = m.DisplayName
		}
	}
	msg, err := s.api.SendMessage(ctx, channelID, api.SendMessageRequest{Content: content.EncodeAccepted(resp)})
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	s.tracker.Record(models.InvitationStatus{
		ChannelID:  channelID,
		State:      models.InvitationResolved,
		Resolution: models.ResolutionAccepted,
		MessageID:  msg.ID,
	})
	// the handshake already holds once the marker is posted
	if _, err := s.api.SendMessage(ctx, channelID, api.SendMessageRequest{Content: content.EncodeNotice(acceptedNoticeText(resp))}); err != nil {
		s.logg.Warn(s.logg.WithChannelID(ctx, channelID), "accepted notice not posted", err)
	}
	s.ui.SetActiveChannel(ctx, channelID)
	s.activate(channelID)
	return nil
}

// RejectInvitation deletes the channel for both parties. The inviter learns about it
// when the channel vanishes from their directory.
func (s *Service) RejectInvitation(ctx context.Context, channelID string) error {
	if _, err := s.pendingIncoming(ctx, channelID); err != nil {
		return fmt.Errorf("reject invitation: %w", err)
	}
	if err := s.api.DeleteChannel(ctx, channelID); err != nil && !api.IsNotFound(err) {
		return fmt.Errorf("reject invitation: %w", err)
	}
	s.dir.Remove(channelID)
	s.tracker.Forget(channelID)
	s.cursors.Forget(ctx, channelID)

	s.mu.Lock()
	delete(s.unread, channelID)
	delete(s.activity, channelID)
	wasActive := s.active == channelID
	if wasActive {
		s.active = ""
		s.activeMsgs = nil
	}
	s.mu.Unlock()

	events := []models.Event{s.snapshotEvent()}
	if wasActive {
		events = append(events, models.Event{Type: models.EventActive})
	}
	s.emit(events...)
	return nil
}

func (s *Service) directChannel(ctx context.Context, channelID string) (models.Channel, error) {
	ch, err := s.lookup(ctx, channelID)
	if err != nil {
		return models.Channel{}, err
	}
	if !ch.IsDirect() {
		return models.Channel{}, fmt.Errorf("%w: %s", ErrNotDirect, channelID)
	}
	return ch, nil
}

// pendingIncoming resolves the channel and makes sure it carries an invitation
// addressed to the user. Channels the tracker has not scanned yet are classified
// on the spot.
func (s *Service) pendingIncoming(ctx context.Context, channelID string) (models.Channel, error) {
	ch, err := s.directChannel(ctx, channelID)
	if err != nil {
		return models.Channel{}, err
	}
	status, ok := s.tracker.Status(channelID)
	if !ok {
		msgs, err := s.api.ListRecentMessages(ctx, channelID, invitations.DefaultWindow)
		if err != nil {
			return models.Channel{}, err
		}
		status = invitations.Classify(msgs, s.selfID)
	}
	if status.State != models.InvitationPendingIncoming {
		return models.Channel{}, fmt.Errorf("%w: %s", ErrNoPendingInvitation, channelID)
	}
	return ch, nil
}
