// Package invitations derives the direct-message handshake state of each direct
// channel from its recent messages. No status is stored anywhere; the newest
// handshake marker in the window decides.
package invitations

import (
	"chat-notifier/internal/content"
	"chat-notifier/internal/models"
)

// Classify scans a newest-last window from the newest message back and returns the
// state set by the first handshake marker it meets.
func Classify(msgs []models.Message, selfID string) models.InvitationStatus {
	status := models.InvitationStatus{State: models.InvitationNone}
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if status.ChannelID == "" {
			status.ChannelID = m.ChannelID
		}
		switch m.Body.Kind {
		case content.KindInviteAccepted:
			status.State = models.InvitationResolved
			status.Resolution = models.ResolutionAccepted
			status.MessageID = m.ID
			return status
		case content.KindInviteRejected:
			status.State = models.InvitationResolved
			status.Resolution = models.ResolutionRejected
			status.MessageID = m.ID
			return status
		case content.KindInviteSent:
			inviter := m.AuthorID
			if inviter == "" && m.Body.Invitation != nil {
				inviter = m.Body.Invitation.FromID
			}
			status.MessageID = m.ID
			status.InviterID = inviter
			status.Invitation = m.Body.Invitation
			if inviter == selfID {
				status.State = models.InvitationPendingOutgoing
			} else {
				status.State = models.InvitationPendingIncoming
			}
			return status
		}
	}
	return status
}
