package models

import "chat-notifier/internal/content"

// InvitationState is the derived handshake state of a direct channel.
type InvitationState string

const (
	InvitationNone            InvitationState = "none"
	InvitationPendingIncoming InvitationState = "pending-incoming"
	InvitationPendingOutgoing InvitationState = "pending-outgoing"
	InvitationResolved        InvitationState = "resolved"
)

// Resolution says how a resolved handshake ended.
type Resolution string

const (
	ResolutionAccepted Resolution = "accepted"
	ResolutionRejected Resolution = "rejected"
)

// InvitationStatus is the outcome of scanning one direct channel.
type InvitationStatus struct {
	ChannelID  string              `json:"channel_id"`
	State      InvitationState     `json:"state"`
	Resolution Resolution          `json:"resolution,omitempty"`
	MessageID  string              `json:"message_id,omitempty"`
	InviterID  string              `json:"inviter_id,omitempty"`
	Invitation *content.Invitation `json:"invitation,omitempty"`
}

// IsPending reports whether the handshake awaits an answer.
func (s InvitationStatus) IsPending() bool {
	return s.State == InvitationPendingIncoming || s.State == InvitationPendingOutgoing
}

// InvitationSummary lists the pending handshakes of a user by direction.
type InvitationSummary struct {
	Sent    map[string]InvitationStatus `json:"sent_invites"`
	Pending map[string]InvitationStatus `json:"pending_invites"`
}
