package models

import "time"

// Event types pushed to UI subscribers.
const (
	EventSnapshot    = "snapshot"
	EventPreferences = "preferences"
	EventActive      = "active_channel"
	EventNotice      = "notice"
)

// Notice is a one-time notification for the user.
type Notice struct {
	Kind      string    `json:"kind"`
	ChannelID string    `json:"channel_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

const NoticeInvitationRejected = "invitation_rejected"

// UnreadSnapshot is the aggregated unread state exposed to the UI.
type UnreadSnapshot struct {
	TotalUnread       int             `json:"total_unread"`
	TotalDirectUnread int             `json:"total_direct_unread"`
	Unread            map[string]int  `json:"unread"`
	Activity          map[string]bool `json:"activity"`
	ActiveChannelID   string          `json:"active_channel_id,omitempty"`
}

// Event is what the ws hub broadcasts.
type Event struct {
	Type        string                `json:"type"`
	Snapshot    *UnreadSnapshot       `json:"snapshot,omitempty"`
	Preferences map[string]Preference `json:"preferences,omitempty"`
	Notice      *Notice               `json:"notice,omitempty"`
	ChannelID   string                `json:"channel_id,omitempty"`
}
