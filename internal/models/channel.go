package models

import (
	"strings"
	"time"
)

// ChannelKind distinguishes group channels from direct conversations.
type ChannelKind string

const (
	ChannelGroup  ChannelKind = "group"
	ChannelDirect ChannelKind = "direct"
)

// Member is a channel participant with an optional display profile.
type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Channel is the cached view of a conversation the user belongs to.
type Channel struct {
	ID        string      `json:"id"`
	Kind      ChannelKind `json:"kind"`
	Name      string      `json:"name,omitempty"`
	Members   []Member    `json:"members"`
	CreatedAt time.Time   `json:"created_at"`
}

// IsDirect reports whether the channel is a direct conversation.
func (c Channel) IsDirect() bool {
	return c.Kind == ChannelDirect
}

// Counterparts returns the members other than selfID.
func (c Channel) Counterparts(selfID string) []Member {
	others := make([]Member, 0, len(c.Members))
	for _, m := range c.Members {
		if m.UserID != selfID {
			others = append(others, m)
		}
	}
	return others
}

// DisplayName derives a direct channel's name from its non-self members.
func (c Channel) DisplayName(selfID string) string {
	if !c.IsDirect() {
		return c.Name
	}
	names := make([]string, 0, len(c.Members))
	for _, m := range c.Counterparts(selfID) {
		if m.DisplayName != "" {
			names = append(names, m.DisplayName)
		} else {
			names = append(names, m.UserID)
		}
	}
	if len(names) == 0 {
		return c.Name
	}
	return strings.Join(names, ", ")
}

// ChannelOrder is the user's custom ordering of the two sidebar sections.
type ChannelOrder struct {
	Groups  []string `json:"canales"`
	Directs []string `json:"directos"`
}
