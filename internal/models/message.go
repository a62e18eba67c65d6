package models

import (
	"time"

	"chat-notifier/internal/content"
)

// Message is a chat message as returned by the messaging API.
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Pinned    bool      `json:"pinned,omitempty"`
	Edited    bool      `json:"edited,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Body is the parsed form of Content, filled once after fetch.
	Body content.Body `json:"body"`
}

// ParseBodies fills Body for every message in place.
func ParseBodies(msgs []Message) {
	for i := range msgs {
		msgs[i].Body = content.Parse(msgs[i].Content)
	}
}

// Newest returns the last message of a newest-last window.
func Newest(msgs []Message) (Message, bool) {
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}
