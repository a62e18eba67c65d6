package notifications_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"chat-notifier/internal/api"
	"chat-notifier/internal/models"
)

// backend is an in-memory messaging API shared by several users.
type backend struct {
	mu       sync.Mutex
	seq      int
	order    []string
	channels map[string]*fakeChannel
	failing  map[string]bool
}

type fakeChannel struct {
	channel models.Channel
	msgs    []models.Message
}

func newBackend() *backend {
	return &backend{channels: map[string]*fakeChannel{}, failing: map[string]bool{}}
}

func (b *backend) addChannel(id string, kind models.ChannelKind, members ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := models.Channel{ID: id, Kind: kind, Name: id}
	for _, m := range members {
		ch.Members = append(ch.Members, models.Member{UserID: m, DisplayName: m})
	}
	b.channels[id] = &fakeChannel{channel: ch}
	b.order = append(b.order, id)
}

func (b *backend) post(channelID, author, raw string) models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	msg := models.Message{ID: fmt.Sprintf("m%d", b.seq), ChannelID: channelID, AuthorID: author, Content: raw}
	fc := b.channels[channelID]
	fc.msgs = append(fc.msgs, msg)
	return msg
}

func (b *backend) messages(channelID string) []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Message, len(b.channels[channelID].msgs))
	copy(out, b.channels[channelID].msgs)
	models.ParseBodies(out)
	return out
}

func (b *backend) setFailing(channelID string, failing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing[channelID] = failing
}

func (b *backend) client(userID string) *userClient {
	return &userClient{b: b, userID: userID}
}

type userClient struct {
	b      *backend
	userID string
}

func notFound(channelID string) error {
	return &api.APIError{Status: http.StatusNotFound, Code: "not_found", Message: "channel " + channelID + " not found"}
}

func (c *userClient) ListChannels(context.Context) ([]models.Channel, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	var out []models.Channel
	for _, id := range c.b.order {
		fc, ok := c.b.channels[id]
		if !ok {
			continue
		}
		for _, m := range fc.channel.Members {
			if m.UserID == c.userID {
				out = append(out, fc.channel)
				break
			}
		}
	}
	return out, nil
}

func (c *userClient) ListRecentMessages(_ context.Context, channelID string, limit int) ([]models.Message, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.failing[channelID] {
		return nil, &api.APIError{Status: http.StatusBadGateway, Message: "upstream unavailable"}
	}
	fc, ok := c.b.channels[channelID]
	if !ok {
		return nil, notFound(channelID)
	}
	start := 0
	if len(fc.msgs) > limit {
		start = len(fc.msgs) - limit
	}
	out := make([]models.Message, len(fc.msgs)-start)
	copy(out, fc.msgs[start:])
	models.ParseBodies(out)
	return out, nil
}

func (c *userClient) SendMessage(_ context.Context, channelID string, req api.SendMessageRequest) (models.Message, error) {
	c.b.mu.Lock()
	_, ok := c.b.channels[channelID]
	c.b.mu.Unlock()
	if !ok {
		return models.Message{}, notFound(channelID)
	}
	return c.b.post(channelID, c.userID, req.Content), nil
}

func (c *userClient) DeleteChannel(_ context.Context, channelID string) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if _, ok := c.b.channels[channelID]; !ok {
		return notFound(channelID)
	}
	delete(c.b.channels, channelID)
	return nil
}

var _ api.MessagingAPI = (*userClient)(nil)
