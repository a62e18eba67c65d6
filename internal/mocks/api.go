package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-notifier/internal/api"
	"chat-notifier/internal/models"
)

type MessagingAPIMock struct {
	mock.Mock
}

func (m *MessagingAPIMock) ListChannels(ctx context.Context) ([]models.Channel, error) {
	args := m.Called(ctx)
	var channels []models.Channel
	if val := args.Get(0); val != nil {
		channels = val.([]models.Channel)
	}
	return channels, args.Error(1)
}

func (m *MessagingAPIMock) ListRecentMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, channelID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessagingAPIMock) SendMessage(ctx context.Context, channelID string, req api.SendMessageRequest) (models.Message, error) {
	args := m.Called(ctx, channelID, req)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessagingAPIMock) DeleteChannel(ctx context.Context, channelID string) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}

var _ api.MessagingAPI = (*MessagingAPIMock)(nil)
