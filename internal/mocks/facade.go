package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-notifier/internal/directory"
	"chat-notifier/internal/models"
	"chat-notifier/internal/notifications"
)

type FacadeMock struct {
	mock.Mock
}

func (m *FacadeMock) Snapshot() models.UnreadSnapshot {
	args := m.Called()
	return args.Get(0).(models.UnreadSnapshot)
}

func (m *FacadeMock) TotalUnread() int {
	args := m.Called()
	return args.Int(0)
}

func (m *FacadeMock) TotalDirectUnread() int {
	args := m.Called()
	return args.Int(0)
}

func (m *FacadeMock) UnreadByChannel() map[string]int {
	args := m.Called()
	var out map[string]int
	if val := args.Get(0); val != nil {
		out = val.(map[string]int)
	}
	return out
}

func (m *FacadeMock) ActivityByChannel() map[string]bool {
	args := m.Called()
	var out map[string]bool
	if val := args.Get(0); val != nil {
		out = val.(map[string]bool)
	}
	return out
}

func (m *FacadeMock) MarkRead(ctx context.Context, channelID, messageID string) error {
	args := m.Called(ctx, channelID, messageID)
	return args.Error(0)
}

func (m *FacadeMock) ActiveChannel() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

func (m *FacadeMock) SetActiveChannel(ctx context.Context, channelID string) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}

func (m *FacadeMock) MountView(ctx context.Context) (string, bool) {
	args := m.Called(ctx)
	return args.String(0), args.Bool(1)
}

func (m *FacadeMock) LeaveView(ctx context.Context) {
	m.Called(ctx)
}

func (m *FacadeMock) ActiveMessages(ctx context.Context) ([]models.Message, error) {
	args := m.Called(ctx)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *FacadeMock) Preferences() map[string]models.Preference {
	args := m.Called()
	var out map[string]models.Preference
	if val := args.Get(0); val != nil {
		out = val.(map[string]models.Preference)
	}
	return out
}

func (m *FacadeMock) UpdatePreference(ctx context.Context, channelID string, patch models.PreferencePatch) (models.Preference, error) {
	args := m.Called(ctx, channelID, patch)
	return args.Get(0).(models.Preference), args.Error(1)
}

func (m *FacadeMock) Sections() directory.Sections {
	args := m.Called()
	return args.Get(0).(directory.Sections)
}

func (m *FacadeMock) SetChannelOrder(ctx context.Context, order models.ChannelOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *FacadeMock) Invitations() models.InvitationSummary {
	args := m.Called()
	return args.Get(0).(models.InvitationSummary)
}

func (m *FacadeMock) SendInvitation(ctx context.Context, channelID, note string) (models.Message, error) {
	args := m.Called(ctx, channelID, note)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *FacadeMock) AcceptInvitation(ctx context.Context, channelID string) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}

func (m *FacadeMock) RejectInvitation(ctx context.Context, channelID string) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}

func (m *FacadeMock) DrainNotices() []models.Notice {
	args := m.Called()
	var out []models.Notice
	if val := args.Get(0); val != nil {
		out = val.([]models.Notice)
	}
	return out
}

func (m *FacadeMock) Subscribe(fn func(models.Event)) func() {
	args := m.Called(fn)
	if val := args.Get(0); val != nil {
		return val.(func())
	}
	return func() {}
}

var _ notifications.Facade = (*FacadeMock)(nil)
