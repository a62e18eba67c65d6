package notifications

import (
	"context"

	"chat-notifier/internal/directory"
	"chat-notifier/internal/models"
)

// Facade is everything UI collaborators may call. They never touch cursors or raw
// message windows directly.
type Facade interface {
	Snapshot() models.UnreadSnapshot
	TotalUnread() int
	TotalDirectUnread() int
	UnreadByChannel() map[string]int
	ActivityByChannel() map[string]bool
	MarkRead(ctx context.Context, channelID, messageID string) error

	ActiveChannel() (string, bool)
	SetActiveChannel(ctx context.Context, channelID string) error
	MountView(ctx context.Context) (string, bool)
	LeaveView(ctx context.Context)
	ActiveMessages(ctx context.Context) ([]models.Message, error)

	Preferences() map[string]models.Preference
	UpdatePreference(ctx context.Context, channelID string, patch models.PreferencePatch) (models.Preference, error)
	Sections() directory.Sections
	SetChannelOrder(ctx context.Context, order models.ChannelOrder) error

	Invitations() models.InvitationSummary
	SendInvitation(ctx context.Context, channelID, note string) (models.Message, error)
	AcceptInvitation(ctx context.Context, channelID string) error
	RejectInvitation(ctx context.Context, channelID string) error
	DrainNotices() []models.Notice

	Subscribe(fn func(models.Event)) (unsubscribe func())
}

var _ Facade = (*Service)(nil)
