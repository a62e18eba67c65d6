package notifications_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-notifier/internal/content"
	"chat-notifier/internal/models"
	"chat-notifier/internal/notifications"
	"chat-notifier/internal/repositories"
	"chat-notifier/internal/stores"
)

func boolPtr(v bool) *bool { return &v }

func newService(t *testing.T, b *backend, userID string, repo repositories.StateRepository) *notifications.Service {
	t.Helper()
	if repo == nil {
		repo = repositories.NewMemoryStateRepo()
	}
	svc := notifications.New(context.Background(), b.client(userID), repo, notifications.Options{SelfID: userID}, nil)
	t.Cleanup(svc.Close)
	return svc
}

func TestUnreadFollowsCursorAcrossTicks(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana", "beto")
	var last models.Message
	for i := 0; i < 5; i++ {
		last = b.post("c1", "ana", "hola")
	}

	svc := newService(t, b, "me", nil)
	require.NoError(t, svc.PollChannels(ctx))
	assert.Equal(t, 5, svc.UnreadByChannel()["c1"])
	assert.True(t, svc.ActivityByChannel()["c1"])
	assert.Equal(t, 5, svc.TotalUnread())
	assert.Equal(t, 0, svc.TotalDirectUnread())

	require.NoError(t, svc.MarkRead(ctx, "c1", last.ID))
	assert.Equal(t, 0, svc.UnreadByChannel()["c1"])
	assert.False(t, svc.ActivityByChannel()["c1"])
	first := svc.Snapshot()

	require.NoError(t, svc.MarkRead(ctx, "c1", last.ID))
	assert.Equal(t, first, svc.Snapshot())

	b.post("c1", "beto", "otra")
	require.NoError(t, svc.PollChannels(ctx))
	assert.Equal(t, 1, svc.UnreadByChannel()["c1"])
}

func TestDirectTotals(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	b.addChannel("d1", models.ChannelDirect, "me", "ana")
	b.post("c1", "ana", "a")
	b.post("d1", "ana", "b")
	b.post("d1", "ana", "c")
	b.post("d1", "me", "d")

	svc := newService(t, b, "me", nil)
	require.NoError(t, svc.PollChannels(ctx))

	snap := svc.Snapshot()
	assert.Equal(t, 3, snap.TotalUnread)
	assert.Equal(t, 2, snap.TotalDirectUnread)
	assert.False(t, snap.Activity["d1"])
}

func TestMutedChannelStaysAtZero(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	b.post("c1", "ana", "a")
	b.post("c1", "ana", "b")

	svc := newService(t, b, "me", nil)
	require.NoError(t, svc.PollChannels(ctx))
	require.Equal(t, 2, svc.UnreadByChannel()["c1"])

	pref, err := svc.UpdatePreference(ctx, "c1", models.PreferencePatch{Muted: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, pref.Muted)
	assert.Equal(t, 0, svc.UnreadByChannel()["c1"])

	b.post("c1", "ana", "c")
	require.NoError(t, svc.PollChannels(ctx))
	assert.Equal(t, 0, svc.UnreadByChannel()["c1"])

	// the cursor never moved, so unmuting brings the whole backlog back
	_, err = svc.UpdatePreference(ctx, "c1", models.PreferencePatch{Muted: boolPtr(false)})
	require.NoError(t, err)
	require.NoError(t, svc.PollChannels(ctx))
	assert.Equal(t, 3, svc.UnreadByChannel()["c1"])
}

func TestActiveChannelStaysAtZeroAndAdvancesCursor(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	b.post("c1", "ana", "a")

	repo := repositories.NewMemoryStateRepo()
	svc := newService(t, b, "me", repo)
	require.NoError(t, svc.PollChannels(ctx))
	require.NoError(t, svc.SetActiveChannel(ctx, "c1"))

	newest := b.post("c1", "ana", "b")
	require.NoError(t, svc.PollChannels(ctx))
	assert.Equal(t, 0, svc.UnreadByChannel()["c1"])

	cursors := stores.NewCursorStore(ctx, repo, "me", nil)
	cursor, ok := cursors.LastSeen("c1")
	require.True(t, ok)
	assert.Equal(t, newest.ID, cursor)

	require.NoError(t, svc.SetActiveChannel(ctx, ""))
	require.NoError(t, svc.PollChannels(ctx))
	assert.Equal(t, 0, svc.UnreadByChannel()["c1"])
}

func TestSetActiveChannelRejectsUnknownChannel(t *testing.T) {
	b := newBackend()
	svc := newService(t, b, "me", nil)
	require.NoError(t, svc.PollChannels(context.Background()))

	err := svc.SetActiveChannel(context.Background(), "nope")
	assert.ErrorIs(t, err, notifications.ErrUnknownChannel)
}

func TestActionsReachChannelsCreatedAfterLastPoll(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "ana", "beto")

	ana := newService(t, b, "ana", nil)
	require.NoError(t, ana.PollChannels(ctx))

	b.addChannel("c2", models.ChannelDirect, "ana", "beto")
	msg, err := ana.SendInvitation(ctx, "c2", "hola")
	require.NoError(t, err)
	assert.Equal(t, "c2", msg.ChannelID)
	assert.Contains(t, ana.Invitations().Sent, "c2")

	b.addChannel("c3", models.ChannelGroup, "ana", "beto")
	require.NoError(t, ana.SetActiveChannel(ctx, "c3"))
	active, _ := ana.ActiveChannel()
	assert.Equal(t, "c3", active)

	// nothing polled yet
	beto := newService(t, b, "beto", nil)
	require.NoError(t, beto.SetActiveChannel(ctx, "c1"))
	require.NoError(t, beto.AcceptInvitation(ctx, "c2"))
}

func TestFailedChannelKeepsPreviousCount(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	b.addChannel("c2", models.ChannelGroup, "me", "ana")
	b.post("c1", "ana", "a")
	b.post("c1", "ana", "b")
	b.post("c2", "ana", "c")

	svc := newService(t, b, "me", nil)
	require.NoError(t, svc.PollChannels(ctx))

	b.setFailing("c1", true)
	b.post("c2", "ana", "d")
	require.NoError(t, svc.PollChannels(ctx))

	assert.Equal(t, 2, svc.UnreadByChannel()["c1"])
	assert.Equal(t, 2, svc.UnreadByChannel()["c2"])
}

func TestMountViewRestoresPersistedChannel(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	b.post("c1", "ana", "a")
	repo := repositories.NewMemoryStateRepo()

	first := newService(t, b, "me", repo)
	require.NoError(t, first.PollChannels(ctx))
	require.NoError(t, first.SetActiveChannel(ctx, "c1"))
	msgs, err := first.ActiveMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	first.LeaveView(ctx)

	_, ok := first.ActiveChannel()
	assert.False(t, ok)

	second := newService(t, b, "me", repo)
	id, ok := second.MountView(ctx)
	require.True(t, ok)
	assert.Equal(t, "c1", id)
	active, _ := second.ActiveChannel()
	assert.Equal(t, "c1", active)
}

func TestMountViewIgnoresVanishedChannel(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	repo := repositories.NewMemoryStateRepo()

	first := newService(t, b, "me", repo)
	require.NoError(t, first.PollChannels(ctx))
	require.NoError(t, first.SetActiveChannel(ctx, "c1"))

	require.NoError(t, b.client("ana").DeleteChannel(ctx, "c1"))
	second := newService(t, b, "me", repo)
	_, ok := second.MountView(ctx)
	assert.False(t, ok)
}

func TestLeaveViewMarksDisplayedMessagesRead(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	b.post("c1", "ana", "a")
	repo := repositories.NewMemoryStateRepo()

	svc := newService(t, b, "me", repo)
	require.NoError(t, svc.PollChannels(ctx))
	require.NoError(t, svc.SetActiveChannel(ctx, "c1"))
	msgs, err := svc.ActiveMessages(ctx)
	require.NoError(t, err)

	svc.LeaveView(ctx)
	cursor, ok := stores.NewCursorStore(ctx, repo, "me", nil).LastSeen("c1")
	require.True(t, ok)
	assert.Equal(t, msgs[len(msgs)-1].ID, cursor)

	require.NoError(t, svc.PollChannels(ctx))
	assert.Equal(t, 0, svc.UnreadByChannel()["c1"])
}

func TestHiddenChannelMovesBetweenSections(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	b.addChannel("c3", models.ChannelGroup, "me", "ana")
	b.post("c3", "ana", "a")

	svc := newService(t, b, "me", nil)
	require.NoError(t, svc.PollChannels(ctx))

	_, err := svc.UpdatePreference(ctx, "c3", models.PreferencePatch{Hidden: boolPtr(true)})
	require.NoError(t, err)
	sections := svc.Sections()
	require.Len(t, sections.Channels, 1)
	assert.Equal(t, "c1", sections.Channels[0].ID)
	require.Len(t, sections.Hidden, 1)
	assert.Equal(t, "c3", sections.Hidden[0].ID)
	assert.Equal(t, 1, svc.UnreadByChannel()["c3"])

	_, err = svc.UpdatePreference(ctx, "c3", models.PreferencePatch{Hidden: boolPtr(false)})
	require.NoError(t, err)
	sections = svc.Sections()
	assert.Len(t, sections.Channels, 2)
	assert.Empty(t, sections.Hidden)
	assert.Equal(t, 1, svc.UnreadByChannel()["c3"])
}

func TestInvitationAcceptedHandshake(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c2", models.ChannelDirect, "ana", "beto")

	ana := newService(t, b, "ana", nil)
	beto := newService(t, b, "beto", nil)
	require.NoError(t, ana.PollChannels(ctx))
	require.NoError(t, beto.PollChannels(ctx))

	msg, err := ana.SendInvitation(ctx, "c2", "hablemos")
	require.NoError(t, err)
	body := content.Parse(msg.Content)
	require.Equal(t, content.KindInviteSent, body.Kind)
	assert.Equal(t, "beto", body.Invitation.ToID)
	assert.Contains(t, ana.Invitations().Sent, "c2")

	require.NoError(t, ana.PollInvitations(ctx))
	require.NoError(t, beto.PollInvitations(ctx))
	assert.Contains(t, ana.Invitations().Sent, "c2")
	assert.Contains(t, beto.Invitations().Pending, "c2")

	require.NoError(t, beto.AcceptInvitation(ctx, "c2"))
	active, ok := beto.ActiveChannel()
	require.True(t, ok)
	assert.Equal(t, "c2", active)
	assert.Empty(t, beto.Invitations().Pending)

	posted := b.messages("c2")
	require.Len(t, posted, 3)
	assert.Equal(t, content.KindInviteAccepted, posted[1].Body.Kind)
	assert.Equal(t, content.KindSystemNotice, posted[2].Body.Kind)
	assert.Equal(t, "beto", posted[2].AuthorID)
	assert.Equal(t, "beto joined the conversation", posted[2].Body.Display())

	require.NoError(t, ana.PollInvitations(ctx))
	assert.Empty(t, ana.Invitations().Sent)
	assert.Empty(t, ana.DrainNotices())

	require.NoError(t, beto.PollInvitations(ctx))
	assert.Empty(t, beto.Invitations().Pending)
}

func TestInvitationRejectedByDeletion(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c2", models.ChannelDirect, "ana", "beto")

	ana := newService(t, b, "ana", nil)
	beto := newService(t, b, "beto", nil)
	require.NoError(t, ana.PollChannels(ctx))
	require.NoError(t, beto.PollChannels(ctx))

	_, err := ana.SendInvitation(ctx, "c2", "")
	require.NoError(t, err)
	require.NoError(t, ana.PollInvitations(ctx))
	require.NoError(t, beto.PollInvitations(ctx))

	require.NoError(t, beto.RejectInvitation(ctx, "c2"))
	assert.Empty(t, beto.Sections().Directs)

	// the inviter's directory still lists c2 until the next channel tick
	require.NoError(t, ana.PollInvitations(ctx))
	assert.Empty(t, ana.DrainNotices())

	require.NoError(t, ana.PollChannels(ctx))
	require.NoError(t, ana.PollInvitations(ctx))
	assert.Empty(t, ana.Sections().Directs)

	notices := ana.DrainNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, models.NoticeInvitationRejected, notices[0].Kind)
	assert.Equal(t, "c2", notices[0].ChannelID)

	require.NoError(t, ana.PollInvitations(ctx))
	assert.Empty(t, ana.DrainNotices())
}

func TestInvitationActionErrors(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("g1", models.ChannelGroup, "ana", "beto")
	b.addChannel("d1", models.ChannelDirect, "ana", "beto")

	beto := newService(t, b, "beto", nil)
	require.NoError(t, beto.PollChannels(ctx))

	assert.ErrorIs(t, beto.AcceptInvitation(ctx, "g1"), notifications.ErrNotDirect)
	assert.ErrorIs(t, beto.AcceptInvitation(ctx, "zz"), notifications.ErrUnknownChannel)
	assert.ErrorIs(t, beto.AcceptInvitation(ctx, "d1"), notifications.ErrNoPendingInvitation)
	assert.ErrorIs(t, beto.RejectInvitation(ctx, "d1"), notifications.ErrNoPendingInvitation)
	_, err := beto.SendInvitation(ctx, "g1", "")
	assert.ErrorIs(t, err, notifications.ErrNotDirect)
	assert.ErrorIs(t, beto.MarkRead(ctx, "", "m1"), notifications.ErrInvalidArgument)
	_, err = beto.UpdatePreference(ctx, "d1", models.PreferencePatch{})
	assert.ErrorIs(t, err, notifications.ErrInvalidArgument)
}

func TestAcceptClassifiesUnscannedChannel(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("d1", models.ChannelDirect, "ana", "beto")
	raw, err := content.EncodeInvite(content.Invitation{FromID: "ana", ToID: "beto"})
	require.NoError(t, err)
	b.post("d1", "ana", raw)

	beto := newService(t, b, "beto", nil)
	require.NoError(t, beto.PollChannels(ctx))
	require.NoError(t, beto.AcceptInvitation(ctx, "d1"))
}

func TestSubscribersSeeChanges(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	last := b.post("c1", "ana", "a")

	svc := newService(t, b, "me", nil)
	var mu sync.Mutex
	var events []models.Event
	unsubscribe := svc.Subscribe(func(ev models.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	require.NoError(t, svc.PollChannels(ctx))
	require.NoError(t, svc.MarkRead(ctx, "c1", last.ID))
	unsubscribe()
	require.NoError(t, svc.MarkRead(ctx, "c1", "other"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventSnapshot, events[0].Type)
	assert.Equal(t, 1, events[0].Snapshot.Unread["c1"])
	assert.Equal(t, 0, events[1].Snapshot.Unread["c1"])
}

func TestClosedServiceStopsCommitting(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	b.post("c1", "ana", "a")

	svc := newService(t, b, "me", nil)
	svc.Close()
	require.NoError(t, svc.PollChannels(ctx))
	assert.Empty(t, svc.UnreadByChannel())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	other := newService(t, b, "me", nil)
	require.NoError(t, other.PollChannels(canceled))
	assert.Empty(t, other.UnreadByChannel())
}

func TestClosedServiceLeavesActiveCursorAlone(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me", "ana")
	first := b.post("c1", "ana", "a")
	repo := repositories.NewMemoryStateRepo()

	svc := newService(t, b, "me", repo)
	require.NoError(t, svc.PollChannels(ctx))
	require.NoError(t, svc.SetActiveChannel(ctx, "c1"))
	require.NoError(t, svc.PollChannels(ctx))

	b.post("c1", "ana", "b")
	svc.Close()
	require.NoError(t, svc.PollChannels(ctx))
	require.NoError(t, svc.PollActive(ctx))

	cursor, ok := stores.NewCursorStore(ctx, repo, "me", nil).LastSeen("c1")
	require.True(t, ok)
	assert.Equal(t, first.ID, cursor)
}

func TestChannelOrderPersists(t *testing.T) {
	ctx := context.Background()
	b := newBackend()
	b.addChannel("c1", models.ChannelGroup, "me")
	b.addChannel("c2", models.ChannelGroup, "me")
	repo := repositories.NewMemoryStateRepo()

	svc := newService(t, b, "me", repo)
	require.NoError(t, svc.PollChannels(ctx))
	require.NoError(t, svc.SetChannelOrder(ctx, models.ChannelOrder{Groups: []string{"c2", "c1"}}))

	again := newService(t, b, "me", repo)
	require.NoError(t, again.PollChannels(ctx))
	sections := again.Sections()
	require.Len(t, sections.Channels, 2)
	assert.Equal(t, "c2", sections.Channels[0].ID)
}
