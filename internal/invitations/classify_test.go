package invitations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-notifier/internal/content"
	"chat-notifier/internal/models"
)

func msg(id, author, raw string) models.Message {
	return models.Message{ID: id, ChannelID: "c2", AuthorID: author, Content: raw, Body: content.Parse(raw)}
}

func invite(t *testing.T, from, to string) string {
	t.Helper()
	raw, err := content.EncodeInvite(content.Invitation{FromID: from, ToID: to, FromName: "Ana"})
	require.NoError(t, err)
	return raw
}

func TestClassifyNoMarkers(t *testing.T) {
	status := Classify([]models.Message{msg("m1", "ana", "hola")}, "ana")
	assert.Equal(t, models.InvitationNone, status.State)
	assert.Equal(t, models.InvitationNone, Classify(nil, "ana").State)
}

func TestClassifyDirectionFollowsInviter(t *testing.T) {
	msgs := []models.Message{msg("m1", "ana", invite(t, "ana", "beto"))}

	sender := Classify(msgs, "ana")
	assert.Equal(t, models.InvitationPendingOutgoing, sender.State)
	assert.Equal(t, "m1", sender.MessageID)
	require.NotNil(t, sender.Invitation)
	assert.Equal(t, "beto", sender.Invitation.ToID)

	recipient := Classify(msgs, "beto")
	assert.Equal(t, models.InvitationPendingIncoming, recipient.State)
	assert.Equal(t, "ana", recipient.InviterID)
}

func TestClassifyNewestMarkerWins(t *testing.T) {
	msgs := []models.Message{
		msg("m1", "ana", invite(t, "ana", "beto")),
		msg("m2", "beto", content.EncodeAccepted(content.Response{UserID: "beto"})),
		msg("m3", "beto", "gracias"),
	}
	for _, self := range []string{"ana", "beto"} {
		status := Classify(msgs, self)
		assert.Equal(t, models.InvitationResolved, status.State)
		assert.Equal(t, models.ResolutionAccepted, status.Resolution)
		assert.Equal(t, "m2", status.MessageID)
	}

	rejected := append(msgs, msg("m4", "beto", content.EncodeRejected(content.Response{UserID: "beto"})))
	assert.Equal(t, models.ResolutionRejected, Classify(rejected, "ana").Resolution)

	reinvited := append(rejected, msg("m5", "ana", invite(t, "ana", "beto")))
	assert.Equal(t, models.InvitationPendingOutgoing, Classify(reinvited, "ana").State)
}

func TestClassifyMalformedInviteStillPending(t *testing.T) {
	status := Classify([]models.Message{msg("m1", "ana", content.InvitePrefix+"{oops")}, "beto")
	assert.Equal(t, models.InvitationPendingIncoming, status.State)
	assert.Nil(t, status.Invitation)
}

func TestClassifyIgnoresSystemNotices(t *testing.T) {
	msgs := []models.Message{
		msg("m1", "ana", invite(t, "ana", "beto")),
		msg("m2", "ana", content.EncodeNotice("ticket linked")),
	}
	assert.Equal(t, models.InvitationPendingOutgoing, Classify(msgs, "ana").State)
}
