package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-notifier/internal/content"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL+"/", StaticToken("tok"), time.Second)
	require.NoError(t, err)
	return client
}

func TestListChannelsSendsBearer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/channels", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"channels": []map[string]any{{"id": "c1", "kind": "group", "name": "soporte"}},
		})
	})

	channels, err := client.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "c1", channels[0].ID)
	assert.False(t, channels[0].IsDirect())
}

func TestListRecentMessagesParsesBodies(t *testing.T) {
	invite, err := content.EncodeInvite(content.Invitation{FromID: "u1", ToID: "u2"})
	require.NoError(t, err)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/channels/c2/messages", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]any{
				{"id": "m1", "channel_id": "c2", "author_id": "u1", "content": invite},
				{"id": "m2", "channel_id": "c2", "author_id": "u1", "content": "hola"},
			},
		})
	})

	msgs, err := client.ListRecentMessages(context.Background(), "c2", 20)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, content.KindInviteSent, msgs[0].Body.Kind)
	assert.Equal(t, content.KindText, msgs[1].Body.Kind)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"not a channel member"}`))
	})

	_, err := client.SendMessage(context.Background(), "c9", SendMessageRequest{Content: "x"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "not a channel member", apiErr.Message)
}

func TestDeleteChannelNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		http.NotFound(w, r)
	})

	err := client.DeleteChannel(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestNormalizeBaseURLRequiresScheme(t *testing.T) {
	_, err := NormalizeBaseURL("console.example.com")
	require.Error(t, err)

	got, err := NormalizeBaseURL(" https://console.example.com/api/ ")
	require.NoError(t, err)
	assert.Equal(t, "https://console.example.com/api", got)
}

func TestSubjectFromToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-7"})
	signed, err := token.SignedString([]byte("whatever"))
	require.NoError(t, err)

	sub, err := SubjectFromToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-7", sub)

	_, err = SubjectFromToken("garbage")
	require.Error(t, err)
}
