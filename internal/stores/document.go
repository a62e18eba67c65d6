// Package stores holds the per-user, durable state of the notifier: read cursors,
// channel preferences and the UI state restored on return. Every store mirrors its
// document in memory and writes through to a repositories.StateRepository. Storage
// failures never reach the caller; they are logged and the store carries on with
// whatever it has in memory.
package stores

import (
	"context"
	"encoding/json"
	"errors"

	"chat-notifier/internal/logger"
	"chat-notifier/internal/repositories"
)

// Document keys, one JSON document per user each.
const (
	KeyReadCursors   = "chat.read_cursors"
	KeyPreferences   = "chat.preferences"
	KeyActiveChannel = "chat.active_channel"
	KeyChannelOrder  = "chat.channel_order"
)

type document[T any] struct {
	repo   repositories.StateRepository
	userID string
	key    string
	logg   *logger.Logger
}

func newDocument[T any](repo repositories.StateRepository, userID, key string, logg *logger.Logger) document[T] {
	if logg == nil {
		logg = logger.Nop()
	}
	return document[T]{repo: repo, userID: userID, key: key, logg: logg}
}

// load returns the decoded document; ok is false when nothing usable was stored.
func (d document[T]) load(ctx context.Context) (value T, ok bool) {
	data, err := d.repo.LoadState(ctx, d.userID, d.key)
	if errors.Is(err, repositories.ErrStateNotFound) {
		return value, false
	}
	if err != nil {
		d.logg.Warn(d.fields(ctx), "state load failed, starting empty", err)
		return value, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		d.logg.Warn(d.fields(ctx), "state document corrupt, starting empty", err)
		var zero T
		return zero, false
	}
	return value, true
}

func (d document[T]) save(ctx context.Context, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		d.logg.Warn(d.fields(ctx), "state encode failed", err)
		return
	}
	if err := d.repo.SaveState(ctx, d.userID, d.key, data); err != nil {
		d.logg.Warn(d.fields(ctx), "state save failed", err)
	}
}

func (d document[T]) fields(ctx context.Context) context.Context {
	return d.logg.WithFields(ctx, map[string]any{"user_id": d.userID, "state_key": d.key})
}
