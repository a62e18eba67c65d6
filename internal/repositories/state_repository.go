package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrStateNotFound = errors.New("state not found")

// StateRepository persists opaque per-user documents keyed by name.
type StateRepository interface {
	LoadState(ctx context.Context, userID string, key string) ([]byte, error)
	SaveState(ctx context.Context, userID string, key string, payload []byte) error
}

// StateRepo is a sqlx implementation of StateRepository. It runs on both
// postgres and sqlite.
type StateRepo struct {
	db *sqlx.DB
}

// NewStateRepo constructs a StateRepo.
func NewStateRepo(db *sqlx.DB) *StateRepo {
	return &StateRepo{db: db}
}

// LoadState returns the stored document or ErrStateNotFound.
func (r *StateRepo) LoadState(ctx context.Context, userID string, key string) ([]byte, error) {
	var payload string
	query := r.db.Rebind(`SELECT payload FROM user_state WHERE user_id=? AND state_key=?`)
	err := r.db.GetContext(ctx, &payload, query, userID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// SaveState upserts the document.
func (r *StateRepo) SaveState(ctx context.Context, userID string, key string, payload []byte) error {
	query := r.db.Rebind(`INSERT INTO user_state (user_id, state_key, payload, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT (user_id, state_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`)
	_, err := r.db.ExecContext(ctx, query, userID, key, string(payload))
	return err
}
