package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-notifier/internal/repositories"
)

type StateRepositoryMock struct {
	mock.Mock
}

func (m *StateRepositoryMock) LoadState(ctx context.Context, userID string, key string) ([]byte, error) {
	args := m.Called(ctx, userID, key)
	var data []byte
	if val := args.Get(0); val != nil {
		data = val.([]byte)
	}
	return data, args.Error(1)
}

func (m *StateRepositoryMock) SaveState(ctx context.Context, userID string, key string, payload []byte) error {
	args := m.Called(ctx, userID, key, payload)
	return args.Error(0)
}

var _ repositories.StateRepository = (*StateRepositoryMock)(nil)
