package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ledgerlens/internal/domain"
)

// MockTokenStore is a mock implementation of port.TokenStore.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Create(ctx context.Context, token *domain.ProcessingToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenStore) GetByID(ctx context.Context, ownerID, tokenID uuid.UUID) (*domain.ProcessingToken, error) {
	args := m.Called(ctx, ownerID, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessingToken), args.Error(1)
}

func (m *MockTokenStore) UpdateActive(ctx context.Context, token *domain.ProcessingToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenStore) ListCompletedByOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]domain.ProcessingToken, error) {
	args := m.Called(ctx, ownerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingToken), args.Error(1)
}
