package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ledgerlens/internal/domain"
	"ledgerlens/internal/service"
	"ledgerlens/internal/validator/receipt"
)

// MockTokenService is a mock implementation of service.TokenService.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Submit(ctx context.Context, input *service.SubmitInput) (*domain.ProcessingToken, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessingToken), args.Error(1)
}

func (m *MockTokenService) Poll(ctx context.Context, ownerID, tokenID uuid.UUID) (*domain.ProcessingToken, error) {
	args := m.Called(ctx, ownerID, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessingToken), args.Error(1)
}

func (m *MockTokenService) Result(ctx context.Context, ownerID, tokenID uuid.UUID) (*domain.ProcessingToken, *receipt.Analysis, error) {
	args := m.Called(ctx, ownerID, tokenID)
	var token *domain.ProcessingToken
	if args.Get(0) != nil {
		token = args.Get(0).(*domain.ProcessingToken)
	}
	var analysis *receipt.Analysis
	if args.Get(1) != nil {
		analysis = args.Get(1).(*receipt.Analysis)
	}
	return token, analysis, args.Error(2)
}

func (m *MockTokenService) ListCompleted(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]domain.ProcessingToken, error) {
	args := m.Called(ctx, ownerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingToken), args.Error(1)
}
