package http_test

import (
	"context"

	"taskflow/internal/auth/domain/model"
	"taskflow/internal/auth/usecase"

	"github.com/stretchr/testify/mock"
)

// mockAuthUsecase implements usecase.AuthUsecaseInterface for handler tests
type mockAuthUsecase struct {
	mock.Mock
}

func (m *mockAuthUsecase) ResolveSession(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockAuthUsecase) CreateSession(ctx context.Context, exchangeID string) (*usecase.SessionResponse, error) {
	args := m.Called(ctx, exchangeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.SessionResponse), args.Error(1)
}

func (m *mockAuthUsecase) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

var _ usecase.AuthUsecaseInterface = (*mockAuthUsecase)(nil)
