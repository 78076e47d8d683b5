package mocks

import (
	"context"

	"depotapi/internal/model"
	"depotapi/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockDepositService is a testify mock of service.DepositService.
type MockDepositService struct {
	mock.Mock
}

func (m *MockDepositService) Submit(ctx context.Context, in service.DepositInput) (*service.DepositResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*service.DepositResult)
	return res, args.Error(1)
}

// MockSigningService is a testify mock of service.SigningService.
type MockSigningService struct {
	mock.Mock
}

func (m *MockSigningService) Sign(ctx context.Context, in service.SignInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Error(1)
}
