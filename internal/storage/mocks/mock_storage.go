package mocks

import (
	"context"
	"io"

	"depotapi/internal/model"
	"depotapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a testify mock of storage.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	args := m.Called(ctx, name, parentID)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Upload(ctx context.Context, parentID, name string, r io.Reader, opt storage.PutObjectOptions) (storage.StoredFile, error) {
	args := m.Called(ctx, parentID, name, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, string, io.Reader, storage.PutObjectOptions) storage.StoredFile); ok {
		return f(ctx, parentID, name, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.StoredFile), args.Error(1)
}

func (m *MockGateway) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	args := m.Called(ctx, id)
	if f, ok := args.Get(0).(func(context.Context, string) io.ReadCloser); ok {
		return f(ctx, id), args.Error(1)
	}
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *MockGateway) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGateway) AppendRows(ctx context.Context, ledgerID, rng string, rows []model.LedgerRow) error {
	args := m.Called(ctx, ledgerID, rng, rows)
	return args.Error(0)
}

func (m *MockGateway) Close() error {
	args := m.Called()
	return args.Error(0)
}
