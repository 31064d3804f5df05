package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockVault is a mock implementation of vault.Vault.
type MockVault struct {
	mock.Mock
}

// GetSecret mocks the GetSecret method.
func (m *MockVault) GetSecret(ctx context.Context, uri string) (string, error) {
	args := m.Called(ctx, uri)
	return args.String(0), args.Error(1)
}

// Ping mocks the Ping method.
func (m *MockVault) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks the Close method.
func (m *MockVault) Close() error {
	args := m.Called()
	return args.Error(0)
}
