// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/axiumai/chat-widget/internal/domain/models"
)

// MockSessionClient is a mock implementation of chatapi.Client.
type MockSessionClient struct {
	mock.Mock
}

// FetchSession mocks the FetchSession method.
func (m *MockSessionClient) FetchSession(ctx context.Context) (*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}
