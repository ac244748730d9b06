package provider

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a testify mock of Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) Generate(ctx context.Context, model, question string) (string, error) {
	args := m.Called(ctx, model, question)
	return args.String(0), args.Error(1)
}
