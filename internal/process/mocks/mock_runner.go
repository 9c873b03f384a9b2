package mocks

import (
	"context"

	"notionpdf/internal/process"

	"github.com/stretchr/testify/mock"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	args := m.Called(ctx, cmd)
	if f, ok := args.Get(0).(func(context.Context, process.Command) *process.Result); ok {
		return f(ctx, cmd), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*process.Result), args.Error(1)
}
