package mocks

import (
	"context"

	"notionpdf/internal/model"
	"notionpdf/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Export(ctx context.Context, req model.ExportRequest) (*model.ExportArtifact, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExportArtifact), args.Error(1)
}

func (m *MockExportService) History(ctx context.Context, limit, offset int) (*service.ExportListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportListResult), args.Error(1)
}

func (m *MockExportService) Interpreter() string {
	args := m.Called()
	return args.String(0)
}
