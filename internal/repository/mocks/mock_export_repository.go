package mocks

import (
	"context"

	"notionpdf/internal/model"
	"notionpdf/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockExportRepository struct {
	mock.Mock
}

func (m *MockExportRepository) Create(ctx context.Context, rec *model.ExportRecord) (*model.ExportRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExportRecord), args.Error(1)
}

func (m *MockExportRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.ExportRecord], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.ExportRecord]), args.Error(1)
}
