// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"

	"notionpdf/internal/model"
)

// ExportRepository persists export audit records using SQL queries only.
// No business logic here, strictly persistence operations.
type ExportRepository interface {
	// Create inserts a new export record and returns the stored row.
	Create(ctx context.Context, rec *model.ExportRecord) (*model.ExportRecord, error)

	// List returns a page of records, newest first, and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.ExportRecord], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
