package postgres

import (
	"context"
	"database/sql"

	"notionpdf/internal/model"
	"notionpdf/internal/repository"
)

// ExportPostgres is a PostgreSQL implementation of repository.ExportRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ExportPostgres struct {
	db *sql.DB
}

// NewExportPostgres creates a new ExportPostgres repository.
func NewExportPostgres(db *sql.DB) *ExportPostgres {
	return &ExportPostgres{db: db}
}

var _ repository.ExportRepository = (*ExportPostgres)(nil)

const exportColumns = `id, request_id, page_id, filename, page_size, watermarked, page_numbers,
		status, interpreter, size, pages, duration_ms, created_at`

func scanExport(s interface{ Scan(dest ...any) error }) (*model.ExportRecord, error) {
	var r model.ExportRecord
	if err := s.Scan(
		&r.ID,
		&r.RequestID,
		&r.PageID,
		&r.Filename,
		&r.PageSize,
		&r.Watermarked,
		&r.PageNumbers,
		&r.Status,
		&r.Interpreter,
		&r.Size,
		&r.Pages,
		&r.DurationMS,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new export row and returns the stored record.
func (r *ExportPostgres) Create(ctx context.Context, rec *model.ExportRecord) (*model.ExportRecord, error) {
	const q = `
		INSERT INTO export_records (` + exportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + exportColumns
	row := r.db.QueryRowContext(ctx, q,
		rec.ID,
		rec.RequestID,
		rec.PageID,
		rec.Filename,
		rec.PageSize,
		rec.Watermarked,
		rec.PageNumbers,
		rec.Status,
		rec.Interpreter,
		rec.Size,
		rec.Pages,
		rec.DurationMS,
		rec.CreatedAt,
	)
	return scanExport(row)
}

// List returns export records using LIMIT/OFFSET pagination and a total count.
func (r *ExportPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.ExportRecord], error) {
	const qCount = `SELECT COUNT(*) FROM export_records`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + exportColumns + `
		FROM export_records
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ExportRecord, 0)
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.ExportRecord]{
		Items: items,
		Total: total,
	}, nil
}
