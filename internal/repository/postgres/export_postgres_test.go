package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"notionpdf/internal/model"
	"notionpdf/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportCols = []string{
	"id", "request_id", "page_id", "filename", "page_size", "watermarked", "page_numbers",
	"status", "interpreter", "size", "pages", "duration_ms", "created_at",
}

func sampleRecord(now time.Time) *model.ExportRecord {
	return &model.ExportRecord{
		ID:          "rec-1",
		RequestID:   "req-1",
		PageID:      "p1",
		Filename:    "report.pdf",
		PageSize:    "letter",
		Watermarked: true,
		PageNumbers: false,
		Status:      model.StatusSucceeded,
		Interpreter: "python3",
		Size:        2048,
		Pages:       3,
		DurationMS:  1500,
		CreatedAt:   now,
	}
}

func TestExportPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewExportPostgres(db)
	ctx := context.Background()
	rec := sampleRecord(time.Now().UTC())

	t.Run("success", func(t *testing.T) {
		rows := sqlmock.NewRows(exportCols).AddRow(
			rec.ID, rec.RequestID, rec.PageID, rec.Filename, rec.PageSize, rec.Watermarked, rec.PageNumbers,
			rec.Status, rec.Interpreter, rec.Size, rec.Pages, rec.DurationMS, rec.CreatedAt,
		)
		mock.ExpectQuery("INSERT INTO export_records").
			WithArgs(rec.ID, rec.RequestID, rec.PageID, rec.Filename, rec.PageSize, rec.Watermarked, rec.PageNumbers,
				rec.Status, rec.Interpreter, rec.Size, rec.Pages, rec.DurationMS, rec.CreatedAt).
			WillReturnRows(rows)

		got, err := repo.Create(ctx, rec)

		require.NoError(t, err)
		assert.Equal(t, rec, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO export_records").WillReturnError(errors.New("insert failed"))

		got, err := repo.Create(ctx, rec)

		assert.Error(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExportPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewExportPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		rec := sampleRecord(time.Now().UTC())
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM export_records").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) FROM export_records ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(sqlmock.NewRows(exportCols).AddRow(
				rec.ID, rec.RequestID, rec.PageID, rec.Filename, rec.PageSize, rec.Watermarked, rec.PageNumbers,
				rec.Status, rec.Interpreter, rec.Size, rec.Pages, rec.DurationMS, rec.CreatedAt,
			))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "report.pdf", res.Items[0].Filename)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM export_records").
			WillReturnError(errors.New("count failed"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10})

		assert.Error(t, err)
		assert.Nil(t, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty page", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM export_records").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM export_records ORDER BY").
			WithArgs(5, 20).
			WillReturnRows(sqlmock.NewRows(exportCols))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 5, Offset: 20})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
	})
}
