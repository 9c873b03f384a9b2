package service

import (
	"strings"
	"testing"

	"notionpdf/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		req     model.ExportRequest
		want    model.ExportRequest
		wantErr error
	}{
		{
			name: "defaults applied",
			req:  model.ExportRequest{Token: "t1", PageID: "p1"},
			want: model.ExportRequest{Token: "t1", PageID: "p1", PageSize: "letter", Filename: "notion-export"},
		},
		{
			name: "all fields",
			req: model.ExportRequest{
				Token: " t1 ", PageID: "p1", Watermark: "DRAFT", PageSize: "A4",
				Filename: "Q3 report_v2", IncludePageNumbers: true,
			},
			want: model.ExportRequest{
				Token: "t1", PageID: "p1", Watermark: "DRAFT", PageSize: "a4",
				Filename: "Q3 report_v2", IncludePageNumbers: true,
			},
		},
		{
			name: "pdf extension stripped",
			req:  model.ExportRequest{Token: "t1", PageID: "p1", Filename: "report.PDF"},
			want: model.ExportRequest{Token: "t1", PageID: "p1", PageSize: "letter", Filename: "report"},
		},
		{
			name: "blank watermark dropped",
			req:  model.ExportRequest{Token: "t1", PageID: "p1", Watermark: "   "},
			want: model.ExportRequest{Token: "t1", PageID: "p1", PageSize: "letter", Filename: "notion-export"},
		},
		{name: "missing token", req: model.ExportRequest{PageID: "p1"}, wantErr: ErrMissingFields},
		{name: "missing page id", req: model.ExportRequest{Token: "t1"}, wantErr: ErrMissingFields},
		{name: "missing both", req: model.ExportRequest{}, wantErr: ErrMissingFields},
		{name: "whitespace token", req: model.ExportRequest{Token: "  ", PageID: "p1"}, wantErr: ErrMissingFields},
		{
			name:    "missing fields win over other problems",
			req:     model.ExportRequest{PageID: "p1", PageSize: "tabloid", Filename: "../x"},
			wantErr: ErrMissingFields,
		},
		{name: "unknown page size", req: model.ExportRequest{Token: "t1", PageID: "p1", PageSize: "tabloid"}, wantErr: ErrInvalidPageSize},
		{name: "path traversal", req: model.ExportRequest{Token: "t1", PageID: "p1", Filename: "../../etc/passwd"}, wantErr: ErrInvalidFilename},
		{name: "separator", req: model.ExportRequest{Token: "t1", PageID: "p1", Filename: "a/b"}, wantErr: ErrInvalidFilename},
		{name: "hidden file", req: model.ExportRequest{Token: "t1", PageID: "p1", Filename: ".bashrc"}, wantErr: ErrInvalidFilename},
		{name: "quote", req: model.ExportRequest{Token: "t1", PageID: "p1", Filename: `a"b`}, wantErr: ErrInvalidFilename},
		{name: "too long", req: model.ExportRequest{Token: "t1", PageID: "p1", Filename: strings.Repeat("a", 129)}, wantErr: ErrInvalidFilename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, model.ExportRequest{}, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
