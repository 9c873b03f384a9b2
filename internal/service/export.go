package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"notionpdf/internal/converter"
	"notionpdf/internal/ctxutil"
	"notionpdf/internal/interpreter"
	"notionpdf/internal/model"
	"notionpdf/internal/repository"
	"notionpdf/internal/workspace"
)

var (
	ErrConversionFailed = converter.ErrConversionFailed
	ErrArtifactMissing  = workspace.ErrArtifactMissing
	ErrHistoryDisabled  = errors.New("export history is not configured")
)

const recordTimeout = 3 * time.Second

// ExportListResult is the service-level DTO for paginated export records.
type ExportListResult struct {
	Items []model.ExportRecord `json:"data"`
	Total int                  `json:"total"`
}

// ExportService defines the use cases around exporting pages to PDF.
type ExportService interface {
	// Export validates req, runs the conversion in an isolated workspace and
	// returns the artifact. The workspace is gone by the time Export returns.
	Export(ctx context.Context, req model.ExportRequest) (*model.ExportArtifact, error)

	// History lists recorded export attempts, newest first.
	History(ctx context.Context, limit, offset int) (*ExportListResult, error)

	// Interpreter reports the runtime chosen by the latest resolution without
	// probing. It is "" until the first resolution.
	Interpreter() string
}

// Resolver picks the runtime invocation for the conversion program.
type Resolver interface {
	Resolve(ctx context.Context) string
	Last() string
}

// Converter runs one conversion job.
type Converter interface {
	Execute(ctx context.Context, job converter.Job) error
}

// Workspaces allocates per-export directories and owns their artifacts.
type Workspaces interface {
	Allocate(filename string) (*workspace.Workspace, error)
	ReadArtifact(ws *workspace.Workspace) ([]byte, error)
	Release(ws *workspace.Workspace)
}

// Deps groups the collaborators of the export service. Repo and Metrics are
// optional.
type Deps struct {
	Workspaces Workspaces
	Resolver   Resolver
	Converter  Converter
	Repo       repository.ExportRepository
	Metrics    *Metrics
	Log        logrus.FieldLogger
}

type exportService struct {
	workspaces Workspaces
	resolver   Resolver
	converter  Converter
	repo       repository.ExportRepository
	metrics    *Metrics
	log        logrus.FieldLogger
	tracer     trace.Tracer
}

// NewExportService constructs a new ExportService.
func NewExportService(d Deps) ExportService {
	return &exportService{
		workspaces: d.Workspaces,
		resolver:   d.Resolver,
		converter:  d.Converter,
		repo:       d.Repo,
		metrics:    d.Metrics,
		log:        d.Log.WithField("component", "export"),
		tracer:     otel.Tracer("notionpdf/internal/service"),
	}
}

func (s *exportService) Export(ctx context.Context, req model.ExportRequest) (art *model.ExportArtifact, err error) {
	ctx, span := s.tracer.Start(ctx, "export")
	defer span.End()

	start := time.Now()
	rec := &model.ExportRecord{
		ID:        uuid.NewString(),
		RequestID: ctxutil.RequestID(ctx),
		PageID:    req.PageID,
	}
	defer func() { s.finish(ctx, span, rec, start, art, err) }()

	norm, err := Normalize(req)
	if err != nil {
		return nil, err
	}
	rec.PageID = norm.PageID
	rec.Filename = norm.Filename + ".pdf"
	rec.PageSize = norm.PageSize
	rec.Watermarked = norm.Watermark != ""
	rec.PageNumbers = norm.IncludePageNumbers

	ws, err := s.workspaces.Allocate(norm.Filename)
	if err != nil {
		return nil, fmt.Errorf("allocate workspace: %w", err)
	}
	defer s.workspaces.Release(ws)

	rec.Interpreter = s.resolver.Resolve(ctx)
	span.SetAttributes(
		attribute.String("export.page_size", norm.PageSize),
		attribute.Bool("export.watermark", rec.Watermarked),
		attribute.Bool("export.page_numbers", norm.IncludePageNumbers),
		attribute.String("export.interpreter", rec.Interpreter),
	)

	// The caller cannot abort an export; only the conversion timeout can.
	err = s.converter.Execute(context.WithoutCancel(ctx), converter.Job{
		Interpreter: rec.Interpreter,
		Token:       norm.Token,
		PageID:      norm.PageID,
		OutputPath:  ws.OutputPath,
		PageSize:    norm.PageSize,
		Watermark:   norm.Watermark,
		PageNumbers: norm.IncludePageNumbers,
	})
	if err != nil {
		return nil, err
	}

	data, err := s.workspaces.ReadArtifact(ws)
	if err != nil {
		return nil, err
	}

	pages, perr := converter.PageCount(data)
	if perr != nil {
		s.log.WithError(perr).WithField("request_id", rec.RequestID).Warn("artifact could not be inspected")
	}

	return &model.ExportArtifact{
		Filename: rec.Filename,
		Data:     data,
		Pages:    pages,
	}, nil
}

// finish records the outcome of one export in logs, metrics, the trace and
// the audit repository.
func (s *exportService) finish(ctx context.Context, span trace.Span, rec *model.ExportRecord, start time.Time, art *model.ExportArtifact, err error) {
	elapsed := time.Since(start)
	rec.Status = Outcome(err)
	rec.DurationMS = elapsed.Milliseconds()
	rec.CreatedAt = start.UTC()
	if art != nil {
		rec.Size = int64(len(art.Data))
		rec.Pages = art.Pages
	}

	s.metrics.observe(rec.Status, elapsed, int(rec.Size))

	entry := s.log.WithFields(logrus.Fields{
		"request_id":  rec.RequestID,
		"page_id":     rec.PageID,
		"filename":    rec.Filename,
		"status":      rec.Status,
		"interpreter": rec.Interpreter,
		"size":        rec.Size,
		"pages":       rec.Pages,
		"duration_ms": rec.DurationMS,
	})
	switch rec.Status {
	case model.StatusSucceeded:
		span.SetAttributes(attribute.Int("export.bytes", len(art.Data)))
		entry.Info("export completed")
	case model.StatusBadRequest:
		entry.WithError(err).Warn("export rejected")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, rec.Status)
		entry.WithError(err).Error("export failed")
	}

	s.record(ctx, rec)
}

func (s *exportService) record(ctx context.Context, rec *model.ExportRecord) {
	if s.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if _, err := s.repo.Create(ctx, rec); err != nil {
		s.log.WithError(err).WithField("request_id", rec.RequestID).Error("export record not saved")
	}
}

// Outcome maps an Export error onto the status stored in audit records.
func Outcome(err error) string {
	switch {
	case err == nil:
		return model.StatusSucceeded
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidPageSize), errors.Is(err, ErrInvalidFilename):
		return model.StatusBadRequest
	case errors.Is(err, ErrConversionFailed):
		return model.StatusConversionError
	case errors.Is(err, ErrArtifactMissing):
		return model.StatusArtifactMissing
	default:
		return model.StatusInternalError
	}
}

// History returns paginated export records.
func (s *exportService) History(ctx context.Context, limit, offset int) (*ExportListResult, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ExportListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *exportService) Interpreter() string {
	return s.resolver.Last()
}

var (
	_ Workspaces = (*workspace.Manager)(nil)
	_ Converter  = (*converter.Executor)(nil)
	_ Resolver   = (*interpreter.Resolver)(nil)
)
