package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"notionpdf/internal/model"
)

const (
	DefaultPageSize = "letter"
	DefaultFilename = "notion-export"
)

// PageSizes lists the page-size tokens the conversion program accepts.
var PageSizes = []string{"letter", "a4"}

var (
	ErrMissingFields   = errors.New("missing required fields: token and pageId")
	ErrInvalidPageSize = errors.New("invalid page size")
	ErrInvalidFilename = errors.New("invalid filename")
)

// filenamePattern keeps names inside the workspace and safe to quote in a
// Content-Disposition header.
var filenamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._ -]{0,127}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("export_filename", func(fl validator.FieldLevel) bool {
		return filenamePattern.MatchString(fl.Field().String())
	})
	return v
}

// exportInput mirrors the fields of model.ExportRequest that carry rules.
type exportInput struct {
	Token    string `validate:"required"`
	PageID   string `validate:"required"`
	PageSize string `validate:"oneof=letter a4"`
	Filename string `validate:"export_filename"`
}

// Normalize validates req and applies the defaults for optional fields.
// Missing credentials are reported before any other problem.
func Normalize(req model.ExportRequest) (model.ExportRequest, error) {
	out := model.ExportRequest{
		Token:              strings.TrimSpace(req.Token),
		PageID:             strings.TrimSpace(req.PageID),
		Watermark:          strings.TrimSpace(req.Watermark),
		PageSize:           strings.ToLower(strings.TrimSpace(req.PageSize)),
		Filename:           strings.TrimSpace(req.Filename),
		IncludePageNumbers: req.IncludePageNumbers,
	}
	if out.PageSize == "" {
		out.PageSize = DefaultPageSize
	}
	if len(out.Filename) > 4 && strings.EqualFold(out.Filename[len(out.Filename)-4:], ".pdf") {
		out.Filename = out.Filename[:len(out.Filename)-4]
	}
	if out.Filename == "" {
		out.Filename = DefaultFilename
	}

	err := validate.Struct(exportInput{
		Token:    out.Token,
		PageID:   out.PageID,
		PageSize: out.PageSize,
		Filename: out.Filename,
	})
	if err == nil {
		return out, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.ExportRequest{}, err
	}
	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.StructField()] = true
	}
	switch {
	case failed["Token"] || failed["PageID"]:
		return model.ExportRequest{}, ErrMissingFields
	case failed["PageSize"]:
		return model.ExportRequest{}, ErrInvalidPageSize
	default:
		return model.ExportRequest{}, ErrInvalidFilename
	}
}
