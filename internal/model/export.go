package model

import "time"

// ExportRequest is the inbound payload of an export. Token is a credential
// and must never be logged, persisted or echoed back.
type ExportRequest struct {
	Token              string `json:"token"`
	PageID             string `json:"pageId"`
	Watermark          string `json:"watermark"`
	PageSize           string `json:"pageSize"`
	Filename           string `json:"filename"`
	IncludePageNumbers bool   `json:"includePageNumbers"`
}

// ExportArtifact is the finished PDF handed to the response path.
type ExportArtifact struct {
	// Filename includes the .pdf extension.
	Filename string
	Data     []byte
	// Pages is zero when the artifact could not be parsed.
	Pages int
}

// Export outcomes recorded in ExportRecord.Status.
const (
	StatusSucceeded       = "succeeded"
	StatusBadRequest      = "bad_request"
	StatusConversionError = "conversion_failed"
	StatusArtifactMissing = "artifact_missing"
	StatusInternalError   = "internal_error"
)

// ExportRecord is the audit trail of one export attempt. It holds metadata
// only: no credential and no document content.
type ExportRecord struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	PageID      string    `json:"page_id"`
	Filename    string    `json:"filename"`
	PageSize    string    `json:"page_size"`
	Watermarked bool      `json:"watermarked"`
	PageNumbers bool      `json:"page_numbers"`
	Status      string    `json:"status"`
	Interpreter string    `json:"interpreter"`
	Size        int64     `json:"size"`
	Pages       int       `json:"pages"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
