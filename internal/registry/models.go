package registry

import (
	"time"

	"github.com/google/uuid"
)

// Lane partitions verified records into test and production data
type Lane string

const (
	LaneSandbox    Lane = "sandbox"
	LaneProduction Lane = "production"
)

// IsValidLane reports whether value names a known lane
func IsValidLane(value string) bool {
	switch Lane(value) {
	case LaneSandbox, LaneProduction:
		return true
	}
	return false
}

// VerifiedRecord is a row of the verified-document registry
type VerifiedRecord struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	EntityID          uuid.UUID  `json:"entity_id" db:"entity_id"`
	EntitySlug        string     `json:"entity_slug" db:"entity_slug"`
	EntityName        string     `json:"entity_name" db:"entity_name"`
	LedgerID          *uuid.UUID `json:"ledger_id,omitempty" db:"ledger_id"`
	EnvelopeID        *uuid.UUID `json:"envelope_id,omitempty" db:"envelope_id"`
	Title             string     `json:"title" db:"title"`
	ContentHash       string     `json:"content_hash" db:"content_hash"`
	StoragePath       string     `json:"storage_path" db:"storage_path"`
	MinuteBookPath    *string    `json:"minute_book_path,omitempty" db:"minute_book_path"`
	EvidenceKind      string     `json:"evidence_kind" db:"evidence_kind"`
	VerificationLevel string     `json:"verification_level" db:"verification_level"`
	Lane              Lane       `json:"lane" db:"lane"`
	VerifiedAt        time.Time  `json:"verified_at" db:"verified_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// ListFilter narrows registry list and export queries
type ListFilter struct {
	Lane              string
	EntityID          *uuid.UUID
	VerificationLevel string
	Page              int
	PageSize          int
}

// ListResult is the paged envelope for registry listings
type ListResult struct {
	OK       bool             `json:"ok"`
	Records  []VerifiedRecord `json:"records"`
	Total    int              `json:"total_count"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// DownloadURL carries a presigned GET link for an archived object
type DownloadURL struct {
	OK        bool      `json:"ok"`
	RecordID  uuid.UUID `json:"record_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportFormat selects the registry export encoding
type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "xlsx"
)

// ExportResult is a rendered registry export ready to stream
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
	RecordCount int
}
