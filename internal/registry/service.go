package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quorumops/minutebook/internal/registry/export"
	"github.com/quorumops/minutebook/pkg/storage"
)

var (
	// ErrRecordNotFound means no verified record exists for the given id
	ErrRecordNotFound = errors.New("verified record not found")

	// ErrNoArchivedObject means the record carries no storage pointer
	ErrNoArchivedObject = errors.New("verified record has no archived object")

	// ErrUnsupportedFormat means the requested export format is unknown
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// exportColumns is the fixed column set for registry exports
var exportColumns = []string{
	"id", "entity_slug", "entity_name", "title", "lane",
	"verification_level", "evidence_kind", "content_hash",
	"storage_path", "verified_at",
}

// Service exposes read operations over the verified-document registry
type Service interface {
	ListRecords(ctx context.Context, filter ListFilter) (*ListResult, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*VerifiedRecord, error)
	GetDownloadURL(ctx context.Context, id uuid.UUID) (*DownloadURL, error)
	ExportRecords(ctx context.Context, filter ListFilter, format ExportFormat) (*ExportResult, error)
}

type service struct {
	repo       Repository
	store      storage.S3Client
	bucket     string
	presignTTL time.Duration
	logger     *zap.Logger
}

// NewService creates a new registry service
func NewService(repo Repository, store storage.S3Client, bucket string, presignTTL time.Duration, logger *zap.Logger) Service {
	return &service{
		repo:       repo,
		store:      store,
		bucket:     bucket,
		presignTTL: presignTTL,
		logger:     logger,
	}
}

// ListRecords returns a page of verified records matching the filter
func (s *service) ListRecords(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	records, total, err := s.repo.ListVerifiedRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list verified records: %w", err)
	}

	if records == nil {
		records = []VerifiedRecord{}
	}

	return &ListResult{
		OK:       true,
		Records:  records,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// GetRecord returns a single verified record by id
func (s *service) GetRecord(ctx context.Context, id uuid.UUID) (*VerifiedRecord, error) {
	record, err := s.repo.GetVerifiedRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get verified record: %w", err)
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

// GetDownloadURL mints a presigned GET URL for the record's archived object
func (s *service) GetDownloadURL(ctx context.Context, id uuid.UUID) (*DownloadURL, error) {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.StoragePath == "" {
		return nil, ErrNoArchivedObject
	}

	url, err := s.store.GetPresignedURL(ctx, s.bucket, record.StoragePath, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download URL: %w", err)
	}

	return &DownloadURL{
		OK:        true,
		RecordID:  record.ID,
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(s.presignTTL),
	}, nil
}

// ExportRecords renders the filtered registry as CSV or XLSX. Paging is
// ignored; exports always cover the whole filtered set.
func (s *service) ExportRecords(ctx context.Context, filter ListFilter, format ExportFormat) (*ExportResult, error) {
	if format != ExportFormatCSV && format != ExportFormatExcel {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	filter.Page = 0
	filter.PageSize = 0

	records, _, err := s.repo.ListVerifiedRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry for export: %w", err)
	}

	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordRow(rec))
	}

	var buf bytes.Buffer
	switch format {
	case ExportFormatCSV:
		exporter := export.NewCSVExporter(&buf, export.DefaultCSVOptions())
		if err := exporter.WriteMapRows(rows, exportColumns); err != nil {
			return nil, fmt.Errorf("failed to write CSV export: %w", err)
		}
		if err := exporter.Flush(); err != nil {
			return nil, fmt.Errorf("failed to flush CSV export: %w", err)
		}
	case ExportFormatExcel:
		exporter := export.NewExcelExporter(export.DefaultExcelOptions())
		if err := exporter.WriteHeader(exportColumns); err != nil {
			return nil, fmt.Errorf("failed to write XLSX header: %w", err)
		}
		if err := exporter.WriteRows(rows, exportColumns); err != nil {
			return nil, fmt.Errorf("failed to write XLSX export: %w", err)
		}
		if err := exporter.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to encode XLSX export: %w", err)
		}
		exporter.Close()
	}

	result := &ExportResult{
		FileName:    exportFileName(format),
		ContentType: exportContentType(format),
		Data:        buf.Bytes(),
		RecordCount: len(records),
	}

	s.logger.Info("Registry exported",
		zap.String("format", string(format)),
		zap.Int("record_count", result.RecordCount),
		zap.String("file_name", result.FileName))

	return result, nil
}

func recordRow(rec VerifiedRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":                 rec.ID.String(),
		"entity_slug":        rec.EntitySlug,
		"entity_name":        rec.EntityName,
		"title":              rec.Title,
		"lane":               string(rec.Lane),
		"verification_level": rec.VerificationLevel,
		"evidence_kind":      rec.EvidenceKind,
		"content_hash":       rec.ContentHash,
		"storage_path":       rec.StoragePath,
		"verified_at":        rec.VerifiedAt,
	}
}

func exportFileName(format ExportFormat) string {
	stamp := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("verified-registry-%s.%s", stamp, format)
}

func exportContentType(format ExportFormat) string {
	if format == ExportFormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
