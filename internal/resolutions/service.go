package resolutions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quorumops/minutebook/pkg/storage"
)

var (
	ErrInvalidRequest   = errors.New("record_id and envelope_id are required")
	ErrRecordNotFound   = errors.New("ledger record not found")
	ErrEntityNotFound   = errors.New("entity not found")
	ErrEnvelopeNotFound = errors.New("signature envelope not found")
)

// ===== Service Interface =====

// Service renders resolution PDFs into the minute book and records
// where they landed on the signature envelope.
type Service interface {
	RenderResolution(ctx context.Context, recordID, envelopeID uuid.UUID) (*RenderResult, error)
}

// ===== Service Implementation =====

type service struct {
	repo     Repository
	store    storage.S3Client
	renderer *PDFRenderer
	bucket   string
	logger   *zap.Logger
}

// NewService creates a new resolution service
func NewService(repo Repository, store storage.S3Client, renderer *PDFRenderer, bucket string, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		store:    store,
		renderer: renderer,
		bucket:   bucket,
		logger:   logger,
	}
}

// RenderResolution loads the record, its entity, and the envelope,
// renders the PDF, uploads it at the record's deterministic path, and
// then patches the envelope. The patch is best effort: once the PDF
// is durable a pointer failure no longer fails the request.
func (s *service) RenderResolution(ctx context.Context, recordID, envelopeID uuid.UUID) (*RenderResult, error) {
	if recordID == uuid.Nil || envelopeID == uuid.Nil {
		return nil, ErrInvalidRequest
	}

	record, err := s.repo.GetLedgerRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger record: %w", err)
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}

	entity, err := s.repo.GetEntity(ctx, record.EntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entity: %w", err)
	}
	if entity == nil {
		return nil, ErrEntityNotFound
	}

	envelope, err := s.repo.GetEnvelope(ctx, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load signature envelope: %w", err)
	}
	if envelope == nil {
		return nil, ErrEnvelopeNotFound
	}

	pdfBytes, err := s.renderer.Render(record, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to render resolution: %w", err)
	}

	key := ObjectKey(entity.Slug, record.ID)
	if err := s.store.Upload(ctx, s.bucket, key, bytes.NewReader(pdfBytes), "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to upload resolution pdf: %w", err)
	}

	if err := s.patchEnvelope(ctx, envelopeID, record, entity, key); err != nil {
		s.logger.Error("Failed to patch signature envelope after upload",
			zap.String("envelope_id", envelopeID.String()),
			zap.String("storage_path", key),
			zap.Error(err))
	}

	s.logger.Info("Rendered resolution",
		zap.String("record_id", record.ID.String()),
		zap.String("entity_slug", entity.Slug),
		zap.String("storage_path", key),
		zap.Int("bytes", len(pdfBytes)))

	return &RenderResult{
		OK:            true,
		RecordID:      record.ID.String(),
		EnvelopeID:    envelopeID.String(),
		StorageBucket: s.bucket,
		StoragePath:   key,
		EntitySlug:    entity.Slug,
	}, nil
}

// patchEnvelope re-reads the envelope and shallow-merges the storage
// pointer keys into its metadata bag. The read-merge-write is not
// guarded against concurrent patches of the same envelope; accepted
// for operator-triggered traffic.
func (s *service) patchEnvelope(ctx context.Context, envelopeID uuid.UUID, record *LedgerRecord, entity *Entity, storagePath string) error {
	envelope, err := s.repo.GetEnvelope(ctx, envelopeID)
	if err != nil {
		return fmt.Errorf("failed to re-read signature envelope: %w", err)
	}
	if envelope == nil {
		return fmt.Errorf("signature envelope %s no longer exists", envelopeID)
	}

	merged, replaced, err := mergeEnvelopeMetadata(envelope.Metadata, record, entity, storagePath)
	if err != nil {
		return err
	}
	if replaced {
		s.logger.Warn("Envelope metadata is not a JSON object, replacing",
			zap.String("envelope_id", envelopeID.String()))
	}

	return s.repo.UpdateEnvelopeDocument(ctx, envelopeID, merged, storagePath)
}

// mergeEnvelopeMetadata shallow-merges the storage pointer keys into an
// envelope's metadata bag, preserving unrelated keys. Metadata that is
// not a JSON object is replaced wholesale; the second return reports
// that replacement so callers can log it.
func mergeEnvelopeMetadata(existing json.RawMessage, record *LedgerRecord, entity *Entity, storagePath string) (json.RawMessage, bool, error) {
	metadata := map[string]interface{}{}
	replaced := false
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &metadata); err != nil {
			metadata = map[string]interface{}{}
			replaced = true
		}
	}
	metadata["record_id"] = record.ID.String()
	metadata["entity_id"] = entity.ID.String()
	metadata["entity_slug"] = entity.Slug
	metadata["entity_name"] = entity.Name
	metadata["storage_path"] = storagePath

	merged, err := json.Marshal(metadata)
	if err != nil {
		return nil, replaced, fmt.Errorf("failed to marshal envelope metadata: %w", err)
	}
	return merged, replaced, nil
}
