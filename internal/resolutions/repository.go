package resolutions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ===== Repository Interface =====

type Repository interface {
	GetLedgerRecord(ctx context.Context, id uuid.UUID) (*LedgerRecord, error)
	GetEntity(ctx context.Context, id uuid.UUID) (*Entity, error)
	GetEnvelope(ctx context.Context, id uuid.UUID) (*SignatureEnvelope, error)
	UpdateEnvelopeDocument(ctx context.Context, id uuid.UUID, metadata json.RawMessage, storagePath string) error
	ListUnlinkedEnvelopes(ctx context.Context, limit int) ([]UnlinkedEnvelope, error)
}

// ===== PostgreSQL Implementation =====

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetLedgerRecord(ctx context.Context, id uuid.UUID) (*LedgerRecord, error) {
	query := `
		SELECT id, entity_id, title, body, status, lane, created_at, updated_at
		FROM ledger_records
		WHERE id = $1`

	var record LedgerRecord
	err := r.db.GetContext(ctx, &record, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger record: %w", err)
	}
	return &record, nil
}

func (r *postgresRepository) GetEntity(ctx context.Context, id uuid.UUID) (*Entity, error) {
	query := `
		SELECT id, slug, name, created_at
		FROM entities
		WHERE id = $1`

	var entity Entity
	err := r.db.GetContext(ctx, &entity, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return &entity, nil
}

func (r *postgresRepository) GetEnvelope(ctx context.Context, id uuid.UUID) (*SignatureEnvelope, error) {
	query := `
		SELECT id, record_id, status, metadata, storage_path, supporting_document_path, created_at, updated_at
		FROM signature_envelopes
		WHERE id = $1`

	var envelope SignatureEnvelope
	err := r.db.GetContext(ctx, &envelope, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signature envelope: %w", err)
	}
	return &envelope, nil
}

// UpdateEnvelopeDocument writes the merged metadata bag and the
// storage pointer. The legacy supporting_document_path column gets
// the same value for older console pages that still read it.
func (r *postgresRepository) UpdateEnvelopeDocument(ctx context.Context, id uuid.UUID, metadata json.RawMessage, storagePath string) error {
	query := `
		UPDATE signature_envelopes
		SET metadata = $2,
		    storage_path = $3,
		    supporting_document_path = $3,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, metadata, storagePath)
	if err != nil {
		return fmt.Errorf("failed to update signature envelope: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("signature envelope %s not found", id)
	}
	return nil
}

// ListUnlinkedEnvelopes returns envelopes that reference a ledger
// record but carry no storage pointer, oldest first.
func (r *postgresRepository) ListUnlinkedEnvelopes(ctx context.Context, limit int) ([]UnlinkedEnvelope, error) {
	query := `
		SELECT e.id AS envelope_id, e.metadata,
		       rec.id AS record_id, rec.title AS record_title,
		       ent.id AS entity_id, ent.slug AS entity_slug, ent.name AS entity_name
		FROM signature_envelopes e
		JOIN ledger_records rec ON rec.id = e.record_id
		JOIN entities ent ON ent.id = rec.entity_id
		WHERE e.record_id IS NOT NULL
		  AND e.storage_path IS NULL
		ORDER BY e.updated_at ASC
		LIMIT $1`

	var envelopes []UnlinkedEnvelope
	if err := r.db.SelectContext(ctx, &envelopes, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unlinked envelopes: %w", err)
	}
	return envelopes, nil
}
